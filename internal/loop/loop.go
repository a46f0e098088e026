// Package loop is the overlay's single blocking point: it waits on the
// display connection and the control plane together and drains whichever
// is ready.
package loop

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"math"
	"time"

	"golang.org/x/sys/unix"

	"glassnote/internal/logx"
)

// Display is the compositor connection.
type Display interface {
	Fd() int
	// Flush writes as much queued output as the socket accepts.
	Flush() error
	// WantWrite reports whether output is still queued after Flush.
	WantWrite() bool
	// Dispatch reads and handles every event currently available.
	Dispatch() error
}

// Control is the control-plane request source.
type Control interface {
	Fd() int
	NextDeadline() (time.Time, bool)
	// Process serves every pending request.
	Process() error
}

// ErrHangup is returned when either descriptor reports a hang-up or error.
var ErrHangup = errors.New("loop: descriptor hung up")

const (
	slotDisplay = iota
	slotControl
	slotStop
)

// Run multiplexes d and c until running returns false or ctx is done.
// Cancellation of ctx is a clean stop and returns nil.
func Run(ctx context.Context, d Display, c Control, running func() bool) error {
	stopFd, err := unix.Eventfd(0, unix.EFD_CLOEXEC|unix.EFD_NONBLOCK)
	if err != nil {
		return fmt.Errorf("create stop eventfd: %w", err)
	}
	defer unix.Close(stopFd)

	stopWake := context.AfterFunc(ctx, func() {
		var one [8]byte
		binary.NativeEndian.PutUint64(one[:], 1)
		unix.Write(stopFd, one[:])
	})
	defer stopWake()

	log := logx.Logger()
	fds := make([]unix.PollFd, 3)
	for running() {
		if ctx.Err() != nil {
			return nil
		}
		if err := d.Flush(); err != nil {
			return fmt.Errorf("flush display: %w", err)
		}

		displayEvents := int16(unix.POLLIN)
		if d.WantWrite() {
			displayEvents |= unix.POLLOUT
		}
		fds[slotDisplay] = unix.PollFd{Fd: int32(d.Fd()), Events: displayEvents}
		fds[slotControl] = unix.PollFd{Fd: int32(c.Fd()), Events: unix.POLLIN}
		fds[slotStop] = unix.PollFd{Fd: int32(stopFd), Events: unix.POLLIN}

		timeout := pollTimeout(c, time.Now())
		n, err := unix.Poll(fds, timeout)
		if err != nil {
			if errors.Is(err, unix.EINTR) {
				continue
			}
			return fmt.Errorf("poll: %w", err)
		}

		if fds[slotStop].Revents != 0 {
			return nil
		}
		// Input that arrived with a hang-up is dispatched first; it usually
		// carries the compositor's reason for closing.
		if fds[slotDisplay].Revents&unix.POLLIN != 0 {
			if err := d.Dispatch(); err != nil {
				return fmt.Errorf("dispatch display: %w", err)
			}
		}
		for _, slot := range []int{slotDisplay, slotControl} {
			if fds[slot].Revents&(unix.POLLHUP|unix.POLLERR|unix.POLLNVAL) != 0 {
				return fmt.Errorf("%w: fd %d revents %#x", ErrHangup, fds[slot].Fd, fds[slot].Revents)
			}
		}
		if n == 0 || fds[slotControl].Revents&unix.POLLIN != 0 {
			if err := c.Process(); err != nil {
				return fmt.Errorf("process control: %w", err)
			}
		}
		if n == 0 {
			log.Debug("poll timed out on control deadline")
		}
	}
	return nil
}

// pollTimeout returns milliseconds until the control plane's next deadline,
// or -1 to wait indefinitely.
func pollTimeout(c Control, now time.Time) int {
	deadline, ok := c.NextDeadline()
	if !ok {
		return -1
	}
	d := deadline.Sub(now)
	if d <= 0 {
		return 0
	}
	ms := math.Ceil(float64(d) / float64(time.Millisecond))
	if ms > math.MaxInt32 {
		return math.MaxInt32
	}
	return int(ms)
}
