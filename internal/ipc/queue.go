package ipc

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"sync"
	"time"

	"golang.org/x/sys/unix"

	"glassnote/internal/logx"
)

type pending struct {
	Request
	deadline time.Time
	reply    chan bool

	// Guarded by Queue.mu.
	taken     bool
	abandoned bool
}

// Queue hands requests from bus goroutines to the event loop. The loop
// waits on Fd and calls Process; submitters block until their request is
// served or expires.
type Queue struct {
	timeout time.Duration
	wakeFd  int
	now     func() time.Time

	mu      sync.Mutex
	items   []*pending
	closed  bool
	closing chan struct{}
}

// NewQueue returns a queue whose requests expire after timeout.
func NewQueue(timeout time.Duration) (*Queue, error) {
	fd, err := unix.Eventfd(0, unix.EFD_CLOEXEC|unix.EFD_NONBLOCK)
	if err != nil {
		return nil, fmt.Errorf("create wake eventfd: %w", err)
	}
	return &Queue{
		timeout: timeout,
		wakeFd:  fd,
		now:     time.Now,
		closing: make(chan struct{}),
	}, nil
}

// Fd returns a descriptor that becomes readable when requests are queued.
func (q *Queue) Fd() int { return q.wakeFd }

// Submit queues r and waits for the loop to serve it.
func (q *Queue) Submit(ctx context.Context, r Request) (bool, error) {
	p := &pending{
		Request:  r,
		deadline: q.now().Add(q.timeout),
		reply:    make(chan bool, 1),
	}

	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return false, ErrClosed
	}
	q.items = append(q.items, p)
	// Woken under the lock so Close cannot release the fd in between.
	err := q.wake()
	q.mu.Unlock()
	if err != nil {
		logx.Logger().Warn("wake event loop", "err", err)
	}

	timer := time.NewTimer(q.timeout)
	defer timer.Stop()

	var cause error
	select {
	case ok := <-p.reply:
		return ok, nil
	case <-timer.C:
		cause = ErrTimeout
	case <-ctx.Done():
		cause = ctx.Err()
	case <-q.closing:
		cause = ErrClosed
	}

	q.mu.Lock()
	if p.taken {
		// The loop is already running the handler; its answer is imminent.
		q.mu.Unlock()
		return <-p.reply, nil
	}
	p.abandoned = true
	q.mu.Unlock()
	return false, cause
}

// NextDeadline returns the earliest deadline of any queued request.
func (q *Queue) NextDeadline() (time.Time, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	var next time.Time
	for _, p := range q.items {
		if p.abandoned {
			continue
		}
		if next.IsZero() || p.deadline.Before(next) {
			next = p.deadline
		}
	}
	return next, !next.IsZero()
}

// Process serves every queued request with h, discarding expired and
// abandoned ones, and returns how many were served. It must be called from
// the goroutine that owns h.
func (q *Queue) Process(h Handler) (int, error) {
	if err := q.drainWake(); err != nil {
		return 0, err
	}

	served := 0
	for {
		p, ok := q.next()
		if !ok {
			return served, nil
		}
		result := p.apply(h)
		p.reply <- result
		served++
		logx.Logger().Debug("control request", "cmd", p.Cmd, "result", result)
	}
}

// next pops the first live request and marks it taken.
func (q *Queue) next() (*pending, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	now := q.now()
	for len(q.items) > 0 {
		p := q.items[0]
		q.items[0] = nil
		q.items = q.items[1:]

		if p.abandoned || !now.Before(p.deadline) {
			p.abandoned = true
			logx.Logger().Debug("dropping expired control request", "cmd", p.Cmd)
			continue
		}
		p.taken = true
		return p, true
	}
	return nil, false
}

// Len returns the number of queued requests.
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items)
}

// Close fails every waiting submitter and releases the wake descriptor.
func (q *Queue) Close() error {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return nil
	}
	q.closed = true
	q.items = nil
	close(q.closing)
	q.mu.Unlock()
	return unix.Close(q.wakeFd)
}

func (q *Queue) wake() error {
	var buf [8]byte
	binary.NativeEndian.PutUint64(buf[:], 1)
	_, err := unix.Write(q.wakeFd, buf[:])
	if errors.Is(err, unix.EAGAIN) {
		// Counter saturated; the loop will wake anyway.
		return nil
	}
	return err
}

func (q *Queue) drainWake() error {
	var buf [8]byte
	_, err := unix.Read(q.wakeFd, buf[:])
	if err != nil && !errors.Is(err, unix.EAGAIN) {
		return fmt.Errorf("drain wake eventfd: %w", err)
	}
	return nil
}
