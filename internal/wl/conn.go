package wl

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"golang.org/x/sys/unix"

	"glassnote/internal/logx"
)

// ErrClosed is returned once the compositor closed the connection.
var ErrClosed = errors.New("wl: connection closed by compositor")

const displayID = 1

type handler func(ev *Event) error

// Conn is a client connection to a compositor.
type Conn struct {
	fd int

	out    []byte
	outFds []int

	in    []byte
	inFds []int
	rbuf  []byte
	oob   []byte

	handlers map[uint32]handler
	nextID   uint32
	free     []uint32

	err error

	display *Display
}

// Connect opens the socket named by $WAYLAND_DISPLAY, relative to
// $XDG_RUNTIME_DIR unless absolute, defaulting to wayland-0.
func Connect() (*Conn, error) {
	path, err := socketPath()
	if err != nil {
		return nil, err
	}
	fd, err := unix.Socket(unix.AF_UNIX, unix.SOCK_STREAM|unix.SOCK_CLOEXEC, 0)
	if err != nil {
		return nil, fmt.Errorf("wl: socket: %w", err)
	}
	if err := unix.Connect(fd, &unix.SockaddrUnix{Name: path}); err != nil {
		unix.Close(fd)
		return nil, fmt.Errorf("wl: connect %s: %w", path, err)
	}
	c, err := NewConn(fd)
	if err != nil {
		unix.Close(fd)
		return nil, err
	}
	logx.Logger().Debug("connected to compositor", "socket", path)
	return c, nil
}

func socketPath() (string, error) {
	name := os.Getenv("WAYLAND_DISPLAY")
	if name == "" {
		name = "wayland-0"
	}
	if filepath.IsAbs(name) {
		return name, nil
	}
	dir := os.Getenv("XDG_RUNTIME_DIR")
	if dir == "" {
		return "", errors.New("wl: XDG_RUNTIME_DIR is not set")
	}
	return filepath.Join(dir, name), nil
}

// NewConn wraps an already connected stream socket. The Conn takes
// ownership of fd and switches it to non-blocking mode.
func NewConn(fd int) (*Conn, error) {
	if err := unix.SetNonblock(fd, true); err != nil {
		return nil, fmt.Errorf("wl: set nonblock: %w", err)
	}
	c := &Conn{
		fd:       fd,
		rbuf:     make([]byte, 4*maxMessageSize),
		oob:      make([]byte, unix.CmsgSpace(28*4)),
		handlers: make(map[uint32]handler),
		nextID:   displayID + 1,
	}
	c.display = &Display{Proxy: Proxy{conn: c, id: displayID}}
	c.handlers[displayID] = c.display.dispatch
	return c, nil
}

// Display returns the wl_display singleton.
func (c *Conn) Display() *Display { return c.display }

// Fd returns the socket descriptor.
func (c *Conn) Fd() int { return c.fd }

// Err returns the first fatal error seen on the connection.
func (c *Conn) Err() error { return c.err }

func (c *Conn) fail(err error) error {
	if c.err == nil {
		c.err = err
	}
	return c.err
}

func (c *Conn) newID(h handler) uint32 {
	var id uint32
	if n := len(c.free); n > 0 {
		id = c.free[n-1]
		c.free = c.free[:n-1]
	} else {
		id = c.nextID
		c.nextID++
	}
	c.handlers[id] = h
	return id
}

// forget stops dispatching events to id. The id is recycled once the
// compositor acknowledges with delete_id.
func (c *Conn) forget(id uint32) {
	delete(c.handlers, id)
}

func (c *Conn) release(id uint32) {
	if _, live := c.handlers[id]; live {
		// Server-destroyed object such as a fired callback.
		delete(c.handlers, id)
	}
	c.free = append(c.free, id)
}

// send queues a request. Errors are sticky and surface on Flush.
func (c *Conn) send(id uint32, opcode uint16, args ...Arg) {
	if c.err != nil {
		return
	}
	msg, fds, err := marshal(id, opcode, args)
	if err != nil {
		c.fail(err)
		return
	}
	c.out = append(c.out, msg...)
	c.outFds = append(c.outFds, fds...)
}

// WantWrite reports whether queued output remains after Flush.
func (c *Conn) WantWrite() bool { return len(c.out) > 0 }

// Flush writes as much queued output as the socket accepts without
// blocking.
func (c *Conn) Flush() error {
	if c.err != nil {
		return c.err
	}
	for len(c.out) > 0 {
		var oob []byte
		if len(c.outFds) > 0 {
			oob = unix.UnixRights(c.outFds...)
		}
		n, err := unix.SendmsgN(c.fd, c.out, oob, nil, unix.MSG_NOSIGNAL|unix.MSG_DONTWAIT)
		switch {
		case errors.Is(err, unix.EAGAIN):
			return nil
		case errors.Is(err, unix.EINTR):
			continue
		case errors.Is(err, unix.EPIPE):
			return c.fail(ErrClosed)
		case err != nil:
			return c.fail(fmt.Errorf("wl: sendmsg: %w", err))
		}
		c.outFds = c.outFds[:0]
		c.out = c.out[n:]
	}
	c.out = c.out[:0]
	return nil
}

// Dispatch reads every available event and runs its handler.
func (c *Conn) Dispatch() error {
	if c.err != nil {
		return c.err
	}
	// Events read before a hang-up still run, so a protocol error sent
	// right before the compositor closes the socket is reported.
	rerr := c.readAvailable()
	if err := c.dispatchBuffered(); err != nil {
		return err
	}
	if rerr != nil {
		return c.fail(rerr)
	}
	return nil
}

func (c *Conn) readAvailable() error {
	for {
		n, oobn, _, _, err := unix.Recvmsg(c.fd, c.rbuf, c.oob, unix.MSG_DONTWAIT|unix.MSG_CMSG_CLOEXEC)
		switch {
		case errors.Is(err, unix.EAGAIN):
			return nil
		case errors.Is(err, unix.EINTR):
			continue
		case err != nil:
			return fmt.Errorf("wl: recvmsg: %w", err)
		}
		if oobn > 0 {
			if err := c.parseRights(c.oob[:oobn]); err != nil {
				return err
			}
		}
		if n == 0 {
			return ErrClosed
		}
		c.in = append(c.in, c.rbuf[:n]...)
	}
}

func (c *Conn) parseRights(oob []byte) error {
	msgs, err := unix.ParseSocketControlMessage(oob)
	if err != nil {
		return fmt.Errorf("wl: parse control message: %w", err)
	}
	for i := range msgs {
		fds, err := unix.ParseUnixRights(&msgs[i])
		if err != nil {
			continue
		}
		c.inFds = append(c.inFds, fds...)
	}
	return nil
}

func (c *Conn) dispatchBuffered() error {
	for len(c.in) >= headerSize {
		sender := order.Uint32(c.in[0:])
		word := order.Uint32(c.in[4:])
		size, opcode := int(word>>16), uint16(word&0xffff)
		if size < headerSize || size%4 != 0 {
			return c.fail(fmt.Errorf("wl: bad message size %d from object %d", size, sender))
		}
		if len(c.in) < size {
			break
		}

		ev := &Event{Sender: sender, Opcode: opcode, data: c.in[headerSize:size], fds: &c.inFds}
		if h, ok := c.handlers[sender]; ok {
			if err := h(ev); err != nil {
				return c.fail(err)
			}
			if ev.err != nil {
				return c.fail(ev.err)
			}
		}
		c.in = c.in[size:]
		if c.err != nil {
			return c.err
		}
	}
	if len(c.in) == 0 {
		c.in = c.in[:0:0]
	}
	return nil
}

// Roundtrip blocks until the compositor has handled every request sent so
// far, dispatching events meanwhile.
func (c *Conn) Roundtrip() error {
	done := false
	cb := c.display.Sync()
	cb.OnDone = func(uint32) { done = true }

	for !done {
		if err := c.Flush(); err != nil {
			return err
		}
		events := int16(unix.POLLIN)
		if c.WantWrite() {
			events |= unix.POLLOUT
		}
		fds := []unix.PollFd{{Fd: int32(c.fd), Events: events}}
		if _, err := unix.Poll(fds, -1); err != nil {
			if errors.Is(err, unix.EINTR) {
				continue
			}
			return c.fail(fmt.Errorf("wl: poll: %w", err))
		}
		if fds[0].Revents&unix.POLLIN != 0 {
			if err := c.Dispatch(); err != nil {
				return err
			}
		} else if fds[0].Revents&(unix.POLLHUP|unix.POLLERR) != 0 {
			return c.fail(ErrClosed)
		}
	}
	return c.err
}

// Close closes the socket and any received descriptors nobody took.
func (c *Conn) Close() error {
	for _, fd := range c.inFds {
		unix.Close(fd)
	}
	c.inFds = nil
	if c.fd < 0 {
		return nil
	}
	err := unix.Close(c.fd)
	c.fd = -1
	return err
}

// Proxy is the client side of one protocol object.
type Proxy struct {
	conn *Conn
	id   uint32
}

func (p *Proxy) ID() uint32 { return p.id }

// Conn returns the connection the object lives on.
func (p *Proxy) Conn() *Conn { return p.conn }
