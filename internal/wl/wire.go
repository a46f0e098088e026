// Package wl is a small Wayland client: the wire protocol over a unix
// socket plus the handful of core, layer-shell and cursor-shape interfaces
// an overlay surface needs.
//
// Everything here belongs to one goroutine. The connection never blocks
// except inside Roundtrip; the event loop polls Fd and calls Dispatch.
package wl

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math"
)

const (
	headerSize = 8
	// maxMessageSize is the protocol limit on a single message.
	maxMessageSize = 4096
)

var order = binary.NativeEndian

// ErrShortEvent is returned when an event body ends before its arguments.
var ErrShortEvent = errors.New("wl: event shorter than its signature")

// Arg is one request argument.
type Arg interface {
	put(e *encoder)
}

type (
	uintArg   uint32
	intArg    int32
	fixedArg  float64
	stringArg string
	arrayArg  []byte
	objectArg uint32
	fdArg     int
)

// Uint is a uint argument.
func Uint(v uint32) Arg { return uintArg(v) }

// Int is an int argument.
func Int(v int32) Arg { return intArg(v) }

// Fixed is a 24.8 fixed-point argument.
func Fixed(v float64) Arg { return fixedArg(v) }

// String is a string argument.
func String(s string) Arg { return stringArg(s) }

// Array is an array argument.
func Array(b []byte) Arg { return arrayArg(b) }

// Object is an object or new_id argument. Zero is the null object.
func Object(id uint32) Arg { return objectArg(id) }

// FD is a file descriptor argument. The descriptor is sent out of band and
// stays owned by the caller.
func FD(fd int) Arg { return fdArg(fd) }

type encoder struct {
	buf []byte
	fds []int
}

func (e *encoder) u32(v uint32) {
	e.buf = order.AppendUint32(e.buf, v)
}

func (a uintArg) put(e *encoder)   { e.u32(uint32(a)) }
func (a intArg) put(e *encoder)    { e.u32(uint32(int32(a))) }
func (a fixedArg) put(e *encoder)  { e.u32(uint32(ToFixed(float64(a)))) }
func (a objectArg) put(e *encoder) { e.u32(uint32(a)) }
func (a fdArg) put(e *encoder)     { e.fds = append(e.fds, int(a)) }

func (a stringArg) put(e *encoder) {
	e.u32(uint32(len(a) + 1))
	e.buf = append(e.buf, a...)
	e.buf = append(e.buf, 0)
	e.pad()
}

func (a arrayArg) put(e *encoder) {
	e.u32(uint32(len(a)))
	e.buf = append(e.buf, a...)
	e.pad()
}

func (e *encoder) pad() {
	for len(e.buf)%4 != 0 {
		e.buf = append(e.buf, 0)
	}
}

// marshal encodes one message.
func marshal(id uint32, opcode uint16, args []Arg) ([]byte, []int, error) {
	e := encoder{buf: make([]byte, headerSize, 64)}
	for _, a := range args {
		a.put(&e)
	}
	if len(e.buf) > maxMessageSize {
		return nil, nil, fmt.Errorf("wl: message of %d bytes exceeds %d", len(e.buf), maxMessageSize)
	}
	order.PutUint32(e.buf[0:], id)
	order.PutUint32(e.buf[4:], uint32(len(e.buf))<<16|uint32(opcode))
	return e.buf, e.fds, nil
}

// ToFixed converts to 24.8 fixed point.
func ToFixed(v float64) int32 { return int32(math.Round(v * 256)) }

// FromFixed converts from 24.8 fixed point.
func FromFixed(v int32) float64 { return float64(v) / 256 }

// Event is one decoded message header plus a cursor over its arguments.
// Argument readers are sticky on error: after the first failure they return
// zero values and Err reports the failure.
type Event struct {
	Sender uint32
	Opcode uint16

	data []byte
	off  int
	fds  *[]int
	err  error
}

func (ev *Event) Err() error { return ev.err }

func (ev *Event) take(n int) []byte {
	if ev.err != nil {
		return nil
	}
	if ev.off+n > len(ev.data) {
		ev.err = fmt.Errorf("%w: object %d opcode %d", ErrShortEvent, ev.Sender, ev.Opcode)
		return nil
	}
	b := ev.data[ev.off : ev.off+n]
	ev.off += n
	return b
}

func (ev *Event) Uint() uint32 {
	b := ev.take(4)
	if b == nil {
		return 0
	}
	return order.Uint32(b)
}

func (ev *Event) Int() int32 { return int32(ev.Uint()) }

func (ev *Event) Fixed() float64 { return FromFixed(ev.Int()) }

func (ev *Event) Array() []byte {
	n := int(ev.Uint())
	b := ev.take((n + 3) &^ 3)
	if b == nil {
		return nil
	}
	return b[:n]
}

func (ev *Event) String() string {
	b := ev.Array()
	if len(b) == 0 {
		return ""
	}
	return string(b[:len(b)-1])
}

// FD takes the next received descriptor. The caller owns it.
func (ev *Event) FD() int {
	if ev.err != nil {
		return -1
	}
	if ev.fds == nil || len(*ev.fds) == 0 {
		ev.err = fmt.Errorf("wl: object %d opcode %d: missing file descriptor", ev.Sender, ev.Opcode)
		return -1
	}
	fd := (*ev.fds)[0]
	*ev.fds = (*ev.fds)[1:]
	return fd
}
