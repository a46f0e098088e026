package wl

import "golang.org/x/sys/unix"

const SeatInterface = "wl_seat"

// Seat capability bits.
const (
	SeatCapabilityPointer  = 1
	SeatCapabilityKeyboard = 2
)

// Seat is wl_seat.
type Seat struct {
	Proxy
	Global  Global
	version uint32

	OnCapabilities func(caps uint32)
	OnName         func(name string)
}

// BindSeat binds g, which must be a wl_seat global. Handlers should be set
// before the next Dispatch.
func (r *Registry) BindSeat(g Global) *Seat {
	s := &Seat{Global: g}
	s.conn = r.conn
	s.id, s.version = r.bind(g, 5, s.dispatch)
	return s
}

func (s *Seat) dispatch(ev *Event) error {
	switch ev.Opcode {
	case 0: // capabilities
		caps := ev.Uint()
		if ev.err == nil && s.OnCapabilities != nil {
			s.OnCapabilities(caps)
		}
	case 1: // name
		name := ev.String()
		if ev.err == nil && s.OnName != nil {
			s.OnName(name)
		}
	}
	return nil
}

func (s *Seat) GetPointer() *Pointer {
	p := &Pointer{version: s.version}
	p.conn = s.conn
	p.id = s.conn.newID(p.dispatch)
	s.conn.send(s.id, 0, Object(p.id))
	return p
}

func (s *Seat) GetKeyboard() *Keyboard {
	k := &Keyboard{version: s.version}
	k.conn = s.conn
	k.id = s.conn.newID(k.dispatch)
	s.conn.send(s.id, 1, Object(k.id))
	return k
}

// Release destroys the seat object. Before version 5 there is no
// destructor and the object is only forgotten.
func (s *Seat) Release() {
	if s.version >= 5 {
		s.conn.send(s.id, 3)
	}
	s.conn.forget(s.id)
}

// Pointer button states.
const (
	ButtonReleased = 0
	ButtonPressed  = 1
)

// BtnLeft is the evdev code of the primary button.
const BtnLeft = 0x110

// Pointer is wl_pointer.
type Pointer struct {
	Proxy
	version uint32

	OnEnter  func(serial uint32, surface uint32, x, y float64)
	OnLeave  func(serial uint32, surface uint32)
	OnMotion func(time uint32, x, y float64)
	OnButton func(serial, time, button, state uint32)
}

func (p *Pointer) dispatch(ev *Event) error {
	switch ev.Opcode {
	case 0: // enter
		serial, surface, x, y := ev.Uint(), ev.Uint(), ev.Fixed(), ev.Fixed()
		if ev.err == nil && p.OnEnter != nil {
			p.OnEnter(serial, surface, x, y)
		}
	case 1: // leave
		serial, surface := ev.Uint(), ev.Uint()
		if ev.err == nil && p.OnLeave != nil {
			p.OnLeave(serial, surface)
		}
	case 2: // motion
		t, x, y := ev.Uint(), ev.Fixed(), ev.Fixed()
		if ev.err == nil && p.OnMotion != nil {
			p.OnMotion(t, x, y)
		}
	case 3: // button
		serial, t, button, state := ev.Uint(), ev.Uint(), ev.Uint(), ev.Uint()
		if ev.err == nil && p.OnButton != nil {
			p.OnButton(serial, t, button, state)
		}
	}
	return nil
}

func (p *Pointer) Release() {
	if p.version >= 3 {
		p.conn.send(p.id, 1)
	}
	p.conn.forget(p.id)
}

// Key states.
const (
	KeyReleased = 0
	KeyPressed  = 1
)

// Keyboard is wl_keyboard.
//
// Keymap descriptors are always closed after OnKeymap returns; handlers
// that need the keymap must map or dup it first.
type Keyboard struct {
	Proxy
	version uint32

	OnKeymap    func(format uint32, fd int, size uint32)
	OnEnter     func(serial uint32, surface uint32, keys []uint32)
	OnLeave     func(serial uint32, surface uint32)
	OnKey       func(serial, time, key, state uint32)
	OnModifiers func(serial, depressed, latched, locked, group uint32)
}

func (k *Keyboard) dispatch(ev *Event) error {
	switch ev.Opcode {
	case 0: // keymap
		format, fd, size := ev.Uint(), ev.FD(), ev.Uint()
		if fd >= 0 {
			defer unix.Close(fd)
		}
		if ev.err == nil && k.OnKeymap != nil {
			k.OnKeymap(format, fd, size)
		}
	case 1: // enter
		serial, surface, raw := ev.Uint(), ev.Uint(), ev.Array()
		if ev.err == nil && k.OnEnter != nil {
			keys := make([]uint32, len(raw)/4)
			for i := range keys {
				keys[i] = order.Uint32(raw[i*4:])
			}
			k.OnEnter(serial, surface, keys)
		}
	case 2: // leave
		serial, surface := ev.Uint(), ev.Uint()
		if ev.err == nil && k.OnLeave != nil {
			k.OnLeave(serial, surface)
		}
	case 3: // key
		serial, t, key, state := ev.Uint(), ev.Uint(), ev.Uint(), ev.Uint()
		if ev.err == nil && k.OnKey != nil {
			k.OnKey(serial, t, key, state)
		}
	case 4: // modifiers
		serial, dep, lat, lock, group := ev.Uint(), ev.Uint(), ev.Uint(), ev.Uint(), ev.Uint()
		if ev.err == nil && k.OnModifiers != nil {
			k.OnModifiers(serial, dep, lat, lock, group)
		}
	}
	return nil
}

func (k *Keyboard) Release() {
	if k.version >= 3 {
		k.conn.send(k.id, 0)
	}
	k.conn.forget(k.id)
}
