package wl

import (
	"errors"
	"fmt"
	"sort"
)

// ProtocolError is a fatal wl_display.error sent by the compositor.
type ProtocolError struct {
	Object  uint32
	Code    uint32
	Message string
}

func (e *ProtocolError) Error() string {
	return fmt.Sprintf("wl: protocol error on object %d, code %d: %s", e.Object, e.Code, e.Message)
}

// ErrMissingGlobal is returned when the compositor lacks a required
// interface.
var ErrMissingGlobal = errors.New("wl: required global not advertised")

// Display is the wl_display singleton.
type Display struct {
	Proxy
}

func (d *Display) dispatch(ev *Event) error {
	switch ev.Opcode {
	case 0: // error
		obj, code, msg := ev.Uint(), ev.Uint(), ev.String()
		if ev.err != nil {
			return ev.err
		}
		return &ProtocolError{Object: obj, Code: code, Message: msg}
	case 1: // delete_id
		id := ev.Uint()
		if ev.err == nil {
			d.conn.release(id)
		}
	}
	return nil
}

// Sync asks for a callback once every prior request has been handled.
func (d *Display) Sync() *Callback {
	cb := &Callback{}
	cb.conn = d.conn
	cb.id = d.conn.newID(cb.dispatch)
	d.conn.send(d.id, 0, Object(cb.id))
	return cb
}

// Registry creates the registry and starts receiving globals.
func (d *Display) Registry() *Registry {
	r := &Registry{globals: make(map[uint32]Global)}
	r.conn = d.conn
	r.id = d.conn.newID(r.dispatch)
	d.conn.send(d.id, 1, Object(r.id))
	return r
}

// Callback is a one-shot wl_callback.
type Callback struct {
	Proxy
	OnDone func(data uint32)
}

func (cb *Callback) dispatch(ev *Event) error {
	if ev.Opcode != 0 {
		return nil
	}
	data := ev.Uint()
	if ev.err != nil {
		return ev.err
	}
	// The compositor destroys the callback; delete_id follows.
	cb.conn.forget(cb.id)
	if cb.OnDone != nil {
		cb.OnDone(data)
	}
	return nil
}

// Forget drops interest in a callback that has not fired yet.
func (cb *Callback) Forget() {
	cb.OnDone = nil
}

// Global is one advertised interface.
type Global struct {
	Name      uint32
	Interface string
	Version   uint32
}

// Registry is wl_registry.
type Registry struct {
	Proxy
	globals map[uint32]Global

	OnGlobal       func(g Global)
	OnGlobalRemove func(name uint32)
}

func (r *Registry) dispatch(ev *Event) error {
	switch ev.Opcode {
	case 0: // global
		g := Global{Name: ev.Uint(), Interface: ev.String(), Version: ev.Uint()}
		if ev.err != nil {
			return ev.err
		}
		r.globals[g.Name] = g
		if r.OnGlobal != nil {
			r.OnGlobal(g)
		}
	case 1: // global_remove
		name := ev.Uint()
		if ev.err != nil {
			return ev.err
		}
		delete(r.globals, name)
		if r.OnGlobalRemove != nil {
			r.OnGlobalRemove(name)
		}
	}
	return nil
}

// Globals returns the advertised globals ordered by name.
func (r *Registry) Globals() []Global {
	out := make([]Global, 0, len(r.globals))
	for _, g := range r.globals {
		out = append(out, g)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// Find returns the first global implementing iface.
func (r *Registry) Find(iface string) (Global, bool) {
	for _, g := range r.Globals() {
		if g.Interface == iface {
			return g, true
		}
	}
	return Global{}, false
}

// bind binds global g at min(g.Version, version) and returns the new id
// and the version in use.
func (r *Registry) bind(g Global, version uint32, h handler) (uint32, uint32) {
	if g.Version < version {
		version = g.Version
	}
	id := r.conn.newID(h)
	r.conn.send(r.id, 0, Uint(g.Name), String(g.Interface), Uint(version), Object(id))
	return id, version
}

// Require looks up iface and fails with ErrMissingGlobal when absent.
func (r *Registry) Require(iface string) (Global, error) {
	g, ok := r.Find(iface)
	if !ok {
		return Global{}, fmt.Errorf("%w: %s", ErrMissingGlobal, iface)
	}
	return g, nil
}

func nopHandler(*Event) error { return nil }
