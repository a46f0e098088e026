package wl

const LayerShellInterface = "zwlr_layer_shell_v1"

// Layers, bottom to top.
const (
	LayerBackground = 0
	LayerBottom     = 1
	LayerTop        = 2
	LayerOverlay    = 3
)

// Anchor edges.
const (
	AnchorTop    = 1
	AnchorBottom = 2
	AnchorLeft   = 4
	AnchorRight  = 8

	AnchorAll = AnchorTop | AnchorBottom | AnchorLeft | AnchorRight
)

// Keyboard interactivity modes.
const (
	KeyboardInteractivityNone      = 0
	KeyboardInteractivityExclusive = 1
	KeyboardInteractivityOnDemand  = 2
)

// LayerShell is zwlr_layer_shell_v1.
type LayerShell struct {
	Proxy
	version uint32
}

func (r *Registry) BindLayerShell(g Global) *LayerShell {
	ls := &LayerShell{}
	ls.conn = r.conn
	ls.id, ls.version = r.bind(g, 4, nopHandler)
	return ls
}

// Version returns the bound protocol version.
func (ls *LayerShell) Version() uint32 { return ls.version }

// GetLayerSurface gives s the layer-surface role on the compositor's
// chosen output.
func (ls *LayerShell) GetLayerSurface(s *Surface, layer uint32, namespace string) *LayerSurface {
	l := &LayerSurface{version: ls.version}
	l.conn = ls.conn
	l.id = ls.conn.newID(l.dispatch)
	ls.conn.send(ls.id, 0, Object(l.id), Object(s.id), Object(0), Uint(layer), String(namespace))
	return l
}

func (ls *LayerShell) Destroy() {
	if ls.version >= 3 {
		ls.conn.send(ls.id, 1)
	}
	ls.conn.forget(ls.id)
}

// LayerSurface is zwlr_layer_surface_v1.
type LayerSurface struct {
	Proxy
	version uint32

	OnConfigure func(serial, width, height uint32)
	OnClosed    func()
}

func (l *LayerSurface) dispatch(ev *Event) error {
	switch ev.Opcode {
	case 0: // configure
		serial, w, h := ev.Uint(), ev.Uint(), ev.Uint()
		if ev.err == nil && l.OnConfigure != nil {
			l.OnConfigure(serial, w, h)
		}
	case 1: // closed
		if l.OnClosed != nil {
			l.OnClosed()
		}
	}
	return nil
}

func (l *LayerSurface) SetSize(w, h uint32) {
	l.conn.send(l.id, 0, Uint(w), Uint(h))
}

func (l *LayerSurface) SetAnchor(anchor uint32) {
	l.conn.send(l.id, 1, Uint(anchor))
}

func (l *LayerSurface) SetExclusiveZone(zone int32) {
	l.conn.send(l.id, 2, Int(zone))
}

// SetKeyboardInteractivity sets the mode. On-demand needs version 4; older
// compositors only know exclusive, which is used instead.
func (l *LayerSurface) SetKeyboardInteractivity(mode uint32) {
	if mode == KeyboardInteractivityOnDemand && l.version < 4 {
		mode = KeyboardInteractivityExclusive
	}
	l.conn.send(l.id, 4, Uint(mode))
}

func (l *LayerSurface) AckConfigure(serial uint32) {
	l.conn.send(l.id, 6, Uint(serial))
}

func (l *LayerSurface) Destroy() {
	l.conn.send(l.id, 7)
	l.conn.forget(l.id)
}
