package overlay

import (
	"errors"
	"fmt"

	"glassnote/internal/logx"
	"glassnote/internal/render"
	"glassnote/internal/wl"
)

// globals are the compositor interfaces the overlay binds.
type globals struct {
	registry   *wl.Registry
	compositor *wl.Compositor
	shm        *wl.Shm
	layerShell *wl.LayerShell
	cursor     *wl.CursorShapeManager // optional
}

func bindGlobals(conn *wl.Conn) (*globals, error) {
	reg := conn.Display().Registry()
	if err := conn.Roundtrip(); err != nil {
		return nil, fmt.Errorf("fetch globals: %w", err)
	}

	g := &globals{registry: reg}
	var errs []error
	if gl, err := reg.Require(wl.CompositorInterface); err != nil {
		errs = append(errs, err)
	} else {
		g.compositor = reg.BindCompositor(gl)
	}
	if gl, err := reg.Require(wl.ShmInterface); err != nil {
		errs = append(errs, err)
	} else {
		g.shm = reg.BindShm(gl)
	}
	if gl, err := reg.Require(wl.LayerShellInterface); err != nil {
		errs = append(errs, err)
	} else {
		g.layerShell = reg.BindLayerShell(gl)
	}
	if err := errors.Join(errs...); err != nil {
		return nil, err
	}

	if gl, ok := reg.Find(wl.CursorShapeManagerInterface); ok {
		g.cursor = reg.BindCursorShapeManager(gl)
	} else {
		logx.Logger().Info("compositor has no cursor-shape support, keeping its cursor")
	}
	return g, nil
}

// surfaceOutput presents to a full-screen layer surface.
type surfaceOutput struct {
	conn      *wl.Conn
	surface   *wl.Surface
	layer     *wl.LayerSurface
	empty     *wl.Region
	presenter *render.Presenter
	callback  *wl.Callback
}

var _ Output = (*surfaceOutput)(nil)

// newSurfaceOutput creates the overlay-layer surface anchored to every
// edge. Configure events are forwarded to app.
func newSurfaceOutput(conn *wl.Conn, g *globals, namespace string, app *App) *surfaceOutput {
	o := &surfaceOutput{conn: conn}
	o.surface = g.compositor.CreateSurface()
	o.empty = g.compositor.CreateRegion()
	o.presenter = render.NewPresenter(o.surface, g.shm)

	o.layer = g.layerShell.GetLayerSurface(o.surface, wl.LayerOverlay, namespace)
	o.layer.SetAnchor(wl.AnchorAll)
	o.layer.SetExclusiveZone(-1)
	o.layer.SetSize(0, 0)
	o.layer.OnConfigure = func(serial, width, height uint32) {
		o.layer.AckConfigure(serial)
		app.Configure(int(width), int(height))
	}
	o.layer.OnClosed = app.Closed
	return o
}

func (o *surfaceOutput) RequestFrame(done func()) error {
	cb := o.surface.Frame()
	cb.OnDone = func(uint32) {
		o.callback = nil
		done()
	}
	o.callback = cb
	return o.conn.Err()
}

func (o *surfaceOutput) Present(f *render.Frame) error {
	if err := o.presenter.Present(f); err != nil {
		return err
	}
	return o.conn.Err()
}

func (o *surfaceOutput) Commit() error {
	o.surface.Commit()
	return o.conn.Err()
}

func (o *surfaceOutput) SetInputCapture(capture bool) {
	if capture {
		o.surface.SetInputRegion(nil)
		return
	}
	o.surface.SetInputRegion(o.empty)
}

func (o *surfaceOutput) SetKeyboardInteractivity(on bool) {
	mode := uint32(wl.KeyboardInteractivityNone)
	if on {
		mode = wl.KeyboardInteractivityOnDemand
	}
	o.layer.SetKeyboardInteractivity(mode)
}

func (o *surfaceOutput) destroy() error {
	if o.callback != nil {
		o.callback.Forget()
		o.callback = nil
	}
	err := o.presenter.Close()
	o.layer.Destroy()
	o.surface.Destroy()
	o.empty.Destroy()
	return err
}

// inputSeat connects one wl_seat to an overlay Seat.
type inputSeat struct {
	app    *App
	seat   *wl.Seat
	cursor *wl.CursorShapeManager
	in     *Seat

	pointer  *wl.Pointer
	keyboard *wl.Keyboard
}

func bindSeat(app *App, g *globals, gl wl.Global) *inputSeat {
	s := &inputSeat{
		app:    app,
		seat:   g.registry.BindSeat(gl),
		cursor: g.cursor,
		in:     app.AddSeat(gl.Name, fmt.Sprintf("seat%d", gl.Name)),
	}
	s.seat.OnName = s.in.SetName
	s.seat.OnCapabilities = s.capabilities
	return s
}

func (s *inputSeat) capabilities(caps uint32) {
	hasPointer := caps&wl.SeatCapabilityPointer != 0
	switch {
	case hasPointer && s.pointer == nil:
		s.pointer = s.seat.GetPointer()
		s.pointer.OnEnter = s.pointerEnter
		s.pointer.OnLeave = func(uint32, uint32) { s.in.Leave() }
		s.pointer.OnMotion = func(_ uint32, x, y float64) { s.in.Motion(x, y) }
		s.pointer.OnButton = s.pointerButton
	case !hasPointer && s.pointer != nil:
		s.in.Release()
		s.pointer.Release()
		s.pointer = nil
	}

	hasKeyboard := caps&wl.SeatCapabilityKeyboard != 0
	switch {
	case hasKeyboard && s.keyboard == nil:
		s.keyboard = s.seat.GetKeyboard()
		s.keyboard.OnKey = s.key
	case !hasKeyboard && s.keyboard != nil:
		s.keyboard.Release()
		s.keyboard = nil
	}
}

func (s *inputSeat) pointerEnter(serial, _ uint32, x, y float64) {
	if s.cursor != nil {
		dev := s.cursor.GetPointer(s.pointer)
		dev.SetShape(serial, wl.CursorShapeCrosshair)
		dev.Destroy()
	}
	s.in.Enter(x, y)
}

func (s *inputSeat) pointerButton(_, _, button, st uint32) {
	if button != wl.BtnLeft {
		return
	}
	switch st {
	case wl.ButtonPressed:
		s.in.Press()
	case wl.ButtonReleased:
		s.in.Release()
	}
}

func (s *inputSeat) key(_, _, code, st uint32) {
	if st != wl.KeyPressed {
		return
	}
	s.app.HandleKey(s.app.keys.Resolve(code))
}

func (s *inputSeat) release() {
	s.app.RemoveSeat(s.seat.Global.Name)
	if s.pointer != nil {
		s.pointer.Release()
	}
	if s.keyboard != nil {
		s.keyboard.Release()
	}
	s.seat.Release()
}
