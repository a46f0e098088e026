// Package overlay holds the annotation session: visibility, style, the
// stroke collection and input seats. It is driven by the event loop and
// paints through an Output.
package overlay

import (
	"fmt"
	"math"

	"glassnote/internal/config"
	"glassnote/internal/frame"
	"glassnote/internal/ipc"
	"glassnote/internal/logx"
	"glassnote/internal/render"
	"glassnote/internal/state"
)

// Output is the surface the overlay presents to.
type Output interface {
	// RequestFrame asks for done to run at the next good time to draw.
	RequestFrame(done func()) error
	Present(f *render.Frame) error
	Commit() error
	// SetInputCapture switches between taking all pointer input and
	// letting it pass through to the windows below.
	SetInputCapture(capture bool)
	SetKeyboardInteractivity(on bool)
}

// App is the overlay session context. It is owned by the event-loop
// goroutine; nothing in it is safe for concurrent use.
type App struct {
	out   Output
	pacer *frame.Pacer
	keys  KeyResolver

	palette       []uint32
	background    [2]uint32 // inactive, active
	inactiveAlpha float64
	minWidth      float64
	maxWidth      float64

	active   bool
	colorIdx int
	width    float64

	strokes *state.Collection
	seats   map[uint32]*Seat

	configured   bool
	surfW, surfH int
	damage       state.Rect
	fullDamage   bool
	frameStrokes []render.Stroke

	running bool
	err     error
}

var _ ipc.Handler = (*App)(nil)
var _ frame.Target = (*App)(nil)

// New returns a session configured by cfg that presents to out.
func New(cfg *config.Config, out Output) *App {
	a := &App{
		out:           out,
		keys:          EvdevKeys{},
		palette:       cfg.Palette(),
		inactiveAlpha: cfg.Style.InactiveAlpha,
		minWidth:      cfg.Style.MinWidth,
		maxWidth:      cfg.Style.MaxWidth,
		active:        cfg.Overlay.StartActive,
		width:         cfg.Style.Width,
		strokes:       state.NewCollection(cfg.StrokeOptions()),
		seats:         make(map[uint32]*Seat),
		fullDamage:    true,
		running:       true,
	}
	a.background[0], _ = config.ParseColor(cfg.Style.BackgroundInactive)
	a.background[1], _ = config.ParseColor(cfg.Style.BackgroundActive)
	a.pacer = frame.NewPacer(a)
	return a
}

// SetKeyResolver replaces the evdev key mapping.
func (a *App) SetKeyResolver(k KeyResolver) { a.keys = k }

// Running reports whether the event loop should keep going.
func (a *App) Running() bool { return a.running && a.err == nil }

// Err returns the fatal error that stopped the session, if any.
func (a *App) Err() error { return a.err }

// Stop ends the session cleanly.
func (a *App) Stop() { a.running = false }

func (a *App) fail(err error) {
	if a.err == nil {
		a.err = err
		logx.Logger().Error("overlay failed", "err", err)
	}
}

func (a *App) Active() bool               { return a.active }
func (a *App) Width() float64             { return a.width }
func (a *App) Color() uint32              { return a.palette[a.colorIdx] }
func (a *App) Strokes() *state.Collection { return a.strokes }
func (a *App) Pacer() *frame.Pacer        { return a.pacer }

// Configure applies the compositor's surface size. The first configure, and
// any that changes the size, presents immediately.
func (a *App) Configure(width, height int) {
	if width <= 0 || height <= 0 {
		a.fail(fmt.Errorf("overlay: compositor configured %dx%d", width, height))
		return
	}
	first := !a.configured
	a.configured = true
	if !first && width == a.surfW && height == a.surfH {
		return
	}
	a.surfW, a.surfH = width, height
	a.fullDamage = true
	logx.Logger().Debug("surface configured", "width", width, "height", height)
	if err := a.pacer.Kick(); err != nil {
		a.fail(err)
	}
}

// Shutdown closes every open stroke and forgets the outstanding frame
// callback. The surface is about to be destroyed, so no frame follows.
func (a *App) Shutdown() {
	for _, s := range a.seats {
		s.finish()
	}
	a.pacer.Reset()
	a.running = false
}

// Closed handles the compositor closing the layer surface.
func (a *App) Closed() {
	logx.Logger().Info("layer surface closed by compositor")
	a.running = false
}

func (a *App) markDirty() {
	if !a.configured {
		return
	}
	if err := a.pacer.MarkDirty(); err != nil {
		a.fail(err)
	}
}

func (a *App) invalidate(r state.Rect) {
	a.damage = a.damage.Union(r)
	a.markDirty()
}

func (a *App) invalidateAll() {
	a.fullDamage = true
	a.markDirty()
}

// Show makes the overlay take input and tints the screen.
func (a *App) Show() bool {
	if !a.configured || a.active {
		return false
	}
	a.active = true
	a.out.SetInputCapture(true)
	a.out.SetKeyboardInteractivity(true)
	a.invalidateAll()
	return true
}

// Hide lets input pass through and dims the strokes.
func (a *App) Hide() bool {
	if !a.configured || !a.active {
		return false
	}
	a.active = false
	for _, s := range a.seats {
		s.finish()
	}
	a.out.SetInputCapture(false)
	a.out.SetKeyboardInteractivity(false)
	a.invalidateAll()
	return true
}

// ChangeColor selects palette slot 1..len(palette) for new strokes.
func (a *App) ChangeColor(slot uint32) bool {
	if !a.configured || slot < 1 || int(slot) > len(a.palette) {
		return false
	}
	idx := int(slot) - 1
	if idx == a.colorIdx {
		return false
	}
	a.colorIdx = idx
	return true
}

// ChangeWidth sets the width of new strokes, clamped to the configured
// range.
func (a *App) ChangeWidth(width float64) bool {
	if !a.configured || math.IsNaN(width) || math.IsInf(width, 0) {
		return false
	}
	width = math.Max(a.minWidth, math.Min(a.maxWidth, width))
	if width == a.width {
		return false
	}
	a.width = width
	return true
}

// Clear drops every stroke.
func (a *App) Clear() bool {
	if !a.configured || a.strokes.Len() == 0 {
		return false
	}
	for _, s := range a.seats {
		s.stroke = nil
	}
	n := a.strokes.Clear()
	logx.Logger().Debug("strokes cleared", "strokes", n)
	a.invalidateAll()
	return true
}

// HandleKey applies a key pressed on the overlay.
func (a *App) HandleKey(k Key) {
	switch k {
	case KeyEscape:
		logx.Logger().Info("escape pressed, exiting")
		a.running = false
	case Key1, Key2, Key3, Key4, Key5:
		a.ChangeColor(uint32(k-Key1) + 1)
	case KeyMinus:
		a.ChangeWidth(a.width - 1)
	case KeyEqual:
		a.ChangeWidth(a.width + 1)
	}
}

// RequestFrame implements frame.Target.
func (a *App) RequestFrame() error {
	return a.out.RequestFrame(func() {
		if err := a.pacer.FrameReady(); err != nil {
			a.fail(err)
		}
	})
}

// Commit implements frame.Target.
func (a *App) Commit() error { return a.out.Commit() }

// Present implements frame.Target.
func (a *App) Present() error {
	f := a.snapshot()
	if err := a.out.Present(&f); err != nil {
		return err
	}
	a.damage = state.Rect{}
	a.fullDamage = false
	return nil
}

func (a *App) snapshot() render.Frame {
	a.frameStrokes = a.frameStrokes[:0]
	for _, s := range a.strokes.Strokes() {
		a.frameStrokes = append(a.frameStrokes, render.Stroke{
			Points: s.Points(),
			Width:  s.Width(),
			Color:  s.Color(),
		})
	}

	bg := a.background[0]
	if a.active {
		bg = a.background[1]
	}
	f := render.Frame{
		Width:         a.surfW,
		Height:        a.surfH,
		Active:        a.active,
		Background:    bg,
		InactiveAlpha: a.inactiveAlpha,
		Strokes:       a.frameStrokes,
	}
	if !a.fullDamage {
		f.Damage = a.damage
	}
	return f
}
