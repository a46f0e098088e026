package overlay

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"glassnote/internal/config"
	"glassnote/internal/frame"
	"glassnote/internal/render"
	"glassnote/internal/state"
)

type fakeOutput struct {
	callbacks []func()
	frames    []render.Frame
	commits   int
	capture   []bool
	keyboard  []bool
	skip      bool
}

func (o *fakeOutput) RequestFrame(done func()) error {
	o.callbacks = append(o.callbacks, done)
	return nil
}

func (o *fakeOutput) Present(f *render.Frame) error {
	if o.skip {
		return frame.ErrSkipped
	}
	cp := *f
	cp.Strokes = append([]render.Stroke(nil), f.Strokes...)
	o.frames = append(o.frames, cp)
	o.commits++
	return nil
}

func (o *fakeOutput) Commit() error {
	o.commits++
	return nil
}

func (o *fakeOutput) SetInputCapture(c bool)          { o.capture = append(o.capture, c) }
func (o *fakeOutput) SetKeyboardInteractivity(k bool) { o.keyboard = append(o.keyboard, k) }

// fire runs every pending frame callback once.
func (o *fakeOutput) fire() {
	cbs := o.callbacks
	o.callbacks = nil
	for _, cb := range cbs {
		cb()
	}
}

func newApp(t *testing.T, active bool) (*App, *fakeOutput) {
	t.Helper()
	cfg := config.Default()
	cfg.Overlay.StartActive = active
	out := &fakeOutput{}
	a := New(cfg, out)
	a.Configure(200, 100)
	require.NoError(t, a.Err())
	return a, out
}

func TestFirstConfigurePresents(t *testing.T) {
	a, out := newApp(t, true)

	require.Len(t, out.frames, 1)
	f := out.frames[0]
	assert.Equal(t, 200, f.Width)
	assert.True(t, f.Active)
	assert.Equal(t, uint32(0x00000044), f.Background)
	assert.True(t, f.Damage.Empty(), "first frame repaints everything")
	assert.Equal(t, frame.Requested, a.Pacer().State())
	assert.Len(t, out.callbacks, 1)

	a.Configure(200, 100)
	assert.Len(t, out.frames, 1, "same size does not repaint")
}

func TestShowHideTransitions(t *testing.T) {
	tests := []struct {
		name   string
		active bool
		cmds   []func(*App) bool
		want   []bool
	}{
		{"show twice", false, []func(*App) bool{(*App).Show, (*App).Show}, []bool{true, false}},
		{"hide twice", true, []func(*App) bool{(*App).Hide, (*App).Hide}, []bool{true, false}},
		{"show hide show", false, []func(*App) bool{(*App).Show, (*App).Hide, (*App).Show}, []bool{true, true, true}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a, _ := newApp(t, tt.active)
			var got []bool
			for _, cmd := range tt.cmds {
				got = append(got, cmd(a))
			}
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestShowSetsCaptureAndMarksDirty(t *testing.T) {
	a, out := newApp(t, false)
	out.fire() // settle to idle
	require.Equal(t, frame.Idle, a.Pacer().State())

	require.True(t, a.Show())
	assert.Equal(t, []bool{true}, out.capture)
	assert.Equal(t, []bool{true}, out.keyboard)
	assert.Equal(t, frame.RequestedAndDirty, a.Pacer().State())

	out.fire()
	last := out.frames[len(out.frames)-1]
	assert.True(t, last.Active)

	require.True(t, a.Hide())
	assert.Equal(t, []bool{true, false}, out.capture)
	assert.Equal(t, []bool{true, false}, out.keyboard)
}

func TestCommandsBeforeConfigureFail(t *testing.T) {
	cfg := config.Default()
	cfg.Overlay.StartActive = false
	out := &fakeOutput{}
	a := New(cfg, out)

	assert.False(t, a.Show())
	assert.False(t, a.Hide())
	assert.False(t, a.ChangeColor(2))
	assert.False(t, a.ChangeWidth(5))
	assert.False(t, a.Clear())
	assert.Empty(t, out.capture)
	assert.Empty(t, out.callbacks)
}

func TestChangeColor(t *testing.T) {
	a, _ := newApp(t, true)

	assert.False(t, a.ChangeColor(0))
	assert.False(t, a.ChangeColor(6))
	assert.False(t, a.ChangeColor(1), "slot 1 is already selected")
	assert.True(t, a.ChangeColor(4))
	assert.Equal(t, uint32(0x40a02bff), a.Color())
}

func TestChangeWidthClamps(t *testing.T) {
	a, _ := newApp(t, true)

	assert.True(t, a.ChangeWidth(100))
	assert.Equal(t, 20.0, a.Width())
	assert.False(t, a.ChangeWidth(50), "still clamped to the same width")
	assert.True(t, a.ChangeWidth(-3))
	assert.Equal(t, 1.0, a.Width())
}

func TestClear(t *testing.T) {
	a, out := newApp(t, true)
	assert.False(t, a.Clear())

	seat := a.AddSeat(1, "seat0")
	seat.Enter(10, 10)
	seat.Press()
	seat.Motion(30, 10)
	seat.Release()
	require.Equal(t, 1, a.Strokes().Len())

	out.fire()
	assert.True(t, a.Clear())
	assert.Equal(t, 0, a.Strokes().Len())
	assert.False(t, a.Clear())
}

func TestDrawingStroke(t *testing.T) {
	a, out := newApp(t, true)
	seat := a.AddSeat(1, "seat0")

	seat.Enter(0, 0)
	seat.Press()
	require.True(t, seat.Drawing())
	for _, p := range []state.Point{state.Pt(10, 0), state.Pt(20, 0), state.Pt(20, 10)} {
		seat.Motion(p.X, p.Y)
	}
	seat.Release()
	assert.False(t, seat.Drawing())

	require.Equal(t, 1, a.Strokes().Len())
	s := a.Strokes().Strokes()[0]
	assert.True(t, s.Closed())
	assert.Equal(t, []state.Point{state.Pt(0, 0), state.Pt(20, 0), state.Pt(20, 10)}, s.Points())
	assert.Equal(t, 3.0, s.Width())
	assert.Equal(t, uint32(0xd20f39ff), s.Color())

	// One callback outstanding however many motions arrived.
	assert.Len(t, out.callbacks, 1)
	out.fire()
	last := out.frames[len(out.frames)-1]
	require.Len(t, last.Strokes, 1)
	assert.False(t, last.Damage.Empty())
	assert.LessOrEqual(t, last.Damage.X, -1.0)
	assert.GreaterOrEqual(t, last.Damage.X+last.Damage.Width, 21.0)
}

func TestPressIgnoredWhileInactive(t *testing.T) {
	a, _ := newApp(t, false)
	seat := a.AddSeat(1, "seat0")
	seat.Enter(5, 5)
	seat.Press()
	seat.Motion(10, 10)

	assert.False(t, seat.Drawing())
	assert.Equal(t, 0, a.Strokes().Len())
}

func TestHideFinishesOpenStroke(t *testing.T) {
	a, _ := newApp(t, true)
	seat := a.AddSeat(1, "seat0")
	seat.Enter(5, 5)
	seat.Press()
	s := a.Strokes().Strokes()[0]

	require.True(t, a.Hide())
	assert.True(t, s.Closed())
	assert.False(t, seat.Drawing())
	seat.Motion(50, 50)
	assert.Equal(t, 1, s.Len())
}

func TestInactiveFrameUsesDimmedStyle(t *testing.T) {
	a, out := newApp(t, true)
	out.fire()
	require.True(t, a.Hide())
	out.fire()

	last := out.frames[len(out.frames)-1]
	assert.False(t, last.Active)
	assert.Equal(t, uint32(0), last.Background)
	assert.Equal(t, 0.3, last.InactiveAlpha)
}

func TestSkippedPresentKeepsDamage(t *testing.T) {
	a, out := newApp(t, true)
	seat := a.AddSeat(1, "seat0")
	seat.Enter(0, 0)
	seat.Press()
	seat.Motion(40, 40)

	out.skip = true
	out.fire()
	assert.Equal(t, frame.RequestedAndDirty, a.Pacer().State())
	assert.False(t, a.damage.Empty())

	out.skip = false
	out.fire()
	assert.True(t, a.damage.Empty())
	assert.Equal(t, frame.Requested, a.Pacer().State())
}

func TestHandleKey(t *testing.T) {
	a, _ := newApp(t, true)
	keys := EvdevKeys{}

	a.HandleKey(keys.Resolve(4)) // 3
	assert.Equal(t, uint32(0xdf8e1dff), a.Color())

	a.HandleKey(keys.Resolve(13))
	assert.Equal(t, 4.0, a.Width())
	a.HandleKey(keys.Resolve(12))
	a.HandleKey(keys.Resolve(74))
	assert.Equal(t, 2.0, a.Width())

	a.HandleKey(keys.Resolve(30)) // 'a' does nothing
	assert.True(t, a.Running())

	a.HandleKey(keys.Resolve(1))
	assert.False(t, a.Running())
}

func TestClosedStopsRunning(t *testing.T) {
	a, _ := newApp(t, true)
	a.Closed()
	assert.False(t, a.Running())
	assert.NoError(t, a.Err())
}

func TestBadConfigureIsFatal(t *testing.T) {
	a := New(config.Default(), &fakeOutput{})
	a.Configure(0, 100)
	assert.Error(t, a.Err())
	assert.False(t, a.Running())
}

func TestShutdownForgetsFrameAndClosesStrokes(t *testing.T) {
	a, out := newApp(t, true)
	seat := a.AddSeat(1, "seat0")
	seat.Enter(1, 1)
	seat.Press()
	s := a.Strokes().Strokes()[0]
	require.True(t, a.Pacer().Outstanding())

	a.Shutdown()
	assert.True(t, s.Closed())
	assert.False(t, seat.Drawing())
	assert.Equal(t, frame.Idle, a.Pacer().State())
	assert.False(t, a.Running())

	frames := len(out.frames)
	out.fire() // a late callback must not present
	assert.Len(t, out.frames, frames)
}
