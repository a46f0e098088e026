package overlay

import (
	"glassnote/internal/logx"
	"glassnote/internal/state"
)

// Seat is one input seat's drawing state: the pointer position and the
// stroke being drawn, if any. The stroke itself is owned by the
// collection.
type Seat struct {
	app  *App
	name string

	stroke *state.Stroke
	pos    state.Point
	hasPos bool
}

// AddSeat registers a seat under id.
func (a *App) AddSeat(id uint32, name string) *Seat {
	s := &Seat{app: a, name: name}
	a.seats[id] = s
	return s
}

// RemoveSeat finishes the seat's stroke and forgets it.
func (a *App) RemoveSeat(id uint32) {
	if s, ok := a.seats[id]; ok {
		s.finish()
		delete(a.seats, id)
	}
}

// Seat returns the seat registered under id.
func (a *App) Seat(id uint32) (*Seat, bool) {
	s, ok := a.seats[id]
	return s, ok
}

func (s *Seat) SetName(name string) { s.name = name }

// Drawing reports whether a stroke is open on this seat.
func (s *Seat) Drawing() bool { return s.stroke != nil }

// Enter records where the pointer entered the surface.
func (s *Seat) Enter(x, y float64) {
	s.pos, s.hasPos = state.Pt(x, y), true
}

// Leave forgets the pointer position. An open stroke stays open until the
// button is released.
func (s *Seat) Leave() {
	s.hasPos = false
}

// Motion extends the open stroke, if any.
func (s *Seat) Motion(x, y float64) {
	s.pos, s.hasPos = state.Pt(x, y), true
	if s.stroke == nil {
		return
	}
	start := s.stroke.SegmentStart()
	before, hadPoints := s.stroke.OpenBounds()
	s.stroke.Extend(s.pos)
	after, _ := s.stroke.BoundsFrom(start)

	// A sample only changes the polyline from the old open segment on,
	// including any corners it committed.
	damage := s.strokeDamage(after)
	if hadPoints {
		damage = damage.Union(s.strokeDamage(before))
	}
	s.app.invalidate(damage)
}

// Press starts a stroke at the pointer position. It is ignored while the
// overlay is inactive or a stroke is already open.
func (s *Seat) Press() {
	a := s.app
	if !a.active || s.stroke != nil {
		return
	}
	s.stroke = a.strokes.Begin(a.width, a.Color())
	logx.Logger().Debug("stroke started", "seat", s.name, "stroke", s.stroke.ID)
	if s.hasPos {
		s.stroke.Extend(s.pos)
		r, _ := s.stroke.OpenBounds()
		a.invalidate(s.strokeDamage(r))
	}
}

// Release closes the open stroke.
func (s *Seat) Release() {
	s.finish()
}

func (s *Seat) finish() {
	if s.stroke == nil {
		return
	}
	st := s.stroke
	st.Finish()
	s.stroke = nil
	logx.Logger().Debug("stroke finished",
		"seat", s.name, "stroke", st.ID, "points", st.Len(), "samples", st.Samples())
}

// strokeDamage pads r so round caps and anti-aliasing are covered.
func (s *Seat) strokeDamage(r state.Rect) state.Rect {
	return r.Inflate(s.stroke.Width()/2 + 2)
}
