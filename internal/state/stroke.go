package state

const (
	// DefaultInitialCapacity is the point storage a new stroke starts with.
	DefaultInitialCapacity = 64
	// DefaultMaxPoints caps the points stored per stroke.
	DefaultMaxPoints = 4096
	// DefaultThreshold is the distance, in surface pixels, below which an
	// open segment collapses.
	DefaultThreshold = 1.5
)

// StrokeOptions configures point storage and simplification for new strokes.
type StrokeOptions struct {
	InitialCapacity int
	MaxPoints       int
	Simplifier      Simplifier
}

// DefaultStrokeOptions returns the options used when none are configured.
func DefaultStrokeOptions() StrokeOptions {
	return StrokeOptions{
		InitialCapacity: DefaultInitialCapacity,
		MaxPoints:       DefaultMaxPoints,
		Simplifier:      DistanceSimplifier{Threshold: DefaultThreshold},
	}
}

func (o StrokeOptions) normalized() StrokeOptions {
	def := DefaultStrokeOptions()
	if o.InitialCapacity <= 0 {
		o.InitialCapacity = def.InitialCapacity
	}
	if o.MaxPoints <= 0 {
		o.MaxPoints = def.MaxPoints
	}
	if o.Simplifier == nil {
		o.Simplifier = def.Simplifier
	}
	return o
}

// Stroke is one ink path from pointer press to pointer release. Its points
// are simplified as they arrive, so the stored polyline stays close to the
// true geometric complexity of the path whatever the sampling rate.
type Stroke struct {
	ID string

	points *Buffer[Point]
	// span holds every sample taken since the last corner. Only its last
	// entry is visible; the rest are kept so the simplifier can measure
	// against them.
	span         *Buffer[Point]
	width        float64
	color        uint32
	segmentStart int
	samples      int
	closed       bool
	simplifier   Simplifier
}

func newStroke(id string, width float64, color uint32, opts StrokeOptions) *Stroke {
	opts = opts.normalized()
	return &Stroke{
		ID:         id,
		points:     NewBuffer[Point](opts.InitialCapacity, opts.MaxPoints),
		span:       NewBuffer[Point](opts.InitialCapacity, opts.MaxPoints),
		width:      width,
		color:      color,
		simplifier: opts.Simplifier,
	}
}

// Extend feeds one raw pointer sample into the stroke. A sample that would
// need more than the point cap is dropped without error.
//
// Extend must not be called after Finish.
func (s *Stroke) Extend(p Point) {
	if s.closed {
		panic("state: Extend called on finished stroke " + s.ID)
	}
	s.samples++

	if s.points.Len() == 0 {
		s.points.Append(p)
		return
	}

	span := s.span.Items()
	corners := s.simplifier.Simplify(s.points.At(s.segmentStart), span, p)
	if len(corners) == 0 && s.span.Len() == s.span.Limit() {
		// Out of room to measure against: the open end, which every
		// sample so far lies close to, becomes a corner.
		corners = []int{len(span) - 1}
	}
	if s.segmentStart+len(corners)+2 > s.points.Limit() {
		return
	}

	s.points.Cut(s.segmentStart+1, s.points.Len())
	for _, i := range corners {
		s.points.Append(span[i])
	}
	s.segmentStart = s.points.Len() - 1
	s.points.Append(p)

	if len(corners) > 0 {
		s.span.Cut(0, corners[len(corners)-1]+1)
	}
	s.span.Append(p)
}

// Finish closes the stroke and drops the samples kept for measuring.
func (s *Stroke) Finish() {
	s.closed = true
	s.span.Reset()
}

// Closed reports whether Finish has been called.
func (s *Stroke) Closed() bool { return s.closed }

// Points returns the simplified polyline. The slice is only valid until the
// next Extend.
func (s *Stroke) Points() []Point { return s.points.Items() }

// Len returns the number of stored points.
func (s *Stroke) Len() int { return s.points.Len() }

// Cap returns the size of the point storage.
func (s *Stroke) Cap() int { return s.points.Cap() }

func (s *Stroke) Width() float64 { return s.width }
func (s *Stroke) Color() uint32  { return s.color }

// Samples returns how many raw samples were fed in, dropped ones included.
func (s *Stroke) Samples() int { return s.samples }

// SegmentStart returns the index where the open segment begins.
func (s *Stroke) SegmentStart() int { return s.segmentStart }

// OpenBounds returns the bounding box of the open segment, which is the only
// part of the stroke a further Extend can change.
func (s *Stroke) OpenBounds() (Rect, bool) {
	return s.BoundsFrom(s.segmentStart)
}

// BoundsFrom returns the bounding box of the stored points from index i on.
func (s *Stroke) BoundsFrom(i int) (Rect, bool) {
	pts := s.points.Items()
	if i < 0 || i >= len(pts) {
		return Rect{}, false
	}
	return BoundsOf(pts[i:]), true
}
