package state

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func extendAll(s *Stroke, pts ...Point) {
	for _, p := range pts {
		s.Extend(p)
	}
}

func checkInvariants(t *testing.T, s *Stroke) {
	t.Helper()
	if s.Len() == 0 {
		return
	}
	assert.GreaterOrEqual(t, s.SegmentStart(), 0)
	assert.Less(t, s.SegmentStart(), s.Len())
	assert.LessOrEqual(t, s.Len(), s.Cap())
}

func TestStrokeCollinearKeepsEndpoints(t *testing.T) {
	s := newStroke("t", 3, 0xff0000ff, DefaultStrokeOptions())
	for i := 0; i <= 100; i++ {
		s.Extend(Pt(float64(i), 0))
		checkInvariants(t, s)
	}

	assert.Equal(t, []Point{Pt(0, 0), Pt(100, 0)}, s.Points())
	assert.Equal(t, 101, s.Samples())
}

func TestStrokeKeepsCorner(t *testing.T) {
	s := newStroke("t", 3, 0, StrokeOptions{Simplifier: DistanceSimplifier{Threshold: 1.0}})

	extendAll(s, Pt(0, 0), Pt(10, 0))
	assert.Equal(t, []Point{Pt(0, 0), Pt(10, 0)}, s.Points())

	s.Extend(Pt(20, 0))
	assert.Equal(t, []Point{Pt(0, 0), Pt(20, 0)}, s.Points())

	s.Extend(Pt(20, 10))
	assert.Equal(t, []Point{Pt(0, 0), Pt(20, 0), Pt(20, 10)}, s.Points())
	assert.Equal(t, 1, s.SegmentStart())

	s.Extend(Pt(20, 20))
	assert.Equal(t, []Point{Pt(0, 0), Pt(20, 0), Pt(20, 20)}, s.Points())
	checkInvariants(t, s)
}

func TestStrokeSmallJitterCollapses(t *testing.T) {
	s := newStroke("t", 3, 0, DefaultStrokeOptions())
	for i := 0; i <= 50; i++ {
		y := 0.5
		if i%2 == 0 {
			y = -0.5
		}
		s.Extend(Pt(float64(i)*4, y))
		checkInvariants(t, s)
	}
	assert.Equal(t, 2, s.Len())
}

func TestStrokeSinglePoint(t *testing.T) {
	s := newStroke("t", 3, 0, DefaultStrokeOptions())
	s.Extend(Pt(5, 5))

	assert.Equal(t, []Point{Pt(5, 5)}, s.Points())
	assert.Equal(t, 0, s.SegmentStart())

	r, ok := s.OpenBounds()
	require.True(t, ok)
	assert.Equal(t, Rect{X: 5, Y: 5}, r)
}

func TestStrokeRepeatedPoint(t *testing.T) {
	s := newStroke("t", 3, 0, DefaultStrokeOptions())
	extendAll(s, Pt(1, 1), Pt(1, 1), Pt(1, 1), Pt(1, 1))

	assert.Equal(t, 2, s.Len())
	checkInvariants(t, s)
}

func TestStrokeRespectsMaxPoints(t *testing.T) {
	opts := DefaultStrokeOptions()
	s := newStroke("t", 3, 0, opts)

	// Every sample of a wide zigzag is a corner.
	total := opts.MaxPoints + 100
	for i := 0; i < total; i++ {
		s.Extend(Pt(float64(i*10), float64((i%2)*50)))
		checkInvariants(t, s)
	}

	assert.Equal(t, opts.MaxPoints, s.Len())
	assert.Equal(t, opts.MaxPoints, s.Cap())
	assert.Equal(t, total, s.Samples())
}

func TestStrokeZeroThresholdStoresEverything(t *testing.T) {
	s := newStroke("t", 3, 0, StrokeOptions{Simplifier: DistanceSimplifier{Threshold: 0}})
	for i := 0; i < 10; i++ {
		s.Extend(Pt(float64(i), 0))
	}
	assert.Equal(t, 10, s.Len())
	assert.Equal(t, 8, s.SegmentStart())
}

func TestStrokeCapacityDoubles(t *testing.T) {
	s := newStroke("t", 3, 0, StrokeOptions{
		InitialCapacity: 4,
		MaxPoints:       64,
		Simplifier:      DistanceSimplifier{Threshold: 0},
	})

	var caps []int
	for i := 0; i < 20; i++ {
		s.Extend(Pt(float64(i), 0))
		if len(caps) == 0 || caps[len(caps)-1] != s.Cap() {
			caps = append(caps, s.Cap())
		}
	}
	assert.Equal(t, []int{4, 8, 16, 32}, caps)
}

func TestStrokeAngleSimplifier(t *testing.T) {
	s := newStroke("t", 3, 0, StrokeOptions{Simplifier: AngleSimplifier{Threshold: 0.1}})

	// The first sample after a corner is the direction reference.
	extendAll(s, Pt(0, 0), Pt(10, 0), Pt(20, 0), Pt(30, 0))
	assert.Equal(t, []Point{Pt(0, 0), Pt(30, 0)}, s.Points())

	s.Extend(Pt(30, 10))
	assert.Equal(t, []Point{Pt(0, 0), Pt(30, 0), Pt(30, 10)}, s.Points())
	assert.Equal(t, 1, s.SegmentStart())
	checkInvariants(t, s)
}

func TestStrokeAngleSimplifierKeepsGentleCurve(t *testing.T) {
	s := newStroke("t", 3, 0, StrokeOptions{Simplifier: AngleSimplifier{Threshold: 0.2}})
	for i := 0; i <= 90; i++ {
		a := float64(i) * math.Pi / 180
		s.Extend(Pt(100*math.Cos(a), 100*math.Sin(a)))
		checkInvariants(t, s)
	}
	// A quarter circle needs several corners but far fewer than 91 points.
	assert.Greater(t, s.Len(), 3)
	assert.Less(t, s.Len(), 20)
}

// segmentDist returns the distance from p to the segment ab.
func segmentDist(p, a, b Point) float64 {
	ab, ap := b.Sub(a), p.Sub(a)
	l := NormSq(ab)
	if l == 0 {
		return Norm(ap)
	}
	k := math.Max(0, math.Min(1, Dot(ap, ab)/l))
	return Norm(p.Sub(Pt(a.X+k*ab.X, a.Y+k*ab.Y)))
}

// maxDeviation returns how far the farthest sample lies from the polyline.
func maxDeviation(poly, samples []Point) float64 {
	worst := 0.0
	for _, p := range samples {
		best := math.Inf(1)
		if len(poly) == 1 {
			best = Norm(p.Sub(poly[0]))
		}
		for i := 1; i < len(poly); i++ {
			best = math.Min(best, segmentDist(p, poly[i-1], poly[i]))
		}
		worst = math.Max(worst, best)
	}
	return worst
}

func TestStrokeDistanceSimplifierFollowsCurves(t *testing.T) {
	tests := []struct {
		name   string
		turn   float64 // radians swept
		step   float64 // pixels between samples
		radius float64
	}{
		{"quarter circle, 1px steps", math.Pi / 2, 1, 100},
		{"quarter circle, 1.75px steps", math.Pi / 2, 1.75, 100},
		{"full circle, 1px steps", 2 * math.Pi, 1, 100},
		{"tight arc, 2px steps", math.Pi, 2, 20},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newStroke("t", 3, 0, DefaultStrokeOptions())
			var samples []Point
			n := int(tt.turn * tt.radius / tt.step)
			for i := 0; i <= n; i++ {
				a := tt.turn * float64(i) / float64(n)
				p := Pt(100+tt.radius*math.Cos(a), 100+tt.radius*math.Sin(a))
				samples = append(samples, p)
				s.Extend(p)
				checkInvariants(t, s)
				require.LessOrEqual(t, maxDeviation(s.Points(), samples), DefaultThreshold+1e-9,
					"after sample %d: %v", i, s.Points())
			}
			assert.Greater(t, s.Len(), 3)
			assert.Less(t, s.Len(), len(samples)/2)
		})
	}
}

func TestStrokeMeasuresAgainstCollapsedSamples(t *testing.T) {
	s := newStroke("t", 3, 0, StrokeOptions{Simplifier: DistanceSimplifier{Threshold: 1.0}})

	extendAll(s, Pt(0, 0), Pt(10, 0.9), Pt(20, 0))
	assert.Equal(t, []Point{Pt(0, 0), Pt(20, 0)}, s.Points())

	// (20,0) is close to the new chord but the hidden (10,0.9) is not.
	s.Extend(Pt(30, -0.9))
	assert.Equal(t, []Point{Pt(0, 0), Pt(10, 0.9), Pt(30, -0.9)}, s.Points())
	assert.Equal(t, 1, s.SegmentStart())
	checkInvariants(t, s)
}

func TestStrokeMeasurementSpanIsCapped(t *testing.T) {
	s := newStroke("t", 3, 0, StrokeOptions{
		InitialCapacity: 2,
		MaxPoints:       8,
		Simplifier:      DistanceSimplifier{Threshold: 1.5},
	})
	for i := 0; i < 20; i++ {
		s.Extend(Pt(float64(i), 0))
		checkInvariants(t, s)
		assert.LessOrEqual(t, s.span.Len(), 8)
	}
	// Whenever the span fills up, its open end is committed.
	assert.Equal(t, []Point{Pt(0, 0), Pt(8, 0), Pt(16, 0), Pt(19, 0)}, s.Points())
}

func TestStrokeExtendAfterFinishPanics(t *testing.T) {
	s := newStroke("t", 3, 0, DefaultStrokeOptions())
	s.Extend(Pt(0, 0))
	s.Finish()

	assert.True(t, s.Closed())
	assert.Panics(t, func() { s.Extend(Pt(1, 1)) })
}

func TestStrokeOpenBounds(t *testing.T) {
	s := newStroke("t", 3, 0, DefaultStrokeOptions())
	_, ok := s.OpenBounds()
	assert.False(t, ok)

	extendAll(s, Pt(0, 0), Pt(20, 0), Pt(20, 10))
	r, ok := s.OpenBounds()
	require.True(t, ok)
	assert.Equal(t, Rect{X: 20, Y: 0, Width: 0, Height: 10}, r)

	r, ok = s.BoundsFrom(0)
	require.True(t, ok)
	assert.Equal(t, Rect{X: 0, Y: 0, Width: 20, Height: 10}, r)
	_, ok = s.BoundsFrom(3)
	assert.False(t, ok)
}
