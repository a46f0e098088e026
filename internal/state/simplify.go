package state

// Simplifier decides which raw samples of a stroke's open segment become
// permanent corners when the candidate p arrives. origin is the last
// corner and span holds every sample taken since, oldest first; the last
// one is the visible open end.
//
// Simplify returns the indexes into span of the new corners in increasing
// order. Nil means the open segment still collapses to origin→p.
type Simplifier interface {
	Simplify(origin Point, span []Point, p Point) []int
}

func allCorners(n int) []int {
	idx := make([]int, n)
	for i := range idx {
		idx[i] = i
	}
	return idx
}

// DistanceSimplifier measures every sample of the open segment against the
// line from the segment origin to the candidate. While all of them lie
// within Threshold the segment stays collapsed; otherwise the farthest
// sample becomes a corner and both sides of it are checked again the same
// way, so every sample ends up within Threshold of the polyline.
//
// A Threshold of 0 or less stores every sample.
type DistanceSimplifier struct {
	Threshold float64
}

func (d DistanceSimplifier) Simplify(origin Point, span []Point, p Point) []int {
	if len(span) == 0 {
		return nil
	}
	if d.Threshold <= 0 {
		return allCorners(len(span))
	}
	var corners []int
	return d.split(span, origin, 0, len(span), p, corners)
}

// split finds the corners among span[lo:hi], which lie between a and b.
func (d DistanceSimplifier) split(span []Point, a Point, lo, hi int, b Point, corners []int) []int {
	maxDist, index := -1.0, -1
	for i := lo; i < hi; i++ {
		dist := PerpDist(span[i], a, b)
		if dist > maxDist {
			maxDist, index = dist, i
		}
	}
	if index < 0 || maxDist < d.Threshold {
		return corners
	}
	corners = d.split(span, a, lo, index, span[index], corners)
	corners = append(corners, index)
	return d.split(span, span[index], index+1, hi, b, corners)
}

// AngleSimplifier compares the direction from the last corner to the first
// sample after it with the direction from that corner to the candidate.
// While they deviate by less than Threshold radians the segment stays
// collapsed; otherwise the open end becomes a corner.
//
// It reacts to direction changes rather than to distance, so long gentle
// curves keep more corners and jitter along a straight run keeps fewer.
type AngleSimplifier struct {
	Threshold float64
}

func (a AngleSimplifier) Simplify(origin Point, span []Point, p Point) []int {
	if len(span) == 0 {
		return nil
	}
	if a.Threshold <= 0 {
		return allCorners(len(span))
	}

	v := p.Sub(origin)
	if NormSq(v) == 0 {
		return nil
	}
	for _, s := range span {
		u := s.Sub(origin)
		if NormSq(u) == 0 {
			continue
		}
		if Angle(u, v) < a.Threshold {
			return nil
		}
		return []int{len(span) - 1}
	}
	// No direction yet.
	return nil
}
