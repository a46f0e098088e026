package state

import "math"

// Rect is an axis-aligned rectangle in surface-local coordinates.
type Rect struct {
	X, Y          float64
	Width, Height float64
}

// Empty reports whether r covers no area.
func (r Rect) Empty() bool { return r.Width <= 0 || r.Height <= 0 }

// BoundsOf returns the bounding box of pts. A single point yields a
// zero-sized rectangle at that point.
func BoundsOf(pts []Point) Rect {
	if len(pts) == 0 {
		return Rect{}
	}
	minX, minY := pts[0].X, pts[0].Y
	maxX, maxY := minX, minY
	for _, p := range pts[1:] {
		minX = math.Min(minX, p.X)
		maxX = math.Max(maxX, p.X)
		minY = math.Min(minY, p.Y)
		maxY = math.Max(maxY, p.Y)
	}
	return Rect{X: minX, Y: minY, Width: maxX - minX, Height: maxY - minY}
}

// Union returns the smallest rectangle containing both r and o. An empty
// side is ignored.
func (r Rect) Union(o Rect) Rect {
	if r.Empty() {
		return o
	}
	if o.Empty() {
		return r
	}
	minX := math.Min(r.X, o.X)
	minY := math.Min(r.Y, o.Y)
	maxX := math.Max(r.X+r.Width, o.X+o.Width)
	maxY := math.Max(r.Y+r.Height, o.Y+o.Height)
	return Rect{X: minX, Y: minY, Width: maxX - minX, Height: maxY - minY}
}

// Inflate grows r by pad on every side.
func (r Rect) Inflate(pad float64) Rect {
	return Rect{X: r.X - pad, Y: r.Y - pad, Width: r.Width + 2*pad, Height: r.Height + 2*pad}
}

// Intersect clips r to o. The result is empty when they do not overlap.
func (r Rect) Intersect(o Rect) Rect {
	minX := math.Max(r.X, o.X)
	minY := math.Max(r.Y, o.Y)
	maxX := math.Min(r.X+r.Width, o.X+o.Width)
	maxY := math.Min(r.Y+r.Height, o.Y+o.Height)
	if maxX <= minX || maxY <= minY {
		return Rect{}
	}
	return Rect{X: minX, Y: minY, Width: maxX - minX, Height: maxY - minY}
}

// Integer returns the smallest whole-pixel rectangle covering r.
func (r Rect) Integer() (x, y, w, h int) {
	x0, y0 := math.Floor(r.X), math.Floor(r.Y)
	x1, y1 := math.Ceil(r.X+r.Width), math.Ceil(r.Y+r.Height)
	return int(x0), int(y0), int(x1 - x0), int(y1 - y0)
}
