package state

import "math"

// Point is a position in surface-local coordinates.
type Point struct{ X, Y float64 }

// Pt is shorthand for Point{x, y}.
func Pt(x, y float64) Point { return Point{X: x, Y: y} }

// Sub returns p - q.
func (p Point) Sub(q Point) Point { return Point{X: p.X - q.X, Y: p.Y - q.Y} }

// Dot returns the dot product of two vectors.
func Dot(a, b Point) float64 { return a.X*b.X + a.Y*b.Y }

// NormSq returns the squared length of v.
func NormSq(v Point) float64 { return Dot(v, v) }

// Norm returns the length of v.
func Norm(v Point) float64 { return math.Sqrt(NormSq(v)) }

// PerpDist returns the distance from p to the infinite line through a and b.
// When a and b coincide the line is undefined and the distance to a is
// returned instead.
func PerpDist(p, a, b Point) float64 {
	ab := b.Sub(a)
	l := Norm(ab)
	if l == 0 {
		return Norm(p.Sub(a))
	}
	ap := p.Sub(a)
	return math.Abs(ab.X*ap.Y-ab.Y*ap.X) / l
}

// Angle returns the unsigned angle in radians between u and v, or 0 when
// either is the zero vector.
func Angle(u, v Point) float64 {
	lu, lv := Norm(u), Norm(v)
	if lu == 0 || lv == 0 {
		return 0
	}
	c := Dot(u, v) / (lu * lv)
	return math.Acos(math.Max(-1, math.Min(1, c)))
}
