// Package render rasterizes the stroke collection on the CPU and hands the
// pixels to the compositor through shared-memory buffers.
package render

import (
	"fmt"
	"image"

	"github.com/gogpu/gg"

	"glassnote/internal/state"
)

// Stroke is a snapshot of one stroke for drawing.
type Stroke struct {
	Points []state.Point
	Width  float64
	Color  uint32 // 0xRRGGBBAA
}

// Frame is everything needed to paint the overlay once.
type Frame struct {
	Width, Height int

	Active     bool
	Background uint32 // 0xRRGGBBAA
	// InactiveAlpha scales stroke opacity while the overlay is hidden.
	InactiveAlpha float64

	Strokes []Stroke

	// Damage is the area that changed since the previous frame. An empty
	// rectangle means the whole surface.
	Damage state.Rect
}

// Bounds returns the frame rectangle.
func (f *Frame) Bounds() image.Rectangle {
	return image.Rect(0, 0, f.Width, f.Height)
}

// DamageRect returns the damaged area in whole pixels, clipped to the frame.
func (f *Frame) DamageRect() image.Rectangle {
	if f.Damage.Empty() {
		return f.Bounds()
	}
	x, y, w, h := f.Damage.Integer()
	return image.Rect(x, y, x+w, y+h).Intersect(f.Bounds())
}

// RGBA converts 0xRRGGBBAA to a gg color, scaling alpha by k.
func RGBA(c uint32, k float64) gg.RGBA {
	return gg.RGBA2(
		float64(c>>24&0xff)/255,
		float64(c>>16&0xff)/255,
		float64(c>>8&0xff)/255,
		float64(c&0xff)/255*k,
	)
}

// Canvas draws frames into an in-memory pixmap.
type Canvas struct {
	dc *gg.Context
}

func NewCanvas(width, height int) *Canvas {
	return &Canvas{dc: gg.NewContext(width, height)}
}

func (c *Canvas) Resize(width, height int) error {
	if err := c.dc.Resize(width, height); err != nil {
		return fmt.Errorf("resize canvas: %w", err)
	}
	return nil
}

func (c *Canvas) Width() int  { return c.dc.Width() }
func (c *Canvas) Height() int { return c.dc.Height() }

// Pixmap returns the drawn pixels.
func (c *Canvas) Pixmap() *gg.Pixmap { return c.dc.ResizeTarget() }

// Paint redraws the whole frame: background tint, then every stroke in
// drawing order.
func (c *Canvas) Paint(f *Frame) error {
	c.dc.ClearWithColor(RGBA(f.Background, 1))

	alpha := 1.0
	if !f.Active {
		alpha = f.InactiveAlpha
	}
	c.dc.SetLineCap(gg.LineCapRound)
	c.dc.SetLineJoin(gg.LineJoinRound)

	for i := range f.Strokes {
		if err := c.stroke(&f.Strokes[i], alpha); err != nil {
			return err
		}
	}
	return nil
}

func (c *Canvas) stroke(s *Stroke, alpha float64) error {
	pts := s.Points
	if len(pts) == 0 {
		return nil
	}
	col := RGBA(s.Color, alpha)
	c.dc.SetRGBA(col.R, col.G, col.B, col.A)

	if len(pts) == 1 {
		c.dc.DrawCircle(pts[0].X, pts[0].Y, s.Width/2)
		if err := c.dc.Fill(); err != nil {
			return fmt.Errorf("fill dot: %w", err)
		}
		return nil
	}

	c.dc.SetLineWidth(s.Width)
	c.dc.MoveTo(pts[0].X, pts[0].Y)
	for _, p := range pts[1:] {
		c.dc.LineTo(p.X, p.Y)
	}
	if err := c.dc.Stroke(); err != nil {
		return fmt.Errorf("stroke path: %w", err)
	}
	return nil
}

// CopyARGB converts the pixels of r from pm into dst, laid out as
// premultiplied ARGB8888 little-endian rows of stride bytes.
func CopyARGB(dst []byte, stride int, pm *gg.Pixmap, r image.Rectangle) {
	r = r.Intersect(image.Rect(0, 0, pm.Width(), pm.Height()))
	for y := r.Min.Y; y < r.Max.Y; y++ {
		row := dst[y*stride:]
		for x := r.Min.X; x < r.Max.X; x++ {
			px := pm.GetPixel(x, y)
			a := px.A
			o := x * 4
			row[o+0] = to8(px.B * a)
			row[o+1] = to8(px.G * a)
			row[o+2] = to8(px.R * a)
			row[o+3] = to8(a)
		}
	}
}

func to8(v float64) byte {
	switch {
	case v <= 0:
		return 0
	case v >= 1:
		return 255
	}
	return byte(v*255 + 0.5)
}
