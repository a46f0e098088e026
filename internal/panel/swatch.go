package panel

import (
	"image/color"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/widget"
)

// colorSwatch is a tappable square showing one palette slot.
type colorSwatch struct {
	widget.BaseWidget
	Slot     uint32
	Color    color.Color
	OnTapped func(slot uint32)
}

func newColorSwatch(slot uint32, rgba uint32, tapped func(uint32)) *colorSwatch {
	s := &colorSwatch{Slot: slot, Color: toNRGBA(rgba), OnTapped: tapped}
	s.ExtendBaseWidget(s)
	return s
}

func (s *colorSwatch) CreateRenderer() fyne.WidgetRenderer {
	rect := canvas.NewRectangle(s.Color)
	rect.SetMinSize(fyne.NewSize(32, 32))

	border := canvas.NewRectangle(color.Transparent)
	border.StrokeColor = color.Gray{Y: 150}
	border.StrokeWidth = 1

	return widget.NewSimpleRenderer(container.NewStack(rect, border))
}

func (s *colorSwatch) Tapped(_ *fyne.PointEvent) {
	if s.OnTapped != nil {
		s.OnTapped(s.Slot)
	}
}

// toNRGBA converts a 0xRRGGBBAA color.
func toNRGBA(c uint32) color.NRGBA {
	return color.NRGBA{R: uint8(c >> 24), G: uint8(c >> 16), B: uint8(c >> 8), A: uint8(c)}
}
