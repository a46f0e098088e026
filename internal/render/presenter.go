package render

import (
	"fmt"
	"image"

	"glassnote/internal/wl"
)

// Presenter paints frames and commits them to a surface.
type Presenter struct {
	surface *wl.Surface
	canvas  *Canvas
	buffers *Buffers
}

func NewPresenter(surface *wl.Surface, shm *wl.Shm) *Presenter {
	return &Presenter{
		surface: surface,
		buffers: NewBuffers(shm, DefaultBufferCount),
	}
}

// Present draws f and commits it. It returns ErrNoBuffer, leaving the
// surface untouched, when the compositor holds every buffer.
func (p *Presenter) Present(f *Frame) error {
	if err := p.configure(f.Width, f.Height); err != nil {
		return err
	}

	damage := f.DamageRect()
	p.buffers.Invalidate(damage)

	slot, err := p.buffers.Acquire()
	if err != nil {
		return err
	}
	if err := p.canvas.Paint(f); err != nil {
		return fmt.Errorf("paint frame: %w", err)
	}
	CopyARGB(slot.pixels, p.buffers.Stride(), p.canvas.Pixmap(), slot.stale)
	slot.stale = image.Rectangle{}
	slot.busy = true

	p.surface.Attach(slot.buf, 0, 0)
	p.surface.DamageBuffer(int32(damage.Min.X), int32(damage.Min.Y), int32(damage.Dx()), int32(damage.Dy()))
	p.surface.Commit()
	return nil
}

func (p *Presenter) configure(width, height int) error {
	if p.canvas == nil {
		p.canvas = NewCanvas(width, height)
	} else if err := p.canvas.Resize(width, height); err != nil {
		return err
	}
	if err := p.buffers.Configure(width, height); err != nil {
		return fmt.Errorf("configure buffers: %w", err)
	}
	return nil
}

// Close releases the buffers.
func (p *Presenter) Close() error {
	return p.buffers.Close()
}
