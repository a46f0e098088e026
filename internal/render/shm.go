package render

import (
	"errors"
	"fmt"
	"image"

	"golang.org/x/sys/unix"

	"glassnote/internal/frame"
	"glassnote/internal/logx"
	"glassnote/internal/wl"
)

// ErrNoBuffer is returned when every buffer is still held by the
// compositor. The frame is retried on the next callback.
var ErrNoBuffer = fmt.Errorf("render: no free buffer: %w", frame.ErrSkipped)

// DefaultBufferCount is how many buffers a Buffers set rotates through.
const DefaultBufferCount = 3

// Slot is one wl_buffer and its pixels in the shared pool.
type Slot struct {
	buf    *wl.Buffer
	pixels []byte
	busy   bool
	// stale is the area drawn since this slot was last written.
	stale image.Rectangle
}

// Buffer returns the compositor-side buffer.
func (s *Slot) Buffer() *wl.Buffer { return s.buf }

// Pixels returns the slot's memory.
func (s *Slot) Pixels() []byte { return s.pixels }

// Buffers is a fixed set of same-sized wl_shm buffers carved from one
// memfd-backed pool.
type Buffers struct {
	shm   *wl.Shm
	count int

	fd   int
	mem  []byte
	pool *wl.ShmPool

	width, height, stride int
	slots                 []*Slot
}

// NewBuffers returns an unconfigured set of count buffers.
func NewBuffers(shm *wl.Shm, count int) *Buffers {
	if count < 1 {
		count = DefaultBufferCount
	}
	return &Buffers{shm: shm, count: count, fd: -1}
}

func (b *Buffers) Size() (width, height int) { return b.width, b.height }

func (b *Buffers) Stride() int { return b.stride }

// Configure (re)creates the buffers for a width x height surface. Buffers
// still held by the compositor are destroyed when released.
func (b *Buffers) Configure(width, height int) error {
	if width <= 0 || height <= 0 {
		return fmt.Errorf("render: invalid buffer size %dx%d", width, height)
	}
	if width == b.width && height == b.height && b.slots != nil {
		return nil
	}
	b.dropSlots()

	stride := width * 4
	slotSize := stride * height
	total := slotSize * b.count
	if err := b.ensurePool(total); err != nil {
		return err
	}

	b.width, b.height, b.stride = width, height, stride
	full := image.Rect(0, 0, width, height)
	b.slots = make([]*Slot, b.count)
	for i := range b.slots {
		off := i * slotSize
		s := &Slot{
			buf:    b.pool.CreateBuffer(int32(off), int32(width), int32(height), int32(stride), wl.ShmFormatARGB8888),
			pixels: b.mem[off : off+slotSize : off+slotSize],
			stale:  full,
		}
		s.buf.OnRelease = func() { s.busy = false }
		b.slots[i] = s
	}
	logx.Logger().Debug("shm buffers configured", "width", width, "height", height, "count", b.count)
	return nil
}

func (b *Buffers) ensurePool(size int) error {
	if b.fd < 0 {
		fd, err := unix.MemfdCreate("glassnote-shm", unix.MFD_CLOEXEC|unix.MFD_ALLOW_SEALING)
		if err != nil {
			return fmt.Errorf("memfd_create: %w", err)
		}
		b.fd = fd
	}
	if len(b.mem) >= size {
		return nil
	}

	if b.mem != nil {
		if err := unix.Munmap(b.mem); err != nil {
			return fmt.Errorf("munmap shm: %w", err)
		}
		b.mem = nil
	}
	if err := unix.Ftruncate(b.fd, int64(size)); err != nil {
		return fmt.Errorf("resize shm: %w", err)
	}
	mem, err := unix.Mmap(b.fd, 0, size, unix.PROT_READ|unix.PROT_WRITE, unix.MAP_SHARED)
	if err != nil {
		return fmt.Errorf("mmap shm: %w", err)
	}
	b.mem = mem

	if b.pool == nil {
		b.pool = b.shm.CreatePool(b.fd, int32(size))
	} else {
		b.pool.Resize(int32(size))
	}
	return nil
}

func (b *Buffers) dropSlots() {
	for _, s := range b.slots {
		if !s.busy {
			s.buf.Destroy()
			continue
		}
		// The compositor may still read it; destroy on release.
		buf := s.buf
		buf.OnRelease = func() { buf.Destroy() }
	}
	b.slots = nil
}

// Invalidate records that r changed in the drawing, so every slot must
// rewrite it before its next use.
func (b *Buffers) Invalidate(r image.Rectangle) {
	for _, s := range b.slots {
		s.stale = s.stale.Union(r)
	}
}

// Acquire returns a free slot, or ErrNoBuffer.
func (b *Buffers) Acquire() (*Slot, error) {
	for _, s := range b.slots {
		if !s.busy {
			return s, nil
		}
	}
	return nil, ErrNoBuffer
}

// Busy returns how many slots the compositor holds.
func (b *Buffers) Busy() int {
	n := 0
	for _, s := range b.slots {
		if s.busy {
			n++
		}
	}
	return n
}

// Close destroys the buffers and the pool and unmaps the memory.
func (b *Buffers) Close() error {
	var errs []error
	for _, s := range b.slots {
		s.buf.Destroy()
	}
	b.slots = nil
	if b.pool != nil {
		b.pool.Destroy()
		b.pool = nil
	}
	if b.mem != nil {
		if err := unix.Munmap(b.mem); err != nil {
			errs = append(errs, fmt.Errorf("munmap shm: %w", err))
		}
		b.mem = nil
	}
	if b.fd >= 0 {
		if err := unix.Close(b.fd); err != nil {
			errs = append(errs, err)
		}
		b.fd = -1
	}
	return errors.Join(errs...)
}
