package wl

const ShmInterface = "wl_shm"

// ShmFormatARGB8888 is 32-bit ARGB with premultiplied alpha, little-endian
// B, G, R, A in memory. Every compositor supports it.
const ShmFormatARGB8888 = 0

// Shm is wl_shm.
type Shm struct {
	Proxy
	formats map[uint32]bool
}

func (r *Registry) BindShm(g Global) *Shm {
	s := &Shm{formats: make(map[uint32]bool)}
	s.conn = r.conn
	s.id, _ = r.bind(g, 1, s.dispatch)
	return s
}

func (s *Shm) dispatch(ev *Event) error {
	if ev.Opcode == 0 { // format
		f := ev.Uint()
		if ev.err == nil {
			s.formats[f] = true
		}
	}
	return nil
}

// HasFormat reports whether the compositor advertised format f.
func (s *Shm) HasFormat(f uint32) bool { return s.formats[f] }

// CreatePool shares size bytes of fd with the compositor. The caller keeps
// ownership of fd.
func (s *Shm) CreatePool(fd int, size int32) *ShmPool {
	p := &ShmPool{size: size}
	p.conn = s.conn
	p.id = s.conn.newID(nopHandler)
	s.conn.send(s.id, 0, Object(p.id), FD(fd), Int(size))
	return p
}

// ShmPool is wl_shm_pool.
type ShmPool struct {
	Proxy
	size int32
}

func (p *ShmPool) Size() int32 { return p.size }

func (p *ShmPool) CreateBuffer(offset, width, height, stride int32, format uint32) *Buffer {
	b := &Buffer{}
	b.conn = p.conn
	b.id = p.conn.newID(b.dispatch)
	p.conn.send(p.id, 0, Object(b.id), Int(offset), Int(width), Int(height), Int(stride), Uint(format))
	return b
}

// Resize grows the pool. Pools can never shrink.
func (p *ShmPool) Resize(size int32) {
	if size <= p.size {
		return
	}
	p.size = size
	p.conn.send(p.id, 2, Int(size))
}

func (p *ShmPool) Destroy() {
	p.conn.send(p.id, 1)
	p.conn.forget(p.id)
}

// Buffer is wl_buffer.
type Buffer struct {
	Proxy
	OnRelease func()
}

func (b *Buffer) dispatch(ev *Event) error {
	if ev.Opcode == 0 && b.OnRelease != nil {
		b.OnRelease()
	}
	return nil
}

func (b *Buffer) Destroy() {
	b.conn.send(b.id, 0)
	b.conn.forget(b.id)
}
