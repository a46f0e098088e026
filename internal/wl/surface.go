package wl

// Compositor is wl_compositor.
type Compositor struct {
	Proxy
	version uint32
}

const CompositorInterface = "wl_compositor"

// BindCompositor binds g, which must be a wl_compositor global.
func (r *Registry) BindCompositor(g Global) *Compositor {
	c := &Compositor{}
	c.conn = r.conn
	c.id, c.version = r.bind(g, 4, nopHandler)
	return c
}

func (c *Compositor) CreateSurface() *Surface {
	s := &Surface{version: c.version}
	s.conn = c.conn
	s.id = c.conn.newID(nopHandler)
	c.conn.send(c.id, 0, Object(s.id))
	return s
}

func (c *Compositor) CreateRegion() *Region {
	rg := &Region{}
	rg.conn = c.conn
	rg.id = c.conn.newID(nopHandler)
	c.conn.send(c.id, 1, Object(rg.id))
	return rg
}

// Region is wl_region.
type Region struct {
	Proxy
}

func (r *Region) Add(x, y, w, h int32) {
	r.conn.send(r.id, 1, Int(x), Int(y), Int(w), Int(h))
}

func (r *Region) Subtract(x, y, w, h int32) {
	r.conn.send(r.id, 2, Int(x), Int(y), Int(w), Int(h))
}

func (r *Region) Destroy() {
	r.conn.send(r.id, 0)
	r.conn.forget(r.id)
}

// Surface is wl_surface.
type Surface struct {
	Proxy
	version uint32
}

// Attach attaches b, or detaches the current buffer when b is nil.
func (s *Surface) Attach(b *Buffer, x, y int32) {
	var id uint32
	if b != nil {
		id = b.id
	}
	s.conn.send(s.id, 1, Object(id), Int(x), Int(y))
}

func (s *Surface) Damage(x, y, w, h int32) {
	s.conn.send(s.id, 2, Int(x), Int(y), Int(w), Int(h))
}

// Frame requests a callback when it is a good time to draw the next frame.
// It takes effect on the next Commit.
func (s *Surface) Frame() *Callback {
	cb := &Callback{}
	cb.conn = s.conn
	cb.id = s.conn.newID(cb.dispatch)
	s.conn.send(s.id, 3, Object(cb.id))
	return cb
}

func (s *Surface) SetOpaqueRegion(r *Region) {
	s.conn.send(s.id, 4, Object(regionID(r)))
}

// SetInputRegion restricts pointer input to r. A nil region means the
// whole surface.
func (s *Surface) SetInputRegion(r *Region) {
	s.conn.send(s.id, 5, Object(regionID(r)))
}

func (s *Surface) Commit() {
	s.conn.send(s.id, 6)
}

func (s *Surface) SetBufferScale(scale int32) {
	s.conn.send(s.id, 8, Int(scale))
}

// DamageBuffer marks a region in buffer coordinates. Compositors older than
// version 4 get surface damage, which is the same at scale 1.
func (s *Surface) DamageBuffer(x, y, w, h int32) {
	if s.version < 4 {
		s.Damage(x, y, w, h)
		return
	}
	s.conn.send(s.id, 9, Int(x), Int(y), Int(w), Int(h))
}

func (s *Surface) Destroy() {
	s.conn.send(s.id, 0)
	s.conn.forget(s.id)
}

func regionID(r *Region) uint32 {
	if r == nil {
		return 0
	}
	return r.id
}
