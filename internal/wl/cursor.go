package wl

const CursorShapeManagerInterface = "wp_cursor_shape_manager_v1"

// CursorShapeCrosshair is the crosshair shape.
const CursorShapeCrosshair = 8

// CursorShapeManager is wp_cursor_shape_manager_v1.
type CursorShapeManager struct {
	Proxy
}

func (r *Registry) BindCursorShapeManager(g Global) *CursorShapeManager {
	m := &CursorShapeManager{}
	m.conn = r.conn
	m.id, _ = r.bind(g, 1, nopHandler)
	return m
}

// GetPointer returns the shape device of p.
func (m *CursorShapeManager) GetPointer(p *Pointer) *CursorShapeDevice {
	d := &CursorShapeDevice{}
	d.conn = m.conn
	d.id = m.conn.newID(nopHandler)
	m.conn.send(m.id, 1, Object(d.id), Object(p.id))
	return d
}

func (m *CursorShapeManager) Destroy() {
	m.conn.send(m.id, 0)
	m.conn.forget(m.id)
}

// CursorShapeDevice is wp_cursor_shape_device_v1.
type CursorShapeDevice struct {
	Proxy
}

// SetShape sets the cursor for the pointer enter identified by serial.
func (d *CursorShapeDevice) SetShape(serial, shape uint32) {
	d.conn.send(d.id, 1, Uint(serial), Uint(shape))
}

func (d *CursorShapeDevice) Destroy() {
	d.conn.send(d.id, 0)
	d.conn.forget(d.id)
}
