package state

const defaultCollectionCapacity = 64

// Collection is the ordered set of strokes drawn in the current session. It
// owns every stroke; callers only ever hold handles returned by Begin.
type Collection struct {
	strokes *Buffer[*Stroke]
	opts    StrokeOptions
}

func NewCollection(opts StrokeOptions) *Collection {
	return &Collection{
		strokes: NewBuffer[*Stroke](defaultCollectionCapacity, 0),
		opts:    opts.normalized(),
	}
}

// Begin appends a new, empty, open stroke with the given style.
func (c *Collection) Begin(width float64, color uint32) *Stroke {
	s := newStroke(newStrokeID(), width, color, c.opts)
	c.strokes.Append(s)
	return s
}

// Len returns the number of strokes.
func (c *Collection) Len() int { return c.strokes.Len() }

// Strokes returns the strokes in drawing order.
func (c *Collection) Strokes() []*Stroke { return c.strokes.Items() }

// Options returns the options new strokes are created with.
func (c *Collection) Options() StrokeOptions { return c.opts }

// Clear closes and drops every stroke and returns how many there were.
func (c *Collection) Clear() int {
	n := c.strokes.Len()
	for _, s := range c.strokes.Items() {
		s.Finish()
	}
	c.strokes.Reset()
	return n
}

// Points returns the total number of stored points across all strokes.
func (c *Collection) Points() int {
	total := 0
	for _, s := range c.strokes.Items() {
		total += s.Len()
	}
	return total
}
