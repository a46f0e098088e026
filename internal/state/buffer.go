package state

// Buffer is an append-mostly slice with explicit doubling growth and an
// optional hard ceiling on its capacity. It backs both stroke point storage
// and the stroke collection.
type Buffer[T any] struct {
	items []T
	limit int
}

// NewBuffer returns an empty buffer with the given initial capacity. A limit
// of zero or less means the buffer may grow without bound.
func NewBuffer[T any](initial, limit int) *Buffer[T] {
	if initial < 1 {
		initial = 1
	}
	if limit > 0 && initial > limit {
		initial = limit
	}
	return &Buffer[T]{items: make([]T, 0, initial), limit: limit}
}

// Len returns the number of stored items.
func (b *Buffer[T]) Len() int { return len(b.items) }

// Cap returns the size of the backing storage.
func (b *Buffer[T]) Cap() int { return cap(b.items) }

// Limit returns the capacity ceiling, or 0 when unbounded.
func (b *Buffer[T]) Limit() int { return b.limit }

// At returns the i-th item.
func (b *Buffer[T]) At(i int) T { return b.items[i] }

// Last returns the most recently appended item.
func (b *Buffer[T]) Last() T { return b.items[len(b.items)-1] }

// Items returns the stored items. The slice aliases the buffer and is only
// valid until the next mutation.
func (b *Buffer[T]) Items() []T { return b.items }

// Append stores v, doubling the backing storage when it is full. It reports
// false, leaving the buffer untouched, when the buffer is full and already at
// its ceiling.
func (b *Buffer[T]) Append(v T) bool {
	if len(b.items) == cap(b.items) && !b.grow() {
		return false
	}
	b.items = append(b.items, v)
	return true
}

func (b *Buffer[T]) grow() bool {
	c := cap(b.items)
	if b.limit > 0 && c >= b.limit {
		return false
	}
	n := c * 2
	if b.limit > 0 && n > b.limit {
		n = b.limit
	}
	items := make([]T, len(b.items), n)
	copy(items, b.items)
	b.items = items
	return true
}

// Cut removes the items in [from, to), shifting the tail down. Capacity is
// kept.
func (b *Buffer[T]) Cut(from, to int) {
	if from >= to {
		return
	}
	n := copy(b.items[from:], b.items[to:])
	var zero T
	for i := from + n; i < len(b.items); i++ {
		b.items[i] = zero
	}
	b.items = b.items[:from+n]
}

// Reset drops every item. Capacity is kept.
func (b *Buffer[T]) Reset() {
	b.Cut(0, len(b.items))
}
