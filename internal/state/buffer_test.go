package state

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBufferAppendGrowsToLimit(t *testing.T) {
	b := NewBuffer[int](2, 5)
	for i := 0; i < 5; i++ {
		assert.True(t, b.Append(i), "append %d", i)
	}
	assert.Equal(t, 5, b.Cap())
	assert.False(t, b.Append(5))
	assert.Equal(t, []int{0, 1, 2, 3, 4}, b.Items())
	assert.Equal(t, 4, b.Last())
}

func TestBufferUnbounded(t *testing.T) {
	b := NewBuffer[int](1, 0)
	for i := 0; i < 1000; i++ {
		b.Append(i)
	}
	assert.Equal(t, 1000, b.Len())
	assert.Equal(t, 1024, b.Cap())
	assert.Equal(t, 0, b.Limit())
}

func TestBufferInitialClampedToLimit(t *testing.T) {
	b := NewBuffer[int](64, 8)
	assert.Equal(t, 8, b.Cap())
}

func TestBufferCut(t *testing.T) {
	tests := []struct {
		name     string
		from, to int
		want     []int
	}{
		{"middle", 1, 3, []int{0, 3, 4}},
		{"tail", 3, 5, []int{0, 1, 2}},
		{"head", 0, 2, []int{2, 3, 4}},
		{"empty range", 2, 2, []int{0, 1, 2, 3, 4}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := NewBuffer[int](8, 0)
			for i := 0; i < 5; i++ {
				b.Append(i)
			}
			b.Cut(tt.from, tt.to)
			assert.Equal(t, tt.want, b.Items())
			assert.Equal(t, 8, b.Cap())
		})
	}
}

func TestBufferCutZeroesFreedSlots(t *testing.T) {
	s := &Stroke{ID: "x"}
	b := NewBuffer[*Stroke](4, 0)
	b.Append(s)
	b.Append(s)
	b.Reset()

	assert.Equal(t, 0, b.Len())
	assert.Nil(t, b.Items()[:2][0])
}
