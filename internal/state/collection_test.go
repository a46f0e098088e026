package state

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCollectionBeginKeepsOrder(t *testing.T) {
	c := NewCollection(DefaultStrokeOptions())
	a := c.Begin(3, 0xd20f39ff)
	b := c.Begin(5, 0x40a02bff)

	require.Equal(t, 2, c.Len())
	assert.Same(t, a, c.Strokes()[0])
	assert.Same(t, b, c.Strokes()[1])
	assert.NotEqual(t, a.ID, b.ID)
	assert.Equal(t, 5.0, b.Width())
	assert.Equal(t, uint32(0x40a02bff), b.Color())
	assert.False(t, a.Closed())
}

func TestCollectionGrowsPastInitialCapacity(t *testing.T) {
	c := NewCollection(DefaultStrokeOptions())
	for i := 0; i < 3*defaultCollectionCapacity; i++ {
		s := c.Begin(1, 0)
		s.Extend(Pt(float64(i), 0))
		s.Finish()
	}
	assert.Equal(t, 3*defaultCollectionCapacity, c.Len())
	assert.Equal(t, 3*defaultCollectionCapacity, c.Points())
}

func TestCollectionClear(t *testing.T) {
	c := NewCollection(DefaultStrokeOptions())
	open := c.Begin(3, 0)
	open.Extend(Pt(1, 1))
	c.Begin(3, 0).Finish()

	assert.Equal(t, 2, c.Clear())
	assert.Equal(t, 0, c.Len())
	assert.True(t, open.Closed())
	assert.Equal(t, 0, c.Clear())
}

func TestCollectionNormalizesOptions(t *testing.T) {
	c := NewCollection(StrokeOptions{})
	opts := c.Options()
	assert.Equal(t, DefaultMaxPoints, opts.MaxPoints)
	assert.Equal(t, DefaultInitialCapacity, opts.InitialCapacity)
	assert.Equal(t, DistanceSimplifier{Threshold: DefaultThreshold}, opts.Simplifier)
}
