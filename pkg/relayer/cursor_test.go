package relayer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCursor(t *testing.T) {
	var c Cursor
	_, ok := c.LastProcessed()
	assert.False(t, ok)
	assert.Equal(t, uint64(0), c.Next())
	assert.Equal(t, "empty", c.String())

	require.Error(t, c.Advance(1))
	require.NoError(t, c.Advance(0))
	last, ok := c.LastProcessed()
	require.True(t, ok)
	assert.Equal(t, uint64(0), last)
	assert.Equal(t, uint64(1), c.Next())

	require.Error(t, c.Advance(0), "cursor never moves backwards")
	require.NoError(t, c.Advance(1))
	assert.Equal(t, "1", c.String())
}

func TestNewCursorAt(t *testing.T) {
	assert.Equal(t, Cursor{}, NewCursorAt(0))

	c := NewCursorAt(5)
	last, ok := c.LastProcessed()
	require.True(t, ok)
	assert.Equal(t, uint64(4), last)
	assert.Equal(t, uint64(5), c.Next())
}
