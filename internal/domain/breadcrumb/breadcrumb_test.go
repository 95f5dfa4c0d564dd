package breadcrumb

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPushPopReversesOrder(t *testing.T) {
	var s Stack
	rooms := []int{0, 3, 1, 4, 1, 5, 9, 2, 6}
	for _, r := range rooms {
		s.Push(r)
	}
	require.Equal(t, len(rooms), s.Len())

	for i := len(rooms) - 1; i >= 0; i-- {
		got, ok := s.Pop()
		require.True(t, ok)
		assert.Equal(t, rooms[i], got)
	}
	assert.Zero(t, s.Len())

	_, ok := s.Pop()
	assert.False(t, ok, "popping an empty trail reports exhaustion")
}

func TestPeekAndClear(t *testing.T) {
	var s Stack
	_, ok := s.Peek()
	assert.False(t, ok)

	s.Push(2)
	s.Push(7)
	top, ok := s.Peek()
	require.True(t, ok)
	assert.Equal(t, 7, top)
	assert.Equal(t, 2, s.Len())

	s.Clear()
	assert.Zero(t, s.Len())
	_, ok = s.Pop()
	assert.False(t, ok)
}
