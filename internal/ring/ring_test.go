package ring

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestBufferPushEviction(t *testing.T) {
	b := NewBuffer[int](3)
	for i := 1; i <= 5; i++ {
		b.Push(i)
	}
	require.True(t, b.Full())
	require.Equal(t, 3, b.Len())
	require.Equal(t, 3, b.At(0))
	require.Equal(t, 4, b.At(1))
	require.Equal(t, 5, b.At(2))
}

func TestBufferOldestNewest(t *testing.T) {
	b := NewBuffer[string](2)
	_, ok := b.Newest()
	require.False(t, ok)

	b.Push("a")
	b.Push("b")
	newest, ok := b.Newest()
	require.True(t, ok)
	require.Equal(t, "b", newest)

	oldest, ok := b.Oldest()
	require.True(t, ok)
	require.Equal(t, "a", oldest)

	b.Push("c")
	oldest, _ = b.Oldest()
	require.Equal(t, "b", oldest)
}

func TestQueueClearAndMiddle(t *testing.T) {
	q := NewQueue[int](5)
	require.True(t, q.Empty())

	q.Clear(7)
	require.False(t, q.Empty())
	require.Equal(t, 5, q.Len())
	require.Equal(t, 7, q.Middle())

	q.PushPop(1)
	q.PushPop(2)
	require.Equal(t, 5, q.Len())
}
