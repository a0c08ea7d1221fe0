package compressed_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cachetree/blockcache"
	"github.com/cachetree/blockcache/bstream"
	"github.com/cachetree/blockcache/compressed"
)

type num int

func (n num) Less(other num) bool { return n < other }

func TestCompressed_PushTakeRoundTrip(t *testing.T) {
	c := compressed.New[string, num](bstream.NewMem(), 1<<20)

	rejected := c.Push([]blockcache.Pair[string, num]{{Key: "a", Value: 1}, {Key: "b", Value: 2}})
	assert.Empty(t, rejected)

	assert.True(t, c.Contains("a"))
	assert.True(t, c.Contains("b"))

	p, ok := c.Take("a")
	require.True(t, ok)
	assert.Equal(t, num(1), p.Value)
	assert.False(t, c.Contains("a"))
	assert.True(t, c.Contains("b"))
}

func TestCompressed_PopLargestFirst(t *testing.T) {
	c := compressed.New[string, num](bstream.NewMem(), 1<<20)
	c.Push([]blockcache.Pair[string, num]{{Key: "a", Value: 4}, {Key: "b", Value: 2}, {Key: "c", Value: 3}})

	popped := c.Pop(1)
	require.Len(t, popped, 1)
	assert.Equal(t, "a", popped[0].Key)
}

func TestCompressed_PushRejectsOverCapacity(t *testing.T) {
	c := compressed.New[string, num](bstream.NewMem(), 1)

	rejected := c.Push([]blockcache.Pair[string, num]{{Key: "a", Value: 1}})
	assert.Len(t, rejected, 1, "a tiny capacity cannot hold even one compressed element")
	assert.False(t, c.Contains("a"))
}

func TestCompressed_EmptyStreamHasZeroLengthPayload(t *testing.T) {
	stream := bstream.NewMem()
	c := compressed.New[string, num](stream, 1<<20)

	c.Push([]blockcache.Pair[string, num]{{Key: "a", Value: 1}})
	c.Take("a")

	n, err := stream.Len()
	require.NoError(t, err)
	assert.Equal(t, int64(0), n, "draining to empty must leave a zero-length stream")
}

func TestCompressed_Flush(t *testing.T) {
	c := compressed.New[string, num](bstream.NewMem(), 1<<20)
	c.Push([]blockcache.Pair[string, num]{{Key: "a", Value: 1}, {Key: "b", Value: 2}})

	var count int
	for range c.Flush() {
		count++
	}

	assert.Equal(t, 2, count)
	assert.False(t, c.Contains("a"))
}
