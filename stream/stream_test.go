package stream_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cachetree/blockcache"
	"github.com/cachetree/blockcache/bstream"
	"github.com/cachetree/blockcache/stream"
)

type num int

func (n num) Less(other num) bool { return n < other }

func TestStream_PushTakeRoundTrip(t *testing.T) {
	s := stream.New[string, num](bstream.NewMem(), 10)

	rejected := s.Push([]blockcache.Pair[string, num]{{Key: "a", Value: 1}, {Key: "b", Value: 2}})
	assert.Empty(t, rejected)

	assert.True(t, s.Contains("a"))

	p, ok := s.Take("a")
	require.True(t, ok)
	assert.Equal(t, num(1), p.Value)
	assert.False(t, s.Contains("a"))
	assert.Equal(t, uint64(1), s.Size())
}

func TestStream_PushRejectsOverCapacity(t *testing.T) {
	s := stream.New[string, num](bstream.NewMem(), 2)

	rejected := s.Push([]blockcache.Pair[string, num]{{Key: "a", Value: 1}, {Key: "b", Value: 2}, {Key: "c", Value: 3}})
	require.Len(t, rejected, 1)
	assert.Equal(t, "c", rejected[0].Key)
	assert.True(t, s.Contains("a"))
	assert.True(t, s.Contains("b"))
	assert.False(t, s.Contains("c"))
}

func TestStream_PopLargestFirst(t *testing.T) {
	s := stream.New[string, num](bstream.NewMem(), 10)
	s.Push([]blockcache.Pair[string, num]{{Key: "a", Value: 4}, {Key: "b", Value: 2}, {Key: "c", Value: 3}})

	popped := s.Pop(1)
	require.Len(t, popped, 1)
	assert.Equal(t, "a", popped[0].Key)
	assert.Equal(t, uint64(2), s.Size())
}

func TestStream_SurvivesReload(t *testing.T) {
	backing := bstream.NewMem()
	s := stream.New[string, num](backing, 10)
	s.Push([]blockcache.Pair[string, num]{{Key: "a", Value: 1}, {Key: "b", Value: 2}})

	reopened := stream.New[string, num](backing, 10)
	assert.True(t, reopened.Contains("a"))
	assert.True(t, reopened.Contains("b"))
	assert.Equal(t, uint64(2), reopened.Size())
}

func TestStream_Flush(t *testing.T) {
	s := stream.New[string, num](bstream.NewMem(), 10)
	s.Push([]blockcache.Pair[string, num]{{Key: "a", Value: 1}, {Key: "b", Value: 2}})

	var seen []string
	for k := range s.Flush() {
		seen = append(seen, k)
	}

	assert.Len(t, seen, 2)
	assert.Equal(t, uint64(0), s.Size())
	assert.False(t, s.Contains("a"))
}
