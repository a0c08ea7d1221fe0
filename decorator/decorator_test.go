package decorator_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cachetree/blockcache"
	"github.com/cachetree/blockcache/array"
	"github.com/cachetree/blockcache/decorator"
)

type str string

func (s str) Less(other str) bool { return s < other }

func TestFIFO_EvictsOldestFirst(t *testing.T) {
	inner := array.New[string, decorator.FIFOCell[str]](3)
	f := decorator.NewFIFO[string, str](inner)

	rejected := f.Push([]blockcache.Pair[string, str]{
		{Key: "a", Value: "va"}, {Key: "b", Value: "vb"}, {Key: "c", Value: "vc"},
	})
	assert.Empty(t, rejected)

	popped := f.Pop(1)
	require.Len(t, popped, 1)
	assert.Equal(t, "a", popped[0].Key, "FIFO evicts the longest-resident element first")
}

func TestLRU_TouchOnAccessReordersEviction(t *testing.T) {
	var now int64
	clock := func() int64 { now++; return now }

	inner := array.New[string, decorator.LRUCell[str]](2)
	l := decorator.NewLRU[string, str](inner, clock)

	l.Push([]blockcache.Pair[string, str]{{Key: "a", Value: "va"}, {Key: "b", Value: "vb"}})

	_, ok := l.Get("a")
	require.True(t, ok, "accessing a refreshes its recency, so b becomes the least-recently-used")

	popped := l.Pop(1)
	require.Len(t, popped, 1)
	assert.Equal(t, "b", popped[0].Key)
}

func TestLRFU_ConstructsAndScores(t *testing.T) {
	var now int64
	clock := func() int64 { now++; return now }

	inner := array.New[string, decorator.LRFUCell[str]](2)
	l := decorator.NewLRFU[string, str](inner, clock, 4.0)

	l.Push([]blockcache.Pair[string, str]{{Key: "a", Value: "va"}, {Key: "b", Value: "vb"}})

	_, ok := l.Get("a")
	require.True(t, ok)

	popped := l.Pop(1)
	require.Len(t, popped, 1)
	assert.Equal(t, "b", popped[0].Key, "the untouched cell has the higher eviction score")
}

func TestDecorator_TakeUnwrapsValue(t *testing.T) {
	inner := array.New[string, decorator.FIFOCell[str]](3)
	f := decorator.NewFIFO[string, str](inner)

	f.Push([]blockcache.Pair[string, str]{{Key: "a", Value: "va"}})

	p, ok := f.Take("a")
	require.True(t, ok)
	assert.Equal(t, str("va"), p.Value)
}
