package batch_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cachetree/blockcache"
	"github.com/cachetree/blockcache/array"
	"github.com/cachetree/blockcache/batch"
)

type num int

func (n num) Less(other num) bool { return n < other }

func TestBatch_PushFillsFrontToBack(t *testing.T) {
	front := array.New[string, num](1)
	back := array.New[string, num](1)
	b := batch.New[string, num](front, back)

	rejected := b.Push([]blockcache.Pair[string, num]{{Key: "a", Value: 1}, {Key: "b", Value: 2}})
	assert.Empty(t, rejected)
	assert.True(t, front.Contains("a"))
	assert.True(t, back.Contains("b"))

	rejected = b.Push([]blockcache.Pair[string, num]{{Key: "c", Value: 3}})
	require.Len(t, rejected, 1, "both children are full")
	assert.Equal(t, "c", rejected[0].Key)
}

func TestBatch_TakeScansFrontToBack(t *testing.T) {
	front := array.New[string, num](1)
	back := array.New[string, num](1)
	b := batch.New[string, num](front, back)

	b.Push([]blockcache.Pair[string, num]{{Key: "a", Value: 1}, {Key: "b", Value: 2}})

	p, ok := b.Take("b")
	require.True(t, ok)
	assert.Equal(t, num(2), p.Value)
	assert.False(t, back.Contains("b"))
}

func TestBatch_PopDrainsBackToFront(t *testing.T) {
	front := array.New[string, num](1)
	back := array.New[string, num](1)
	b := batch.New[string, num](front, back)

	b.Push([]blockcache.Pair[string, num]{{Key: "a", Value: 1}, {Key: "b", Value: 2}})

	popped := b.Pop(1)
	require.Len(t, popped, 1)
	assert.Equal(t, "b", popped[0].Key, "pop drains the last child first")
}

func TestBatch_CapacityAndSizeSumChildren(t *testing.T) {
	front := array.New[string, num](3)
	back := array.New[string, num](5)
	b := batch.New[string, num](front, back)

	assert.Equal(t, uint64(8), b.Capacity())

	b.Push([]blockcache.Pair[string, num]{{Key: "a", Value: 1}})
	assert.Equal(t, uint64(1), b.Size())
}

func TestBatch_Flush(t *testing.T) {
	front := array.New[string, num](3)
	back := array.New[string, num](3)
	b := batch.New[string, num](front, back)

	b.Push([]blockcache.Pair[string, num]{{Key: "a", Value: 1}, {Key: "b", Value: 2}})

	var count int
	for range b.Flush() {
		count++
	}

	assert.Equal(t, 2, count)
	assert.Equal(t, uint64(0), b.Size())
}

func TestBatch_IsOrderedRequiresAllChildren(t *testing.T) {
	b := batch.New[string, num](array.New[string, num](1), array.New[string, num](1))
	assert.True(t, b.IsOrdered())
}
