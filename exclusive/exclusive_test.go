package exclusive_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cachetree/blockcache"
	"github.com/cachetree/blockcache/array"
	"github.com/cachetree/blockcache/exclusive"
)

type num int

func (n num) Less(other num) bool { return n < other }

// TestExclusive_OverflowDemotesToBack checks that pushing into a full
// front demotes its resident to back so the new element lands in front,
// and that a key lives in exactly one of the two tiers at a time.
func TestExclusive_OverflowDemotesToBack(t *testing.T) {
	front := array.New[string, num](1)
	back := array.New[string, num](5)
	e := exclusive.New[string, num](front, back)

	rejected := e.Push([]blockcache.Pair[string, num]{{Key: "a", Value: 1}, {Key: "b", Value: 2}})
	assert.Empty(t, rejected)

	assert.True(t, front.Contains("b"))
	assert.True(t, back.Contains("a"))
	assert.False(t, back.Contains("b"))
	assert.True(t, e.Contains("a"))
	assert.True(t, e.Contains("b"))
}

// TestExclusive_PushDemotesLargestAndRoundTrips walks a full
// push/pop/re-push cycle across both tiers: demotion picks the
// largest-valued front resident, pop drains back first, and a re-pushed
// key lands in front again.
func TestExclusive_PushDemotesLargestAndRoundTrips(t *testing.T) {
	front := array.New[string, num](2)
	back := array.New[string, num](4)
	e := exclusive.New[string, num](front, back)

	rejected := e.Push([]blockcache.Pair[string, num]{{Key: "first", Value: 1}, {Key: "second", Value: 0}})
	require.Empty(t, rejected)

	rejected = e.Push([]blockcache.Pair[string, num]{{Key: "third", Value: 3}})
	require.Empty(t, rejected)

	assert.True(t, front.Contains("second"))
	assert.True(t, front.Contains("third"))
	assert.True(t, back.Contains("first"), "the largest-valued resident is demoted")

	popped := e.Pop(1)
	require.Len(t, popped, 1)
	assert.Equal(t, "first", popped[0].Key)

	rejected = e.Push([]blockcache.Pair[string, num]{{Key: "first", Value: 1}})
	require.Empty(t, rejected)

	assert.True(t, front.Contains("first"))
	assert.True(t, front.Contains("second"))
	assert.True(t, back.Contains("third"))
}

func TestExclusive_TakeFallsThroughToBack(t *testing.T) {
	front := array.New[string, num](5)
	back := array.New[string, num](5)
	e := exclusive.New[string, num](front, back)

	back.Push([]blockcache.Pair[string, num]{{Key: "a", Value: 9}})

	p, ok := e.Take("a")
	require.True(t, ok)
	assert.Equal(t, num(9), p.Value)
	assert.False(t, back.Contains("a"))
}

func TestExclusive_PopDrainsBackFirst(t *testing.T) {
	front := array.New[string, num](5)
	back := array.New[string, num](5)
	e := exclusive.New[string, num](front, back)

	front.Push([]blockcache.Pair[string, num]{{Key: "a", Value: 1}})
	back.Push([]blockcache.Pair[string, num]{{Key: "b", Value: 2}})

	popped := e.Pop(1)
	require.Len(t, popped, 1)
	assert.Equal(t, "b", popped[0].Key)
}

func TestExclusive_PopFallsThroughToFrontOnShortfall(t *testing.T) {
	front := array.New[string, num](5)
	back := array.New[string, num](5)
	e := exclusive.New[string, num](front, back)

	front.Push([]blockcache.Pair[string, num]{{Key: "a", Value: 1}})

	popped := e.Pop(1)
	require.Len(t, popped, 1)
	assert.Equal(t, "a", popped[0].Key, "back is empty, so the shortfall is made up from front")
}

func TestExclusive_IsOrderedRequiresBothTiers(t *testing.T) {
	front := array.New[string, num](5)
	back := array.New[string, num](5)
	e := exclusive.New[string, num](front, back)

	assert.True(t, e.IsOrdered())
}
