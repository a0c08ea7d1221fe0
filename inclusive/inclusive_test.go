package inclusive_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cachetree/blockcache"
	"github.com/cachetree/blockcache/array"
	"github.com/cachetree/blockcache/inclusive"
)

type num int

func (n num) Less(other num) bool { return n < other }

func newTiers() (*array.Array[string, inclusive.Cell[num]], *array.Array[string, inclusive.Cell[num]]) {
	return array.New[string, inclusive.Cell[num]](5), array.New[string, inclusive.Cell[num]](5)
}

// TestInclusive_PushMirrorsBothTiers pushes a value once and checks it is
// mirrored into both tiers, reachable through the connector regardless of
// which tier actually holds it.
func TestInclusive_PushMirrorsBothTiers(t *testing.T) {
	front, back := newTiers()
	in := inclusive.New[string, num](front, back)

	rejected := in.Push([]blockcache.Pair[string, num]{{Key: "a", Value: 1}, {Key: "b", Value: 2}})
	assert.Empty(t, rejected)

	assert.True(t, in.Contains("a"))
	assert.True(t, front.Contains("a"))
	assert.True(t, back.Contains("a"))
}

func TestInclusive_GetPromotesFromBack(t *testing.T) {
	front, back := newTiers()
	in := inclusive.New[string, num](front, back)

	back.Push([]blockcache.Pair[string, inclusive.Cell[num]]{{Key: "x", Value: inclusive.Cell[num]{}}})

	v, ok := in.Get("x")
	require.True(t, ok)
	assert.NotNil(t, v)
	assert.True(t, front.Contains("x"), "a back hit must clone the entry into front")
}

func TestInclusive_TakeDropsFromBothTiersAndReturnsBackValue(t *testing.T) {
	front, back := newTiers()
	in := inclusive.New[string, num](front, back)

	in.Push([]blockcache.Pair[string, num]{{Key: "a", Value: 1}})

	p, ok := in.Take("a")
	require.True(t, ok)
	assert.Equal(t, num(1), p.Value)
	assert.False(t, front.Contains("a"))
	assert.False(t, back.Contains("a"))
}

func TestInclusive_PopDrainsBackAndMatchingFront(t *testing.T) {
	front, back := newTiers()
	in := inclusive.New[string, num](front, back)

	in.Push([]blockcache.Pair[string, num]{{Key: "a", Value: 1}, {Key: "b", Value: 4}})

	popped := in.Pop(1)
	require.Len(t, popped, 1)
	assert.Equal(t, "b", popped[0].Key, "the largest value is evicted first")
	assert.False(t, front.Contains("b"))
	assert.False(t, back.Contains("b"))
}

func TestInclusive_Flush(t *testing.T) {
	front, back := newTiers()
	in := inclusive.New[string, num](front, back)

	in.Push([]blockcache.Pair[string, num]{{Key: "a", Value: 1}, {Key: "b", Value: 2}})

	var count int
	for range in.Flush() {
		count++
	}

	assert.Equal(t, 2, count, "flush de-duplicates the clone held in front against its back original")
}
