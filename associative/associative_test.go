package associative_test

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cachetree/blockcache"
	"github.com/cachetree/blockcache/array"
	"github.com/cachetree/blockcache/associative"
	"github.com/cachetree/blockcache/sequential"
)

type num int

func (n num) Less(other num) bool { return n < other }

func TestExclusiveHasher_ShardIsAlwaysInRange(t *testing.T) {
	h := associative.NewExclusiveHasher(5)

	for i := 0; i < 100; i++ {
		shard := h.Shard([]byte(fmt.Sprintf("key-%d", i)), 5)
		assert.GreaterOrEqual(t, shard, 0)
		assert.Less(t, shard, 5)
	}
}

func TestExclusiveHasher_NextSamplesDisjointWindow(t *testing.T) {
	root := associative.NewExclusiveHasher(4)

	child, err := root.Next(4)
	require.NoError(t, err)
	assert.NotNil(t, child)
}

func TestExclusiveHasher_NextFailsWhenBudgetExceeded(t *testing.T) {
	h := associative.NewExclusiveHasher(1 << 30)

	var err error
	for i := 0; i < 10; i++ {
		h, err = h.Next(1 << 30)
		if err != nil {
			break
		}
	}

	require.Error(t, err, "stacking enough wide hashers must eventually exceed the 64-bit budget")
}

func newShards(n int, capacity uint64) []blockcache.BuildingBlock[string, num] {
	shards := make([]blockcache.BuildingBlock[string, num], n)
	for i := range shards {
		shards[i] = array.New[string, num](capacity)
	}

	return shards
}

func TestAssociative_PushAndContainsRouteToSomeShard(t *testing.T) {
	a := associative.New[string, num](newShards(4, 10))

	rejected := a.Push([]blockcache.Pair[string, num]{{Key: "a", Value: 1}, {Key: "b", Value: 2}, {Key: "c", Value: 3}})
	assert.Empty(t, rejected)

	assert.True(t, a.Contains("a"))
	assert.True(t, a.Contains("b"))
	assert.True(t, a.Contains("c"))
	assert.Equal(t, uint64(3), a.Size())
}

func TestAssociative_TakeMultipleMergesAcrossShards(t *testing.T) {
	a := associative.New[string, num](newShards(4, 10))
	a.Push([]blockcache.Pair[string, num]{{Key: "a", Value: 1}, {Key: "b", Value: 2}, {Key: "c", Value: 3}})

	keys := []string{"a", "b", "missing"}
	taken := a.TakeMultiple(&keys)

	assert.Len(t, taken, 2)
	assert.Equal(t, []string{"missing"}, keys)
}

func TestAssociative_PopDistributesAcrossShards(t *testing.T) {
	a := associative.New[string, num](newShards(2, 10))
	a.Push([]blockcache.Pair[string, num]{
		{Key: "a", Value: 1}, {Key: "b", Value: 2}, {Key: "c", Value: 3}, {Key: "d", Value: 4},
	})

	popped := a.Pop(4)
	assert.Len(t, popped, 4)
	assert.Equal(t, uint64(0), a.Size())
}

func TestAssociative_IsOrderedRequiresAllShards(t *testing.T) {
	a := associative.New[string, num](newShards(3, 10))
	assert.True(t, a.IsOrdered())
}

func TestAssociative_IsConcurrentRequiresAllShards(t *testing.T) {
	plain := associative.New[string, num](newShards(2, 10))
	assert.False(t, plain.IsConcurrent())

	concurrentShards := []blockcache.BuildingBlock[string, num]{
		sequential.New[string, num](array.New[string, num](10)),
		sequential.New[string, num](array.New[string, num](10)),
	}
	withLocks := associative.New[string, num](concurrentShards)
	assert.True(t, withLocks.IsConcurrent())
}

func TestAssociative_DeriveHasherForStacking(t *testing.T) {
	a := associative.New[string, num](newShards(4, 10))

	child, err := a.DeriveHasher(4)
	require.NoError(t, err)
	assert.NotNil(t, child)
}
