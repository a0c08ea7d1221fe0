package dynamic_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cachetree/blockcache"
	"github.com/cachetree/blockcache/array"
	"github.com/cachetree/blockcache/dynamic"
	"github.com/cachetree/blockcache/sequential"
)

type num int

func (n num) Less(other num) bool { return n < other }

func TestDyn_ComputesOrderedBitFromInner(t *testing.T) {
	d := dynamic.New[string, num](array.New[string, num](5))

	assert.True(t, d.HasOrdered(), "Array is always Ordered")
	assert.False(t, d.HasConcurrent())
}

func TestDyn_ComputesConcurrentBitFromInner(t *testing.T) {
	d := dynamic.New[string, num](sequential.New[string, num](array.New[string, num](5)))

	assert.True(t, d.HasConcurrent())
	assert.True(t, d.HasOrdered(), "Sequential forwards the inner array's ordered bit")
}

func TestDyn_IntoOrderedSucceedsWhenOrdered(t *testing.T) {
	d := dynamic.New[string, num](array.New[string, num](5))

	result, err := d.IntoOrdered()
	require.NoError(t, err)
	assert.Same(t, d, result)
}

func TestDyn_IntoConcurrentFailsWhenNotConcurrent(t *testing.T) {
	d := dynamic.New[string, num](array.New[string, num](5))

	_, err := d.IntoConcurrent()
	require.ErrorIs(t, err, blockcache.ErrUnsupportedCapability)
}

func TestDyn_DelegatesBuildingBlockOperations(t *testing.T) {
	d := dynamic.New[string, num](array.New[string, num](5))

	rejected := d.Push([]blockcache.Pair[string, num]{{Key: "a", Value: 1}})
	assert.Empty(t, rejected)
	assert.True(t, d.Contains("a"))

	p, ok := d.Take("a")
	require.True(t, ok)
	assert.Equal(t, num(1), p.Value)
}

func TestDyn_NestsInsideAnotherDyn(t *testing.T) {
	inner := dynamic.New[string, num](array.New[string, num](5))
	outer := dynamic.New[string, num](inner)

	assert.True(t, outer.HasOrdered(), "a Dyn forwards its own IsOrdered so nesting preserves the bit")
}
