package flushstopper_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/cachetree/blockcache"
	"github.com/cachetree/blockcache/array"
	"github.com/cachetree/blockcache/flushstopper"
)

type num int

func (n num) Less(other num) bool { return n < other }

func TestFlushStopper_FlushIsNoOp(t *testing.T) {
	inner := array.New[string, num](5)
	f := flushstopper.New[string, num](inner)

	f.Push([]blockcache.Pair[string, num]{{Key: "a", Value: 1}, {Key: "b", Value: 2}})

	var count int
	for range f.Flush() {
		count++
	}

	assert.Zero(t, count, "Flush must yield nothing")
	assert.Equal(t, uint64(2), f.Size(), "the inner block must be untouched by Flush")
	assert.True(t, f.Contains("a"))
}

func TestFlushStopper_ForwardsOtherOperations(t *testing.T) {
	inner := array.New[string, num](5)
	f := flushstopper.New[string, num](inner)

	rejected := f.Push([]blockcache.Pair[string, num]{{Key: "a", Value: 1}})
	assert.Empty(t, rejected)

	p, ok := f.Take("a")
	assert.True(t, ok)
	assert.Equal(t, num(1), p.Value)
}

func TestFlushStopper_IsOrderedForwardsInner(t *testing.T) {
	inner := array.New[string, num](5)
	f := flushstopper.New[string, num](inner)

	assert.True(t, f.IsOrdered(), "Array is always ordered, and FlushStopper forwards that bit")
}
