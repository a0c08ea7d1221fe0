// Package flushstopper implements FlushStopper, a wrapper transparent for
// every operation except Flush, which returns the empty sequence without
// touching the inner block.
package flushstopper

import (
	"iter"

	"github.com/cachetree/blockcache"
)

// FlushStopper halts a flush cascade at a chosen tier while still serving
// reads and writes normally.
type FlushStopper[K comparable, V any] struct {
	inner blockcache.BuildingBlock[K, V]
}

// New wraps inner so Flush becomes a no-op.
func New[K comparable, V any](inner blockcache.BuildingBlock[K, V]) *FlushStopper[K, V] {
	return &FlushStopper[K, V]{inner: inner}
}

// Capacity implements blockcache.BuildingBlock.
func (f *FlushStopper[K, V]) Capacity() uint64 { return f.inner.Capacity() }

// Size implements blockcache.BuildingBlock.
func (f *FlushStopper[K, V]) Size() uint64 { return f.inner.Size() }

// Contains implements blockcache.BuildingBlock.
func (f *FlushStopper[K, V]) Contains(key K) bool { return f.inner.Contains(key) }

// Take implements blockcache.BuildingBlock.
func (f *FlushStopper[K, V]) Take(key K) (blockcache.Pair[K, V], bool) { return f.inner.Take(key) }

// TakeMultiple implements blockcache.BuildingBlock.
func (f *FlushStopper[K, V]) TakeMultiple(keys *[]K) []blockcache.Pair[K, V] {
	return f.inner.TakeMultiple(keys)
}

// Pop implements blockcache.BuildingBlock.
func (f *FlushStopper[K, V]) Pop(n uint64) []blockcache.Pair[K, V] { return f.inner.Pop(n) }

// Push implements blockcache.BuildingBlock.
func (f *FlushStopper[K, V]) Push(pairs []blockcache.Pair[K, V]) []blockcache.Pair[K, V] {
	return f.inner.Push(pairs)
}

// Flush implements blockcache.BuildingBlock: it returns the empty sequence
// and leaves the inner block entirely untouched.
func (f *FlushStopper[K, V]) Flush() iter.Seq2[K, V] {
	return func(func(K, V) bool) {}
}

// Get implements blockcache.Accessor when the inner container does.
func (f *FlushStopper[K, V]) Get(key K) (*V, bool) {
	accessor, ok := f.inner.(blockcache.Accessor[K, V])
	if !ok {
		return nil, false
	}

	return accessor.Get(key)
}

// IsOrdered forwards the inner container's ordered capability, for the
// dynamic facade's bit computation.
func (f *FlushStopper[K, V]) IsOrdered() bool {
	if o, ok := f.inner.(interface{ IsOrdered() bool }); ok {
		return o.IsOrdered()
	}

	return false
}
