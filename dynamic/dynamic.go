// Package dynamic implements Dyn, a runtime-polymorphic facade boxing any
// BuildingBlock behind a single concrete type, carrying the capability
// bits erased by boxing.
package dynamic

import (
	"iter"

	"github.com/cachetree/blockcache"
)

// Dyn boxes any blockcache.BuildingBlock[K,V], exposing the same
// operational contract via dynamic dispatch plus two capability bits fixed
// at construction.
type Dyn[K comparable, V any] struct {
	inner         blockcache.BuildingBlock[K, V]
	hasOrdered    bool
	hasConcurrent bool
}

// ordered is implemented by any block that reports the Ordered capability;
// see package blockcache's BuildingBlock doc.
type ordered interface{ IsOrdered() bool }

// concurrent is implemented by any block offering the Concurrent
// capability (Sequential, Associative-of-concurrent-shards).
type concurrent interface{ IsConcurrent() bool }

// New boxes inner, computing the ordered/concurrent capability bits by
// probing optional marker interfaces.
func New[K comparable, V any](inner blockcache.BuildingBlock[K, V]) *Dyn[K, V] {
	d := &Dyn[K, V]{inner: inner}

	if o, ok := inner.(ordered); ok {
		d.hasOrdered = o.IsOrdered()
	}

	if c, ok := inner.(concurrent); ok {
		d.hasConcurrent = c.IsConcurrent()
	}

	return d
}

// Capacity implements blockcache.BuildingBlock.
func (d *Dyn[K, V]) Capacity() uint64 { return d.inner.Capacity() }

// Size implements blockcache.BuildingBlock.
func (d *Dyn[K, V]) Size() uint64 { return d.inner.Size() }

// Contains implements blockcache.BuildingBlock.
func (d *Dyn[K, V]) Contains(key K) bool { return d.inner.Contains(key) }

// Take implements blockcache.BuildingBlock.
func (d *Dyn[K, V]) Take(key K) (blockcache.Pair[K, V], bool) { return d.inner.Take(key) }

// TakeMultiple implements blockcache.BuildingBlock.
func (d *Dyn[K, V]) TakeMultiple(keys *[]K) []blockcache.Pair[K, V] {
	return d.inner.TakeMultiple(keys)
}

// Pop implements blockcache.BuildingBlock.
func (d *Dyn[K, V]) Pop(n uint64) []blockcache.Pair[K, V] { return d.inner.Pop(n) }

// Push implements blockcache.BuildingBlock.
func (d *Dyn[K, V]) Push(pairs []blockcache.Pair[K, V]) []blockcache.Pair[K, V] {
	return d.inner.Push(pairs)
}

// Flush implements blockcache.BuildingBlock. The returned iterator is
// boxed: its concrete type is erased behind iter.Seq2 regardless of which
// block produced it.
func (d *Dyn[K, V]) Flush() iter.Seq2[K, V] { return d.inner.Flush() }

// Get implements blockcache.Accessor when the boxed block does.
func (d *Dyn[K, V]) Get(key K) (*V, bool) {
	a, ok := d.inner.(blockcache.Accessor[K, V])
	if !ok {
		return nil, false
	}

	return a.Get(key)
}

// HasOrdered reports the Ordered capability bit fixed at construction.
func (d *Dyn[K, V]) HasOrdered() bool { return d.hasOrdered }

// HasConcurrent reports the Concurrent capability bit fixed at
// construction.
func (d *Dyn[K, V]) HasConcurrent() bool { return d.hasConcurrent }

// IntoOrdered returns d unchanged when HasOrdered is set, or
// blockcache.ErrUnsupportedCapability otherwise.
func (d *Dyn[K, V]) IntoOrdered() (*Dyn[K, V], error) {
	if !d.hasOrdered {
		return d, blockcache.ErrUnsupportedCapability
	}

	return d, nil
}

// IntoConcurrent returns d unchanged when HasConcurrent is set, or
// blockcache.ErrUnsupportedCapability otherwise.
func (d *Dyn[K, V]) IntoConcurrent() (*Dyn[K, V], error) {
	if !d.hasConcurrent {
		return d, blockcache.ErrUnsupportedCapability
	}

	return d, nil
}

// IsOrdered implements the ordered marker interface, so a Dyn can itself
// be boxed by another Dyn (e.g. as an Associative shard) without losing
// its capability bit.
func (d *Dyn[K, V]) IsOrdered() bool { return d.hasOrdered }

// IsConcurrent implements the concurrent marker interface, for the same
// reason as IsOrdered.
func (d *Dyn[K, V]) IsConcurrent() bool { return d.hasConcurrent }
