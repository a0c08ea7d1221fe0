// Package decorator wraps values pushed into an inner ordered container in
// a policy-metadata cell, turning any Ordered container into a
// policy-driven cache: FIFO, LRU, or LRFU. The cell's
// comparison order is what drives the inner container's Pop.
package decorator

import (
	"iter"

	"github.com/cachetree/blockcache"
)

// Decorator wraps an inner BuildingBlock[K, C] (where C is a policy cell
// type over V) and exposes the unwrapped BuildingBlock[K, V] contract. A
// single generic implementation backs all three policy factories (FIFO,
// LRU, LRFU): only the cell type and the wrap/unwrap/touch functions
// differ between them.
type Decorator[K comparable, V any, C blockcache.Lesser[C]] struct {
	inner  blockcache.BuildingBlock[K, C]
	wrap   func(V) C
	unwrap func(C) V
	// touch updates a cell's bookkeeping (timestamp, access-weight) on a
	// shared or exclusive access. LRU/LRFU cells need interior mutation
	// here; FIFO cells ignore it (their order never changes after push).
	touch func(*C)
}

func newDecorator[K comparable, V any, C blockcache.Lesser[C]](
	inner blockcache.BuildingBlock[K, C],
	wrap func(V) C,
	unwrap func(C) V,
	touch func(*C),
) *Decorator[K, V, C] {
	return &Decorator[K, V, C]{inner: inner, wrap: wrap, unwrap: unwrap, touch: touch}
}

// Capacity implements blockcache.BuildingBlock.
func (d *Decorator[K, V, C]) Capacity() uint64 { return d.inner.Capacity() }

// Size implements blockcache.BuildingBlock.
func (d *Decorator[K, V, C]) Size() uint64 { return d.inner.Size() }

// Contains implements blockcache.BuildingBlock.
func (d *Decorator[K, V, C]) Contains(key K) bool { return d.inner.Contains(key) }

// Take implements blockcache.BuildingBlock.
func (d *Decorator[K, V, C]) Take(key K) (blockcache.Pair[K, V], bool) {
	p, ok := d.inner.Take(key)
	if !ok {
		return blockcache.Pair[K, V]{}, false
	}

	return blockcache.Pair[K, V]{Key: p.Key, Value: d.unwrap(p.Value)}, true
}

// TakeMultiple implements blockcache.BuildingBlock.
func (d *Decorator[K, V, C]) TakeMultiple(keys *[]K) []blockcache.Pair[K, V] {
	taken := d.inner.TakeMultiple(keys)
	out := make([]blockcache.Pair[K, V], len(taken))

	for i, p := range taken {
		out[i] = blockcache.Pair[K, V]{Key: p.Key, Value: d.unwrap(p.Value)}
	}

	return out
}

// Pop implements blockcache.BuildingBlock: the inner container's cell
// ordering drives which elements are evicted.
func (d *Decorator[K, V, C]) Pop(n uint64) []blockcache.Pair[K, V] {
	popped := d.inner.Pop(n)
	out := make([]blockcache.Pair[K, V], len(popped))

	for i, p := range popped {
		out[i] = blockcache.Pair[K, V]{Key: p.Key, Value: d.unwrap(p.Value)}
	}

	return out
}

// Push implements blockcache.BuildingBlock: every pushed value is wrapped
// in a fresh cell before being handed to the inner container.
func (d *Decorator[K, V, C]) Push(pairs []blockcache.Pair[K, V]) []blockcache.Pair[K, V] {
	wrapped := make([]blockcache.Pair[K, C], len(pairs))
	for i, p := range pairs {
		wrapped[i] = blockcache.Pair[K, C]{Key: p.Key, Value: d.wrap(p.Value)}
	}

	rejected := d.inner.Push(wrapped)
	out := make([]blockcache.Pair[K, V], len(rejected))

	for i, p := range rejected {
		out[i] = blockcache.Pair[K, V]{Key: p.Key, Value: d.unwrap(p.Value)}
	}

	return out
}

// Flush implements blockcache.BuildingBlock.
func (d *Decorator[K, V, C]) Flush() iter.Seq2[K, V] {
	inner := d.inner.Flush()

	return func(yield func(K, V) bool) {
		for k, c := range inner {
			if !yield(k, d.unwrap(c)) {
				return
			}
		}
	}
}

// Get implements blockcache.Accessor when the inner container does. Shared
// access touches the cell's bookkeeping before returning the unwrapped
// value, which is how LRU/LRFU record an access.
func (d *Decorator[K, V, C]) Get(key K) (*V, bool) {
	accessor, ok := d.inner.(blockcache.Accessor[K, C])
	if !ok {
		return nil, false
	}

	cell, found := accessor.Get(key)
	if !found {
		return nil, false
	}

	if d.touch != nil {
		d.touch(cell)
	}

	v := d.unwrap(*cell)

	return &v, true
}

// IsOrdered reports false: a Decorator's pop order follows the policy
// cell's comparison, not V's, so applying a policy consumes the Ordered
// capability rather than passing it through over V.
func (d *Decorator[K, V, C]) IsOrdered() bool { return false }
