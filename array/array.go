// Package array implements Array, an unordered in-memory vector store. It
// is the simplest building block: push appends, take does a linear scan
// with swap-removal, and pop sorts the vector to find the largest-valued
// suffix to evict.
package array

import (
	"iter"
	"sort"

	"github.com/cachetree/blockcache"
)

// Array is an in-memory vector of (K, V) pairs. V must satisfy
// blockcache.Lesser[V] because Array is always Ordered: Pop always removes
// the largest-valued elements first.
type Array[K comparable, V blockcache.Lesser[V]] struct {
	capacity uint64
	size     uint64
	values   []*blockcache.Pair[K, V]
	sizer    blockcache.Sizer[V]
}

// Option configures an Array at construction.
type Option[K comparable, V blockcache.Lesser[V]] func(*Array[K, V])

// WithSizer overrides the default unit element-sizer.
func WithSizer[K comparable, V blockcache.Lesser[V]](sizer blockcache.Sizer[V]) Option[K, V] {
	return func(a *Array[K, V]) { a.sizer = sizer }
}

// New creates an Array with the given capacity (in size-units).
func New[K comparable, V blockcache.Lesser[V]](capacity uint64, opts ...Option[K, V]) *Array[K, V] {
	a := &Array[K, V]{
		capacity: capacity,
		sizer:    blockcache.UnitSizer[V],
	}

	for _, opt := range opts {
		opt(a)
	}

	return a
}

// Capacity implements blockcache.BuildingBlock.
func (a *Array[K, V]) Capacity() uint64 { return a.capacity }

// Size implements blockcache.BuildingBlock.
func (a *Array[K, V]) Size() uint64 { return a.size }

func (a *Array[K, V]) indexOf(key K) int {
	for i, p := range a.values {
		if p.Key == key {
			return i
		}
	}

	return -1
}

// Contains implements blockcache.BuildingBlock.
func (a *Array[K, V]) Contains(key K) bool {
	return a.indexOf(key) >= 0
}

// Get implements blockcache.Accessor.
func (a *Array[K, V]) Get(key K) (*V, bool) {
	idx := a.indexOf(key)
	if idx < 0 {
		return nil, false
	}

	return &a.values[idx].Value, true
}

// removeAt removes and returns the element at idx via swap-with-last.
func (a *Array[K, V]) removeAt(idx int) blockcache.Pair[K, V] {
	p := a.values[idx]
	last := len(a.values) - 1
	a.values[idx] = a.values[last]
	a.values[last] = nil
	a.values = a.values[:last]
	a.size -= a.sizer(p.Value)

	return *p
}

// Take implements blockcache.BuildingBlock.
func (a *Array[K, V]) Take(key K) (blockcache.Pair[K, V], bool) {
	idx := a.indexOf(key)
	if idx < 0 {
		return blockcache.Pair[K, V]{}, false
	}

	return a.removeAt(idx), true
}

// TakeMultiple implements blockcache.BuildingBlock using the default loop;
// Array's linear scan per Take does not benefit from a sort-based bulk
// removal optimization, so this keeps the simple loop rather than add
// complexity nothing in this module exercises.
func (a *Array[K, V]) TakeMultiple(keys *[]K) []blockcache.Pair[K, V] {
	return blockcache.DefaultTakeMultiple[K, V](a, keys)
}

// Pop implements blockcache.BuildingBlock. It sorts the stored values
// ascending by Less, then removes the smallest-cut suffix whose cumulative
// size is >= n.
func (a *Array[K, V]) Pop(n uint64) []blockcache.Pair[K, V] {
	if n == 0 || len(a.values) == 0 {
		return nil
	}

	sort.Slice(a.values, func(i, j int) bool {
		return a.values[i].Value.Less(a.values[j].Value)
	})

	var cum uint64

	cut := len(a.values)
	for cut > 0 && cum < n {
		cut--
		cum += a.sizer(a.values[cut].Value)
	}

	popped := make([]blockcache.Pair[K, V], 0, len(a.values)-cut)
	for i := len(a.values) - 1; i >= cut; i-- {
		popped = append(popped, *a.values[i])
		a.size -= a.sizer(a.values[i].Value)
		a.values[i] = nil
	}

	a.values = a.values[:cut]

	return popped
}

// Push implements blockcache.BuildingBlock: it appends elements while
// capacity allows and returns the rejected tail.
func (a *Array[K, V]) Push(pairs []blockcache.Pair[K, V]) []blockcache.Pair[K, V] {
	for i, p := range pairs {
		sz := a.sizer(p.Value)
		if a.size+sz > a.capacity {
			return pairs[i:]
		}

		cp := p
		a.values = append(a.values, &cp)
		a.size += sz
	}

	return nil
}

// IsOrdered reports true: Array's element type is constrained to
// blockcache.Lesser[V], so it is always Ordered.
func (a *Array[K, V]) IsOrdered() bool { return true }

// Flush implements blockcache.BuildingBlock. The block is emptied
// immediately; the returned iterator ranges over the detached snapshot.
func (a *Array[K, V]) Flush() iter.Seq2[K, V] {
	snapshot := a.values
	a.values = nil
	a.size = 0

	return func(yield func(K, V) bool) {
		for _, p := range snapshot {
			if !yield(p.Key, p.Value) {
				return
			}
		}
	}
}

var _ blockcache.BuildingBlock[string, dummyLesser] = (*Array[string, dummyLesser])(nil)
var _ blockcache.Accessor[string, dummyLesser] = (*Array[string, dummyLesser])(nil)

// dummyLesser exists only to anchor the interface-satisfaction checks above
// to a concrete type without requiring callers to supply one.
type dummyLesser struct{ n int }

func (d dummyLesser) Less(other dummyLesser) bool { return d.n < other.n }
