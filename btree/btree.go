// Package btree implements BTree, a key-indexed + value-ordered in-memory
// store. A key->cell map gives O(log n) membership while a parallel
// value-ordered tree gives O(log n) eviction-victim lookup; both point at
// the same heap-allocated cell so a value is never duplicated between the
// two indexes.
package btree

import (
	"iter"

	gbtree "github.com/google/btree"

	"github.com/cachetree/blockcache"
)

const defaultDegree = 32

// cell is the shared storage for one element: both the key->cell map and
// the value-ordered tree point at the same cell, so mutating size
// accounting never desynchronizes the two indexes.
type cell[K comparable, V blockcache.Lesser[V]] struct {
	pair blockcache.Pair[K, V]
	seq  uint64
}

// BTree is an in-memory store indexed by key for membership and by value
// for eviction-victim lookup. V must be blockcache.Lesser[V]: BTree is
// always Ordered. BTree does not expose mutable access to stored values —
// doing so could desynchronize the value-ordered tree from the actual
// comparison order of the mutated value.
type BTree[K comparable, V blockcache.Lesser[V]] struct {
	capacity uint64
	size     uint64
	sizer    blockcache.Sizer[V]
	seq      uint64
	byKey    map[K]*cell[K, V]
	byValue  *gbtree.BTreeG[*cell[K, V]]
}

// Option configures a BTree at construction.
type Option[K comparable, V blockcache.Lesser[V]] func(*BTree[K, V])

// WithSizer overrides the default unit element-sizer.
func WithSizer[K comparable, V blockcache.Lesser[V]](sizer blockcache.Sizer[V]) Option[K, V] {
	return func(b *BTree[K, V]) { b.sizer = sizer }
}

// New creates a BTree with the given capacity (in size-units).
func New[K comparable, V blockcache.Lesser[V]](capacity uint64, opts ...Option[K, V]) *BTree[K, V] {
	b := &BTree[K, V]{
		capacity: capacity,
		sizer:    blockcache.UnitSizer[V],
		byKey:    make(map[K]*cell[K, V]),
	}

	less := func(a, b *cell[K, V]) bool {
		if a.pair.Value.Less(b.pair.Value) {
			return true
		}

		if b.pair.Value.Less(a.pair.Value) {
			return false
		}
		// Stable tie-break by insertion sequence: the contract only
		// specifies the popped *sizes*, not which tied element wins.
		return a.seq < b.seq
	}

	b.byValue = gbtree.NewG(defaultDegree, less)

	for _, opt := range opts {
		opt(b)
	}

	return b
}

// Capacity implements blockcache.BuildingBlock.
func (b *BTree[K, V]) Capacity() uint64 { return b.capacity }

// Size implements blockcache.BuildingBlock.
func (b *BTree[K, V]) Size() uint64 { return b.size }

// Contains implements blockcache.BuildingBlock.
func (b *BTree[K, V]) Contains(key K) bool {
	_, ok := b.byKey[key]

	return ok
}

func (b *BTree[K, V]) removeCell(c *cell[K, V]) {
	delete(b.byKey, c.pair.Key)
	b.byValue.Delete(c)
	b.size -= b.sizer(c.pair.Value)
}

// Take implements blockcache.BuildingBlock.
func (b *BTree[K, V]) Take(key K) (blockcache.Pair[K, V], bool) {
	c, ok := b.byKey[key]
	if !ok {
		return blockcache.Pair[K, V]{}, false
	}

	b.removeCell(c)

	return c.pair, true
}

// TakeMultiple implements blockcache.BuildingBlock.
func (b *BTree[K, V]) TakeMultiple(keys *[]K) []blockcache.Pair[K, V] {
	return blockcache.DefaultTakeMultiple[K, V](b, keys)
}

// Pop implements blockcache.BuildingBlock: it descends the value-ordered
// tree (largest first) accumulating cumulative size until it first meets
// or exceeds n.
func (b *BTree[K, V]) Pop(n uint64) []blockcache.Pair[K, V] {
	if n == 0 || b.byValue.Len() == 0 {
		return nil
	}

	var (
		cum    uint64
		victim []*cell[K, V]
	)

	b.byValue.Descend(func(c *cell[K, V]) bool {
		victim = append(victim, c)
		cum += b.sizer(c.pair.Value)

		return cum < n
	})

	popped := make([]blockcache.Pair[K, V], 0, len(victim))
	for _, c := range victim {
		popped = append(popped, c.pair)
		b.removeCell(c)
	}

	return popped
}

// Push implements blockcache.BuildingBlock. A pushed key that already
// exists replaces the stored value (and its size accounting); the prior
// cell is removed from both indexes first so the tree never holds stale
// comparison state for that key.
func (b *BTree[K, V]) Push(pairs []blockcache.Pair[K, V]) []blockcache.Pair[K, V] {
	for i, p := range pairs {
		if old, ok := b.byKey[p.Key]; ok {
			b.removeCell(old)
		}

		sz := b.sizer(p.Value)
		if b.size+sz > b.capacity {
			return pairs[i:]
		}

		b.seq++
		c := &cell[K, V]{pair: p, seq: b.seq}
		b.byKey[p.Key] = c
		b.byValue.ReplaceOrInsert(c)
		b.size += sz
	}

	return nil
}

// IsOrdered reports true: BTree's element type is constrained to
// blockcache.Lesser[V], so it is always Ordered.
func (b *BTree[K, V]) IsOrdered() bool { return true }

// Flush implements blockcache.BuildingBlock.
func (b *BTree[K, V]) Flush() iter.Seq2[K, V] {
	snapshot := make([]blockcache.Pair[K, V], 0, len(b.byKey))
	for _, c := range b.byKey {
		snapshot = append(snapshot, c.pair)
	}

	b.byKey = make(map[K]*cell[K, V])
	b.byValue.Clear(false)
	b.size = 0

	return func(yield func(K, V) bool) {
		for _, p := range snapshot {
			if !yield(p.Key, p.Value) {
				return
			}
		}
	}
}
