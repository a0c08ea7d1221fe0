// Package batch implements Batch, a linked list of child blocks sharing a
// total capacity, so mutations only rewrite one chunk at a time. A common
// use is chaining several Compressed chunks behind one logical container.
package batch

import (
	"iter"

	"github.com/cachetree/blockcache"
)

// Batch chains children front to back. Push fills front to back, pop drains
// back to front, take/contains scan front to back and stop at first match.
type Batch[K comparable, V any] struct {
	children []blockcache.BuildingBlock[K, V]
}

// New chains children in order, first to last.
func New[K comparable, V any](children ...blockcache.BuildingBlock[K, V]) *Batch[K, V] {
	return &Batch[K, V]{children: children}
}

// Capacity implements blockcache.BuildingBlock: sum over children.
func (b *Batch[K, V]) Capacity() uint64 {
	var total uint64
	for _, c := range b.children {
		total += c.Capacity()
	}

	return total
}

// Size implements blockcache.BuildingBlock: sum over children.
func (b *Batch[K, V]) Size() uint64 {
	var total uint64
	for _, c := range b.children {
		total += c.Size()
	}

	return total
}

// Contains implements blockcache.BuildingBlock, scanning front to back.
func (b *Batch[K, V]) Contains(key K) bool {
	for _, c := range b.children {
		if c.Contains(key) {
			return true
		}
	}

	return false
}

// Take implements blockcache.BuildingBlock, stopping at the first child
// that holds key.
func (b *Batch[K, V]) Take(key K) (blockcache.Pair[K, V], bool) {
	for _, c := range b.children {
		if p, ok := c.Take(key); ok {
			return p, true
		}
	}

	return blockcache.Pair[K, V]{}, false
}

// TakeMultiple implements blockcache.BuildingBlock, cascading unfound keys
// from one child to the next.
func (b *Batch[K, V]) TakeMultiple(keys *[]K) []blockcache.Pair[K, V] {
	var out []blockcache.Pair[K, V]

	for _, c := range b.children {
		if len(*keys) == 0 {
			break
		}

		out = append(out, c.TakeMultiple(keys)...)
	}

	return out
}

// Pop implements blockcache.BuildingBlock, draining back to front until n
// size-units have been removed or all children are empty. n is a size
// budget in each child's own Size units, not an element count, so the
// remaining budget is tracked via each child's Size() delta rather than
// len(popped).
func (b *Batch[K, V]) Pop(n uint64) []blockcache.Pair[K, V] {
	var out []blockcache.Pair[K, V]

	remaining := n

	for i := len(b.children) - 1; i >= 0 && remaining > 0; i-- {
		before := b.children[i].Size()
		popped := b.children[i].Pop(remaining)
		out = append(out, popped...)

		removed := before - b.children[i].Size()
		if removed >= remaining {
			remaining = 0
		} else {
			remaining -= removed
		}
	}

	return out
}

// Push implements blockcache.BuildingBlock, pushing to each child in order
// and forwarding each child's rejects to the next.
func (b *Batch[K, V]) Push(pairs []blockcache.Pair[K, V]) []blockcache.Pair[K, V] {
	remaining := pairs

	for _, c := range b.children {
		if len(remaining) == 0 {
			break
		}

		remaining = c.Push(remaining)
	}

	return remaining
}

// Flush implements blockcache.BuildingBlock, chaining every child's flush
// in order.
func (b *Batch[K, V]) Flush() iter.Seq2[K, V] {
	children := b.children

	return func(yield func(K, V) bool) {
		for _, c := range children {
			for k, v := range c.Flush() {
				if !yield(k, v) {
					return
				}
			}
		}
	}
}

// IsOrdered reports true only if every child is ordered, for the dynamic
// facade's capability computation.
func (b *Batch[K, V]) IsOrdered() bool {
	for _, c := range b.children {
		o, ok := c.(interface{ IsOrdered() bool })
		if !ok || !o.IsOrdered() {
			return false
		}
	}

	return len(b.children) > 0
}
