// Package exclusive implements Exclusive, a strict two-tier connector: a
// key lives in exactly one of front or back, never both.
package exclusive

import (
	"iter"

	"github.com/cachetree/blockcache"
)

// Exclusive holds a fast front tier and a larger back tier. New elements
// land in front, demoting front's largest-valued residents to back when
// room is needed; back is drained before front on Pop.
type Exclusive[K comparable, V any] struct {
	front, back blockcache.BuildingBlock[K, V]
}

// New connects front and back as a strict two-tier handoff.
func New[K comparable, V any](front, back blockcache.BuildingBlock[K, V]) *Exclusive[K, V] {
	return &Exclusive[K, V]{front: front, back: back}
}

// Capacity implements blockcache.BuildingBlock: sum of both tiers.
func (e *Exclusive[K, V]) Capacity() uint64 { return e.front.Capacity() + e.back.Capacity() }

// Size implements blockcache.BuildingBlock: sum of both tiers.
func (e *Exclusive[K, V]) Size() uint64 { return e.front.Size() + e.back.Size() }

// Contains implements blockcache.BuildingBlock: front OR back.
func (e *Exclusive[K, V]) Contains(key K) bool {
	return e.front.Contains(key) || e.back.Contains(key)
}

// Take implements blockcache.BuildingBlock: front first, then back.
func (e *Exclusive[K, V]) Take(key K) (blockcache.Pair[K, V], bool) {
	if p, ok := e.front.Take(key); ok {
		return p, true
	}

	return e.back.Take(key)
}

// TakeMultiple implements blockcache.BuildingBlock: front first, unfound
// keys cascade to back.
func (e *Exclusive[K, V]) TakeMultiple(keys *[]K) []blockcache.Pair[K, V] {
	out := e.front.TakeMultiple(keys)
	out = append(out, e.back.TakeMultiple(keys)...)

	return out
}

// Pop implements blockcache.BuildingBlock: drains back first; any shortfall
// is made up from front. n is a size budget in the tiers' own Size units,
// not an element count, so the shortfall is measured by each tier's
// Size() delta rather than by len(popped).
func (e *Exclusive[K, V]) Pop(n uint64) []blockcache.Pair[K, V] {
	backBefore := e.back.Size()
	out := e.back.Pop(n)
	removed := backBefore - e.back.Size()

	if removed >= n {
		return out
	}

	return append(out, e.front.Pop(n-removed)...)
}

// Push implements blockcache.BuildingBlock: pairs go to front first. When
// front has no room, its largest-valued residents are popped to make
// space and demoted to back, so the incoming elements always land in the
// front tier. Anything back cannot hold is returned to the caller.
func (e *Exclusive[K, V]) Push(pairs []blockcache.Pair[K, V]) []blockcache.Pair[K, V] {
	var demoted []blockcache.Pair[K, V]

	rejected := e.front.Push(pairs)
	for len(rejected) > 0 && e.front.Size() > 0 {
		demoted = append(demoted, e.front.Pop(1)...)
		rejected = e.front.Push(rejected)
	}

	// Rejects still standing could not fit even in an emptied front
	// (oversized elements); they fall through to back with the demoted.
	demoted = append(demoted, rejected...)

	return e.back.Push(demoted)
}

// Flush implements blockcache.BuildingBlock: chains front's flush then
// back's flush.
func (e *Exclusive[K, V]) Flush() iter.Seq2[K, V] {
	front, back := e.front, e.back

	return func(yield func(K, V) bool) {
		for k, v := range front.Flush() {
			if !yield(k, v) {
				return
			}
		}

		for k, v := range back.Flush() {
			if !yield(k, v) {
				return
			}
		}
	}
}

// Get implements blockcache.Accessor: searches front then back without
// moving the element.
func (e *Exclusive[K, V]) Get(key K) (*V, bool) {
	if a, ok := e.front.(blockcache.Accessor[K, V]); ok {
		if v, found := a.Get(key); found {
			return v, true
		}
	}

	if a, ok := e.back.(blockcache.Accessor[K, V]); ok {
		return a.Get(key)
	}

	return nil, false
}

// IsOrdered reports true only if both tiers are ordered over the same
// value type.
func (e *Exclusive[K, V]) IsOrdered() bool {
	fo, ok := e.front.(interface{ IsOrdered() bool })
	if !ok || !fo.IsOrdered() {
		return false
	}

	bo, ok := e.back.(interface{ IsOrdered() bool })

	return ok && bo.IsOrdered()
}
