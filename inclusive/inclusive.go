// Package inclusive implements Inclusive, a two-tier connector where every
// front entry has a corresponding back entry: front holds clones promoted
// on read, and dirty clones are written back on eviction.
package inclusive

import (
	"bytes"
	"encoding/gob"
	"iter"

	"github.com/cachetree/blockcache"
)

// Cell wraps a stored value with the two flags driving the inclusive
// invariant: cloned marks a value duplicated into front from back; dirty
// marks a cloned value mutated since promotion, requiring write-back on
// eviction.
type Cell[V blockcache.Lesser[V]] struct {
	value  V
	dirty  bool
	cloned bool
}

// Less implements blockcache.Lesser[Cell[V]] by delegating to the wrapped
// value's order, so front/back tiers stay Ordered over Cell[V] whenever V
// itself is Ordered.
func (c Cell[V]) Less(other Cell[V]) bool { return c.value.Less(other.value) }

type cellWire[V any] struct {
	Value  V
	Dirty  bool
	Cloned bool
}

// GobEncode implements gob.GobEncoder, so a tier backed by a stream store
// can hold inclusive cells.
func (c Cell[V]) GobEncode() ([]byte, error) {
	var buf bytes.Buffer

	err := gob.NewEncoder(&buf).Encode(cellWire[V]{Value: c.value, Dirty: c.dirty, Cloned: c.cloned})

	return buf.Bytes(), err
}

// GobDecode implements gob.GobDecoder.
func (c *Cell[V]) GobDecode(data []byte) error {
	var w cellWire[V]
	if err := gob.NewDecoder(bytes.NewReader(data)).Decode(&w); err != nil {
		return err
	}

	c.value, c.dirty, c.cloned = w.Value, w.Dirty, w.Cloned

	return nil
}

// Inclusive connects front and back so every front entry mirrors one in
// back. front.Capacity() should not exceed back.Capacity().
type Inclusive[K comparable, V blockcache.Lesser[V]] struct {
	front, back blockcache.BuildingBlock[K, Cell[V]]
}

// New connects front and back as an inclusive (clone-on-read) cache.
func New[K comparable, V blockcache.Lesser[V]](front, back blockcache.BuildingBlock[K, Cell[V]]) *Inclusive[K, V] {
	return &Inclusive[K, V]{front: front, back: back}
}

// Capacity implements blockcache.BuildingBlock: sum of both tiers.
func (in *Inclusive[K, V]) Capacity() uint64 { return in.front.Capacity() + in.back.Capacity() }

// Size implements blockcache.BuildingBlock: sum of both tiers. Because
// every front entry duplicates a back entry, this double-counts resident
// clones; callers that want logical element count should use back.Size().
func (in *Inclusive[K, V]) Size() uint64 { return in.front.Size() + in.back.Size() }

// Contains implements blockcache.BuildingBlock: back alone is authoritative
// since every front key also lives in back.
func (in *Inclusive[K, V]) Contains(key K) bool { return in.back.Contains(key) }

// evictFrontForSpace pops one element from front to make room, writing the
// evicted value back to back first if it is a dirty clone. The write-back
// replaces back's stale entry rather than pushing alongside it, since back
// may be a store that appends duplicates instead of overwriting.
func (in *Inclusive[K, V]) evictFrontForSpace() {
	for _, p := range in.front.Pop(1) {
		if p.Value.cloned && p.Value.dirty {
			in.back.Take(p.Key)
			in.back.Push([]blockcache.Pair[K, Cell[V]]{{Key: p.Key, Value: Cell[V]{value: p.Value.value}}})
		}
	}
}

// promote clones value into front, evicting front entries as needed to fit.
func (in *Inclusive[K, V]) promote(key K, value V) {
	clone := Cell[V]{value: value, cloned: true}

	rejected := in.front.Push([]blockcache.Pair[K, Cell[V]]{{Key: key, Value: clone}})
	for len(rejected) > 0 && in.front.Size() > 0 {
		in.evictFrontForSpace()
		rejected = in.front.Push(rejected)
	}
}

// Get implements blockcache.Accessor: a front hit returns directly; a back
// hit promotes a clone into front before returning (read propagation
// toward the front).
func (in *Inclusive[K, V]) Get(key K) (*V, bool) {
	if a, ok := in.front.(blockcache.Accessor[K, Cell[V]]); ok {
		if c, found := a.Get(key); found {
			return &c.value, true
		}
	}

	a, ok := in.back.(blockcache.Accessor[K, Cell[V]])
	if !ok {
		return nil, false
	}

	c, found := a.Get(key)
	if !found {
		return nil, false
	}

	in.promote(key, c.value)

	if fa, ok := in.front.(blockcache.Accessor[K, Cell[V]]); ok {
		if fc, found := fa.Get(key); found {
			return &fc.value, true
		}
	}

	return &c.value, true
}

// GetMut behaves like Get but marks the front clone dirty, so eviction
// writes it back to back.
func (in *Inclusive[K, V]) GetMut(key K) (*V, bool) {
	fa, frontAccess := in.front.(blockcache.Accessor[K, Cell[V]])

	if frontAccess {
		if c, found := fa.Get(key); found {
			c.dirty = true

			return &c.value, true
		}
	}

	ba, ok := in.back.(blockcache.Accessor[K, Cell[V]])
	if !ok {
		return nil, false
	}

	c, found := ba.Get(key)
	if !found {
		return nil, false
	}

	in.promote(key, c.value)

	if frontAccess {
		if fc, found := fa.Get(key); found {
			fc.dirty = true

			return &fc.value, true
		}
	}

	return &c.value, true
}

// Take implements blockcache.BuildingBlock: both tiers drop their copy;
// the back copy is authoritative and returned.
func (in *Inclusive[K, V]) Take(key K) (blockcache.Pair[K, V], bool) {
	in.front.Take(key)

	bp, ok := in.back.Take(key)
	if !ok {
		return blockcache.Pair[K, V]{}, false
	}

	return blockcache.Pair[K, V]{Key: key, Value: bp.Value.value}, true
}

// TakeMultiple implements blockcache.BuildingBlock.
func (in *Inclusive[K, V]) TakeMultiple(keys *[]K) []blockcache.Pair[K, V] {
	requested := append([]K(nil), (*keys)...)
	in.front.TakeMultiple(&requested)

	backKeys := append([]K(nil), (*keys)...)
	out := make([]blockcache.Pair[K, V], 0, len(backKeys))

	bp := in.back.TakeMultiple(&backKeys)
	for _, p := range bp {
		out = append(out, blockcache.Pair[K, V]{Key: p.Key, Value: p.Value.value})
	}

	*keys = backKeys

	return out
}

// Pop implements blockcache.BuildingBlock: drains back, dropping the
// matching front clone for every popped entry.
func (in *Inclusive[K, V]) Pop(n uint64) []blockcache.Pair[K, V] {
	popped := in.back.Pop(n)
	out := make([]blockcache.Pair[K, V], 0, len(popped))

	for _, p := range popped {
		in.front.Take(p.Key)

		out = append(out, blockcache.Pair[K, V]{Key: p.Key, Value: p.Value.value})
	}

	return out
}

// Push implements blockcache.BuildingBlock: wraps each value once, pushes
// into both tiers. Front rejects are discarded (already present in back);
// back rejects are returned to the caller.
func (in *Inclusive[K, V]) Push(pairs []blockcache.Pair[K, V]) []blockcache.Pair[K, V] {
	wrapped := make([]blockcache.Pair[K, Cell[V]], len(pairs))
	for i, p := range pairs {
		wrapped[i] = blockcache.Pair[K, Cell[V]]{Key: p.Key, Value: Cell[V]{value: p.Value}}
	}

	rejected := in.front.Push(wrapped)
	for len(rejected) > 0 && in.front.Size() > 0 {
		in.evictFrontForSpace()
		rejected = in.front.Push(rejected)
	}

	backRejects := in.back.Push(wrapped)

	out := make([]blockcache.Pair[K, V], len(backRejects))
	for i, p := range backRejects {
		// A key back could not hold must not linger in front, or front
		// would carry an entry with no back original.
		in.front.Take(p.Key)

		out[i] = blockcache.Pair[K, V]{Key: p.Key, Value: p.Value.value}
	}

	return out
}

// Flush implements blockcache.BuildingBlock: drains both tiers, de-duplicated
// by key with back's value authoritative.
func (in *Inclusive[K, V]) Flush() iter.Seq2[K, V] {
	merged := make(map[K]V)

	for k, c := range in.front.Flush() {
		merged[k] = c.value
	}

	for k, c := range in.back.Flush() {
		merged[k] = c.value
	}

	return func(yield func(K, V) bool) {
		for k, v := range merged {
			if !yield(k, v) {
				return
			}
		}
	}
}

// IsOrdered reports true iff both tiers are ordered, for the dynamic
// facade's capability computation.
func (in *Inclusive[K, V]) IsOrdered() bool {
	fo, ok := in.front.(interface{ IsOrdered() bool })
	if !ok || !fo.IsOrdered() {
		return false
	}

	bo, ok := in.back.(interface{ IsOrdered() bool })

	return ok && bo.IsOrdered()
}
