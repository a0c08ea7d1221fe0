package decorator

import (
	"bytes"
	"encoding/gob"

	"github.com/cachetree/blockcache"
)

// LRUCell holds a timestamp updated on every shared/exclusive access. Cell
// order is reverse timestamp order: the least-recently-accessed element
// sorts greatest, so it is popped first.
type LRUCell[V any] struct {
	value      V
	lastAccess int64
}

// Less implements blockcache.Lesser[LRUCell[V]].
func (c LRUCell[V]) Less(other LRUCell[V]) bool {
	return c.lastAccess > other.lastAccess
}

type lruCellWire[V any] struct {
	Value      V
	LastAccess int64
}

// GobEncode implements gob.GobEncoder so LRU-decorated elements survive a
// round trip through a stream-backed container.
func (c LRUCell[V]) GobEncode() ([]byte, error) {
	var buf bytes.Buffer

	err := gob.NewEncoder(&buf).Encode(lruCellWire[V]{Value: c.value, LastAccess: c.lastAccess})

	return buf.Bytes(), err
}

// GobDecode implements gob.GobDecoder.
func (c *LRUCell[V]) GobDecode(data []byte) error {
	var w lruCellWire[V]
	if err := gob.NewDecoder(bytes.NewReader(data)).Decode(&w); err != nil {
		return err
	}

	c.value, c.lastAccess = w.Value, w.LastAccess

	return nil
}

// LRU wraps inner in a least-recently-used eviction policy.
type LRU[K comparable, V any] struct {
	*Decorator[K, V, LRUCell[V]]
	clock Clock
}

// NewLRU decorates inner (a container Ordered over LRUCell[V]) with LRU
// eviction ordering. clock defaults to SystemClock when nil.
func NewLRU[K comparable, V any](inner blockcache.BuildingBlock[K, LRUCell[V]], clock Clock) *LRU[K, V] {
	if clock == nil {
		clock = SystemClock
	}

	l := &LRU[K, V]{clock: clock}
	l.Decorator = newDecorator[K, V, LRUCell[V]](
		inner,
		func(v V) LRUCell[V] { return LRUCell[V]{value: v, lastAccess: l.clock()} },
		func(c LRUCell[V]) V { return c.value },
		func(c *LRUCell[V]) { c.lastAccess = l.clock() },
	)

	return l
}
