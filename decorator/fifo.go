package decorator

import (
	"bytes"
	"encoding/gob"
	"sync/atomic"

	"github.com/cachetree/blockcache"
)

// FIFOCell holds an atomically-assigned monotone insertion counter. Cell
// order is reverse counter order: older (smaller) counters sort greater,
// so they are popped first.
type FIFOCell[V any] struct {
	value V
	seq   uint64
}

// Less implements blockcache.Lesser[FIFOCell[V]].
func (c FIFOCell[V]) Less(other FIFOCell[V]) bool {
	return c.seq > other.seq
}

type fifoCellWire[V any] struct {
	Value V
	Seq   uint64
}

// GobEncode implements gob.GobEncoder so FIFO-decorated elements survive a
// round trip through a stream-backed container.
func (c FIFOCell[V]) GobEncode() ([]byte, error) {
	var buf bytes.Buffer

	err := gob.NewEncoder(&buf).Encode(fifoCellWire[V]{Value: c.value, Seq: c.seq})

	return buf.Bytes(), err
}

// GobDecode implements gob.GobDecoder.
func (c *FIFOCell[V]) GobDecode(data []byte) error {
	var w fifoCellWire[V]
	if err := gob.NewDecoder(bytes.NewReader(data)).Decode(&w); err != nil {
		return err
	}

	c.value, c.seq = w.Value, w.Seq

	return nil
}

// FIFO wraps inner in a first-in-first-out eviction policy: the
// longest-resident element is popped first regardless of access pattern.
type FIFO[K comparable, V any] struct {
	*Decorator[K, V, FIFOCell[V]]
	seq atomic.Uint64
}

// NewFIFO decorates inner (a container Ordered over FIFOCell[V], i.e. built
// with V = FIFOCell[V] as its element type) with FIFO eviction ordering.
func NewFIFO[K comparable, V any](inner blockcache.BuildingBlock[K, FIFOCell[V]]) *FIFO[K, V] {
	f := &FIFO[K, V]{}
	f.Decorator = newDecorator[K, V, FIFOCell[V]](
		inner,
		func(v V) FIFOCell[V] {
			return FIFOCell[V]{value: v, seq: f.seq.Add(1)}
		},
		func(c FIFOCell[V]) V { return c.value },
		nil, // FIFO order never changes after push; no touch on access.
	)

	return f
}
