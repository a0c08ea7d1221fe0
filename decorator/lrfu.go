package decorator

import (
	"bytes"
	"encoding/gob"

	"github.com/cachetree/blockcache"
)

// LRFUCell holds the (last_access, exponential_average, decay) triple
// driving the LRFU score `(now - last_access) + eavg/decay`. decay > 1
// approaches pure LRU; decay < 1 approaches pure LFU and weights old
// accesses more.
type LRFUCell[V any] struct {
	value      V
	lastAccess int64
	eavg       float64
	decay      float64
}

// Less implements blockcache.Lesser[LRFUCell[V]]. Order is by score
// ascending: the smallest score (most-recently-and-frequently used) sorts
// least, so the largest score is popped first. The `now` term is common to
// both scores at comparison time and cancels, so ranking needs no clock.
func (c LRFUCell[V]) Less(other LRFUCell[V]) bool {
	return c.eavg/c.decay-float64(c.lastAccess) < other.eavg/other.decay-float64(other.lastAccess)
}

type lrfuCellWire[V any] struct {
	Value      V
	LastAccess int64
	Eavg       float64
	Decay      float64
}

// GobEncode implements gob.GobEncoder so LRFU-decorated elements survive a
// round trip through a stream-backed container.
func (c LRFUCell[V]) GobEncode() ([]byte, error) {
	var buf bytes.Buffer

	err := gob.NewEncoder(&buf).Encode(lrfuCellWire[V]{
		Value: c.value, LastAccess: c.lastAccess, Eavg: c.eavg, Decay: c.decay,
	})

	return buf.Bytes(), err
}

// GobDecode implements gob.GobDecoder.
func (c *LRFUCell[V]) GobDecode(data []byte) error {
	var w lrfuCellWire[V]
	if err := gob.NewDecoder(bytes.NewReader(data)).Decode(&w); err != nil {
		return err
	}

	c.value, c.lastAccess, c.eavg, c.decay = w.Value, w.LastAccess, w.Eavg, w.Decay

	return nil
}

// LRFU wraps inner in a least-recently/frequently-used eviction policy.
type LRFU[K comparable, V any] struct {
	*Decorator[K, V, LRFUCell[V]]
	clock Clock
	decay float64
}

// defaultDecay approaches plain LRU: large decay discounts frequency and
// weights recency almost exclusively.
const defaultDecay = 8.0

// NewLRFU decorates inner (a container Ordered over LRFUCell[V]) with LRFU
// eviction ordering. clock defaults to SystemClock when nil; decay <= 0
// falls back to defaultDecay.
func NewLRFU[K comparable, V any](inner blockcache.BuildingBlock[K, LRFUCell[V]], clock Clock, decay float64) *LRFU[K, V] {
	if clock == nil {
		clock = SystemClock
	}

	if decay <= 0 {
		decay = defaultDecay
	}

	l := &LRFU[K, V]{clock: clock, decay: decay}
	l.Decorator = newDecorator[K, V, LRFUCell[V]](
		inner,
		func(v V) LRFUCell[V] {
			return LRFUCell[V]{value: v, lastAccess: l.clock(), decay: l.decay}
		},
		func(c LRFUCell[V]) V { return c.value },
		func(c *LRFUCell[V]) {
			now := l.clock()
			diff := float64(now - c.lastAccess)
			c.eavg = diff + c.eavg/c.decay
			c.lastAccess = now
		},
	)

	return l
}
