// Package blockcache composes hierarchical key/value storage containers —
// in-memory arrays and trees, on-disk streams, compressed vectors — into
// cache trees using a small set of uniform connectors and decorators.
package blockcache

import "iter"

// Pair is a stored (Key, Value) element.
type Pair[K comparable, V any] struct {
	Key   K
	Value V
}

// Sizer computes the size-accounting unit of a value. The default sizer
// (see UnitSizer) returns 1 for every value, so capacity/size reduce to
// element counts; callers may supply a byte-counting sizer instead.
type Sizer[V any] func(V) uint64

// UnitSizer is the default element-sizer: every value counts as 1 unit.
func UnitSizer[V any](V) uint64 { return 1 }

// Lesser is the ordering capability a value must satisfy for a container to
// be Ordered (see BuildingBlock doc). Decoration cells implement Lesser over
// their wrapped value to encode an eviction policy's comparison order.
type Lesser[V any] interface {
	// Less reports whether the receiver sorts before other. pop() removes
	// the elements that sort *last* under this order.
	Less(other V) bool
}

// BuildingBlock is the uniform contract every composable cache piece
// implements. Sizes, not counts, drive capacity accounting unless the
// caller's Sizer is the UnitSizer.
//
// A block that is additionally Ordered (its V satisfies Lesser[V]) promises
// that Pop removes the elements with the largest comparison value among
// those stored. This package does not carry a separate "Ordered" marker
// type: a block reports the capability through an IsOrdered() bool method,
// which the dynamic facade (package dynamic) probes and records as a
// capability bit for callers that erase V.
type BuildingBlock[K comparable, V any] interface {
	// Capacity is the fixed maximum aggregate size.
	Capacity() uint64
	// Size is the current aggregate size. Always Size() <= Capacity().
	Size() uint64
	// Contains reports whether key is present.
	Contains(key K) bool
	// Take removes and returns the element stored under key, if any.
	Take(key K) (Pair[K, V], bool)
	// TakeMultiple removes every element whose key is in *keys and returns
	// them. On return, *keys retains only the keys that were NOT found, so
	// callers can cascade a lookup miss to another tier.
	TakeMultiple(keys *[]K) []Pair[K, V]
	// Pop removes up to n size-units worth of elements. If the block is
	// Ordered, the removed elements are those with the largest comparison
	// values, accumulated until their cumulative size first meets or
	// exceeds n (see package doc of each Ordered block for the exact
	// algorithm). Pop returns fewer elements if size() had less than n
	// worth to give up.
	Pop(n uint64) []Pair[K, V]
	// Push inserts pairs and returns the rejected tail: elements that did
	// not fit, or whose keys collided per the block's policy.
	Push(pairs []Pair[K, V]) []Pair[K, V]
	// Flush drains every stored element and leaves Size() == 0. The
	// returned iterator may lazily borrow from the block; once it is fully
	// consumed the block is empty.
	Flush() iter.Seq2[K, V]
}

// Accessor is implemented by blocks that allow shared access to a stored
// value without removing it. Inclusive's read-promotion relies on this to
// decide whether a key lives in the back tier only.
type Accessor[K comparable, V any] interface {
	// Get returns a pointer to the stored value for key, or nil if absent.
	// The pointer is valid until the next mutating call on the block.
	Get(key K) (*V, bool)
}

// DefaultTakeMultiple implements BuildingBlock.TakeMultiple in terms of
// Take, for blocks that have no cheaper specialized strategy. It is the
// "default implementation is the loop" referenced in the building-block
// contract.
func DefaultTakeMultiple[K comparable, V any](b BuildingBlock[K, V], keys *[]K) []Pair[K, V] {
	taken := make([]Pair[K, V], 0, len(*keys))
	remaining := (*keys)[:0]

	for _, k := range *keys {
		if p, ok := b.Take(k); ok {
			taken = append(taken, p)
		} else {
			remaining = append(remaining, k)
		}
	}

	*keys = remaining

	return taken
}
