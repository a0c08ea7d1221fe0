// Package stream implements Stream, an on-stream chunked vector store. An
// element's serialized form is padded to the next power-of-two size class;
// elements that round up to the same class share that class's sub-vector.
// A block supports up to 64 size classes, one per bit of a 64-bit width.
// The on-stream byte layout keeps one gob-encoded directory of per-class
// vectors and rewrites it wholesale on every mutation, the same pattern
// the Compressed store uses for its single payload.
package stream

import (
	"bytes"
	"encoding/gob"
	"io"
	"iter"
	"math/bits"
	"sort"

	"github.com/cachetree/blockcache"
	"github.com/cachetree/blockcache/bstream"
)

// maxSizeClasses is one per bit of a 64-bit element width.
const maxSizeClasses = 64

// Stream is an on-stream vector store chunked by power-of-two element
// size. V must be blockcache.Lesser[V]: Stream is always Ordered.
type Stream[K comparable, V blockcache.Lesser[V]] struct {
	stream   bstream.Stream
	capacity uint64
	size     uint64
	sizer    blockcache.Sizer[V]
	classes  [maxSizeClasses][]blockcache.Pair[K, V]
}

// Option configures a Stream at construction.
type Option[K comparable, V blockcache.Lesser[V]] func(*Stream[K, V])

// WithSizer overrides the default unit element-sizer.
func WithSizer[K comparable, V blockcache.Lesser[V]](sizer blockcache.Sizer[V]) Option[K, V] {
	return func(s *Stream[K, V]) { s.sizer = sizer }
}

// New creates a Stream backed by the given byte stream, with capacity in
// size-units. Any existing directory on stream is loaded.
func New[K comparable, V blockcache.Lesser[V]](backing bstream.Stream, capacity uint64, opts ...Option[K, V]) *Stream[K, V] {
	s := &Stream[K, V]{
		stream:   backing,
		capacity: capacity,
		sizer:    blockcache.UnitSizer[V],
	}

	for _, opt := range opts {
		opt(s)
	}

	s.load()

	return s
}

type gobPair[K comparable, V any] struct {
	Key   K
	Value V
}

type directory[K comparable, V any] struct {
	Classes [maxSizeClasses][]gobPair[K, V]
}

func (s *Stream[K, V]) load() {
	n, err := s.stream.Len()
	blockcache.PanicIO("stream.load: len", err)

	if n == 0 {
		return
	}

	_, err = s.stream.Seek(0, io.SeekStart)
	blockcache.PanicIO("stream.load: seek", err)

	var dir directory[K, V]

	err = gob.NewDecoder(s.stream).Decode(&dir)
	blockcache.PanicIO("stream.load: decode", err)

	var total uint64

	for class, slots := range dir.Classes {
		pairs := make([]blockcache.Pair[K, V], len(slots))
		for i, g := range slots {
			pairs[i] = blockcache.Pair[K, V]{Key: g.Key, Value: g.Value}
			total += s.sizer(g.Value)
		}

		s.classes[class] = pairs
	}

	s.size = total
}

func (s *Stream[K, V]) persist() {
	var dir directory[K, V]

	for class, pairs := range s.classes {
		if len(pairs) == 0 {
			continue
		}

		slots := make([]gobPair[K, V], len(pairs))
		for i, p := range pairs {
			slots[i] = gobPair[K, V]{Key: p.Key, Value: p.Value}
		}

		dir.Classes[class] = slots
	}

	blockcache.PanicIO("stream.persist: resize", s.stream.Resize(0))

	_, err := s.stream.Seek(0, io.SeekStart)
	blockcache.PanicIO("stream.persist: seek", err)

	var buf bytes.Buffer

	err = gob.NewEncoder(&buf).Encode(dir)
	blockcache.PanicIO("stream.persist: encode", err)

	_, err = s.stream.Write(buf.Bytes())
	blockcache.PanicIO("stream.persist: write", err)
}

// classFor returns the size class (padded slot width's bit index) for an
// element, based on its gob-encoded byte length.
func classFor[K comparable, V any](p blockcache.Pair[K, V]) int {
	var buf bytes.Buffer

	err := gob.NewEncoder(&buf).Encode(gobPair[K, V]{Key: p.Key, Value: p.Value})
	blockcache.PanicIO("stream.classFor: encode", err)

	width := buf.Len()
	if width < 1 {
		width = 1
	}

	padded := 1 << bits.Len(uint(width-1))
	class := bits.Len(uint(padded - 1))

	if class >= maxSizeClasses {
		class = maxSizeClasses - 1
	}

	return class
}

// Capacity implements blockcache.BuildingBlock.
func (s *Stream[K, V]) Capacity() uint64 { return s.capacity }

// Size implements blockcache.BuildingBlock.
func (s *Stream[K, V]) Size() uint64 { return s.size }

// Contains implements blockcache.BuildingBlock: a key alone does not
// reveal its element's size class, so every class is scanned.
func (s *Stream[K, V]) Contains(key K) bool {
	for _, pairs := range s.classes {
		for _, p := range pairs {
			if p.Key == key {
				return true
			}
		}
	}

	return false
}

// Take implements blockcache.BuildingBlock.
func (s *Stream[K, V]) Take(key K) (blockcache.Pair[K, V], bool) {
	for class, pairs := range s.classes {
		for i, p := range pairs {
			if p.Key == key {
				s.classes[class] = append(pairs[:i:i], pairs[i+1:]...)
				s.size -= s.sizer(p.Value)
				s.persist()

				return p, true
			}
		}
	}

	return blockcache.Pair[K, V]{}, false
}

// TakeMultiple implements blockcache.BuildingBlock.
func (s *Stream[K, V]) TakeMultiple(keys *[]K) []blockcache.Pair[K, V] {
	return blockcache.DefaultTakeMultiple[K, V](s, keys)
}

// Pop implements blockcache.BuildingBlock: reads every element from every
// size class, orders them, and writes back the survivors.
func (s *Stream[K, V]) Pop(n uint64) []blockcache.Pair[K, V] {
	if n == 0 {
		return nil
	}

	all := make([]blockcache.Pair[K, V], 0, s.size)
	for _, pairs := range s.classes {
		all = append(all, pairs...)
	}

	if len(all) == 0 {
		return nil
	}

	sort.Slice(all, func(i, j int) bool {
		return all[i].Value.Less(all[j].Value)
	})

	cut := len(all)

	var cum uint64
	for cut > 0 && cum < n {
		cut--
		cum += s.sizer(all[cut].Value)
	}

	popped := append([]blockcache.Pair[K, V]{}, all[cut:]...)
	survivors := all[:cut]

	var classes [maxSizeClasses][]blockcache.Pair[K, V]
	for _, p := range survivors {
		class := classFor(p)
		classes[class] = append(classes[class], p)
	}

	s.classes = classes

	var total uint64
	for _, p := range survivors {
		total += s.sizer(p.Value)
	}

	s.size = total
	s.persist()

	// Popped is returned in descending-value order; the contract only
	// specifies cumulative size, not order.
	reversed := make([]blockcache.Pair[K, V], len(popped))
	for i, p := range popped {
		reversed[len(popped)-1-i] = p
	}

	return reversed
}

// Push implements blockcache.BuildingBlock.
func (s *Stream[K, V]) Push(pairs []blockcache.Pair[K, V]) []blockcache.Pair[K, V] {
	accepted := false

	for i, p := range pairs {
		sz := s.sizer(p.Value)
		if s.size+sz > s.capacity {
			if accepted {
				s.persist()
			}

			return pairs[i:]
		}

		class := classFor(p)
		s.classes[class] = append(s.classes[class], p)
		s.size += sz
		accepted = true
	}

	if accepted {
		s.persist()
	}

	return nil
}

// IsOrdered reports true: Stream's element type is constrained to
// blockcache.Lesser[V], so it is always Ordered.
func (s *Stream[K, V]) IsOrdered() bool { return true }

// Flush implements blockcache.BuildingBlock.
func (s *Stream[K, V]) Flush() iter.Seq2[K, V] {
	var snapshot []blockcache.Pair[K, V]
	for _, pairs := range s.classes {
		snapshot = append(snapshot, pairs...)
	}

	s.classes = [maxSizeClasses][]blockcache.Pair[K, V]{}
	s.size = 0
	s.persist()

	return func(yield func(K, V) bool) {
		for _, p := range snapshot {
			if !yield(p.Key, p.Value) {
				return
			}
		}
	}
}
