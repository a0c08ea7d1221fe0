// Package compressed implements Compressed, a whole-stream compression
// store. Every mutating operation reads the entire stream, decompresses
// and decodes it into an in-memory vector, applies the change, then
// re-encodes, re-compresses, and rewrites the whole stream.
// Read-only operations decode but never write back.
package compressed

import (
	"bytes"
	"encoding/gob"
	"io"
	"iter"
	"log/slog"
	"sort"

	"github.com/pierrec/lz4/v4"

	"github.com/cachetree/blockcache"
	"github.com/cachetree/blockcache/bstream"
)

// Compressed is a store whose elements live as a single lz4-compressed,
// gob-encoded vector on a byte stream. Its capacity and size
// are measured in compressed bytes, not element-sizer units: the whole
// point of this block is to bound the footprint of the on-stream payload.
type Compressed[K comparable, V blockcache.Lesser[V]] struct {
	stream   bstream.Stream
	capacity uint64
	size     uint64
	log      *slog.Logger
}

// Option configures a Compressed store at construction.
type Option[K comparable, V blockcache.Lesser[V]] func(*Compressed[K, V])

// WithLogger overrides the default slog.Default() logger.
func WithLogger[K comparable, V blockcache.Lesser[V]](l *slog.Logger) Option[K, V] {
	return func(c *Compressed[K, V]) { c.log = l }
}

// New creates a Compressed store backed by stream, with capacity in
// compressed bytes.
func New[K comparable, V blockcache.Lesser[V]](stream bstream.Stream, capacity uint64, opts ...Option[K, V]) *Compressed[K, V] {
	c := &Compressed[K, V]{
		stream:   stream,
		capacity: capacity,
		log:      slog.Default(),
	}

	for _, opt := range opts {
		opt(c)
	}

	n, err := stream.Len()
	blockcache.PanicIO("compressed.New: stream length", err)
	c.size = uint64(n)

	return c
}

// Capacity implements blockcache.BuildingBlock.
func (c *Compressed[K, V]) Capacity() uint64 { return c.capacity }

// Size implements blockcache.BuildingBlock.
func (c *Compressed[K, V]) Size() uint64 { return c.size }

// gobPair mirrors blockcache.Pair with exported fields so gob can encode
// it without requiring Pair's fields (already exported) to change.
type gobPair[K comparable, V any] struct {
	Key   K
	Value V
}

func (c *Compressed[K, V]) read() []blockcache.Pair[K, V] {
	n, err := c.stream.Len()
	blockcache.PanicIO("compressed.read: len", err)

	if n == 0 {
		return nil
	}

	_, err = c.stream.Seek(0, io.SeekStart)
	blockcache.PanicIO("compressed.read: seek", err)

	zr := lz4.NewReader(c.stream)

	var raw []gobPair[K, V]

	err = gob.NewDecoder(zr).Decode(&raw)
	blockcache.PanicIO("compressed.read: decode", err)

	pairs := make([]blockcache.Pair[K, V], len(raw))
	for i, g := range raw {
		pairs[i] = blockcache.Pair[K, V]{Key: g.Key, Value: g.Value}
	}

	return pairs
}

// encode serializes+compresses pairs and returns the resulting bytes
// without touching the stream, so callers can size-check before writing.
func encode[K comparable, V any](pairs []blockcache.Pair[K, V]) []byte {
	if len(pairs) == 0 {
		return nil
	}

	raw := make([]gobPair[K, V], len(pairs))
	for i, p := range pairs {
		raw[i] = gobPair[K, V]{Key: p.Key, Value: p.Value}
	}

	var plain bytes.Buffer

	err := gob.NewEncoder(&plain).Encode(raw)
	blockcache.PanicIO("compressed.encode: gob", err)

	var compressed bytes.Buffer

	zw := lz4.NewWriter(&compressed)

	_, err = zw.Write(plain.Bytes())
	blockcache.PanicIO("compressed.encode: lz4 write", err)
	blockcache.PanicIO("compressed.encode: lz4 close", zw.Close())

	return compressed.Bytes()
}

// write truncates the stream to 0 and rewrites encoded. Truncating first
// guarantees no stale suffix survives a shrinking write.
func (c *Compressed[K, V]) write(encoded []byte) {
	blockcache.PanicIO("compressed.write: resize", c.stream.Resize(0))

	if len(encoded) == 0 {
		c.size = 0

		return
	}

	_, err := c.stream.Seek(0, io.SeekStart)
	blockcache.PanicIO("compressed.write: seek", err)

	_, err = c.stream.Write(encoded)
	blockcache.PanicIO("compressed.write: write", err)

	c.size = uint64(len(encoded))
}

// Contains implements blockcache.BuildingBlock. Read-only: decodes but
// never writes back.
func (c *Compressed[K, V]) Contains(key K) bool {
	for _, p := range c.read() {
		if p.Key == key {
			return true
		}
	}

	return false
}

// Take implements blockcache.BuildingBlock.
func (c *Compressed[K, V]) Take(key K) (blockcache.Pair[K, V], bool) {
	pairs := c.read()

	for i, p := range pairs {
		if p.Key == key {
			pairs = append(pairs[:i], pairs[i+1:]...)
			c.write(encode(pairs))

			return p, true
		}
	}

	return blockcache.Pair[K, V]{}, false
}

// TakeMultiple implements blockcache.BuildingBlock. It rewrites the stream
// once for the whole batch rather than once per key.
func (c *Compressed[K, V]) TakeMultiple(keys *[]K) []blockcache.Pair[K, V] {
	pairs := c.read()
	want := make(map[K]bool, len(*keys))

	for _, k := range *keys {
		want[k] = true
	}

	var taken, kept []blockcache.Pair[K, V]

	for _, p := range pairs {
		if want[p.Key] {
			taken = append(taken, p)
			delete(want, p.Key)
		} else {
			kept = append(kept, p)
		}
	}

	remaining := (*keys)[:0]
	for _, k := range *keys {
		if want[k] {
			remaining = append(remaining, k)
		}
	}

	*keys = remaining

	if len(taken) > 0 {
		c.write(encode(kept))
	}

	return taken
}

// Pop implements blockcache.BuildingBlock: sorts ascending by value, then
// removes the smallest-cut suffix whose removal shrinks the compressed
// blob by at least n bytes, matching Capacity/Size's byte-budget
// accounting. Each candidate cut is re-encoded to measure the shrink, the
// same trade-off Push already makes for an exact size check.
func (c *Compressed[K, V]) Pop(n uint64) []blockcache.Pair[K, V] {
	if n == 0 {
		return nil
	}

	pairs := c.read()
	if len(pairs) == 0 {
		return nil
	}

	sort.Slice(pairs, func(i, j int) bool {
		return pairs[i].Value.Less(pairs[j].Value)
	})

	before := uint64(len(encode(pairs)))

	cut := len(pairs)
	var shrink uint64

	for cut > 0 && shrink < n {
		cut--
		shrink = before - uint64(len(encode(pairs[:cut])))
	}

	popped := make([]blockcache.Pair[K, V], len(pairs)-cut)
	copy(popped, pairs[cut:])

	c.write(encode(pairs[:cut]))

	return popped
}

// Push implements blockcache.BuildingBlock. Each candidate pair is
// tentatively appended and re-encoded in memory; if the resulting
// compressed size would exceed capacity the pair (and every pair after
// it) is rejected and returned, without having been written.
func (c *Compressed[K, V]) Push(pairs []blockcache.Pair[K, V]) []blockcache.Pair[K, V] {
	current := c.read()

	accepted := 0

	var lastEncoded []byte

	for i, p := range pairs {
		candidate := append(append([]blockcache.Pair[K, V]{}, current...), p)

		enc := encode(candidate)
		if uint64(len(enc)) > c.capacity {
			c.log.Debug("compressed push rejected: would exceed capacity",
				"capacity", c.capacity, "encoded_len", len(enc))

			if lastEncoded != nil || accepted > 0 {
				c.write(lastEncoded)
			}

			return pairs[i:]
		}

		current = candidate
		lastEncoded = enc
		accepted++
	}

	if accepted > 0 {
		c.write(lastEncoded)
	}

	return nil
}

// IsOrdered reports true: Compressed's element type is constrained to
// blockcache.Lesser[V], so it is always Ordered.
func (c *Compressed[K, V]) IsOrdered() bool { return true }

// Flush implements blockcache.BuildingBlock.
func (c *Compressed[K, V]) Flush() iter.Seq2[K, V] {
	pairs := c.read()
	c.write(nil)

	return func(yield func(K, V) bool) {
		for _, p := range pairs {
			if !yield(p.Key, p.Value) {
				return
			}
		}
	}
}
