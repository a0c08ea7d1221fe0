package associative

import (
	"fmt"
	"iter"

	"golang.org/x/sync/errgroup"

	"github.com/cachetree/blockcache"
)

// KeyBytes renders a key to the bytes an ExclusiveHasher hashes. The
// default, DefaultKeyBytes, formats the key with fmt.Sprintf, which is
// adequate for the comparable key types building blocks are parameterized
// over; callers with a hot path can supply a specialized encoder.
type KeyBytes[K comparable] func(K) []byte

// DefaultKeyBytes renders key via its default format, matching any other
// comparable key consistently without per-type encoders.
func DefaultKeyBytes[K comparable](key K) []byte {
	return []byte(fmt.Sprintf("%v", key))
}

// Associative shards keys across N sibling containers using an
// ExclusiveHasher, fanning operations out across shards.
type Associative[K comparable, V any] struct {
	shards   []blockcache.BuildingBlock[K, V]
	hasher   *ExclusiveHasher
	keyBytes KeyBytes[K]
}

// Option configures an Associative at construction.
type Option[K comparable, V any] func(*Associative[K, V])

// WithKeyBytes overrides the default key encoder.
func WithKeyBytes[K comparable, V any](fn KeyBytes[K]) Option[K, V] {
	return func(a *Associative[K, V]) { a.keyBytes = fn }
}

// WithHasher overrides the root hasher, used to derive a child hasher when
// stacking Associative inside Associative.
func WithHasher[K comparable, V any](h *ExclusiveHasher) Option[K, V] {
	return func(a *Associative[K, V]) { a.hasher = h }
}

// New shards keys across shards using an ExclusiveHasher sized for
// len(shards).
func New[K comparable, V any](shards []blockcache.BuildingBlock[K, V], opts ...Option[K, V]) *Associative[K, V] {
	a := &Associative[K, V]{shards: shards, keyBytes: DefaultKeyBytes[K]}

	for _, opt := range opts {
		opt(a)
	}

	if a.hasher == nil {
		a.hasher = NewExclusiveHasher(len(shards))
	}

	return a
}

func (a *Associative[K, V]) shardFor(key K) int {
	return a.hasher.Shard(a.keyBytes(key), len(a.shards))
}

// Capacity implements blockcache.BuildingBlock: sum over shards.
func (a *Associative[K, V]) Capacity() uint64 {
	var total uint64
	for _, s := range a.shards {
		total += s.Capacity()
	}

	return total
}

// Size implements blockcache.BuildingBlock: sum over shards.
func (a *Associative[K, V]) Size() uint64 {
	var total uint64
	for _, s := range a.shards {
		total += s.Size()
	}

	return total
}

// Contains implements blockcache.BuildingBlock, routing to the key's shard.
func (a *Associative[K, V]) Contains(key K) bool {
	return a.shards[a.shardFor(key)].Contains(key)
}

// Take implements blockcache.BuildingBlock, routing to the key's shard.
func (a *Associative[K, V]) Take(key K) (blockcache.Pair[K, V], bool) {
	return a.shards[a.shardFor(key)].Take(key)
}

// TakeMultiple implements blockcache.BuildingBlock, grouping keys by shard
// and fanning out concurrently, then merging back the unfound keys.
func (a *Associative[K, V]) TakeMultiple(keys *[]K) []blockcache.Pair[K, V] {
	groups := make([][]K, len(a.shards))
	for _, k := range *keys {
		idx := a.shardFor(k)
		groups[idx] = append(groups[idx], k)
	}

	results := make([][]blockcache.Pair[K, V], len(a.shards))

	var g errgroup.Group

	for i, group := range groups {
		if len(group) == 0 {
			continue
		}

		i, group := i, group

		g.Go(func() error {
			results[i] = a.shards[i].TakeMultiple(&group)
			groups[i] = group

			return nil
		})
	}

	_ = g.Wait()

	var (
		out     []blockcache.Pair[K, V]
		unfound []K
	)

	for i := range a.shards {
		out = append(out, results[i]...)
		unfound = append(unfound, groups[i]...)
	}

	*keys = unfound

	return out
}

// Pop implements blockcache.BuildingBlock: distributes n across shards in
// a uniform split with remainder allocated to the first few shards,
// fanning the drains out concurrently. A shard holding less than its share
// leaves a shortfall, which is then popped from the shards in order, so n
// size-units are removed whenever the block holds that much.
func (a *Associative[K, V]) Pop(n uint64) []blockcache.Pair[K, V] {
	shardCount := uint64(len(a.shards))
	if shardCount == 0 {
		return nil
	}

	before := a.Size()
	base := n / shardCount
	remainder := n % shardCount

	results := make([][]blockcache.Pair[K, V], len(a.shards))

	var g errgroup.Group

	for i := range a.shards {
		share := base
		if uint64(i) < remainder {
			share++
		}

		if share == 0 {
			continue
		}

		i, share := i, share

		g.Go(func() error {
			results[i] = a.shards[i].Pop(share)

			return nil
		})
	}

	_ = g.Wait()

	var out []blockcache.Pair[K, V]
	for _, r := range results {
		out = append(out, r...)
	}

	removed := before - a.Size()
	for _, s := range a.shards {
		if removed >= n {
			break
		}

		sb := s.Size()
		out = append(out, s.Pop(n-removed)...)
		removed += sb - s.Size()
	}

	return out
}

// Push implements blockcache.BuildingBlock: groups pairs by shard, pushes
// each group concurrently, and collects rejects from every shard.
func (a *Associative[K, V]) Push(pairs []blockcache.Pair[K, V]) []blockcache.Pair[K, V] {
	groups := make([][]blockcache.Pair[K, V], len(a.shards))
	for _, p := range pairs {
		idx := a.shardFor(p.Key)
		groups[idx] = append(groups[idx], p)
	}

	rejects := make([][]blockcache.Pair[K, V], len(a.shards))

	var g errgroup.Group

	for i, group := range groups {
		if len(group) == 0 {
			continue
		}

		i, group := i, group

		g.Go(func() error {
			rejects[i] = a.shards[i].Push(group)

			return nil
		})
	}

	_ = g.Wait()

	var out []blockcache.Pair[K, V]
	for _, r := range rejects {
		out = append(out, r...)
	}

	return out
}

// Flush implements blockcache.BuildingBlock, chaining every shard's flush
// in order.
func (a *Associative[K, V]) Flush() iter.Seq2[K, V] {
	shards := a.shards

	return func(yield func(K, V) bool) {
		for _, s := range shards {
			for k, v := range s.Flush() {
				if !yield(k, v) {
					return
				}
			}
		}
	}
}

// Get implements blockcache.Accessor, routing to the key's shard.
func (a *Associative[K, V]) Get(key K) (*V, bool) {
	acc, ok := a.shards[a.shardFor(key)].(blockcache.Accessor[K, V])
	if !ok {
		return nil, false
	}

	return acc.Get(key)
}

// IsOrdered reports true only if every shard is ordered.
func (a *Associative[K, V]) IsOrdered() bool {
	for _, s := range a.shards {
		o, ok := s.(interface{ IsOrdered() bool })
		if !ok || !o.IsOrdered() {
			return false
		}
	}

	return len(a.shards) > 0
}

// IsConcurrent reports true iff every shard is concurrent.
func (a *Associative[K, V]) IsConcurrent() bool {
	for _, s := range a.shards {
		c, ok := s.(interface{ IsConcurrent() bool })
		if !ok || !c.IsConcurrent() {
			return false
		}
	}

	return len(a.shards) > 0
}

// DeriveHasher produces the hasher the next stacked Associative layer
// should use, sampling the bit window immediately above this layer's.
func (a *Associative[K, V]) DeriveHasher(m int) (*ExclusiveHasher, error) {
	return a.hasher.Next(m)
}
