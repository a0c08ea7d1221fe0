// Package sequential implements Sequential, a single RW-locked facade that
// turns any BuildingBlock into a thread-safe handle. Cloning a Sequential
// aliases the same inner block through a shared, reference-counted cell
// rather than copying its data.
package sequential

import (
	"iter"
	"math/rand/v2"
	"sync"
	"sync/atomic"
	"time"

	"github.com/cachetree/blockcache"
)

// spinLimit is how many times a lock acquisition spins before falling back
// to sleeping with exponential backoff, up to roughly 1 microsecond per
// iteration.
const (
	spinLimit        = 32
	backoffBase      = time.Microsecond / backoffMaxFactor
	backoffMaxFactor = 64
)

// shared is the reference-counted cell every clone of a Sequential points
// at. Holding it behind a pointer — rather than embedding it by value — is
// what lets Clone alias the same inner block and lock instead of copying
// either.
type shared[K comparable, V any] struct {
	mu       sync.RWMutex
	inner    blockcache.BuildingBlock[K, V]
	poisoned atomic.Bool
}

// Sequential wraps inner behind a read-write lock. Every immutable
// operation acquires the lock for reading; every mutating operation
// acquires it for writing.
type Sequential[K comparable, V any] struct {
	s *shared[K, V]
}

// New wraps inner in a Sequential handle.
func New[K comparable, V any](inner blockcache.BuildingBlock[K, V]) *Sequential[K, V] {
	return &Sequential[K, V]{s: &shared[K, V]{inner: inner}}
}

func backoff(attempt int) {
	factor := 1 << attempt
	if factor > backoffMaxFactor {
		factor = backoffMaxFactor
	}
	//nolint:gosec // jitter does not need a cryptographic source
	jitter := rand.IntN(factor) + 1
	time.Sleep(backoffBase * time.Duration(jitter))
}

// rlock acquires the read lock with a spin-then-backoff loop, panicking if
// the lock is poisoned (see withRLock). The first spinLimit attempts are a
// tight non-blocking TryRLock loop; past that it sleeps with exponentially
// growing, jittered backoff between attempts.
func (s *shared[K, V]) rlock() {
	for i := 0; ; i++ {
		if s.poisoned.Load() {
			panic(blockcache.ErrLockPoisoned)
		}

		if s.mu.TryRLock() {
			return
		}

		if i >= spinLimit {
			backoff(i - spinLimit)
		}
	}
}

func (s *shared[K, V]) lock() {
	for i := 0; ; i++ {
		if s.poisoned.Load() {
			panic(blockcache.ErrLockPoisoned)
		}

		if s.mu.TryLock() {
			return
		}

		if i >= spinLimit {
			backoff(i - spinLimit)
		}
	}
}

// withRLock runs fn holding the read lock, poisoning the Sequential if fn
// panics (mirroring std Mutex's poisoning behavior on a panicking critical
// section).
func (s *shared[K, V]) withRLock(fn func()) {
	s.rlock()
	defer s.mu.RUnlock()

	defer func() {
		if r := recover(); r != nil {
			s.poisoned.Store(true)

			panic(r)
		}
	}()

	fn()
}

func (s *shared[K, V]) withLock(fn func()) {
	s.lock()
	defer s.mu.Unlock()

	defer func() {
		if r := recover(); r != nil {
			s.poisoned.Store(true)

			panic(r)
		}
	}()

	fn()
}

// Capacity implements blockcache.BuildingBlock.
func (s *Sequential[K, V]) Capacity() uint64 {
	var c uint64

	s.s.withRLock(func() { c = s.s.inner.Capacity() })

	return c
}

// Size implements blockcache.BuildingBlock.
func (s *Sequential[K, V]) Size() uint64 {
	var sz uint64

	s.s.withRLock(func() { sz = s.s.inner.Size() })

	return sz
}

// Contains implements blockcache.BuildingBlock.
func (s *Sequential[K, V]) Contains(key K) bool {
	var ok bool

	s.s.withRLock(func() { ok = s.s.inner.Contains(key) })

	return ok
}

// Take implements blockcache.BuildingBlock.
func (s *Sequential[K, V]) Take(key K) (blockcache.Pair[K, V], bool) {
	var (
		p  blockcache.Pair[K, V]
		ok bool
	)

	s.s.withLock(func() { p, ok = s.s.inner.Take(key) })

	return p, ok
}

// TakeMultiple implements blockcache.BuildingBlock.
func (s *Sequential[K, V]) TakeMultiple(keys *[]K) []blockcache.Pair[K, V] {
	var out []blockcache.Pair[K, V]

	s.s.withLock(func() { out = s.s.inner.TakeMultiple(keys) })

	return out
}

// Pop implements blockcache.BuildingBlock.
func (s *Sequential[K, V]) Pop(n uint64) []blockcache.Pair[K, V] {
	var out []blockcache.Pair[K, V]

	s.s.withLock(func() { out = s.s.inner.Pop(n) })

	return out
}

// Push implements blockcache.BuildingBlock.
func (s *Sequential[K, V]) Push(pairs []blockcache.Pair[K, V]) []blockcache.Pair[K, V] {
	var out []blockcache.Pair[K, V]

	s.s.withLock(func() { out = s.s.inner.Push(pairs) })

	return out
}

// Flush implements blockcache.BuildingBlock. The inner flush is fully
// materialized while holding the write lock so the iterator returned here
// never touches the inner block without the lock held.
func (s *Sequential[K, V]) Flush() iter.Seq2[K, V] {
	var snapshot []blockcache.Pair[K, V]

	s.s.withLock(func() {
		for k, v := range s.s.inner.Flush() {
			snapshot = append(snapshot, blockcache.Pair[K, V]{Key: k, Value: v})
		}
	})

	return func(yield func(K, V) bool) {
		for _, p := range snapshot {
			if !yield(p.Key, p.Value) {
				return
			}
		}
	}
}

// Clone implements the Concurrent capability: it returns a new handle
// sharing this Sequential's inner block and lock, not a copy of either.
func (s *Sequential[K, V]) Clone() *Sequential[K, V] {
	return &Sequential[K, V]{s: s.s}
}

// IsConcurrent reports true: a Sequential handle is always Concurrent.
func (s *Sequential[K, V]) IsConcurrent() bool { return true }

// IsOrdered forwards the inner container's ordered capability, for the
// dynamic facade's bit computation.
func (s *Sequential[K, V]) IsOrdered() bool {
	if o, ok := s.s.inner.(interface{ IsOrdered() bool }); ok {
		return o.IsOrdered()
	}

	return false
}

// TryLock attempts to acquire the write lock without blocking. It reports
// ErrLockPoisoned or ErrWouldBlock on failure, for callers that need a
// non-blocking fast-fail path.
func (s *Sequential[K, V]) TryLock(fn func(blockcache.BuildingBlock[K, V])) error {
	if s.s.poisoned.Load() {
		return blockcache.ErrLockPoisoned
	}

	if !s.s.mu.TryLock() {
		return blockcache.ErrWouldBlock
	}

	defer s.s.mu.Unlock()

	defer func() {
		if r := recover(); r != nil {
			s.s.poisoned.Store(true)

			panic(r)
		}
	}()

	fn(s.s.inner)

	return nil
}
