// Package profiler implements Profiler, a wrapper maintaining per-method
// atomic counters (count, elapsed_ns) plus hit/miss counters for Get-like
// accesses, reported on demand to a textual sink.
package profiler

import (
	"fmt"
	"io"
	"iter"
	"os"
	"sync/atomic"
	"time"

	"github.com/cachetree/blockcache"
)

// methodStat is the atomic (count, elapsed_ns) pair kept per method.
type methodStat struct {
	count   atomic.Int64
	elapsed atomic.Int64
}

func (m *methodStat) record(d time.Duration) {
	m.count.Add(1)
	m.elapsed.Add(d.Nanoseconds())
}

// Profiler wraps inner, timing every BuildingBlock call and tracking
// hit/miss counts for Take/TakeMultiple/Get. It is thread-safe via atomic
// operations alone (no lock of its own); callers that need the inner block
// to also be safe for concurrent use should stack Sequential separately.
type Profiler[K comparable, V any] struct {
	inner blockcache.BuildingBlock[K, V]
	name  string

	capacity, size, contains, take, takeMultiple, pop, push, flush, get methodStat

	hits, misses atomic.Int64
}

// New wraps inner with profiling counters reported under name.
func New[K comparable, V any](name string, inner blockcache.BuildingBlock[K, V]) *Profiler[K, V] {
	return &Profiler[K, V]{name: name, inner: inner}
}

func timeIt(stat *methodStat, fn func()) {
	start := time.Now()
	fn()
	stat.record(time.Since(start))
}

// Capacity implements blockcache.BuildingBlock.
func (p *Profiler[K, V]) Capacity() uint64 {
	var c uint64

	timeIt(&p.capacity, func() { c = p.inner.Capacity() })

	return c
}

// Size implements blockcache.BuildingBlock.
func (p *Profiler[K, V]) Size() uint64 {
	var sz uint64

	timeIt(&p.size, func() { sz = p.inner.Size() })

	return sz
}

// Contains implements blockcache.BuildingBlock.
func (p *Profiler[K, V]) Contains(key K) bool {
	var ok bool

	timeIt(&p.contains, func() { ok = p.inner.Contains(key) })

	return ok
}

// Take implements blockcache.BuildingBlock.
func (p *Profiler[K, V]) Take(key K) (blockcache.Pair[K, V], bool) {
	var (
		pair blockcache.Pair[K, V]
		ok   bool
	)

	timeIt(&p.take, func() { pair, ok = p.inner.Take(key) })
	p.recordHitMiss(ok)

	return pair, ok
}

// TakeMultiple implements blockcache.BuildingBlock.
func (p *Profiler[K, V]) TakeMultiple(keys *[]K) []blockcache.Pair[K, V] {
	requested := len(*keys)

	var out []blockcache.Pair[K, V]

	timeIt(&p.takeMultiple, func() { out = p.inner.TakeMultiple(keys) })

	p.hits.Add(int64(len(out)))
	p.misses.Add(int64(requested - len(out)))

	return out
}

// Pop implements blockcache.BuildingBlock.
func (p *Profiler[K, V]) Pop(n uint64) []blockcache.Pair[K, V] {
	var out []blockcache.Pair[K, V]

	timeIt(&p.pop, func() { out = p.inner.Pop(n) })

	return out
}

// Push implements blockcache.BuildingBlock.
func (p *Profiler[K, V]) Push(pairs []blockcache.Pair[K, V]) []blockcache.Pair[K, V] {
	var out []blockcache.Pair[K, V]

	timeIt(&p.push, func() { out = p.inner.Push(pairs) })

	return out
}

// Flush implements blockcache.BuildingBlock.
func (p *Profiler[K, V]) Flush() iter.Seq2[K, V] {
	var snapshot []blockcache.Pair[K, V]

	timeIt(&p.flush, func() {
		for k, v := range p.inner.Flush() {
			snapshot = append(snapshot, blockcache.Pair[K, V]{Key: k, Value: v})
		}
	})

	return func(yield func(K, V) bool) {
		for _, pr := range snapshot {
			if !yield(pr.Key, pr.Value) {
				return
			}
		}
	}
}

func (p *Profiler[K, V]) recordHitMiss(hit bool) {
	if hit {
		p.hits.Add(1)
	} else {
		p.misses.Add(1)
	}
}

// Get implements blockcache.Accessor when the inner container does,
// recording a hit/miss.
func (p *Profiler[K, V]) Get(key K) (*V, bool) {
	accessor, ok := p.inner.(blockcache.Accessor[K, V])
	if !ok {
		return nil, false
	}

	var (
		v     *V
		found bool
	)

	timeIt(&p.get, func() { v, found = accessor.Get(key) })
	p.recordHitMiss(found)

	return v, found
}

// Report is one line of the textual counters report.
type Report struct {
	Method  string
	Count   int64
	TotalNs int64
	MeanNs  float64
	HitRate float64
	HasHits bool
}

// Reports returns one Report per tracked method.
func (p *Profiler[K, V]) Reports() []Report {
	entries := []struct {
		name string
		stat *methodStat
	}{
		{"capacity", &p.capacity},
		{"size", &p.size},
		{"contains", &p.contains},
		{"take", &p.take},
		{"take_multiple", &p.takeMultiple},
		{"pop", &p.pop},
		{"push", &p.push},
		{"flush", &p.flush},
		{"get", &p.get},
	}

	reports := make([]Report, 0, len(entries))

	hits, misses := p.hits.Load(), p.misses.Load()

	for _, e := range entries {
		count := e.stat.count.Load()

		r := Report{
			Method:  e.name,
			Count:   count,
			TotalNs: e.stat.elapsed.Load(),
		}

		if count > 0 {
			r.MeanNs = float64(r.TotalNs) / float64(count)
		}

		if (e.name == "take" || e.name == "take_multiple" || e.name == "get") && hits+misses > 0 {
			r.HasHits = true
			r.HitRate = float64(hits) / float64(hits+misses)
		}

		reports = append(reports, r)
	}

	return reports
}

// WriteReport writes the textual report to w, one method per line.
func (p *Profiler[K, V]) WriteReport(w io.Writer) error {
	for _, r := range p.Reports() {
		var err error
		if r.HasHits {
			_, err = fmt.Fprintf(w, "%s.%s count=%d total_ns=%d mean_ns=%.2f hit_rate=%.4f\n",
				p.name, r.Method, r.Count, r.TotalNs, r.MeanNs, r.HitRate)
		} else {
			_, err = fmt.Fprintf(w, "%s.%s count=%d total_ns=%d mean_ns=%.2f\n",
				p.name, r.Method, r.Count, r.TotalNs, r.MeanNs)
		}

		if err != nil {
			return err
		}
	}

	return nil
}

// Sink identifies a profiler report destination.
type Sink int

const (
	// SinkDiscard drops the report.
	SinkDiscard Sink = iota
	// SinkStdout writes the report to os.Stdout.
	SinkStdout
	// SinkFile appends the report to a named file on each flush; the file
	// is created if missing and is never truncated.
	SinkFile
)

// FlushTo writes the current report to the given sink. For SinkFile, path
// names the destination file; every flush appends to it, and a file that
// already exists is not truncated first.
func (p *Profiler[K, V]) FlushTo(sink Sink, path string) error {
	switch sink {
	case SinkDiscard:
		return nil
	case SinkStdout:
		return p.WriteReport(os.Stdout)
	case SinkFile:
		flags := os.O_WRONLY | os.O_CREATE | os.O_APPEND

		f, err := os.OpenFile(path, flags, 0o644)
		if err != nil {
			return fmt.Errorf("profiler: open sink file: %w", err)
		}
		defer f.Close()

		return p.WriteReport(f)
	default:
		return fmt.Errorf("profiler: unknown sink %d", sink)
	}
}
