package profiler

import "github.com/prometheus/client_golang/prometheus"

// Collector adapts a Profiler's counters to prometheus.Collector, an
// alternative to the textual sink for callers that scrape metrics rather
// than read flushed reports.
type Collector[K comparable, V any] struct {
	p *Profiler[K, V]

	count   *prometheus.Desc
	elapsed *prometheus.Desc
	hitRate *prometheus.Desc
}

// NewCollector wraps p for registration with a prometheus.Registry.
func NewCollector[K comparable, V any](p *Profiler[K, V]) *Collector[K, V] {
	labels := []string{"name", "method"}

	return &Collector[K, V]{
		p: p,
		count: prometheus.NewDesc(
			"blockcache_profiler_calls_total", "Total calls observed per method.", labels, nil,
		),
		elapsed: prometheus.NewDesc(
			"blockcache_profiler_elapsed_ns_total", "Total elapsed nanoseconds observed per method.", labels, nil,
		),
		hitRate: prometheus.NewDesc(
			"blockcache_profiler_hit_rate", "Hit rate across take/take_multiple/get calls.", []string{"name"}, nil,
		),
	}
}

// Describe implements prometheus.Collector.
func (c *Collector[K, V]) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.count
	ch <- c.elapsed
	ch <- c.hitRate
}

// Collect implements prometheus.Collector. The hit rate is a single gauge
// shared by take/take_multiple/get, emitted once per scrape.
func (c *Collector[K, V]) Collect(ch chan<- prometheus.Metric) {
	emittedHitRate := false

	for _, r := range c.p.Reports() {
		ch <- prometheus.MustNewConstMetric(c.count, prometheus.CounterValue, float64(r.Count), c.p.name, r.Method)
		ch <- prometheus.MustNewConstMetric(c.elapsed, prometheus.CounterValue, float64(r.TotalNs), c.p.name, r.Method)

		if r.HasHits && !emittedHitRate {
			ch <- prometheus.MustNewConstMetric(c.hitRate, prometheus.GaugeValue, r.HitRate, c.p.name)

			emittedHitRate = true
		}
	}
}
