package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// CartMetrics records cart persistence outcomes per backend and operation.
type CartMetrics struct {
	duration *prometheus.HistogramVec
	success  *prometheus.CounterVec
	failure  *prometheus.CounterVec
	stale    prometheus.Counter
}

// NewCartMetrics registers the cart persistence metrics on the provided registerer.
func NewCartMetrics(reg prometheus.Registerer) *CartMetrics {
	if reg == nil {
		return &CartMetrics{}
	}
	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "cart_persist_duration_seconds",
		Help:    "Duration of cart persistence calls in seconds.",
		Buckets: prometheus.DefBuckets,
	}, []string{"backend", "op"})
	success := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "cart_persist_success",
		Help: "Successful cart persistence calls.",
	}, []string{"backend", "op"})
	failure := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "cart_persist_failure",
		Help: "Failed cart persistence calls.",
	}, []string{"backend", "op"})
	stale := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "cart_persist_stale_dropped",
		Help: "Queued cart snapshots skipped because a newer snapshot superseded them.",
	})
	reg.MustRegister(duration, success, failure, stale)
	return &CartMetrics{
		duration: duration,
		success:  success,
		failure:  failure,
		stale:    stale,
	}
}

// Observe records one persistence call.
func (c *CartMetrics) Observe(backend, op string, took time.Duration, err error) {
	if c == nil || c.duration == nil {
		return
	}
	backend, op = normalizeLabel(backend), normalizeLabel(op)
	c.duration.WithLabelValues(backend, op).Observe(took.Seconds())
	if err != nil {
		c.failure.WithLabelValues(backend, op).Inc()
		return
	}
	c.success.WithLabelValues(backend, op).Inc()
}

// IncStale counts a snapshot dropped by the write queue.
func (c *CartMetrics) IncStale() {
	if c == nil || c.stale == nil {
		return
	}
	c.stale.Inc()
}

// CacheMetrics counts catalog cache lookups.
type CacheMetrics struct {
	lookups *prometheus.CounterVec
}

// NewCacheMetrics registers the catalog cache counters.
func NewCacheMetrics(reg prometheus.Registerer) *CacheMetrics {
	if reg == nil {
		return &CacheMetrics{}
	}
	lookups := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "catalog_cache_lookups",
		Help: "Catalog cache lookups by listing and result.",
	}, []string{"listing", "result"})
	reg.MustRegister(lookups)
	return &CacheMetrics{lookups: lookups}
}

// Hit counts a cache hit for the listing.
func (c *CacheMetrics) Hit(listing string) { c.inc(listing, "hit") }

// Miss counts a cache miss for the listing.
func (c *CacheMetrics) Miss(listing string) { c.inc(listing, "miss") }

func (c *CacheMetrics) inc(listing, result string) {
	if c == nil || c.lookups == nil {
		return
	}
	c.lookups.WithLabelValues(normalizeLabel(listing), result).Inc()
}

func normalizeLabel(v string) string {
	if v == "" {
		return "unknown"
	}
	return v
}
