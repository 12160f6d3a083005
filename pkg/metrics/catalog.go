package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// CatalogMetrics tracks upstream catalog calls and the cache in front of them.
type CatalogMetrics struct {
	duration *prometheus.HistogramVec
	requests *prometheus.CounterVec
	cache    *prometheus.CounterVec
	breaker  *prometheus.GaugeVec
}

// NewCatalogMetrics registers the catalog metrics on the provided registerer.
func NewCatalogMetrics(reg prometheus.Registerer) *CatalogMetrics {
	if reg == nil {
		return &CatalogMetrics{}
	}
	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "catalog_request_duration_seconds",
		Help:    "Duration of catalog API requests in seconds.",
		Buckets: prometheus.DefBuckets,
	}, []string{"resource"})
	requests := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "catalog_requests_total",
		Help: "Catalog API requests by outcome.",
	}, []string{"resource", "outcome"})
	cache := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "catalog_cache_lookups_total",
		Help: "Catalog cache lookups by result.",
	}, []string{"resource", "result"})
	breaker := prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "catalog_breaker_state",
		Help: "Catalog circuit breaker state (0 closed, 1 half-open, 2 open).",
	}, []string{"name"})
	reg.MustRegister(duration, requests, cache, breaker)
	return &CatalogMetrics{
		duration: duration,
		requests: requests,
		cache:    cache,
		breaker:  breaker,
	}
}

// ObserveRequest records one upstream request and its outcome.
func (c *CatalogMetrics) ObserveRequest(resource string, duration time.Duration, err error) {
	if c == nil || c.duration == nil {
		return
	}
	resource = normalizeLabel(resource)
	c.duration.WithLabelValues(resource).Observe(duration.Seconds())
	outcome := "success"
	if err != nil {
		outcome = "error"
	}
	c.requests.WithLabelValues(resource, outcome).Inc()
}

// CacheHit counts a cache hit for resource.
func (c *CatalogMetrics) CacheHit(resource string) {
	if c == nil || c.cache == nil {
		return
	}
	c.cache.WithLabelValues(normalizeLabel(resource), "hit").Inc()
}

// CacheMiss counts a cache miss for resource.
func (c *CatalogMetrics) CacheMiss(resource string) {
	if c == nil || c.cache == nil {
		return
	}
	c.cache.WithLabelValues(normalizeLabel(resource), "miss").Inc()
}

// SetBreakerState publishes the numeric breaker state.
func (c *CatalogMetrics) SetBreakerState(name string, state int) {
	if c == nil || c.breaker == nil {
		return
	}
	c.breaker.WithLabelValues(normalizeLabel(name)).Set(float64(state))
}
