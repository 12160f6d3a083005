package metrics

import (
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

func TestCatalogMetricsRecordsOutcomesAndCache(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewCatalogMetrics(reg)

	m.ObserveRequest("products", 120*time.Millisecond, nil)
	m.ObserveRequest("products", 80*time.Millisecond, errors.New("boom"))
	m.CacheHit("products")
	m.CacheHit("products")
	m.CacheMiss("products")
	m.SetBreakerState("catalog", 2)

	mfs, err := reg.Gather()
	if err != nil {
		t.Fatalf("gather metrics: %v", err)
	}

	if got, err := fetchHistogramSum(mfs, "catalog_request_duration_seconds", "resource", "products"); err != nil {
		t.Fatalf("fetch duration: %v", err)
	} else if got <= 0 {
		t.Fatalf("expected duration sum > 0, got %f", got)
	}

	mf := findMetricFamily(mfs, "catalog_requests_total")
	if mf == nil || len(mf.GetMetric()) != 2 {
		t.Fatalf("expected success and error series, got %v", mf)
	}

	hits := 0.0
	for _, metric := range findMetricFamily(mfs, "catalog_cache_lookups_total").GetMetric() {
		if matchesLabel(metric.GetLabel(), "result", "hit") {
			hits = metric.GetCounter().GetValue()
		}
	}
	if hits != 2 {
		t.Fatalf("expected 2 cache hits, got %f", hits)
	}

	gauge := findMetricFamily(mfs, "catalog_breaker_state")
	if gauge == nil || gauge.GetMetric()[0].GetGauge().GetValue() != 2 {
		t.Fatalf("expected breaker state 2, got %v", gauge)
	}
}

func TestCartMetricsCounters(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewCartMetrics(reg)
	m.IncMutation("add")
	m.IncMutation("add")
	m.IncStoreError("save")
	m.IncRestoreDiscarded()

	mfs, err := reg.Gather()
	if err != nil {
		t.Fatalf("gather metrics: %v", err)
	}
	if got, err := fetchCounterValue(mfs, "cart_mutations_total", "op", "add"); err != nil || got != 2 {
		t.Fatalf("expected add=2, got %f (%v)", got, err)
	}
	if got, err := fetchCounterValue(mfs, "session_store_errors_total", "op", "save"); err != nil || got != 1 {
		t.Fatalf("expected save=1, got %f (%v)", got, err)
	}
	drops := findMetricFamily(mfs, "cart_restore_discarded_total")
	if drops == nil || drops.GetMetric()[0].GetCounter().GetValue() != 1 {
		t.Fatalf("expected one discarded restore, got %v", drops)
	}
}

func TestNilMetricsAreSafe(t *testing.T) {
	var catalog *CatalogMetrics
	catalog.ObserveRequest("x", time.Second, nil)
	catalog.CacheHit("x")
	catalog.SetBreakerState("x", 1)

	var cart *CartMetrics
	cart.IncMutation("add")
	cart.IncRestoreDiscarded()

	NewCatalogMetrics(nil).CacheMiss("x")
	NewCartMetrics(nil).IncStoreError("load")
}
