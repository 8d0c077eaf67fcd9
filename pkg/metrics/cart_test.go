package metrics

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
)

func TestCartMetricsExportsCountersAndHistogram(t *testing.T) {
	reg := prometheus.NewRegistry()
	metrics := NewCartMetrics(reg)
	metrics.Observe("remote", "save", 250*time.Millisecond, nil)
	metrics.Observe("remote", "save", 10*time.Millisecond, errors.New("offline"))
	metrics.IncStale()

	mfs, err := reg.Gather()
	if err != nil {
		t.Fatalf("gather metrics: %v", err)
	}

	if got, err := fetchCounterValue(mfs, "cart_persist_success", "backend", "remote"); err != nil {
		t.Fatalf("fetch success: %v", err)
	} else if got != 1 {
		t.Fatalf("expected success=1, got %f", got)
	}

	if got, err := fetchCounterValue(mfs, "cart_persist_failure", "op", "save"); err != nil {
		t.Fatalf("fetch failure: %v", err)
	} else if got != 1 {
		t.Fatalf("expected failure=1, got %f", got)
	}

	if got, err := fetchHistogramSum(mfs, "cart_persist_duration_seconds", "backend", "remote"); err != nil {
		t.Fatalf("fetch duration: %v", err)
	} else if got <= 0 {
		t.Fatalf("expected duration sum > 0, got %f", got)
	}

	mf := findMetricFamily(mfs, "cart_persist_stale_dropped")
	if mf == nil || mf.GetMetric()[0].GetCounter().GetValue() != 1 {
		t.Fatalf("expected stale counter at 1")
	}
}

func TestCacheMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	metrics := NewCacheMetrics(reg)
	metrics.Hit("vendors")
	metrics.Hit("vendors")
	metrics.Miss("products")

	mfs, err := reg.Gather()
	if err != nil {
		t.Fatalf("gather metrics: %v", err)
	}
	if got, err := fetchCounterValue(mfs, "catalog_cache_lookups", "listing", "vendors"); err != nil || got != 2 {
		t.Fatalf("expected 2 vendor hits, got %f (%v)", got, err)
	}
}

func TestNilMetricsAreNoops(t *testing.T) {
	var cart *CartMetrics
	cart.Observe("local", "save", time.Millisecond, nil)
	cart.IncStale()
	NewCartMetrics(nil).Observe("local", "save", time.Millisecond, nil)

	var cache *CacheMetrics
	cache.Hit("vendors")

	var ident *IdentityMetrics
	ident.Transition("login")
	NewIdentityMetrics(nil).Transition("login")
}

func TestIdentityMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	metrics := NewIdentityMetrics(reg)
	metrics.Transition("login")
	metrics.Transition("login")
	metrics.Transition("")

	mfs, err := reg.Gather()
	if err != nil {
		t.Fatalf("gather metrics: %v", err)
	}
	if got, err := fetchCounterValue(mfs, "identity_transitions", "kind", "login"); err != nil || got != 2 {
		t.Fatalf("expected 2 logins, got %f (%v)", got, err)
	}
	if got, err := fetchCounterValue(mfs, "identity_transitions", "kind", "unknown"); err != nil || got != 1 {
		t.Fatalf("expected blank kind counted as unknown, got %f (%v)", got, err)
	}
}

func fetchCounterValue(mfs []*dto.MetricFamily, name, label, value string) (float64, error) {
	mf := findMetricFamily(mfs, name)
	if mf == nil {
		return 0, fmt.Errorf("metric %q not found", name)
	}
	for _, metric := range mf.GetMetric() {
		if matchesLabel(metric.GetLabel(), label, value) {
			return metric.GetCounter().GetValue(), nil
		}
	}
	return 0, fmt.Errorf("metric %q missing label %s=%s", name, label, value)
}

func fetchHistogramSum(mfs []*dto.MetricFamily, name, label, value string) (float64, error) {
	mf := findMetricFamily(mfs, name)
	if mf == nil {
		return 0, fmt.Errorf("metric %q not found", name)
	}
	for _, metric := range mf.GetMetric() {
		if matchesLabel(metric.GetLabel(), label, value) {
			return metric.GetHistogram().GetSampleSum(), nil
		}
	}
	return 0, fmt.Errorf("histogram %q missing label %s=%s", name, label, value)
}

func findMetricFamily(mfs []*dto.MetricFamily, name string) *dto.MetricFamily {
	for _, mf := range mfs {
		if mf.GetName() == name {
			return mf
		}
	}
	return nil
}

func matchesLabel(labels []*dto.LabelPair, name, value string) bool {
	for _, label := range labels {
		if label.GetName() == name && label.GetValue() == value {
			return true
		}
	}
	return false
}
