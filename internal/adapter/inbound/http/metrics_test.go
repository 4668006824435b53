package http

import (
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestNewMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewMetrics(reg)

	if m.RequestsTotal == nil {
		t.Error("RequestsTotal not initialized")
	}
	if m.RequestDuration == nil {
		t.Error("RequestDuration not initialized")
	}
	if m.VerdictsTotal == nil {
		t.Error("VerdictsTotal not initialized")
	}
	if m.CacheHitsTotal == nil {
		t.Error("CacheHitsTotal not initialized")
	}
	if m.CacheMissesTotal == nil {
		t.Error("CacheMissesTotal not initialized")
	}
	if m.WorkerPoolDepth == nil {
		t.Error("WorkerPoolDepth not initialized")
	}
}

func TestMetricsRecording(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewMetrics(reg)

	m.RequestsTotal.WithLabelValues("POST", "ok").Inc()
	count := testutil.ToFloat64(m.RequestsTotal.WithLabelValues("POST", "ok"))
	if count != 1 {
		t.Errorf("RequestsTotal = %v, want 1", count)
	}

	m.CacheHitsTotal.Inc()
	if got := testutil.ToFloat64(m.CacheHitsTotal); got != 1 {
		t.Errorf("CacheHitsTotal = %v, want 1", got)
	}

	m.WorkerPoolDepth.Set(3)
	if got := testutil.ToFloat64(m.WorkerPoolDepth); got != 3 {
		t.Errorf("WorkerPoolDepth = %v, want 3", got)
	}

	m.RequestDuration.WithLabelValues("POST").Observe(0.1)
	gathered, err := reg.Gather()
	if err != nil {
		t.Fatalf("Failed to gather metrics: %v", err)
	}

	found := false
	for _, mf := range gathered {
		if strings.Contains(mf.GetName(), "request_duration") {
			found = true
			break
		}
	}
	if !found {
		t.Error("request_duration histogram not found in gathered metrics")
	}
}
