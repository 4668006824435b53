package http

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"runtime"
	"time"

	"github.com/textguard/textguard/internal/domain/guard"
	"github.com/textguard/textguard/internal/port/outbound"
)

// HealthResponse is the JSON response from the /health endpoint.
type HealthResponse struct {
	Status  string            `json:"status"` // "healthy" or "unhealthy"
	Checks  map[string]string `json:"checks"`
	Version string            `json:"version,omitempty"`
}

// HealthChecker verifies component health: the rule engine has a loaded
// snapshot, and the result cache backend (if any) responds to a trivial
// probe.
type HealthChecker struct {
	engine  *guard.Engine
	cache   outbound.ResultCache
	version string
}

// NewHealthChecker creates a HealthChecker. Pass nil cache if none is
// configured.
func NewHealthChecker(engine *guard.Engine, cache outbound.ResultCache, version string) *HealthChecker {
	return &HealthChecker{engine: engine, cache: cache, version: version}
}

// Check performs health checks on all components.
func (h *HealthChecker) Check() HealthResponse {
	checks := make(map[string]string)
	healthy := true

	if h.engine != nil {
		snap := h.engine.Snapshot()
		checks["rule_engine"] = fmt.Sprintf("ok: %d rules loaded", len(snap.RuleSet.Rules))
	} else {
		checks["rule_engine"] = "not configured"
		healthy = false
	}

	if h.cache != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		// A miss is a perfectly healthy outcome; only a panic/hang would
		// indicate trouble, and Get's contract degrades errors to a miss.
		h.cache.Get(ctx, "textguard:healthcheck")
		checks["result_cache"] = "ok"
	} else {
		checks["result_cache"] = "not configured"
	}

	checks["goroutines"] = fmt.Sprintf("%d", runtime.NumGoroutine())

	status := "healthy"
	if !healthy {
		status = "unhealthy"
	}

	return HealthResponse{Status: status, Checks: checks, Version: h.version}
}

// Handler returns an HTTP handler for the health endpoint.
func (h *HealthChecker) Handler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		health := h.Check()

		w.Header().Set("Content-Type", "application/json")
		if health.Status != "healthy" {
			w.WriteHeader(http.StatusServiceUnavailable)
		} else {
			w.WriteHeader(http.StatusOK)
		}

		_ = json.NewEncoder(w).Encode(health)
	})
}
