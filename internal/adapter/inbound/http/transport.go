// Package http provides the HTTP transport adapter for the guardrail engine.
package http

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/textguard/textguard/internal/service"
)

// HTTPTransport is the inbound HTTP adapter exposing the check, health,
// metrics, rules, and (optionally) admin endpoints.
type HTTPTransport struct {
	evaluator     *service.Evaluator
	server        *http.Server
	addr          string
	logger        *slog.Logger
	extraHandler  http.Handler // admin endpoints, mounted under /admin/
	rulesHandler  *RulesHandler
	healthChecker *HealthChecker
	metrics       *Metrics
}

// Option is a functional option for configuring HTTPTransport.
type Option func(*HTTPTransport)

// WithAddr sets the listen address for the HTTP server. Defaults to
// "0.0.0.0:8080".
func WithAddr(addr string) Option {
	return func(t *HTTPTransport) { t.addr = addr }
}

// WithLogger sets the logger for the HTTP transport.
func WithLogger(logger *slog.Logger) Option {
	return func(t *HTTPTransport) { t.logger = logger }
}

// WithExtraHandler sets the admin handler mounted under /admin/.
func WithExtraHandler(h http.Handler) Option {
	return func(t *HTTPTransport) { t.extraHandler = h }
}

// WithRulesHandler sets the handler for GET /rules.
func WithRulesHandler(h *RulesHandler) Option {
	return func(t *HTTPTransport) { t.rulesHandler = h }
}

// WithHealthChecker sets the health checker for the /health endpoint.
func WithHealthChecker(hc *HealthChecker) Option {
	return func(t *HTTPTransport) { t.healthChecker = hc }
}

// NewHTTPTransport creates an HTTP transport adapter wrapping the given
// evaluator.
func NewHTTPTransport(evaluator *service.Evaluator, opts ...Option) *HTTPTransport {
	t := &HTTPTransport{
		evaluator: evaluator,
		addr:      "0.0.0.0:8080",
		logger:    slog.Default(),
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Start begins accepting HTTP connections. It blocks until the context is
// cancelled or an error occurs.
func (t *HTTPTransport) Start(ctx context.Context) error {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	t.metrics = NewMetrics(reg)

	checkHandler := NewCheckHandler(t.evaluator, t.logger)

	mux := http.NewServeMux()
	mux.HandleFunc("/v1/check", checkHandler.HandleCheck)
	mux.HandleFunc("/v1/batch_check", checkHandler.HandleBatchCheck)

	if t.rulesHandler != nil {
		mux.HandleFunc("/rules", t.rulesHandler.HandleRules)
	}
	if t.extraHandler != nil {
		mux.Handle("/admin/", t.extraHandler)
	}
	if t.healthChecker != nil {
		mux.Handle("/health", t.healthChecker.Handler())
	}
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg}))
	mux.Handle("/favicon.ico", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))

	var handler http.Handler = mux
	handler = RequestIDMiddleware(t.logger)(handler)
	handler = MetricsMiddleware(t.metrics)(handler)

	t.server = &http.Server{Addr: t.addr, Handler: handler}

	errCh := make(chan error, 1)
	go func() {
		t.logger.Info("starting HTTP server", "addr", t.addr)
		err := t.server.ListenAndServe()
		if err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case <-ctx.Done():
		t.logger.Info("context cancelled, shutting down HTTP server")
		return t.shutdown()
	case err := <-errCh:
		return err
	}
}

// shutdown performs graceful shutdown of the HTTP server.
func (t *HTTPTransport) shutdown() error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := t.server.Shutdown(ctx); err != nil {
		t.logger.Error("error during server shutdown", "error", err)
		return err
	}

	t.logger.Info("HTTP server shutdown complete")
	return nil
}

// Close gracefully shuts down the transport.
func (t *HTTPTransport) Close() error {
	if t.server == nil {
		return nil
	}
	return t.shutdown()
}
