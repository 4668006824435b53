// Package http provides the HTTP transport adapter for the content
// guardrail engine.
//
// # Usage
//
// Create and start an HTTP transport:
//
//	transport := http.NewHTTPTransport(evaluator,
//	    http.WithAddr(":8080"),
//	    http.WithLogger(logger),
//	    http.WithHealthChecker(hc),
//	)
//	err := transport.Start(ctx)
//
// # Endpoints
//
//	POST /v1/check         - Evaluate a single piece of text
//	POST /v1/batch_check    - Evaluate a batch of texts
//	GET /health             - Liveness/readiness check
//	GET /metrics            - Prometheus metrics
//	GET /rules              - Loaded rule listing (set via WithRulesHandler)
//
// The admin reload endpoint is served by a separate handler supplied via
// WithExtraHandler and mounted under /admin/, gated by its own API key
// middleware.
//
// # Middleware Chain
//
// Requests pass through middleware in this order (outermost first):
//
//  1. MetricsMiddleware - records duration and status
//  2. RequestIDMiddleware - extracts/generates a request ID and enriches the logger
//  3. Handler - routes to /v1/check, /v1/batch_check, /health, /metrics,
//     /rules, and /admin/
package http
