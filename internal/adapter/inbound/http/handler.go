// Package http provides the HTTP transport adapter for the guardrail engine.
package http

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/textguard/textguard/internal/domain/guard"
	"github.com/textguard/textguard/internal/observability"
	"github.com/textguard/textguard/internal/service"
)

var checkTracer = observability.Tracer("textguard/http")

// maxRequestBodySize is the maximum allowed request body size (1 MB).
const maxRequestBodySize = 1 << 20

// maxBatchItems is the maximum number of items accepted by /v1/batch_check.
const maxBatchItems = 100

// CheckHandler serves the text-evaluation endpoints on top of an Evaluator.
type CheckHandler struct {
	evaluator *service.Evaluator
	logger    *slog.Logger
}

// NewCheckHandler creates a CheckHandler.
func NewCheckHandler(evaluator *service.Evaluator, logger *slog.Logger) *CheckHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &CheckHandler{evaluator: evaluator, logger: logger}
}

// checkRequest is the JSON request body for POST /v1/check.
type checkRequest struct {
	Text    string            `json:"text"`
	Context map[string]string `json:"context,omitempty"`
}

// checkResponse is the JSON response for POST /v1/check.
type checkResponse struct {
	Status         string                 `json:"status"`
	Message        string                 `json:"message,omitempty"`
	Violations     []guard.Violation      `json:"violations,omitempty"`
	RuleDetails    []guard.RuleDetail     `json:"rule_details,omitempty"`
	ToxicityScores map[string]float64     `json:"toxicity_scores,omitempty"`
	Metadata       map[string]interface{} `json:"metadata,omitempty"`
	RequestID      string                 `json:"request_id"`
}

// batchCheckRequest is the JSON request body for POST /v1/batch_check.
type batchCheckRequest struct {
	Items []checkRequest `json:"items"`
}

// batchCheckResponse is the JSON response for POST /v1/batch_check.
type batchCheckResponse struct {
	BatchID          string          `json:"batch_id"`
	Results          []checkResponse `json:"results"`
	TotalItems       int             `json:"total_items"`
	ProcessingTimeMs int64           `json:"processing_time_ms"`
}

// HandleCheck handles POST /v1/check.
func (h *CheckHandler) HandleCheck(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		h.respondError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	req, err := decodeCheckRequest(w, r)
	if err != nil {
		h.respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	ctx, span := checkTracer.Start(r.Context(), "check", trace.WithSpanKind(trace.SpanKindServer))
	result := h.evaluator.Evaluate(ctx, req.Text)
	span.SetAttributes(attribute.String("guard.status", string(result.Status)))
	span.End()

	h.respondJSON(w, statusToHTTPCode(result.Status), toCheckResponse(result))
}

// HandleBatchCheck handles POST /v1/batch_check.
func (h *CheckHandler) HandleBatchCheck(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		h.respondError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	start := time.Now()

	r.Body = http.MaxBytesReader(w, r.Body, maxRequestBodySize)
	defer func() { _ = r.Body.Close() }()

	var req batchCheckRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.respondError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if len(req.Items) == 0 {
		h.respondError(w, http.StatusBadRequest, "items must contain at least one entry")
		return
	}
	if len(req.Items) > maxBatchItems {
		h.respondError(w, http.StatusBadRequest, "items must contain at most 100 entries")
		return
	}

	ctx, span := checkTracer.Start(r.Context(), "batch_check", trace.WithSpanKind(trace.SpanKindServer))
	span.SetAttributes(attribute.Int("guard.batch_size", len(req.Items)))
	defer span.End()

	results := make([]checkResponse, len(req.Items))
	for i, item := range req.Items {
		result := h.evaluator.Evaluate(ctx, item.Text)
		results[i] = toCheckResponse(result)
	}

	h.respondJSON(w, http.StatusOK, batchCheckResponse{
		BatchID:          generateRequestID(),
		Results:          results,
		TotalItems:       len(results),
		ProcessingTimeMs: time.Since(start).Milliseconds(),
	})
}

// decodeCheckRequest reads and validates a single check request body.
func decodeCheckRequest(w http.ResponseWriter, r *http.Request) (checkRequest, error) {
	r.Body = http.MaxBytesReader(w, r.Body, maxRequestBodySize)
	defer func() { _ = r.Body.Close() }()

	var req checkRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		return checkRequest{}, errInvalidJSON
	}
	return req, nil
}

var errInvalidJSON = &httpError{"invalid JSON body"}

type httpError struct{ msg string }

func (e *httpError) Error() string { return e.msg }

// toCheckResponse maps a domain EvaluationResult to its wire representation.
func toCheckResponse(result guard.EvaluationResult) checkResponse {
	return checkResponse{
		Status:         string(result.Status),
		Message:        result.Message,
		Violations:     result.Violations,
		RuleDetails:    result.RuleDetails,
		ToxicityScores: result.ToxicityScores,
		Metadata:       result.Metadata,
		RequestID:      result.RequestID,
	}
}

// statusToHTTPCode maps an evaluation status to an HTTP status code. Every
// status is a successful evaluation from the transport's point of view
// except for malformed requests (caught earlier) and internal errors.
func statusToHTTPCode(status guard.Status) int {
	if status == guard.StatusError {
		return http.StatusInternalServerError
	}
	if status == guard.StatusInvalid {
		return http.StatusBadRequest
	}
	return http.StatusOK
}

func (h *CheckHandler) respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.logger.Error("failed to encode JSON response", "error", err)
	}
}

func (h *CheckHandler) respondError(w http.ResponseWriter, status int, message string) {
	h.respondJSON(w, status, map[string]string{"error": message})
}

// RulesHandler serves the unauthenticated GET /rules listing.
type RulesHandler struct {
	engine *guard.Engine
	logger *slog.Logger
}

// NewRulesHandler creates a RulesHandler.
func NewRulesHandler(engine *guard.Engine, logger *slog.Logger) *RulesHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &RulesHandler{engine: engine, logger: logger}
}

// HandleRules handles GET /rules.
func (h *RulesHandler) HandleRules(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusMethodNotAllowed)
		_ = json.NewEncoder(w).Encode(map[string]string{"error": "method not allowed"})
		return
	}

	summaries := h.engine.RuleSummaries()
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if err := json.NewEncoder(w).Encode(summaries); err != nil {
		h.logger.Error("failed to encode rules response", "error", err)
	}
}
