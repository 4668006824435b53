// Package service contains application services that orchestrate the domain
// and outbound ports into request/response operations.
package service

import (
	"context"
	"crypto/rand"
	"encoding/binary"
	"encoding/hex"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/cespare/xxhash/v2"

	"github.com/textguard/textguard/internal/adapter/outbound/cel"
	"github.com/textguard/textguard/internal/domain/guard"
	"github.com/textguard/textguard/internal/port/outbound"
)

// defaultLowToxicityThreshold is the fixed max-score cutoff below which the
// verdict is "safe" when the highest-scoring category has no CEL gate.
const defaultLowToxicityThreshold = 0.1

// EvaluateRequest is one text submitted for guardrail evaluation.
type EvaluateRequest struct {
	Text string
}

// Evaluator is the orchestrator described by the content-guardrail pipeline:
// it validates input, consults the result cache, runs the matcher pipeline
// through a bounded worker pool, and falls back to the toxicity oracle when
// no rule fired.
type Evaluator struct {
	engine     *guard.Engine
	matcher    *guard.Matcher
	cache      outbound.ResultCache
	oracle     outbound.ToxicityOracle
	evaluator  *cel.Evaluator
	pool       *WorkerPool
	cacheTTL   time.Duration
	logger     *slog.Logger
}

// NewEvaluator wires the engine, matcher, cache, oracle, CEL gate evaluator,
// and worker pool into a request-level orchestrator.
func NewEvaluator(
	engine *guard.Engine,
	matcher *guard.Matcher,
	cache outbound.ResultCache,
	oracle outbound.ToxicityOracle,
	gateEvaluator *cel.Evaluator,
	pool *WorkerPool,
	cacheTTL time.Duration,
	logger *slog.Logger,
) *Evaluator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Evaluator{
		engine:    engine,
		matcher:   matcher,
		cache:     cache,
		oracle:    oracle,
		evaluator: gateEvaluator,
		pool:      pool,
		cacheTTL:  cacheTTL,
		logger:    logger,
	}
}

// Evaluate runs the full check pipeline for one piece of text: validation,
// cache, matcher, and (on no match) the toxicity oracle with per-rule CEL
// gates.
func (e *Evaluator) Evaluate(ctx context.Context, text string) guard.EvaluationResult {
	start := time.Now()
	requestID := newRequestID()

	if strings.TrimSpace(text) == "" {
		return guard.EvaluationResult{
			Status:    guard.StatusInvalid,
			Message:   "input text is empty or whitespace",
			RequestID: requestID,
			Metadata:  metadataFor(start),
		}
	}

	snap := e.engine.Snapshot()
	result, err := e.matchWithCache(ctx, snap, text)
	if err != nil {
		e.logger.Error("matcher pipeline failed", "request_id", requestID, "error", err)
		return guard.EvaluationResult{
			Status:    guard.StatusError,
			Message:   "internal error evaluating text",
			RequestID: requestID,
			Metadata:  metadataFor(start),
		}
	}

	if len(result.Violations) > 0 {
		return guard.EvaluationResult{
			Status:      guard.StatusViolation,
			Violations:  result.Violations,
			RuleDetails: e.ruleDetailsFor(snap, result.Violations),
			RequestID:   requestID,
			Metadata:    metadataFor(start),
		}
	}

	return e.evaluateToxicity(ctx, snap, text, requestID, start)
}

// matchWithCache consults the result cache, running the matcher pipeline
// (via the worker pool, since it is pure CPU) on a miss and populating the
// cache afterward. A cache backend failure degrades to a plain miss.
func (e *Evaluator) matchWithCache(ctx context.Context, snap *guard.Snapshot, text string) (guard.CheckResult, error) {
	fingerprint := fingerprintText(text)

	if cached, ok := e.cache.Get(ctx, fingerprint); ok {
		return cached, nil
	}

	value, err := e.pool.Submit(ctx, func() (interface{}, error) {
		return e.matcher.Check(ctx, snap, text)
	})
	if err != nil {
		return guard.CheckResult{}, err
	}
	result := value.(guard.CheckResult)

	e.cache.Put(ctx, fingerprint, result, e.cacheTTL)
	return result, nil
}

// evaluateToxicity calls the oracle and maps its scores to a verdict,
// honoring a per-rule CEL gate over the rule's category when one is
// configured in place of the fixed low-toxicity threshold.
func (e *Evaluator) evaluateToxicity(ctx context.Context, snap *guard.Snapshot, text, requestID string, start time.Time) guard.EvaluationResult {
	scores, err := e.oracle.Score(ctx, text)
	if err != nil {
		e.logger.Warn("toxicity oracle unavailable", "request_id", requestID, "error", err)
		meta := metadataFor(start)
		meta["error"] = err.Error()
		return guard.EvaluationResult{
			Status:    guard.StatusWarning,
			Message:   "content needs human review: toxicity classifier unavailable",
			RequestID: requestID,
			Metadata:  meta,
		}
	}

	maxScore, maxCategory := maxOf(scores)

	if gate, ok := snap.Gates[maxCategory]; ok && gate != "" {
		unsafe, gateErr := e.evaluateGate(gate, scores, maxScore, maxCategory)
		if gateErr != nil {
			e.logger.Warn("verdict gate evaluation failed, falling back to fixed threshold", "request_id", requestID, "category", maxCategory, "error", gateErr)
		} else {
			return e.verdictFromBool(unsafe, scores, maxScore, maxCategory, requestID, start)
		}
	}

	return e.verdictFromBool(maxScore >= defaultLowToxicityThreshold, scores, maxScore, maxCategory, requestID, start)
}

func (e *Evaluator) evaluateGate(expr string, scores map[string]float64, maxScore float64, maxCategory string) (bool, error) {
	prg, err := e.evaluator.Compile(expr)
	if err != nil {
		return false, fmt.Errorf("compile gate: %w", err)
	}
	return e.evaluator.Evaluate(prg, scores, maxScore, maxCategory)
}

func (e *Evaluator) verdictFromBool(unsafe bool, scores map[string]float64, maxScore float64, maxCategory, requestID string, start time.Time) guard.EvaluationResult {
	meta := metadataFor(start)
	meta["max_score"] = maxScore
	meta["max_category"] = maxCategory

	if !unsafe {
		return guard.EvaluationResult{
			Status:         guard.StatusSafe,
			ToxicityScores: scores,
			RequestID:      requestID,
			Metadata:       meta,
		}
	}

	return guard.EvaluationResult{
		Status:         guard.StatusUnsafe,
		Message:        fmt.Sprintf("flagged by toxicity classifier: %s=%.3f", maxCategory, maxScore),
		ToxicityScores: scores,
		RequestID:      requestID,
		Metadata:       meta,
	}
}

// ruleDetailsFor looks up {id, description, response, category} for every
// distinct rule_id referenced by violations.
func (e *Evaluator) ruleDetailsFor(snap *guard.Snapshot, violations []guard.Violation) []guard.RuleDetail {
	seen := make(map[string]struct{}, len(violations))
	details := make([]guard.RuleDetail, 0, len(violations))
	for _, v := range violations {
		if _, ok := seen[v.RuleID]; ok {
			continue
		}
		seen[v.RuleID] = struct{}{}
		if d, ok := snap.RuleDetails[v.RuleID]; ok {
			details = append(details, d)
		}
	}
	return details
}

// maxOf returns the highest of the six fixed toxicity categories and its
// name. Missing categories are treated as zero, per the oracle contract.
func maxOf(scores map[string]float64) (float64, string) {
	var best float64
	var bestCategory string
	for _, category := range outbound.ToxicityCategories {
		s := scores[category]
		if s > best || bestCategory == "" {
			best = s
			bestCategory = category
		}
	}
	return best, bestCategory
}

// fingerprintText derives the result-cache key for text: "guard:" followed
// by the hex-encoded xxhash digest.
func fingerprintText(text string) string {
	h := xxhash.Sum64String(text)
	var buf [8]byte
	binary.BigEndian.PutUint64(buf[:], h)
	return "guard:" + hex.EncodeToString(buf[:])
}

// newRequestID returns a monotonic-timestamp-prefixed identifier with a
// random tail, unique per process without a shared counter.
func newRequestID() string {
	var tail [4]byte
	_, _ = rand.Read(tail[:])
	return fmt.Sprintf("%d-%s", time.Now().UnixNano(), hex.EncodeToString(tail[:]))
}

func metadataFor(start time.Time) map[string]interface{} {
	return map[string]interface{}{
		"processing_time_ms": time.Since(start).Milliseconds(),
	}
}
