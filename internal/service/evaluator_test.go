package service

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/textguard/textguard/internal/adapter/outbound/analyzer"
	"github.com/textguard/textguard/internal/adapter/outbound/cel"
	"github.com/textguard/textguard/internal/domain/guard"
	"github.com/textguard/textguard/internal/port/outbound"
)

type fakeCache struct {
	store map[string]guard.CheckResult
}

func newFakeCache() *fakeCache {
	return &fakeCache{store: make(map[string]guard.CheckResult)}
}

func (c *fakeCache) Get(_ context.Context, fingerprint string) (guard.CheckResult, bool) {
	r, ok := c.store[fingerprint]
	return r, ok
}

func (c *fakeCache) Put(_ context.Context, fingerprint string, result guard.CheckResult, _ time.Duration) {
	c.store[fingerprint] = result
}

type fakeOracle struct {
	scores map[string]float64
	err    error
	calls  int
}

func (o *fakeOracle) Score(_ context.Context, _ string) (map[string]float64, error) {
	o.calls++
	if o.err != nil {
		return nil, o.err
	}
	return o.scores, nil
}

// newTestEvaluator wires a real Engine/Matcher/CEL evaluator against a
// no-op rule document (no rule document component here is under test) with
// the given fake oracle and cache.
func newTestEvaluator(t *testing.T, oracle outbound.ToxicityOracle, cache outbound.ResultCache) *Evaluator {
	t.Helper()
	compiler := guard.NewCompiler(nil, nil, nil)

	ctx := context.Background()
	rulesPath := t.TempDir() + "/missing-rules.yaml"
	realEngine, err := guard.NewEngine(ctx, rulesPath, compiler, nil)
	if err != nil {
		t.Fatalf("NewEngine() error: %v", err)
	}

	matcher := guard.NewMatcher(analyzer.New(), nil, nil)
	gateEval, err := cel.NewEvaluator()
	if err != nil {
		t.Fatalf("cel.NewEvaluator() error: %v", err)
	}
	pool := NewWorkerPool(ctx, 2, nil)
	t.Cleanup(pool.Stop)

	if cache == nil {
		cache = newFakeCache()
	}

	return NewEvaluator(realEngine, matcher, cache, oracle, gateEval, pool, time.Minute, nil)
}

// newTestEvaluatorWithRuleDoc is like newTestEvaluator but loads a real rule
// document, for tests that exercise rule-level behavior such as a CEL gate.
func newTestEvaluatorWithRuleDoc(t *testing.T, rulesYAML string, oracle outbound.ToxicityOracle) *Evaluator {
	t.Helper()
	compiler := guard.NewCompiler(nil, nil, nil)

	ctx := context.Background()
	rulesPath := filepath.Join(t.TempDir(), "rules.yaml")
	if err := os.WriteFile(rulesPath, []byte(rulesYAML), 0o644); err != nil {
		t.Fatalf("write rule document: %v", err)
	}

	realEngine, err := guard.NewEngine(ctx, rulesPath, compiler, nil)
	if err != nil {
		t.Fatalf("NewEngine() error: %v", err)
	}

	matcher := guard.NewMatcher(analyzer.New(), nil, nil)
	gateEval, err := cel.NewEvaluator()
	if err != nil {
		t.Fatalf("cel.NewEvaluator() error: %v", err)
	}
	pool := NewWorkerPool(ctx, 2, nil)
	t.Cleanup(pool.Stop)

	return NewEvaluator(realEngine, matcher, newFakeCache(), oracle, gateEval, pool, time.Minute, nil)
}

func TestEvaluate_EmptyTextIsInvalid(t *testing.T) {
	e := newTestEvaluator(t, &fakeOracle{scores: map[string]float64{}}, nil)

	result := e.Evaluate(context.Background(), "   ")
	if result.Status != guard.StatusInvalid {
		t.Fatalf("expected StatusInvalid, got %v", result.Status)
	}
}

func TestEvaluate_NoRulesFallsThroughToToxicityOracle(t *testing.T) {
	oracle := &fakeOracle{scores: map[string]float64{"toxic": 0.9}}
	e := newTestEvaluator(t, oracle, nil)

	result := e.Evaluate(context.Background(), "hello there")
	if result.Status != guard.StatusUnsafe {
		t.Fatalf("expected StatusUnsafe for a high toxicity score, got %v: %+v", result.Status, result)
	}
	if oracle.calls != 1 {
		t.Errorf("expected the oracle to be called once, got %d", oracle.calls)
	}
}

func TestEvaluate_LowToxicityIsSafe(t *testing.T) {
	oracle := &fakeOracle{scores: map[string]float64{"toxic": 0.01}}
	e := newTestEvaluator(t, oracle, nil)

	result := e.Evaluate(context.Background(), "hello there")
	if result.Status != guard.StatusSafe {
		t.Fatalf("expected StatusSafe for a low toxicity score, got %v", result.Status)
	}
}

func TestEvaluate_OracleUnavailableYieldsWarning(t *testing.T) {
	oracle := &fakeOracle{err: errors.New("oracle down")}
	e := newTestEvaluator(t, oracle, nil)

	result := e.Evaluate(context.Background(), "hello there")
	if result.Status != guard.StatusWarning {
		t.Fatalf("expected StatusWarning when the oracle is unavailable, got %v", result.Status)
	}
}

func TestEvaluate_CacheHitSkipsMatcherAndOracle(t *testing.T) {
	cache := newFakeCache()
	cache.store[fingerprintText("cached text")] = guard.CheckResult{
		Violations: []guard.Violation{{RuleID: "r1", Type: guard.ViolationKeyword, Matched: "x", Confidence: 1}},
	}
	oracle := &fakeOracle{scores: map[string]float64{}}
	e := newTestEvaluator(t, oracle, cache)

	result := e.Evaluate(context.Background(), "cached text")
	if result.Status != guard.StatusViolation {
		t.Fatalf("expected StatusViolation from the cached result, got %v", result.Status)
	}
	if oracle.calls != 0 {
		t.Errorf("expected the oracle not to be called on a cache hit, got %d calls", oracle.calls)
	}
}

func TestEvaluate_GateSuppressesFixedThresholdFalsePositive(t *testing.T) {
	const rulesYAML = `
rules:
  - id: insult-gate
    category: insult
    gate: "insult > 0.5"
`
	// A fixed low-toxicity threshold of 0.1 would flag this score unsafe;
	// the rule's gate requires insult > 0.5, so the verdict must be safe.
	oracle := &fakeOracle{scores: map[string]float64{"insult": 0.3}}
	e := newTestEvaluatorWithRuleDoc(t, rulesYAML, oracle)

	result := e.Evaluate(context.Background(), "hello there")
	if result.Status != guard.StatusSafe {
		t.Fatalf("expected the gate to override the fixed threshold and yield StatusSafe, got %v: %+v", result.Status, result)
	}
}

func TestEvaluate_GateFlagsUnsafeBelowFixedThreshold(t *testing.T) {
	const rulesYAML = `
rules:
  - id: insult-gate
    category: insult
    gate: "insult > 0.05"
`
	// The fixed low-toxicity threshold of 0.1 would not fire at 0.08;
	// the rule's gate requires insult > 0.05, so the verdict must flip unsafe.
	oracle := &fakeOracle{scores: map[string]float64{"insult": 0.08}}
	e := newTestEvaluatorWithRuleDoc(t, rulesYAML, oracle)

	result := e.Evaluate(context.Background(), "hello there")
	if result.Status != guard.StatusUnsafe {
		t.Fatalf("expected the gate to flag unsafe below the fixed threshold, got %v: %+v", result.Status, result)
	}
}

func TestEvaluate_RequestIDsAreUnique(t *testing.T) {
	oracle := &fakeOracle{scores: map[string]float64{}}
	e := newTestEvaluator(t, oracle, nil)

	r1 := e.Evaluate(context.Background(), "one piece of text")
	r2 := e.Evaluate(context.Background(), "another piece of text")
	if r1.RequestID == r2.RequestID {
		t.Fatal("expected distinct request IDs across calls")
	}
}
