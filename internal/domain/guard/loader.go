package guard

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"gopkg.in/yaml.v3"
)

// Engine owns the lifecycle of a RuleSet's Compiled Indices: it loads the
// rule document, validates and compiles it, and publishes the result as an
// immutable Snapshot via a single atomic swap. Readers (the Matcher) hold a
// snapshot reference for the duration of one check and never observe a
// partially rebuilt index.
type Engine struct {
	path     string
	compiler *Compiler
	logger   *slog.Logger

	snapshot atomic.Value // stores *Snapshot
	mu       sync.Mutex   // serializes Load/Reload writers only

	lastReload time.Time
}

// NewEngine reads and compiles the rule document at path. A missing file
// yields an empty RuleSet and a logged warning rather than a fatal error. An
// unreadable or unparseable file also does not prevent startup: the engine
// comes up operating on an empty snapshot and the *LoadError is returned
// alongside it so the caller can surface it without treating it as fatal.
func NewEngine(ctx context.Context, path string, compiler *Compiler, logger *slog.Logger) (*Engine, error) {
	if logger == nil {
		logger = slog.Default()
	}
	e := &Engine{path: path, compiler: compiler, logger: logger}
	err := e.Load(ctx, true)
	return e, err
}

// readDocument parses the rule document at path. A missing file returns an
// empty RuleSet with no error (logged by the caller); any other read or
// parse failure returns a *LoadError.
func (e *Engine) readDocument() (RuleSet, time.Time, error) {
	info, err := os.Stat(e.path)
	if os.IsNotExist(err) {
		return RuleSet{}, time.Time{}, nil
	}
	if err != nil {
		return RuleSet{}, time.Time{}, &LoadError{Path: e.path, Err: err}
	}

	data, err := os.ReadFile(e.path)
	if err != nil {
		return RuleSet{}, time.Time{}, &LoadError{Path: e.path, Err: err}
	}

	var rs RuleSet
	if err := yaml.Unmarshal(data, &rs); err != nil {
		return RuleSet{}, time.Time{}, &LoadError{Path: e.path, Err: fmt.Errorf("parse: %w", err)}
	}

	rs.Mtime = info.ModTime()
	return rs, info.ModTime(), nil
}

// Load reads the rule document and, if its mtime has advanced since the last
// reload (or force is true), validates, compiles, and publishes a new
// Snapshot. It is a no-op when mtime has not advanced and force is false.
func (e *Engine) Load(ctx context.Context, force bool) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	rs, mtime, err := e.readDocument()
	if err != nil {
		e.logger.Error("rule document unreadable or unparseable, keeping previous snapshot", "path", e.path, "error", err)
		if e.snapshot.Load() == nil {
			// First load with no prior snapshot to fall back to: operate
			// with an empty ruleset rather than crash.
			e.publish(e.compiler.Compile(ctx, RuleSet{}))
		}
		return err
	}

	if !force && !mtime.After(e.lastReload) {
		return nil
	}

	valid, issues := ValidateRules(rs.Rules)
	for _, issue := range issues {
		e.logger.Warn("skipping invalid rule", "rule_id", issue.RuleID, "reason", issue.Reason)
	}
	rs.Rules = valid

	snap := e.compiler.Compile(ctx, rs)
	e.publish(snap)
	e.lastReload = mtime

	e.logger.Info("rule document loaded",
		"path", e.path,
		"rules", len(rs.Rules),
		"keyword_forms", len(snap.KeywordIndex),
		"stem_forms", len(snap.StemIndex),
	)
	return nil
}

func (e *Engine) publish(snap *Snapshot) {
	e.snapshot.Store(snap)
}

// Snapshot returns the current compiled indices. Safe for concurrent use
// without locking: atomic.Value guarantees a reader never observes a
// partially constructed Snapshot.
func (e *Engine) Snapshot() *Snapshot {
	v := e.snapshot.Load()
	if v == nil {
		return &Snapshot{
			KeywordIndex:   map[string][]KeywordEntry{},
			StemIndex:      map[string][]StemEntry{},
			PatternIndex:   map[string][]CompiledPattern{},
			EmbeddingIndex: map[string]EmbeddingGroup{},
			RuleDetails:    map[string]RuleDetail{},
			Gates:          map[string]string{},
		}
	}
	return v.(*Snapshot)
}

// Reload forces a rebuild of the compiled indices regardless of mtime, for
// use by an explicit admin reload request or a SIGHUP handler.
func (e *Engine) Reload(ctx context.Context) error {
	return e.Load(ctx, true)
}

// RuleSummaries lists {id, description, category} for every currently loaded
// rule, in the order they were declared.
func (e *Engine) RuleSummaries() []RuleDetail {
	snap := e.Snapshot()
	out := make([]RuleDetail, 0, len(snap.RuleSet.Rules))
	for _, r := range snap.RuleSet.Rules {
		out = append(out, RuleDetail{RuleID: r.ID, Description: r.Description, Category: r.Category})
	}
	return out
}
