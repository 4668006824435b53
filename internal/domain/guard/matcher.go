package guard

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"regexp"
	"sort"
	"strings"

	"github.com/agnivade/levenshtein"
	porterstemmer "github.com/blevesearch/go-porterstemmer"

	"github.com/textguard/textguard/internal/port/outbound"
)

// minCleanedLengthForFuzzy is the minimum length of the punctuation-stripped
// input required before the fuzzy stage is considered.
const minCleanedLengthForFuzzy = 4

// minWordCountForSemantic is the minimum whitespace-separated word count
// required before the semantic stage is considered.
const minWordCountForSemantic = 3

// maxViolations bounds the final, sorted violation list.
const maxViolations = 10

var nonWordRegexp = regexp.MustCompile(`[^\p{L}\p{N}\s]+`)

// Matcher runs the fixed six-stage cascade against a Snapshot.
type Matcher struct {
	analyzer   outbound.LinguisticAnalyzer
	embeddings outbound.EmbeddingOracle
	logger     *slog.Logger
}

// NewMatcher creates a Matcher bound to the given linguistic analyzer and
// embedding oracle. Both are external collaborators; embeddings may be nil
// to disable the semantic stage entirely.
func NewMatcher(analyzer outbound.LinguisticAnalyzer, embeddings outbound.EmbeddingOracle, logger *slog.Logger) *Matcher {
	if logger == nil {
		logger = slog.Default()
	}
	return &Matcher{analyzer: analyzer, embeddings: embeddings, logger: logger}
}

// accumulator collects violations while enforcing the dedupe key.
type accumulator struct {
	seen       map[[3]string]struct{}
	violations []Violation
}

func newAccumulator() *accumulator {
	return &accumulator{seen: make(map[[3]string]struct{})}
}

func (a *accumulator) add(v Violation) {
	key := v.dedupeKey()
	if _, dup := a.seen[key]; dup {
		return
	}
	a.seen[key] = struct{}{}
	a.violations = append(a.violations, v)
}

// Check runs the matcher cascade against text using snap, returning a
// deterministic CheckResult for the (text, snapshot) pair.
func (m *Matcher) Check(ctx context.Context, snap *Snapshot, text string) (CheckResult, error) {
	lower := strings.ToLower(text)
	acc := newAccumulator()

	m.runPatternStage(lower, snap, acc)

	tokens, err := m.analyzer.Analyze(ctx, text)
	if err != nil {
		return CheckResult{}, fmt.Errorf("linguistic analysis failed: %w", err)
	}

	m.runExactKeywordStage(tokens, snap, acc)
	m.runLemmaStage(tokens, snap, acc)
	m.runStemStage(tokens, snap, acc)

	cleaned := strings.TrimSpace(nonWordRegexp.ReplaceAllString(lower, " "))

	if len(acc.violations) == 0 && len(cleaned) >= minCleanedLengthForFuzzy {
		m.runFuzzyStage(tokens, snap, acc)
	}

	if len(acc.violations) == 0 && wordCount(cleaned) >= minWordCountForSemantic {
		m.runSemanticStage(ctx, text, snap, acc)
	}

	return finalize(acc.violations), nil
}

func wordCount(cleaned string) int {
	if cleaned == "" {
		return 0
	}
	return len(strings.Fields(cleaned))
}

// finalize sorts by confidence descending and truncates to the top
// maxViolations. Ties are broken by stage order, then by rule ID and
// matched text, so the order never depends on map iteration.
func finalize(violations []Violation) CheckResult {
	stageRank := map[ViolationType]int{
		ViolationPattern: 0, ViolationKeyword: 1, ViolationLemma: 2,
		ViolationStemmed: 3, ViolationFuzzy: 4, ViolationSemantic: 5,
	}
	sort.SliceStable(violations, func(i, j int) bool {
		a, b := violations[i], violations[j]
		if a.Confidence != b.Confidence {
			return a.Confidence > b.Confidence
		}
		if stageRank[a.Type] != stageRank[b.Type] {
			return stageRank[a.Type] < stageRank[b.Type]
		}
		if a.RuleID != b.RuleID {
			return a.RuleID < b.RuleID
		}
		return a.Matched < b.Matched
	})
	if len(violations) > maxViolations {
		violations = violations[:maxViolations]
	}
	return CheckResult{Violations: violations}
}

// runPatternStage always runs: every compiled pattern is matched against the
// lowercased input. Regex runtime failures cannot occur here (regexp.Regexp
// never errors at match time), but a panic recovery keeps a single bad
// pattern from taking down the whole evaluation.
func (m *Matcher) runPatternStage(lower string, snap *Snapshot, acc *accumulator) {
	defer func() {
		if r := recover(); r != nil {
			m.logger.Error("pattern stage panicked, continuing with no pattern violations", "error", r)
		}
	}()

	for ruleID, patterns := range snap.PatternIndex {
		for _, cp := range patterns {
			matches := cp.Regexp.FindAllString(lower, -1)
			distinct := make(map[string]struct{}, len(matches))
			for _, match := range matches {
				if _, dup := distinct[match]; dup {
					continue
				}
				distinct[match] = struct{}{}
				acc.add(Violation{
					RuleID:     ruleID,
					Type:       ViolationPattern,
					Matched:    match,
					Confidence: 1.0,
					Category:   cp.Category,
				})
			}
		}
	}
}

func (m *Matcher) runExactKeywordStage(tokens []outbound.Token, snap *Snapshot, acc *accumulator) {
	for _, tok := range tokens {
		if tok.Stop || tok.Text == "" {
			continue
		}
		form := strings.ToLower(tok.Text)
		for _, entry := range snap.KeywordIndex[form] {
			acc.add(Violation{
				RuleID:     entry.RuleID,
				Type:       ViolationKeyword,
				Matched:    form,
				Confidence: 1.0,
				Category:   entry.Category,
			})
		}
	}
}

// runLemmaStage looks up each token's lemma in keyword_index. A lemma equal
// to the token's own surface form is skipped, since the exact keyword stage
// already reports that hit.
func (m *Matcher) runLemmaStage(tokens []outbound.Token, snap *Snapshot, acc *accumulator) {
	for _, tok := range tokens {
		if tok.Stop || tok.Lemma == "" {
			continue
		}
		form := strings.ToLower(tok.Lemma)
		if form == strings.ToLower(tok.Text) {
			continue
		}
		for _, entry := range snap.KeywordIndex[form] {
			acc.add(Violation{
				RuleID:     entry.RuleID,
				Type:       ViolationLemma,
				Matched:    form,
				Confidence: 0.95,
				Category:   entry.Category,
			})
		}
	}
}

func (m *Matcher) runStemStage(tokens []outbound.Token, snap *Snapshot, acc *accumulator) {
	for _, tok := range tokens {
		if tok.Stop || tok.Text == "" {
			continue
		}
		form := strings.ToLower(tok.Text)
		stem := porterstemmer.StemString(form)
		for _, entry := range snap.StemIndex[stem] {
			acc.add(Violation{
				RuleID:     entry.RuleID,
				Type:       ViolationStemmed,
				Matched:    form,
				Confidence: 0.90,
				Details:    entry.Original,
				Category:   entry.Category,
			})
		}
	}
}

// runFuzzyStage compares every eligible token against every keyword_index
// entry via Levenshtein distance, gated by the caller on stages 1-4 being
// empty and the cleaned input being long enough.
func (m *Matcher) runFuzzyStage(tokens []outbound.Token, snap *Snapshot, acc *accumulator) {
	whitelist := snap.RuleSet.Whitelist()
	minLen := snap.RuleSet.MinWordLengthForFuzzy()

	for _, tok := range tokens {
		token := strings.ToLower(tok.Text)
		if len(token) < minLen {
			continue
		}
		if _, blocked := whitelist[token]; blocked {
			continue
		}

		allowed := int(math.Floor(0.3 * float64(len(token))))
		if allowed > 2 {
			allowed = 2
		}

		for keyword, entries := range snap.KeywordIndex {
			if abs(len(keyword)-len(token)) > allowed {
				continue
			}
			distance := levenshtein.ComputeDistance(token, keyword)
			if distance > allowed {
				continue
			}

			denom := len(keyword)
			if denom == 0 {
				denom = 1
			}
			confidence := 1 - float64(distance)/float64(denom)

			minConfidence := 0.6
			if len(token) < 5 {
				minConfidence = 0.7
			}
			if confidence < minConfidence {
				continue
			}

			for _, entry := range entries {
				acc.add(Violation{
					RuleID:     entry.RuleID,
					Type:       ViolationFuzzy,
					Matched:    keyword,
					Confidence: confidence,
					Details:    token,
					Category:   entry.Category,
				})
			}
		}
	}
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}

// runSemanticStage encodes the input once and compares it against each
// rule's example vectors via cosine similarity, gated by the caller on all
// prior stages being empty and the word count threshold.
func (m *Matcher) runSemanticStage(ctx context.Context, text string, snap *Snapshot, acc *accumulator) {
	if m.embeddings == nil || len(snap.EmbeddingIndex) == 0 {
		return
	}

	vec, err := m.embeddings.Encode(ctx, text)
	if err != nil {
		m.logger.Warn("semantic stage: embedding failed, skipping", "error", err)
		return
	}

	for ruleID, group := range snap.EmbeddingIndex {
		best := -1.0
		bestExample := ""
		for i, candidate := range group.Vectors {
			sim := cosineSimilarity(vec, candidate)
			if sim > best {
				best = sim
				if i < len(group.Examples) {
					bestExample = group.Examples[i]
				}
			}
		}
		if best > group.Threshold {
			acc.add(Violation{
				RuleID:     ruleID,
				Type:       ViolationSemantic,
				Matched:    bestExample,
				Confidence: best,
				Details:    fmt.Sprintf("similarity=%.4f", best),
				Category:   group.Category,
			})
		}
	}
}

func cosineSimilarity(a, b []float32) float64 {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	var dot, normA, normB float64
	for i := 0; i < n; i++ {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}
