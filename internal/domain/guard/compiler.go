package guard

import (
	"context"
	"log/slog"
	"regexp"
	"strings"

	porterstemmer "github.com/blevesearch/go-porterstemmer"

	"github.com/textguard/textguard/internal/port/outbound"
)

const (
	maxSynsetsPerKeyword     = 3
	maxLemmasPerSynset       = 3
	maxAcceptedSynonymsTotal = 5
	minSynonymLemmaLength    = 3
	minKeywordIndexLength    = 2
	minStemIndexLength       = 3
)

// Compiler turns a RuleSet into a fresh, immutable Snapshot of compiled
// indices. Each call to Compile is independent and side-effect free; the
// caller is responsible for publishing the result (see Loader).
type Compiler struct {
	synonyms   outbound.SynonymSource
	embeddings outbound.EmbeddingOracle
	logger     *slog.Logger
}

// NewCompiler creates a Compiler. synonyms and embeddings may be nil, in
// which case synonym expansion and semantic indexing are silently skipped.
func NewCompiler(synonyms outbound.SynonymSource, embeddings outbound.EmbeddingOracle, logger *slog.Logger) *Compiler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Compiler{synonyms: synonyms, embeddings: embeddings, logger: logger}
}

// Compile builds a fresh Snapshot from rs. Rules should already have passed
// ValidateRules; Compile defensively re-skips any pattern that still fails
// to compile rather than failing the whole build.
func (c *Compiler) Compile(ctx context.Context, rs RuleSet) *Snapshot {
	snap := &Snapshot{
		KeywordIndex:   make(map[string][]KeywordEntry),
		StemIndex:      make(map[string][]StemEntry),
		PatternIndex:   make(map[string][]CompiledPattern),
		EmbeddingIndex: make(map[string]EmbeddingGroup),
		RuleDetails:    make(map[string]RuleDetail, len(rs.Rules)),
		Gates:          make(map[string]string),
		RuleSet:        rs,
	}

	whitelist := rs.Whitelist()
	gatesByCategory := make(map[string][]string)

	for _, rule := range rs.Rules {
		snap.RuleDetails[rule.ID] = RuleDetail{
			RuleID:      rule.ID,
			Description: rule.Description,
			Response:    rule.Response,
			Category:    rule.Category,
		}
		if rule.Gate != "" {
			gatesByCategory[rule.Category] = append(gatesByCategory[rule.Category], rule.Gate)
		}

		c.indexKeywords(ctx, &rule, whitelist, snap)
		c.compilePatterns(&rule, snap)
		c.computeEmbeddings(ctx, &rule, snap)
	}

	for category, exprs := range gatesByCategory {
		snap.Gates[category] = combineGateExpressions(exprs)
	}

	return snap
}

// combineGateExpressions joins multiple rules' gate expressions declared
// against the same toxicity category into one CEL expression: the category
// is gated if any contributing rule's gate evaluates true.
func combineGateExpressions(exprs []string) string {
	if len(exprs) == 1 {
		return exprs[0]
	}
	parts := make([]string, len(exprs))
	for i, expr := range exprs {
		parts[i] = "(" + expr + ")"
	}
	return strings.Join(parts, " || ")
}

// indexKeywords expands declared keywords with synonyms, applies the
// whitelist filter, and inserts surviving forms into the keyword and stem
// indices.
func (c *Compiler) indexKeywords(ctx context.Context, rule *Rule, whitelist map[string]struct{}, snap *Snapshot) {
	forms := c.expandKeywords(ctx, rule)

	for _, form := range forms {
		form = strings.ToLower(strings.TrimSpace(form))
		if form == "" {
			continue
		}
		if _, blocked := whitelist[form]; blocked {
			continue
		}

		if len(form) >= minKeywordIndexLength {
			snap.KeywordIndex[form] = append(snap.KeywordIndex[form], KeywordEntry{
				RuleID:   rule.ID,
				Category: rule.Category,
			})
		}

		stem := porterstemmer.StemString(form)
		if stem != form && len(stem) >= minStemIndexLength {
			snap.StemIndex[stem] = append(snap.StemIndex[stem], StemEntry{
				RuleID:   rule.ID,
				Category: rule.Category,
				Original: form,
			})
		}
	}
}

// expandKeywords returns the rule's declared keywords plus, when
// ExpandSynonyms is set, up to maxAcceptedSynonymsTotal additional lemmas
// drawn from up to maxSynsetsPerKeyword synsets of maxLemmasPerSynset lemmas
// each.
func (c *Compiler) expandKeywords(ctx context.Context, rule *Rule) []string {
	forms := make([]string, 0, len(rule.Keywords))
	for _, kw := range rule.Keywords {
		forms = append(forms, strings.ToLower(strings.TrimSpace(kw)))
	}

	if !rule.ExpandSynonyms || c.synonyms == nil {
		return forms
	}

	for _, kw := range rule.Keywords {
		original := strings.ToLower(strings.TrimSpace(kw))
		if original == "" {
			continue
		}

		synsets, err := c.synonyms.Synsets(ctx, original)
		if err != nil {
			c.logger.Warn("synonym lookup failed", "rule", rule.ID, "keyword", original, "error", err)
			continue
		}

		accepted := 0
		for si, synset := range synsets {
			if si >= maxSynsetsPerKeyword || accepted >= maxAcceptedSynonymsTotal {
				break
			}
			li := 0
			for _, lemma := range synset.Lemmas {
				if li >= maxLemmasPerSynset || accepted >= maxAcceptedSynonymsTotal {
					break
				}
				lemma = strings.ToLower(strings.TrimSpace(lemma))
				if len(lemma) < minSynonymLemmaLength || lemma == original {
					continue
				}
				forms = append(forms, lemma)
				accepted++
				li++
			}
		}
	}

	return forms
}

// compilePatterns compiles each of the rule's pattern sources case-insensitively,
// skipping and logging any pattern that fails to compile.
func (c *Compiler) compilePatterns(rule *Rule, snap *Snapshot) {
	if len(rule.Patterns) == 0 {
		return
	}
	compiled := make([]CompiledPattern, 0, len(rule.Patterns))
	for _, src := range rule.Patterns {
		re, err := regexp.Compile("(?i)" + src)
		if err != nil {
			c.logger.Warn("pattern compile failed, skipping", "rule", rule.ID, "pattern", src, "error", err)
			continue
		}
		compiled = append(compiled, CompiledPattern{RuleID: rule.ID, Category: rule.Category, Regexp: re})
	}
	if len(compiled) > 0 {
		snap.PatternIndex[rule.ID] = compiled
	}
}

// computeEmbeddings calls the embedding oracle once per example and stores
// the resulting vectors alongside the example strings and threshold.
// Embedding failures are caught, logged, and the offending example is
// dropped; the semantic stage proceeds with whatever vectors remain.
func (c *Compiler) computeEmbeddings(ctx context.Context, rule *Rule, snap *Snapshot) {
	if len(rule.Examples) == 0 || c.embeddings == nil {
		return
	}

	threshold := rule.Threshold
	if threshold == 0 {
		threshold = DefaultThreshold
	}

	group := EmbeddingGroup{RuleID: rule.ID, Category: rule.Category, Threshold: threshold}
	for _, example := range rule.Examples {
		vec, err := c.embeddings.Encode(ctx, example)
		if err != nil {
			c.logger.Warn("embedding failed, skipping example", "rule", rule.ID, "error", err)
			continue
		}
		group.Vectors = append(group.Vectors, vec)
		group.Examples = append(group.Examples, example)
	}

	if len(group.Vectors) > 0 {
		snap.EmbeddingIndex[rule.ID] = group
	}
}
