// Package guard contains the domain types and compiled-index pipeline for the
// content guardrail engine: rules, compiled indices, and match results.
package guard

import "time"

// ViolationType identifies which matcher stage produced a Violation.
type ViolationType string

const (
	ViolationKeyword   ViolationType = "keyword"
	ViolationLemma     ViolationType = "lemma_keyword"
	ViolationStemmed   ViolationType = "stemmed_keyword"
	ViolationFuzzy     ViolationType = "fuzzy_keyword"
	ViolationPattern   ViolationType = "pattern"
	ViolationSemantic  ViolationType = "semantic"
)

// Status is the final verdict attached to an EvaluationResult.
type Status string

const (
	StatusViolation Status = "violation"
	StatusSafe      Status = "safe"
	StatusUnsafe    Status = "unsafe"
	StatusWarning   Status = "warning"
	StatusInvalid   Status = "invalid"
	StatusError     Status = "error"
)

// Rule is a single named guardrail: a set of keywords, patterns, and examples
// that identify text that should be flagged.
type Rule struct {
	// ID uniquely identifies this rule within a RuleSet.
	ID string `yaml:"id" json:"id"`
	// Category groups rules for reporting (defaults to "general").
	Category string `yaml:"category,omitempty" json:"category,omitempty"`
	// Description is shown to operators when a rule fires.
	Description string `yaml:"description,omitempty" json:"description,omitempty"`
	// Response is optional user-facing text shown when this rule matches.
	Response string `yaml:"response,omitempty" json:"response,omitempty"`
	// Keywords are literal surface forms indexed for exact/lemma/stem/fuzzy matching.
	Keywords []string `yaml:"keywords,omitempty" json:"keywords,omitempty"`
	// Patterns are regular expression sources, compiled case-insensitive.
	Patterns []string `yaml:"patterns,omitempty" json:"patterns,omitempty"`
	// Examples are reference sentences used for semantic (embedding) matching.
	Examples []string `yaml:"examples,omitempty" json:"examples,omitempty"`
	// Threshold is the minimum cosine similarity for a semantic match, in [0,1].
	Threshold float64 `yaml:"threshold,omitempty" json:"threshold,omitempty"`
	// ExpandSynonyms enables synonym-source expansion of Keywords at compile time.
	ExpandSynonyms bool `yaml:"expand_synonyms,omitempty" json:"expand_synonyms,omitempty"`
	// Gate is an optional CEL boolean expression evaluated over toxicity-oracle
	// category scores. When present it replaces the fixed max-score threshold
	// check for this rule's category during verdict mapping.
	Gate string `yaml:"gate,omitempty" json:"gate,omitempty"`
}

// DefaultThreshold is applied to rules that do not specify one.
const DefaultThreshold = 0.75

// RuleSetConfig holds tunables that apply to the whole RuleSet.
type RuleSetConfig struct {
	// MinWordLengthForFuzzy is the minimum token length considered for fuzzy matching.
	MinWordLengthForFuzzy int `yaml:"min_word_length_for_fuzzy,omitempty" json:"min_word_length_for_fuzzy,omitempty"`
	// Whitelist is unioned with the built-in function-word list and suppressed
	// from fuzzy/keyword indexing.
	Whitelist []string `yaml:"whitelist,omitempty" json:"whitelist,omitempty"`
}

// DefaultMinWordLengthForFuzzy is used when RuleSetConfig.MinWordLengthForFuzzy is unset.
const DefaultMinWordLengthForFuzzy = 4

// RuleSet is an ordered collection of Rules plus shared configuration.
// An empty RuleSet is a legal operating state: every text yields "safe".
type RuleSet struct {
	Rules  []Rule        `yaml:"rules" json:"rules"`
	Config RuleSetConfig `yaml:"config,omitempty" json:"config,omitempty"`
	// Mtime is the modification time of the source document this RuleSet was
	// parsed from, used to decide whether a reload is needed.
	Mtime time.Time `yaml:"-" json:"-"`
}

// Violation records one piece of evidence that a rule matched the input text.
type Violation struct {
	RuleID     string        `json:"rule_id"`
	Type       ViolationType `json:"type"`
	Matched    string        `json:"matched"`
	Confidence float64       `json:"confidence"`
	Details    string        `json:"details,omitempty"`
	Category   string        `json:"category,omitempty"`
}

// dedupeKey returns the tuple identifying a unique piece of evidence.
func (v Violation) dedupeKey() [3]string {
	return [3]string{v.RuleID, string(v.Type), v.Matched}
}

// CheckResult is the cacheable output of the Matcher Pipeline.
type CheckResult struct {
	Violations []Violation `json:"violations"`
}

// RuleDetail is summary metadata about a rule referenced by a violation.
type RuleDetail struct {
	RuleID      string `json:"rule_id"`
	Description string `json:"description,omitempty"`
	Response    string `json:"response,omitempty"`
	Category    string `json:"category,omitempty"`
}

// EvaluationResult wraps a CheckResult with the orchestrator's final verdict.
type EvaluationResult struct {
	Status         Status                 `json:"status"`
	Message        string                 `json:"message,omitempty"`
	Violations     []Violation            `json:"violations,omitempty"`
	RuleDetails    []RuleDetail           `json:"rule_details,omitempty"`
	ToxicityScores map[string]float64     `json:"toxicity_scores,omitempty"`
	Metadata       map[string]interface{} `json:"metadata,omitempty"`
	RequestID      string                 `json:"request_id"`
}

// CacheEntry is the serialized form of a CheckResult stored under a text fingerprint.
type CacheEntry struct {
	Result    CheckResult `json:"result"`
	ExpiresAt time.Time   `json:"expires_at"`
}
