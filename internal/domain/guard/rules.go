package guard

import (
	"fmt"
	"regexp"
	"strings"
)

// builtinWhitelist is the built-in set of common function words suppressed
// from fuzzy and keyword indexing regardless of per-RuleSet configuration.
var builtinWhitelist = []string{
	"a", "an", "the", "and", "or", "but", "if", "then", "else", "when",
	"at", "by", "for", "with", "about", "against", "between", "into",
	"through", "during", "before", "after", "above", "below", "to", "from",
	"up", "down", "in", "out", "on", "off", "over", "under", "again",
	"further", "once", "here", "there", "all", "any", "both", "each",
	"few", "more", "most", "other", "some", "such", "no", "nor", "not",
	"only", "own", "same", "so", "than", "too", "very", "can", "will",
	"just", "should", "now", "i", "me", "my", "myself", "we", "our",
	"ours", "ourselves", "you", "your", "yours", "yourself", "yourselves",
	"he", "him", "his", "himself", "she", "her", "hers", "herself", "it",
	"its", "itself", "they", "them", "their", "theirs", "themselves",
	"what", "which", "who", "whom", "this", "that", "these", "those",
	"am", "is", "are", "was", "were", "be", "been", "being", "have",
	"has", "had", "having", "do", "does", "did", "doing", "would",
	"could", "ought", "im", "youre", "hes", "shes", "its", "were",
	"theyre", "ive", "youve", "weve", "theyve", "isnt", "arent", "wasnt",
	"werent", "hasnt", "havent", "hadnt", "doesnt", "dont", "didnt",
	"cant", "couldnt", "shouldnt", "wont", "wouldnt",
}

// Whitelist returns the union of the built-in function-word list and the
// RuleSet's configured whitelist, all lowercased.
func (rs RuleSet) Whitelist() map[string]struct{} {
	set := make(map[string]struct{}, len(builtinWhitelist)+len(rs.Config.Whitelist))
	for _, w := range builtinWhitelist {
		set[w] = struct{}{}
	}
	for _, w := range rs.Config.Whitelist {
		set[strings.ToLower(strings.TrimSpace(w))] = struct{}{}
	}
	return set
}

// MinWordLengthForFuzzy returns the configured minimum, or the default.
func (rs RuleSet) MinWordLengthForFuzzy() int {
	if rs.Config.MinWordLengthForFuzzy > 0 {
		return rs.Config.MinWordLengthForFuzzy
	}
	return DefaultMinWordLengthForFuzzy
}

// ValidationIssue describes a single rule rejected during validation.
type ValidationIssue struct {
	RuleID string
	Reason string
}

func (i ValidationIssue) Error() string {
	return fmt.Sprintf("rule %q: %s", i.RuleID, i.Reason)
}

// ValidateRules checks each rule for the required invariants (unique id,
// patterns compile, examples non-empty when present) and returns the rules
// that passed plus a list of issues for the rules that were skipped.
// Invalid rules are dropped rather than failing the whole load.
func ValidateRules(rules []Rule) ([]Rule, []ValidationIssue) {
	seen := make(map[string]struct{}, len(rules))
	valid := make([]Rule, 0, len(rules))
	var issues []ValidationIssue

	for _, r := range rules {
		if r.ID == "" {
			issues = append(issues, ValidationIssue{RuleID: "<empty>", Reason: "missing id"})
			continue
		}
		if _, dup := seen[r.ID]; dup {
			issues = append(issues, ValidationIssue{RuleID: r.ID, Reason: "duplicate id"})
			continue
		}
		if r.Examples != nil && len(r.Examples) == 0 {
			issues = append(issues, ValidationIssue{RuleID: r.ID, Reason: "examples present but empty"})
			continue
		}

		badPattern := false
		for _, p := range r.Patterns {
			if _, err := regexp.Compile("(?i)" + p); err != nil {
				issues = append(issues, ValidationIssue{RuleID: r.ID, Reason: fmt.Sprintf("pattern %q does not compile: %v", p, err)})
				badPattern = true
				break
			}
		}
		if badPattern {
			continue
		}

		if r.Category == "" {
			r.Category = "general"
		}
		if r.Threshold == 0 {
			r.Threshold = DefaultThreshold
		}

		seen[r.ID] = struct{}{}
		valid = append(valid, r)
	}

	return valid, issues
}
