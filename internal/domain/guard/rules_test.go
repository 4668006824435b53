package guard

import "testing"

func TestValidateRules_AcceptsValidRule(t *testing.T) {
	rules := []Rule{
		{ID: "r1", Keywords: []string{"spam"}},
	}

	valid, issues := ValidateRules(rules)
	if len(issues) != 0 {
		t.Fatalf("expected no issues, got %v", issues)
	}
	if len(valid) != 1 {
		t.Fatalf("expected 1 valid rule, got %d", len(valid))
	}
	if valid[0].Category != "general" {
		t.Errorf("expected default category %q, got %q", "general", valid[0].Category)
	}
	if valid[0].Threshold != DefaultThreshold {
		t.Errorf("expected default threshold %v, got %v", DefaultThreshold, valid[0].Threshold)
	}
}

func TestValidateRules_RejectsMissingID(t *testing.T) {
	rules := []Rule{{Keywords: []string{"spam"}}}

	valid, issues := ValidateRules(rules)
	if len(valid) != 0 {
		t.Fatalf("expected 0 valid rules, got %d", len(valid))
	}
	if len(issues) != 1 || issues[0].Reason != "missing id" {
		t.Fatalf("expected one 'missing id' issue, got %v", issues)
	}
}

func TestValidateRules_RejectsDuplicateID(t *testing.T) {
	rules := []Rule{
		{ID: "dup", Keywords: []string{"a"}},
		{ID: "dup", Keywords: []string{"b"}},
	}

	valid, issues := ValidateRules(rules)
	if len(valid) != 1 {
		t.Fatalf("expected 1 valid rule, got %d", len(valid))
	}
	if len(issues) != 1 || issues[0].Reason != "duplicate id" {
		t.Fatalf("expected one 'duplicate id' issue, got %v", issues)
	}
}

func TestValidateRules_RejectsEmptyExamplesSlice(t *testing.T) {
	rules := []Rule{{ID: "r1", Examples: []string{}}}

	valid, issues := ValidateRules(rules)
	if len(valid) != 0 {
		t.Fatalf("expected 0 valid rules, got %d", len(valid))
	}
	if len(issues) != 1 || issues[0].Reason != "examples present but empty" {
		t.Fatalf("expected 'examples present but empty' issue, got %v", issues)
	}
}

func TestValidateRules_NilExamplesIsFine(t *testing.T) {
	rules := []Rule{{ID: "r1", Keywords: []string{"a"}, Examples: nil}}

	valid, issues := ValidateRules(rules)
	if len(issues) != 0 {
		t.Fatalf("expected no issues for nil examples, got %v", issues)
	}
	if len(valid) != 1 {
		t.Fatalf("expected 1 valid rule, got %d", len(valid))
	}
}

func TestValidateRules_RejectsBadPattern(t *testing.T) {
	rules := []Rule{{ID: "r1", Patterns: []string{"("}}}

	valid, issues := ValidateRules(rules)
	if len(valid) != 0 {
		t.Fatalf("expected 0 valid rules, got %d", len(valid))
	}
	if len(issues) != 1 {
		t.Fatalf("expected one issue, got %v", issues)
	}
}

func TestValidateRules_PreservesExplicitCategoryAndThreshold(t *testing.T) {
	rules := []Rule{{ID: "r1", Category: "violence", Threshold: 0.5, Keywords: []string{"a"}}}

	valid, _ := ValidateRules(rules)
	if valid[0].Category != "violence" {
		t.Errorf("expected category preserved, got %q", valid[0].Category)
	}
	if valid[0].Threshold != 0.5 {
		t.Errorf("expected threshold preserved, got %v", valid[0].Threshold)
	}
}

func TestValidateRules_InvalidRuleDoesNotFailWholeLoad(t *testing.T) {
	rules := []Rule{
		{ID: "good", Keywords: []string{"a"}},
		{Keywords: []string{"bad, no id"}},
		{ID: "also-good", Keywords: []string{"b"}},
	}

	valid, issues := ValidateRules(rules)
	if len(valid) != 2 {
		t.Fatalf("expected 2 valid rules, got %d", len(valid))
	}
	if len(issues) != 1 {
		t.Fatalf("expected 1 issue, got %d", len(issues))
	}
}

func TestRuleSetWhitelist_IncludesBuiltinsAndConfigured(t *testing.T) {
	rs := RuleSet{Config: RuleSetConfig{Whitelist: []string{"CustomWord", " spaced "}}}
	wl := rs.Whitelist()

	if _, ok := wl["the"]; !ok {
		t.Error("expected builtin whitelist entry 'the' to be present")
	}
	if _, ok := wl["customword"]; !ok {
		t.Error("expected configured whitelist entry to be lowercased")
	}
	if _, ok := wl["spaced"]; !ok {
		t.Error("expected configured whitelist entry to be trimmed")
	}
}

func TestRuleSetMinWordLengthForFuzzy_DefaultsWhenUnset(t *testing.T) {
	rs := RuleSet{}
	if got := rs.MinWordLengthForFuzzy(); got != DefaultMinWordLengthForFuzzy {
		t.Errorf("expected default %d, got %d", DefaultMinWordLengthForFuzzy, got)
	}
}

func TestRuleSetMinWordLengthForFuzzy_UsesConfigured(t *testing.T) {
	rs := RuleSet{Config: RuleSetConfig{MinWordLengthForFuzzy: 6}}
	if got := rs.MinWordLengthForFuzzy(); got != 6 {
		t.Errorf("expected 6, got %d", got)
	}
}
