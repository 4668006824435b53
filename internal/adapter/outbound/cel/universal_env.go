package cel

import (
	"github.com/google/cel-go/cel"
)

// scoreVariables are the per-category CEL variables available to a rule's
// gate expression, one float per toxicity category. The derived max_score
// and max_category variables are declared alongside them in
// NewVerdictEnvironment.
var scoreVariables = []string{
	"toxic", "severe_toxic", "obscene", "threat", "insult", "identity_hate",
}

// NewVerdictEnvironment creates a CEL environment for evaluating per-rule
// gate expressions over toxicity-oracle category scores. Every category is
// bound as a float64 in [0,1]; max_score and max_category are the derived
// worst-case score and its category name.
func NewVerdictEnvironment() (*cel.Env, error) {
	opts := make([]cel.EnvOption, 0, len(scoreVariables)+2)
	for _, name := range scoreVariables {
		opts = append(opts, cel.Variable(name, cel.DoubleType))
	}
	opts = append(opts,
		cel.Variable("max_score", cel.DoubleType),
		cel.Variable("max_category", cel.StringType),
	)
	return cel.NewEnv(opts...)
}

// BuildScoreActivation creates a CEL activation map from a toxicity score
// map and its derived max score/category. Missing categories are treated as
// zero, matching the oracle contract.
func BuildScoreActivation(scores map[string]float64, maxScore float64, maxCategory string) map[string]any {
	activation := make(map[string]any, len(scoreVariables)+2)
	for _, name := range scoreVariables {
		activation[name] = scores[name]
	}
	activation["max_score"] = maxScore
	activation["max_category"] = maxCategory
	return activation
}
