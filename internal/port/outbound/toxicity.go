package outbound

import (
	"context"
	"errors"
)

// ToxicityCategories are the fixed score keys returned by the toxicity oracle.
var ToxicityCategories = []string{
	"toxic", "severe_toxic", "obscene", "threat", "insult", "identity_hate",
}

// ErrOracleUnavailable wraps any oracle failure (non-200, timeout, network
// error) after the client's single retry has been exhausted.
var ErrOracleUnavailable = errors.New("toxicity oracle unavailable")

// ToxicityOracle scores text across a fixed set of toxicity categories.
// Implementations never return partial results mixed with an error: either a
// complete score map or ErrOracleUnavailable (wrapped with context).
type ToxicityOracle interface {
	Score(ctx context.Context, text string) (map[string]float64, error)
}
