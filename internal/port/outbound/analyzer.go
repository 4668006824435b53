// Package outbound defines the ports the guard engine consumes from
// external collaborators: the linguistic analyzer, embedding oracle,
// toxicity oracle, synonym source, and result cache.
package outbound

import "context"

// Token is one unit of output from a LinguisticAnalyzer.
type Token struct {
	Text  string // original surface form
	Lemma string // dictionary form
	POS   string // part of speech tag
	Stop  bool   // true if this token is a stopword
}

// LinguisticAnalyzer tokenizes, lemmatizes, tags part-of-speech, and detects
// stopwords for a piece of text. Treated as an opaque external collaborator;
// the matcher only depends on this interface.
type LinguisticAnalyzer interface {
	Analyze(ctx context.Context, text string) ([]Token, error)
}
