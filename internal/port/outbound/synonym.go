package outbound

import "context"

// Synset is one sense of a word: a group of lemmas sharing that sense.
type Synset struct {
	Lemmas []string
}

// SynonymSource looks up candidate synonym lemmas for a keyword at rule
// compile time. Treated as an opaque external collaborator; the compiler
// applies its own caps (synsets considered, lemmas per synset, accepted
// total) on top of whatever the source returns.
type SynonymSource interface {
	Synsets(ctx context.Context, word string) ([]Synset, error)
}
