// Package synonym provides an in-process outbound.SynonymSource. No
// WordNet-style synonym dictionary dependency was found anywhere in the
// reference corpus, so this adapter ships a small static map rather than
// reach for an unvalidated third-party lexical database.
package synonym

import (
	"context"
	"strings"

	"github.com/textguard/textguard/internal/port/outbound"
)

// Static is a fixed, in-memory outbound.SynonymSource keyed by lowercase
// word. It is intended to cover a handful of commonly flagged terms;
// operators who need broader coverage should front it with a real lexical
// database adapter implementing the same port.
type Static struct {
	synsets map[string][]outbound.Synset
}

// New creates a Static synonym source with the builtin synset table.
func New() *Static {
	return &Static{synsets: builtinSynsets}
}

// Synsets returns the known synsets for word, or nil if none are known.
func (s *Static) Synsets(_ context.Context, word string) ([]outbound.Synset, error) {
	return s.synsets[strings.ToLower(strings.TrimSpace(word))], nil
}

var _ outbound.SynonymSource = (*Static)(nil)

var builtinSynsets = map[string][]outbound.Synset{
	"kill": {
		{Lemmas: []string{"murder", "slay", "eliminate"}},
		{Lemmas: []string{"destroy", "end", "terminate"}},
	},
	"hurt": {
		{Lemmas: []string{"harm", "injure", "wound"}},
		{Lemmas: []string{"damage", "hurt", "bruise"}},
	},
	"hate": {
		{Lemmas: []string{"despise", "loathe", "detest"}},
	},
	"stupid": {
		{Lemmas: []string{"idiotic", "moronic", "dumb"}},
		{Lemmas: []string{"foolish", "senseless", "brainless"}},
	},
	"invest": {
		{Lemmas: []string{"fund", "finance", "capitalize"}},
		{Lemmas: []string{"speculate", "stake", "venture"}},
	},
	"steal": {
		{Lemmas: []string{"rob", "pilfer", "embezzle"}},
		{Lemmas: []string{"thieve", "loot", "plunder"}},
	},
	"threat": {
		{Lemmas: []string{"menace", "warning", "intimidation"}},
	},
	"drug": {
		{Lemmas: []string{"narcotic", "substance", "stimulant"}},
	},
	"attack": {
		{Lemmas: []string{"assault", "strike", "raid"}},
		{Lemmas: []string{"offensive", "onslaught", "ambush"}},
	},
	"suicide": {
		{Lemmas: []string{"self-harm", "overdose"}},
	},
}
