// Package analyzer provides an in-process outbound.LinguisticAnalyzer. No
// tokenizer/lemmatizer library was found anywhere in the reference corpus,
// so this adapter implements tokenization, lemmatization, and stopword
// detection directly with a small rule-based suffix stripper rather than
// pulling in a general NLP dependency for a handful of English inflections.
package analyzer

import (
	"context"
	"strings"
	"unicode"

	"github.com/textguard/textguard/internal/port/outbound"
)

// Heuristic is a rule-based outbound.LinguisticAnalyzer: it splits on
// non-letter runes, lowercases, flags a fixed stopword list, and derives a
// lemma by stripping common English inflectional suffixes. It is not a
// substitute for a real lemmatizer, only a deterministic stand-in with the
// same shape so the matcher pipeline has something to run against.
type Heuristic struct {
	stopwords map[string]struct{}
}

// New creates a Heuristic analyzer with the builtin stopword list.
func New() *Heuristic {
	h := &Heuristic{stopwords: make(map[string]struct{}, len(defaultStopwords))}
	for _, w := range defaultStopwords {
		h.stopwords[w] = struct{}{}
	}
	return h
}

// Analyze tokenizes text into words, lowercases them, flags stopwords, and
// derives a lemma for each. It never fails; ctx is accepted to match the
// port signature for parity with remote implementations.
func (h *Heuristic) Analyze(_ context.Context, text string) ([]outbound.Token, error) {
	words := splitWords(text)
	tokens := make([]outbound.Token, 0, len(words))
	for _, w := range words {
		lower := strings.ToLower(w)
		_, stop := h.stopwords[lower]
		tokens = append(tokens, outbound.Token{
			Text:  lower,
			Lemma: lemmatize(lower),
			POS:   guessPOS(lower),
			Stop:  stop,
		})
	}
	return tokens, nil
}

// splitWords lowercases implicitly handled by the caller; this splits on
// runs of non-letter characters, dropping punctuation and digits as token
// separators rather than keeping them as their own tokens.
func splitWords(text string) []string {
	var words []string
	var b strings.Builder
	flush := func() {
		if b.Len() > 0 {
			words = append(words, b.String())
			b.Reset()
		}
	}
	for _, r := range text {
		if unicode.IsLetter(r) || r == '\'' {
			b.WriteRune(r)
		} else {
			flush()
		}
	}
	flush()
	return words
}

// guessPOS returns a coarse part-of-speech guess. The matcher pipeline does
// not branch on POS today; this exists so the Token contract is fully
// populated for any future stage or external analyzer swap-in that does.
func guessPOS(word string) string {
	switch {
	case len(word) == 0:
		return ""
	case strings.HasSuffix(word, "ly"):
		return "adv"
	case strings.HasSuffix(word, "ing") || strings.HasSuffix(word, "ed"):
		return "verb"
	default:
		return "noun"
	}
}

// lemmatize strips a small set of common English inflectional suffixes. It
// intentionally does not handle irregular forms or silent-e restoration
// ("invite" + "ing" -> "invit" stays as-is); the stem stage downstream
// (Porter stemming) covers cases this misses.
func lemmatize(word string) string {
	switch {
	case len(word) > 4 && strings.HasSuffix(word, "ies"):
		return word[:len(word)-3] + "y"
	case len(word) > 4 && strings.HasSuffix(word, "ing"):
		return word[:len(word)-3]
	case len(word) > 3 && strings.HasSuffix(word, "ed"):
		return word[:len(word)-2]
	case len(word) > 3 && strings.HasSuffix(word, "es") && endsInSibilant(word[:len(word)-2]):
		return word[:len(word)-2]
	case len(word) > 3 && strings.HasSuffix(word, "s") && !strings.HasSuffix(word, "ss"):
		return word[:len(word)-1]
	default:
		return word
	}
}

func endsInSibilant(word string) bool {
	for _, suffix := range []string{"s", "x", "z", "ch", "sh"} {
		if strings.HasSuffix(word, suffix) {
			return true
		}
	}
	return false
}

var _ outbound.LinguisticAnalyzer = (*Heuristic)(nil)
