package synonym

import (
	"context"
	"testing"
)

func TestSynsets_KnownWord(t *testing.T) {
	s := New()
	synsets, err := s.Synsets(context.Background(), "kill")
	if err != nil {
		t.Fatalf("Synsets() error: %v", err)
	}
	if len(synsets) == 0 {
		t.Fatal("expected at least one synset for 'kill'")
	}
}

func TestSynsets_CaseAndWhitespaceInsensitive(t *testing.T) {
	s := New()
	synsets, err := s.Synsets(context.Background(), "  KILL  ")
	if err != nil {
		t.Fatalf("Synsets() error: %v", err)
	}
	if len(synsets) == 0 {
		t.Fatal("expected lookup to be case- and whitespace-insensitive")
	}
}

func TestSynsets_UnknownWordReturnsNilNoError(t *testing.T) {
	s := New()
	synsets, err := s.Synsets(context.Background(), "xyznotaword")
	if err != nil {
		t.Fatalf("Synsets() error: %v", err)
	}
	if synsets != nil {
		t.Fatalf("expected nil synsets for an unknown word, got %+v", synsets)
	}
}
