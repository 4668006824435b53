package outbound

import "context"

// EmbeddingOracle encodes text into a fixed-dimension vector for semantic
// similarity matching. Treated as an opaque external collaborator returning
// an L2-comparable embedding; the matcher only needs dot product and norm.
type EmbeddingOracle interface {
	Encode(ctx context.Context, text string) ([]float32, error)
}
