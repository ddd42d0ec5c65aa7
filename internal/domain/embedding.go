package domain

import (
	"context"
)

// Embedder is the shared text vectorization contract between layers.
// Implementations must be safe for concurrent use and deterministic
// for identical input.
type Embedder interface {
	Embed(ctx context.Context, text string) (EmbeddingResult, error)
}

// HealthChecker verifies embedding provider availability.
type HealthChecker interface {
	HealthCheck(ctx context.Context) error
}

// EmbeddingResult carries the embedding vector and token usage through the decorator chain.
type EmbeddingResult struct {
	Embedding    []float32
	PromptTokens int
	TotalTokens  int
}

// ZeroVector returns the all-zeros vector of the given dimension.
// It is the canonical embedding of empty text.
func ZeroVector(dim int) []float32 {
	return make([]float32, dim)
}

// IsZeroVector reports whether every component of v is zero.
// True for empty and nil vectors.
func IsZeroVector(v []float32) bool {
	for _, x := range v {
		if x != 0 {
			return false
		}
	}
	return true
}

// CheckDim returns a dimension mismatch error when len(v) != want.
func CheckDim(v []float32, want int) error {
	if len(v) != want {
		return NewDimMismatch(len(v), want)
	}
	return nil
}
