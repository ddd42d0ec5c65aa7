package rank

import (
	"context"

	"github.com/talentsift/resumatch/internal/domain"
	"github.com/talentsift/resumatch/internal/storage"
)

// SearchStore is the storage contract for ranking.
type SearchStore interface {
	VectorSearch(ctx context.Context, vector []float32, minScore float64, limit int) ([]storage.Hit, error)
}

// Embedder vectorizes the job description.
type Embedder interface {
	Embed(ctx context.Context, text string) (domain.EmbeddingResult, error)
}

// Generator produces per-match feedback.
type Generator interface {
	Generate(ctx context.Context, jobDescription, resumeText string) (string, error)
}
