package ingest

import (
	"context"

	"github.com/talentsift/resumatch/internal/domain"
	"github.com/talentsift/resumatch/internal/domain/resume"
	"github.com/talentsift/resumatch/internal/storage"
)

// Store is the persistence contract for ingestion and retrieval.
type Store interface {
	Insert(ctx context.Context, r resume.Resume) error
	Get(ctx context.Context, id string) (resume.Resume, error)
	Delete(ctx context.Context, id string) error
	List(ctx context.Context, offset, limit int) (storage.Page, error)
	Count(ctx context.Context) (int, error)
}

// Embedder vectorizes extracted resume text.
type Embedder interface {
	Embed(ctx context.Context, text string) (domain.EmbeddingResult, error)
}

// Extractor converts an uploaded file into plain text.
type Extractor interface {
	Extract(filename string, raw []byte) (string, error)
}
