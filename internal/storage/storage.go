// Package storage defines the persistence contracts implemented by the
// redis and postgres drivers. Both drivers speak domain values, so the
// use cases never see driver wire formats.
package storage

import (
	"context"
	"time"

	"github.com/talentsift/resumatch/internal/domain/resume"
)

// Hit is a single vector-search hit.
type Hit struct {
	Resume resume.Resume
	Score  float64
}

// Page is one listing page.
type Page struct {
	Resumes []resume.Resume
	Total   int
	// Skipped counts stored records that failed integrity checks and
	// were dropped from this page. Callers log it.
	Skipped int
}

// ResumeStore is the resume persistence contract.
//
// VectorSearch returns hits with similarity >= minScore, best first,
// at most limit entries. Resumes whose embedding is the zero vector
// are never returned by VectorSearch.
type ResumeStore interface {
	Insert(ctx context.Context, r resume.Resume) error
	Get(ctx context.Context, id string) (resume.Resume, error)
	Delete(ctx context.Context, id string) error
	List(ctx context.Context, offset, limit int) (Page, error)
	Count(ctx context.Context) (int, error)
	VectorSearch(ctx context.Context, vector []float32, minScore float64, limit int) ([]Hit, error)

	// EnsureIndex creates the schema and vector index idempotently.
	// The configured embedding dimension is baked into the DDL.
	EnsureIndex(ctx context.Context) error

	Ping(ctx context.Context) error
	WaitForReady(ctx context.Context, timeout time.Duration) error
	Close()
}

// EmbeddingCache persists embeddings keyed by content hash.
// A cached vector of the wrong dimension is reported as a miss.
type EmbeddingCache interface {
	Get(ctx context.Context, key string) ([]float32, bool, error)
	Set(ctx context.Context, key string, vector []float32) error
}
