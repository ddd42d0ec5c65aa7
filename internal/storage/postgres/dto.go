package postgres

import (
	"fmt"
	"time"

	"github.com/pgvector/pgvector-go"

	"github.com/talentsift/resumatch/internal/domain"
	"github.com/talentsift/resumatch/internal/domain/resume"
)

// rowScanner is satisfied by both pgx.Row and pgx.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

// scanResume reads one row of the canonical resume column list:
// id, filename, source_url, content, embedding, created_at.
func scanResume(row rowScanner, dim int) (resume.Resume, error) {
	var (
		id, filename, sourceURL, content string
		vec                              *pgvector.Vector
		createdAt                        time.Time
	)
	if err := row.Scan(&id, &filename, &sourceURL, &content, &vec, &createdAt); err != nil {
		return resume.Resume{}, err
	}
	return hydrate(id, filename, sourceURL, content, vec, createdAt, dim)
}

// hydrate maps a scanned row onto the domain value. A NULL embedding
// hydrates as the zero vector; any stored vector must match dim.
func hydrate(id, filename, sourceURL, content string, vec *pgvector.Vector, createdAt time.Time, dim int) (resume.Resume, error) {
	vector := domain.ZeroVector(dim)
	if vec != nil {
		vector = vec.Slice()
		if err := domain.CheckDim(vector, dim); err != nil {
			return resume.Resume{}, fmt.Errorf("resume %s: %w", id, err)
		}
	}
	return resume.Reconstruct(id, filename, sourceURL, content, vector, createdAt), nil
}

// embeddingValue maps a domain vector to its column value. The zero
// vector is stored as NULL so the row stays out of the HNSW index and
// can never appear in search results.
func embeddingValue(v []float32) *pgvector.Vector {
	if domain.IsZeroVector(v) {
		return nil
	}
	vec := pgvector.NewVector(v)
	return &vec
}
