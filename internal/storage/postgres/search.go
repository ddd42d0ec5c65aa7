package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/pgvector/pgvector-go"

	"github.com/talentsift/resumatch/internal/domain"
	"github.com/talentsift/resumatch/internal/domain/resume"
	"github.com/talentsift/resumatch/internal/storage"
)

// <=> is pgvector cosine distance; score = max(0, 1 - distance), the
// same clamp applied before thresholding on the redis path. Rows with
// a NULL embedding are excluded, so vector-less resumes never match.
const searchSQL = `
	SELECT id, filename, source_url, content, created_at,
	       GREATEST(0, 1 - (embedding <=> $1))::float8 AS score
	FROM resumes
	WHERE embedding IS NOT NULL AND GREATEST(0, 1 - (embedding <=> $1)) >= $2
	ORDER BY embedding <=> $1
	LIMIT $3`

// VectorSearch returns resumes with cosine similarity >= minScore,
// best first, at most limit entries. The hit resumes carry the zero
// vector; callers needing the stored embedding use Get.
func (s *Store) VectorSearch(ctx context.Context, vector []float32, minScore float64, limit int) ([]storage.Hit, error) {
	if len(vector) == 0 {
		return nil, fmt.Errorf("query vector is empty")
	}
	if limit <= 0 {
		return nil, fmt.Errorf("limit must be positive")
	}

	rows, err := s.pool.Query(ctx, searchSQL, pgvector.NewVector(vector), minScore, limit)
	if err != nil {
		return nil, &storage.Error{Op: storage.OpQuery, Err: err}
	}
	defer rows.Close()

	var hits []storage.Hit
	for rows.Next() {
		var (
			id, filename, sourceURL, content string
			createdAt                        time.Time
			score                            float64
		)
		if err := rows.Scan(&id, &filename, &sourceURL, &content, &createdAt, &score); err != nil {
			return nil, &storage.Error{Op: storage.OpQuery, Err: err}
		}

		hits = append(hits, storage.Hit{
			Resume: resume.Reconstruct(id, filename, sourceURL, content, domain.ZeroVector(s.cfg.Dim), createdAt),
			Score:  score,
		})
	}
	if err := rows.Err(); err != nil {
		return nil, &storage.Error{Op: storage.OpQuery, Err: err}
	}
	return hits, nil
}
