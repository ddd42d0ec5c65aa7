package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/talentsift/resumatch/internal/domain"
	"github.com/talentsift/resumatch/internal/domain/resume"
	"github.com/talentsift/resumatch/internal/storage"
)

const resumeColumns = `id, filename, source_url, content, embedding, created_at`

// Insert stores a resume, overwriting any existing record with the same ID.
func (s *Store) Insert(ctx context.Context, r resume.Resume) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO resumes (id, filename, source_url, content, embedding, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (id) DO UPDATE SET
			filename   = EXCLUDED.filename,
			source_url = EXCLUDED.source_url,
			content    = EXCLUDED.content,
			embedding  = EXCLUDED.embedding,
			created_at = EXCLUDED.created_at`,
		r.ID(), r.Filename(), r.SourceURL(), r.Content(), embeddingValue(r.Vector()), r.CreatedAt())
	if err != nil {
		return &storage.Error{Op: storage.OpExec, Err: err}
	}
	return nil
}

// Get loads a resume by ID. A stored vector of the wrong dimension is
// a data integrity error, not a miss.
func (s *Store) Get(ctx context.Context, id string) (resume.Resume, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT `+resumeColumns+` FROM resumes WHERE id = $1`, id)

	r, err := scanResume(row, s.cfg.Dim)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return resume.Resume{}, fmt.Errorf("resume %s: %w", id, domain.ErrNotFound)
		}
		if errors.Is(err, domain.ErrVectorDimMismatch) {
			return resume.Resume{}, err
		}
		return resume.Resume{}, &storage.Error{Op: storage.OpQuery, Err: err}
	}
	return r, nil
}

// Delete removes a resume by ID.
func (s *Store) Delete(ctx context.Context, id string) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM resumes WHERE id = $1`, id)
	if err != nil {
		return &storage.Error{Op: storage.OpExec, Err: err}
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("resume %s: %w", id, domain.ErrNotFound)
	}
	return nil
}

// Count returns the total number of stored resumes.
func (s *Store) Count(ctx context.Context) (int, error) {
	var n int
	if err := s.pool.QueryRow(ctx, `SELECT count(*) FROM resumes`).Scan(&n); err != nil {
		return 0, &storage.Error{Op: storage.OpQuery, Err: err}
	}
	return n, nil
}

// List returns one page of resumes in ingestion order. Records whose
// stored vector fails the dimension check are dropped from the page and
// counted in Page.Skipped.
func (s *Store) List(ctx context.Context, offset, limit int) (storage.Page, error) {
	var page storage.Page

	total, err := s.Count(ctx)
	if err != nil {
		return page, err
	}
	page.Total = total

	rows, err := s.pool.Query(ctx, `
		SELECT `+resumeColumns+`
		FROM resumes
		ORDER BY created_at ASC, id ASC
		OFFSET $1 LIMIT $2`, offset, limit)
	if err != nil {
		return page, &storage.Error{Op: storage.OpQuery, Err: err}
	}
	defer rows.Close()

	for rows.Next() {
		r, err := scanResume(rows, s.cfg.Dim)
		if err != nil {
			if errors.Is(err, domain.ErrVectorDimMismatch) {
				page.Skipped++
				continue
			}
			return page, &storage.Error{Op: storage.OpQuery, Err: err}
		}
		page.Resumes = append(page.Resumes, r)
	}
	if err := rows.Err(); err != nil {
		return page, &storage.Error{Op: storage.OpQuery, Err: err}
	}
	return page, nil
}
