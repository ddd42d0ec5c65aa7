// Package ingest implements resume upload, retrieval, and deletion.
// An embedding is computed once at ingestion and never updated.
package ingest

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/talentsift/resumatch/internal/domain"
	"github.com/talentsift/resumatch/internal/domain/resume"
	"github.com/talentsift/resumatch/internal/storage"
)

const (
	defaultPageSize = 20
	maxPageSize     = 100
)

// Service handles the resume lifecycle.
type Service struct {
	store      Store
	embed      Embedder
	extract    Extractor
	dimensions int
	logger     *zap.Logger
}

// New creates an ingestion service. dimensions is the embedding
// dimension D every stored vector must have.
func New(store Store, embed Embedder, extract Extractor, dimensions int, logger *zap.Logger) *Service {
	return &Service{
		store:      store,
		embed:      embed,
		extract:    extract,
		dimensions: dimensions,
		logger:     logger,
	}
}

// Ingest extracts text from an uploaded file, embeds it, and persists
// the resume. A file with no extractable text is stored with the zero
// vector: it stays retrievable by ID but can never appear in ranking.
func (s *Service) Ingest(ctx context.Context, filename, sourceURL string, raw []byte) (resume.Resume, error) {
	text, err := s.extract.Extract(filename, raw)
	if err != nil {
		return resume.Resume{}, fmt.Errorf("extract text: %w", err)
	}

	r, err := resume.New(uuid.NewString(), filename, sourceURL, text, time.Now().UTC())
	if err != nil {
		return resume.Resume{}, err
	}

	if r.HasContent() {
		result, err := s.embed.Embed(ctx, r.Content())
		if err != nil {
			return resume.Resume{}, fmt.Errorf("vectorize resume: %w", err)
		}
		if err := domain.CheckDim(result.Embedding, s.dimensions); err != nil {
			return resume.Resume{}, fmt.Errorf("embedding for %q: %w", filename, err)
		}
		r = r.WithVector(result.Embedding)
	} else {
		r = r.WithVector(domain.ZeroVector(s.dimensions))
		s.logger.Warn("Resume has no extractable text, stored unsearchable",
			zap.String("resume_id", r.ID()),
			zap.String("filename", filename),
		)
	}

	if err := s.store.Insert(ctx, r); err != nil {
		return resume.Resume{}, fmt.Errorf("insert resume: %w", err)
	}

	s.logger.Info("Resume ingested",
		zap.String("resume_id", r.ID()),
		zap.String("filename", filename),
		zap.Int("content_bytes", len(r.Content())),
		zap.Bool("searchable", r.HasContent()),
	)

	return r, nil
}

// Get retrieves a resume by ID.
func (s *Service) Get(ctx context.Context, id string) (resume.Resume, error) {
	if id == "" {
		return resume.Resume{}, fmt.Errorf("%w: resume ID is required", domain.ErrInvalidArgument)
	}

	r, err := s.store.Get(ctx, id)
	if err != nil {
		return resume.Resume{}, fmt.Errorf("get resume: %w", err)
	}
	return r, nil
}

// List returns a page of resumes ordered by the store. Zero or negative
// limits fall back to the default page size.
func (s *Service) List(ctx context.Context, offset, limit int) (storage.Page, error) {
	if offset < 0 {
		offset = 0
	}
	if limit <= 0 {
		limit = defaultPageSize
	}
	if limit > maxPageSize {
		limit = maxPageSize
	}

	page, err := s.store.List(ctx, offset, limit)
	if err != nil {
		return storage.Page{}, fmt.Errorf("list resumes: %w", err)
	}

	if page.Skipped > 0 {
		s.logger.Warn("Skipped malformed resume records in listing",
			zap.Int("skipped", page.Skipped),
			zap.Int("offset", offset),
		)
	}
	return page, nil
}

// Delete removes a resume.
func (s *Service) Delete(ctx context.Context, id string) error {
	if id == "" {
		return fmt.Errorf("%w: resume ID is required", domain.ErrInvalidArgument)
	}

	if err := s.store.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete resume: %w", err)
	}

	s.logger.Info("Resume deleted", zap.String("resume_id", id))
	return nil
}

// Count returns the number of stored resumes.
func (s *Service) Count(ctx context.Context) (int, error) {
	count, err := s.store.Count(ctx)
	if err != nil {
		return 0, fmt.Errorf("count resumes: %w", err)
	}
	return count, nil
}
