package redis

import (
	"context"
	"fmt"
	"strconv"

	"github.com/talentsift/resumatch/internal/domain"
	"github.com/talentsift/resumatch/internal/domain/resume"
	"github.com/talentsift/resumatch/internal/storage"
)

// Insert persists a resume hash.
func (s *Store) Insert(ctx context.Context, r resume.Resume) error {
	cmd := s.b().Hset().Key(s.resumeKey(r.ID())).FieldValue()
	for k, v := range buildHashFields(&r) {
		cmd = cmd.FieldValue(k, v)
	}
	if err := s.do(ctx, cmd.Build()).Error(); err != nil {
		return &storage.Error{Op: storage.OpHSet, Err: err}
	}
	return nil
}

// Get fetches one resume by id.
func (s *Store) Get(ctx context.Context, id string) (resume.Resume, error) {
	cmd := s.b().Hgetall().Key(s.resumeKey(id)).Build()
	m, err := s.do(ctx, cmd).AsStrMap()
	if err != nil {
		return resume.Resume{}, &storage.Error{Op: storage.OpHGetAll, Err: err}
	}
	if len(m) == 0 {
		return resume.Resume{}, fmt.Errorf("resume %s: %w", id, domain.ErrNotFound)
	}
	return parseHashFields(m, s.cfg.Dim)
}

// Delete removes a resume. Missing ids report domain.ErrNotFound.
func (s *Store) Delete(ctx context.Context, id string) error {
	cmd := s.b().Del().Key(s.resumeKey(id)).Build()
	n, err := s.do(ctx, cmd).AsInt64()
	if err != nil {
		return &storage.Error{Op: storage.OpDel, Err: err}
	}
	if n == 0 {
		return fmt.Errorf("resume %s: %w", id, domain.ErrNotFound)
	}
	return nil
}

// Count returns the number of stored resumes via FT.SEARCH with LIMIT 0 0.
func (s *Store) Count(ctx context.Context) (int, error) {
	cmd := s.b().Arbitrary("FT.SEARCH").Args(s.indexName(), "*", "LIMIT", "0", "0").Build()
	raw, err := s.do(ctx, cmd).ToArray()
	if err != nil {
		return 0, &storage.Error{Op: storage.OpSearch, Err: err}
	}
	if len(raw) == 0 {
		return 0, nil
	}
	total, err := raw[0].AsInt64()
	if err != nil {
		return 0, fmt.Errorf("parse count: %w", err)
	}
	return int(total), nil
}

// List returns one page of resumes in ingestion order. Records that
// fail integrity checks are dropped and counted in Page.Skipped.
func (s *Store) List(ctx context.Context, offset, limit int) (storage.Page, error) {
	args := []string{
		s.indexName(), "*",
		"SORTBY", fieldCreatedAtTS, "ASC",
		"LIMIT", strconv.Itoa(offset), strconv.Itoa(limit),
		"RETURN", strconv.Itoa(len(returnFields)),
	}
	args = append(args, returnFields...)

	cmd := s.b().Arbitrary("FT.SEARCH").Args(args...).Build()
	raw, err := s.do(ctx, cmd).ToArray()
	if err != nil {
		return storage.Page{}, &storage.Error{Op: storage.OpSearch, Err: err}
	}

	if len(raw) == 0 {
		return storage.Page{}, nil
	}
	total, err := raw[0].AsInt64()
	if err != nil {
		return storage.Page{}, fmt.Errorf("parse total: %w", err)
	}

	page := storage.Page{Total: int(total)}
	// 2-stride: [total, key1, fields1, key2, fields2, ...]
	for i := 1; i+1 < len(raw); i += 2 {
		fields, err := raw[i+1].ToArray()
		if err != nil {
			page.Skipped++
			continue
		}
		r, err := parseHashFields(parseFieldPairs(fields), s.cfg.Dim)
		if err != nil {
			page.Skipped++
			continue
		}
		page.Resumes = append(page.Resumes, r)
	}

	return page, nil
}
