// Package redis implements the resume store on Redis 8+ with a
// RediSearch HNSW vector index, via rueidis.
package redis

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/rueidis"

	"github.com/talentsift/resumatch/internal/storage"
)

// Compile-time check: Store implements storage.ResumeStore.
var _ storage.ResumeStore = (*Store)(nil)

// Config holds connection and schema parameters for a Redis store.
type Config struct {
	Addrs           []string
	Username        string
	Password        string
	KeyPrefix       string
	Dim             int
	HNSWM           int
	HNSWEFConstruct int
}

// Store implements storage.ResumeStore via rueidis.
type Store struct {
	client rueidis.Client
	cfg    Config
}

// NewStore creates a Redis store via rueidis.
func NewStore(cfg Config) (*Store, error) {
	if len(cfg.Addrs) == 0 {
		return nil, fmt.Errorf("addrs is required")
	}
	if cfg.Dim <= 0 {
		return nil, fmt.Errorf("vector dimension must be positive")
	}

	client, err := rueidis.NewClient(rueidis.ClientOption{
		InitAddress:  cfg.Addrs,
		Username:     cfg.Username,
		Password:     cfg.Password,
		DisableCache: true,
		AlwaysRESP2:  true, // FT.SEARCH result parsing expects RESP2 array format
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create client: %w", err)
	}

	return &Store{client: client, cfg: cfg}, nil
}

// Ping checks connectivity.
func (s *Store) Ping(ctx context.Context) error {
	cmd := s.client.B().Ping().Build()
	if err := s.client.Do(ctx, cmd).Error(); err != nil {
		return fmt.Errorf("ping: %w", err)
	}
	return nil
}

// Close shuts down the client.
func (s *Store) Close() {
	s.client.Close()
}

// WaitForReady polls Ping until the store responds or timeout expires.
func (s *Store) WaitForReady(ctx context.Context, timeout time.Duration) error {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	ticker := time.NewTicker(100 * time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return fmt.Errorf("timeout waiting for store: %w", ctx.Err())
		case <-ticker.C:
			if err := s.Ping(ctx); err == nil {
				return nil
			}
		}
	}
}

// EnsureIndex creates the resume vector index if it does not exist yet.
// DIM comes from the configured embedding dimension, so a config change
// that alters the dimension fails loudly at FT.CREATE time instead of
// corrupting searches.
func (s *Store) EnsureIndex(ctx context.Context) error {
	args := []string{
		s.indexName(),
		"ON", "HASH",
		"PREFIX", "1", s.resumePrefix(),
		"SCHEMA",
		fieldCreatedAtTS, "NUMERIC", "SORTABLE",
		fieldVector, "AS", "vector", "VECTOR", "HNSW", "10",
		"TYPE", "FLOAT32",
		"DIM", strconv.Itoa(s.cfg.Dim),
		"DISTANCE_METRIC", "COSINE",
		"M", strconv.Itoa(s.cfg.HNSWM),
		"EF_CONSTRUCTION", strconv.Itoa(s.cfg.HNSWEFConstruct),
	}

	cmd := s.b().Arbitrary("FT.CREATE").Args(args...).Build()
	if err := s.do(ctx, cmd).Error(); err != nil {
		if isRedisErr(err, "index already exists") {
			return nil
		}
		return &storage.Error{Op: storage.OpCreateIndex, Err: err}
	}
	return nil
}

func (s *Store) indexName() string {
	return s.cfg.KeyPrefix + "resumes:idx"
}

func (s *Store) resumePrefix() string {
	return s.cfg.KeyPrefix + "resume:"
}

func (s *Store) resumeKey(id string) string {
	return s.resumePrefix() + id
}

func (s *Store) cacheKey(key string) string {
	return s.cfg.KeyPrefix + "embcache:" + key
}

func (s *Store) do(ctx context.Context, cmd rueidis.Completed) rueidis.RedisResult {
	return s.client.Do(ctx, cmd)
}

func (s *Store) b() rueidis.Builder {
	return s.client.B()
}

// isRedisErr checks if err is a Redis server error containing substr (case-insensitive).
func isRedisErr(err error, substr string) bool {
	re, ok := rueidis.IsRedisErr(err)
	if !ok {
		return false
	}
	return containsIgnoreCase(re.Error(), substr)
}

func containsIgnoreCase(s, substr string) bool {
	ls := len(s)
	lsub := len(substr)
	if lsub > ls {
		return false
	}
	for i := 0; i <= ls-lsub; i++ {
		match := true
		for j := 0; j < lsub; j++ {
			sc := s[i+j]
			tc := substr[j]
			if sc >= 'A' && sc <= 'Z' {
				sc += 'a' - 'A'
			}
			if tc >= 'A' && tc <= 'Z' {
				tc += 'a' - 'A'
			}
			if sc != tc {
				match = false
				break
			}
		}
		if match {
			return true
		}
	}
	return false
}
