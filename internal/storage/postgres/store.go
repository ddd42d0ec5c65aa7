// Package postgres implements the resume store on PostgreSQL with
// the pgvector extension, via pgx.
package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	pgxvec "github.com/pgvector/pgvector-go/pgx"

	"github.com/talentsift/resumatch/internal/storage"
)

// Compile-time check: Store implements storage.ResumeStore.
var _ storage.ResumeStore = (*Store)(nil)

// Config holds connection and schema parameters for a Postgres store.
type Config struct {
	DSN             string
	Dim             int
	HNSWM           int
	HNSWEFConstruct int
}

// Store implements storage.ResumeStore via pgx.
type Store struct {
	pool *pgxpool.Pool
	cfg  Config
}

// NewStore creates a Postgres store. Connections are established lazily;
// call WaitForReady before serving traffic.
func NewStore(ctx context.Context, cfg Config) (*Store, error) {
	if cfg.DSN == "" {
		return nil, fmt.Errorf("dsn is required")
	}
	if cfg.Dim <= 0 {
		return nil, fmt.Errorf("vector dimension must be positive")
	}

	poolCfg, err := pgxpool.ParseConfig(cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("failed to parse dsn: %w", err)
	}
	// Register pgvector codecs on every new connection so Vector values
	// scan natively.
	poolCfg.AfterConnect = pgxvec.RegisterTypes

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create pool: %w", err)
	}

	return &Store{pool: pool, cfg: cfg}, nil
}

// Ping checks connectivity.
func (s *Store) Ping(ctx context.Context) error {
	if err := s.pool.Ping(ctx); err != nil {
		return fmt.Errorf("ping: %w", err)
	}
	return nil
}

// Close shuts down the pool.
func (s *Store) Close() {
	s.pool.Close()
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

// EnsureIndex creates the extension, tables and HNSW index if they do
// not exist yet. The embedding column is typed vector(dim), so a config
// change that alters the dimension fails loudly at insert time instead
// of corrupting searches.
func (s *Store) EnsureIndex(ctx context.Context) error {
	for _, stmt := range schemaStatements(s.cfg.Dim, s.cfg.HNSWM, s.cfg.HNSWEFConstruct) {
		if _, err := s.pool.Exec(ctx, stmt); err != nil {
			return &storage.Error{Op: storage.OpExec, Err: err}
		}
	}
	return nil
}

func schemaStatements(dim, m, efConstruct int) []string {
	return []string{
		`CREATE EXTENSION IF NOT EXISTS vector`,
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS resumes (
	id         text PRIMARY KEY,
	filename   text NOT NULL,
	source_url text NOT NULL DEFAULT '',
	content    text NOT NULL DEFAULT '',
	embedding  vector(%d),
	created_at timestamptz NOT NULL
)`, dim),
		fmt.Sprintf(`CREATE INDEX IF NOT EXISTS resumes_embedding_idx
	ON resumes USING hnsw (embedding vector_cosine_ops)
	WITH (m = %d, ef_construction = %d)`, m, efConstruct),
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS embedding_cache (
	key        text PRIMARY KEY,
	embedding  vector(%d) NOT NULL,
	created_at timestamptz NOT NULL DEFAULT now()
)`, dim),
	}
}
