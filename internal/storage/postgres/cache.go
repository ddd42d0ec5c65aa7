package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/pgvector/pgvector-go"

	"github.com/talentsift/resumatch/internal/storage"
)

var _ storage.EmbeddingCache = (*Cache)(nil)

// Cache implements storage.EmbeddingCache on the embedding_cache table.
type Cache struct {
	store *Store
}

// NewCache creates an embedding cache backed by the given store.
func NewCache(store *Store) *Cache {
	return &Cache{store: store}
}

// Get looks up a cached vector. A value of the wrong dimension is
// treated as a miss so stale entries from an older model are re-embedded.
func (c *Cache) Get(ctx context.Context, key string) ([]float32, bool, error) {
	var vec pgvector.Vector
	err := c.store.pool.QueryRow(ctx,
		`SELECT embedding FROM embedding_cache WHERE key = $1`, key).Scan(&vec)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, false, nil
		}
		return nil, false, &storage.Error{Op: storage.OpQuery, Err: err}
	}

	v := vec.Slice()
	if len(v) != c.store.cfg.Dim {
		return nil, false, nil
	}
	return v, true, nil
}

// Set stores a vector under the given key, replacing any existing value.
func (c *Cache) Set(ctx context.Context, key string, vector []float32) error {
	_, err := c.store.pool.Exec(ctx, `
		INSERT INTO embedding_cache (key, embedding, created_at)
		VALUES ($1, $2, now())
		ON CONFLICT (key) DO UPDATE SET
			embedding  = EXCLUDED.embedding,
			created_at = now()`,
		key, pgvector.NewVector(vector))
	if err != nil {
		return &storage.Error{Op: storage.OpExec, Err: err}
	}
	return nil
}
