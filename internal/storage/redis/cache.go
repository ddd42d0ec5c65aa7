package redis

import (
	"context"

	"github.com/redis/rueidis"

	"github.com/talentsift/resumatch/internal/storage"
)

// Compile-time check: Cache implements storage.EmbeddingCache.
var _ storage.EmbeddingCache = (*Cache)(nil)

// Cache stores embeddings as binary strings next to the resume hashes.
type Cache struct {
	store *Store
}

// NewCache creates an embedding cache on the store's client.
func NewCache(store *Store) *Cache {
	return &Cache{store: store}
}

// Get fetches a cached embedding. Missing keys and values that do not
// decode to the configured dimension are reported as misses.
func (c *Cache) Get(ctx context.Context, key string) ([]float32, bool, error) {
	cmd := c.store.b().Get().Key(c.store.cacheKey(key)).Build()
	data, err := c.store.do(ctx, cmd).AsBytes()
	if err != nil {
		if rueidis.IsRedisNil(err) {
			return nil, false, nil
		}
		return nil, false, &storage.Error{Op: storage.OpGet, Err: err}
	}

	vector := bytesToVector(string(data))
	if vector == nil || len(vector) != c.store.cfg.Dim {
		return nil, false, nil
	}
	return vector, true, nil
}

// Set stores an embedding under the given key.
func (c *Cache) Set(ctx context.Context, key string, vector []float32) error {
	cmd := c.store.b().Set().Key(c.store.cacheKey(key)).Value(vectorToBytes(vector)).Build()
	if err := c.store.do(ctx, cmd).Error(); err != nil {
		return &storage.Error{Op: storage.OpSet, Err: err}
	}
	return nil
}
