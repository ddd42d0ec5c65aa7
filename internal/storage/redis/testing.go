package redis

import "github.com/redis/rueidis"

// NewStoreForTest creates a Store with the provided rueidis client (test-only).
func NewStoreForTest(c rueidis.Client, cfg Config) *Store {
	if cfg.KeyPrefix == "" {
		cfg.KeyPrefix = "resumatch:"
	}
	if cfg.Dim <= 0 {
		cfg.Dim = 4
	}
	return &Store{client: c, cfg: cfg}
}
