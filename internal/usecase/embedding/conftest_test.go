package embedding

import (
	"context"
	"testing"

	"go.uber.org/zap"

	"github.com/talentsift/resumatch/internal/domain"
)

type mockEmbedder struct {
	result   domain.EmbeddingResult
	err      error
	calls    int
	lastText string
}

func (m *mockEmbedder) Embed(_ context.Context, text string) (domain.EmbeddingResult, error) {
	m.calls++
	m.lastText = text
	if m.err != nil {
		return domain.EmbeddingResult{}, m.err
	}
	return m.result, nil
}

// mockCache implements storage.EmbeddingCache for tests.
type mockCache struct {
	getFn  func(key string) ([]float32, bool, error)
	setErr error
	sets   map[string][]float32
}

func (m *mockCache) Get(_ context.Context, key string) ([]float32, bool, error) {
	if m.getFn != nil {
		return m.getFn(key)
	}
	return nil, false, nil
}

func (m *mockCache) Set(_ context.Context, key string, vector []float32) error {
	if m.setErr != nil {
		return m.setErr
	}
	if m.sets == nil {
		m.sets = make(map[string][]float32)
	}
	m.sets[key] = vector
	return nil
}

func newTestCachedEmbedder(t *testing.T, inner *mockEmbedder) (*CachedEmbedder, *mockCache) {
	t.Helper()
	mc := &mockCache{}
	ce := NewCachedEmbedder(inner, mc, "test-model", nil, zap.NewNop())
	return ce, mc
}
