package health

import (
	"context"
	"errors"
	"testing"
)

type mockStorePinger struct {
	err error
}

func (m *mockStorePinger) Ping(_ context.Context) error { return m.err }

type mockEmbeddingChecker struct {
	err error
}

func (m *mockEmbeddingChecker) HealthCheck(_ context.Context) error { return m.err }

func TestCheck_AllHealthy(t *testing.T) {
	svc := New(&mockStorePinger{}, &mockEmbeddingChecker{})
	r := svc.Check(context.Background())

	if r.Status != Healthy {
		t.Errorf("expected %q, got %q", Healthy, r.Status)
	}
	if r.Checks["store"].Status != Healthy {
		t.Errorf("expected store ok, got %q", r.Checks["store"].Status)
	}
	if r.Checks["embedder"].Status != Healthy {
		t.Errorf("expected embedder ok, got %q", r.Checks["embedder"].Status)
	}
	if r.Checks["store"].Error != "" {
		t.Errorf("passing check must not carry an error, got %q", r.Checks["store"].Error)
	}
}

func TestCheck_StoreError(t *testing.T) {
	svc := New(&mockStorePinger{err: errors.New("conn refused")}, &mockEmbeddingChecker{})
	r := svc.Check(context.Background())

	if r.Status != Degraded {
		t.Errorf("expected %q, got %q", Degraded, r.Status)
	}
	if r.Checks["store"].Status != Degraded {
		t.Errorf("expected store degraded, got %q", r.Checks["store"].Status)
	}
	if r.Checks["store"].Error != "conn refused" {
		t.Errorf("check error = %q", r.Checks["store"].Error)
	}
	if r.Checks["embedder"].Status != Healthy {
		t.Errorf("expected embedder ok, got %q", r.Checks["embedder"].Status)
	}
}

func TestCheck_EmbedderError(t *testing.T) {
	svc := New(&mockStorePinger{}, &mockEmbeddingChecker{err: errors.New("timeout")})
	r := svc.Check(context.Background())

	if r.Status != Degraded {
		t.Errorf("expected %q, got %q", Degraded, r.Status)
	}
	if r.Checks["store"].Status != Healthy {
		t.Errorf("expected store ok, got %q", r.Checks["store"].Status)
	}
	if r.Checks["embedder"].Status != Degraded {
		t.Errorf("expected embedder degraded, got %q", r.Checks["embedder"].Status)
	}
}

func TestCheck_NoEmbedder(t *testing.T) {
	svc := New(&mockStorePinger{}, nil)
	r := svc.Check(context.Background())

	if r.Status != Healthy {
		t.Errorf("expected %q, got %q", Healthy, r.Status)
	}
	if _, ok := r.Checks["embedder"]; ok {
		t.Error("embedder check must be absent when no checker is wired")
	}
}

func TestCheck_NoEmbedderStoreError(t *testing.T) {
	svc := New(&mockStorePinger{err: errors.New("fail")}, nil)
	r := svc.Check(context.Background())

	if r.Status != Degraded {
		t.Errorf("expected %q, got %q", Degraded, r.Status)
	}
	if r.Checks["store"].Status != Degraded {
		t.Error("expected store degraded")
	}
}
