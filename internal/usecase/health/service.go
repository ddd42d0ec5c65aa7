package health

import (
	"context"
	"time"
)

// Status represents the health of the whole service or one component.
type Status string

const (
	// Healthy indicates the component is operational.
	Healthy Status = "ok"
	// Degraded indicates at least one failing component.
	Degraded Status = "degraded"
)

// Check is one component probe outcome.
type Check struct {
	Status  Status
	Latency time.Duration
	Error   string // empty when passing
}

// Report aggregates component checks.
type Report struct {
	Status Status
	Checks map[string]Check
}

// Service coordinates health checks.
type Service struct {
	store     StorePinger
	embedding EmbeddingChecker
}

// New creates a Service. embedding can be nil.
func New(store StorePinger, embedding EmbeddingChecker) *Service {
	return &Service{store: store, embedding: embedding}
}

// Check probes all components. The service is degraded when any single
// check fails; an empty corpus or a disabled embedder check is not a
// failure.
func (s *Service) Check(ctx context.Context) Report {
	checks := make(map[string]Check)

	checks["store"] = probe(ctx, s.store.Ping)
	if s.embedding != nil {
		checks["embedder"] = probe(ctx, s.embedding.HealthCheck)
	}

	status := Healthy
	for _, c := range checks {
		if c.Status != Healthy {
			status = Degraded
			break
		}
	}

	return Report{Status: status, Checks: checks}
}

func probe(ctx context.Context, fn func(context.Context) error) Check {
	start := time.Now()
	err := fn(ctx)

	c := Check{Status: Healthy, Latency: time.Since(start)}
	if err != nil {
		c.Status = Degraded
		c.Error = err.Error()
	}
	return c
}
