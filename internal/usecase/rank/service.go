// Package rank implements the ranking pipeline: validate, embed the job
// description, vector-search the corpus, post-process deterministically,
// and optionally fan out per-match feedback generation.
package rank

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/talentsift/resumatch/internal/domain"
	"github.com/talentsift/resumatch/internal/domain/match"
	domrank "github.com/talentsift/resumatch/internal/domain/rank"
	"github.com/talentsift/resumatch/internal/metrics"
	"github.com/talentsift/resumatch/internal/storage"
)

// Feedback markers attached in place of generated text. Per-item
// generation failures surface as markers, never as request errors.
const (
	FeedbackNoContent = "cannot generate feedback: resume has no extracted text"
	FeedbackFailed    = "feedback generation failed for this resume"
	FeedbackDisabled  = "feedback disabled"
)

const (
	defaultSearchTimeout   = 5 * time.Second
	defaultFeedbackTimeout = 20 * time.Second
	defaultMaxConcurrent   = 4
)

// Options bound the pipeline's external calls.
type Options struct {
	SearchTimeout   time.Duration
	FeedbackTimeout time.Duration // per feedback item
	MaxConcurrent   int           // feedback fan-out bound
	RatePerSec      float64       // feedback calls per second, 0 = unlimited
	Provider        string        // feedback provider label for metrics
}

// Result is the ranked response.
type Result struct {
	QueryPreview string
	Threshold    float64
	Matches      []match.Match
}

// Service runs the ranking pipeline. The generator may be nil, in which
// case feedback requests get the disabled marker.
type Service struct {
	store   SearchStore
	embed   Embedder
	gen     Generator
	opts    Options
	limiter *rate.Limiter
	logger  *zap.Logger
}

// New creates a ranking service. Zero option fields fall back to defaults.
func New(store SearchStore, embed Embedder, gen Generator, opts Options, logger *zap.Logger) *Service {
	if opts.SearchTimeout <= 0 {
		opts.SearchTimeout = defaultSearchTimeout
	}
	if opts.FeedbackTimeout <= 0 {
		opts.FeedbackTimeout = defaultFeedbackTimeout
	}
	if opts.MaxConcurrent <= 0 {
		opts.MaxConcurrent = defaultMaxConcurrent
	}

	limit := rate.Inf
	if opts.RatePerSec > 0 {
		limit = rate.Limit(opts.RatePerSec)
	}

	return &Service{
		store:   store,
		embed:   embed,
		gen:     gen,
		opts:    opts,
		limiter: rate.NewLimiter(limit, 1),
		logger:  logger,
	}
}

// Rank executes rankCandidates. Validation failures reject before any
// I/O; embedding and search failures fail the whole request; feedback
// failures downgrade only the affected match.
func (s *Service) Rank(ctx context.Context, jobDescription string, threshold float64, limit int, withFeedback bool) (Result, error) {
	req, err := domrank.New(jobDescription, threshold, limit, withFeedback)
	if err != nil {
		metrics.MatchRequestsTotal.WithLabelValues("rejected").Inc()
		return Result{}, err
	}

	embRes, err := s.embed.Embed(ctx, req.JobDescription())
	if err != nil {
		metrics.MatchRequestsTotal.WithLabelValues("failed").Inc()
		return Result{}, fmt.Errorf("vectorize job description: %w", err)
	}

	hits, err := s.search(ctx, embRes.Embedding, &req)
	if err != nil {
		metrics.MatchRequestsTotal.WithLabelValues("failed").Inc()
		return Result{}, err
	}

	matches := s.toMatches(hits, &req)

	if req.WithFeedback() {
		s.attachFeedback(ctx, req.JobDescription(), matches)
	}

	metrics.MatchRequestsTotal.WithLabelValues("completed").Inc()
	metrics.MatchResults.Observe(float64(len(matches)))

	s.logger.Debug("Ranking completed",
		zap.Int("matches", len(matches)),
		zap.Float64("threshold", req.Threshold()),
		zap.Bool("with_feedback", req.WithFeedback()),
	)

	return Result{
		QueryPreview: req.Preview(),
		Threshold:    req.Threshold(),
		Matches:      matches,
	}, nil
}

// search runs the bounded vector search. Store failures map to
// ErrBackendUnavailable: retryable for the caller, 503 at the edge.
func (s *Service) search(ctx context.Context, vector []float32, req *domrank.Request) ([]storage.Hit, error) {
	sctx, cancel := context.WithTimeout(ctx, s.opts.SearchTimeout)
	defer cancel()

	start := time.Now()
	hits, err := s.store.VectorSearch(sctx, vector, req.Threshold(), req.Limit())
	metrics.MatchSearchDuration.Observe(time.Since(start).Seconds())

	if err != nil {
		return nil, fmt.Errorf("%w: vector search: %w", domain.ErrBackendUnavailable, err)
	}
	return hits, nil
}

// toMatches converts hits into ordered matches. The store already
// filters and orders; this pass re-applies both so a drifting backend
// can never change response semantics, and drops malformed hits.
func (s *Service) toMatches(hits []storage.Hit, req *domrank.Request) []match.Match {
	matches := make([]match.Match, 0, len(hits))
	for _, h := range hits {
		r := h.Resume
		if r.ID() == "" {
			s.logger.Warn("Dropping search hit without resume ID",
				zap.String("filename", r.Filename()))
			continue
		}
		matches = append(matches, match.New(r.ID(), r.Filename(), r.SourceURL(), h.Score, r.Content(), r.CreatedAt()))
	}

	matches = match.ApplyThreshold(matches, req.Threshold())
	match.Sort(matches)
	return match.Cap(matches, req.Limit())
}

// attachFeedback fans out one generator call per match with bounded
// concurrency. Tasks write results in-slot and never return errors, so
// the group always completes and ranking order is preserved by index.
func (s *Service) attachFeedback(ctx context.Context, jobDescription string, matches []match.Match) {
	if len(matches) == 0 {
		return
	}

	if s.gen == nil {
		for i := range matches {
			matches[i] = matches[i].WithFeedback(FeedbackDisabled)
		}
		return
	}

	g := new(errgroup.Group)
	g.SetLimit(s.opts.MaxConcurrent)

	for i := range matches {
		g.Go(func() error {
			matches[i] = matches[i].WithFeedback(s.generateOne(ctx, jobDescription, &matches[i]))
			return nil
		})
	}

	_ = g.Wait()
}

// generateOne produces the feedback text for a single match, degrading
// to a marker on empty content, rate-limit wait failure, or generator
// error.
func (s *Service) generateOne(ctx context.Context, jobDescription string, m *match.Match) string {
	if strings.TrimSpace(m.Content()) == "" {
		metrics.FeedbackRequestsTotal.WithLabelValues(s.opts.Provider, "skipped").Inc()
		return FeedbackNoContent
	}

	gctx, cancel := context.WithTimeout(ctx, s.opts.FeedbackTimeout)
	defer cancel()

	if err := s.limiter.Wait(gctx); err != nil {
		metrics.FeedbackRequestsTotal.WithLabelValues(s.opts.Provider, "error").Inc()
		s.logger.Warn("Feedback rate limit wait failed",
			zap.String("resume_id", m.ResumeID()),
			zap.Error(err),
		)
		return FeedbackFailed
	}

	start := time.Now()
	text, err := s.gen.Generate(gctx, jobDescription, m.Content())
	metrics.FeedbackRequestDuration.WithLabelValues(s.opts.Provider).Observe(time.Since(start).Seconds())

	if err != nil {
		metrics.FeedbackRequestsTotal.WithLabelValues(s.opts.Provider, "error").Inc()
		s.logger.Warn("Feedback generation failed",
			zap.String("resume_id", m.ResumeID()),
			zap.Error(err),
		)
		return FeedbackFailed
	}

	metrics.FeedbackRequestsTotal.WithLabelValues(s.opts.Provider, "ok").Inc()
	return text
}
