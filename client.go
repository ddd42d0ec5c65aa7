// Package resumatch provides an embedded client for the resume
// matching engine: the same ingestion and ranking pipeline the HTTP
// server runs, wired in-process for Go callers.
package resumatch

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/talentsift/resumatch/internal/domain"
	"github.com/talentsift/resumatch/internal/domain/match"
	"github.com/talentsift/resumatch/internal/domain/resume"
	"github.com/talentsift/resumatch/internal/extract"
	"github.com/talentsift/resumatch/internal/feedback"
	"github.com/talentsift/resumatch/internal/metrics"
	"github.com/talentsift/resumatch/internal/storage"
	storepg "github.com/talentsift/resumatch/internal/storage/postgres"
	storeredis "github.com/talentsift/resumatch/internal/storage/redis"
	"github.com/talentsift/resumatch/internal/transport/gemini"
	openaiEmb "github.com/talentsift/resumatch/internal/transport/openai"
	embeddinguc "github.com/talentsift/resumatch/internal/usecase/embedding"
	healthuc "github.com/talentsift/resumatch/internal/usecase/health"
	ingestuc "github.com/talentsift/resumatch/internal/usecase/ingest"
	rankuc "github.com/talentsift/resumatch/internal/usecase/rank"
)

const (
	defaultReadinessTimeout = 10 * time.Second
	defaultModel            = "text-embedding-3-small"
	defaultDimensions       = 1536
	defaultKeyPrefix        = "resumatch:"
)

// Embedder is the embedding provider seam for custom providers.
type Embedder interface {
	Embed(ctx context.Context, text string) (EmbeddingResult, error)
}

// EmbeddingResult is one embedding with provider token usage.
type EmbeddingResult struct {
	Embedding    []float32
	PromptTokens int
	TotalTokens  int
}

// Generator is the per-match feedback seam for custom providers.
type Generator interface {
	Generate(ctx context.Context, jobDescription, resumeText string) (string, error)
}

// Resume is a stored resume as returned by the client.
type Resume struct {
	ID         string
	Filename   string
	SourceURL  string
	Preview    string
	Searchable bool
	CreatedAt  time.Time
}

// Match is one ranked hit.
type Match struct {
	ResumeID     string
	Filename     string
	SourceURL    string
	Similarity   float64
	ScorePercent float64
	Feedback     string
}

// RankResult is the ranked response for one job description.
type RankResult struct {
	QueryPreview string
	Threshold    float64
	Matches      []Match
}

// ResumePage is one listing page in ingestion order.
type ResumePage struct {
	Resumes []Resume
	Total   int
}

// HealthReport summarizes dependency health.
type HealthReport struct {
	Healthy bool
	Checks  map[string]HealthCheck
}

// HealthCheck is the outcome of a single dependency probe.
type HealthCheck struct {
	Healthy bool
	Latency time.Duration
	Error   string
}

// Client is the resumatch embedded client entry point.
type Client struct {
	store  storage.ResumeStore
	ingest *ingestuc.Service
	rank   *rankuc.Service
	health *healthuc.Service
}

// New creates a resumatch Client, connects to the store and ensures
// the vector index exists.
func New(opts ...Option) (*Client, error) {
	cfg := &clientConfig{
		model:      defaultModel,
		dimensions: defaultDimensions,
		keyPrefix:  defaultKeyPrefix,
		feedback:   "keyword",
		logger:     zap.NewNop(),
	}
	for _, o := range opts {
		o(cfg)
	}

	if cfg.driver == "" {
		return nil, errors.New("resumatch: store required (use WithRedis or WithPostgres)")
	}
	if cfg.embedder == nil && cfg.openaiAPIKey == "" && cfg.openaiBaseURL == "" {
		return nil, errors.New("resumatch: embedder required (use WithOpenAI or WithEmbedder)")
	}

	ctx := context.Background()

	store, cache, err := createStore(ctx, cfg)
	if err != nil {
		return nil, err
	}

	if err := store.WaitForReady(ctx, defaultReadinessTimeout); err != nil {
		store.Close()
		return nil, fmt.Errorf("resumatch: store not ready: %w", err)
	}
	if err := store.EnsureIndex(ctx); err != nil {
		store.Close()
		return nil, fmt.Errorf("resumatch: ensure index: %w", err)
	}

	c, err := wireClient(ctx, store, cache, cfg)
	if err != nil {
		store.Close()
		return nil, err
	}
	return c, nil
}

func createStore(ctx context.Context, cfg *clientConfig) (storage.ResumeStore, storage.EmbeddingCache, error) {
	switch cfg.driver {
	case "redis":
		s, err := storeredis.NewStore(storeredis.Config{
			Addrs:           cfg.addrs,
			Password:        cfg.password,
			KeyPrefix:       cfg.keyPrefix,
			Dim:             cfg.dimensions,
			HNSWM:           cfg.hnswM,
			HNSWEFConstruct: cfg.hnswEFConstruct,
		})
		if err != nil {
			return nil, nil, fmt.Errorf("resumatch: create redis store: %w", err)
		}
		return s, storeredis.NewCache(s), nil
	case "postgres":
		s, err := storepg.NewStore(ctx, storepg.Config{
			DSN:             cfg.dsn,
			Dim:             cfg.dimensions,
			HNSWM:           cfg.hnswM,
			HNSWEFConstruct: cfg.hnswEFConstruct,
		})
		if err != nil {
			return nil, nil, fmt.Errorf("resumatch: create postgres store: %w", err)
		}
		return s, storepg.NewCache(s), nil
	default:
		return nil, nil, fmt.Errorf("resumatch: unknown driver %q", cfg.driver)
	}
}

func wireClient(
	ctx context.Context,
	store storage.ResumeStore,
	cache storage.EmbeddingCache,
	cfg *clientConfig,
) (*Client, error) {
	var base domain.Embedder
	var probe healthuc.EmbeddingChecker

	if cfg.embedder != nil {
		base = &embedderAdapter{inner: cfg.embedder}
	} else {
		oai := openaiEmb.NewEmbedder(&openaiEmb.Config{
			APIKey:     cfg.openaiAPIKey,
			BaseURL:    cfg.openaiBaseURL,
			Model:      cfg.model,
			Dimensions: cfg.dimensions,
		})
		base = oai
		probe = oai
	}

	cached := embeddinguc.NewCachedEmbedder(base, cache, cfg.model, metrics.EmbeddingCacheTotal, cfg.logger)
	embedder := embeddinguc.NewInstrumentedEmbedder(cached, cfg.model, cfg.logger)

	gen, err := buildGenerator(ctx, cfg)
	if err != nil {
		return nil, err
	}

	ingestSvc := ingestuc.New(store, embedder, extract.NewPlain(), cfg.dimensions, cfg.logger)
	rankSvc := rankuc.New(store, embedder, gen, rankuc.Options{
		SearchTimeout:   cfg.searchTimeout,
		FeedbackTimeout: cfg.feedbackTimeout,
		MaxConcurrent:   cfg.maxConcurrent,
		RatePerSec:      cfg.ratePerSec,
		Provider:        cfg.feedback,
	}, cfg.logger)
	healthSvc := healthuc.New(store, probe)

	return &Client{
		store:  store,
		ingest: ingestSvc,
		rank:   rankSvc,
		health: healthSvc,
	}, nil
}

// buildGenerator picks the feedback provider for the client. A custom
// Generator wins; "off" yields nil, surfaced as the disabled marker.
func buildGenerator(ctx context.Context, cfg *clientConfig) (domain.Generator, error) {
	if cfg.generator != nil {
		return cfg.generator, nil
	}
	switch cfg.feedback {
	case "gemini":
		g, err := gemini.NewGenerator(ctx, &gemini.Config{
			APIKey: cfg.geminiKey,
			Model:  cfg.geminiModel,
		})
		if err != nil {
			return nil, fmt.Errorf("resumatch: gemini generator: %w", err)
		}
		return g, nil
	case "keyword":
		return feedback.NewKeywordGenerator(), nil
	case "off":
		return nil, nil
	default:
		return nil, fmt.Errorf("resumatch: unknown feedback provider %q", cfg.feedback)
	}
}

// Close releases the store connection.
func (c *Client) Close() {
	if c.store != nil {
		c.store.Close()
	}
}

// Ping checks store connectivity.
func (c *Client) Ping(ctx context.Context) error {
	if err := c.store.Ping(ctx); err != nil {
		return fmt.Errorf("ping: %w", err)
	}
	return nil
}

// Ingest extracts, embeds and stores one resume.
func (c *Client) Ingest(ctx context.Context, filename, sourceURL string, raw []byte) (Resume, error) {
	r, err := c.ingest.Ingest(ctx, filename, sourceURL, raw)
	if err != nil {
		return Resume{}, fmt.Errorf("ingest: %w", err)
	}
	return fromResume(&r), nil
}

// Rank scores the stored corpus against a job description and returns
// matches at or above threshold, best first, capped at maxResults.
func (c *Client) Rank(
	ctx context.Context, jobDescription string, threshold float64, maxResults int, withFeedback bool,
) (RankResult, error) {
	res, err := c.rank.Rank(ctx, jobDescription, threshold, maxResults, withFeedback)
	if err != nil {
		return RankResult{}, fmt.Errorf("rank: %w", err)
	}
	return RankResult{
		QueryPreview: res.QueryPreview,
		Threshold:    res.Threshold,
		Matches:      fromMatches(res.Matches),
	}, nil
}

// Resume fetches one stored resume by ID.
func (c *Client) Resume(ctx context.Context, id string) (Resume, error) {
	r, err := c.ingest.Get(ctx, id)
	if err != nil {
		return Resume{}, fmt.Errorf("get resume: %w", err)
	}
	return fromResume(&r), nil
}

// Resumes lists stored resumes in ingestion order.
func (c *Client) Resumes(ctx context.Context, offset, limit int) (ResumePage, error) {
	page, err := c.ingest.List(ctx, offset, limit)
	if err != nil {
		return ResumePage{}, fmt.Errorf("list resumes: %w", err)
	}
	out := ResumePage{Total: page.Total, Resumes: make([]Resume, len(page.Resumes))}
	for i := range page.Resumes {
		out.Resumes[i] = fromResume(&page.Resumes[i])
	}
	return out, nil
}

// DeleteResume removes a stored resume.
func (c *Client) DeleteResume(ctx context.Context, id string) error {
	if err := c.ingest.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete resume: %w", err)
	}
	return nil
}

// CountResumes returns the number of stored resumes.
func (c *Client) CountResumes(ctx context.Context) (int, error) {
	n, err := c.ingest.Count(ctx)
	if err != nil {
		return 0, fmt.Errorf("count resumes: %w", err)
	}
	return n, nil
}

// Health probes the store and the embedding provider.
func (c *Client) Health(ctx context.Context) HealthReport {
	report := c.health.Check(ctx)

	out := HealthReport{
		Healthy: report.Status == healthuc.Healthy,
		Checks:  make(map[string]HealthCheck, len(report.Checks)),
	}
	for name, check := range report.Checks {
		out.Checks[name] = HealthCheck{
			Healthy: check.Status == healthuc.Healthy,
			Latency: check.Latency,
			Error:   check.Error,
		}
	}
	return out
}

func fromResume(r *resume.Resume) Resume {
	return Resume{
		ID:         r.ID(),
		Filename:   r.Filename(),
		SourceURL:  r.SourceURL(),
		Preview:    r.Preview(),
		Searchable: r.HasContent(),
		CreatedAt:  r.CreatedAt(),
	}
}

func fromMatches(matches []match.Match) []Match {
	out := make([]Match, len(matches))
	for i := range matches {
		m := &matches[i]
		out[i] = Match{
			ResumeID:     m.ResumeID(),
			Filename:     m.Filename(),
			SourceURL:    m.SourceURL(),
			Similarity:   m.Similarity(),
			ScorePercent: m.ScorePercent(),
			Feedback:     m.Feedback(),
		}
	}
	return out
}

// embedderAdapter wraps the public Embedder to satisfy internal
// domain.Embedder.
type embedderAdapter struct {
	inner Embedder
}

func (a *embedderAdapter) Embed(ctx context.Context, text string) (domain.EmbeddingResult, error) {
	r, err := a.inner.Embed(ctx, text)
	if err != nil {
		return domain.EmbeddingResult{}, fmt.Errorf("embed: %w", err)
	}
	return domain.EmbeddingResult{
		Embedding:    r.Embedding,
		PromptTokens: r.PromptTokens,
		TotalTokens:  r.TotalTokens,
	}, nil
}
