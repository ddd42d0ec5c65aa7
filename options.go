package resumatch

import (
	"time"

	"go.uber.org/zap"
)

// Option configures the Client.
type Option func(*clientConfig)

type clientConfig struct {
	driver    string // "redis" or "postgres"
	addrs     []string
	password  string
	keyPrefix string
	dsn       string

	openaiAPIKey  string
	openaiBaseURL string
	model         string
	dimensions    int

	embedder Embedder

	feedback    string // "keyword", "gemini", "off"
	geminiKey   string
	geminiModel string
	generator   Generator

	hnswM           int
	hnswEFConstruct int

	searchTimeout   time.Duration
	feedbackTimeout time.Duration
	maxConcurrent   int
	ratePerSec      float64

	logger *zap.Logger
}

// WithRedis configures the client to connect to a Redis instance.
func WithRedis(addr, password string) Option {
	return func(c *clientConfig) {
		c.driver = "redis"
		c.addrs = []string{addr}
		c.password = password
	}
}

// WithPostgres configures the client to connect to Postgres (with
// pgvector) via DSN.
func WithPostgres(dsn string) Option {
	return func(c *clientConfig) {
		c.driver = "postgres"
		c.dsn = dsn
	}
}

// WithKeyPrefix overrides the Redis key prefix. Default "resumatch:".
func WithKeyPrefix(prefix string) Option {
	return func(c *clientConfig) {
		c.keyPrefix = prefix
	}
}

// WithOpenAI configures the embedding provider. An empty baseURL uses
// the public OpenAI API; any OpenAI-compatible server works through
// baseURL.
func WithOpenAI(apiKey, baseURL string) Option {
	return func(c *clientConfig) {
		c.openaiAPIKey = apiKey
		c.openaiBaseURL = baseURL
	}
}

// WithEmbeddingModel sets the embedding model and vector dimension.
// Defaults: text-embedding-3-small, 1536.
func WithEmbeddingModel(model string, dimensions int) Option {
	return func(c *clientConfig) {
		c.model = model
		c.dimensions = dimensions
	}
}

// WithEmbedder sets a custom embedding provider. Takes precedence over
// WithOpenAI.
func WithEmbedder(e Embedder) Option {
	return func(c *clientConfig) {
		c.embedder = e
	}
}

// WithGeminiFeedback generates per-match feedback with the Gemini API.
// An empty model uses the provider default.
func WithGeminiFeedback(apiKey, model string) Option {
	return func(c *clientConfig) {
		c.feedback = "gemini"
		c.geminiKey = apiKey
		c.geminiModel = model
	}
}

// WithKeywordFeedback generates per-match feedback with the offline
// keyword-gap analyzer. This is the default.
func WithKeywordFeedback() Option {
	return func(c *clientConfig) {
		c.feedback = "keyword"
	}
}

// WithGenerator sets a custom feedback generator. Takes precedence
// over the provider options.
func WithGenerator(g Generator) Option {
	return func(c *clientConfig) {
		c.generator = g
	}
}

// WithoutFeedback disables feedback generation. Matches requested with
// feedback carry a fixed "feedback disabled" marker.
func WithoutFeedback() Option {
	return func(c *clientConfig) {
		c.feedback = "off"
	}
}

// WithHNSW configures vector index build parameters.
func WithHNSW(m, efConstruct int) Option {
	return func(c *clientConfig) {
		c.hnswM = m
		c.hnswEFConstruct = efConstruct
	}
}

// WithSearchTimeout bounds a single vector search. Default 5s.
func WithSearchTimeout(d time.Duration) Option {
	return func(c *clientConfig) {
		c.searchTimeout = d
	}
}

// WithFeedbackLimits bounds the feedback fan-out: concurrent generator
// calls and calls per second. Zero values keep the defaults (4, unlimited).
func WithFeedbackLimits(maxConcurrent int, ratePerSec float64) Option {
	return func(c *clientConfig) {
		c.maxConcurrent = maxConcurrent
		c.ratePerSec = ratePerSec
	}
}

// WithLogger enables structured logging. Default: no-op logger.
func WithLogger(l *zap.Logger) Option {
	return func(c *clientConfig) {
		if l != nil {
			c.logger = l
		}
	}
}
