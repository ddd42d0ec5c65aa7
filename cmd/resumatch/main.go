package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/talentsift/resumatch/internal/config"
	"github.com/talentsift/resumatch/internal/domain"
	"github.com/talentsift/resumatch/internal/extract"
	"github.com/talentsift/resumatch/internal/feedback"
	logpkg "github.com/talentsift/resumatch/internal/logger"
	"github.com/talentsift/resumatch/internal/metrics"
	"github.com/talentsift/resumatch/internal/storage"
	storepg "github.com/talentsift/resumatch/internal/storage/postgres"
	storeredis "github.com/talentsift/resumatch/internal/storage/redis"
	chiTransport "github.com/talentsift/resumatch/internal/transport/chi"
	"github.com/talentsift/resumatch/internal/transport/gemini"
	openaiEmb "github.com/talentsift/resumatch/internal/transport/openai"
	embeddinguc "github.com/talentsift/resumatch/internal/usecase/embedding"
	healthuc "github.com/talentsift/resumatch/internal/usecase/health"
	ingestuc "github.com/talentsift/resumatch/internal/usecase/ingest"
	rankuc "github.com/talentsift/resumatch/internal/usecase/rank"
	"github.com/talentsift/resumatch/internal/version"
)

func main() {
	showVersion := flag.Bool("version", false, "print version and exit")
	flag.Parse()
	if *showVersion {
		fmt.Println(version.String())
		return
	}

	// Load configuration based on ENV
	env := config.GetEnv()

	cfg, err := config.Load(env)
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	logger, err := logpkg.New(env, cfg.Logging.Level)
	if err != nil {
		panic("failed to create logger: " + err.Error())
	}
	defer func() { _ = logger.Sync() }()

	logger.Info("Starting resumatch API server",
		zap.String("version", version.Version),
		zap.String("commit", version.Commit),
		zap.String("env", env),
		zap.Int("http_port", cfg.HTTP.Port),
		zap.String("storage_driver", cfg.Storage.Driver),
	)

	ctx := context.Background()

	// Create resume store based on driver
	store, cache, err := buildStore(ctx, cfg)
	if err != nil {
		logger.Fatal("Failed to create resume store", zap.Error(err))
	}
	defer store.Close()

	// Wait for the store to be ready, then apply schema + vector index
	if err := store.WaitForReady(ctx, time.Duration(cfg.Storage.ReadinessTimeout)*time.Second); err != nil {
		logger.Fatal("Resume store not ready", zap.Error(err))
	}
	if err := store.EnsureIndex(ctx); err != nil {
		logger.Fatal("Failed to ensure vector index", zap.Error(err))
	}
	logger.Info("Connected to resume store",
		zap.String("driver", cfg.Storage.Driver),
		zap.Int("dimensions", cfg.Embedding.Dimensions),
	)

	// Register domain metrics explicitly (no init())
	metrics.RegisterEmbeddingMetrics()
	metrics.RegisterMatchingMetrics()

	// Build embedder chain — composition root.
	// The base provider doubles as the health probe target.
	base := openaiEmb.NewEmbedder(&openaiEmb.Config{
		APIKey:     cfg.Embedding.APIKey,
		BaseURL:    cfg.Embedding.BaseURL,
		Model:      cfg.Embedding.Model,
		Dimensions: cfg.Embedding.Dimensions,
	})
	embedder := buildEmbedderChain(base, cache, cfg, logger)
	logger.Info("Embedder created",
		zap.String("model", cfg.Embedding.Model),
		zap.Int("dimensions", cfg.Embedding.Dimensions),
	)

	generator, err := buildGenerator(ctx, cfg)
	if err != nil {
		logger.Fatal("Failed to create feedback generator", zap.Error(err))
	}
	logger.Info("Feedback generator configured", zap.String("provider", cfg.Feedback.Provider))

	// Create use case services
	ingestSvc := ingestuc.New(store, embedder, extract.NewPlain(), cfg.Embedding.Dimensions, logger)
	rankSvc := rankuc.New(store, embedder, generator, rankuc.Options{
		SearchTimeout:   time.Duration(cfg.Matching.SearchTimeoutSec) * time.Second,
		FeedbackTimeout: time.Duration(cfg.Feedback.TimeoutSec) * time.Second,
		MaxConcurrent:   cfg.Feedback.MaxConcurrent,
		RatePerSec:      cfg.Feedback.RateLimitPerSec,
		Provider:        cfg.Feedback.Provider,
	}, logger)
	healthSvc := healthuc.New(store, base)

	// Create chi server
	server := chiTransport.NewServer(ingestSvc, rankSvc, healthSvc, chiTransport.MatchDefaults{
		Threshold: cfg.Matching.DefaultThreshold,
		Limit:     cfg.Matching.DefaultLimit,
	}, logger)

	r := chi.NewRouter()
	r.Use(jsonRecoverer(logger))
	r.Use(chiMiddleware.RequestID)
	r.Use(wideEventMiddleware(logger))
	r.Use(metrics.Middleware())
	server.Routes(r)

	addr := fmt.Sprintf(":%d", cfg.HTTP.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  time.Duration(cfg.HTTP.ReadTimeoutSec) * time.Second,
		WriteTimeout: time.Duration(cfg.HTTP.WriteTimeoutSec) * time.Second,
	}

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)

	go func() {
		logger.Info("Starting HTTP server", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("HTTP server error", zap.Error(err))
		}
	}()

	<-quit
	logger.Info("Received shutdown signal")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.HTTP.ShutdownSec)*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Error during shutdown", zap.Error(err))
	}

	logger.Info("Server stopped gracefully")
}

// buildStore creates the configured driver plus its embedding cache.
// The embedding dimension is baked into both so index DDL and cache
// validation agree.
func buildStore(ctx context.Context, cfg config.Config) (storage.ResumeStore, storage.EmbeddingCache, error) {
	switch cfg.Storage.Driver {
	case "redis":
		s, err := storeredis.NewStore(storeredis.Config{
			Addrs:           cfg.Storage.Addrs,
			Password:        cfg.Storage.Password,
			KeyPrefix:       cfg.Storage.KeyPrefix,
			Dim:             cfg.Embedding.Dimensions,
			HNSWM:           cfg.Storage.HNSWM,
			HNSWEFConstruct: cfg.Storage.HNSWEFConstruct,
		})
		if err != nil {
			return nil, nil, fmt.Errorf("redis store: %w", err)
		}
		return s, storeredis.NewCache(s), nil
	case "postgres":
		s, err := storepg.NewStore(ctx, storepg.Config{
			DSN:             cfg.Storage.DSN,
			Dim:             cfg.Embedding.Dimensions,
			HNSWM:           cfg.Storage.HNSWM,
			HNSWEFConstruct: cfg.Storage.HNSWEFConstruct,
		})
		if err != nil {
			return nil, nil, fmt.Errorf("postgres store: %w", err)
		}
		return s, storepg.NewCache(s), nil
	default:
		return nil, nil, fmt.Errorf("unknown storage driver %q", cfg.Storage.Driver)
	}
}

// buildEmbedderChain assembles the decorator chain: OpenAI -> Cached -> Instrumented.
func buildEmbedderChain(
	base *openaiEmb.Embedder,
	cache storage.EmbeddingCache,
	cfg config.Config,
	logger *zap.Logger,
) domain.Embedder {
	var embedder domain.Embedder = base
	if cache != nil {
		embedder = embeddinguc.NewCachedEmbedder(
			embedder, cache, cfg.Embedding.Model, metrics.EmbeddingCacheTotal, logger,
		)
	}
	return embeddinguc.NewInstrumentedEmbedder(embedder, cfg.Embedding.Model, logger)
}

// buildGenerator picks the feedback provider. "off" returns a nil
// generator, which the ranking service surfaces as the disabled marker.
func buildGenerator(ctx context.Context, cfg config.Config) (domain.Generator, error) {
	switch cfg.Feedback.Provider {
	case "gemini":
		g, err := gemini.NewGenerator(ctx, &gemini.Config{
			APIKey: cfg.Feedback.APIKey,
			Model:  cfg.Feedback.Model,
		})
		if err != nil {
			return nil, fmt.Errorf("gemini generator: %w", err)
		}
		return g, nil
	case "keyword":
		return feedback.NewKeywordGenerator(), nil
	case "off":
		return nil, nil
	default:
		return nil, fmt.Errorf("unknown feedback provider %q", cfg.Feedback.Provider)
	}
}

// jsonRecoverer is a recovery middleware that returns JSON instead of a plain text stacktrace.
func jsonRecoverer(logger *zap.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if rvr := recover(); rvr != nil {
					logger.Error("panic recovered",
						zap.Any("panic", rvr),
						zap.Stack("stacktrace"),
					)
					w.Header().Set("Content-Type", "application/json")
					w.WriteHeader(http.StatusInternalServerError)
					_ = json.NewEncoder(w).Encode(map[string]string{
						"code":    "internal_error",
						"message": "internal error",
					})
				}
			}()
			next.ServeHTTP(w, r)
		})
	}
}

// wideEventMiddleware emits a canonical log line per request and propagates X-Request-ID.
func wideEventMiddleware(logger *zap.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			// chi.middleware.RequestID already placed request_id in context
			requestID := chiMiddleware.GetReqID(r.Context())

			if requestID != "" {
				w.Header().Set("X-Request-ID", requestID)
			}

			// Per-request logger with request_id
			reqLogger := logger.With(zap.String("request_id", requestID))
			ctx := logpkg.ContextWithLogger(r.Context(), reqLogger)

			ww := chiMiddleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r.WithContext(ctx))

			// Canonical log line — one line per request
			reqLogger.Info("http_request",
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status", ww.Status()),
				zap.Duration("latency", time.Since(start)),
				zap.String("ip", r.RemoteAddr),
				zap.Int64("content_length", r.ContentLength),
				zap.String("user_agent", r.UserAgent()),
				zap.Int("response_bytes", ww.BytesWritten()),
			)
		})
	}
}
