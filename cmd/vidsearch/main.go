package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/vidsearch/internal/backend"
	"github.com/kailas-cloud/vidsearch/internal/config"
	"github.com/kailas-cloud/vidsearch/internal/db"
	"github.com/kailas-cloud/vidsearch/internal/domain"
	logpkg "github.com/kailas-cloud/vidsearch/internal/logger"
	"github.com/kailas-cloud/vidsearch/internal/metrics"
	"github.com/kailas-cloud/vidsearch/internal/repository/embcache"
	chiTransport "github.com/kailas-cloud/vidsearch/internal/transport/chi"
	openaiEmb "github.com/kailas-cloud/vidsearch/internal/transport/openai"
	embeddinguc "github.com/kailas-cloud/vidsearch/internal/usecase/embedding"
	healthuc "github.com/kailas-cloud/vidsearch/internal/usecase/health"
	ingestuc "github.com/kailas-cloud/vidsearch/internal/usecase/ingest"
	searchuc "github.com/kailas-cloud/vidsearch/internal/usecase/search"
	videouc "github.com/kailas-cloud/vidsearch/internal/usecase/video"
	"github.com/kailas-cloud/vidsearch/internal/version"
)

func main() {
	// Load configuration based on ENV
	env := config.GetEnv()

	cfg, err := config.Load(env)
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	logger, err := logpkg.NewLogger(env, logpkg.Options{Level: cfg.Logging.Level, Component: logpkg.ComponentAPI})
	if err != nil {
		panic("failed to create logger: " + err.Error())
	}
	defer func() { _ = logger.Sync() }()

	logger.Info("Starting vidsearch API server",
		zap.String("version", version.Version),
		zap.String("commit", version.Commit),
		zap.String("env", env),
		zap.Int("http_port", cfg.HTTP.Port),
		zap.String("db_driver", cfg.Database.Driver),
	)

	domain.KeyPrefix = cfg.Storage.KeyPrefix

	ctx := context.Background()
	be, err := backend.Open(ctx, &cfg, logger)
	if err != nil {
		logger.Fatal("Failed to open database", zap.Error(err))
	}
	defer be.Close()

	// Register metrics explicitly (no init())
	metrics.RegisterEmbeddingMetrics()
	metrics.RegisterSearchMetrics()
	metrics.RegisterAuthMetrics()

	queryEmbedder := buildEmbedder(&cfg.Embedding, be.KV, logger)
	logger.Info("Query embedder created",
		zap.String("provider", cfg.Embedding.Provider),
		zap.String("model", cfg.Embedding.Model),
		zap.Int("dimensions", cfg.Embedding.Dimensions),
		zap.Bool("enabled", cfg.Embedding.Enabled()),
	)

	// Use case services
	ranker := searchuc.NewRanker(be.Frames, searchuc.WithOverFetch(cfg.Search.OverFetchFactor))
	searchSvc := searchuc.New(ranker, be.Videos, queryEmbedder)
	ingestSvc := ingestuc.New(be.Frames, be.Videos, cfg.Embedding.Dimensions).
		WithMaxBatchSize(cfg.Index.MaxBatchSize)
	videoSvc := videouc.New(be.Videos, be.Frames)
	healthSvc := healthuc.New(be.DB, newEmbeddingHealthChecker(queryEmbedder)).WithIndex(be.Frames, be.Videos)

	server := chiTransport.NewServer(searchSvc, ingestSvc, videoSvc, healthSvc,
		chiTransport.SearchDefaults{
			TopK:     cfg.Search.DefaultTopK,
			MaxTopK:  cfg.Search.MaxTopK,
			MinScore: *cfg.Search.MinScore,
			Window:   cfg.Search.SegmentWindow,
			MergeGap: cfg.Search.MergeGap,
		},
		chiTransport.MediaLinks{
			ThumbnailBase: cfg.Storage.ThumbnailBase,
			VideoBase:     cfg.Storage.VideoBase,
		},
	)
	handler := chiTransport.NewRouter(server, cfg.Auth.APIKeys, logger)

	addr := fmt.Sprintf(":%d", cfg.HTTP.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      handler,
		ReadTimeout:  time.Duration(cfg.HTTP.ReadTimeoutSec) * time.Second,
		WriteTimeout: time.Duration(cfg.HTTP.WriteTimeoutSec) * time.Second,
	}

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)

	go func() {
		logger.Info("Starting HTTP server", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
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

// buildEmbedder assembles the decorator chain: OpenAI -> Cached -> Instrumented -> Instruction.
// Without a base_url text search is disabled and every call fails as a provider error.
func buildEmbedder(cfg *config.EmbeddingConfig, kv db.KVStore, logger *zap.Logger) domain.Embedder {
	if !cfg.Enabled() {
		logger.Warn("Embedding provider not configured; text search disabled")
		return disabledEmbedder{}
	}

	base := openaiEmb.NewEmbedder(&openaiEmb.Config{
		APIKey:         cfg.APIKey,
		BaseURL:        cfg.BaseURL,
		Model:          cfg.Model,
		Dimensions:     cfg.Dimensions,
		SendDimensions: cfg.SendDimensions,
		Provider:       cfg.Provider,
		Logger:         logger,
	})

	var embedder domain.Embedder = base
	if cfg.Cache && kv != nil {
		embedder = embcache.New(base, kv, cfg.Model, metrics.EmbeddingCacheTotal, logger).
			WithTTL(time.Duration(cfg.CacheTTLSec) * time.Second)
	}

	embedder = embeddinguc.NewInstrumentedEmbedder(embedder, cfg.Provider, cfg.Model, logger)

	// Instruction prefix (outermost, so the cache key includes it)
	if cfg.QueryInstruction != "" {
		return domain.NewInstructionEmbedder(embedder, cfg.QueryInstruction)
	}
	return embedder
}

// embeddingHealthChecker wraps domain.Embedder to implement health.EmbeddingChecker.
type embeddingHealthChecker struct {
	embedder domain.Embedder
}

func newEmbeddingHealthChecker(embedder domain.Embedder) *embeddingHealthChecker {
	return &embeddingHealthChecker{embedder: embedder}
}

func (h *embeddingHealthChecker) HealthCheck(ctx context.Context) error {
	if hc, ok := h.embedder.(domain.HealthChecker); ok {
		if err := hc.HealthCheck(ctx); err != nil {
			return fmt.Errorf("embedding health check: %w", err)
		}
	}
	return nil
}

type disabledEmbedder struct{}

func (disabledEmbedder) Embed(context.Context, string) (domain.EmbeddingResult, error) {
	return domain.EmbeddingResult{}, fmt.Errorf("text search disabled: %w", domain.ErrEmbeddingProviderError)
}

func (disabledEmbedder) HealthCheck(context.Context) error {
	return nil
}
