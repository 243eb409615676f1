package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/alex-wang101/Quiry/internal/buffer"
	"github.com/alex-wang101/Quiry/internal/config"
	"github.com/alex-wang101/Quiry/internal/db"
	dbRedis "github.com/alex-wang101/Quiry/internal/db/redis"
	"github.com/alex-wang101/Quiry/internal/domain"
	logpkg "github.com/alex-wang101/Quiry/internal/logger"
	"github.com/alex-wang101/Quiry/internal/metrics"
	chunkrepo "github.com/alex-wang101/Quiry/internal/repository/chunk"
	"github.com/alex-wang101/Quiry/internal/repository/embcache"
	chiTransport "github.com/alex-wang101/Quiry/internal/transport/chi"
	openaiProv "github.com/alex-wang101/Quiry/internal/transport/openai"
	adminuc "github.com/alex-wang101/Quiry/internal/usecase/admin"
	healthuc "github.com/alex-wang101/Quiry/internal/usecase/health"
	ingestuc "github.com/alex-wang101/Quiry/internal/usecase/ingest"
	queryuc "github.com/alex-wang101/Quiry/internal/usecase/query"
	"github.com/alex-wang101/Quiry/internal/version"
)

func main() {
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

	logger.Info("Starting quiry API server",
		zap.String("version", version.Version),
		zap.String("commit", version.Commit),
		zap.String("env", env),
		zap.Int("http_port", cfg.HTTP.Port),
		zap.Strings("db_addrs", cfg.Database.Addrs),
	)

	store, err := dbRedis.NewStore(dbRedis.Config{
		Addrs:    cfg.Database.Addrs,
		Password: cfg.Database.Password,
	})
	if err != nil {
		logger.Fatal("Failed to create store", zap.Error(err))
	}
	defer store.Close()

	ctx := context.Background()
	if err := store.WaitForReady(ctx, time.Duration(cfg.Database.ReadinessTimeout)*time.Second); err != nil {
		logger.Fatal("Store not ready", zap.Error(err))
	}
	logger.Info("Connected to store")

	// Register core metrics explicitly (no init())
	metrics.RegisterCoreMetrics()

	// Providers — composition root
	baseEmbedder := openaiProv.NewEmbedder(&openaiProv.EmbedderConfig{
		APIKey:     cfg.Embedding.APIKey,
		BaseURL:    cfg.Embedding.BaseURL,
		Model:      cfg.Embedding.Model,
		Dimensions: cfg.Embedding.Dimensions,
		Timeout:    time.Duration(cfg.Embedding.TimeoutSec) * time.Second,
		Provider:   "openai",
		Logger:     logger,
	})

	// Chunk texts are unique so ingestion uses the provider directly;
	// queries repeat and go through the cache.
	queryEmbedder := buildQueryEmbedder(baseEmbedder, store, cfg, logger)

	answerer := openaiProv.NewAnswerer(&openaiProv.AnswererConfig{
		APIKey:      cfg.Answerer.APIKey,
		BaseURL:     cfg.Answerer.BaseURL,
		Model:       cfg.Answerer.Model,
		Temperature: cfg.Answerer.Temperature,
		MaxTokens:   cfg.Answerer.MaxTokens,
		Timeout:     time.Duration(cfg.Answerer.TimeoutSec) * time.Second,
		Provider:    "openai",
		Logger:      logger,
	})

	logger.Info("Providers created",
		zap.String("embedding_model", cfg.Embedding.Model),
		zap.Int("dimensions", cfg.Embedding.Dimensions),
		zap.String("answerer_model", cfg.Answerer.Model),
	)

	repo := chunkrepo.New(store, cfg.Storage.KeyPrefix)
	buffers := buffer.New(cfg.Buffer.ChunkSize)

	ingestSvc := ingestuc.New(buffers, repo, baseEmbedder, ingestuc.Options{
		Dimensions:  cfg.Embedding.Dimensions,
		DedupWindow: time.Duration(cfg.Buffer.DedupWindowSec) * time.Second,
	})
	querySvc := queryuc.New(repo, queryEmbedder, answerer, queryuc.Options{
		TopK:   cfg.Retrieval.TopK,
		Rerank: cfg.Retrieval.RerankEnabled(),
	})
	adminSvc := adminuc.New(repo)
	healthSvc := healthuc.New(store, baseEmbedder)

	server := chiTransport.NewServer(ingestSvc, querySvc, adminSvc, healthSvc, logger)

	r := chi.NewRouter()
	r.Use(jsonRecoverer(logger))
	r.Use(chiMiddleware.RequestID)
	r.Use(wideEventMiddleware(logger))
	r.Use(metrics.Middleware())
	server.Routes(r, cfg.Auth.AdminKeys)

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

// buildQueryEmbedder wraps the provider embedder with the store-backed
// cache when a TTL is configured.
func buildQueryEmbedder(base domain.Embedder, store db.Store, cfg config.Config, logger *zap.Logger) domain.Embedder {
	if cfg.Embedding.CacheTTLHrs <= 0 {
		return base
	}
	return embcache.New(
		base, store, cfg.Storage.KeyPrefix,
		time.Duration(cfg.Embedding.CacheTTLHrs)*time.Hour,
		metrics.EmbeddingCacheTotal, logger,
	)
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
						"error": "internal error",
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

			requestID := chiMiddleware.GetReqID(r.Context())
			if requestID != "" {
				w.Header().Set("X-Request-ID", requestID)
			}

			reqLogger := logger.With(zap.String("request_id", requestID))
			ctx := logpkg.ContextWithLogger(r.Context(), reqLogger)

			ww := chiMiddleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r.WithContext(ctx))

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
