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

	"github.com/kailas-cloud/rankfuse/internal/config"
	dbRedis "github.com/kailas-cloud/rankfuse/internal/db/redis"
	logpkg "github.com/kailas-cloud/rankfuse/internal/logger"
	"github.com/kailas-cloud/rankfuse/internal/metrics"
	"github.com/kailas-cloud/rankfuse/internal/repository/embcache"
	keywordrepo "github.com/kailas-cloud/rankfuse/internal/repository/keyword"
	"github.com/kailas-cloud/rankfuse/internal/repository/resultcache"
	vectorrepo "github.com/kailas-cloud/rankfuse/internal/repository/vector"
	chiTransport "github.com/kailas-cloud/rankfuse/internal/transport/chi"
	openaiEmb "github.com/kailas-cloud/rankfuse/internal/transport/openai"
	"github.com/kailas-cloud/rankfuse/internal/usecase/faceting"
	healthuc "github.com/kailas-cloud/rankfuse/internal/usecase/health"
	"github.com/kailas-cloud/rankfuse/internal/usecase/indexing"
	"github.com/kailas-cloud/rankfuse/internal/usecase/normalize"
	searchuc "github.com/kailas-cloud/rankfuse/internal/usecase/search"
	"github.com/kailas-cloud/rankfuse/internal/version"
)

func main() {
	// Load configuration based on ENV
	env := config.GetEnv()

	cfg, err := config.Load(env)
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	logger, err := logpkg.NewLogger(env, cfg.Logging.Level)
	if err != nil {
		panic("failed to create logger: " + err.Error())
	}
	defer func() { _ = logger.Sync() }()

	logger.Info("Starting rankfuse API server",
		zap.String("version", version.Version),
		zap.String("commit", version.Commit),
		zap.String("env", env),
		zap.Int("http_port", cfg.HTTP.Port),
		zap.Strings("db_addrs", cfg.Database.Addrs),
	)

	store, err := dbRedis.NewStore(dbRedis.Config{
		Addrs:    cfg.Database.Addrs,
		Username: cfg.Database.Username,
		Password: cfg.Database.Password,
		DB:       cfg.Database.DB,
	})
	if err != nil {
		logger.Fatal("Failed to create database store", zap.Error(err))
	}
	defer store.Close()

	// Wait for database to be ready
	ctx := context.Background()
	if err := store.WaitForReady(ctx, time.Duration(cfg.Database.ReadinessTimeout)*time.Second); err != nil {
		logger.Fatal("Database not ready", zap.Error(err))
	}
	logger.Info("Connected to database")

	// Register search metrics explicitly (no init())
	metrics.RegisterSearchMetrics()

	// Embedder chain: OpenAI provider, optionally wrapped in a Redis cache.
	base := openaiEmb.NewEmbedder(&openaiEmb.Config{
		APIKey:         cfg.Embedding.APIKey,
		BaseURL:        cfg.Embedding.BaseURL,
		Model:          cfg.Embedding.Model,
		Dimensions:     cfg.Embedding.Dimensions,
		MaxInputLength: cfg.Embedding.MaxInputLength,
		Provider:       cfg.Embedding.Provider,
		Logger:         logger,
	})
	var embedder searchuc.EmbeddingProvider = base
	if cfg.Embedding.CacheTTLSec > 0 {
		embedder = embcache.New(base, store, time.Duration(cfg.Embedding.CacheTTLSec)*time.Second, logger)
	}
	logger.Info("Embedder created",
		zap.String("provider", cfg.Embedding.Provider),
		zap.String("model", cfg.Embedding.Model),
		zap.Int("dimensions", cfg.Embedding.Dimensions),
	)

	// Retrieval backends
	keywordEngine := keywordrepo.NewEngine(keywordrepo.Config{Path: cfg.Keyword.Path}, logger)
	defer func() { _ = keywordEngine.Close() }()
	vectorRepo := vectorrepo.NewRepo(store, vectorrepo.Config{TagFields: cfg.Vector.TagFields}, logger)

	// Result cache
	var cache searchuc.Cache
	switch cfg.Cache.Backend {
	case "redis":
		cache = resultcache.NewRedis(store, "", logger)
	case "memory":
		cache = resultcache.NewMemory(cfg.Cache.MemorySize, time.Duration(cfg.Cache.TTLSec)*time.Second)
	case "none":
		// caching disabled
	}

	normalizer := normalize.New(normalize.Config{
		MinTokenLength:  cfg.Normalizer.MinTokenLength,
		MaxEditDistance: cfg.Normalizer.MaxEditDistance,
		MaxAlternatives: cfg.Normalizer.MaxAlternatives,
		MinFrequency:    cfg.Normalizer.MinFrequency,
	}, nil, logger)

	facets := faceting.New(faceting.Config{
		MaxValuesPerFacet:  cfg.Facets.MaxValuesPerFacet,
		HierarchySeparator: cfg.Facets.HierarchySeparator,
	}, logger)

	coordinator := searchuc.New(searchuc.Config{
		BranchTimeout:  time.Duration(cfg.Search.BranchTimeoutSec) * time.Second,
		CacheTTL:       time.Duration(cfg.Cache.TTLSec) * time.Second,
		DegradePartial: cfg.Search.DegradePartial,
		OverFetch:      cfg.Search.OverFetch,
	}, searchuc.Deps{
		Keyword:    keywordEngine,
		Vector:     vectorRepo,
		Embedder:   embedder,
		Cache:      cache,
		Normalizer: normalizer,
		Facets:     facets,
		Logger:     logger,
	})

	var invalidator indexing.CacheInvalidator
	if cache != nil {
		invalidator = cache
	}
	hooks := indexing.NewHooks(indexing.Config{}, keywordEngine, vectorRepo, embedder, invalidator, logger)

	healthSvc := healthuc.New(
		healthuc.CheckerFunc{ComponentName: "database", Fn: store.Ping},
		healthuc.CheckerFunc{ComponentName: "embedding", Fn: base.HealthCheck},
	)

	server := chiTransport.NewServer(coordinator, hooks, healthSvc, logger)

	r := chi.NewRouter()
	r.Use(jsonRecoverer(logger))
	r.Use(chiMiddleware.RequestID)
	r.Use(wideEventMiddleware(logger))
	r.Use(chiTransport.BearerAuthMiddleware(cfg.Auth.APIKeys))
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

			// Set X-Request-ID in response header
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
