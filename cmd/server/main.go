package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	apihttp "moviescout/internal/api/http"
	"moviescout/internal/app"
	"moviescout/internal/auth"
	"moviescout/internal/catalog/tmdb"
	"moviescout/internal/metrics"
	"moviescout/internal/recommend"
	"moviescout/internal/search"
	storemongo "moviescout/internal/store/mongo"
	"moviescout/internal/telemetry"
)

func main() {
	cfg := app.LoadConfig()
	logger := newLogger(cfg.LogLevel, cfg.LogFormat)
	slog.SetDefault(logger)
	metrics.Register(prometheus.DefaultRegisterer)

	shutdownTracer, err := telemetry.Init(context.Background(), "moviescout")
	if err != nil {
		logger.Warn("otel init failed", slog.String("error", err.Error()))
	}
	defer func() {
		if shutdownTracer != nil {
			_ = shutdownTracer(context.Background())
		}
	}()

	logger.Info("configuration loaded",
		slog.String("service", "moviescout"),
		slog.String("httpAddr", cfg.HTTPAddr),
		slog.String("logLevel", cfg.LogLevel),
		slog.String("logFormat", cfg.LogFormat),
		slog.Duration("requestTimeout", cfg.RequestTimeout),
		slog.Bool("hasTMDBKey", strings.TrimSpace(cfg.TMDBAPIKey) != ""),
		slog.Bool("hasRedis", strings.TrimSpace(cfg.RedisURL) != ""),
		slog.String("mongoDatabase", cfg.MongoDatabase),
		slog.Duration("tokenTTL", cfg.TokenTTL),
		slog.Duration("searchDebounce", cfg.SearchDebounce),
	)

	if strings.TrimSpace(cfg.TMDBAPIKey) == "" {
		logger.Error("TMDB_API_KEY is required")
		os.Exit(1)
	}
	if strings.TrimSpace(cfg.JWTSecret) == "" {
		logger.Error("JWT_SECRET is required")
		os.Exit(1)
	}

	redisClient := buildRedisClient(cfg, logger)

	catalog := tmdb.NewClient(tmdb.Config{
		APIKey:   cfg.TMDBAPIKey,
		BaseURL:  cfg.TMDBBaseURL,
		Language: cfg.TMDBLanguage,
		Client:   &http.Client{Timeout: cfg.RequestTimeout, Transport: otelhttp.NewTransport(http.DefaultTransport)},
		Redis:    redisClient,
		CacheTTL: cfg.DetailCacheTTL,
	})

	connectCtx, cancelConnect := context.WithTimeout(context.Background(), 15*time.Second)
	mongoClient, err := storemongo.Connect(connectCtx, cfg.MongoURI)
	cancelConnect()
	if err != nil {
		logger.Error("mongo connect failed", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer func() {
		disconnectCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = mongoClient.Disconnect(disconnectCtx)
	}()

	users := storemongo.NewUserRepository(mongoClient, cfg.MongoDatabase)
	reviews := storemongo.NewReviewRepository(mongoClient, cfg.MongoDatabase)
	indexCtx, cancelIndex := context.WithTimeout(context.Background(), 10*time.Second)
	if err := users.EnsureIndexes(indexCtx); err != nil {
		logger.Warn("user index creation failed", slog.String("error", err.Error()))
	}
	if err := reviews.EnsureIndexes(indexCtx); err != nil {
		logger.Warn("review index creation failed", slog.String("error", err.Error()))
	}
	cancelIndex()

	searchService := search.NewService(catalog, search.WithLogger(logger))
	authService := auth.NewService(users, cfg.JWTSecret,
		auth.WithLogger(logger),
		auth.WithTokenTTL(cfg.TokenTTL),
	)
	recommender := recommend.NewService(catalog)

	handler := apihttp.NewServer(searchService,
		apihttp.WithLogger(logger),
		apihttp.WithCatalog(catalog),
		apihttp.WithAuth(authService, users),
		apihttp.WithReviews(reviews),
		apihttp.WithRecommender(recommender),
		apihttp.WithLiveDebounce(cfg.SearchDebounce),
	).Handler()

	server := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		// The live-search WebSocket holds connections open indefinitely.
		WriteTimeout: 0,
		IdleTimeout:  60 * time.Second,
	}

	rootCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.ListenAndServe()
	}()

	logger.Info("moviescout service started", slog.String("addr", cfg.HTTPAddr))

	select {
	case <-rootCtx.Done():
		logger.Info("shutdown signal received")
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", slog.String("error", err.Error()))
			os.Exit(1)
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Warn("shutdown error", slog.String("error", err.Error()))
	}
	logger.Info("moviescout service stopped")
}

func buildRedisClient(cfg app.Config, logger *slog.Logger) *redis.Client {
	redisURL := strings.TrimSpace(cfg.RedisURL)
	if redisURL == "" {
		return nil
	}
	redisOpts, err := redis.ParseURL(redisURL)
	if err != nil {
		logger.Warn("invalid redis url, catalog cache disabled", slog.String("error", err.Error()))
		return nil
	}
	client := redis.NewClient(redisOpts)
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		logger.Warn("redis not reachable, catalog cache disabled", slog.String("error", err.Error()))
		return nil
	}
	logger.Info("redis connected", slog.String("addr", redisOpts.Addr))
	return client
}

func newLogger(levelRaw, formatRaw string) *slog.Logger {
	level := parseLogLevel(levelRaw)
	options := &slog.HandlerOptions{Level: level}
	format := strings.ToLower(strings.TrimSpace(formatRaw))
	if format == "json" {
		return slog.New(slog.NewJSONHandler(os.Stdout, options))
	}
	return slog.New(slog.NewTextHandler(os.Stdout, options))
}

func parseLogLevel(raw string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
