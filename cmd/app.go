package main

import (
	"context"
	"errors"
	"journalsummarizer/internal/cache"
	"journalsummarizer/internal/config"
	"journalsummarizer/internal/database"
	"journalsummarizer/internal/handler"
	"journalsummarizer/internal/metrics"
	"journalsummarizer/internal/summarizer"
	"journalsummarizer/internal/summary"
	"log/slog"
	"os"
)

// app holds the dependencies shared by every command.
type app struct {
	cfg     config.Config
	log     *slog.Logger
	metrics *metrics.Metrics
	handler *handler.Handler
	history *database.Database
	closers []func() error
}

func newApp(ctx context.Context) (*app, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}

	level, err := cfg.SlogLevel()
	if err != nil {
		return nil, err
	}

	log := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(log)

	loc, err := cfg.Location()
	if err != nil {
		return nil, err
	}

	a := &app{
		cfg:     cfg,
		log:     log,
		metrics: metrics.New(),
	}

	summaryCache, err := a.initCache(ctx)
	if err != nil {
		a.close()

		return nil, err
	}

	var historyStore summary.HistoryStore
	if cfg.HistoryEnabled() {
		db, dbErr := database.New(ctx, cfg.HistoryDBPath, log)
		if dbErr != nil {
			log.ErrorContext(ctx, "Failed to initialize history db",
				"error", dbErr,
				"dbPath", cfg.HistoryDBPath)
			a.close()

			return nil, dbErr
		}
		a.history = db
		a.closers = append(a.closers, db.Close)
		historyStore = db

		log.InfoContext(ctx, "History db is initialized",
			"dbPath", cfg.HistoryDBPath,
			"retention", cfg.HistoryRetention.String())
	}

	svc := summary.New(initOpenAISummarizer(ctx, cfg, log), summary.Options{
		Model:       cfg.OpenAIModel,
		Location:    loc,
		RejectEmpty: cfg.RejectEmptyEntries(),
		Cache:       summaryCache,
		CacheTTL:    cfg.SummaryCacheTTL,
		History:     historyStore,
		Metrics:     a.metrics,
	}, log)

	a.handler = handler.New(svc, a.metrics, log)

	return a, nil
}

func (a *app) initCache(ctx context.Context) (cache.Cache, error) {
	if a.cfg.RedisURL != "" {
		redisCache, err := cache.NewRedis(ctx, a.cfg.RedisURL)
		if err != nil {
			a.log.ErrorContext(ctx, "Failed to connect to redis",
				"error", err)

			return nil, err
		}
		a.closers = append(a.closers, redisCache.Close)

		a.log.InfoContext(ctx, "Redis summary cache is initialized",
			"ttl", a.cfg.SummaryCacheTTL.String())

		return redisCache, nil
	}

	memoryCache := cache.NewMemory(a.cfg.SummaryCacheSize, a.cfg.SummaryCacheMaxBytes)
	if memoryCache == nil {
		a.log.InfoContext(ctx, "Summary cache is disabled",
			"envVar", "SUMMARY_CACHE_SIZE")

		return nil, nil
	}

	a.log.InfoContext(ctx, "Memory summary cache is initialized",
		"maxEntries", a.cfg.SummaryCacheSize,
		"maxBytes", a.cfg.SummaryCacheMaxBytes,
		"ttl", a.cfg.SummaryCacheTTL.String())

	return memoryCache, nil
}

func initOpenAISummarizer(ctx context.Context, cfg config.Config, log *slog.Logger) summarizer.Summarizer {
	if cfg.OpenAIAPIKey == "" {
		log.WarnContext(ctx, "OPENAI_API_KEY is missing so summarize requests will fail",
			"envVar", "OPENAI_API_KEY")

		return nil
	}

	s, err := summarizer.NewOpenAISummarizer(summarizer.OpenAIConfig{
		APIKey:      cfg.OpenAIAPIKey,
		Model:       cfg.OpenAIModel,
		Temperature: cfg.OpenAITemperature,
		BaseURL:     cfg.OpenAIBaseURL,
		Timeout:     cfg.OpenAITimeout,
	})
	if err != nil {
		log.ErrorContext(ctx, "Failed to create OpenAI summarizer so summarize requests will fail",
			"error", err,
			"envVar", "OPENAI_API_KEY")

		return nil
	}

	log.InfoContext(ctx, "OpenAI summarizer is initialized",
		"provider", "openai",
		"model", s.Model(),
		"temperature", cfg.OpenAITemperature)

	return s
}

func (a *app) close() {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}

	if err := errors.Join(errs...); err != nil {
		a.log.Error("Failed to release resources",
			"error", err)
	}
}
