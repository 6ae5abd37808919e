package app

import (
	"context"
	"fmt"
	"io"

	"go.uber.org/zap"

	"github.com/kapu/youtube-channel-analyzer/internal/adapter"
	"github.com/kapu/youtube-channel-analyzer/internal/analytics"
	"github.com/kapu/youtube-channel-analyzer/internal/config"
	"github.com/kapu/youtube-channel-analyzer/internal/service/cache"
	"github.com/kapu/youtube-channel-analyzer/internal/service/database"
	"github.com/kapu/youtube-channel-analyzer/internal/service/pipeline"
	"github.com/kapu/youtube-channel-analyzer/internal/service/youtube"
)

// BuildOptions selects which optional services a command needs.
type BuildOptions struct {
	// build the YouTube client and fetcher
	NeedAPI bool
	// an API client that fails to build is logged and left nil instead of failing Build
	OptionalAPI bool
}

// Container bundles the assembled services of one run.
type Container struct {
	Config *config.Config
	Logger *zap.Logger

	Repository *database.Repository
	// nil when Redis is disabled or unreachable
	Cache *cache.CacheService
	// nil unless BuildOptions.NeedAPI
	YouTube  *youtube.Client
	Fetcher  *pipeline.Fetcher
	Analyzer *pipeline.Analyzer

	closers []func()
}

// Build assembles storage, cache, API client and pipeline stages. Everything
// opened before a failure is closed again.
func Build(ctx context.Context, cfg *config.Config, logger *zap.Logger, opts BuildOptions) (container *Container, err error) {
	if cfg == nil {
		return nil, fmt.Errorf("config must not be nil")
	}
	if logger == nil {
		return nil, fmt.Errorf("logger must not be nil")
	}
	if ctx == nil {
		ctx = context.Background()
	}

	c := &Container{Config: cfg, Logger: logger}
	defer func() {
		if err != nil {
			c.Close()
		}
	}()

	repo, err := database.Open(ctx, cfg.Database.Driver, cfg.Database.SQLitePath, database.PostgresConfig{
		Host:     cfg.Database.Postgres.Host,
		Port:     cfg.Database.Postgres.Port,
		User:     cfg.Database.Postgres.User,
		Password: cfg.Database.Postgres.Password,
		Database: cfg.Database.Postgres.Database,
	}, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to open repository: %w", err)
	}
	c.Repository = repo
	c.closers = append(c.closers, func() { _ = repo.Close() })

	metrics, err := cfg.RankedMetrics()
	if err != nil {
		return nil, fmt.Errorf("failed to build ranking table: %w", err)
	}
	c.Analyzer = pipeline.NewAnalyzer(repo, analytics.NewRanker(metrics, logger), logger)

	if !opts.NeedAPI {
		return c, nil
	}

	if err = c.buildAPI(ctx, cfg, logger); err != nil {
		if !opts.OptionalAPI {
			return nil, err
		}
		logger.Warn("YouTube API unavailable, continuing without it", zap.Error(err))
	}

	return c, nil
}

func (c *Container) buildAPI(ctx context.Context, cfg *config.Config, logger *zap.Logger) error {
	if cfg.Redis.Enabled {
		cacheSvc, cacheErr := cache.NewCacheService(ctx, cache.CacheConfig{
			Host:     cfg.Redis.Host,
			Port:     cfg.Redis.Port,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		}, logger)
		if cacheErr != nil {
			logger.Warn("Redis unavailable, continuing without channel cache", zap.Error(cacheErr))
		} else {
			c.Cache = cacheSvc
			c.closers = append(c.closers, func() { _ = cacheSvc.Close() })
		}
	}

	clientCfg := youtube.ClientConfig{APIKey: cfg.YouTube.APIKey()}
	if c.Cache != nil {
		clientCfg.Cache = c.Cache
	}
	if cfg.YouTube.UsesOAuth() {
		httpClient, err := youtube.NewOAuthHTTPClient(ctx, cfg.YouTube.OAuthCredentials, cfg.YouTube.OAuthToken, logger)
		if err != nil {
			return fmt.Errorf("failed to create OAuth client: %w", err)
		}
		clientCfg.HTTPClient = httpClient
	}

	client, err := youtube.NewClient(ctx, clientCfg, logger)
	if err != nil {
		return fmt.Errorf("failed to create YouTube client: %w", err)
	}

	c.YouTube = client
	c.Fetcher = pipeline.NewFetcher(client, c.Repository, cfg.Run.MaxVideosToFetch, cfg.Run.FetchConcurrency, logger)
	return nil
}

// NewReportFormatter creates a report formatter writing to out.
func (c *Container) NewReportFormatter(out io.Writer, opts adapter.ReportOptions) *adapter.ReportFormatter {
	return adapter.NewReportFormatter(out, opts)
}

// Close releases everything Build opened, newest first.
func (c *Container) Close() {
	if c == nil {
		return
	}
	for i := len(c.closers) - 1; i >= 0; i-- {
		c.closers[i]()
	}
	c.closers = nil
}
