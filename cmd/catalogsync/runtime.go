package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"catalog-content-sync/internal/application"
	"catalog-content-sync/internal/config"
	"catalog-content-sync/internal/infrastructure/cache"
	"catalog-content-sync/internal/infrastructure/metrics"
	"catalog-content-sync/internal/infrastructure/platform"
	"catalog-content-sync/internal/infrastructure/pubsub"
	"catalog-content-sync/internal/infrastructure/repository"
	"catalog-content-sync/internal/infrastructure/statusserver"
	"catalog-content-sync/internal/ports"

	"github.com/rs/zerolog"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"golang.org/x/sync/errgroup"
)

const (
	tenantCacheSize = 64
	tenantCacheTTL  = 30 * time.Minute
)

// scope selects the configuration checks a command needs.
type scope struct {
	catalog bool
	content bool
}

// runtime is everything one command invocation shares.
type runtime struct {
	cfg        *config.Config
	logger     zerolog.Logger
	metrics    *metrics.Metrics
	progress   *pubsub.ProgressPubSub
	runs       ports.RunRepository
	session    *application.Session
	dispatcher *application.Dispatcher
	statusAddr string
	closers    []func(context.Context) error
}

func loadConfig(sc scope) (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	var errs []error
	if sc.catalog {
		errs = append(errs, cfg.Validate())
	}
	if sc.content {
		errs = append(errs, cfg.ValidateContent())
	}
	if err := errors.Join(errs...); err != nil {
		return nil, err
	}
	return cfg, nil
}

func newRuntime(ctx context.Context, cfg *config.Config, logger zerolog.Logger, statusAddr string) (*runtime, error) {
	rt := &runtime{
		cfg:        cfg,
		logger:     logger,
		metrics:    metrics.New(),
		progress:   pubsub.NewProgressPubSub(logger),
		statusAddr: statusAddr,
	}
	if rt.statusAddr == "" {
		rt.statusAddr = cfg.StatusAddr
	}

	var tokenCache ports.TokenCache
	if cfg.RedisURL != "" {
		rc, err := cache.NewRedisTokenCache(ctx, cfg.RedisURL)
		if err != nil {
			return nil, err
		}
		rt.closers = append(rt.closers, func(context.Context) error { return rc.Close() })
		tokenCache = rc
		logger.Info().Msg("Sharing auth tickets through Redis")
	}

	runs, err := rt.openRuns(ctx)
	if err != nil {
		rt.Close(ctx)
		return nil, err
	}
	rt.runs = runs

	httpClient := &http.Client{Timeout: cfg.HTTPTimeout}
	tokens := platform.NewTokenManager(platform.AuthRoot(cfg.AuthHost, cfg.APIURL), cfg.ClientID, cfg.ClientSecret, httpClient, tokenCache, logger)
	retry := platform.DefaultRetryConfig()
	retry.MaxRetries = cfg.MaxRetries
	limiter := platform.NewRateLimiter(cfg.RequestsPerSecond, max(1, int(cfg.RequestsPerSecond)))
	client := platform.NewClientWithOptions(cfg.APIURL, tokens, httpClient, limiter, retry, rt.metrics, logger)

	snapshots := repository.NewFileSnapshotStore(cfg.OutputDir)
	rt.session = application.NewSession(cfg, client, logger, application.SessionOptions{
		TenantCache: cache.NewTenantCache(tenantCacheSize, tenantCacheTTL, rt.metrics),
		Snapshots:   snapshots,
		Publisher:   rt.progress,
		States:      rt.metrics,
		Actions:     rt.metrics,
	})
	rt.dispatcher = application.NewDispatcher(
		application.NewValidationService(rt.session.Tenants, cfg, logger),
		application.NewReporter(snapshots, rt.runs, logger),
		logger,
	)
	return rt, nil
}

// openRuns connects the MongoDB run history when configured and falls back
// to an in-process repository otherwise.
func (rt *runtime) openRuns(ctx context.Context) (ports.RunRepository, error) {
	if rt.cfg.MongoURI == "" {
		return repository.NewMemoryRunRepository(), nil
	}
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(rt.cfg.MongoURI))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to MongoDB: %w", err)
	}
	rt.closers = append(rt.closers, client.Disconnect)

	repo := repository.NewMongoRunRepository(client.Database(rt.cfg.MongoDatabase))
	if err := repo.EnsureIndexes(ctx); err != nil {
		return nil, err
	}
	rt.logger.Info().Str("database", rt.cfg.MongoDatabase).Msg("Connected to MongoDB")
	return repo, nil
}

// dispatch runs req, serving the status endpoints alongside when an address
// is configured.
func (rt *runtime) dispatch(ctx context.Context, req application.RunRequest) error {
	if rt.statusAddr == "" {
		_, err := rt.dispatcher.Run(ctx, rt.session, req)
		return err
	}

	serveCtx, stop := context.WithCancel(ctx)
	defer stop()
	g, gctx := errgroup.WithContext(serveCtx)

	server := statusserver.New(statusserver.Options{
		Addr:     rt.statusAddr,
		Actions:  rt.session.Tracker,
		Progress: rt.progress,
		Runs:     rt.runs,
		Metrics:  rt.metrics.Handler(),
		Logger:   rt.logger,
	})
	g.Go(func() error {
		return server.Run(gctx)
	})
	g.Go(func() error {
		defer stop()
		_, err := rt.dispatcher.Run(gctx, rt.session, req)
		return err
	})
	return g.Wait()
}

func (rt *runtime) Close(ctx context.Context) {
	for i := len(rt.closers) - 1; i >= 0; i-- {
		if err := rt.closers[i](ctx); err != nil {
			rt.logger.Warn().Err(err).Msg("Failed to close resource")
		}
	}
	rt.closers = nil
}
