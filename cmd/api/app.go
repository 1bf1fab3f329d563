package main

import (
	"context"
	"fmt"
	"net/http"

	"github.com/jmoiron/sqlx"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/n-kyan/microsoft-auth/internal/adapter/graph"
	"github.com/n-kyan/microsoft-auth/internal/adapter/oauth"
	"github.com/n-kyan/microsoft-auth/internal/repository"
	"github.com/n-kyan/microsoft-auth/internal/router"
	"github.com/n-kyan/microsoft-auth/internal/service"
	"github.com/n-kyan/microsoft-auth/pkg/cache"
	"github.com/n-kyan/microsoft-auth/pkg/config"
	"github.com/n-kyan/microsoft-auth/pkg/database"
)

// backends holds connections opened for the configured stores.
type backends struct {
	redis   *redis.Client
	closers []func() error
}

func (b *backends) redisClient(ctx context.Context, cfg config.RedisConfig) (*redis.Client, error) {
	if b.redis != nil {
		return b.redis, nil
	}
	client, err := cache.NewRedis(ctx, cfg)
	if err != nil {
		return nil, err
	}
	b.redis = client
	b.closers = append(b.closers, client.Close)
	return client, nil
}

func (b *backends) Close() {
	for i := len(b.closers) - 1; i >= 0; i-- {
		_ = b.closers[i]()
	}
}

func newCredentialStore(ctx context.Context, cfg *config.Config, b *backends, logr *zap.Logger) (repository.CredentialStore, error) {
	var store repository.CredentialStore
	switch cfg.Credentials.Store {
	case config.StoreFile:
		fileStore, err := repository.NewFileCredentialRepository(cfg.Credentials.FilePath, logr)
		if err != nil {
			return nil, err
		}
		store = fileStore
	case config.StoreRedis:
		client, err := b.redisClient(ctx, cfg.Redis)
		if err != nil {
			return nil, err
		}
		store = repository.NewRedisCredentialRepository(client, cfg.Credentials.RedisKey, logr)
	case config.StorePostgres, config.StoreSQLite:
		db, err := openCredentialDB(cfg)
		if err != nil {
			return nil, err
		}
		b.closers = append(b.closers, db.Close)
		sqlStore := repository.NewSQLCredentialRepository(db, logr)
		if err := sqlStore.EnsureSchema(ctx); err != nil {
			return nil, err
		}
		store = sqlStore
	default:
		return nil, fmt.Errorf("unsupported credential store %q", cfg.Credentials.Store)
	}

	return repository.NewEnvCredentialSeed(store, cfg.Credentials.SeedAccessToken, cfg.Credentials.SeedExpires, logr), nil
}

func openCredentialDB(cfg *config.Config) (*sqlx.DB, error) {
	if cfg.Credentials.Store == config.StorePostgres {
		db, err := database.NewPostgres(cfg.Database)
		if err != nil {
			return nil, fmt.Errorf("connect postgres: %w", err)
		}
		return db, nil
	}
	db, err := database.NewSQLite(cfg.Credentials.SQLitePath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	return db, nil
}

func newDeviceSessionStore(ctx context.Context, cfg *config.Config, b *backends) (repository.DeviceSessionStore, error) {
	if !cfg.DeviceSessions.Enabled {
		return nil, nil
	}
	if cfg.DeviceSessions.Store == config.StoreRedis {
		client, err := b.redisClient(ctx, cfg.Redis)
		if err != nil {
			return nil, err
		}
		return repository.NewRedisDeviceSessionRepository(client), nil
	}
	return repository.NewMemoryDeviceSessionRepository(), nil
}

// newHandler wires every dependency behind the HTTP router.
func newHandler(ctx context.Context, cfg *config.Config, logr *zap.Logger) (http.Handler, *backends, error) {
	if cfg.OAuth.ClientID == "" {
		logr.Warn("OUTLOOK_CLIENT_ID is not set; device authorization will be rejected by the provider")
	}

	b := &backends{}
	store, err := newCredentialStore(ctx, cfg, b, logr)
	if err != nil {
		b.Close()
		return nil, nil, err
	}
	sessions, err := newDeviceSessionStore(ctx, cfg, b)
	if err != nil {
		b.Close()
		return nil, nil, err
	}

	httpClient := &http.Client{Timeout: cfg.OAuth.HTTPClientTimeout}
	metrics := service.NewMetricsService()

	tokens := service.NewTokenService(
		oauth.NewDeviceClient(cfg.OAuth, httpClient, logr.Named("oauth")),
		store,
		sessions,
		nil,
		metrics,
		logr.Named("token"),
	)
	tokens.Restore(ctx)

	calendar := service.NewCalendarService(graph.NewCalendarClient(cfg.Graph.BaseURL, httpClient), metrics, logr.Named("calendar"))

	engine := router.New(cfg, router.Dependencies{
		Tokens:   tokens,
		Calendar: calendar,
		Metrics:  metrics,
		Logger:   logr,
	})
	return engine, b, nil
}
