
package pipeline

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/redis/go-redis/v9"

	"newsinlevels-crawler/internal/cache"
	"newsinlevels-crawler/internal/config"
	"newsinlevels-crawler/internal/crawler"
	"newsinlevels-crawler/internal/storage"
)

// NewFetcher builds the HTTP client described by cfg.
func NewFetcher(cfg config.HTTPConfig) *crawler.HTTPClient {
	return crawler.NewHTTPClient(cfg.Timeout, cfg.DialTimeout, cfg.MaxBodyBytes,
		crawler.WithUserAgent(cfg.UserAgent),
		crawler.WithRetry(cfg.RetryAttempts, cfg.RetryDelay),
	)
}

// OpenStores returns the list and detail document stores for the configured
// backend. The returned close function releases the redis client, if any.
func OpenStores(ctx context.Context, cfg config.CacheConfig) (list, detail storage.Store, closeFn func() error, err error) {
	switch cfg.Backend {
	case config.BackendRedis:
		rdb := storage.NewRedisClient(storage.RedisOptions{
			Addr:     cfg.Redis.Addr,
			Username: cfg.Redis.Username,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err := rdb.Ping(ctx).Err(); err != nil {
			rdb.Close()
			return nil, nil, nil, fmt.Errorf("connect redis %s: %w", cfg.Redis.Addr, err)
		}
		return storage.NewRedisStore(rdb, cfg.Redis.ListKey),
			storage.NewRedisStore(rdb, cfg.Redis.DetailKey),
			closeRedis(rdb), nil
	case config.BackendFile, "":
		return storage.NewFileStore(cfg.ListFile),
			storage.NewFileStore(cfg.DetailFile),
			func() error { return nil }, nil
	default:
		return nil, nil, nil, fmt.Errorf("unknown cache backend %q", cfg.Backend)
	}
}

func closeRedis(rdb *redis.Client) func() error {
	return func() error { return rdb.Close() }
}

// FromConfig wires the HTTP client, both caches and the pipeline. Callers
// must invoke the returned close function when done.
func FromConfig(ctx context.Context, cfg *config.Config, log *slog.Logger) (*Pipeline, func() error, error) {
	listStore, detailStore, closeFn, err := OpenStores(ctx, cfg.Cache)
	if err != nil {
		return nil, nil, err
	}
	lists, err := cache.NewListCache(ctx, listStore, cache.WithTTL(cfg.Cache.ListTTL), cache.WithLogger(log))
	if err != nil {
		closeFn()
		return nil, nil, err
	}
	details, err := cache.NewDetailCache(ctx, detailStore, cache.WithLogger(log))
	if err != nil {
		closeFn()
		return nil, nil, err
	}
	p := New(NewFetcher(cfg.HTTP), lists, details,
		WithConcurrency(cfg.Detail.Concurrency),
		WithDetailTimeout(cfg.Detail.Timeout),
		WithLogger(log),
	)
	return p, closeFn, nil
}
