package server

import (
	"context"
	"log/slog"
	"time"

	"github.com/joseph-ayodele/papertrans/internal/cache"
	"github.com/joseph-ayodele/papertrans/internal/common"
	"github.com/joseph-ayodele/papertrans/internal/repository"
)

// ConnectCache opens the configured cache backend.
func ConnectCache(ctx context.Context, cfg common.CacheConfig, logger *slog.Logger) (cache.Store, error) {
	logger.Info("connecting to cache", "driver", cfg.Driver)
	store, err := repository.OpenCacheStore(ctx, cfg, logger)
	if err != nil {
		logger.Error("failed to connect to cache", "driver", cfg.Driver, "error", err)
		return nil, err
	}
	logger.Info("successfully connected to cache", "driver", cfg.Driver)
	return store, nil
}

// PingCache pings stores that have a remote backend. Others are always healthy.
func PingCache(ctx context.Context, store cache.Store, logger *slog.Logger, timeout time.Duration) error {
	p, ok := store.(cache.Pinger)
	if !ok {
		return nil
	}
	logger.Debug("pinging cache")
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	if err := p.Ping(ctx); err != nil {
		logger.Error("cache ping failed", "error", err)
		return err
	}
	logger.Debug("cache ping successful")
	return nil
}

// CloseCache closes the cache gracefully
func CloseCache(store cache.Store, logger *slog.Logger) {
	if store == nil {
		return
	}
	logger.Info("closing cache")
	if err := store.Close(); err != nil {
		logger.Error("failed to close cache", "error", err)
	}
}
