package cli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/aretw0/concierge"
	"github.com/aretw0/concierge/internal/config"
	"github.com/aretw0/concierge/pkg/adapters/file"
	"github.com/aretw0/concierge/pkg/adapters/memory"
	"github.com/aretw0/concierge/pkg/adapters/redis"
	"github.com/aretw0/concierge/pkg/domain"
	"github.com/aretw0/concierge/pkg/persistence/middleware"
	"github.com/aretw0/concierge/pkg/ports"
)

// openClient builds a concierge client from the resolved configuration.
func openClient(ctx context.Context, cfg config.Config, logger *slog.Logger, extra ...concierge.Option) (*concierge.Client, error) {
	opts, err := storeOptions(cfg, logger)
	if err != nil {
		return nil, err
	}
	opts = append(opts,
		concierge.WithLogger(logger),
		concierge.WithTimeout(cfg.Timeout),
	)
	opts = append(opts, extra...)

	client, err := concierge.New(ctx, cfg.BaseURL, opts...)
	if client != nil && errors.Is(err, domain.ErrStorage) {
		// Keep going anonymous so logout can still remove what cannot be read.
		logger.WarnContext(ctx, "Ignoring unreadable stored session; run logout to discard it", "err", err)
		return client, nil
	}
	if err != nil {
		return nil, fmt.Errorf("error initializing client: %w", err)
	}
	return client, nil
}

// storeOptions selects the durable backend and its middleware.
func storeOptions(cfg config.Config, logger *slog.Logger) ([]concierge.Option, error) {
	var (
		kv   ports.KVStore
		opts []concierge.Option
	)

	switch cfg.Store.Backend {
	case config.BackendMemory:
		kv = memory.NewStore()
	case config.BackendRedis:
		rs := redis.New(cfg.Store.Redis.Addr, cfg.Store.Redis.Password, cfg.Store.Redis.DB,
			redis.WithPrefix(cfg.Store.Prefix),
			redis.WithTTL(cfg.Store.TTL),
		)
		kv = rs
		// Processes sharing a Redis session also share its lifecycle lock.
		opts = append(opts,
			concierge.WithLocker(redis.NewLocker(rs.Client(), cfg.Store.Prefix)),
			concierge.WithCloser(rs.Close),
		)
	default:
		kv = file.New(cfg.Store.Path)
	}

	mws := []middleware.Middleware{middleware.NewLoggingMiddleware(logger)}

	active, fallback, err := cfg.Keys()
	if err != nil {
		return nil, err
	}
	if active != nil {
		enc, err := middleware.NewEncryptionMiddleware(middleware.EncryptionConfig{
			ActiveKey:    active,
			FallbackKeys: fallback,
		})
		if err != nil {
			return nil, err
		}
		mws = append(mws, enc)
	}

	opts = append(opts, concierge.WithStore(kv), concierge.WithMiddleware(mws...))
	return opts, nil
}
