package middleware

import (
	"context"
	"errors"
	"log/slog"

	"github.com/aretw0/concierge/pkg/domain"
	"github.com/aretw0/concierge/pkg/ports"
)

type loggingMiddleware struct {
	next   ports.KVStore
	logger *slog.Logger
}

// NewLoggingMiddleware logs every storage operation at debug level and failures at warn.
// Values are never logged, only their presence and length.
func NewLoggingMiddleware(logger *slog.Logger) Middleware {
	return func(next ports.KVStore) ports.KVStore {
		return &loggingMiddleware{next: next, logger: logger}
	}
}

func (m *loggingMiddleware) Get(ctx context.Context, key string) (string, error) {
	v, err := m.next.Get(ctx, key)
	switch {
	case errors.Is(err, domain.ErrKeyNotFound):
		m.logger.DebugContext(ctx, "store get", "key", key, "found", false)
	case err != nil:
		m.logger.WarnContext(ctx, "store get failed", "key", key, "err", err)
	default:
		m.logger.DebugContext(ctx, "store get", "key", key, "found", true, "len", len(v))
	}
	return v, err
}

func (m *loggingMiddleware) Set(ctx context.Context, key, value string) error {
	err := m.next.Set(ctx, key, value)
	if err != nil {
		m.logger.WarnContext(ctx, "store set failed", "key", key, "err", err)
		return err
	}
	m.logger.DebugContext(ctx, "store set", "key", key, "len", len(value))
	return nil
}

func (m *loggingMiddleware) Remove(ctx context.Context, key string) error {
	err := m.next.Remove(ctx, key)
	if err != nil {
		m.logger.WarnContext(ctx, "store remove failed", "key", key, "err", err)
		return err
	}
	m.logger.DebugContext(ctx, "store remove", "key", key)
	return nil
}
