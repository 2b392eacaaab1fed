package projectstore

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"poassistant/internal/gateway/config"
)

// ErrRecordNotFound is returned by Backend.Read when nothing has been persisted yet.
var ErrRecordNotFound = errors.New("projectstore: record not found")

// Backend stores the serialized project list as a single durable record.
type Backend interface {
	Read(ctx context.Context) ([]byte, error)
	Write(ctx context.Context, data []byte) error
	Close() error
}

// NewBackend opens the backend selected by cfg.Backend.
func NewBackend(ctx context.Context, cfg config.StoreConfig) (Backend, error) {
	switch strings.ToLower(strings.TrimSpace(cfg.Backend)) {
	case "", "file":
		return NewFileBackend(cfg.Path), nil
	case "redis":
		return DialRedis(ctx, cfg.RedisAddr, cfg.RedisKey)
	case "postgres":
		return OpenSQL(ctx, DriverPostgres, cfg.DSN)
	case "sqlite":
		return OpenSQL(ctx, DriverSQLite, cfg.DSN)
	default:
		return nil, fmt.Errorf("projectstore: unknown backend %q", cfg.Backend)
	}
}
