package state

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"vidash/internal/config"
)

// ErrNotFound is returned by Get when a key has no value.
var ErrNotFound = errors.New("state: key not found")

// Well-known keys.
const (
	KeyDashboardTab  = "user-dashboard-tab"
	KeySelectedVideo = "selected-video-id"
)

// Store is a string key/value store.
type Store interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string) error
	Delete(ctx context.Context, key string) error
	Close() error
}

// Open returns the backend selected by cfg.State.Backend.
func Open(cfg *config.Config) (Store, error) {
	if cfg == nil {
		return nil, errors.New("state: config is required")
	}
	switch strings.ToLower(strings.TrimSpace(cfg.State.Backend)) {
	case "", config.StateBackendSQLite:
		return OpenSQLite(cfg)
	case config.StateBackendRedis:
		return OpenRedis(cfg.State.RedisURL, cfg.State.RedisPrefix)
	default:
		return nil, fmt.Errorf("state: unsupported backend %q", cfg.State.Backend)
	}
}

// GetOr returns the stored value for key, or fallback when it is unset.
func GetOr(ctx context.Context, store Store, key, fallback string) (string, error) {
	value, err := store.Get(ctx, key)
	if errors.Is(err, ErrNotFound) {
		return fallback, nil
	}
	if err != nil {
		return fallback, err
	}
	return value, nil
}

func validateKey(key string) error {
	if strings.TrimSpace(key) == "" {
		return errors.New("state: key is required")
	}
	return nil
}
