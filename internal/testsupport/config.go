package testsupport

import (
	"path/filepath"
	"testing"

	"vidash/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*configBuilder)

type configBuilder struct {
	t       testing.TB
	baseDir string
	cfg     *config.Config
}

// NewConfig produces a config seeded with unique temp directories per test.
// It defaults common fields and applies any provided options.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfgVal := config.Default()
	cfgVal.API.BaseURL = "http://127.0.0.1:0/api/v1"
	cfgVal.API.MediaBaseURL = "http://127.0.0.1:0"
	cfgVal.Paths.StateDir = filepath.Join(base, "state")
	cfgVal.Paths.LogDir = filepath.Join(base, "logs")
	cfgVal.Paths.SessionFile = filepath.Join(base, "config", "session.json")
	cfgVal.Paths.LockDir = filepath.Join(base, "locks")

	builder := &configBuilder{
		t:       t,
		baseDir: base,
		cfg:     &cfgVal,
	}

	for _, opt := range opts {
		opt(builder)
	}

	return builder.cfg
}

// WithAPIBaseURL points the config at a test API server.
func WithAPIBaseURL(baseURL string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.API.BaseURL = baseURL
	}
}

// WithMediaBaseURL overrides the media host.
func WithMediaBaseURL(mediaBase string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.API.MediaBaseURL = mediaBase
	}
}

// WithRedis selects the redis state backend at url.
func WithRedis(url string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.State.Backend = config.StateBackendRedis
		b.cfg.State.RedisURL = url
		b.cfg.State.RedisPrefix = "test:"
	}
}

// BaseDir returns the root temp directory backing the generated config.
func BaseDir(cfg *config.Config) string {
	return filepath.Dir(cfg.Paths.StateDir)
}
