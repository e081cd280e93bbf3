package config_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/pelletier/go-toml/v2"

	"vidash/internal/config"
)

func TestLoadDefaultConfigExpandsPaths(t *testing.T) {
	tempHome := t.TempDir()
	t.Setenv("HOME", tempHome)
	t.Setenv("VIDASH_API_URL", "")
	t.Setenv("VIDASH_REDIS_URL", "")

	cfg, resolved, exists, err := config.Load("")
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if resolved == "" {
		t.Fatal("expected resolved path")
	}
	if exists {
		t.Fatal("expected config file to be absent in temp HOME")
	}

	wantState := filepath.Join(tempHome, ".local", "share", "vidash")
	if cfg.Paths.StateDir != wantState {
		t.Fatalf("unexpected state dir: got %q want %q", cfg.Paths.StateDir, wantState)
	}
	if cfg.Paths.SessionFile != filepath.Join(tempHome, ".config", "vidash", "session.json") {
		t.Fatalf("unexpected session file: %q", cfg.Paths.SessionFile)
	}
	if cfg.API.BaseURL != "http://localhost:8080/api/v1" {
		t.Fatalf("unexpected base url: %q", cfg.API.BaseURL)
	}
	if cfg.State.Backend != config.StateBackendSQLite {
		t.Fatalf("expected sqlite backend, got %q", cfg.State.Backend)
	}
	if cfg.Activity.PageSize != 10 {
		t.Fatalf("expected default page size 10, got %d", cfg.Activity.PageSize)
	}
	if cfg.DebounceDelay().Milliseconds() != 500 {
		t.Fatalf("expected 500ms debounce, got %s", cfg.DebounceDelay())
	}
	if len(cfg.Player.RateLadder) != 3 || cfg.Player.RateLadder[0] != 1.0 {
		t.Fatalf("unexpected rate ladder: %v", cfg.Player.RateLadder)
	}
	if cfg.Player.DefaultVolume != 0.6 {
		t.Fatalf("unexpected default volume: %v", cfg.Player.DefaultVolume)
	}

	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatalf("EnsureDirectories failed: %v", err)
	}
	for _, dir := range []string{cfg.Paths.StateDir, cfg.Paths.LogDir, cfg.Paths.LockDir, filepath.Dir(cfg.Paths.SessionFile)} {
		info, err := os.Stat(dir)
		if err != nil {
			t.Fatalf("expected directory %q to exist: %v", dir, err)
		}
		if !info.IsDir() {
			t.Fatalf("expected %q to be directory", dir)
		}
	}
}

func TestLoadCustomPath(t *testing.T) {
	tempDir := t.TempDir()
	configPath := filepath.Join(tempDir, "vidash.toml")
	t.Setenv("VIDASH_API_URL", "")

	type payload struct {
		API struct {
			BaseURL string `toml:"base_url"`
		} `toml:"api"`
		Activity struct {
			PageSize   int   `toml:"page_size"`
			PageSizes  []int `toml:"page_sizes"`
			DebounceMS int   `toml:"debounce_ms"`
		} `toml:"activity"`
	}
	custom := payload{}
	custom.API.BaseURL = "https://dash.example.com/api/v1/"
	custom.Activity.PageSize = 25
	custom.Activity.PageSizes = []int{50, 25, 25, -1}
	custom.Activity.DebounceMS = 250
	data, err := toml.Marshal(custom)
	if err != nil {
		t.Fatalf("marshal custom config: %v", err)
	}
	if err := os.WriteFile(configPath, data, 0o644); err != nil {
		t.Fatalf("write custom config: %v", err)
	}

	cfg, resolved, exists, err := config.Load(configPath)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if !exists {
		t.Fatal("expected exists to be true")
	}
	if resolved != configPath {
		t.Fatalf("unexpected resolved path: got %q want %q", resolved, configPath)
	}
	if cfg.API.BaseURL != "https://dash.example.com/api/v1" {
		t.Fatalf("expected trailing slash trimmed, got %q", cfg.API.BaseURL)
	}
	if cfg.Activity.PageSize != 25 {
		t.Fatalf("expected page size 25, got %d", cfg.Activity.PageSize)
	}
	if got := cfg.Activity.PageSizes; len(got) != 2 || got[0] != 25 || got[1] != 50 {
		t.Fatalf("expected sizes deduplicated and sorted, got %v", got)
	}
	if cfg.DebounceDelay().Milliseconds() != 250 {
		t.Fatalf("unexpected debounce: %s", cfg.DebounceDelay())
	}
}

func TestEnvVarOverridesConfigFile(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "vidash.toml")
	contents := `
[api]
base_url = "http://file.example/api/v1"

[state]
backend = "redis"
redis_url = "redis://file:6379/0"
`
	if err := os.WriteFile(configPath, []byte(contents), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	t.Setenv("VIDASH_API_URL", "http://env.example/api/v1")
	t.Setenv("VIDASH_REDIS_URL", "redis://env:6379/1")

	cfg, _, _, err := config.Load(configPath)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.API.BaseURL != "http://env.example/api/v1" {
		t.Errorf("expected base url from env, got %q", cfg.API.BaseURL)
	}
	if cfg.State.RedisURL != "redis://env:6379/1" {
		t.Errorf("expected redis url from env, got %q", cfg.State.RedisURL)
	}
}

func TestLoadRejectsMalformedFile(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "vidash.toml")
	if err := os.WriteFile(configPath, []byte("[api\nbase_url = 1"), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	if _, _, _, err := config.Load(configPath); err == nil || !strings.Contains(err.Error(), "parse config") {
		t.Fatalf("expected parse error, got %v", err)
	}
}

func TestCreateSample(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "sample.toml")
	if err := config.CreateSample(path); err != nil {
		t.Fatalf("CreateSample failed: %v", err)
	}

	contents, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read sample: %v", err)
	}
	if string(contents) != config.Sample() {
		t.Fatal("sample file differs from embedded sample")
	}

	var cfg config.Config
	if err := toml.Unmarshal(contents, &cfg); err != nil {
		t.Fatalf("unmarshal sample: %v", err)
	}
	defaults := config.Default()
	if cfg.API.BaseURL != defaults.API.BaseURL {
		t.Fatalf("sample base url %q differs from default %q", cfg.API.BaseURL, defaults.API.BaseURL)
	}
	if !strings.Contains(cfg.Paths.StateDir, "vidash") {
		t.Fatalf("expected state dir to contain vidash, got %q", cfg.Paths.StateDir)
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("sample should validate: %v", err)
	}
}

func TestValidateDetectsInvalidValues(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*config.Config)
	}{
		{"bad base url scheme", func(c *config.Config) { c.API.BaseURL = "ftp://example.com" }},
		{"missing media host", func(c *config.Config) { c.API.MediaBaseURL = "http://" }},
		{"zero timeout", func(c *config.Config) { c.API.RequestTimeoutSeconds = 0 }},
		{"unknown backend", func(c *config.Config) { c.State.Backend = "etcd" }},
		{"redis url scheme", func(c *config.Config) {
			c.State.Backend = config.StateBackendRedis
			c.State.RedisURL = "http://localhost:6379"
		}},
		{"volume out of range", func(c *config.Config) { c.Player.DefaultVolume = 1.5 }},
		{"negative rate", func(c *config.Config) { c.Player.RateLadder = []float64{1, -2} }},
		{"page size not offered", func(c *config.Config) { c.Activity.PageSize = 7 }},
		{"unknown level", func(c *config.Config) { c.Logging.Level = "trace" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := config.Default()
			tt.mutate(&cfg)
			if err := cfg.Validate(); err == nil {
				t.Fatalf("expected validation error")
			}
		})
	}

	cfg := config.Default()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("defaults should validate: %v", err)
	}
}

func TestZeroDebounceDisablesDebouncing(t *testing.T) {
	cfg := config.Default()
	cfg.Activity.DebounceMS = 0
	if cfg.DebounceDelay() >= 0 {
		t.Fatalf("expected negative delay for disabled debounce, got %s", cfg.DebounceDelay())
	}
}
