package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// API contains Remote API connection settings.
type API struct {
	BaseURL               string `toml:"base_url"`
	MediaBaseURL          string `toml:"media_base_url"`
	RequestTimeoutSeconds int    `toml:"request_timeout_seconds"`
}

// Paths contains local directories and files owned by the client.
type Paths struct {
	StateDir    string `toml:"state_dir"`
	LogDir      string `toml:"log_dir"`
	SessionFile string `toml:"session_file"`
	LockDir     string `toml:"lock_dir"`
}

// State selects the client-local key/value backend.
type State struct {
	Backend     string `toml:"backend"`
	RedisURL    string `toml:"redis_url"`
	RedisPrefix string `toml:"redis_prefix"`
}

// Player contains playback defaults for the terminal player.
type Player struct {
	Autoplay           bool      `toml:"autoplay"`
	DefaultVolume      float64   `toml:"default_volume"`
	RateLadder         []float64 `toml:"rate_ladder"`
	ProgressIntervalMS int       `toml:"progress_interval_ms"`
}

// Activity contains activity log browsing defaults.
type Activity struct {
	PageSize   int   `toml:"page_size"`
	PageSizes  []int `toml:"page_sizes"`
	DebounceMS int   `toml:"debounce_ms"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format string `toml:"format"`
	Level  string `toml:"level"`
}

// Metrics controls the optional Prometheus listener.
type Metrics struct {
	Enabled    bool   `toml:"enabled"`
	ListenAddr string `toml:"listen_addr"`
}

// Config encapsulates all configuration values for vidash.
//
// Configuration sections by subsystem:
//   - API: Remote API and media locations
//   - Paths: state, log, session and lock locations
//   - State: local key/value backend (sqlite or redis)
//   - Player: terminal player defaults
//   - Activity: activity log paging and search debounce
//   - Logging: log format and level
//   - Metrics: Prometheus listener
type Config struct {
	API      API      `toml:"api"`
	Paths    Paths    `toml:"paths"`
	State    State    `toml:"state"`
	Player   Player   `toml:"player"`
	Activity Activity `toml:"activity"`
	Logging  Logging  `toml:"logging"`
	Metrics  Metrics  `toml:"metrics"`
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath(defaultConfigPath)
}

// Load locates, parses, and validates a configuration file. The returned config has all
// path fields expanded and normalized.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		_, err = os.Stat(expanded)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := expandPath(defaultConfigPath)
	if err != nil {
		return "", false, err
	}

	projectPath, err := filepath.Abs("vidash.toml")
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}

	return defaultPath, false, nil
}

// EnsureDirectories creates the local directories the client writes to.
func (c *Config) EnsureDirectories() error {
	dirs := []string{c.Paths.StateDir, c.Paths.LogDir, c.Paths.LockDir}
	if dir := filepath.Dir(c.Paths.SessionFile); dir != "" && dir != "." {
		dirs = append(dirs, dir)
	}
	for _, dir := range dirs {
		if strings.TrimSpace(dir) == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	return nil
}

// RequestTimeout returns the per-request Remote API timeout.
func (c *Config) RequestTimeout() time.Duration {
	return time.Duration(c.API.RequestTimeoutSeconds) * time.Second
}

// DebounceDelay returns the search debounce interval. A configured zero
// disables debouncing and is reported as a negative duration.
func (c *Config) DebounceDelay() time.Duration {
	if c.Activity.DebounceMS <= 0 {
		return -1
	}
	return time.Duration(c.Activity.DebounceMS) * time.Millisecond
}

// ProgressInterval returns the terminal player's progress tick.
func (c *Config) ProgressInterval() time.Duration {
	return time.Duration(c.Player.ProgressIntervalMS) * time.Millisecond
}

// StateDatabasePath returns the sqlite file used by the local state backend.
func (c *Config) StateDatabasePath() string {
	return filepath.Join(c.Paths.StateDir, "state.db")
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}

// ExpandPath exposes the repository path expansion rules for other packages.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}

// CreateSample writes a sample configuration file to the specified location.
func CreateSample(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}

	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}

// Sample returns the embedded sample configuration.
func Sample() string {
	return sampleConfig
}
