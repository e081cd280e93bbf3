package config

import (
	"fmt"
	"os"
	"slices"
	"strings"
)

func (c *Config) normalize() error {
	c.normalizeAPI()
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizeState()
	c.normalizePlayer()
	c.normalizeActivity()
	c.normalizeLogging()
	c.normalizeMetrics()
	return nil
}

func (c *Config) normalizeAPI() {
	if value, ok := os.LookupEnv("VIDASH_API_URL"); ok && strings.TrimSpace(value) != "" {
		c.API.BaseURL = value
	}
	c.API.BaseURL = strings.TrimRight(strings.TrimSpace(c.API.BaseURL), "/")
	if c.API.BaseURL == "" {
		c.API.BaseURL = defaultAPIBaseURL
	}
	c.API.MediaBaseURL = strings.TrimRight(strings.TrimSpace(c.API.MediaBaseURL), "/")
	if c.API.MediaBaseURL == "" {
		c.API.MediaBaseURL = defaultMediaBaseURL
	}
	if c.API.RequestTimeoutSeconds <= 0 {
		c.API.RequestTimeoutSeconds = defaultRequestTimeoutSeconds
	}
}

func (c *Config) normalizePaths() error {
	var err error
	if strings.TrimSpace(c.Paths.StateDir) == "" {
		c.Paths.StateDir = defaultStateDir
	}
	if c.Paths.StateDir, err = expandPath(c.Paths.StateDir); err != nil {
		return fmt.Errorf("paths.state_dir: %w", err)
	}
	if c.Paths.LogDir, err = expandPath(c.Paths.LogDir); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.SessionFile) == "" {
		c.Paths.SessionFile = defaultSessionFile
	}
	if c.Paths.SessionFile, err = expandPath(c.Paths.SessionFile); err != nil {
		return fmt.Errorf("paths.session_file: %w", err)
	}
	if strings.TrimSpace(c.Paths.LockDir) == "" {
		c.Paths.LockDir = defaultLockDir
	}
	if c.Paths.LockDir, err = expandPath(c.Paths.LockDir); err != nil {
		return fmt.Errorf("paths.lock_dir: %w", err)
	}
	return nil
}

func (c *Config) normalizeState() {
	c.State.Backend = strings.ToLower(strings.TrimSpace(c.State.Backend))
	if c.State.Backend == "" {
		c.State.Backend = defaultStateBackend
	}
	if value, ok := os.LookupEnv("VIDASH_REDIS_URL"); ok && strings.TrimSpace(value) != "" {
		c.State.RedisURL = value
	}
	c.State.RedisURL = strings.TrimSpace(c.State.RedisURL)
	if c.State.RedisURL == "" {
		c.State.RedisURL = defaultRedisURL
	}
	c.State.RedisPrefix = strings.TrimSpace(c.State.RedisPrefix)
}

func (c *Config) normalizePlayer() {
	if len(c.Player.RateLadder) == 0 {
		c.Player.RateLadder = defaultRateLadder()
	}
	if c.Player.ProgressIntervalMS <= 0 {
		c.Player.ProgressIntervalMS = defaultProgressIntervalMS
	}
}

func (c *Config) normalizeActivity() {
	if len(c.Activity.PageSizes) == 0 {
		c.Activity.PageSizes = defaultPageSizes()
	} else {
		sizes := make([]int, 0, len(c.Activity.PageSizes))
		for _, size := range c.Activity.PageSizes {
			if size > 0 && !slices.Contains(sizes, size) {
				sizes = append(sizes, size)
			}
		}
		slices.Sort(sizes)
		c.Activity.PageSizes = sizes
	}
	if c.Activity.PageSize == 0 {
		c.Activity.PageSize = defaultPageSize
	}
	if c.Activity.DebounceMS < 0 {
		c.Activity.DebounceMS = 0
	}
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	switch c.Logging.Format {
	case "", "console":
		c.Logging.Format = "console"
	case "json":
	default:
		c.Logging.Format = "console"
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
}

func (c *Config) normalizeMetrics() {
	c.Metrics.ListenAddr = strings.TrimSpace(c.Metrics.ListenAddr)
	if c.Metrics.ListenAddr == "" {
		c.Metrics.ListenAddr = defaultMetricsListenAddr
	}
}
