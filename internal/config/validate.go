package config

import (
	"errors"
	"fmt"
	"net/url"
	"slices"
	"strings"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateAPI(); err != nil {
		return err
	}
	if err := c.validateState(); err != nil {
		return err
	}
	if err := c.validatePlayer(); err != nil {
		return err
	}
	if err := c.validateActivity(); err != nil {
		return err
	}
	if err := c.validateLogging(); err != nil {
		return err
	}
	return nil
}

func (c *Config) validateAPI() error {
	if err := validateHTTPURL("api.base_url", c.API.BaseURL); err != nil {
		return err
	}
	if err := validateHTTPURL("api.media_base_url", c.API.MediaBaseURL); err != nil {
		return err
	}
	if c.API.RequestTimeoutSeconds <= 0 {
		return errors.New("api.request_timeout_seconds must be positive")
	}
	return nil
}

func (c *Config) validateState() error {
	switch c.State.Backend {
	case StateBackendSQLite:
		if strings.TrimSpace(c.Paths.StateDir) == "" {
			return errors.New("paths.state_dir must be set when state.backend is sqlite")
		}
	case StateBackendRedis:
		parsed, err := url.Parse(c.State.RedisURL)
		if err != nil || (parsed.Scheme != "redis" && parsed.Scheme != "rediss") {
			return fmt.Errorf("state.redis_url must be a redis:// or rediss:// URL, got %q", c.State.RedisURL)
		}
	default:
		return fmt.Errorf("state.backend must be %q or %q, got %q", StateBackendSQLite, StateBackendRedis, c.State.Backend)
	}
	return nil
}

func (c *Config) validatePlayer() error {
	if c.Player.DefaultVolume <= 0 || c.Player.DefaultVolume > 1 {
		return errors.New("player.default_volume must be greater than 0 and at most 1")
	}
	for _, rate := range c.Player.RateLadder {
		if rate <= 0 {
			return errors.New("player.rate_ladder entries must be positive")
		}
	}
	return nil
}

func (c *Config) validateActivity() error {
	if len(c.Activity.PageSizes) == 0 {
		return errors.New("activity.page_sizes must include at least one positive size")
	}
	if c.Activity.PageSize <= 0 {
		return errors.New("activity.page_size must be positive")
	}
	if !slices.Contains(c.Activity.PageSizes, c.Activity.PageSize) {
		return fmt.Errorf("activity.page_size %d must be one of activity.page_sizes %v", c.Activity.PageSize, c.Activity.PageSizes)
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Level {
	case "debug", "info", "warn", "warning", "error":
		return nil
	default:
		return fmt.Errorf("logging.level must be debug, info, warn, or error, got %q", c.Logging.Level)
	}
}

func validateHTTPURL(key, value string) error {
	parsed, err := url.Parse(value)
	if err != nil {
		return fmt.Errorf("%s: %w", key, err)
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return fmt.Errorf("%s must use http or https, got %q", key, value)
	}
	if parsed.Host == "" {
		return fmt.Errorf("%s must include a host, got %q", key, value)
	}
	return nil
}
