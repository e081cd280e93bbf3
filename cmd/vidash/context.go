package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/spf13/cobra"

	"vidash/internal/apierr"
	"vidash/internal/config"
	"vidash/internal/logging"
	"vidash/internal/observability"
	"vidash/internal/remote"
	"vidash/internal/session"
	"vidash/internal/state"
)

type commandContext struct {
	configFlag  *string
	metricsFlag *bool

	configOnce sync.Once
	config     *config.Config
	configErr  error

	loggerOnce sync.Once
	logger     *slog.Logger

	metricsOnce   sync.Once
	metrics       *observability.Metrics
	metricsCancel context.CancelFunc
}

func newCommandContext(configFlag *string, metricsFlag *bool) *commandContext {
	return &commandContext{
		configFlag:  configFlag,
		metricsFlag: metricsFlag,
	}
}

func (c *commandContext) ensureConfig() (*config.Config, error) {
	c.configOnce.Do(func() {
		var path string
		if c.configFlag != nil {
			path = strings.TrimSpace(*c.configFlag)
		}
		cfg, _, _, err := config.Load(path)
		if err != nil {
			c.configErr = err
			return
		}
		if err := cfg.EnsureDirectories(); err != nil {
			c.configErr = err
			return
		}
		c.config = cfg
	})
	return c.config, c.configErr
}

func (c *commandContext) configValue() *config.Config {
	cfg, _ := c.ensureConfig()
	return cfg
}

func (c *commandContext) configPath() string {
	if c.configFlag == nil {
		return ""
	}
	return strings.TrimSpace(*c.configFlag)
}

func (c *commandContext) log() *slog.Logger {
	c.loggerOnce.Do(func() {
		logger, err := logging.NewFromConfig(c.configValue())
		if err != nil {
			logger = logging.NewNop()
		}
		c.logger = logger
	})
	return c.logger
}

func (c *commandContext) metricsEnabled() bool {
	if c.metricsFlag != nil && *c.metricsFlag {
		return true
	}
	cfg := c.configValue()
	return cfg != nil && cfg.Metrics.Enabled
}

// startMetrics returns the metrics collectors and, when enabled, serves them
// for the lifetime of the command. Nil is returned when metrics are off.
func (c *commandContext) startMetrics() *observability.Metrics {
	if !c.metricsEnabled() {
		return nil
	}
	c.metricsOnce.Do(func() {
		c.metrics = observability.New()
		ctx, cancel := context.WithCancel(context.Background())
		c.metricsCancel = cancel
		addr := c.configValue().Metrics.ListenAddr
		go func() {
			if err := c.metrics.Serve(ctx, addr, c.log()); err != nil {
				logging.WarnWithContext(c.log(), "metrics listener stopped", "metrics_listen_failed",
					logging.String("addr", addr),
					logging.String(logging.FieldImpact, "metrics unavailable for this command"),
					logging.String(logging.FieldErrorHint, "check metrics.listen_addr"),
					logging.Error(err),
				)
			}
		}()
	})
	return c.metrics
}

func (c *commandContext) close() {
	if c.metricsCancel != nil {
		c.metricsCancel()
	}
}

func (c *commandContext) sessionStore() *session.FileStore {
	return session.NewFileStore(c.configValue().Paths.SessionFile)
}

// requireSession restores the stored session and checks it holds want.
func (c *commandContext) requireSession(want session.Capability) (*session.Session, error) {
	sess, err := session.Restore(c.sessionStore())
	switch {
	case errors.Is(err, session.ErrNoSession):
		return nil, errors.New("not signed in; run `vidash login`")
	case errors.Is(err, session.ErrExpired):
		return nil, errors.New("session expired; run `vidash login`")
	case err != nil:
		return nil, err
	}
	if err := sess.Require(want); err != nil {
		return nil, fmt.Errorf("this command requires the %s role (signed in as %s with %s)", want, sess.Username(), sess.Capability())
	}
	return sess, nil
}

// client builds a Remote API client. A nil session yields an anonymous client.
func (c *commandContext) client(sess *session.Session) (*remote.Client, error) {
	opts := []remote.Option{remote.WithLogger(c.log())}
	if sess != nil {
		opts = append(opts, remote.WithTokenSource(sess))
	}
	if m := c.startMetrics(); m != nil {
		opts = append(opts, remote.WithObserver(m))
	}
	return remote.NewFromConfig(c.configValue(), opts...)
}

// withClient restores a session holding want and runs fn with a client bound to it.
func (c *commandContext) withClient(want session.Capability, fn func(*session.Session, *remote.Client) error) error {
	sess, err := c.requireSession(want)
	if err != nil {
		return err
	}
	client, err := c.client(sess)
	if err != nil {
		return err
	}
	return fn(sess, client)
}

func (c *commandContext) openState() (state.Store, error) {
	return state.Open(c.configValue())
}

func shouldSkipConfig(cmd *cobra.Command) bool {
	for c := cmd; c != nil; c = c.Parent() {
		if c.Annotations != nil && c.Annotations["skipConfigLoad"] == "true" {
			return true
		}
	}
	return false
}

// describeError renders an error for the terminal, pointing users at login
// when the API rejected their credentials.
func describeError(err error) string {
	if apierr.IsUnauthorized(err) {
		return fmt.Sprintf("%v (run `vidash login` to sign in again)", err)
	}
	return err.Error()
}

func yesNo(value bool) string {
	if value {
		return "yes"
	}
	return "no"
}
