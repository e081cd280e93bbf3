package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/pelletier/go-toml/v2"

	"vidash/internal/config"
	"vidash/internal/testsupport"
)

type cliTestEnv struct {
	cfg        *config.Config
	api        *testsupport.APIServer
	configPath string
}

func setupCLITestEnv(t *testing.T) *cliTestEnv {
	t.Helper()

	t.Setenv("HOME", t.TempDir())
	t.Setenv("VIDASH_API_URL", "")
	t.Setenv("VIDASH_REDIS_URL", "")
	t.Setenv("NO_COLOR", "1")

	api := testsupport.NewAPIServer(t)
	cfg := testsupport.NewConfig(t,
		testsupport.WithAPIBaseURL(api.BaseURL),
		testsupport.WithMediaBaseURL(api.HTTP.URL),
	)
	cfg.Logging.Level = "error"
	cfg.Player.ProgressIntervalMS = 10

	configPath := filepath.Join(testsupport.BaseDir(cfg), "vidash.toml")
	writeTestConfig(t, configPath, cfg)
	return &cliTestEnv{cfg: cfg, api: api, configPath: configPath}
}

func (e *cliTestEnv) run(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	return runCLI(t, args, e.configPath, "")
}

func (e *cliTestEnv) login(t *testing.T, username, password string) {
	t.Helper()
	if _, _, err := e.run(t, "login", "-u", username, "-p", password); err != nil {
		t.Fatalf("login %s: %v", username, err)
	}
}

func runCLI(t *testing.T, args []string, configPath, stdin string) (string, string, error) {
	t.Helper()
	cmd := newRootCommand()
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetIn(strings.NewReader(stdin))
	var flags []string
	if configPath != "" {
		flags = append(flags, "--config", configPath)
	}
	cmd.SetArgs(append(flags, args...))
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

func writeTestConfig(t *testing.T, path string, cfg *config.Config) {
	t.Helper()
	data, err := toml.Marshal(cfg)
	if err != nil {
		t.Fatalf("encode config: %v", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
}

func requireContains(t *testing.T, output, substr string) {
	t.Helper()
	if !strings.Contains(output, substr) {
		t.Fatalf("expected %q to contain %q", output, substr)
	}
}
