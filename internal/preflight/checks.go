package preflight

import (
	"context"
	"errors"
	"fmt"
	"net"
	"os"
	"strings"
	"time"

	"golang.org/x/sys/unix"

	"vidash/internal/config"
	"vidash/internal/remote"
	"vidash/internal/session"
	"vidash/internal/state"
)

// CheckAPI verifies the Remote API answers HTTP requests. Any HTTP status
// counts as reachable; authentication is checked separately.
func CheckAPI(ctx context.Context, baseURL string, timeout time.Duration) Result {
	const name = "Remote API"

	base := strings.TrimSpace(baseURL)
	if base == "" {
		return Result{Name: name, Detail: "missing url"}
	}
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	client, err := remote.New(base)
	if err != nil {
		return Result{Name: name, Detail: err.Error()}
	}

	checkCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	if err := client.Ping(checkCtx); err != nil {
		return Result{Name: name, Detail: summarizeAPIError(base, err)}
	}
	return Result{Name: name, Passed: true, Detail: base + " (reachable)"}
}

// CheckSession reports whether a usable session is stored at path.
func CheckSession(path string) Result {
	const name = "Session"

	sess, err := session.Restore(session.NewFileStore(path))
	switch {
	case errors.Is(err, session.ErrNoSession):
		return Result{Name: name, Detail: "not signed in (run vidash login)"}
	case errors.Is(err, session.ErrExpired):
		return Result{Name: name, Detail: "expired (run vidash login)"}
	case err != nil:
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: %v)", path, err)}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (%s)", sess.Username(), sess.Capability())}
}

// CheckStateBackend opens and closes the configured state store.
func CheckStateBackend(cfg *config.Config) Result {
	name := "State backend"
	if cfg == nil {
		return Result{Name: name, Detail: "Unknown"}
	}
	name = fmt.Sprintf("State backend (%s)", cfg.State.Backend)
	store, err := state.Open(cfg)
	if err != nil {
		return Result{Name: name, Detail: err.Error()}
	}
	defer store.Close()
	if sqliteStore, ok := store.(*state.SQLiteStore); ok {
		version, err := sqliteStore.SchemaVersion(context.Background())
		if err != nil {
			return Result{Name: name, Detail: err.Error()}
		}
		return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (schema v%d)", sqliteStore.Path(), version)}
	}
	return Result{Name: name, Passed: true, Detail: cfg.State.RedisURL + " (ok)"}
}

// CheckDirectoryAccess verifies that the directory exists and is readable/writable.
func CheckDirectoryAccess(name, path string) Result {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Result{Name: name, Detail: fmt.Sprintf("%s (error: does not exist)", path)}
		}
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: stat: %v)", path, err)}
	}
	if !info.IsDir() {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: is not a directory)", path)}
	}
	if err := unix.Access(path, unix.R_OK|unix.W_OK|unix.X_OK); err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: insufficient permissions: %v)", path, err)}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (read/write ok)", path)}
}

func summarizeAPIError(base string, err error) string {
	if errors.Is(err, context.DeadlineExceeded) {
		return base + " (timed out)"
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return base + " (timed out)"
	}
	return fmt.Sprintf("%s (unreachable: %v)", base, err)
}
