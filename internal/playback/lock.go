package playback

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/gofrs/flock"
)

// ErrAlreadyPlaying is returned when another player holds the video lock.
var ErrAlreadyPlaying = errors.New("video already open in another player")

// Lock is an exclusive per-video file lock.
type Lock struct {
	path string
	lock *flock.Flock
}

// AcquireLock takes the lock for videoID under dir without blocking.
func AcquireLock(dir, videoID string) (*Lock, error) {
	videoID = strings.TrimSpace(videoID)
	if videoID == "" {
		return nil, errors.New("video id is required")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("ensure lock directory: %w", err)
	}
	path := filepath.Join(dir, "video-"+sanitizeLockName(videoID)+".lock")
	l := &Lock{path: path, lock: flock.New(path)}
	ok, err := l.lock.TryLock()
	if err != nil {
		return nil, fmt.Errorf("acquire lock: %w", err)
	}
	if !ok {
		return nil, fmt.Errorf("%w (lock %s)", ErrAlreadyPlaying, path)
	}
	return l, nil
}

// Path returns the lock file location.
func (l *Lock) Path() string { return l.path }

// Release unlocks the video.
func (l *Lock) Release() error {
	if l == nil || l.lock == nil {
		return nil
	}
	return l.lock.Unlock()
}

func sanitizeLockName(id string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
			return r
		default:
			return '_'
		}
	}, id)
}
