package dashboard

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"sync"

	"vidash/internal/api"
	"vidash/internal/apierr"
	"vidash/internal/logging"
	"vidash/internal/playback"
	"vidash/internal/session"
	"vidash/internal/state"
)

// Tab is a Viewer dashboard tab.
type Tab string

const (
	TabAssigned Tab = "assigned"
	TabPlayer   Tab = "player"
)

// ParseTab resolves a stored tab name; unknown values fall back to TabAssigned.
func ParseTab(value string) Tab {
	switch Tab(strings.ToLower(strings.TrimSpace(value))) {
	case TabPlayer:
		return TabPlayer
	default:
		return TabAssigned
	}
}

// ViewerRemote is the Remote API surface a Viewer needs.
type ViewerRemote interface {
	ListUserVideos(ctx context.Context) ([]api.Video, error)
	MediaURL(locator string) string
}

// ViewerOptions configures a Viewer.
type ViewerOptions struct {
	Session *session.Session
	Remote  ViewerRemote
	State   state.Store
	Player  *playback.Controller
	Logger  *slog.Logger
}

// Viewer is the dashboard of a user with the viewer capability.
type Viewer struct {
	mu       sync.Mutex
	opts     ViewerOptions
	logger   *slog.Logger
	videos   []api.Video
	tab      Tab
	selected string
}

// NewViewer builds a Viewer. The session must hold CapabilityViewer.
func NewViewer(opts ViewerOptions) (*Viewer, error) {
	if opts.Session == nil {
		return nil, apierr.Wrap(apierr.ErrUnauthorized, "dashboard", "new viewer", "not signed in", session.ErrNoSession)
	}
	if err := opts.Session.Require(session.CapabilityViewer); err != nil {
		return nil, err
	}
	if opts.Remote == nil || opts.State == nil {
		return nil, errors.New("dashboard: viewer requires a remote and a state store")
	}
	return &Viewer{
		opts:   opts,
		logger: logging.NewComponentLogger(opts.Logger, "dashboard"),
		tab:    TabAssigned,
	}, nil
}

// Load fetches the assigned videos and restores the stored tab and
// selection. A stored selection that is no longer assigned falls back to the
// first assigned video.
func (v *Viewer) Load(ctx context.Context) error {
	videos, err := v.opts.Remote.ListUserVideos(ctx)
	if err != nil {
		return err
	}
	storedTab, err := state.GetOr(ctx, v.opts.State, state.KeyDashboardTab, string(TabAssigned))
	if err != nil {
		return fmt.Errorf("restore tab: %w", err)
	}
	storedVideo, err := state.GetOr(ctx, v.opts.State, state.KeySelectedVideo, "")
	if err != nil {
		return fmt.Errorf("restore selection: %w", err)
	}

	selected := ""
	if slices.ContainsFunc(videos, func(video api.Video) bool { return video.ID == storedVideo }) {
		selected = storedVideo
	} else if len(videos) > 0 {
		selected = videos[0].ID
	}

	v.mu.Lock()
	v.videos = videos
	v.tab = ParseTab(storedTab)
	v.selected = selected
	v.mu.Unlock()

	if selected != storedVideo {
		if err := v.persistSelection(ctx, selected); err != nil {
			return err
		}
	}
	v.logger.Debug("viewer dashboard loaded",
		logging.Int("videos", len(videos)),
		logging.String("tab", string(v.Tab())),
		logging.String(logging.FieldVideoID, selected),
	)
	v.syncPlayer()
	return nil
}

// Videos returns the assigned videos in server order.
func (v *Viewer) Videos() []api.Video {
	v.mu.Lock()
	defer v.mu.Unlock()
	return slices.Clone(v.videos)
}

// Tab returns the active tab.
func (v *Viewer) Tab() Tab {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.tab
}

// SetTab switches and persists the active tab.
func (v *Viewer) SetTab(ctx context.Context, tab Tab) error {
	tab = ParseTab(string(tab))
	v.mu.Lock()
	v.tab = tab
	v.mu.Unlock()
	return v.opts.State.Set(ctx, state.KeyDashboardTab, string(tab))
}

// Selected returns the selected video, if any.
func (v *Viewer) Selected() (api.Video, bool) {
	v.mu.Lock()
	defer v.mu.Unlock()
	idx := slices.IndexFunc(v.videos, func(video api.Video) bool { return video.ID == v.selected })
	if idx < 0 {
		return api.Video{}, false
	}
	return v.videos[idx], true
}

// Select makes videoID the selected video, persists it and loads it into the
// player. Only assigned videos can be selected.
func (v *Viewer) Select(ctx context.Context, videoID string) error {
	v.mu.Lock()
	found := slices.ContainsFunc(v.videos, func(video api.Video) bool { return video.ID == videoID })
	if found {
		v.selected = videoID
	}
	v.mu.Unlock()
	if !found {
		return apierr.Wrap(apierr.ErrNotFound, "dashboard", "select", "video is not assigned to you", nil)
	}
	if err := v.persistSelection(ctx, videoID); err != nil {
		return err
	}
	return v.loadSelected()
}

// Play selects videoID, switches to the player tab and loads the video.
func (v *Viewer) Play(ctx context.Context, videoID string) error {
	if err := v.Select(ctx, videoID); err != nil {
		return err
	}
	return v.SetTab(ctx, TabPlayer)
}

// Playlist returns the assigned videos as player items.
func (v *Viewer) Playlist() []playback.Item {
	v.mu.Lock()
	defer v.mu.Unlock()
	items := make([]playback.Item, 0, len(v.videos))
	for _, video := range v.videos {
		items = append(items, playback.Item{
			VideoID: video.ID,
			Source:  v.opts.Remote.MediaURL(video.VideoURL),
			Title:   video.Title,
		})
	}
	return items
}

func (v *Viewer) persistSelection(ctx context.Context, videoID string) error {
	if videoID == "" {
		return v.opts.State.Delete(ctx, state.KeySelectedVideo)
	}
	if err := v.opts.State.Set(ctx, state.KeySelectedVideo, videoID); err != nil {
		return fmt.Errorf("persist selection: %w", err)
	}
	return nil
}

func (v *Viewer) syncPlayer() {
	if v.opts.Player == nil {
		return
	}
	v.opts.Player.SetPlaylist(v.Playlist())
}

func (v *Viewer) loadSelected() error {
	if v.opts.Player == nil {
		return nil
	}
	video, ok := v.Selected()
	if !ok {
		return nil
	}
	v.syncPlayer()
	return v.opts.Player.Load(v.opts.Remote.MediaURL(video.VideoURL), video.ID)
}
