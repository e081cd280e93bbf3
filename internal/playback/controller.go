package playback

import (
	"context"
	"errors"
	"log/slog"
	"math"
	"slices"
	"strings"
	"sync"
	"time"

	"vidash/internal/api"
	"vidash/internal/apierr"
	"vidash/internal/logging"
)

const (
	// DefaultUnmuteVolume is restored on unmute when no non-zero volume was recorded.
	DefaultUnmuteVolume = 0.6
	defaultEmitTimeout  = 10 * time.Second
)

// DefaultRateLadder is the playback-rate cycle used when none is configured.
func DefaultRateLadder() []float64 { return []float64{1.0, 1.5, 2.0} }

// State is the transport state of the controller.
type State int

const (
	StateIdle State = iota
	StateLoaded
	StatePlaying
	StatePaused
	StateEnded
)

func (s State) String() string {
	switch s {
	case StateLoaded:
		return "loaded"
	case StatePlaying:
		return "playing"
	case StatePaused:
		return "paused"
	case StateEnded:
		return "ended"
	default:
		return "idle"
	}
}

// Recorder appends entries to the activity log.
type Recorder interface {
	RecordActivity(ctx context.Context, record api.ActivityRecord) error
}

// Identity exposes the user views are attributed to.
type Identity interface {
	UserID() api.UserID
}

// ViewObserver is told about every view emission attempt.
type ViewObserver interface {
	ObserveView(err error)
}

// Options configures a Controller.
type Options struct {
	Recorder      Recorder
	Identity      Identity
	Element       Element
	Notifier      Notifier
	Observer      ViewObserver
	Logger        *slog.Logger
	RateLadder    []float64
	DefaultVolume float64
	Autoplay      bool
	EmitTimeout   time.Duration
	Now           func() time.Time
}

// LoadOption adjusts a single Load.
type LoadOption func(*loadSettings)

type loadSettings struct {
	preview bool
}

// WithPreview disables view logging for the loaded session.
func WithPreview() LoadOption {
	return func(s *loadSettings) { s.preview = true }
}

// Snapshot is a read-only copy of the playback session.
type Snapshot struct {
	VideoID         string
	Source          string
	State           State
	Playing         bool
	Volume          float64
	Muted           bool
	PlayedFraction  float64
	LoadedFraction  float64
	DurationSeconds float64
	PlaybackRate    float64
	Fullscreen      bool
	HasEmittedView  bool
	Preview         bool
	PlaylistIndex   int
	PlaylistLength  int
}

type session struct {
	videoID         string
	source          string
	state           State
	playing         bool
	playedFraction  float64
	loadedFraction  float64
	durationSeconds float64
	playbackRate    float64
	fullscreen      bool
	hasEmittedView  bool
	preview         bool
}

// Controller is the playback state machine for one media element.
type Controller struct {
	mu     sync.Mutex
	opts   Options
	logger *slog.Logger
	ladder []float64

	sess         session
	volume       float64
	muted        bool
	unmuteVolume float64

	playlist []Item
	index    int

	emissions sync.WaitGroup
	closed    bool
}

// New constructs an idle controller.
func New(opts Options) *Controller {
	ladder := slices.DeleteFunc(slices.Clone(opts.RateLadder), func(r float64) bool { return r <= 0 })
	if len(ladder) == 0 {
		ladder = DefaultRateLadder()
	}
	volume := opts.DefaultVolume
	if volume <= 0 || volume > 1 {
		volume = DefaultUnmuteVolume
	}
	if opts.EmitTimeout <= 0 {
		opts.EmitTimeout = defaultEmitTimeout
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Controller{
		opts:         opts,
		logger:       logging.NewComponentLogger(opts.Logger, "playback"),
		ladder:       ladder,
		volume:       volume,
		unmuteVolume: volume,
		index:        -1,
		sess:         session{state: StateIdle, playbackRate: ladder[0]},
	}
}

// Load resets the session for a new source. Volume and mute carry over;
// fullscreen is left before the new source is shown.
// With autoplay configured the controller moves straight to Playing through
// the same emission path as TogglePlayPause.
func (c *Controller) Load(source, videoID string, opts ...LoadOption) error {
	source = strings.TrimSpace(source)
	videoID = strings.TrimSpace(videoID)
	if source == "" || videoID == "" {
		return apierr.Validation("playback", "load", "source and video id are required")
	}
	var settings loadSettings
	for _, opt := range opts {
		if opt != nil {
			opt(&settings)
		}
	}

	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return errors.New("playback: controller closed")
	}
	var exitErr error
	if c.sess.fullscreen && c.opts.Element != nil {
		exitErr = c.opts.Element.ExitFullscreen()
	}
	c.sess = session{
		videoID:      videoID,
		source:       source,
		state:        StateLoaded,
		playbackRate: c.ladder[0],
		preview:      settings.preview,
	}
	c.syncPlaylistLocked(videoID)
	var record *api.ActivityRecord
	if c.opts.Autoplay {
		record = c.playLocked()
	}
	c.mu.Unlock()

	if exitErr != nil {
		c.logger.Debug("leaving fullscreen on load failed", logging.Error(exitErr))
		c.notify(LevelWarn, "Fullscreen failed: "+exitErr.Error())
	}
	c.logger.Debug("source loaded",
		logging.String(logging.FieldVideoID, videoID),
		logging.Bool("autoplay", c.opts.Autoplay),
		logging.Bool("preview", settings.preview),
	)
	c.emit(record)
	return nil
}

// TogglePlayPause flips playing. It reports whether the controller had a
// source to act on.
func (c *Controller) TogglePlayPause() bool {
	c.mu.Lock()
	var record *api.ActivityRecord
	switch c.sess.state {
	case StateIdle:
		c.mu.Unlock()
		return false
	case StatePlaying:
		c.sess.playing = false
		c.sess.state = StatePaused
	case StateEnded:
		c.sess.playedFraction = 0
		record = c.playLocked()
	default:
		record = c.playLocked()
	}
	c.mu.Unlock()
	c.emit(record)
	return true
}

// playLocked enters Playing and claims the emission latch on the first play
// of the session. The returned record must be emitted after unlocking.
func (c *Controller) playLocked() *api.ActivityRecord {
	c.sess.playing = true
	c.sess.state = StatePlaying
	if c.sess.hasEmittedView || c.sess.preview {
		return nil
	}
	c.sess.hasEmittedView = true
	var userID api.UserID
	if c.opts.Identity != nil {
		userID = c.opts.Identity.UserID()
	}
	return &api.ActivityRecord{
		VideoID:   c.sess.videoID,
		Action:    api.ActionViewed,
		UserID:    userID,
		Timestamp: api.FormatTimestamp(c.opts.Now()),
	}
}

// emit records the view in the background. Playback never waits on it.
func (c *Controller) emit(record *api.ActivityRecord) {
	if record == nil {
		return
	}
	if c.opts.Recorder == nil {
		c.logger.Debug("view not recorded; no recorder configured", logging.String(logging.FieldVideoID, record.VideoID))
		return
	}
	c.emissions.Add(1)
	go func(rec api.ActivityRecord) {
		defer c.emissions.Done()
		ctx, cancel := context.WithTimeout(logging.WithVideoID(context.Background(), rec.VideoID), c.opts.EmitTimeout)
		defer cancel()
		err := c.opts.Recorder.RecordActivity(ctx, rec)
		if c.opts.Observer != nil {
			c.opts.Observer.ObserveView(err)
		}
		if err != nil {
			logging.WarnWithContext(c.logger, "view event not recorded", "view_emit_failed",
				logging.String(logging.FieldVideoID, rec.VideoID),
				logging.String(logging.FieldImpact, "activity log misses this view; playback unaffected"),
				logging.String(logging.FieldErrorHint, "check API reachability"),
				logging.Error(err),
			)
			return
		}
		c.logger.Info("view recorded",
			logging.String(logging.FieldVideoID, rec.VideoID),
			logging.String(logging.FieldUserID, rec.UserID.String()),
		)
	}(*record)
}

// Seek moves the play head. The fraction is clamped to [0, 1].
func (c *Controller) Seek(fraction float64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.sess.state == StateIdle {
		return
	}
	c.sess.playedFraction = clamp01(fraction)
	if c.sess.state == StateEnded && c.sess.playedFraction < 1 {
		c.sess.state = StatePaused
	}
}

// SetVolume sets the volume, clamped to [0, 1]. Zero mutes.
func (c *Controller) SetVolume(level float64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.volume = clamp01(level)
	c.muted = c.volume == 0
	if c.volume > 0 {
		c.unmuteVolume = c.volume
	}
}

// ToggleMute swaps mute. Unmuting restores the last non-zero volume.
func (c *Controller) ToggleMute() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.muted {
		c.muted = false
		if c.volume == 0 {
			c.volume = c.unmuteVolume
		}
		return
	}
	if c.volume > 0 {
		c.unmuteVolume = c.volume
	}
	c.muted = true
}

// CyclePlaybackRate advances to the next rate on the ladder and returns it.
func (c *Controller) CyclePlaybackRate() float64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	next := c.ladder[0]
	if i := slices.Index(c.ladder, c.sess.playbackRate); i >= 0 {
		next = c.ladder[(i+1)%len(c.ladder)]
	}
	c.sess.playbackRate = next
	return next
}

// ToggleFullscreen asks the element to enter or leave fullscreen. Failures
// are published through the notifier and leave the state unchanged.
func (c *Controller) ToggleFullscreen() {
	c.mu.Lock()
	if c.opts.Element == nil {
		c.mu.Unlock()
		c.notify(LevelWarn, "Fullscreen is not available")
		return
	}
	var err error
	if c.sess.fullscreen {
		err = c.opts.Element.ExitFullscreen()
	} else {
		err = c.opts.Element.RequestFullscreen()
	}
	if err == nil {
		c.sess.fullscreen = !c.sess.fullscreen
	}
	c.mu.Unlock()

	if err != nil {
		c.logger.Debug("fullscreen toggle failed", logging.Error(err))
		c.notify(LevelWarn, "Fullscreen failed: "+err.Error())
	}
}

// Ended marks the end of media.
func (c *Controller) Ended() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.sess.state == StateIdle {
		return
	}
	c.sess.playing = false
	c.sess.playedFraction = 1
	c.sess.state = StateEnded
}

// UpdateProgress applies element time updates. Negative durations are ignored.
func (c *Controller) UpdateProgress(played, loaded, durationSeconds float64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.sess.state == StateIdle {
		return
	}
	c.sess.playedFraction = clamp01(played)
	c.sess.loadedFraction = clamp01(loaded)
	if durationSeconds >= 0 {
		c.sess.durationSeconds = durationSeconds
	}
}

// Snapshot returns a copy of the current session.
func (c *Controller) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return Snapshot{
		VideoID:         c.sess.videoID,
		Source:          c.sess.source,
		State:           c.sess.state,
		Playing:         c.sess.playing,
		Volume:          c.volume,
		Muted:           c.muted,
		PlayedFraction:  c.sess.playedFraction,
		LoadedFraction:  c.sess.loadedFraction,
		DurationSeconds: c.sess.durationSeconds,
		PlaybackRate:    c.sess.playbackRate,
		Fullscreen:      c.sess.fullscreen,
		HasEmittedView:  c.sess.hasEmittedView,
		Preview:         c.sess.preview,
		PlaylistIndex:   c.index,
		PlaylistLength:  len(c.playlist),
	}
}

// Close rejects further loads and waits for in-flight view emissions.
func (c *Controller) Close() {
	c.mu.Lock()
	c.closed = true
	c.mu.Unlock()
	c.emissions.Wait()
}

func (c *Controller) notify(level Level, message string) {
	if c.opts.Notifier == nil {
		return
	}
	c.opts.Notifier.Notify(Notification{Level: level, Message: message})
}

func clamp01(v float64) float64 {
	switch {
	case math.IsNaN(v), v < 0:
		return 0
	case v > 1:
		return 1
	default:
		return v
	}
}
