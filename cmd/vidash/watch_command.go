package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/spf13/cobra"

	"vidash/internal/dashboard"
	"vidash/internal/logging"
	"vidash/internal/playback"
	"vidash/internal/remote"
	"vidash/internal/session"
	"vidash/internal/state"
)

const seekStep = 0.1

type watchFlags struct {
	duration time.Duration
	headless bool
}

func newWatchCommand(ctx *commandContext) *cobra.Command {
	var flags watchFlags
	cmd := &cobra.Command{
		Use:   "watch [video-id]",
		Short: "Play an assigned video in the terminal player",
		Long: "Play an assigned video. Without an argument the last selected video is used.\n\n" +
			"Keys:\n" +
			"  space        play / pause\n" +
			"  left, right  previous / next video\n" +
			"  [ ]          seek backward / forward\n" +
			"  - +          volume down / up\n" +
			"  m            mute\n" +
			"  f            fullscreen\n" +
			"  r            cycle playback rate\n" +
			"  q            quit\n\n" +
			"Playback is simulated against --duration. With --headless, or when stdin\n" +
			"is not a terminal, the video plays once to the end without key handling.",
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withClient(session.CapabilityViewer, func(sess *session.Session, client *remote.Client) error {
				return ctx.runWatch(cmd, sess, client, args, flags)
			})
		},
	}
	cmd.Flags().DurationVar(&flags.duration, "duration", 2*time.Minute, "Simulated media length")
	cmd.Flags().BoolVar(&flags.headless, "headless", false, "Play to the end without keyboard control")
	return cmd
}

func (c *commandContext) runWatch(cmd *cobra.Command, sess *session.Session, client *remote.Client, args []string, flags watchFlags) error {
	cfg := c.configValue()
	store, err := c.openState()
	if err != nil {
		return err
	}
	defer store.Close()

	out := cmd.OutOrStdout()
	screen := &playerScreen{out: out}
	opts := playback.Options{
		Recorder:      client,
		Identity:      sess,
		Element:       newTerminalElement(out),
		Notifier:      playback.NotifierFunc(screen.notify),
		Logger:        c.log(),
		RateLadder:    cfg.Player.RateLadder,
		DefaultVolume: cfg.Player.DefaultVolume,
		Autoplay:      cfg.Player.Autoplay,
	}
	if m := c.startMetrics(); m != nil {
		opts.Observer = m
	}
	player := playback.New(opts)
	defer player.Close()

	viewer, err := dashboard.NewViewer(dashboard.ViewerOptions{
		Session: sess,
		Remote:  client,
		State:   store,
		Player:  player,
		Logger:  c.log(),
	})
	if err != nil {
		return err
	}
	if err := viewer.Load(cmd.Context()); err != nil {
		return err
	}
	target := ""
	if len(args) > 0 {
		target = strings.TrimSpace(args[0])
	} else if selected, ok := viewer.Selected(); ok {
		target = selected.ID
	}
	if target == "" {
		return errors.New("no videos are assigned to you")
	}

	locks := &videoLocks{dir: cfg.Paths.LockDir}
	defer locks.release()
	if err := locks.hold(target); err != nil {
		return err
	}
	if err := viewer.Play(cmd.Context(), target); err != nil {
		return err
	}
	screen.titles = videoTitles(viewer.Videos())

	sim := &progressSimulator{player: player, duration: flags.duration}
	interval := cfg.ProgressInterval()

	if flags.headless || !isTerminalReader(cmd.InOrStdin()) {
		return runHeadlessWatch(cmd.Context(), player, sim, interval, screen)
	}

	keys, err := openKeyReader(cmd.InOrStdin())
	if err != nil {
		return err
	}
	defer keys.restore()
	defer func() {
		if player.Snapshot().Fullscreen {
			player.ToggleFullscreen()
		}
	}()

	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	events := keys.events()
	screen.draw(player.Snapshot())
	for {
		select {
		case <-cmd.Context().Done():
			screen.finish()
			return nil
		case <-ticker.C:
			sim.advance(interval)
		case ev, ok := <-events:
			if !ok || ev.special == keyInterrupt || ev.r == 'q' || ev.r == 'Q' {
				screen.finish()
				return nil
			}
			before := player.Snapshot().VideoID
			if err := handleWatchKey(player, locks, ev); err != nil {
				screen.notify(playback.Notification{Level: playback.LevelWarn, Message: err.Error()})
			}
			after := player.Snapshot().VideoID
			if after != before {
				if err := store.Set(cmd.Context(), state.KeySelectedVideo, after); err != nil {
					logging.WarnWithContext(c.log(), "selection not saved", "selection_persist_failed",
						logging.String(logging.FieldVideoID, after),
						logging.String(logging.FieldImpact, "next launch starts from the previous video"),
						logging.String(logging.FieldErrorHint, "check the state backend with `vidash doctor`"),
						logging.Error(err),
					)
				}
			}
		}
		screen.draw(player.Snapshot())
	}
}

func runHeadlessWatch(ctx context.Context, player *playback.Controller, sim *progressSimulator, interval time.Duration, screen *playerScreen) error {
	if !player.Snapshot().Playing {
		player.TogglePlayPause()
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		snap := player.Snapshot()
		if snap.State == playback.StateEnded || sim.duration <= 0 {
			player.Ended()
			break
		}
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			sim.advance(interval)
		}
	}
	snap := player.Snapshot()
	fmt.Fprintf(screen.out, "Watched %s\n", screen.title(snap.VideoID))
	return nil
}

// handleWatchKey applies one key press. Switching videos takes the next
// video's lock first and leaves the player untouched when it is held
// elsewhere.
func handleWatchKey(player *playback.Controller, locks *videoLocks, ev keyEvent) error {
	snap := player.Snapshot()
	switch {
	case ev.special == keyArrowLeft:
		return switchVideo(player, locks, -1, playback.KeyLeft)
	case ev.special == keyArrowRight:
		return switchVideo(player, locks, 1, playback.KeyRight)
	case ev.r == '[':
		player.Seek(snap.PlayedFraction - seekStep)
	case ev.r == ']':
		player.Seek(snap.PlayedFraction + seekStep)
	case ev.r == '-':
		player.SetVolume(snap.Volume - seekStep)
	case ev.r == '+' || ev.r == '=':
		player.SetVolume(snap.Volume + seekStep)
	default:
		player.HandleKey(playback.KeyFromRune(ev.r), false)
	}
	return nil
}

func switchVideo(player *playback.Controller, locks *videoLocks, delta int, key playback.Key) error {
	item, ok := player.Adjacent(delta)
	if !ok {
		return nil
	}
	if err := locks.hold(item.VideoID); err != nil {
		return err
	}
	player.HandleKey(key, false)
	if current := player.Snapshot().VideoID; current != item.VideoID {
		return locks.hold(current)
	}
	return nil
}

// progressSimulator stands in for media time updates.
type progressSimulator struct {
	player   *playback.Controller
	duration time.Duration
}

func (s *progressSimulator) advance(elapsed time.Duration) {
	snap := s.player.Snapshot()
	if !snap.Playing {
		return
	}
	if s.duration <= 0 {
		s.player.Ended()
		return
	}
	rate := snap.PlaybackRate
	if rate <= 0 {
		rate = 1
	}
	played := snap.PlayedFraction + elapsed.Seconds()*rate/s.duration.Seconds()
	if played >= 1 {
		s.player.UpdateProgress(1, 1, s.duration.Seconds())
		s.player.Ended()
		return
	}
	s.player.UpdateProgress(played, min(played+0.25, 1), s.duration.Seconds())
}

// videoLocks holds the lock of the video currently in the player.
type videoLocks struct {
	dir     string
	videoID string
	lock    *playback.Lock
}

func (l *videoLocks) hold(videoID string) error {
	if videoID == l.videoID && l.lock != nil {
		return nil
	}
	next, err := playback.AcquireLock(l.dir, videoID)
	if err != nil {
		return err
	}
	l.release()
	l.videoID = videoID
	l.lock = next
	return nil
}

func (l *videoLocks) release() {
	if l.lock != nil {
		_ = l.lock.Release()
		l.lock = nil
	}
}

// playerScreen renders the player status line.
type playerScreen struct {
	mu      sync.Mutex
	out     io.Writer
	titles  map[string]string
	message string
}

func (s *playerScreen) notify(n playback.Notification) {
	s.mu.Lock()
	s.message = n.Message
	s.mu.Unlock()
}

func (s *playerScreen) title(videoID string) string {
	if title := s.titles[videoID]; title != "" {
		return title
	}
	return videoID
}

func (s *playerScreen) draw(snap playback.Snapshot) {
	s.mu.Lock()
	message := s.message
	s.mu.Unlock()
	fmt.Fprint(s.out, ansiClearLine+renderPlayerLine(s.title(snap.VideoID), snap, message))
}

func (s *playerScreen) finish() {
	fmt.Fprint(s.out, "\r\n")
}

func renderPlayerLine(title string, snap playback.Snapshot, message string) string {
	volume := fmt.Sprintf("vol %3.0f%%", snap.Volume*100)
	if snap.Muted {
		volume = "muted"
	}
	parts := []string{
		fmt.Sprintf("%-7s", snap.State),
		title,
		"[" + progressBar(snap.PlayedFraction, 20) + "]",
		fmt.Sprintf("%3.0f%%", snap.PlayedFraction*100),
		fmt.Sprintf("%.2gx", snap.PlaybackRate),
		volume,
	}
	if snap.PlaylistLength > 1 {
		parts = append(parts, fmt.Sprintf("%d/%d", snap.PlaylistIndex+1, snap.PlaylistLength))
	}
	if snap.Fullscreen {
		parts = append(parts, "fullscreen")
	}
	if snap.HasEmittedView {
		parts = append(parts, "viewed")
	}
	if message != "" {
		parts = append(parts, "| "+message)
	}
	return strings.Join(parts, "  ")
}
