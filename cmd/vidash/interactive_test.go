package main

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"vidash/internal/activity"
	"vidash/internal/api"
	"vidash/internal/playback"
	"vidash/internal/remote"
)

func TestDecodeKey(t *testing.T) {
	tests := []struct {
		input string
		want  keyEvent
	}{
		{"a", keyEvent{r: 'a'}},
		{"\r", keyEvent{special: keyEnter}},
		{"\x7f", keyEvent{special: keyBackspace}},
		{"\x03", keyEvent{special: keyInterrupt}},
		{"\x1b", keyEvent{special: keyEscape}},
		{"\x1b[C", keyEvent{special: keyArrowRight}},
		{"\x1b[D", keyEvent{special: keyArrowLeft}},
		{"é", keyEvent{r: 'é'}},
	}
	for _, tt := range tests {
		got, err := decodeKey(bufio.NewReader(strings.NewReader(tt.input)))
		if err != nil {
			t.Fatalf("decodeKey(%q): %v", tt.input, err)
		}
		if got != tt.want {
			t.Fatalf("decodeKey(%q) = %+v, want %+v", tt.input, got, tt.want)
		}
	}
}

func TestRawTextUsesCarriageReturns(t *testing.T) {
	if got := rawText("a\nb\r\nc"); got != "a\r\nb\r\nc" {
		t.Fatalf("unexpected raw text %q", got)
	}
}

func TestNextActionCycles(t *testing.T) {
	seen := []api.Action{""}
	current := api.Action("")
	for range api.Actions() {
		current = nextAction(current)
		seen = append(seen, current)
	}
	if nextAction(current) != "" {
		t.Fatalf("expected cycle to return to all, got %q", nextAction(current))
	}
	if len(seen) != 5 || seen[1] != api.ActionViewed || seen[4] != api.ActionAssigned {
		t.Fatalf("unexpected cycle %v", seen)
	}
}

type staticSource struct {
	entries []api.ActivityLogEntry
	queries []remote.ActivityQuery
}

func (s *staticSource) ListActivityLogs(_ context.Context, q remote.ActivityQuery) (remote.ActivityPage, error) {
	s.queries = append(s.queries, q)
	start := min(q.Page*q.Size, len(s.entries))
	end := min(start+q.Size, len(s.entries))
	total := len(s.entries)
	pages := (total + q.Size - 1) / q.Size
	return remote.ActivityPage{
		Entries:  s.entries[start:end],
		PageInfo: api.PageInfo{TotalElements: int64(total), TotalPages: pages, CurrentPage: q.Page, PageSize: q.Size},
		Paged:    true,
	}, nil
}

func TestActivityBrowserKeys(t *testing.T) {
	source := &staticSource{}
	for i := 0; i < 12; i++ {
		source.entries = append(source.entries, api.ActivityLogEntry{ID: string(rune('a' + i)), Username: "bob", Action: api.ActionViewed})
	}
	engine := activity.New(activity.Options{Source: source, PageSize: 5, Debounce: -1})
	defer engine.Close()
	if err := engine.Fetch(context.Background()); err != nil {
		t.Fatalf("fetch: %v", err)
	}

	var out bytes.Buffer
	b := &activityBrowser{engine: engine, out: &out}

	if !b.handle(keyEvent{r: 'n'}) || engine.Query().Page != 1 {
		t.Fatalf("expected next page, got page %d", engine.Query().Page)
	}
	b.handle(keyEvent{r: 'p'})
	b.handle(keyEvent{r: 'p'})
	if b.message != "already on the first page" {
		t.Fatalf("expected first page message, got %q", b.message)
	}

	b.handle(keyEvent{r: 'a'})
	if engine.Query().Action != api.ActionViewed {
		t.Fatalf("expected viewed filter, got %q", engine.Query().Action)
	}

	b.handle(keyEvent{r: 's'})
	if engine.Query().PageSize != 10 {
		t.Fatalf("expected next page size 10, got %d", engine.Query().PageSize)
	}

	b.handle(keyEvent{r: '/'})
	for _, r := range "bo" {
		b.handle(keyEvent{r: r})
	}
	b.handle(keyEvent{special: keyBackspace})
	b.handle(keyEvent{r: 'o'})
	if !b.searching || b.search != "bo" {
		t.Fatalf("expected search buffer bo, got %q (searching=%v)", b.search, b.searching)
	}
	if b.handle(keyEvent{r: 'q'}) != true {
		t.Fatal("q inside search should type, not quit")
	}
	b.handle(keyEvent{special: keyBackspace})
	b.handle(keyEvent{special: keyEnter})
	if b.searching || engine.Query().Username != "bo" {
		t.Fatalf("expected committed search bo, got %q", engine.Query().Username)
	}

	b.draw()
	if !strings.Contains(out.String(), "[n]ext") || strings.Contains(strings.ReplaceAll(out.String(), "\r\n", ""), "\n") {
		t.Fatalf("unexpected draw output %q", out.String())
	}
	if b.handle(keyEvent{r: 'q'}) {
		t.Fatal("expected q to quit")
	}
}

func TestRenderActivityViewCaption(t *testing.T) {
	view := activity.View{
		Query:      activity.Query{Filters: activity.Filters{Action: api.ActionViewed, Username: "bo"}, Page: 1, PageSize: 10},
		Rows:       []activity.Row{{Timestamp: "2024-01-02 03:04:05", Username: "bob", VideoID: "vid-1", ActionLabel: "Viewed"}},
		TotalPages: 3,
		RangeLabel: "11-11 of 21",
	}
	rendered := renderActivityView(view)
	for _, want := range []string{"11-11 of 21", "page 2/3", "action=viewed", "user=bo", "vid-1", "Viewed"} {
		requireContains(t, rendered, want)
	}
}

func TestRenderPlayerLine(t *testing.T) {
	line := renderPlayerLine("Safety Basics", playback.Snapshot{
		State:          playback.StatePlaying,
		PlayedFraction: 0.5,
		PlaybackRate:   1.5,
		Volume:         0.6,
		PlaylistIndex:  1,
		PlaylistLength: 3,
		HasEmittedView: true,
	}, "Fullscreen failed")
	for _, want := range []string{"playing", "Safety Basics", "##########----------", " 50%", "1.5x", "vol  60%", "2/3", "viewed", "| Fullscreen failed"} {
		requireContains(t, line, want)
	}

	muted := renderPlayerLine("x", playback.Snapshot{Muted: true, PlaybackRate: 1}, "")
	requireContains(t, muted, "muted")
}

func TestTerminalElementWithoutTTY(t *testing.T) {
	var out bytes.Buffer
	el := newTerminalElement(&out)
	if err := el.RequestFullscreen(); err != playback.ErrFullscreenUnsupported {
		t.Fatalf("expected unsupported, got %v", err)
	}
	if err := el.ExitFullscreen(); err != nil {
		t.Fatalf("exit without fullscreen: %v", err)
	}
	if out.Len() != 0 {
		t.Fatalf("expected no output, got %q", out.String())
	}
}

func TestSwitchingVideoRequiresItsLock(t *testing.T) {
	dir := t.TempDir()
	player := playback.New(playback.Options{})
	defer player.Close()
	player.SetPlaylist([]playback.Item{
		{VideoID: "v1", Source: "http://media/1.mp4"},
		{VideoID: "v2", Source: "http://media/2.mp4"},
	})
	if err := player.Load("http://media/1.mp4", "v1", playback.WithPreview()); err != nil {
		t.Fatalf("load: %v", err)
	}
	locks := &videoLocks{dir: dir}
	defer locks.release()
	if err := locks.hold("v1"); err != nil {
		t.Fatalf("hold v1: %v", err)
	}

	other, err := playback.AcquireLock(dir, "v2")
	if err != nil {
		t.Fatalf("lock v2: %v", err)
	}
	if err := handleWatchKey(player, locks, keyEvent{special: keyArrowRight}); !errors.Is(err, playback.ErrAlreadyPlaying) {
		t.Fatalf("expected ErrAlreadyPlaying, got %v", err)
	}
	if got := player.Snapshot().VideoID; got != "v1" || locks.videoID != "v1" {
		t.Fatalf("player must stay on v1, got %s (lock %s)", got, locks.videoID)
	}
	_ = other.Release()

	if err := handleWatchKey(player, locks, keyEvent{special: keyArrowRight}); err != nil {
		t.Fatalf("switch: %v", err)
	}
	if got := player.Snapshot().VideoID; got != "v2" || locks.videoID != "v2" {
		t.Fatalf("expected v2 with its lock, got %s (lock %s)", got, locks.videoID)
	}
	released, err := playback.AcquireLock(dir, "v1")
	if err != nil {
		t.Fatalf("v1 lock should be released: %v", err)
	}
	_ = released.Release()

	if err := handleWatchKey(player, locks, keyEvent{special: keyArrowRight}); err != nil || player.Snapshot().VideoID != "v2" {
		t.Fatalf("end of playlist must be a no-op, err=%v", err)
	}
}

func TestProgressSimulatorEndsPlayback(t *testing.T) {
	player := playback.New(playback.Options{})
	defer player.Close()
	if err := player.Load("http://media/x.mp4", "vid-x", playback.WithPreview()); err != nil {
		t.Fatalf("load: %v", err)
	}
	player.TogglePlayPause()
	sim := &progressSimulator{player: player, duration: 10 * time.Second}

	sim.advance(4 * time.Second)
	if got := player.Snapshot().PlayedFraction; got < 0.39 || got > 0.41 {
		t.Fatalf("expected 40%% played, got %v", got)
	}
	sim.advance(7 * time.Second)
	if player.Snapshot().State != playback.StateEnded {
		t.Fatalf("expected ended, got %s", player.Snapshot().State)
	}
}

func TestStatusLineAndProgressBar(t *testing.T) {
	line := renderStatusLine("API", statusOK, "reachable", false)
	if !strings.HasPrefix(line, "  API:") || !strings.HasSuffix(line, "[OK] reachable") {
		t.Fatalf("unexpected status line %q", line)
	}
	colored := renderStatusLine("API", statusError, "", true)
	if !strings.HasPrefix(colored, "\x1b[") || !strings.Contains(colored, "[ERROR]") || !strings.HasSuffix(colored, "\x1b[0m") {
		t.Fatalf("expected colored line, got %q", colored)
	}
	if got := progressBar(0.25, 8); got != "##------" {
		t.Fatalf("unexpected bar %q", got)
	}
	if got := progressBar(2, 4); got != "####" {
		t.Fatalf("expected clamped bar, got %q", got)
	}
}
