package playback_test

import (
	"testing"

	"vidash/internal/playback"
)

func TestKeyBindings(t *testing.T) {
	rec := &fakeRecorder{}
	c := newController(rec)
	c.SetPlaylist([]playback.Item{
		{VideoID: "v1", Source: "1.mp4"},
		{VideoID: "v2", Source: "2.mp4"},
	})
	_ = c.Load("1.mp4", "v1")

	if c.HandleKey(playback.KeySpace, true) {
		t.Fatal("keys must be ignored while typing")
	}
	if c.Snapshot().Playing {
		t.Fatal("focused input must not toggle playback")
	}

	c.HandleKey(playback.KeyFromRune(' '), false)
	if !c.Snapshot().Playing {
		t.Fatal("space should play")
	}
	c.HandleKey(playback.KeyFromRune('M'), false)
	if !c.Snapshot().Muted {
		t.Fatal("m should mute")
	}

	if c.HandleKey(playback.KeyLeft, false); c.Snapshot().VideoID != "v1" {
		t.Fatal("left at the start should stay put")
	}
	c.HandleKey(playback.KeyRight, false)
	if snap := c.Snapshot(); snap.VideoID != "v2" || snap.PlaylistIndex != 1 {
		t.Fatalf("right should advance, got %+v", snap)
	}
	if c.Next() {
		t.Fatal("next at the end should be a no-op")
	}
	if !c.Previous() || c.Snapshot().VideoID != "v1" {
		t.Fatal("previous should go back")
	}
	if playback.KeyFromRune('x') != playback.KeyUnknown || c.HandleKey(playback.KeyUnknown, false) {
		t.Fatal("unknown keys must not be handled")
	}
	c.Close()
}

func TestNavigationWithoutPlaylistIsNoop(t *testing.T) {
	c := newController(nil)
	_ = c.Load("1.mp4", "v1")
	if c.Next() || c.Previous() {
		t.Fatal("expected no-op without playlist")
	}
}
