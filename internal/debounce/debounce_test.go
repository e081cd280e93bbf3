package debounce_test

import (
	"sync"
	"testing"
	"time"

	"vidash/internal/debounce"
	"vidash/internal/debounce/debouncetest"
)

type commits struct {
	mu     sync.Mutex
	values []string
}

func (c *commits) add(v string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.values = append(c.values, v)
}

func (c *commits) snapshot() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]string(nil), c.values...)
}

func TestOnlyLastValueCommitsAfterQuietPeriod(t *testing.T) {
	clock := debouncetest.NewFakeClock()
	got := &commits{}
	v := debounce.New(500*time.Millisecond, clock, got.add)

	for _, text := range []string{"a", "al", "ali"} {
		v.Set(text)
		clock.Advance(100 * time.Millisecond)
	}
	if len(got.snapshot()) != 0 {
		t.Fatalf("expected no commits while typing, got %v", got.snapshot())
	}
	if clock.Pending() != 1 {
		t.Fatalf("expected exactly one pending timer, got %d", clock.Pending())
	}

	clock.Advance(500 * time.Millisecond)
	if values := got.snapshot(); len(values) != 1 || values[0] != "ali" {
		t.Fatalf("expected single commit of ali, got %v", values)
	}

	clock.Advance(time.Second)
	if len(got.snapshot()) != 1 {
		t.Fatalf("expected no further commits, got %v", got.snapshot())
	}
}

func TestFlushCommitsImmediately(t *testing.T) {
	clock := debouncetest.NewFakeClock()
	got := &commits{}
	v := debounce.New(time.Second, clock, got.add)

	if v.Flush() {
		t.Fatal("flush with nothing pending should report false")
	}
	v.Set("x")
	if pending, ok := v.Pending(); !ok || pending != "x" {
		t.Fatalf("unexpected pending %q %v", pending, ok)
	}
	if !v.Flush() {
		t.Fatal("expected flush to commit")
	}
	clock.Advance(2 * time.Second)
	if values := got.snapshot(); len(values) != 1 || values[0] != "x" {
		t.Fatalf("expected one commit, got %v", values)
	}
}

func TestCancelAndClose(t *testing.T) {
	clock := debouncetest.NewFakeClock()
	got := &commits{}
	v := debounce.New(time.Second, clock, got.add)

	v.Set("dropped")
	v.Cancel()
	clock.Advance(2 * time.Second)

	v.Set("closed")
	v.Close()
	v.Set("ignored")
	clock.Advance(2 * time.Second)

	if values := got.snapshot(); len(values) != 0 {
		t.Fatalf("expected no commits, got %v", values)
	}
}

func TestZeroDelayCommitsSynchronously(t *testing.T) {
	got := &commits{}
	v := debounce.New(0, nil, got.add)
	v.Set("now")
	if values := got.snapshot(); len(values) != 1 || values[0] != "now" {
		t.Fatalf("expected synchronous commit, got %v", values)
	}
}

func TestRealClockFires(t *testing.T) {
	done := make(chan string, 1)
	v := debounce.New(10*time.Millisecond, debounce.RealClock(), func(s string) { done <- s })
	v.Set("late")
	select {
	case got := <-done:
		if got != "late" {
			t.Fatalf("unexpected commit %q", got)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for commit")
	}
}
