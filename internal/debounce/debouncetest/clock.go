// Package debouncetest provides a manually advanced debounce.Clock for
// tests of code built on debounced values.
package debouncetest

import (
	"sort"
	"sync"
	"time"

	"vidash/internal/debounce"
)

// FakeClock is a debounce.Clock that only moves when Advance is called.
type FakeClock struct {
	mu      sync.Mutex
	now     time.Duration
	nextID  int
	waiters []*fakeTimer
}

type fakeTimer struct {
	clock   *FakeClock
	id      int
	at      time.Duration
	f       func()
	stopped bool
}

func (t *fakeTimer) Stop() bool {
	t.clock.mu.Lock()
	defer t.clock.mu.Unlock()
	if t.stopped {
		return false
	}
	t.stopped = true
	return true
}

// NewFakeClock returns a clock at offset zero.
func NewFakeClock() *FakeClock { return &FakeClock{} }

// AfterFunc implements debounce.Clock.
func (c *FakeClock) AfterFunc(d time.Duration, f func()) debounce.Timer {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.nextID++
	t := &fakeTimer{clock: c, id: c.nextID, at: c.now + d, f: f}
	c.waiters = append(c.waiters, t)
	return t
}

// Advance moves the clock forward and runs every callback that came due, in
// schedule order, outside the clock lock.
func (c *FakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now += d
	var due []*fakeTimer
	remaining := c.waiters[:0]
	for _, t := range c.waiters {
		switch {
		case t.stopped:
		case t.at <= c.now:
			t.stopped = true
			due = append(due, t)
		default:
			remaining = append(remaining, t)
		}
	}
	c.waiters = remaining
	c.mu.Unlock()

	sort.Slice(due, func(i, j int) bool {
		if due[i].at == due[j].at {
			return due[i].id < due[j].id
		}
		return due[i].at < due[j].at
	})
	for _, t := range due {
		t.f()
	}
}

// Pending reports how many timers are scheduled and not stopped.
func (c *FakeClock) Pending() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	n := 0
	for _, t := range c.waiters {
		if !t.stopped {
			n++
		}
	}
	return n
}
