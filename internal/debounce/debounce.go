// Package debounce provides a trailing-edge debounced value.
package debounce

import (
	"sync"
	"time"
)

// Timer is the cancellable handle returned by Clock.AfterFunc.
type Timer interface {
	Stop() bool
}

// Clock schedules delayed callbacks.
type Clock interface {
	AfterFunc(d time.Duration, f func()) Timer
}

type realClock struct{}

func (realClock) AfterFunc(d time.Duration, f func()) Timer { return time.AfterFunc(d, f) }

// RealClock schedules on the runtime timer.
func RealClock() Clock { return realClock{} }

// Value delays commits of rapidly changing input. Every Set cancels the
// pending timer and restarts it; only the last value set before the delay
// elapses is committed.
type Value[T any] struct {
	mu      sync.Mutex
	delay   time.Duration
	clock   Clock
	commit  func(T)
	timer   Timer
	seq     uint64
	pending T
	armed   bool
	closed  bool
}

// New returns a debounced value that calls commit after delay of quiet. A nil
// clock uses the runtime timer. A non-positive delay commits synchronously.
func New[T any](delay time.Duration, clock Clock, commit func(T)) *Value[T] {
	if clock == nil {
		clock = realClock{}
	}
	return &Value[T]{delay: delay, clock: clock, commit: commit}
}

// Set records v and restarts the quiet period.
func (v *Value[T]) Set(value T) {
	v.mu.Lock()
	if v.closed {
		v.mu.Unlock()
		return
	}
	v.stopLocked()
	v.seq++
	v.pending = value
	v.armed = true
	if v.delay <= 0 {
		v.armed = false
		v.mu.Unlock()
		v.fire(value)
		return
	}
	seq := v.seq
	v.timer = v.clock.AfterFunc(v.delay, func() { v.elapsed(seq) })
	v.mu.Unlock()
}

// Flush commits the pending value immediately. It reports whether a value
// was pending.
func (v *Value[T]) Flush() bool {
	v.mu.Lock()
	if !v.armed || v.closed {
		v.mu.Unlock()
		return false
	}
	v.stopLocked()
	v.seq++
	value := v.pending
	v.armed = false
	v.mu.Unlock()
	v.fire(value)
	return true
}

// Cancel drops the pending value without committing it.
func (v *Value[T]) Cancel() {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.stopLocked()
	v.seq++
	v.armed = false
}

// Pending returns the value waiting to be committed.
func (v *Value[T]) Pending() (T, bool) {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.pending, v.armed
}

// Close cancels any pending commit; later Sets are ignored.
func (v *Value[T]) Close() {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.stopLocked()
	v.seq++
	v.armed = false
	v.closed = true
}

func (v *Value[T]) elapsed(seq uint64) {
	v.mu.Lock()
	if seq != v.seq || !v.armed || v.closed {
		v.mu.Unlock()
		return
	}
	value := v.pending
	v.armed = false
	v.timer = nil
	v.mu.Unlock()
	v.fire(value)
}

func (v *Value[T]) fire(value T) {
	if v.commit != nil {
		v.commit(value)
	}
}

func (v *Value[T]) stopLocked() {
	if v.timer != nil {
		v.timer.Stop()
		v.timer = nil
	}
}
