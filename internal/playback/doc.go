// Package playback drives one media element's transport state.
//
// A Controller owns the element for its lifetime and walks the states
// Idle, Loaded, Playing/Paused and Ended. The first transition into Playing
// after each Load records a single "viewed" activity asynchronously; the
// latch resets on the next Load. Recording is best effort: failures are
// logged and counted, never surfaced to the caller or allowed to change
// playback state.
//
// Keyboard input maps onto the same operations (Space, Left/Right, M, F) and
// is ignored while a text input has focus. Lock guards against two players
// driving the same video on one machine.
package playback
