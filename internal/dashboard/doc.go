// Package dashboard composes the per-role views of the client.
//
// A Viewer lists the signed-in user's assigned videos, remembers the active
// tab and selected video in the state store, and feeds the playback
// controller. An Admin owns the assignment matcher, the activity query
// engine and video management. Each constructor checks the session's
// capability before building anything.
package dashboard
