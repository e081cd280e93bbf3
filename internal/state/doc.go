// Package state persists small client-local key/value settings such as the
// selected dashboard tab and the last selected video.
//
// Two backends are supported: a SQLite database under the configured state
// directory (the default) and a Redis instance for setups that share
// dashboard state across machines. Open picks the backend from config.
package state
