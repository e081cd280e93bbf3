// Package config loads, normalizes, and validates vidash configuration data.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts), reads TOML files, and honours environment fallbacks such as
// VIDASH_API_URL and VIDASH_REDIS_URL. The Config type centralizes every knob
// the CLI and client components need, from the Remote API location to the
// activity log page sizes and the terminal player's rate ladder.
//
// Load returns a normalized and validated Config; commands never read the
// TOML file directly.
package config
