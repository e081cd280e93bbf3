// Package preflight provides readiness checks for the local directories,
// the Remote API, the stored session and the state backend that vidash
// depends on.
//
// The CLI "vidash doctor" command runs RunAll and renders each Result; the
// individual checks are exported so other commands can report a single
// concern.
package preflight
