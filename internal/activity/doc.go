// Package activity implements the paginated, filtered activity log viewer.
//
// The Engine keeps filters, page and page size mutually consistent: every
// filter or page-size change resets the page to zero, search text commits
// only after a quiet period, and out-of-range page requests are rejected
// locally. Fetches are tagged with a generation and a parameter snapshot so
// only the response to the latest request reaches the view.
//
// View renders the current state into display rows, navigation flags and a
// range label; a failed fetch keeps the last good rows.
package activity
