// Package mockapi implements an in-memory Remote API for local development
// and functional tests.
//
// The server speaks the same envelope format as the production backend,
// issues HS256 access tokens on login, enforces admin-only routes, rejects a
// second assignment of an already assigned video with 409 Conflict, and
// records viewed/updated/deleted/assigned activity entries. Routes are
// mounted under /api/v1.
package mockapi
