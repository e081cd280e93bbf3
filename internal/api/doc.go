// Package api defines the wire-format types exchanged with the dashboard
// backend. Every endpoint answers with the same Envelope wrapper; list
// endpoints for the activity log additionally carry a PageInfo block.
//
// # Key Types
//
// Video, Assignment, ActivityLogEntry, User: payloads returned in Envelope.Data.
//
// AssignRequest, ActivityRecord, LoginRequest: request bodies.
//
// # Design Notes
//
// DTOs use the camelCase JSON tags the backend emits. User
// identifiers are numeric on some endpoints and quoted on others, so UserID
// accepts both encodings. Timestamps are RFC3339 with milliseconds.
package api
