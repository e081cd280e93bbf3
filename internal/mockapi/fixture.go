package mockapi

import (
	"vidash/internal/api"
)

// Account is a login the mock server accepts.
type Account struct {
	ID       api.UserID
	Username string
	Password string
	Roles    []string
}

// Fixture seeds the server's in-memory state.
type Fixture struct {
	Accounts    []Account
	Videos      []api.Video
	Assignments []api.Assignment
	Activity    []api.ActivityLogEntry
}

// DefaultFixture returns a small dataset with one admin and two viewers.
func DefaultFixture() Fixture {
	return Fixture{
		Accounts: []Account{
			{ID: 1, Username: "admin", Password: "admin", Roles: []string{"ROLE_ADMIN"}},
			{ID: 2, Username: "alice", Password: "alice", Roles: []string{"ROLE_USER"}},
			{ID: 3, Username: "bob", Password: "bob", Roles: []string{"ROLE_USER"}},
		},
		Videos: []api.Video{
			{ID: "vid-intro", Title: "Introduction", Description: "Welcome and course overview", VideoURL: "intro.mp4"},
			{ID: "vid-safety", Title: "Safety Basics", Description: "Workplace safety essentials", VideoURL: "safety.mp4"},
			{ID: "vid-tools", Title: "Tooling Tour", Description: "A walk through the shop tools", VideoURL: "tools.mp4"},
		},
	}
}
