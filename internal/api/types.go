package api

import (
	"bytes"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// DateTimeFormat is used for RFC3339 timestamps in API payloads.
const DateTimeFormat = "2006-01-02T15:04:05.000Z07:00"

// Envelope is the uniform response wrapper returned by every endpoint.
type Envelope[T any] struct {
	Success  bool      `json:"success"`
	Data     T         `json:"data"`
	Message  string    `json:"message"`
	Code     int       `json:"code,omitempty"`
	Status   string    `json:"status,omitempty"`
	PageInfo *PageInfo `json:"pageInfo,omitempty"`
}

// PageInfo describes a server-side page of results. Older backends report
// totalItems instead of totalElements.
type PageInfo struct {
	CurrentPage   int   `json:"currentPage"`
	TotalPages    int   `json:"totalPages"`
	TotalElements int64 `json:"totalElements"`
	TotalItems    int64 `json:"totalItems,omitempty"`
	PageSize      int   `json:"pageSize"`
}

// Total returns the total element count regardless of which field the server used.
func (p PageInfo) Total() int64 {
	if p.TotalElements > 0 {
		return p.TotalElements
	}
	return p.TotalItems
}

// UserID accepts both numeric and quoted identifiers on the wire.
type UserID int64

func (id *UserID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*id = 0
		return nil
	}
	raw := string(data)
	if strings.HasPrefix(raw, `"`) {
		unquoted, err := strconv.Unquote(raw)
		if err != nil {
			return fmt.Errorf("user id: %w", err)
		}
		raw = strings.TrimSpace(unquoted)
		if raw == "" {
			*id = 0
			return nil
		}
	}
	value, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return fmt.Errorf("user id %q: %w", raw, err)
	}
	*id = UserID(value)
	return nil
}

func (id UserID) String() string {
	return strconv.FormatInt(int64(id), 10)
}

// ParseUserID parses a user identifier typed on the command line.
func ParseUserID(value string) (UserID, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return 0, fmt.Errorf("user id is required")
	}
	parsed, err := strconv.ParseInt(value, 10, 64)
	if err != nil || parsed <= 0 {
		return 0, fmt.Errorf("invalid user id %q", value)
	}
	return UserID(parsed), nil
}

// Video is a distributable video. VideoURL is the source locator relative to
// the media uploads root unless it is already absolute.
type Video struct {
	ID               string  `json:"id"`
	Title            string  `json:"title"`
	Description      string  `json:"description"`
	VideoURL         string  `json:"videoUrl"`
	CreatedAt        string  `json:"createdAt,omitempty"`
	ModificationDate string  `json:"modificationDate,omitempty"`
	AssignedUserID   *UserID `json:"assignedToUserId,omitempty"`
}

// VideoUpdate carries the editable video fields.
type VideoUpdate struct {
	Title       string `json:"title,omitempty"`
	Description string `json:"description,omitempty"`
}

// Assignment binds one user to one video.
type Assignment struct {
	ID         string `json:"id"`
	VideoID    string `json:"videoId"`
	UserID     UserID `json:"userId"`
	AssignedAt string `json:"assignedAt"`
}

// AssignRequest is the body of POST /videos/{id}/assign.
type AssignRequest struct {
	UserID UserID `json:"userId" validate:"required,gt=0"`
}

// Action enumerates the activity kinds recorded by the backend.
type Action string

const (
	ActionViewed   Action = "viewed"
	ActionUpdated  Action = "updated"
	ActionDeleted  Action = "deleted"
	ActionAssigned Action = "assigned"
)

// Actions lists every known action in display order.
func Actions() []Action {
	return []Action{ActionViewed, ActionUpdated, ActionDeleted, ActionAssigned}
}

// ParseAction validates an action name. The empty string and "all" resolve to
// the zero Action, meaning "no filter".
func ParseAction(value string) (Action, error) {
	value = strings.ToLower(strings.TrimSpace(value))
	if value == "" || value == "all" {
		return "", nil
	}
	for _, action := range Actions() {
		if string(action) == value {
			return action, nil
		}
	}
	return "", fmt.Errorf("unknown action %q", value)
}

// ActivityLogEntry is one immutable row of the engagement log.
type ActivityLogEntry struct {
	ID         string `json:"id"`
	UserID     UserID `json:"userId"`
	Username   string `json:"username"`
	VideoID    string `json:"videoId"`
	VideoTitle string `json:"videoTitle"`
	Action     Action `json:"action"`
	Timestamp  string `json:"timestamp"`
}

// Time parses the entry timestamp; the zero time is returned when unparsable.
func (e ActivityLogEntry) Time() time.Time {
	return ParseTimestamp(e.Timestamp)
}

// ParseTimestamp parses an API timestamp. Zone-less values are read as UTC;
// the zero time is returned when value is unparsable.
func ParseTimestamp(value string) time.Time {
	value = strings.TrimSpace(value)
	for _, layout := range []string{time.RFC3339Nano, DateTimeFormat, "2006-01-02T15:04:05"} {
		if ts, err := time.Parse(layout, value); err == nil {
			return ts
		}
	}
	return time.Time{}
}

// ActivityRecord is the body of POST /activity-logs.
type ActivityRecord struct {
	VideoID   string `json:"videoId"`
	Action    Action `json:"action"`
	UserID    UserID `json:"userId"`
	Timestamp string `json:"timestamp"`
}

// User is an account that can receive assignments.
type User struct {
	ID       UserID `json:"id"`
	Username string `json:"username"`
	Role     string `json:"role,omitempty"`
}

// LoginRequest is the body of POST /auth/login.
type LoginRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// AuthenticationResponse is returned by a successful login.
type AuthenticationResponse struct {
	UserID       UserID   `json:"userId"`
	Username     string   `json:"username"`
	AccessToken  string   `json:"accessToken"`
	RefreshToken string   `json:"refreshToken"`
	Roles        []string `json:"roles"`
}

// FormatTimestamp renders t in the API timestamp format.
func FormatTimestamp(t time.Time) string {
	return t.UTC().Format(DateTimeFormat)
}
