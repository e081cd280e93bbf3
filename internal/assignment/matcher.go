// Package assignment keeps the client projection of video-to-user
// assignments consistent with the server.
//
// Every mutation is confirm-then-apply: local state changes only after the
// server accepts the request, and a failed request leaves the projection
// exactly as it was. A conflict marks the projection stale until the next
// Refresh.
package assignment

import (
	"context"
	"log/slog"
	"slices"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"

	"vidash/internal/api"
	"vidash/internal/apierr"
	"vidash/internal/logging"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// Remote is the slice of the Remote API the matcher needs.
type Remote interface {
	ListAssignments(ctx context.Context) ([]api.Assignment, error)
	AssignVideo(ctx context.Context, videoID string, userID api.UserID) (api.Assignment, error)
	RemoveAssignment(ctx context.Context, assignmentID string) error
}

// ConflictObserver is told about server-rejected assignments.
type ConflictObserver interface {
	ObserveConflict()
}

// Option customises a Matcher.
type Option func(*Matcher)

// WithLogger sets the matcher logger.
func WithLogger(logger *slog.Logger) Option {
	return func(m *Matcher) { m.logger = logging.NewComponentLogger(logger, "assignment") }
}

// WithObserver reports conflicts, typically to the metrics registry.
func WithObserver(observer ConflictObserver) Option {
	return func(m *Matcher) { m.observer = observer }
}

// WithAssignments seeds the projection.
func WithAssignments(assignments []api.Assignment) Option {
	return func(m *Matcher) { m.assignments = slices.Clone(assignments) }
}

type assignInput struct {
	VideoID string     `validate:"required"`
	UserID  api.UserID `validate:"required,gt=0"`
}

// Matcher is the client projection of the assignment set.
type Matcher struct {
	mu          sync.Mutex
	remote      Remote
	logger      *slog.Logger
	observer    ConflictObserver
	assignments []api.Assignment
	pending     int
	stale       bool
}

// New constructs a matcher backed by remote.
func New(remote Remote, opts ...Option) *Matcher {
	m := &Matcher{
		remote: remote,
		logger: logging.NewComponentLogger(nil, "assignment"),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(m)
		}
	}
	return m
}

// ListUnassignedVideos returns the videos with no entry in assignments, in
// input order.
func ListUnassignedVideos(videos []api.Video, assignments []api.Assignment) []api.Video {
	assigned := make(map[string]struct{}, len(assignments))
	for _, a := range assignments {
		assigned[a.VideoID] = struct{}{}
	}
	out := make([]api.Video, 0, len(videos))
	for _, v := range videos {
		if _, ok := assigned[v.ID]; ok {
			continue
		}
		out = append(out, v)
	}
	return out
}

// Assign asks the server to assign videoID to userID and applies the
// confirmed assignment. Any stale local record for the same video is
// replaced so the projection never holds two records for one video.
func (m *Matcher) Assign(ctx context.Context, videoID string, userID api.UserID) (api.Assignment, error) {
	input := assignInput{VideoID: strings.TrimSpace(videoID), UserID: userID}
	if err := validate.Struct(input); err != nil {
		return api.Assignment{}, apierr.Validation("assignment", "assign", "select both a video and a user")
	}

	m.begin()
	created, err := m.remote.AssignVideo(ctx, input.VideoID, input.UserID)
	m.end()
	if err != nil {
		return api.Assignment{}, m.failed("assign", err,
			logging.String(logging.FieldVideoID, input.VideoID),
			logging.String(logging.FieldUserID, input.UserID.String()),
		)
	}
	if created.VideoID == "" {
		created.VideoID = input.VideoID
	}
	if created.UserID == 0 {
		created.UserID = input.UserID
	}

	m.mu.Lock()
	m.assignments = slices.DeleteFunc(m.assignments, func(a api.Assignment) bool {
		return a.VideoID == created.VideoID || (created.ID != "" && a.ID == created.ID)
	})
	m.assignments = append(m.assignments, created)
	m.mu.Unlock()

	m.logger.Info("video assigned",
		logging.String(logging.FieldVideoID, created.VideoID),
		logging.String(logging.FieldUserID, created.UserID.String()),
		logging.String("assignment_id", created.ID),
	)
	return created, nil
}

// Unassign removes an assignment on the server and then locally.
func (m *Matcher) Unassign(ctx context.Context, assignmentID string) error {
	assignmentID = strings.TrimSpace(assignmentID)
	if assignmentID == "" {
		return apierr.Validation("assignment", "unassign", "select an assignment")
	}

	m.begin()
	err := m.remote.RemoveAssignment(ctx, assignmentID)
	m.end()
	if err != nil {
		return m.failed("unassign", err, logging.String("assignment_id", assignmentID))
	}

	m.mu.Lock()
	m.assignments = slices.DeleteFunc(m.assignments, func(a api.Assignment) bool { return a.ID == assignmentID })
	m.mu.Unlock()

	m.logger.Info("assignment removed", logging.String("assignment_id", assignmentID))
	return nil
}

// Refresh replaces the projection with the server's assignment set.
func (m *Matcher) Refresh(ctx context.Context) error {
	m.begin()
	assignments, err := m.remote.ListAssignments(ctx)
	m.end()
	if err != nil {
		return m.failed("refresh", err)
	}

	m.mu.Lock()
	m.assignments = slices.Clone(assignments)
	m.stale = false
	m.mu.Unlock()
	return nil
}

// Assignments returns a copy of the projection.
func (m *Matcher) Assignments() []api.Assignment {
	m.mu.Lock()
	defer m.mu.Unlock()
	return slices.Clone(m.assignments)
}

// AssignmentFor returns the assignment for videoID, if any.
func (m *Matcher) AssignmentFor(videoID string) (api.Assignment, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, a := range m.assignments {
		if a.VideoID == videoID {
			return a, true
		}
	}
	return api.Assignment{}, false
}

// Unassigned filters videos against the current projection.
func (m *Matcher) Unassigned(videos []api.Video) []api.Video {
	return ListUnassignedVideos(videos, m.Assignments())
}

// Pending reports whether a server operation is in flight.
func (m *Matcher) Pending() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.pending > 0
}

// Stale reports whether a conflict was seen since the last Refresh.
func (m *Matcher) Stale() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.stale
}

func (m *Matcher) begin() {
	m.mu.Lock()
	m.pending++
	m.mu.Unlock()
}

func (m *Matcher) end() {
	m.mu.Lock()
	m.pending--
	m.mu.Unlock()
}

func (m *Matcher) failed(operation string, err error, attrs ...logging.Attr) error {
	normalized := apierr.Normalize(err)
	if apierr.IsConflict(err) {
		m.mu.Lock()
		m.stale = true
		m.mu.Unlock()
		if m.observer != nil {
			m.observer.ObserveConflict()
		}
		logging.WarnWithContext(m.logger, "assignment conflict", "assignment_conflict",
			append(attrs,
				logging.String("operation", operation),
				logging.String(logging.FieldImpact, "local assignments unchanged until refresh"),
				logging.String(logging.FieldErrorHint, "refresh assignments and retry"),
				logging.String("reason", normalized.Message),
			)...,
		)
		return normalized
	}
	m.logger.Debug("assignment operation failed", logging.Args(append(attrs,
		logging.String("operation", operation),
		logging.Error(err),
	)...)...)
	return normalized
}
