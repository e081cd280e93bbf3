package dashboard

import (
	"context"
	"errors"
	"log/slog"
	"slices"
	"strings"
	"sync"

	"vidash/internal/activity"
	"vidash/internal/api"
	"vidash/internal/apierr"
	"vidash/internal/assignment"
	"vidash/internal/logging"
	"vidash/internal/session"
)

// AdminRemote is the Remote API surface an Admin needs.
type AdminRemote interface {
	assignment.Remote
	activity.Source
	ListVideos(ctx context.Context) ([]api.Video, error)
	ListUsers(ctx context.Context) ([]api.User, error)
	UpdateVideo(ctx context.Context, id string, update api.VideoUpdate) (api.Video, error)
	DeleteVideo(ctx context.Context, id string) error
}

// AdminOptions configures an Admin. Activity.Source defaults to Remote.
type AdminOptions struct {
	Session          *session.Session
	Remote           AdminRemote
	Activity         activity.Options
	ConflictObserver assignment.ConflictObserver
	Logger           *slog.Logger
}

// Admin is the dashboard of a user with the admin capability.
type Admin struct {
	mu       sync.Mutex
	remote   AdminRemote
	logger   *slog.Logger
	matcher  *assignment.Matcher
	activity *activity.Engine
	videos   []api.Video
	users    []api.User
}

// NewAdmin builds an Admin. The session must hold CapabilityAdmin.
func NewAdmin(opts AdminOptions) (*Admin, error) {
	if opts.Session == nil {
		return nil, apierr.Wrap(apierr.ErrUnauthorized, "dashboard", "new admin", "not signed in", session.ErrNoSession)
	}
	if err := opts.Session.Require(session.CapabilityAdmin); err != nil {
		return nil, err
	}
	if opts.Remote == nil {
		return nil, errors.New("dashboard: admin requires a remote")
	}
	logger := logging.NewComponentLogger(opts.Logger, "dashboard")
	activityOpts := opts.Activity
	if activityOpts.Source == nil {
		activityOpts.Source = opts.Remote
	}
	if activityOpts.Logger == nil {
		activityOpts.Logger = opts.Logger
	}
	return &Admin{
		remote:   opts.Remote,
		logger:   logger,
		matcher:  assignment.New(opts.Remote, assignment.WithLogger(opts.Logger), assignment.WithObserver(opts.ConflictObserver)),
		activity: activity.New(activityOpts),
	}, nil
}

// Refresh reloads videos, users and the assignment set.
func (a *Admin) Refresh(ctx context.Context) error {
	videos, err := a.remote.ListVideos(ctx)
	if err != nil {
		return err
	}
	users, err := a.remote.ListUsers(ctx)
	if err != nil {
		return err
	}
	if err := a.matcher.Refresh(ctx); err != nil {
		return err
	}
	a.mu.Lock()
	a.videos = videos
	a.users = users
	a.mu.Unlock()
	return nil
}

// Matcher returns the assignment matcher.
func (a *Admin) Matcher() *assignment.Matcher { return a.matcher }

// Activity returns the activity query engine.
func (a *Admin) Activity() *activity.Engine { return a.activity }

// Videos returns the last loaded videos.
func (a *Admin) Videos() []api.Video {
	a.mu.Lock()
	defer a.mu.Unlock()
	return slices.Clone(a.videos)
}

// Users returns the last loaded users.
func (a *Admin) Users() []api.User {
	a.mu.Lock()
	defer a.mu.Unlock()
	return slices.Clone(a.users)
}

// UnassignedVideos returns the loaded videos without an assignment.
func (a *Admin) UnassignedVideos() []api.Video {
	return a.matcher.Unassigned(a.Videos())
}

// LookupUser finds a loaded user by id or case-insensitive username.
func (a *Admin) LookupUser(ref string) (api.User, bool) {
	ref = strings.TrimSpace(ref)
	a.mu.Lock()
	defer a.mu.Unlock()
	for _, u := range a.users {
		if u.ID.String() == ref || strings.EqualFold(u.Username, ref) {
			return u, true
		}
	}
	return api.User{}, false
}

// Assign assigns videoID to userID through the matcher.
func (a *Admin) Assign(ctx context.Context, videoID string, userID api.UserID) (api.Assignment, error) {
	assigned, err := a.matcher.Assign(ctx, videoID, userID)
	if err != nil {
		return assigned, err
	}
	a.setAssignedUser(assigned.VideoID, &assigned.UserID)
	return assigned, nil
}

// Unassign removes an assignment through the matcher.
func (a *Admin) Unassign(ctx context.Context, assignmentID string) error {
	var videoID string
	for _, existing := range a.matcher.Assignments() {
		if existing.ID == assignmentID {
			videoID = existing.VideoID
		}
	}
	if err := a.matcher.Unassign(ctx, assignmentID); err != nil {
		return err
	}
	if videoID != "" {
		a.setAssignedUser(videoID, nil)
	}
	return nil
}

// UpdateVideo edits a video and replaces it in the loaded list.
func (a *Admin) UpdateVideo(ctx context.Context, id string, update api.VideoUpdate) (api.Video, error) {
	video, err := a.remote.UpdateVideo(ctx, id, update)
	if err != nil {
		return video, err
	}
	a.mu.Lock()
	if idx := slices.IndexFunc(a.videos, func(v api.Video) bool { return v.ID == id }); idx >= 0 {
		a.videos[idx] = video
	}
	a.mu.Unlock()
	return video, nil
}

// DeleteVideo deletes a video and resynchronises the assignment set, since
// the server drops the video's assignment with it.
func (a *Admin) DeleteVideo(ctx context.Context, id string) error {
	if err := a.remote.DeleteVideo(ctx, id); err != nil {
		return err
	}
	a.mu.Lock()
	a.videos = slices.DeleteFunc(a.videos, func(v api.Video) bool { return v.ID == id })
	a.mu.Unlock()
	a.logger.Info("video deleted", logging.String(logging.FieldVideoID, id))
	return a.matcher.Refresh(ctx)
}

// Close stops the activity engine.
func (a *Admin) Close() {
	a.activity.Close()
}

func (a *Admin) setAssignedUser(videoID string, userID *api.UserID) {
	a.mu.Lock()
	defer a.mu.Unlock()
	for i := range a.videos {
		if a.videos[i].ID == videoID {
			if userID == nil {
				a.videos[i].AssignedUserID = nil
			} else {
				id := *userID
				a.videos[i].AssignedUserID = &id
			}
		}
	}
}
