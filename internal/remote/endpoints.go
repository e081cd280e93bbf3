package remote

import (
	"context"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"vidash/internal/api"
	"vidash/internal/apierr"
)

// ActivityQuery carries the filters and page of an activity log request.
// Page is zero-based.
type ActivityQuery struct {
	Page     int
	Size     int
	Action   api.Action
	Username string
	VideoID  string
}

// Values encodes the query string sent to GET /activity-logs.
func (q ActivityQuery) Values() url.Values {
	values := url.Values{}
	values.Set("page", strconv.Itoa(max(q.Page, 0)))
	if q.Size > 0 {
		values.Set("size", strconv.Itoa(q.Size))
	}
	if q.Action != "" {
		values.Set("action", string(q.Action))
	}
	if username := strings.TrimSpace(q.Username); username != "" {
		values.Set("username", username)
	}
	if videoID := strings.TrimSpace(q.VideoID); videoID != "" {
		values.Set("videoId", videoID)
	}
	return values
}

// ActivityPage is one page of the activity log.
type ActivityPage struct {
	Entries  []api.ActivityLogEntry
	PageInfo api.PageInfo
	// Paged is false when the server omitted pageInfo.
	Paged bool
}

// ListVideos returns every video (admin).
func (c *Client) ListVideos(ctx context.Context) ([]api.Video, error) {
	env, err := send[[]api.Video](ctx, c, request{method: http.MethodGet, path: "videos", route: "GET /videos"})
	return env.Data, err
}

// ListUserVideos returns the videos assigned to the current session user.
func (c *Client) ListUserVideos(ctx context.Context) ([]api.Video, error) {
	env, err := send[[]api.Video](ctx, c, request{method: http.MethodGet, path: "videos/user-videos", route: "GET /videos/user-videos"})
	return env.Data, err
}

// GetVideo returns one video.
func (c *Client) GetVideo(ctx context.Context, id string) (api.Video, error) {
	if err := requireID("GET /videos/{id}", "video id", id); err != nil {
		return api.Video{}, err
	}
	env, err := send[api.Video](ctx, c, request{method: http.MethodGet, path: "videos/" + url.PathEscape(id), route: "GET /videos/{id}"})
	return env.Data, err
}

// UpdateVideo edits a video's metadata (admin).
func (c *Client) UpdateVideo(ctx context.Context, id string, update api.VideoUpdate) (api.Video, error) {
	if err := requireID("PUT /videos/{id}", "video id", id); err != nil {
		return api.Video{}, err
	}
	env, err := send[api.Video](ctx, c, request{method: http.MethodPut, path: "videos/" + url.PathEscape(id), route: "PUT /videos/{id}", body: update})
	return env.Data, err
}

// DeleteVideo removes a video (admin).
func (c *Client) DeleteVideo(ctx context.Context, id string) error {
	if err := requireID("DELETE /videos/{id}", "video id", id); err != nil {
		return err
	}
	_, err := send[struct{}](ctx, c, request{method: http.MethodDelete, path: "videos/" + url.PathEscape(id), route: "DELETE /videos/{id}"})
	return err
}

// ListAssignments returns the authoritative assignment set.
func (c *Client) ListAssignments(ctx context.Context) ([]api.Assignment, error) {
	env, err := send[[]api.Assignment](ctx, c, request{method: http.MethodGet, path: "videos/assignments", route: "GET /videos/assignments"})
	return env.Data, err
}

// AssignVideo assigns videoID to userID and returns the created assignment.
func (c *Client) AssignVideo(ctx context.Context, videoID string, userID api.UserID) (api.Assignment, error) {
	if err := requireID("POST /videos/{id}/assign", "video id", videoID); err != nil {
		return api.Assignment{}, err
	}
	env, err := send[api.Assignment](ctx, c, request{
		method: http.MethodPost,
		path:   "videos/" + url.PathEscape(videoID) + "/assign",
		route:  "POST /videos/{id}/assign",
		body:   api.AssignRequest{UserID: userID},
	})
	return env.Data, err
}

// RemoveAssignment deletes an assignment by its id.
func (c *Client) RemoveAssignment(ctx context.Context, assignmentID string) error {
	if err := requireID("DELETE /videos/remove-assignment/{id}", "assignment id", assignmentID); err != nil {
		return err
	}
	_, err := send[struct{}](ctx, c, request{
		method: http.MethodDelete,
		path:   "videos/remove-assignment/" + url.PathEscape(assignmentID),
		route:  "DELETE /videos/remove-assignment/{id}",
	})
	return err
}

// ListActivityLogs fetches one page of the activity log.
func (c *Client) ListActivityLogs(ctx context.Context, q ActivityQuery) (ActivityPage, error) {
	env, err := send[[]api.ActivityLogEntry](ctx, c, request{
		method: http.MethodGet,
		path:   "activity-logs",
		route:  "GET /activity-logs",
		query:  q.Values(),
	})
	if err != nil {
		return ActivityPage{}, err
	}
	page := ActivityPage{Entries: env.Data}
	if env.PageInfo != nil {
		page.PageInfo = *env.PageInfo
		page.Paged = true
	}
	return page, nil
}

// RecordActivity appends an entry to the activity log.
func (c *Client) RecordActivity(ctx context.Context, record api.ActivityRecord) error {
	if err := requireID("POST /activity-logs", "video id", record.VideoID); err != nil {
		return err
	}
	_, err := send[struct{}](ctx, c, request{method: http.MethodPost, path: "activity-logs", route: "POST /activity-logs", body: record})
	return err
}

// Login exchanges credentials for session tokens.
func (c *Client) Login(ctx context.Context, credentials api.LoginRequest) (api.AuthenticationResponse, error) {
	env, err := send[api.AuthenticationResponse](ctx, c, request{
		method:    http.MethodPost,
		path:      "auth/login",
		route:     "POST /auth/login",
		body:      credentials,
		anonymous: true,
	})
	return env.Data, err
}

// ListUsers returns the accounts that can receive assignments.
func (c *Client) ListUsers(ctx context.Context) ([]api.User, error) {
	env, err := send[[]api.User](ctx, c, request{method: http.MethodGet, path: "users", route: "GET /users"})
	return env.Data, err
}

// Ping reports whether the API answered at all. Any HTTP status counts as
// reachable; only transport failures are returned.
func (c *Client) Ping(ctx context.Context) error {
	_, err := send[[]api.Video](ctx, c, request{method: http.MethodGet, path: "videos", route: "GET /videos"})
	if err != nil && IsAPIUnavailable(err) {
		return err
	}
	return nil
}

func requireID(route, name, value string) error {
	if strings.TrimSpace(value) == "" {
		return apierr.Validation("remote", route, name+" is required")
	}
	return nil
}
