package remote_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"vidash/internal/api"
	"vidash/internal/apierr"
	"vidash/internal/remote"
)

type staticToken string

func (s staticToken) AccessToken() string { return string(s) }

type recordingObserver struct {
	mu     sync.Mutex
	routes []string
	status []int
}

func (o *recordingObserver) ObserveRequest(method, route string, status int, _ time.Duration) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.routes = append(o.routes, route)
	o.status = append(o.status, status)
}

func newClient(t *testing.T, handler http.HandlerFunc, opts ...remote.Option) *remote.Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	client, err := remote.New(srv.URL+"/api/v1", opts...)
	if err != nil {
		t.Fatalf("New error: %v", err)
	}
	return client
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func TestListActivityLogsBuildsQueryAndDecodes(t *testing.T) {
	var gotPath string
	var gotQuery map[string]string
	var gotAuth, gotRequestID string
	client := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotQuery = map[string]string{}
		for key := range r.URL.Query() {
			gotQuery[key] = r.URL.Query().Get(key)
		}
		gotAuth = r.Header.Get("Authorization")
		gotRequestID = r.Header.Get("X-Request-ID")
		writeJSON(w, http.StatusOK, map[string]any{
			"success": true,
			"data": []map[string]any{
				{"id": "a1", "userId": "7", "username": "ann", "videoId": "v1", "videoTitle": "Intro", "action": "viewed", "timestamp": "2024-03-01T10:00:00.000Z"},
			},
			"pageInfo": map[string]any{"currentPage": 2, "totalPages": 5, "totalElements": 41, "pageSize": 10},
		})
	}, remote.WithTokenSource(staticToken("tok")))

	page, err := client.ListActivityLogs(context.Background(), remote.ActivityQuery{
		Page:     2,
		Size:     10,
		Action:   api.ActionViewed,
		Username: " ann ",
		VideoID:  "v1",
	})
	if err != nil {
		t.Fatalf("ListActivityLogs error: %v", err)
	}
	if gotPath != "/api/v1/activity-logs" {
		t.Fatalf("unexpected path %q", gotPath)
	}
	want := map[string]string{"page": "2", "size": "10", "action": "viewed", "username": "ann", "videoId": "v1"}
	for key, value := range want {
		if gotQuery[key] != value {
			t.Fatalf("query %s = %q, want %q", key, gotQuery[key], value)
		}
	}
	if gotAuth != "Bearer tok" {
		t.Fatalf("unexpected auth header %q", gotAuth)
	}
	if gotRequestID == "" {
		t.Fatal("expected request id header")
	}
	if !page.Paged || page.PageInfo.TotalPages != 5 || page.PageInfo.Total() != 41 {
		t.Fatalf("unexpected page info %+v", page.PageInfo)
	}
	if len(page.Entries) != 1 || page.Entries[0].UserID != 7 {
		t.Fatalf("unexpected entries %+v", page.Entries)
	}
}

func TestActivityQueryOmitsEmptyFilters(t *testing.T) {
	values := remote.ActivityQuery{Page: -3, Size: 20}.Values()
	if values.Get("page") != "0" {
		t.Fatalf("expected page clamped to 0, got %q", values.Get("page"))
	}
	for _, key := range []string{"action", "username", "videoId"} {
		if values.Has(key) {
			t.Fatalf("expected %s omitted", key)
		}
	}
}

func TestUnauthorizedAlwaysReadsUnauthorized(t *testing.T) {
	client := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusUnauthorized, map[string]any{"message": "token expired"})
	})

	_, err := client.ListVideos(context.Background())
	if !apierr.IsUnauthorized(err) {
		t.Fatalf("expected unauthorized, got %v", err)
	}
	norm := apierr.Normalize(err)
	if norm.Status != http.StatusUnauthorized || norm.Message != "Unauthorized" {
		t.Fatalf("unexpected normalized error %+v", norm)
	}
}

func TestConflictCarriesServerMessage(t *testing.T) {
	client := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/api/v1/videos/v9/assign" {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		var body api.AssignRequest
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil || body.UserID != 4 {
			t.Errorf("unexpected body %+v (%v)", body, err)
		}
		writeJSON(w, http.StatusConflict, map[string]any{"success": false, "message": "video already assigned"})
	})

	_, err := client.AssignVideo(context.Background(), "v9", 4)
	if !apierr.IsConflict(err) {
		t.Fatalf("expected conflict, got %v", err)
	}
	if apierr.Normalize(err).Message != "video already assigned" {
		t.Fatalf("unexpected message %q", apierr.Normalize(err).Message)
	}
}

func TestNonJSONErrorFallsBackToGenericMessage(t *testing.T) {
	client := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "<html>boom</html>", http.StatusBadGateway)
	})

	_, err := client.ListAssignments(context.Background())
	norm := apierr.Normalize(err)
	if norm == nil || norm.Message != "An error occurred" || norm.Status != http.StatusBadGateway {
		t.Fatalf("unexpected error %+v", norm)
	}
	if !errors.Is(err, apierr.ErrTransient) {
		t.Fatalf("expected transient marker, got %v", err)
	}
}

func TestRemoveAssignmentAcceptsEmptyBody(t *testing.T) {
	observer := &recordingObserver{}
	client := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodDelete || r.URL.Path != "/api/v1/videos/remove-assignment/as-1" {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		w.WriteHeader(http.StatusNoContent)
	}, remote.WithObserver(observer))

	if err := client.RemoveAssignment(context.Background(), "as-1"); err != nil {
		t.Fatalf("RemoveAssignment error: %v", err)
	}
	if len(observer.routes) != 1 || observer.routes[0] != "DELETE /videos/remove-assignment/{id}" || observer.status[0] != http.StatusNoContent {
		t.Fatalf("unexpected observations %v %v", observer.routes, observer.status)
	}
}

func TestIDsAreEscapedOnce(t *testing.T) {
	var seen []string
	client := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		seen = append(seen, r.RequestURI)
		writeJSON(w, http.StatusOK, map[string]any{"success": true, "data": map[string]any{"id": "x"}})
	})

	ctx := context.Background()
	if err := client.RemoveAssignment(ctx, "as 1/x"); err != nil {
		t.Fatalf("RemoveAssignment error: %v", err)
	}
	if _, err := client.GetVideo(ctx, "50%?"); err != nil {
		t.Fatalf("GetVideo error: %v", err)
	}
	if _, err := client.AssignVideo(ctx, "vid a", 3); err != nil {
		t.Fatalf("AssignVideo error: %v", err)
	}

	want := []string{
		"/api/v1/videos/remove-assignment/as%201%2Fx",
		"/api/v1/videos/50%25%3F",
		"/api/v1/videos/vid%20a/assign",
	}
	if len(seen) != len(want) {
		t.Fatalf("expected %d requests, got %v", len(want), seen)
	}
	for i := range want {
		if seen[i] != want[i] {
			t.Fatalf("request %d: got %q, want %q", i, seen[i], want[i])
		}
	}
}

func TestMissingIDRejectedBeforeNetwork(t *testing.T) {
	called := false
	client := newClient(t, func(w http.ResponseWriter, r *http.Request) { called = true })

	if err := client.RemoveAssignment(context.Background(), " "); !apierr.IsValidation(err) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if called {
		t.Fatal("expected no request")
	}
}

func TestLoginOmitsAuthorization(t *testing.T) {
	client := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "" {
			t.Errorf("login must not send credentials header")
		}
		writeJSON(w, http.StatusOK, map[string]any{
			"success": true,
			"data":    map[string]any{"userId": 3, "username": "ann", "accessToken": "a", "refreshToken": "r", "roles": []string{"ROLE_USER"}},
		})
	}, remote.WithTokenSource(staticToken("stale")))

	auth, err := client.Login(context.Background(), api.LoginRequest{Username: "ann", Password: "pw"})
	if err != nil {
		t.Fatalf("Login error: %v", err)
	}
	if auth.UserID != 3 || auth.AccessToken != "a" {
		t.Fatalf("unexpected auth %+v", auth)
	}
}

func TestUnreachableServerIsTransport(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	base := srv.URL
	srv.Close()

	client, err := remote.New(base)
	if err != nil {
		t.Fatalf("New error: %v", err)
	}
	err = client.Ping(context.Background())
	if !remote.IsAPIUnavailable(err) {
		t.Fatalf("expected unavailable, got %v", err)
	}
}

func TestPingTreatsHTTPErrorsAsReachable(t *testing.T) {
	client := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	})
	if err := client.Ping(context.Background()); err != nil {
		t.Fatalf("expected reachable, got %v", err)
	}
}

func TestMediaURL(t *testing.T) {
	tests := []struct {
		base, locator, want string
	}{
		{"http://media.local/", "clip.mp4", "http://media.local/uploads/clip.mp4"},
		{"http://media.local", "/clip.mp4", "http://media.local/uploads/clip.mp4"},
		{"http://media.local", "https://cdn.example/v.mp4", "https://cdn.example/v.mp4"},
		{"http://media.local", "", ""},
	}
	for _, tt := range tests {
		if got := remote.MediaURL(tt.base, tt.locator); got != tt.want {
			t.Fatalf("MediaURL(%q, %q) = %q, want %q", tt.base, tt.locator, got, tt.want)
		}
	}

	client, err := remote.New("http://api.local:8080/api/v1")
	if err != nil {
		t.Fatalf("New error: %v", err)
	}
	if got := client.MediaURL("a.mp4"); got != "http://api.local:8080/uploads/a.mp4" {
		t.Fatalf("unexpected client media url %q", got)
	}
}
