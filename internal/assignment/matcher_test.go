package assignment_test

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"testing"

	"vidash/internal/api"
	"vidash/internal/apierr"
	"vidash/internal/assignment"
)

type fakeRemote struct {
	mu          sync.Mutex
	assignments []api.Assignment
	assignErr   error
	removeErr   error
	listErr     error
	assignCalls int
	nextID      int
	started     chan struct{}
	release     chan struct{}
}

func (f *fakeRemote) ListAssignments(context.Context) ([]api.Assignment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.listErr != nil {
		return nil, f.listErr
	}
	return append([]api.Assignment(nil), f.assignments...), nil
}

func (f *fakeRemote) AssignVideo(_ context.Context, videoID string, userID api.UserID) (api.Assignment, error) {
	if f.started != nil {
		f.started <- struct{}{}
		<-f.release
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.assignCalls++
	if f.assignErr != nil {
		return api.Assignment{}, f.assignErr
	}
	f.nextID++
	a := api.Assignment{ID: "as-" + string(rune('0'+f.nextID)), VideoID: videoID, UserID: userID}
	f.assignments = append(f.assignments, a)
	return a, nil
}

func (f *fakeRemote) RemoveAssignment(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.removeErr
}

type conflictCounter struct{ n int }

func (c *conflictCounter) ObserveConflict() { c.n++ }

func videos(ids ...string) []api.Video {
	out := make([]api.Video, 0, len(ids))
	for _, id := range ids {
		out = append(out, api.Video{ID: id, Title: "Video " + id})
	}
	return out
}

func TestListUnassignedVideosPreservesOrder(t *testing.T) {
	got := assignment.ListUnassignedVideos(videos("v3", "v1", "v2", "v4"), []api.Assignment{{ID: "a", VideoID: "v1"}, {ID: "b", VideoID: "v4"}})
	if len(got) != 2 || got[0].ID != "v3" || got[1].ID != "v2" {
		t.Fatalf("unexpected unassigned %+v", got)
	}
	if got := assignment.ListUnassignedVideos(nil, nil); len(got) != 0 {
		t.Fatalf("expected empty result, got %+v", got)
	}
}

func TestAssignValidatesBeforeNetwork(t *testing.T) {
	remote := &fakeRemote{}
	m := assignment.New(remote)

	for _, tc := range []struct {
		video string
		user  api.UserID
	}{{"", 1}, {"v1", 0}, {"  ", 0}} {
		if _, err := m.Assign(context.Background(), tc.video, tc.user); !apierr.IsValidation(err) {
			t.Fatalf("Assign(%q, %d) expected validation error, got %v", tc.video, tc.user, err)
		}
	}
	if remote.assignCalls != 0 {
		t.Fatalf("expected no network calls, got %d", remote.assignCalls)
	}
	if len(m.Assignments()) != 0 {
		t.Fatal("projection must be untouched")
	}
}

func TestAssignAppliesConfirmedResult(t *testing.T) {
	remote := &fakeRemote{}
	m := assignment.New(remote)

	created, err := m.Assign(context.Background(), "v1", 5)
	if err != nil {
		t.Fatalf("Assign error: %v", err)
	}
	got := m.Assignments()
	if len(got) != 1 || got[0] != created || got[0].UserID != 5 {
		t.Fatalf("unexpected projection %+v", got)
	}
	if unassigned := m.Unassigned(videos("v1", "v2")); len(unassigned) != 1 || unassigned[0].ID != "v2" {
		t.Fatalf("unexpected unassigned %+v", unassigned)
	}
}

func TestSecondAssignConflictLeavesProjection(t *testing.T) {
	remote := &fakeRemote{}
	counter := &conflictCounter{}
	m := assignment.New(remote, assignment.WithObserver(counter))

	if _, err := m.Assign(context.Background(), "v1", 1); err != nil {
		t.Fatalf("first Assign error: %v", err)
	}
	before := m.Assignments()

	remote.assignErr = apierr.FromStatus(http.StatusConflict, "video already assigned")
	_, err := m.Assign(context.Background(), "v1", 2)
	if !apierr.IsConflict(err) {
		t.Fatalf("expected conflict, got %v", err)
	}
	after := m.Assignments()
	if len(after) != 1 || after[0] != before[0] {
		t.Fatalf("projection changed on conflict: %+v", after)
	}
	if !m.Stale() || counter.n != 1 {
		t.Fatalf("expected stale projection and one conflict, stale=%v n=%d", m.Stale(), counter.n)
	}

	remote.assignErr = nil
	if err := m.Refresh(context.Background()); err != nil {
		t.Fatalf("Refresh error: %v", err)
	}
	if m.Stale() {
		t.Fatal("refresh should clear stale flag")
	}
}

func TestAcceptedReassignKeepsOneRecordPerVideo(t *testing.T) {
	remote := &fakeRemote{}
	m := assignment.New(remote, assignment.WithAssignments([]api.Assignment{{ID: "old", VideoID: "v1", UserID: 1}}))

	if _, err := m.Assign(context.Background(), "v1", 2); err != nil {
		t.Fatalf("Assign error: %v", err)
	}
	got := m.Assignments()
	if len(got) != 1 || got[0].UserID != 2 {
		t.Fatalf("expected a single record for v1, got %+v", got)
	}
}

func TestUnassignRemovesOnSuccessOnly(t *testing.T) {
	remote := &fakeRemote{}
	seed := []api.Assignment{{ID: "a1", VideoID: "v1", UserID: 1}}
	m := assignment.New(remote, assignment.WithAssignments(seed))

	remote.removeErr = apierr.FromStatus(http.StatusInternalServerError, "")
	if err := m.Unassign(context.Background(), "a1"); err == nil {
		t.Fatal("expected error")
	}
	if len(m.Assignments()) != 1 {
		t.Fatal("failed unassign must not mutate")
	}

	remote.removeErr = nil
	if err := m.Unassign(context.Background(), "a1"); err != nil {
		t.Fatalf("Unassign error: %v", err)
	}
	if len(m.Assignments()) != 0 {
		t.Fatalf("expected empty projection, got %+v", m.Assignments())
	}
	if unassigned := m.Unassigned(videos("v1")); len(unassigned) != 1 || unassigned[0].ID != "v1" {
		t.Fatalf("expected v1 unassigned, got %+v", unassigned)
	}
	if err := m.Unassign(context.Background(), ""); !apierr.IsValidation(err) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestRefreshFailureKeepsProjection(t *testing.T) {
	remote := &fakeRemote{listErr: errors.New("dial tcp: refused")}
	m := assignment.New(remote, assignment.WithAssignments([]api.Assignment{{ID: "a1", VideoID: "v1"}}))
	err := m.Refresh(context.Background())
	if err == nil {
		t.Fatal("expected error")
	}
	var normalized *apierr.Error
	if !errors.As(err, &normalized) {
		t.Fatalf("expected normalized error, got %T", err)
	}
	if len(m.Assignments()) != 1 {
		t.Fatal("projection must survive failed refresh")
	}
}

func TestPendingWhileInFlight(t *testing.T) {
	remote := &fakeRemote{started: make(chan struct{}), release: make(chan struct{})}
	m := assignment.New(remote)

	done := make(chan error, 1)
	go func() {
		_, err := m.Assign(context.Background(), "v1", 1)
		done <- err
	}()
	<-remote.started
	if !m.Pending() {
		t.Fatal("expected pending while request in flight")
	}
	close(remote.release)
	if err := <-done; err != nil {
		t.Fatalf("Assign error: %v", err)
	}
	if m.Pending() {
		t.Fatal("expected not pending after completion")
	}
}
