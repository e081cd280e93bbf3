package activity_test

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"testing"
	"time"

	"vidash/internal/activity"
	"vidash/internal/api"
	"vidash/internal/apierr"
	"vidash/internal/debounce/debouncetest"
	"vidash/internal/remote"
)

// pagedSource serves a fixed dataset with server-side paging and filtering.
type pagedSource struct {
	mu      sync.Mutex
	entries []api.ActivityLogEntry
	queries []remote.ActivityQuery
	err     error
}

func newPagedSource(n int) *pagedSource {
	s := &pagedSource{}
	for i := 0; i < n; i++ {
		action := api.ActionViewed
		if i%2 == 1 {
			action = api.ActionAssigned
		}
		s.entries = append(s.entries, api.ActivityLogEntry{
			ID:         fmt.Sprintf("e%d", i),
			UserID:     api.UserID(i%3 + 1),
			Username:   []string{"ann", "bob", "cy"}[i%3],
			VideoID:    fmt.Sprintf("v%d", i%4),
			VideoTitle: "Title",
			Action:     action,
			Timestamp:  "2024-03-01T10:00:00.000Z",
		})
	}
	return s
}

func (s *pagedSource) ListActivityLogs(_ context.Context, q remote.ActivityQuery) (remote.ActivityPage, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.queries = append(s.queries, q)
	if s.err != nil {
		return remote.ActivityPage{}, s.err
	}
	var matched []api.ActivityLogEntry
	for _, e := range s.entries {
		if q.Action != "" && e.Action != q.Action {
			continue
		}
		if q.Username != "" && e.Username != q.Username {
			continue
		}
		if q.VideoID != "" && e.VideoID != q.VideoID {
			continue
		}
		matched = append(matched, e)
	}
	total := len(matched)
	pages := (total + q.Size - 1) / q.Size
	start := min(q.Page*q.Size, total)
	end := min(start+q.Size, total)
	return remote.ActivityPage{
		Entries:  append([]api.ActivityLogEntry(nil), matched[start:end]...),
		PageInfo: api.PageInfo{CurrentPage: q.Page, TotalPages: pages, TotalElements: int64(total), PageSize: q.Size},
		Paged:    true,
	}, nil
}

func (s *pagedSource) calls() []remote.ActivityQuery {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]remote.ActivityQuery(nil), s.queries...)
}

func rowIDs(v activity.View) []string {
	ids := make([]string, 0, len(v.Rows))
	for _, r := range v.Rows {
		ids = append(ids, r.ID)
	}
	return ids
}

func TestFiltersAndPageSizeResetPage(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*activity.Engine, *debouncetest.FakeClock)
	}{
		{"action", func(e *activity.Engine, _ *debouncetest.FakeClock) { _ = e.SetActionFilter("viewed") }},
		{"all", func(e *activity.Engine, _ *debouncetest.FakeClock) { _ = e.SetActionFilter("all") }},
		{"video", func(e *activity.Engine, _ *debouncetest.FakeClock) { e.SetVideoFilter("v1") }},
		{"page size", func(e *activity.Engine, _ *debouncetest.FakeClock) { e.SetPageSize(20) }},
		{"search", func(e *activity.Engine, clock *debouncetest.FakeClock) {
			e.SetSearchText("bob")
			clock.Advance(activity.DefaultDebounce)
		}},
		{"search flush", func(e *activity.Engine, _ *debouncetest.FakeClock) {
			e.SetSearchText("ann")
			e.CommitSearch()
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clock := debouncetest.NewFakeClock()
			e := activity.New(activity.Options{Source: newPagedSource(45), Clock: clock})
			defer e.Close()

			if err := e.Fetch(context.Background()); err != nil {
				t.Fatalf("Fetch error: %v", err)
			}
			if !e.SetPage(2) {
				t.Fatal("expected SetPage(2) to succeed")
			}
			tt.mutate(e, clock)
			if got := e.Query().Page; got != 0 {
				t.Fatalf("expected page 0, got %d", got)
			}
		})
	}
}

func TestSearchWaitsForQuietPeriod(t *testing.T) {
	clock := debouncetest.NewFakeClock()
	e := activity.New(activity.Options{Source: newPagedSource(1), Clock: clock})
	defer e.Close()

	e.SetSearchText("bo")
	clock.Advance(activity.DefaultDebounce - time.Millisecond)
	if got := e.Query().Username; got != "" {
		t.Fatalf("filter committed early: %q", got)
	}
	clock.Advance(time.Millisecond)
	if got := e.Query().Username; got != "bo" {
		t.Fatalf("expected committed filter, got %q", got)
	}
}

func TestSetActionFilterRejectsUnknown(t *testing.T) {
	e := activity.New(activity.Options{Source: newPagedSource(1)})
	defer e.Close()
	if err := e.SetActionFilter("watched"); !apierr.IsValidation(err) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if got := e.Query().Action; got != "" {
		t.Fatalf("filter must stay unset, got %q", got)
	}
}

func TestFetchIsIdempotent(t *testing.T) {
	e := activity.New(activity.Options{Source: newPagedSource(23)})
	defer e.Close()

	_ = e.Fetch(context.Background())
	first := rowIDs(e.View())
	_ = e.Fetch(context.Background())
	second := rowIDs(e.View())
	if fmt.Sprint(first) != fmt.Sprint(second) || len(first) != activity.DefaultPageSize {
		t.Fatalf("expected identical rows, got %v and %v", first, second)
	}
}

func TestPaginationBounds(t *testing.T) {
	e := activity.New(activity.Options{Source: newPagedSource(30)})
	defer e.Close()
	_ = e.Fetch(context.Background())

	view := e.View()
	if view.TotalPages != 3 {
		t.Fatalf("expected 3 pages, got %d", view.TotalPages)
	}
	if e.SetPage(-1) || e.SetPage(3) {
		t.Fatal("out-of-range pages must be rejected")
	}
	if e.Query().Page != 0 {
		t.Fatal("rejected page must not change state")
	}
	if !e.SetPage(2) || e.Query().Page != 2 {
		t.Fatal("expected SetPage(2) to succeed")
	}
	if e.SetPageSize(0) || e.SetPageSize(-5) {
		t.Fatal("non-positive page sizes must be rejected")
	}
}

func TestPageBoundsDropWithFilterChange(t *testing.T) {
	e := activity.New(activity.Options{Source: newPagedSource(30)})
	defer e.Close()
	_ = e.Fetch(context.Background())
	if e.SetPage(4) {
		t.Fatal("page 4 is beyond the loaded 3 pages")
	}

	e.SetPageSize(5)
	if e.View().HasNext {
		t.Fatal("next must stay disabled until the new totals load")
	}
	if !e.SetPage(4) {
		t.Fatal("totals for the old page size must not bound the new one")
	}
	if err := e.Fetch(context.Background()); err != nil {
		t.Fatalf("Fetch error: %v", err)
	}
	if got := e.View().TotalPages; got != 6 {
		t.Fatalf("expected 6 pages, got %d", got)
	}
	if e.SetPage(6) || !e.SetPage(5) {
		t.Fatal("expected bounds from the refreshed totals")
	}

	_ = e.SetActionFilter("viewed")
	if !e.SetPage(5) {
		t.Fatal("totals for the old filters must not bound the new ones")
	}
}

func TestNavigationFlagsAndRangeLabel(t *testing.T) {
	e := activity.New(activity.Options{Source: newPagedSource(23)})
	defer e.Close()

	view := e.View()
	if view.HasNext || view.HasPrevious {
		t.Fatal("unknown page info must disable navigation")
	}

	_ = e.Fetch(context.Background())
	view = e.View()
	if view.HasPrevious || !view.HasNext || view.RangeLabel != "1-10 of 23" {
		t.Fatalf("unexpected first page view %+v", view)
	}

	e.NextPage()
	e.NextPage()
	_ = e.Fetch(context.Background())
	view = e.View()
	if len(view.Rows) != 3 {
		t.Fatalf("expected min(10, 23-20)=3 rows, got %d", len(view.Rows))
	}
	if !view.HasPrevious || view.HasNext || view.RangeLabel != "21-23 of 23" {
		t.Fatalf("unexpected last page view %+v", view)
	}
}

func TestEmptyResultRendersPlaceholder(t *testing.T) {
	e := activity.New(activity.Options{Source: newPagedSource(0)})
	defer e.Close()
	_ = e.Fetch(context.Background())

	view := e.View()
	if !view.Placeholder || len(view.Rows) != 1 || view.Rows[0].Username != activity.EmptyMessage {
		t.Fatalf("expected single placeholder row, got %+v", view.Rows)
	}
	if view.HasNext || view.RangeLabel != "0-0 of 0" {
		t.Fatalf("unexpected empty view %+v", view)
	}
}

func TestFailedFetchKeepsLastGoodRows(t *testing.T) {
	src := newPagedSource(12)
	e := activity.New(activity.Options{Source: src})
	defer e.Close()

	src.err = apierr.FromStatus(http.StatusInternalServerError, "")
	if err := e.Fetch(context.Background()); err == nil {
		t.Fatal("expected error")
	}
	view := e.View()
	if view.Loading || view.Loaded || !view.Placeholder || view.Err == nil {
		t.Fatalf("expected error state with placeholder, got %+v", view)
	}

	src.err = nil
	_ = e.Fetch(context.Background())
	good := rowIDs(e.View())

	src.err = apierr.FromStatus(http.StatusBadGateway, "")
	_ = e.Fetch(context.Background())
	view = e.View()
	if view.Loading || view.Err == nil || fmt.Sprint(rowIDs(view)) != fmt.Sprint(good) {
		t.Fatalf("expected last good rows with error, got %+v", view)
	}
}

// gatedSource lets a test release responses in any order.
type gatedSource struct {
	mu    sync.Mutex
	gates []chan remote.ActivityPage
	seen  []remote.ActivityQuery
	ready chan struct{}
}

func (g *gatedSource) ListActivityLogs(ctx context.Context, q remote.ActivityQuery) (remote.ActivityPage, error) {
	gate := make(chan remote.ActivityPage, 1)
	g.mu.Lock()
	g.gates = append(g.gates, gate)
	g.seen = append(g.seen, q)
	g.mu.Unlock()
	g.ready <- struct{}{}
	select {
	case page := <-gate:
		return page, nil
	case <-ctx.Done():
		return remote.ActivityPage{}, ctx.Err()
	}
}

func (g *gatedSource) release(i int, id string) {
	g.mu.Lock()
	gate := g.gates[i]
	g.mu.Unlock()
	gate <- remote.ActivityPage{
		Entries:  []api.ActivityLogEntry{{ID: id, Action: api.ActionViewed}},
		PageInfo: api.PageInfo{TotalPages: 1, TotalElements: 1, PageSize: 10},
		Paged:    true,
	}
}

func TestStaleResponseDiscarded(t *testing.T) {
	src := &gatedSource{ready: make(chan struct{}, 2)}
	e := activity.New(activity.Options{Source: src})
	defer e.Close()

	_ = e.SetActionFilter("viewed")
	doneA := make(chan error, 1)
	go func() { doneA <- e.Fetch(context.Background()) }()
	<-src.ready

	_ = e.SetActionFilter("assigned")
	doneB := make(chan error, 1)
	go func() { doneB <- e.Fetch(context.Background()) }()
	<-src.ready

	src.release(1, "from-B")
	if err := <-doneB; err != nil {
		t.Fatalf("fetch B error: %v", err)
	}
	src.release(0, "from-A")
	if err := <-doneA; err != nil {
		t.Fatalf("fetch A error: %v", err)
	}

	view := e.View()
	if ids := rowIDs(view); len(ids) != 1 || ids[0] != "from-B" {
		t.Fatalf("expected B's rows, got %v", ids)
	}
	if view.Loading {
		t.Fatal("loading must resolve")
	}
	if view.Query.Action != api.ActionAssigned {
		t.Fatalf("unexpected query %+v", view.Query)
	}
}

func TestDebouncedSearchIssuesOneQuery(t *testing.T) {
	clock := debouncetest.NewFakeClock()
	src := newPagedSource(9)
	e := activity.New(activity.Options{Source: src, Clock: clock, AutoFetch: true})
	defer e.Close()

	for _, text := range []string{"b", "bo", "bob"} {
		e.SetSearchText(text)
		clock.Advance(100 * time.Millisecond)
	}
	clock.Advance(activity.DefaultDebounce)
	e.Wait()

	var withUser []remote.ActivityQuery
	for _, q := range src.calls() {
		if q.Username != "" {
			withUser = append(withUser, q)
		}
	}
	if len(withUser) != 1 || withUser[0].Username != "bob" {
		t.Fatalf("expected exactly one query for bob, got %+v", src.calls())
	}
	view := e.View()
	if view.SearchText != "bob" || view.Query.Username != "bob" {
		t.Fatalf("unexpected view %+v", view)
	}
	for _, row := range view.Rows {
		if row.Username != "bob" {
			t.Fatalf("unexpected row %+v", row)
		}
	}
}

func TestAutoFetchFollowsStateChanges(t *testing.T) {
	src := newPagedSource(40)
	var mu sync.Mutex
	var views int
	e := activity.New(activity.Options{
		Source:    src,
		AutoFetch: true,
		OnChange: func(activity.View) {
			mu.Lock()
			views++
			mu.Unlock()
		},
	})
	e.SetPageSize(5)
	e.Wait()
	e.Close()

	calls := src.calls()
	if len(calls) != 1 || calls[0].Size != 5 || calls[0].Page != 0 {
		t.Fatalf("unexpected calls %+v", calls)
	}
	mu.Lock()
	defer mu.Unlock()
	if views == 0 {
		t.Fatal("expected change notifications")
	}
}
