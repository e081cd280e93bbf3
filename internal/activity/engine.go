package activity

import (
	"context"
	"log/slog"
	"slices"
	"strings"
	"sync"
	"time"

	"vidash/internal/api"
	"vidash/internal/apierr"
	"vidash/internal/debounce"
	"vidash/internal/logging"
	"vidash/internal/remote"
)

const (
	// DefaultPageSize is the initial page size.
	DefaultPageSize = 10
	// DefaultDebounce is the search quiet period.
	DefaultDebounce = 500 * time.Millisecond
)

// DefaultPageSizes lists the selectable page sizes.
func DefaultPageSizes() []int { return []int{5, 10, 20, 50} }

// Source fetches one page of the activity log.
type Source interface {
	ListActivityLogs(ctx context.Context, q remote.ActivityQuery) (remote.ActivityPage, error)
}

// Observer is told about fetch traffic.
type Observer interface {
	ObserveFetch()
	ObserveStale()
}

// Filters narrows the activity log. Zero values mean "no filter".
type Filters struct {
	Action   api.Action
	Username string
	VideoID  string
}

// Query is the full parameter snapshot of one request.
type Query struct {
	Filters
	Page     int
	PageSize int
}

// Remote converts the snapshot into Remote API parameters.
func (q Query) Remote() remote.ActivityQuery {
	return remote.ActivityQuery{
		Page:     q.Page,
		Size:     q.PageSize,
		Action:   q.Action,
		Username: q.Username,
		VideoID:  q.VideoID,
	}
}

// Options configures an Engine.
type Options struct {
	Source    Source
	Observer  Observer
	Logger    *slog.Logger
	PageSize  int
	PageSizes []int
	// Debounce defaults to DefaultDebounce; a negative value commits search
	// text immediately.
	Debounce time.Duration
	Clock    debounce.Clock
	// AutoFetch issues a fetch after every state change.
	AutoFetch bool
	// OnChange is called with a fresh View after state changes and fetch
	// resolutions. It must not call back into the engine synchronously.
	OnChange func(View)
	Now      func() time.Time
}

// Engine owns the activity query state and the last rendered page.
type Engine struct {
	mu     sync.Mutex
	opts   Options
	logger *slog.Logger
	search *debounce.Value[string]

	query      Query
	searchText string

	generation uint64
	loading    bool
	loaded     bool
	entries    []api.ActivityLogEntry
	shown      Query
	pageInfo   api.PageInfo
	paged      bool
	lastErr    *apierr.Error

	ctx       context.Context
	cancel    context.CancelFunc
	inflight  sync.WaitGroup
	closeOnce sync.Once
}

// New constructs an engine at page zero with no filters.
func New(opts Options) *Engine {
	if len(opts.PageSizes) == 0 {
		opts.PageSizes = DefaultPageSizes()
	}
	if opts.PageSize <= 0 {
		opts.PageSize = DefaultPageSize
	}
	switch {
	case opts.Debounce == 0:
		opts.Debounce = DefaultDebounce
	case opts.Debounce < 0:
		opts.Debounce = 0
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	ctx, cancel := context.WithCancel(context.Background())
	e := &Engine{
		opts:   opts,
		logger: logging.NewComponentLogger(opts.Logger, "activity"),
		query:  Query{PageSize: opts.PageSize},
		ctx:    ctx,
		cancel: cancel,
	}
	e.search = debounce.New(opts.Debounce, opts.Clock, e.commitSearch)
	return e
}

// Query returns the current parameter snapshot.
func (e *Engine) Query() Query {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.query
}

// PageSizes returns the selectable page sizes.
func (e *Engine) PageSizes() []int {
	return slices.Clone(e.opts.PageSizes)
}

// SetActionFilter filters by action name; "all" or "" clears the filter.
// The page resets to zero.
func (e *Engine) SetActionFilter(value string) error {
	action, err := api.ParseAction(value)
	if err != nil {
		return apierr.Validation("activity", "set action filter", err.Error())
	}
	e.mutate(func(q *Query) { q.Action = action })
	return nil
}

// SetVideoFilter filters by video id; empty clears. The page resets to zero.
func (e *Engine) SetVideoFilter(videoID string) {
	videoID = strings.TrimSpace(videoID)
	e.mutate(func(q *Query) { q.VideoID = videoID })
}

// SetSearchText records typed username search text. The filter commits
// after the debounce window elapses with no further input.
func (e *Engine) SetSearchText(text string) {
	e.mu.Lock()
	e.searchText = text
	e.mu.Unlock()
	e.search.Set(text)
}

// CommitSearch commits pending search text immediately.
func (e *Engine) CommitSearch() bool {
	return e.search.Flush()
}

func (e *Engine) commitSearch(text string) {
	username := strings.TrimSpace(text)
	e.mutate(func(q *Query) { q.Username = username })
}

// SetPage moves to page n. Negative pages and, once pageInfo is known for
// the current filters and page size, pages at or beyond totalPages are
// rejected without a request.
func (e *Engine) SetPage(n int) bool {
	e.mu.Lock()
	if n < 0 || (e.boundKnownLocked() && n >= e.pageInfo.TotalPages) {
		e.mu.Unlock()
		return false
	}
	if n == e.query.Page {
		e.mu.Unlock()
		return true
	}
	e.query.Page = n
	e.mu.Unlock()
	e.changed()
	return true
}

// boundKnownLocked reports whether pageInfo describes the current result
// set. A filter or page-size change makes the last totals stale.
func (e *Engine) boundKnownLocked() bool {
	return e.paged && e.shown.Filters == e.query.Filters && e.shown.PageSize == e.query.PageSize
}

// NextPage advances one page when allowed.
func (e *Engine) NextPage() bool {
	return e.SetPage(e.Query().Page + 1)
}

// PreviousPage goes back one page when allowed.
func (e *Engine) PreviousPage() bool {
	return e.SetPage(e.Query().Page - 1)
}

// SetPageSize changes the page size and resets the page. Non-positive sizes
// are rejected.
func (e *Engine) SetPageSize(n int) bool {
	if n <= 0 {
		return false
	}
	e.mutate(func(q *Query) { q.PageSize = n })
	return true
}

func (e *Engine) mutate(apply func(*Query)) {
	e.mu.Lock()
	apply(&e.query)
	e.query.Page = 0
	e.mu.Unlock()
	e.changed()
}

func (e *Engine) changed() {
	if e.opts.AutoFetch {
		e.fetchAsync()
	}
	e.publish()
}

func (e *Engine) fetchAsync() {
	e.mu.Lock()
	if e.ctx.Err() != nil {
		e.mu.Unlock()
		return
	}
	e.inflight.Add(1)
	e.mu.Unlock()
	go func() {
		defer e.inflight.Done()
		_ = e.Fetch(e.ctx)
	}()
}

// Fetch issues one request for the current parameters. Responses to
// superseded requests, or whose parameters no longer match the current
// state, are discarded. A failed latest request keeps the previous rows and
// records the error; loading always resolves.
func (e *Engine) Fetch(ctx context.Context) error {
	if e.opts.Source == nil {
		return apierr.Validation("activity", "fetch", "no activity source configured")
	}

	e.mu.Lock()
	e.generation++
	gen := e.generation
	snapshot := e.query
	e.loading = true
	e.mu.Unlock()
	if e.opts.Observer != nil {
		e.opts.Observer.ObserveFetch()
	}
	e.publish()

	page, err := e.opts.Source.ListActivityLogs(ctx, snapshot.Remote())

	e.mu.Lock()
	if gen != e.generation {
		e.mu.Unlock()
		e.discarded(snapshot, "superseded")
		return nil
	}
	e.loading = false
	if snapshot != e.query {
		e.mu.Unlock()
		e.discarded(snapshot, "parameters changed")
		e.publish()
		return nil
	}
	if err != nil {
		fetchErr := apierr.Normalize(err)
		e.lastErr = fetchErr
		e.mu.Unlock()
		logging.WarnWithContext(e.logger, "activity fetch failed", "activity_fetch_failed",
			logging.String(logging.FieldImpact, "showing last loaded activity"),
			logging.String(logging.FieldErrorHint, "retry or check API reachability"),
			logging.Error(err),
		)
		e.publish()
		return fetchErr
	}
	e.entries = slices.Clone(page.Entries)
	e.pageInfo = page.PageInfo
	e.paged = page.Paged
	e.shown = snapshot
	e.loaded = true
	e.lastErr = nil
	e.mu.Unlock()

	e.logger.Debug("activity page loaded",
		logging.Int("page", snapshot.Page),
		logging.Int("size", snapshot.PageSize),
		logging.Int("rows", len(page.Entries)),
	)
	e.publish()
	return nil
}

func (e *Engine) discarded(q Query, reason string) {
	if e.opts.Observer != nil {
		e.opts.Observer.ObserveStale()
	}
	e.logger.Debug("stale activity response discarded",
		logging.String("reason", reason),
		logging.Int("page", q.Page),
	)
}

func (e *Engine) publish() {
	if e.opts.OnChange == nil {
		return
	}
	e.opts.OnChange(e.View())
}

// Wait blocks until auto-fetches started so far have resolved.
func (e *Engine) Wait() {
	e.inflight.Wait()
}

// Close stops the debounce timer and cancels auto-fetches.
func (e *Engine) Close() {
	e.closeOnce.Do(func() {
		e.search.Close()
		e.mu.Lock()
		e.cancel()
		e.mu.Unlock()
		e.inflight.Wait()
	})
}
