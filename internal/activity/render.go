package activity

import (
	"fmt"
	"html"
	"strings"
	"sync"

	"github.com/microcosm-cc/bluemonday"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"vidash/internal/api"
	"vidash/internal/apierr"
)

// EmptyMessage is the placeholder shown when a page has no entries.
const EmptyMessage = "No activity logs found"

const timestampLayout = "2006-01-02 15:04:05"

var (
	strictPolicy = bluemonday.StrictPolicy()
	titleCaser   = cases.Title(language.English)
	titleMu      sync.Mutex
)

// Row is one display row.
type Row struct {
	ID          string
	Username    string
	VideoID     string
	VideoTitle  string
	Action      api.Action
	ActionLabel string
	Timestamp   string
	Placeholder bool
}

// View is a rendered snapshot of the engine.
type View struct {
	Query      Query
	SearchText string
	Rows       []Row
	// Placeholder is true when Rows holds the single empty-state row.
	Placeholder bool
	TotalItems  int64
	TotalPages  int
	PageKnown   bool
	HasPrevious bool
	HasNext     bool
	RangeLabel  string
	Loading     bool
	Loaded      bool
	Err         *apierr.Error
}

// View renders the current state. Rows always reflect the last successful
// fetch; the row count is min(pageSize, totalItems - page*pageSize).
func (e *Engine) View() View {
	e.mu.Lock()
	defer e.mu.Unlock()

	v := View{
		Query:      e.query,
		SearchText: e.searchText,
		Loading:    e.loading,
		Loaded:     e.loaded,
		Err:        e.lastErr,
		PageKnown:  e.paged,
		TotalPages: e.pageInfo.TotalPages,
		TotalItems: e.pageInfo.Total(),
	}

	shown := e.entries
	size := e.shown.PageSize
	if size <= 0 {
		size = e.query.PageSize
	}
	if len(shown) > size {
		shown = shown[:size]
	}
	if e.paged {
		remaining := v.TotalItems - int64(e.shown.Page)*int64(size)
		if remaining < 0 {
			remaining = 0
		}
		if int64(len(shown)) > remaining {
			shown = shown[:remaining]
		}
	} else {
		v.TotalItems = int64(e.shown.Page*size + len(shown))
	}

	if len(shown) == 0 {
		v.Placeholder = true
		v.Rows = []Row{{Placeholder: true, Username: EmptyMessage}}
	} else {
		v.Rows = make([]Row, 0, len(shown))
		for _, entry := range shown {
			v.Rows = append(v.Rows, rowFromEntry(entry))
		}
	}

	v.HasPrevious = e.query.Page > 0 && !e.loading
	v.HasNext = e.boundKnownLocked() && e.pageInfo.TotalPages > 0 && e.query.Page < e.pageInfo.TotalPages-1 && !e.loading
	v.RangeLabel = rangeLabel(e.shown.Page, size, len(shown), v.TotalItems, v.Placeholder)
	return v
}

func rowFromEntry(entry api.ActivityLogEntry) Row {
	row := Row{
		ID:          entry.ID,
		Username:    CleanText(entry.Username),
		VideoID:     entry.VideoID,
		VideoTitle:  CleanText(entry.VideoTitle),
		Action:      entry.Action,
		ActionLabel: ActionLabel(entry.Action),
		Timestamp:   entry.Timestamp,
	}
	if ts := entry.Time(); !ts.IsZero() {
		row.Timestamp = ts.Local().Format(timestampLayout)
	}
	return row
}

func rangeLabel(page, size, rows int, total int64, empty bool) string {
	if empty || rows == 0 {
		return fmt.Sprintf("0-0 of %d", total)
	}
	start := int64(page*size) + 1
	end := int64(page*size + rows)
	if total > 0 && end > total {
		end = total
	}
	return fmt.Sprintf("%d-%d of %d", start, end, total)
}

// ActionLabel renders an action for display, e.g. "viewed" as "Viewed".
func ActionLabel(action api.Action) string {
	if action == "" {
		return "All"
	}
	titleMu.Lock()
	defer titleMu.Unlock()
	return titleCaser.String(string(action))
}

// CleanText strips markup from server-supplied display text.
func CleanText(s string) string {
	return strings.TrimSpace(html.UnescapeString(strictPolicy.Sanitize(s)))
}
