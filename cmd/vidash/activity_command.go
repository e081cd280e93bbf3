package main

import (
	"context"
	"fmt"
	"io"
	"slices"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"vidash/internal/activity"
	"vidash/internal/api"
	"vidash/internal/dashboard"
	"vidash/internal/remote"
)

type activityFlags struct {
	action      string
	user        string
	video       string
	page        int
	size        int
	jsonOut     bool
	follow      bool
	interval    time.Duration
	interactive bool
}

func newActivityCommand(ctx *commandContext) *cobra.Command {
	var flags activityFlags
	cmd := &cobra.Command{
		Use:   "activity",
		Short: "Browse the activity log (admin)",
		Long: "Browse the activity log page by page.\n\n" +
			"With --interactive the log is browsed from the keyboard:\n" +
			"  n / right   next page\n" +
			"  p / left    previous page\n" +
			"  a           cycle the action filter\n" +
			"  s           cycle the page size\n" +
			"  /           search by username (enter to apply, esc to cancel)\n" +
			"  q           quit",
		RunE: func(cmd *cobra.Command, args []string) error {
			if flags.page < 1 {
				return fmt.Errorf("--page must be 1 or greater")
			}
			cfg := ctx.configValue()
			opts := activity.Options{
				PageSize:  cfg.Activity.PageSize,
				PageSizes: cfg.Activity.PageSizes,
				Debounce:  cfg.DebounceDelay(),
			}
			if flags.size > 0 {
				opts.PageSize = flags.size
			}
			if flags.interactive {
				return ctx.runInteractiveActivity(cmd, opts, flags)
			}
			return ctx.withAdmin(cmd, opts, func(admin *dashboard.Admin, _ *remote.Client) error {
				engine := admin.Activity()
				if err := applyActivityFlags(cmd.Context(), engine, flags); err != nil {
					return err
				}
				if !flags.follow {
					return writeActivityView(cmd, engine.View(), flags.jsonOut)
				}
				return followActivity(cmd, engine, flags)
			})
		},
	}
	cmd.Flags().StringVar(&flags.action, "action", "", "Filter by action (all, viewed, updated, deleted, assigned)")
	cmd.Flags().StringVar(&flags.user, "user", "", "Filter by username")
	cmd.Flags().StringVar(&flags.video, "video", "", "Filter by video id")
	cmd.Flags().IntVar(&flags.page, "page", 1, "Page number, starting at 1")
	cmd.Flags().IntVar(&flags.size, "size", 0, "Rows per page (defaults to activity.page_size)")
	cmd.Flags().BoolVar(&flags.jsonOut, "json", false, "Output as JSON")
	cmd.Flags().BoolVar(&flags.follow, "follow", false, "Refetch the page periodically and print changes")
	cmd.Flags().DurationVar(&flags.interval, "interval", 5*time.Second, "Refetch interval for --follow")
	cmd.Flags().BoolVarP(&flags.interactive, "interactive", "i", false, "Browse from the keyboard")
	return cmd
}

// applyActivityFlags sets filters, fetches the first page and then moves to
// the requested page once the page count is known.
func applyActivityFlags(ctx context.Context, engine *activity.Engine, flags activityFlags) error {
	if err := engine.SetActionFilter(flags.action); err != nil {
		return err
	}
	engine.SetVideoFilter(flags.video)
	if user := strings.TrimSpace(flags.user); user != "" {
		engine.SetSearchText(user)
		engine.CommitSearch()
	}
	if err := engine.Fetch(ctx); err != nil {
		return err
	}
	engine.Wait()
	if flags.page == 1 {
		return nil
	}
	if !engine.SetPage(flags.page - 1) {
		pages := engine.View().TotalPages
		return fmt.Errorf("page %d is out of range (1-%d)", flags.page, max(pages, 1))
	}
	return engine.Fetch(ctx)
}

func followActivity(cmd *cobra.Command, engine *activity.Engine, flags activityFlags) error {
	interval := flags.interval
	if interval <= 0 {
		interval = 5 * time.Second
	}
	last := engine.View()
	if err := writeActivityView(cmd, last, flags.jsonOut); err != nil {
		return err
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-cmd.Context().Done():
			return nil
		case <-ticker.C:
		}
		if err := engine.Fetch(cmd.Context()); err != nil {
			if cmd.Context().Err() != nil {
				return nil
			}
			fmt.Fprintf(cmd.ErrOrStderr(), "refresh failed: %s\n", describeError(err))
			continue
		}
		next := engine.View()
		if sameRows(last.Rows, next.Rows) && last.TotalItems == next.TotalItems {
			continue
		}
		last = next
		if !flags.jsonOut {
			fmt.Fprintf(cmd.OutOrStdout(), "\n%s\n", time.Now().Format("15:04:05"))
		}
		if err := writeActivityView(cmd, next, flags.jsonOut); err != nil {
			return err
		}
	}
}

func sameRows(a, b []activity.Row) bool {
	return slices.Equal(a, b)
}

type activityJSON struct {
	Page       int            `json:"page"`
	PageSize   int            `json:"pageSize"`
	TotalItems int64          `json:"totalItems"`
	TotalPages int            `json:"totalPages"`
	Range      string         `json:"range"`
	Entries    []activity.Row `json:"entries"`
}

func writeActivityView(cmd *cobra.Command, view activity.View, jsonOut bool) error {
	if jsonOut {
		entries := view.Rows
		if view.Placeholder {
			entries = []activity.Row{}
		}
		return writeJSON(cmd, activityJSON{
			Page:       view.Query.Page + 1,
			PageSize:   view.Query.PageSize,
			TotalItems: view.TotalItems,
			TotalPages: view.TotalPages,
			Range:      view.RangeLabel,
			Entries:    entries,
		})
	}
	fmt.Fprintln(cmd.OutOrStdout(), renderActivityView(view))
	return nil
}

func renderActivityView(view activity.View) string {
	rows := make([][]string, 0, len(view.Rows))
	banners := map[int]bool{}
	for i, row := range view.Rows {
		if row.Placeholder {
			rows = append(rows, []string{row.Username})
			banners[i] = true
			continue
		}
		video := row.VideoTitle
		if video == "" {
			video = row.VideoID
		}
		rows = append(rows, []string{row.Timestamp, row.Username, video, row.ActionLabel})
	}
	return tableSpec{
		headers: []string{"Time", "User", "Video", "Action"},
		rows:    rows,
		caption: activityCaption(view),
		banners: banners,
	}.render()
}

func activityCaption(view activity.View) string {
	parts := []string{view.RangeLabel}
	if view.TotalPages > 0 {
		parts = append(parts, fmt.Sprintf("page %d/%d", view.Query.Page+1, view.TotalPages))
	}
	var filters []string
	if view.Query.Action != "" {
		filters = append(filters, "action="+string(view.Query.Action))
	}
	if view.Query.Username != "" {
		filters = append(filters, "user="+view.Query.Username)
	}
	if view.Query.VideoID != "" {
		filters = append(filters, "video="+view.Query.VideoID)
	}
	if len(filters) > 0 {
		parts = append(parts, strings.Join(filters, " "))
	}
	return strings.Join(parts, "  ")
}

// runInteractiveActivity drives an auto-fetching engine from raw keystrokes.
func (c *commandContext) runInteractiveActivity(cmd *cobra.Command, opts activity.Options, flags activityFlags) error {
	keys, err := openKeyReader(cmd.InOrStdin())
	if err != nil {
		return err
	}
	defer keys.restore()

	redraw := make(chan struct{}, 1)
	opts.AutoFetch = true
	opts.OnChange = func(activity.View) {
		select {
		case redraw <- struct{}{}:
		default:
		}
	}
	return c.withAdmin(cmd, opts, func(admin *dashboard.Admin, _ *remote.Client) error {
		engine := admin.Activity()
		if err := applyActivityFlags(cmd.Context(), engine, flags); err != nil {
			return err
		}
		b := &activityBrowser{engine: engine, out: cmd.OutOrStdout()}
		b.draw()
		events := keys.events()
		for {
			select {
			case <-cmd.Context().Done():
				return nil
			case <-redraw:
				b.draw()
			case ev, ok := <-events:
				if !ok || !b.handle(ev) {
					fmt.Fprint(b.out, "\r\n")
					return nil
				}
				b.draw()
			}
		}
	})
}

type activityBrowser struct {
	engine    *activity.Engine
	out       io.Writer
	searching bool
	search    string
	message   string
}

// handle applies one key and reports whether browsing continues.
func (b *activityBrowser) handle(ev keyEvent) bool {
	b.message = ""
	if ev.special == keyInterrupt {
		return false
	}
	if b.searching {
		b.handleSearch(ev)
		return true
	}
	switch {
	case ev.r == 'q' || ev.r == 'Q':
		return false
	case ev.r == 'n' || ev.special == keyArrowRight:
		if !b.engine.NextPage() {
			b.message = "already on the last page"
		}
	case ev.r == 'p' || ev.special == keyArrowLeft:
		if !b.engine.PreviousPage() {
			b.message = "already on the first page"
		}
	case ev.r == 'a':
		next := nextAction(b.engine.Query().Action)
		if err := b.engine.SetActionFilter(string(next)); err != nil {
			b.message = err.Error()
		}
	case ev.r == 's':
		sizes := b.engine.PageSizes()
		idx := slices.Index(sizes, b.engine.Query().PageSize)
		b.engine.SetPageSize(sizes[(idx+1)%len(sizes)])
	case ev.r == '/':
		b.searching = true
		b.search = b.engine.View().SearchText
	}
	return true
}

func (b *activityBrowser) handleSearch(ev keyEvent) {
	switch ev.special {
	case keyEnter:
		b.searching = false
		b.engine.SetSearchText(b.search)
		b.engine.CommitSearch()
		return
	case keyEscape:
		b.searching = false
		return
	case keyBackspace:
		if runes := []rune(b.search); len(runes) > 0 {
			b.search = string(runes[:len(runes)-1])
		}
	case keyNone:
		if ev.r == 0 {
			return
		}
		b.search += string(ev.r)
	default:
		return
	}
	b.engine.SetSearchText(b.search)
}

func (b *activityBrowser) draw() {
	view := b.engine.View()
	var sb strings.Builder
	sb.WriteString(ansiClearScreen)
	sb.WriteString(renderActivityView(view))
	sb.WriteString("\n")
	switch {
	case view.Loading:
		sb.WriteString("Loading...\n")
	case view.Err != nil:
		sb.WriteString("Error: " + view.Err.Error() + "\n")
	}
	if b.searching {
		sb.WriteString("Search user: " + b.search + "_\n")
	} else {
		sb.WriteString("[n]ext [p]rev [a]ction [s]ize [/]search [q]uit\n")
	}
	if b.message != "" {
		sb.WriteString(b.message + "\n")
	}
	fmt.Fprint(b.out, rawText(sb.String()))
}

// nextAction cycles all -> viewed -> updated -> deleted -> assigned -> all.
func nextAction(current api.Action) api.Action {
	actions := api.Actions()
	if current == "" {
		return actions[0]
	}
	idx := slices.Index(actions, current)
	if idx < 0 || idx == len(actions)-1 {
		return ""
	}
	return actions[idx+1]
}
