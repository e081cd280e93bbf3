package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"vidash/internal/activity"
	"vidash/internal/api"
	"vidash/internal/apierr"
	"vidash/internal/dashboard"
	"vidash/internal/remote"
	"vidash/internal/session"
)

// withAdmin builds and refreshes an admin dashboard for fn.
func (c *commandContext) withAdmin(cmd *cobra.Command, activityOpts activity.Options, fn func(*dashboard.Admin, *remote.Client) error) error {
	return c.withClient(session.CapabilityAdmin, func(sess *session.Session, client *remote.Client) error {
		opts := dashboard.AdminOptions{
			Session:  sess,
			Remote:   client,
			Activity: activityOpts,
			Logger:   c.log(),
		}
		if m := c.startMetrics(); m != nil {
			opts.ConflictObserver = m
			if opts.Activity.Observer == nil {
				opts.Activity.Observer = m
			}
		}
		admin, err := dashboard.NewAdmin(opts)
		if err != nil {
			return err
		}
		defer admin.Close()
		if err := admin.Refresh(cmd.Context()); err != nil {
			return err
		}
		return fn(admin, client)
	})
}

func newAssignmentsCommand(ctx *commandContext) *cobra.Command {
	assignmentsCmd := &cobra.Command{
		Use:   "assignments",
		Short: "Inspect video assignments (admin)",
	}

	var jsonOut bool
	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List current assignments",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withAdmin(cmd, activity.Options{}, func(admin *dashboard.Admin, _ *remote.Client) error {
				assignments := admin.Matcher().Assignments()
				if jsonOut {
					return writeJSON(cmd, assignments)
				}
				titles := videoTitles(admin.Videos())
				users := usernames(admin.Users())
				rows := make([][]string, 0, len(assignments))
				for _, a := range assignments {
					rows = append(rows, []string{
						a.ID,
						a.VideoID,
						titles[a.VideoID],
						a.UserID.String(),
						users[a.UserID],
						formatAPITime(a.AssignedAt),
					})
				}
				tableSpec{
					headers: []string{"Assignment", "Video", "Title", "User ID", "Username", "Assigned"},
					rows:    rows,
					aligns:  []columnAlignment{alignLeft, alignLeft, alignLeft, alignRight},
					empty:   "No assignments",
				}.write(cmd.OutOrStdout())
				return nil
			})
		},
	}
	listCmd.Flags().BoolVar(&jsonOut, "json", false, "Output as JSON")

	var unassignedJSON bool
	unassignedCmd := &cobra.Command{
		Use:   "unassigned",
		Short: "List videos without an assignment",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withAdmin(cmd, activity.Options{}, func(admin *dashboard.Admin, client *remote.Client) error {
				videos := admin.UnassignedVideos()
				if unassignedJSON {
					return writeJSON(cmd, videos)
				}
				printVideos(cmd, videos, client, false)
				return nil
			})
		},
	}
	unassignedCmd.Flags().BoolVar(&unassignedJSON, "json", false, "Output as JSON")

	assignmentsCmd.AddCommand(listCmd, unassignedCmd)
	return assignmentsCmd
}

func newAssignCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "assign <video-id> <user>",
		Short: "Assign a video to a user by id or username (admin)",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withAdmin(cmd, activity.Options{}, func(admin *dashboard.Admin, _ *remote.Client) error {
				user, ok := admin.LookupUser(args[1])
				if !ok {
					return apierr.Wrap(apierr.ErrNotFound, "cli", "assign", fmt.Sprintf("unknown user %q", args[1]), nil)
				}
				assigned, err := admin.Assign(cmd.Context(), strings.TrimSpace(args[0]), user.ID)
				if apierr.IsConflict(err) {
					return fmt.Errorf("%w; run `vidash assignments list` to see the current owner", err)
				}
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Assigned %s to %s (assignment %s)\n", assigned.VideoID, user.Username, assigned.ID)
				return nil
			})
		},
	}
}

func newUnassignCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "unassign <assignment-id|video-id>",
		Short: "Remove an assignment (admin)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ref := strings.TrimSpace(args[0])
			return ctx.withAdmin(cmd, activity.Options{}, func(admin *dashboard.Admin, _ *remote.Client) error {
				assignmentID := ref
				if existing, ok := admin.Matcher().AssignmentFor(ref); ok {
					assignmentID = existing.ID
				}
				if err := admin.Unassign(cmd.Context(), assignmentID); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Removed assignment %s\n", assignmentID)
				return nil
			})
		},
	}
}

func videoTitles(videos []api.Video) map[string]string {
	titles := make(map[string]string, len(videos))
	for _, v := range videos {
		titles[v.ID] = v.Title
	}
	return titles
}

func usernames(users []api.User) map[api.UserID]string {
	names := make(map[api.UserID]string, len(users))
	for _, u := range users {
		names[u.ID] = u.Username
	}
	return names
}

func formatAPITime(value string) string {
	if ts := api.ParseTimestamp(value); !ts.IsZero() {
		return ts.Local().Format("2006-01-02 15:04")
	}
	return value
}
