package main

import (
	"bufio"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"vidash/internal/api"
	"vidash/internal/dashboard"
	"vidash/internal/remote"
	"vidash/internal/session"
)

func newVideosCommand(ctx *commandContext) *cobra.Command {
	videosCmd := &cobra.Command{
		Use:   "videos",
		Short: "List and manage videos",
	}
	videosCmd.AddCommand(newVideosListCommand(ctx))
	videosCmd.AddCommand(newVideosMineCommand(ctx))
	videosCmd.AddCommand(newVideosDeleteCommand(ctx))
	return videosCmd
}

func newVideosListCommand(ctx *commandContext) *cobra.Command {
	var jsonOut bool
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List every video (admin)",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withClient(session.CapabilityAdmin, func(_ *session.Session, client *remote.Client) error {
				videos, err := client.ListVideos(cmd.Context())
				if err != nil {
					return err
				}
				if jsonOut {
					return writeJSON(cmd, videos)
				}
				printVideos(cmd, videos, client, true)
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&jsonOut, "json", false, "Output as JSON")
	return cmd
}

func newVideosMineCommand(ctx *commandContext) *cobra.Command {
	var jsonOut bool
	cmd := &cobra.Command{
		Use:   "mine",
		Short: "List the videos assigned to you",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withClient(session.CapabilityViewer, func(sess *session.Session, client *remote.Client) error {
				store, err := ctx.openState()
				if err != nil {
					return err
				}
				defer store.Close()

				viewer, err := dashboard.NewViewer(dashboard.ViewerOptions{
					Session: sess,
					Remote:  client,
					State:   store,
					Logger:  ctx.log(),
				})
				if err != nil {
					return err
				}
				if err := viewer.Load(cmd.Context()); err != nil {
					return err
				}
				videos := viewer.Videos()
				if jsonOut {
					return writeJSON(cmd, videos)
				}
				selected, _ := viewer.Selected()
				rows := make([][]string, 0, len(videos))
				for _, v := range videos {
					marker := ""
					if v.ID == selected.ID {
						marker = "*"
					}
					rows = append(rows, []string{marker, v.ID, v.Title, client.MediaURL(v.VideoURL)})
				}
				tableSpec{
					headers: []string{"", "ID", "Title", "Source"},
					rows:    rows,
					empty:   "No videos assigned to you",
				}.write(cmd.OutOrStdout())
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&jsonOut, "json", false, "Output as JSON")
	return cmd
}

func newVideosDeleteCommand(ctx *commandContext) *cobra.Command {
	var yes bool
	cmd := &cobra.Command{
		Use:   "delete <video-id>",
		Short: "Delete a video (admin)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			videoID := strings.TrimSpace(args[0])
			return ctx.withClient(session.CapabilityAdmin, func(_ *session.Session, client *remote.Client) error {
				video, err := client.GetVideo(cmd.Context(), videoID)
				if err != nil {
					return err
				}
				if !yes {
					ok, err := confirm(cmd, fmt.Sprintf("Delete %q (%s)? [y/N]: ", video.Title, video.ID))
					if err != nil {
						return err
					}
					if !ok {
						fmt.Fprintln(cmd.OutOrStdout(), "Cancelled")
						return nil
					}
				}
				if err := client.DeleteVideo(cmd.Context(), videoID); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Deleted %s\n", videoID)
				return nil
			})
		},
	}
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "Skip the confirmation prompt")
	return cmd
}

func newUsersCommand(ctx *commandContext) *cobra.Command {
	usersCmd := &cobra.Command{
		Use:   "users",
		Short: "List users",
	}
	var jsonOut bool
	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List accounts that can receive assignments (admin)",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withClient(session.CapabilityAdmin, func(_ *session.Session, client *remote.Client) error {
				users, err := client.ListUsers(cmd.Context())
				if err != nil {
					return err
				}
				if jsonOut {
					return writeJSON(cmd, users)
				}
				rows := make([][]string, 0, len(users))
				for _, u := range users {
					rows = append(rows, []string{u.ID.String(), u.Username, u.Role})
				}
				tableSpec{
					headers: []string{"ID", "Username", "Role"},
					rows:    rows,
					aligns:  []columnAlignment{alignRight},
					empty:   "No users",
				}.write(cmd.OutOrStdout())
				return nil
			})
		},
	}
	listCmd.Flags().BoolVar(&jsonOut, "json", false, "Output as JSON")
	usersCmd.AddCommand(listCmd)
	return usersCmd
}

func printVideos(cmd *cobra.Command, videos []api.Video, client *remote.Client, withAssignee bool) {
	headers := []string{"ID", "Title", "Source"}
	if withAssignee {
		headers = append(headers, "Assigned To")
	}
	rows := make([][]string, 0, len(videos))
	for _, v := range videos {
		row := []string{v.ID, v.Title, client.MediaURL(v.VideoURL)}
		if withAssignee {
			assignee := "-"
			if v.AssignedUserID != nil {
				assignee = v.AssignedUserID.String()
			}
			row = append(row, assignee)
		}
		rows = append(rows, row)
	}
	tableSpec{headers: headers, rows: rows, empty: "No videos"}.write(cmd.OutOrStdout())
}

func confirm(cmd *cobra.Command, prompt string) (bool, error) {
	answer, err := promptLine(cmd, bufio.NewReader(cmd.InOrStdin()), prompt)
	if err != nil {
		return false, err
	}
	answer = strings.ToLower(answer)
	return answer == "y" || answer == "yes", nil
}
