package main

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"vidash/internal/session"
)

func newAuthCommands(ctx *commandContext) []*cobra.Command {
	return []*cobra.Command{
		newLoginCommand(ctx),
		newLogoutCommand(ctx),
		newWhoamiCommand(ctx),
	}
}

func newLoginCommand(ctx *commandContext) *cobra.Command {
	var username string
	var password string
	var passwordStdin bool

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Sign in and store the session",
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			input := bufio.NewReader(cmd.InOrStdin())
			if strings.TrimSpace(username) == "" {
				value, err := promptLine(cmd, input, "Username: ")
				if err != nil {
					return err
				}
				username = value
			}
			if password == "" || passwordStdin {
				value, err := readPassword(cmd, input, passwordStdin)
				if err != nil {
					return err
				}
				password = value
			}

			client, err := ctx.client(nil)
			if err != nil {
				return err
			}
			sess, err := session.Login(cmd.Context(), client, ctx.sessionStore(), username, password)
			if err != nil {
				return err
			}
			fmt.Fprintf(out, "Signed in as %s (%s)\n", sess.Username(), sess.Capability())
			return nil
		},
	}

	cmd.Flags().StringVarP(&username, "username", "u", "", "Account username")
	cmd.Flags().StringVarP(&password, "password", "p", "", "Account password (prompted when omitted)")
	cmd.Flags().BoolVar(&passwordStdin, "password-stdin", false, "Read the password from stdin")
	return cmd
}

func newLogoutCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Remove the stored session",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := session.Logout(ctx.sessionStore()); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Signed out")
			return nil
		},
	}
}

func newWhoamiCommand(ctx *commandContext) *cobra.Command {
	var jsonOut bool

	cmd := &cobra.Command{
		Use:   "whoami",
		Short: "Show the signed-in user",
		RunE: func(cmd *cobra.Command, args []string) error {
			sess, err := session.Restore(ctx.sessionStore())
			if errors.Is(err, session.ErrNoSession) {
				return errors.New("not signed in; run `vidash login`")
			}
			if err != nil {
				return err
			}
			expires := "never"
			if at := sess.ExpiresAt(); !at.IsZero() {
				expires = at.Local().Format("2006-01-02 15:04:05")
			}
			if jsonOut {
				return writeJSON(cmd, map[string]any{
					"userId":     sess.UserID(),
					"username":   sess.Username(),
					"roles":      sess.Roles(),
					"capability": sess.Capability().String(),
					"expires":    expires,
				})
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "User:       %s (id %s)\n", sess.Username(), sess.UserID())
			fmt.Fprintf(out, "Roles:      %s\n", strings.Join(sess.Roles(), ", "))
			fmt.Fprintf(out, "Capability: %s\n", sess.Capability())
			fmt.Fprintf(out, "Expires:    %s\n", expires)
			return nil
		},
	}
	cmd.Flags().BoolVar(&jsonOut, "json", false, "Output as JSON")
	return cmd
}

func promptLine(cmd *cobra.Command, input *bufio.Reader, prompt string) (string, error) {
	fmt.Fprint(cmd.OutOrStdout(), prompt)
	line, err := input.ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", err
	}
	return strings.TrimSpace(line), nil
}

func readPassword(cmd *cobra.Command, input *bufio.Reader, fromStdin bool) (string, error) {
	if file, ok := cmd.InOrStdin().(*os.File); ok && !fromStdin && term.IsTerminal(int(file.Fd())) {
		fmt.Fprint(cmd.OutOrStdout(), "Password: ")
		raw, err := term.ReadPassword(int(file.Fd()))
		fmt.Fprintln(cmd.OutOrStdout())
		if err != nil {
			return "", fmt.Errorf("read password: %w", err)
		}
		return string(raw), nil
	}
	line, err := input.ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", fmt.Errorf("read password: %w", err)
	}
	return strings.TrimRight(line, "\r\n"), nil
}
