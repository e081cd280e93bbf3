package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/spf13/cobra"

	"vidash/internal/logging"
	"vidash/internal/mockapi"
)

func newMockServerCommand(ctx *commandContext) *cobra.Command {
	var listen string
	var secret string
	var tokenTTL time.Duration

	cmd := &cobra.Command{
		Use:   "mock-server",
		Short: "Run an in-memory Remote API for local development",
		Long: "Run an in-memory Remote API seeded with demo data.\n\n" +
			"Accounts: admin/admin (admin), alice/alice and bob/bob (viewers).\n" +
			"Data is lost when the server stops.",
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := ctx.log()
			opts := []mockapi.Option{mockapi.WithLogger(logger), mockapi.WithTokenTTL(tokenTTL)}
			if secret != "" {
				opts = append(opts, mockapi.WithSecret(secret))
			}
			srv := mockapi.New(opts...)

			listener, err := net.Listen("tcp", listen)
			if err != nil {
				return fmt.Errorf("listen on %s: %w", listen, err)
			}
			server := &http.Server{Handler: srv.Handler(), ReadHeaderTimeout: 5 * time.Second}

			runCtx := cmd.Context()
			go func() {
				<-runCtx.Done()
				shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				_ = server.Shutdown(shutdownCtx)
			}()

			addr := listener.Addr().String()
			fmt.Fprintf(cmd.OutOrStdout(), "Mock API listening on http://%s%s\n", addr, mockapi.Prefix)
			logger.Info("mock api started",
				logging.String(logging.FieldEventType, "mock_api_started"),
				logging.String("addr", addr),
			)
			if err := server.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return err
			}
			logger.Info("mock api stopped", logging.String(logging.FieldEventType, "mock_api_stopped"))
			return nil
		},
	}
	cmd.Flags().StringVar(&listen, "listen", "127.0.0.1:8080", "Address to listen on")
	cmd.Flags().StringVar(&secret, "secret", "", "HS256 signing secret for issued tokens")
	cmd.Flags().DurationVar(&tokenTTL, "token-ttl", time.Hour, "Lifetime of issued access tokens")
	return cmd
}
