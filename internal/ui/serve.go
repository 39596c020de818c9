package ui

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/javiermolinar/orga/internal/db"
	"github.com/javiermolinar/orga/internal/server"
)

func (a *App) serveCmd() *cobra.Command {
	cfg := server.DefaultConfig()
	var dbPath string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the calendar-events API from the local database",
		Long: `Serve the calendar-events API over HTTP, backed by the SQLite database.
Other orga instances in remote mode can point their api.base_url at it.

Example:
  orga serve --addr=0.0.0.0:8080 --token=secret`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			flags := cmd.Flags()
			if !flags.Changed("addr") && a.config.Server.Addr != "" {
				cfg.Addr = a.config.Server.Addr
			}
			if !flags.Changed("token") {
				cfg.Token = a.config.API.Token
			}
			if !flags.Changed("db") {
				dbPath = a.config.Storage.DBPath
			}
			cfg.Debug = a.debug

			if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
				return fmt.Errorf("creating data directory: %w", err)
			}
			store, err := db.New(dbPath)
			if err != nil {
				return fmt.Errorf("initializing database: %w", err)
			}
			defer func() {
				if err := store.Close(); err != nil {
					a.logger.Error("closing database", "err", err)
				}
			}()

			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			a.logger.Info("serving calendar events", "db", dbPath, "auth", cfg.Token != "")
			return server.New(store, cfg, a.logger.With("component", "server")).ListenAndServe(ctx)
		},
	}

	cmd.Flags().StringVar(&cfg.Addr, "addr", cfg.Addr, "Listen address")
	cmd.Flags().StringVar(&cfg.Token, "token", "", "Required bearer token")
	cmd.Flags().StringVar(&dbPath, "db", "", "SQLite database path")
	cmd.Flags().BoolVar(&cfg.EnableCORS, "cors", cfg.EnableCORS, "Allow cross-origin requests")
	return cmd
}
