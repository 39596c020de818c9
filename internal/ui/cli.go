// Package ui implements the orga command line.
package ui

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/javiermolinar/orga/internal/api"
	"github.com/javiermolinar/orga/internal/board"
	"github.com/javiermolinar/orga/internal/config"
	"github.com/javiermolinar/orga/internal/db"
	"github.com/javiermolinar/orga/internal/event"
	"github.com/javiermolinar/orga/internal/logging"
	"github.com/javiermolinar/orga/internal/scheduler"
	"github.com/javiermolinar/orga/internal/tui"
)

var (
	// Version is set at build time
	Version = "dev"
	// Commit is set at build time
	Commit = "none"
)

// Backend is what the CLI needs from a calendar-events backend.
type Backend interface {
	event.Repository
	event.ClientLookup
}

// App holds the CLI application state.
type App struct {
	config     *config.Config
	configPath string
	repo       Backend
	logger     *slog.Logger
	closeLog   func() error
	root       *cobra.Command
	out        io.Writer
	now        func() time.Time

	debug   bool
	noColor bool
}

// Option configures an App.
type Option func(*App)

// WithBackend uses repo instead of opening the configured backend.
func WithBackend(repo Backend) Option {
	return func(a *App) { a.repo = repo }
}

// WithOutput redirects command output.
func WithOutput(w io.Writer) Option {
	return func(a *App) { a.out = w }
}

// WithNow overrides the clock.
func WithNow(now func() time.Time) Option {
	return func(a *App) { a.now = now }
}

// WithLogger sets the logger instead of building one from the config.
func WithLogger(l *slog.Logger) Option {
	return func(a *App) { a.logger = l }
}

// WithConfigPath sets the path the config command reads and writes.
func WithConfigPath(path string) Option {
	return func(a *App) { a.configPath = path }
}

// NewApp creates a new CLI application with the given config.
func NewApp(cfg *config.Config, opts ...Option) *App {
	a := &App{
		config:     cfg,
		configPath: config.DefaultConfigPath(),
		out:        os.Stdout,
		now:        time.Now,
		closeLog:   func() error { return nil },
	}
	for _, opt := range opts {
		opt(a)
	}

	a.root = &cobra.Command{
		Use:   "orga",
		Short: "Weekly scheduling board for field interventions",
		Long: `Orga plans the week of a landscaping business.

Run without arguments to open the board: drag interventions from the
"À programmer" tray onto the week, move them between days, confirm them
with the client, or send them back to the tray.`,
		SilenceUsage: true,
		PersistentPreRunE: func(_ *cobra.Command, _ []string) error {
			if a.noColor {
				DisableColor()
			}
			return a.setupLogger()
		},
		RunE: func(_ *cobra.Command, _ []string) error {
			return a.runBoard()
		},
	}
	a.root.SetOut(a.out)

	a.root.PersistentFlags().BoolVar(&a.debug, "debug", false, "Enable debug logging")
	a.root.PersistentFlags().BoolVar(&a.noColor, "no-color", false, "Disable colored output")

	a.root.AddCommand(a.versionCmd())
	a.root.AddCommand(a.configCmd())
	a.root.AddCommand(a.weekCmd())
	a.root.AddCommand(a.addCmd())
	a.root.AddCommand(a.moveCmd())
	a.root.AddCommand(a.unscheduleCmd())
	a.root.AddCommand(a.confirmCmd())
	a.root.AddCommand(a.statusCmd())
	a.root.AddCommand(a.editCmd())
	a.root.AddCommand(a.deleteCmd())
	a.root.AddCommand(a.exportCmd())
	a.root.AddCommand(a.clientsCmd())
	a.root.AddCommand(a.serveCmd())

	return a
}

func (a *App) versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version number",
		Run: func(_ *cobra.Command, _ []string) {
			fmt.Fprintf(a.out, "orga %s (commit: %s)\n", Version, Commit)
		},
	}
}

// Execute runs the CLI application.
func (a *App) Execute() error {
	return a.root.Execute()
}

// SetArgs overrides the command line arguments, for tests.
func (a *App) SetArgs(args []string) {
	a.root.SetArgs(args)
}

// Close releases the backend and the log file.
func (a *App) Close() error {
	var errs []error
	if a.repo != nil {
		errs = append(errs, a.repo.Close())
	}
	errs = append(errs, a.closeLog())
	return errors.Join(errs...)
}

func (a *App) setupLogger() error {
	if a.logger != nil {
		return nil
	}
	level := a.config.Log.Level
	if a.debug {
		level = "debug"
	}
	logger, closeFn, err := logging.New(logging.Config{
		Level:  level,
		Format: a.config.Log.Format,
		File:   a.config.Log.File,
	})
	if err != nil {
		return err
	}
	a.logger = logger
	a.closeLog = closeFn
	return nil
}

// backend returns the configured backend, opening it on first use.
func (a *App) backend() (Backend, error) {
	if a.repo != nil {
		return a.repo, nil
	}

	switch a.config.API.Mode {
	case config.ModeLocal:
		path := a.config.Storage.DBPath
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("creating data directory: %w", err)
		}
		repo, err := db.New(path)
		if err != nil {
			return nil, fmt.Errorf("initializing database: %w", err)
		}
		a.repo = repo
	default:
		timeout, err := a.config.API.TimeoutDuration()
		if err != nil {
			return nil, err
		}
		client, err := api.New(a.config.API.BaseURL, api.Options{
			Timeout: timeout,
			Token:   a.config.API.Token,
			Logger:  a.logger.With("component", "api"),
		})
		if err != nil {
			return nil, err
		}
		a.repo = client
	}
	return a.repo, nil
}

// scheduler builds the slot finder from the schedule config.
func (a *App) scheduler() *scheduler.Scheduler {
	s := a.config.Schedule
	return scheduler.New(s.Workdays, s.DayStart, s.DayEnd)
}

// newStore creates a board store over the backend.
func (a *App) newStore(notifier board.Notifier) (*board.Store, error) {
	repo, err := a.backend()
	if err != nil {
		return nil, err
	}
	return board.NewStore(repo, a.scheduler(), board.Options{
		Notifier:        notifier,
		Logger:          a.logger.With("component", "board"),
		ReloadOnFailure: a.config.Board.ReloadOnFailure,
		Now:             a.now,
	}), nil
}

// runBoard opens the TUI, initializing the config on first run.
func (a *App) runBoard() error {
	state, err := tui.DetectInitState(a.config, a.configPath)
	if err != nil {
		return err
	}
	if state.NeedsInit {
		if err := state.Initialize(a.config); err != nil {
			return err
		}
		a.logger.Info("first run initialized", "config", state.ConfigPath, "db", state.DBPath)
	}

	notifier := tui.NewChannelNotifier(a.logger)
	store, err := a.newStore(notifier)
	if err != nil {
		return err
	}
	return tui.Run(store, notifier, a.config, a.logger.With("component", "tui"))
}

// cliContext bounds a single CLI operation.
func cliContext() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), time.Minute)
}
