package ui

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/javiermolinar/orga/internal/config"
	"github.com/javiermolinar/orga/internal/tui/theme"
)

func (a *App) configCmd() *cobra.Command {
	var show bool

	cmd := &cobra.Command{
		Use:   "config",
		Short: "View or edit configuration",
		Long: `Interactive configuration management.

If no config file exists, creates one with default values.
Otherwise, displays current config and allows editing.

Example:
  orga config
  orga config --show`,
		Args: cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			if show {
				printConfig(a.out, a.config)
				return nil
			}
			return a.runConfigInteractive(os.Stdin)
		},
	}
	cmd.Flags().BoolVar(&show, "show", false, "Print the configuration and exit")
	return cmd
}

func (a *App) runConfigInteractive(in io.Reader) error {
	out := a.out
	fmt.Fprintf(out, "Config file: %s\n\n", a.configPath)

	cfg, err := config.LoadFrom(a.configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	if _, statErr := os.Stat(a.configPath); errors.Is(statErr, os.ErrNotExist) {
		fmt.Fprintln(out, "No config file found. Creating with default values...")
		if err := cfg.SaveTo(a.configPath); err != nil {
			return fmt.Errorf("saving config: %w", err)
		}
		fmt.Fprintf(out, "Created %s\n\n", a.configPath)
	}

	printConfig(out, cfg)

	p := prompter{in: bufio.NewReader(in), out: out}
	if !p.yesNo("\nWould you like to edit the configuration?") {
		return nil
	}

	cfg.Schedule.DayStart = p.value("Day start", cfg.Schedule.DayStart)
	cfg.Schedule.DayEnd = p.value("Day end", cfg.Schedule.DayEnd)
	cfg.Schedule.Workdays = p.slice("Workdays (comma-separated)", cfg.Schedule.Workdays)
	cfg.Board.SnapMinutes = p.number("Drop snapping (minutes)", cfg.Board.SnapMinutes)
	cfg.Board.PointerMinutes = p.number("Pointer step (minutes)", cfg.Board.PointerMinutes)
	cfg.Board.RefreshSchedule = p.value("Refresh schedule (cron, empty to disable)", cfg.Board.RefreshSchedule)
	cfg.API.Mode = p.value("Backend mode (remote, local)", cfg.API.Mode)
	if cfg.API.Mode == config.ModeRemote {
		cfg.API.BaseURL = p.value("API base URL", cfg.API.BaseURL)
		cfg.API.Timeout = p.value("API timeout", cfg.API.Timeout)
		cfg.API.Token = p.value("API token", cfg.API.Token)
	}
	cfg.Storage.DBPath = p.value("Database path", cfg.Storage.DBPath)
	cfg.UI.Theme = p.theme(cfg.UI.Theme)

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	if err := cfg.SaveTo(a.configPath); err != nil {
		return fmt.Errorf("saving config: %w", err)
	}

	fmt.Fprintln(out, "\nConfiguration saved!")
	return nil
}

func printConfig(out io.Writer, cfg *config.Config) {
	fmt.Fprintln(out, "Current configuration:")
	fmt.Fprintln(out, "──────────────────────")
	fmt.Fprintln(out, "[schedule]")
	fmt.Fprintf(out, "  day_start         = %s\n", cfg.Schedule.DayStart)
	fmt.Fprintf(out, "  day_end           = %s\n", cfg.Schedule.DayEnd)
	fmt.Fprintf(out, "  workdays          = %s\n", strings.Join(cfg.Schedule.Workdays, ", "))
	fmt.Fprintln(out, "\n[board]")
	fmt.Fprintf(out, "  snap_minutes      = %d\n", cfg.Board.SnapMinutes)
	fmt.Fprintf(out, "  pointer_minutes   = %d\n", cfg.Board.PointerMinutes)
	fmt.Fprintf(out, "  reload_on_failure = %t\n", cfg.Board.ReloadOnFailure)
	fmt.Fprintf(out, "  refresh_schedule  = %s\n", cfg.Board.RefreshSchedule)
	fmt.Fprintln(out, "\n[api]")
	fmt.Fprintf(out, "  mode              = %s\n", cfg.API.Mode)
	fmt.Fprintf(out, "  base_url          = %s\n", cfg.API.BaseURL)
	fmt.Fprintf(out, "  timeout           = %s\n", cfg.API.Timeout)
	if cfg.API.Token != "" {
		fmt.Fprintln(out, "  token             = ********")
	}
	fmt.Fprintln(out, "\n[storage]")
	fmt.Fprintf(out, "  db_path           = %s\n", cfg.Storage.DBPath)
	fmt.Fprintln(out, "\n[server]")
	fmt.Fprintf(out, "  addr              = %s\n", cfg.Server.Addr)
	fmt.Fprintln(out, "\n[log]")
	fmt.Fprintf(out, "  level             = %s\n", cfg.Log.Level)
	fmt.Fprintf(out, "  format            = %s\n", cfg.Log.Format)
	if cfg.Log.File != "" {
		fmt.Fprintf(out, "  file              = %s\n", cfg.Log.File)
	}
	fmt.Fprintln(out, "\n[ui]")
	fmt.Fprintf(out, "  theme             = %s\n", cfg.UI.Theme)
}

// prompter reads line answers to interactive questions.
type prompter struct {
	in  *bufio.Reader
	out io.Writer
}

func (p prompter) yesNo(question string) bool {
	fmt.Fprintf(p.out, "%s [y/N]: ", question)
	input, _ := p.in.ReadString('\n')
	input = strings.TrimSpace(strings.ToLower(input))
	return input == "y" || input == "yes" || input == "o" || input == "oui"
}

func (p prompter) value(label, current string) string {
	if current == "" {
		fmt.Fprintf(p.out, "  %s: ", label)
	} else {
		fmt.Fprintf(p.out, "  %s [%s]: ", label, current)
	}
	input, _ := p.in.ReadString('\n')
	input = strings.TrimSpace(input)
	if input == "" {
		return current
	}
	return input
}

func (p prompter) number(label string, current int) int {
	for {
		value := p.value(label, strconv.Itoa(current))
		n, err := strconv.Atoi(value)
		if err == nil {
			return n
		}
		fmt.Fprintf(p.out, "  Invalid number %q\n", value)
	}
}

func (p prompter) slice(label string, current []string) []string {
	input := p.value(label, strings.Join(current, ", "))
	parts := strings.Split(input, ",")
	result := make([]string, 0, len(parts))
	for _, s := range parts {
		s = strings.TrimSpace(s)
		if s != "" {
			result = append(result, s)
		}
	}
	return result
}

func (p prompter) theme(current string) string {
	options := strings.Join(theme.Available(), ", ")
	label := fmt.Sprintf("UI theme (%s)", options)
	for {
		value := strings.ToLower(p.value(label, current))
		if theme.IsAvailable(value) {
			return value
		}
		fmt.Fprintf(p.out, "  Invalid theme %q. Available: %s\n", value, options)
	}
}
