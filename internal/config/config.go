// Package config handles configuration loading from files, defaults, and environment variables.
package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
	"github.com/robfig/cron/v3"
)

// Backend modes.
const (
	ModeRemote = "remote" // REST calendar-events API
	ModeLocal  = "local"  // SQLite file
)

// Config holds the application configuration.
type Config struct {
	Schedule ScheduleConfig `toml:"schedule"`
	Board    BoardConfig    `toml:"board"`
	API      APIConfig      `toml:"api"`
	Storage  StorageConfig  `toml:"storage"`
	Server   ServerConfig   `toml:"server"`
	Log      LogConfig      `toml:"log"`
	UI       UIConfig       `toml:"ui"`
}

// ScheduleConfig holds the working-day bounds used for slot finding.
type ScheduleConfig struct {
	Workdays []string `toml:"workdays"`  // e.g., ["monday", "tuesday", ...]
	DayStart string   `toml:"day_start"` // e.g., "07:00"
	DayEnd   string   `toml:"day_end"`   // e.g., "20:00"
}

// BoardConfig holds drag-and-drop and refresh settings.
type BoardConfig struct {
	SnapMinutes     int    `toml:"snap_minutes"`      // drop snapping granularity
	PointerMinutes  int    `toml:"pointer_minutes"`   // pointer offset granularity
	ReloadOnFailure bool   `toml:"reload_on_failure"` // reload the week after a failed write
	RefreshSchedule string `toml:"refresh_schedule"`  // cron spec, empty disables
}

// APIConfig selects and configures the calendar-events backend.
type APIConfig struct {
	Mode    string `toml:"mode"`     // "remote" or "local"
	BaseURL string `toml:"base_url"` // e.g., "http://localhost:8080/api"
	Timeout string `toml:"timeout"`  // Go duration, e.g., "10s"
	Token   string `toml:"token"`    // bearer token, optional
}

// StorageConfig holds database settings for local mode.
type StorageConfig struct {
	DBPath string `toml:"db_path"`
}

// ServerConfig holds settings for `orga serve`.
type ServerConfig struct {
	Addr string `toml:"addr"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level  string `toml:"level"`  // debug, info, warn, error
	Format string `toml:"format"` // text, json
	File   string `toml:"file"`   // empty logs to stderr
}

// UIConfig holds TUI settings.
type UIConfig struct {
	Theme string `toml:"theme"` // "mocha", "macchiato", "frappe", "latte"
}

// Default returns the default configuration.
func Default() *Config {
	return &Config{
		Schedule: ScheduleConfig{
			Workdays: []string{"monday", "tuesday", "wednesday", "thursday", "friday"},
			DayStart: "07:00",
			DayEnd:   "20:00",
		},
		Board: BoardConfig{
			SnapMinutes:     30,
			PointerMinutes:  15,
			ReloadOnFailure: true,
			RefreshSchedule: "@every 5m",
		},
		API: APIConfig{
			Mode:    ModeRemote,
			BaseURL: "http://localhost:8080/api",
			Timeout: "10s",
		},
		Storage: StorageConfig{
			DBPath: defaultDBPath(),
		},
		Server: ServerConfig{
			Addr: "127.0.0.1:8080",
		},
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
		UI: UIConfig{
			Theme: "frappe",
		},
	}
}

// defaultDBPath returns the default database path.
func defaultDBPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "orga.db"
	}
	return filepath.Join(home, ".local", "share", "orga", "orga.db")
}

// DefaultConfigPath returns the default config file path.
func DefaultConfigPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "config.toml"
	}
	return filepath.Join(home, ".config", "orga", "config.toml")
}

// Load loads configuration from the default path, merging with defaults and env vars.
func Load() (*Config, error) {
	return LoadFrom(DefaultConfigPath())
}

// LoadFrom loads configuration from the specified path.
// It starts with defaults, overlays file config if it exists, then applies env overrides.
func LoadFrom(path string) (*Config, error) {
	cfg := Default()

	if err := loadFromFile(path, cfg); err != nil {
		return nil, err
	}

	if err := applyEnvOverrides(cfg); err != nil {
		return nil, err
	}

	cfg.Storage.DBPath = expandPath(cfg.Storage.DBPath)
	cfg.Log.File = expandPath(cfg.Log.File)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

// loadFromFile loads config from a file if it exists.
func loadFromFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("reading config file: %w", err)
	}

	if err := toml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parsing config file: %w", err)
	}

	return nil
}

// applyEnvOverrides applies ORGA_* environment variables on top of the
// file config.
func applyEnvOverrides(cfg *Config) error {
	str := map[string]*string{
		"ORGA_DAY_START":        &cfg.Schedule.DayStart,
		"ORGA_DAY_END":          &cfg.Schedule.DayEnd,
		"ORGA_REFRESH_SCHEDULE": &cfg.Board.RefreshSchedule,
		"ORGA_API_MODE":         &cfg.API.Mode,
		"ORGA_API_BASE_URL":     &cfg.API.BaseURL,
		"ORGA_API_TIMEOUT":      &cfg.API.Timeout,
		"ORGA_API_TOKEN":        &cfg.API.Token,
		"ORGA_DB_PATH":          &cfg.Storage.DBPath,
		"ORGA_SERVER_ADDR":      &cfg.Server.Addr,
		"ORGA_LOG_LEVEL":        &cfg.Log.Level,
		"ORGA_LOG_FORMAT":       &cfg.Log.Format,
		"ORGA_LOG_FILE":         &cfg.Log.File,
		"ORGA_UI_THEME":         &cfg.UI.Theme,
	}
	for key, dst := range str {
		if v, ok := os.LookupEnv(key); ok {
			*dst = v
		}
	}

	if v := os.Getenv("ORGA_WORKDAYS"); v != "" {
		cfg.Schedule.Workdays = strings.Split(v, ",")
	}

	ints := map[string]*int{
		"ORGA_SNAP_MINUTES":    &cfg.Board.SnapMinutes,
		"ORGA_POINTER_MINUTES": &cfg.Board.PointerMinutes,
	}
	for key, dst := range ints {
		if v := os.Getenv(key); v != "" {
			n, err := strconv.Atoi(v)
			if err != nil {
				return fmt.Errorf("%s: %w", key, err)
			}
			*dst = n
		}
	}

	if v := os.Getenv("ORGA_RELOAD_ON_FAILURE"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("ORGA_RELOAD_ON_FAILURE: %w", err)
		}
		cfg.Board.ReloadOnFailure = b
	}
	return nil
}

// expandPath expands ~ to the user's home directory.
func expandPath(path string) string {
	if strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return path
		}
		return filepath.Join(home, path[2:])
	}
	return path
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if err := validateTime(c.Schedule.DayStart, "day_start"); err != nil {
		return err
	}
	if err := validateTime(c.Schedule.DayEnd, "day_end"); err != nil {
		return err
	}
	if c.Schedule.DayStart >= c.Schedule.DayEnd {
		return errors.New("day_start must be before day_end")
	}

	if len(c.Schedule.Workdays) == 0 {
		return errors.New("at least one workday must be configured")
	}
	for _, day := range c.Schedule.Workdays {
		if !isValidWeekday(day) {
			return fmt.Errorf("invalid workday: %s", day)
		}
	}

	if err := validateGranularity(c.Board.SnapMinutes, "snap_minutes"); err != nil {
		return err
	}
	if err := validateGranularity(c.Board.PointerMinutes, "pointer_minutes"); err != nil {
		return err
	}
	if c.Board.RefreshSchedule != "" {
		if _, err := cron.ParseStandard(c.Board.RefreshSchedule); err != nil {
			return fmt.Errorf("refresh_schedule: %w", err)
		}
	}

	switch c.API.Mode {
	case ModeRemote:
		u, err := url.Parse(c.API.BaseURL)
		if err != nil || u.Scheme == "" || u.Host == "" {
			return fmt.Errorf("base_url must be an absolute URL, got %q", c.API.BaseURL)
		}
	case ModeLocal:
		if c.Storage.DBPath == "" {
			return errors.New("db_path must be set in local mode")
		}
	default:
		return fmt.Errorf("api mode must be %q or %q, got %q", ModeRemote, ModeLocal, c.API.Mode)
	}
	if _, err := c.API.TimeoutDuration(); err != nil {
		return err
	}

	switch strings.ToLower(c.Log.Level) {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("invalid log level: %s", c.Log.Level)
	}
	switch strings.ToLower(c.Log.Format) {
	case "", "text", "json":
	default:
		return fmt.Errorf("invalid log format: %s", c.Log.Format)
	}
	return nil
}

// TimeoutDuration parses the API timeout. Empty means no timeout.
func (a APIConfig) TimeoutDuration() (time.Duration, error) {
	if a.Timeout == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(a.Timeout)
	if err != nil || d < 0 {
		return 0, fmt.Errorf("timeout must be a positive duration, got %q", a.Timeout)
	}
	return d, nil
}

// validateTime checks if a time string is in HH:MM format.
func validateTime(t, field string) error {
	if len(t) != 5 || t[2] != ':' {
		return fmt.Errorf("%s must be in HH:MM format, got %q", field, t)
	}
	if !isDigits(t[0:2]) || !isDigits(t[3:5]) {
		return fmt.Errorf("%s must be in HH:MM format, got %q", field, t)
	}
	return nil
}

// validateGranularity requires a minute step that divides an hour.
func validateGranularity(m int, field string) error {
	if m <= 0 || 60%m != 0 {
		return fmt.Errorf("%s must divide 60, got %d", field, m)
	}
	return nil
}

func isDigits(s string) bool {
	for _, c := range s {
		if c < '0' || c > '9' {
			return false
		}
	}
	return true
}

var validWeekdays = map[string]bool{
	"monday":    true,
	"tuesday":   true,
	"wednesday": true,
	"thursday":  true,
	"friday":    true,
	"saturday":  true,
	"sunday":    true,
}

func isValidWeekday(day string) bool {
	return validWeekdays[strings.ToLower(strings.TrimSpace(day))]
}

// IsWorkday returns true if the given weekday name is a configured workday.
func (c *Config) IsWorkday(weekday string) bool {
	weekday = strings.ToLower(weekday)
	for _, d := range c.Schedule.Workdays {
		if strings.ToLower(d) == weekday {
			return true
		}
	}
	return false
}

// Save writes the configuration to the default path.
func (c *Config) Save() error {
	return c.SaveTo(DefaultConfigPath())
}

// SaveTo writes the configuration to the specified path.
func (c *Config) SaveTo(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	data, err := toml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}

	// The file may hold an API token.
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}

	return nil
}
