package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	if cfg.Schedule.DayStart != "07:00" {
		t.Errorf("expected day_start 07:00, got %s", cfg.Schedule.DayStart)
	}
	if cfg.Schedule.DayEnd != "20:00" {
		t.Errorf("expected day_end 20:00, got %s", cfg.Schedule.DayEnd)
	}
	if len(cfg.Schedule.Workdays) != 5 {
		t.Errorf("expected 5 workdays, got %d", len(cfg.Schedule.Workdays))
	}
	if cfg.Board.SnapMinutes != 30 || cfg.Board.PointerMinutes != 15 {
		t.Errorf("expected snap 30 / pointer 15, got %d / %d", cfg.Board.SnapMinutes, cfg.Board.PointerMinutes)
	}
	if !cfg.Board.ReloadOnFailure {
		t.Error("expected reload_on_failure to default to true")
	}
	if cfg.API.Mode != ModeRemote {
		t.Errorf("expected api mode remote, got %s", cfg.API.Mode)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("default config does not validate: %v", err)
	}
}

func TestLoadFrom_FileNotExists(t *testing.T) {
	cfg, err := LoadFrom("/nonexistent/path/config.toml")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Schedule.DayStart != "07:00" {
		t.Errorf("expected default day_start, got %s", cfg.Schedule.DayStart)
	}
}

func TestLoadFrom_ValidFile(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "config.toml")

	content := `
[schedule]
workdays = ["monday", "tuesday", "wednesday", "thursday", "friday", "saturday"]
day_start = "08:00"
day_end = "18:30"

[board]
snap_minutes = 15
reload_on_failure = false
refresh_schedule = "*/10 * * * *"

[api]
mode = "local"
timeout = "3s"

[storage]
db_path = "/tmp/orga-test.db"

[log]
level = "debug"
format = "json"
`
	if err := os.WriteFile(configPath, []byte(content), 0o644); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}

	cfg, err := LoadFrom(configPath)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.Schedule.DayStart != "08:00" || cfg.Schedule.DayEnd != "18:30" {
		t.Errorf("expected 08:00-18:30, got %s-%s", cfg.Schedule.DayStart, cfg.Schedule.DayEnd)
	}
	if len(cfg.Schedule.Workdays) != 6 {
		t.Errorf("expected 6 workdays, got %d", len(cfg.Schedule.Workdays))
	}
	if cfg.Board.SnapMinutes != 15 {
		t.Errorf("expected snap_minutes 15, got %d", cfg.Board.SnapMinutes)
	}
	if cfg.Board.PointerMinutes != 15 {
		t.Errorf("expected default pointer_minutes kept, got %d", cfg.Board.PointerMinutes)
	}
	if cfg.Board.ReloadOnFailure {
		t.Error("expected reload_on_failure false from file")
	}
	if cfg.API.Mode != ModeLocal {
		t.Errorf("expected mode local, got %s", cfg.API.Mode)
	}
	if d, _ := cfg.API.TimeoutDuration(); d != 3*time.Second {
		t.Errorf("expected timeout 3s, got %v", d)
	}
	if cfg.Storage.DBPath != "/tmp/orga-test.db" {
		t.Errorf("expected db_path /tmp/orga-test.db, got %s", cfg.Storage.DBPath)
	}
	if cfg.Log.Level != "debug" || cfg.Log.Format != "json" {
		t.Errorf("expected debug/json logging, got %s/%s", cfg.Log.Level, cfg.Log.Format)
	}
}

func TestLoadFrom_InvalidToml(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(configPath, []byte("[schedule\nday_start ="), 0o644); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}
	if _, err := LoadFrom(configPath); err == nil {
		t.Error("expected parse error")
	}
}

func TestLoadFrom_EnvOverrides(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "config.toml")

	content := `
[schedule]
day_start = "08:00"
day_end = "16:00"

[api]
base_url = "http://backend.test/api"
`
	if err := os.WriteFile(configPath, []byte(content), 0o644); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}

	t.Setenv("ORGA_DAY_START", "10:00")
	t.Setenv("ORGA_API_TOKEN", "secret")
	t.Setenv("ORGA_SNAP_MINUTES", "15")
	t.Setenv("ORGA_RELOAD_ON_FAILURE", "false")
	t.Setenv("ORGA_WORKDAYS", "monday,tuesday")
	t.Setenv("ORGA_REFRESH_SCHEDULE", "")

	cfg, err := LoadFrom(configPath)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.Schedule.DayStart != "10:00" {
		t.Errorf("expected day_start 10:00 from env, got %s", cfg.Schedule.DayStart)
	}
	if cfg.Schedule.DayEnd != "16:00" {
		t.Errorf("expected day_end 16:00 from file, got %s", cfg.Schedule.DayEnd)
	}
	if cfg.API.BaseURL != "http://backend.test/api" {
		t.Errorf("expected base_url from file, got %s", cfg.API.BaseURL)
	}
	if cfg.API.Token != "secret" {
		t.Errorf("expected token from env, got %q", cfg.API.Token)
	}
	if cfg.Board.SnapMinutes != 15 || cfg.Board.ReloadOnFailure {
		t.Errorf("expected board overrides, got snap=%d reload=%v", cfg.Board.SnapMinutes, cfg.Board.ReloadOnFailure)
	}
	if len(cfg.Schedule.Workdays) != 2 {
		t.Errorf("expected 2 workdays from env, got %v", cfg.Schedule.Workdays)
	}
	if cfg.Board.RefreshSchedule != "" {
		t.Errorf("expected empty refresh schedule from env, got %q", cfg.Board.RefreshSchedule)
	}
}

func TestLoadFrom_BadEnvNumber(t *testing.T) {
	t.Setenv("ORGA_SNAP_MINUTES", "half")
	if _, err := LoadFrom(filepath.Join(t.TempDir(), "missing.toml")); err == nil {
		t.Error("expected error for non-numeric ORGA_SNAP_MINUTES")
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr bool
	}{
		{"defaults", func(c *Config) {}, false},
		{"day start missing zero", func(c *Config) { c.Schedule.DayStart = "9:00" }, true},
		{"day start after end", func(c *Config) { c.Schedule.DayStart, c.Schedule.DayEnd = "18:00", "09:00" }, true},
		{"unknown workday", func(c *Config) { c.Schedule.Workdays = []string{"monday", "funday"} }, true},
		{"no workdays", func(c *Config) { c.Schedule.Workdays = nil }, true},
		{"snap not dividing an hour", func(c *Config) { c.Board.SnapMinutes = 25 }, true},
		{"zero pointer", func(c *Config) { c.Board.PointerMinutes = 0 }, true},
		{"bad cron", func(c *Config) { c.Board.RefreshSchedule = "every so often" }, true},
		{"refresh disabled", func(c *Config) { c.Board.RefreshSchedule = "" }, false},
		{"cron descriptor", func(c *Config) { c.Board.RefreshSchedule = "@hourly" }, false},
		{"relative base url", func(c *Config) { c.API.BaseURL = "/api" }, true},
		{"unknown mode", func(c *Config) { c.API.Mode = "cloud" }, true},
		{"local without db", func(c *Config) { c.API.Mode = ModeLocal; c.Storage.DBPath = "" }, true},
		{"local ignores base url", func(c *Config) { c.API.Mode = ModeLocal; c.API.BaseURL = "" }, false},
		{"bad timeout", func(c *Config) { c.API.Timeout = "soon" }, true},
		{"no timeout", func(c *Config) { c.API.Timeout = "" }, false},
		{"bad log level", func(c *Config) { c.Log.Level = "trace" }, true},
		{"bad log format", func(c *Config) { c.Log.Format = "xml" }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestIsWorkday(t *testing.T) {
	cfg := Default()

	tests := []struct {
		day  string
		want bool
	}{
		{"monday", true},
		{"Monday", true},
		{"FRIDAY", true},
		{"saturday", false},
		{"sunday", false},
	}

	for _, tc := range tests {
		t.Run(tc.day, func(t *testing.T) {
			if got := cfg.IsWorkday(tc.day); got != tc.want {
				t.Errorf("IsWorkday(%q) = %v, want %v", tc.day, got, tc.want)
			}
		})
	}
}

func TestExpandPath(t *testing.T) {
	home, _ := os.UserHomeDir()

	tests := []struct {
		input string
		want  string
	}{
		{"~/orga.db", filepath.Join(home, "orga.db")},
		{"/absolute/path.db", "/absolute/path.db"},
		{"relative/path.db", "relative/path.db"},
	}

	for _, tc := range tests {
		t.Run(tc.input, func(t *testing.T) {
			if got := expandPath(tc.input); got != tc.want {
				t.Errorf("expandPath(%q) = %q, want %q", tc.input, got, tc.want)
			}
		})
	}
}

func TestSaveAndLoad(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "nested", "config.toml")

	cfg := Default()
	cfg.Schedule.DayStart = "07:30"
	cfg.Schedule.Workdays = []string{"monday", "tuesday", "wednesday", "thursday"}
	cfg.Board.RefreshSchedule = "@every 1m"
	cfg.API.Token = "secret"

	if err := cfg.SaveTo(configPath); err != nil {
		t.Fatalf("failed to save config: %v", err)
	}

	info, err := os.Stat(configPath)
	if err != nil {
		t.Fatalf("stat: %v", err)
	}
	if perm := info.Mode().Perm(); perm != 0o600 {
		t.Errorf("config file mode = %o, want 600", perm)
	}

	loaded, err := LoadFrom(configPath)
	if err != nil {
		t.Fatalf("failed to load config: %v", err)
	}
	if loaded.Schedule.DayStart != "07:30" || len(loaded.Schedule.Workdays) != 4 {
		t.Errorf("schedule not round-tripped: %+v", loaded.Schedule)
	}
	if loaded.Board.RefreshSchedule != "@every 1m" || loaded.API.Token != "secret" {
		t.Errorf("board/api not round-tripped: %+v %+v", loaded.Board, loaded.API)
	}
}
