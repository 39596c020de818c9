package theme

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoad(t *testing.T) {
	tests := []struct {
		themeName string
		wantName  string
	}{
		{"mocha", "mocha"},
		{"macchiato", "macchiato"},
		{"frappe", "frappe"},
		{"latte", "latte"},
		{"light", "light"},
		{"LATTE", "latte"},
		{"", "mocha"},
		{"nonexistent", "mocha"},
	}

	for _, tt := range tests {
		t.Run(tt.themeName, func(t *testing.T) {
			theme, err := Load(tt.themeName)
			if err != nil {
				t.Fatalf("Load(%q): %v", tt.themeName, err)
			}
			if theme.Name != tt.wantName {
				t.Errorf("Name = %q, want %q", theme.Name, tt.wantName)
			}
		})
	}
}

func TestBuiltinThemesComplete(t *testing.T) {
	for _, name := range Available() {
		theme, err := Load(name)
		if err != nil {
			t.Fatalf("Load(%q): %v", name, err)
		}
		colors := map[string]string{
			"bg": theme.Bg, "bg_highlight": theme.BgHighlight, "bg_selection": theme.BgSelection,
			"fg": theme.Fg, "fg_muted": theme.FgMuted, "accent": theme.Accent,
			"warning": theme.Warning, "error": theme.Error,
			"proposed": theme.Proposed, "confirmed": theme.Confirmed, "completed": theme.Completed,
			"cancelled": theme.Cancelled, "unscheduled": theme.Unscheduled,
		}
		for key, v := range colors {
			if len(v) != 7 || v[0] != '#' {
				t.Errorf("%s.%s = %q, want #rrggbb", name, key, v)
			}
		}
	}
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "custom.toml")
	data := "name = \"jardin\"\naccent = \"#2e7d32\"\n"
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		t.Fatalf("writing theme: %v", err)
	}

	theme, err := LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile: %v", err)
	}
	if theme.Name != "jardin" || theme.Accent != "#2e7d32" {
		t.Errorf("got name %q accent %q", theme.Name, theme.Accent)
	}
	if theme.Bg != "#1e1e2e" {
		t.Errorf("Bg = %q, want mocha fallback", theme.Bg)
	}

	if _, err := LoadFile(filepath.Join(t.TempDir(), "missing.toml")); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestIsAvailable(t *testing.T) {
	if !IsAvailable("Frappe") {
		t.Error("expected Frappe to be available")
	}
	if IsAvailable("dracula") {
		t.Error("expected dracula to be unavailable")
	}
}
