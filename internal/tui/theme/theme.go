// Package theme provides color themes for the TUI.
package theme

import (
	"fmt"
	"os"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

// Theme holds all colors for a TUI theme.
type Theme struct {
	Name        string `toml:"name"`
	Bg          string `toml:"bg"`           // Base background
	BgHighlight string `toml:"bg_highlight"` // Grid cells, tray panel
	BgSelection string `toml:"bg_selection"` // Cursor, selection
	Fg          string `toml:"fg"`           // Primary foreground
	FgMuted     string `toml:"fg_muted"`     // Hour labels, muted elements
	Accent      string `toml:"accent"`       // Title, borders
	Warning     string `toml:"warning"`      // Pick-up mode, warning notices
	Error       string `toml:"error"`        // Error notices

	// Event tiles by status.
	Proposed    string `toml:"proposed"`
	Confirmed   string `toml:"confirmed"`
	Completed   string `toml:"completed"`
	Cancelled   string `toml:"cancelled"`
	Unscheduled string `toml:"unscheduled"`
}

// Built-in themes, Catppuccin flavours plus a plain light one.
var builtin = map[string]string{
	"mocha": `
name = "mocha"
bg = "#1e1e2e"
bg_highlight = "#313244"
bg_selection = "#45475a"
fg = "#cdd6f4"
fg_muted = "#7f849c"
accent = "#cba6f7"
warning = "#fab387"
error = "#f38ba8"
proposed = "#f9e2af"
confirmed = "#a6e3a1"
completed = "#89b4fa"
cancelled = "#f38ba8"
unscheduled = "#94e2d5"
`,
	"macchiato": `
name = "macchiato"
bg = "#24273a"
bg_highlight = "#363a4f"
bg_selection = "#494d64"
fg = "#cad3f5"
fg_muted = "#8087a2"
accent = "#c6a0f6"
warning = "#f5a97f"
error = "#ed8796"
proposed = "#eed49f"
confirmed = "#a6da95"
completed = "#8aadf4"
cancelled = "#ed8796"
unscheduled = "#8bd5ca"
`,
	"frappe": `
name = "frappe"
bg = "#303446"
bg_highlight = "#414559"
bg_selection = "#51576d"
fg = "#c6d0f5"
fg_muted = "#838ba7"
accent = "#ca9ee6"
warning = "#ef9f76"
error = "#e78284"
proposed = "#e5c890"
confirmed = "#a6d189"
completed = "#8caaee"
cancelled = "#e78284"
unscheduled = "#81c8be"
`,
	"latte": `
name = "latte"
bg = "#eff1f5"
bg_highlight = "#ccd0da"
bg_selection = "#bcc0cc"
fg = "#4c4f69"
fg_muted = "#8c8fa1"
accent = "#8839ef"
warning = "#fe640b"
error = "#d20f39"
proposed = "#df8e1d"
confirmed = "#40a02b"
completed = "#1e66f5"
cancelled = "#d20f39"
unscheduled = "#179299"
`,
	"light": `
name = "light"
bg = "#ffffff"
bg_highlight = "#eeeeee"
bg_selection = "#d0d0d0"
fg = "#222222"
fg_muted = "#777777"
accent = "#2e7d32"
warning = "#ef6c00"
error = "#c62828"
proposed = "#f9a825"
confirmed = "#2e7d32"
completed = "#1565c0"
cancelled = "#c62828"
unscheduled = "#00838f"
`,
}

// Load loads a built-in theme by name.
// Falls back to mocha if the theme is not found.
func Load(name string) (*Theme, error) {
	if name == "" {
		name = "mocha"
	}
	name = strings.ToLower(name)

	data, ok := builtin[name]
	if !ok {
		return Load("mocha")
	}
	return parse([]byte(data), name)
}

// LoadFile loads a theme from a TOML file. Missing colors are taken from mocha.
func LoadFile(path string) (*Theme, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading theme: %w", err)
	}
	t, err := parse(data, path)
	if err != nil {
		return nil, err
	}
	base, err := Load("mocha")
	if err != nil {
		return nil, err
	}
	t.fillFrom(base)
	return t, nil
}

func parse(data []byte, name string) (*Theme, error) {
	var t Theme
	if err := toml.Unmarshal(data, &t); err != nil {
		return nil, fmt.Errorf("parsing theme %q: %w", name, err)
	}
	return &t, nil
}

func (t *Theme) fillFrom(base *Theme) {
	fields := []struct {
		dst *string
		src string
	}{
		{&t.Bg, base.Bg},
		{&t.BgHighlight, base.BgHighlight},
		{&t.BgSelection, base.BgSelection},
		{&t.Fg, base.Fg},
		{&t.FgMuted, base.FgMuted},
		{&t.Accent, base.Accent},
		{&t.Warning, base.Warning},
		{&t.Error, base.Error},
		{&t.Proposed, base.Proposed},
		{&t.Confirmed, base.Confirmed},
		{&t.Completed, base.Completed},
		{&t.Cancelled, base.Cancelled},
		{&t.Unscheduled, base.Unscheduled},
	}
	for _, f := range fields {
		*f.dst = coalesce(*f.dst, f.src)
	}
}

func coalesce(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

// Available returns a list of available theme names.
func Available() []string {
	return []string{"mocha", "macchiato", "frappe", "latte", "light"}
}

// IsAvailable reports whether a theme name is available.
func IsAvailable(name string) bool {
	_, ok := builtin[strings.ToLower(name)]
	return ok
}
