package tui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/javiermolinar/orga/internal/board"
	"github.com/javiermolinar/orga/internal/event"
	"github.com/javiermolinar/orga/internal/tui/theme"
)

const (
	timeColumnWidth = 6
	minColWidth     = 10
	defaultColWidth = 16
	trayWidth       = 30
)

// Styles holds the lipgloss styles of the board, derived from a palette.
type Styles struct {
	palette *theme.Palette

	Title       lipgloss.Style
	DayHeader   lipgloss.Style
	DayToday    lipgloss.Style
	TimeColumn  lipgloss.Style
	EmptyCell   lipgloss.Style
	HourCell    lipgloss.Style
	Cursor      lipgloss.Style
	Ghost       lipgloss.Style
	TrayBox     lipgloss.Style
	TrayFocused lipgloss.Style
	TrayItem    lipgloss.Style
	TraySelect  lipgloss.Style
	Footer      lipgloss.Style
	Muted       lipgloss.Style
	Prompt      lipgloss.Style

	notice map[board.NoticeKind]lipgloss.Style
}

// NewStyles derives all styles from p.
func NewStyles(p *theme.Palette) *Styles {
	s := &Styles{palette: p}

	s.Title = lipgloss.NewStyle().Bold(true).Foreground(p.Accent)
	s.DayHeader = lipgloss.NewStyle().Bold(true).Foreground(p.Fg).Align(lipgloss.Center)
	s.DayToday = s.DayHeader.Foreground(p.TextOnAccent).Background(p.Accent)
	s.TimeColumn = lipgloss.NewStyle().Foreground(p.FgMuted).Width(timeColumnWidth)
	s.EmptyCell = lipgloss.NewStyle().Foreground(p.FgMuted)
	s.HourCell = lipgloss.NewStyle().Foreground(p.FgMuted).Background(p.BgHighlight)
	s.Cursor = lipgloss.NewStyle().Foreground(p.TextOnAccent).Background(p.Accent)
	s.Ghost = lipgloss.NewStyle().Foreground(p.Fg).Background(p.BgSelection).Italic(true)
	s.TrayBox = lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(p.FgMuted).
		Padding(0, 1)
	s.TrayFocused = s.TrayBox.BorderForeground(p.Accent)
	s.TrayItem = lipgloss.NewStyle().Foreground(p.Fg)
	s.TraySelect = lipgloss.NewStyle().Foreground(p.TextOnAccent).Background(p.Accent)
	s.Footer = lipgloss.NewStyle().Foreground(p.FgMuted)
	s.Muted = lipgloss.NewStyle().Foreground(p.FgMuted)
	s.Prompt = lipgloss.NewStyle().Foreground(p.Accent).Bold(true)

	s.notice = map[board.NoticeKind]lipgloss.Style{
		board.NoticeInfo:    lipgloss.NewStyle().Foreground(p.Fg),
		board.NoticeSuccess: lipgloss.NewStyle().Foreground(p.Accent),
		board.NoticeWarning: lipgloss.NewStyle().Foreground(p.TextOnWarning).Background(p.Warning),
		board.NoticeError:   lipgloss.NewStyle().Foreground(p.Error).Bold(true),
	}
	return s
}

// Tile returns the style of an event tile. alt selects the alternate shade
// used for consecutive tiles of the same day.
func (s *Styles) Tile(status event.Status, alt bool) lipgloss.Style {
	t := s.palette.Tile(status)
	bg := t.Bg
	if alt {
		bg = t.BgAlt
	}
	return lipgloss.NewStyle().
		Foreground(t.Fg).
		Background(bg).
		Border(lipgloss.Border{Left: "▌"}, false, false, false, true).
		BorderForeground(t.Border).
		BorderBackground(bg)
}

// Notice returns the status-line style for a notice kind.
func (s *Styles) Notice(kind board.NoticeKind) lipgloss.Style {
	if st, ok := s.notice[kind]; ok {
		return st
	}
	return s.notice[board.NoticeInfo]
}

// fit pads or truncates text to exactly width cells.
func fit(text string, width int) string {
	if width <= 0 {
		return ""
	}
	w := lipgloss.Width(text)
	if w > width {
		return truncate(text, width)
	}
	return text + strings.Repeat(" ", width-w)
}
