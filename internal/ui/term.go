package ui

import (
	"os"

	"github.com/fatih/color"
	"golang.org/x/term"

	"github.com/javiermolinar/orga/internal/board"
	"github.com/javiermolinar/orga/internal/event"
)

// Color definitions for consistent styling across the CLI.
var (
	colorHeader = color.New(color.Bold)
	colorMuted  = color.New(color.FgWhite, color.Faint)
	colorStats  = color.New(color.FgGreen)

	colorStatus = map[event.Status]*color.Color{
		event.StatusUnscheduled: color.New(color.FgCyan),
		event.StatusProposed:    color.New(color.FgYellow),
		event.StatusConfirmed:   color.New(color.FgGreen, color.Bold),
		event.StatusCompleted:   color.New(color.FgBlue, color.Faint),
		event.StatusCancelled:   color.New(color.FgRed, color.Faint),
	}

	colorNotice = map[board.NoticeKind]*color.Color{
		board.NoticeInfo:    color.New(color.FgWhite),
		board.NoticeSuccess: color.New(color.FgGreen),
		board.NoticeWarning: color.New(color.FgYellow),
		board.NoticeError:   color.New(color.FgRed, color.Bold),
	}
)

// termWidth returns the terminal width, or a default if detection fails.
func termWidth() int {
	width, _, err := term.GetSize(int(os.Stdout.Fd()))
	if err != nil || width <= 0 {
		return 80
	}
	return width
}

// DisableColor disables all color output.
func DisableColor() {
	color.NoColor = true
}

func formatHeader(s string) string { return colorHeader.Sprint(s) }
func formatMuted(s string) string  { return colorMuted.Sprint(s) }
func formatStats(s string) string  { return colorStats.Sprint(s) }

// formatStatus renders a status label in its color.
func formatStatus(s event.Status) string {
	if c, ok := colorStatus[s]; ok {
		return c.Sprint(s.Label())
	}
	return s.Label()
}

func formatNotice(n board.Notice) string {
	text := n.Title
	if n.Detail != "" {
		text += ": " + n.Detail
	}
	if c, ok := colorNotice[n.Kind]; ok {
		return c.Sprint(text)
	}
	return text
}
