package ui

import (
	"fmt"
	"io"
	"slices"

	"github.com/charmbracelet/x/ansi"

	"github.com/javiermolinar/orga/internal/board"
	"github.com/javiermolinar/orga/internal/event"
	"github.com/javiermolinar/orga/internal/summary"
)

// printWeek writes a colored rendition of w, one block per day with at
// least one event, followed by the tray and the totals.
func printWeek(out io.Writer, w *summary.WeekSummary, width int) {
	fmt.Fprintln(out, formatHeader(fmt.Sprintf("Semaine du %s au %s", w.Days[0].DisplayDate, w.Days[6].DisplayDate)))

	empty := true
	for i, d := range w.Days {
		events := w.Week.Day(i)
		if len(events) == 0 {
			continue
		}
		empty = false

		title := fmt.Sprintf("%s %s", event.WeekdayName(i), d.DisplayDate)
		booked := formatMuted(summary.FormatMinutes(w.Stats.BookedMinutes[i]))
		if slices.Contains(w.Stats.Overflowing, i) {
			booked += " " + colorNotice[board.NoticeWarning].Sprint("dépasse la journée")
		}
		fmt.Fprintf(out, "\n%s  %s\n", formatHeader(title), booked)
		for _, e := range events {
			printEventRow(out, e, width)
		}
	}
	if empty {
		fmt.Fprintln(out, formatMuted("\nAucune intervention programmée"))
	}

	if len(w.Unscheduled) > 0 {
		fmt.Fprintf(out, "\n%s\n", formatHeader(fmt.Sprintf("À programmer (%d)", len(w.Unscheduled))))
		for _, e := range w.Unscheduled {
			line := fmt.Sprintf("    %s  %s", formatMuted(shortID(e.ID)), summary.Title(e))
			fmt.Fprintf(out, "%s  %s\n", truncateLine(line, width-8), formatMuted(summary.FormatMinutes(e.Duration)))
		}
	}

	fmt.Fprintln(out)
	fmt.Fprintln(out, formatStats(fmt.Sprintf("Total: %d intervention(s), %s", w.Stats.Total, summary.FormatMinutes(w.Stats.TotalMinutes)))+
		" | "+formatStatusCount(w, event.StatusProposed)+
		" | "+formatStatusCount(w, event.StatusConfirmed))
}

// printEventRow prints "HH:MM-HH:MM  id  Title [status]" truncated to width.
func printEventRow(out io.Writer, e *event.Event, width int) {
	line := fmt.Sprintf("    %s-%s  %s  %s", e.StartTime, e.EndTime(), formatMuted(shortID(e.ID)), summary.Title(e))
	if e.Location != "" {
		line += formatMuted(" @ " + e.Location)
	}
	status := "[" + formatStatus(e.Status) + "]"
	fmt.Fprintf(out, "%s %s\n", truncateLine(line, width-ansi.StringWidth(status)-1), status)
}

func formatStatusCount(w *summary.WeekSummary, s event.Status) string {
	return formatStatus(s) + ": " + fmt.Sprint(w.Stats.ByStatus[s])
}

// truncateLine cuts an ANSI-colored line to width cells.
func truncateLine(s string, width int) string {
	if width <= 0 {
		return s
	}
	return ansi.Truncate(s, width, "…")
}
