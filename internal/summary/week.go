// Package summary provides shared week summary utilities.
package summary

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/javiermolinar/orga/internal/event"
	"github.com/javiermolinar/orga/internal/scheduler"
)

// Stats aggregates the scheduled events of a week.
type Stats struct {
	Total         int
	ByStatus      map[event.Status]int
	ByType        map[event.Type]int
	BookedMinutes [7]int // per day, Monday first
	TotalMinutes  int
	// Overflowing lists the days with a booking past the end of the working day.
	Overflowing []int
}

// WeekSummary holds aggregated week data.
type WeekSummary struct {
	Days        [7]event.WeekDay
	Week        *event.Week
	Unscheduled []*event.Event
	Stats       Stats
}

// BuildWeekSummaryOptions configures the repository-backed summary builder.
type BuildWeekSummaryOptions struct {
	WeekOffset int
	Now        time.Time
	Scheduler  *scheduler.Scheduler
}

// SummarizeWeek builds week summary data from the events of a displayed week.
// Events outside days are ignored.
func SummarizeWeek(days [7]event.WeekDay, scheduled, unscheduled []*event.Event, sched *scheduler.Scheduler) *WeekSummary {
	if sched == nil {
		sched = scheduler.New(nil, "", "")
	}

	week := event.NewWeek(days, scheduled)
	stats := Stats{
		ByStatus: make(map[event.Status]int),
		ByType:   make(map[event.Type]int),
	}
	dayEnd := event.TimeToMinutes(sched.DayEnd())

	for i := range days {
		overflow := false
		for _, e := range week.Day(i) {
			stats.Total++
			stats.ByStatus[e.Status]++
			stats.ByType[e.Type]++
			stats.BookedMinutes[i] += e.Duration
			stats.TotalMinutes += e.Duration
			if event.TimeToMinutes(e.StartTime)+e.Duration > dayEnd {
				overflow = true
			}
		}
		if overflow {
			stats.Overflowing = append(stats.Overflowing, i)
		}
	}

	return &WeekSummary{
		Days:        days,
		Week:        week,
		Unscheduled: unscheduled,
		Stats:       stats,
	}
}

// BuildWeekSummary loads the requested week from repo and summarizes it.
func BuildWeekSummary(ctx context.Context, repo event.Repository, opts BuildWeekSummaryOptions) (*WeekSummary, error) {
	now := opts.Now
	if now.IsZero() {
		now = time.Now()
	}

	days := event.ComputeWeekDays(opts.WeekOffset, now)
	scheduled, err := repo.ListEvents(ctx, event.Filter{Start: days[0].Date, End: days[6].Date})
	if err != nil {
		return nil, fmt.Errorf("fetching events: %w", err)
	}
	unscheduled, err := repo.ListUnscheduled(ctx)
	if err != nil {
		return nil, fmt.Errorf("fetching unscheduled events: %w", err)
	}

	return SummarizeWeek(days, scheduled, unscheduled, opts.Scheduler), nil
}

// Text renders the summary as plain text, suitable for the clipboard.
func (w *WeekSummary) Text() string {
	var b strings.Builder
	fmt.Fprintf(&b, "Planning du %s au %s\n", w.Days[0].DisplayDate, w.Days[6].DisplayDate)

	for i, d := range w.Days {
		events := w.Week.Day(i)
		if len(events) == 0 {
			continue
		}
		fmt.Fprintf(&b, "\n%s %s (%s)\n", event.WeekdayName(i), d.DisplayDate, FormatMinutes(w.Stats.BookedMinutes[i]))
		for _, e := range events {
			fmt.Fprintf(&b, "  %s-%s  %s [%s]\n", e.StartTime, e.EndTime(), Title(e), e.Status.Label())
		}
	}

	if len(w.Unscheduled) > 0 {
		fmt.Fprintf(&b, "\nÀ planifier (%d)\n", len(w.Unscheduled))
		for _, e := range w.Unscheduled {
			fmt.Fprintf(&b, "  %s  %s\n", Title(e), FormatMinutes(e.Duration))
		}
	}

	fmt.Fprintf(&b, "\nTotal: %d intervention(s), %s, %d proposé(s), %d confirmé(s)\n",
		w.Stats.Total, FormatMinutes(w.Stats.TotalMinutes),
		w.Stats.ByStatus[event.StatusProposed], w.Stats.ByStatus[event.StatusConfirmed])
	return b.String()
}

// Title returns the display title of an event, prefixed by its client.
func Title(e *event.Event) string {
	switch {
	case e.ClientName != "" && e.Title != "":
		return e.ClientName + " - " + e.Title
	case e.ClientName != "":
		return e.ClientName
	default:
		return e.Title
	}
}

// FormatMinutes renders a duration as "1h30", "2h" or "45min".
func FormatMinutes(m int) string {
	switch {
	case m < 60:
		return fmt.Sprintf("%dmin", m)
	case m%60 == 0:
		return fmt.Sprintf("%dh", m/60)
	default:
		return fmt.Sprintf("%dh%02d", m/60, m%60)
	}
}
