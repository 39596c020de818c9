// Package ics exports the scheduled events of a week as an iCalendar feed.
package ics

import (
	"fmt"
	"io"
	"time"

	ical "github.com/arran4/golang-ical"

	"github.com/javiermolinar/orga/internal/event"
	"github.com/javiermolinar/orga/internal/summary"
)

// ProductID identifies the generator in exported calendars.
const ProductID = "-//orga//planning hebdomadaire//FR"

// Options tunes the export.
type Options struct {
	// Now stamps DTSTAMP. Defaults to time.Now.
	Now func() time.Time
	// UIDDomain is appended to event IDs to build UIDs.
	UIDDomain string
}

// ExportWeek writes the scheduled events that fall on one of days as a
// VCALENDAR document. Unscheduled events are skipped.
func ExportWeek(w io.Writer, days [7]event.WeekDay, events []*event.Event, opts Options) error {
	now := time.Now
	if opts.Now != nil {
		now = opts.Now
	}
	domain := opts.UIDDomain
	if domain == "" {
		domain = "orga"
	}

	inWeek := make(map[string]bool, len(days))
	for _, d := range days {
		inWeek[d.ISODate] = true
	}

	cal := ical.NewCalendar()
	cal.SetMethod(ical.MethodPublish)
	cal.SetProductId(ProductID)
	cal.SetName(fmt.Sprintf("Planning %s - %s", days[0].DisplayDate, days[6].DisplayDate))

	stamp := now().UTC()
	for _, e := range events {
		if e == nil || e.Date == nil || e.StartTime == "" || !inWeek[e.ISODate()] {
			continue
		}
		start, err := startOf(e)
		if err != nil {
			return fmt.Errorf("event %s: %w", e.ID, err)
		}

		ve := cal.AddEvent(e.ID + "@" + domain)
		ve.SetDtStampTime(stamp)
		if !e.CreatedAt.IsZero() {
			ve.SetCreatedTime(e.CreatedAt.UTC())
		}
		ve.SetStartAt(start.UTC())
		ve.SetEndAt(start.Add(time.Duration(e.Duration) * time.Minute).UTC())
		ve.SetSummary(summary.Title(e))
		if e.Location != "" {
			ve.SetLocation(e.Location)
		}
		if e.Description != "" {
			ve.SetDescription(e.Description)
		}
		ve.SetStatus(statusOf(e.Status))
		ve.AddProperty(ical.ComponentPropertyCategories, string(e.Type))
	}

	if _, err := io.WriteString(w, cal.Serialize()); err != nil {
		return fmt.Errorf("writing calendar: %w", err)
	}
	return nil
}

func startOf(e *event.Event) (time.Time, error) {
	m, err := event.ParseTime(e.StartTime)
	if err != nil {
		return time.Time{}, err
	}
	d := *e.Date
	return time.Date(d.Year(), d.Month(), d.Day(), m/60, m%60, 0, 0, d.Location()), nil
}

func statusOf(s event.Status) ical.ObjectStatus {
	switch s {
	case event.StatusConfirmed, event.StatusCompleted:
		return ical.ObjectStatusConfirmed
	case event.StatusCancelled:
		return ical.ObjectStatusCancelled
	default:
		return ical.ObjectStatusTentative
	}
}
