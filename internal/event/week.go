package event

import (
	"fmt"
	"time"

	"github.com/javiermolinar/orga/internal/dateutil"
)

// WeekDay is one column of the displayed week. It is derived, never stored.
type WeekDay struct {
	Label       string    // short weekday label, e.g. "Lun"
	DisplayDate string    // e.g. "11 Mar"
	ISODate     string    // YYYY-MM-DD from local calendar fields
	Date        time.Time // local midnight
}

var (
	shortWeekdays = [7]string{"Lun", "Mar", "Mer", "Jeu", "Ven", "Sam", "Dim"}
	longWeekdays  = [7]string{"Lundi", "Mardi", "Mercredi", "Jeudi", "Vendredi", "Samedi", "Dimanche"}
	shortMonths   = [12]string{"Jan", "Fév", "Mar", "Avr", "Mai", "Juin", "Juil", "Aoû", "Sep", "Oct", "Nov", "Déc"}
)

// ComputeWeekDays returns the 7 days, Monday through Sunday, of the week
// weekOffset weeks away from the week containing today.
func ComputeWeekDays(weekOffset int, today time.Time) [7]WeekDay {
	monday := dateutil.StartOfWeek(today).AddDate(0, 0, 7*weekOffset)

	var days [7]WeekDay
	for i := range days {
		d := monday.AddDate(0, 0, i)
		days[i] = WeekDay{
			Label:       shortWeekdays[i],
			DisplayDate: fmt.Sprintf("%d %s", d.Day(), shortMonths[d.Month()-1]),
			ISODate:     dateutil.FormatLocal(d),
			Date:        d,
		}
	}
	return days
}

// WeekBounds returns the Monday and Sunday of the week weekOffset weeks
// away from the week containing today.
func WeekBounds(weekOffset int, today time.Time) (monday, sunday time.Time) {
	days := ComputeWeekDays(weekOffset, today)
	return days[0].Date, days[6].Date
}

// DayIndex returns the Monday-based weekday index (0=Monday, 6=Sunday) of t.
func DayIndex(t time.Time) int {
	return (int(t.Weekday()) + 6) % 7
}

// WeekdayName returns the name of the weekday (0=Monday).
func WeekdayName(weekday int) string {
	if weekday < 0 || weekday > 6 {
		return ""
	}
	return longWeekdays[weekday]
}

// WeekdayShortName returns the short name of the weekday (0=Monday).
func WeekdayShortName(weekday int) string {
	if weekday < 0 || weekday > 6 {
		return ""
	}
	return shortWeekdays[weekday]
}

// Week groups scheduled events by the day they fall on.
type Week struct {
	Days   [7]WeekDay
	events [7][]*Event // sorted by StartTime
}

// NewWeek distributes events over the given days.
// Unscheduled events and events outside the week are ignored.
func NewWeek(days [7]WeekDay, events []*Event) *Week {
	w := &Week{Days: days}
	for _, e := range events {
		if e == nil || e.Date == nil {
			continue
		}
		for i, d := range days {
			if d.ISODate == e.ISODate() {
				w.events[i] = insertSorted(w.events[i], e)
				break
			}
		}
	}
	return w
}

// Day returns the events of the given weekday (0=Monday), sorted by start.
func (w *Week) Day(weekday int) []*Event {
	if weekday < 0 || weekday > 6 {
		return nil
	}
	result := make([]*Event, len(w.events[weekday]))
	copy(result, w.events[weekday])
	return result
}

// AllEvents returns all events, ordered by day then start time.
func (w *Week) AllEvents() []*Event {
	var result []*Event
	for i := range w.events {
		result = append(result, w.events[i]...)
	}
	return result
}

func insertSorted(events []*Event, e *Event) []*Event {
	start := TimeToMinutes(e.StartTime)
	i := len(events)
	for j, existing := range events {
		if TimeToMinutes(existing.StartTime) > start {
			i = j
			break
		}
	}
	events = append(events, nil)
	copy(events[i+1:], events[i:])
	events[i] = e
	return events
}
