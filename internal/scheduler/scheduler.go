// Package scheduler provides time-aware scheduling logic for calendar events.
package scheduler

import (
	"sort"
	"strings"
	"time"

	"github.com/javiermolinar/orga/internal/event"
)

// slotSnap is the boundary a relocated start is rounded up to.
const slotSnap = 30

// Default working-day bounds.
const (
	DefaultDayStart = "07:00"
	DefaultDayEnd   = "20:00"
)

// Scheduler provides time-aware scheduling operations.
type Scheduler struct {
	workdays map[string]bool
	dayStart string // "HH:MM"
	dayEnd   string // "HH:MM"
}

// New creates a new Scheduler with the given configuration.
// Empty bounds fall back to DefaultDayStart and DefaultDayEnd.
func New(workdays []string, dayStart, dayEnd string) *Scheduler {
	wd := make(map[string]bool)
	for _, d := range workdays {
		wd[strings.ToLower(d)] = true
	}
	if dayStart == "" {
		dayStart = DefaultDayStart
	}
	if dayEnd == "" {
		dayEnd = DefaultDayEnd
	}
	return &Scheduler{
		workdays: wd,
		dayStart: dayStart,
		dayEnd:   dayEnd,
	}
}

// Booking is an occupied interval of a day.
type Booking struct {
	ID       string
	Start    string // "HH:MM"
	Duration int    // minutes
}

func (b Booking) startMinutes() int { return event.TimeToMinutes(b.Start) }
func (b Booking) endMinutes() int   { return event.TimeToMinutes(b.Start) + b.Duration }

// BookingsFor converts scheduled events to bookings.
func BookingsFor(events []*event.Event) []Booking {
	bookings := make([]Booking, 0, len(events))
	for _, e := range events {
		if e == nil || e.Date == nil || e.StartTime == "" {
			continue
		}
		bookings = append(bookings, Booking{ID: e.ID, Start: e.StartTime, Duration: e.Duration})
	}
	return bookings
}

type gap struct {
	start, end int
}

// FindAvailableSlot returns a start time for an item of the given duration
// that does not collide with any booking of the day.
//
// The requested start is kept when the day is empty or the slot is free.
// Otherwise the first gap long enough at or after the request is used, then
// the first one before it, counting from the start of the working day. A gap
// start is rounded up to the next half hour when the item still fits. When
// nothing fits, the latest booking end (rounded up) is returned, which may
// lie past the end of the working day. If that end falls past midnight, the
// first free half hour outside working hours is used instead, and 23:59
// only when the whole day is taken.
//
// excludeID removes the booking being repositioned from consideration.
func (s *Scheduler) FindAvailableSlot(bookings []Booking, requestedStart string, duration int, excludeID string) string {
	day := make([]Booking, 0, len(bookings))
	for _, b := range bookings {
		if excludeID != "" && b.ID == excludeID {
			continue
		}
		day = append(day, b)
	}
	if len(day) == 0 {
		return requestedStart
	}

	sort.SliceStable(day, func(i, j int) bool {
		return day[i].startMinutes() < day[j].startMinutes()
	})

	requested := event.TimeToMinutes(requestedStart)
	dayStart := event.TimeToMinutes(s.dayStart)
	dayEnd := event.TimeToMinutes(s.dayEnd)

	if isFree(day, requested, duration) {
		return requestedStart
	}

	var after []gap
	for i := 0; i < len(day)-1; i++ {
		currentEnd := day[i].endMinutes()
		nextStart := day[i+1].startMinutes()
		if nextStart > currentEnd && currentEnd >= requested {
			after = append(after, gap{start: currentEnd, end: nextStart})
		}
	}
	lastEnd := day[len(day)-1].endMinutes()
	if lastEnd < dayEnd && lastEnd >= requested {
		after = append(after, gap{start: lastEnd, end: dayEnd})
	}
	if start, ok := firstFit(after, duration); ok {
		return event.MinutesToTime(start)
	}

	var before []gap
	if firstStart := day[0].startMinutes(); firstStart > dayStart {
		before = append(before, gap{start: dayStart, end: firstStart})
	}
	for i := 0; i < len(day)-1; i++ {
		currentEnd := day[i].endMinutes()
		nextStart := day[i+1].startMinutes()
		if nextStart > currentEnd && currentEnd < requested {
			before = append(before, gap{start: currentEnd, end: nextStart})
		}
	}
	if start, ok := firstFit(before, duration); ok {
		return event.MinutesToTime(start)
	}

	latest := lastEnd
	for _, b := range day {
		latest = max(latest, b.endMinutes())
	}
	if fallback := event.CeilMinutes(latest, slotSnap); fallback < event.MinutesPerDay {
		return event.MinutesToTime(fallback)
	}
	if start, ok := outsideHours(day, dayStart, dayEnd, duration); ok {
		return event.MinutesToTime(start)
	}
	return event.MinutesToTime(event.MinutesPerDay - 1)
}

// outsideHours looks for a free start after the working day, then before
// it, once the bookings run past midnight.
func outsideHours(day []Booking, dayStart, dayEnd, duration int) (int, bool) {
	for m := event.CeilMinutes(dayEnd, slotSnap); m < event.MinutesPerDay; m += slotSnap {
		if isFree(day, m, duration) {
			return m, true
		}
	}
	for m := 0; m+duration <= dayStart; m += slotSnap {
		if isFree(day, m, duration) {
			return m, true
		}
	}
	return 0, false
}

// HasConflict reports whether [start, start+duration) collides with any
// booking other than excludeID.
func HasConflict(bookings []Booking, start string, duration int, excludeID string) bool {
	m := event.TimeToMinutes(start)
	for _, b := range bookings {
		if excludeID != "" && b.ID == excludeID {
			continue
		}
		if event.Overlaps(m, duration, b.startMinutes(), b.Duration) {
			return true
		}
	}
	return false
}

func isFree(day []Booking, start, duration int) bool {
	for _, b := range day {
		if event.Overlaps(start, duration, b.startMinutes(), b.Duration) {
			return false
		}
	}
	return true
}

// firstFit applies the snap-and-fit rule to the first gap long enough.
func firstFit(gaps []gap, duration int) (int, bool) {
	for _, g := range gaps {
		if g.end-g.start < duration {
			continue
		}
		snapped := event.CeilMinutes(g.start, slotSnap)
		if snapped+duration <= g.end {
			return snapped, true
		}
		return g.start, true
	}
	return 0, false
}

// AvailableSlot represents an available time slot for scheduling.
type AvailableSlot struct {
	Date  time.Time
	Start string // "HH:MM"
	End   string // "HH:MM"
}

// NextAvailableStart returns the next available start time for scheduling.
// If now is before dayStart, returns dayStart of today (if workday) or next workday.
// If now is during work hours, returns now (rounded to next 15 min).
// If now is after dayEnd, returns dayStart of next workday.
func (s *Scheduler) NextAvailableStart(now time.Time) AvailableSlot {
	nowTime := now.Format("15:04")
	weekday := strings.ToLower(now.Weekday().String())

	if s.workdays[weekday] {
		if nowTime < s.dayStart {
			return AvailableSlot{
				Date:  now,
				Start: s.dayStart,
				End:   s.dayEnd,
			}
		}
		if nowTime < s.dayEnd {
			start := roundUpTo15Min(now).Format("15:04")
			if start >= s.dayEnd {
				return s.nextWorkday(now)
			}
			return AvailableSlot{
				Date:  now,
				Start: start,
				End:   s.dayEnd,
			}
		}
	}

	return s.nextWorkday(now)
}

// nextWorkday finds the next workday starting from the day after the given time.
func (s *Scheduler) nextWorkday(from time.Time) AvailableSlot {
	next := from.AddDate(0, 0, 1)
	for range 7 {
		weekday := strings.ToLower(next.Weekday().String())
		if s.workdays[weekday] {
			return AvailableSlot{
				Date:  next,
				Start: s.dayStart,
				End:   s.dayEnd,
			}
		}
		next = next.AddDate(0, 0, 1)
	}
	// Fallback: should never happen if workdays is configured correctly
	return AvailableSlot{
		Date:  from.AddDate(0, 0, 1),
		Start: s.dayStart,
		End:   s.dayEnd,
	}
}

// IsWorkday returns true if the given time falls on a configured workday.
func (s *Scheduler) IsWorkday(t time.Time) bool {
	return s.workdays[strings.ToLower(t.Weekday().String())]
}

// WithinDay reports whether [start, start+duration) fits the working day.
func (s *Scheduler) WithinDay(start string, duration int) bool {
	m := event.TimeToMinutes(start)
	return m >= event.TimeToMinutes(s.dayStart) && m+duration <= event.TimeToMinutes(s.dayEnd)
}

// DayStart returns the configured day start time.
func (s *Scheduler) DayStart() string {
	return s.dayStart
}

// DayEnd returns the configured day end time.
func (s *Scheduler) DayEnd() string {
	return s.dayEnd
}

// roundUpTo15Min rounds a time up to the next 15-minute boundary.
func roundUpTo15Min(t time.Time) time.Time {
	minute := t.Minute()
	remainder := minute % 15
	if remainder == 0 && t.Second() == 0 && t.Nanosecond() == 0 {
		return t
	}
	return t.Add(time.Duration(15-remainder) * time.Minute).Truncate(time.Minute)
}
