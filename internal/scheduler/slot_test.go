package scheduler

import (
	"testing"
	"time"

	"github.com/javiermolinar/orga/internal/event"
)

func mustDate(t *testing.T, s string) time.Time {
	t.Helper()
	d, err := time.ParseInLocation("2006-01-02", s, time.Local)
	if err != nil {
		t.Fatalf("failed to parse date %q: %v", s, err)
	}
	return d
}

func newWorkday() *Scheduler {
	return New([]string{"monday", "tuesday", "wednesday", "thursday", "friday"}, "07:00", "20:00")
}

func TestFindAvailableSlot(t *testing.T) {
	tests := []struct {
		name      string
		bookings  []Booking
		requested string
		duration  int
		excludeID string
		want      string
	}{
		{
			name:      "empty day keeps request",
			requested: "14:00", duration: 30,
			want: "14:00",
		},
		{
			name:      "only booking excluded keeps request",
			bookings:  []Booking{{ID: "a", Start: "09:00", Duration: 60}},
			requested: "09:30", duration: 60, excludeID: "a",
			want: "09:30",
		},
		{
			name:      "free slot keeps request",
			bookings:  []Booking{{ID: "a", Start: "09:00", Duration: 60}},
			requested: "11:00", duration: 30,
			want: "11:00",
		},
		{
			name:      "touching intervals do not conflict",
			bookings:  []Booking{{ID: "a", Start: "09:00", Duration: 60}},
			requested: "10:00", duration: 60,
			want: "10:00",
		},
		{
			name:      "conflict moves to end of blocking booking",
			bookings:  []Booking{{ID: "a", Start: "09:00", Duration: 60}},
			requested: "09:30", duration: 60,
			want: "10:00",
		},
		{
			name: "gap start snapped up to half hour",
			bookings: []Booking{
				{ID: "a", Start: "08:00", Duration: 50},
				{ID: "b", Start: "11:00", Duration: 60},
			},
			requested: "08:30", duration: 60,
			want: "09:00",
		},
		{
			name: "raw gap start when snapped start does not fit",
			bookings: []Booking{
				{ID: "a", Start: "08:00", Duration: 50},
				{ID: "b", Start: "09:55", Duration: 60},
			},
			requested: "08:30", duration: 60,
			want: "08:50",
		},
		{
			name: "gap too short is skipped",
			bookings: []Booking{
				{ID: "a", Start: "08:00", Duration: 60},
				{ID: "b", Start: "09:30", Duration: 60},
			},
			requested: "08:30", duration: 60,
			want: "10:30",
		},
		{
			name: "falls back to morning gap before request",
			bookings: []Booking{
				{ID: "a", Start: "07:30", Duration: 60},
				{ID: "b", Start: "09:00", Duration: 660},
			},
			requested: "10:00", duration: 30,
			want: "07:00",
		},
		{
			name: "falls back to gap between earlier bookings",
			bookings: []Booking{
				{ID: "a", Start: "07:00", Duration: 90},
				{ID: "b", Start: "09:30", Duration: 630},
			},
			requested: "12:00", duration: 60,
			want: "08:30",
		},
		{
			name:      "fully booked day overflows to day end",
			bookings:  []Booking{{ID: "a", Start: "07:00", Duration: 780}},
			requested: "10:00", duration: 60,
			want: "20:00",
		},
		{
			name:      "short tail gap overflows rounded up",
			bookings:  []Booking{{ID: "a", Start: "07:00", Duration: 765}},
			requested: "09:00", duration: 60,
			want: "20:00",
		},
		{
			name: "unsorted bookings are ordered first",
			bookings: []Booking{
				{ID: "b", Start: "13:00", Duration: 60},
				{ID: "a", Start: "09:00", Duration: 120},
			},
			requested: "10:00", duration: 120,
			want: "11:00",
		},
	}

	s := newWorkday()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := s.FindAvailableSlot(tt.bookings, tt.requested, tt.duration, tt.excludeID)
			if got != tt.want {
				t.Errorf("FindAvailableSlot(%q, %d) = %q, want %q", tt.requested, tt.duration, got, tt.want)
			}
		})
	}
}

func TestFindAvailableSlot_NeverCollides(t *testing.T) {
	s := newWorkday()
	bookings := []Booking{
		{ID: "a", Start: "07:00", Duration: 45},
		{ID: "b", Start: "08:15", Duration: 90},
		{ID: "c", Start: "11:00", Duration: 30},
		{ID: "d", Start: "13:00", Duration: 240},
		{ID: "e", Start: "18:00", Duration: 60},
	}

	for _, duration := range []int{15, 30, 60, 120, 180} {
		for m := event.TimeToMinutes("07:00"); m < event.TimeToMinutes("20:00"); m += 15 {
			requested := event.MinutesToTime(m)
			got := s.FindAvailableSlot(bookings, requested, duration, "")
			if HasConflict(bookings, got, duration, "") {
				t.Errorf("request %s/%d resolved to %s which collides", requested, duration, got)
			}
		}
	}
}

func TestFindAvailableSlot_FullDayNeverBeforeDayEnd(t *testing.T) {
	s := newWorkday()
	bookings := []Booking{
		{ID: "a", Start: "07:00", Duration: 360},
		{ID: "b", Start: "13:00", Duration: 420},
	}

	for m := event.TimeToMinutes("07:00"); m < event.TimeToMinutes("20:00"); m += 30 {
		got := s.FindAvailableSlot(bookings, event.MinutesToTime(m), 30, "")
		if got < "20:00" {
			t.Errorf("request %s resolved to %s, want at or after 20:00", event.MinutesToTime(m), got)
		}
	}
}

func TestHasConflict(t *testing.T) {
	bookings := []Booking{{ID: "a", Start: "09:00", Duration: 60}}

	tests := []struct {
		name      string
		start     string
		duration  int
		excludeID string
		want      bool
	}{
		{"before", "08:00", 60, "", false},
		{"overlapping start", "08:30", 60, "", true},
		{"inside", "09:15", 15, "", true},
		{"after", "10:00", 30, "", false},
		{"excluded", "09:00", 60, "a", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := HasConflict(bookings, tt.start, tt.duration, tt.excludeID); got != tt.want {
				t.Errorf("HasConflict(%s, %d) = %v, want %v", tt.start, tt.duration, got, tt.want)
			}
		})
	}
}

func TestBookingsFor(t *testing.T) {
	date := mustDate(t, "2024-03-12")
	events := []*event.Event{
		{ID: "a", Date: &date, StartTime: "09:00", Duration: 60},
		{ID: "b", Duration: 30, Status: event.StatusUnscheduled},
		nil,
	}

	got := BookingsFor(events)
	if len(got) != 1 || got[0].ID != "a" || got[0].Start != "09:00" || got[0].Duration != 60 {
		t.Errorf("BookingsFor = %+v, want single booking a 09:00/60", got)
	}
}

func TestWithinDay(t *testing.T) {
	s := newWorkday()
	if !s.WithinDay("07:00", 780) {
		t.Error("expected full working day to fit")
	}
	if s.WithinDay("19:30", 60) {
		t.Error("expected 19:30+60 to exceed day end")
	}
	if s.WithinDay("06:30", 30) {
		t.Error("expected 06:30 to start before day start")
	}
}

func TestNew_DefaultBounds(t *testing.T) {
	s := New(nil, "", "")
	if s.DayStart() != DefaultDayStart || s.DayEnd() != DefaultDayEnd {
		t.Errorf("bounds = %s-%s, want %s-%s", s.DayStart(), s.DayEnd(), DefaultDayStart, DefaultDayEnd)
	}
}

func TestFindAvailableSlot_PastMidnight(t *testing.T) {
	s := newWorkday()

	tests := []struct {
		name     string
		bookings []Booking
		duration int
		want     string
	}{
		{
			name: "early morning when the evening is taken",
			bookings: []Booking{
				{ID: "a", Start: "07:00", Duration: 900},
				{ID: "b", Start: "22:00", Duration: 150},
			},
			duration: 60,
			want:     "00:00",
		},
		{
			name: "longest booking wins over the last one",
			bookings: []Booking{
				{ID: "a", Start: "07:00", Duration: 900},
				{ID: "b", Start: "19:30", Duration: 30},
			},
			duration: 60,
			want:     "22:00",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := s.FindAvailableSlot(tt.bookings, "10:00", tt.duration, "")
			if got != tt.want {
				t.Errorf("FindAvailableSlot = %q, want %q", got, tt.want)
			}
			if HasConflict(tt.bookings, got, tt.duration, "") {
				t.Errorf("FindAvailableSlot = %q collides with a booking", got)
			}
		})
	}
}
