package scheduler

import (
	"testing"
	"time"
)

func crewWeek() *Scheduler {
	return New([]string{"monday", "tuesday", "wednesday", "thursday", "friday"}, "07:00", "18:00")
}

func TestNextAvailableStart(t *testing.T) {
	s := crewWeek()

	tests := []struct {
		name      string
		now       time.Time
		wantDate  string
		wantStart string
	}{
		{"before the crew starts", time.Date(2025, 1, 6, 6, 10, 0, 0, time.Local), "2025-01-06", "07:00"},
		{"during the day rounds up", time.Date(2025, 1, 6, 10, 23, 0, 0, time.Local), "2025-01-06", "10:30"},
		{"on a quarter hour", time.Date(2025, 1, 6, 10, 30, 0, 0, time.Local), "2025-01-06", "10:30"},
		{"last quarter rolls over", time.Date(2025, 1, 6, 17, 50, 0, 0, time.Local), "2025-01-07", "07:00"},
		{"after hours", time.Date(2025, 1, 6, 19, 0, 0, 0, time.Local), "2025-01-07", "07:00"},
		{"friday evening", time.Date(2025, 1, 10, 18, 30, 0, 0, time.Local), "2025-01-13", "07:00"},
		{"saturday", time.Date(2025, 1, 4, 10, 0, 0, 0, time.Local), "2025-01-06", "07:00"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			slot := s.NextAvailableStart(tt.now)
			if got := slot.Date.Format("2006-01-02"); got != tt.wantDate {
				t.Errorf("date = %s, want %s", got, tt.wantDate)
			}
			if slot.Start != tt.wantStart {
				t.Errorf("start = %s, want %s", slot.Start, tt.wantStart)
			}
			if slot.End != "18:00" {
				t.Errorf("end = %s, want 18:00", slot.End)
			}
		})
	}
}

func TestIsWorkday(t *testing.T) {
	s := New([]string{"Monday", "tuesday", "saturday"}, "", "")

	tests := []struct {
		date time.Time
		want bool
	}{
		{time.Date(2025, 1, 6, 10, 0, 0, 0, time.Local), true},
		{time.Date(2025, 1, 7, 10, 0, 0, 0, time.Local), true},
		{time.Date(2025, 1, 8, 10, 0, 0, 0, time.Local), false},
		{time.Date(2025, 1, 11, 10, 0, 0, 0, time.Local), true},
		{time.Date(2025, 1, 12, 10, 0, 0, 0, time.Local), false},
	}

	for _, tt := range tests {
		t.Run(tt.date.Weekday().String(), func(t *testing.T) {
			if got := s.IsWorkday(tt.date); got != tt.want {
				t.Errorf("IsWorkday(%s) = %v, want %v", tt.date.Weekday(), got, tt.want)
			}
		})
	}
}

func TestRoundUpTo15Min(t *testing.T) {
	tests := []struct {
		min, sec int
		want     string
	}{
		{0, 0, "10:00"},
		{1, 0, "10:15"},
		{15, 0, "10:15"},
		{16, 0, "10:30"},
		{46, 0, "11:00"},
		{0, 1, "10:15"},
	}

	for _, tt := range tests {
		in := time.Date(2025, 1, 6, 10, tt.min, tt.sec, 0, time.Local)
		t.Run(in.Format("15:04:05"), func(t *testing.T) {
			if got := roundUpTo15Min(in).Format("15:04"); got != tt.want {
				t.Errorf("roundUpTo15Min = %s, want %s", got, tt.want)
			}
		})
	}
}
