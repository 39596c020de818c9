package event

import (
	"fmt"
	"time"
)

// Grid resolutions in minutes.
const (
	// PointerResolution is the granularity of pointer-driven placement
	// within an hour cell.
	PointerResolution = 15
	// DropSnap is the default granularity a dropped time is snapped to.
	DropSnap = 30
	// MinutesPerDay bounds valid minute offsets.
	MinutesPerDay = 24 * 60
)

// TimeToMinutes converts "HH:MM" to minutes since midnight.
// Returns 0 for anything that is not a valid time of day; use ParseTime at
// boundaries that need to report the error.
func TimeToMinutes(t string) int {
	if len(t) != 5 || t[2] != ':' || !isDigit(t[0]) || !isDigit(t[1]) || !isDigit(t[3]) || !isDigit(t[4]) {
		return 0
	}
	hours := int(t[0]-'0')*10 + int(t[1]-'0')
	mins := int(t[3]-'0')*10 + int(t[4]-'0')
	if hours > 23 || mins > 59 {
		return 0
	}
	return hours*60 + mins
}

func isDigit(c byte) bool { return c >= '0' && c <= '9' }

// MinutesToTime converts minutes since midnight to "HH:MM" format.
func MinutesToTime(m int) string {
	if m < 0 {
		m = 0
	}
	if m >= MinutesPerDay {
		m = MinutesPerDay - 1
	}
	return fmt.Sprintf("%02d:%02d", m/60, m%60)
}

// ValidateTime checks that s is a "HH:MM" time of day.
func ValidateTime(s string) error {
	if len(s) != 5 || s[2] != ':' {
		return ErrInvalidTimeFormat
	}
	if _, err := time.Parse("15:04", s); err != nil {
		return ErrInvalidTimeFormat
	}
	return nil
}

// ParseTime validates s and returns its minute offset.
func ParseTime(s string) (int, error) {
	if err := ValidateTime(s); err != nil {
		return 0, fmt.Errorf("%w: %q", err, s)
	}
	return TimeToMinutes(s), nil
}

// MustTimeToMinutes is like ParseTime but panics on malformed input.
// It is meant for values already validated at a boundary.
func MustTimeToMinutes(s string) int {
	m, err := ParseTime(s)
	if err != nil {
		panic(err)
	}
	return m
}

// SnapMinutes rounds m to the nearest multiple of resolution; halves round up.
func SnapMinutes(m, resolution int) int {
	if resolution <= 0 {
		return m
	}
	return (m + resolution/2) / resolution * resolution
}

// CeilMinutes rounds m up to the next multiple of resolution.
func CeilMinutes(m, resolution int) int {
	if resolution <= 0 {
		return m
	}
	return (m + resolution - 1) / resolution * resolution
}

// SnapToGrid rounds a "HH:MM" time to the nearest grid line.
func SnapToGrid(t string, resolution int) string {
	return MinutesToTime(SnapMinutes(TimeToMinutes(t), resolution))
}

// Overlaps reports whether [startA, startA+durA) and [startB, startB+durB)
// intersect. Touching intervals do not overlap.
func Overlaps(startA, durA, startB, durB int) bool {
	return startA < startB+durB && startA+durA > startB
}
