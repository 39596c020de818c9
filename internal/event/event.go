// Package event defines the core domain types for orga.
package event

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/javiermolinar/orga/internal/dateutil"
)

// Validation errors.
var (
	ErrEmptyTitle        = errors.New("title cannot be empty")
	ErrInvalidType       = errors.New("event type must be one of chantier, rdv, prospection, autre")
	ErrInvalidStatus     = errors.New("invalid event status")
	ErrInvalidTimeFormat = errors.New("time must be in HH:MM format")
	ErrInvalidDuration   = errors.New("duration must be a positive number of minutes")
	ErrStartWithoutDate  = errors.New("start time requires a date")
)

// Domain errors.
var (
	ErrEventNotFound  = errors.New("event not found")
	ErrClientNotFound = errors.New("client not found")
	ErrOverlap        = errors.New("event overlaps with an existing booking")
)

// Type categorizes an event. It has no effect on scheduling.
type Type string

const (
	TypeChantier    Type = "chantier"
	TypeRdv         Type = "rdv"
	TypeProspection Type = "prospection"
	TypeAutre       Type = "autre"
)

// ParseType validates an event type name.
func ParseType(s string) (Type, error) {
	switch Type(strings.ToLower(strings.TrimSpace(s))) {
	case TypeChantier:
		return TypeChantier, nil
	case TypeRdv:
		return TypeRdv, nil
	case TypeProspection:
		return TypeProspection, nil
	case TypeAutre:
		return TypeAutre, nil
	default:
		return "", ErrInvalidType
	}
}

// Label returns the display name of the type.
func (t Type) Label() string {
	switch t {
	case TypeChantier:
		return "Chantier"
	case TypeRdv:
		return "Rendez-vous"
	case TypeProspection:
		return "Prospection"
	case TypeAutre:
		return "Autre"
	default:
		return string(t)
	}
}

// Status represents the scheduling state of an event.
type Status string

const (
	StatusUnscheduled Status = "unscheduled"
	StatusProposed    Status = "proposed"
	StatusConfirmed   Status = "confirmed"
	StatusCompleted   Status = "completed"
	StatusCancelled   Status = "cancelled"
)

// ParseStatus validates a status name.
func ParseStatus(s string) (Status, error) {
	switch Status(strings.ToLower(strings.TrimSpace(s))) {
	case StatusUnscheduled:
		return StatusUnscheduled, nil
	case StatusProposed:
		return StatusProposed, nil
	case StatusConfirmed:
		return StatusConfirmed, nil
	case StatusCompleted:
		return StatusCompleted, nil
	case StatusCancelled:
		return StatusCancelled, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidStatus, s)
	}
}

// Label returns the display name of the status.
func (s Status) Label() string {
	switch s {
	case StatusUnscheduled:
		return "à planifier"
	case StatusProposed:
		return "proposé"
	case StatusConfirmed:
		return "confirmé"
	case StatusCompleted:
		return "terminé"
	case StatusCancelled:
		return "annulé"
	default:
		return string(s)
	}
}

// Terminal reports whether no scheduling gesture may leave this status.
func (s Status) Terminal() bool {
	return s == StatusCompleted || s == StatusCancelled
}

// CanTransition reports whether the board may move an event from one status
// to another through drag, drop or confirm. Terminal states are only reached
// through an explicit status change and never left by a gesture.
func CanTransition(from, to Status) bool {
	switch {
	case from == StatusUnscheduled && to == StatusProposed:
		return true
	case from == StatusProposed && to == StatusConfirmed:
		return true
	case from == StatusConfirmed && to == StatusProposed:
		return true
	case (from == StatusProposed || from == StatusConfirmed) && to == StatusUnscheduled:
		return true
	default:
		return false
	}
}

// Event is a single entry of the scheduling board.
type Event struct {
	ID                    string
	Type                  Type
	ClientID              string
	ClientName            string
	DayIndex              int        // 0=Monday, 6=Sunday; derived from Date
	Date                  *time.Time // nil means unscheduled
	StartTime             string     // "HH:MM", empty when Date is nil
	Duration              int        // minutes
	Status                Status
	Title                 string
	Description           string
	Location              string
	Notes                 string
	IsRecurring           bool
	DaysSinceLastChantier *int
	CreatedAt             time.Time
}

// IsScheduled returns true if the event has a date on the calendar.
func (e *Event) IsScheduled() bool {
	return e.Date != nil
}

// EndTime returns the "HH:MM" end of a scheduled event.
func (e *Event) EndTime() string {
	if e.StartTime == "" {
		return ""
	}
	return MinutesToTime(TimeToMinutes(e.StartTime) + e.Duration)
}

// ISODate returns the date as YYYY-MM-DD, or an empty string when unscheduled.
func (e *Event) ISODate() string {
	if e.Date == nil {
		return ""
	}
	return e.Date.Format(dateutil.ISOLayout)
}

// Clone returns a deep copy of the event.
func (e *Event) Clone() *Event {
	if e == nil {
		return nil
	}
	c := *e
	if e.Date != nil {
		d := *e.Date
		c.Date = &d
	}
	if e.DaysSinceLastChantier != nil {
		n := *e.DaysSinceLastChantier
		c.DaysSinceLastChantier = &n
	}
	return &c
}

// OverlapsWith returns true if both events are scheduled on the same date
// and their [start, start+duration) intervals intersect.
func (e *Event) OverlapsWith(other *Event) bool {
	if other == nil || e.Date == nil || other.Date == nil {
		return false
	}
	if !e.Date.Equal(*other.Date) {
		return false
	}
	return Overlaps(TimeToMinutes(e.StartTime), e.Duration, TimeToMinutes(other.StartTime), other.Duration)
}

// Draft holds the fields needed to create an event.
type Draft struct {
	Type        Type
	Title       string
	ClientID    string
	Location    string
	Description string
	Notes       string
	Duration    int
	Date        *time.Time
	StartTime   string
	Status      Status
}

// NewDraft creates a validated Draft.
// date and start may both be empty, which makes the draft unscheduled.
// The initial status defaults to proposed when scheduled, unscheduled otherwise.
func NewDraft(eventType, title, clientID, date, start string, duration int) (*Draft, error) {
	if strings.TrimSpace(title) == "" {
		return nil, ErrEmptyTitle
	}

	typ, err := ParseType(eventType)
	if err != nil {
		return nil, err
	}

	if duration <= 0 {
		return nil, ErrInvalidDuration
	}

	d := &Draft{
		Type:      typ,
		Title:     strings.TrimSpace(title),
		ClientID:  clientID,
		Duration:  duration,
		StartTime: start,
		Status:    StatusUnscheduled,
	}

	if date == "" {
		if start != "" {
			return nil, ErrStartWithoutDate
		}
		return d, nil
	}

	parsed, err := dateutil.ParseDate(date)
	if err != nil {
		return nil, err
	}
	if err := ValidateTime(start); err != nil {
		return nil, fmt.Errorf("start time: %w", err)
	}
	d.Date = &parsed
	d.Status = StatusProposed
	return d, nil
}

// Patch is a partial edit of an event. Nil fields are left unchanged.
type Patch struct {
	Type        *Type
	Title       *string
	Location    *string
	Description *string
	Date        *time.Time
	ClearDate   bool
	StartTime   *string
	Duration    *int
	Status      *Status
}

// Update is the payload of a full event update sent to the backend.
// Identity-derived fields (client, day index, recurrence) are not part of it.
type Update struct {
	ID          string
	Type        Type
	Date        *time.Time
	StartTime   string
	Duration    int
	Title       string
	Description string
	Location    string
	Status      Status
}

// UpdateFrom builds the full-update payload for an event.
func UpdateFrom(e *Event) Update {
	u := Update{
		ID:          e.ID,
		Type:        e.Type,
		StartTime:   e.StartTime,
		Duration:    e.Duration,
		Title:       e.Title,
		Description: e.Description,
		Location:    e.Location,
		Status:      e.Status,
	}
	if e.Date != nil {
		d := *e.Date
		u.Date = &d
	}
	return u
}
