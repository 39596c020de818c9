package api

import (
	"fmt"
	"strings"
	"time"

	"github.com/javiermolinar/orga/internal/dateutil"
	"github.com/javiermolinar/orga/internal/event"
)

// EventDTO is the JSON shape of a calendar event on the wire.
type EventDTO struct {
	ID                    string `json:"id"`
	EventType             string `json:"eventType"`
	ClientID              string `json:"clientId,omitempty"`
	ClientName            string `json:"clientName,omitempty"`
	DayIndex              *int   `json:"dayIndex,omitempty"`
	Date                  string `json:"date,omitempty"`      // YYYY-MM-DD
	StartTime             string `json:"startTime,omitempty"` // HH:MM or HH:MM:SS
	Duration              int    `json:"duration"`            // minutes
	Title                 string `json:"title"`
	Description           string `json:"description,omitempty"`
	Location              string `json:"location,omitempty"`
	Status                string `json:"status"`
	IsRecurring           bool   `json:"isRecurring,omitempty"`
	DaysSinceLastChantier *int   `json:"daysSinceLastChantier,omitempty"`
	Notes                 string `json:"notes,omitempty"`
	CreatedAt             string `json:"createdAt,omitempty"`
}

// CreateRequest is the body of POST /calendar/events.
type CreateRequest struct {
	EventType   string `json:"eventType"`
	ClientID    string `json:"clientId,omitempty"`
	Date        string `json:"date,omitempty"`
	StartTime   string `json:"startTime,omitempty"`
	Duration    int    `json:"duration"`
	Title       string `json:"title"`
	Description string `json:"description,omitempty"`
	Location    string `json:"location,omitempty"`
	Status      string `json:"status,omitempty"`
	Notes       string `json:"notes,omitempty"`
}

// UpdateRequest is the body of PUT /calendar/events/updateEvent.
type UpdateRequest struct {
	ID          string `json:"id"`
	EventType   string `json:"eventType"`
	Date        string `json:"date,omitempty"`
	StartTime   string `json:"startTime,omitempty"`
	Duration    int    `json:"duration"`
	Title       string `json:"title"`
	Description string `json:"description,omitempty"`
	Location    string `json:"location,omitempty"`
	Status      string `json:"status"`
}

// StatusRequest is the body of PATCH /calendar/events/{id}/status.
type StatusRequest struct {
	Status string `json:"status"`
}

// ClientDTO is the JSON shape of a client.
type ClientDTO struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Address string `json:"address,omitempty"`
	Phone   string `json:"phone,omitempty"`
	Email   string `json:"email,omitempty"`
}

// ErrorBody is the JSON shape of an error response.
type ErrorBody struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

var createdAtLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02T15:04:05",
}

// ToEvent converts a wire event to the domain type. Dates are read as
// local calendar days.
func (d EventDTO) ToEvent() (*event.Event, error) {
	e := &event.Event{
		ID:                    d.ID,
		Type:                  event.Type(d.EventType),
		ClientID:              d.ClientID,
		ClientName:            d.ClientName,
		Duration:              d.Duration,
		Status:                event.Status(d.Status),
		Title:                 d.Title,
		Description:           d.Description,
		Location:              d.Location,
		Notes:                 d.Notes,
		IsRecurring:           d.IsRecurring,
		DaysSinceLastChantier: d.DaysSinceLastChantier,
	}

	if d.Date != "" {
		date, err := time.ParseInLocation(dateutil.ISOLayout, d.Date, time.Local)
		if err != nil {
			return nil, fmt.Errorf("event %s: date %q: %w", d.ID, d.Date, dateutil.ErrInvalidDateFormat)
		}
		e.Date = &date
		e.DayIndex = event.DayIndex(date)
		e.StartTime = trimSeconds(d.StartTime)
	} else if d.DayIndex != nil {
		e.DayIndex = *d.DayIndex
	}

	if d.CreatedAt != "" {
		for _, layout := range createdAtLayouts {
			if t, err := time.ParseInLocation(layout, d.CreatedAt, time.Local); err == nil {
				e.CreatedAt = t
				break
			}
		}
	}
	return e, nil
}

// FromEvent converts a domain event to its wire form.
func FromEvent(e *event.Event) EventDTO {
	d := EventDTO{
		ID:                    e.ID,
		EventType:             string(e.Type),
		ClientID:              e.ClientID,
		ClientName:            e.ClientName,
		Duration:              e.Duration,
		Title:                 e.Title,
		Description:           e.Description,
		Location:              e.Location,
		Status:                string(e.Status),
		IsRecurring:           e.IsRecurring,
		DaysSinceLastChantier: e.DaysSinceLastChantier,
		Notes:                 e.Notes,
	}
	if e.Date != nil {
		d.Date = dateutil.FormatLocal(*e.Date)
		d.StartTime = e.StartTime
		idx := event.DayIndex(*e.Date)
		d.DayIndex = &idx
	}
	if !e.CreatedAt.IsZero() {
		d.CreatedAt = e.CreatedAt.Format(time.RFC3339)
	}
	return d
}

// NewCreateRequest converts a draft to its wire form.
func NewCreateRequest(d *event.Draft) CreateRequest {
	r := CreateRequest{
		EventType:   string(d.Type),
		ClientID:    d.ClientID,
		Duration:    d.Duration,
		Title:       d.Title,
		Description: d.Description,
		Location:    d.Location,
		Status:      string(d.Status),
		Notes:       d.Notes,
	}
	if d.Date != nil {
		r.Date = dateutil.FormatLocal(*d.Date)
		r.StartTime = d.StartTime
	}
	return r
}

// Draft converts the request to a validated draft.
func (r CreateRequest) Draft() (*event.Draft, error) {
	d, err := event.NewDraft(r.EventType, r.Title, r.ClientID, r.Date, trimSeconds(r.StartTime), r.Duration)
	if err != nil {
		return nil, err
	}
	d.Description = r.Description
	d.Location = r.Location
	d.Notes = r.Notes
	if r.Status != "" {
		s, err := event.ParseStatus(r.Status)
		if err != nil {
			return nil, err
		}
		d.Status = s
	}
	return d, nil
}

// NewUpdateRequest converts a full update to its wire form.
func NewUpdateRequest(u event.Update) UpdateRequest {
	r := UpdateRequest{
		ID:          u.ID,
		EventType:   string(u.Type),
		Duration:    u.Duration,
		Title:       u.Title,
		Description: u.Description,
		Location:    u.Location,
		Status:      string(u.Status),
	}
	if u.Date != nil {
		r.Date = dateutil.FormatLocal(*u.Date)
		r.StartTime = u.StartTime
	}
	return r
}

// Update converts the request to a domain update.
func (r UpdateRequest) Update() (event.Update, error) {
	u := event.Update{
		ID:          r.ID,
		Duration:    r.Duration,
		Title:       r.Title,
		Description: r.Description,
		Location:    r.Location,
	}
	typ, err := event.ParseType(r.EventType)
	if err != nil {
		return u, err
	}
	u.Type = typ
	status, err := event.ParseStatus(r.Status)
	if err != nil {
		return u, err
	}
	u.Status = status
	if r.Duration <= 0 {
		return u, event.ErrInvalidDuration
	}
	if r.Date != "" {
		date, err := dateutil.ParseDate(r.Date)
		if err != nil {
			return u, err
		}
		start := trimSeconds(r.StartTime)
		if err := event.ValidateTime(start); err != nil {
			return u, err
		}
		u.Date = &date
		u.StartTime = start
	}
	return u, nil
}

// ToClient converts a wire client to the domain type.
func (c ClientDTO) ToClient() *event.Client {
	return &event.Client{ID: c.ID, Name: c.Name, Address: c.Address, Phone: c.Phone, Email: c.Email}
}

// FromClient converts a domain client to its wire form.
func FromClient(c *event.Client) ClientDTO {
	return ClientDTO{ID: c.ID, Name: c.Name, Address: c.Address, Phone: c.Phone, Email: c.Email}
}

// trimSeconds accepts the HH:MM:SS form some backends emit for local times.
func trimSeconds(t string) string {
	if len(t) == 8 && strings.Count(t, ":") == 2 {
		return t[:5]
	}
	return t
}
