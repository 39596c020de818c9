package event

import (
	"context"
	"time"
)

// Filter selects events for ListEvents.
type Filter struct {
	Start              time.Time // inclusive, zero means unbounded
	End                time.Time // inclusive, zero means unbounded
	Type               Type      // empty means all types
	IncludeUnscheduled bool
}

// Repository defines the calendar-events backend contract.
type Repository interface {
	// ListEvents returns events scheduled within the filter's date range.
	ListEvents(ctx context.Context, f Filter) ([]*Event, error)

	// ListUnscheduled returns every event without a date, regardless of week.
	ListUnscheduled(ctx context.Context) ([]*Event, error)

	// CreateEvent stores a new event and returns it with its assigned ID.
	CreateEvent(ctx context.Context, d *Draft) (*Event, error)

	// UpdateEvent replaces the mutable fields of an event.
	UpdateEvent(ctx context.Context, u Update) (*Event, error)

	// UpdateStatus changes only the status of an event.
	UpdateStatus(ctx context.Context, id string, status Status) (*Event, error)

	// Confirm moves a proposed event to confirmed.
	Confirm(ctx context.Context, id string) (*Event, error)

	// DeleteEvent removes an event.
	DeleteEvent(ctx context.Context, id string) error

	// Close releases any resources held by the repository.
	Close() error
}

// Client is the external client entity an event refers to.
type Client struct {
	ID      string
	Name    string
	Address string
	Phone   string
	Email   string
}

// ClientLookup resolves client references for display and event creation.
type ClientLookup interface {
	ListClients(ctx context.Context) ([]*Client, error)
	GetClient(ctx context.Context, id string) (*Client, error)
}
