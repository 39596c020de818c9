// Package db provides SQLite storage implementation.
package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite" // SQLite driver

	"github.com/javiermolinar/orga/internal/dateutil"
	"github.com/javiermolinar/orga/internal/event"
)

// SQLite implements event.Repository and event.ClientLookup using SQLite.
type SQLite struct {
	db  *sql.DB
	now func() time.Time
}

var (
	_ event.Repository   = (*SQLite)(nil)
	_ event.ClientLookup = (*SQLite)(nil)
)

// New creates a new SQLite repository and runs migrations.
func New(path string) (*SQLite, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("connecting to database: %w", err)
	}

	s := &SQLite{db: db, now: time.Now}
	if err := s.migrate(); err != nil {
		return nil, fmt.Errorf("running migrations: %w", err)
	}

	return s, nil
}

// Close releases database resources.
func (s *SQLite) Close() error {
	return s.db.Close()
}

const selectEvents = `
	SELECT e.id, e.event_type, COALESCE(e.client_id, ''), COALESCE(c.name, ''),
	       e.event_date, COALESCE(e.start_time, ''), e.duration, e.title,
	       e.description, e.location, e.notes, e.status, e.is_recurring, e.created_at,
	       (SELECT MAX(p.event_date) FROM events p
	         WHERE p.client_id = e.client_id
	           AND p.event_type = 'chantier'
	           AND p.status = 'completed'
	           AND p.event_date < e.event_date)
	FROM events e
	LEFT JOIN clients c ON c.id = e.client_id
`

// ListEvents returns events dated within the filter range, ordered by
// date and start time. Unscheduled events are appended when requested.
func (s *SQLite) ListEvents(ctx context.Context, f event.Filter) ([]*event.Event, error) {
	var (
		conds []string
		args  []any
	)
	dated := "e.event_date IS NOT NULL"
	if !f.Start.IsZero() {
		dated += " AND e.event_date >= ?"
		args = append(args, dateutil.FormatLocal(f.Start))
	}
	if !f.End.IsZero() {
		dated += " AND e.event_date <= ?"
		args = append(args, dateutil.FormatLocal(f.End))
	}
	if f.IncludeUnscheduled {
		conds = append(conds, "(("+dated+") OR e.event_date IS NULL)")
	} else {
		conds = append(conds, dated)
	}
	if f.Type != "" {
		conds = append(conds, "e.event_type = ?")
		args = append(args, f.Type)
	}

	query := selectEvents + " WHERE " + strings.Join(conds, " AND ") +
		" ORDER BY e.event_date IS NULL, e.event_date, e.start_time, e.created_at"
	return s.queryEvents(ctx, query, args...)
}

// ListUnscheduled returns every event without a date.
func (s *SQLite) ListUnscheduled(ctx context.Context) ([]*event.Event, error) {
	return s.queryEvents(ctx, selectEvents+" WHERE e.event_date IS NULL ORDER BY e.created_at, e.id")
}

// GetEvent retrieves an event by ID.
func (s *SQLite) GetEvent(ctx context.Context, id string) (*event.Event, error) {
	events, err := s.queryEvents(ctx, selectEvents+" WHERE e.id = ?", id)
	if err != nil {
		return nil, err
	}
	if len(events) == 0 {
		return nil, fmt.Errorf("%w: %s", event.ErrEventNotFound, id)
	}
	return events[0], nil
}

// CreateEvent stores a new event under a fresh UUID.
func (s *SQLite) CreateEvent(ctx context.Context, d *event.Draft) (*event.Event, error) {
	if d.ClientID != "" {
		if _, err := s.GetClient(ctx, d.ClientID); err != nil {
			return nil, err
		}
	}

	id := uuid.NewString()
	status := d.Status
	if status == "" {
		status = event.StatusUnscheduled
		if d.Date != nil {
			status = event.StatusProposed
		}
	}
	date, start := dateArgs(d.Date, d.StartTime)

	query := `
		INSERT INTO events (
			id, event_type, client_id, event_date, start_time, duration,
			title, description, location, notes, status, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	_, err := s.db.ExecContext(ctx, query,
		id,
		d.Type,
		nullString(d.ClientID),
		date,
		start,
		d.Duration,
		d.Title,
		d.Description,
		d.Location,
		d.Notes,
		status,
		s.now().UTC().Format(time.RFC3339),
	)
	if err != nil {
		return nil, fmt.Errorf("inserting event: %w", err)
	}

	return s.GetEvent(ctx, id)
}

// UpdateEvent replaces the mutable fields of an event.
func (s *SQLite) UpdateEvent(ctx context.Context, u event.Update) (*event.Event, error) {
	date, start := dateArgs(u.Date, u.StartTime)

	query := `
		UPDATE events
		SET event_type = ?, event_date = ?, start_time = ?, duration = ?,
		    title = ?, description = ?, location = ?, status = ?
		WHERE id = ?
	`
	result, err := s.db.ExecContext(ctx, query,
		u.Type, date, start, u.Duration,
		u.Title, u.Description, u.Location, u.Status,
		u.ID,
	)
	if err != nil {
		return nil, fmt.Errorf("updating event: %w", err)
	}
	if err := requireRow(result, u.ID); err != nil {
		return nil, err
	}

	return s.GetEvent(ctx, u.ID)
}

// UpdateStatus changes the status of an event. Setting it back to
// unscheduled clears the date so the event returns to the tray.
func (s *SQLite) UpdateStatus(ctx context.Context, id string, status event.Status) (*event.Event, error) {
	if _, err := event.ParseStatus(string(status)); err != nil {
		return nil, err
	}

	query := `UPDATE events SET status = ? WHERE id = ?`
	if status == event.StatusUnscheduled {
		query = `UPDATE events SET status = ?, event_date = NULL, start_time = NULL WHERE id = ?`
	}

	result, err := s.db.ExecContext(ctx, query, status, id)
	if err != nil {
		return nil, fmt.Errorf("updating event status: %w", err)
	}
	if err := requireRow(result, id); err != nil {
		return nil, err
	}

	return s.GetEvent(ctx, id)
}

// Confirm marks an event as confirmed.
func (s *SQLite) Confirm(ctx context.Context, id string) (*event.Event, error) {
	return s.UpdateStatus(ctx, id, event.StatusConfirmed)
}

// DeleteEvent removes an event.
func (s *SQLite) DeleteEvent(ctx context.Context, id string) error {
	result, err := s.db.ExecContext(ctx, `DELETE FROM events WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("deleting event: %w", err)
	}
	return requireRow(result, id)
}

// CreateClient stores a client. An empty ID is replaced by a fresh UUID.
func (s *SQLite) CreateClient(ctx context.Context, c *event.Client) error {
	if strings.TrimSpace(c.Name) == "" {
		return errors.New("client name cannot be empty")
	}
	if c.ID == "" {
		c.ID = uuid.NewString()
	}

	query := `INSERT INTO clients (id, name, address, phone, email) VALUES (?, ?, ?, ?, ?)`
	if _, err := s.db.ExecContext(ctx, query, c.ID, c.Name, c.Address, c.Phone, c.Email); err != nil {
		return fmt.Errorf("inserting client: %w", err)
	}
	return nil
}

// ListClients returns all clients ordered by name.
func (s *SQLite) ListClients(ctx context.Context) ([]*event.Client, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, name, address, phone, email FROM clients ORDER BY name, id`)
	if err != nil {
		return nil, fmt.Errorf("querying clients: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var clients []*event.Client
	for rows.Next() {
		var c event.Client
		if err := rows.Scan(&c.ID, &c.Name, &c.Address, &c.Phone, &c.Email); err != nil {
			return nil, fmt.Errorf("scanning client: %w", err)
		}
		clients = append(clients, &c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating clients: %w", err)
	}
	return clients, nil
}

// GetClient retrieves a client by ID.
func (s *SQLite) GetClient(ctx context.Context, id string) (*event.Client, error) {
	var c event.Client
	err := s.db.QueryRowContext(ctx,
		`SELECT id, name, address, phone, email FROM clients WHERE id = ?`, id,
	).Scan(&c.ID, &c.Name, &c.Address, &c.Phone, &c.Email)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("%w: %s", event.ErrClientNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("querying client: %w", err)
	}
	return &c, nil
}

func (s *SQLite) queryEvents(ctx context.Context, query string, args ...any) ([]*event.Event, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying events: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var events []*event.Event
	for rows.Next() {
		var (
			e            event.Event
			eventDate    sql.NullString
			createdAt    sql.NullString
			lastChantier sql.NullString
		)

		err := rows.Scan(
			&e.ID,
			&e.Type,
			&e.ClientID,
			&e.ClientName,
			&eventDate,
			&e.StartTime,
			&e.Duration,
			&e.Title,
			&e.Description,
			&e.Location,
			&e.Notes,
			&e.Status,
			&e.IsRecurring,
			&createdAt,
			&lastChantier,
		)
		if err != nil {
			return nil, fmt.Errorf("scanning event: %w", err)
		}

		if eventDate.Valid {
			d, err := parseDate(eventDate.String)
			if err != nil {
				return nil, fmt.Errorf("parsing event date: %w", err)
			}
			e.Date = &d
			e.DayIndex = event.DayIndex(d)
		} else {
			e.StartTime = ""
		}

		if createdAt.Valid {
			if t, err := parseDate(createdAt.String); err == nil {
				e.CreatedAt = t
			}
		}

		if e.IsRecurring && e.Date != nil && lastChantier.Valid {
			if last, err := parseDate(lastChantier.String); err == nil {
				days := int(e.Date.Sub(last).Hours()/24 + 0.5)
				e.DaysSinceLastChantier = &days
			}
		}

		events = append(events, &e)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating events: %w", err)
	}

	return events, nil
}

// SetRecurring flags an event as part of a recurring intervention.
func (s *SQLite) SetRecurring(ctx context.Context, id string, recurring bool) error {
	result, err := s.db.ExecContext(ctx, `UPDATE events SET is_recurring = ? WHERE id = ?`, recurring, id)
	if err != nil {
		return fmt.Errorf("updating recurrence: %w", err)
	}
	return requireRow(result, id)
}

func requireRow(result sql.Result, id string) error {
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking affected rows: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("%w: %s", event.ErrEventNotFound, id)
	}
	return nil
}

// dateArgs returns the nullable date and start columns of an event.
func dateArgs(date *time.Time, start string) (any, any) {
	if date == nil {
		return nil, nil
	}
	return dateutil.FormatLocal(*date), start
}

func nullString(s string) any {
	if s == "" {
		return nil
	}
	return s
}

// parseDate parses a date string in various formats SQLite might return.
// Date-only values (midnight) are parsed in local timezone to match time.Now() behavior.
func parseDate(s string) (time.Time, error) {
	if t, err := time.ParseInLocation(dateutil.ISOLayout, s, time.Local); err == nil {
		return t, nil
	}

	// SQLite returns DATE columns as "2006-01-02T00:00:00Z"; the value is a
	// calendar day, not an instant.
	if len(s) == 20 && s[10] == 'T' && strings.HasSuffix(s, "T00:00:00Z") {
		if t, err := time.ParseInLocation(dateutil.ISOLayout, s[:10], time.Local); err == nil {
			return t, nil
		}
	}

	formats := []string{
		"2006-01-02T15:04:05Z",
		"2006-01-02 15:04:05",
		time.RFC3339,
	}
	for _, f := range formats {
		if t, err := time.Parse(f, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized date format: %s", s)
}
