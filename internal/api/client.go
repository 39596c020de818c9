// Package api implements the calendar-events backend over HTTP.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/javiermolinar/orga/internal/dateutil"
	"github.com/javiermolinar/orga/internal/event"
)

// Route paths relative to the base URL.
const (
	EventsPath      = "/calendar/events"
	UnscheduledPath = EventsPath + "/listUnscheduledEvents"
	UpdatePath      = EventsPath + "/updateEvent"
	ClientsPath     = "/clients"
)

// maxBodySize bounds how much of a response is read.
const maxBodySize = 4 << 20

// Error is a non-2xx response from the backend.
type Error struct {
	StatusCode int
	Message    string
	Details    string
}

func (e *Error) Error() string {
	msg := e.Message
	if msg == "" {
		msg = http.StatusText(e.StatusCode)
	}
	if e.Details != "" {
		return fmt.Sprintf("api: %d %s: %s", e.StatusCode, msg, e.Details)
	}
	return fmt.Sprintf("api: %d %s", e.StatusCode, msg)
}

// Is maps 404 responses to event.ErrEventNotFound.
func (e *Error) Is(target error) bool {
	return target == event.ErrEventNotFound && e.StatusCode == http.StatusNotFound
}

// Options configures a Client.
type Options struct {
	Timeout    time.Duration
	Token      string
	HTTPClient *http.Client
	Logger     *slog.Logger
}

// Client talks to the calendar-events REST API.
// It implements event.Repository and event.ClientLookup.
type Client struct {
	base   *url.URL
	http   *http.Client
	token  string
	logger *slog.Logger
}

var (
	_ event.Repository   = (*Client)(nil)
	_ event.ClientLookup = (*Client)(nil)
)

// New creates a client for the API rooted at baseURL, e.g.
// "http://localhost:8080/api".
func New(baseURL string, opts Options) (*Client, error) {
	u, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("parsing base url: %w", err)
	}
	if u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("base url must be absolute, got %q", baseURL)
	}

	hc := opts.HTTPClient
	if hc == nil {
		hc = &http.Client{Timeout: opts.Timeout}
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	return &Client{base: u, http: hc, token: opts.Token, logger: logger}, nil
}

// ListEvents returns events dated within the filter range.
func (c *Client) ListEvents(ctx context.Context, f event.Filter) ([]*event.Event, error) {
	q := url.Values{}
	if !f.Start.IsZero() {
		q.Set("startDate", dateutil.FormatLocal(f.Start))
	}
	if !f.End.IsZero() {
		q.Set("endDate", dateutil.FormatLocal(f.End))
	}
	if f.Type != "" {
		q.Set("eventType", string(f.Type))
	}
	if f.IncludeUnscheduled {
		q.Set("includeUnscheduled", "true")
	}

	var dtos []EventDTO
	if err := c.do(ctx, http.MethodGet, EventsPath, q, nil, &dtos); err != nil {
		return nil, fmt.Errorf("listing events: %w", err)
	}
	return toEvents(dtos)
}

// ListUnscheduled returns every event without a date.
func (c *Client) ListUnscheduled(ctx context.Context) ([]*event.Event, error) {
	var dtos []EventDTO
	if err := c.do(ctx, http.MethodGet, UnscheduledPath, nil, nil, &dtos); err != nil {
		return nil, fmt.Errorf("listing unscheduled events: %w", err)
	}
	return toEvents(dtos)
}

// CreateEvent posts a new event.
func (c *Client) CreateEvent(ctx context.Context, d *event.Draft) (*event.Event, error) {
	var dto EventDTO
	if err := c.do(ctx, http.MethodPost, EventsPath, nil, NewCreateRequest(d), &dto); err != nil {
		return nil, fmt.Errorf("creating event: %w", err)
	}
	return dto.ToEvent()
}

// UpdateEvent sends a full update.
func (c *Client) UpdateEvent(ctx context.Context, u event.Update) (*event.Event, error) {
	var dto EventDTO
	if err := c.do(ctx, http.MethodPut, UpdatePath, nil, NewUpdateRequest(u), &dto); err != nil {
		return nil, fmt.Errorf("updating event %s: %w", u.ID, err)
	}
	return dto.ToEvent()
}

// UpdateStatus changes the status of an event.
func (c *Client) UpdateStatus(ctx context.Context, id string, status event.Status) (*event.Event, error) {
	var dto EventDTO
	path := EventsPath + "/" + url.PathEscape(id) + "/status"
	if err := c.do(ctx, http.MethodPatch, path, nil, StatusRequest{Status: string(status)}, &dto); err != nil {
		return nil, fmt.Errorf("updating status of %s: %w", id, err)
	}
	return dto.ToEvent()
}

// Confirm confirms a proposed event.
func (c *Client) Confirm(ctx context.Context, id string) (*event.Event, error) {
	var dto EventDTO
	path := EventsPath + "/" + url.PathEscape(id) + "/confirm"
	if err := c.do(ctx, http.MethodPatch, path, nil, nil, &dto); err != nil {
		return nil, fmt.Errorf("confirming %s: %w", id, err)
	}
	return dto.ToEvent()
}

// DeleteEvent deletes an event.
func (c *Client) DeleteEvent(ctx context.Context, id string) error {
	if err := c.do(ctx, http.MethodDelete, EventsPath+"/"+url.PathEscape(id), nil, nil, nil); err != nil {
		return fmt.Errorf("deleting %s: %w", id, err)
	}
	return nil
}

// ListClients returns all clients.
func (c *Client) ListClients(ctx context.Context) ([]*event.Client, error) {
	var dtos []ClientDTO
	if err := c.do(ctx, http.MethodGet, ClientsPath, nil, nil, &dtos); err != nil {
		return nil, fmt.Errorf("listing clients: %w", err)
	}
	clients := make([]*event.Client, 0, len(dtos))
	for _, d := range dtos {
		clients = append(clients, d.ToClient())
	}
	return clients, nil
}

// GetClient returns one client.
func (c *Client) GetClient(ctx context.Context, id string) (*event.Client, error) {
	var dto ClientDTO
	if err := c.do(ctx, http.MethodGet, ClientsPath+"/"+url.PathEscape(id), nil, nil, &dto); err != nil {
		return nil, fmt.Errorf("getting client %s: %w", id, err)
	}
	return dto.ToClient(), nil
}

// Close releases idle connections.
func (c *Client) Close() error {
	c.http.CloseIdleConnections()
	return nil
}

func (c *Client) do(ctx context.Context, method, path string, query url.Values, body, out any) error {
	u := *c.base
	u.Path = c.base.Path + path
	if query != nil {
		u.RawQuery = query.Encode()
	}

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encoding request: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, u.String(), reader)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		c.logger.Warn("api request failed", "method", method, "path", path, "error", err)
		return err
	}
	defer func() { _ = resp.Body.Close() }()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize+1))
	if err != nil {
		return fmt.Errorf("reading response: %w", err)
	}
	if len(data) > maxBodySize {
		return fmt.Errorf("response exceeds %d bytes", maxBodySize)
	}

	c.logger.Debug("api request", "method", method, "path", path,
		"status", resp.StatusCode, "duration", time.Since(start))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return decodeError(resp.StatusCode, data)
	}
	if out == nil || len(bytes.TrimSpace(data)) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("decoding response: %w", err)
	}
	return nil
}

func decodeError(status int, data []byte) error {
	apiErr := &Error{StatusCode: status}
	var body ErrorBody
	if err := json.Unmarshal(data, &body); err == nil && (body.Error != "" || body.Details != "") {
		apiErr.Message = body.Error
		apiErr.Details = body.Details
	} else if text := strings.TrimSpace(string(data)); text != "" && len(text) < 512 {
		apiErr.Details = text
	}
	return apiErr
}

func toEvents(dtos []EventDTO) ([]*event.Event, error) {
	events := make([]*event.Event, 0, len(dtos))
	var errs []error
	for _, d := range dtos {
		e, err := d.ToEvent()
		if err != nil {
			errs = append(errs, err)
			continue
		}
		events = append(events, e)
	}
	if len(errs) > 0 && len(events) == 0 {
		return nil, errors.Join(errs...)
	}
	return events, nil
}
