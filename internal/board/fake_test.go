package board

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/javiermolinar/orga/internal/event"
)

var errBackend = errors.New("backend unavailable")

// fakeRepo is an in-memory event.Repository that records writes.
type fakeRepo struct {
	mu         sync.Mutex
	events     map[string]*event.Event
	nextID     int
	calls      map[string]int
	failList   bool
	failWrites bool
	updates    []event.Update
	statuses   []event.Status
}

func newFakeRepo(events ...*event.Event) *fakeRepo {
	r := &fakeRepo{events: make(map[string]*event.Event), calls: make(map[string]int)}
	for _, e := range events {
		r.events[e.ID] = e.Clone()
	}
	return r
}

func (r *fakeRepo) count(op string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.calls[op]
}

func (r *fakeRepo) get(id string) *event.Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.events[id].Clone()
}

func (r *fakeRepo) setFailWrites(fail bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.failWrites = fail
}

func (r *fakeRepo) ListEvents(_ context.Context, f event.Filter) ([]*event.Event, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls["list"]++
	if r.failList {
		return nil, errBackend
	}
	var out []*event.Event
	for _, e := range r.events {
		if e.Date == nil {
			continue
		}
		if e.Date.Before(f.Start) || e.Date.After(f.End) {
			continue
		}
		out = append(out, e.Clone())
	}
	return out, nil
}

func (r *fakeRepo) ListUnscheduled(_ context.Context) ([]*event.Event, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls["unscheduled"]++
	if r.failList {
		return nil, errBackend
	}
	var out []*event.Event
	for _, e := range r.events {
		if e.Date == nil {
			out = append(out, e.Clone())
		}
	}
	return out, nil
}

func (r *fakeRepo) CreateEvent(_ context.Context, d *event.Draft) (*event.Event, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls["create"]++
	if r.failWrites {
		return nil, errBackend
	}
	r.nextID++
	e := &event.Event{
		ID:        fmt.Sprintf("new-%d", r.nextID),
		Type:      d.Type,
		Title:     d.Title,
		ClientID:  d.ClientID,
		Date:      d.Date,
		StartTime: d.StartTime,
		Duration:  d.Duration,
		Status:    d.Status,
	}
	r.events[e.ID] = e
	return e.Clone(), nil
}

func (r *fakeRepo) UpdateEvent(_ context.Context, u event.Update) (*event.Event, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls["update"]++
	r.updates = append(r.updates, u)
	if r.failWrites {
		return nil, errBackend
	}
	e, ok := r.events[u.ID]
	if !ok {
		return nil, event.ErrEventNotFound
	}
	e.Type = u.Type
	e.Date = u.Date
	e.StartTime = u.StartTime
	e.Duration = u.Duration
	e.Title = u.Title
	e.Description = u.Description
	e.Location = u.Location
	e.Status = u.Status
	return e.Clone(), nil
}

func (r *fakeRepo) UpdateStatus(_ context.Context, id string, status event.Status) (*event.Event, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls["status"]++
	r.statuses = append(r.statuses, status)
	if r.failWrites {
		return nil, errBackend
	}
	e, ok := r.events[id]
	if !ok {
		return nil, event.ErrEventNotFound
	}
	e.Status = status
	if status == event.StatusUnscheduled {
		e.Date = nil
		e.StartTime = ""
	}
	return e.Clone(), nil
}

func (r *fakeRepo) Confirm(_ context.Context, id string) (*event.Event, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls["confirm"]++
	if r.failWrites {
		return nil, errBackend
	}
	e, ok := r.events[id]
	if !ok {
		return nil, event.ErrEventNotFound
	}
	if e.Status == event.StatusProposed {
		e.Status = event.StatusConfirmed
	}
	return e.Clone(), nil
}

func (r *fakeRepo) DeleteEvent(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls["delete"]++
	if r.failWrites {
		return errBackend
	}
	if _, ok := r.events[id]; !ok {
		return event.ErrEventNotFound
	}
	delete(r.events, id)
	return nil
}

func (r *fakeRepo) Close() error { return nil }

// recorder collects notices.
type recorder struct {
	mu      sync.Mutex
	notices []Notice
}

func (r *recorder) Notify(n Notice) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.notices = append(r.notices, n)
}

func (r *recorder) all() []Notice {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Notice(nil), r.notices...)
}

func (r *recorder) has(title string) bool {
	for _, n := range r.all() {
		if n.Title == title {
			return true
		}
	}
	return false
}

// Thursday 2024-03-14; the displayed week runs from 2024-03-11 to 2024-03-17.
func fixedNow() time.Time {
	return time.Date(2024, 3, 14, 10, 0, 0, 0, time.Local)
}

func day(t *testing.T, iso string) *time.Time {
	t.Helper()
	d, err := time.ParseInLocation("2006-01-02", iso, time.Local)
	if err != nil {
		t.Fatalf("failed to parse date %q: %v", iso, err)
	}
	return &d
}

func scheduled(t *testing.T, id, iso, start string, duration int, status event.Status) *event.Event {
	t.Helper()
	return &event.Event{
		ID:         id,
		Type:       event.TypeChantier,
		ClientName: "Client " + id,
		Title:      "Entretien " + id,
		Date:       day(t, iso),
		StartTime:  start,
		Duration:   duration,
		Status:     status,
	}
}

func tray(id string, duration int) *event.Event {
	return &event.Event{
		ID:         id,
		Type:       event.TypeChantier,
		ClientName: "Client " + id,
		Title:      "Entretien " + id,
		Duration:   duration,
		Status:     event.StatusUnscheduled,
	}
}

func newTestStore(t *testing.T, reload bool, events ...*event.Event) (*Store, *fakeRepo, *recorder) {
	t.Helper()
	repo := newFakeRepo(events...)
	rec := &recorder{}
	s := NewStore(repo, nil, Options{Notifier: rec, ReloadOnFailure: reload, Now: fixedNow})
	if err := s.ShowWeek(context.Background(), 0); err != nil {
		t.Fatalf("ShowWeek: %v", err)
	}
	return s, repo, rec
}
