// Package board holds the state of the weekly scheduling board and the
// operations that mutate it.
package board

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"slices"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/javiermolinar/orga/internal/dateutil"
	"github.com/javiermolinar/orga/internal/event"
	"github.com/javiermolinar/orga/internal/scheduler"
)

// Board errors.
var (
	ErrNotInStore   = errors.New("event is not on the board")
	ErrDropRejected = errors.New("drop rejected")
)

// Notice titles.
const (
	titleLoadFailed    = "Erreur lors du chargement des événements"
	titleScheduled     = "Chantier programmé"
	titleAdjusted      = "Créneau ajusté"
	titleUpdateFailed  = "Erreur lors de la mise à jour du rendez-vous"
	titleUnscheduled   = "Rendez-vous déplacé vers \"À programmer\""
	titleUnschedFailed = "Erreur lors de la déprogrammation"
	titleConfirmed     = "Rendez-vous confirmé"
	titleStatusChanged = "Statut mis à jour"
	titleEdited        = "Rendez-vous modifié avec succès"
	titleEditFailed    = "Erreur lors de la modification du rendez-vous"
	titleOverlap       = "Chevauchement"
	titleCreated       = "Événement créé"
	titleCreateFailed  = "Erreur lors de la création de l'événement"
	titleDeleted       = "Événement supprimé"
	titleDeleteFailed  = "Erreur lors de la suppression"
)

// Options configures a Store. The zero value is usable.
type Options struct {
	Notifier Notifier
	Logger   *slog.Logger
	// ReloadOnFailure reloads the displayed week after a failed write so
	// the board matches the backend again.
	ReloadOnFailure bool
	// Now returns the current time. Defaults to time.Now.
	Now func() time.Time
}

// Store is the single owner of the displayed week, the scheduled events in
// it and the unscheduled tray. It is safe for concurrent use.
//
// Mutations are applied locally first. Backend writes run in the
// background; Wait blocks until they have settled.
type Store struct {
	repo            event.Repository
	sched           *scheduler.Scheduler
	notify          Notifier
	logger          *slog.Logger
	reloadOnFailure bool
	now             func() time.Time

	mu          sync.Mutex
	offset      int
	days        [7]event.WeekDay
	scheduled   []*event.Event
	unscheduled []*event.Event

	writes sync.WaitGroup
}

// NewStore creates a Store showing the current week. Nothing is fetched
// until ShowWeek or LoadWeek is called.
func NewStore(repo event.Repository, sched *scheduler.Scheduler, opts Options) *Store {
	s := &Store{
		repo:            repo,
		sched:           sched,
		notify:          opts.Notifier,
		logger:          opts.Logger,
		reloadOnFailure: opts.ReloadOnFailure,
		now:             opts.Now,
	}
	if s.notify == nil {
		s.notify = discardNotifier{}
	}
	if s.logger == nil {
		s.logger = slog.New(slog.DiscardHandler)
	}
	if s.now == nil {
		s.now = time.Now
	}
	if s.sched == nil {
		s.sched = scheduler.New(nil, "", "")
	}
	s.days = event.ComputeWeekDays(0, s.now())
	return s
}

// ShowWeek loads the week weekOffset weeks away from the current one.
func (s *Store) ShowWeek(ctx context.Context, weekOffset int) error {
	days := event.ComputeWeekDays(weekOffset, s.now())
	return s.load(ctx, weekOffset, days)
}

// Reload re-fetches the displayed week.
func (s *Store) Reload(ctx context.Context) error {
	s.mu.Lock()
	offset := s.offset
	s.mu.Unlock()
	return s.ShowWeek(ctx, offset)
}

// LoadWeek fetches the events scheduled between start and end, plus every
// unscheduled event, and replaces both lists. The displayed week becomes the
// one containing start. On failure the previous lists are kept.
func (s *Store) LoadWeek(ctx context.Context, start, end time.Time) error {
	days := event.ComputeWeekDays(0, start)
	thisWeek := dateutil.StartOfWeek(s.now())
	offset := int(math.Round(days[0].Date.Sub(thisWeek).Hours() / (24 * 7)))
	return s.loadRange(ctx, offset, days, start, end)
}

func (s *Store) load(ctx context.Context, offset int, days [7]event.WeekDay) error {
	return s.loadRange(ctx, offset, days, days[0].Date, days[6].Date)
}

func (s *Store) loadRange(ctx context.Context, offset int, days [7]event.WeekDay, start, end time.Time) error {
	var scheduled, unscheduled []*event.Event

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		events, err := s.repo.ListEvents(gctx, event.Filter{Start: start, End: end})
		if err != nil {
			return fmt.Errorf("list events: %w", err)
		}
		scheduled = events
		return nil
	})
	g.Go(func() error {
		events, err := s.repo.ListUnscheduled(gctx)
		if err != nil {
			return fmt.Errorf("list unscheduled events: %w", err)
		}
		unscheduled = events
		return nil
	})
	if err := g.Wait(); err != nil {
		s.logger.Error("load week failed", "start", dateutil.FormatLocal(start), "error", err)
		s.emit(Notice{Kind: NoticeError, Title: titleLoadFailed, Detail: err.Error()})
		return err
	}

	scheduled = s.keepPlaceable(scheduled)
	for _, e := range unscheduled {
		normalize(e)
	}

	s.mu.Lock()
	s.offset = offset
	s.days = days
	s.scheduled = scheduled
	s.unscheduled = unscheduled
	s.mu.Unlock()

	s.logger.Debug("week loaded",
		"start", dateutil.FormatLocal(start),
		"scheduled", len(scheduled),
		"unscheduled", len(unscheduled))
	return nil
}

// keepPlaceable drops events that cannot be drawn on the grid.
func (s *Store) keepPlaceable(events []*event.Event) []*event.Event {
	out := make([]*event.Event, 0, len(events))
	for _, e := range events {
		if e == nil || e.Date == nil || e.StartTime == "" {
			continue
		}
		if err := event.ValidateTime(e.StartTime); err != nil {
			s.logger.Warn("skipping event with malformed start", "id", e.ID, "start", e.StartTime)
			continue
		}
		normalize(e)
		out = append(out, e)
	}
	return out
}

// MoveToSlot places an event on a day of the displayed week at the first
// conflict-free start at or near rawTime. Events coming from the tray
// become proposed; completed or cancelled tray events are rejected.
func (s *Store) MoveToSlot(eventID string, day int, rawTime string, source Source) (*event.Event, error) {
	if day < 0 || day > 6 {
		return nil, fmt.Errorf("%w: day %d is outside the week", ErrDropRejected, day)
	}
	if err := event.ValidateTime(rawTime); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDropRejected, err)
	}

	s.mu.Lock()
	list := s.scheduled
	if source == SourceTray {
		list = s.unscheduled
	}
	i := indexOf(list, eventID)
	if i < 0 {
		s.mu.Unlock()
		return nil, fmt.Errorf("%w: %s", ErrNotInStore, eventID)
	}
	current := list[i]
	if source == SourceTray && current.Status.Terminal() {
		s.mu.Unlock()
		return nil, fmt.Errorf("%w: %s events cannot be scheduled", ErrDropRejected, current.Status)
	}

	target := s.days[day]
	exclude := ""
	if source == SourceGrid {
		exclude = eventID
	}
	bookings := scheduler.BookingsFor(s.eventsOn(target.ISODate))
	start := s.sched.FindAvailableSlot(bookings, rawTime, current.Duration, exclude)

	moved := current.Clone()
	patch := event.Patch{Date: &target.Date, StartTime: &start}
	if source == SourceTray {
		proposed := event.StatusProposed
		patch.Status = &proposed
	}
	applyChange(moved, patch)
	s.place(moved)
	s.mu.Unlock()

	adjusted := start != rawTime
	s.logger.Info("event moved", "id", eventID, "date", moved.ISODate(), "start", start, "adjusted", adjusted)

	switch {
	case source == SourceTray:
		detail := fmt.Sprintf("%s - %s le %s", displayName(moved), start, target.DisplayDate)
		if adjusted {
			detail += " (créneau ajusté)"
		}
		s.emit(Notice{Kind: NoticeSuccess, Title: titleScheduled, Detail: detail})
	case adjusted:
		s.emit(Notice{Kind: NoticeInfo, Title: titleAdjusted, Detail: fmt.Sprintf("Placé à %s (créneau occupé)", start)})
	}

	update := event.UpdateFrom(moved)
	s.async("update", eventID, func(ctx context.Context) error {
		_, err := s.repo.UpdateEvent(ctx, update)
		return err
	}, nil, titleUpdateFailed)

	return moved.Clone(), nil
}

// Unschedule moves a scheduled event back to the tray.
func (s *Store) Unschedule(eventID string) (*event.Event, error) {
	s.mu.Lock()
	i := indexOf(s.scheduled, eventID)
	if i < 0 {
		s.mu.Unlock()
		return nil, fmt.Errorf("%w: %s", ErrNotInStore, eventID)
	}
	current := s.scheduled[i]
	if !event.CanTransition(current.Status, event.StatusUnscheduled) {
		s.mu.Unlock()
		return nil, fmt.Errorf("%w: %s events cannot be unscheduled", ErrDropRejected, current.Status)
	}

	moved := current.Clone()
	status := event.StatusUnscheduled
	applyChange(moved, event.Patch{ClearDate: true, Status: &status})
	s.place(moved)
	s.mu.Unlock()

	s.logger.Info("event unscheduled", "id", eventID)
	s.async("unschedule", eventID, func(ctx context.Context) error {
		_, err := s.repo.UpdateStatus(ctx, eventID, event.StatusUnscheduled)
		return err
	}, &Notice{Kind: NoticeSuccess, Title: titleUnscheduled}, titleUnschedFailed)

	return moved.Clone(), nil
}

// Confirm marks a proposed event as confirmed. For any other status it does
// nothing and reports false.
func (s *Store) Confirm(eventID string) (bool, error) {
	s.mu.Lock()
	e := s.find(eventID)
	if e == nil {
		s.mu.Unlock()
		return false, fmt.Errorf("%w: %s", ErrNotInStore, eventID)
	}
	if e.Status != event.StatusProposed {
		s.mu.Unlock()
		s.logger.Debug("confirm ignored", "id", eventID, "status", e.Status)
		return false, nil
	}
	confirmed := e.Clone()
	status := event.StatusConfirmed
	applyChange(confirmed, event.Patch{Status: &status})
	s.place(confirmed)
	s.mu.Unlock()

	s.logger.Info("event confirmed", "id", eventID)
	s.emit(Notice{Kind: NoticeSuccess, Title: titleConfirmed, Detail: displayName(confirmed)})
	s.async("confirm", eventID, func(ctx context.Context) error {
		_, err := s.repo.Confirm(ctx, eventID)
		return err
	}, nil, titleUpdateFailed)
	return true, nil
}

// SetStatus sets the status of an event without any transition check.
// Setting unscheduled also moves the event to the tray. Proposed and
// confirmed need a date, so they are rejected for tray events.
func (s *Store) SetStatus(eventID string, status event.Status) (*event.Event, error) {
	if _, err := event.ParseStatus(string(status)); err != nil {
		return nil, err
	}

	s.mu.Lock()
	e := s.find(eventID)
	if e == nil {
		s.mu.Unlock()
		return nil, fmt.Errorf("%w: %s", ErrNotInStore, eventID)
	}
	if e.Date == nil && (status == event.StatusProposed || status == event.StatusConfirmed) {
		s.mu.Unlock()
		return nil, fmt.Errorf("%w: %s events need a date", ErrDropRejected, status)
	}
	changed := e.Clone()
	applyChange(changed, event.Patch{Status: &status})
	s.place(changed)
	s.mu.Unlock()

	// normalize may have rewritten the status, send what the board shows.
	applied := changed.Status
	s.logger.Info("event status set", "id", eventID, "status", applied)
	s.async("status", eventID, func(ctx context.Context) error {
		_, err := s.repo.UpdateStatus(ctx, eventID, applied)
		return err
	}, &Notice{Kind: NoticeSuccess, Title: titleStatusChanged, Detail: string(applied)}, titleUpdateFailed)
	return changed.Clone(), nil
}

// EditEvent applies a manual edit, sends the full update and reloads the
// displayed week whatever the outcome. Manual placements are not moved to
// avoid overlaps; an overlap is reported as a warning instead.
func (s *Store) EditEvent(ctx context.Context, eventID string, p event.Patch) (*event.Event, error) {
	if err := validatePatch(p); err != nil {
		return nil, err
	}

	s.mu.Lock()
	e := s.find(eventID)
	if e == nil {
		s.mu.Unlock()
		return nil, fmt.Errorf("%w: %s", ErrNotInStore, eventID)
	}
	edited := e.Clone()
	applyChange(edited, p)
	if edited.Date != nil && edited.StartTime == "" {
		s.mu.Unlock()
		return nil, fmt.Errorf("start time required: %w", event.ErrInvalidTimeFormat)
	}
	var overlapping *event.Event
	if edited.Date != nil {
		for _, other := range s.eventsOn(edited.ISODate()) {
			if other.ID != edited.ID && edited.OverlapsWith(other) {
				overlapping = other.Clone()
				break
			}
		}
	}
	s.place(edited)
	s.mu.Unlock()

	if overlapping != nil {
		s.logger.Warn("edited event overlaps", "id", eventID, "other", overlapping.ID)
		s.emit(Notice{
			Kind:   NoticeWarning,
			Title:  titleOverlap,
			Detail: fmt.Sprintf("%v: %s", event.ErrOverlap, displayName(overlapping)),
		})
	}

	_, err := s.repo.UpdateEvent(ctx, event.UpdateFrom(edited))
	if err != nil {
		s.logger.Error("edit failed", "id", eventID, "error", err)
		s.emit(Notice{Kind: NoticeError, Title: titleEditFailed, Detail: err.Error()})
	} else {
		s.emit(Notice{Kind: NoticeSuccess, Title: titleEdited, Detail: displayName(edited)})
	}

	if rerr := s.Reload(ctx); rerr != nil && err == nil {
		err = rerr
	}
	if err != nil {
		return nil, err
	}
	return s.Find(eventID), nil
}

// Create stores a new event through the backend and reloads the week.
func (s *Store) Create(ctx context.Context, d *event.Draft) (*event.Event, error) {
	created, err := s.repo.CreateEvent(ctx, d)
	if err != nil {
		s.logger.Error("create failed", "title", d.Title, "error", err)
		s.emit(Notice{Kind: NoticeError, Title: titleCreateFailed, Detail: err.Error()})
		return nil, err
	}
	s.logger.Info("event created", "id", created.ID, "status", created.Status)
	s.emit(Notice{Kind: NoticeSuccess, Title: titleCreated, Detail: displayName(created)})
	if err := s.Reload(ctx); err != nil {
		return created, err
	}
	return created, nil
}

// Delete removes an event from the board and from the backend.
func (s *Store) Delete(eventID string) error {
	s.mu.Lock()
	removed := s.remove(eventID)
	s.mu.Unlock()
	if !removed {
		return fmt.Errorf("%w: %s", ErrNotInStore, eventID)
	}

	s.logger.Info("event deleted", "id", eventID)
	s.async("delete", eventID, func(ctx context.Context) error {
		return s.repo.DeleteEvent(ctx, eventID)
	}, &Notice{Kind: NoticeSuccess, Title: titleDeleted}, titleDeleteFailed)
	return nil
}

// Wait blocks until every background write has finished, including any
// reconciling reload it triggered.
func (s *Store) Wait() {
	s.writes.Wait()
}

// Find returns a copy of the event with the given ID, or nil.
func (s *Store) Find(eventID string) *event.Event {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.find(eventID).Clone()
}

// Scheduled returns copies of the scheduled events of the displayed week.
func (s *Store) Scheduled() []*event.Event {
	s.mu.Lock()
	defer s.mu.Unlock()
	return cloneAll(s.scheduled)
}

// Unscheduled returns copies of the events in the tray.
func (s *Store) Unscheduled() []*event.Event {
	s.mu.Lock()
	defer s.mu.Unlock()
	return cloneAll(s.unscheduled)
}

// Days returns the displayed week.
func (s *Store) Days() [7]event.WeekDay {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.days
}

// Offset returns the displayed week's offset from the current week.
func (s *Store) Offset() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.offset
}

// Week returns the scheduled events grouped by day.
func (s *Store) Week() *event.Week {
	s.mu.Lock()
	defer s.mu.Unlock()
	return event.NewWeek(s.days, cloneAll(s.scheduled))
}

// Counts returns how many scheduled events are proposed and confirmed.
func (s *Store) Counts() (proposed, confirmed int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, e := range s.scheduled {
		switch e.Status {
		case event.StatusProposed:
			proposed++
		case event.StatusConfirmed:
			confirmed++
		}
	}
	return proposed, confirmed
}

// Scheduler returns the slot finder used for placements.
func (s *Store) Scheduler() *scheduler.Scheduler {
	return s.sched
}

// async runs a backend write in the background. On failure it logs, emits
// an error notice and, when configured, reloads the displayed week.
func (s *Store) async(op, id string, call func(context.Context) error, success *Notice, failureTitle string) {
	s.writes.Add(1)
	go func() {
		defer s.writes.Done()
		ctx := context.Background()
		if err := call(ctx); err != nil {
			s.logger.Error("backend write failed", "op", op, "id", id, "error", err)
			s.emit(Notice{Kind: NoticeError, Title: failureTitle, Detail: err.Error()})
			if s.reloadOnFailure {
				_ = s.Reload(ctx)
			}
			return
		}
		s.logger.Debug("backend write done", "op", op, "id", id)
		if success != nil {
			s.emit(*success)
		}
	}()
}

func (s *Store) emit(notices ...Notice) {
	for _, n := range notices {
		s.notify.Notify(n)
	}
}

// eventsOn returns the scheduled events on the given date. Caller holds mu.
func (s *Store) eventsOn(isoDate string) []*event.Event {
	var out []*event.Event
	for _, e := range s.scheduled {
		if e.ISODate() == isoDate {
			out = append(out, e)
		}
	}
	return out
}

// find looks an event up in both lists. Caller holds mu.
func (s *Store) find(id string) *event.Event {
	if i := indexOf(s.scheduled, id); i >= 0 {
		return s.scheduled[i]
	}
	if i := indexOf(s.unscheduled, id); i >= 0 {
		return s.unscheduled[i]
	}
	return nil
}

// place stores e in the list matching its date, replacing any previous
// version of it. Caller holds mu.
func (s *Store) place(e *event.Event) {
	if i := indexOf(s.scheduled, e.ID); i >= 0 {
		if e.Date != nil {
			s.scheduled[i] = e
			return
		}
		s.scheduled = slices.Delete(s.scheduled, i, i+1)
	} else if i := indexOf(s.unscheduled, e.ID); i >= 0 {
		if e.Date == nil {
			s.unscheduled[i] = e
			return
		}
		s.unscheduled = slices.Delete(s.unscheduled, i, i+1)
	}

	if e.Date != nil {
		s.scheduled = append(s.scheduled, e)
	} else {
		s.unscheduled = append(s.unscheduled, e)
	}
}

// remove drops an event from both lists. Caller holds mu.
func (s *Store) remove(id string) bool {
	if i := indexOf(s.scheduled, id); i >= 0 {
		s.scheduled = slices.Delete(s.scheduled, i, i+1)
		return true
	}
	if i := indexOf(s.unscheduled, id); i >= 0 {
		s.unscheduled = slices.Delete(s.unscheduled, i, i+1)
		return true
	}
	return false
}

func indexOf(events []*event.Event, id string) int {
	return slices.IndexFunc(events, func(e *event.Event) bool { return e.ID == id })
}

func cloneAll(events []*event.Event) []*event.Event {
	out := make([]*event.Event, len(events))
	for i, e := range events {
		out[i] = e.Clone()
	}
	return out
}

func displayName(e *event.Event) string {
	if e.ClientName != "" {
		return e.ClientName
	}
	return e.Title
}
