package ui

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/spf13/cobra"

	"github.com/javiermolinar/orga/internal/board"
	"github.com/javiermolinar/orga/internal/dateutil"
	"github.com/javiermolinar/orga/internal/event"
	"github.com/javiermolinar/orga/internal/summary"
)

// errCrossWeek is returned when a scheduled event is moved out of its week.
var errCrossWeek = errors.New("a scheduled event can only be moved within its week, use edit --date")

// printNotifier writes store notices to the command output.
type printNotifier struct {
	mu sync.Mutex
	w  io.Writer
}

func (p *printNotifier) Notify(n board.Notice) {
	p.mu.Lock()
	defer p.mu.Unlock()
	fmt.Fprintln(p.w, formatNotice(n))
}

// openStore creates a store that prints its notices.
func (a *App) openStore() (*board.Store, error) {
	return a.newStore(&printNotifier{w: a.out})
}

// locate finds an event, scheduled or not, by ID or unambiguous ID prefix.
func (a *App) locate(ctx context.Context, id string) (*event.Event, error) {
	repo, err := a.backend()
	if err != nil {
		return nil, err
	}
	events, err := repo.ListEvents(ctx, event.Filter{IncludeUnscheduled: true})
	if err != nil {
		return nil, fmt.Errorf("listing events: %w", err)
	}

	var matches []*event.Event
	for _, e := range events {
		if e.ID == id {
			return e, nil
		}
		if strings.HasPrefix(e.ID, id) {
			matches = append(matches, e)
		}
	}
	switch len(matches) {
	case 0:
		return nil, fmt.Errorf("%w: %s", event.ErrEventNotFound, id)
	case 1:
		return matches[0], nil
	default:
		return nil, fmt.Errorf("id prefix %q matches %d events", id, len(matches))
	}
}

// loadAround locates id and loads the week it is scheduled in, or the
// current week for tray events.
func (a *App) loadAround(ctx context.Context, store *board.Store, id string) (*event.Event, error) {
	e, err := a.locate(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := a.loadWeekOf(ctx, store, e.Date); err != nil {
		return nil, err
	}
	return e, nil
}

func (a *App) loadWeekOf(ctx context.Context, store *board.Store, date *time.Time) error {
	if date == nil {
		return store.ShowWeek(ctx, 0)
	}
	monday, sunday := dateutil.WeekRange(*date)
	return store.LoadWeek(ctx, monday, sunday)
}

// printEvent prints a one-line description of e.
func (a *App) printEvent(prefix string, e *event.Event) {
	when := "à programmer"
	if e.Date != nil {
		when = fmt.Sprintf("%s %s %s-%s",
			event.WeekdayName(event.DayIndex(*e.Date)), e.ISODate(), e.StartTime, e.EndTime())
	}
	fmt.Fprintf(a.out, "%s %s  %s  %s [%s]\n",
		prefix, formatMuted(shortID(e.ID)), summary.Title(e), when, formatStatus(e.Status))
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

func (a *App) addCmd() *cobra.Command {
	var (
		eventType   string
		clientID    string
		date        string
		start       string
		duration    int
		location    string
		description string
	)

	cmd := &cobra.Command{
		Use:   "add [title]",
		Short: "Create an event",
		Long: `Create an event. Without --date it goes to the "À programmer" tray.

Example:
  orga add "Taille de haies" --type=chantier --duration=120
  orga add "Visite devis" --type=rdv --date=mercredi --start=14:00 --duration=60
  orga add "Tonte" --date=next    # next free start of the working day`,
		Args: cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			sched := a.scheduler()
			switch date {
			case "":
			case "next":
				slot := sched.NextAvailableStart(a.now())
				date = dateutil.FormatLocal(slot.Date)
				if start == "" {
					start = slot.Start
				}
			default:
				d, err := dateutil.ParseRelativeDate(date, a.now())
				if err != nil {
					return err
				}
				date = dateutil.FormatLocal(d)
			}
			draft, err := event.NewDraft(eventType, args[0], clientID, date, start, duration)
			if err != nil {
				return err
			}
			draft.Location = location
			draft.Description = description

			if draft.Date != nil {
				if !sched.IsWorkday(*draft.Date) {
					fmt.Fprintln(a.out, formatMuted(fmt.Sprintf("%s n'est pas un jour travaillé", draft.Date.Format("2006-01-02"))))
				}
				if !sched.WithinDay(draft.StartTime, draft.Duration) {
					fmt.Fprintln(a.out, formatMuted(fmt.Sprintf("hors de la journée (%s-%s)", sched.DayStart(), sched.DayEnd())))
				}
			}

			ctx, cancel := cliContext()
			defer cancel()
			store, err := a.openStore()
			if err != nil {
				return err
			}
			if err := a.loadWeekOf(ctx, store, draft.Date); err != nil {
				return err
			}
			created, err := store.Create(ctx, draft)
			if err != nil {
				return fmt.Errorf("creating event: %w", err)
			}
			a.printEvent("Créé", created)
			return nil
		},
	}

	cmd.Flags().StringVar(&eventType, "type", string(event.TypeChantier), "Type: chantier, rdv, prospection or autre")
	cmd.Flags().StringVar(&clientID, "client", "", "Client ID")
	cmd.Flags().StringVar(&date, "date", "", "Date (YYYY-MM-DD, weekday name, demain, next); empty for the tray")
	cmd.Flags().StringVar(&start, "start", "", "Start time (HH:MM), required with --date")
	cmd.Flags().IntVar(&duration, "duration", 60, "Duration in minutes")
	cmd.Flags().StringVar(&location, "location", "", "Location")
	cmd.Flags().StringVar(&description, "description", "", "Description")
	return cmd
}

func (a *App) moveCmd() *cobra.Command {
	var (
		day  string
		date string
		at   string
	)

	cmd := &cobra.Command{
		Use:   "move [id]",
		Short: "Place an event on the week",
		Long: `Place an event at the first free slot at or near the requested time.

Events from the tray are placed on the current week with --day, or on any
week with --date, and become proposed. Scheduled events move within their
own week.

Example:
  orga move 3f2a9c1e --day=mardi --time=09:00
  orga move 3f2a9c1e --date=2025-01-21 --time=14:30`,
		Args: cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			if (day == "") == (date == "") {
				return errors.New("exactly one of --day and --date is required")
			}
			if err := event.ValidateTime(at); err != nil {
				return err
			}

			ctx, cancel := cliContext()
			defer cancel()
			store, err := a.openStore()
			if err != nil {
				return err
			}
			e, err := a.loadAround(ctx, store, args[0])
			if err != nil {
				return err
			}

			source := board.SourceGrid
			if e.Date == nil {
				source = board.SourceTray
			}

			index := 0
			if day != "" {
				wd, ok := dateutil.ParseWeekday(day)
				if !ok {
					return fmt.Errorf("unknown day %q", day)
				}
				index = (int(wd) + 6) % 7
			} else {
				target, err := dateutil.ParseDate(date)
				if err != nil {
					return err
				}
				if source == board.SourceGrid && !sameWeek(*e.Date, target) {
					return errCrossWeek
				}
				if err := a.loadWeekOf(ctx, store, &target); err != nil {
					return err
				}
				index = event.DayIndex(target)
			}

			minutes := event.TimeToMinutes(at)
			drag := board.NewDragDrop(store, a.config.Board.SnapMinutes, a.config.Board.PointerMinutes)
			moved, err := drag.DropAt(
				board.Item{ID: e.ID, Source: source},
				board.GridCell{Day: index, Hour: minutes / 60},
				board.RawDropTime(minutes/60, minutes%60),
			)
			if err != nil {
				return err
			}
			store.Wait()
			a.printEvent("Placé", moved)
			return nil
		},
	}

	cmd.Flags().StringVar(&day, "day", "", "Day of the week (lundi..dimanche)")
	cmd.Flags().StringVar(&date, "date", "", "Date (YYYY-MM-DD)")
	cmd.Flags().StringVar(&at, "time", "", "Requested start time (HH:MM)")
	_ = cmd.MarkFlagRequired("time")
	return cmd
}

func sameWeek(a, b time.Time) bool {
	return dateutil.StartOfWeek(a).Equal(dateutil.StartOfWeek(b))
}

func (a *App) unscheduleCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "unschedule [id]",
		Short: "Send an event back to the tray",
		Args:  cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			return a.withEvent(args[0], func(store *board.Store, e *event.Event) (*event.Event, error) {
				return store.Unschedule(e.ID)
			})
		},
	}
}

func (a *App) confirmCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "confirm [id]",
		Short: "Confirm a proposed event",
		Args:  cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			return a.withEvent(args[0], func(store *board.Store, e *event.Event) (*event.Event, error) {
				ok, err := store.Confirm(e.ID)
				if err != nil {
					return nil, err
				}
				if !ok {
					return nil, fmt.Errorf("only proposed events can be confirmed, this one is %s", e.Status.Label())
				}
				return store.Find(e.ID), nil
			})
		},
	}
}

func (a *App) statusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status [id] [status]",
		Short: "Set the status of an event",
		Long: `Set the status of an event without transition checks.

Statuses: unscheduled, proposed, confirmed, completed, cancelled.
Setting unscheduled also sends the event back to the tray.`,
		Args: cobra.ExactArgs(2),
		RunE: func(_ *cobra.Command, args []string) error {
			status, err := event.ParseStatus(args[1])
			if err != nil {
				return err
			}
			return a.withEvent(args[0], func(store *board.Store, e *event.Event) (*event.Event, error) {
				return store.SetStatus(e.ID, status)
			})
		},
	}
}

func (a *App) deleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete [id]",
		Short: "Delete an event",
		Args:  cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			return a.withEvent(args[0], func(store *board.Store, e *event.Event) (*event.Event, error) {
				if err := store.Delete(e.ID); err != nil {
					return nil, err
				}
				return nil, nil
			})
		},
	}
}

func (a *App) editCmd() *cobra.Command {
	var (
		eventType   string
		title       string
		date        string
		start       string
		duration    int
		location    string
		description string
	)

	cmd := &cobra.Command{
		Use:   "edit [id]",
		Short: "Edit an event",
		Long: `Edit the fields of an event. Only the flags given are changed.
The event is stored where it is put, an overlap is reported as a warning.

Example:
  orga edit 3f2a9c1e --date=2025-01-22 --start=08:00 --duration=240`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var p event.Patch
			flags := cmd.Flags()
			if flags.Changed("type") {
				t, err := event.ParseType(eventType)
				if err != nil {
					return err
				}
				p.Type = &t
			}
			if flags.Changed("title") {
				p.Title = &title
			}
			if flags.Changed("date") {
				d, err := dateutil.ParseDate(date)
				if err != nil {
					return err
				}
				p.Date = &d
			}
			if flags.Changed("start") {
				p.StartTime = &start
			}
			if flags.Changed("duration") {
				p.Duration = &duration
			}
			if flags.Changed("location") {
				p.Location = &location
			}
			if flags.Changed("description") {
				p.Description = &description
			}

			ctx, cancel := cliContext()
			defer cancel()
			store, err := a.openStore()
			if err != nil {
				return err
			}
			e, err := a.loadAround(ctx, store, args[0])
			if err != nil {
				return err
			}
			edited, err := store.EditEvent(ctx, e.ID, p)
			if err != nil {
				return err
			}
			if edited == nil {
				// Edited out of the displayed week.
				if edited, err = a.locate(ctx, e.ID); err != nil {
					return err
				}
			}
			a.printEvent("Modifié", edited)
			return nil
		},
	}

	cmd.Flags().StringVar(&eventType, "type", "", "Type: chantier, rdv, prospection or autre")
	cmd.Flags().StringVar(&title, "title", "", "Title")
	cmd.Flags().StringVar(&date, "date", "", "Date (YYYY-MM-DD)")
	cmd.Flags().StringVar(&start, "start", "", "Start time (HH:MM)")
	cmd.Flags().IntVar(&duration, "duration", 0, "Duration in minutes")
	cmd.Flags().StringVar(&location, "location", "", "Location")
	cmd.Flags().StringVar(&description, "description", "", "Description")
	return cmd
}

// withEvent loads the week of id, runs op on the store, waits for the
// backend write and prints the result.
func (a *App) withEvent(id string, op func(*board.Store, *event.Event) (*event.Event, error)) error {
	ctx, cancel := cliContext()
	defer cancel()

	store, err := a.openStore()
	if err != nil {
		return err
	}
	e, err := a.loadAround(ctx, store, id)
	if err != nil {
		return err
	}
	result, err := op(store, e)
	if err != nil {
		return err
	}
	store.Wait()
	if result != nil {
		a.printEvent("→", result)
	}
	return nil
}
