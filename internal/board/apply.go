package board

import (
	"fmt"
	"strings"

	"github.com/javiermolinar/orga/internal/event"
)

// validatePatch checks the fields a patch sets, without touching any event.
func validatePatch(p event.Patch) error {
	if p.Type != nil {
		if _, err := event.ParseType(string(*p.Type)); err != nil {
			return err
		}
	}
	if p.Title != nil && strings.TrimSpace(*p.Title) == "" {
		return event.ErrEmptyTitle
	}
	if p.StartTime != nil && *p.StartTime != "" {
		if err := event.ValidateTime(*p.StartTime); err != nil {
			return fmt.Errorf("start time: %w", err)
		}
	}
	if p.Duration != nil && *p.Duration <= 0 {
		return event.ErrInvalidDuration
	}
	if p.Status != nil {
		if _, err := event.ParseStatus(string(*p.Status)); err != nil {
			return err
		}
	}
	return nil
}

// applyChange is the only place an event's placement fields are written.
// After it returns, DayIndex matches Date, StartTime is empty when Date is
// nil, and a dated event is never unscheduled.
func applyChange(e *event.Event, p event.Patch) {
	if p.Type != nil {
		e.Type = *p.Type
	}
	if p.Title != nil {
		e.Title = strings.TrimSpace(*p.Title)
	}
	if p.Location != nil {
		e.Location = *p.Location
	}
	if p.Description != nil {
		e.Description = *p.Description
	}
	if p.Duration != nil {
		e.Duration = *p.Duration
	}
	if p.StartTime != nil {
		e.StartTime = *p.StartTime
	}
	if p.Status != nil {
		e.Status = *p.Status
	}

	switch {
	case p.ClearDate:
		e.Date = nil
	case p.Date != nil:
		d := *p.Date
		e.Date = &d
		if e.Status == event.StatusUnscheduled && p.Status == nil {
			e.Status = event.StatusProposed
		}
	}

	if e.Status == event.StatusUnscheduled {
		e.Date = nil
	}
	normalize(e)
}

// normalize restores the derived fields of an event.
func normalize(e *event.Event) {
	if e.Date == nil {
		e.StartTime = ""
		e.DayIndex = 0
		if e.Status == event.StatusProposed || e.Status == event.StatusConfirmed || e.Status == "" {
			e.Status = event.StatusUnscheduled
		}
		return
	}
	e.DayIndex = event.DayIndex(*e.Date)
}
