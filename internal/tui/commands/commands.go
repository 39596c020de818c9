// Package commands provides TUI command constructors and message types.
package commands

import (
	"context"
	"time"

	"github.com/atotto/clipboard"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/javiermolinar/orga/internal/board"
	"github.com/javiermolinar/orga/internal/event"
	"github.com/javiermolinar/orga/internal/summary"
)

// WeekLoadedMsg is sent when a week has been loaded into the store.
type WeekLoadedMsg struct {
	Offset int
}

// ErrMsg is sent when an error occurs.
type ErrMsg struct {
	Err error
}

// NoticeMsg carries a notice emitted by the store.
type NoticeMsg struct {
	Notice board.Notice
}

// RefreshTickMsg is sent by the scheduled refresher.
type RefreshTickMsg struct{}

// EditedMsg is sent when a manual edit has been stored and the week reloaded.
type EditedMsg struct {
	Event *event.Event
}

// SummaryCopiedMsg is sent when the week summary is on the clipboard.
type SummaryCopiedMsg struct {
	Summary *summary.WeekSummary
}

// ClearStatusMsg is sent to clear the status message.
type ClearStatusMsg struct{}

// clipboardWrite is replaced in tests.
var clipboardWrite = clipboard.WriteAll

// LoadWeek shows the week offset weeks away from the current one.
func LoadWeek(store *board.Store, offset int) tea.Cmd {
	return func() tea.Msg {
		if err := store.ShowWeek(context.Background(), offset); err != nil {
			return ErrMsg{Err: err}
		}
		return WeekLoadedMsg{Offset: offset}
	}
}

// Reload re-fetches the displayed week.
func Reload(store *board.Store) tea.Cmd {
	return func() tea.Msg {
		if err := store.Reload(context.Background()); err != nil {
			return ErrMsg{Err: err}
		}
		return WeekLoadedMsg{Offset: store.Offset()}
	}
}

// EditEvent applies a manual edit through the store.
func EditEvent(store *board.Store, id string, p event.Patch) tea.Cmd {
	return func() tea.Msg {
		e, err := store.EditEvent(context.Background(), id, p)
		if err != nil {
			return ErrMsg{Err: err}
		}
		return EditedMsg{Event: e}
	}
}

// CopyWeekSummary builds the summary of the displayed week and writes its
// text to the system clipboard.
func CopyWeekSummary(store *board.Store) tea.Cmd {
	return func() tea.Msg {
		s := summary.SummarizeWeek(store.Days(), store.Scheduled(), store.Unscheduled(), store.Scheduler())
		if err := clipboardWrite(s.Text()); err != nil {
			return ErrMsg{Err: err}
		}
		return SummaryCopiedMsg{Summary: s}
	}
}

// WaitForNotice blocks until the store emits a notice.
func WaitForNotice(ch <-chan board.Notice) tea.Cmd {
	return func() tea.Msg {
		n, ok := <-ch
		if !ok {
			return nil
		}
		return NoticeMsg{Notice: n}
	}
}

// WaitForRefresh blocks until the refresher ticks.
func WaitForRefresh(ch <-chan struct{}) tea.Cmd {
	return func() tea.Msg {
		if _, ok := <-ch; !ok {
			return nil
		}
		return RefreshTickMsg{}
	}
}

// ClearStatusAfter clears the status line after d.
func ClearStatusAfter(d time.Duration) tea.Cmd {
	return tea.Tick(d, func(time.Time) tea.Msg {
		return ClearStatusMsg{}
	})
}
