package tui

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/javiermolinar/orga/internal/board"
	"github.com/javiermolinar/orga/internal/event"
	"github.com/javiermolinar/orga/internal/summary"
	"github.com/javiermolinar/orga/internal/tui/commands"
)

// handleKeyMsg dispatches a key press according to the current mode.
func (m Model) handleKeyMsg(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	key := msg.String()
	m.logger.Debug("key", "key", key, "mode", m.mode, "focus", m.focus)

	if key == "ctrl+c" {
		return m, tea.Quit
	}

	switch m.mode {
	case ModePrompt:
		return m.handlePromptKey(msg)
	case ModeHelp:
		m.mode = ModeNormal
		return m, nil
	}

	if m.handleNavigation(key) {
		return m, nil
	}

	switch key {
	case "q":
		if m.mode == ModeCarry {
			m.cancelCarry()
			return m, nil
		}
		return m, tea.Quit
	case "esc":
		m.cancelCarry()
		return m, nil
	case "?":
		m.mode = ModeHelp
		return m, nil
	case "tab":
		if m.focus == FocusGrid {
			m.focus = FocusTray
		} else {
			m.focus = FocusGrid
		}
		return m, nil
	case " ", "enter":
		if m.mode == ModeCarry {
			return m.drop()
		}
		return m.pickUp()
	case "[":
		return m.showWeek(m.offset - 1)
	case "]":
		return m.showWeek(m.offset + 1)
	case "g":
		return m.showWeek(0)
	case "r":
		m.loading = true
		return m, commands.Reload(m.store)
	case "y":
		return m, commands.CopyWeekSummary(m.store)
	}

	if m.mode == ModeCarry {
		return m, nil
	}

	target := m.selected()
	if target == nil {
		return m, nil
	}

	switch key {
	case "u":
		return m.apply(func() error {
			_, err := m.store.Unschedule(target.ID)
			return err
		})
	case "c":
		return m.apply(func() error {
			ok, err := m.store.Confirm(target.ID)
			if err == nil && !ok {
				return fmt.Errorf("seul un rendez-vous proposé peut être confirmé (%s)", target.Status.Label())
			}
			return err
		})
	case "p", "t", "x":
		status := map[string]event.Status{
			"p": event.StatusProposed,
			"t": event.StatusCompleted,
			"x": event.StatusCancelled,
		}[key]
		return m.apply(func() error {
			_, err := m.store.SetStatus(target.ID, status)
			return err
		})
	case "e":
		return m.openPrompt(promptTitle, target)
	case "d":
		return m.openPrompt(promptDuration, target)
	}
	return m, nil
}

// handleNavigation moves the cursor. It reports whether key was consumed.
func (m *Model) handleNavigation(key string) bool {
	switch key {
	case "left", "h":
		m.focus = FocusGrid
		m.cursor.Day = max(0, m.cursor.Day-1)
	case "right", "l":
		m.focus = FocusGrid
		m.cursor.Day = min(6, m.cursor.Day+1)
	case "up", "k":
		if m.focus == FocusTray {
			m.trayIndex = max(0, m.trayIndex-1)
		} else {
			m.cursor.Row = max(0, m.cursor.Row-1)
		}
	case "down", "j":
		if m.focus == FocusTray {
			m.trayIndex = min(max(0, len(m.tray)-1), m.trayIndex+1)
		} else {
			m.cursor.Row = min(m.rows()-1, m.cursor.Row+1)
		}
	default:
		return false
	}
	return true
}

// pickUp starts carrying the selected event.
func (m Model) pickUp() (tea.Model, tea.Cmd) {
	e := m.selected()
	if e == nil {
		return m, nil
	}
	source := board.SourceGrid
	if m.focus == FocusTray {
		source = board.SourceTray
		m.focus = FocusGrid
	}
	m.carried = &board.Item{ID: e.ID, Source: source}
	m.carriedBy = summary.Title(e)
	m.mode = ModeCarry
	return m, nil
}

// drop releases the carried event on the grid cell under the cursor, or on
// the tray when the tray has focus.
func (m Model) drop() (tea.Model, tea.Cmd) {
	item := *m.carried
	var (
		target board.Target
		raw    string
	)
	if m.focus == FocusTray {
		target = board.TrayZone{}
	} else {
		minutes := m.cursorMinutes()
		target = board.GridCell{Day: m.cursor.Day, Hour: minutes / 60}
		raw = board.RawDropTime(minutes/60, minutes%60)
	}
	m.cancelCarry()

	_, err := m.drag.DropAt(item, target, raw)
	m.sync()
	if err != nil {
		return m, m.setStatus(board.NoticeWarning, dropError(err))
	}
	if e := m.store.Find(item.ID); e != nil && e.StartTime != "" {
		m.cursor.Row = min(m.rows()-1, max(0, (event.TimeToMinutes(e.StartTime)-m.dayStart)/m.rowMinutes))
	}
	return m, nil
}

func (m *Model) cancelCarry() {
	m.carried = nil
	m.carriedBy = ""
	m.mode = ModeNormal
}

// apply runs a store operation and refreshes the snapshot.
func (m Model) apply(op func() error) (tea.Model, tea.Cmd) {
	err := op()
	m.sync()
	if err != nil {
		return m, m.setStatus(board.NoticeWarning, dropError(err))
	}
	return m, nil
}

func (m Model) showWeek(offset int) (tea.Model, tea.Cmd) {
	m.loading = true
	return m, commands.LoadWeek(m.store, offset)
}

func (m Model) openPrompt(kind promptKind, target *event.Event) (tea.Model, tea.Cmd) {
	m.mode = ModePrompt
	m.promptKind = kind
	m.promptTarget = target.ID
	m.prompt.Reset()
	switch kind {
	case promptTitle:
		m.prompt.Prompt = "Titre: "
		m.prompt.SetValue(target.Title)
	case promptDuration:
		m.prompt.Prompt = "Durée (min): "
		m.prompt.SetValue(strconv.Itoa(target.Duration))
	}
	m.prompt.CursorEnd()
	m.prompt.Focus()
	return m, textinput.Blink
}

func (m Model) handlePromptKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEsc:
		m.closePrompt()
		return m, nil
	case tea.KeyEnter:
		value := strings.TrimSpace(m.prompt.Value())
		id := m.promptTarget
		kind := m.promptKind
		m.closePrompt()

		var patch event.Patch
		switch kind {
		case promptTitle:
			if value == "" {
				return m, m.setStatus(board.NoticeWarning, event.ErrEmptyTitle.Error())
			}
			patch.Title = &value
		case promptDuration:
			d, err := strconv.Atoi(value)
			if err != nil || d <= 0 {
				return m, m.setStatus(board.NoticeWarning, event.ErrInvalidDuration.Error())
			}
			patch.Duration = &d
		}
		m.loading = true
		return m, commands.EditEvent(m.store, id, patch)
	}

	var cmd tea.Cmd
	m.prompt, cmd = m.prompt.Update(msg)
	return m, cmd
}

func (m *Model) closePrompt() {
	m.prompt.Blur()
	m.mode = ModeNormal
	m.promptTarget = ""
}

// dropError turns a board error into a status-line message.
func dropError(err error) string {
	switch {
	case errors.Is(err, board.ErrNotInStore):
		return "Événement introuvable sur le planning"
	case errors.Is(err, board.ErrDropRejected):
		return "Déplacement impossible: " + err.Error()
	default:
		return err.Error()
	}
}
