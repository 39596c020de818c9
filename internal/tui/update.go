package tui

import (
	tea "github.com/charmbracelet/bubbletea"

	"github.com/javiermolinar/orga/internal/board"
	"github.com/javiermolinar/orga/internal/summary"
	"github.com/javiermolinar/orga/internal/tui/commands"
)

// Update handles messages and updates the model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKeyMsg(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.calculateLayout()
		return m, nil

	case commands.WeekLoadedMsg:
		m.loading = false
		m.sync()
		if msg.Offset == 0 {
			m.focusNow()
		}
		return m, nil

	case commands.EditedMsg:
		m.loading = false
		m.sync()
		return m, nil

	case commands.ErrMsg:
		m.loading = false
		m.sync()
		return m, m.setStatus(board.NoticeError, msg.Err.Error())

	case commands.NoticeMsg:
		m.sync()
		text := msg.Notice.Title
		if msg.Notice.Detail != "" {
			text += ": " + msg.Notice.Detail
		}
		return m, tea.Batch(
			m.setStatus(msg.Notice.Kind, text),
			commands.WaitForNotice(m.notices),
		)

	case commands.RefreshTickMsg:
		m.logger.Debug("scheduled refresh", "offset", m.offset)
		cmds := []tea.Cmd{commands.WaitForRefresh(m.refresh)}
		if m.mode == ModeNormal {
			cmds = append(cmds, commands.Reload(m.store))
		}
		return m, tea.Batch(cmds...)

	case commands.SummaryCopiedMsg:
		return m, m.setStatus(board.NoticeSuccess,
			"Résumé copié ("+summary.FormatMinutes(msg.Summary.Stats.TotalMinutes)+")")

	case commands.ClearStatusMsg:
		if !m.nowFunc().Before(m.statusTime) {
			m.statusMsg = ""
		}
		return m, nil
	}

	if m.mode == ModePrompt {
		var cmd tea.Cmd
		m.prompt, cmd = m.prompt.Update(msg)
		return m, cmd
	}
	return m, nil
}
