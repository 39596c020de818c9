package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"

	"github.com/javiermolinar/orga/internal/event"
	"github.com/javiermolinar/orga/internal/summary"
)

// View renders the board.
func (m Model) View() string {
	if m.mode == ModeHelp {
		return m.renderHelp()
	}

	grid := lipgloss.JoinVertical(lipgloss.Left, m.renderDayHeaders(), m.renderGrid())
	body := lipgloss.JoinHorizontal(lipgloss.Top, grid, " ", m.renderTray())

	return lipgloss.JoinVertical(lipgloss.Left,
		m.renderHeader(),
		body,
		m.renderFooter(),
	)
}

func (m Model) renderHeader() string {
	title := fmt.Sprintf("Semaine du %s au %s", m.days[0].DisplayDate, m.days[6].DisplayDate)
	proposed, confirmed := m.store.Counts()
	counts := fmt.Sprintf("  %d proposé(s) · %d confirmé(s)", proposed, confirmed)
	if m.loading {
		counts += "  chargement…"
	}
	return m.styles.Title.Render(title) + m.styles.Muted.Render(counts)
}

func (m Model) renderDayHeaders() string {
	width := m.colWidth()
	today := m.nowFunc().Format("2006-01-02")
	var b strings.Builder
	b.WriteString(strings.Repeat(" ", timeColumnWidth))
	for _, d := range m.days {
		label := fit(d.Label+" "+d.DisplayDate, width)
		if d.ISODate == today {
			b.WriteString(m.styles.DayToday.Render(label))
		} else {
			b.WriteString(m.styles.DayHeader.Render(label))
		}
	}
	return b.String()
}

func (m Model) renderGrid() string {
	width := m.colWidth()
	lines := make([]string, 0, m.rows())
	for row := range m.rows() {
		minutes := m.dayStart + row*m.rowMinutes
		var b strings.Builder
		label := ""
		if minutes%60 == 0 {
			label = event.MinutesToTime(minutes)
		}
		b.WriteString(m.styles.TimeColumn.Render(label))
		for day := range 7 {
			b.WriteString(m.renderCell(Position{Day: day, Row: row}, width))
		}
		lines = append(lines, b.String())
	}
	return strings.Join(lines, "\n")
}

// renderCell draws one row of one day column.
func (m Model) renderCell(pos Position, width int) string {
	isCursor := m.focus == FocusGrid && pos == m.cursor
	rowStart := m.dayStart + pos.Row*m.rowMinutes

	if isCursor && m.mode == ModeCarry {
		return m.styles.Ghost.Render(fit("▸ "+m.carriedBy, width))
	}

	e := m.eventAt(pos)
	if e == nil {
		text := strings.Repeat(" ", width)
		switch {
		case isCursor:
			return m.styles.Cursor.Render(fit(" "+event.MinutesToTime(rowStart), width))
		case rowStart%60 == 0:
			return m.styles.HourCell.Render(text)
		default:
			return m.styles.EmptyCell.Render(text)
		}
	}

	text := ""
	start := event.TimeToMinutes(e.StartTime)
	switch {
	case rowStart <= start:
		text = summary.Title(e)
	case rowStart-m.rowMinutes <= start:
		text = fmt.Sprintf("%s-%s %s", e.StartTime, e.EndTime(), e.Status.Label())
	}
	if m.carried != nil && m.carried.ID == e.ID {
		text = "…"
	}

	style := m.styles.Tile(e.Status, m.tileIndex(pos.Day, e)%2 == 1)
	if isCursor {
		style = style.Reverse(true)
	}
	return style.Render(fit(text, width-1))
}

// tileIndex returns the position of e among the events of its day.
func (m Model) tileIndex(day int, e *event.Event) int {
	for i, other := range m.week.Day(day) {
		if other.ID == e.ID {
			return i
		}
	}
	return 0
}

func (m Model) renderTray() string {
	lines := []string{m.styles.Title.Render(fmt.Sprintf("À programmer (%d)", len(m.tray)))}
	inner := trayWidth - 4
	for i, e := range m.tray {
		line := fit(fmt.Sprintf("%s %s", summary.Title(e), summary.FormatMinutes(e.Duration)), inner)
		if m.focus == FocusTray && i == m.trayIndex {
			lines = append(lines, m.styles.TraySelect.Render(line))
		} else {
			lines = append(lines, m.styles.TrayItem.Render(line))
		}
	}
	if len(m.tray) == 0 {
		lines = append(lines, m.styles.Muted.Render(fit("Aucun événement", inner)))
	}
	if m.mode == ModeCarry && m.focus == FocusTray {
		lines = append(lines, m.styles.Ghost.Render(fit("▸ déposer ici", inner)))
	}

	box := m.styles.TrayBox
	if m.focus == FocusTray {
		box = m.styles.TrayFocused
	}
	return box.Width(trayWidth - 2).Render(strings.Join(lines, "\n"))
}

func (m Model) renderFooter() string {
	if m.mode == ModePrompt {
		return m.styles.Prompt.Render(m.prompt.View())
	}
	if m.statusMsg != "" {
		return m.styles.Notice(m.statusKind).Render(m.statusMsg)
	}
	hint := "←↓↑→ déplacer  espace prendre/déposer  tab bac  c confirmer  u déprogrammer  [ ] semaine  y copier  ? aide  q quitter"
	if m.mode == ModeCarry {
		hint = fmt.Sprintf("Déplacement de %q: espace déposer  tab bac  esc annuler", m.carriedBy)
	}
	if m.width > 0 {
		hint = truncate(hint, m.width)
	}
	return m.styles.Footer.Render(hint)
}

func (m Model) renderHelp() string {
	keys := [][2]string{
		{"← → h l", "jour précédent / suivant"},
		{"↑ ↓ k j", "créneau précédent / suivant"},
		{"tab", "basculer entre planning et bac"},
		{"espace", "prendre ou déposer un événement"},
		{"esc", "annuler le déplacement"},
		{"u", "déprogrammer"},
		{"c", "confirmer"},
		{"p t x", "proposé, terminé, annulé"},
		{"e", "modifier le titre"},
		{"d", "modifier la durée"},
		{"[ ]", "semaine précédente / suivante"},
		{"g", "semaine courante"},
		{"r", "recharger"},
		{"y", "copier le résumé de la semaine"},
		{"q", "quitter"},
	}
	lines := []string{m.styles.Title.Render("Raccourcis"), ""}
	for _, k := range keys {
		lines = append(lines, m.styles.Prompt.Render(fit(k[0], 10))+m.styles.TrayItem.Render(k[1]))
	}
	lines = append(lines, "", m.styles.Muted.Render("Appuyez sur une touche pour revenir"))
	return strings.Join(lines, "\n")
}

func truncate(s string, width int) string {
	return ansi.Truncate(s, width, "…")
}
