// Package tui provides the terminal scheduling board.
package tui

import (
	"log/slog"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/javiermolinar/orga/internal/board"
	"github.com/javiermolinar/orga/internal/config"
	"github.com/javiermolinar/orga/internal/event"
	"github.com/javiermolinar/orga/internal/tui/commands"
	"github.com/javiermolinar/orga/internal/tui/theme"
)

// Mode represents the current interaction mode.
type Mode int

const (
	ModeNormal Mode = iota
	ModeCarry       // an item is picked up and follows the cursor
	ModePrompt
	ModeHelp
)

// Focus is the board area receiving cursor keys.
type Focus int

const (
	FocusGrid Focus = iota
	FocusTray
)

type promptKind int

const (
	promptTitle promptKind = iota
	promptDuration
)

// Position is a cursor position on the grid.
type Position struct {
	Day int // 0=Monday
	Row int // row index from the start of the working day
}

// statusDuration is how long a notice stays on the status line.
const statusDuration = 4 * time.Second

// Model is the board TUI model.
type Model struct {
	store  *board.Store
	drag   *board.DragDrop
	config *config.Config
	logger *slog.Logger

	styles *Styles

	notices <-chan board.Notice
	refresh <-chan struct{}

	// Grid geometry, in minutes.
	dayStart    int
	dayEnd      int
	pointerStep int
	rowMinutes  int

	// Snapshot of the store, refreshed after every change.
	days   [7]event.WeekDay
	week   *event.Week
	tray   []*event.Event
	offset int

	cursor    Position
	focus     Focus
	trayIndex int
	mode      Mode
	carried   *board.Item
	carriedBy string // title of the carried event
	loading   bool

	prompt       textinput.Model
	promptKind   promptKind
	promptTarget string

	statusMsg  string
	statusKind board.NoticeKind
	statusTime time.Time

	width  int
	height int

	nowFunc func() time.Time
}

// Option configures a Model.
type Option func(*Model)

// WithNotices subscribes the model to store notices.
func WithNotices(ch <-chan board.Notice) Option {
	return func(m *Model) { m.notices = ch }
}

// WithRefresh reloads the week whenever ch ticks.
func WithRefresh(ch <-chan struct{}) Option {
	return func(m *Model) { m.refresh = ch }
}

// WithTheme sets the color theme.
func WithTheme(t *theme.Theme) Option {
	return func(m *Model) { m.styles = NewStyles(theme.NewPalette(t)) }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(m *Model) { m.logger = l }
}

// WithNow overrides the clock.
func WithNow(now func() time.Time) Option {
	return func(m *Model) { m.nowFunc = now }
}

// New creates a board model over store.
func New(store *board.Store, cfg *config.Config, opts ...Option) Model {
	if cfg == nil {
		cfg = config.Default()
	}
	ti := textinput.New()
	ti.CharLimit = 120

	sched := store.Scheduler()
	m := Model{
		store:       store,
		drag:        board.NewDragDrop(store, cfg.Board.SnapMinutes, cfg.Board.PointerMinutes),
		config:      cfg,
		dayStart:    event.TimeToMinutes(sched.DayStart()),
		dayEnd:      event.TimeToMinutes(sched.DayEnd()),
		pointerStep: cfg.Board.PointerMinutes,
		prompt:      ti,
		loading:     true,
		nowFunc:     time.Now,
	}
	if m.pointerStep <= 0 {
		m.pointerStep = event.PointerResolution
	}
	m.rowMinutes = m.pointerStep
	for _, opt := range opts {
		opt(&m)
	}
	if m.styles == nil {
		m.styles = NewStyles(theme.NewPalette(nil))
	}
	if m.logger == nil {
		m.logger = slog.New(slog.DiscardHandler)
	}
	m.sync()
	m.focusNow()
	return m
}

// Init starts loading the current week and listening for notices.
func (m Model) Init() tea.Cmd {
	cmds := []tea.Cmd{commands.LoadWeek(m.store, 0)}
	if m.notices != nil {
		cmds = append(cmds, commands.WaitForNotice(m.notices))
	}
	if m.refresh != nil {
		cmds = append(cmds, commands.WaitForRefresh(m.refresh))
	}
	return tea.Batch(cmds...)
}

// sync copies the store state into the model.
func (m *Model) sync() {
	m.days = m.store.Days()
	m.week = m.store.Week()
	m.tray = m.store.Unscheduled()
	m.offset = m.store.Offset()
	if m.trayIndex >= len(m.tray) {
		m.trayIndex = max(0, len(m.tray)-1)
	}
}

// rows returns the number of grid rows in the working day.
func (m Model) rows() int {
	return max(1, (m.dayEnd-m.dayStart+m.rowMinutes-1)/m.rowMinutes)
}

// cursorMinutes returns the start of the row under the cursor.
func (m Model) cursorMinutes() int {
	return m.dayStart + m.cursor.Row*m.rowMinutes
}

// cursorTime returns the raw "HH:MM" under the cursor.
func (m Model) cursorTime() string {
	return event.MinutesToTime(m.cursorMinutes())
}

// focusNow moves the cursor to today and the current time when the
// displayed week contains them.
func (m *Model) focusNow() {
	now := m.nowFunc()
	today := now.Format("2006-01-02")
	for i, d := range m.days {
		if d.ISODate == today {
			m.cursor.Day = i
			minutes := now.Hour()*60 + now.Minute()
			if minutes >= m.dayStart && minutes < m.dayEnd {
				m.cursor.Row = (minutes - m.dayStart) / m.rowMinutes
			}
			return
		}
	}
}

// eventAt returns the scheduled event covering the row under the cursor.
func (m Model) eventAt(pos Position) *event.Event {
	if m.week == nil {
		return nil
	}
	start := m.dayStart + pos.Row*m.rowMinutes
	end := start + m.rowMinutes
	for _, e := range m.week.Day(pos.Day) {
		s := event.TimeToMinutes(e.StartTime)
		if event.Overlaps(s, e.Duration, start, end-start) {
			return e
		}
	}
	return nil
}

// selected returns the event the next action applies to: the tray item
// when the tray has focus, the tile under the cursor otherwise.
func (m Model) selected() *event.Event {
	if m.focus == FocusTray {
		if m.trayIndex < len(m.tray) {
			return m.tray[m.trayIndex]
		}
		return nil
	}
	return m.eventAt(m.cursor)
}

// setStatus shows msg on the status line.
func (m *Model) setStatus(kind board.NoticeKind, msg string) tea.Cmd {
	m.statusMsg = msg
	m.statusKind = kind
	m.statusTime = m.nowFunc().Add(statusDuration)
	return commands.ClearStatusAfter(statusDuration)
}

// calculateLayout picks the row resolution so the working day fits the
// terminal height. Rows are a multiple of the pointer resolution.
func (m *Model) calculateLayout() {
	if m.height <= 0 {
		return
	}
	available := max(1, m.height-6)
	span := m.dayEnd - m.dayStart
	minute := m.cursorMinutes()
	m.rowMinutes = m.pointerStep
	for span/m.rowMinutes > available && m.rowMinutes < 60 {
		m.rowMinutes *= 2
	}
	m.cursor.Row = min((minute-m.dayStart)/m.rowMinutes, m.rows()-1)
}

// colWidth returns the width of one day column.
func (m Model) colWidth() int {
	if m.width <= 0 {
		return defaultColWidth
	}
	w := (m.width - timeColumnWidth - trayWidth - 4) / 7
	return max(minColWidth, w)
}

// Run starts the board on an already configured store. notifier must be the
// one the store was created with.
func Run(store *board.Store, notifier *ChannelNotifier, cfg *config.Config, logger *slog.Logger) error {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	t, err := loadTheme(cfg.UI.Theme)
	if err != nil {
		logger.Warn("theme not loaded, using default", "theme", cfg.UI.Theme, "error", err)
		t = nil
	}

	opts := []Option{WithTheme(t), WithLogger(logger)}
	if notifier != nil {
		opts = append(opts, WithNotices(notifier.C()))
	}
	if cfg.Board.RefreshSchedule != "" {
		r, err := NewRefresher(cfg.Board.RefreshSchedule)
		if err != nil {
			return err
		}
		r.Start()
		defer r.Stop()
		opts = append(opts, WithRefresh(r.C()))
	}

	p := tea.NewProgram(New(store, cfg, opts...), tea.WithAltScreen())
	_, err = p.Run()
	store.Wait()
	return err
}

// loadTheme resolves a theme name or a path to a TOML theme file.
func loadTheme(name string) (*theme.Theme, error) {
	if strings.HasSuffix(name, ".toml") {
		return theme.LoadFile(name)
	}
	return theme.Load(name)
}
