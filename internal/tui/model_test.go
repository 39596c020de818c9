package tui

import (
	"context"
	"path/filepath"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/javiermolinar/orga/internal/board"
	"github.com/javiermolinar/orga/internal/config"
	"github.com/javiermolinar/orga/internal/db"
	"github.com/javiermolinar/orga/internal/event"
	"github.com/javiermolinar/orga/internal/scheduler"
	"github.com/javiermolinar/orga/internal/tui/commands"
)

// Wednesday 15 January 2025, 10:00.
var fixedNow = time.Date(2025, 1, 15, 10, 0, 0, 0, time.Local)

type fixture struct {
	repo  *db.SQLite
	store *board.Store
	model Model
}

func newFixture(t *testing.T, drafts ...*event.Draft) (*fixture, []*event.Event) {
	t.Helper()
	repo, err := db.New(filepath.Join(t.TempDir(), "board.db"))
	if err != nil {
		t.Fatalf("db.New: %v", err)
	}
	t.Cleanup(func() { _ = repo.Close() })

	ctx := context.Background()
	created := make([]*event.Event, 0, len(drafts))
	for _, d := range drafts {
		e, err := repo.CreateEvent(ctx, d)
		if err != nil {
			t.Fatalf("CreateEvent: %v", err)
		}
		created = append(created, e)
	}

	cfg := config.Default()
	now := func() time.Time { return fixedNow }
	store := board.NewStore(repo,
		scheduler.New(cfg.Schedule.Workdays, cfg.Schedule.DayStart, cfg.Schedule.DayEnd),
		board.Options{Now: now})
	if err := store.ShowWeek(ctx, 0); err != nil {
		t.Fatalf("ShowWeek: %v", err)
	}
	t.Cleanup(store.Wait)

	return &fixture{repo: repo, store: store, model: New(store, cfg, WithNow(now))}, created
}

func draft(t *testing.T, title, date, start string, duration int) *event.Draft {
	t.Helper()
	d, err := event.NewDraft("chantier", title, "", date, start, duration)
	if err != nil {
		t.Fatalf("NewDraft: %v", err)
	}
	return d
}

func keyMsg(k string) tea.KeyMsg {
	switch k {
	case "tab":
		return tea.KeyMsg{Type: tea.KeyTab}
	case "esc":
		return tea.KeyMsg{Type: tea.KeyEsc}
	case "enter":
		return tea.KeyMsg{Type: tea.KeyEnter}
	case " ":
		return tea.KeyMsg{Type: tea.KeySpace, Runes: []rune{' '}}
	case "up":
		return tea.KeyMsg{Type: tea.KeyUp}
	case "down":
		return tea.KeyMsg{Type: tea.KeyDown}
	case "left":
		return tea.KeyMsg{Type: tea.KeyLeft}
	case "right":
		return tea.KeyMsg{Type: tea.KeyRight}
	default:
		return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(k)}
	}
}

func press(t *testing.T, m Model, keys ...string) Model {
	t.Helper()
	for _, k := range keys {
		updated, _ := m.Update(keyMsg(k))
		var ok bool
		m, ok = updated.(Model)
		if !ok {
			t.Fatalf("Update returned %T", updated)
		}
	}
	return m
}

func TestNew_FocusesNow(t *testing.T) {
	f, _ := newFixture(t)
	if f.model.cursor.Day != 2 {
		t.Errorf("cursor day = %d, want 2 (Wednesday)", f.model.cursor.Day)
	}
	if got := f.model.cursorTime(); got != "10:00" {
		t.Errorf("cursor time = %s, want 10:00", got)
	}
}

func TestNavigation_StaysInBounds(t *testing.T) {
	f, _ := newFixture(t)
	m := f.model

	m = press(t, m, "left", "left", "left", "left")
	if m.cursor.Day != 0 {
		t.Errorf("cursor day = %d, want 0", m.cursor.Day)
	}
	m = press(t, m, "l", "l", "l", "l", "l", "l", "l", "l")
	if m.cursor.Day != 6 {
		t.Errorf("cursor day = %d, want 6", m.cursor.Day)
	}

	for range m.rows() + 5 {
		m = press(t, m, "down")
	}
	if m.cursor.Row != m.rows()-1 {
		t.Errorf("cursor row = %d, want %d", m.cursor.Row, m.rows()-1)
	}
	if got := m.cursorTime(); got != "19:45" {
		t.Errorf("last row = %s, want 19:45", got)
	}
}

func TestDragFromTray(t *testing.T) {
	f, created := newFixture(t,
		draft(t, "Tonte", "2025-01-15", "09:00", 60),
		draft(t, "Taille de haies", "", "", 90),
	)
	m := f.model

	// Tray item picked up, then dropped on Wednesday at 09:15, which is
	// snapped to 09:30 and pushed after the existing booking.
	m = press(t, m, "tab", " ")
	if m.mode != ModeCarry || m.carried == nil || m.carried.Source != board.SourceTray {
		t.Fatalf("mode = %v carried = %+v, want tray item carried", m.mode, m.carried)
	}
	m = press(t, m, "up", "up", "up")
	if got := m.cursorTime(); got != "09:15" {
		t.Fatalf("cursor time = %s, want 09:15", got)
	}
	m = press(t, m, " ")
	f.store.Wait()

	if m.mode != ModeNormal {
		t.Errorf("mode after drop = %v, want normal", m.mode)
	}
	if len(m.tray) != 0 {
		t.Errorf("tray = %d items, want 0", len(m.tray))
	}
	moved, err := f.repo.GetEvent(context.Background(), created[1].ID)
	if err != nil {
		t.Fatalf("GetEvent: %v", err)
	}
	if moved.ISODate() != "2025-01-15" || moved.StartTime != "10:00" || moved.Status != event.StatusProposed {
		t.Errorf("stored = %s %s %s, want 2025-01-15 10:00 proposed", moved.ISODate(), moved.StartTime, moved.Status)
	}
}

func TestDropOnTray(t *testing.T) {
	f, created := newFixture(t, draft(t, "Tonte", "2025-01-13", "09:00", 60))
	m := f.model

	m = press(t, m, "left", "left")
	for m.cursorTime() != "09:00" {
		m = press(t, m, "up")
	}
	m = press(t, m, " ", "tab", " ")
	f.store.Wait()

	if len(m.tray) != 1 || m.tray[0].ID != created[0].ID {
		t.Fatalf("tray = %v, want the dropped event", m.tray)
	}
	stored, err := f.repo.GetEvent(context.Background(), created[0].ID)
	if err != nil {
		t.Fatalf("GetEvent: %v", err)
	}
	if stored.Date != nil || stored.Status != event.StatusUnscheduled {
		t.Errorf("stored = %v %s, want unscheduled without date", stored.Date, stored.Status)
	}
}

func TestEscCancelsCarry(t *testing.T) {
	f, created := newFixture(t, draft(t, "Tonte", "2025-01-15", "10:00", 60))
	m := press(t, f.model, " ")
	if m.mode != ModeCarry {
		t.Fatalf("mode = %v, want carry", m.mode)
	}
	m = press(t, m, "right", "esc")
	if m.mode != ModeNormal || m.carried != nil {
		t.Errorf("mode = %v carried = %v, want normal and nothing carried", m.mode, m.carried)
	}
	if e := f.store.Find(created[0].ID); e.ISODate() != "2025-01-15" {
		t.Errorf("event moved to %s", e.ISODate())
	}
}

func TestStatusKeys(t *testing.T) {
	tests := []struct {
		key  string
		want event.Status
	}{
		{"c", event.StatusConfirmed},
		{"t", event.StatusCompleted},
		{"x", event.StatusCancelled},
	}

	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			f, created := newFixture(t, draft(t, "Tonte", "2025-01-15", "10:00", 60))
			m := press(t, f.model, tt.key)
			f.store.Wait()

			if got := m.eventAt(m.cursor); got == nil || got.Status != tt.want {
				t.Fatalf("tile status = %v, want %s", got, tt.want)
			}
			stored, err := f.repo.GetEvent(context.Background(), created[0].ID)
			if err != nil {
				t.Fatalf("GetEvent: %v", err)
			}
			if stored.Status != tt.want {
				t.Errorf("stored status = %s, want %s", stored.Status, tt.want)
			}
		})
	}
}

func TestUnscheduleTerminalShowsWarning(t *testing.T) {
	f, _ := newFixture(t, draft(t, "Tonte", "2025-01-15", "10:00", 60))
	m := press(t, f.model, "t")
	f.store.Wait()
	m = press(t, m, "u")

	if m.statusKind != board.NoticeWarning || !strings.Contains(m.statusMsg, "Déplacement impossible") {
		t.Errorf("status = %v %q, want rejected drop warning", m.statusKind, m.statusMsg)
	}
	if len(m.tray) != 0 {
		t.Errorf("tray = %d items, want 0", len(m.tray))
	}
}

func TestEditTitlePrompt(t *testing.T) {
	f, created := newFixture(t, draft(t, "Tonte", "2025-01-15", "10:00", 60))
	m := press(t, f.model, "e")
	if m.mode != ModePrompt {
		t.Fatalf("mode = %v, want prompt", m.mode)
	}
	m.prompt.SetValue("Tonte et ramassage")

	updated, cmd := m.Update(keyMsg("enter"))
	m = updated.(Model)
	if m.mode != ModeNormal || cmd == nil {
		t.Fatalf("mode = %v cmd = %v, want normal with edit command", m.mode, cmd)
	}
	msg := cmd()
	if _, ok := msg.(commands.EditedMsg); !ok {
		t.Fatalf("msg = %T %v, want EditedMsg", msg, msg)
	}
	updated, _ = m.Update(msg)
	m = updated.(Model)

	if got := m.eventAt(m.cursor); got == nil || got.Title != "Tonte et ramassage" {
		t.Errorf("tile = %v, want edited title", got)
	}
	stored, _ := f.repo.GetEvent(context.Background(), created[0].ID)
	if stored.Title != "Tonte et ramassage" {
		t.Errorf("stored title = %q", stored.Title)
	}
}

func TestEditDurationRejectsInvalid(t *testing.T) {
	f, _ := newFixture(t, draft(t, "Tonte", "2025-01-15", "10:00", 60))
	m := press(t, f.model, "d")
	m.prompt.SetValue("0")
	updated, _ := m.Update(keyMsg("enter"))
	m = updated.(Model)
	if m.statusMsg != event.ErrInvalidDuration.Error() {
		t.Errorf("status = %q, want %q", m.statusMsg, event.ErrInvalidDuration)
	}
}

func TestNoticeMsgSetsStatus(t *testing.T) {
	f, _ := newFixture(t)
	n := NewChannelNotifier(nil)
	m := f.model
	m.notices = n.C()

	updated, cmd := m.Update(commands.NoticeMsg{Notice: board.Notice{
		Kind: board.NoticeError, Title: "Erreur", Detail: "timeout",
	}})
	m = updated.(Model)
	if m.statusMsg != "Erreur: timeout" || m.statusKind != board.NoticeError {
		t.Errorf("status = %v %q", m.statusKind, m.statusMsg)
	}
	if cmd == nil {
		t.Error("expected a command to keep listening for notices")
	}
}

func TestWeekNavigation(t *testing.T) {
	f, _ := newFixture(t, draft(t, "Tonte", "2025-01-22", "10:00", 60))
	m := f.model

	updated, cmd := m.Update(keyMsg("]"))
	m = updated.(Model)
	updated, _ = m.Update(cmd())
	m = updated.(Model)

	if m.offset != 1 || m.days[0].ISODate != "2025-01-20" {
		t.Fatalf("offset = %d week = %s, want 1 and 2025-01-20", m.offset, m.days[0].ISODate)
	}
	if len(m.week.AllEvents()) != 1 {
		t.Errorf("events = %d, want 1", len(m.week.AllEvents()))
	}
}

func TestCalculateLayout(t *testing.T) {
	tests := []struct {
		height int
		want   int
	}{
		{height: 0, want: 15},
		{height: 60, want: 15},
		{height: 40, want: 30},
		{height: 20, want: 60},
	}

	for _, tt := range tests {
		f, _ := newFixture(t)
		updated, _ := f.model.Update(tea.WindowSizeMsg{Width: 160, Height: tt.height})
		m := updated.(Model)
		if m.rowMinutes != tt.want {
			t.Errorf("height %d: rowMinutes = %d, want %d", tt.height, m.rowMinutes, tt.want)
		}
		if got := m.cursorTime(); got != "10:00" {
			t.Errorf("height %d: cursor time = %s, want 10:00", tt.height, got)
		}
	}
}

func TestView(t *testing.T) {
	f, _ := newFixture(t,
		draft(t, "Tonte", "2025-01-15", "10:00", 60),
		draft(t, "Élagage", "", "", 120),
	)
	updated, _ := f.model.Update(tea.WindowSizeMsg{Width: 200, Height: 60})
	out := updated.(Model).View()

	for _, want := range []string{"Semaine du 13 Jan au 19 Jan", "À programmer (1)", "Élagage 2h", "Tonte", "1 proposé(s)"} {
		if !strings.Contains(out, want) {
			t.Errorf("view missing %q", want)
		}
	}
}
