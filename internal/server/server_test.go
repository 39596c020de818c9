package server

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/javiermolinar/orga/internal/api"
	"github.com/javiermolinar/orga/internal/db"
	"github.com/javiermolinar/orga/internal/event"
)

func newTestServer(t *testing.T, token string) (*Server, *db.SQLite) {
	t.Helper()
	repo, err := db.New(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("db.New: %v", err)
	}
	t.Cleanup(func() { _ = repo.Close() })

	cfg := DefaultConfig()
	cfg.Token = token
	return New(repo, cfg, nil), repo
}

func do(t *testing.T, s *Server, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.Unmarshal(rec.Body.Bytes(), &v); err != nil {
		t.Fatalf("decoding %q: %v", rec.Body.String(), err)
	}
	return v
}

func TestHealth(t *testing.T) {
	s, _ := newTestServer(t, "secret")
	if rec := do(t, s, http.MethodGet, "/api/health", ""); rec.Code != http.StatusOK {
		t.Errorf("health status = %d, want 200", rec.Code)
	}
}

func TestRequireToken(t *testing.T) {
	s, _ := newTestServer(t, "secret")

	rec := do(t, s, http.MethodGet, "/api/calendar/events/listUnscheduledEvents", "")
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", rec.Code)
	}

	req := httptest.NewRequest(http.MethodGet, "/api/calendar/events/listUnscheduledEvents", nil)
	req.Header.Set("Authorization", "Bearer secret")
	rec = httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Errorf("status with token = %d, want 200", rec.Code)
	}
}

func TestEventLifecycle(t *testing.T) {
	s, _ := newTestServer(t, "")

	rec := do(t, s, http.MethodPost, "/api/calendar/events",
		`{"eventType":"chantier","title":"Taille de haies","duration":90}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("create status = %d: %s", rec.Code, rec.Body.String())
	}
	created := decode[api.EventDTO](t, rec)
	if created.ID == "" || created.Status != "unscheduled" || created.Date != "" {
		t.Fatalf("created = %+v", created)
	}

	tray := decode[[]api.EventDTO](t, do(t, s, http.MethodGet, "/api/calendar/events/listUnscheduledEvents", ""))
	if len(tray) != 1 || tray[0].ID != created.ID {
		t.Fatalf("tray = %+v", tray)
	}

	rec = do(t, s, http.MethodPut, "/api/calendar/events/updateEvent",
		`{"id":"`+created.ID+`","eventType":"chantier","date":"2025-03-12","startTime":"10:00","duration":90,"title":"Taille de haies","status":"proposed"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("update status = %d: %s", rec.Code, rec.Body.String())
	}
	updated := decode[api.EventDTO](t, rec)
	if updated.Date != "2025-03-12" || updated.StartTime != "10:00" || updated.DayIndex == nil || *updated.DayIndex != 2 {
		t.Errorf("updated = %+v", updated)
	}

	week := decode[[]api.EventDTO](t, do(t, s, http.MethodGet, "/api/calendar/events?startDate=2025-03-10&endDate=2025-03-16", ""))
	if len(week) != 1 {
		t.Fatalf("week = %+v", week)
	}

	rec = do(t, s, http.MethodPatch, "/api/calendar/events/"+created.ID+"/confirm", "")
	if got := decode[api.EventDTO](t, rec); got.Status != "confirmed" {
		t.Errorf("after confirm status = %s", got.Status)
	}

	rec = do(t, s, http.MethodPatch, "/api/calendar/events/"+created.ID+"/status", `{"status":"unscheduled"}`)
	if got := decode[api.EventDTO](t, rec); got.Status != "unscheduled" || got.Date != "" {
		t.Errorf("after unschedule = %+v", got)
	}

	if rec := do(t, s, http.MethodDelete, "/api/calendar/events/"+created.ID, ""); rec.Code != http.StatusNoContent {
		t.Errorf("delete status = %d", rec.Code)
	}
	if rec := do(t, s, http.MethodDelete, "/api/calendar/events/"+created.ID, ""); rec.Code != http.StatusNotFound {
		t.Errorf("second delete status = %d, want 404", rec.Code)
	}
}

func TestBadRequests(t *testing.T) {
	s, _ := newTestServer(t, "")

	tests := []struct {
		name   string
		method string
		path   string
		body   string
		want   int
	}{
		{"bad start date", http.MethodGet, "/api/calendar/events?startDate=12-03-2025", "", http.StatusBadRequest},
		{"bad event type", http.MethodGet, "/api/calendar/events?eventType=visite", "", http.StatusBadRequest},
		{"create without title", http.MethodPost, "/api/calendar/events", `{"eventType":"rdv","duration":30}`, http.StatusBadRequest},
		{"create malformed json", http.MethodPost, "/api/calendar/events", `{`, http.StatusBadRequest},
		{"update bad time", http.MethodPut, "/api/calendar/events/updateEvent", `{"id":"x","eventType":"rdv","date":"2025-03-12","startTime":"9h","duration":30,"status":"proposed"}`, http.StatusBadRequest},
		{"update missing", http.MethodPut, "/api/calendar/events/updateEvent", `{"id":"x","eventType":"rdv","duration":30,"title":"t","status":"unscheduled"}`, http.StatusNotFound},
		{"bad status", http.MethodPatch, "/api/calendar/events/x/status", `{"status":"done"}`, http.StatusBadRequest},
		{"confirm missing", http.MethodPatch, "/api/calendar/events/x/confirm", "", http.StatusNotFound},
		{"unknown client", http.MethodGet, "/api/clients/nope", "", http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(t, s, tt.method, tt.path, tt.body)
			if rec.Code != tt.want {
				t.Fatalf("status = %d, want %d: %s", rec.Code, tt.want, rec.Body.String())
			}
			body := decode[api.ErrorBody](t, rec)
			if body.Error == "" {
				t.Errorf("expected error field in %s", rec.Body.String())
			}
		})
	}
}

func TestClients(t *testing.T) {
	s, repo := newTestServer(t, "")

	rec := do(t, s, http.MethodPost, "/api/clients", `{"name":"Dupont","phone":"0600000000"}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("create client status = %d: %s", rec.Code, rec.Body.String())
	}
	created := decode[api.ClientDTO](t, rec)

	list := decode[[]api.ClientDTO](t, do(t, s, http.MethodGet, "/api/clients", ""))
	if len(list) != 1 || list[0].ID != created.ID {
		t.Fatalf("clients = %+v", list)
	}

	d, err := event.NewDraft("chantier", "Tonte", created.ID, "2025-03-12", "09:00", 60)
	if err != nil {
		t.Fatalf("NewDraft: %v", err)
	}
	if _, err := repo.CreateEvent(context.Background(), d); err != nil {
		t.Fatalf("CreateEvent: %v", err)
	}
	week := decode[[]api.EventDTO](t, do(t, s, http.MethodGet, "/api/calendar/events?startDate=2025-03-10&endDate=2025-03-16", ""))
	if len(week) != 1 || week[0].ClientName != "Dupont" {
		t.Errorf("week = %+v", week)
	}
}

func TestCORS(t *testing.T) {
	s, _ := newTestServer(t, "")

	req := httptest.NewRequest(http.MethodOptions, "/api/calendar/events", nil)
	req.Header.Set("Origin", "http://example.com")
	req.Header.Set("Access-Control-Request-Method", http.MethodPatch)
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)

	if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "*" {
		t.Errorf("Access-Control-Allow-Origin = %q, want *", got)
	}
}
