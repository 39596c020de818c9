package db

import "fmt"

// migrate runs database migrations.
func (s *SQLite) migrate() error {
	query := `
		CREATE TABLE IF NOT EXISTS clients (
			id         TEXT PRIMARY KEY,
			name       TEXT NOT NULL,
			address    TEXT NOT NULL DEFAULT '',
			phone      TEXT NOT NULL DEFAULT '',
			email      TEXT NOT NULL DEFAULT '',
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP
		);

		CREATE TABLE IF NOT EXISTS events (
			id           TEXT PRIMARY KEY,
			event_type   TEXT NOT NULL CHECK(event_type IN ('chantier', 'rdv', 'prospection', 'autre')),
			client_id    TEXT REFERENCES clients(id) ON DELETE SET NULL,
			event_date   DATE,
			start_time   TEXT,
			duration     INTEGER NOT NULL CHECK(duration > 0),
			title        TEXT NOT NULL,
			description  TEXT NOT NULL DEFAULT '',
			location     TEXT NOT NULL DEFAULT '',
			notes        TEXT NOT NULL DEFAULT '',
			status       TEXT NOT NULL DEFAULT 'unscheduled'
			             CHECK(status IN ('unscheduled', 'proposed', 'confirmed', 'completed', 'cancelled')),
			is_recurring INTEGER NOT NULL DEFAULT 0,
			created_at   DATETIME DEFAULT CURRENT_TIMESTAMP,
			CHECK((event_date IS NULL) = (start_time IS NULL))
		);

		CREATE INDEX IF NOT EXISTS idx_events_date ON events(event_date);
		CREATE INDEX IF NOT EXISTS idx_events_status ON events(status);
		CREATE INDEX IF NOT EXISTS idx_events_client ON events(client_id);
	`

	if _, err := s.db.Exec(query); err != nil {
		return fmt.Errorf("creating tables: %w", err)
	}

	return nil
}
