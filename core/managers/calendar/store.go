// Package calendar persists calendar events in a local SQLite database.
// Event timestamps use the "YYYY-MM-DD HH:MM:SS" format.
package calendar

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

// Event is a persisted calendar event.
type Event struct {
	ID          string
	Title       string
	StartTime   string
	EndTime     string
	Category    string
	Description string
}

// Store manages events in data/calendar.db.
type Store struct {
	db *sql.DB
}

func NewStore(dataDir string) (*Store, error) {
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	db, err := sql.Open("sqlite", filepath.Join(dataDir, "calendar.db"))
	if err != nil {
		return nil, fmt.Errorf("failed to open calendar database: %w", err)
	}

	if _, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS events (
			id TEXT PRIMARY KEY,
			title TEXT NOT NULL,
			start_time TIMESTAMP NOT NULL,
			end_time TIMESTAMP NOT NULL,
			category TEXT DEFAULT 'WORK',
			description TEXT,
			created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		)
	`); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize events table: %w", err)
	}

	return &Store{db: db}, nil
}

// Add inserts a new event and returns it.
func (s *Store) Add(ctx context.Context, event Event) (*Event, error) {
	event.ID = uuid.NewString()
	if event.Category == "" {
		event.Category = "WORK"
	}

	if _, err := s.db.ExecContext(ctx, `
		INSERT INTO events (id, title, start_time, end_time, category, description)
		VALUES (?, ?, ?, ?, ?, ?)`,
		event.ID, event.Title, event.StartTime, event.EndTime, event.Category, event.Description,
	); err != nil {
		return nil, fmt.Errorf("failed to add event: %w", err)
	}

	return &event, nil
}

// EventsOn returns the events of a specific date (YYYY-MM-DD) ordered by
// start time.
func (s *Store) EventsOn(ctx context.Context, date string) ([]Event, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, title, start_time, end_time, category, description
		FROM events
		WHERE start_time BETWEEN ? AND ?
		ORDER BY start_time ASC`,
		date+" 00:00:00", date+" 23:59:59",
	)
	if err != nil {
		return nil, fmt.Errorf("failed to load events: %w", err)
	}
	defer rows.Close()

	var events []Event
	for rows.Next() {
		var event Event
		var description sql.NullString
		if err := rows.Scan(&event.ID, &event.Title, &event.StartTime, &event.EndTime, &event.Category, &description); err != nil {
			return nil, fmt.Errorf("failed to scan event: %w", err)
		}
		event.Description = description.String
		events = append(events, event)
	}

	return events, rows.Err()
}

// Delete removes an event by ID.
func (s *Store) Delete(ctx context.Context, id string) error {
	if _, err := s.db.ExecContext(ctx, "DELETE FROM events WHERE id = ?", id); err != nil {
		return fmt.Errorf("failed to delete event: %w", err)
	}
	return nil
}

func (s *Store) Close() error { return s.db.Close() }
