// Package alarms persists alarms in a local SQLite database. Alarm times are
// stored normalized as HH:MM.
package alarms

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

// Alarm is a persisted alarm entry.
type Alarm struct {
	ID       string
	Time     string
	Label    string
	Enabled  bool
	Notified bool

	// ReminderTask is the name of the OS-level scheduled task registered
	// for this alarm, if any.
	ReminderTask string
}

// Store manages alarms in data/alarms.db.
type Store struct {
	db *sql.DB
}

func NewStore(dataDir string) (*Store, error) {
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	db, err := sql.Open("sqlite", filepath.Join(dataDir, "alarms.db"))
	if err != nil {
		return nil, fmt.Errorf("failed to open alarms database: %w", err)
	}

	if _, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS alarms (
			id TEXT PRIMARY KEY,
			time TEXT NOT NULL,
			label TEXT,
			enabled BOOLEAN DEFAULT 1,
			notified BOOLEAN DEFAULT 0,
			reminder_task TEXT DEFAULT ''
		)
	`); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize alarms table: %w", err)
	}

	store := &Store{db: db}
	if err := store.migrate(); err != nil {
		db.Close()
		return nil, err
	}

	return store, nil
}

// migrate adds columns that databases created by older versions lack.
func (s *Store) migrate() error {
	rows, err := s.db.Query("PRAGMA table_info(alarms)")
	if err != nil {
		return fmt.Errorf("failed to inspect alarms table: %w", err)
	}
	defer rows.Close()

	existing := map[string]bool{}
	for rows.Next() {
		var (
			cid        int
			name       string
			columnType string
			notNull    int
			deflt      sql.NullString
			primaryKey int
		)
		if err := rows.Scan(&cid, &name, &columnType, &notNull, &deflt, &primaryKey); err != nil {
			return fmt.Errorf("failed to scan column info: %w", err)
		}
		existing[name] = true
	}
	if err := rows.Err(); err != nil {
		return err
	}

	for column, definition := range map[string]string{
		"notified":      "BOOLEAN DEFAULT 0",
		"reminder_task": "TEXT DEFAULT ''",
	} {
		if existing[column] {
			continue
		}
		if _, err := s.db.Exec(fmt.Sprintf("ALTER TABLE alarms ADD COLUMN %s %s", column, definition)); err != nil {
			return fmt.Errorf("failed to add %s column: %w", column, err)
		}
	}

	return nil
}

// Add inserts a new alarm with a normalized HH:MM time and returns it.
func (s *Store) Add(ctx context.Context, at string, label string) (*Alarm, error) {
	alarm := Alarm{
		ID:      uuid.NewString(),
		Time:    at,
		Label:   label,
		Enabled: true,
	}

	if _, err := s.db.ExecContext(ctx,
		"INSERT INTO alarms (id, time, label) VALUES (?, ?, ?)",
		alarm.ID, alarm.Time, alarm.Label,
	); err != nil {
		return nil, fmt.Errorf("failed to add alarm: %w", err)
	}

	return &alarm, nil
}

// List returns all alarms ordered by time.
func (s *Store) List(ctx context.Context) ([]Alarm, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT id, time, label, enabled, notified, reminder_task FROM alarms ORDER BY time ASC")
	if err != nil {
		return nil, fmt.Errorf("failed to load alarms: %w", err)
	}
	defer rows.Close()

	var alarms []Alarm
	for rows.Next() {
		var alarm Alarm
		var label sql.NullString
		if err := rows.Scan(&alarm.ID, &alarm.Time, &label, &alarm.Enabled, &alarm.Notified, &alarm.ReminderTask); err != nil {
			return nil, fmt.Errorf("failed to scan alarm: %w", err)
		}
		alarm.Label = label.String
		alarms = append(alarms, alarm)
	}

	return alarms, rows.Err()
}

// MarkNotified records that the reminder for an alarm was sent.
func (s *Store) MarkNotified(ctx context.Context, id string) error {
	if _, err := s.db.ExecContext(ctx,
		"UPDATE alarms SET notified = 1 WHERE id = ?", id); err != nil {
		return fmt.Errorf("failed to mark alarm notified: %w", err)
	}
	return nil
}

// SetReminderTask stores the OS scheduled-task name registered for an alarm.
func (s *Store) SetReminderTask(ctx context.Context, id string, taskName string) error {
	if _, err := s.db.ExecContext(ctx,
		"UPDATE alarms SET reminder_task = ? WHERE id = ?", taskName, id); err != nil {
		return fmt.Errorf("failed to set reminder task: %w", err)
	}
	return nil
}

// Toggle enables or disables an alarm.
func (s *Store) Toggle(ctx context.Context, id string, enabled bool) error {
	if _, err := s.db.ExecContext(ctx,
		"UPDATE alarms SET enabled = ? WHERE id = ?", enabled, id); err != nil {
		return fmt.Errorf("failed to toggle alarm: %w", err)
	}
	return nil
}

// Delete removes an alarm by ID.
func (s *Store) Delete(ctx context.Context, id string) error {
	if _, err := s.db.ExecContext(ctx, "DELETE FROM alarms WHERE id = ?", id); err != nil {
		return fmt.Errorf("failed to delete alarm: %w", err)
	}
	return nil
}

func (s *Store) Close() error { return s.db.Close() }
