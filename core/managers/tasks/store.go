// Package tasks persists the to-do list in a local SQLite database.
package tasks

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

// Task is a single to-do entry.
type Task struct {
	ID        string
	Text      string
	Priority  string
	Completed bool
	CreatedAt time.Time
}

// Store manages tasks in data/tasks.db.
type Store struct {
	db *sql.DB
}

func NewStore(dataDir string) (*Store, error) {
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	db, err := sql.Open("sqlite", filepath.Join(dataDir, "tasks.db"))
	if err != nil {
		return nil, fmt.Errorf("failed to open tasks database: %w", err)
	}

	if _, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS tasks (
			id TEXT PRIMARY KEY,
			text TEXT NOT NULL,
			priority TEXT DEFAULT '',
			completed BOOLEAN DEFAULT 0,
			created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		)
	`); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize tasks table: %w", err)
	}

	return &Store{db: db}, nil
}

// Add inserts a new task and returns it.
func (s *Store) Add(ctx context.Context, text string, priority string) (*Task, error) {
	task := Task{
		ID:        uuid.NewString(),
		Text:      text,
		Priority:  priority,
		CreatedAt: time.Now(),
	}

	if _, err := s.db.ExecContext(ctx,
		"INSERT INTO tasks (id, text, priority, completed) VALUES (?, ?, ?, 0)",
		task.ID, task.Text, task.Priority,
	); err != nil {
		return nil, fmt.Errorf("failed to add task: %w", err)
	}

	return &task, nil
}

// List returns all tasks ordered by creation time.
func (s *Store) List(ctx context.Context) ([]Task, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT id, text, priority, completed, created_at FROM tasks ORDER BY created_at ASC")
	if err != nil {
		return nil, fmt.Errorf("failed to load tasks: %w", err)
	}
	defer rows.Close()

	var tasks []Task
	for rows.Next() {
		var task Task
		if err := rows.Scan(&task.ID, &task.Text, &task.Priority, &task.Completed, &task.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan task: %w", err)
		}
		tasks = append(tasks, task)
	}

	return tasks, rows.Err()
}

// Toggle updates a task's completion status.
func (s *Store) Toggle(ctx context.Context, id string, completed bool) error {
	if _, err := s.db.ExecContext(ctx,
		"UPDATE tasks SET completed = ? WHERE id = ?", completed, id); err != nil {
		return fmt.Errorf("failed to toggle task: %w", err)
	}
	return nil
}

// Delete removes a task by ID.
func (s *Store) Delete(ctx context.Context, id string) error {
	if _, err := s.db.ExecContext(ctx, "DELETE FROM tasks WHERE id = ?", id); err != nil {
		return fmt.Errorf("failed to delete task: %w", err)
	}
	return nil
}

func (s *Store) Close() error { return s.db.Close() }
