package notes

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

const schema = `
CREATE TABLE IF NOT EXISTS notes (
	seq              INTEGER PRIMARY KEY AUTOINCREMENT,
	id               TEXT NOT NULL UNIQUE,
	title            TEXT NOT NULL,
	content          TEXT NOT NULL,
	created_at       TEXT NOT NULL,
	related_question TEXT NOT NULL DEFAULT ''
);`

// SQLiteStore keeps notes in a SQLite database.
type SQLiteStore struct {
	db     *sql.DB
	now    func() time.Time
	logger *slog.Logger
}

var _ Store = (*SQLiteStore)(nil)

// NewSQLiteStore opens the database at path and ensures the schema.
func NewSQLiteStore(ctx context.Context, path string, logger *slog.Logger) (*SQLiteStore, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("notes: create directory: %w", err)
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("notes: open %s: %w", path, err)
	}
	db.SetMaxOpenConns(1)
	if _, err := db.ExecContext(ctx, schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("notes: create schema: %w", err)
	}
	return &SQLiteStore{
		db:     db,
		now:    time.Now,
		logger: logger.With("component", "notes.sqlite"),
	}, nil
}

// Add inserts a note.
func (s *SQLiteStore) Add(ctx context.Context, n Note) (Note, error) {
	n, err := prepare(n, s.now(), func() string { return uuid.New().String() })
	if err != nil {
		return n, err
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO notes (id, title, content, created_at, related_question) VALUES (?, ?, ?, ?, ?)`,
		n.ID, n.Title, n.Content, n.CreatedAt.Format(time.RFC3339Nano), n.RelatedQuestion)
	if err != nil {
		return n, fmt.Errorf("notes: insert: %w", err)
	}
	s.logger.Info("added note", "title", n.Title)
	return n, nil
}

// List returns the most recent notes in creation order.
func (s *SQLiteStore) List(ctx context.Context, limit int) ([]Note, error) {
	q := `SELECT id, title, content, created_at, related_question FROM notes ORDER BY seq`
	args := []any{}
	if limit > 0 {
		q = `SELECT * FROM (SELECT seq, id, title, content, created_at, related_question FROM notes ORDER BY seq DESC LIMIT ?) ORDER BY seq`
		args = append(args, limit)
	}
	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("notes: query: %w", err)
	}
	defer rows.Close()

	var out []Note
	for rows.Next() {
		var (
			n       Note
			created string
			seq     int64
		)
		if limit > 0 {
			err = rows.Scan(&seq, &n.ID, &n.Title, &n.Content, &created, &n.RelatedQuestion)
		} else {
			err = rows.Scan(&n.ID, &n.Title, &n.Content, &created, &n.RelatedQuestion)
		}
		if err != nil {
			return nil, fmt.Errorf("notes: scan: %w", err)
		}
		if t, perr := parseTime(created); perr == nil {
			n.CreatedAt = t
		}
		out = append(out, n)
	}
	return out, rows.Err()
}

// Close closes the database.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
