// Package notes stores notes saved from assistant replies.
package notes

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"
)

// TitleLayout formats the default title timestamp.
const TitleLayout = "2006-01-02 15:04:05"

// ErrEmptyContent is returned when adding a note without content.
var ErrEmptyContent = errors.New("notes: content is required")

// timeLayouts are accepted for created_at. Timestamps without a zone are
// read as local time.
var timeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05.999999999",
}

func parseTime(s string) (time.Time, error) {
	var err error
	for _, layout := range timeLayouts {
		var t time.Time
		if t, err = time.ParseInLocation(layout, s, time.Local); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("notes: bad timestamp %q: %w", s, err)
}

// Note is a saved note.
type Note struct {
	ID              string    `json:"id"`
	Title           string    `json:"title"`
	Content         string    `json:"content"`
	CreatedAt       time.Time `json:"created_at"`
	RelatedQuestion string    `json:"related_question,omitempty"`
}

// UnmarshalJSON accepts created_at with or without a zone offset.
func (n *Note) UnmarshalJSON(data []byte) error {
	type plain Note
	var v struct {
		plain
		CreatedAt string `json:"created_at"`
	}
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	*n = Note(v.plain)
	if v.CreatedAt == "" {
		return nil
	}
	t, err := parseTime(v.CreatedAt)
	if err != nil {
		return err
	}
	n.CreatedAt = t
	return nil
}

// Store persists notes.
type Store interface {
	// Add saves a note, assigning ID and CreatedAt when empty.
	Add(ctx context.Context, n Note) (Note, error)

	// List returns the most recent limit notes in creation order.
	// limit <= 0 returns all notes.
	List(ctx context.Context, limit int) ([]Note, error)

	Close() error
}

// DefaultTitle returns the title used when a reply omits one.
func DefaultTitle(now time.Time) string {
	return "Note from " + now.Format(TitleLayout)
}

func prepare(n Note, now time.Time, newID func() string) (Note, error) {
	if strings.TrimSpace(n.Content) == "" {
		return n, ErrEmptyContent
	}
	if n.ID == "" {
		n.ID = newID()
	}
	if n.CreatedAt.IsZero() {
		n.CreatedAt = now
	}
	if n.Title == "" {
		n.Title = DefaultTitle(n.CreatedAt)
	}
	return n, nil
}

func tail(all []Note, limit int) []Note {
	if limit <= 0 || len(all) <= limit {
		return all
	}
	return all[len(all)-limit:]
}

// Render formats notes as plain text for export.
func Render(list []Note) string {
	var b strings.Builder
	for i, n := range list {
		if i > 0 {
			b.WriteString("\n")
		}
		fmt.Fprintf(&b, "%s\n", n.Title)
		fmt.Fprintf(&b, "%s\n", n.CreatedAt.Format(TitleLayout))
		if n.RelatedQuestion != "" {
			fmt.Fprintf(&b, "Q: %s\n", n.RelatedQuestion)
		}
		fmt.Fprintf(&b, "\n%s\n", n.Content)
	}
	return b.String()
}

// Open returns the store for backend: "json" (default) or "sqlite".
func Open(ctx context.Context, backend, jsonPath, dbPath string, logger *slog.Logger) (Store, error) {
	switch strings.ToLower(backend) {
	case "", "json":
		s, err := NewJSONStore(jsonPath, logger)
		if err != nil {
			return nil, err
		}
		return s, nil
	case "sqlite":
		s, err := NewSQLiteStore(ctx, dbPath, logger)
		if err != nil {
			return nil, err
		}
		return s, nil
	default:
		return nil, fmt.Errorf("notes: unsupported backend %q", backend)
	}
}
