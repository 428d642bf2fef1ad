package notes

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"
)

// JSONStore keeps notes in a single JSON file of the form {"notes": [...]}.
type JSONStore struct {
	path   string
	now    func() time.Time
	logger *slog.Logger
	mu     sync.Mutex
}

type fileData struct {
	Notes []Note `json:"notes"`
}

var _ Store = (*JSONStore)(nil)

// NewJSONStore opens (creating if needed) the notes file at path.
func NewJSONStore(path string, logger *slog.Logger) (*JSONStore, error) {
	if logger == nil {
		logger = slog.Default()
	}
	s := &JSONStore{
		path:   path,
		now:    time.Now,
		logger: logger.With("component", "notes.json"),
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("notes: create directory: %w", err)
	}
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		if err := s.write(fileData{Notes: []Note{}}); err != nil {
			return nil, err
		}
		s.logger.Info("created notes file", "path", path)
	}
	return s, nil
}

// Path returns the backing file.
func (s *JSONStore) Path() string { return s.path }

// read loads the file. A file that is not valid JSON is moved aside to
// path+".bak" and an empty set is returned so the next write replaces it.
// Any other failure is returned so existing notes are never overwritten.
func (s *JSONStore) read() (fileData, error) {
	data, err := os.ReadFile(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return fileData{Notes: []Note{}}, nil
	}
	if err != nil {
		return fileData{}, fmt.Errorf("notes: read %s: %w", s.path, err)
	}

	var fd fileData
	if err := json.Unmarshal(data, &fd); err != nil {
		var syntaxErr *json.SyntaxError
		if !errors.As(err, &syntaxErr) && len(bytes.TrimSpace(data)) > 0 {
			return fileData{}, fmt.Errorf("notes: decode %s: %w", s.path, err)
		}
		backup := s.path + ".bak"
		if rerr := os.Rename(s.path, backup); rerr != nil {
			return fileData{}, fmt.Errorf("notes: back up corrupted file: %w", rerr)
		}
		s.logger.Warn("notes file corrupted, starting fresh", "error", err, "backup", backup)
		return fileData{Notes: []Note{}}, nil
	}
	if fd.Notes == nil {
		fd.Notes = []Note{}
	}
	return fd, nil
}

// write replaces the file atomically (temp file, then rename).
func (s *JSONStore) write(fd fileData) error {
	data, err := json.MarshalIndent(fd, "", "  ")
	if err != nil {
		return fmt.Errorf("notes: marshal: %w", err)
	}
	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("notes: write temp file: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("notes: rename temp file: %w", err)
	}
	return nil
}

// Add appends a note.
func (s *JSONStore) Add(_ context.Context, n Note) (Note, error) {
	n, err := prepare(n, s.now(), func() string { return uuid.New().String() })
	if err != nil {
		return n, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	fd, err := s.read()
	if err != nil {
		return n, err
	}
	fd.Notes = append(fd.Notes, n)
	if err := s.write(fd); err != nil {
		return n, err
	}
	s.logger.Info("added note", "title", n.Title, "path", s.path)
	return n, nil
}

// List returns the most recent notes.
func (s *JSONStore) List(_ context.Context, limit int) ([]Note, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	fd, err := s.read()
	if err != nil {
		return nil, err
	}
	return tail(fd.Notes, limit), nil
}

// Close is a no-op.
func (s *JSONStore) Close() error { return nil }
