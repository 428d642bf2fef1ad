// Package session keeps the markdown log of questions and answers.
package session

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"
)

// Timestamp layouts.
const (
	TimeLayout = "2006-01-02 15:04:05"
	FileLayout = "20060102_150405"
	header     = "# AI Assistant Session\n\nStarted: %s"
	entryFmt   = "\n\n## Question (%s)\n\n%s\n\n## Answer\n\n%s"
	pointer    = ".current"
)

// Config configures a Manager.
type Config struct {
	Directory    string
	DefaultFile  string
	NewOnStartup bool
	Now          func() time.Time
	Logger       *slog.Logger
}

// Manager appends interactions to the current session file.
type Manager struct {
	mu     sync.Mutex
	dir    string
	path   string
	now    func() time.Time
	logger *slog.Logger
}

// NewManager chooses the session file and ensures its directory exists.
// With NewOnStartup a fresh timestamped file is used; otherwise the session
// most recently created by NewSession, falling back to DefaultFile.
func NewManager(cfg Config) (*Manager, error) {
	if cfg.Directory == "" {
		cfg.Directory = "sessions"
	}
	if cfg.DefaultFile == "" {
		cfg.DefaultFile = "ai_assistant_session.md"
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if err := os.MkdirAll(cfg.Directory, 0o755); err != nil {
		return nil, fmt.Errorf("session: create dir: %w", err)
	}

	m := &Manager{
		dir:    cfg.Directory,
		now:    cfg.Now,
		logger: cfg.Logger.With("component", "session.manager"),
	}

	switch {
	case cfg.NewOnStartup:
		m.path = m.timestampedPath()
	default:
		m.path = filepath.Join(cfg.Directory, cfg.DefaultFile)
		if p, err := os.ReadFile(filepath.Join(cfg.Directory, pointer)); err == nil {
			if name := strings.TrimSpace(string(p)); name != "" {
				m.path = filepath.Join(cfg.Directory, filepath.Base(name))
			}
		}
	}
	return m, nil
}

func (m *Manager) timestampedPath() string {
	return filepath.Join(m.dir, "session_"+m.now().Format(FileLayout)+".md")
}

// Path returns the current session file.
func (m *Manager) Path() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.path
}

// NewSession switches to a fresh timestamped session file, writes its
// header and records it as the session to resume on the next start.
func (m *Manager) NewSession() (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	path := m.timestampedPath()
	if err := m.writeHeader(path); err != nil {
		return "", err
	}
	if err := os.WriteFile(filepath.Join(m.dir, pointer), []byte(filepath.Base(path)+"\n"), 0o644); err != nil {
		return "", fmt.Errorf("session: record current: %w", err)
	}
	m.path = path
	m.logger.Info("created new session", "path", path)
	return path, nil
}

func (m *Manager) writeHeader(path string) error {
	if _, err := os.Stat(path); err == nil {
		return nil
	}
	data := fmt.Sprintf(header, m.now().Format(TimeLayout))
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		return fmt.Errorf("session: create %s: %w", path, err)
	}
	return nil
}

// AddInteraction appends a question and answer, creating the file with a
// header if needed.
func (m *Manager) AddInteraction(question, answer string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.writeHeader(m.path); err != nil {
		return err
	}
	f, err := os.OpenFile(m.path, os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return fmt.Errorf("session: open: %w", err)
	}
	defer f.Close()

	if _, err := fmt.Fprintf(f, entryFmt, m.now().Format(TimeLayout), question, answer); err != nil {
		return fmt.Errorf("session: append: %w", err)
	}
	m.logger.Debug("added interaction", "path", m.path)
	return nil
}

// Content returns the raw session markdown. A missing file is empty.
func (m *Manager) Content() (string, error) {
	m.mu.Lock()
	path := m.path
	m.mu.Unlock()

	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("session: read: %w", err)
	}
	return string(data), nil
}

// History returns the last maxEntries interactions in session markdown
// form, for use as model context. maxEntries <= 0 returns the whole file.
// Read failures are logged and yield "".
func (m *Manager) History(maxEntries int) string {
	content, err := m.Content()
	if err != nil {
		m.logger.Error("error reading conversation history", "error", err)
		return ""
	}
	if maxEntries <= 0 || content == "" {
		return content
	}
	entries := parseEntries(content)
	if len(entries) > maxEntries {
		entries = entries[len(entries)-maxEntries:]
	}
	var b strings.Builder
	for i, e := range entries {
		if i > 0 {
			b.WriteString("\n\n")
		}
		fmt.Fprintf(&b, "## Question (%s)\n\n%s\n\n## Answer\n\n%s", e.Time, e.Question, e.Answer)
	}
	return b.String()
}

// Entries parses the session file into interactions.
func (m *Manager) Entries() ([]Entry, error) {
	content, err := m.Content()
	if err != nil {
		return nil, err
	}
	return parseEntries(content), nil
}
