// Package prompt loads the system prompt and reloads it when the file
// changes on disk.
package prompt

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// Default is used when the prompt file is missing or empty.
const Default = "You are an AI assistant that analyzes screenshots and user queries. " +
	"Provide structured responses in JSON format with speech, notes, macro, and clipboard fields."

// DefaultDebounce coalesces bursts of writes from editors.
const DefaultDebounce = 250 * time.Millisecond

// Loader holds the current system prompt.
type Loader struct {
	path     string
	debounce time.Duration
	logger   *slog.Logger

	mu       sync.RWMutex
	current  string
	onChange func(string)
}

// NewLoader creates a Loader for path and loads it once.
func NewLoader(path string, logger *slog.Logger) *Loader {
	if logger == nil {
		logger = slog.Default()
	}
	l := &Loader{
		path:     path,
		debounce: DefaultDebounce,
		logger:   logger.With("component", "prompt"),
	}
	l.Load()
	return l
}

// OnChange registers fn to run after each reload.
func (l *Loader) OnChange(fn func(string)) {
	l.mu.Lock()
	l.onChange = fn
	l.mu.Unlock()
}

// Load rereads the file and returns the prompt, falling back to Default.
func (l *Loader) Load() string {
	text := Default
	data, err := os.ReadFile(l.path)
	switch {
	case err != nil:
		l.logger.Warn("system prompt file not found, using default", "path", l.path, "error", err)
	case strings.TrimSpace(string(data)) == "":
		l.logger.Warn("system prompt file is empty, using default", "path", l.path)
	default:
		text = strings.TrimSpace(string(data))
		l.logger.Info("loaded system prompt", "path", l.path, "chars", len(text))
	}

	l.mu.Lock()
	l.current = text
	l.mu.Unlock()
	return text
}

// Prompt returns the current prompt.
func (l *Loader) Prompt() string {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.current
}

// Watch reloads the prompt whenever the file is written, created or
// replaced. It blocks until ctx is done.
func (l *Loader) Watch(ctx context.Context) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer w.Close()

	// Watch the directory: editors often replace the file via rename.
	dir := filepath.Dir(l.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create prompt directory: %w", err)
	}
	if err := w.Add(dir); err != nil {
		return fmt.Errorf("watch %s: %w", dir, err)
	}
	target := filepath.Clean(l.path)
	l.logger.Debug("watching system prompt", "path", target)

	var (
		timer  *time.Timer
		reload <-chan time.Time
	)
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-w.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != target {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) && !event.Has(fsnotify.Rename) {
				continue
			}
			if timer == nil {
				timer = time.NewTimer(l.debounce)
			} else {
				timer.Reset(l.debounce)
			}
			reload = timer.C

		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			l.logger.Error("prompt watcher error", "error", err)

		case <-reload:
			reload = nil
			text := l.Load()
			l.mu.RLock()
			fn := l.onChange
			l.mu.RUnlock()
			if fn != nil {
				fn(text)
			}
		}
	}
}
