package plugin

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/teslashibe/go-deskpilot/internal/config"
)

// DefaultTimeout bounds a single plugin execution.
const DefaultTimeout = 10 * time.Second

type entry struct {
	plugin Plugin
	source string
}

// Manager loads and executes plugins.
type Manager struct {
	cfg     config.PluginsConfig
	timeout time.Duration
	logger  *slog.Logger

	mu      sync.RWMutex
	plugins map[string]entry
}

// NewManager creates a Manager. Call Load to populate it.
func NewManager(cfg config.PluginsConfig, logger *slog.Logger) *Manager {
	if logger == nil {
		logger = slog.Default()
	}
	timeout := cfg.ExecTimeout()
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Manager{
		cfg:     cfg,
		timeout: timeout,
		logger:  logger.With("component", "plugin.manager"),
		plugins: make(map[string]entry),
	}
}

// Load initializes every enabled plugin. Individual failures are logged
// and skipped; only a directory error is returned.
func (m *Manager) Load() error {
	if !m.cfg.Enabled {
		m.logger.Info("plugins disabled")
		return nil
	}
	if len(m.cfg.EnabledPlugins) == 0 {
		m.logger.Info("no plugins enabled in configuration")
		return nil
	}

	dir := m.cfg.Directory
	if dir == "" {
		dir = "plugins"
	}
	if _, err := os.Stat(dir); errors.Is(err, fs.ErrNotExist) {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create plugin directory: %w", err)
		}
		m.logger.Info("created plugin directory", "path", dir)
	}

	for _, name := range m.cfg.EnabledPlugins {
		p, source, err := m.open(dir, name)
		if err != nil {
			m.logger.Error("error loading plugin", "plugin", name, "error", err)
			continue
		}
		if err := p.Initialize(); err != nil {
			m.logger.Error("error initializing plugin", "plugin", name, "error", err)
			continue
		}
		if err := m.register(p, source); err != nil {
			m.logger.Error("error registering plugin", "plugin", name, "error", err)
			continue
		}
		m.logger.Info("loaded plugin", "plugin", p.Name(), "source", source)
	}
	return nil
}

func (m *Manager) open(dir, name string) (Plugin, string, error) {
	if newBuiltin, ok := builtins[name]; ok {
		return newBuiltin(), SourceBuiltin, nil
	}
	s, err := loadScript(filepath.Join(dir, name+".go"))
	if err != nil {
		return nil, "", err
	}
	return s, SourceScript, nil
}

// Register adds an initialized plugin under its own name.
func (m *Manager) Register(p Plugin) error {
	return m.register(p, SourceBuiltin)
}

func (m *Manager) register(p Plugin, source string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.plugins[p.Name()]; exists {
		return fmt.Errorf("%w: %s", ErrDuplicate, p.Name())
	}
	m.plugins[p.Name()] = entry{plugin: p, source: source}
	return nil
}

// Has reports whether name is loaded.
func (m *Manager) Has(name string) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.plugins[name]
	return ok
}

// Execute runs a plugin with the configured timeout. Unknown plugins,
// failures and timeouts are logged and yield nil.
func (m *Manager) Execute(ctx context.Context, name string, in Context) map[string]any {
	m.mu.RLock()
	e, ok := m.plugins[name]
	m.mu.RUnlock()
	if !ok {
		m.logger.Warn("plugin not found", "plugin", name)
		return nil
	}

	ctx, cancel := context.WithTimeout(ctx, m.timeout)
	defer cancel()

	type outcome struct {
		result map[string]any
		err    error
	}
	done := make(chan outcome, 1)

	m.logger.Info("executing plugin", "plugin", name)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				done <- outcome{err: fmt.Errorf("plugin panicked: %v", r)}
			}
		}()
		result, err := e.plugin.Execute(ctx, in)
		done <- outcome{result: result, err: err}
	}()

	select {
	case out := <-done:
		if out.err != nil {
			m.logger.Error("error executing plugin", "plugin", name, "error", out.err)
			return nil
		}
		return out.result
	case <-ctx.Done():
		m.logger.Error("plugin execution timed out", "plugin", name, "error", ctx.Err())
		return nil
	}
}

// Available lists loaded plugins sorted by name.
func (m *Manager) Available() []Info {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]Info, 0, len(m.plugins))
	for name, e := range m.plugins {
		out = append(out, Info{Name: name, Description: e.plugin.Description(), Source: e.source})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}
