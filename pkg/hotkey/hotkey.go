// Package hotkey listens for a global push-to-talk shortcut.
//
// The OS hook comes from golang.design/x/hotkey. On macOS the hook must be
// created from the main thread; wrap the program in mainthread.Init.
package hotkey

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"

	"golang.design/x/hotkey"

	"github.com/teslashibe/go-deskpilot/pkg/keys"
)

var (
	// ErrAlreadyStarted is returned by a second Start.
	ErrAlreadyStarted = errors.New("hotkey: listener already started")

	// ErrNoMainKey is returned for a shortcut made only of modifiers.
	ErrNoMainKey = errors.New("hotkey: shortcut needs a non-modifier key")

	// ErrUnsupportedKey is returned for keys the OS hook cannot register.
	ErrUnsupportedKey = errors.New("hotkey: unsupported key")
)

// Hook is a registered OS hotkey. *hotkey.Hotkey satisfies it.
type Hook interface {
	Register() error
	Unregister() error
	Keydown() <-chan hotkey.Event
	Keyup() <-chan hotkey.Event
}

var _ Hook = (*hotkey.Hotkey)(nil)

// Handlers are invoked from the dispatch goroutine and must not block;
// start long work on another goroutine.
type Handlers struct {
	OnPress   func()
	OnRelease func()
}

// Listener dispatches press/release events for one shortcut.
type Listener struct {
	combo    keys.Combo
	hook     Hook
	handlers Handlers
	logger   *slog.Logger

	suppressed atomic.Bool
	active     bool // only touched by the dispatch goroutine

	mu       sync.Mutex
	started  bool
	stop     chan struct{}
	done     chan struct{}
	stopOnce sync.Once
}

// New parses shortcut ("ctrl+alt+a") and prepares an OS hook for it.
func New(shortcut string, h Handlers, logger *slog.Logger) (*Listener, error) {
	combo, unknown, err := keys.ParseCombo(shortcut)
	if err != nil {
		return nil, err
	}
	if logger == nil {
		logger = slog.Default()
	}
	if len(unknown) > 0 {
		logger.Warn("ignoring unknown keys in shortcut", "shortcut", shortcut, "unknown", unknown)
	}

	hook, err := newOSHook(combo)
	if err != nil {
		return nil, err
	}
	return NewWithHook(combo, hook, h, logger), nil
}

// NewWithHook creates a Listener around an existing hook.
func NewWithHook(combo keys.Combo, hook Hook, h Handlers, logger *slog.Logger) *Listener {
	if logger == nil {
		logger = slog.Default()
	}
	return &Listener{
		combo:    combo,
		hook:     hook,
		handlers: h,
		logger:   logger.With("component", "hotkey"),
		stop:     make(chan struct{}),
		done:     make(chan struct{}),
	}
}

// Shortcut returns the shortcut in "+" notation.
func (l *Listener) Shortcut() string {
	return l.combo.String()
}

// Start registers the hook and runs the dispatch loop until ctx is done or
// Stop is called.
func (l *Listener) Start(ctx context.Context) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.started {
		return ErrAlreadyStarted
	}
	if err := l.hook.Register(); err != nil {
		return fmt.Errorf("register hotkey %s: %w", l.combo, err)
	}
	l.started = true

	go l.loop(ctx)
	l.logger.Info("hotkey listener started", "shortcut", l.combo.String())
	return nil
}

// Stop ends the dispatch loop and unregisters the hook. It is safe to call
// more than once, and before Start.
func (l *Listener) Stop() error {
	var err error
	l.stopOnce.Do(func() {
		close(l.stop)

		l.mu.Lock()
		started := l.started
		l.mu.Unlock()
		if !started {
			return
		}

		<-l.done
		if uerr := l.hook.Unregister(); uerr != nil {
			err = fmt.Errorf("unregister hotkey: %w", uerr)
		}
		l.logger.Info("hotkey listener stopped")
	})
	return err
}

// Done is closed when the dispatch loop exits.
func (l *Listener) Done() <-chan struct{} {
	return l.done
}

// SetSuppressed drops events while true. The pressed state is left as is.
func (l *Listener) SetSuppressed(v bool) {
	l.suppressed.Store(v)
}

// Suppressed reports whether events are being dropped.
func (l *Listener) Suppressed() bool {
	return l.suppressed.Load()
}

func (l *Listener) loop(ctx context.Context) {
	defer close(l.done)

	down := l.hook.Keydown()
	up := l.hook.Keyup()
	for {
		select {
		case <-ctx.Done():
			return
		case <-l.stop:
			return
		case _, ok := <-down:
			if !ok {
				return
			}
			l.handleDown()
		case _, ok := <-up:
			if !ok {
				return
			}
			l.handleUp()
		}
	}
}

func (l *Listener) handleDown() {
	if l.suppressed.Load() {
		l.logger.Debug("keydown suppressed")
		return
	}
	if l.active {
		return
	}
	l.active = true
	l.invoke("press", l.handlers.OnPress)
}

func (l *Listener) handleUp() {
	if l.suppressed.Load() {
		l.logger.Debug("keyup suppressed")
		return
	}
	if !l.active {
		return
	}
	l.active = false
	l.invoke("release", l.handlers.OnRelease)
}

func (l *Listener) invoke(name string, fn func()) {
	if fn == nil {
		return
	}
	defer func() {
		if r := recover(); r != nil {
			l.logger.Error("hotkey handler panicked", "handler", name, "panic", r)
		}
	}()
	fn()
}
