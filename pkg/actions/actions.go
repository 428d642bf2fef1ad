// Package actions carries out the side effects requested by a reply:
// clipboard copy, note saving and keyboard macro replay.
package actions

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/atotto/clipboard"

	"github.com/teslashibe/go-deskpilot/pkg/confirm"
	"github.com/teslashibe/go-deskpilot/pkg/notes"
	"github.com/teslashibe/go-deskpilot/pkg/response"
)

// DefaultMacroDescription is used when a macro has no description.
const DefaultMacroDescription = "Execute keyboard shortcut"

// Clipboard writes text to the system clipboard.
type Clipboard interface {
	WriteAll(text string) error
}

// NoteAdder saves notes.
type NoteAdder interface {
	Add(ctx context.Context, n notes.Note) (notes.Note, error)
}

// MacroPlayer replays a key sequence such as "ctrl+b->x".
type MacroPlayer interface {
	Play(ctx context.Context, keys string) error
}

// SystemClipboard is the OS clipboard.
type SystemClipboard struct{}

// WriteAll copies text to the clipboard.
func (SystemClipboard) WriteAll(text string) error {
	return clipboard.WriteAll(text)
}

// Config configures a Manager.
type Config struct {
	Clipboard Clipboard
	Notes     NoteAdder
	Macro     MacroPlayer
	Confirmer confirm.Confirmer

	// AutoExecute skips every confirmation.
	AutoExecute bool
	// Confirm lists the action types that need confirmation.
	Confirm []string

	Now    func() time.Time
	Logger *slog.Logger
}

// Manager runs reply actions in a fixed order: clipboard, notes, macro.
type Manager struct {
	clip      Clipboard
	notes     NoteAdder
	macro     MacroPlayer
	confirmer confirm.Confirmer
	auto      bool
	gated     map[string]bool
	now       func() time.Time
	logger    *slog.Logger
}

var _ response.ActionRunner = (*Manager)(nil)

// NewManager creates a Manager. Nil collaborators disable their action.
func NewManager(cfg Config) *Manager {
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	gated := make(map[string]bool, len(cfg.Confirm))
	for _, t := range cfg.Confirm {
		gated[strings.ToLower(strings.TrimSpace(t))] = true
	}
	return &Manager{
		clip:      cfg.Clipboard,
		notes:     cfg.Notes,
		macro:     cfg.Macro,
		confirmer: cfg.Confirmer,
		auto:      cfg.AutoExecute,
		gated:     gated,
		now:       cfg.Now,
		logger:    cfg.Logger.With("component", "actions.manager"),
	}
}

// Execute runs the actions in p and returns the ones that succeeded.
// Failed or declined actions are logged and left out.
func (m *Manager) Execute(ctx context.Context, p *response.Parsed, question string) []response.Action {
	done := []response.Action{}
	if p == nil {
		return done
	}

	if p.Clipboard != "" {
		if a, ok := m.copyClipboard(ctx, p.Clipboard); ok {
			done = append(done, a)
		}
	}
	if p.Notes != nil {
		if a, ok := m.saveNote(ctx, p.Notes, question); ok {
			done = append(done, a)
		}
	}
	if p.Macro != nil {
		if a, ok := m.runMacro(ctx, p.Macro); ok {
			done = append(done, a)
		}
	}
	return done
}

func (m *Manager) copyClipboard(ctx context.Context, text string) (response.Action, bool) {
	if m.clip == nil {
		return response.Action{}, false
	}
	if !m.approve(ctx, response.ActionClipboard, "Copy to clipboard: "+preview(text, 60)) {
		return response.Action{}, false
	}
	if err := m.clip.WriteAll(text); err != nil {
		m.logger.Error("error copying to clipboard", "error", err)
		return response.Action{}, false
	}
	m.logger.Info("copied to clipboard", "chars", len(text))
	return response.Action{Type: response.ActionClipboard, Content: text}, true
}

func (m *Manager) saveNote(ctx context.Context, n *response.Note, question string) (response.Action, bool) {
	if m.notes == nil || n.Content == "" {
		return response.Action{}, false
	}
	title := n.Title
	if title == "" {
		title = notes.DefaultTitle(m.now())
	}
	if !m.approve(ctx, response.ActionNotes, "Save note: "+title) {
		return response.Action{}, false
	}
	saved, err := m.notes.Add(ctx, notes.Note{
		Title:           title,
		Content:         n.Content,
		RelatedQuestion: question,
	})
	if err != nil {
		m.logger.Error("error adding note", "title", title, "error", err)
		return response.Action{}, false
	}
	return response.Action{Type: response.ActionNotes, Title: saved.Title}, true
}

func (m *Manager) runMacro(ctx context.Context, mc *response.Macro) (response.Action, bool) {
	if m.macro == nil || mc.Keys == "" {
		return response.Action{}, false
	}
	desc := mc.Description
	if desc == "" {
		desc = DefaultMacroDescription
	}
	msg := fmt.Sprintf("Execute keyboard shortcut: %s (%s)", desc, mc.Keys)
	if !m.approve(ctx, response.ActionMacro, msg) {
		return response.Action{}, false
	}
	if err := m.macro.Play(ctx, mc.Keys); err != nil {
		m.logger.Error("error executing keyboard shortcut", "keys", mc.Keys, "error", err)
		return response.Action{}, false
	}
	return response.Action{Type: response.ActionMacro, Keys: mc.Keys, Description: desc}, true
}

// approve asks for confirmation when the action type is gated.
func (m *Manager) approve(ctx context.Context, kind, message string) bool {
	if m.auto || !m.gated[kind] {
		return true
	}
	if m.confirmer == nil {
		m.logger.Warn("confirmation required but no confirmer configured", "action", kind)
		return false
	}
	ok := m.confirmer.Confirm(ctx, message)
	if !ok {
		m.logger.Info("action cancelled", "action", kind)
	}
	return ok
}

func preview(s string, n int) string {
	s = strings.ReplaceAll(s, "\n", " ")
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + "..."
}
