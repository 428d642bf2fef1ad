package actions

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teslashibe/go-deskpilot/pkg/notes"
	"github.com/teslashibe/go-deskpilot/pkg/response"
)

type fakeClipboard struct {
	text string
	err  error
}

func (c *fakeClipboard) WriteAll(text string) error {
	if c.err != nil {
		return c.err
	}
	c.text = text
	return nil
}

type fakeNotes struct {
	added []notes.Note
	err   error
}

func (n *fakeNotes) Add(_ context.Context, note notes.Note) (notes.Note, error) {
	if n.err != nil {
		return note, n.err
	}
	n.added = append(n.added, note)
	return note, nil
}

type fakeMacro struct {
	played []string
	err    error
}

func (m *fakeMacro) Play(_ context.Context, keys string) error {
	if m.err != nil {
		return m.err
	}
	m.played = append(m.played, keys)
	return nil
}

type fakeConfirmer struct {
	answer   bool
	messages []string
}

func (c *fakeConfirmer) Confirm(_ context.Context, msg string) bool {
	c.messages = append(c.messages, msg)
	return c.answer
}

type fixture struct {
	clip  *fakeClipboard
	notes *fakeNotes
	macro *fakeMacro
	conf  *fakeConfirmer
}

func newFixture(answer bool) *fixture {
	return &fixture{
		clip:  &fakeClipboard{},
		notes: &fakeNotes{},
		macro: &fakeMacro{},
		conf:  &fakeConfirmer{answer: answer},
	}
}

func (f *fixture) manager(auto bool, gated ...string) *Manager {
	return NewManager(Config{
		Clipboard:   f.clip,
		Notes:       f.notes,
		Macro:       f.macro,
		Confirmer:   f.conf,
		AutoExecute: auto,
		Confirm:     gated,
		Now:         func() time.Time { return time.Date(2024, 5, 6, 7, 8, 9, 0, time.UTC) },
	})
}

func fullReply() *response.Parsed {
	return &response.Parsed{
		Speech:    "done",
		Clipboard: "copied text",
		Notes:     &response.Note{Content: "remember this"},
		Macro:     &response.Macro{Keys: "ctrl+s"},
	}
}

func TestExecuteAllConfirmed(t *testing.T) {
	f := newFixture(true)
	m := f.manager(false, "macro")

	got := m.Execute(context.Background(), fullReply(), "what now?")

	want := []response.Action{
		{Type: response.ActionClipboard, Content: "copied text"},
		{Type: response.ActionNotes, Title: "Note from 2024-05-06 07:08:09"},
		{Type: response.ActionMacro, Keys: "ctrl+s", Description: DefaultMacroDescription},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("actions mismatch (-want +got):\n%s", diff)
	}

	assert.Equal(t, "copied text", f.clip.text)
	require.Len(t, f.notes.added, 1)
	assert.Equal(t, "what now?", f.notes.added[0].RelatedQuestion)
	assert.Equal(t, []string{"ctrl+s"}, f.macro.played)
	assert.Equal(t, []string{"Execute keyboard shortcut: Execute keyboard shortcut (ctrl+s)"}, f.conf.messages,
		"only the macro is gated by default")
}

func TestExecuteMacroDeclined(t *testing.T) {
	f := newFixture(false)
	m := f.manager(false, "macro")

	reply := fullReply()
	reply.Macro.Description = "Save file"
	got := m.Execute(context.Background(), reply, "q")

	require.Len(t, got, 2)
	assert.Equal(t, response.ActionClipboard, got[0].Type)
	assert.Equal(t, response.ActionNotes, got[1].Type)
	assert.Empty(t, f.macro.played)
	assert.Equal(t, []string{"Execute keyboard shortcut: Save file (ctrl+s)"}, f.conf.messages)
}

func TestAutoExecuteSkipsConfirmation(t *testing.T) {
	f := newFixture(false)
	m := f.manager(true, "macro", "clipboard", "notes")

	got := m.Execute(context.Background(), fullReply(), "q")
	assert.Len(t, got, 3)
	assert.Empty(t, f.conf.messages)
}

func TestGatedClipboardAndNotes(t *testing.T) {
	f := newFixture(false)
	m := f.manager(false, "Clipboard", " notes ")

	reply := fullReply()
	reply.Notes.Title = "Groceries"
	got := m.Execute(context.Background(), reply, "q")

	require.Len(t, got, 1)
	assert.Equal(t, response.ActionMacro, got[0].Type)
	assert.Equal(t, []string{"Copy to clipboard: copied text", "Save note: Groceries"}, f.conf.messages)
}

func TestFailuresAreOmitted(t *testing.T) {
	f := newFixture(true)
	f.clip.err = errors.New("no display")
	f.notes.err = errors.New("disk full")
	f.macro.err = errors.New("unknown key")
	m := f.manager(true)

	got := m.Execute(context.Background(), fullReply(), "q")
	assert.Empty(t, got)
	assert.NotNil(t, got)
}

func TestNothingToDo(t *testing.T) {
	f := newFixture(true)
	m := f.manager(false, "macro")

	assert.Empty(t, m.Execute(context.Background(), &response.Parsed{Speech: "hi"}, "q"))
	assert.Empty(t, m.Execute(context.Background(), nil, "q"))
}

func TestGatedWithoutConfirmerRejects(t *testing.T) {
	f := newFixture(true)
	m := NewManager(Config{Macro: f.macro, Confirm: []string{"macro"}})

	got := m.Execute(context.Background(), &response.Parsed{Macro: &response.Macro{Keys: "ctrl+s"}}, "q")
	assert.Empty(t, got)
	assert.Empty(t, f.macro.played)
}

func TestPreview(t *testing.T) {
	assert.Equal(t, "short", preview("short", 10))
	assert.Equal(t, "a b", preview("a\nb", 10))
	assert.Equal(t, "abcde...", preview("abcdefgh", 5))
}
