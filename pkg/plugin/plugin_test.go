package plugin

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teslashibe/go-deskpilot/internal/config"
)

const wordCountSrc = `//go:build deskpilot

package main

import "strings"

const Description = "Counts words in the question."

var ready bool

func Initialize() error {
	ready = true
	return nil
}

func Execute(ctx map[string]interface{}) (map[string]interface{}, error) {
	q, _ := ctx["question"].(string)
	return map[string]interface{}{"words": len(strings.Fields(q)), "ready": ready}, nil
}
`

const brokenSrc = `package main

func Execute(s string) string { return s }
`

type slowPlugin struct{ delay time.Duration }

func (*slowPlugin) Name() string        { return "slow" }
func (*slowPlugin) Description() string { return "sleeps" }
func (*slowPlugin) Initialize() error   { return nil }

func (s *slowPlugin) Execute(ctx context.Context, in Context) (map[string]any, error) {
	select {
	case <-time.After(s.delay):
		return map[string]any{"done": true}, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

type failingPlugin struct{ panics bool }

func (*failingPlugin) Name() string        { return "failing" }
func (*failingPlugin) Description() string { return "fails" }
func (*failingPlugin) Initialize() error   { return nil }

func (f *failingPlugin) Execute(ctx context.Context, in Context) (map[string]any, error) {
	if f.panics {
		panic("boom")
	}
	return nil, errors.New("upstream down")
}

func writePlugin(t *testing.T, dir, name, src string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name+".go"), []byte(src), 0o644))
}

func TestLoadBuiltinAndScript(t *testing.T) {
	dir := t.TempDir()
	writePlugin(t, dir, "word_count", wordCountSrc)
	writePlugin(t, dir, "broken", brokenSrc)

	m := NewManager(config.PluginsConfig{
		Enabled:        true,
		Directory:      dir,
		EnabledPlugins: []string{"example", "word_count", "broken", "missing"},
	}, nil)
	require.NoError(t, m.Load())

	assert.True(t, m.Has("example"))
	assert.True(t, m.Has("word_count"))
	assert.False(t, m.Has("broken"))
	assert.False(t, m.Has("missing"))

	assert.Equal(t, []Info{
		{Name: "example", Description: "Example plugin that demonstrates the plugin architecture.", Source: SourceBuiltin},
		{Name: "word_count", Description: "Counts words in the question.", Source: SourceScript},
	}, m.Available())

	out := m.Execute(context.Background(), "word_count", Context{"question": "what is this window"})
	require.NotNil(t, out)
	assert.Equal(t, 4, out["words"])
	assert.Equal(t, true, out["ready"])
}

func TestExampleEchoesContext(t *testing.T) {
	m := NewManager(config.PluginsConfig{Enabled: true, Directory: t.TempDir(), EnabledPlugins: []string{"example"}}, nil)
	require.NoError(t, m.Load())

	out := m.Execute(context.Background(), "example", Context{"question": "hi"})
	assert.Equal(t, "success", out["status"])
	assert.Equal(t, map[string]any{"question": "hi"}, out["input_context"])
}

func TestLoadCreatesDirectory(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "plugins")
	m := NewManager(config.PluginsConfig{Enabled: true, Directory: dir, EnabledPlugins: []string{"example"}}, nil)
	require.NoError(t, m.Load())

	info, err := os.Stat(dir)
	require.NoError(t, err)
	assert.True(t, info.IsDir())
}

func TestLoadDisabled(t *testing.T) {
	m := NewManager(config.PluginsConfig{Enabled: false, EnabledPlugins: []string{"example"}}, nil)
	require.NoError(t, m.Load())
	assert.Empty(t, m.Available())
}

func TestExecuteFailures(t *testing.T) {
	m := NewManager(config.PluginsConfig{Timeout: 0.05}, nil)
	require.NoError(t, m.Register(&slowPlugin{delay: time.Second}))
	require.NoError(t, m.Register(&failingPlugin{}))
	assert.ErrorIs(t, m.Register(&failingPlugin{}), ErrDuplicate)

	assert.Nil(t, m.Execute(context.Background(), "unknown", nil))
	assert.Nil(t, m.Execute(context.Background(), "failing", nil))

	start := time.Now()
	assert.Nil(t, m.Execute(context.Background(), "slow", nil))
	assert.Less(t, time.Since(start), 500*time.Millisecond)
}

func TestExecuteRecoversPanic(t *testing.T) {
	m := NewManager(config.PluginsConfig{}, nil)
	require.NoError(t, m.Register(&failingPlugin{panics: true}))
	assert.Nil(t, m.Execute(context.Background(), "failing", Context{}))
}
