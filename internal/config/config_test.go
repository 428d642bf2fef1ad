package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleYAML = `
keyboard:
  shortcut_key: ctrl+shift+space
ai:
  api_key: file-gemini-key
  temperature: 0.5
models:
  default: openai
  providers:
    openai:
      enabled: true
      api_key: sk-test
speech:
  stt:
    engine: groq
    model: whisper-large-v3
session:
  sessions_directory: /tmp/sessions
  new_session_on_startup: true
actions:
  auto_execute: false
  confirmation_timeout: 3
  confirm: [macro, clipboard]
plugins:
  enabled: true
  enabled_plugins: [example, wordcount]
  example:
    greeting: hi
    nested:
      depth: 2
`

func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{"GEMINI_API_KEY", "GOOGLE_API_KEY", "OPENAI_API_KEY", "GROQ_API_KEY", "ELEVENLABS_API_KEY"} {
		t.Setenv(k, "")
	}
}

func TestParseAppliesDefaults(t *testing.T) {
	clearEnv(t)
	cfg, err := Parse([]byte("{}"))
	require.NoError(t, err)

	assert.Equal(t, "ctrl+alt+a", cfg.ShortcutKey())
	assert.Equal(t, filepath.Join("sessions", "ai_assistant_session.md"), cfg.SessionFile())
	assert.False(t, cfg.NewSessionOnStartup())
	assert.Equal(t, "gemini", cfg.Models.Default)
	assert.Equal(t, "gemini-1.5-flash", cfg.Models.Providers["gemini"].Model)
	assert.Equal(t, "gpt-4o", cfg.Models.Providers["openai"].Model)
	assert.InDelta(t, 0.2, cfg.AI.Temperature, 1e-9)
	assert.Equal(t, 1024, cfg.AI.MaxTokens)
	assert.Equal(t, 10*time.Second, cfg.Actions.ConfirmTimeout())
	assert.Equal(t, []string{"macro"}, cfg.Actions.Confirm)
	assert.Equal(t, "notes/notes.json", cfg.Actions.NotesFile)
	assert.Equal(t, 16000, cfg.Audio.SampleRate)
	assert.True(t, cfg.TTSEnabled())
}

func TestParseOverrides(t *testing.T) {
	clearEnv(t)
	cfg, err := Parse([]byte(sampleYAML))
	require.NoError(t, err)

	assert.Equal(t, "ctrl+shift+space", cfg.ShortcutKey())
	assert.Equal(t, "openai", cfg.Models.Default)
	assert.True(t, cfg.Models.Enabled("openai"))
	assert.Equal(t, "gpt-4o", cfg.Models.Providers["openai"].Model, "model default kept")
	assert.False(t, cfg.Models.Enabled("gemini"), "non-default provider without enabled key")
	assert.Equal(t, "file-gemini-key", cfg.GeminiAPIKey())
	assert.Equal(t, 3*time.Second, cfg.Actions.ConfirmTimeout())
	assert.Equal(t, []string{"macro", "clipboard"}, cfg.Actions.Confirm)
	assert.True(t, cfg.NewSessionOnStartup())
}

func TestProviderEnabledDefaults(t *testing.T) {
	clearEnv(t)

	tests := []struct {
		name   string
		yaml   string
		gemini bool
		openai bool
	}{
		{"defaults", ``, true, false},
		{"default switched", "models:\n  default: openai\n", false, true},
		{"default listed without enabled", "models:\n  default: openai\n  providers:\n    openai:\n      model: gpt-4o-mini\n", false, true},
		{"default explicitly disabled", "models:\n  providers:\n    gemini:\n      enabled: false\n    openai:\n      enabled: true\n", false, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := Parse([]byte(tt.yaml))
			require.NoError(t, err)
			assert.Equal(t, tt.gemini, cfg.Models.Enabled("gemini"))
			assert.Equal(t, tt.openai, cfg.Models.Enabled("openai"))
		})
	}
}

func TestGetNested(t *testing.T) {
	clearEnv(t)
	cfg, err := Parse([]byte(sampleYAML))
	require.NoError(t, err)

	v, ok := cfg.Get("plugins", "example", "greeting")
	require.True(t, ok)
	assert.Equal(t, "hi", v)

	assert.Equal(t, 2, cfg.Int(0, "plugins", "example", "nested", "depth"))
	assert.Equal(t, "fallback", cfg.String("fallback", "plugins", "example", "missing"))

	// A scalar in the middle of the path yields the default.
	assert.Equal(t, "def", cfg.String("def", "plugins", "example", "greeting", "deeper"))

	section, ok := cfg.Get("speech")
	require.True(t, ok)
	assert.IsType(t, map[string]any{}, section)

	_, ok = cfg.Get("nope")
	assert.False(t, ok)

	assert.Equal(t, []string{"example", "wordcount"}, cfg.Strings(nil, "plugins", "enabled_plugins"))
	assert.True(t, cfg.Bool(false, "plugins", "enabled"))
	assert.InDelta(t, 0.5, cfg.Float(0, "ai", "temperature"), 1e-9)
	assert.Equal(t, 3*time.Second, cfg.Duration(0, "actions", "confirmation_timeout"))
}

func TestEnvOverrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("GEMINI_API_KEY", "env-gemini")
	t.Setenv("GROQ_API_KEY", "env-groq")

	cfg, err := Parse([]byte("{}"))
	require.NoError(t, err)

	assert.Equal(t, "env-gemini", cfg.GeminiAPIKey())
	assert.Equal(t, "env-groq", cfg.Speech.STT.APIKey)
	assert.Equal(t, "env-groq", cfg.String("", "speech", "stt", "api_key"))
}

func TestLoadErrors(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.ErrorIs(t, err, ErrNotFound)

	bad := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(bad, []byte("ai: [unclosed"), 0o644))
	_, err = Load(bad)
	assert.ErrorIs(t, err, ErrInvalid)

	_, err = Parse([]byte("ai:\n  temperature: 5\n"))
	assert.ErrorIs(t, err, ErrInvalid)
}

func TestEnsureDirectories(t *testing.T) {
	clearEnv(t)
	root := t.TempDir()
	cfg := Default()
	cfg.Session.SessionsDirectory = filepath.Join(root, "sessions")
	cfg.Actions.NotesFile = filepath.Join(root, "notes", "notes.json")
	cfg.AI.SystemPromptFile = filepath.Join(root, "prompts", "system.md")
	cfg.Plugins.Directory = filepath.Join(root, "plugins")
	cfg.Logging.File = filepath.Join(root, "logs", "a.log")

	require.NoError(t, cfg.EnsureDirectories())
	for _, d := range []string{"sessions", "notes", "prompts", "plugins", "logs"} {
		info, err := os.Stat(filepath.Join(root, d))
		require.NoError(t, err, d)
		assert.True(t, info.IsDir(), d)
	}
}
