// Package config loads the deskpilot YAML configuration.
//
// A Config carries two views of the same file: typed sections with defaults
// applied, and the raw nested mapping reachable through Get and its typed
// helpers for keys the typed view does not model (plugin settings, provider
// extras).
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// DefaultPath is where the CLI looks for the configuration file.
const DefaultPath = "config/config.yaml"

// Sentinel errors.
var (
	ErrNotFound = errors.New("config: file not found")
	ErrInvalid  = errors.New("config: invalid configuration")
)

// DefaultSystemPrompt is used when the system prompt file cannot be read.
const DefaultSystemPrompt = "You are an AI assistant that analyzes screenshots and user queries. " +
	"Provide structured responses in JSON format with speech, notes, macro, and clipboard fields."

// Config is the loaded configuration.
type Config struct {
	Keyboard   KeyboardConfig   `yaml:"keyboard"`
	AI         AIConfig         `yaml:"ai"`
	Models     ModelsConfig     `yaml:"models"`
	Speech     SpeechConfig     `yaml:"speech"`
	Audio      AudioConfig      `yaml:"audio"`
	Screenshot ScreenshotConfig `yaml:"screenshot"`
	Session    SessionConfig    `yaml:"session"`
	Actions    ActionsConfig    `yaml:"actions"`
	Plugins    PluginsConfig    `yaml:"plugins"`
	Logging    LoggingConfig    `yaml:"logging"`
	Web        WebConfig        `yaml:"web"`
	Google     GoogleConfig     `yaml:"google"`

	path string
	raw  map[string]any
}

// KeyboardConfig holds the push-to-talk shortcut.
type KeyboardConfig struct {
	ShortcutKey string `yaml:"shortcut_key"`
}

// AIConfig holds generation settings shared by every model provider.
type AIConfig struct {
	APIKey           string  `yaml:"api_key"`
	Temperature      float64 `yaml:"temperature"`
	MaxTokens        int     `yaml:"max_tokens"`
	SystemPromptFile string  `yaml:"system_prompt_file"`
}

// ModelsConfig selects the model provider.
type ModelsConfig struct {
	Default   string                    `yaml:"default"`
	Fallback  bool                      `yaml:"fallback"`
	Providers map[string]ProviderConfig `yaml:"providers"`
}

// Enabled reports whether the named provider may be used. A provider
// without an explicit enabled key is enabled only if it is the default.
func (m ModelsConfig) Enabled(name string) bool {
	if p, ok := m.Providers[name]; ok && p.Enabled != nil {
		return *p.Enabled
	}
	return name == m.Default
}

// ProviderConfig configures one model provider.
type ProviderConfig struct {
	Enabled *bool  `yaml:"enabled"`
	Model   string `yaml:"model"`
	APIKey  string `yaml:"api_key"`
	BaseURL string `yaml:"base_url"`
}

// SpeechConfig configures speech-to-text and text-to-speech.
type SpeechConfig struct {
	STT STTConfig `yaml:"stt"`
	TTS TTSConfig `yaml:"tts"`
}

// STTConfig configures transcription.
type STTConfig struct {
	Engine   string `yaml:"engine"`
	APIKey   string `yaml:"api_key"`
	Model    string `yaml:"model"`
	BaseURL  string `yaml:"base_url"`
	Language string `yaml:"language"`
}

// TTSConfig configures speech synthesis.
type TTSConfig struct {
	Engine  string  `yaml:"engine"`
	Voice   string  `yaml:"voice"`
	Model   string  `yaml:"model"`
	APIKey  string  `yaml:"api_key"`
	Format  string  `yaml:"format"`
	Speed   float64 `yaml:"speed"`
	Enabled *bool   `yaml:"enabled"`

	// Fallback names a second engine tried when Engine fails.
	Fallback       string `yaml:"fallback"`
	FallbackAPIKey string `yaml:"fallback_api_key"`
}

// AudioConfig configures microphone capture.
type AudioConfig struct {
	SampleRate int `yaml:"sample_rate"`
	Channels   int `yaml:"channels"`
}

// ScreenshotConfig configures display capture.
type ScreenshotConfig struct {
	Format   string `yaml:"format"`
	Quality  int    `yaml:"quality"`
	Display  int    `yaml:"display"`
	MaxWidth int    `yaml:"max_width"`
}

// SessionConfig configures the markdown session log.
type SessionConfig struct {
	SessionsDirectory   string `yaml:"sessions_directory"`
	DefaultSessionFile  string `yaml:"default_session_file"`
	NewSessionOnStartup bool   `yaml:"new_session_on_startup"`
	HistoryEntries      int    `yaml:"history_entries"`
}

// ActionsConfig configures response side effects.
type ActionsConfig struct {
	AutoExecute         bool     `yaml:"auto_execute"`
	ConfirmationTimeout float64  `yaml:"confirmation_timeout"` // seconds
	Confirm             []string `yaml:"confirm"`
	NotesFile           string   `yaml:"notes_file"`
	NotesBackend        string   `yaml:"notes_backend"`
	NotesDatabase       string   `yaml:"notes_database"`
}

// ConfirmTimeout returns the confirmation timeout as a duration.
func (a ActionsConfig) ConfirmTimeout() time.Duration {
	return time.Duration(a.ConfirmationTimeout * float64(time.Second))
}

// PluginsConfig configures the plugin manager.
type PluginsConfig struct {
	Enabled        bool     `yaml:"enabled"`
	Directory      string   `yaml:"directory"`
	EnabledPlugins []string `yaml:"enabled_plugins"`
	Timeout        float64  `yaml:"timeout"` // seconds
}

// ExecTimeout returns the per-plugin execution timeout.
func (p PluginsConfig) ExecTimeout() time.Duration {
	return time.Duration(p.Timeout * float64(time.Second))
}

// LoggingConfig configures the process logger.
type LoggingConfig struct {
	Level string `yaml:"level"`
	File  string `yaml:"file"`
}

// WebConfig configures the local dashboard.
type WebConfig struct {
	Enabled bool   `yaml:"enabled"`
	Addr    string `yaml:"addr"`
}

// GoogleConfig configures Google Docs note export.
type GoogleConfig struct {
	ClientID     string `yaml:"client_id"`
	ClientSecret string `yaml:"client_secret"`
	RedirectURL  string `yaml:"redirect_url"`
	TokenFile    string `yaml:"token_file"`
}

// Default returns a Config with every default applied and an empty raw map.
func Default() *Config {
	return &Config{
		Keyboard: KeyboardConfig{ShortcutKey: "ctrl+alt+a"},
		AI: AIConfig{
			Temperature:      0.2,
			MaxTokens:        1024,
			SystemPromptFile: "prompts/system_prompt.md",
		},
		Models: ModelsConfig{
			Default: "gemini",
			Providers: map[string]ProviderConfig{
				"gemini": {Model: "gemini-1.5-flash"},
				"openai": {Model: "gpt-4o"},
			},
		},
		Speech: SpeechConfig{
			STT: STTConfig{Engine: "groq", Model: "whisper-large-v3-turbo"},
			TTS: TTSConfig{Engine: "openai", Voice: "alloy", Format: "pcm", Speed: 1.0},
		},
		Audio:      AudioConfig{SampleRate: 16000, Channels: 1},
		Screenshot: ScreenshotConfig{Format: "png", Quality: 85},
		Session: SessionConfig{
			SessionsDirectory:  "sessions",
			DefaultSessionFile: "ai_assistant_session.md",
			HistoryEntries:     5,
		},
		Actions: ActionsConfig{
			ConfirmationTimeout: 10,
			Confirm:             []string{"macro"},
			NotesFile:           "notes/notes.json",
			NotesBackend:        "json",
			NotesDatabase:       "notes/notes.db",
		},
		Plugins: PluginsConfig{Directory: "plugins", Timeout: 10},
		Logging: LoggingConfig{Level: "INFO", File: "logs/ai_assistant.log"},
		Web:     WebConfig{Addr: "127.0.0.1:8765"},
		Google: GoogleConfig{
			RedirectURL: "http://127.0.0.1:8765/api/google/callback",
			TokenFile:   "config/google_token.json",
		},
		raw: map[string]any{},
	}
}

// Load reads and parses the configuration file at path.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, path)
		}
		return nil, fmt.Errorf("config: read %s: %w", path, err)
	}
	cfg, err := Parse(data)
	if err != nil {
		return nil, err
	}
	cfg.path = path
	return cfg, nil
}

// Parse decodes YAML bytes into a Config, applying defaults and env overrides.
func Parse(data []byte) (*Config, error) {
	cfg := Default()

	// Provider defaults must survive a partial providers map in the file.
	defaults := cfg.Models.Providers
	cfg.Models.Providers = nil

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalid, err)
	}
	var raw map[string]any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalid, err)
	}
	if raw == nil {
		raw = map[string]any{}
	}
	cfg.raw = raw
	cfg.mergeProviderDefaults(defaults)
	cfg.applyEnv()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) mergeProviderDefaults(defaults map[string]ProviderConfig) {
	if c.Models.Providers == nil {
		c.Models.Providers = defaults
		return
	}
	for name, def := range defaults {
		p, ok := c.Models.Providers[name]
		if !ok {
			c.Models.Providers[name] = def
			continue
		}
		if p.Model == "" {
			p.Model = def.Model
		}
		c.Models.Providers[name] = p
	}
}

// Validate checks value ranges that would otherwise fail at runtime.
func (c *Config) Validate() error {
	if c.AI.Temperature < 0 || c.AI.Temperature > 2 {
		return fmt.Errorf("%w: ai.temperature must be between 0 and 2", ErrInvalid)
	}
	if c.AI.MaxTokens <= 0 {
		return fmt.Errorf("%w: ai.max_tokens must be positive", ErrInvalid)
	}
	if c.Actions.ConfirmationTimeout < 0 {
		return fmt.Errorf("%w: actions.confirmation_timeout must not be negative", ErrInvalid)
	}
	if c.Screenshot.Quality < 1 || c.Screenshot.Quality > 100 {
		return fmt.Errorf("%w: screenshot.quality must be between 1 and 100", ErrInvalid)
	}
	if c.Audio.SampleRate <= 0 || c.Audio.Channels <= 0 {
		return fmt.Errorf("%w: audio sample_rate and channels must be positive", ErrInvalid)
	}
	return nil
}

// Path returns the file the config was loaded from, if any.
func (c *Config) Path() string { return c.path }

// ShortcutKey returns the push-to-talk shortcut.
func (c *Config) ShortcutKey() string { return c.Keyboard.ShortcutKey }

// SessionFile returns the default session file path.
func (c *Config) SessionFile() string {
	return filepath.Join(c.Session.SessionsDirectory, c.Session.DefaultSessionFile)
}

// NewSessionOnStartup reports whether a fresh session file is used per run.
func (c *Config) NewSessionOnStartup() bool { return c.Session.NewSessionOnStartup }

// GeminiAPIKey returns the Gemini key, preferring the provider entry.
func (c *Config) GeminiAPIKey() string {
	if k := c.Models.Providers["gemini"].APIKey; k != "" {
		return k
	}
	return c.AI.APIKey
}

// TTSEnabled reports whether spoken output is on. Defaults to true.
func (c *Config) TTSEnabled() bool {
	return c.Speech.TTS.Enabled == nil || *c.Speech.TTS.Enabled
}

// EnsureDirectories creates the directories the assistant writes into.
func (c *Config) EnsureDirectories() error {
	dirs := []string{
		c.Session.SessionsDirectory,
		filepath.Dir(c.Actions.NotesFile),
		filepath.Dir(c.AI.SystemPromptFile),
		c.Plugins.Directory,
	}
	if c.Logging.File != "" {
		dirs = append(dirs, filepath.Dir(c.Logging.File))
	}
	for _, d := range dirs {
		if d == "" || d == "." {
			continue
		}
		if err := os.MkdirAll(d, 0o755); err != nil {
			return fmt.Errorf("config: create %s: %w", d, err)
		}
	}
	return nil
}
