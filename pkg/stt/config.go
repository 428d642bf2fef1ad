package stt

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/teslashibe/go-deskpilot/internal/httpc"
)

// Endpoints and models for the supported engines.
const (
	GroqEndpoint   = "https://api.groq.com/openai/v1/audio/transcriptions"
	OpenAIEndpoint = "https://api.openai.com/v1/audio/transcriptions"

	DefaultGroqModel   = "whisper-large-v3-turbo"
	DefaultOpenAIModel = "whisper-1"
)

// Config holds Whisper client configuration.
type Config struct {
	// Endpoint is the full transcription URL.
	Endpoint string
	APIKey   string
	Model    string

	// Language is an optional ISO-639-1 hint.
	Language string

	// Prompt is optional context passed to the model.
	Prompt string

	// SampleRate is the rate audio is resampled to before upload.
	SampleRate int

	// TempDir holds the intermediate WAV files. Empty means os.TempDir().
	TempDir string

	Timeout    time.Duration
	MaxRetries int
	RetryDelay time.Duration
	HTTPClient *http.Client
	Logger     *slog.Logger
}

// Option configures a Whisper client.
type Option func(*Config)

// WithEndpoint sets the transcription URL.
func WithEndpoint(url string) Option {
	return func(c *Config) {
		if url != "" {
			c.Endpoint = url
		}
	}
}

// WithAPIKey sets the API key.
func WithAPIKey(key string) Option {
	return func(c *Config) {
		c.APIKey = key
	}
}

// WithModel sets the model. Empty keeps the default.
func WithModel(model string) Option {
	return func(c *Config) {
		if model != "" {
			c.Model = model
		}
	}
}

// WithLanguage sets the language hint.
func WithLanguage(lang string) Option {
	return func(c *Config) {
		c.Language = lang
	}
}

// WithPrompt sets the context prompt.
func WithPrompt(prompt string) Option {
	return func(c *Config) {
		c.Prompt = prompt
	}
}

// WithSampleRate sets the upload sample rate.
func WithSampleRate(rate int) Option {
	return func(c *Config) {
		if rate > 0 {
			c.SampleRate = rate
		}
	}
}

// WithTempDir sets where WAV files are written.
func WithTempDir(dir string) Option {
	return func(c *Config) {
		c.TempDir = dir
	}
}

// WithTimeout sets the request timeout.
func WithTimeout(timeout time.Duration) Option {
	return func(c *Config) {
		c.Timeout = timeout
	}
}

// WithRetry sets retry behavior.
func WithRetry(maxRetries int, delay time.Duration) Option {
	return func(c *Config) {
		c.MaxRetries = maxRetries
		c.RetryDelay = delay
	}
}

// WithHTTPClient sets the HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Config) {
		c.HTTPClient = hc
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Config) {
		if logger != nil {
			c.Logger = logger
		}
	}
}

// DefaultConfig returns the Groq defaults.
func DefaultConfig() *Config {
	return &Config{
		Endpoint:   GroqEndpoint,
		Model:      DefaultGroqModel,
		SampleRate: 16000,
		Timeout:    httpc.UploadTimeout,
		MaxRetries: 2,
		RetryDelay: 500 * time.Millisecond,
		Logger:     slog.Default(),
	}
}

// Apply applies options to the config.
func (c *Config) Apply(opts ...Option) {
	for _, opt := range opts {
		opt(c)
	}
}

// Validate checks required fields.
func (c *Config) Validate() error {
	if c.APIKey == "" {
		return ErrNoAPIKey
	}
	return nil
}
