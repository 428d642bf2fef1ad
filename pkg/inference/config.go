package inference

import (
	"log/slog"
	"net/http"
	"time"
)

// Config holds provider configuration.
type Config struct {
	// Connection
	BaseURL string // API base URL
	APIKey  string // API key

	// Model is the default vision model.
	Model string

	// Request defaults
	MaxTokens   int
	Temperature float64

	// ImageDetail is the OpenAI image detail level ("low", "high", "auto").
	ImageDetail string

	// Timeouts
	Timeout time.Duration

	// Retry configuration
	MaxRetries int
	RetryDelay time.Duration

	// HTTPClient overrides the client built from Timeout.
	HTTPClient *http.Client

	// Observability
	Logger *slog.Logger
}

// Option is a functional option for configuring providers.
type Option func(*Config)

// WithBaseURL sets the API base URL.
// Examples: "https://api.openai.com/v1", "http://localhost:11434/v1"
func WithBaseURL(url string) Option {
	return func(c *Config) { c.BaseURL = url }
}

// WithAPIKey sets the API key.
func WithAPIKey(key string) Option {
	return func(c *Config) { c.APIKey = key }
}

// WithModel sets the default model.
func WithModel(model string) Option {
	return func(c *Config) {
		if model != "" {
			c.Model = model
		}
	}
}

// WithMaxTokens sets the default max tokens.
func WithMaxTokens(n int) Option {
	return func(c *Config) { c.MaxTokens = n }
}

// WithTemperature sets the default temperature.
func WithTemperature(t float64) Option {
	return func(c *Config) { c.Temperature = t }
}

// WithImageDetail sets the image detail level sent to OpenAI.
func WithImageDetail(detail string) Option {
	return func(c *Config) { c.ImageDetail = detail }
}

// WithTimeout sets the request timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Config) { c.Timeout = d }
}

// WithRetry configures retry behavior.
func WithRetry(maxRetries int, delay time.Duration) Option {
	return func(c *Config) {
		c.MaxRetries = maxRetries
		c.RetryDelay = delay
	}
}

// WithHTTPClient sets the HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Config) { c.HTTPClient = hc }
}

// WithLogger sets the structured logger.
func WithLogger(l *slog.Logger) Option {
	return func(c *Config) {
		if l != nil {
			c.Logger = l
		}
	}
}

// DefaultConfig returns defaults matching the assistant's generation settings.
func DefaultConfig() *Config {
	return &Config{
		BaseURL:     "https://api.openai.com/v1",
		Model:       "gpt-4o",
		MaxTokens:   1024,
		Temperature: 0.2,
		ImageDetail: "high",
		Timeout:     60 * time.Second,
		MaxRetries:  2,
		RetryDelay:  500 * time.Millisecond,
		Logger:      slog.Default(),
	}
}

// Apply applies functional options to the config.
func (c *Config) Apply(opts ...Option) {
	for _, opt := range opts {
		opt(c)
	}
}

// maxTokens resolves a per-query override against the default.
func (c *Config) maxTokens(q *Query) int {
	if q.MaxTokens > 0 {
		return q.MaxTokens
	}
	return c.MaxTokens
}

// temperature resolves a per-query override against the default.
func (c *Config) temperature(q *Query) float64 {
	if q.Temperature > 0 {
		return q.Temperature
	}
	return c.Temperature
}

// model resolves a per-query override against the default.
func (c *Config) model(q *Query) string {
	if q.Model != "" {
		return q.Model
	}
	return c.Model
}
