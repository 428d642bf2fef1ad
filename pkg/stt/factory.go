package stt

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/teslashibe/go-deskpilot/internal/config"
)

// NewFromConfig builds the transcriber named by speech.stt.engine.
func NewFromConfig(cfg config.STTConfig, sampleRate int, logger *slog.Logger) (Transcriber, error) {
	opts := []Option{
		WithAPIKey(cfg.APIKey),
		WithLanguage(cfg.Language),
		WithSampleRate(sampleRate),
		WithLogger(logger),
	}

	switch strings.ToLower(cfg.Engine) {
	case "", "groq":
		opts = append(opts, WithEndpoint(GroqEndpoint), WithModel(cfg.Model))
	case "openai":
		model := cfg.Model
		if model == DefaultGroqModel {
			model = DefaultOpenAIModel
		}
		opts = append(opts, WithEndpoint(OpenAIEndpoint), WithModel(model))
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedEngine, cfg.Engine)
	}

	// base_url points the same client at any compatible server.
	opts = append(opts, WithEndpoint(cfg.BaseURL))
	return NewWhisper(opts...)
}
