package tts

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/teslashibe/go-deskpilot/internal/config"
)

// NewFromConfig builds the provider named by speech.tts.engine. When
// speech.tts.fallback names a different engine it is chained behind it; a
// fallback that cannot be built is logged and skipped.
func NewFromConfig(cfg config.TTSConfig, logger *slog.Logger) (Provider, error) {
	if logger == nil {
		logger = slog.Default()
	}

	engine := strings.ToLower(cfg.Engine)
	if engine == "" {
		engine = providerOpenAI
	}
	primary, err := newEngine(engine, cfg.APIKey, cfg.Model, cfg, logger)
	if err != nil {
		return nil, err
	}

	fallback := strings.ToLower(cfg.Fallback)
	if fallback == "" || fallback == engine {
		return primary, nil
	}
	// The configured model belongs to the primary engine.
	second, err := newEngine(fallback, cfg.FallbackAPIKey, "", cfg, logger)
	if err != nil {
		logger.Warn("tts fallback unavailable", "engine", fallback, "error", err)
		return primary, nil
	}
	return NewChainWithLogger(logger, primary, second)
}

func newEngine(engine, apiKey, model string, cfg config.TTSConfig, logger *slog.Logger) (Provider, error) {
	opts := []Option{
		WithAPIKey(apiKey),
		WithVoice(cfg.Voice),
		WithModel(model),
		WithSpeed(cfg.Speed),
		WithLogger(logger),
	}

	switch engine {
	case providerOpenAI:
		format := EncodingPCM24
		if strings.EqualFold(cfg.Format, "opus") {
			format = EncodingOpus
		}
		return NewOpenAI(append(opts, WithOutputFormat(format))...)
	case providerElevenLabs:
		return NewElevenLabs(opts...)
	}
	return nil, fmt.Errorf("%w: %s", ErrUnsupportedEngine, engine)
}
