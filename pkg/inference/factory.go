package inference

import (
	"fmt"
	"log/slog"
	"sort"

	"github.com/teslashibe/go-deskpilot/internal/config"
)

// NewFromConfig builds the provider selected by models.default. A disabled
// default falls back to the first enabled provider by name. With
// models.fallback set, the remaining enabled providers are chained behind it.
func NewFromConfig(cfg *config.Config, logger *slog.Logger) (Provider, error) {
	if logger == nil {
		logger = slog.Default()
	}
	log := logger.With("component", "inference.factory")

	name, err := selectProvider(cfg.Models, log)
	if err != nil {
		return nil, err
	}

	primary, err := newProvider(name, cfg, logger)
	if err != nil {
		return nil, err
	}
	if !cfg.Models.Fallback {
		return primary, nil
	}

	providers := []Provider{primary}
	for _, other := range enabledNames(cfg.Models) {
		if other == name {
			continue
		}
		p, err := newProvider(other, cfg, logger)
		if err != nil {
			log.Warn("fallback provider unavailable", "provider", other, "error", err)
			continue
		}
		providers = append(providers, p)
	}
	if len(providers) == 1 {
		return primary, nil
	}
	return NewChainWithLogger(logger, providers...)
}

func selectProvider(m config.ModelsConfig, log *slog.Logger) (string, error) {
	name := m.Default
	if m.Enabled(name) {
		return name, nil
	}
	enabled := enabledNames(m)
	if len(enabled) == 0 {
		return "", ErrNoEnabledProvider
	}
	log.Warn("default model provider disabled, using first enabled",
		"default", name,
		"provider", enabled[0],
	)
	return enabled[0], nil
}

func enabledNames(m config.ModelsConfig) []string {
	var names []string
	for name := range m.Providers {
		if m.Enabled(name) {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	return names
}

func newProvider(name string, cfg *config.Config, logger *slog.Logger) (Provider, error) {
	pc := cfg.Models.Providers[name]
	opts := []Option{
		WithModel(pc.Model),
		WithMaxTokens(cfg.AI.MaxTokens),
		WithTemperature(cfg.AI.Temperature),
		WithLogger(logger),
	}
	if pc.BaseURL != "" {
		opts = append(opts, WithBaseURL(pc.BaseURL))
	}

	switch name {
	case providerGemini:
		return NewGemini(append(opts, WithAPIKey(cfg.GeminiAPIKey()))...)
	case providerOpenAI:
		return NewOpenAI(append(opts, WithAPIKey(pc.APIKey))...)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedProvider, name)
	}
}
