package tts

import (
	"context"
	"log/slog"

	"github.com/teslashibe/go-deskpilot/internal/failover"
)

// Chain synthesizes with the first provider that succeeds, so a missing
// ElevenLabs key or quota falls back to OpenAI.
type Chain struct {
	*failover.Chain[Provider]
}

// NewChain chains providers in priority order.
func NewChain(providers ...Provider) (*Chain, error) {
	return NewChainWithLogger(nil, providers...)
}

// NewChainWithLogger is NewChain with a custom logger.
func NewChainWithLogger(logger *slog.Logger, providers ...Provider) (*Chain, error) {
	c, err := failover.New(service, logger, providers...)
	if err != nil {
		return nil, ErrProviderUnavailable
	}
	return &Chain{Chain: c}, nil
}

// Synthesize returns the first successful synthesis.
func (c *Chain) Synthesize(ctx context.Context, text string) (*AudioResult, error) {
	return failover.Do(ctx, c.Chain, func(ctx context.Context, p Provider) (*AudioResult, error) {
		return p.Synthesize(ctx, text)
	})
}

// Providers returns the chained providers.
func (c *Chain) Providers() []Provider { return c.Members() }

var _ Provider = (*Chain)(nil)
