package inference

import (
	"context"
	"log/slog"
	"strings"

	"github.com/teslashibe/go-deskpilot/internal/failover"
)

// Chain asks providers in order until one answers. It backs the
// models.fallback setting.
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

// Name lists the chained providers, e.g. "gemini>openai".
func (c *Chain) Name() string {
	names := make([]string, 0, len(c.Members()))
	for _, p := range c.Members() {
		names = append(names, p.Name())
	}
	return strings.Join(names, ">")
}

// Ask returns the first provider's answer that succeeds.
func (c *Chain) Ask(ctx context.Context, q *Query) (*Answer, error) {
	return failover.Do(ctx, c.Chain, func(ctx context.Context, p Provider) (*Answer, error) {
		return p.Ask(ctx, q)
	})
}

// Providers returns the chained providers.
func (c *Chain) Providers() []Provider { return c.Members() }

var _ Provider = (*Chain)(nil)
