// Package failover runs a call against an ordered list of providers until
// one succeeds.
package failover

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/teslashibe/go-deskpilot/internal/apierr"
)

// ErrEmpty is returned by New without members.
var ErrEmpty = errors.New("failover: no members")

// Member is a provider that can be health checked and closed.
type Member interface {
	Health(ctx context.Context) error
	Close() error
}

type named interface{ Name() string }

// Chain holds the members in priority order.
type Chain[M Member] struct {
	service string
	members []M
	logger  *slog.Logger
}

// New builds a chain for service ("tts", "inference"). A nil logger uses
// slog.Default.
func New[M Member](service string, logger *slog.Logger, members ...M) (*Chain[M], error) {
	if len(members) == 0 {
		return nil, ErrEmpty
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Chain[M]{
		service: service,
		members: members,
		logger:  logger.With("component", service+".chain"),
	}, nil
}

// Members returns the chained providers in order.
func (c *Chain[M]) Members() []M { return c.members }

// Do calls fn on each member in turn and returns the first success. When
// every member fails the error is an *apierr.ChainError. Cancellation stops
// the walk and returns ctx.Err().
func Do[M Member, R any](ctx context.Context, c *Chain[M], fn func(context.Context, M) (R, error)) (R, error) {
	var zero R
	var errs []error

	for i, m := range c.members {
		res, err := fn(ctx, m)
		if err == nil {
			if i > 0 {
				c.logger.Info("fallback provider succeeded", memberAttrs(m, i)...)
			}
			return res, nil
		}

		errs = append(errs, err)
		c.logger.Warn("provider failed, trying next", append(memberAttrs(m, i), "error", err)...)

		if ctx.Err() != nil {
			return zero, ctx.Err()
		}
	}
	return zero, &apierr.ChainError{Service: c.service, Errors: errs}
}

// Health passes when at least one member is healthy.
func (c *Chain[M]) Health(ctx context.Context) error {
	var healthy int
	var lastErr error
	for _, m := range c.members {
		if err := m.Health(ctx); err != nil {
			lastErr = err
			continue
		}
		healthy++
	}
	if healthy == 0 {
		return fmt.Errorf("%s chain: all %d providers unhealthy: %w", c.service, len(c.members), lastErr)
	}
	c.logger.Debug("health check complete", "healthy", healthy, "total", len(c.members))
	return nil
}

// Close closes every member and returns the last error.
func (c *Chain[M]) Close() error {
	var lastErr error
	for _, m := range c.members {
		if err := m.Close(); err != nil {
			lastErr = err
		}
	}
	return lastErr
}

func memberAttrs(m any, i int) []any {
	attrs := []any{"provider_index", i}
	if n, ok := m.(named); ok {
		attrs = append(attrs, "provider", n.Name())
	}
	return attrs
}
