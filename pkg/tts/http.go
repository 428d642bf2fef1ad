package tts

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/teslashibe/go-deskpilot/internal/apierr"
	"github.com/teslashibe/go-deskpilot/internal/httpc"
)

// requester posts JSON and retries rate limits and server errors.
type requester struct {
	provider   string
	client     *http.Client
	maxRetries int
	retryDelay time.Duration
	logger     *slog.Logger
	parseError func(*http.Response) error
}

func newRequester(provider string, cfg *Config, logger *slog.Logger, parseError func(*http.Response) error) *requester {
	hc := cfg.HTTPClient
	if hc == nil {
		hc = httpc.NewClient(cfg.Timeout)
	}
	return &requester{
		provider:   provider,
		client:     hc,
		maxRetries: cfg.MaxRetries,
		retryDelay: cfg.RetryDelay,
		logger:     logger,
		parseError: parseError,
	}
}

// do sends req, rebuilding its body from body on each retry.
func (r *requester) do(ctx context.Context, req *http.Request, body []byte) (*http.Response, error) {
	var lastErr error

	for attempt := 0; attempt <= r.maxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(r.retryDelay * time.Duration(attempt)):
			}
			req.Body = io.NopCloser(bytes.NewReader(body))
		}

		resp, err := r.client.Do(req)
		if err != nil {
			lastErr = WrapError(r.provider, err)
			if ctx.Err() != nil {
				return nil, lastErr
			}
			continue
		}

		if apierr.Retryable(resp.StatusCode) {
			lastErr = r.parseError(resp)
			resp.Body.Close()
			r.logger.Warn("retrying request",
				"attempt", attempt+1,
				"status", resp.StatusCode,
			)
			continue
		}

		return resp, nil
	}

	return nil, lastErr
}

func (r *requester) close() {
	r.client.CloseIdleConnections()
}
