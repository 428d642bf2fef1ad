package inference

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/teslashibe/go-deskpilot/internal/apierr"
	"github.com/teslashibe/go-deskpilot/internal/httpc"
)

const providerOpenAI = "openai"

// OpenAI is an HTTP provider for OpenAI-compatible chat completion APIs
// (OpenAI, Groq, Together, vLLM, Ollama).
type OpenAI struct {
	baseURL string
	apiKey  string
	config  *Config
	http    *http.Client
	logger  *slog.Logger
}

// NewOpenAI creates an OpenAI-compatible provider.
func NewOpenAI(opts ...Option) (*OpenAI, error) {
	cfg := DefaultConfig()
	cfg.Apply(opts...)

	if cfg.APIKey == "" {
		return nil, WrapError(providerOpenAI, ErrNoAPIKey)
	}
	if cfg.Model == "" {
		return nil, WrapError(providerOpenAI, ErrNoModel)
	}

	hc := cfg.HTTPClient
	if hc == nil {
		hc = httpc.NewClient(cfg.Timeout)
	}

	return &OpenAI{
		baseURL: strings.TrimSuffix(cfg.BaseURL, "/"),
		apiKey:  cfg.APIKey,
		config:  cfg,
		http:    hc,
		logger:  cfg.Logger.With("component", "inference.openai"),
	}, nil
}

// Name returns "openai".
func (c *OpenAI) Name() string { return providerOpenAI }

// Ask sends the question, screenshot and history as one chat completion.
func (c *OpenAI) Ask(ctx context.Context, q *Query) (*Answer, error) {
	start := time.Now()
	model := c.config.model(q)

	resp, err := c.post(ctx, "/chat/completions", c.buildPayload(q, model))
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, c.parseError(resp)
	}

	var result chatCompletionResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, WrapError(providerOpenAI, fmt.Errorf("decode response: %w", err))
	}
	if len(result.Choices) == 0 {
		return nil, WrapError(providerOpenAI, fmt.Errorf("no choices returned"))
	}

	choice := result.Choices[0]
	if strings.TrimSpace(choice.Message.Content) == "" {
		return nil, WrapError(providerOpenAI, ErrEmptyResponse)
	}
	if result.Model != "" {
		model = result.Model
	}

	c.logger.Debug("answer received",
		"model", model,
		"tokens", result.Usage.TotalTokens,
		"latency_ms", time.Since(start).Milliseconds(),
	)

	return &Answer{
		Text:         choice.Message.Content,
		Provider:     providerOpenAI,
		Model:        model,
		FinishReason: choice.FinishReason,
		Usage: Usage{
			PromptTokens:     result.Usage.PromptTokens,
			CompletionTokens: result.Usage.CompletionTokens,
			TotalTokens:      result.Usage.TotalTokens,
		},
		LatencyMs: time.Since(start).Milliseconds(),
	}, nil
}

// Health checks API connectivity by listing models.
func (c *OpenAI) Health(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/models", nil)
	if err != nil {
		return WrapError(providerOpenAI, fmt.Errorf("create request: %w", err))
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.http.Do(req)
	if err != nil {
		return WrapError(providerOpenAI, fmt.Errorf("health check: %w", err))
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return c.parseError(resp)
	}
	return nil
}

// Close releases idle connections.
func (c *OpenAI) Close() error {
	c.http.CloseIdleConnections()
	return nil
}

// buildPayload constructs the request: system prompt, optional history
// context as a second system message, then the question with the image.
func (c *OpenAI) buildPayload(q *Query, model string) map[string]interface{} {
	messages := []map[string]interface{}{
		{"role": "system", "content": q.SystemPrompt},
	}
	if h := HistoryContext(q.History); h != "" {
		messages = append(messages, map[string]interface{}{
			"role":    "system",
			"content": "Context: " + strings.TrimSuffix(h, "\n\n"),
		})
	}

	content := []map[string]interface{}{
		{"type": "text", "text": q.Question},
	}
	if q.Image != nil && len(q.Image.Data) > 0 {
		content = append(content, map[string]interface{}{
			"type": "image_url",
			"image_url": map[string]string{
				"url":    q.Image.DataURL(),
				"detail": c.config.ImageDetail,
			},
		})
	}
	messages = append(messages, map[string]interface{}{
		"role":    "user",
		"content": content,
	})

	return map[string]interface{}{
		"model":       model,
		"messages":    messages,
		"max_tokens":  c.config.maxTokens(q),
		"temperature": c.config.temperature(q),
	}
}

// post makes a POST request.
func (c *OpenAI) post(ctx context.Context, path string, payload interface{}) (*http.Response, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, WrapError(providerOpenAI, fmt.Errorf("marshal payload: %w", err))
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return nil, WrapError(providerOpenAI, fmt.Errorf("create request: %w", err))
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	return c.doWithRetry(ctx, req, body)
}

// doWithRetry performs the request, retrying rate limits and server errors.
func (c *OpenAI) doWithRetry(ctx context.Context, req *http.Request, body []byte) (*http.Response, error) {
	var lastErr error

	for attempt := 0; attempt <= c.config.MaxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(c.config.RetryDelay * time.Duration(attempt)):
			}
			req.Body = io.NopCloser(bytes.NewReader(body))
		}

		resp, err := c.http.Do(req)
		if err != nil {
			lastErr = WrapError(providerOpenAI, err)
			if ctx.Err() != nil {
				return nil, lastErr
			}
			c.logger.Warn("request failed, retrying",
				"attempt", attempt+1,
				"error", err,
			)
			continue
		}

		if apierr.Retryable(resp.StatusCode) {
			lastErr = c.parseError(resp)
			resp.Body.Close()
			c.logger.Warn("retrying request",
				"attempt", attempt+1,
				"status", resp.StatusCode,
			)
			continue
		}

		return resp, nil
	}

	return nil, lastErr
}

func (c *OpenAI) parseError(resp *http.Response) error {
	return apierr.FromResponse(service, providerOpenAI, resp, apierr.OpenAIBody)
}

type chatCompletionResponse struct {
	Model   string `json:"model"`
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
		FinishReason string `json:"finish_reason"`
	} `json:"choices"`
	Usage struct {
		PromptTokens     int `json:"prompt_tokens"`
		CompletionTokens int `json:"completion_tokens"`
		TotalTokens      int `json:"total_tokens"`
	} `json:"usage"`
}

var _ Provider = (*OpenAI)(nil)
