package inference

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"google.golang.org/genai"

	"github.com/teslashibe/go-deskpilot/internal/httpc"
)

const providerGemini = "gemini"

// Gemini answers through the Gemini API using the genai SDK.
type Gemini struct {
	client *genai.Client
	config *Config
	logger *slog.Logger
}

// DefaultGeminiModel is used when no model is configured.
const DefaultGeminiModel = "gemini-1.5-flash"

// NewGemini creates a Gemini provider. WithBaseURL overrides the API endpoint.
func NewGemini(opts ...Option) (*Gemini, error) {
	cfg := DefaultConfig()
	cfg.BaseURL = ""
	cfg.Model = DefaultGeminiModel
	cfg.Apply(opts...)

	if cfg.APIKey == "" {
		return nil, WrapError(providerGemini, ErrNoAPIKey)
	}

	hc := cfg.HTTPClient
	if hc == nil {
		hc = httpc.NewClient(cfg.Timeout)
	}

	cc := &genai.ClientConfig{
		APIKey:     cfg.APIKey,
		Backend:    genai.BackendGeminiAPI,
		HTTPClient: hc,
	}
	if cfg.BaseURL != "" {
		cc.HTTPOptions = genai.HTTPOptions{BaseURL: cfg.BaseURL}
	}

	client, err := genai.NewClient(context.Background(), cc)
	if err != nil {
		return nil, WrapError(providerGemini, fmt.Errorf("create client: %w", err))
	}

	return &Gemini{
		client: client,
		config: cfg,
		logger: cfg.Logger.With("component", "inference.gemini"),
	}, nil
}

// Name returns "gemini".
func (g *Gemini) Name() string { return providerGemini }

// Ask sends the prompt text followed by the screenshot as a single user turn.
func (g *Gemini) Ask(ctx context.Context, q *Query) (*Answer, error) {
	start := time.Now()
	model := g.config.model(q)

	parts := []*genai.Part{genai.NewPartFromText(UserPrompt(q))}
	if q.Image != nil && len(q.Image.Data) > 0 {
		mime := q.Image.MIMEType
		if mime == "" {
			mime = "image/jpeg"
		}
		parts = append(parts, genai.NewPartFromBytes(q.Image.Data, mime))
	}
	contents := []*genai.Content{genai.NewContentFromParts(parts, genai.RoleUser)}

	gen := &genai.GenerateContentConfig{
		Temperature:     genai.Ptr(float32(g.config.temperature(q))),
		MaxOutputTokens: int32(g.config.maxTokens(q)),
	}

	resp, err := g.client.Models.GenerateContent(ctx, model, contents, gen)
	if err != nil {
		return nil, g.wrapError(err)
	}

	text := resp.Text()
	if strings.TrimSpace(text) == "" {
		return nil, WrapError(providerGemini, ErrEmptyResponse)
	}

	ans := &Answer{
		Text:      text,
		Provider:  providerGemini,
		Model:     model,
		LatencyMs: time.Since(start).Milliseconds(),
	}
	if len(resp.Candidates) > 0 {
		ans.FinishReason = string(resp.Candidates[0].FinishReason)
	}
	if u := resp.UsageMetadata; u != nil {
		ans.Usage = Usage{
			PromptTokens:     int(u.PromptTokenCount),
			CompletionTokens: int(u.CandidatesTokenCount),
			TotalTokens:      int(u.TotalTokenCount),
		}
	}

	g.logger.Debug("answer received",
		"model", model,
		"tokens", ans.Usage.TotalTokens,
		"latency_ms", ans.LatencyMs,
	)
	return ans, nil
}

// Health fetches the configured model's metadata.
func (g *Gemini) Health(ctx context.Context) error {
	if _, err := g.client.Models.Get(ctx, g.config.Model, nil); err != nil {
		return g.wrapError(err)
	}
	return nil
}

// Close is a no-op.
func (g *Gemini) Close() error { return nil }

// wrapError converts SDK errors into APIError.
func (g *Gemini) wrapError(err error) error {
	var apiErr genai.APIError
	if errors.As(err, &apiErr) {
		return &APIError{Service: service, StatusCode: apiErr.Code, Message: apiErr.Message, Code: apiErr.Status, Provider: providerGemini}
	}
	var apiErrPtr *genai.APIError
	if errors.As(err, &apiErrPtr) {
		return &APIError{Service: service, StatusCode: apiErrPtr.Code, Message: apiErrPtr.Message, Code: apiErrPtr.Status, Provider: providerGemini}
	}
	return WrapError(providerGemini, err)
}

var _ Provider = (*Gemini)(nil)
