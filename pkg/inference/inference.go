// Package inference sends a spoken question, a screenshot and recent
// conversation history to a vision-capable model and returns its raw reply.
//
// Providers share one interface so the assistant can switch between
// Gemini and any OpenAI-compatible endpoint, or chain them for fallback.
//
// Example usage:
//
//	p, _ := inference.NewGemini(
//	    inference.WithAPIKey(os.Getenv("GEMINI_API_KEY")),
//	    inference.WithModel("gemini-1.5-flash"),
//	)
//	defer p.Close()
//
//	ans, _ := p.Ask(ctx, &inference.Query{
//	    Question:     "What does this error mean?",
//	    Image:        &inference.Image{Data: png, MIMEType: "image/png"},
//	    SystemPrompt: prompt,
//	})
package inference

import (
	"context"
	"encoding/base64"
	"strings"
)

// Provider answers questions about a screenshot.
type Provider interface {
	// Ask sends the query and returns the model's raw text reply.
	Ask(ctx context.Context, q *Query) (*Answer, error)

	// Name identifies the provider in logs and errors.
	Name() string

	// Health checks provider connectivity and API key validity.
	Health(ctx context.Context) error

	// Close releases any resources held by the provider.
	Close() error
}

// Image is an encoded screenshot.
type Image struct {
	Data     []byte
	MIMEType string // "image/png" or "image/jpeg"
}

// DataURL renders the image as a base64 data URL.
func (i *Image) DataURL() string {
	mime := i.MIMEType
	if mime == "" {
		mime = "image/jpeg"
	}
	return "data:" + mime + ";base64," + base64.StdEncoding.EncodeToString(i.Data)
}

// Query is one question to the model.
type Query struct {
	// Question is the transcribed user question.
	Question string

	// Image is the screenshot the question refers to. Optional.
	Image *Image

	// History is prior conversation in session markdown form. Optional.
	History string

	// SystemPrompt instructs the model on the reply format.
	SystemPrompt string

	// Model overrides the provider's default model.
	Model string

	// MaxTokens limits the response length. 0 uses the provider default.
	MaxTokens int

	// Temperature controls randomness. 0 uses the provider default.
	Temperature float64
}

// Answer is the model's reply.
type Answer struct {
	// Text is the raw reply, possibly containing JSON.
	Text string

	// Provider that produced the reply.
	Provider string

	// Model used for generation.
	Model string

	// FinishReason indicates why generation stopped.
	FinishReason string

	// Usage tracks token consumption.
	Usage Usage

	// LatencyMs is the response time in milliseconds.
	LatencyMs int64
}

// Usage tracks token consumption for billing and limits.
type Usage struct {
	PromptTokens     int
	CompletionTokens int
	TotalTokens      int
}

// HistoryContext renders history as the context preamble shared by all
// providers. Empty history yields "".
func HistoryContext(history string) string {
	if strings.TrimSpace(history) == "" {
		return ""
	}
	return "Previous conversation:\n" + history + "\n\n"
}

// UserPrompt is the single-turn prompt for providers without a separate
// system role: system prompt, history context, then the question.
func UserPrompt(q *Query) string {
	return q.SystemPrompt + "\n\n" + HistoryContext(q.History) +
		"User's question (referring to the attached screenshot): " + q.Question
}
