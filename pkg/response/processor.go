package response

import (
	"context"
	"fmt"
	"log/slog"
)

// ActionRunner executes the side effects of a parsed reply.
type ActionRunner interface {
	Execute(ctx context.Context, p *Parsed, question string) []Action
}

// Processor extracts, validates and dispatches model replies.
type Processor struct {
	actions ActionRunner
	logger  *slog.Logger
}

// NewProcessor creates a processor. actions may be nil, in which case
// replies are parsed but no side effects run.
func NewProcessor(actions ActionRunner, logger *slog.Logger) *Processor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Processor{
		actions: actions,
		logger:  logger.With("component", "response.processor"),
	}
}

// Process handles one raw reply. It never fails: plain text becomes the
// speech of an unstructured result, and a failure while dispatching is
// reported in the speech.
func (p *Processor) Process(ctx context.Context, raw, question string) (res *Result) {
	defer func() {
		if r := recover(); r != nil {
			p.logger.Error("error processing response", "error", r)
			res = &Result{
				Speech:  fmt.Sprintf("I encountered an error processing the response: %v", r),
				Raw:     raw,
				Actions: []Action{},
			}
		}
	}()

	obj, ok := Extract(raw)
	if !ok {
		p.logger.Warn("no valid JSON structure found in response")
		return &Result{Speech: raw, Raw: raw, Actions: []Action{}}
	}

	parsed := Parse(obj)
	actions := []Action{}
	if p.actions != nil {
		if done := p.actions.Execute(ctx, parsed, question); done != nil {
			actions = done
		}
	}

	p.logger.Debug("response processed",
		"has_speech", parsed.HasSpeech,
		"actions", len(actions),
		"plugins", len(parsed.Plugins))

	return &Result{
		Speech:     parsed.Speech,
		Raw:        raw,
		Structured: true,
		Actions:    actions,
		Parsed:     parsed,
	}
}
