// Package assistant wires the hotkey, capture, transcription, inference and
// action pipeline into a single push-to-talk loop.
//
// A press captures the screen and starts recording. The release stops the
// recording and runs the query in the background while the hotkey is
// suppressed, so a second press cannot start a new query over a running one.
package assistant

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/teslashibe/go-deskpilot/pkg/audioio"
	"github.com/teslashibe/go-deskpilot/pkg/hub"
	"github.com/teslashibe/go-deskpilot/pkg/inference"
	"github.com/teslashibe/go-deskpilot/pkg/plugin"
	"github.com/teslashibe/go-deskpilot/pkg/response"
	"github.com/teslashibe/go-deskpilot/pkg/screenshot"
	"github.com/teslashibe/go-deskpilot/pkg/stt"
)

var (
	// ErrNoScreenshot is returned when a query has no screen capture.
	ErrNoScreenshot = errors.New("no screenshot captured")

	// ErrEmptyQuestion is returned for blank questions.
	ErrEmptyQuestion = errors.New("empty question")

	// ErrMissingDependency is returned by New when a required component is nil.
	ErrMissingDependency = errors.New("missing dependency")

	// ErrBusy is returned by Ask while another query is running.
	ErrBusy error = busyError{}
)

type busyError struct{}

func (busyError) Error() string { return "assistant is busy" }

// Busy marks the error for callers that match on behaviour instead of
// importing this package.
func (busyError) Busy() bool { return true }

// DefaultHistoryEntries is how many past interactions are sent as context.
const DefaultHistoryEntries = 5

// Capturer grabs the screen.
type Capturer interface {
	Capture(ctx context.Context) (*screenshot.Image, error)
}

// Processor turns a raw model reply into a result, running its actions.
type Processor interface {
	Process(ctx context.Context, raw, question string) *response.Result
}

// SessionLog records interactions and renders recent history.
type SessionLog interface {
	AddInteraction(question, answer string) error
	History(maxEntries int) string
}

// PluginRunner dispatches plugins requested by a reply.
type PluginRunner interface {
	Has(name string) bool
	Execute(ctx context.Context, name string, in plugin.Context) map[string]any
}

// Speaker reads answers aloud.
type Speaker interface {
	Speak(ctx context.Context, text string) error
}

// PromptSource provides the current system prompt.
type PromptSource interface {
	Prompt() string
}

// Publisher receives progress events.
type Publisher interface {
	Publish(e hub.Event)
}

// Suppressor mutes the hotkey while a query runs.
type Suppressor interface {
	SetSuppressed(bool)
}

// Service is a long-running component started by Run.
type Service func(ctx context.Context) error

// Config holds the assistant's components. Provider, Processor and Session
// are required; the rest are optional.
type Config struct {
	Recorder    audioio.Recorder
	Transcriber stt.Transcriber
	Screen      Capturer
	Provider    inference.Provider
	Processor   Processor
	Session     SessionLog
	Plugins     PluginRunner
	Speaker     Speaker
	Prompt      PromptSource
	Events      Publisher

	// Model and sampling overrides passed with every query.
	Model       string
	MaxTokens   int
	Temperature float64

	HistoryEntries int

	// Out receives console progress lines. Defaults to os.Stdout.
	Out    io.Writer
	Logger *slog.Logger
}

// Assistant runs the push-to-talk pipeline.
type Assistant struct {
	cfg    Config
	logger *slog.Logger

	mu         sync.Mutex
	base       context.Context
	screen     *screenshot.Image
	suppressor Suppressor
	recording  bool

	busy     atomic.Bool
	inflight sync.WaitGroup
	outMu    sync.Mutex
}

// New validates cfg and returns an Assistant.
func New(cfg Config) (*Assistant, error) {
	switch {
	case cfg.Provider == nil:
		return nil, fmt.Errorf("%w: inference provider", ErrMissingDependency)
	case cfg.Processor == nil:
		return nil, fmt.Errorf("%w: response processor", ErrMissingDependency)
	case cfg.Session == nil:
		return nil, fmt.Errorf("%w: session log", ErrMissingDependency)
	}
	if cfg.HistoryEntries <= 0 {
		cfg.HistoryEntries = DefaultHistoryEntries
	}
	if cfg.Out == nil {
		cfg.Out = os.Stdout
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	return &Assistant{
		cfg:    cfg,
		logger: cfg.Logger.With("component", "assistant"),
		base:   context.Background(),
	}, nil
}

// SetSuppressor sets the hotkey to mute while queries run.
func (a *Assistant) SetSuppressor(s Suppressor) {
	a.mu.Lock()
	a.suppressor = s
	a.mu.Unlock()
}

// Busy reports whether a query is in progress.
func (a *Assistant) Busy() bool {
	return a.busy.Load()
}

// Provider returns the name of the inference provider.
func (a *Assistant) Provider() string {
	return a.cfg.Provider.Name()
}

// Run starts services and blocks until ctx is done or a service fails.
// In-flight queries are awaited before it returns.
func (a *Assistant) Run(ctx context.Context, services ...Service) error {
	g, gctx := errgroup.WithContext(ctx)

	a.mu.Lock()
	a.base = gctx
	a.mu.Unlock()

	for _, svc := range services {
		g.Go(func() error { return svc(gctx) })
	}
	g.Go(func() error {
		<-gctx.Done()
		return nil
	})

	a.say("✅ Assistant ready (provider: %s)", a.cfg.Provider.Name())
	err := g.Wait()
	a.inflight.Wait()
	a.logger.Info("assistant stopped")
	return err
}

// OnPress captures the screen and starts recording.
func (a *Assistant) OnPress() {
	ctx := a.context()
	a.say("🎤 Assistant activated. Capturing screenshot...")

	var img *screenshot.Image
	if a.cfg.Screen != nil {
		var err error
		img, err = a.cfg.Screen.Capture(ctx)
		if err != nil {
			a.logger.Error("screenshot failed", "error", err)
			img = nil
		}
	}

	a.mu.Lock()
	a.screen = img
	a.mu.Unlock()

	if a.cfg.Recorder == nil {
		return
	}
	if err := a.cfg.Recorder.Start(ctx); err != nil {
		a.logger.Error("failed to start recording", "error", err)
		a.publish(hub.EventError, "could not start recording", nil)
		return
	}
	a.mu.Lock()
	a.recording = true
	a.mu.Unlock()

	a.say("👂 Listening... (release shortcut when done speaking)")
	a.publish(hub.EventListening, "listening", nil)
}

// OnRelease stops recording and answers the question in the background.
func (a *Assistant) OnRelease() {
	a.mu.Lock()
	recording := a.recording
	a.recording = false
	img := a.screen
	a.mu.Unlock()
	if !recording {
		return
	}
	if !a.busy.CompareAndSwap(false, true) {
		if _, err := a.cfg.Recorder.Stop(); err != nil && !errors.Is(err, audioio.ErrNoAudio) {
			a.logger.Error("failed to stop recording", "error", err)
		}
		a.say("⏳ Still answering the previous question.")
		return
	}

	a.suppress(true)
	a.inflight.Add(1)
	go func() {
		defer a.inflight.Done()
		defer a.busy.Store(false)
		defer a.suppress(false)
		a.handleRecording(a.context(), img)
	}()
}

// Wait blocks until background queries finish.
func (a *Assistant) Wait() {
	a.inflight.Wait()
}

func (a *Assistant) handleRecording(ctx context.Context, img *screenshot.Image) {
	a.say("⏳ Processing your question...")

	rec, err := a.cfg.Recorder.Stop()
	if err != nil || len(rec.Samples) == 0 {
		if err != nil && !errors.Is(err, audioio.ErrNoAudio) {
			a.logger.Error("failed to stop recording", "error", err)
		}
		a.say("No audio detected. Please try again.")
		a.publish(hub.EventError, "no audio detected", nil)
		return
	}

	if a.cfg.Transcriber == nil {
		a.logger.Error("no transcriber configured")
		return
	}
	question, err := a.cfg.Transcriber.Transcribe(ctx, rec)
	if err != nil {
		a.logger.Error("transcription failed", "error", err)
	}
	if question == "" {
		a.say("Could not understand audio. Please try again.")
		a.publish(hub.EventError, "could not understand audio", nil)
		return
	}

	if _, err := a.ask(ctx, question, img); err != nil {
		a.logger.Warn("query not completed", "error", err)
	}
}

// Ask answers question about img, outside of the hotkey flow. Only one
// query runs at a time; a concurrent call gets ErrBusy. The hotkey is
// suppressed while the query runs.
func (a *Assistant) Ask(ctx context.Context, question string, img *screenshot.Image) (*response.Result, error) {
	if question == "" {
		return nil, ErrEmptyQuestion
	}
	if !a.busy.CompareAndSwap(false, true) {
		return nil, ErrBusy
	}
	defer a.busy.Store(false)
	a.suppress(true)
	defer a.suppress(false)
	return a.ask(ctx, question, img)
}

func (a *Assistant) ask(ctx context.Context, question string, img *screenshot.Image) (*response.Result, error) {
	a.say("❓ Your question: %q", question)
	a.publish(hub.EventQuestion, question, nil)

	if img == nil {
		a.say("❌ Error: No screenshot captured")
		a.publish(hub.EventError, ErrNoScreenshot.Error(), nil)
		return nil, ErrNoScreenshot
	}

	start := time.Now()
	history := a.cfg.Session.History(a.cfg.HistoryEntries)
	result := a.query(ctx, question, img, history)

	a.say("💬 Answer: %q", preview(result.Speech, 100))
	if len(result.Actions) > 0 {
		a.say("Actions performed:")
		for _, act := range result.Actions {
			a.say("  - %s", describe(act))
			a.publish(hub.EventAction, describe(act), act)
		}
	}

	if err := a.cfg.Session.AddInteraction(question, result.Raw); err != nil {
		a.logger.Error("failed to log interaction", "error", err)
	}

	a.publish(hub.EventAnswer, result.Speech, result)
	a.logger.Info("query answered",
		"structured", result.Structured,
		"actions", len(result.Actions),
		"plugins", len(result.PluginResults),
		"elapsed", time.Since(start).Round(time.Millisecond))

	if a.cfg.Speaker != nil && result.Speech != "" {
		if err := a.cfg.Speaker.Speak(ctx, result.Speech); err != nil {
			a.logger.Error("failed to speak answer", "error", err)
		}
	}
	return result, nil
}

// query asks the provider and processes the reply. Provider failures become
// a spoken apology rather than an error.
func (a *Assistant) query(ctx context.Context, question string, img *screenshot.Image, history string) *response.Result {
	q := &inference.Query{
		Question:    question,
		Image:       &inference.Image{Data: img.Data, MIMEType: img.MIMEType},
		History:     history,
		Model:       a.cfg.Model,
		MaxTokens:   a.cfg.MaxTokens,
		Temperature: a.cfg.Temperature,
	}
	if a.cfg.Prompt != nil {
		q.SystemPrompt = a.cfg.Prompt.Prompt()
	}

	a.say("🤖 Sending to %s...", a.cfg.Provider.Name())
	answer, err := a.cfg.Provider.Ask(ctx, q)
	if err != nil {
		a.logger.Error("inference failed", "provider", a.cfg.Provider.Name(), "error", err)
		return &response.Result{
			Speech:  fmt.Sprintf("Sorry, I encountered an error: %v", err),
			Raw:     fmt.Sprintf("Error processing query with AI model: %v", err),
			Actions: []response.Action{},
		}
	}

	result := a.cfg.Processor.Process(ctx, answer.Text, question)
	if result.Structured && result.Parsed != nil && a.cfg.Plugins != nil {
		if out := a.runPlugins(ctx, question, result, history); len(out) > 0 {
			result.PluginResults = out
		}
	}
	return result
}

func (a *Assistant) runPlugins(ctx context.Context, question string, result *response.Result, history string) map[string]any {
	if len(result.Parsed.Plugins) == 0 {
		return nil
	}
	in := plugin.Context{
		"question":             question,
		"processed_response":   result.Map(),
		"conversation_history": history,
	}
	out := make(map[string]any)
	for _, name := range result.Parsed.Plugins {
		if !a.cfg.Plugins.Has(name) {
			a.logger.Warn("requested plugin not loaded", "plugin", name)
			continue
		}
		if res := a.cfg.Plugins.Execute(ctx, name, in); res != nil {
			out[name] = res
		}
	}
	return out
}

func (a *Assistant) context() context.Context {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.base
}

func (a *Assistant) suppress(on bool) {
	a.mu.Lock()
	s := a.suppressor
	a.mu.Unlock()
	if s != nil {
		s.SetSuppressed(on)
	}
}

func (a *Assistant) publish(t hub.EventType, msg string, data any) {
	if a.cfg.Events != nil {
		a.cfg.Events.Publish(hub.NewEvent(t, msg, data))
	}
}

func (a *Assistant) say(format string, args ...any) {
	a.outMu.Lock()
	defer a.outMu.Unlock()
	fmt.Fprintf(a.cfg.Out, format+"\n", args...)
}

func describe(act response.Action) string {
	switch act.Type {
	case response.ActionClipboard:
		return "Copied content to clipboard"
	case response.ActionNotes:
		return fmt.Sprintf("Saved note: %s", act.Title)
	case response.ActionMacro:
		if act.Description != "" {
			return fmt.Sprintf("Executed keyboard shortcut: %s (%s)", act.Keys, act.Description)
		}
		return fmt.Sprintf("Executed keyboard shortcut: %s", act.Keys)
	default:
		return act.Type
	}
}

func preview(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + "..."
}
