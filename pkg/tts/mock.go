package tts

import (
	"context"
	"sync"
	"time"
)

// mockCharDuration is how much silence the mock produces per character.
const mockCharDuration = 20 * time.Millisecond

// Mock is a Provider for tests. Without SynthesizeFunc it answers with
// silence whose length tracks the text.
type Mock struct {
	SynthesizeFunc func(ctx context.Context, text string) (*AudioResult, error)
	HealthFunc     func(ctx context.Context) error

	mu     sync.Mutex
	texts  []string
	checks int
	closed bool
}

var _ Provider = (*Mock)(nil)

// NewMock returns a mock that synthesizes silence.
func NewMock() *Mock {
	return &Mock{}
}

// WithError returns a mock whose every call fails with err.
func WithError(err error) *Mock {
	return &Mock{
		SynthesizeFunc: func(context.Context, string) (*AudioResult, error) { return nil, err },
		HealthFunc:     func(context.Context) error { return err },
	}
}

// WithLatency delays m's synthesis by delay, honouring ctx.
func WithLatency(m *Mock, delay time.Duration) *Mock {
	next := m.SynthesizeFunc
	m.SynthesizeFunc = func(ctx context.Context, text string) (*AudioResult, error) {
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
		if next != nil {
			return next(ctx, text)
		}
		return silence(text), nil
	}
	return m
}

// Synthesize records text and returns SynthesizeFunc's result or silence.
func (m *Mock) Synthesize(ctx context.Context, text string) (*AudioResult, error) {
	m.mu.Lock()
	m.texts = append(m.texts, text)
	fn := m.SynthesizeFunc
	m.mu.Unlock()

	if fn != nil {
		return fn(ctx, text)
	}
	return silence(text), nil
}

// Health counts the check and returns HealthFunc's result.
func (m *Mock) Health(ctx context.Context) error {
	m.mu.Lock()
	m.checks++
	fn := m.HealthFunc
	m.mu.Unlock()

	if fn != nil {
		return fn(ctx)
	}
	return nil
}

// Close marks the mock closed.
func (m *Mock) Close() error {
	m.mu.Lock()
	m.closed = true
	m.mu.Unlock()
	return nil
}

// Texts returns every text passed to Synthesize, oldest first.
func (m *Mock) Texts() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.texts...)
}

// HealthChecks returns how many times Health was called.
func (m *Mock) HealthChecks() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.checks
}

// Closed reports whether Close was called.
func (m *Mock) Closed() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.closed
}

// Reset forgets recorded calls.
func (m *Mock) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.texts, m.checks, m.closed = nil, 0, false
}

func silence(text string) *AudioResult {
	rate := SampleRateFromEncoding(EncodingPCM24)
	d := time.Duration(len(text)) * mockCharDuration
	samples := int(d) * rate / int(time.Second)
	return &AudioResult{
		Audio: make([]byte, samples*2),
		Format: AudioFormat{
			Encoding:   EncodingPCM24,
			SampleRate: rate,
			Channels:   1,
			BitDepth:   16,
		},
		Duration:  d,
		CharCount: len(text),
	}
}
