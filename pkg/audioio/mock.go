package audioio

import (
	"context"
	"sync"
	"time"
)

// MockRecorder is a Recorder that returns canned samples.
type MockRecorder struct {
	// Samples is returned by Stop. Empty yields ErrNoAudio.
	Samples    []int16
	SampleRate int

	// StartErr is returned by Start when set.
	StartErr error

	mu        sync.Mutex
	recording bool
	starts    int
}

var _ Recorder = (*MockRecorder)(nil)

// NewMockRecorder returns a recorder that yields samples at 16kHz mono.
func NewMockRecorder(samples []int16) *MockRecorder {
	return &MockRecorder{Samples: samples, SampleRate: 16000}
}

// Start marks the recorder as recording.
func (m *MockRecorder) Start(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.StartErr != nil {
		return m.StartErr
	}
	if m.recording {
		return nil
	}
	m.recording = true
	m.starts++
	return nil
}

// Stop returns the canned samples.
func (m *MockRecorder) Stop() (Recording, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.recording {
		return Recording{}, ErrNotRecording
	}
	m.recording = false
	rec := Recording{
		Samples:    append([]int16(nil), m.Samples...),
		SampleRate: m.SampleRate,
		Channels:   1,
	}
	if len(rec.Samples) == 0 {
		return rec, ErrNoAudio
	}
	return rec, nil
}

// Recording reports whether Start has been called without Stop.
func (m *MockRecorder) Recording() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.recording
}

// Starts returns how many recordings were started.
func (m *MockRecorder) Starts() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.starts
}

// Playback records one Play call.
type Playback struct {
	Samples    []int16
	SampleRate int
	Time       time.Time
}

// MockPlayer is a Player that records what it was asked to play.
type MockPlayer struct {
	// PlayFunc overrides the default behavior when set.
	PlayFunc func(ctx context.Context, samples []int16, sampleRate int) error

	mu    sync.Mutex
	plays []Playback
}

var _ Player = (*MockPlayer)(nil)

// NewMockPlayer creates a mock player.
func NewMockPlayer() *MockPlayer {
	return &MockPlayer{}
}

// Play records the call, then defers to PlayFunc.
func (m *MockPlayer) Play(ctx context.Context, samples []int16, sampleRate int) error {
	m.mu.Lock()
	m.plays = append(m.plays, Playback{Samples: samples, SampleRate: sampleRate, Time: time.Now()})
	m.mu.Unlock()
	if m.PlayFunc != nil {
		return m.PlayFunc(ctx, samples, sampleRate)
	}
	return ctx.Err()
}

// Plays returns all recorded playbacks.
func (m *MockPlayer) Plays() []Playback {
	m.mu.Lock()
	defer m.mu.Unlock()
	result := make([]Playback, len(m.plays))
	copy(result, m.plays)
	return result
}

// Reset clears recorded playbacks.
func (m *MockPlayer) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.plays = nil
}
