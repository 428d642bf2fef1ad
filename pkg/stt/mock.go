package stt

import (
	"context"
	"sync"

	"github.com/teslashibe/go-deskpilot/pkg/audioio"
)

// Mock implements Transcriber for testing.
type Mock struct {
	// TranscribeFunc is called by Transcribe. If nil, Text is returned.
	TranscribeFunc func(ctx context.Context, rec audioio.Recording) (string, error)

	// Text is the default transcript.
	Text string

	mu         sync.Mutex
	recordings []audioio.Recording
}

var _ Transcriber = (*Mock)(nil)

// NewMock returns a mock that always transcribes to text.
func NewMock(text string) *Mock {
	return &Mock{Text: text}
}

// Transcribe records rec and returns the configured result.
func (m *Mock) Transcribe(ctx context.Context, rec audioio.Recording) (string, error) {
	m.mu.Lock()
	m.recordings = append(m.recordings, rec)
	m.mu.Unlock()

	if m.TranscribeFunc != nil {
		return m.TranscribeFunc(ctx, rec)
	}
	return m.Text, nil
}

// Recordings returns every recording passed to Transcribe.
func (m *Mock) Recordings() []audioio.Recording {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]audioio.Recording, len(m.recordings))
	copy(out, m.recordings)
	return out
}
