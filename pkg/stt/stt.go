// Package stt transcribes recorded speech through Whisper-compatible
// HTTP endpoints (Groq, OpenAI, or any server exposing
// /audio/transcriptions).
package stt

import (
	"context"
	"errors"

	"github.com/teslashibe/go-deskpilot/internal/apierr"
	"github.com/teslashibe/go-deskpilot/pkg/audioio"
)

// Transcriber turns a recording into text.
type Transcriber interface {
	// Transcribe returns the trimmed transcript. An empty string with a nil
	// error means the audio contained no recognizable speech.
	Transcribe(ctx context.Context, rec audioio.Recording) (string, error)
}

var (
	// ErrNoAPIKey is returned when the API key is missing.
	ErrNoAPIKey = errors.New("stt: API key required")

	// ErrNoAudio is returned for an empty recording.
	ErrNoAudio = errors.New("stt: no audio to transcribe")

	// ErrUnsupportedEngine is returned for an unknown engine name.
	ErrUnsupportedEngine = errors.New("stt: unsupported engine")
)

const service = "stt"

// APIError is an error response from a transcription endpoint.
type APIError = apierr.Error

// WrapError wraps err with provider context. A nil err stays nil.
func WrapError(provider string, err error) error {
	return apierr.Wrap(service, provider, err)
}
