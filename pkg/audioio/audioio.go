// Package audioio records the microphone while the push-to-talk key is held
// and plays synthesized speech back through the default output device.
//
// Backends:
//   - PortAudio (Device) for real hardware on macOS, Linux and Windows
//   - MockRecorder / MockPlayer for tests and headless runs
package audioio

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// Sentinel errors.
var (
	// ErrNotRecording is returned by Stop when no recording is in progress.
	ErrNotRecording = errors.New("audioio: not recording")

	// ErrNoAudio is returned by Stop when the recording captured nothing.
	ErrNoAudio = errors.New("audioio: no audio captured")
)

// Config holds audio configuration.
type Config struct {
	// SampleRate is the capture rate in Hz.
	// Default: 16000 (what Whisper resamples to anyway)
	SampleRate int `yaml:"sample_rate" json:"sample_rate"`

	// Channels is the number of capture channels.
	// Default: 1 (mono)
	Channels int `yaml:"channels" json:"channels"`

	// FramesPerBuffer is the PortAudio buffer size in frames.
	// Default: 1024
	FramesPerBuffer int `yaml:"frames_per_buffer" json:"frames_per_buffer"`
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		SampleRate:      16000,
		Channels:        1,
		FramesPerBuffer: 1024,
	}
}

// Validate checks that the configuration is valid.
func (c *Config) Validate() error {
	if c.SampleRate <= 0 {
		return fmt.Errorf("audioio: sample_rate must be positive, got %d", c.SampleRate)
	}
	if c.Channels <= 0 {
		return fmt.Errorf("audioio: channels must be positive, got %d", c.Channels)
	}
	if c.FramesPerBuffer <= 0 {
		return fmt.Errorf("audioio: frames_per_buffer must be positive, got %d", c.FramesPerBuffer)
	}
	return nil
}

// Recording is captured PCM16 audio, channels interleaved.
type Recording struct {
	Samples    []int16
	SampleRate int
	Channels   int
}

// Duration returns the playback length of the recording.
func (r Recording) Duration() time.Duration {
	if r.SampleRate == 0 || r.Channels == 0 {
		return 0
	}
	frames := len(r.Samples) / r.Channels
	return time.Duration(frames) * time.Second / time.Duration(r.SampleRate)
}

// Mono returns the recording downmixed to one channel.
func (r Recording) Mono() Recording {
	if r.Channels != 2 {
		return r
	}
	return Recording{Samples: StereoToMono(r.Samples), SampleRate: r.SampleRate, Channels: 1}
}

// Level returns the recording's RMS level in 0..1.
func (r Recording) Level() float64 {
	return CalculateRMS(r.Samples)
}

// Recorder captures microphone audio between Start and Stop.
type Recorder interface {
	// Start begins capture. Starting while already recording is a no-op.
	Start(ctx context.Context) error

	// Stop ends capture and returns everything recorded since Start.
	Stop() (Recording, error)
}

// Player plays mono PCM16 audio.
type Player interface {
	// Play blocks until playback finishes or ctx is cancelled.
	Play(ctx context.Context, samples []int16, sampleRate int) error
}
