// Package tts turns the assistant's answer into speech.
//
// Providers return decoded PCM16 so the caller can hand the samples
// straight to an audio player. OpenAI and ElevenLabs are supported and can be
// chained for fallback. Speaker glues a Provider to an audioio.Player.
//
// Example usage:
//
//	provider, _ := tts.NewOpenAI(
//	    tts.WithAPIKey(os.Getenv("OPENAI_API_KEY")),
//	    tts.WithVoice("alloy"),
//	)
//	defer provider.Close()
//
//	result, _ := provider.Synthesize(ctx, "Hello world")
//	// result.Samples() is mono PCM16 at result.Format.SampleRate
package tts

import (
	"context"
	"time"

	"github.com/teslashibe/go-deskpilot/pkg/audioio"
)

// Provider defines the TTS provider interface.
type Provider interface {
	// Synthesize converts text to audio, returning the complete buffer.
	Synthesize(ctx context.Context, text string) (*AudioResult, error)

	// Health checks provider connectivity and API key validity.
	Health(ctx context.Context) error

	// Close releases any resources held by the provider.
	Close() error
}

// AudioResult represents a complete audio synthesis result.
type AudioResult struct {
	// Audio contains little-endian PCM16 mono samples.
	Audio []byte

	// Format describes the audio encoding and sample rate.
	Format AudioFormat

	// Duration is the playback duration.
	Duration time.Duration

	// CharCount is the number of characters synthesized.
	CharCount int

	// LatencyMs is the request round trip in milliseconds.
	LatencyMs int64
}

// Samples decodes Audio into int16 samples.
func (r *AudioResult) Samples() []int16 {
	return audioio.BytesToSamples(r.Audio)
}

// AudioFormat describes the audio encoding parameters.
type AudioFormat struct {
	// Encoding is the wire format the provider was asked for.
	Encoding Encoding

	// SampleRate of the decoded PCM in Hz.
	SampleRate int

	// Channels is 1 for mono, 2 for stereo.
	Channels int

	// BitDepth of the decoded PCM.
	BitDepth int
}

// Encoding represents audio encoding types.
type Encoding string

const (
	EncodingPCM16 Encoding = "pcm_16000" // 16kHz mono PCM16
	EncodingPCM22 Encoding = "pcm_22050" // 22.05kHz mono PCM16
	EncodingPCM24 Encoding = "pcm_24000" // 24kHz mono PCM16 (OpenAI "pcm")
	EncodingPCM44 Encoding = "pcm_44100" // 44.1kHz mono PCM16
	EncodingOpus  Encoding = "opus"      // Ogg Opus, decoded to 48kHz PCM16
)

// VoiceSettings controls ElevenLabs voice characteristics.
type VoiceSettings struct {
	// Stability controls voice consistency (0.0-1.0).
	Stability float64

	// SimilarityBoost controls how closely the voice matches the original (0.0-1.0).
	SimilarityBoost float64

	// Style controls style exaggeration (0.0-1.0).
	Style float64

	// SpeakerBoost enhances speaker clarity.
	SpeakerBoost bool
}

// DefaultVoiceSettings returns sensible defaults for voice synthesis.
func DefaultVoiceSettings() VoiceSettings {
	return VoiceSettings{
		Stability:       0.5,
		SimilarityBoost: 0.75,
		SpeakerBoost:    true,
	}
}

// SampleRateFromEncoding returns the decoded sample rate for an encoding.
func SampleRateFromEncoding(enc Encoding) int {
	switch enc {
	case EncodingPCM16:
		return 16000
	case EncodingPCM22:
		return 22050
	case EncodingPCM44:
		return 44100
	case EncodingOpus:
		return 48000
	default:
		return 24000
	}
}

// pcmDuration returns the playback length of mono PCM16 bytes.
func pcmDuration(n, sampleRate int) time.Duration {
	if sampleRate <= 0 {
		return 0
	}
	return time.Duration(n/2) * time.Second / time.Duration(sampleRate)
}
