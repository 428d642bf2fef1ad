package tts

import (
	"context"
	"log/slog"
	"strings"
	"sync"

	"github.com/teslashibe/go-deskpilot/pkg/audioio"
)

// Speaker synthesizes text and plays it on an audio player.
type Speaker struct {
	provider Provider
	player   audioio.Player
	logger   *slog.Logger

	wg sync.WaitGroup
}

// NewSpeaker creates a Speaker.
func NewSpeaker(provider Provider, player audioio.Player, logger *slog.Logger) *Speaker {
	if logger == nil {
		logger = slog.Default()
	}
	return &Speaker{
		provider: provider,
		player:   player,
		logger:   logger.With("component", "tts.speaker"),
	}
}

// Speak synthesizes text and blocks until playback ends. Blank text is
// logged and skipped.
func (s *Speaker) Speak(ctx context.Context, text string) error {
	if strings.TrimSpace(text) == "" {
		s.logger.Warn("empty text provided to speak")
		return nil
	}

	result, err := s.provider.Synthesize(ctx, text)
	if err != nil {
		s.logger.Error("speech synthesis failed", "error", err)
		return err
	}

	s.logger.Debug("playing speech",
		"chars", result.CharCount,
		"duration", result.Duration,
	)
	if err := s.player.Play(ctx, result.Samples(), result.Format.SampleRate); err != nil {
		s.logger.Error("speech playback failed", "error", err)
		return err
	}
	return nil
}

// SpeakAsync runs Speak in the background. The returned channel receives
// the result and is then closed.
func (s *Speaker) SpeakAsync(ctx context.Context, text string) <-chan error {
	done := make(chan error, 1)
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		defer close(done)
		done <- s.Speak(ctx, text)
	}()
	return done
}

// Wait blocks until every SpeakAsync call has finished.
func (s *Speaker) Wait() {
	s.wg.Wait()
}

// Close waits for pending speech and closes the provider.
func (s *Speaker) Close() error {
	s.Wait()
	return s.provider.Close()
}
