package stt

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/teslashibe/go-deskpilot/internal/apierr"
	"github.com/teslashibe/go-deskpilot/internal/httpc"
	"github.com/teslashibe/go-deskpilot/pkg/audioio"
)

const providerWhisper = "whisper"

// Whisper uploads WAV audio to a Whisper-compatible transcription endpoint.
type Whisper struct {
	config *Config
	client *http.Client
	logger *slog.Logger
}

var _ Transcriber = (*Whisper)(nil)

// NewWhisper creates a client. Defaults target Groq.
func NewWhisper(opts ...Option) (*Whisper, error) {
	cfg := DefaultConfig()
	cfg.Apply(opts...)

	if err := cfg.Validate(); err != nil {
		return nil, WrapError(providerWhisper, err)
	}

	return &Whisper{
		config: cfg,
		client: httpc.OrDefault(cfg.HTTPClient, cfg.Timeout),
		logger: cfg.Logger.With("component", "stt.whisper"),
	}, nil
}

// Transcribe downmixes and resamples rec, encodes it as WAV and uploads it.
func (w *Whisper) Transcribe(ctx context.Context, rec audioio.Recording) (string, error) {
	if len(rec.Samples) == 0 || rec.SampleRate <= 0 {
		return "", ErrNoAudio
	}
	start := time.Now()

	mono := rec.Mono()
	samples := audioio.Resample(mono.Samples, mono.SampleRate, w.config.SampleRate)

	path := tempWAVPath(w.config.TempDir)
	if err := writeWAV(path, samples, w.config.SampleRate); err != nil {
		return "", WrapError(providerWhisper, err)
	}
	defer os.Remove(path)

	body, contentType, err := w.buildForm(path)
	if err != nil {
		return "", WrapError(providerWhisper, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, w.config.Endpoint, bytes.NewReader(body))
	if err != nil {
		return "", WrapError(providerWhisper, fmt.Errorf("create request: %w", err))
	}
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("Authorization", "Bearer "+w.config.APIKey)

	resp, err := w.doWithRetry(ctx, req, body)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", w.parseError(resp)
	}

	var result struct {
		Text string `json:"text"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return "", WrapError(providerWhisper, fmt.Errorf("decode response: %w", err))
	}

	text := strings.TrimSpace(result.Text)
	w.logger.Info("audio transcribed",
		"text", text,
		"audio", rec.Duration(),
		"latency_ms", time.Since(start).Milliseconds(),
	)
	return text, nil
}

// buildForm reads the WAV at path into a multipart body.
func (w *Whisper) buildForm(path string) ([]byte, string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, "", fmt.Errorf("open wav: %w", err)
	}
	defer f.Close()

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)

	part, err := mw.CreateFormFile("file", filepath.Base(path))
	if err != nil {
		return nil, "", fmt.Errorf("create form file: %w", err)
	}
	if _, err := io.Copy(part, f); err != nil {
		return nil, "", fmt.Errorf("copy wav: %w", err)
	}

	fields := []struct{ key, value string }{
		{"model", w.config.Model},
		{"language", w.config.Language},
		{"prompt", w.config.Prompt},
		{"response_format", "json"},
	}
	for _, field := range fields {
		if field.value == "" {
			continue
		}
		if err := mw.WriteField(field.key, field.value); err != nil {
			return nil, "", fmt.Errorf("write field %s: %w", field.key, err)
		}
	}
	if err := mw.Close(); err != nil {
		return nil, "", fmt.Errorf("close form: %w", err)
	}
	return buf.Bytes(), mw.FormDataContentType(), nil
}

// doWithRetry retries 429 and 5xx responses with linear backoff.
func (w *Whisper) doWithRetry(ctx context.Context, req *http.Request, body []byte) (*http.Response, error) {
	var lastErr error

	for attempt := 0; attempt <= w.config.MaxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(w.config.RetryDelay * time.Duration(attempt)):
			}
			req.Body = io.NopCloser(bytes.NewReader(body))
		}

		resp, err := w.client.Do(req)
		if err != nil {
			lastErr = WrapError(providerWhisper, err)
			if ctx.Err() != nil {
				return nil, lastErr
			}
			continue
		}

		if apierr.Retryable(resp.StatusCode) {
			lastErr = w.parseError(resp)
			resp.Body.Close()
			w.logger.Warn("retrying transcription",
				"attempt", attempt+1,
				"status", resp.StatusCode,
			)
			continue
		}

		return resp, nil
	}

	return nil, lastErr
}

func (w *Whisper) parseError(resp *http.Response) error {
	return apierr.FromResponse(service, providerWhisper, resp, apierr.OpenAIBody)
}
