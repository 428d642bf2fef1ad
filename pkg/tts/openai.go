package tts

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"gopkg.in/hraban/opus.v2"

	"github.com/teslashibe/go-deskpilot/internal/apierr"
	"github.com/teslashibe/go-deskpilot/pkg/audioio"
)

const (
	openAIBaseURL  = "https://api.openai.com/v1"
	providerOpenAI = "openai"
)

// OpenAI model options
const (
	ModelTTS1   = "tts-1"    // Standard quality, faster
	ModelTTS1HD = "tts-1-hd" // Higher quality, slower
)

// OpenAI implements Provider for OpenAI TTS.
type OpenAI struct {
	config  *Config
	req     *requester
	logger  *slog.Logger
	baseURL string
}

// NewOpenAI creates an OpenAI TTS provider. The output format is either
// EncodingPCM24 (raw "pcm") or EncodingOpus (Ogg Opus, decoded locally).
func NewOpenAI(opts ...Option) (*OpenAI, error) {
	cfg := DefaultConfig()
	cfg.ModelID = ModelTTS1
	cfg.Apply(opts...)

	if err := cfg.Validate(); err != nil {
		return nil, WrapError(providerOpenAI, err)
	}
	voice, err := resolveVoice(providerOpenAI, cfg.VoiceID)
	if err != nil {
		return nil, WrapError(providerOpenAI, err)
	}
	cfg.VoiceID = voice
	if cfg.OutputFormat != EncodingPCM24 && cfg.OutputFormat != EncodingOpus {
		return nil, WrapError(providerOpenAI, fmt.Errorf("unsupported output format %q", cfg.OutputFormat))
	}

	baseURL := strings.TrimSuffix(cfg.BaseURL, "/")
	if baseURL == "" {
		baseURL = openAIBaseURL
	}

	o := &OpenAI{
		config:  cfg,
		logger:  cfg.Logger.With("component", "tts.openai"),
		baseURL: baseURL,
	}
	o.req = newRequester(providerOpenAI, cfg, o.logger, o.parseError)
	return o, nil
}

// Synthesize converts text to mono PCM16.
func (o *OpenAI) Synthesize(ctx context.Context, text string) (*AudioResult, error) {
	if strings.TrimSpace(text) == "" {
		return nil, WrapError(providerOpenAI, ErrEmptyText)
	}
	start := time.Now()

	format := "pcm"
	if o.config.OutputFormat == EncodingOpus {
		format = "opus"
	}
	payload := map[string]interface{}{
		"model":           o.config.ModelID,
		"voice":           o.config.VoiceID,
		"input":           text,
		"response_format": format,
		"speed":           o.config.Speed,
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return nil, WrapError(providerOpenAI, fmt.Errorf("marshal payload: %w", err))
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, o.baseURL+"/audio/speech", bytes.NewReader(body))
	if err != nil {
		return nil, WrapError(providerOpenAI, fmt.Errorf("create request: %w", err))
	}
	req.Header.Set("Authorization", "Bearer "+o.config.APIKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := o.req.do(ctx, req, body)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, o.parseError(resp)
	}

	var pcm []byte
	if o.config.OutputFormat == EncodingOpus {
		pcm, err = decodeOggOpus(resp.Body)
	} else {
		pcm, err = io.ReadAll(resp.Body)
	}
	if err != nil {
		return nil, WrapError(providerOpenAI, fmt.Errorf("read audio: %w", err))
	}
	latency := time.Since(start).Milliseconds()

	rate := SampleRateFromEncoding(o.config.OutputFormat)
	o.logger.Debug("synthesized audio",
		"chars", len(text),
		"bytes", len(pcm),
		"latency_ms", latency,
		"voice", o.config.VoiceID,
	)

	return &AudioResult{
		Audio: pcm,
		Format: AudioFormat{
			Encoding:   o.config.OutputFormat,
			SampleRate: rate,
			Channels:   1,
			BitDepth:   16,
		},
		Duration:  pcmDuration(len(pcm), rate),
		CharCount: len(text),
		LatencyMs: latency,
	}, nil
}

// Health checks API connectivity.
func (o *OpenAI) Health(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, o.baseURL+"/models", nil)
	if err != nil {
		return WrapError(providerOpenAI, err)
	}
	req.Header.Set("Authorization", "Bearer "+o.config.APIKey)

	resp, err := o.req.client.Do(req)
	if err != nil {
		return WrapError(providerOpenAI, fmt.Errorf("health check: %w", err))
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return o.parseError(resp)
	}
	return nil
}

// Close releases resources.
func (o *OpenAI) Close() error {
	o.req.close()
	return nil
}

// VoiceID returns the configured voice.
func (o *OpenAI) VoiceID() string {
	return o.config.VoiceID
}

func (o *OpenAI) parseError(resp *http.Response) error {
	return apierr.FromResponse(service, providerOpenAI, resp, apierr.OpenAIBody)
}

// decodeOggOpus decodes an Ogg Opus stream to 48kHz mono PCM16 bytes.
func decodeOggOpus(r io.Reader) ([]byte, error) {
	s, err := opus.NewStream(r)
	if err != nil {
		return nil, fmt.Errorf("open opus stream: %w", err)
	}
	defer s.Close()

	var samples []int16
	// 120ms at 48kHz is the largest Opus frame.
	frame := make([]int16, 5760)
	for {
		n, err := s.Read(frame)
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("decode opus: %w", err)
		}
		samples = append(samples, frame[:n]...)
	}
	return audioio.SamplesToBytes(samples), nil
}

// Verify OpenAI implements Provider at compile time.
var _ Provider = (*OpenAI)(nil)
