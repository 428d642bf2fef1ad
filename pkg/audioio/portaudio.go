package audioio

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/gordonklaus/portaudio"
)

// Device records from the default input and plays to the default output
// through PortAudio. Open initializes the library; Close terminates it.
type Device struct {
	cfg    Config
	logger *slog.Logger

	mu        sync.Mutex
	recording bool
	samples   []int16
	stop      chan struct{}
	done      chan error

	playMu sync.Mutex
}

var (
	_ Recorder = (*Device)(nil)
	_ Player   = (*Device)(nil)
)

// Open initializes PortAudio.
func Open(cfg Config, logger *slog.Logger) (*Device, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = slog.Default()
	}
	if err := portaudio.Initialize(); err != nil {
		return nil, fmt.Errorf("audioio: portaudio init: %w", err)
	}
	return &Device{
		cfg:    cfg,
		logger: logger.With("component", "audioio.portaudio"),
	}, nil
}

// Start opens the default input stream and buffers samples until Stop.
func (d *Device) Start(ctx context.Context) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.recording {
		return nil
	}

	in := make([]int16, d.cfg.FramesPerBuffer*d.cfg.Channels)
	stream, err := portaudio.OpenDefaultStream(d.cfg.Channels, 0, float64(d.cfg.SampleRate), d.cfg.FramesPerBuffer, in)
	if err != nil {
		return fmt.Errorf("audioio: open input stream: %w", err)
	}
	if err := stream.Start(); err != nil {
		_ = stream.Close()
		return fmt.Errorf("audioio: start input stream: %w", err)
	}

	d.recording = true
	d.samples = d.samples[:0]
	d.stop = make(chan struct{})
	d.done = make(chan error, 1)

	go d.captureLoop(ctx, stream, in, d.stop, d.done)

	d.logger.Info("recording started", "sample_rate", d.cfg.SampleRate, "channels", d.cfg.Channels)
	return nil
}

func (d *Device) captureLoop(ctx context.Context, stream *portaudio.Stream, in []int16, stop <-chan struct{}, done chan<- error) {
	var loopErr error
	for {
		select {
		case <-stop:
			goto out
		case <-ctx.Done():
			goto out
		default:
		}

		if err := stream.Read(); err != nil {
			// Input overflow is reported as an error but the data is usable.
			if err != portaudio.InputOverflowed {
				d.logger.Debug("stream read error", "error", err)
				continue
			}
		}
		d.mu.Lock()
		d.samples = append(d.samples, in...)
		d.mu.Unlock()
	}

out:
	if err := stream.Stop(); err != nil {
		loopErr = fmt.Errorf("audioio: stop input stream: %w", err)
	}
	if err := stream.Close(); err != nil && loopErr == nil {
		loopErr = fmt.Errorf("audioio: close input stream: %w", err)
	}
	done <- loopErr
}

// Stop ends the recording and returns the captured audio.
func (d *Device) Stop() (Recording, error) {
	d.mu.Lock()
	if !d.recording {
		d.mu.Unlock()
		return Recording{}, ErrNotRecording
	}
	d.recording = false
	stop, done := d.stop, d.done
	d.mu.Unlock()

	close(stop)
	err := <-done

	d.mu.Lock()
	rec := Recording{
		Samples:    append([]int16(nil), d.samples...),
		SampleRate: d.cfg.SampleRate,
		Channels:   d.cfg.Channels,
	}
	d.mu.Unlock()

	if err != nil {
		d.logger.Warn("recording stopped with error", "error", err)
	}
	if len(rec.Samples) == 0 {
		return rec, ErrNoAudio
	}

	d.logger.Info("recording stopped",
		"duration", rec.Duration(),
		"level", rec.Level(),
	)
	return rec, nil
}

// Play writes mono samples to the default output at sampleRate.
// Concurrent calls are serialized.
func (d *Device) Play(ctx context.Context, samples []int16, sampleRate int) error {
	if len(samples) == 0 {
		return nil
	}
	d.playMu.Lock()
	defer d.playMu.Unlock()

	out := make([]int16, d.cfg.FramesPerBuffer)
	stream, err := portaudio.OpenDefaultStream(0, 1, float64(sampleRate), len(out), out)
	if err != nil {
		return fmt.Errorf("audioio: open output stream: %w", err)
	}
	defer stream.Close()

	if err := stream.Start(); err != nil {
		return fmt.Errorf("audioio: start output stream: %w", err)
	}
	defer stream.Stop()

	for off := 0; off < len(samples); off += len(out) {
		if err := ctx.Err(); err != nil {
			return err
		}
		n := copy(out, samples[off:])
		for i := n; i < len(out); i++ {
			out[i] = 0
		}
		if err := stream.Write(); err != nil && err != portaudio.OutputUnderflowed {
			return fmt.Errorf("audioio: write output stream: %w", err)
		}
	}
	return nil
}

// Close stops any recording in progress and terminates PortAudio.
func (d *Device) Close() error {
	if _, err := d.Stop(); err != nil && err != ErrNotRecording && err != ErrNoAudio {
		d.logger.Warn("stop on close failed", "error", err)
	}
	return portaudio.Terminate()
}
