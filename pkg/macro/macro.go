// Package macro replays keyboard shortcuts and key sequences.
package macro

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/teslashibe/go-deskpilot/pkg/keys"
)

// Default timings.
const (
	DefaultComboHold = 100 * time.Millisecond
	DefaultKeyHold   = 50 * time.Millisecond
	DefaultStepGap   = 200 * time.Millisecond
)

// Keyboard presses and releases keys. Press holds every key of the combo;
// Release lets go of them in reverse order.
type Keyboard interface {
	Press(c keys.Combo) error
	Release(c keys.Combo) error
}

// KeyChecker is implemented by keyboards that can type only some keys.
type KeyChecker interface {
	CanType(k keys.Key) bool
}

// Config configures a Player.
type Config struct {
	ComboHold time.Duration
	KeyHold   time.Duration
	StepGap   time.Duration
	Logger    *slog.Logger
}

// DefaultConfig returns the standard timings.
func DefaultConfig() Config {
	return Config{
		ComboHold: DefaultComboHold,
		KeyHold:   DefaultKeyHold,
		StepGap:   DefaultStepGap,
	}
}

// Player replays sequences on a Keyboard.
type Player struct {
	kb     Keyboard
	cfg    Config
	logger *slog.Logger
}

// NewPlayer creates a Player.
func NewPlayer(kb Keyboard, cfg Config) *Player {
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	return &Player{
		kb:     kb,
		cfg:    cfg,
		logger: cfg.Logger.With("component", "macro.player"),
	}
}

// Play parses and replays a sequence such as "ctrl+b->x". Parsing and,
// for a KeyChecker keyboard, key support are checked up front, so an
// invalid step fails before any key is pressed.
func (p *Player) Play(ctx context.Context, sequence string) error {
	seq, err := keys.ParseSequence(sequence)
	if err != nil {
		return err
	}
	kc, checks := p.kb.(KeyChecker)
	for i, step := range seq {
		if len(step.Unknown) > 0 {
			p.logger.Warn("unknown keys ignored", "step", step.Keys.String(), "keys", step.Unknown)
		}
		if !checks {
			continue
		}
		for _, k := range step.Keys {
			if !kc.CanType(k) {
				return fmt.Errorf("macro: step %d (%s): %w", i+1, step.Keys, &ErrUnsupportedKey{Key: k})
			}
		}
	}
	for i, step := range seq {
		hold := p.cfg.KeyHold
		if step.Chord {
			hold = p.cfg.ComboHold
		}
		if err := p.tap(ctx, step.Keys, hold); err != nil {
			return fmt.Errorf("macro: step %d (%s): %w", i+1, step.Keys, err)
		}
		if err := sleep(ctx, p.cfg.StepGap); err != nil {
			return err
		}
	}
	p.logger.Info("executed keyboard sequence", "sequence", sequence)
	return nil
}

func (p *Player) tap(ctx context.Context, c keys.Combo, hold time.Duration) error {
	if err := p.kb.Press(c); err != nil {
		return err
	}
	waitErr := sleep(ctx, hold)
	// Always release what was pressed, even when cancelled.
	if err := p.kb.Release(c); err != nil {
		return err
	}
	return waitErr
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
