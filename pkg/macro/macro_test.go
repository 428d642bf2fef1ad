package macro

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/teslashibe/go-deskpilot/pkg/keys"
)

type event struct {
	Down bool
	Keys string
}

type fakeKeyboard struct {
	events []event
	failOn keys.Key
}

func (f *fakeKeyboard) Press(c keys.Combo) error {
	for _, k := range c {
		if k == f.failOn {
			return &ErrUnsupportedKey{Key: k}
		}
	}
	f.events = append(f.events, event{Down: true, Keys: c.String()})
	return nil
}

func (f *fakeKeyboard) Release(c keys.Combo) error {
	f.events = append(f.events, event{Down: false, Keys: c.String()})
	return nil
}

// asciiKeyboard can type modifiers and ASCII characters only.
type asciiKeyboard struct{ fakeKeyboard }

func (a *asciiKeyboard) CanType(k keys.Key) bool {
	return k.IsModifier() || (len(k) == 1 && k[0] < 0x80)
}

func instantConfig() Config {
	return Config{}
}

func TestPlaySequence(t *testing.T) {
	kb := &fakeKeyboard{}
	p := NewPlayer(kb, instantConfig())

	if err := p.Play(context.Background(), "ctrl+b -> x"); err != nil {
		t.Fatalf("Play failed: %v", err)
	}

	want := []event{
		{Down: true, Keys: "ctrl+b"},
		{Down: false, Keys: "ctrl+b"},
		{Down: true, Keys: "x"},
		{Down: false, Keys: "x"},
	}
	if diff := cmp.Diff(want, kb.events); diff != "" {
		t.Errorf("events mismatch (-want +got):\n%s", diff)
	}
}

func TestPlayInvalidStepPressesNothing(t *testing.T) {
	kb := &fakeKeyboard{}
	p := NewPlayer(kb, instantConfig())

	err := p.Play(context.Background(), "ctrl+c->bogus")
	if !errors.Is(err, keys.ErrUnknownKey) {
		t.Fatalf("Expected ErrUnknownKey, got %v", err)
	}
	if len(kb.events) != 0 {
		t.Errorf("Expected no key events, got %v", kb.events)
	}
}

func TestPlayDropsUnknownComboKeys(t *testing.T) {
	kb := &fakeKeyboard{}
	p := NewPlayer(kb, instantConfig())

	if err := p.Play(context.Background(), "ctrl+hyper+v"); err != nil {
		t.Fatalf("Play failed: %v", err)
	}
	if kb.events[0].Keys != "ctrl+v" {
		t.Errorf("Expected ctrl+v, got %s", kb.events[0].Keys)
	}
}

func TestPlayKeyboardError(t *testing.T) {
	kb := &fakeKeyboard{failOn: "+"}
	p := NewPlayer(kb, instantConfig())

	err := p.Play(context.Background(), "a->ctrl++")
	var unsupported *ErrUnsupportedKey
	if !errors.As(err, &unsupported) {
		t.Fatalf("Expected ErrUnsupportedKey, got %v", err)
	}
	if len(kb.events) != 2 {
		t.Errorf("Expected first step to complete, got %v", kb.events)
	}
}

func TestPlayReleasesOnCancel(t *testing.T) {
	kb := &fakeKeyboard{}
	p := NewPlayer(kb, Config{ComboHold: time.Minute})

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(20 * time.Millisecond)
		cancel()
	}()

	err := p.Play(ctx, "ctrl+s")
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("Expected context.Canceled, got %v", err)
	}
	if len(kb.events) != 2 || kb.events[1].Down {
		t.Errorf("Expected press then release, got %v", kb.events)
	}
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	if cfg.ComboHold != 100*time.Millisecond || cfg.KeyHold != 50*time.Millisecond || cfg.StepGap != 200*time.Millisecond {
		t.Errorf("unexpected defaults: %+v", cfg)
	}
}

func TestSystemKeyboardKnowsEveryNamedKey(t *testing.T) {
	named := []keys.Key{
		keys.Tab, keys.Space, keys.Enter, keys.Backspace, keys.Delete, keys.Esc,
		keys.Home, keys.End, keys.PageUp, keys.PageDown, keys.Up, keys.Down, keys.Left, keys.Right,
		"f1", "f12", "a", "z", "0", "9",
	}
	for _, k := range named {
		if _, ok := codes[k]; !ok {
			t.Errorf("no key code for %q", k)
		}
	}
}

func TestPlayChecksKeysBeforePressing(t *testing.T) {
	kb := &asciiKeyboard{}
	p := NewPlayer(kb, instantConfig())

	err := p.Play(context.Background(), "a -> ctrl+é")
	var unsupported *ErrUnsupportedKey
	if !errors.As(err, &unsupported) {
		t.Fatalf("Expected ErrUnsupportedKey, got %v", err)
	}
	if unsupported.Key != "é" {
		t.Errorf("Expected key é, got %q", unsupported.Key)
	}
	if len(kb.events) != 0 {
		t.Errorf("Expected no key events, got %v", kb.events)
	}
}

func TestSystemKeyboardCanType(t *testing.T) {
	var kb SystemKeyboard
	for _, k := range []keys.Key{keys.Ctrl, keys.Cmd, keys.Enter, "f5", "q", "7"} {
		if !kb.CanType(k) {
			t.Errorf("CanType(%q) = false", k)
		}
	}
	for _, k := range []keys.Key{"é", "+", "f13"} {
		if kb.CanType(k) {
			t.Errorf("CanType(%q) = true", k)
		}
	}
}
