package keys

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestLookup(t *testing.T) {
	tests := []struct {
		in   string
		want Key
		ok   bool
	}{
		{"ctrl", Ctrl, true},
		{" CTRL ", Ctrl, true},
		{"command", Cmd, true},
		{"win", Cmd, true},
		{"Escape", Esc, true},
		{"f12", Key("f12"), true},
		{"T", Key("t"), true},
		{"7", Key("7"), true},
		{"hyper", "", false},
		{"", "", false},
	}
	for _, tt := range tests {
		got, ok := Lookup(tt.in)
		if got != tt.want || ok != tt.ok {
			t.Errorf("Lookup(%q) = %q,%v want %q,%v", tt.in, got, ok, tt.want, tt.ok)
		}
	}
}

func TestParseCombo(t *testing.T) {
	combo, unknown, err := ParseCombo("Ctrl+Alt+T")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if diff := cmp.Diff(Combo{Ctrl, Alt, "t"}, combo); diff != "" {
		t.Errorf("combo mismatch (-want +got):\n%s", diff)
	}
	if len(unknown) != 0 {
		t.Errorf("Expected no unknown keys, got %v", unknown)
	}
	if combo.Main() != "t" {
		t.Errorf("Expected main key t, got %q", combo.Main())
	}
	if diff := cmp.Diff([]Key{Ctrl, Alt}, combo.Modifiers()); diff != "" {
		t.Errorf("modifiers mismatch:\n%s", diff)
	}
	if combo.String() != "ctrl+alt+t" {
		t.Errorf("Expected ctrl+alt+t, got %s", combo.String())
	}
}

func TestParseComboDropsUnknown(t *testing.T) {
	combo, unknown, err := ParseCombo("ctrl+hyper+c")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if diff := cmp.Diff(Combo{Ctrl, "c"}, combo); diff != "" {
		t.Errorf("combo mismatch:\n%s", diff)
	}
	if diff := cmp.Diff([]string{"hyper"}, unknown); diff != "" {
		t.Errorf("unknown mismatch:\n%s", diff)
	}

	_, _, err = ParseCombo("hyper+mega")
	if !errors.Is(err, ErrNoValidKey) {
		t.Errorf("Expected ErrNoValidKey, got %v", err)
	}
	_, _, err = ParseCombo("  ")
	if !errors.Is(err, ErrEmpty) {
		t.Errorf("Expected ErrEmpty, got %v", err)
	}
}

func TestParseComboLiteralPlus(t *testing.T) {
	combo, _, err := ParseCombo("ctrl++")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if diff := cmp.Diff(Combo{Ctrl, "+"}, combo); diff != "" {
		t.Errorf("combo mismatch:\n%s", diff)
	}
}

func TestParseSequence(t *testing.T) {
	seq, err := ParseSequence("ctrl+b -> x -> enter")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := Sequence{
		{Keys: Combo{Ctrl, "b"}, Chord: true},
		{Keys: Combo{"x"}},
		{Keys: Combo{Enter}},
	}
	if diff := cmp.Diff(want, seq); diff != "" {
		t.Errorf("sequence mismatch (-want +got):\n%s", diff)
	}
}

func TestParseSequenceErrors(t *testing.T) {
	if _, err := ParseSequence("ctrl+b->bogus"); !errors.Is(err, ErrUnknownKey) {
		t.Errorf("Expected ErrUnknownKey, got %v", err)
	}
	if _, err := ParseSequence("hyper+mega->x"); !errors.Is(err, ErrNoValidKey) {
		t.Errorf("Expected ErrNoValidKey, got %v", err)
	}
	if _, err := ParseSequence(""); !errors.Is(err, ErrEmpty) {
		t.Errorf("Expected ErrEmpty, got %v", err)
	}
}
