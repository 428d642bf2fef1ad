// Package keys parses keyboard shortcut notation.
//
// A combination is keys joined by "+" ("ctrl+alt+t"). A sequence is steps
// joined by "->" ("ctrl+b->x"), where each step is a combination or a single
// key. Names are case-insensitive and surrounding whitespace is ignored.
package keys

import (
	"errors"
	"fmt"
	"strings"
)

// Key is a canonical key name.
type Key string

// Named keys.
const (
	Ctrl      Key = "ctrl"
	Alt       Key = "alt"
	Shift     Key = "shift"
	Cmd       Key = "cmd"
	Tab       Key = "tab"
	Space     Key = "space"
	Enter     Key = "enter"
	Backspace Key = "backspace"
	Delete    Key = "delete"
	Esc       Key = "esc"
	Home      Key = "home"
	End       Key = "end"
	PageUp    Key = "pageup"
	PageDown  Key = "pagedown"
	Up        Key = "up"
	Down      Key = "down"
	Left      Key = "left"
	Right     Key = "right"
)

// Errors returned by the parsers.
var (
	ErrEmpty      = errors.New("keys: empty shortcut")
	ErrNoValidKey = errors.New("keys: no valid keys in combination")
	ErrUnknownKey = errors.New("keys: unknown key")
)

var aliases = map[string]Key{
	"ctrl":      Ctrl,
	"control":   Ctrl,
	"alt":       Alt,
	"option":    Alt,
	"shift":     Shift,
	"cmd":       Cmd,
	"command":   Cmd,
	"meta":      Cmd,
	"win":       Cmd,
	"super":     Cmd,
	"tab":       Tab,
	"space":     Space,
	"enter":     Enter,
	"return":    Enter,
	"backspace": Backspace,
	"delete":    Delete,
	"del":       Delete,
	"esc":       Esc,
	"escape":    Esc,
	"home":      Home,
	"end":       End,
	"pageup":    PageUp,
	"pagedown":  PageDown,
	"up":        Up,
	"down":      Down,
	"left":      Left,
	"right":     Right,
}

func init() {
	for i := 1; i <= 12; i++ {
		name := fmt.Sprintf("f%d", i)
		aliases[name] = Key(name)
	}
}

// Lookup returns the canonical key for name. Any single character is
// accepted as itself (lower-cased).
func Lookup(name string) (Key, bool) {
	name = strings.ToLower(strings.TrimSpace(name))
	if k, ok := aliases[name]; ok {
		return k, true
	}
	if len([]rune(name)) == 1 {
		return Key(name), true
	}
	return "", false
}

// IsModifier reports whether k is ctrl, alt, shift or cmd.
func (k Key) IsModifier() bool {
	switch k {
	case Ctrl, Alt, Shift, Cmd:
		return true
	}
	return false
}

// IsFunction reports whether k is f1..f12.
func (k Key) IsFunction() bool {
	return len(k) >= 2 && k[0] == 'f' && k[1] >= '1' && k[1] <= '9'
}

// Combo is a set of keys pressed together, in press order.
type Combo []Key

// String renders the combination in "+" notation.
func (c Combo) String() string {
	parts := make([]string, len(c))
	for i, k := range c {
		parts[i] = string(k)
	}
	return strings.Join(parts, "+")
}

// Modifiers returns the modifier keys of c.
func (c Combo) Modifiers() []Key {
	var out []Key
	for _, k := range c {
		if k.IsModifier() {
			out = append(out, k)
		}
	}
	return out
}

// Main returns the last non-modifier key, or "" if c is all modifiers.
func (c Combo) Main() Key {
	for i := len(c) - 1; i >= 0; i-- {
		if !c[i].IsModifier() {
			return c[i]
		}
	}
	return ""
}

// ParseCombo parses "ctrl+alt+t". Unknown names are dropped and returned
// in unknown; it is an error only when no valid key remains.
func ParseCombo(s string) (combo Combo, unknown []string, err error) {
	if strings.TrimSpace(s) == "" {
		return nil, nil, ErrEmpty
	}
	for _, part := range splitCombo(s) {
		k, ok := Lookup(part)
		if !ok {
			unknown = append(unknown, strings.TrimSpace(part))
			continue
		}
		combo = append(combo, k)
	}
	if len(combo) == 0 {
		return nil, unknown, fmt.Errorf("%w: %q", ErrNoValidKey, s)
	}
	return combo, unknown, nil
}

// splitCombo splits on "+" but keeps a literal trailing "+" key ("ctrl++").
func splitCombo(s string) []string {
	parts := strings.Split(s, "+")
	if strings.HasSuffix(strings.TrimSpace(s), "++") {
		parts = append(parts[:len(parts)-2], "+")
	}
	return parts
}

// Step is one element of a sequence.
type Step struct {
	Keys Combo
	// Chord is true when the step was written as a combination.
	Chord bool
	// Unknown lists names dropped from a combination.
	Unknown []string
}

// Sequence is an ordered list of steps.
type Sequence []Step

// ParseSequence parses "ctrl+b->x". Combination steps follow ParseCombo
// semantics; a single-key step that does not resolve is an error.
func ParseSequence(s string) (Sequence, error) {
	if strings.TrimSpace(s) == "" {
		return nil, ErrEmpty
	}
	var seq Sequence
	for _, raw := range strings.Split(s, "->") {
		step := strings.TrimSpace(raw)
		if strings.Contains(step, "+") && step != "+" {
			combo, unknown, err := ParseCombo(step)
			if err != nil {
				return nil, err
			}
			seq = append(seq, Step{Keys: combo, Chord: true, Unknown: unknown})
			continue
		}
		k, ok := Lookup(step)
		if !ok {
			return nil, fmt.Errorf("%w in sequence: %q", ErrUnknownKey, step)
		}
		seq = append(seq, Step{Keys: Combo{k}})
	}
	return seq, nil
}
