package macro

import (
	"fmt"
	"sync"

	"github.com/micmonay/keybd_event"

	"github.com/teslashibe/go-deskpilot/pkg/keys"
)

var codes = map[keys.Key]int{
	keys.Tab:       keybd_event.VK_TAB,
	keys.Space:     keybd_event.VK_SPACE,
	keys.Enter:     keybd_event.VK_ENTER,
	keys.Backspace: keybd_event.VK_BACKSPACE,
	keys.Delete:    keybd_event.VK_DELETE,
	keys.Esc:       keybd_event.VK_ESC,
	keys.Home:      keybd_event.VK_HOME,
	keys.End:       keybd_event.VK_END,
	keys.PageUp:    keybd_event.VK_PAGEUP,
	keys.PageDown:  keybd_event.VK_PAGEDOWN,
	keys.Up:        keybd_event.VK_UP,
	keys.Down:      keybd_event.VK_DOWN,
	keys.Left:      keybd_event.VK_LEFT,
	keys.Right:     keybd_event.VK_RIGHT,

	"f1": keybd_event.VK_F1, "f2": keybd_event.VK_F2, "f3": keybd_event.VK_F3,
	"f4": keybd_event.VK_F4, "f5": keybd_event.VK_F5, "f6": keybd_event.VK_F6,
	"f7": keybd_event.VK_F7, "f8": keybd_event.VK_F8, "f9": keybd_event.VK_F9,
	"f10": keybd_event.VK_F10, "f11": keybd_event.VK_F11, "f12": keybd_event.VK_F12,

	"a": keybd_event.VK_A, "b": keybd_event.VK_B, "c": keybd_event.VK_C, "d": keybd_event.VK_D,
	"e": keybd_event.VK_E, "f": keybd_event.VK_F, "g": keybd_event.VK_G, "h": keybd_event.VK_H,
	"i": keybd_event.VK_I, "j": keybd_event.VK_J, "k": keybd_event.VK_K, "l": keybd_event.VK_L,
	"m": keybd_event.VK_M, "n": keybd_event.VK_N, "o": keybd_event.VK_O, "p": keybd_event.VK_P,
	"q": keybd_event.VK_Q, "r": keybd_event.VK_R, "s": keybd_event.VK_S, "t": keybd_event.VK_T,
	"u": keybd_event.VK_U, "v": keybd_event.VK_V, "w": keybd_event.VK_W, "x": keybd_event.VK_X,
	"y": keybd_event.VK_Y, "z": keybd_event.VK_Z,

	"0": keybd_event.VK_0, "1": keybd_event.VK_1, "2": keybd_event.VK_2, "3": keybd_event.VK_3,
	"4": keybd_event.VK_4, "5": keybd_event.VK_5, "6": keybd_event.VK_6, "7": keybd_event.VK_7,
	"8": keybd_event.VK_8, "9": keybd_event.VK_9,
}

// ErrUnsupportedKey is returned for keys the OS keyboard cannot type.
type ErrUnsupportedKey struct{ Key keys.Key }

func (e *ErrUnsupportedKey) Error() string {
	return fmt.Sprintf("macro: key %q cannot be typed", string(e.Key))
}

// SystemKeyboard sends key events through the OS.
type SystemKeyboard struct {
	mu sync.Mutex
	kb keybd_event.KeyBonding
}

var (
	_ Keyboard   = (*SystemKeyboard)(nil)
	_ KeyChecker = (*SystemKeyboard)(nil)
)

// NewSystemKeyboard opens the OS keyboard. On Linux this creates a
// uinput device, which needs a moment before the first event is seen.
func NewSystemKeyboard() (*SystemKeyboard, error) {
	kb, err := keybd_event.NewKeyBonding()
	if err != nil {
		return nil, fmt.Errorf("macro: open keyboard: %w", err)
	}
	return &SystemKeyboard{kb: kb}, nil
}

// CanType reports whether k has an OS key code.
func (s *SystemKeyboard) CanType(k keys.Key) bool {
	if k.IsModifier() {
		return true
	}
	_, ok := codes[k]
	return ok
}

func (s *SystemKeyboard) load(c keys.Combo) error {
	s.kb.Clear()
	var vk []int
	for _, k := range c {
		switch k {
		case keys.Ctrl:
			s.kb.HasCTRL(true)
		case keys.Alt:
			s.kb.HasALT(true)
		case keys.Shift:
			s.kb.HasSHIFT(true)
		case keys.Cmd:
			s.kb.HasSuper(true)
		default:
			code, ok := codes[k]
			if !ok {
				return &ErrUnsupportedKey{Key: k}
			}
			vk = append(vk, code)
		}
	}
	s.kb.SetKeys(vk...)
	return nil
}

// Press holds every key in c.
func (s *SystemKeyboard) Press(c keys.Combo) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.load(c); err != nil {
		return err
	}
	return s.kb.Press()
}

// Release lets go of every key in c.
func (s *SystemKeyboard) Release(c keys.Combo) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.load(c); err != nil {
		return err
	}
	return s.kb.Release()
}
