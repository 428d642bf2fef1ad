package hotkey

import (
	"fmt"

	"golang.design/x/hotkey"

	"github.com/teslashibe/go-deskpilot/pkg/keys"
)

var namedKeys = map[keys.Key]hotkey.Key{
	keys.Space:  hotkey.KeySpace,
	keys.Enter:  hotkey.KeyReturn,
	keys.Esc:    hotkey.KeyEscape,
	keys.Delete: hotkey.KeyDelete,
	keys.Tab:    hotkey.KeyTab,
	keys.Left:   hotkey.KeyLeft,
	keys.Right:  hotkey.KeyRight,
	keys.Up:     hotkey.KeyUp,
	keys.Down:   hotkey.KeyDown,
	"f1":        hotkey.KeyF1,
	"f2":        hotkey.KeyF2,
	"f3":        hotkey.KeyF3,
	"f4":        hotkey.KeyF4,
	"f5":        hotkey.KeyF5,
	"f6":        hotkey.KeyF6,
	"f7":        hotkey.KeyF7,
	"f8":        hotkey.KeyF8,
	"f9":        hotkey.KeyF9,
	"f10":       hotkey.KeyF10,
	"f11":       hotkey.KeyF11,
	"f12":       hotkey.KeyF12,
}

var letterKeys = [...]hotkey.Key{
	hotkey.KeyA, hotkey.KeyB, hotkey.KeyC, hotkey.KeyD, hotkey.KeyE, hotkey.KeyF,
	hotkey.KeyG, hotkey.KeyH, hotkey.KeyI, hotkey.KeyJ, hotkey.KeyK, hotkey.KeyL,
	hotkey.KeyM, hotkey.KeyN, hotkey.KeyO, hotkey.KeyP, hotkey.KeyQ, hotkey.KeyR,
	hotkey.KeyS, hotkey.KeyT, hotkey.KeyU, hotkey.KeyV, hotkey.KeyW, hotkey.KeyX,
	hotkey.KeyY, hotkey.KeyZ,
}

var digitKeys = [...]hotkey.Key{
	hotkey.Key0, hotkey.Key1, hotkey.Key2, hotkey.Key3, hotkey.Key4,
	hotkey.Key5, hotkey.Key6, hotkey.Key7, hotkey.Key8, hotkey.Key9,
}

// mainKey maps a non-modifier key to the OS hook key.
func mainKey(k keys.Key) (hotkey.Key, error) {
	if hk, ok := namedKeys[k]; ok {
		return hk, nil
	}
	if len(k) == 1 {
		switch c := k[0]; {
		case c >= 'a' && c <= 'z':
			return letterKeys[c-'a'], nil
		case c >= '0' && c <= '9':
			return digitKeys[c-'0'], nil
		}
	}
	return 0, fmt.Errorf("%w: %s", ErrUnsupportedKey, k)
}

// newOSHook builds a golang.design hotkey for combo.
func newOSHook(combo keys.Combo) (Hook, error) {
	main := combo.Main()
	if main == "" {
		return nil, fmt.Errorf("%w: %s", ErrNoMainKey, combo)
	}
	key, err := mainKey(main)
	if err != nil {
		return nil, err
	}

	var mods []hotkey.Modifier
	for _, m := range combo.Modifiers() {
		mod, ok := modifiers[m]
		if !ok {
			return nil, fmt.Errorf("%w: modifier %s", ErrUnsupportedKey, m)
		}
		mods = append(mods, mod)
	}
	return hotkey.New(mods, key), nil
}
