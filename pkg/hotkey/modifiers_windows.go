package hotkey

import (
	"golang.design/x/hotkey"

	"github.com/teslashibe/go-deskpilot/pkg/keys"
)

var modifiers = map[keys.Key]hotkey.Modifier{
	keys.Ctrl:  hotkey.ModCtrl,
	keys.Alt:   hotkey.ModAlt,
	keys.Shift: hotkey.ModShift,
	keys.Cmd:   hotkey.ModWin,
}
