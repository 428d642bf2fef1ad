package hotkey

import (
	"golang.design/x/hotkey"

	"github.com/teslashibe/go-deskpilot/pkg/keys"
)

// X11 maps Alt to Mod1 and Super to Mod4 on common layouts.
var modifiers = map[keys.Key]hotkey.Modifier{
	keys.Ctrl:  hotkey.ModCtrl,
	keys.Alt:   hotkey.Mod1,
	keys.Shift: hotkey.ModShift,
	keys.Cmd:   hotkey.Mod4,
}
