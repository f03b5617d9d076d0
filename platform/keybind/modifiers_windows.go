//go:build windows

package keybind

import xhotkey "golang.design/x/hotkey"

var modifierMap = map[modifier]xhotkey.Modifier{
	modCtrl:  xhotkey.ModCtrl,
	modShift: xhotkey.ModShift,
	modAlt:   xhotkey.ModAlt,
}
