//go:build linux

package keybind

import xhotkey "golang.design/x/hotkey"

var modifierMap = map[modifier]xhotkey.Modifier{
	modCtrl:  xhotkey.ModCtrl,
	modShift: xhotkey.ModShift,
	modAlt:   xhotkey.Mod1, // Alt is Mod1 on X11
}
