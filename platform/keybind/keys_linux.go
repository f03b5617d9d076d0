//go:build linux

package keybind

import xhotkey "golang.design/x/hotkey"

// X11 keysyms for keys without a named constant
var platformKeys = map[string]xhotkey.Key{
	"F13": 0xffca, "F14": 0xffcb, "F15": 0xffcc, "F16": 0xffcd, "F17": 0xffce, "F18": 0xffcf,
	"F19": 0xffd0, "F20": 0xffd1, "F21": 0xffd2, "F22": 0xffd3, "F23": 0xffd4, "F24": 0xffd5,

	"Insert":      0xff63,
	"Home":        0xff50,
	"End":         0xff57,
	"PageUp":      0xff55,
	"PageDown":    0xff56,
	"Back":        0xff08,
	"Pause":       0xff13,
	"PrintScreen": 0xff61,
	"Scroll":      0xff14,

	"NumPad0": 0xffb0, "NumPad1": 0xffb1, "NumPad2": 0xffb2, "NumPad3": 0xffb3, "NumPad4": 0xffb4,
	"NumPad5": 0xffb5, "NumPad6": 0xffb6, "NumPad7": 0xffb7, "NumPad8": 0xffb8, "NumPad9": 0xffb9,
	"Multiply": 0xffaa,
	"Add":      0xffab,
	"Subtract": 0xffad,
	"Decimal":  0xffae,
	"Divide":   0xffaf,

	"OemSemicolon":     0x003b,
	"Oemplus":          0x003d,
	"Oemcomma":         0x002c,
	"OemMinus":         0x002d,
	"OemPeriod":        0x002e,
	"OemQuestion":      0x002f,
	"Oemtilde":         0x0060,
	"OemOpenBrackets":  0x005b,
	"OemPipe":          0x005c,
	"OemCloseBrackets": 0x005d,
	"OemQuotes":        0x0027,
	"OemBackslash":     0x003c,
}

var unavailableKeys = map[string]bool{}
