//go:build windows

package keybind

import xhotkey "golang.design/x/hotkey"

// Virtual-key codes for keys without a named constant
var platformKeys = map[string]xhotkey.Key{
	"F13": 0x7C, "F14": 0x7D, "F15": 0x7E, "F16": 0x7F, "F17": 0x80, "F18": 0x81,
	"F19": 0x82, "F20": 0x83, "F21": 0x84, "F22": 0x85, "F23": 0x86, "F24": 0x87,

	"Insert":      0x2D,
	"Home":        0x24,
	"End":         0x23,
	"PageUp":      0x21,
	"PageDown":    0x22,
	"Back":        0x08,
	"Pause":       0x13,
	"PrintScreen": 0x2C,
	"Scroll":      0x91,

	"NumPad0": 0x60, "NumPad1": 0x61, "NumPad2": 0x62, "NumPad3": 0x63, "NumPad4": 0x64,
	"NumPad5": 0x65, "NumPad6": 0x66, "NumPad7": 0x67, "NumPad8": 0x68, "NumPad9": 0x69,
	"Multiply": 0x6A,
	"Add":      0x6B,
	"Subtract": 0x6D,
	"Decimal":  0x6E,
	"Divide":   0x6F,

	"OemSemicolon":     0xBA,
	"Oemplus":          0xBB,
	"Oemcomma":         0xBC,
	"OemMinus":         0xBD,
	"OemPeriod":        0xBE,
	"OemQuestion":      0xBF,
	"Oemtilde":         0xC0,
	"OemOpenBrackets":  0xDB,
	"OemPipe":          0xDC,
	"OemCloseBrackets": 0xDD,
	"OemQuotes":        0xDE,
	"OemBackslash":     0xE2,
}

var unavailableKeys = map[string]bool{}
