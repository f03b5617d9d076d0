//go:build darwin

package keybind

import xhotkey "golang.design/x/hotkey"

// Carbon virtual key codes for keys without a named constant
var platformKeys = map[string]xhotkey.Key{
	"F13": 0x69, "F14": 0x6B, "F15": 0x71, "F16": 0x6A,
	"F17": 0x40, "F18": 0x4F, "F19": 0x50, "F20": 0x5A,

	"Insert":   0x72, // Help
	"Home":     0x73,
	"End":      0x77,
	"PageUp":   0x74,
	"PageDown": 0x79,
	"Back":     0x33,

	"NumPad0": 0x52, "NumPad1": 0x53, "NumPad2": 0x54, "NumPad3": 0x55, "NumPad4": 0x56,
	"NumPad5": 0x57, "NumPad6": 0x58, "NumPad7": 0x59, "NumPad8": 0x5B, "NumPad9": 0x5C,
	"Multiply": 0x43,
	"Add":      0x45,
	"Subtract": 0x4E,
	"Decimal":  0x41,
	"Divide":   0x4B,

	"OemSemicolon":     0x29,
	"Oemplus":          0x18,
	"Oemcomma":         0x2B,
	"OemMinus":         0x1B,
	"OemPeriod":        0x2F,
	"OemQuestion":      0x2C,
	"Oemtilde":         0x32,
	"OemOpenBrackets":  0x21,
	"OemPipe":          0x2A,
	"OemCloseBrackets": 0x1E,
	"OemQuotes":        0x27,
	"OemBackslash":     0x0A,
}

// Mac keyboards have no such keys
var unavailableKeys = map[string]bool{
	"F21":         true,
	"F22":         true,
	"F23":         true,
	"F24":         true,
	"Pause":       true,
	"PrintScreen": true,
	"Scroll":      true,
}
