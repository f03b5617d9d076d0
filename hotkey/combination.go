package hotkey

import (
	"errors"
	"fmt"
	"strings"
)

// ErrUnknownKey is returned for key names that cannot be bound globally
var ErrUnknownKey = errors.New("unknown key")

// Combination is the single global hotkey: modifier flags plus one key name
type Combination struct {
	Ctrl  bool   `json:"ctrl"`
	Alt   bool   `json:"alt"`
	Shift bool   `json:"shift"`
	Key   string `json:"key"`
}

// Enabled reports whether the combination should be registered at all.
// An empty key or "none" disables the hotkey.
func (c Combination) Enabled() bool {
	key := strings.TrimSpace(c.Key)
	return key != "" && !strings.EqualFold(key, "none")
}

// String renders the combination as "Ctrl+Alt+Shift+Key"
func (c Combination) String() string {
	if !c.Enabled() {
		return "None"
	}

	var parts []string
	if c.Ctrl {
		parts = append(parts, "Ctrl")
	}
	if c.Alt {
		parts = append(parts, "Alt")
	}
	if c.Shift {
		parts = append(parts, "Shift")
	}
	key, err := NormalizeKey(c.Key)
	if err != nil {
		key = strings.TrimSpace(c.Key)
	}
	parts = append(parts, key)

	return strings.Join(parts, "+")
}

// ParseCombination parses strings like "Ctrl+Alt+H" or "shift+f12".
// "None" or an empty string yields a disabled combination.
func ParseCombination(s string) (Combination, error) {
	var c Combination
	s = strings.TrimSpace(s)
	if s == "" || strings.EqualFold(s, "none") {
		return c, nil
	}

	parts := strings.Split(s, "+")
	for i, part := range parts {
		part = strings.TrimSpace(part)
		switch strings.ToLower(part) {
		case "ctrl", "control":
			c.Ctrl = true
			continue
		case "alt":
			c.Alt = true
			continue
		case "shift":
			c.Shift = true
			continue
		}

		if i != len(parts)-1 {
			return c, fmt.Errorf("unknown modifier: %s", part)
		}
		key, err := NormalizeKey(part)
		if err != nil {
			return c, err
		}
		c.Key = key
	}

	if c.Key == "" {
		return c, fmt.Errorf("no key in hotkey combination %q", s)
	}
	return c, nil
}

// extendedKeys are the .NET Keys enum names beyond letters, digits and
// F1-F12 that the legacy settings file can hold, in display order
var extendedKeys = func() []string {
	keys := []string{}
	for n := 13; n <= 24; n++ {
		keys = append(keys, fmt.Sprintf("F%d", n))
	}
	keys = append(keys, "Insert", "Home", "End", "PageUp", "PageDown", "Back", "Pause", "PrintScreen", "Scroll")
	for d := '0'; d <= '9'; d++ {
		keys = append(keys, "NumPad"+string(d))
	}
	keys = append(keys, "Multiply", "Add", "Subtract", "Decimal", "Divide")
	return append(keys,
		"OemSemicolon", "Oemplus", "Oemcomma", "OemMinus", "OemPeriod", "OemQuestion",
		"Oemtilde", "OemOpenBrackets", "OemPipe", "OemCloseBrackets", "OemQuotes", "OemBackslash",
	)
}()

// keyAliases maps alternative spellings, including duplicate .NET enum
// names, to canonical names
var keyAliases = map[string]string{
	"enter":     "Return",
	"esc":       "Escape",
	"del":       "Delete",
	"ins":       "Insert",
	"prior":     "PageUp",
	"pgup":      "PageUp",
	"next":      "PageDown",
	"pgdn":      "PageDown",
	"backspace": "Back",
	"snapshot":  "PrintScreen",
	"oem1":      "OemSemicolon",
	"oem2":      "OemQuestion",
	"oem3":      "Oemtilde",
	"oem4":      "OemOpenBrackets",
	"oem5":      "OemPipe",
	"oem6":      "OemCloseBrackets",
	"oem7":      "OemQuotes",
	"oem102":    "OemBackslash",
}

var keyNames = func() map[string]string {
	m := map[string]string{}
	for _, k := range Keys() {
		m[strings.ToLower(k)] = k
	}
	for d := '0'; d <= '9'; d++ {
		m["d"+string(d)] = string(d)
	}
	for alias, k := range keyAliases {
		m[alias] = k
	}
	return m
}()

// NormalizeKey maps a key name to its canonical form ("h" -> "H",
// "D5" -> "5", "enter" -> "Return")
func NormalizeKey(name string) (string, error) {
	if key, ok := keyNames[strings.ToLower(strings.TrimSpace(name))]; ok {
		return key, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownKey, name)
}

// Keys lists the canonical key names in display order
func Keys() []string {
	keys := []string{}
	for c := 'A'; c <= 'Z'; c++ {
		keys = append(keys, string(c))
	}
	for d := '0'; d <= '9'; d++ {
		keys = append(keys, string(d))
	}
	for n := 1; n <= 12; n++ {
		keys = append(keys, fmt.Sprintf("F%d", n))
	}
	keys = append(keys, "Space", "Return", "Escape", "Delete", "Tab", "Left", "Right", "Up", "Down")
	return append(keys, extendedKeys...)
}
