package platform

import (
	"errors"
	"fmt"
)

var (
	// ErrNoPopupMenu is returned where no native popup menu is available
	ErrNoPopupMenu = errors.New("native popup menu is only available on Windows")
	// ErrPasteUnavailable is returned by the paster from NoPaster
	ErrPasteUnavailable = errors.New("auto-paste is unavailable")
)

// KeyCombo represents a keyboard key combination sent by a Paster
type KeyCombo struct {
	Ctrl  bool
	Shift bool
	Alt   bool
	Win   bool   // Windows key on Windows, Cmd on macOS, Super on Linux
	Key   string // Lower-case key name, e.g. "v"
}

// Clipboard provides plain-text clipboard access
type Clipboard interface {
	// Set replaces the clipboard content with text
	Set(text string) error
	Clear() error
}

// Paster simulates a paste keystroke in the focused window
type Paster interface {
	Paste() error
}

// NoPaster returns a Paster that always fails with ErrPasteUnavailable,
// for sessions where no keystroke injector could be created. cause is
// reported with every failure.
func NoPaster(cause error) Paster {
	return unavailablePaster{cause: cause}
}

type unavailablePaster struct {
	cause error
}

func (p unavailablePaster) Paste() error {
	return fmt.Errorf("%w: %v", ErrPasteUnavailable, p.cause)
}

// Autostart toggles launching the application at logon
type Autostart interface {
	IsEnabled() bool
	Enable() error
	Disable() error
}
