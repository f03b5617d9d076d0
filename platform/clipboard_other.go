//go:build !windows

package platform

import (
	"errors"
	"fmt"

	"github.com/atotto/clipboard"
)

// SystemClipboard implements the Clipboard interface on top of the platform
// clipboard tools (pbcopy, xclip, xsel, wl-copy)
type SystemClipboard struct{}

// NewClipboard creates a new clipboard instance
func NewClipboard() Clipboard {
	return &SystemClipboard{}
}

// Set replaces the clipboard content with text
func (c *SystemClipboard) Set(text string) error {
	if clipboard.Unsupported {
		return errors.New("no clipboard utility available (install xclip, xsel or wl-clipboard)")
	}
	if err := clipboard.WriteAll(text); err != nil {
		return fmt.Errorf("failed to write clipboard: %w", err)
	}
	return nil
}

// Clear empties the clipboard
func (c *SystemClipboard) Clear() error {
	return c.Set("")
}
