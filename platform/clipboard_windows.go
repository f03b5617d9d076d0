//go:build windows

package platform

import (
	"errors"
	"fmt"
	"time"
	"unsafe"

	"golang.org/x/sys/windows"
)

var (
	user32           = windows.NewLazySystemDLL("user32.dll")
	kernel32         = windows.NewLazySystemDLL("kernel32.dll")
	openClipboard    = user32.NewProc("OpenClipboard")
	closeClipboard   = user32.NewProc("CloseClipboard")
	emptyClipboard   = user32.NewProc("EmptyClipboard")
	setClipboardData = user32.NewProc("SetClipboardData")
	globalAlloc      = kernel32.NewProc("GlobalAlloc")
	globalFree       = kernel32.NewProc("GlobalFree")
	globalLock       = kernel32.NewProc("GlobalLock")
	globalUnlock     = kernel32.NewProc("GlobalUnlock")
)

const (
	cfUnicodeText = 13
	gmemMoveable  = 0x0002

	openAttempts = 10
	openBackoff  = 10 * time.Millisecond
)

var errClipboardBusy = errors.New("clipboard is held by another process")

// WindowsClipboard writes CF_UNICODETEXT through the Win32 clipboard API
type WindowsClipboard struct{}

// NewClipboard creates a new Windows clipboard instance
func NewClipboard() Clipboard {
	return &WindowsClipboard{}
}

// Set replaces the clipboard content with text
func (c *WindowsClipboard) Set(text string) error {
	units, err := windows.UTF16FromString(text)
	if err != nil {
		return fmt.Errorf("UTF16 conversion failed: %w", err)
	}

	return withClipboard(func() error {
		if err := empty(); err != nil {
			return err
		}

		h, err := globalText(units)
		if err != nil {
			return err
		}

		// the system owns h once SetClipboardData succeeds
		if r, _, err := setClipboardData.Call(cfUnicodeText, h); r == 0 {
			globalFree.Call(h)
			return fmt.Errorf("SetClipboardData failed: %w", err)
		}
		return nil
	})
}

// Clear empties the clipboard
func (c *WindowsClipboard) Clear() error {
	return withClipboard(empty)
}

// withClipboard runs fn with the clipboard open, retrying the open while
// another process holds it
func withClipboard(fn func() error) error {
	opened := false
	for i := 0; i < openAttempts; i++ {
		if r, _, _ := openClipboard.Call(0); r != 0 {
			opened = true
			break
		}
		time.Sleep(openBackoff)
	}
	if !opened {
		return errClipboardBusy
	}
	defer closeClipboard.Call()

	return fn()
}

func empty() error {
	if r, _, err := emptyClipboard.Call(); r == 0 {
		return fmt.Errorf("EmptyClipboard failed: %w", err)
	}
	return nil
}

// globalText copies units into a movable global block for SetClipboardData
func globalText(units []uint16) (uintptr, error) {
	h, _, err := globalAlloc.Call(gmemMoveable, uintptr(len(units)*2))
	if h == 0 {
		return 0, fmt.Errorf("GlobalAlloc failed: %w", err)
	}

	p, _, err := globalLock.Call(h)
	if p == 0 {
		globalFree.Call(h)
		return 0, fmt.Errorf("GlobalLock failed: %w", err)
	}
	copy(unsafe.Slice((*uint16)(unsafe.Pointer(p)), len(units)), units)
	globalUnlock.Call(h)

	return h, nil
}
