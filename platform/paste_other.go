//go:build !windows

package platform

import (
	"fmt"
	"runtime"
	"time"

	"github.com/micmonay/keybd_event"
)

var keybdCodes = map[string]int{
	"a": keybd_event.VK_A, "b": keybd_event.VK_B, "c": keybd_event.VK_C,
	"d": keybd_event.VK_D, "e": keybd_event.VK_E, "f": keybd_event.VK_F,
	"g": keybd_event.VK_G, "h": keybd_event.VK_H, "i": keybd_event.VK_I,
	"j": keybd_event.VK_J, "k": keybd_event.VK_K, "l": keybd_event.VK_L,
	"m": keybd_event.VK_M, "n": keybd_event.VK_N, "o": keybd_event.VK_O,
	"p": keybd_event.VK_P, "q": keybd_event.VK_Q, "r": keybd_event.VK_R,
	"s": keybd_event.VK_S, "t": keybd_event.VK_T, "u": keybd_event.VK_U,
	"v": keybd_event.VK_V, "w": keybd_event.VK_W, "x": keybd_event.VK_X,
	"y": keybd_event.VK_Y, "z": keybd_event.VK_Z,
	"insert": keybd_event.VK_INSERT,
	"enter":  keybd_event.VK_ENTER,
	"space":  keybd_event.VK_SPACE,
	"tab":    keybd_event.VK_TAB,
}

// KeybdPaster implements the Paster interface through a virtual keyboard
// (uinput on Linux, CGEvent on macOS)
type KeybdPaster struct {
	kb     keybd_event.KeyBonding
	settle time.Duration
}

// NewPaster creates a paster that sends combo, then waits settle for the
// target window to process it
func NewPaster(combo KeyCombo, settle time.Duration) (Paster, error) {
	code, ok := keybdCodes[combo.Key]
	if !ok {
		return nil, fmt.Errorf("failed to map paste key: unknown key: %s", combo.Key)
	}

	kb, err := keybd_event.NewKeyBonding()
	if err != nil {
		return nil, fmt.Errorf("failed to create virtual keyboard: %w", err)
	}

	// The uinput device needs a moment before the first event is accepted
	if runtime.GOOS == "linux" {
		time.Sleep(2 * time.Second)
	}

	kb.SetKeys(code)
	kb.HasCTRL(combo.Ctrl)
	kb.HasSHIFT(combo.Shift)
	kb.HasALT(combo.Alt)
	kb.HasSuper(combo.Win)

	return &KeybdPaster{kb: kb, settle: settle}, nil
}

// Paste presses and releases the paste combination
func (p *KeybdPaster) Paste() error {
	if err := p.kb.Launching(); err != nil {
		return fmt.Errorf("failed to send paste keystroke: %w", err)
	}
	time.Sleep(p.settle)
	return nil
}
