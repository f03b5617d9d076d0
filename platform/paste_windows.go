//go:build windows

package platform

import (
	"fmt"
	"time"
	"unsafe"
)

var (
	sendInput      = user32.NewProc("SendInput")
	mapVirtualKeyW = user32.NewProc("MapVirtualKeyW")
)

const (
	inputKeyboard  = 1
	keyeventfKeyup = 0x0002
	mapvkVkToVsc   = 0
	vkShift        = 0x10
	vkControl      = 0x11
	vkMenu         = 0x12
	vkLWin         = 0x5B
)

type keyboardInput struct {
	wVk         uint16
	wScan       uint16
	dwFlags     uint32
	time        uint32
	dwExtraInfo uintptr
}

type input struct {
	inputType uint32
	ki        keyboardInput
	padding   [8]byte // Padding to match C struct size
}

// WindowsPaster implements the Paster interface for Windows
type WindowsPaster struct {
	modifiers []uint16
	key       uint16
	settle    time.Duration
}

// NewPaster creates a paster that sends combo, then waits settle for the
// target window to process it
func NewPaster(combo KeyCombo, settle time.Duration) (Paster, error) {
	vk, err := VKCode(combo.Key)
	if err != nil {
		return nil, fmt.Errorf("failed to map paste key: %w", err)
	}

	p := &WindowsPaster{key: uint16(vk), settle: settle}
	if combo.Ctrl {
		p.modifiers = append(p.modifiers, vkControl)
	}
	if combo.Shift {
		p.modifiers = append(p.modifiers, vkShift)
	}
	if combo.Alt {
		p.modifiers = append(p.modifiers, vkMenu)
	}
	if combo.Win {
		p.modifiers = append(p.modifiers, vkLWin)
	}
	return p, nil
}

// Paste simulates the paste keystroke with scan codes for better compatibility
func (p *WindowsPaster) Paste() error {
	var inputs []input
	for _, vk := range p.modifiers {
		inputs = append(inputs, keyInput(vk, 0))
	}
	inputs = append(inputs, keyInput(p.key, 0), keyInput(p.key, keyeventfKeyup))
	for i := len(p.modifiers) - 1; i >= 0; i-- {
		inputs = append(inputs, keyInput(p.modifiers[i], keyeventfKeyup))
	}

	// Send all inputs at once for better atomicity
	ret, _, err := sendInput.Call(
		uintptr(len(inputs)),
		uintptr(unsafe.Pointer(&inputs[0])),
		unsafe.Sizeof(inputs[0]),
	)
	if ret == 0 {
		return fmt.Errorf("SendInput failed: %w", err)
	}

	time.Sleep(p.settle)
	return nil
}

func keyInput(vk uint16, flags uint32) input {
	// Scan codes reach elevated applications that ignore bare virtual keys
	scan, _, _ := mapVirtualKeyW.Call(uintptr(vk), mapvkVkToVsc)
	return input{
		inputType: inputKeyboard,
		ki: keyboardInput{
			wVk:     vk,
			wScan:   uint16(scan),
			dwFlags: flags,
		},
	}
}
