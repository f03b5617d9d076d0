//go:build darwin

package keybind

import "golang.design/x/hotkey/mainthread"

// Run calls fn with the main thread serving hotkey events. It must be called
// from main.
func Run(fn func()) {
	mainthread.Init(fn)
}
