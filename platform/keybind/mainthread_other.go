//go:build !darwin

package keybind

// Run calls fn. Hotkey events need no main-thread loop on this platform.
func Run(fn func()) {
	fn()
}
