//go:build windows

package platform

import (
	"errors"
	"fmt"
	"os"

	"golang.org/x/sys/windows/registry"
)

const runKeyPath = `Software\Microsoft\Windows\CurrentVersion\Run`

// RegistryAutostart implements Autostart with a value under the current
// user's Run key
type RegistryAutostart struct {
	name string
}

// NewAutostart creates an Autostart that registers the running executable
// under name
func NewAutostart(name string) Autostart {
	return &RegistryAutostart{name: name}
}

// IsEnabled reports whether the Run value exists
func (a *RegistryAutostart) IsEnabled() bool {
	k, err := registry.OpenKey(registry.CURRENT_USER, runKeyPath, registry.QUERY_VALUE)
	if err != nil {
		return false
	}
	defer k.Close()

	_, _, err = k.GetStringValue(a.name)
	return err == nil
}

// Enable writes the executable path to the Run key
func (a *RegistryAutostart) Enable() error {
	exe, err := os.Executable()
	if err != nil {
		return fmt.Errorf("failed to get executable path: %w", err)
	}

	k, _, err := registry.CreateKey(registry.CURRENT_USER, runKeyPath, registry.SET_VALUE)
	if err != nil {
		return fmt.Errorf("failed to open Run key: %w", err)
	}
	defer k.Close()

	if err := k.SetStringValue(a.name, `"`+exe+`"`); err != nil {
		return fmt.Errorf("failed to set Run value: %w", err)
	}
	return nil
}

// Disable removes the Run value
func (a *RegistryAutostart) Disable() error {
	k, err := registry.OpenKey(registry.CURRENT_USER, runKeyPath, registry.SET_VALUE)
	if err != nil {
		return fmt.Errorf("failed to open Run key: %w", err)
	}
	defer k.Close()

	if err := k.DeleteValue(a.name); err != nil && !errors.Is(err, registry.ErrNotExist) {
		return fmt.Errorf("failed to delete Run value: %w", err)
	}
	return nil
}
