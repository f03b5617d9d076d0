//go:build darwin

package platform

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// LaunchAgentAutostart implements Autostart with a per-user LaunchAgent
type LaunchAgentAutostart struct {
	label string
}

// NewAutostart creates an Autostart whose LaunchAgent label is derived from name
func NewAutostart(name string) Autostart {
	return &LaunchAgentAutostart{label: "com." + strings.ToLower(name)}
}

func (a *LaunchAgentAutostart) path() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}
	return filepath.Join(home, "Library", "LaunchAgents", a.label+".plist"), nil
}

// IsEnabled reports whether the plist exists
func (a *LaunchAgentAutostart) IsEnabled() bool {
	path, err := a.path()
	if err != nil {
		return false
	}
	_, err = os.Stat(path)
	return err == nil
}

// Enable writes a RunAtLoad plist for the running executable
func (a *LaunchAgentAutostart) Enable() error {
	path, err := a.path()
	if err != nil {
		return err
	}
	exe, err := os.Executable()
	if err != nil {
		return fmt.Errorf("failed to get executable path: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create LaunchAgents directory: %w", err)
	}

	plist := fmt.Sprintf(`<?xml version="1.0" encoding="UTF-8"?>
<!DOCTYPE plist PUBLIC "-//Apple//DTD PLIST 1.0//EN" "http://www.apple.com/DTDs/PropertyList-1.0.dtd">
<plist version="1.0">
<dict>
    <key>Label</key>
    <string>%s</string>
    <key>ProgramArguments</key>
    <array>
        <string>%s</string>
    </array>
    <key>RunAtLoad</key>
    <true/>
</dict>
</plist>
`, a.label, exe)

	if err := os.WriteFile(path, []byte(plist), 0o644); err != nil {
		return fmt.Errorf("failed to write LaunchAgent: %w", err)
	}
	return nil
}

// Disable removes the plist
func (a *LaunchAgentAutostart) Disable() error {
	path, err := a.path()
	if err != nil {
		return err
	}
	if err := os.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("failed to remove LaunchAgent: %w", err)
	}
	return nil
}
