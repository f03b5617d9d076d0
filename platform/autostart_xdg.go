//go:build !windows && !darwin

package platform

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// DesktopAutostart implements Autostart with an XDG autostart entry
type DesktopAutostart struct {
	name string
}

// NewAutostart creates an Autostart that writes <name>.desktop into the
// user's autostart directory
func NewAutostart(name string) Autostart {
	return &DesktopAutostart{name: name}
}

func (a *DesktopAutostart) path() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("failed to get config directory: %w", err)
	}
	return filepath.Join(dir, "autostart", strings.ToLower(a.name)+".desktop"), nil
}

// IsEnabled reports whether the desktop entry exists
func (a *DesktopAutostart) IsEnabled() bool {
	path, err := a.path()
	if err != nil {
		return false
	}
	_, err = os.Stat(path)
	return err == nil
}

// Enable writes the desktop entry
func (a *DesktopAutostart) Enable() error {
	path, err := a.path()
	if err != nil {
		return err
	}
	exe, err := os.Executable()
	if err != nil {
		return fmt.Errorf("failed to get executable path: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create autostart directory: %w", err)
	}

	content := fmt.Sprintf(`[Desktop Entry]
Type=Application
Name=%s
Comment=Clipboard snippet hoard
Exec=%s
Icon=edit-paste
Terminal=false
Categories=Utility;
StartupNotify=false
X-GNOME-Autostart-enabled=true
`, a.name, exe)

	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		return fmt.Errorf("failed to write desktop entry: %w", err)
	}
	return nil
}

// Disable removes the desktop entry
func (a *DesktopAutostart) Disable() error {
	path, err := a.path()
	if err != nil {
		return err
	}
	if err := os.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("failed to remove desktop entry: %w", err)
	}
	return nil
}
