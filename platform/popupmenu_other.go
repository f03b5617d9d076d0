//go:build !windows

package platform

import "markestedt/cliphoard/popup"

// NewPopupMenu is unavailable on this platform; use the web popup view
func NewPopupMenu(host *popup.Host) (popup.View, error) {
	return nil, ErrNoPopupMenu
}
