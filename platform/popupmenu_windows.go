//go:build windows

package platform

import (
	"fmt"
	"log/slog"
	"runtime"
	"strings"
	"sync"
	"unsafe"

	"golang.org/x/sys/windows"

	"markestedt/cliphoard/popup"
)

var (
	createWindowExW     = user32.NewProc("CreateWindowExW")
	destroyWindow       = user32.NewProc("DestroyWindow")
	createPopupMenu     = user32.NewProc("CreatePopupMenu")
	appendMenuW         = user32.NewProc("AppendMenuW")
	trackPopupMenu      = user32.NewProc("TrackPopupMenu")
	destroyMenu         = user32.NewProc("DestroyMenu")
	getCursorPos        = user32.NewProc("GetCursorPos")
	getSystemMetrics    = user32.NewProc("GetSystemMetrics")
	getForegroundWindow = user32.NewProc("GetForegroundWindow")
	setForegroundWindow = user32.NewProc("SetForegroundWindow")
	postMessageW        = user32.NewProc("PostMessageW")
)

const (
	mfString        = 0x0000
	mfGrayed        = 0x0001
	tpmCenterAlign  = 0x0004
	tpmVCenterAlign = 0x0010
	tpmNoNotify     = 0x0080
	tpmReturnCmd    = 0x0100
	smCxScreen      = 0
	smCyScreen      = 1
	wmNull          = 0x0000
	wmCancelMode    = 0x001F
)

type point struct {
	x, y int32
}

// PopupMenu renders popups as a native context menu owned by a hidden
// window on a dedicated OS thread
type PopupMenu struct {
	host     *popup.Host
	requests chan popup.Popup
	ready    chan error
	hwnd     uintptr

	mu       sync.Mutex
	tracking string
	canceled bool
}

// NewPopupMenu starts the menu thread. Selections and dismissals are
// reported to host.
func NewPopupMenu(host *popup.Host) (popup.View, error) {
	m := &PopupMenu{
		host:     host,
		requests: make(chan popup.Popup, 1),
		ready:    make(chan error, 1),
	}
	go m.loop()
	if err := <-m.ready; err != nil {
		return nil, err
	}
	return m, nil
}

// Show queues p, replacing a queued popup that has not been shown yet
func (m *PopupMenu) Show(p popup.Popup) error {
	select {
	case <-m.requests:
	default:
	}
	m.requests <- p
	return nil
}

// Close dismisses the menu for id if it is on screen
func (m *PopupMenu) Close(id string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.tracking != id {
		return
	}
	m.canceled = true
	// Posted so a busy menu thread never blocks the caller
	postMessageW.Call(m.hwnd, wmCancelMode, 0, 0)
}

func (m *PopupMenu) loop() {
	// Menus belong to the thread that created their owner window
	runtime.LockOSThread()
	defer runtime.UnlockOSThread()

	class, _ := windows.UTF16PtrFromString("STATIC")
	title, _ := windows.UTF16PtrFromString("ClipHoard")
	hwnd, _, err := createWindowExW.Call(0,
		uintptr(unsafe.Pointer(class)), uintptr(unsafe.Pointer(title)),
		0, 0, 0, 0, 0, 0, 0, 0, 0)
	if hwnd == 0 {
		m.ready <- fmt.Errorf("failed to create popup owner window: %w", err)
		return
	}
	defer destroyWindow.Call(hwnd)

	m.hwnd = hwnd
	m.ready <- nil

	for p := range m.requests {
		m.track(p)
	}
}

// track shows p until it is dismissed, closed or a selection closes it
func (m *PopupMenu) track(p popup.Popup) {
	for {
		m.mu.Lock()
		m.tracking = p.ID
		m.canceled = false
		m.mu.Unlock()

		// Remember the window that had focus so the paste lands there
		prev, _, _ := getForegroundWindow.Call()
		setForegroundWindow.Call(m.hwnd)

		cmd := m.showMenu(p)

		m.mu.Lock()
		m.tracking = ""
		canceled := m.canceled
		m.mu.Unlock()

		if prev != 0 {
			setForegroundWindow.Call(prev)
		}

		if canceled {
			return
		}
		if cmd == 0 {
			if err := m.host.Dismiss(p.ID); err != nil {
				slog.Debug("Popup dismissal ignored", "popup", p.ID, "error", err)
			}
			return
		}
		if err := m.host.Select(p.ID, int(cmd)-1); err != nil {
			slog.Debug("Popup selection ignored", "popup", p.ID, "error", err)
			return
		}

		if p.CloseOnSelection || len(m.requests) > 0 {
			return
		}
		if live, ok := m.host.Live(); !ok || live.ID != p.ID {
			return
		}
	}
}

func (m *PopupMenu) showMenu(p popup.Popup) uintptr {
	menu, _, _ := createPopupMenu.Call()
	if menu == 0 {
		slog.Error("CreatePopupMenu failed")
		return 0
	}
	defer destroyMenu.Call(menu)

	if len(p.Titles) == 0 {
		label, _ := windows.UTF16PtrFromString("(no snippets)")
		appendMenuW.Call(menu, mfString|mfGrayed, 0, uintptr(unsafe.Pointer(label)))
	}
	for i, t := range p.Titles {
		label, err := windows.UTF16PtrFromString(menuLabel(t))
		if err != nil {
			label, _ = windows.UTF16PtrFromString("?")
		}
		appendMenuW.Call(menu, mfString, uintptr(i+1), uintptr(unsafe.Pointer(label)))
	}

	flags := uintptr(tpmReturnCmd | tpmNoNotify)
	var pt point
	if p.Placement == popup.AtCursor {
		getCursorPos.Call(uintptr(unsafe.Pointer(&pt)))
	} else {
		cx, _, _ := getSystemMetrics.Call(smCxScreen)
		cy, _, _ := getSystemMetrics.Call(smCyScreen)
		pt = point{x: int32(cx / 2), y: int32(cy / 2)}
		flags |= tpmCenterAlign | tpmVCenterAlign
	}

	cmd, _, _ := trackPopupMenu.Call(menu, flags, uintptr(pt.x), uintptr(pt.y), 0, m.hwnd, 0)

	// Required so the next TrackPopupMenu is not dismissed immediately
	postMessageW.Call(m.hwnd, wmNull, 0, 0)
	return cmd
}

// menuLabel escapes mnemonics and keeps titles on one line
func menuLabel(title string) string {
	title = strings.ReplaceAll(title, "&", "&&")
	title = strings.NewReplacer("\r\n", " ", "\n", " ", "\t", " ").Replace(title)
	if title == "" {
		return "(untitled)"
	}
	return title
}
