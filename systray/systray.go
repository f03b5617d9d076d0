// Package systray shows the tray icon with the dashboard link, the option
// checkboxes and Quit. Clicks become intents.
package systray

import (
	"context"
	"fmt"
	"log/slog"
	"os/exec"
	"runtime"
	"sync"
	"time"

	"github.com/getlantern/systray"

	"markestedt/cliphoard/intent"
)

const clickTimeout = 5 * time.Second

var optionItems = []struct {
	option  intent.Option
	title   string
	tooltip string
}{
	{intent.TopMost, "Always on top", "Saved for the legacy main window; no effect here"},
	{intent.OpenPopupAtCursor, "Open popup at cursor", "Show the popup at the mouse position"},
	{intent.ClosePopupOnSelection, "Close popup on selection", "Close the popup after a snippet is picked"},
	{intent.StartAtLogon, "Start at logon", "Launch ClipHoard when you sign in"},
}

// Tray manages the system tray icon and menu
type Tray struct {
	dispatcher   intent.Dispatcher
	dashboardURL string

	mu      sync.Mutex
	ready   bool
	state   intent.State
	options map[intent.Option]*systray.MenuItem
}

// New creates a tray. An empty dashboardURL hides the dashboard item.
func New(dispatcher intent.Dispatcher, dashboardURL string) *Tray {
	return &Tray{
		dispatcher:   dispatcher,
		dashboardURL: dashboardURL,
		options:      make(map[intent.Option]*systray.MenuItem),
	}
}

// Run shows the tray (blocking call). It must be called from the main
// goroutine.
func (t *Tray) Run() {
	systray.Run(t.onReady, t.onExit)
}

// Quit removes the tray and makes Run return
func (t *Tray) Quit() {
	systray.Quit()
}

// StateChanged syncs the checkmarks and tooltip with s
func (t *Tray) StateChanged(s intent.State) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.state = s
	if t.ready {
		t.applyLocked()
	}
}

// Notify shows warnings and errors in the tooltip
func (t *Tray) Notify(n intent.Notice) {
	if n.Level == intent.Info {
		return
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.ready {
		systray.SetTooltip("ClipHoard - " + n.Message)
	}
}

func (t *Tray) onReady() {
	systray.SetIcon(iconData)
	systray.SetTitle("ClipHoard")
	systray.SetTooltip("ClipHoard")

	if t.dashboardURL != "" {
		mOpen := systray.AddMenuItem("Open dashboard", "Open the ClipHoard dashboard")
		go t.watch(mOpen, func() { OpenBrowser(t.dashboardURL) })
		systray.AddSeparator()
	}

	t.mu.Lock()
	for _, o := range optionItems {
		item := systray.AddMenuItemCheckbox(o.title, o.tooltip, false)
		t.options[o.option] = item
		opt := o.option
		go t.watch(item, func() { t.toggle(opt) })
	}
	t.ready = true
	t.applyLocked()
	t.mu.Unlock()

	systray.AddSeparator()
	mQuit := systray.AddMenuItem("Quit", "Exit ClipHoard")
	go t.watch(mQuit, func() {
		slog.Info("User requested quit from system tray")
		t.dispatch(intent.Intent{Kind: intent.Exit})
	})
}

func (t *Tray) onExit() {
	slog.Info("System tray exited")
}

func (t *Tray) watch(item *systray.MenuItem, onClick func()) {
	for range item.ClickedCh {
		onClick()
	}
}

func (t *Tray) toggle(opt intent.Option) {
	if err := t.dispatch(intent.Intent{Kind: intent.ToggleOption, Option: opt}); err != nil {
		// the menu may have flipped its own checkmark
		t.mu.Lock()
		t.applyLocked()
		t.mu.Unlock()
	}
}

func (t *Tray) dispatch(in intent.Intent) error {
	ctx, cancel := context.WithTimeout(context.Background(), clickTimeout)
	defer cancel()

	if _, err := t.dispatcher.Dispatch(ctx, in); err != nil {
		slog.Error("Tray action failed", "intent", in.Kind, "error", err)
		return err
	}
	return nil
}

func (t *Tray) applyLocked() {
	for opt, item := range t.options {
		if optionValue(t.state, opt) {
			item.Check()
		} else {
			item.Uncheck()
		}
	}
	systray.SetTooltip(tooltip(t.state))
}

func optionValue(s intent.State, opt intent.Option) bool {
	switch opt {
	case intent.TopMost:
		return s.TopMost
	case intent.OpenPopupAtCursor:
		return s.OpenPopupAtCursor
	case intent.ClosePopupOnSelection:
		return s.ClosePopupOnSelection
	case intent.StartAtLogon:
		return s.StartAtLogon
	}
	return false
}

func tooltip(s intent.State) string {
	if !s.HotkeyActive {
		return fmt.Sprintf("ClipHoard - %d snippets, no hotkey", s.Items)
	}
	return fmt.Sprintf("ClipHoard - %d snippets, %s", s.Items, s.Hotkey)
}

// OpenBrowser opens url in the default browser
func OpenBrowser(url string) {
	slog.Info("Opening dashboard", "url", url)

	var cmd *exec.Cmd
	switch runtime.GOOS {
	case "windows":
		cmd = exec.Command("cmd", "/c", "start", url)
	case "darwin":
		cmd = exec.Command("open", url)
	case "linux":
		cmd = exec.Command("xdg-open", url)
	default:
		slog.Error("Unsupported platform for opening browser", "platform", runtime.GOOS)
		return
	}

	if err := cmd.Start(); err != nil {
		slog.Error("Failed to open dashboard", "error", err)
	}
}
