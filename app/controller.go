// Package app holds the controller: the single goroutine that owns the
// configuration, the snippet store, the hotkey slot and the live popup.
package app

import (
	"context"
	"log/slog"
	"time"

	"markestedt/cliphoard/clipboard"
	"markestedt/cliphoard/hotkey"
	"markestedt/cliphoard/intent"
	"markestedt/cliphoard/popup"
	"markestedt/cliphoard/settings"
	"markestedt/cliphoard/snippet"
	"markestedt/cliphoard/storage"
)

// UsageLog records copy events
type UsageLog interface {
	SaveCopy(c *storage.CopyEvent) error
}

// Autostart toggles launching at logon
type Autostart interface {
	IsEnabled() bool
	Enable() error
	Disable() error
}

// Options wires a Controller to its collaborators. Usage and Autostart are
// optional.
type Options struct {
	SettingsPath string
	// Autosave writes the settings file after every change, not only on exit
	Autosave bool

	Registrar hotkey.Registrar
	Clipboard clipboard.Writer
	Paster    clipboard.Paster
	Popups    *popup.Host
	Usage     UsageLog
	Autostart Autostart
}

// Controller coordinates hotkey, popup, clipboard and persistence
type Controller struct {
	opts Options

	settings settings.Settings
	store    *snippet.Store
	hotkeys  *hotkey.Manager
	bridge   *clipboard.Bridge
	popups   *popup.Host

	// items shown in the live popup, resolved on selection
	liveID    string
	liveItems []snippet.Snippet

	listeners []intent.Listener
	requests  chan request
	done      chan struct{}
}

type request struct {
	in    intent.Intent
	reply chan reply
}

type reply struct {
	state intent.State
	err   error
}

// New creates a controller. Nothing is loaded or registered until Run.
func New(opts Options) *Controller {
	popups := opts.Popups
	if popups == nil {
		popups = popup.NewHost(nil)
	}

	return &Controller{
		opts:     opts,
		store:    snippet.NewStore(),
		hotkeys:  hotkey.NewManager(opts.Registrar),
		bridge:   clipboard.NewBridge(opts.Clipboard, opts.Paster),
		popups:   popups,
		requests: make(chan request),
		done:     make(chan struct{}),
	}
}

// AddListener subscribes l to state changes and notices. It must be called
// before Run.
func (c *Controller) AddListener(l intent.Listener) {
	c.listeners = append(c.listeners, l)
}

// Run loads the settings, registers the hotkey and serves events until ctx
// is cancelled or an Exit intent arrives. The settings are saved on the way
// out; a save failure is returned.
func (c *Controller) Run(ctx context.Context) error {
	defer close(c.done)

	c.startup()
	c.broadcast()

	slog.Info("ClipHoard started", "hotkey", c.hotkeys.Current().String(), "items", c.store.Count())

	for {
		select {
		case <-ctx.Done():
			return c.shutdown()

		case <-c.hotkeys.Triggered():
			c.openPopup()

		case ev := <-c.popups.Events():
			c.handlePopupEvent(ev)

		case token := <-c.bridge.Due():
			c.firePaste(token)

		case req := <-c.requests:
			if req.in.Kind == intent.Exit {
				err := c.shutdown()
				req.reply <- reply{state: c.state(), err: err}
				return err
			}

			state, err := c.handle(req.in)
			req.reply <- reply{state: state, err: err}
		}
	}
}

// Dispatch hands in to the controller goroutine and waits for the result
func (c *Controller) Dispatch(ctx context.Context, in intent.Intent) (intent.State, error) {
	req := request{in: in, reply: make(chan reply, 1)}

	select {
	case c.requests <- req:
	case <-ctx.Done():
		return intent.State{}, ctx.Err()
	case <-c.done:
		return intent.State{}, intent.ErrStopped
	}

	select {
	case r := <-req.reply:
		return r.state, r.err
	case <-ctx.Done():
		return intent.State{}, ctx.Err()
	case <-c.done:
		// Exit replies just before the loop stops
		select {
		case r := <-req.reply:
			return r.state, r.err
		default:
			return intent.State{}, intent.ErrStopped
		}
	}
}

// Done is closed when Run returns
func (c *Controller) Done() <-chan struct{} {
	return c.done
}

func (c *Controller) openPopup() {
	items := c.store.Snapshot()
	placement := popup.Centered
	if c.settings.OpenPopupOnCursorLocation {
		placement = popup.AtCursor
	}

	p, err := c.popups.Open(snippet.Titles(items), placement, c.settings.ClosePopupOnSelection)
	if err != nil {
		slog.Error("Failed to open popup", "error", err)
		c.notify(intent.Failure, "Could not show the snippet list: "+err.Error())
		c.liveID, c.liveItems = "", nil
		return
	}

	c.liveID, c.liveItems = p.ID, items
	slog.Debug("Popup opened", "popup", p.ID, "items", len(items), "placement", placement)
	c.broadcast()
}

func (c *Controller) handlePopupEvent(ev popup.Event) {
	if ev.PopupID != c.liveID {
		slog.Debug("Ignoring event for replaced popup", "popup", ev.PopupID)
		return
	}

	switch ev.Type {
	case popup.Dismissed:
		c.liveID, c.liveItems = "", nil

	case popup.Selected:
		if ev.Index < 0 || ev.Index >= len(c.liveItems) {
			slog.Warn("Popup selection out of range", "index", ev.Index, "items", len(c.liveItems))
			return
		}
		item := c.liveItems[ev.Index]
		c.copySnippet(item, ev.Index, storage.SourcePopup, c.settings.AutoPasteDelay > 0)

		if c.settings.ClosePopupOnSelection {
			c.popups.CloseLive(ev.PopupID)
			c.liveID, c.liveItems = "", nil
		}
	}

	c.broadcast()
}

// copySnippet puts item on the clipboard and schedules the paste
func (c *Controller) copySnippet(item snippet.Snippet, index int, source string, paste bool) error {
	delay := time.Duration(c.settings.AutoPasteDelay) * time.Millisecond
	err := c.bridge.CopyAndMaybePaste(item.Value, delay, paste)

	event := &storage.CopyEvent{
		Title:          item.Title,
		Index:          index,
		Source:         source,
		PasteScheduled: paste && err == nil,
		PasteDelayMs:   c.settings.AutoPasteDelay,
		Success:        err == nil,
	}
	if err != nil {
		event.ErrorMessage = err.Error()
	}
	c.recordUsage(event)

	if err != nil {
		slog.Error("Failed to copy snippet", "title", item.Title, "error", err)
		c.notify(intent.Failure, "Could not copy to the clipboard: "+err.Error())
		return err
	}

	slog.Info("Copied snippet", "title", item.Title, "paste", paste, "delay", delay)
	return nil
}

func (c *Controller) firePaste(token uint64) {
	fired, err := c.bridge.Fire(token)
	if err != nil {
		slog.Warn("Auto-paste failed", "error", err)
		c.notify(intent.Warning, "Auto-paste failed: "+err.Error())
		return
	}
	if fired {
		slog.Debug("Auto-paste sent")
	}
}

func (c *Controller) recordUsage(event *storage.CopyEvent) {
	if c.opts.Usage == nil {
		return
	}
	if err := c.opts.Usage.SaveCopy(event); err != nil {
		slog.Warn("Failed to record copy", "error", err)
	}
}

// state is the snapshot handed to listeners and dispatch callers
func (c *Controller) state() intent.State {
	s := intent.State{
		TopMost:               c.settings.TopMost,
		OpenPopupAtCursor:     c.settings.OpenPopupOnCursorLocation,
		ClosePopupOnSelection: c.settings.ClosePopupOnSelection,
		Hotkey:                c.hotkeys.Current(),
		HotkeyActive:          c.hotkeys.Active(),
		AutoPasteDelayMs:      c.settings.AutoPasteDelay,
		Snippets:              c.store.Snapshot(),
		Items:                 c.store.Count(),
		Copied:                c.bridge.Copied(),
		SettingsPath:          c.opts.SettingsPath,
	}
	if c.opts.Autostart != nil {
		s.StartAtLogon = c.opts.Autostart.IsEnabled()
	}
	if p, ok := c.popups.Live(); ok {
		s.Popup = &p
	}
	return s
}

func (c *Controller) broadcast() {
	s := c.state()
	for _, l := range c.listeners {
		l.StateChanged(s)
	}
}

func (c *Controller) notify(level intent.Level, message string) {
	n := intent.Notice{Level: level, Message: message, Time: time.Now()}
	for _, l := range c.listeners {
		l.Notify(n)
	}
}
