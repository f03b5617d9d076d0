package app

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"markestedt/cliphoard/hotkey"
	"markestedt/cliphoard/intent"
	"markestedt/cliphoard/storage"
)

// handle applies one intent on the controller goroutine
func (c *Controller) handle(in intent.Intent) (intent.State, error) {
	slog.Debug("Handling intent", "kind", in.Kind)

	changed, err := c.apply(in)
	if changed {
		if c.opts.Autosave {
			c.save()
		}
		c.broadcast()
	}
	return c.state(), err
}

// apply reports whether persisted state changed
func (c *Controller) apply(in intent.Intent) (bool, error) {
	switch in.Kind {
	case intent.Snapshot:
		return false, nil

	case intent.NewList:
		c.store.Clear()
		slog.Info("Started a new snippet list")
		return true, nil

	case intent.OpenFile:
		return c.openFile(in.Path)

	case intent.SaveFile:
		return false, c.saveFile(in.Path)

	case intent.ToggleOption:
		return c.toggleOption(in.Option, in.Value)

	case intent.SetHotkey:
		return c.setHotkey(in.Hotkey)

	case intent.SelectSnippet:
		items := c.store.Snapshot()
		if in.Index < 0 || in.Index >= len(items) {
			return false, fmt.Errorf("%w: snippet index %d out of range", intent.ErrInvalid, in.Index)
		}
		paste := c.settings.AutoPasteDelay > 0
		if in.Paste != nil {
			paste = *in.Paste
		}
		return false, c.copySnippet(items[in.Index], in.Index, storage.SourceDashboard, paste)

	case intent.AddSnippet:
		if strings.TrimSpace(in.Snippet.Title) == "" {
			return false, fmt.Errorf("%w: snippet title is empty", intent.ErrInvalid)
		}
		c.store.Add(in.Snippet.Title, in.Snippet.Value)
		return true, nil

	case intent.RemoveSnippet:
		if err := c.store.Remove(in.Index); err != nil {
			return false, fmt.Errorf("%w: %v", intent.ErrInvalid, err)
		}
		return true, nil

	case intent.ReplaceSnippets:
		c.store.ReplaceAll(in.Snippets)
		return true, nil

	case intent.SetPasteDelay:
		if in.Delay < 0 {
			return false, fmt.Errorf("%w: negative auto-paste delay", intent.ErrInvalid)
		}
		c.settings.AutoPasteDelay = int(in.Delay.Milliseconds())
		slog.Info("Auto-paste delay changed", "delay", in.Delay)
		return true, nil

	case intent.SaveSettings:
		return false, c.save()
	}

	return false, fmt.Errorf("%w: unsupported intent %s", intent.ErrInvalid, in.Kind)
}

func (c *Controller) openFile(path string) (bool, error) {
	if path == "" {
		return false, fmt.Errorf("%w: no file name", intent.ErrInvalid)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return false, fmt.Errorf("failed to open snippet list: %w", err)
	}
	items, err := snippetsFromFile(data)
	if err != nil {
		return false, err
	}

	c.store.ReplaceAll(items)
	slog.Info("Opened snippet list", "path", path, "items", len(items))
	return true, nil
}

func (c *Controller) saveFile(path string) error {
	if path == "" {
		return fmt.Errorf("%w: no file name", intent.ErrInvalid)
	}

	payload, err := c.store.ToSerializedForm()
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, []byte(payload), 0644); err != nil {
		return fmt.Errorf("failed to save snippet list: %w", err)
	}

	slog.Info("Saved snippet list", "path", path, "items", c.store.Count())
	return nil
}

func (c *Controller) toggleOption(opt intent.Option, value *bool) (bool, error) {
	var field *bool
	switch opt {
	case intent.TopMost:
		field = &c.settings.TopMost
	case intent.OpenPopupAtCursor:
		field = &c.settings.OpenPopupOnCursorLocation
	case intent.ClosePopupOnSelection:
		field = &c.settings.ClosePopupOnSelection
	case intent.StartAtLogon:
		return false, c.toggleAutostart(value)
	default:
		return false, fmt.Errorf("%w: unknown option %s", intent.ErrInvalid, opt)
	}

	next := !*field
	if value != nil {
		next = *value
	}
	*field = next
	slog.Info("Option changed", "option", opt, "value", next)
	return true, nil
}

func (c *Controller) toggleAutostart(value *bool) error {
	if c.opts.Autostart == nil {
		return fmt.Errorf("%w: start at logon is not available", intent.ErrInvalid)
	}

	next := !c.opts.Autostart.IsEnabled()
	if value != nil {
		next = *value
	}

	var err error
	if next {
		err = c.opts.Autostart.Enable()
	} else {
		err = c.opts.Autostart.Disable()
	}
	if err != nil {
		slog.Error("Failed to change start at logon", "error", err)
		c.notify(intent.Failure, "Could not change start at logon: "+err.Error())
		return err
	}

	slog.Info("Start at logon changed", "enabled", next)
	c.broadcast()
	return nil
}

// setHotkey stores combo and re-registers. The combination is kept even
// when registration fails so the user's choice survives a restart.
func (c *Controller) setHotkey(combo hotkey.Combination) (bool, error) {
	if combo.Enabled() {
		key, err := hotkey.NormalizeKey(combo.Key)
		if err != nil {
			return false, fmt.Errorf("%w: %v", intent.ErrInvalid, err)
		}
		combo.Key = key
	} else {
		combo.Key = ""
	}

	c.settings.Control = combo.Ctrl
	c.settings.Alt = combo.Alt
	c.settings.Shift = combo.Shift
	c.settings.Hotkey = combo.Key

	return true, c.registerHotkey(combo)
}

func (c *Controller) registerHotkey(combo hotkey.Combination) error {
	if err := c.hotkeys.SetCombination(combo); err != nil {
		slog.Warn("Hotkey not registered", "hotkey", combo.String(), "error", err)
		c.notify(intent.Warning, fmt.Sprintf("Hotkey %s is not available: %v", combo, errors.Unwrap(err)))
		return err
	}
	return nil
}
