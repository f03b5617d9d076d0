package app

import (
	"errors"
	"fmt"
	"log/slog"
	"os"

	"markestedt/cliphoard/hotkey"
	"markestedt/cliphoard/intent"
	"markestedt/cliphoard/settings"
	"markestedt/cliphoard/snippet"
)

// startup loads the settings file and registers the hotkey. Every failure
// degrades to defaults with a notice.
func (c *Controller) startup() {
	path := c.opts.SettingsPath

	blob, err := settings.Load(path)
	var parseErr *settings.ParseError
	switch {
	case errors.As(err, &parseErr):
		slog.Error("Settings file is corrupt, using defaults", "path", path, "error", err)
		c.notify(intent.Warning, c.backupCorrupt("Settings file is unreadable"))
		blob = settings.Default()
	case err != nil:
		slog.Error("Failed to load settings, using defaults", "path", path, "error", err)
		c.notify(intent.Failure, "Could not load settings: "+err.Error())
		blob = settings.Default()
	}

	items, err := snippet.FromSerializedForm(blob.SavedItems)
	if err != nil {
		slog.Error("Saved snippet list is corrupt, starting empty", "path", path, "error", err)
		c.notify(intent.Warning, c.backupCorrupt("Saved snippet list is unreadable"))
		items = nil
	}

	c.settings = blob.Settings
	c.store.ReplaceAll(items)

	combo := hotkey.Combination{
		Ctrl:  c.settings.Control,
		Alt:   c.settings.Alt,
		Shift: c.settings.Shift,
		Key:   c.settings.Hotkey,
	}
	c.registerHotkey(combo)
}

// backupCorrupt moves the settings file aside so the next save does not
// destroy it, and returns the notice text
func (c *Controller) backupCorrupt(reason string) string {
	path := c.opts.SettingsPath
	backup := path + ".bak"
	if err := os.Rename(path, backup); err != nil {
		slog.Warn("Failed to back up settings file", "path", path, "error", err)
		return reason + "; using defaults"
	}
	slog.Info("Backed up settings file", "backup", backup)
	return fmt.Sprintf("%s; a copy was kept at %s and defaults are in use", reason, backup)
}

// save writes configuration and snippets as one blob
func (c *Controller) save() error {
	payload, err := c.store.ToSerializedForm()
	if err != nil {
		slog.Error("Failed to serialize snippets", "error", err)
		return err
	}

	blob := &settings.Blob{Settings: c.settings, SavedItems: payload}
	if err := settings.Save(c.opts.SettingsPath, blob); err != nil {
		slog.Error("Failed to save settings", "path", c.opts.SettingsPath, "error", err)
		c.notify(intent.Failure, "Could not save settings: "+err.Error())
		return err
	}

	slog.Debug("Settings saved", "path", c.opts.SettingsPath, "items", c.store.Count())
	return nil
}

// shutdown closes the popup, drops a pending paste, releases the hotkey and
// saves
func (c *Controller) shutdown() error {
	c.popups.Close()
	c.liveID, c.liveItems = "", nil
	c.bridge.Close()

	if err := c.hotkeys.Close(); err != nil {
		slog.Debug("Ignoring hotkey unregistration failure", "error", err)
	}

	err := c.save()
	slog.Info("ClipHoard stopped", "items", c.store.Count())
	return err
}

// snippetsFromFile decodes a snippet list file: the serialized form, or a
// whole settings document whose SavedItems are used
func snippetsFromFile(data []byte) ([]snippet.Snippet, error) {
	items, err := snippet.FromSerializedForm(string(data))
	if err == nil {
		return items, nil
	}

	blob, xmlErr := settings.Unmarshal(data)
	if xmlErr != nil {
		return nil, err
	}
	return snippet.FromSerializedForm(blob.SavedItems)
}
