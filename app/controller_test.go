package app

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"markestedt/cliphoard/hotkey"
	"markestedt/cliphoard/intent"
	"markestedt/cliphoard/platform"
	"markestedt/cliphoard/popup"
	"markestedt/cliphoard/settings"
	"markestedt/cliphoard/snippet"
)

type harness struct {
	c         *Controller
	registrar *fakeRegistrar
	clip      *fakeClipboard
	paster    *fakePaster
	view      *fakeView
	host      *popup.Host
	usage     *fakeUsage
	autostart *fakeAutostart
	listener  *recordingListener
	errc      chan error
	cancel    context.CancelFunc
}

func start(t *testing.T, settingsPath string, configure ...func(*Options)) *harness {
	t.Helper()

	clip := &fakeClipboard{}
	h := &harness{
		registrar: newFakeRegistrar(),
		clip:      clip,
		paster:    &fakePaster{clip: clip},
		view:      newFakeView(),
		usage:     &fakeUsage{},
		autostart: &fakeAutostart{},
		listener:  &recordingListener{},
		errc:      make(chan error, 1),
	}
	h.host = popup.NewHost(h.view)
	opts := Options{
		SettingsPath: settingsPath,
		Registrar:    h.registrar,
		Clipboard:    h.clip,
		Paster:       h.paster,
		Popups:       h.host,
		Usage:        h.usage,
		Autostart:    h.autostart,
	}
	for _, fn := range configure {
		fn(&opts)
	}
	h.c = New(opts)
	h.c.AddListener(h.listener)

	ctx, cancel := context.WithCancel(context.Background())
	h.cancel = cancel
	go func() { h.errc <- h.c.Run(ctx) }()
	t.Cleanup(func() {
		cancel()
		<-h.c.Done()
	})

	// wait for startup to finish
	h.dispatch(t, intent.Intent{Kind: intent.Snapshot})
	return h
}

func (h *harness) dispatch(t *testing.T, in intent.Intent) intent.State {
	t.Helper()
	s, err := h.try(in)
	if err != nil {
		t.Fatalf("Dispatch(%s): %v", in.Kind, err)
	}
	return s
}

func (h *harness) try(in intent.Intent) (intent.State, error) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	return h.c.Dispatch(ctx, in)
}

func (h *harness) stop(t *testing.T) error {
	t.Helper()
	_, err := h.try(intent.Intent{Kind: intent.Exit})
	select {
	case runErr := <-h.errc:
		if !errors.Is(runErr, err) && runErr != err {
			t.Fatalf("Run returned %v, Exit returned %v", runErr, err)
		}
	case <-time.After(time.Second):
		t.Fatal("Run did not return after Exit")
	}
	return err
}

func writeSettings(t *testing.T, path string, blob *settings.Blob) {
	t.Helper()
	if err := settings.Save(path, blob); err != nil {
		t.Fatalf("Save: %v", err)
	}
}

func blobWith(s settings.Settings, items ...snippet.Snippet) *settings.Blob {
	payload, _ := snippet.Serialize(items)
	return &settings.Blob{Settings: s, SavedItems: payload}
}

var ctrlAltH = hotkey.Combination{Ctrl: true, Alt: true, Key: "H"}

func TestFirstRunCreatesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), settings.FileName("ClipHoard"))
	h := start(t, path)

	if _, err := os.Stat(path); err != nil {
		t.Fatalf("settings file not created: %v", err)
	}
	s := h.dispatch(t, intent.Intent{Kind: intent.Snapshot})
	if s.Items != 0 || s.HotkeyActive || s.AutoPasteDelayMs != 0 {
		t.Fatalf("unexpected first-run state %+v", s)
	}
	if len(h.listener.allNotices()) != 0 {
		t.Fatalf("unexpected notices %+v", h.listener.allNotices())
	}
}

func TestRestartScenario(t *testing.T) {
	path := filepath.Join(t.TempDir(), settings.FileName("ClipHoard"))

	first := start(t, path)
	first.dispatch(t, intent.Intent{Kind: intent.AddSnippet, Snippet: snippet.Snippet{Title: "Email", Value: "me@example.com"}})
	s := first.dispatch(t, intent.Intent{Kind: intent.SetHotkey, Hotkey: hotkey.Combination{Ctrl: true, Alt: true, Key: "h"}})
	if !s.HotkeyActive || s.Hotkey != ctrlAltH {
		t.Fatalf("hotkey state = %+v, active %v", s.Hotkey, s.HotkeyActive)
	}
	if err := first.stop(t); err != nil {
		t.Fatalf("Exit: %v", err)
	}
	if first.registrar.registered(ctrlAltH) {
		t.Fatal("hotkey still registered after exit")
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	for _, want := range []string{"<Control>true</Control>", "<Alt>true</Alt>", "<Hotkey>H</Hotkey>", "me@example.com"} {
		if !strings.Contains(string(data), want) {
			t.Errorf("saved file lacks %s:\n%s", want, data)
		}
	}

	second := start(t, path)
	s = second.dispatch(t, intent.Intent{Kind: intent.Snapshot})
	if s.Items != 1 || s.Snippets[0].Title != "Email" || !s.HotkeyActive {
		t.Fatalf("restored state = %+v", s)
	}

	second.registrar.press(t, ctrlAltH)
	p := second.view.next(t)
	if len(p.Titles) != 1 || p.Titles[0] != "Email" || p.Placement != popup.Centered {
		t.Fatalf("popup = %+v", p)
	}

	if err := second.host.Select(p.ID, 0); err != nil {
		t.Fatalf("Select: %v", err)
	}
	waitFor(t, "clipboard copy", func() bool {
		v, _ := second.clip.get()
		return v == "me@example.com"
	})

	time.Sleep(30 * time.Millisecond)
	if got := second.paster.all(); len(got) != 0 {
		t.Fatalf("auto-paste with zero delay: %v", got)
	}
	if events := second.usage.all(); len(events) != 1 || events[0].Title != "Email" || events[0].PasteScheduled {
		t.Fatalf("usage = %+v", events)
	}
}

func TestSelectionResolvesAgainstSnapshot(t *testing.T) {
	path := filepath.Join(t.TempDir(), "settings.txt")
	writeSettings(t, path, blobWith(
		settings.Settings{Control: true, Alt: true, Hotkey: "H"},
		snippet.Snippet{Title: "A", Value: "alpha"},
		snippet.Snippet{Title: "B", Value: "beta"},
	))
	h := start(t, path)

	h.registrar.press(t, ctrlAltH)
	p := h.view.next(t)

	// mutate the store while the popup is open
	h.dispatch(t, intent.Intent{Kind: intent.RemoveSnippet, Index: 0})
	h.dispatch(t, intent.Intent{Kind: intent.ReplaceSnippets, Snippets: []snippet.Snippet{{Title: "Z", Value: "zeta"}}})

	if err := h.host.Select(p.ID, 1); err != nil {
		t.Fatalf("Select: %v", err)
	}
	waitFor(t, "clipboard copy", func() bool {
		v, _ := h.clip.get()
		return v == "beta"
	})
}

func TestAutoPasteAndCloseOnSelection(t *testing.T) {
	path := filepath.Join(t.TempDir(), "settings.txt")
	writeSettings(t, path, blobWith(
		settings.Settings{Control: true, Alt: true, Hotkey: "H", ClosePopupOnSelection: true, OpenPopupOnCursorLocation: true, AutoPasteDelay: 10},
		snippet.Snippet{Title: "Sig", Value: "Regards"},
	))
	h := start(t, path)

	h.registrar.press(t, ctrlAltH)
	p := h.view.next(t)
	if p.Placement != popup.AtCursor || !p.CloseOnSelection {
		t.Fatalf("popup = %+v", p)
	}

	if err := h.host.Select(p.ID, 0); err != nil {
		t.Fatalf("Select: %v", err)
	}
	waitFor(t, "auto-paste", func() bool { return len(h.paster.all()) == 1 })
	if got := h.paster.all(); got[0] != "Regards" {
		t.Fatalf("pasted %v", got)
	}
	waitFor(t, "popup close", func() bool { return h.view.wasClosed(p.ID) })

	if err := h.host.Select(p.ID, 0); !errors.Is(err, popup.ErrStale) {
		t.Fatalf("selection on closed popup = %v, want ErrStale", err)
	}
}

func TestPopupStaysOpenWithoutCloseOnSelection(t *testing.T) {
	path := filepath.Join(t.TempDir(), "settings.txt")
	writeSettings(t, path, blobWith(
		settings.Settings{Control: true, Alt: true, Hotkey: "H"},
		snippet.Snippet{Title: "A", Value: "alpha"},
		snippet.Snippet{Title: "B", Value: "beta"},
	))
	h := start(t, path)

	h.registrar.press(t, ctrlAltH)
	p := h.view.next(t)

	h.host.Select(p.ID, 0)
	waitFor(t, "first copy", func() bool { v, _ := h.clip.get(); return v == "alpha" })
	if err := h.host.Select(p.ID, 1); err != nil {
		t.Fatalf("second Select: %v", err)
	}
	waitFor(t, "second copy", func() bool { v, _ := h.clip.get(); return v == "beta" })

	s := h.dispatch(t, intent.Intent{Kind: intent.Snapshot})
	if s.Popup == nil || s.Popup.ID != p.ID || s.Copied != 2 {
		t.Fatalf("state = %+v", s)
	}
}

func TestRetriggerReplacesPopup(t *testing.T) {
	path := filepath.Join(t.TempDir(), "settings.txt")
	writeSettings(t, path, blobWith(
		settings.Settings{Control: true, Alt: true, Hotkey: "H"},
		snippet.Snippet{Title: "A", Value: "alpha"},
	))
	h := start(t, path)

	h.registrar.press(t, ctrlAltH)
	first := h.view.next(t)
	h.registrar.press(t, ctrlAltH)
	second := h.view.next(t)

	if !h.view.wasClosed(first.ID) {
		t.Fatal("first popup not closed when replaced")
	}
	if err := h.host.Select(first.ID, 0); !errors.Is(err, popup.ErrStale) {
		t.Fatalf("Select on replaced popup = %v", err)
	}
	if err := h.host.Select(second.ID, 0); err != nil {
		t.Fatalf("Select: %v", err)
	}
	waitFor(t, "copy", func() bool { v, _ := h.clip.get(); return v == "alpha" })
}

func TestCorruptSettingsFileIsBackedUp(t *testing.T) {
	path := filepath.Join(t.TempDir(), "settings.txt")
	corrupt := []byte("<SettingsData><TopMost>maybe")
	if err := os.WriteFile(path, corrupt, 0644); err != nil {
		t.Fatal(err)
	}

	h := start(t, path)

	backup, err := os.ReadFile(path + ".bak")
	if err != nil {
		t.Fatalf("no backup: %v", err)
	}
	if string(backup) != string(corrupt) {
		t.Fatalf("backup = %q", backup)
	}
	notices := h.listener.allNotices()
	if len(notices) != 1 || notices[0].Level != intent.Warning {
		t.Fatalf("notices = %+v", notices)
	}

	s := h.dispatch(t, intent.Intent{Kind: intent.Snapshot})
	if s.Items != 0 || s.TopMost {
		t.Fatalf("state = %+v, want defaults", s)
	}

	if err := h.stop(t); err != nil {
		t.Fatalf("Exit: %v", err)
	}
	if _, err := settings.Load(path); err != nil {
		t.Fatalf("settings not rewritten: %v", err)
	}
}

func TestCorruptSnippetPayload(t *testing.T) {
	path := filepath.Join(t.TempDir(), "settings.txt")
	writeSettings(t, path, &settings.Blob{
		Settings:   settings.Settings{TopMost: true},
		SavedItems: "[{not json",
	})
	h := start(t, path)

	s := h.dispatch(t, intent.Intent{Kind: intent.Snapshot})
	if s.Items != 0 || !s.TopMost {
		t.Fatalf("state = %+v, want settings kept and no snippets", s)
	}
	if len(h.listener.allNotices()) != 1 {
		t.Fatalf("notices = %+v", h.listener.allNotices())
	}
	if _, err := os.Stat(path + ".bak"); err != nil {
		t.Fatalf("no backup: %v", err)
	}
}

func TestHotkeyConflictIsANotice(t *testing.T) {
	path := filepath.Join(t.TempDir(), "settings.txt")
	h := start(t, path)
	h.registrar.mu.Lock()
	h.registrar.taken[ctrlAltH.String()] = true
	h.registrar.mu.Unlock()

	s, err := h.try(intent.Intent{Kind: intent.SetHotkey, Hotkey: ctrlAltH})
	var herr *hotkey.Error
	if !errors.As(err, &herr) {
		t.Fatalf("SetHotkey error = %v, want *hotkey.Error", err)
	}
	if s.HotkeyActive || s.Hotkey != ctrlAltH {
		t.Fatalf("state = %+v", s)
	}
	notices := h.listener.allNotices()
	if len(notices) != 1 || notices[0].Level != intent.Warning {
		t.Fatalf("notices = %+v", notices)
	}

	// the controller keeps running
	h.dispatch(t, intent.Intent{Kind: intent.AddSnippet, Snippet: snippet.Snippet{Title: "x"}})

	s = h.dispatch(t, intent.Intent{Kind: intent.SetHotkey, Hotkey: hotkey.Combination{Key: "none"}})
	if s.HotkeyActive || s.Hotkey.Enabled() {
		t.Fatalf("state after none = %+v", s)
	}
}

func TestUnknownHotkeyKeyIsRejected(t *testing.T) {
	h := start(t, filepath.Join(t.TempDir(), "settings.txt"))

	_, err := h.try(intent.Intent{Kind: intent.SetHotkey, Hotkey: hotkey.Combination{Ctrl: true, Key: "NumLock"}})
	if !errors.Is(err, intent.ErrInvalid) {
		t.Fatalf("error = %v, want ErrInvalid", err)
	}
}

func TestToggleOptions(t *testing.T) {
	h := start(t, filepath.Join(t.TempDir(), "settings.txt"))

	s := h.dispatch(t, intent.Intent{Kind: intent.ToggleOption, Option: intent.TopMost})
	if !s.TopMost {
		t.Fatal("TopMost not toggled on")
	}
	s = h.dispatch(t, intent.Intent{Kind: intent.ToggleOption, Option: intent.TopMost})
	if s.TopMost {
		t.Fatal("TopMost not toggled off")
	}
	s = h.dispatch(t, intent.Intent{Kind: intent.ToggleOption, Option: intent.ClosePopupOnSelection, Value: intent.Bool(true)})
	if !s.ClosePopupOnSelection {
		t.Fatal("ClosePopupOnSelection not set")
	}
	s = h.dispatch(t, intent.Intent{Kind: intent.ToggleOption, Option: intent.OpenPopupAtCursor, Value: intent.Bool(true)})
	if !s.OpenPopupAtCursor {
		t.Fatal("OpenPopupAtCursor not set")
	}

	s = h.dispatch(t, intent.Intent{Kind: intent.ToggleOption, Option: intent.StartAtLogon})
	if !s.StartAtLogon || !h.autostart.IsEnabled() {
		t.Fatal("StartAtLogon not enabled")
	}

	h.autostart.err = errors.New("access denied")
	if _, err := h.try(intent.Intent{Kind: intent.ToggleOption, Option: intent.StartAtLogon}); err == nil {
		t.Fatal("expected autostart error")
	}
}

func TestSetPasteDelay(t *testing.T) {
	h := start(t, filepath.Join(t.TempDir(), "settings.txt"))

	s := h.dispatch(t, intent.Intent{Kind: intent.SetPasteDelay, Delay: 250 * time.Millisecond})
	if s.AutoPasteDelayMs != 250 {
		t.Fatalf("delay = %d", s.AutoPasteDelayMs)
	}
	if _, err := h.try(intent.Intent{Kind: intent.SetPasteDelay, Delay: -time.Second}); !errors.Is(err, intent.ErrInvalid) {
		t.Fatalf("negative delay error = %v", err)
	}
}

func TestSnippetListFiles(t *testing.T) {
	dir := t.TempDir()
	h := start(t, filepath.Join(dir, "settings.txt"))
	listPath := filepath.Join(dir, "list.json")

	h.dispatch(t, intent.Intent{Kind: intent.AddSnippet, Snippet: snippet.Snippet{Title: "A", Value: "1"}})
	h.dispatch(t, intent.Intent{Kind: intent.AddSnippet, Snippet: snippet.Snippet{Title: "B", Value: "2"}})
	h.dispatch(t, intent.Intent{Kind: intent.SaveFile, Path: listPath})

	s := h.dispatch(t, intent.Intent{Kind: intent.NewList})
	if s.Items != 0 {
		t.Fatalf("NewList left %d items", s.Items)
	}

	s = h.dispatch(t, intent.Intent{Kind: intent.OpenFile, Path: listPath})
	if s.Items != 2 || s.Snippets[1].Value != "2" {
		t.Fatalf("opened state = %+v", s)
	}

	// a whole settings document is accepted too
	docPath := filepath.Join(dir, "other-SettingsData.txt")
	writeSettings(t, docPath, blobWith(settings.Settings{}, snippet.Snippet{Title: "C", Value: "3"}))
	s = h.dispatch(t, intent.Intent{Kind: intent.OpenFile, Path: docPath})
	if s.Items != 1 || s.Snippets[0].Title != "C" {
		t.Fatalf("opened settings doc = %+v", s)
	}

	if _, err := h.try(intent.Intent{Kind: intent.OpenFile, Path: filepath.Join(dir, "missing.json")}); err == nil {
		t.Fatal("expected error for missing file")
	}
	garbage := filepath.Join(dir, "garbage.json")
	os.WriteFile(garbage, []byte("not a list"), 0644)
	if _, err := h.try(intent.Intent{Kind: intent.OpenFile, Path: garbage}); err == nil {
		t.Fatal("expected error for garbage file")
	}
	if s := h.dispatch(t, intent.Intent{Kind: intent.Snapshot}); s.Items != 1 {
		t.Fatal("failed open changed the list")
	}
}

func TestSelectSnippetFromDashboard(t *testing.T) {
	path := filepath.Join(t.TempDir(), "settings.txt")
	writeSettings(t, path, blobWith(settings.Settings{AutoPasteDelay: 5}, snippet.Snippet{Title: "A", Value: "alpha"}))
	h := start(t, path)

	h.dispatch(t, intent.Intent{Kind: intent.SelectSnippet, Index: 0, Paste: intent.Bool(false)})
	if v, _ := h.clip.get(); v != "alpha" {
		t.Fatalf("clipboard = %q", v)
	}
	time.Sleep(30 * time.Millisecond)
	if len(h.paster.all()) != 0 {
		t.Fatal("pasted despite override")
	}

	if _, err := h.try(intent.Intent{Kind: intent.SelectSnippet, Index: 3}); !errors.Is(err, intent.ErrInvalid) {
		t.Fatalf("out of range error = %v", err)
	}
}

func TestClipboardFailureIsTyped(t *testing.T) {
	path := filepath.Join(t.TempDir(), "settings.txt")
	writeSettings(t, path, blobWith(settings.Settings{}, snippet.Snippet{Title: "A", Value: "alpha"}))
	h := start(t, path)
	h.clip.mu.Lock()
	h.clip.setErr = errors.New("clipboard locked")
	h.clip.mu.Unlock()

	_, err := h.try(intent.Intent{Kind: intent.SelectSnippet, Index: 0})
	if err == nil || !strings.Contains(err.Error(), "clipboard locked") {
		t.Fatalf("error = %v", err)
	}
	events := h.usage.all()
	if len(events) != 1 || events[0].Success {
		t.Fatalf("usage = %+v", events)
	}
}

type brokenPaster struct{}

func (brokenPaster) Paste() error {
	return platform.NoPaster(errors.New("no virtual keyboard")).Paste()
}

func TestCopyWorksWithoutPaster(t *testing.T) {
	path := filepath.Join(t.TempDir(), "settings.txt")
	writeSettings(t, path, blobWith(
		settings.Settings{Control: true, Alt: true, Hotkey: "H", AutoPasteDelay: 5},
		snippet.Snippet{Title: "Sig", Value: "Regards"},
	))
	h := start(t, path, func(o *Options) { o.Paster = brokenPaster{} })

	h.registrar.press(t, ctrlAltH)
	p := h.view.next(t)
	if err := h.host.Select(p.ID, 0); err != nil {
		t.Fatalf("Select: %v", err)
	}

	waitFor(t, "clipboard", func() bool {
		v, _ := h.clip.get()
		return v == "Regards"
	})
	waitFor(t, "paste notice", func() bool {
		for _, n := range h.listener.allNotices() {
			if n.Level == intent.Warning && strings.Contains(n.Message, "auto-paste is unavailable") {
				return true
			}
		}
		return false
	})

	events := h.usage.all()
	if len(events) != 1 || !events[0].Success {
		t.Fatalf("usage = %+v, want one successful copy", events)
	}

	// dashboard copies still succeed too
	if _, err := h.try(intent.Intent{Kind: intent.SelectSnippet, Index: 0}); err != nil {
		t.Fatalf("SelectSnippet: %v", err)
	}
	if err := h.stop(t); err != nil {
		t.Fatalf("Exit: %v", err)
	}
}

func TestAutosave(t *testing.T) {
	path := filepath.Join(t.TempDir(), "settings.txt")
	h := start(t, path)

	h.dispatch(t, intent.Intent{Kind: intent.AddSnippet, Snippet: snippet.Snippet{Title: "A", Value: "1"}})
	blob, err := settings.Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if blob.SavedItems != "[]" {
		t.Fatalf("saved before exit without autosave: %s", blob.SavedItems)
	}

	h.dispatch(t, intent.Intent{Kind: intent.SaveSettings})
	blob, _ = settings.Load(path)
	items, _ := snippet.FromSerializedForm(blob.SavedItems)
	if len(items) != 1 {
		t.Fatalf("SaveSettings did not write snippets: %s", blob.SavedItems)
	}
}

func TestAutosaveWritesEveryChange(t *testing.T) {
	path := filepath.Join(t.TempDir(), "settings.txt")
	h := start(t, path, func(o *Options) { o.Autosave = true })

	h.dispatch(t, intent.Intent{Kind: intent.AddSnippet, Snippet: snippet.Snippet{Title: "A", Value: "1"}})
	h.dispatch(t, intent.Intent{Kind: intent.ToggleOption, Option: intent.TopMost})

	blob, err := settings.Load(path)
	if err != nil {
		t.Fatal(err)
	}
	items, _ := snippet.FromSerializedForm(blob.SavedItems)
	if len(items) != 1 || !blob.TopMost {
		t.Fatalf("autosaved blob = %+v", blob)
	}
}

func TestDispatchAfterExit(t *testing.T) {
	h := start(t, filepath.Join(t.TempDir(), "settings.txt"))
	if err := h.stop(t); err != nil {
		t.Fatalf("Exit: %v", err)
	}
	if _, err := h.try(intent.Intent{Kind: intent.Snapshot}); !errors.Is(err, intent.ErrStopped) {
		t.Fatalf("Dispatch after exit = %v, want ErrStopped", err)
	}
}

func TestSaveFailureIsReturnedOnExit(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "settings.txt")
	h := start(t, path)

	// a directory where the temp file should go makes the write fail
	if err := os.Mkdir(path+".tmp", 0755); err != nil {
		t.Fatal(err)
	}
	err := h.stop(t)
	var ioErr *settings.IOError
	if !errors.As(err, &ioErr) {
		t.Fatalf("Exit error = %v, want *settings.IOError", err)
	}
}
