// Package intent is the vocabulary between user-facing surfaces (tray,
// dashboard, popup menu) and the controller that owns application state.
package intent

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"markestedt/cliphoard/hotkey"
	"markestedt/cliphoard/popup"
	"markestedt/cliphoard/snippet"
)

var (
	// ErrInvalid is wrapped by errors caused by bad intent arguments
	ErrInvalid = errors.New("invalid request")
	// ErrStopped is returned by Dispatch once the controller has exited
	ErrStopped = errors.New("controller stopped")
)

// Kind identifies a user intent
type Kind int

const (
	NewList Kind = iota
	OpenFile
	SaveFile
	ToggleOption
	SetHotkey
	SelectSnippet
	Exit
	AddSnippet
	RemoveSnippet
	ReplaceSnippets
	SetPasteDelay
	SaveSettings
	Snapshot
)

var kindNames = [...]string{
	NewList:         "new_list",
	OpenFile:        "open_file",
	SaveFile:        "save_file",
	ToggleOption:    "toggle_option",
	SetHotkey:       "set_hotkey",
	SelectSnippet:   "select_snippet",
	Exit:            "exit",
	AddSnippet:      "add_snippet",
	RemoveSnippet:   "remove_snippet",
	ReplaceSnippets: "replace_snippets",
	SetPasteDelay:   "set_paste_delay",
	SaveSettings:    "save_settings",
	Snapshot:        "snapshot",
}

func (k Kind) String() string {
	if k >= 0 && int(k) < len(kindNames) {
		return kindNames[k]
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// Option is a boolean setting toggled with ToggleOption
type Option int

const (
	TopMost Option = iota
	OpenPopupAtCursor
	ClosePopupOnSelection
	StartAtLogon
)

var optionNames = map[Option]string{
	TopMost:               "topMost",
	OpenPopupAtCursor:     "openPopupAtCursor",
	ClosePopupOnSelection: "closePopupOnSelection",
	StartAtLogon:          "startAtLogon",
}

func (o Option) String() string {
	if name, ok := optionNames[o]; ok {
		return name
	}
	return fmt.Sprintf("option(%d)", int(o))
}

// ParseOption maps an option name, case-insensitively, to an Option
func ParseOption(name string) (Option, error) {
	for o, n := range optionNames {
		if strings.EqualFold(n, name) {
			return o, nil
		}
	}
	return 0, fmt.Errorf("unknown option: %s", name)
}

// Intent is one user request. Only the fields relevant to Kind are read.
type Intent struct {
	Kind Kind

	// Path names the snippet list file for OpenFile and SaveFile
	Path string
	// Option and Value apply to ToggleOption; nil Value flips the option
	Option Option
	Value  *bool
	// Hotkey applies to SetHotkey
	Hotkey hotkey.Combination
	// Index applies to SelectSnippet and RemoveSnippet
	Index int
	// Paste overrides AutoPasteDelay > 0 for SelectSnippet when set
	Paste *bool
	// Snippet applies to AddSnippet; Snippets to ReplaceSnippets
	Snippet  snippet.Snippet
	Snippets []snippet.Snippet
	// Delay applies to SetPasteDelay
	Delay time.Duration
}

// State is a point-in-time copy of everything a surface renders
type State struct {
	TopMost               bool               `json:"topMost"`
	OpenPopupAtCursor     bool               `json:"openPopupAtCursor"`
	ClosePopupOnSelection bool               `json:"closePopupOnSelection"`
	StartAtLogon          bool               `json:"startAtLogon"`
	Hotkey                hotkey.Combination `json:"hotkey"`
	HotkeyActive          bool               `json:"hotkeyActive"`
	AutoPasteDelayMs      int                `json:"autoPasteDelayMs"`
	Snippets              []snippet.Snippet  `json:"snippets"`
	Items                 int                `json:"items"`
	Copied                int                `json:"copied"`
	SettingsPath          string             `json:"settingsPath"`
	Popup                 *popup.Popup       `json:"popup,omitempty"`
}

// Level is the severity of a Notice
type Level string

const (
	Info    Level = "info"
	Warning Level = "warning"
	Failure Level = "error"
)

// Notice is a non-blocking message for the user
type Notice struct {
	Level   Level     `json:"level"`
	Message string    `json:"message"`
	Time    time.Time `json:"time"`
}

// Dispatcher accepts intents and replies with the resulting state
type Dispatcher interface {
	Dispatch(ctx context.Context, in Intent) (State, error)
}

// Listener is told about state changes and notices. Calls come from the
// controller goroutine and must not block.
type Listener interface {
	StateChanged(s State)
	Notify(n Notice)
}

// Bool returns a pointer to v, for Intent.Value and Intent.Paste
func Bool(v bool) *bool {
	return &v
}
