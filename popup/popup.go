// Package popup implements the transient selection list protocol: at most one
// live popup, replaced (never stacked) by the most recent trigger.
package popup

import (
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
)

var (
	// ErrStale is returned for a selection against a popup that is no longer live
	ErrStale = errors.New("popup is no longer open")
	// ErrIndex is returned for a selection outside the popup's list
	ErrIndex = errors.New("popup selection out of range")
	// ErrNoView is returned by Open before a view is attached
	ErrNoView = errors.New("no popup view attached")
)

// Placement is where the popup appears
type Placement int

const (
	Centered Placement = iota
	AtCursor
)

func (p Placement) String() string {
	if p == AtCursor {
		return "cursor"
	}
	return "center"
}

// MarshalText renders the placement as "cursor" or "center"
func (p Placement) MarshalText() ([]byte, error) {
	return []byte(p.String()), nil
}

// Popup is one shown selection list. Titles is a snapshot taken when it opened.
type Popup struct {
	ID               string    `json:"id"`
	Titles           []string  `json:"titles"`
	Placement        Placement `json:"placement"`
	CloseOnSelection bool      `json:"closeOnSelection"`
	OpenedAt         time.Time `json:"openedAt"`
}

// View renders popups. Implementations report back through Host.Select and
// Host.Dismiss from any goroutine.
type View interface {
	Show(p Popup) error
	Close(id string)
}

// EventType is the kind of popup outcome
type EventType int

const (
	Selected EventType = iota
	Dismissed
)

// Event is a user outcome for a popup
type Event struct {
	Type    EventType
	PopupID string
	Index   int
}

// Host owns the single live popup and publishes user outcomes
type Host struct {
	events chan Event

	mu   sync.Mutex
	view View
	live *Popup
}

// NewHost creates a host rendering through view. view may be nil until
// SetView is called.
func NewHost(view View) *Host {
	return &Host{
		events: make(chan Event, 16),
		view:   view,
	}
}

// SetView replaces the view. Views that report back to the host are
// created after it and attached here.
func (h *Host) SetView(view View) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.view = view
}

func (h *Host) currentView() View {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.view == nil {
		return noView{}
	}
	return h.view
}

type noView struct{}

func (noView) Show(Popup) error { return ErrNoView }
func (noView) Close(string)     {}

// Events delivers selections and dismissals of the live popup
func (h *Host) Events() <-chan Event {
	return h.events
}

// Open closes any live popup, then shows a new one listing titles
func (h *Host) Open(titles []string, placement Placement, closeOnSelection bool) (Popup, error) {
	p := Popup{
		ID:               uuid.New().String(),
		Titles:           append([]string(nil), titles...),
		Placement:        placement,
		CloseOnSelection: closeOnSelection,
		OpenedAt:         time.Now(),
	}

	h.mu.Lock()
	prev := h.live
	h.live = &p
	h.mu.Unlock()

	if prev != nil {
		slog.Debug("Replacing open popup", "popup", prev.ID)
		h.currentView().Close(prev.ID)
	}

	if err := h.currentView().Show(p); err != nil {
		h.mu.Lock()
		if h.live != nil && h.live.ID == p.ID {
			h.live = nil
		}
		h.mu.Unlock()
		return Popup{}, err
	}

	return p, nil
}

// Live returns the open popup, if any
func (h *Host) Live() (Popup, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.live == nil {
		return Popup{}, false
	}
	return *h.live, true
}

// Select records the user picking index in popup id
func (h *Host) Select(id string, index int) error {
	h.mu.Lock()
	live := h.live
	h.mu.Unlock()

	if live == nil || live.ID != id {
		return ErrStale
	}
	if index < 0 || index >= len(live.Titles) {
		return ErrIndex
	}

	h.events <- Event{Type: Selected, PopupID: id, Index: index}
	return nil
}

// Dismiss records the user closing popup id without a selection
func (h *Host) Dismiss(id string) error {
	h.mu.Lock()
	if h.live == nil || h.live.ID != id {
		h.mu.Unlock()
		return ErrStale
	}
	h.live = nil
	h.mu.Unlock()

	h.currentView().Close(id)
	h.events <- Event{Type: Dismissed, PopupID: id, Index: -1}
	return nil
}

// CloseLive closes popup id if it is still the live one
func (h *Host) CloseLive(id string) {
	h.mu.Lock()
	if h.live == nil || h.live.ID != id {
		h.mu.Unlock()
		return
	}
	h.live = nil
	h.mu.Unlock()

	h.currentView().Close(id)
}

// Close closes whatever popup is open
func (h *Host) Close() {
	h.mu.Lock()
	live := h.live
	h.live = nil
	h.mu.Unlock()

	if live != nil {
		h.currentView().Close(live.ID)
	}
}
