package popup

import (
	"errors"
	"reflect"
	"sync"
	"testing"
	"time"
)

type recordingView struct {
	mu      sync.Mutex
	shown   []Popup
	closed  []string
	showErr error
}

func (v *recordingView) Show(p Popup) error {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.showErr != nil {
		return v.showErr
	}
	v.shown = append(v.shown, p)
	return nil
}

func (v *recordingView) Close(id string) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.closed = append(v.closed, id)
}

func nextEvent(t *testing.T, h *Host) Event {
	t.Helper()
	select {
	case ev := <-h.Events():
		return ev
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for popup event")
		return Event{}
	}
}

func TestOpenReplacesLivePopup(t *testing.T) {
	view := &recordingView{}
	h := NewHost(view)

	first, err := h.Open([]string{"A"}, Centered, true)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	second, err := h.Open([]string{"A", "B"}, AtCursor, true)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}

	if first.ID == second.ID {
		t.Fatal("popups share an ID")
	}
	if !reflect.DeepEqual(view.closed, []string{first.ID}) {
		t.Fatalf("closed = %v, want the first popup", view.closed)
	}
	live, ok := h.Live()
	if !ok || live.ID != second.ID || live.Placement != AtCursor {
		t.Fatalf("live popup = %+v, %v", live, ok)
	}

	if err := h.Select(first.ID, 0); !errors.Is(err, ErrStale) {
		t.Fatalf("selection on replaced popup: %v, want ErrStale", err)
	}
}

func TestSelectPublishesEvent(t *testing.T) {
	h := NewHost(&recordingView{})
	p, _ := h.Open([]string{"A", "B", "C"}, Centered, false)

	if err := h.Select(p.ID, 2); err != nil {
		t.Fatalf("Select: %v", err)
	}
	ev := nextEvent(t, h)
	if ev.Type != Selected || ev.PopupID != p.ID || ev.Index != 2 {
		t.Fatalf("event = %+v", ev)
	}

	// still open: repeated selections are allowed until closed
	if err := h.Select(p.ID, 0); err != nil {
		t.Fatalf("second Select: %v", err)
	}
	if ev := nextEvent(t, h); ev.Index != 0 {
		t.Fatalf("second event = %+v", ev)
	}
}

func TestSelectOutOfRange(t *testing.T) {
	h := NewHost(&recordingView{})
	p, _ := h.Open([]string{"A"}, Centered, true)

	for _, idx := range []int{-1, 1, 10} {
		if err := h.Select(p.ID, idx); !errors.Is(err, ErrIndex) {
			t.Errorf("Select(%d) = %v, want ErrIndex", idx, err)
		}
	}
}

func TestDismiss(t *testing.T) {
	view := &recordingView{}
	h := NewHost(view)
	p, _ := h.Open([]string{"A"}, Centered, true)

	if err := h.Dismiss(p.ID); err != nil {
		t.Fatalf("Dismiss: %v", err)
	}
	ev := nextEvent(t, h)
	if ev.Type != Dismissed || ev.PopupID != p.ID {
		t.Fatalf("event = %+v", ev)
	}
	if _, ok := h.Live(); ok {
		t.Fatal("popup still live after dismiss")
	}
	if err := h.Dismiss(p.ID); !errors.Is(err, ErrStale) {
		t.Fatalf("second Dismiss = %v, want ErrStale", err)
	}
}

func TestCloseLiveIgnoresOtherPopups(t *testing.T) {
	view := &recordingView{}
	h := NewHost(view)
	first, _ := h.Open([]string{"A"}, Centered, true)
	second, _ := h.Open([]string{"A"}, Centered, true)

	h.CloseLive(first.ID)
	if live, ok := h.Live(); !ok || live.ID != second.ID {
		t.Fatal("closing a replaced popup closed the live one")
	}

	h.CloseLive(second.ID)
	if _, ok := h.Live(); ok {
		t.Fatal("popup still live")
	}
}

func TestOpenShowFailure(t *testing.T) {
	h := NewHost(&recordingView{showErr: errors.New("no display")})
	if _, err := h.Open([]string{"A"}, Centered, true); err == nil {
		t.Fatal("expected error")
	}
	if _, ok := h.Live(); ok {
		t.Fatal("failed popup left live")
	}
}

func TestTitlesAreCopied(t *testing.T) {
	h := NewHost(&recordingView{})
	titles := []string{"A", "B"}
	p, _ := h.Open(titles, Centered, true)
	titles[0] = "changed"
	if p.Titles[0] != "A" {
		t.Fatal("popup shares the caller's title slice")
	}
}

func TestOpenWithoutView(t *testing.T) {
	h := NewHost(nil)
	if _, err := h.Open([]string{"A"}, Centered, true); !errors.Is(err, ErrNoView) {
		t.Fatalf("Open = %v, want ErrNoView", err)
	}

	view := &recordingView{}
	h.SetView(view)
	if _, err := h.Open([]string{"A"}, Centered, true); err != nil {
		t.Fatalf("Open after SetView: %v", err)
	}
	if len(view.shown) != 1 {
		t.Fatalf("shown = %d", len(view.shown))
	}
}
