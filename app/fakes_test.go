package app

import (
	"errors"
	"sync"
	"testing"
	"time"

	"markestedt/cliphoard/hotkey"
	"markestedt/cliphoard/intent"
	"markestedt/cliphoard/popup"
	"markestedt/cliphoard/storage"
)

type fakeRegistrar struct {
	mu       sync.Mutex
	bindings map[string]*fakeBinding
	taken    map[string]bool
}

type fakeBinding struct {
	r   *fakeRegistrar
	key string
	ch  chan struct{}
}

func newFakeRegistrar() *fakeRegistrar {
	return &fakeRegistrar{bindings: map[string]*fakeBinding{}, taken: map[string]bool{}}
}

func (r *fakeRegistrar) Register(c hotkey.Combination) (hotkey.Binding, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	key := c.String()
	if r.taken[key] {
		return nil, errors.New("hotkey already registered by another process")
	}
	b := &fakeBinding{r: r, key: key, ch: make(chan struct{}, 1)}
	r.bindings[key] = b
	return b, nil
}

func (r *fakeRegistrar) press(t *testing.T, c hotkey.Combination) {
	t.Helper()
	r.mu.Lock()
	b, ok := r.bindings[c.String()]
	r.mu.Unlock()
	if !ok {
		t.Fatalf("hotkey %s is not registered", c)
	}
	b.ch <- struct{}{}
}

func (r *fakeRegistrar) registered(c hotkey.Combination) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.bindings[c.String()]
	return ok
}

func (b *fakeBinding) Keydown() <-chan struct{} { return b.ch }

func (b *fakeBinding) Unregister() error {
	b.r.mu.Lock()
	defer b.r.mu.Unlock()
	delete(b.r.bindings, b.key)
	return nil
}

type fakeClipboard struct {
	mu     sync.Mutex
	value  string
	sets   int
	setErr error
}

func (c *fakeClipboard) Set(text string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.setErr != nil {
		return c.setErr
	}
	c.value = text
	c.sets++
	return nil
}

func (c *fakeClipboard) Clear() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.value = ""
	return nil
}

func (c *fakeClipboard) get() (string, int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.value, c.sets
}

type fakePaster struct {
	clip   *fakeClipboard
	mu     sync.Mutex
	pasted []string
}

func (p *fakePaster) Paste() error {
	value, _ := p.clip.get()
	p.mu.Lock()
	defer p.mu.Unlock()
	p.pasted = append(p.pasted, value)
	return nil
}

func (p *fakePaster) all() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]string(nil), p.pasted...)
}

type fakeView struct {
	shown  chan popup.Popup
	mu     sync.Mutex
	closed []string
}

func newFakeView() *fakeView {
	return &fakeView{shown: make(chan popup.Popup, 16)}
}

func (v *fakeView) Show(p popup.Popup) error {
	v.shown <- p
	return nil
}

func (v *fakeView) Close(id string) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.closed = append(v.closed, id)
}

func (v *fakeView) wasClosed(id string) bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	for _, c := range v.closed {
		if c == id {
			return true
		}
	}
	return false
}

func (v *fakeView) next(t *testing.T) popup.Popup {
	t.Helper()
	select {
	case p := <-v.shown:
		return p
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for popup")
		return popup.Popup{}
	}
}

type fakeAutostart struct {
	mu      sync.Mutex
	enabled bool
	err     error
}

func (a *fakeAutostart) IsEnabled() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.enabled
}

func (a *fakeAutostart) Enable() error  { return a.set(true) }
func (a *fakeAutostart) Disable() error { return a.set(false) }

func (a *fakeAutostart) set(v bool) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.err != nil {
		return a.err
	}
	a.enabled = v
	return nil
}

type fakeUsage struct {
	mu     sync.Mutex
	events []storage.CopyEvent
}

func (u *fakeUsage) SaveCopy(c *storage.CopyEvent) error {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.events = append(u.events, *c)
	return nil
}

func (u *fakeUsage) all() []storage.CopyEvent {
	u.mu.Lock()
	defer u.mu.Unlock()
	return append([]storage.CopyEvent(nil), u.events...)
}

type recordingListener struct {
	mu      sync.Mutex
	states  []intent.State
	notices []intent.Notice
}

func (l *recordingListener) StateChanged(s intent.State) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.states = append(l.states, s)
}

func (l *recordingListener) Notify(n intent.Notice) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.notices = append(l.notices, n)
}

func (l *recordingListener) allNotices() []intent.Notice {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]intent.Notice(nil), l.notices...)
}

// waitFor polls cond until it holds or a second passes
func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatalf("timed out waiting for %s", what)
		}
		time.Sleep(5 * time.Millisecond)
	}
}
