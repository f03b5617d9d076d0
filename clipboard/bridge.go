// Package clipboard sequences clipboard writes and the deferred paste
// keystroke that may follow them.
package clipboard

import (
	"fmt"
	"log/slog"
	"sync"
	"time"
)

// Writer is the system clipboard
type Writer interface {
	Set(text string) error
	Clear() error
}

// Paster injects a paste keystroke into the focused window
type Paster interface {
	Paste() error
}

// Error reports a failed clipboard or paste operation
type Error struct {
	Op  string
	Err error
}

func (e *Error) Error() string {
	return fmt.Sprintf("clipboard %s failed: %v", e.Op, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

type afterFunc func(d time.Duration, f func()) (stop func() bool)

func timeAfterFunc(d time.Duration, f func()) func() bool {
	return time.AfterFunc(d, f).Stop
}

// Bridge copies values to the clipboard and schedules at most one pending
// paste. A newer request supersedes the pending one.
type Bridge struct {
	clip   Writer
	paster Paster
	after  afterFunc

	due  chan uint64
	done chan struct{}
	once sync.Once

	mu      sync.Mutex
	gen     uint64
	pending bool
	stop    func() bool
	copied  int
}

// NewBridge creates a bridge over clip and paster
func NewBridge(clip Writer, paster Paster) *Bridge {
	return &Bridge{
		clip:   clip,
		paster: paster,
		after:  timeAfterFunc,
		due:    make(chan uint64),
		done:   make(chan struct{}),
	}
}

// Due delivers the token of a paste whose delay has elapsed. The owner
// passes it to Fire.
func (b *Bridge) Due() <-chan uint64 {
	return b.due
}

// CopyAndMaybePaste cancels any pending paste, replaces the clipboard
// content with value and, when paste is set, schedules a paste after delay.
// A zero delay still defers the paste.
func (b *Bridge) CopyAndMaybePaste(value string, delay time.Duration, paste bool) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.cancelLocked()

	// Emptying first drops formats other than text held by the previous owner
	if err := b.clip.Clear(); err != nil {
		return &Error{Op: "clear", Err: err}
	}
	if err := b.clip.Set(value); err != nil {
		return &Error{Op: "set", Err: err}
	}
	b.copied++

	if !paste {
		return nil
	}

	token := b.gen
	b.pending = true
	b.stop = b.after(delay, func() {
		select {
		case b.due <- token:
		case <-b.done:
		}
	})
	slog.Debug("Paste scheduled", "delay", delay, "token", token)
	return nil
}

// Fire pastes if token is still the pending paste. It reports whether a
// paste was attempted.
func (b *Bridge) Fire(token uint64) (bool, error) {
	b.mu.Lock()
	if !b.pending || token != b.gen {
		b.mu.Unlock()
		slog.Debug("Ignoring superseded paste", "token", token)
		return false, nil
	}
	b.pending = false
	b.stop = nil
	b.mu.Unlock()

	if err := b.paster.Paste(); err != nil {
		return true, &Error{Op: "paste", Err: err}
	}
	return true, nil
}

// Pending reports whether a paste is scheduled
func (b *Bridge) Pending() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.pending
}

// Copied returns the number of successful copies
func (b *Bridge) Copied() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.copied
}

// Cancel drops the pending paste, if any
func (b *Bridge) Cancel() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.cancelLocked()
}

// Close cancels the pending paste and releases timer goroutines
func (b *Bridge) Close() {
	b.Cancel()
	b.once.Do(func() { close(b.done) })
}

func (b *Bridge) cancelLocked() {
	b.gen++
	b.pending = false
	if b.stop != nil {
		b.stop()
		b.stop = nil
	}
}
