// Package hotkey owns the single global hotkey slot: it re-registers the
// combination with the OS whenever it changes and forwards key presses as
// payload-free trigger events.
package hotkey

import (
	"fmt"
	"log/slog"
	"sync"
)

// Binding is a live OS registration of one combination
type Binding interface {
	// Keydown delivers one value per press of the registered combination
	Keydown() <-chan struct{}
	Unregister() error
}

// Registrar registers combinations with the operating system
type Registrar interface {
	Register(c Combination) (Binding, error)
}

// Error reports a failed registration or unregistration. It is never fatal:
// the manager is left without an active binding until the next SetCombination.
type Error struct {
	Op          string
	Combination Combination
	Err         error
}

func (e *Error) Error() string {
	return fmt.Sprintf("failed to %s hotkey %s: %v", e.Op, e.Combination, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Manager holds at most one registered combination
type Manager struct {
	registrar Registrar

	mu        sync.Mutex
	current   Combination
	binding   Binding
	stop      chan struct{}
	wg        sync.WaitGroup
	triggered chan struct{}
}

// NewManager creates a manager with nothing registered
func NewManager(registrar Registrar) *Manager {
	return &Manager{
		registrar: registrar,
		triggered: make(chan struct{}, 8),
	}
}

// Triggered delivers one event per press of the registered combination
func (m *Manager) Triggered() <-chan struct{} {
	return m.triggered
}

// Current returns the most recently requested combination
func (m *Manager) Current() Combination {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.current
}

// Active reports whether a combination is currently registered with the OS
func (m *Manager) Active() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.binding != nil
}

// SetCombination tears down the previous registration and registers c.
// A disabled combination only tears down. Unregistration failures are
// swallowed; a registration failure is returned as *Error.
func (m *Manager) SetCombination(c Combination) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.unregisterLocked(); err != nil {
		slog.Debug("Ignoring hotkey unregistration failure", "error", err)
	}

	m.current = c
	if !c.Enabled() {
		slog.Info("Hotkey disabled")
		return nil
	}

	key, err := NormalizeKey(c.Key)
	if err != nil {
		return &Error{Op: "register", Combination: c, Err: err}
	}
	c.Key = key

	binding, err := m.registrar.Register(c)
	if err != nil {
		return &Error{Op: "register", Combination: c, Err: err}
	}

	m.binding = binding
	m.stop = make(chan struct{})
	m.wg.Add(1)
	go m.forward(binding.Keydown(), m.stop)

	slog.Info("Hotkey registered", "hotkey", c.String())
	return nil
}

// UnregisterCurrent removes the active registration, if any
func (m *Manager) UnregisterCurrent() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.unregisterLocked()
}

// Close unregisters and waits for the forwarding goroutine to exit
func (m *Manager) Close() error {
	err := m.UnregisterCurrent()
	m.wg.Wait()
	return err
}

func (m *Manager) unregisterLocked() error {
	if m.binding == nil {
		return nil
	}

	close(m.stop)
	binding := m.binding
	m.binding = nil
	m.stop = nil

	if err := binding.Unregister(); err != nil {
		return &Error{Op: "unregister", Combination: m.current, Err: err}
	}
	return nil
}

func (m *Manager) forward(keydown <-chan struct{}, stop <-chan struct{}) {
	defer m.wg.Done()
	for {
		select {
		case <-stop:
			return
		case _, ok := <-keydown:
			if !ok {
				return
			}
			select {
			case <-stop:
				return
			default:
			}
			select {
			case m.triggered <- struct{}{}:
			case <-stop:
				return
			}
		}
	}
}
