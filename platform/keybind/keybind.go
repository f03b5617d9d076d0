// Package keybind registers global hotkeys with the operating system through
// golang.design/x/hotkey.
package keybind

import (
	"fmt"
	"runtime"
	"sync"

	xhotkey "golang.design/x/hotkey"

	"markestedt/cliphoard/hotkey"
)

var keys = map[string]xhotkey.Key{
	"A": xhotkey.KeyA, "B": xhotkey.KeyB, "C": xhotkey.KeyC, "D": xhotkey.KeyD,
	"E": xhotkey.KeyE, "F": xhotkey.KeyF, "G": xhotkey.KeyG, "H": xhotkey.KeyH,
	"I": xhotkey.KeyI, "J": xhotkey.KeyJ, "K": xhotkey.KeyK, "L": xhotkey.KeyL,
	"M": xhotkey.KeyM, "N": xhotkey.KeyN, "O": xhotkey.KeyO, "P": xhotkey.KeyP,
	"Q": xhotkey.KeyQ, "R": xhotkey.KeyR, "S": xhotkey.KeyS, "T": xhotkey.KeyT,
	"U": xhotkey.KeyU, "V": xhotkey.KeyV, "W": xhotkey.KeyW, "X": xhotkey.KeyX,
	"Y": xhotkey.KeyY, "Z": xhotkey.KeyZ,
	"0": xhotkey.Key0, "1": xhotkey.Key1, "2": xhotkey.Key2, "3": xhotkey.Key3,
	"4": xhotkey.Key4, "5": xhotkey.Key5, "6": xhotkey.Key6, "7": xhotkey.Key7,
	"8": xhotkey.Key8, "9": xhotkey.Key9,
	"F1": xhotkey.KeyF1, "F2": xhotkey.KeyF2, "F3": xhotkey.KeyF3, "F4": xhotkey.KeyF4,
	"F5": xhotkey.KeyF5, "F6": xhotkey.KeyF6, "F7": xhotkey.KeyF7, "F8": xhotkey.KeyF8,
	"F9": xhotkey.KeyF9, "F10": xhotkey.KeyF10, "F11": xhotkey.KeyF11, "F12": xhotkey.KeyF12,
	"Space":  xhotkey.KeySpace,
	"Return": xhotkey.KeyReturn,
	"Escape": xhotkey.KeyEscape,
	"Delete": xhotkey.KeyDelete,
	"Tab":    xhotkey.KeyTab,
	"Left":   xhotkey.KeyLeft,
	"Right":  xhotkey.KeyRight,
	"Up":     xhotkey.KeyUp,
	"Down":   xhotkey.KeyDown,
}

func init() {
	for name, key := range platformKeys {
		keys[name] = key
	}
}

// Registrar implements hotkey.Registrar for the running desktop session
type Registrar struct{}

// NewRegistrar creates a registrar
func NewRegistrar() *Registrar {
	return &Registrar{}
}

// Register grabs c globally. c.Key must already be normalized.
func (r *Registrar) Register(c hotkey.Combination) (hotkey.Binding, error) {
	if unavailableKeys[c.Key] {
		return nil, fmt.Errorf("%w: %q cannot be bound on %s", hotkey.ErrUnknownKey, c.Key, runtime.GOOS)
	}
	key, ok := keys[c.Key]
	if !ok {
		return nil, fmt.Errorf("%w: %q", hotkey.ErrUnknownKey, c.Key)
	}

	var mods []xhotkey.Modifier
	if c.Ctrl {
		mods = append(mods, modifierMap[modCtrl])
	}
	if c.Alt {
		mods = append(mods, modifierMap[modAlt])
	}
	if c.Shift {
		mods = append(mods, modifierMap[modShift])
	}

	hk := xhotkey.New(mods, key)
	if err := hk.Register(); err != nil {
		return nil, err
	}

	b := &binding{
		hk:      hk,
		keydown: make(chan struct{}, 1),
		done:    make(chan struct{}),
	}
	b.wg.Add(1)
	go b.forward()
	return b, nil
}

type binding struct {
	hk      *xhotkey.Hotkey
	keydown chan struct{}
	done    chan struct{}
	once    sync.Once
	wg      sync.WaitGroup
}

func (b *binding) Keydown() <-chan struct{} {
	return b.keydown
}

func (b *binding) Unregister() error {
	var err error
	b.once.Do(func() {
		close(b.done)
		err = b.hk.Unregister()
		b.wg.Wait()
	})
	return err
}

func (b *binding) forward() {
	defer b.wg.Done()
	events := b.hk.Keydown()
	for {
		select {
		case <-b.done:
			return
		case _, ok := <-events:
			if !ok {
				return
			}
			select {
			case b.keydown <- struct{}{}:
			case <-b.done:
				return
			}
		}
	}
}
