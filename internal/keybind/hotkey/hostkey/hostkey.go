// Package hostkey adapts golang.design/x/hotkey into the hotkey.Adapter
// capability: the OS matches the combine itself and only the fired event
// crosses back into this process, so this adapter only supports
// single-combine sequences.
package hostkey

import (
	"context"
	"sync"

	hk "golang.design/x/hotkey"

	"github.com/kerneld-io/kerneld/internal/keybind"
	"github.com/kerneld-io/kerneld/internal/kerrors"
	"github.com/kerneld-io/kerneld/internal/obs"
)

// Adapter registers single-combine sequences with the OS's native hotkey
// facility (RegisterHotKey on Windows; golang.design/x/hotkey's own
// platform backends elsewhere) and reports each match through the publish
// callback given to New.
type Adapter struct {
	mu        sync.Mutex
	handles   map[string]*registration
	publish   func(keybind.KeySequence)
}

type registration struct {
	hk     *hk.Hotkey
	cancel context.CancelFunc
}

// New creates an Adapter. publish is called with the matched sequence every
// time the OS reports the hotkey fired.
func New(publish func(keybind.KeySequence)) *Adapter {
	return &Adapter{handles: make(map[string]*registration), publish: publish}
}

func (a *Adapter) Register(ctx context.Context, seq keybind.KeySequence) error {
	if len(seq) != 1 {
		return kerrors.New(kerrors.Bug, "host hotkey adapter only supports single-combine sequences, got %s", seq)
	}
	mods, key, err := toHotkey(seq[0])
	if err != nil {
		return err
	}

	a.mu.Lock()
	defer a.mu.Unlock()
	name := seq.String()
	if _, exists := a.handles[name]; exists {
		return kerrors.New(kerrors.Conflict, "hotkey %s already registered", seq)
	}

	h := hk.New(mods, key)
	if err := h.Register(); err != nil {
		return kerrors.Wrap(err, "registering host hotkey %s", seq)
	}

	regCtx, cancel := context.WithCancel(ctx)
	a.handles[name] = &registration{hk: h, cancel: cancel}

	go func() {
		for {
			select {
			case <-regCtx.Done():
				return
			case <-h.Keydown():
				a.publish(seq)
			}
		}
	}()
	return nil
}

func (a *Adapter) Unregister(ctx context.Context, seq keybind.KeySequence) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	name := seq.String()
	reg, exists := a.handles[name]
	if !exists {
		return kerrors.New(kerrors.NotFound, "hotkey %s is not registered", seq)
	}
	reg.cancel()
	if err := reg.hk.Unregister(); err != nil {
		obs.Logger.WithField("component", "hotkey.hostkey").Warnf("unregister %s: %v", seq, err)
	}
	delete(a.handles, name)
	return nil
}

func toHotkey(c keybind.KeyCombine) ([]hk.Modifier, hk.Key, error) {
	var mods []hk.Modifier
	if c.Mods.Has(keybind.ModControl) {
		mods = append(mods, hk.ModCtrl)
	}
	if c.Mods.Has(keybind.ModShift) {
		mods = append(mods, hk.ModShift)
	}
	if c.Mods.Has(keybind.ModAlt) {
		mods = append(mods, hk.ModOption)
	}
	if c.Mods.Has(keybind.ModSuper) {
		mods = append(mods, hk.ModCmd)
	}

	key, ok := keyTable[c.Code]
	if !ok {
		return nil, 0, kerrors.New(kerrors.Bug, "key %s has no host hotkey mapping", c.Code)
	}
	return mods, key, nil
}

var keyTable = map[keybind.KeyCode]hk.Key{
	keybind.KeyA: hk.KeyA, keybind.KeyB: hk.KeyB, keybind.KeyC: hk.KeyC, keybind.KeyD: hk.KeyD,
	keybind.KeyE: hk.KeyE, keybind.KeyF: hk.KeyF, keybind.KeyG: hk.KeyG, keybind.KeyH: hk.KeyH,
	keybind.KeyI: hk.KeyI, keybind.KeyJ: hk.KeyJ, keybind.KeyK: hk.KeyK, keybind.KeyL: hk.KeyL,
	keybind.KeyM: hk.KeyM, keybind.KeyN: hk.KeyN, keybind.KeyO: hk.KeyO, keybind.KeyP: hk.KeyP,
	keybind.KeyQ: hk.KeyQ, keybind.KeyR: hk.KeyR, keybind.KeyS: hk.KeyS, keybind.KeyT: hk.KeyT,
	keybind.KeyU: hk.KeyU, keybind.KeyV: hk.KeyV, keybind.KeyW: hk.KeyW, keybind.KeyX: hk.KeyX,
	keybind.KeyY: hk.KeyY, keybind.KeyZ: hk.KeyZ,

	keybind.Key0: hk.Key0, keybind.Key1: hk.Key1, keybind.Key2: hk.Key2, keybind.Key3: hk.Key3,
	keybind.Key4: hk.Key4, keybind.Key5: hk.Key5, keybind.Key6: hk.Key6, keybind.Key7: hk.Key7,
	keybind.Key8: hk.Key8, keybind.Key9: hk.Key9,

	keybind.KeyF1: hk.KeyF1, keybind.KeyF2: hk.KeyF2, keybind.KeyF3: hk.KeyF3, keybind.KeyF4: hk.KeyF4,
	keybind.KeyF5: hk.KeyF5, keybind.KeyF6: hk.KeyF6, keybind.KeyF7: hk.KeyF7, keybind.KeyF8: hk.KeyF8,
	keybind.KeyF9: hk.KeyF9, keybind.KeyF10: hk.KeyF10, keybind.KeyF11: hk.KeyF11, keybind.KeyF12: hk.KeyF12,

	keybind.KeyReturn: hk.KeyReturn, keybind.KeySpacebar: hk.KeySpace, keybind.KeyTab: hk.KeyTab,
	keybind.KeyUp: hk.KeyUp, keybind.KeyDown: hk.KeyDown, keybind.KeyLeft: hk.KeyLeft, keybind.KeyRight: hk.KeyRight,
}
