// Package nativepoll adapts an OS-level keyboard event bus (X11 XRecord on
// Linux, a low-level keyboard hook on Windows) into a hotkey.Adapter that
// owns the full keystroke stream and runs the dispatcher itself, rather than
// delegating matching to the OS.
//
// The underlying hook is a process-singleton by platform mandate — only one
// subscriber may be installed at a time — so installation is guarded by a
// package-level sync.Once-style lifecycle rather than one per Adapter value.
package nativepoll

import (
	"context"
	"sync"

	"github.com/kerneld-io/kerneld/internal/keybind"
	"github.com/kerneld-io/kerneld/internal/kerrors"
)

// Source is the platform-specific keyboard event bus. A Linux build
// supplies one backed by the X11 XRecord extension; a Windows build, one
// backed by a low-level keyboard hook. Install begins delivering keystrokes
// to onKey until Uninstall is called; only one Source may be installed
// process-wide at a time.
type Source interface {
	Install(onKey func(keybind.KeyCombine)) error
	Uninstall() error
}

var (
	mu        sync.Mutex
	installed bool
)

// Adapter runs its own KeyDispatcher against every keystroke the platform
// Source reports, rather than asking the OS to match individual sequences.
type Adapter struct {
	source Source
	disp   *keybind.KeyDispatcher
}

// New creates an Adapter over the given platform Source, dispatching
// through disp.
func New(source Source, disp *keybind.KeyDispatcher) *Adapter {
	return &Adapter{source: source, disp: disp}
}

// Register installs the process-wide keyboard hook on first use. seq's
// binding is expected to already exist in one of disp's pushed KeyMaps;
// Register here only ensures the hook itself is live.
func (a *Adapter) Register(ctx context.Context, seq keybind.KeySequence) error {
	mu.Lock()
	defer mu.Unlock()
	if installed {
		return nil
	}
	if err := a.source.Install(a.disp.Feed); err != nil {
		return kerrors.Wrap(err, "installing native keyboard hook")
	}
	installed = true
	return nil
}

// Unregister uninstalls the process-wide hook. Since the hook has exactly
// one active subscriber, this tears down delivery for every sequence, not
// just seq.
func (a *Adapter) Unregister(ctx context.Context, seq keybind.KeySequence) error {
	mu.Lock()
	defer mu.Unlock()
	if !installed {
		return nil
	}
	if err := a.source.Uninstall(); err != nil {
		return kerrors.Wrap(err, "uninstalling native keyboard hook")
	}
	installed = false
	return nil
}
