// Package webwindow adapts an in-window keydown handler (a WebView or
// similar embedded browser shell) into a hotkey.Adapter. Unlike hostkey, the
// OS plays no part in matching; unlike nativepoll, there is no process-wide
// hook to install. The adapter is a thin bridge: the window already decodes
// keydown events, this package turns them into KeyCombines and feeds a
// shared dispatcher.
package webwindow

import (
	"context"

	"github.com/kerneld-io/kerneld/internal/keybind"
)

// Window is the embedding shell's keydown source. Bind is called once with
// the adapter's decode callback; the shell calls it on every keydown event
// for the life of the window.
type Window interface {
	Bind(onKey func(keybind.KeyCombine))
}

// Adapter feeds a window's keydown stream into a KeyDispatcher. Register and
// Unregister are no-ops beyond the initial bind: the window delivers every
// keystroke regardless of which sequences are currently bound, and the
// dispatcher itself decides what matches.
type Adapter struct {
	disp  *keybind.KeyDispatcher
	bound bool
}

// New creates an Adapter over window, dispatching matches through disp.
func New(window Window, disp *keybind.KeyDispatcher) *Adapter {
	a := &Adapter{disp: disp}
	window.Bind(a.disp.Feed)
	a.bound = true
	return a
}

func (a *Adapter) Register(ctx context.Context, seq keybind.KeySequence) error {
	return nil
}

func (a *Adapter) Unregister(ctx context.Context, seq keybind.KeySequence) error {
	return nil
}
