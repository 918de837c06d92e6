// Package hotkey defines the SetGlobalHotKey capability shared by the three
// platform adapters (hostkey, nativepoll, webwindow). Exactly one adapter is
// bound per process; all three publish matched sequences onto the same
// channel consumed by keybind.RunActionLoop.
package hotkey

import (
	"context"

	"github.com/kerneld-io/kerneld/internal/keybind"
)

// Adapter abstracts over however a platform recognizes a global hotkey:
// registering a sequence and getting told it fired, or owning the full
// keystroke stream and running the trie walk itself.
type Adapter interface {
	// Register arranges for seq to be reported when it occurs. Sequences
	// longer than one combine are only supported by adapters that run their
	// own dispatcher (native poll); host-hotkey adapters support single
	// combines only.
	Register(ctx context.Context, seq keybind.KeySequence) error
	// Unregister reverses a prior Register.
	Unregister(ctx context.Context, seq keybind.KeySequence) error
}
