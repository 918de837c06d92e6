package keybind

import (
	"context"

	"github.com/kerneld-io/kerneld/internal/kernel"
)

// Module wires the global hotkey engine into a kernel run: EarlyInit
// constructs a KeyDispatcher and the platform Adapter over it, and
// registers both into the Injector so other modules can push KeyMaps and
// call RegisterAction during their own EarlyInit; Init subscribes to
// matched actions and starts the action loop for the lifetime of the
// process.
type Module struct {
	// NewAdapter builds the platform hotkey adapter bound to disp. Left to
	// the caller rather than hardcoded so cmd/kerneld can pick hostkey,
	// nativepoll or webwindow per build target; nativepoll and webwindow
	// feed disp directly, while hostkey wraps disp.Feed in a single-combine
	// publish callback.
	NewAdapter func(disp *KeyDispatcher) Adapter
}

// Adapter is the subset of hotkey.Adapter this module depends on, restated
// here rather than imported to avoid a cycle (hotkey imports keybind).
type Adapter interface {
	Register(ctx context.Context, seq KeySequence) error
	Unregister(ctx context.Context, seq KeySequence) error
}

func (m *Module) EarlyInit(ctx context.Context, inj *kernel.Injector) error {
	dispatcher := NewKeyDispatcher()
	kernel.Insert(inj, dispatcher)
	if m.NewAdapter != nil {
		kernel.Insert(inj, m.NewAdapter(dispatcher))
	}
	return nil
}

func (m *Module) Init(ctx context.Context, inj *kernel.Injector) error {
	dispatcher, err := kernel.Get[*KeyDispatcher](ctx, inj)
	if err != nil {
		return err
	}
	go RunActionLoop(ctx, inj, dispatcher.Subscribe())
	return nil
}
