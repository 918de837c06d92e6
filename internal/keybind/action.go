package keybind

import (
	"context"

	"github.com/kerneld-io/kerneld/internal/kernel"
	"github.com/kerneld-io/kerneld/internal/obs"
)

// RegisterAction binds fn (whose parameters may be *kernel.Injector,
// kernel.Res[T], kernel.TakeArg[T] or kernel.TakeOptArg[T]) and installs it
// at seq in km. The dispatcher never sees the raw fn, only the bound form:
// fn's parameter types are inspected once at registration time, and its
// arguments are resolved from the Injector each time the action runs.
func RegisterAction(km *KeyMap, seq KeySequence, fn any) error {
	bound, err := kernel.Bind(fn)
	if err != nil {
		return err
	}
	return km.Add(seq, bound)
}

// RunActionLoop consumes matched actions from events until ctx is canceled,
// invoking each against inj. A failing action is logged at warn and never
// propagated back to the keyboard source, per the recover-at-the-edges rule.
func RunActionLoop(ctx context.Context, inj *kernel.Injector, events <-chan any) {
	for {
		select {
		case <-ctx.Done():
			return
		case v, ok := <-events:
			if !ok {
				return
			}
			fn, ok := v.(kernel.BoundFunc)
			if !ok {
				obs.Logger.WithField("component", "keybind.action").
					Warnf("dispatched value is not a bound action: %T", v)
				continue
			}
			obs.Recover("keybind.action", func() error { return fn(ctx, inj) })
		}
	}
}
