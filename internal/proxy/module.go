package proxy

import (
	"context"

	"github.com/kerneld-io/kerneld/internal/kernel"
	"github.com/kerneld-io/kerneld/internal/obs"
)

// Module wires a configured proxy into a kernel run: EarlyInit builds every
// ingress acceptor, egress connector and routing rule and registers the
// resulting *Built into the Injector; Init starts the ingress servers and
// the dispatch loop as background goroutines, so Init itself returns once
// they are launched rather than blocking for the lifetime of the process.
type Module struct {
	Config Config
	Lookup GeositeLookup
}

func (m *Module) EarlyInit(ctx context.Context, inj *kernel.Injector) error {
	built, err := BuildFromConfig(m.Config, m.Lookup)
	if err != nil {
		return err
	}
	kernel.Insert(inj, built)
	return nil
}

func (m *Module) Init(ctx context.Context, inj *kernel.Injector) error {
	built, err := kernel.Get[*Built](ctx, inj)
	if err != nil {
		return err
	}
	go func() {
		obs.Logger.WithField("component", "proxy.module").Info("proxy service starting")
		built.Run(ctx)
	}()
	return nil
}
