package kernel

import (
	"context"

	"github.com/kerneld-io/kerneld/internal/kerrors"
)

// Module is a unit of startup wiring: EarlyInit registers providers and
// takeable resources into the Injector (and may itself construct child
// resources), and Init runs once every module's EarlyInit has completed, so
// it can safely depend on anything any module registered.
type Module interface {
	EarlyInit(ctx context.Context, inj *Injector) error
	Init(ctx context.Context, inj *Injector) error
}

// ModuleGroup runs a fixed, ordered list of Modules through both lifecycle
// phases: every module's EarlyInit, in registration order, then every
// module's Init, in the same order. A ModuleGroup is itself a Module, so
// groups nest.
type ModuleGroup struct {
	modules []Module
}

// NewModuleGroup creates a group that runs modules in the given order.
func NewModuleGroup(modules ...Module) *ModuleGroup {
	return &ModuleGroup{modules: modules}
}

func (g *ModuleGroup) EarlyInit(ctx context.Context, inj *Injector) error {
	for _, m := range g.modules {
		if err := m.EarlyInit(ctx, inj); err != nil {
			return kerrors.Wrap(err, "early_init failed for %T", m)
		}
	}
	return nil
}

func (g *ModuleGroup) Init(ctx context.Context, inj *Injector) error {
	for _, m := range g.modules {
		if err := m.Init(ctx, inj); err != nil {
			return kerrors.Wrap(err, "init failed for %T", m)
		}
	}
	return nil
}

// RunModules executes a module's full lifecycle: EarlyInit then Init.
func RunModules(ctx context.Context, inj *Injector, m Module) error {
	if err := m.EarlyInit(ctx, inj); err != nil {
		return err
	}
	return m.Init(ctx, inj)
}
