package kernel

import (
	"context"
	"reflect"

	"github.com/kerneld-io/kerneld/internal/kerrors"
)

// Res wraps a constructed or inserted value of type T as a function
// parameter. A task, action or constructor that takes a Res[T] argument gets
// T resolved from the Injector (via Get) before the function is called.
type Res[T any] struct{ Value T }

// TakeArg wraps a single-use takeable resource of type T as a function
// parameter, resolved via Take. Named TakeArg (not Take) to avoid colliding
// with the package-level Take function.
type TakeArg[T any] struct{ Value T }

// TakeOptArg is like TakeArg but tolerates absence: Present is false and
// Value is the zero value if nothing of type T was registered or it was
// already taken.
type TakeOptArg[T any] struct {
	Value   T
	Present bool
}

// argKind classifies how a bound function's parameter should be resolved.
type argKind int

const (
	argInjector argKind = iota
	argRes
	argTake
	argTakeOpt
)

// providerArg is implemented by Res[T], TakeArg[T] and TakeOptArg[T] via
// reflection-visible methods, so Bind can inspect a function's
// parameter types without knowing T at compile time.
type providerArg interface {
	argKind() argKind
	elemType() reflect.Type
}

func (Res[T]) argKind() argKind { return argRes }
func (Res[T]) elemType() reflect.Type { return typeOf[T]() }

func (TakeArg[T]) argKind() argKind { return argTake }
func (TakeArg[T]) elemType() reflect.Type { return typeOf[T]() }

func (TakeOptArg[T]) argKind() argKind { return argTakeOpt }
func (TakeOptArg[T]) elemType() reflect.Type { return typeOf[T]() }

var injectorType = reflect.TypeOf((*Injector)(nil))

// argDescriptor describes how to resolve one parameter of a bound function.
type argDescriptor struct {
	paramType reflect.Type
	injector  bool
	kind      argKind
	elem      reflect.Type
}

func buildArgDescriptors(fnType reflect.Type) ([]argDescriptor, error) {
	descs := make([]argDescriptor, fnType.NumIn())
	for i := range descs {
		pt := fnType.In(i)
		if pt == injectorType {
			descs[i] = argDescriptor{paramType: pt, injector: true}
			continue
		}
		zero := reflect.Zero(pt)
		pa, ok := zero.Interface().(providerArg)
		if !ok {
			return nil, kerrors.New(kerrors.Bug,
				"bound function parameter %d (%s) is not *Injector, Res[T], TakeArg[T] or TakeOptArg[T]", i, pt)
		}
		descs[i] = argDescriptor{paramType: pt, kind: pa.argKind(), elem: pa.elemType()}
	}
	return descs, nil
}

func (d argDescriptor) resolve(ctx context.Context, inj *Injector) (reflect.Value, error) {
	if d.injector {
		return reflect.ValueOf(inj), nil
	}
	out := reflect.New(d.paramType).Elem()
	switch d.kind {
	case argRes:
		v, err := resolveByType(ctx, inj, d.elem)
		if err != nil {
			return reflect.Value{}, err
		}
		out.FieldByName("Value").Set(reflect.ValueOf(v))
	case argTake:
		v, err := takeByType(inj, d.elem)
		if err != nil {
			return reflect.Value{}, err
		}
		out.FieldByName("Value").Set(reflect.ValueOf(v))
	case argTakeOpt:
		v, ok := takeOptByType(inj, d.elem)
		if ok {
			out.FieldByName("Value").Set(reflect.ValueOf(v))
		}
		out.FieldByName("Present").SetBool(ok)
	default:
		return reflect.Value{}, kerrors.New(kerrors.Bug, "unknown arg kind for %s", d.paramType)
	}
	return out, nil
}

// resolveByType, takeByType and takeOptByType mirror Get/Take/TakeOpt but
// operate on a reflect.Type discovered at bind time instead of a compile-time
// type parameter. They share the Injector's entry table directly rather than
// re-deriving typeOf[T] through a generic shim.
func resolveByType(ctx context.Context, inj *Injector, t reflect.Type) (any, error) {
	e := inj.entryFor(t)
	if e == nil {
		return nil, kerrors.New(kerrors.NotFound, "no provider registered for %s", t)
	}
	e.mu.Lock()
	state := e.state
	e.mu.Unlock()
	switch state {
	case stateResolved:
		return e.value, nil
	case stateTakeable:
		return nil, kerrors.New(kerrors.Bug, "%s is takeable, use TakeArg instead of Res", t)
	case stateConstructor:
		if isConstructing(ctx, t) {
			return nil, kerrors.New(kerrors.Bug, "construction of %s recursively depends on itself", t)
		}
		nextCtx := withConstructing(ctx, t)
		raw, err, _ := inj.group.Do(t.String(), func() (any, error) {
			// An earlier construction may have finished after this caller
			// read the constructor slot; reuse its result.
			if cur := inj.entryFor(t); cur != nil && cur != e && cur.state == stateResolved {
				return cur.value, nil
			}
			v, err := e.build(nextCtx, inj)
			if err != nil {
				return nil, err
			}
			inj.setEntry(t, &entry{state: stateResolved, value: v})
			return v, nil
		})
		if err != nil {
			return nil, kerrors.Wrap(err, "constructing %s", t)
		}
		return raw, nil
	default:
		return nil, kerrors.New(kerrors.Bug, "unknown entry state for %s", t)
	}
}

func takeByType(inj *Injector, t reflect.Type) (any, error) {
	e := inj.entryFor(t)
	if e == nil {
		return nil, kerrors.New(kerrors.NotFound, "no takeable resource registered for %s", t)
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.state != stateTakeable || e.taken {
		return nil, kerrors.New(kerrors.NotFound, "%s already taken or not takeable", t)
	}
	e.taken = true
	v := e.value
	e.value = nil
	return v, nil
}

func takeOptByType(inj *Injector, t reflect.Type) (any, bool) {
	v, err := takeByType(inj, t)
	if err != nil {
		return nil, false
	}
	return v, true
}

// BoundFunc is a function, normalized from an arbitrary callback, ready to
// invoke against an Injector. It is what Scheduler tasks and keybinding
// actions actually hold.
type BoundFunc func(ctx context.Context, inj *Injector) error

// Bind adapts an arbitrary function into a BoundFunc. fn's parameters must
// each be *Injector, Res[T], TakeArg[T] or TakeOptArg[T] for some T; fn must
// return either nothing or a single error. This replaces the original's
// trait-based auto-injection with an explicit, reflection-built argument
// list: each parameter is inspected once at bind time, not per call.
func Bind(fn any) (BoundFunc, error) {
	fnVal := reflect.ValueOf(fn)
	fnType := fnVal.Type()
	if fnType.Kind() != reflect.Func {
		return nil, kerrors.New(kerrors.Bug, "Bind requires a function, got %s", fnType)
	}
	if fnType.NumOut() > 1 {
		return nil, kerrors.New(kerrors.Bug, "bound function must return nothing or a single error")
	}
	if fnType.NumOut() == 1 && !fnType.Out(0).Implements(errorType) {
		return nil, kerrors.New(kerrors.Bug, "bound function's single return value must be error")
	}
	descs, err := buildArgDescriptors(fnType)
	if err != nil {
		return nil, err
	}
	return func(ctx context.Context, inj *Injector) error {
		args := make([]reflect.Value, len(descs))
		for i, d := range descs {
			v, err := d.resolve(ctx, inj)
			if err != nil {
				return kerrors.Wrap(err, "resolving argument %d of bound function", i)
			}
			args[i] = v
		}
		out := fnVal.Call(args)
		if len(out) == 1 && !out[0].IsNil() {
			return out[0].Interface().(error)
		}
		return nil
	}, nil
}

var errorType = reflect.TypeOf((*error)(nil)).Elem()
