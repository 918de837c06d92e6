package kernel

import (
	"context"
	"reflect"
	"sync"

	"golang.org/x/sync/singleflight"

	"github.com/kerneld-io/kerneld/internal/kerrors"
)

// entryState distinguishes how an Injector slot should be resolved.
type entryState int

const (
	stateResolved entryState = iota
	stateTakeable
	stateConstructor
)

type entry struct {
	mu    sync.Mutex
	state entryState
	value any
	taken bool
	build func(ctx context.Context, inj *Injector) (any, error)
}

// Injector is a type-keyed, memoizing construction registry. Each Go type
// occupies at most one slot: a value inserted directly, a takeable resource
// consumed at most once, or a constructor run at most once and memoized for
// every later lookup.
//
// Concurrent Get calls for the same type that is still under construction
// share a single construction via singleflight rather than racing. A
// constructor that (directly or transitively, through the same call chain)
// asks the Injector for its own type is a bug, not a deadlock: the Injector
// detects that case from the context it threads through construction and
// fails fast with kerrors.Bug.
type Injector struct {
	mu      sync.Mutex
	entries map[reflect.Type]*entry
	group   singleflight.Group
}

// New creates an empty Injector.
func New() *Injector {
	return &Injector{entries: make(map[reflect.Type]*entry)}
}

type constructingKey struct{}

func withConstructing(ctx context.Context, t reflect.Type) context.Context {
	prev, _ := ctx.Value(constructingKey{}).(map[reflect.Type]bool)
	next := make(map[reflect.Type]bool, len(prev)+1)
	for k := range prev {
		next[k] = true
	}
	next[t] = true
	return context.WithValue(ctx, constructingKey{}, next)
}

func isConstructing(ctx context.Context, t reflect.Type) bool {
	set, _ := ctx.Value(constructingKey{}).(map[reflect.Type]bool)
	return set[t]
}

func typeOf[T any]() reflect.Type {
	return reflect.TypeOf((*T)(nil)).Elem()
}

func (inj *Injector) entryFor(t reflect.Type) *entry {
	inj.mu.Lock()
	defer inj.mu.Unlock()
	e := inj.entries[t]
	if e == nil {
		return nil
	}
	return e
}

func (inj *Injector) setEntry(t reflect.Type, e *entry) {
	inj.mu.Lock()
	defer inj.mu.Unlock()
	inj.entries[t] = e
}

// Insert registers a ready-made value of type T. A later Get[T] returns it
// without invoking any constructor.
func Insert[T any](inj *Injector, value T) {
	inj.setEntry(typeOf[T](), &entry{state: stateResolved, value: value})
}

// InsertTakeable registers a value that may be retrieved at most once via
// Take[T]. A second Take fails with kerrors.NotFound.
func InsertTakeable[T any](inj *Injector, value T) {
	inj.setEntry(typeOf[T](), &entry{state: stateTakeable, value: value})
}

// Construct registers a constructor for T, run at most once across the
// lifetime of the Injector. The first Get[T] (from any goroutine) runs it;
// concurrent callers block on the same invocation; the result is memoized
// for everyone afterward.
func Construct[T any](inj *Injector, build func(ctx context.Context, inj *Injector) (T, error)) {
	wrapped := func(ctx context.Context, inj *Injector) (any, error) {
		return build(ctx, inj)
	}
	inj.setEntry(typeOf[T](), &entry{state: stateConstructor, build: wrapped})
}

// Get resolves a value of type T, running its constructor if one is
// registered and hasn't run yet. It returns kerrors.NotFound if no entry of
// type T exists, and kerrors.Bug if resolving T recursively depends on T
// itself within the same call chain.
func Get[T any](ctx context.Context, inj *Injector) (T, error) {
	var zero T
	t := typeOf[T]()
	e := inj.entryFor(t)
	if e == nil {
		return zero, kerrors.New(kerrors.NotFound, "no provider registered for %s", t)
	}

	e.mu.Lock()
	state := e.state
	e.mu.Unlock()

	switch state {
	case stateResolved:
		v, ok := e.value.(T)
		if !ok {
			return zero, kerrors.New(kerrors.Bug, "stored value for %s has wrong type", t)
		}
		return v, nil
	case stateTakeable:
		return zero, kerrors.New(kerrors.Bug, "%s is takeable, use Take instead of Get", t)
	case stateConstructor:
		if isConstructing(ctx, t) {
			return zero, kerrors.New(kerrors.Bug, "construction of %s recursively depends on itself", t)
		}
		nextCtx := withConstructing(ctx, t)
		raw, err, _ := inj.group.Do(t.String(), func() (any, error) {
			// A caller that read the constructor slot before an earlier
			// construction finished reaches this point after it; reuse that
			// result instead of running the constructor a second time.
			if cur := inj.entryFor(t); cur != nil && cur != e && cur.state == stateResolved {
				return cur.value, nil
			}
			built, err := e.build(nextCtx, inj)
			if err != nil {
				return nil, err
			}
			// Memoize inside the shared call, so that every later Get sees the
			// resolved slot and skips singleflight entirely.
			inj.setEntry(t, &entry{state: stateResolved, value: built})
			return built, nil
		})
		if err != nil {
			return zero, kerrors.Wrap(err, "constructing %s", t)
		}
		v, ok := raw.(T)
		if !ok {
			return zero, kerrors.New(kerrors.Bug, "constructor for %s returned wrong type", t)
		}
		return v, nil
	default:
		return zero, kerrors.New(kerrors.Bug, "unknown entry state for %s", t)
	}
}

// Take removes and returns a takeable resource of type T. A second call,
// whether for a value inserted with InsertTakeable or already taken, fails
// with kerrors.NotFound.
func Take[T any](inj *Injector) (T, error) {
	var zero T
	t := typeOf[T]()
	e := inj.entryFor(t)
	if e == nil {
		return zero, kerrors.New(kerrors.NotFound, "no takeable resource registered for %s", t)
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.state != stateTakeable || e.taken {
		return zero, kerrors.New(kerrors.NotFound, "%s already taken or not takeable", t)
	}
	v, ok := e.value.(T)
	if !ok {
		return zero, kerrors.New(kerrors.Bug, "stored takeable value for %s has wrong type", t)
	}
	e.taken = true
	e.value = nil
	return v, nil
}

// TakeOpt is like Take but reports absence instead of erroring.
func TakeOpt[T any](inj *Injector) (T, bool) {
	v, err := Take[T](inj)
	if err != nil {
		var zero T
		return zero, false
	}
	return v, true
}

// Has reports whether any entry — resolved, takeable or constructor — is
// registered for T.
func Has[T any](inj *Injector) bool {
	return inj.entryFor(typeOf[T]()) != nil
}
