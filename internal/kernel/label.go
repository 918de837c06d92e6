package kernel

import (
	"fmt"
	"reflect"
)

// Label is a stable identity for a stage, task or keymap. It wraps one of
// three comparable key flavors — a type identity, a string, or an
// enum-variant name — so stages and tasks can be referred to by whichever is
// most natural at the call site. Labels are values: copy them freely.
type Label struct {
	key  any
	name string
}

// LabelOf derives a Label from a Go type. Two calls with the same type
// parameter always produce an equal Label.
func LabelOf[T any]() Label {
	t := reflect.TypeOf((*T)(nil)).Elem()
	return Label{key: t, name: t.String()}
}

// LabelString wraps an arbitrary string as a Label.
func LabelString(s string) Label {
	return Label{key: stringKey(s), name: s}
}

// stringKey exists so that a Label built from LabelString never collides
// with a Label built from an enum value that happens to share the same
// underlying string — the key's dynamic type, not just its value, takes part
// in equality.
type stringKey string

// LabelEnum wraps an enum-like value (anything comparable with a String()
// method) as a Label, using its variant name for both identity and display.
func LabelEnum[T fmt.Stringer](v T) Label {
	return Label{key: v, name: v.String()}
}

// String renders the Label for logging and error messages.
func (l Label) String() string { return l.name }

// Equal reports whether two Labels share the same identity. Labels are also
// directly comparable with == and usable as map keys; Equal exists for
// readability at call sites that already import this package.
func (l Label) Equal(other Label) bool { return l.key == other.key }
