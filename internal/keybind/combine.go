package keybind

// KeyModifier is a bitset over the modifier keys a combine may carry.
type KeyModifier uint8

const (
	ModShift KeyModifier = 1 << iota
	ModControl
	ModSuper
	ModAlt
	ModCapsLock
	ModNumLock
)

// ignoreMods are masked out of equality and hashing: toggling Caps Lock or
// Num Lock must never defeat a binding match.
const ignoreMods = ModCapsLock | ModNumLock

// Has reports whether m contains every bit in other.
func (m KeyModifier) Has(other KeyModifier) bool { return m&other == other }

// KeyCombine is one physical key plus the modifiers held with it.
type KeyCombine struct {
	Code KeyCode
	Mods KeyModifier
}

// Canonical returns k with CapsLock and NumLock masked off. KeyMap and
// KeyDispatcher always key their internal maps by the canonical form, which
// is what gives KeyCombine its documented CapsLock/NumLock-invariant
// equality: Go's built-in map/== semantics compare fields directly, so the
// masking has to happen before a KeyCombine is ever used as a key rather
// than live inside a custom Equal/Hash method nothing calls.
func (k KeyCombine) Canonical() KeyCombine {
	return KeyCombine{Code: k.Code, Mods: k.Mods &^ ignoreMods}
}

// Equal reports whether k and other name the same combine once CapsLock and
// NumLock are masked off both sides.
func (k KeyCombine) Equal(other KeyCombine) bool {
	return k.Canonical() == other.Canonical()
}

var modOrder = []struct {
	bit    KeyModifier
	prefix string
}{
	{ModShift, "S-"}, {ModControl, "C-"}, {ModSuper, "M-"}, {ModAlt, "A-"},
	{ModCapsLock, "CapsLock-"}, {ModNumLock, "NumLock-"},
}

// String renders k in canonical modifier order (S-,C-,M-,A-,CapsLock-,
// NumLock-) followed by the key itself.
func (k KeyCombine) String() string {
	var b []byte
	for _, mo := range modOrder {
		if k.Mods.Has(mo.bit) {
			b = append(b, mo.prefix...)
		}
	}
	b = append(b, k.Code.String()...)
	return string(b)
}
