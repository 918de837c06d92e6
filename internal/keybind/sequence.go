package keybind

import (
	"strings"

	"github.com/kerneld-io/kerneld/internal/kerrors"
)

// KeySequence is an ordered chord of one or more KeyCombines.
type KeySequence []KeyCombine

// String renders the sequence as space-separated combines, matching the
// grammar's SP separator.
func (s KeySequence) String() string {
	parts := make([]string, len(s))
	for i, c := range s {
		parts[i] = c.String()
	}
	return strings.Join(parts, " ")
}

// Parse parses a human-typed key-sequence string per the grammar:
//
//	sequence := combine (SP combine)*
//	combine   := (modifier '-')* key
//	modifier  := 'S' | 'C' | 'M' | 'A'
//	key       := '<' NAME '>' | CHAR
//
// It rejects trailing garbage, repeated modifiers within one combine, and
// any CHAR or NAME outside the documented set.
func Parse(s string) (KeySequence, error) {
	if s == "" {
		return nil, kerrors.New(kerrors.Parse, "empty key sequence")
	}
	parts := strings.Split(s, " ")
	seq := make(KeySequence, 0, len(parts))
	for _, part := range parts {
		if part == "" {
			return nil, kerrors.New(kerrors.Parse, "empty combine in sequence %q", s)
		}
		combine, err := parseCombine(part)
		if err != nil {
			return nil, kerrors.Wrap(err, "parsing sequence %q", s)
		}
		seq = append(seq, combine)
	}
	return seq, nil
}

func modifierForByte(c byte) (KeyModifier, bool) {
	switch c {
	case 'S':
		return ModShift, true
	case 'C':
		return ModControl, true
	case 'M':
		return ModSuper, true
	case 'A':
		return ModAlt, true
	}
	return 0, false
}

func parseCombine(s string) (KeyCombine, error) {
	var mods KeyModifier
	i := 0
	for i+1 < len(s) && s[i+1] == '-' {
		m, ok := modifierForByte(s[i])
		if !ok {
			break
		}
		if mods.Has(m) {
			return KeyCombine{}, kerrors.New(kerrors.Parse, "repeated modifier in combine %q", s)
		}
		mods |= m
		i += 2
	}

	rest := s[i:]
	if rest == "" {
		return KeyCombine{}, kerrors.New(kerrors.Parse, "missing key in combine %q", s)
	}

	var code KeyCode
	switch {
	case len(rest) > 1 && rest[0] == '<' && rest[len(rest)-1] == '>':
		name := rest[1 : len(rest)-1]
		c, ok := codeFromName(name)
		if !ok {
			return KeyCombine{}, kerrors.New(kerrors.Parse, "unknown key name %q in combine %q", name, s)
		}
		code = c
	case len(rest) == 1:
		c, ok := codeFromChar(rest[0])
		if !ok {
			return KeyCombine{}, kerrors.New(kerrors.Parse, "unknown character %q in combine %q", rest, s)
		}
		code = c
	default:
		return KeyCombine{}, kerrors.New(kerrors.Parse, "trailing garbage in combine %q", s)
	}

	return KeyCombine{Code: code, Mods: mods}, nil
}
