package keybind

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kerneld-io/kerneld/internal/kerrors"
)

func TestParseRejectsEmpty(t *testing.T) {
	_, err := Parse("")
	require.Error(t, err)
	assert.True(t, kerrors.Is(err, kerrors.Parse))
}

func TestParseRejectsRepeatedModifier(t *testing.T) {
	_, err := Parse("C-C-a")
	require.Error(t, err)
	assert.True(t, kerrors.Is(err, kerrors.Parse))
}

func TestParseAcceptsDocumentedExamples(t *testing.T) {
	for _, s := range []string{"C-M-a", "C-S-<Return>", "C-<f1>", "a", "C-a b", "<F1>"} {
		_, err := Parse(s)
		assert.NoError(t, err, "expected %q to parse", s)
	}
}

func TestParseFunctionKeyNamesAreCaseInsensitive(t *testing.T) {
	upper, err := Parse("<F1>")
	require.NoError(t, err)
	lower, err := Parse("<f1>")
	require.NoError(t, err)
	assert.Equal(t, lower, upper)
}

func TestParseFourCombineSequence(t *testing.T) {
	seq, err := Parse("C-M-a C-S-<Return> C-<f1> b")
	require.NoError(t, err)
	require.Len(t, seq, 4)
	assert.Equal(t, KeyA, seq[0].Code)
	assert.True(t, seq[0].Mods.Has(ModControl))
	assert.True(t, seq[0].Mods.Has(ModSuper))
	assert.False(t, seq[0].Mods.Has(ModShift))
}

func TestRoundTripFormatThenParse(t *testing.T) {
	original, err := Parse("C-M-a C-S-<Return> C-<f1> b")
	require.NoError(t, err)

	reparsed, err := Parse(original.String())
	require.NoError(t, err)
	assert.Equal(t, original, reparsed)
}

func TestKeyCombineEqualityIgnoresLockModifiers(t *testing.T) {
	a := KeyCombine{Code: KeyA, Mods: ModControl}
	b := KeyCombine{Code: KeyA, Mods: ModControl | ModCapsLock | ModNumLock}
	assert.True(t, a.Equal(b))
	assert.Equal(t, a.Canonical(), b.Canonical())
}

func TestParseRejectsUnknownCharacter(t *testing.T) {
	_, err := Parse("\t")
	require.Error(t, err)
}

func TestParseRejectsTrailingGarbage(t *testing.T) {
	_, err := Parse("abc")
	require.Error(t, err)
}
