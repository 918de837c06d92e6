package kerrors

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestWrapPreservesKind(t *testing.T) {
	base := New(NotFound, "type %s", "Foo")
	wrapped := Wrap(base, "while resolving %s", "Bar")

	assert.True(t, Is(wrapped, NotFound))
	assert.ErrorIs(t, wrapped, base)
}

func TestWrapOfPlainErrorDefaultsToBug(t *testing.T) {
	wrapped := Wrap(assertErr{}, "while loading config %s", "kerneld.yaml")
	assert.True(t, Is(wrapped, Bug))
}

type assertErr struct{}

func (assertErr) Error() string { return "boom" }
