package keybind

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDispatcherMultiKeystrokeWalk(t *testing.T) {
	km := NewKeyMap()
	require.NoError(t, km.Add(seq(t, "C-x C-s"), "act1"))

	d := NewKeyDispatcher()
	d.Push("A", km)
	events := d.Subscribe()

	d.Feed(seq(t, "C-x")[0])
	d.Feed(seq(t, "C-s")[0])

	select {
	case v := <-events:
		assert.Equal(t, "act1", v)
	case <-time.After(time.Second):
		t.Fatal("expected act1 to be dispatched")
	}
}

func TestDispatcherMissResetsWalkWithoutDispatch(t *testing.T) {
	km := NewKeyMap()
	require.NoError(t, km.Add(seq(t, "C-x C-s"), "act1"))

	d := NewKeyDispatcher()
	d.Push("A", km)
	events := d.Subscribe()

	d.Feed(seq(t, "C-x")[0])
	d.Feed(seq(t, "a")[0]) // miss against the cursor map; walk resets, nothing dispatched

	select {
	case v := <-events:
		t.Fatalf("expected no dispatch, got %v", v)
	case <-time.After(50 * time.Millisecond):
	}

	// Walk state is reset: a fresh top-level search can now begin.
	d.Feed(seq(t, "C-x")[0])
	d.Feed(seq(t, "C-s")[0])
	select {
	case v := <-events:
		assert.Equal(t, "act1", v)
	case <-time.After(time.Second):
		t.Fatal("expected act1 to be dispatched after walk reset")
	}
}

func TestDispatcherSearchesStackTopToBottom(t *testing.T) {
	lower := NewKeyMap()
	require.NoError(t, lower.Add(seq(t, "a"), "lower-act"))
	upper := NewKeyMap()
	require.NoError(t, upper.Add(seq(t, "a"), "upper-act"))

	d := NewKeyDispatcher()
	d.Push("lower", lower)
	d.Push("upper", upper)
	events := d.Subscribe()

	d.Feed(seq(t, "a")[0])
	select {
	case v := <-events:
		assert.Equal(t, "upper-act", v)
	case <-time.After(time.Second):
		t.Fatal("expected upper-act to win")
	}
}

func TestDispatcherSingleCombineMatchDispatchesImmediately(t *testing.T) {
	km := NewKeyMap()
	require.NoError(t, km.Add(seq(t, "a"), "act"))

	d := NewKeyDispatcher()
	d.Push("A", km)
	events := d.Subscribe()

	d.Feed(seq(t, "a")[0])
	select {
	case v := <-events:
		assert.Equal(t, "act", v)
	case <-time.After(time.Second):
		t.Fatal("expected act to be dispatched")
	}
}
