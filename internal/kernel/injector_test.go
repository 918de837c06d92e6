package kernel

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kerneld-io/kerneld/internal/kerrors"
)

type widget struct{ name string }

func TestGetResolvedValue(t *testing.T) {
	inj := New()
	Insert(inj, widget{name: "a"})

	got, err := Get[widget](context.Background(), inj)
	require.NoError(t, err)
	assert.Equal(t, "a", got.name)
}

func TestGetMissingTypeIsNotFound(t *testing.T) {
	inj := New()
	_, err := Get[widget](context.Background(), inj)
	require.Error(t, err)
	assert.True(t, kerrors.Is(err, kerrors.NotFound))
}

func TestConstructRunsExactlyOnceAcrossConcurrentGetters(t *testing.T) {
	inj := New()
	var calls int64
	Construct(inj, func(ctx context.Context, inj *Injector) (widget, error) {
		atomic.AddInt64(&calls, 1)
		time.Sleep(10 * time.Millisecond)
		return widget{name: "built"}, nil
	})

	const n = 20
	var wg sync.WaitGroup
	results := make([]widget, n)
	errs := make([]error, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i], errs[i] = Get[widget](context.Background(), inj)
		}(i)
	}
	wg.Wait()

	assert.Equal(t, int64(1), atomic.LoadInt64(&calls))
	for i := 0; i < n; i++ {
		require.NoError(t, errs[i])
		assert.Equal(t, "built", results[i].name)
	}
}

func TestConstructMemoizesAfterFirstGet(t *testing.T) {
	inj := New()
	var calls int64
	Construct(inj, func(ctx context.Context, inj *Injector) (widget, error) {
		atomic.AddInt64(&calls, 1)
		return widget{name: "x"}, nil
	})

	_, err := Get[widget](context.Background(), inj)
	require.NoError(t, err)
	_, err = Get[widget](context.Background(), inj)
	require.NoError(t, err)

	assert.Equal(t, int64(1), atomic.LoadInt64(&calls))
}

type ringA struct{}

func TestSelfReentrantConstructorIsBug(t *testing.T) {
	inj := New()
	Construct(inj, func(ctx context.Context, inj *Injector) (ringA, error) {
		// A constructor that synchronously asks for its own type, within
		// the same call chain, must fail fast rather than deadlock.
		_, err := Get[ringA](ctx, inj)
		if err != nil {
			return ringA{}, err
		}
		return ringA{}, nil
	})

	_, err := Get[ringA](context.Background(), inj)
	require.Error(t, err)
	assert.True(t, kerrors.Is(err, kerrors.Bug))
}

func TestTakeIsSingleUse(t *testing.T) {
	inj := New()
	InsertTakeable(inj, widget{name: "once"})

	got, err := Take[widget](inj)
	require.NoError(t, err)
	assert.Equal(t, "once", got.name)

	_, err = Take[widget](inj)
	require.Error(t, err)
	assert.True(t, kerrors.Is(err, kerrors.NotFound))
}

func TestTakeOptReportsAbsence(t *testing.T) {
	inj := New()
	_, ok := TakeOpt[widget](inj)
	assert.False(t, ok)

	InsertTakeable(inj, widget{name: "present"})
	got, ok := TakeOpt[widget](inj)
	require.True(t, ok)
	assert.Equal(t, "present", got.name)
}

func TestGetOnTakeableIsBug(t *testing.T) {
	inj := New()
	InsertTakeable(inj, widget{name: "x"})
	_, err := Get[widget](context.Background(), inj)
	require.Error(t, err)
	assert.True(t, kerrors.Is(err, kerrors.Bug))
}
