package boxed_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cod-technologies/fallacy/alloc"
	"github.com/cod-technologies/fallacy/alloc/alloctest"
	"github.com/cod-technologies/fallacy/boxed"
)

type pair struct {
	A, B int
}

func TestNewGetSet(t *testing.T) {
	b, err := boxed.TryNew(nil, pair{A: 1, B: 2})
	require.NoError(t, err)
	defer b.Free()

	assert.Equal(t, pair{A: 1, B: 2}, *b.Get())

	b.Set(pair{A: 3, B: 4})
	assert.Equal(t, pair{A: 3, B: 4}, *b.Get())

	b.Get().A = 5
	assert.Equal(t, 5, b.Get().A)
}

func TestFailedConstructionLeavesValueUntouched(t *testing.T) {
	f := alloctest.New(nil)
	f.FailNow()

	value := pair{A: 7, B: 8}
	b, err := boxed.TryNew(f, value)
	require.Error(t, err)
	assert.ErrorIs(t, err, alloc.ErrOutOfMemory)
	assert.Nil(t, b)
	assert.Equal(t, pair{A: 7, B: 8}, value)

	f.Heal()
	b, err = boxed.TryNew(f, value)
	require.NoError(t, err)
	assert.Equal(t, value, *b.Get())
	b.Free()
}

func TestTake(t *testing.T) {
	b, err := boxed.TryNew[string](nil, "hello")
	require.NoError(t, err)

	got := b.Take()
	assert.Equal(t, "hello", got)
	assert.Panics(t, func() { b.Get() })
}

func TestUseAfterFreePanics(t *testing.T) {
	b, err := boxed.TryNew(nil, 42)
	require.NoError(t, err)

	b.Free()
	assert.Panics(t, func() { b.Get() })
	assert.Panics(t, func() { b.Set(1) })
	assert.NotPanics(t, func() { b.Free() })
}

func TestReleaseReachesAllocator(t *testing.T) {
	f := alloctest.New(nil)
	b, err := boxed.TryNew(f, int64(9))
	require.NoError(t, err)
	require.Equal(t, 1, f.AllocateCalls())

	b.Free()
	assert.Equal(t, 1, f.ReleaseCalls())
}

func TestZeroSizeValue(t *testing.T) {
	f := alloctest.New(nil)
	b, err := boxed.TryNew(f, struct{}{})
	require.NoError(t, err)
	assert.Equal(t, 0, f.AllocateCalls(), "zero-size values need no storage")
	assert.NotNil(t, b.Get())
	b.Free()
	assert.Equal(t, 0, f.ReleaseCalls())
}

func TestArenaBackedBox(t *testing.T) {
	a := alloc.NewArena(16)

	b1, err := boxed.TryNew(a, uint64(1))
	require.NoError(t, err)
	b2, err := boxed.TryNew(a, uint64(2))
	require.NoError(t, err)

	_, err = boxed.TryNew(a, uint64(3))
	require.ErrorIs(t, err, alloc.ErrOutOfMemory)

	assert.Equal(t, uint64(1), *b1.Get())
	assert.Equal(t, uint64(2), *b2.Get())

	b2.Free()
	assert.Equal(t, 8, a.Used(), "freeing the tail allocation rewinds the arena")
	b1.Free()
	assert.Equal(t, 8, a.Used(), "earlier blocks stay consumed until Reset")
}

func TestTryClone(t *testing.T) {
	b, err := boxed.TryNew(nil, pair{A: 1, B: 2})
	require.NoError(t, err)

	c, err := b.TryClone()
	require.NoError(t, err)
	assert.Equal(t, pair{A: 1, B: 2}, *c.Get())

	c.Get().A = 9
	assert.Equal(t, 1, b.Get().A, "clone mutation must not reach the original")

	f := alloctest.New(nil)
	fb, err := boxed.TryNew(f, 5)
	require.NoError(t, err)
	f.FailNow()
	fc, err := fb.TryClone()
	require.ErrorIs(t, err, alloc.ErrOutOfMemory)
	assert.Nil(t, fc)
	assert.Equal(t, 5, *fb.Get())
}
