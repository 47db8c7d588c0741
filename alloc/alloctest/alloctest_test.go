package alloctest_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cod-technologies/fallacy/alloc"
	"github.com/cod-technologies/fallacy/alloc/alloctest"
)

func TestFlakyFailAfter(t *testing.T) {
	f := alloctest.New(nil)
	f.FailAfter(2)

	b1, err := f.Allocate(alloc.Bytes(8))
	require.NoError(t, err)
	b2, err := f.Allocate(alloc.Bytes(8))
	require.NoError(t, err)

	_, err = f.Allocate(alloc.Bytes(8))
	require.Error(t, err)
	assert.ErrorIs(t, err, alloc.ErrOutOfMemory)

	f.Heal()
	b3, err := f.Allocate(alloc.Bytes(8))
	require.NoError(t, err)

	f.Release(b1)
	f.Release(b2)
	f.Release(b3)

	assert.Equal(t, 4, f.AllocateCalls())
	assert.Equal(t, 3, f.ReleaseCalls())
}

func TestFlakyGrowCounts(t *testing.T) {
	f := alloctest.New(nil)

	b, err := f.Allocate(alloc.Bytes(8))
	require.NoError(t, err)

	f.FailNow()
	_, err = f.Grow(b, 16)
	require.Error(t, err)
	assert.ErrorIs(t, err, alloc.ErrOutOfMemory)
	assert.Equal(t, 8, b.Cap(), "failed grow leaves the block intact")

	assert.Equal(t, 1, f.GrowCalls())
	assert.Equal(t, 2, f.AttemptCalls())
	assert.Equal(t, []string{"allocate", "grow"}, f.Ops())
}
