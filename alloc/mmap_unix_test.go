//go:build linux || darwin

package alloc_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cod-technologies/fallacy/alloc"
)

func TestMmapAllocateRelease(t *testing.T) {
	m, err := alloc.NewMmap()
	require.NoError(t, err)

	b, err := m.Allocate(alloc.Bytes(100))
	require.NoError(t, err)
	assert.Equal(t, 100, b.Cap())

	copy(b.Bytes(), []byte("mapped"))
	assert.Equal(t, []byte("mapped"), b.Bytes()[:6])
	m.Release(b)
}

// Growth within the slack of the mapped page stays in place.
func TestMmapGrowWithinPage(t *testing.T) {
	m, err := alloc.NewMmap()
	require.NoError(t, err)

	b, err := m.Allocate(alloc.Bytes(100))
	require.NoError(t, err)
	copy(b.Bytes(), []byte("page slack"))
	first := &b.Bytes()[0]

	nb, err := m.Grow(b, 1000)
	require.NoError(t, err)
	assert.Same(t, first, &nb.Bytes()[0])
	assert.Equal(t, []byte("page slack"), nb.Bytes()[:10])
	m.Release(nb)
}

func TestMmapGrowAcrossPages(t *testing.T) {
	m, err := alloc.NewMmap()
	require.NoError(t, err)

	b, err := m.Allocate(alloc.Bytes(512))
	require.NoError(t, err)
	copy(b.Bytes(), []byte("survives remap"))

	nb, err := m.Grow(b, 1<<16)
	require.NoError(t, err)
	assert.Equal(t, 1<<16, nb.Cap())
	assert.Equal(t, []byte("survives remap"), nb.Bytes()[:14])
	m.Release(nb)
}

func TestMmapRejectsPointerLayouts(t *testing.T) {
	m, err := alloc.NewMmap()
	require.NoError(t, err)

	lay, err := alloc.Of[string]().Array(2)
	require.NoError(t, err)

	_, err = m.Allocate(lay)
	require.Error(t, err)
	assert.ErrorIs(t, err, alloc.ErrInvalidLayout)
}
