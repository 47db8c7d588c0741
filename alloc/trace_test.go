package alloc_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/cod-technologies/fallacy/alloc"
)

func TestTracedLogsCalls(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)
	tr := alloc.NewTraced(nil, zap.New(core))

	b, err := tr.Allocate(alloc.Bytes(32))
	require.NoError(t, err)

	nb, err := tr.Grow(b, 64)
	require.NoError(t, err)
	tr.Release(nb)

	assert.Equal(t, 1, logs.FilterMessage("allocate").Len())
	assert.Equal(t, 1, logs.FilterMessage("grow").Len())
	assert.Equal(t, 1, logs.FilterMessage("release").Len())

	entry := logs.FilterMessage("allocate").All()[0]
	assert.Equal(t, int64(32), entry.ContextMap()["size"])
}

func TestTracedLogsFailures(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)
	tr := alloc.NewTraced(alloc.NewArena(16), zap.New(core))

	_, err := tr.Allocate(alloc.Bytes(64))
	require.Error(t, err)
	assert.ErrorIs(t, err, alloc.ErrOutOfMemory)

	entry := logs.FilterMessage("allocate").All()[0]
	assert.NotNil(t, entry.ContextMap()["error"])
}
