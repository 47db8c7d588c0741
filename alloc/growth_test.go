package alloc_test

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cod-technologies/fallacy/alloc"
)

func TestGrowCapacity(t *testing.T) {
	tests := []struct {
		name                       string
		cur, length, additional, m int
		want                       int
	}{
		{"first allocation uses floor", 0, 0, 1, 4, 4},
		{"doubling wins over need", 8, 8, 1, 4, 16},
		{"need wins over doubling", 8, 8, 100, 4, 108},
		{"sufficient capacity unchanged", 16, 4, 8, 4, 16},
		{"exact fit unchanged", 16, 8, 8, 4, 16},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := alloc.GrowCapacity(tt.cur, tt.length, tt.additional, tt.m)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestGrowCapacityOverflow(t *testing.T) {
	_, err := alloc.GrowCapacity(8, math.MaxInt, 1, 4)
	require.Error(t, err)
	assert.ErrorIs(t, err, alloc.ErrCapacityOverflow)
}
