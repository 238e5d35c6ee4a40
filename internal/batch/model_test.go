package batch

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oolongworks/teausage/internal/domain"
)

func TestComputeReferenceSample(t *testing.T) {
	m, err := NewModel(6504, 160, 600)
	require.NoError(t, err)

	rec := m.Compute("2026-01", "tie_guan_yin", 716141.0)
	assert.InDelta(t, 110.11, rec.BatchesNeeded, 0.01)
	assert.InDelta(t, 17617.24, rec.LeafGramsUsed, 0.01)
	assert.InDelta(t, 29.36, rec.BagsUsed, 0.01)

	// Stays fractional, no rounding inside the model.
	assert.NotEqual(t, float64(int(rec.BatchesNeeded)), rec.BatchesNeeded)
}

func TestNewModelRejectsBadConstants(t *testing.T) {
	tests := []struct {
		name                string
		yield, leafPer, bag float64
	}{
		{"zero yield", 0, 160, 600},
		{"negative yield", -1, 160, 600},
		{"zero leaf grams", 6504, 0, 600},
		{"zero bag grams", 6504, 160, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewModel(tt.yield, tt.leafPer, tt.bag)
			require.Error(t, err)
			var cfgErr *domain.ConfigurationError
			assert.ErrorAs(t, err, &cfgErr)
		})
	}
}

func TestComputeZeroTotal(t *testing.T) {
	m, err := NewModel(6504, 160, 600)
	require.NoError(t, err)

	rec := m.Compute("2026-02", "green_tea", 0)
	assert.Zero(t, rec.BatchesNeeded)
	assert.Zero(t, rec.BagsUsed)
}
