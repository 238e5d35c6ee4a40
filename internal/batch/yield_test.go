package batch

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var houseBrew = BrewParams{HotWaterMl: 4200, IceGrams: 2800}

func TestEstimateYieldDefaults(t *testing.T) {
	est, err := EstimateYield("tie_guan_yin", -1, houseBrew)
	require.NoError(t, err)

	// 4200 + 2800 - 160*3.8 = 6392
	assert.Equal(t, 160.0, est.LeafGrams)
	assert.Equal(t, 3.8, est.AbsorbMlPerG)
	assert.Equal(t, 608.0, est.AbsorbedMl)
	assert.Equal(t, 6392.0, est.YieldMl)
}

func TestEstimateYieldExplicitLeafAndLoss(t *testing.T) {
	est, err := EstimateYield("green_tea", 200, BrewParams{
		HotWaterMl:    4200,
		IceGrams:      2800,
		ProcessLossMl: 150,
	})
	require.NoError(t, err)

	// 4200 + 2800 - 200*3.0 - 150 = 6250
	assert.Equal(t, 6250.0, est.YieldMl)
}

func TestEstimateYieldUnknownTea(t *testing.T) {
	_, err := EstimateYield("matcha", -1, houseBrew)
	assert.Error(t, err)
}

func TestEstimateYieldNegativeParams(t *testing.T) {
	_, err := EstimateYield("barley", 240, BrewParams{HotWaterMl: -1})
	assert.Error(t, err)
}

func TestEstimateAllYieldsSorted(t *testing.T) {
	ests, err := EstimateAllYields(houseBrew)
	require.NoError(t, err)
	require.Len(t, ests, 7)

	for i := 1; i < len(ests); i++ {
		assert.Less(t, ests[i-1].TeaKey, ests[i].TeaKey)
	}
}

func TestBatchKeyMapping(t *testing.T) {
	key, ok := BatchKeyFor("green")
	require.True(t, ok)
	assert.Equal(t, "green_tea", key)

	key, ok = BatchKeyFor("buckwheat_barley")
	require.True(t, ok)
	assert.Equal(t, "buckwheat", key)

	_, ok = BatchKeyFor("matcha")
	assert.False(t, ok)

	_, ok = BatchKeyFor("nonexistent")
	assert.False(t, ok)
}

func TestYieldForComponentFallback(t *testing.T) {
	yields := map[string]float64{"tie_guan_yin": 6392}

	assert.Equal(t, 6392.0, YieldForComponent("tie_guan_yin", yields))
	// Mapped but no estimate on file.
	assert.Equal(t, float64(DefaultBatchYieldMl), YieldForComponent("green", yields))
	// Explicitly non-batch.
	assert.Equal(t, float64(DefaultBatchYieldMl), YieldForComponent("matcha", yields))
}

func TestMonthlyBagUsageDisplacement(t *testing.T) {
	m, err := NewModel(6392, 160, 600)
	require.NoError(t, err)

	usage := m.ComputeMonthlyBagUsage("2026-01", 500000, 12000, 8000)
	assert.Equal(t, 480000.0, usage.AdjustedMl)
	assert.InDelta(t, 75.09, usage.BatchesNeeded, 0.01)
	assert.InDelta(t, 20.02, usage.BagsUsed, 0.01)
}

func TestDisplacementFloorsAtZero(t *testing.T) {
	assert.Equal(t, 0.0, AdjustDisplacement(100, 80, 50))
	assert.Equal(t, 100.0, AdjustDisplacement(100, 0, 0))
}
