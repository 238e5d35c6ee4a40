package usage

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oolongworks/teausage/internal/domain"
	"github.com/oolongworks/teausage/internal/recipe"
)

func testMeans() map[int]float64 {
	return map[int]float64{25: 500, 50: 450, 75: 400, 100: 360}
}

func newTestEstimator(t *testing.T, entries []recipe.Override) *Estimator {
	t.Helper()
	e, err := NewEstimator(recipe.NewTable(entries), testMeans(), 550, FallbackNearest)
	require.NoError(t, err)
	return e
}

func drink(item, category string, icePct *int, toppings []string, blend ...domain.BlendComponent) domain.ExplodedDrinkRow {
	if len(blend) == 0 {
		blend = []domain.BlendComponent{{Tea: "tie_guan_yin", Weight: 1}}
	}
	return domain.ExplodedDrinkRow{
		CanonicalLineItem: domain.CanonicalLineItem{
			Date:          time.Date(2026, 2, 3, 0, 0, 0, 0, time.UTC),
			Category:      category,
			Item:          item,
			Qty:           1,
			IcePct:        icePct,
			Toppings:      toppings,
			TeaResolution: domain.ResolutionBlendDefault,
			ResolvedBlend: blend,
		},
		LineGroupID:   1,
		LineItemIndex: 1,
	}
}

func pct(v int) *int { return &v }

func TestZeroIceDefaultsTo550(t *testing.T) {
	e := newTestEstimator(t, nil)
	row, err := e.Estimate(ptr(drink("Four Seasons Tea", "Pure Tea", pct(0), nil)))
	require.NoError(t, err)
	assert.Equal(t, 550.0, row.TeaBaseMlEst)
	assert.Equal(t, 0, row.IcePctBucket)
}

func TestBucketMeansApplyPerIceLevel(t *testing.T) {
	e := newTestEstimator(t, nil)
	tests := []struct {
		ice  int
		want float64
	}{
		{25, 500}, {50, 450}, {75, 400}, {100, 360},
	}
	for _, tt := range tests {
		row, err := e.Estimate(ptr(drink("Four Seasons Tea", "Pure Tea", pct(tt.ice), nil)))
		require.NoError(t, err)
		assert.Equal(t, tt.want, row.TeaBaseMlEst, "ice=%d", tt.ice)
	}
}

func TestToppingReductionSaturates(t *testing.T) {
	e, err := NewEstimator(recipe.NewTable(nil), map[int]float64{50: 600}, 550, FallbackNearest)
	require.NoError(t, err)

	tests := []struct {
		toppings []string
		want     float64
	}{
		{nil, 600},
		{[]string{"pearls"}, 540},
		{[]string{"pearls", "pudding"}, 480},
		{[]string{"pearls", "pudding", "tea_jelly"}, 480}, // capped, not 420
	}
	for _, tt := range tests {
		row, err := e.Estimate(ptr(drink("Any Tea", "Pure Tea", pct(50), tt.toppings)))
		require.NoError(t, err)
		assert.Equal(t, tt.want, row.TeaBaseMlEst, "toppings=%d", len(tt.toppings))
	}
}

func TestForcedIceRecipeOverridesBuckets(t *testing.T) {
	flat := 320.0
	e := newTestEstimator(t, []recipe.Override{
		{MatchTokens: []string{"matcha latte"}, TeaBaseMl: &flat, Ice: recipe.IceForcedFull},
	})

	// Parsed ice level is ignored when the recipe forces the bucket.
	row, err := e.Estimate(ptr(drink("Strawberry Matcha Latte", "Milk Tea", pct(25), nil)))
	require.NoError(t, err)
	assert.Equal(t, 320.0, row.TeaBaseMlEst)
	assert.Equal(t, 100, row.IcePctBucket)
}

func TestRecipeBucketOverrideBeatsGenericMean(t *testing.T) {
	e := newTestEstimator(t, []recipe.Override{
		{MatchTokens: []string{"tgy special"}, BucketTeaMl: map[int]float64{0: 500, 50: 430}},
	})

	row, err := e.Estimate(ptr(drink("TGY Special", "Mosa Signature", pct(0), nil)))
	require.NoError(t, err)
	assert.Equal(t, 500.0, row.TeaBaseMlEst)

	row, err = e.Estimate(ptr(drink("TGY Special", "Mosa Signature", pct(50), nil)))
	require.NoError(t, err)
	assert.Equal(t, 430.0, row.TeaBaseMlEst)
}

func TestMilkRatioSplitsVolume(t *testing.T) {
	e := newTestEstimator(t, []recipe.Override{
		{MatchTokens: []string{"milk tea"}, MilkRatio: 0.3},
	})

	row, err := e.Estimate(ptr(drink("TGY Milk Tea", "Milk Tea", pct(50), nil)))
	require.NoError(t, err)
	// 450 total: 135 milk, 315 tea.
	assert.Equal(t, 135.0, row.MilkMlEst)
	assert.Equal(t, 315.0, row.TeaBaseMlEst)
}

func TestComponentMlSumsBackToTotal(t *testing.T) {
	e := newTestEstimator(t, nil)
	blend := []domain.BlendComponent{
		{Tea: "genmai", Weight: 0.5},
		{Tea: "green", Weight: 0.5},
	}
	row, err := e.Estimate(ptr(drink("Genmai Green", "Pure Tea", pct(75), []string{"pearls"}, blend...)))
	require.NoError(t, err)

	var sum float64
	for _, c := range row.Components {
		sum += c.MlEst
	}
	assert.True(t, math.Abs(sum-row.TeaBaseMlEst) <= 1e-6)
}

func TestUnresolvableStatusesExcluded(t *testing.T) {
	e := newTestEstimator(t, nil)
	for _, res := range []domain.TeaResolution{
		domain.ResolutionConflict,
		domain.ResolutionMissingChoice,
		domain.ResolutionUnknown,
	} {
		d := drink("TGY Special", "Mosa Signature", pct(50), nil)
		d.TeaResolution = res
		d.ResolvedBlend = nil
		_, err := e.Estimate(&d)
		require.Error(t, err, "resolution=%s", res)
		assert.ErrorIs(t, err, domain.ErrUnresolvable)
	}
}

func TestMissingIceIsReportedNotGuessed(t *testing.T) {
	e := newTestEstimator(t, nil)
	_, err := e.Estimate(ptr(drink("TGY Special", "Mosa Signature", nil, nil)))
	assert.ErrorIs(t, err, ErrMissingIce)
}

func TestOffBucketIceFallsBackNearest(t *testing.T) {
	e := newTestEstimator(t, nil)
	row, err := e.Estimate(ptr(drink("TGY Special", "Mosa Signature", pct(60), nil)))
	require.NoError(t, err)
	assert.Equal(t, 50, row.IcePctBucket)
	assert.Equal(t, 450.0, row.TeaBaseMlEst)
}

func TestOffBucketIceErrorMode(t *testing.T) {
	e, err := NewEstimator(recipe.NewTable(nil), testMeans(), 550, FallbackError)
	require.NoError(t, err)
	_, err = e.Estimate(ptr(drink("TGY Special", "Mosa Signature", pct(60), nil)))
	assert.Error(t, err)
}

func TestRoundHalfUp(t *testing.T) {
	assert.Equal(t, 1.0, RoundHalfUp(0.5))
	assert.Equal(t, 2.0, RoundHalfUp(1.5))
	assert.Equal(t, 486.0, RoundHalfUp(486.0))
	assert.Equal(t, 487.0, RoundHalfUp(486.5))
}

func TestNewEstimatorValidatesConstants(t *testing.T) {
	_, err := NewEstimator(recipe.NewTable(nil), testMeans(), 0, FallbackNearest)
	require.Error(t, err)
	assert.True(t, domain.IsConfigurationError(err))

	_, err = NewEstimator(recipe.NewTable(nil), map[int]float64{}, 550, FallbackNearest)
	require.Error(t, err)
	assert.True(t, domain.IsConfigurationError(err))
}

func ptr(d domain.ExplodedDrinkRow) *domain.ExplodedDrinkRow { return &d }
