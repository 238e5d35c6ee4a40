package usage

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oolongworks/teausage/internal/domain"
	"github.com/oolongworks/teausage/internal/recipe"
)

func qty(v float64) *float64 { return &v }

func testBOM() *recipe.BOM {
	grams := 12.0
	return &recipe.BOM{
		Rules: []recipe.BOMRule{
			{CategoryKey: "milk_tea", ItemKey: "tgy_milk_tea", ComponentKey: "tie_guan_yin", Rule: "tea_base", Qty: qty(1)},
			{CategoryKey: "milk_tea", ItemKey: "tgy_milk_tea", ComponentKey: "non_dairy_creamer", Rule: "milk_base", Qty: qty(1)},
			{CategoryKey: "milk_tea", ItemKey: "tgy_milk_tea", ComponentKey: "sugar_syrup", Rule: "by_sugar_pct"},
			{CategoryKey: "milk_tea", ItemKey: "tgy_milk_tea", ComponentKey: "osmanthus_syrup", Rule: "fixed", Qty: qty(2), QtyUnit: "shot"},
			{CategoryKey: "milk_tea", ItemKey: "tgy_milk_tea", ComponentKey: "ice_scoop", Rule: "by_ice_pct"},
		},
		Units: map[string]recipe.ComponentUnit{
			"osmanthus_syrup": {Unit: "shot", GramsPerUnit: &grams},
		},
		SugarGrams: map[int]float64{0: 0, 30: 18, 50: 30, 100: 60},
	}
}

func usageRow(sugar *int) domain.UsageRow {
	return domain.UsageRow{
		Date:         time.Date(2026, 2, 3, 0, 0, 0, 0, time.UTC),
		Category:     "Milk Tea",
		Item:         "TGY Milk Tea",
		LineItemID:   "4-1",
		SugarPct:     sugar,
		TeaBaseMlEst: 315,
		MilkMlEst:    135,
	}
}

func TestIngredientRules(t *testing.T) {
	ie := NewIngredientEstimator(testBOM())
	row := usageRow(pct(50))

	got := ie.Estimate(&row)
	require.Len(t, got, 5)

	byComponent := make(map[string]IngredientUsage)
	for _, g := range got {
		byComponent[g.ComponentKey] = g
	}

	tea := byComponent["tie_guan_yin"]
	assert.Equal(t, 315.0, tea.Qty)
	assert.Equal(t, "ml", tea.Unit)
	assert.Empty(t, tea.Status)

	milk := byComponent["non_dairy_creamer"]
	assert.Equal(t, 135.0, milk.Qty)
	assert.Equal(t, "ml", milk.Unit)

	sugar := byComponent["sugar_syrup"]
	assert.Equal(t, 30.0, sugar.Qty)
	assert.Equal(t, "g", sugar.Unit)

	// Shot counts convert through grams_per_unit.
	syrup := byComponent["osmanthus_syrup"]
	assert.Equal(t, 24.0, syrup.Qty)
	assert.Equal(t, "g", syrup.Unit)

	// No ice mapping exists; the row carries a status instead of a guess.
	ice := byComponent["ice_scoop"]
	assert.Equal(t, "missing_ice_mapping", ice.Status)
}

func TestIngredientMissingSugarPct(t *testing.T) {
	ie := NewIngredientEstimator(testBOM())
	row := usageRow(nil)

	got := ie.Estimate(&row)
	for _, g := range got {
		if g.ComponentKey == "sugar_syrup" {
			assert.Equal(t, "missing_sugar_pct", g.Status)
		}
	}
}

func TestIngredientUnknownSugarPct(t *testing.T) {
	ie := NewIngredientEstimator(testBOM())
	row := usageRow(pct(42))

	got := ie.Estimate(&row)
	for _, g := range got {
		if g.ComponentKey == "sugar_syrup" {
			assert.Equal(t, "unknown_sugar_pct:42", g.Status)
		}
	}
}

func TestIngredientNoRulesNoRows(t *testing.T) {
	ie := NewIngredientEstimator(testBOM())
	row := usageRow(pct(50))
	row.Category = "Pure Tea"
	row.Item = "Four Seasons Tea"
	assert.Nil(t, ie.Estimate(&row))
}

func TestSummarizeIngredientsSkipsStatusRows(t *testing.T) {
	day := time.Date(2026, 2, 3, 10, 30, 0, 0, time.UTC)
	rows := []IngredientUsage{
		{Date: day, ComponentKey: "sugar_syrup", Unit: "g", Qty: 30, LineItemID: "1-1"},
		{Date: day, ComponentKey: "sugar_syrup", Unit: "g", Qty: 18, LineItemID: "2-1"},
		{Date: day, ComponentKey: "sugar_syrup", Unit: "g", Status: "missing_sugar_pct", LineItemID: "3-1"},
		{Date: day.AddDate(0, 0, 1), ComponentKey: "sugar_syrup", Unit: "g", Qty: 60, LineItemID: "4-1"},
	}

	got := SummarizeIngredients(rows)
	require.Len(t, got, 2)
	assert.Equal(t, 48.0, got[0].QtyTotal)
	assert.Equal(t, 2, got[0].DrinkCount)
	assert.Equal(t, 60.0, got[1].QtyTotal)
	// Timestamps collapse onto calendar days.
	assert.Equal(t, time.Date(2026, 2, 3, 0, 0, 0, 0, time.UTC), got[0].Date)
}

func TestSummarizeJellyUsage(t *testing.T) {
	drinks := []domain.ExplodedDrinkRow{
		drink("TGY Special", "Mosa Signature", pct(50), []string{"tgy_jelly", "pearls"}),
		drink("TGY Special", "Mosa Signature", pct(50), []string{"pearls"}),
		drink("Osmanthus Oolong", "Mosa Signature", pct(50), []string{"osmanthus_tgy_jelly", "tea_jelly"}),
		drink("Four Seasons Tea", "Pure Tea", pct(50), nil),
	}

	got := SummarizeJellyUsage(drinks, 87, nil)
	assert.Equal(t, 4, got.LineItems)
	assert.Equal(t, 2, got.DrinksWithJelly)
	assert.Equal(t, 3.0, got.TotalScoops)
	assert.Equal(t, 261.0, got.TotalMlFromJelly)
	assert.InDelta(t, 0.75, got.AvgScoopsPerDrink, 1e-9)
	assert.InDelta(t, 1.5, got.AvgScoopsPerJelly, 1e-9)
}
