package batch

import "math"

// DefaultBatchYieldMl is applied when a blend component maps to no brewed
// batch with its own yield estimate.
const DefaultBatchYieldMl = 800

// componentBatchKey maps blend-component names to the brew batch that
// supplies them. An empty value means the component is not batch-brewed.
var componentBatchKey = map[string]string{
	"tie_guan_yin":     "tie_guan_yin",
	"four_seasons":     "four_seasons",
	"green":            "green_tea",
	"genmai":           "genmai",
	"black":            "matured_black",
	"buckwheat_barley": "buckwheat",
	// Matcha is whisked as a concentrate, not brewed in batches.
	"matcha": "",
}

// BatchKeyFor resolves a blend component to its brew batch key. The second
// return is false when the component is unmapped or explicitly non-batch.
func BatchKeyFor(component string) (string, bool) {
	key, ok := componentBatchKey[component]
	if !ok || key == "" {
		return "", false
	}
	return key, true
}

// YieldForComponent picks the batch yield for a component from per-tea
// estimates, falling back to DefaultBatchYieldMl for anything unmapped.
func YieldForComponent(component string, yields map[string]float64) float64 {
	key, ok := BatchKeyFor(component)
	if !ok {
		return DefaultBatchYieldMl
	}
	if y, ok := yields[key]; ok && y > 0 {
		return y
	}
	return DefaultBatchYieldMl
}

// MonthlyBagUsage is the reorder-facing view of one month of a single
// tea's consumption, with sweetener displacement backed out.
type MonthlyBagUsage struct {
	Month         string  `json:"month"`
	BaseMl        float64 `json:"base_ml"`
	SugarGrams    float64 `json:"sugar_grams"`
	CreamerGrams  float64 `json:"creamer_grams"`
	AdjustedMl    float64 `json:"adjusted_ml"`
	BatchesNeeded float64 `json:"batches_needed"`
	BagsUsed      float64 `json:"bags_used"`
}

// AdjustDisplacement subtracts dissolved sugar-syrup and creamer grams
// from a measured ml total. Dissolved solids displace brewed tea roughly
// 1 g : 1 ml in the finished cup. Never goes below zero.
func AdjustDisplacement(baseMl, sugarGrams, creamerGrams float64) float64 {
	adjusted := baseMl - sugarGrams - creamerGrams
	if adjusted < 0 {
		return 0
	}
	return adjusted
}

// ComputeMonthlyBagUsage applies displacement then the batch arithmetic
// for one month. Values are rounded to two decimals since this table is
// read by humans planning orders.
func (m *Model) ComputeMonthlyBagUsage(month string, baseMl, sugarGrams, creamerGrams float64) MonthlyBagUsage {
	usage := MonthlyBagUsage{
		Month:        month,
		BaseMl:       baseMl,
		SugarGrams:   sugarGrams,
		CreamerGrams: creamerGrams,
	}
	usage.AdjustedMl = round2(AdjustDisplacement(baseMl, sugarGrams, creamerGrams))
	usage.BatchesNeeded = round2(usage.AdjustedMl / m.BatchYieldMl)
	usage.BagsUsed = round2(usage.BatchesNeeded * m.LeafGramsPerBatch / m.BagGrams)
	return usage
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
