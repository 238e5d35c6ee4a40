package batch

import (
	"fmt"
	"sort"
)

// Absorption rates for brews that are drained without squeezing the leaf.
var absorbMlPerGram = map[string]float64{
	"four_seasons":  3.2,
	"green_tea":     3.0,
	"tie_guan_yin":  3.8,
	"matured_black": 2.7,
	"buckwheat":     2.4,
	"barley":        2.8,
	"toasted_rice":  2.8,
}

var defaultLeafGrams = map[string]float64{
	"four_seasons":  160,
	"green_tea":     160,
	"tie_guan_yin":  160,
	"matured_black": 140,
	"buckwheat":     120,
	"barley":        240,
	"toasted_rice":  120,
}

// BrewParams describes one brewing setup. ProcessLossMl covers spillage
// and filter retention beyond what the leaf absorbs.
type BrewParams struct {
	HotWaterMl    float64
	IceGrams      float64
	ProcessLossMl float64
}

// YieldEstimate is the output of the absorption model for one tea.
type YieldEstimate struct {
	TeaKey       string  `json:"tea_key"`
	LeafGrams    float64 `json:"leaf_grams"`
	AbsorbMlPerG float64 `json:"absorb_ml_per_g"`
	AbsorbedMl   float64 `json:"absorbed_ml"`
	YieldMl      float64 `json:"yield_ml"`
}

// EstimateYield computes the drinkable ml one batch of the given tea
// produces:
//
//	yield_ml = hot_water_ml + ice_grams - leaf_grams*absorb_ml_per_g - process_loss_ml
//
// Ice melts 1:1 by weight, so ice grams count directly as ml. Pass a
// negative leafGrams to use the house default for the tea.
func EstimateYield(teaKey string, leafGrams float64, params BrewParams) (YieldEstimate, error) {
	absorb, ok := absorbMlPerGram[teaKey]
	if !ok {
		return YieldEstimate{}, fmt.Errorf("no absorption rate for tea %q", teaKey)
	}
	if leafGrams < 0 {
		leafGrams, ok = defaultLeafGrams[teaKey]
		if !ok {
			return YieldEstimate{}, fmt.Errorf("no default leaf grams for tea %q", teaKey)
		}
	}
	if params.HotWaterMl < 0 || params.IceGrams < 0 || params.ProcessLossMl < 0 {
		return YieldEstimate{}, fmt.Errorf("brew params for tea %q must be non-negative", teaKey)
	}

	est := YieldEstimate{
		TeaKey:       teaKey,
		LeafGrams:    leafGrams,
		AbsorbMlPerG: absorb,
	}
	est.AbsorbedMl = leafGrams * absorb
	est.YieldMl = params.HotWaterMl + params.IceGrams - est.AbsorbedMl - params.ProcessLossMl
	return est, nil
}

// EstimateAllYields runs the model over every tea with a known absorption
// rate, using default leaf grams, sorted by tea key.
func EstimateAllYields(params BrewParams) ([]YieldEstimate, error) {
	keys := make([]string, 0, len(absorbMlPerGram))
	for k := range absorbMlPerGram {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	out := make([]YieldEstimate, 0, len(keys))
	for _, k := range keys {
		est, err := EstimateYield(k, -1, params)
		if err != nil {
			return nil, err
		}
		out = append(out, est)
	}
	return out, nil
}
