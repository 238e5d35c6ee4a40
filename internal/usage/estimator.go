package usage

import (
	"fmt"
	"math"
	"sort"

	"github.com/oolongworks/teausage/internal/domain"
	"github.com/oolongworks/teausage/internal/recipe"
)

const (
	// reductionPerTopping is the fraction of tea base displaced by each
	// topping type.
	reductionPerTopping = 0.10
	// maxReductionSteps caps the displacement at two toppings' worth.
	maxReductionSteps = 2
)

// ErrMissingIce marks drinks whose ice level could not be determined and
// no recipe entry forces one; they are excluded from volume totals and
// reported separately.
var ErrMissingIce = fmt.Errorf("no ice level for drink")

// IceFallback selects how off-bucket ice percentages are bucketed.
type IceFallback string

const (
	FallbackNearest IceFallback = "nearest"
	FallbackLower   IceFallback = "lower"
	FallbackError   IceFallback = "error"
)

// Estimator converts canonical drinks into tea-base volume estimates.
// All inputs are read-only for the duration of a run.
type Estimator struct {
	recipes     *recipe.Table
	bucketMeans map[int]float64
	bucketKeys  []int
	zeroIceMl   float64
	fallback    IceFallback
}

// NewEstimator builds an estimator from the recipe table, the manually
// calibrated per-bucket sample means (keyed by ice percent, zero bucket
// excluded) and the zero-ice default volume.
func NewEstimator(recipes *recipe.Table, bucketMeans map[int]float64, zeroIceMl float64, fallback IceFallback) (*Estimator, error) {
	if zeroIceMl <= 0 {
		return nil, &domain.ConfigurationError{Field: "zero-ice base ml", Reason: "must be positive"}
	}
	if len(bucketMeans) == 0 {
		return nil, &domain.ConfigurationError{Field: "ice bucket means", Reason: "table is empty"}
	}
	keys := make([]int, 0, len(bucketMeans)+1)
	keys = append(keys, 0)
	for k, v := range bucketMeans {
		if v <= 0 {
			return nil, &domain.ConfigurationError{
				Field:  fmt.Sprintf("ice bucket %d mean", k),
				Reason: "must be positive",
			}
		}
		keys = append(keys, k)
	}
	sort.Ints(keys)
	if fallback == "" {
		fallback = FallbackNearest
	}
	return &Estimator{
		recipes:     recipes,
		bucketMeans: bucketMeans,
		bucketKeys:  keys,
		zeroIceMl:   zeroIceMl,
		fallback:    fallback,
	}, nil
}

// Estimate produces the UsageRow for one physical drink. Drinks whose
// tea resolution is conflict, missing_choice or unknown fail with an
// UnresolvableError and must be excluded from volume totals by the caller.
func (e *Estimator) Estimate(drink *domain.ExplodedDrinkRow) (domain.UsageRow, error) {
	if !drink.Resolved() {
		return domain.UsageRow{}, &domain.UnresolvableError{
			Item:       drink.Item,
			Resolution: drink.TeaResolution,
		}
	}

	row := domain.UsageRow{
		Date:          drink.Date,
		OrderID:       drink.OrderID,
		Category:      drink.Category,
		Item:          drink.Item,
		LineItemID:    drink.LineItemID(),
		SugarPct:      drink.SugarPct,
		ToppingCount:  len(drink.Toppings),
		TeaResolution: drink.TeaResolution,
	}

	rec := e.recipes.Lookup(drink.Item, drink.Category)

	var base float64
	switch {
	case rec != nil && rec.Forced():
		// A forced-ice recipe pins the volume outright; the parsed ice
		// bucket is irrelevant.
		base = *rec.TeaBaseMl
		if rec.Ice == recipe.IceForcedFull {
			row.IcePctBucket = 100
		}
	default:
		bucket, err := e.assignBucket(drink.IcePct)
		if err != nil {
			return domain.UsageRow{}, err
		}
		row.IcePctBucket = bucket
		base = e.baseForBucket(rec, bucket)
	}
	row.BaseTeaMl = base

	steps := row.ToppingCount
	if steps > maxReductionSteps {
		steps = maxReductionSteps
	}
	row.ReductionPct = float64(steps) * reductionPerTopping
	total := RoundHalfUp(base * (1 - row.ReductionPct))

	if rec != nil && rec.IsMilkDrink() {
		row.MilkMlEst = RoundHalfUp(total * rec.MilkRatio)
		total -= row.MilkMlEst
	} else if rec != nil && rec.MilkMl != nil {
		row.MilkMlEst = *rec.MilkMl
	}
	row.TeaBaseMlEst = total

	row.Components = make([]domain.ComponentUsage, 0, len(drink.ResolvedBlend))
	for _, bc := range drink.ResolvedBlend {
		row.Components = append(row.Components, domain.ComponentUsage{
			Tea:   bc.Tea,
			Share: bc.Weight,
			MlEst: total * bc.Weight,
		})
	}
	return row, nil
}

// assignBucket maps a parsed ice percent onto a calibrated bucket.
func (e *Estimator) assignBucket(icePct *int) (int, error) {
	if icePct == nil {
		return 0, ErrMissingIce
	}
	v := *icePct
	if v == 0 {
		return 0, nil
	}
	if _, ok := e.bucketMeans[v]; ok {
		return v, nil
	}
	switch e.fallback {
	case FallbackError:
		return 0, fmt.Errorf("ice level %d%% has no calibrated bucket", v)
	case FallbackLower:
		lower := e.bucketKeys[0]
		for _, k := range e.bucketKeys {
			if k <= v {
				lower = k
			}
		}
		return lower, nil
	default: // nearest
		best := e.bucketKeys[0]
		for _, k := range e.bucketKeys {
			if abs(k-v) < abs(best-v) {
				best = k
			}
		}
		return best, nil
	}
}

// baseForBucket picks the tea volume for a bucket, honoring per-item
// recipe bucket overrides before the generic defaults.
func (e *Estimator) baseForBucket(rec *recipe.Override, bucket int) float64 {
	if rec != nil {
		if ml, ok := rec.BucketMl(bucket); ok {
			return ml
		}
	}
	if bucket == 0 {
		return e.zeroIceMl
	}
	return e.bucketMeans[bucket]
}

// RoundHalfUp rounds half away from zero toward positive infinity
// (0.5 -> 1), unlike the banker's rounding of math.RoundToEven.
func RoundHalfUp(v float64) float64 {
	return math.Floor(v + 0.5)
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
