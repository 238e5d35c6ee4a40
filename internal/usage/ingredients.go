package usage

import (
	"fmt"
	"sort"
	"time"

	"github.com/oolongworks/teausage/internal/domain"
	"github.com/oolongworks/teausage/internal/recipe"
)

// IngredientUsage is the quantity of one component consumed by one drink.
// A non-empty Status explains why no quantity could be derived; such rows
// are excluded from summaries rather than silently zeroed.
type IngredientUsage struct {
	Date         time.Time
	Category     string
	Item         string
	ComponentKey string
	Qty          float64
	Unit         string
	Rule         string
	LineItemID   string
	Status       string
}

// IngredientEstimator expands estimated drinks into per-ingredient
// quantities using the item BOM tables.
type IngredientEstimator struct {
	bom *recipe.BOM
}

// NewIngredientEstimator wraps the loaded BOM reference tables.
func NewIngredientEstimator(bom *recipe.BOM) *IngredientEstimator {
	return &IngredientEstimator{bom: bom}
}

// Estimate derives ingredient rows for one estimated drink. Items without
// BOM rules yield nothing.
func (ie *IngredientEstimator) Estimate(row *domain.UsageRow) []IngredientUsage {
	rules := ie.bom.RulesFor(recipe.NormKey(row.Category), recipe.NormKey(row.Item))
	if len(rules) == 0 {
		return nil
	}
	out := make([]IngredientUsage, 0, len(rules))
	for _, rule := range rules {
		usage := IngredientUsage{
			Date:         row.Date,
			Category:     row.Category,
			Item:         row.Item,
			ComponentKey: rule.ComponentKey,
			Rule:         rule.Rule,
			LineItemID:   row.LineItemID,
		}
		usage.Qty, usage.Unit, usage.Status = ie.applyRule(rule, row)
		out = append(out, usage)
	}
	return out
}

func (ie *IngredientEstimator) applyRule(rule recipe.BOMRule, row *domain.UsageRow) (float64, string, string) {
	ratio := 1.0
	if rule.Qty != nil {
		ratio = *rule.Qty
	}

	switch rule.Rule {
	case "tea_base":
		if row.TeaBaseMlEst <= 0 {
			return 0, "", "missing_tea_base"
		}
		return row.TeaBaseMlEst * ratio, "ml", ""

	case "milk_base":
		if row.MilkMlEst <= 0 {
			return 0, "", "missing_milk"
		}
		return row.MilkMlEst * ratio, "ml", ""

	case "by_sugar_pct":
		if row.SugarPct == nil {
			return 0, "", "missing_sugar_pct"
		}
		grams, ok := ie.bom.SugarGrams[*row.SugarPct]
		if !ok {
			return 0, "", fmt.Sprintf("unknown_sugar_pct:%d", *row.SugarPct)
		}
		return grams, "g", ""

	case "by_ice_pct":
		// No ice-to-quantity mapping is defined yet.
		return 0, "", "missing_ice_mapping"

	case "fixed", "topping_default":
		if rule.Qty == nil {
			return 0, "", "missing_qty"
		}
		qty := *rule.Qty
		unit := ie.bom.Units[rule.ComponentKey]
		if (rule.QtyUnit == "shot" || rule.QtyUnit == "unit") && unit.GramsPerUnit != nil {
			return qty * *unit.GramsPerUnit, "g", ""
		}
		return qty, rule.QtyUnit, ""

	default:
		return 0, "", fmt.Sprintf("unknown_rule:%s", rule.Rule)
	}
}

// IngredientDay aggregates one component's usage for one calendar day.
type IngredientDay struct {
	Date         time.Time
	ComponentKey string
	Unit         string
	QtyTotal     float64
	DrinkCount   int
}

// SummarizeIngredients rolls usable ingredient rows up by day, component
// and unit, ordered deterministically.
func SummarizeIngredients(rows []IngredientUsage) []IngredientDay {
	type key struct {
		day       string
		component string
		unit      string
	}
	totals := make(map[key]*IngredientDay)
	drinks := make(map[key]map[string]struct{})
	for _, r := range rows {
		if r.Status != "" {
			continue
		}
		k := key{day: r.Date.Format("2006-01-02"), component: r.ComponentKey, unit: r.Unit}
		agg, ok := totals[k]
		if !ok {
			agg = &IngredientDay{Date: truncateDay(r.Date), ComponentKey: r.ComponentKey, Unit: r.Unit}
			totals[k] = agg
			drinks[k] = make(map[string]struct{})
		}
		agg.QtyTotal += r.Qty
		drinks[k][r.LineItemID] = struct{}{}
	}

	out := make([]IngredientDay, 0, len(totals))
	for k, agg := range totals {
		agg.DrinkCount = len(drinks[k])
		out = append(out, *agg)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].Date.Equal(out[j].Date) {
			return out[i].Date.Before(out[j].Date)
		}
		if out[i].ComponentKey != out[j].ComponentKey {
			return out[i].ComponentKey < out[j].ComponentKey
		}
		return out[i].Unit < out[j].Unit
	})
	return out
}

func truncateDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}
