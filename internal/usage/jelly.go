package usage

import (
	"github.com/oolongworks/teausage/internal/domain"
)

// DefaultJellyToppings are the topping keys counted as brewed-tea jelly.
var DefaultJellyToppings = []string{"tea_jelly", "tgy_jelly", "osmanthus_tgy_jelly"}

// JellySummary reports how much brewed tea goes into jelly toppings over
// a run, at a fixed ml-per-scoop conversion.
type JellySummary struct {
	LineItems            int     `json:"line_items"`
	DrinksWithJelly      int     `json:"drinks_with_jelly"`
	TotalScoops          float64 `json:"total_scoops"`
	AvgScoopsPerDrink    float64 `json:"avg_scoops_per_drink"`
	AvgScoopsPerJelly    float64 `json:"avg_scoops_per_jelly_drink"`
	MlPerScoop           float64 `json:"ml_per_scoop"`
	TotalMlFromJelly     float64 `json:"total_ml_from_jelly"`
	AvgMlFromJellyPerDrn float64 `json:"avg_ml_from_jelly_per_drink"`
}

// SummarizeJellyUsage counts jelly topping scoops across exploded drinks.
// Each listed jelly topping on a drink counts as one scoop.
func SummarizeJellyUsage(drinks []domain.ExplodedDrinkRow, mlPerScoop float64, toppingKeys []string) JellySummary {
	if len(toppingKeys) == 0 {
		toppingKeys = DefaultJellyToppings
	}
	targets := make(map[string]struct{}, len(toppingKeys))
	for _, k := range toppingKeys {
		targets[k] = struct{}{}
	}

	summary := JellySummary{LineItems: len(drinks), MlPerScoop: mlPerScoop}
	for _, drink := range drinks {
		var scoops float64
		for _, topping := range drink.Toppings {
			if _, ok := targets[topping]; ok {
				scoops++
			}
		}
		if scoops > 0 {
			summary.DrinksWithJelly++
		}
		summary.TotalScoops += scoops
	}
	summary.TotalMlFromJelly = summary.TotalScoops * mlPerScoop
	if summary.LineItems > 0 {
		summary.AvgScoopsPerDrink = summary.TotalScoops / float64(summary.LineItems)
		summary.AvgMlFromJellyPerDrn = summary.TotalMlFromJelly / float64(summary.LineItems)
	}
	if summary.DrinksWithJelly > 0 {
		summary.AvgScoopsPerJelly = summary.TotalScoops / float64(summary.DrinksWithJelly)
	}
	return summary
}
