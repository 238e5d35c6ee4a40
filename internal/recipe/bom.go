package recipe

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/oolongworks/teausage/internal/domain"
)

// BOMRule quantifies one ingredient of one menu item.
type BOMRule struct {
	CategoryKey  string
	ItemKey      string
	ComponentKey string
	// Rule selects how the quantity is derived: tea_base, milk_base,
	// by_sugar_pct, by_ice_pct, fixed, or topping_default.
	Rule    string
	Qty     *float64
	QtyUnit string
}

// ComponentUnit describes how a component's counted units convert to grams.
type ComponentUnit struct {
	Unit         string
	GramsPerUnit *float64
}

// BOM bundles the ingredient reference tables consumed by the
// ingredient estimator.
type BOM struct {
	Rules      []BOMRule
	Units      map[string]ComponentUnit
	SugarGrams map[int]float64
}

// RulesFor returns the BOM rules matching normalized category/item keys.
func (b *BOM) RulesFor(categoryKey, itemKey string) []BOMRule {
	var out []BOMRule
	for _, r := range b.Rules {
		if r.CategoryKey == categoryKey && r.ItemKey == itemKey {
			out = append(out, r)
		}
	}
	return out
}

// LoadBOM reads the item BOM, component units and sugar map tables.
func LoadBOM(bomPath, unitsPath, sugarMapPath string) (*BOM, error) {
	bomRows, bomCol, err := readAll(bomPath)
	if err != nil {
		return nil, err
	}
	unitRows, unitCol, err := readAll(unitsPath)
	if err != nil {
		return nil, err
	}
	sugarRows, sugarCol, err := readAll(sugarMapPath)
	if err != nil {
		return nil, err
	}

	bom := &BOM{
		Units:      make(map[string]ComponentUnit),
		SugarGrams: make(map[int]float64),
	}

	for _, record := range bomRows {
		rule := BOMRule{
			CategoryKey:  strings.TrimSpace(field(record, bomCol, "category_key")),
			ItemKey:      strings.TrimSpace(field(record, bomCol, "item_key")),
			ComponentKey: strings.TrimSpace(field(record, bomCol, "component_key")),
			Rule:         strings.TrimSpace(field(record, bomCol, "rule")),
			QtyUnit:      strings.TrimSpace(field(record, bomCol, "qty_unit")),
		}
		if rule.ComponentKey == "" {
			continue
		}
		if qty := strings.TrimSpace(field(record, bomCol, "qty")); qty != "" {
			v, err := strconv.ParseFloat(qty, 64)
			if err != nil {
				return nil, fmt.Errorf("item bom %s: invalid qty %q for %s", bomPath, qty, rule.ComponentKey)
			}
			rule.Qty = &v
		}
		bom.Rules = append(bom.Rules, rule)
	}

	for _, record := range unitRows {
		key := strings.TrimSpace(field(record, unitCol, "component_key"))
		if key == "" {
			continue
		}
		unit := ComponentUnit{Unit: strings.TrimSpace(field(record, unitCol, "unit"))}
		if g := strings.TrimSpace(field(record, unitCol, "grams_per_unit")); g != "" {
			v, err := strconv.ParseFloat(g, 64)
			if err != nil {
				return nil, fmt.Errorf("component units %s: invalid grams_per_unit %q for %s", unitsPath, g, key)
			}
			unit.GramsPerUnit = &v
		}
		bom.Units[key] = unit
	}

	for i, record := range sugarRows {
		pctStr := strings.TrimSpace(field(record, sugarCol, "sugar_pct"))
		gramsStr := strings.TrimSpace(field(record, sugarCol, "grams_sugar"))
		if pctStr == "" || gramsStr == "" {
			continue
		}
		pct, err := strconv.Atoi(pctStr)
		if err != nil {
			return nil, fmt.Errorf("sugar map %s row %d: invalid sugar_pct %q", sugarMapPath, i+2, pctStr)
		}
		grams, err := strconv.ParseFloat(gramsStr, 64)
		if err != nil || grams < 0 {
			return nil, &domain.ConfigurationError{
				Field:  fmt.Sprintf("sugar map row %d grams_sugar", i+2),
				Reason: fmt.Sprintf("invalid value %q", gramsStr),
			}
		}
		bom.SugarGrams[pct] = grams
	}

	return bom, nil
}
