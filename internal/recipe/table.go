package recipe

import (
	"strings"
)

// IceConstraint is the categorical ice rule a recipe entry may impose.
type IceConstraint string

const (
	// IcePerLevel means the generic ice-bucket defaults apply.
	IcePerLevel IceConstraint = "ice (per ice level)"
	// IceForcedFull means the drink is always built at 100% ice and the
	// entry's flat tea_base_ml applies regardless of the parsed bucket.
	IceForcedFull IceConstraint = "100% ice"
	// IceForcedNone is the same forcing for no-ice drinks.
	IceForcedNone IceConstraint = "no ice"
)

// Override is one recipe rule supplying explicit volumes for matching items.
type Override struct {
	Category    string
	ItemName    string
	TeaBaseMl   *float64
	MilkMl      *float64
	MilkRatio   float64
	Ice         IceConstraint
	MatchTokens []string
	// Per-ice-bucket tea-base defaults, keyed by bucket percent.
	BucketTeaMl map[int]float64
}

// Forced reports whether the entry pins the ice level outright.
func (o *Override) Forced() bool {
	return o.Ice == IceForcedFull || o.Ice == IceForcedNone
}

// IsMilkDrink reports whether the entry splits volume between tea and milk.
func (o *Override) IsMilkDrink() bool {
	return o.MilkRatio > 0
}

// matchesTokens reports whether the item name contains any match token.
func (o *Override) matchesTokens(itemName string) bool {
	name := strings.ToLower(itemName)
	for _, tok := range o.MatchTokens {
		if tok != "" && strings.Contains(name, tok) {
			return true
		}
	}
	return false
}

// matchesExact reports an exact item+category match.
func (o *Override) matchesExact(itemName, category string) bool {
	return strings.EqualFold(o.ItemName, itemName) && strings.EqualFold(o.Category, category)
}

// Table is the ordered set of recipe overrides for a run. It is loaded
// once and read-only afterwards.
type Table struct {
	entries []Override
}

// NewTable builds a table preserving entry order; order is the documented
// tie-break for lookups.
func NewTable(entries []Override) *Table {
	normalized := make([]Override, len(entries))
	for i, e := range entries {
		toks := make([]string, 0, len(e.MatchTokens))
		for _, t := range e.MatchTokens {
			t = strings.ToLower(strings.TrimSpace(t))
			if t != "" {
				toks = append(toks, t)
			}
		}
		e.MatchTokens = toks
		if e.Ice == "" {
			e.Ice = IcePerLevel
		}
		normalized[i] = e
	}
	return &Table{entries: normalized}
}

// Lookup returns the recipe override for an item, or nil when no entry
// matches. Token matches beat exact item+category matches; within the
// same specificity the first entry in table order wins.
func (t *Table) Lookup(itemName, category string) *Override {
	var exact *Override
	for i := range t.entries {
		e := &t.entries[i]
		if len(e.MatchTokens) > 0 {
			if e.matchesTokens(itemName) {
				return e
			}
			continue
		}
		if exact == nil && e.matchesExact(itemName, category) {
			exact = e
		}
	}
	return exact
}

// BucketMl returns the entry's tea-base default for an ice bucket, when
// one is configured.
func (o *Override) BucketMl(icePct int) (float64, bool) {
	ml, ok := o.BucketTeaMl[icePct]
	return ml, ok
}

// Len reports the number of entries.
func (t *Table) Len() int { return len(t.entries) }
