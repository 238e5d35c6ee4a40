package canonical

import (
	"sort"
	"strconv"
	"strings"

	"github.com/oolongworks/teausage/internal/domain"
	"github.com/oolongworks/teausage/internal/recipe"
	"github.com/oolongworks/teausage/internal/token"
)

// defaultTeaValueMap harmonizes tea-override token values with the
// component keys used by the item and blend rule tables.
var defaultTeaValueMap = map[string]string{
	"green_tea":        "green",
	"four_seasons_tea": "four_seasons",
	"green_tea_genmai": "genmai:0.5|green:0.5",
}

// Canonicalizer turns raw order lines into canonical line items using the
// run's token resolver and menu tables. It holds no mutable state of its
// own; the unknown-token audit is passed in per call.
type Canonicalizer struct {
	resolver    *token.Resolver
	menu        *recipe.Menu
	teaValueMap map[string]string
}

// NewCanonicalizer builds a canonicalizer over read-only rule tables.
func NewCanonicalizer(resolver *token.Resolver, menu *recipe.Menu) *Canonicalizer {
	return &Canonicalizer{
		resolver:    resolver,
		menu:        menu,
		teaValueMap: defaultTeaValueMap,
	}
}

// Canonicalize produces exactly one CanonicalLineItem per raw line.
// Unknown tokens never abort processing; they are kept on the line and
// recorded in the audit for the end-of-run report.
func (c *Canonicalizer) Canonicalize(raw domain.RawOrderLine, audit *Audit) domain.CanonicalLineItem {
	line := domain.CanonicalLineItem{
		Date:         raw.Date,
		OrderID:      raw.OrderID,
		Category:     raw.Category,
		Item:         raw.Item,
		CategoryKey:  recipe.NormKey(raw.Category),
		ItemKey:      recipe.NormKey(raw.Item),
		Qty:          raw.Qty,
		RawModifiers: raw.Modifiers,
		IcePct:       raw.IcePct,
		SugarPct:     raw.SugarPct,
	}

	toppings := make(map[string]struct{})
	teaChoices := make(map[string]struct{})

	for _, tok := range c.resolver.ResolveAll(raw.Modifiers) {
		switch tok.Kind {
		case domain.TokenIce:
			// Multiple ice tokens are an export artifact: last one wins.
			if pct, err := strconv.Atoi(tok.Value); err == nil {
				line.IcePct = &pct
			}
		case domain.TokenSugar:
			if pct, err := strconv.Atoi(tok.Value); err == nil {
				line.SugarPct = &pct
			}
		case domain.TokenTopping:
			toppings[tok.Value] = struct{}{}
		case domain.TokenTeaOverride:
			teaChoices[c.harmonizeTea(tok.Value)] = struct{}{}
		default:
			line.UnknownTokens = append(line.UnknownTokens, tok.Raw)
			if audit != nil {
				audit.Record(tok.Raw)
			}
		}
	}

	line.Toppings = sortedKeys(toppings)
	c.resolveTea(&line, sortedKeys(teaChoices))
	return line
}

// resolveTea applies the resolution precedence. An item absent from the
// menu is unknown regardless of override tokens. Distinct tea choices on
// a known item flag a genuine customer ambiguity, while multiple ice or
// sugar tokens are treated as export noise above.
func (c *Canonicalizer) resolveTea(line *domain.CanonicalLineItem, choices []string) {
	entry, known := c.menu.Lookup(line.CategoryKey, line.ItemKey)
	if !known {
		line.TeaResolution = domain.ResolutionUnknown
		return
	}

	switch {
	case len(choices) > 1:
		line.TeaResolution = domain.ResolutionConflict
	case len(choices) == 1:
		line.TeaOverride = choices[0]
		line.TeaResolution = domain.ResolutionOverride
		line.ResolvedBlend = recipe.ParseBlend(choices[0])
	case entry.RequiresTeaChoice:
		line.TeaResolution = domain.ResolutionMissingChoice
	default:
		line.TeaResolution = domain.ResolutionBlendDefault
		line.ResolvedBlend = entry.DefaultBlend
	}
	line.RequiresTeaChoice = entry.RequiresTeaChoice
}

func (c *Canonicalizer) harmonizeTea(value string) string {
	if mapped, ok := c.teaValueMap[value]; ok {
		return mapped
	}
	return value
}

func sortedKeys(set map[string]struct{}) []string {
	if len(set) == 0 {
		return nil
	}
	keys := make([]string, 0, len(set))
	for k := range set {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Explode expands canonical lines into one row per physical drink. Lines
// with a non-positive quantity yield no rows.
func Explode(lines []domain.CanonicalLineItem) []domain.ExplodedDrinkRow {
	var out []domain.ExplodedDrinkRow
	for i, line := range lines {
		count := int(line.Qty)
		if float64(count) < line.Qty {
			count++ // fractional quantities round up to whole drinks
		}
		for j := 0; j < count; j++ {
			out = append(out, domain.ExplodedDrinkRow{
				CanonicalLineItem: line,
				LineGroupID:       i,
				LineItemIndex:     j + 1,
			})
		}
	}
	return out
}

// SlimHeader lists the columns of the slim canonicalized output.
func SlimHeader() []string {
	return []string{
		"date", "order_id", "category", "item", "qty",
		"ice_pct", "sugar_pct", "toppings",
		"category_key", "item_key", "tea_base_final", "tea_resolution",
	}
}

// SlimRow renders a canonical line for the slim output. Debug-only fields
// (raw modifier text, unknown tokens, override provenance) stay out of it.
func SlimRow(line *domain.CanonicalLineItem) []string {
	return []string{
		line.Date.Format("2006-01-02"),
		line.OrderID,
		line.Category,
		line.Item,
		strconv.FormatFloat(line.Qty, 'g', -1, 64),
		formatPct(line.IcePct),
		formatPct(line.SugarPct),
		strings.Join(line.Toppings, "|"),
		line.CategoryKey,
		line.ItemKey,
		recipe.FormatBlend(line.ResolvedBlend),
		string(line.TeaResolution),
	}
}

// DebugHeader lists the columns of the full canonicalized_debug output.
func DebugHeader() []string {
	return append(SlimHeader(),
		"raw_modifiers", "tea_override", "requires_tea_choice", "unknown_tokens")
}

// DebugRow renders a canonical line with every parsed field retained.
func DebugRow(line *domain.CanonicalLineItem) []string {
	return append(SlimRow(line),
		line.RawModifiers,
		line.TeaOverride,
		strconv.FormatBool(line.RequiresTeaChoice),
		strings.Join(line.UnknownTokens, "|"),
	)
}

func formatPct(p *int) string {
	if p == nil {
		return ""
	}
	return strconv.Itoa(*p)
}
