package domain

import (
	"strconv"
	"time"
)

// RawOrderLine is one row from a point-of-sale export after cleaning.
// It is never mutated once read.
type RawOrderLine struct {
	OrderID   string
	Date      time.Time
	Category  string
	Item      string
	Qty       float64
	Modifiers string
	IcePct    *int
	SugarPct  *int
}

// TokenKind classifies a parsed modifier token.
type TokenKind string

const (
	TokenIce         TokenKind = "ice"
	TokenSugar       TokenKind = "sugar"
	TokenTopping     TokenKind = "topping"
	TokenTeaOverride TokenKind = "tea_base"
	TokenUnknown     TokenKind = "unknown"
)

// ModifierToken is an atomic parsed unit from raw modifier text.
// Unknown tokens keep the original raw text as their value.
type ModifierToken struct {
	Raw   string
	Kind  TokenKind
	Value string
}

// BlendComponent is one weighted component of a resolved tea base.
type BlendComponent struct {
	Tea    string
	Weight float64
}

// CanonicalLineItem is the structured form of one order line.
type CanonicalLineItem struct {
	Date         time.Time
	OrderID      string
	Category     string
	Item         string
	CategoryKey  string
	ItemKey      string
	Qty          float64
	RawModifiers string

	IcePct   *int
	SugarPct *int
	Toppings []string

	TeaOverride       string
	RequiresTeaChoice bool
	TeaResolution     TeaResolution
	ResolvedBlend     []BlendComponent

	UnknownTokens []string
}

// HasTopping reports whether the line carries at least one topping.
func (c *CanonicalLineItem) HasTopping() bool {
	return len(c.Toppings) > 0
}

// BlendWeightSum returns the total weight of the resolved blend.
func (c *CanonicalLineItem) BlendWeightSum() float64 {
	var sum float64
	for _, bc := range c.ResolvedBlend {
		sum += bc.Weight
	}
	return sum
}

// Resolved reports whether the line carries a usable blend for volume math.
func (c *CanonicalLineItem) Resolved() bool {
	return c.TeaResolution == ResolutionBlendDefault || c.TeaResolution == ResolutionOverride
}

// ExplodedDrinkRow is one physical drink derived from a canonical line.
// A line with Qty > 1 explodes into that many rows, each inheriting the
// canonical fields.
type ExplodedDrinkRow struct {
	CanonicalLineItem

	LineGroupID   int
	LineItemIndex int
}

// LineItemID identifies a single physical drink across output tables.
func (e *ExplodedDrinkRow) LineItemID() string {
	return strconv.Itoa(e.LineGroupID) + "-" + strconv.Itoa(e.LineItemIndex)
}

// ComponentUsage is the per-tea-component share of one drink's volume.
type ComponentUsage struct {
	Tea   string
	Share float64
	MlEst float64
}

// UsageRow is the estimated usage for one physical drink.
type UsageRow struct {
	Date          time.Time
	OrderID       string
	Category      string
	Item          string
	LineItemID    string
	IcePctBucket  int
	SugarPct      *int
	ToppingCount  int
	BaseTeaMl     float64
	ReductionPct  float64
	TeaBaseMlEst  float64
	MilkMlEst     float64
	TeaResolution TeaResolution
	Components    []ComponentUsage
}

// BatchYieldRecord is the reorder arithmetic for one period of one tea.
type BatchYieldRecord struct {
	Period            string
	TeaKey            string
	TeaMlTotal        float64
	BatchYieldMl      float64
	LeafGramsPerBatch float64
	BagGrams          float64
	BatchesNeeded     float64
	LeafGramsUsed     float64
	BagsUsed          float64
}

// ValidationMetrics summarises pipeline health for one run.
type ValidationMetrics struct {
	TotalLines       int                   `json:"total_lines"`
	ByResolution     map[TeaResolution]int `json:"by_resolution"`
	UnknownTokens    int                   `json:"unknown_tokens"`
	ExcludedFromMath int                   `json:"excluded_from_math"`
}

// NewValidationMetrics returns an empty metrics accumulator.
func NewValidationMetrics() *ValidationMetrics {
	return &ValidationMetrics{ByResolution: make(map[TeaResolution]int)}
}

// Observe records one canonical line in the metrics.
func (m *ValidationMetrics) Observe(line *CanonicalLineItem) {
	m.TotalLines++
	m.ByResolution[line.TeaResolution]++
	m.UnknownTokens += len(line.UnknownTokens)
	if !line.Resolved() {
		m.ExcludedFromMath++
	}
}
