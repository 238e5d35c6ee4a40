package canonical

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oolongworks/teausage/internal/domain"
	"github.com/oolongworks/teausage/internal/recipe"
	"github.com/oolongworks/teausage/internal/token"
)

func testCanonicalizer(t *testing.T) *Canonicalizer {
	t.Helper()
	resolver := token.NewResolver([]token.Rule{
		{Pattern: "no ice", Kind: domain.TokenIce, Value: "0"},
		{Pattern: "25% ice", Kind: domain.TokenIce, Value: "25"},
		{Pattern: "50% ice", Kind: domain.TokenIce, Value: "50"},
		{Pattern: "100% ice", Kind: domain.TokenIce, Value: "100"},
		{Pattern: "no sugar", Kind: domain.TokenSugar, Value: "0"},
		{Pattern: "30% sugar", Kind: domain.TokenSugar, Value: "30"},
		{Pattern: "50% sugar", Kind: domain.TokenSugar, Value: "50"},
		{Pattern: "pearls", Kind: domain.TokenTopping, Value: "pearls"},
		{Pattern: "tgy jelly", Kind: domain.TokenTopping, Value: "tgy_jelly"},
		{Pattern: "tie guan yin", Kind: domain.TokenTeaOverride, Value: "tie_guan_yin"},
		{Pattern: "four seasons", Kind: domain.TokenTeaOverride, Value: "four_seasons"},
		{Pattern: "green tea genmai", Kind: domain.TokenTeaOverride, Value: "green_tea_genmai"},
		{Pattern: "green tea", Kind: domain.TokenTeaOverride, Value: "green_tea"},
	})
	menu, err := recipe.NewMenu([]recipe.MenuEntry{
		{
			CategoryKey:  "mosa_signature",
			ItemKey:      "tgy_special",
			DefaultBlend: []domain.BlendComponent{{Tea: "tie_guan_yin", Weight: 1}},
		},
		{
			CategoryKey: "mosa_signature",
			ItemKey:     "grapefruit_bloom",
			DefaultBlend: []domain.BlendComponent{
				{Tea: "four_seasons", Weight: 0.5},
				{Tea: "green", Weight: 0.5},
			},
		},
		{
			CategoryKey:       "fruit_tea",
			ItemKey:           "custom_fruit_tea",
			RequiresTeaChoice: true,
		},
	})
	require.NoError(t, err)
	return NewCanonicalizer(resolver, menu)
}

func rawLine(category, item, modifiers string) domain.RawOrderLine {
	return domain.RawOrderLine{
		Date:      time.Date(2026, 1, 5, 0, 0, 0, 0, time.UTC),
		Category:  category,
		Item:      item,
		Qty:       1,
		Modifiers: modifiers,
	}
}

func TestBlendDefaultWeightsSumToOne(t *testing.T) {
	c := testCanonicalizer(t)
	audit := NewAudit()

	line := c.Canonicalize(rawLine("Mosa Signature", "Grapefruit Bloom", "50% Ice, 50% Sugar"), audit)
	assert.Equal(t, domain.ResolutionBlendDefault, line.TeaResolution)
	require.Len(t, line.ResolvedBlend, 2)
	assert.True(t, math.Abs(line.BlendWeightSum()-1.0) <= 1e-6)
}

func TestOverrideWinsOverDefaultBlend(t *testing.T) {
	c := testCanonicalizer(t)
	line := c.Canonicalize(rawLine("Mosa Signature", "Grapefruit Bloom", "Tie Guan Yin, 50% Ice"), NewAudit())

	assert.Equal(t, domain.ResolutionOverride, line.TeaResolution)
	require.Len(t, line.ResolvedBlend, 1)
	assert.Equal(t, "tie_guan_yin", line.ResolvedBlend[0].Tea)
	assert.Equal(t, 1.0, line.ResolvedBlend[0].Weight)
}

func TestOverrideNamingBlendExpandsWeights(t *testing.T) {
	c := testCanonicalizer(t)
	line := c.Canonicalize(rawLine("Mosa Signature", "TGY Special", "Green Tea Genmai"), NewAudit())

	assert.Equal(t, domain.ResolutionOverride, line.TeaResolution)
	require.Len(t, line.ResolvedBlend, 2)
	assert.True(t, math.Abs(line.BlendWeightSum()-1.0) <= 1e-6)
}

func TestTwoTeaChoicesConflict(t *testing.T) {
	c := testCanonicalizer(t)
	line := c.Canonicalize(rawLine("Mosa Signature", "TGY Special", "Tie Guan Yin, Four Seasons, 50% Ice"), NewAudit())

	assert.Equal(t, domain.ResolutionConflict, line.TeaResolution)
	assert.Empty(t, line.ResolvedBlend)
	// Ice still parses on a conflicted line.
	require.NotNil(t, line.IcePct)
	assert.Equal(t, 50, *line.IcePct)
}

func TestDuplicateSameTeaChoiceIsNotConflict(t *testing.T) {
	c := testCanonicalizer(t)
	line := c.Canonicalize(rawLine("Mosa Signature", "TGY Special", "Tie Guan Yin, Tie Guan Yin"), NewAudit())
	assert.Equal(t, domain.ResolutionOverride, line.TeaResolution)
}

func TestMissingChoiceNeverBlendDefault(t *testing.T) {
	c := testCanonicalizer(t)
	line := c.Canonicalize(rawLine("Fruit Tea", "Custom Fruit Tea", "50% Sugar"), NewAudit())

	assert.Equal(t, domain.ResolutionMissingChoice, line.TeaResolution)
	assert.True(t, line.RequiresTeaChoice)
	assert.Empty(t, line.ResolvedBlend)
}

func TestChoiceRequiredItemWithOverrideResolves(t *testing.T) {
	c := testCanonicalizer(t)
	line := c.Canonicalize(rawLine("Fruit Tea", "Custom Fruit Tea", "Green Tea"), NewAudit())

	assert.Equal(t, domain.ResolutionOverride, line.TeaResolution)
	require.Len(t, line.ResolvedBlend, 1)
	assert.Equal(t, "green", line.ResolvedBlend[0].Tea) // harmonized from green_tea
}

func TestUnknownItemSupersedesOverride(t *testing.T) {
	c := testCanonicalizer(t)
	line := c.Canonicalize(rawLine("Seasonal", "Mystery Drink", "Tie Guan Yin, 25% Ice, 30% Sugar"), NewAudit())

	assert.Equal(t, domain.ResolutionUnknown, line.TeaResolution)
	assert.Empty(t, line.ResolvedBlend)
	// Ice/sugar fields still populate for reporting.
	require.NotNil(t, line.IcePct)
	assert.Equal(t, 25, *line.IcePct)
	require.NotNil(t, line.SugarPct)
	assert.Equal(t, 30, *line.SugarPct)
}

func TestLastIceAndSugarTokenWins(t *testing.T) {
	c := testCanonicalizer(t)
	line := c.Canonicalize(rawLine("Mosa Signature", "TGY Special", "25% Ice, No Sugar, 100% Ice, 50% Sugar"), NewAudit())

	require.NotNil(t, line.IcePct)
	assert.Equal(t, 100, *line.IcePct)
	require.NotNil(t, line.SugarPct)
	assert.Equal(t, 50, *line.SugarPct)
}

func TestToppingsCollapseIntoSet(t *testing.T) {
	c := testCanonicalizer(t)
	line := c.Canonicalize(rawLine("Mosa Signature", "TGY Special", "Pearls, TGY Jelly, Pearls"), NewAudit())

	assert.Equal(t, []string{"pearls", "tgy_jelly"}, line.Toppings)
}

func TestUnknownTokensRecordedNotFatal(t *testing.T) {
	c := testCanonicalizer(t)
	audit := NewAudit()

	line := c.Canonicalize(rawLine("Mosa Signature", "TGY Special", "Oat Milk Swap, 50% Ice, Oat Milk Swap"), audit)
	assert.Equal(t, domain.ResolutionBlendDefault, line.TeaResolution)
	assert.Equal(t, []string{"Oat Milk Swap", "Oat Milk Swap"}, line.UnknownTokens)
	assert.Equal(t, 2, audit.Count("Oat Milk Swap"))
}

func TestAuditDeterministicAcrossRuns(t *testing.T) {
	c := testCanonicalizer(t)
	lines := []domain.RawOrderLine{
		rawLine("Mosa Signature", "TGY Special", "Foo Token, Bar Token"),
		rawLine("Mosa Signature", "TGY Special", "Bar Token"),
		rawLine("Seasonal", "Mystery Drink", "Foo Token"),
	}

	run := func() []TokenCount {
		audit := NewAudit()
		for _, raw := range lines {
			c.Canonicalize(raw, audit)
		}
		return audit.Sorted()
	}

	first := run()
	second := run()
	assert.Equal(t, first, second)
	require.Len(t, first, 2)
	assert.Equal(t, TokenCount{Token: "Bar Token", Count: 2}, first[0])
	assert.Equal(t, TokenCount{Token: "Foo Token", Count: 2}, first[1])
}

func TestExplodeQuantity(t *testing.T) {
	c := testCanonicalizer(t)
	line := c.Canonicalize(rawLine("Mosa Signature", "TGY Special", "50% Ice"), NewAudit())
	line.Qty = 3

	rows := Explode([]domain.CanonicalLineItem{line})
	require.Len(t, rows, 3)
	assert.Equal(t, "0-1", rows[0].LineItemID())
	assert.Equal(t, "0-3", rows[2].LineItemID())
	for _, r := range rows {
		assert.Equal(t, line.Item, r.Item)
		assert.Equal(t, line.TeaResolution, r.TeaResolution)
	}
}

func TestSlimAndDebugRowsShareSource(t *testing.T) {
	c := testCanonicalizer(t)
	line := c.Canonicalize(rawLine("Mosa Signature", "TGY Special", "50% Ice, Weird Token"), NewAudit())

	slim := SlimRow(&line)
	debug := DebugRow(&line)
	assert.Equal(t, len(SlimHeader()), len(slim))
	assert.Equal(t, len(DebugHeader()), len(debug))
	// Debug is a superset of slim in both header and values.
	assert.Equal(t, slim, debug[:len(slim)])
	assert.Contains(t, debug, "50% Ice, Weird Token")
}
