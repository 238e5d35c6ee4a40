package token

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/oolongworks/teausage/internal/domain"
)

func testRules() []Rule {
	return []Rule{
		{Pattern: "no ice", Mode: MatchExact, Kind: domain.TokenIce, Value: "0"},
		{Pattern: "50% ice", Mode: MatchExact, Kind: domain.TokenIce, Value: "50"},
		{Pattern: "100% ice", Mode: MatchExact, Kind: domain.TokenIce, Value: "100"},
		{Pattern: "no sugar", Mode: MatchExact, Kind: domain.TokenSugar, Value: "0"},
		{Pattern: "50% sugar", Mode: MatchExact, Kind: domain.TokenSugar, Value: "50"},
		{Pattern: "osmanthus tgy jelly", Mode: MatchContains, Kind: domain.TokenTopping, Value: "osmanthus_tgy_jelly"},
		{Pattern: "tgy jelly", Mode: MatchContains, Kind: domain.TokenTopping, Value: "tgy_jelly"},
		{Pattern: "jelly", Mode: MatchContains, Kind: domain.TokenTopping, Value: "tea_jelly"},
		{Pattern: "tie guan yin", Mode: MatchContains, Kind: domain.TokenTeaOverride, Value: "tie_guan_yin"},
		{Pattern: "four seasons", Mode: MatchContains, Kind: domain.TokenTeaOverride, Value: "four_seasons"},
	}
}

func TestResolveFirstMatchWins(t *testing.T) {
	r := NewResolver(testRules())

	// "osmanthus tgy jelly" contains "tgy jelly" and "jelly" too; the more
	// specific rule sits earlier in the table and must win.
	tok := r.Resolve("Osmanthus TGY Jelly")
	assert.Equal(t, domain.TokenTopping, tok.Kind)
	assert.Equal(t, "osmanthus_tgy_jelly", tok.Value)

	tok = r.Resolve("TGY Jelly")
	assert.Equal(t, "tgy_jelly", tok.Value)

	tok = r.Resolve("Grass Jelly")
	assert.Equal(t, "tea_jelly", tok.Value)
}

func TestResolveCaseInsensitive(t *testing.T) {
	r := NewResolver(testRules())

	for _, raw := range []string{"NO ICE", "no ice", "No Ice", "  no ice  "} {
		tok := r.Resolve(raw)
		assert.Equal(t, domain.TokenIce, tok.Kind, "raw=%q", raw)
		assert.Equal(t, "0", tok.Value)
	}
}

func TestResolveUnknownKeepsOriginal(t *testing.T) {
	r := NewResolver(testRules())

	tok := r.Resolve("Extra Shot of Espresso")
	assert.Equal(t, domain.TokenUnknown, tok.Kind)
	assert.Equal(t, "Extra Shot of Espresso", tok.Value)
	assert.Equal(t, "Extra Shot of Espresso", tok.Raw)
}

func TestResolveAllSplitsOnCommas(t *testing.T) {
	r := NewResolver(testRules())

	tokens := r.ResolveAll("50% Ice, 50% Sugar, Tie Guan Yin, , Mystery Add-on")
	if assert.Len(t, tokens, 4) {
		assert.Equal(t, domain.TokenIce, tokens[0].Kind)
		assert.Equal(t, domain.TokenSugar, tokens[1].Kind)
		assert.Equal(t, domain.TokenTeaOverride, tokens[2].Kind)
		assert.Equal(t, domain.TokenUnknown, tokens[3].Kind)
	}
}

func TestResolveAllEmpty(t *testing.T) {
	r := NewResolver(testRules())
	assert.Nil(t, r.ResolveAll(""))
	assert.Nil(t, r.ResolveAll("   "))
}
