package recipe

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oolongworks/teausage/internal/domain"
)

func TestNormKey(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"Mosa Signature", "mosa_signature"},
		{"  TGY Special  ", "tgy_special"},
		{"Genmai-Green (50/50)", "genmai_green_50_50"},
		{"", ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, NormKey(tt.in), "in=%q", tt.in)
	}
}

func TestParseBlendNormalizesWeights(t *testing.T) {
	comps := ParseBlend("genmai:0.5|green:0.5")
	require.Len(t, comps, 2)
	assert.InDelta(t, 0.5, comps[0].Weight, 1e-9)
	assert.InDelta(t, 0.5, comps[1].Weight, 1e-9)

	// Unnormalized weights are rescaled to sum to 1.
	comps = ParseBlend("a:2|b:2")
	require.Len(t, comps, 2)
	assert.InDelta(t, 0.5, comps[0].Weight, 1e-9)

	var sum float64
	for _, c := range ParseBlend("x:0.3|y:0.3|z:0.4") {
		sum += c.Weight
	}
	assert.InDelta(t, 1.0, sum, 1e-9)
}

func TestParseBlendBareNameIsWholeBase(t *testing.T) {
	comps := ParseBlend("tie_guan_yin")
	require.Len(t, comps, 1)
	assert.Equal(t, "tie_guan_yin", comps[0].Tea)
	assert.Equal(t, 1.0, comps[0].Weight)
}

func TestParseBlendDegenerateWeightsEvenSplit(t *testing.T) {
	comps := ParseBlend("a:0|b:0")
	require.Len(t, comps, 2)
	assert.InDelta(t, 0.5, comps[0].Weight, 1e-9)
	assert.InDelta(t, 0.5, comps[1].Weight, 1e-9)
}

func TestParseBlendEmpty(t *testing.T) {
	assert.Nil(t, ParseBlend(""))
	assert.Nil(t, ParseBlend("  |  "))
}

func TestFormatBlendDeterministic(t *testing.T) {
	a := []domain.BlendComponent{{Tea: "green", Weight: 0.5}, {Tea: "genmai", Weight: 0.5}}
	b := []domain.BlendComponent{{Tea: "genmai", Weight: 0.5}, {Tea: "green", Weight: 0.5}}
	assert.Equal(t, FormatBlend(a), FormatBlend(b))
	assert.Equal(t, "genmai:0.5|green:0.5", FormatBlend(a))
}

func TestNewMenuRejectsBadBlendSums(t *testing.T) {
	_, err := NewMenu([]MenuEntry{{
		CategoryKey: "mosa_signature",
		ItemKey:     "grapefruit_bloom",
		DefaultBlend: []domain.BlendComponent{
			{Tea: "four_seasons", Weight: 0.6},
			{Tea: "green", Weight: 0.6},
		},
	}})
	require.Error(t, err)
	assert.True(t, domain.IsConfigurationError(err))
}

func TestNewMenuAcceptsExactSums(t *testing.T) {
	menu, err := NewMenu([]MenuEntry{{
		CategoryKey: "mosa_signature",
		ItemKey:     "grapefruit_bloom",
		DefaultBlend: []domain.BlendComponent{
			{Tea: "four_seasons", Weight: 0.5},
			{Tea: "green", Weight: 0.5},
		},
	}})
	require.NoError(t, err)

	entry, ok := menu.Lookup("mosa_signature", "grapefruit_bloom")
	require.True(t, ok)
	var sum float64
	for _, c := range entry.DefaultBlend {
		sum += c.Weight
	}
	assert.True(t, math.Abs(sum-1.0) <= 1e-6)
}
