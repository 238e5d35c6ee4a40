package recipe

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ml(v float64) *float64 { return &v }

func TestLookupTokenMatchBeatsExact(t *testing.T) {
	table := NewTable([]Override{
		{Category: "Milk Tea", ItemName: "Strawberry Matcha Latte", TeaBaseMl: ml(200), Ice: IceForcedFull},
		{Category: "Milk Tea", ItemName: "", MatchTokens: []string{"matcha"}, TeaBaseMl: ml(180), Ice: IceForcedFull},
	})

	// The token entry is more specific than the exact item+category entry
	// even though the exact entry comes first.
	got := table.Lookup("Strawberry Matcha Latte", "Milk Tea")
	require.NotNil(t, got)
	assert.Equal(t, 180.0, *got.TeaBaseMl)
}

func TestLookupFirstTokenEntryWins(t *testing.T) {
	table := NewTable([]Override{
		{MatchTokens: []string{"fruit tea"}, TeaBaseMl: ml(500)},
		{MatchTokens: []string{"tea"}, TeaBaseMl: ml(400)},
	})

	got := table.Lookup("Passion Fruit Tea", "Fruit Tea")
	require.NotNil(t, got)
	assert.Equal(t, 500.0, *got.TeaBaseMl)
}

func TestLookupExactRequiresBothFields(t *testing.T) {
	table := NewTable([]Override{
		{Category: "Hot Drinks", ItemName: "Hot TGY", TeaBaseMl: ml(350), Ice: IceForcedNone},
	})

	assert.Nil(t, table.Lookup("Hot TGY", "Cold Drinks"))
	assert.Nil(t, table.Lookup("Iced TGY", "Hot Drinks"))

	got := table.Lookup("hot tgy", "hot drinks")
	require.NotNil(t, got)
	assert.True(t, got.Forced())
}

func TestLookupNoMatch(t *testing.T) {
	table := NewTable([]Override{
		{MatchTokens: []string{"latte"}, TeaBaseMl: ml(300)},
	})
	assert.Nil(t, table.Lookup("Four Seasons Tea", "Pure Tea"))
}

func TestBucketMl(t *testing.T) {
	e := Override{BucketTeaMl: map[int]float64{0: 550, 50: 420}}

	got, ok := e.BucketMl(50)
	assert.True(t, ok)
	assert.Equal(t, 420.0, got)

	_, ok = e.BucketMl(75)
	assert.False(t, ok)
}

func TestIceConstraintDefaultsToPerLevel(t *testing.T) {
	table := NewTable([]Override{{MatchTokens: []string{"oolong"}}})
	got := table.Lookup("Iced Oolong", "Pure Tea")
	require.NotNil(t, got)
	assert.Equal(t, IcePerLevel, got.Ice)
	assert.False(t, got.Forced())
}
