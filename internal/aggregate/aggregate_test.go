package aggregate

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oolongworks/teausage/internal/domain"
)

func row(day time.Time, id string, comps ...domain.ComponentUsage) domain.UsageRow {
	return domain.UsageRow{
		Date:          day,
		LineItemID:    id,
		TeaResolution: domain.ResolutionBlendDefault,
		Components:    comps,
	}
}

func comp(tea string, ml float64) domain.ComponentUsage {
	return domain.ComponentUsage{Tea: tea, MlEst: ml}
}

func TestSummarizeDaily(t *testing.T) {
	mon := time.Date(2026, 2, 2, 9, 15, 0, 0, time.UTC) // Monday
	tue := mon.AddDate(0, 0, 1)

	rows := []domain.UsageRow{
		row(mon, "1-1", comp("tie_guan_yin", 420)),
		row(mon, "2-1", comp("tie_guan_yin", 380)),
		row(mon, "3-1", comp("genmai", 225), comp("green", 225)),
		row(tue, "4-1", comp("tie_guan_yin", 500)),
	}

	daily := SummarizeDaily(rows)
	require.Len(t, daily, 4)

	// Sorted by date then component.
	assert.Equal(t, "genmai", daily[0].TeaComponent)
	assert.Equal(t, "green", daily[1].TeaComponent)
	assert.Equal(t, "tie_guan_yin", daily[2].TeaComponent)

	tgy := daily[2]
	assert.Equal(t, 800.0, tgy.TeaMlTotal)
	assert.Equal(t, 2, tgy.DrinkCount)
	// Timestamps collapse onto the calendar day.
	assert.Equal(t, time.Date(2026, 2, 2, 0, 0, 0, 0, time.UTC), tgy.Date)

	assert.Equal(t, 500.0, daily[3].TeaMlTotal)
}

func TestSummarizeDailySkipsUnresolvedRows(t *testing.T) {
	mon := time.Date(2026, 2, 2, 0, 0, 0, 0, time.UTC)
	rows := []domain.UsageRow{
		row(mon, "1-1", comp("tie_guan_yin", 420)),
		{Date: mon, LineItemID: "2-1", TeaResolution: domain.ResolutionConflict},
	}

	daily := SummarizeDaily(rows)
	require.Len(t, daily, 1)
	assert.Equal(t, 1, daily[0].DrinkCount)
}

func TestSummarizeWeekdayAverages(t *testing.T) {
	mon1 := time.Date(2026, 2, 2, 0, 0, 0, 0, time.UTC)
	mon2 := mon1.AddDate(0, 0, 7)

	daily := []DailyComponentSummary{
		{Date: mon1, TeaComponent: "tie_guan_yin", DrinkCount: 10, TeaMlTotal: 4000},
		{Date: mon2, TeaComponent: "tie_guan_yin", DrinkCount: 20, TeaMlTotal: 8000},
		{Date: mon1, TeaComponent: "green", DrinkCount: 4, TeaMlTotal: 1000},
	}

	got := SummarizeWeekday(daily)
	require.Len(t, got, 2)

	assert.Equal(t, "green", got[0].TeaComponent)
	assert.Equal(t, 1, got[0].DayCount)

	tgy := got[1]
	assert.Equal(t, "Monday", tgy.WeekdayName)
	assert.Equal(t, 2, tgy.DayCount)
	assert.Equal(t, 15.0, tgy.AvgDrinkCount)
	assert.Equal(t, 6000.0, tgy.AvgTeaMlTotal)
}

func TestSummarizeMonthWeekdaySplitsMonths(t *testing.T) {
	jan := time.Date(2026, 1, 5, 0, 0, 0, 0, time.UTC) // Monday
	feb := time.Date(2026, 2, 2, 0, 0, 0, 0, time.UTC) // Monday

	daily := []DailyComponentSummary{
		{Date: jan, TeaComponent: "tie_guan_yin", DrinkCount: 10, TeaMlTotal: 4000},
		{Date: feb, TeaComponent: "tie_guan_yin", DrinkCount: 30, TeaMlTotal: 12000},
	}

	got := SummarizeMonthWeekday(daily)
	require.Len(t, got, 2)
	assert.Equal(t, "2026-01", got[0].Month)
	assert.Equal(t, 10.0, got[0].AvgDrinkCount)
	assert.Equal(t, "2026-02", got[1].Month)
	assert.Equal(t, 30.0, got[1].AvgDrinkCount)
}

func TestSummarizeMonthly(t *testing.T) {
	daily := []DailyComponentSummary{
		{Date: time.Date(2026, 1, 5, 0, 0, 0, 0, time.UTC), TeaComponent: "tie_guan_yin", TeaMlTotal: 4000},
		{Date: time.Date(2026, 1, 6, 0, 0, 0, 0, time.UTC), TeaComponent: "tie_guan_yin", TeaMlTotal: 3000},
		{Date: time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC), TeaComponent: "tie_guan_yin", TeaMlTotal: 5000},
	}

	got := SummarizeMonthly(daily)
	require.Len(t, got, 2)
	assert.Equal(t, 7000.0, got[0].TeaMlTotal)
	assert.Equal(t, 5000.0, got[1].TeaMlTotal)
}

func TestCoverageByMonth(t *testing.T) {
	var rows []domain.UsageRow
	// All 28 days of February 2026.
	for d := 1; d <= 28; d++ {
		rows = append(rows, row(time.Date(2026, 2, d, 12, 0, 0, 0, time.UTC), "x", comp("green", 100)))
	}
	// Only part of March.
	rows = append(rows, row(time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC), "y", comp("green", 100)))

	cov := CoverageByMonth(rows)
	require.Len(t, cov, 2)

	assert.Equal(t, "2026-02", cov[0].Month)
	assert.Equal(t, 28, cov[0].DaysInMonth)
	assert.True(t, cov[0].Full)

	assert.Equal(t, "2026-03", cov[1].Month)
	assert.Equal(t, 31, cov[1].DaysInMonth)
	assert.False(t, cov[1].Full)

	full := FullMonths(cov)
	assert.True(t, full["2026-02"])
	assert.False(t, full["2026-03"])
}

func TestSummarizeItems(t *testing.T) {
	day := time.Date(2026, 2, 2, 10, 0, 0, 0, time.UTC)

	named := func(item, id string, comps ...domain.ComponentUsage) domain.UsageRow {
		r := row(day, id, comps...)
		r.Item = item
		return r
	}

	rows := []domain.UsageRow{
		named("TGY Milk Tea", "1-1", comp("tie_guan_yin", 315)),
		named("TGY Milk Tea", "2-1", comp("tie_guan_yin", 420)),
		named("TGY Pure Tea", "3-1", comp("tie_guan_yin", 550)),
		named("Genmai Green", "4-1", comp("genmai", 225), comp("green", 225)),
	}

	items := SummarizeItems(rows, "tie_guan_yin")
	require.Len(t, items, 2)

	// Busiest item first; rows without the component drop out.
	assert.Equal(t, "TGY Milk Tea", items[0].Item)
	assert.Equal(t, 2, items[0].DrinkCount)
	assert.Equal(t, 735.0, items[0].TeaMlTotal)
	assert.Equal(t, "tie_guan_yin", items[0].TeaComponent)

	assert.Equal(t, "TGY Pure Tea", items[1].Item)
	assert.Equal(t, 1, items[1].DrinkCount)
	assert.Equal(t, 550.0, items[1].TeaMlTotal)
}

func TestSummarizeItemsTiesSortByName(t *testing.T) {
	day := time.Date(2026, 2, 2, 10, 0, 0, 0, time.UTC)

	a := row(day, "1-1", comp("green", 200))
	a.Item = "Zen Green"
	b := row(day, "2-1", comp("green", 300))
	b.Item = "Alpine Green"

	items := SummarizeItems([]domain.UsageRow{a, b}, "green")
	require.Len(t, items, 2)
	assert.Equal(t, "Alpine Green", items[0].Item)
	assert.Equal(t, "Zen Green", items[1].Item)
}
