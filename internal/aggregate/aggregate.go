package aggregate

import (
	"sort"
	"time"

	"github.com/oolongworks/teausage/internal/domain"
)

// DailyComponentSummary totals one tea component's volume for one
// calendar day. DrinkCount counts distinct physical drinks, so a drink
// whose blend spans two components counts once per component.
type DailyComponentSummary struct {
	Date         time.Time `json:"date"`
	TeaComponent string    `json:"tea_component"`
	DrinkCount   int       `json:"drink_count"`
	TeaMlTotal   float64   `json:"tea_ml_total"`
}

// WeekdaySummary averages daily totals across all occurrences of one
// weekday for one tea component.
type WeekdaySummary struct {
	Weekday       time.Weekday `json:"-"`
	WeekdayName   string       `json:"weekday"`
	TeaComponent  string       `json:"tea_component"`
	DayCount      int          `json:"day_count"`
	AvgDrinkCount float64      `json:"avg_drink_count"`
	AvgTeaMlTotal float64      `json:"avg_tea_ml_total"`
}

// MonthWeekdaySummary is the WeekdaySummary restricted to one month.
type MonthWeekdaySummary struct {
	Month string `json:"month"`
	WeekdaySummary
}

// MonthCoverage reports whether every calendar day of a month appears in
// the source data. Partial months are flagged so consumers can exclude
// them from month-level planning.
type MonthCoverage struct {
	Month       string `json:"month"`
	DaysPresent int    `json:"days_present"`
	DaysInMonth int    `json:"days_in_month"`
	Full        bool   `json:"full"`
}

type dayKey struct {
	day       time.Time
	component string
}

// SummarizeDaily groups usage rows into per-day, per-component totals.
// Rows without a resolved blend carry no components and drop out here.
func SummarizeDaily(rows []domain.UsageRow) []DailyComponentSummary {
	totals := make(map[dayKey]*DailyComponentSummary)
	drinks := make(map[dayKey]map[string]struct{})

	for i := range rows {
		row := &rows[i]
		day := truncateDay(row.Date)
		for _, comp := range row.Components {
			k := dayKey{day: day, component: comp.Tea}
			agg, ok := totals[k]
			if !ok {
				agg = &DailyComponentSummary{Date: day, TeaComponent: comp.Tea}
				totals[k] = agg
				drinks[k] = make(map[string]struct{})
			}
			agg.TeaMlTotal += comp.MlEst
			drinks[k][row.LineItemID] = struct{}{}
		}
	}

	out := make([]DailyComponentSummary, 0, len(totals))
	for k, agg := range totals {
		agg.DrinkCount = len(drinks[k])
		out = append(out, *agg)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].Date.Equal(out[j].Date) {
			return out[i].Date.Before(out[j].Date)
		}
		return out[i].TeaComponent < out[j].TeaComponent
	})
	return out
}

// SummarizeWeekday re-aggregates daily summaries by weekday, averaging
// over however many of each weekday the data contains.
func SummarizeWeekday(daily []DailyComponentSummary) []WeekdaySummary {
	type wdKey struct {
		weekday   time.Weekday
		component string
	}
	type acc struct {
		days    int
		drinks  int
		mlTotal float64
	}

	sums := make(map[wdKey]*acc)
	for _, d := range daily {
		k := wdKey{weekday: d.Date.Weekday(), component: d.TeaComponent}
		a, ok := sums[k]
		if !ok {
			a = &acc{}
			sums[k] = a
		}
		a.days++
		a.drinks += d.DrinkCount
		a.mlTotal += d.TeaMlTotal
	}

	out := make([]WeekdaySummary, 0, len(sums))
	for k, a := range sums {
		out = append(out, WeekdaySummary{
			Weekday:       k.weekday,
			WeekdayName:   k.weekday.String(),
			TeaComponent:  k.component,
			DayCount:      a.days,
			AvgDrinkCount: float64(a.drinks) / float64(a.days),
			AvgTeaMlTotal: a.mlTotal / float64(a.days),
		})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Weekday != out[j].Weekday {
			return out[i].Weekday < out[j].Weekday
		}
		return out[i].TeaComponent < out[j].TeaComponent
	})
	return out
}

// SummarizeMonthWeekday re-aggregates daily summaries by (month, weekday).
func SummarizeMonthWeekday(daily []DailyComponentSummary) []MonthWeekdaySummary {
	byMonth := make(map[string][]DailyComponentSummary)
	for _, d := range daily {
		m := d.Date.Format("2006-01")
		byMonth[m] = append(byMonth[m], d)
	}

	months := make([]string, 0, len(byMonth))
	for m := range byMonth {
		months = append(months, m)
	}
	sort.Strings(months)

	var out []MonthWeekdaySummary
	for _, m := range months {
		for _, ws := range SummarizeWeekday(byMonth[m]) {
			out = append(out, MonthWeekdaySummary{Month: m, WeekdaySummary: ws})
		}
	}
	return out
}

// MonthlyComponentTotal sums one component's ml across one month.
type MonthlyComponentTotal struct {
	Month        string  `json:"month"`
	TeaComponent string  `json:"tea_component"`
	TeaMlTotal   float64 `json:"tea_ml_total"`
}

// SummarizeMonthly totals daily summaries per (month, component).
func SummarizeMonthly(daily []DailyComponentSummary) []MonthlyComponentTotal {
	type mKey struct {
		month     string
		component string
	}
	sums := make(map[mKey]float64)
	for _, d := range daily {
		sums[mKey{month: d.Date.Format("2006-01"), component: d.TeaComponent}] += d.TeaMlTotal
	}

	out := make([]MonthlyComponentTotal, 0, len(sums))
	for k, total := range sums {
		out = append(out, MonthlyComponentTotal{Month: k.month, TeaComponent: k.component, TeaMlTotal: total})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Month != out[j].Month {
			return out[i].Month < out[j].Month
		}
		return out[i].TeaComponent < out[j].TeaComponent
	})
	return out
}

// CoverageByMonth checks which months have every calendar day present in
// the usage rows.
func CoverageByMonth(rows []domain.UsageRow) []MonthCoverage {
	days := make(map[string]map[int]struct{})
	for i := range rows {
		day := truncateDay(rows[i].Date)
		m := day.Format("2006-01")
		if days[m] == nil {
			days[m] = make(map[int]struct{})
		}
		days[m][day.Day()] = struct{}{}
	}

	months := make([]string, 0, len(days))
	for m := range days {
		months = append(months, m)
	}
	sort.Strings(months)

	out := make([]MonthCoverage, 0, len(months))
	for _, m := range months {
		first, _ := time.Parse("2006-01", m)
		total := first.AddDate(0, 1, -1).Day()
		cov := MonthCoverage{
			Month:       m,
			DaysPresent: len(days[m]),
			DaysInMonth: total,
		}
		cov.Full = cov.DaysPresent == cov.DaysInMonth
		out = append(out, cov)
	}
	return out
}

// ItemBreakdown totals one menu item's contribution to a single tea
// component across a run.
type ItemBreakdown struct {
	Item         string  `json:"item"`
	DrinkCount   int     `json:"drink_count"`
	TeaMlTotal   float64 `json:"tea_ml_total"`
	TeaComponent string  `json:"tea_component"`
}

// SummarizeItems breaks a tea component's volume down by menu item.
// Only rows carrying the component contribute; DrinkCount counts
// distinct physical drinks. Sorted by drink count, busiest item first.
func SummarizeItems(rows []domain.UsageRow, teaComponent string) []ItemBreakdown {
	totals := make(map[string]*ItemBreakdown)
	drinks := make(map[string]map[string]struct{})

	for i := range rows {
		row := &rows[i]
		for _, comp := range row.Components {
			if comp.Tea != teaComponent {
				continue
			}
			agg, ok := totals[row.Item]
			if !ok {
				agg = &ItemBreakdown{Item: row.Item, TeaComponent: teaComponent}
				totals[row.Item] = agg
				drinks[row.Item] = make(map[string]struct{})
			}
			agg.TeaMlTotal += comp.MlEst
			drinks[row.Item][row.LineItemID] = struct{}{}
		}
	}

	out := make([]ItemBreakdown, 0, len(totals))
	for item, agg := range totals {
		agg.DrinkCount = len(drinks[item])
		out = append(out, *agg)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].DrinkCount != out[j].DrinkCount {
			return out[i].DrinkCount > out[j].DrinkCount
		}
		return out[i].Item < out[j].Item
	})
	return out
}

// FullMonths filters coverage down to the month keys eligible for
// month-level batch reporting.
func FullMonths(coverage []MonthCoverage) map[string]bool {
	full := make(map[string]bool, len(coverage))
	for _, c := range coverage {
		if c.Full {
			full[c.Month] = true
		}
	}
	return full
}

func truncateDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}
