package pipeline

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/oolongworks/teausage/internal/canonical"
	"github.com/oolongworks/teausage/internal/domain"
)

// Output filenames under the trim and output directories.
const (
	fileClean        = "clean.csv"
	fileSlim         = "canonical_orders_slim.csv"
	fileDebug        = "canonical_orders_debug.csv"
	fileUsage        = "usage_estimates.csv"
	fileComponents   = "usage_components.csv"
	fileDaily        = "usage_daily_summary.csv"
	fileWeekday      = "usage_weekday_summary.csv"
	fileMonthWeekday = "usage_month_weekday_summary.csv"
	fileWeekdayBatch = "usage_weekday_with_batch_yield.csv"
	fileBatch        = "batch_usage_monthly.csv"
	fileBagUsage     = "tgy_monthly_bag_usage.csv"
	fileItems        = "tgy_item_breakdown.csv"
	fileReport       = "run_report.json"
)

var cleanHeader = []string{"Date", "Transaction ID", "Category", "Item", "Qty", "Modifiers Applied", "ice_pct", "sugar_pct"}

// writeClean persists the cleaned export, mirroring the trim stage the
// downstream stages start from.
func (o *Orchestrator) writeClean(lines []domain.RawOrderLine) error {
	return writeCSV(filepath.Join(o.cfg.App.TrimDir, fileClean), cleanHeader, len(lines), func(i int) []string {
		l := &lines[i]
		return []string{
			l.Date.Format("2006-01-02 15:04:05"), l.OrderID, l.Category, l.Item,
			formatFloat(l.Qty), l.Modifiers, formatPct(l.IcePct), formatPct(l.SugarPct),
		}
	})
}

func formatPct(p *int) string {
	if p == nil {
		return ""
	}
	return strconv.Itoa(*p)
}

func (o *Orchestrator) writeOutputs(result *Result) error {
	outDir := o.cfg.App.OutputDir

	if err := writeCSV(filepath.Join(outDir, fileSlim), canonical.SlimHeader(), len(result.Canonical), func(i int) []string {
		return canonical.SlimRow(&result.Canonical[i])
	}); err != nil {
		return err
	}
	if o.opts.WriteDebug {
		if err := writeCSV(filepath.Join(outDir, fileDebug), canonical.DebugHeader(), len(result.Canonical), func(i int) []string {
			return canonical.DebugRow(&result.Canonical[i])
		}); err != nil {
			return err
		}
	}

	if err := writeCSV(filepath.Join(outDir, fileUsage), usageHeader, len(result.Usage), func(i int) []string {
		return usageRow(&result.Usage[i])
	}); err != nil {
		return err
	}

	components := flattenComponents(result.Usage)
	if err := writeCSV(filepath.Join(outDir, fileComponents), componentHeader, len(components), func(i int) []string {
		return components[i]
	}); err != nil {
		return err
	}

	if err := writeCSV(filepath.Join(outDir, fileDaily), dailyHeader, len(result.Daily), func(i int) []string {
		d := result.Daily[i]
		return []string{d.Date.Format("2006-01-02"), d.TeaComponent, strconv.Itoa(d.DrinkCount), formatFloat(d.TeaMlTotal)}
	}); err != nil {
		return err
	}

	if err := writeCSV(filepath.Join(outDir, fileWeekday), weekdayHeader, len(result.Weekday), func(i int) []string {
		w := result.Weekday[i]
		return []string{w.WeekdayName, w.TeaComponent, strconv.Itoa(w.DayCount), formatFloat(w.AvgDrinkCount), formatFloat(w.AvgTeaMlTotal)}
	}); err != nil {
		return err
	}

	if err := writeCSV(filepath.Join(outDir, fileMonthWeekday), monthWeekdayHeader, len(result.MonthWeekday), func(i int) []string {
		w := result.MonthWeekday[i]
		return []string{w.Month, w.WeekdayName, w.TeaComponent, strconv.Itoa(w.DayCount), formatFloat(w.AvgDrinkCount), formatFloat(w.AvgTeaMlTotal)}
	}); err != nil {
		return err
	}

	if err := writeCSV(filepath.Join(outDir, fileWeekdayBatch), weekdayBatchHeader, len(result.WeekdayBatch), func(i int) []string {
		w := result.WeekdayBatch[i]
		return []string{
			w.WeekdayName, w.TeaComponent, strconv.Itoa(w.DayCount),
			formatFloat(w.AvgDrinkCount), formatFloat(w.AvgTeaMlTotal),
			w.BatchKey, formatFloat(w.BatchYieldMl), formatFloat(w.AvgBatchesNeeded),
		}
	}); err != nil {
		return err
	}

	if err := writeCSV(filepath.Join(outDir, fileItems), itemHeader, len(result.ItemBreakdown), func(i int) []string {
		b := result.ItemBreakdown[i]
		return []string{b.Item, strconv.Itoa(b.DrinkCount), formatFloat(b.TeaMlTotal)}
	}); err != nil {
		return err
	}

	if err := writeCSV(filepath.Join(outDir, fileBatch), batchHeader, len(result.BatchRecords), func(i int) []string {
		return batchRow(&result.BatchRecords[i])
	}); err != nil {
		return err
	}

	if err := writeCSV(filepath.Join(outDir, fileBagUsage), bagUsageHeader, len(result.BagUsage), func(i int) []string {
		b := result.BagUsage[i]
		return []string{
			b.Month,
			formatFloat(b.BaseMl), formatFloat(b.SugarGrams), formatFloat(b.CreamerGrams),
			formatFloat(b.AdjustedMl), formatFloat(b.BatchesNeeded), formatFloat(b.BagsUsed),
		}
	}); err != nil {
		return err
	}

	return writeJSON(filepath.Join(outDir, fileReport), result)
}

var usageHeader = []string{
	"Date", "Transaction ID", "Category", "Item", "line_item_id",
	"ice_pct_bucket", "sugar_pct", "topping_count",
	"base_tea_ml", "reduction_pct", "tea_base_ml_est", "milk_ml_est", "tea_resolution",
}

func usageRow(r *domain.UsageRow) []string {
	sugar := ""
	if r.SugarPct != nil {
		sugar = strconv.Itoa(*r.SugarPct)
	}
	return []string{
		r.Date.Format("2006-01-02 15:04:05"), r.OrderID, r.Category, r.Item, r.LineItemID,
		strconv.Itoa(r.IcePctBucket), sugar, strconv.Itoa(r.ToppingCount),
		formatFloat(r.BaseTeaMl), formatFloat(r.ReductionPct),
		formatFloat(r.TeaBaseMlEst), formatFloat(r.MilkMlEst), string(r.TeaResolution),
	}
}

var componentHeader = []string{
	"Date", "Transaction ID", "Item", "line_item_id",
	"tea_component", "tea_component_share", "tea_component_ml_est",
}

func flattenComponents(rows []domain.UsageRow) [][]string {
	var out [][]string
	for i := range rows {
		r := &rows[i]
		for _, c := range r.Components {
			out = append(out, []string{
				r.Date.Format("2006-01-02 15:04:05"), r.OrderID, r.Item, r.LineItemID,
				c.Tea, formatFloat(c.Share), formatFloat(c.MlEst),
			})
		}
	}
	return out
}

var (
	dailyHeader        = []string{"Date", "tea_component", "drink_count", "tea_ml_total"}
	weekdayHeader      = []string{"weekday", "tea_component", "day_count", "avg_drink_count", "avg_tea_ml_total"}
	monthWeekdayHeader = []string{"month", "weekday", "tea_component", "day_count", "avg_drink_count", "avg_tea_ml_total"}
	weekdayBatchHeader = []string{
		"weekday", "tea_component", "day_count", "avg_drink_count", "avg_tea_ml_total",
		"batch_key", "batch_yield_ml", "avg_batches_needed",
	}
	itemHeader = []string{"Item", "drink_count", "tgy_ml_total"}
	batchHeader        = []string{
		"period", "tea_key", "tea_ml_total", "batch_yield_ml",
		"leaf_grams_per_batch", "bag_grams", "batches_needed", "leaf_grams_used", "bags_used",
	}
	bagUsageHeader = []string{
		"month", "tgy_ml_base", "sugar_grams", "creamer_grams",
		"tgy_ml_adjusted", "batches_needed", "bags_used",
	}
)

func batchRow(r *domain.BatchYieldRecord) []string {
	return []string{
		r.Period, r.TeaKey, formatFloat(r.TeaMlTotal), formatFloat(r.BatchYieldMl),
		formatFloat(r.LeafGramsPerBatch), formatFloat(r.BagGrams),
		formatFloat(r.BatchesNeeded), formatFloat(r.LeafGramsUsed), formatFloat(r.BagsUsed),
	}
}

func writeCSV(path string, header []string, n int, row func(int) []string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write(header); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	for i := 0; i < n; i++ {
		if err := w.Write(row(i)); err != nil {
			return fmt.Errorf("write %s: %w", path, err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("flush %s: %w", path, err)
	}
	return f.Close()
}

func writeJSON(path string, v interface{}) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal %s: %w", path, err)
	}
	if err := os.WriteFile(path, append(data, '\n'), 0644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
