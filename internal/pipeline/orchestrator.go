package pipeline

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sort"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/semaphore"

	"github.com/oolongworks/teausage/internal/aggregate"
	"github.com/oolongworks/teausage/internal/batch"
	"github.com/oolongworks/teausage/internal/canonical"
	"github.com/oolongworks/teausage/internal/clean"
	"github.com/oolongworks/teausage/internal/config"
	"github.com/oolongworks/teausage/internal/domain"
	"github.com/oolongworks/teausage/internal/recipe"
	"github.com/oolongworks/teausage/internal/token"
	"github.com/oolongworks/teausage/internal/usage"
)

// Orchestrator runs the full usage pipeline: clean, canonicalize,
// explode, estimate, aggregate, batch math. All reference tables are
// loaded once at construction; a bad table stops the run before any
// output is written.
type Orchestrator struct {
	cfg     *config.Config
	opts    Options
	log     zerolog.Logger
	tracker *Tracker

	cleaner     *clean.Cleaner
	canon       *canonical.Canonicalizer
	estimator   *usage.Estimator
	ingredients *usage.IngredientEstimator
	model       *batch.Model
	brewYields  map[string]float64
}

// trackedTea is the component the shop plans bag reorders around; it
// gets the displacement-adjusted monthly table and the item breakdown.
const trackedTea = "tie_guan_yin"

// NewOrchestrator loads every reference table and validates the planner
// constants. tracker may be nil when no database is configured.
func NewOrchestrator(cfg *config.Config, opts Options, log zerolog.Logger, tracker *Tracker) (*Orchestrator, error) {
	if err := cfg.Planner.Validate(); err != nil {
		return nil, err
	}

	rules, err := token.LoadRules(cfg.Reference.TokenMapPath)
	if err != nil {
		return nil, fmt.Errorf("load token map: %w", err)
	}
	menu, err := recipe.LoadMenu(cfg.Reference.ItemRulesPath, cfg.Reference.BlendRulesPath)
	if err != nil {
		return nil, fmt.Errorf("load menu rules: %w", err)
	}
	overrides, err := recipe.LoadOverrides(cfg.Reference.RecipeOverridesPath)
	if err != nil {
		return nil, fmt.Errorf("load recipe overrides: %w", err)
	}
	bom, err := recipe.LoadBOM(cfg.Reference.ItemBOMPath, cfg.Reference.ComponentUnitsPath, cfg.Reference.SugarMapPath)
	if err != nil {
		return nil, fmt.Errorf("load bill of materials: %w", err)
	}
	means, err := usage.LoadBucketMeans(cfg.Reference.ManualSamplesDir)
	if err != nil {
		return nil, fmt.Errorf("load manual samples: %w", err)
	}
	estimator, err := usage.NewEstimator(overrides, means, cfg.Planner.ZeroIceBaseMl, opts.IceFallback)
	if err != nil {
		return nil, err
	}
	model, err := batch.NewModel(cfg.Planner.BatchYieldMl, cfg.Planner.LeafGramsPerBatch, cfg.Planner.BagGrams)
	if err != nil {
		return nil, err
	}
	brewYields, err := loadBrewYields(cfg)
	if err != nil {
		return nil, fmt.Errorf("load brew yields: %w", err)
	}

	return &Orchestrator{
		cfg:         cfg,
		opts:        opts,
		log:         log,
		tracker:     tracker,
		cleaner:     clean.NewCleaner(cfg.App.FixedIceItems),
		canon:       canonical.NewCanonicalizer(token.NewResolver(rules), menu),
		estimator:   estimator,
		ingredients: usage.NewIngredientEstimator(bom),
		model:       model,
		brewYields:  brewYields,
	}, nil
}

// loadBrewYields prefers the measured estimates table when it exists and
// otherwise derives yields from the house brew parameters.
func loadBrewYields(cfg *config.Config) (map[string]float64, error) {
	path := cfg.Reference.BatchEstimatesPath
	if path != "" {
		if _, err := os.Stat(path); err == nil {
			return batch.LoadYieldEstimates(path)
		}
	}
	estimates, err := batch.EstimateAllYields(batch.BrewParams{
		HotWaterMl: cfg.Planner.HotWaterMl,
		IceGrams:   cfg.Planner.IceGrams,
	})
	if err != nil {
		return nil, err
	}
	yields := make(map[string]float64, len(estimates))
	for _, e := range estimates {
		yields[e.TeaKey] = e.YieldMl
	}
	return yields, nil
}

// Run executes the pipeline over the given export files. Stages run in a
// fixed order and every intermediate is derived fresh, so two runs over
// the same inputs produce identical outputs.
func (o *Orchestrator) Run(ctx context.Context, files []string) (*Result, error) {
	run, err := o.beginRun(ctx, len(files))
	if err != nil {
		return nil, err
	}

	result, err := o.run(ctx, files, run)
	if err != nil {
		o.failRun(ctx, run, err)
		return nil, err
	}
	o.completeRun(ctx, run)
	return result, nil
}

func (o *Orchestrator) run(ctx context.Context, files []string, run *Run) (*Result, error) {
	records, err := o.readInputs(ctx, files)
	if err != nil {
		return nil, err
	}

	lines, cleanStats := o.cleaner.Clean(records)
	lines = o.filterDates(lines)
	if err := o.writeClean(lines); err != nil {
		return nil, err
	}
	o.log.Info().
		Int("raw_rows", cleanStats.TotalRows).
		Int("kept_lines", len(lines)).
		Int("refunds", cleanStats.RefundRows).
		Msg("cleaned export")

	audit := canonical.NewAudit()
	metrics := domain.NewValidationMetrics()
	canonLines := make([]domain.CanonicalLineItem, 0, len(lines))
	for _, raw := range lines {
		item := o.canon.Canonicalize(raw, audit)
		metrics.Observe(&item)
		canonLines = append(canonLines, item)
	}
	drinks := canonical.Explode(canonLines)
	if run != nil {
		run.TotalLines = len(canonLines)
		run.DrinkCount = len(drinks)
	}

	result := &Result{
		CleanStats:    cleanStats,
		Metrics:       metrics,
		Canonical:     canonLines,
		Drinks:        drinks,
		UnknownTokens: audit.Sorted(),
	}

	result.Usage = make([]domain.UsageRow, 0, len(drinks))
	for i := range drinks {
		row, err := o.estimator.Estimate(&drinks[i])
		switch {
		case err == nil:
			result.Usage = append(result.Usage, row)
		case errors.Is(err, domain.ErrUnresolvable):
			// Already counted by metrics.ExcludedFromMath.
		case errors.Is(err, usage.ErrMissingIce):
			result.SkippedMissingIce++
		default:
			result.SkippedOffBucket++
			o.log.Warn().Err(err).Str("item", drinks[i].Item).Msg("drink skipped")
		}
	}

	for i := range result.Usage {
		result.Ingredients = append(result.Ingredients, o.ingredients.Estimate(&result.Usage[i])...)
	}
	result.IngredientDays = usage.SummarizeIngredients(result.Ingredients)
	result.Jelly = usage.SummarizeJellyUsage(drinks, o.cfg.Planner.MlPerJellyScoop, nil)

	result.Daily = aggregate.SummarizeDaily(result.Usage)
	result.Weekday = aggregate.SummarizeWeekday(result.Daily)
	result.MonthWeekday = aggregate.SummarizeMonthWeekday(result.Daily)
	result.Monthly = aggregate.SummarizeMonthly(result.Daily)
	result.Coverage = aggregate.CoverageByMonth(result.Usage)
	result.WeekdayBatch = mergeWeekdayBatchYield(result.Weekday, o.brewYields)
	result.ItemBreakdown = aggregate.SummarizeItems(result.Usage, trackedTea)

	o.computeBatchMath(result)

	if err := o.writeOutputs(result); err != nil {
		return nil, err
	}

	o.log.Info().
		Int("drinks", len(drinks)).
		Int("usage_rows", len(result.Usage)).
		Int("excluded", metrics.ExcludedFromMath).
		Int("missing_ice", result.SkippedMissingIce).
		Msg("pipeline run complete")
	return result, nil
}

// computeBatchMath fills batch records and the displacement-adjusted
// monthly bag usage. Only full months are eligible; partial months stay
// visible in Coverage but produce no reorder rows.
func (o *Orchestrator) computeBatchMath(result *Result) {
	full := aggregate.FullMonths(result.Coverage)

	sugar, creamer := monthlyDisplacement(result.IngredientDays)
	for _, mt := range result.Monthly {
		if !full[mt.Month] {
			continue
		}
		result.BatchRecords = append(result.BatchRecords, o.model.Compute(mt.Month, mt.TeaComponent, mt.TeaMlTotal))
		if mt.TeaComponent == trackedTea {
			result.BagUsage = append(result.BagUsage,
				o.model.ComputeMonthlyBagUsage(mt.Month, mt.TeaMlTotal, sugar[mt.Month], creamer[mt.Month]))
		}
	}
}

// mergeWeekdayBatchYield attaches each weekday average to the yield of
// the batch brewing its component and derives average batches needed.
func mergeWeekdayBatchYield(weekday []aggregate.WeekdaySummary, yields map[string]float64) []WeekdayBatchYield {
	out := make([]WeekdayBatchYield, 0, len(weekday))
	for _, w := range weekday {
		key, _ := batch.BatchKeyFor(w.TeaComponent)
		yml := batch.YieldForComponent(w.TeaComponent, yields)
		out = append(out, WeekdayBatchYield{
			WeekdaySummary:   w,
			BatchKey:         key,
			BatchYieldMl:     yml,
			AvgBatchesNeeded: w.AvgTeaMlTotal / yml,
		})
	}
	return out
}

// monthlyDisplacement sums sugar-syrup and creamer grams per month.
func monthlyDisplacement(days []usage.IngredientDay) (sugar, creamer map[string]float64) {
	sugar = make(map[string]float64)
	creamer = make(map[string]float64)
	for _, d := range days {
		month := d.Date.Format("2006-01")
		switch d.ComponentKey {
		case "sugar_syrup":
			sugar[month] += d.QtyTotal
		case "non_dairy_creamer":
			creamer[month] += d.QtyTotal
		}
	}
	return sugar, creamer
}

// readInputs parses export files concurrently but assembles the rows in
// file order so the run stays deterministic.
func (o *Orchestrator) readInputs(ctx context.Context, files []string) ([]clean.RawRecord, error) {
	if len(files) == 0 {
		return nil, fmt.Errorf("no input files")
	}
	sorted := append([]string(nil), files...)
	sort.Strings(sorted)

	readers := int64(o.opts.ReaderCount)
	if readers < 1 {
		readers = 4
	}
	sem := semaphore.NewWeighted(readers)
	perFile := make([][]clean.RawRecord, len(sorted))
	errs := make([]error, len(sorted))

	for i, path := range sorted {
		if err := sem.Acquire(ctx, 1); err != nil {
			return nil, err
		}
		go func(i int, path string) {
			defer sem.Release(1)
			perFile[i], errs[i] = clean.ReadRawFile(path)
		}(i, path)
	}
	if err := sem.Acquire(ctx, readers); err != nil {
		return nil, err
	}

	var out []clean.RawRecord
	for i, recs := range perFile {
		if errs[i] != nil {
			return nil, errs[i]
		}
		out = append(out, recs...)
	}
	return out, nil
}

// filterDates keeps lines whose calendar day falls inside the bounds.
// Order timestamps carry a time of day, so both bounds compare against
// the truncated day to keep the range inclusive.
func (o *Orchestrator) filterDates(lines []domain.RawOrderLine) []domain.RawOrderLine {
	if o.opts.From.IsZero() && o.opts.To.IsZero() {
		return lines
	}
	out := lines[:0]
	for _, l := range lines {
		day := time.Date(l.Date.Year(), l.Date.Month(), l.Date.Day(), 0, 0, 0, 0, l.Date.Location())
		if !o.opts.From.IsZero() && day.Before(o.opts.From) {
			continue
		}
		if !o.opts.To.IsZero() && day.After(o.opts.To) {
			continue
		}
		out = append(out, l)
	}
	return out
}

func (o *Orchestrator) beginRun(ctx context.Context, files int) (*Run, error) {
	if o.tracker == nil {
		return nil, nil
	}
	return o.tracker.Begin(ctx, files)
}

func (o *Orchestrator) completeRun(ctx context.Context, run *Run) {
	if o.tracker == nil || run == nil {
		return
	}
	if err := o.tracker.Complete(ctx, run); err != nil {
		o.log.Warn().Err(err).Int64("run_id", run.ID).Msg("run tracking update failed")
	}
}

func (o *Orchestrator) failRun(ctx context.Context, run *Run, cause error) {
	if o.tracker == nil || run == nil {
		return
	}
	if err := o.tracker.Fail(ctx, run, cause); err != nil {
		o.log.Warn().Err(err).Int64("run_id", run.ID).Msg("run tracking update failed")
	}
}
