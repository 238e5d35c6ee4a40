package pipeline

import (
	"time"

	"github.com/oolongworks/teausage/internal/aggregate"
	"github.com/oolongworks/teausage/internal/batch"
	"github.com/oolongworks/teausage/internal/canonical"
	"github.com/oolongworks/teausage/internal/clean"
	"github.com/oolongworks/teausage/internal/domain"
	"github.com/oolongworks/teausage/internal/usage"
)

// Options control one pipeline run beyond what the reference tables and
// planner constants already fix.
type Options struct {
	// From and To bound the order dates included in the run, inclusive.
	// Zero values mean unbounded.
	From time.Time
	To   time.Time

	// IceFallback decides what happens to ice percents between calibrated
	// buckets.
	IceFallback usage.IceFallback

	// ReaderCount bounds how many input files are parsed concurrently.
	ReaderCount int

	// WriteDebug adds the wide canonical table next to the slim one.
	WriteDebug bool
}

// RunStatus is the lifecycle state of a tracked pipeline run.
type RunStatus string

const (
	StatusPending    RunStatus = "pending"
	StatusProcessing RunStatus = "processing"
	StatusCompleted  RunStatus = "completed"
	StatusFailed     RunStatus = "failed"
)

// Run is the persisted record of one pipeline execution.
type Run struct {
	ID           int64      `db:"id"`
	Status       RunStatus  `db:"status"`
	InputFiles   int        `db:"input_files"`
	TotalLines   int        `db:"total_lines"`
	DrinkCount   int        `db:"drink_count"`
	StartedAt    time.Time  `db:"started_at"`
	CompletedAt  *time.Time `db:"completed_at"`
	ErrorMessage string     `db:"error_message"`
}

// Result carries everything one run produced, in memory. The same data
// is also written to the output directory as CSV and JSON files.
type Result struct {
	CleanStats clean.Stats               `json:"clean_stats"`
	Metrics    *domain.ValidationMetrics `json:"validation_metrics"`

	SkippedMissingIce int `json:"skipped_missing_ice"`
	SkippedOffBucket  int `json:"skipped_off_bucket"`

	Canonical []domain.CanonicalLineItem `json:"-"`
	Drinks    []domain.ExplodedDrinkRow  `json:"-"`
	Usage     []domain.UsageRow          `json:"-"`

	UnknownTokens []canonical.TokenCount `json:"unknown_tokens"`

	Ingredients    []usage.IngredientUsage           `json:"-"`
	IngredientDays []usage.IngredientDay             `json:"-"`
	Jelly          usage.JellySummary                `json:"jelly_summary"`
	Daily          []aggregate.DailyComponentSummary `json:"-"`
	Weekday        []aggregate.WeekdaySummary        `json:"-"`
	MonthWeekday   []aggregate.MonthWeekdaySummary   `json:"-"`
	Monthly        []aggregate.MonthlyComponentTotal `json:"-"`
	Coverage       []aggregate.MonthCoverage         `json:"month_coverage"`
	WeekdayBatch   []WeekdayBatchYield               `json:"-"`
	ItemBreakdown  []aggregate.ItemBreakdown         `json:"-"`
	BatchRecords   []domain.BatchYieldRecord         `json:"-"`
	BagUsage       []batch.MonthlyBagUsage           `json:"monthly_bag_usage"`
}

// WeekdayBatchYield joins a weekday usage average with the yield of the
// brew batch supplying its component, giving average batches needed per
// weekday. Components without a batch mapping fall back to the default
// yield with an empty batch key.
type WeekdayBatchYield struct {
	aggregate.WeekdaySummary
	BatchKey         string  `json:"batch_key"`
	BatchYieldMl     float64 `json:"batch_yield_ml"`
	AvgBatchesNeeded float64 `json:"avg_batches_needed"`
}
