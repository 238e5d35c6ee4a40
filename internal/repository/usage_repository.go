package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/oolongworks/teausage/internal/aggregate"
	"github.com/oolongworks/teausage/internal/batch"
	"github.com/oolongworks/teausage/internal/repository/postgres"
)

// DailySummaryRow mirrors the usage_daily_summary table.
type DailySummaryRow struct {
	Date         time.Time `db:"date" json:"date"`
	TeaComponent string    `db:"tea_component" json:"tea_component"`
	DrinkCount   int       `db:"drink_count" json:"drink_count"`
	TeaMlTotal   float64   `db:"tea_ml_total" json:"tea_ml_total"`
}

// WeekdaySummaryRow mirrors the usage_weekday_summary table.
type WeekdaySummaryRow struct {
	Weekday       string  `db:"weekday" json:"weekday"`
	TeaComponent  string  `db:"tea_component" json:"tea_component"`
	DayCount      int     `db:"day_count" json:"day_count"`
	AvgDrinkCount float64 `db:"avg_drink_count" json:"avg_drink_count"`
	AvgTeaMlTotal float64 `db:"avg_tea_ml_total" json:"avg_tea_ml_total"`
}

// BagUsageRow mirrors the monthly_bag_usage table.
type BagUsageRow struct {
	Month         string  `db:"month" json:"month"`
	BaseMl        float64 `db:"base_ml" json:"base_ml"`
	SugarGrams    float64 `db:"sugar_grams" json:"sugar_grams"`
	CreamerGrams  float64 `db:"creamer_grams" json:"creamer_grams"`
	AdjustedMl    float64 `db:"adjusted_ml" json:"adjusted_ml"`
	BatchesNeeded float64 `db:"batches_needed" json:"batches_needed"`
	BagsUsed      float64 `db:"bags_used" json:"bags_used"`
}

// UsageRepository persists pipeline summaries. Each save replaces the
// previous run's rows wholesale: summaries are full recomputations, not
// increments.
type UsageRepository struct {
	db *postgres.DB
}

func NewUsageRepository(db *postgres.DB) *UsageRepository {
	return &UsageRepository{db: db}
}

// SaveDailySummaries replaces the daily summary table contents.
func (r *UsageRepository) SaveDailySummaries(ctx context.Context, daily []aggregate.DailyComponentSummary) error {
	return r.db.WithTx(ctx, func(tx *sqlx.Tx) error {
		if _, err := tx.ExecContext(ctx, `TRUNCATE usage_daily_summary`); err != nil {
			return fmt.Errorf("truncate usage_daily_summary: %w", err)
		}
		const query = `
			INSERT INTO usage_daily_summary (date, tea_component, drink_count, tea_ml_total)
			VALUES (:date, :tea_component, :drink_count, :tea_ml_total)
		`
		for _, d := range daily {
			row := DailySummaryRow{
				Date:         d.Date,
				TeaComponent: d.TeaComponent,
				DrinkCount:   d.DrinkCount,
				TeaMlTotal:   d.TeaMlTotal,
			}
			if _, err := tx.NamedExecContext(ctx, query, row); err != nil {
				return fmt.Errorf("insert daily summary: %w", err)
			}
		}
		return nil
	})
}

// SaveWeekdaySummaries replaces the weekday summary table contents.
func (r *UsageRepository) SaveWeekdaySummaries(ctx context.Context, weekday []aggregate.WeekdaySummary) error {
	return r.db.WithTx(ctx, func(tx *sqlx.Tx) error {
		if _, err := tx.ExecContext(ctx, `TRUNCATE usage_weekday_summary`); err != nil {
			return fmt.Errorf("truncate usage_weekday_summary: %w", err)
		}
		const query = `
			INSERT INTO usage_weekday_summary (weekday, tea_component, day_count, avg_drink_count, avg_tea_ml_total)
			VALUES (:weekday, :tea_component, :day_count, :avg_drink_count, :avg_tea_ml_total)
		`
		for _, w := range weekday {
			row := WeekdaySummaryRow{
				Weekday:       w.WeekdayName,
				TeaComponent:  w.TeaComponent,
				DayCount:      w.DayCount,
				AvgDrinkCount: w.AvgDrinkCount,
				AvgTeaMlTotal: w.AvgTeaMlTotal,
			}
			if _, err := tx.NamedExecContext(ctx, query, row); err != nil {
				return fmt.Errorf("insert weekday summary: %w", err)
			}
		}
		return nil
	})
}

// SaveBagUsage replaces the monthly bag usage table contents.
func (r *UsageRepository) SaveBagUsage(ctx context.Context, usage []batch.MonthlyBagUsage) error {
	return r.db.WithTx(ctx, func(tx *sqlx.Tx) error {
		if _, err := tx.ExecContext(ctx, `TRUNCATE monthly_bag_usage`); err != nil {
			return fmt.Errorf("truncate monthly_bag_usage: %w", err)
		}
		const query = `
			INSERT INTO monthly_bag_usage (month, base_ml, sugar_grams, creamer_grams, adjusted_ml, batches_needed, bags_used)
			VALUES (:month, :base_ml, :sugar_grams, :creamer_grams, :adjusted_ml, :batches_needed, :bags_used)
		`
		for _, b := range usage {
			row := BagUsageRow{
				Month:         b.Month,
				BaseMl:        b.BaseMl,
				SugarGrams:    b.SugarGrams,
				CreamerGrams:  b.CreamerGrams,
				AdjustedMl:    b.AdjustedMl,
				BatchesNeeded: b.BatchesNeeded,
				BagsUsed:      b.BagsUsed,
			}
			if _, err := tx.NamedExecContext(ctx, query, row); err != nil {
				return fmt.Errorf("insert bag usage: %w", err)
			}
		}
		return nil
	})
}

// GetDailySummaries returns daily summaries within the inclusive range.
// Zero times mean unbounded.
func (r *UsageRepository) GetDailySummaries(ctx context.Context, from, to time.Time) ([]DailySummaryRow, error) {
	query := `
		SELECT date, tea_component, drink_count, tea_ml_total
		FROM usage_daily_summary
		WHERE ($1::timestamptz IS NULL OR date >= $1)
		  AND ($2::timestamptz IS NULL OR date <= $2)
		ORDER BY date, tea_component
	`
	var rows []DailySummaryRow
	if err := r.db.SelectContext(ctx, &rows, query, nullableTime(from), nullableTime(to)); err != nil {
		return nil, fmt.Errorf("select daily summaries: %w", err)
	}
	return rows, nil
}

// GetWeekdaySummaries returns the weekday summary table in weekday order.
func (r *UsageRepository) GetWeekdaySummaries(ctx context.Context) ([]WeekdaySummaryRow, error) {
	const query = `
		SELECT weekday, tea_component, day_count, avg_drink_count, avg_tea_ml_total
		FROM usage_weekday_summary
		ORDER BY array_position(ARRAY['Sunday','Monday','Tuesday','Wednesday','Thursday','Friday','Saturday'], weekday), tea_component
	`
	var rows []WeekdaySummaryRow
	if err := r.db.SelectContext(ctx, &rows, query); err != nil {
		return nil, fmt.Errorf("select weekday summaries: %w", err)
	}
	return rows, nil
}

// GetBagUsage returns monthly bag usage rows, newest month first.
func (r *UsageRepository) GetBagUsage(ctx context.Context) ([]BagUsageRow, error) {
	const query = `
		SELECT month, base_ml, sugar_grams, creamer_grams, adjusted_ml, batches_needed, bags_used
		FROM monthly_bag_usage
		ORDER BY month DESC
	`
	var rows []BagUsageRow
	if err := r.db.SelectContext(ctx, &rows, query); err != nil {
		return nil, fmt.Errorf("select bag usage: %w", err)
	}
	return rows, nil
}

func nullableTime(t time.Time) interface{} {
	if t.IsZero() {
		return nil
	}
	return t
}
