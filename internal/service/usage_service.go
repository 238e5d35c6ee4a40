package service

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/oolongworks/teausage/internal/cache"
	"github.com/oolongworks/teausage/internal/pipeline"
	"github.com/oolongworks/teausage/internal/repository"
)

const (
	cacheKeyWeekday  = "weekday"
	cacheKeyBagUsage = "bag_usage"
)

// UsageService serves pipeline summaries to the API and persists fresh
// runs. Reads go through the summary cache when one is configured.
type UsageService struct {
	repo      *repository.UsageRepository
	cache     *cache.SummaryCache
	outputDir string
}

func NewUsageService(repo *repository.UsageRepository, summaryCache *cache.SummaryCache, outputDir string) *UsageService {
	return &UsageService{
		repo:      repo,
		cache:     summaryCache,
		outputDir: outputDir,
	}
}

// PersistRun stores a completed run's summaries and drops stale cache
// entries.
func (s *UsageService) PersistRun(ctx context.Context, result *pipeline.Result) error {
	if err := s.repo.SaveDailySummaries(ctx, result.Daily); err != nil {
		return err
	}
	if err := s.repo.SaveWeekdaySummaries(ctx, result.Weekday); err != nil {
		return err
	}
	if err := s.repo.SaveBagUsage(ctx, result.BagUsage); err != nil {
		return err
	}
	if err := s.cache.Invalidate(ctx); err != nil {
		log.Warn().Err(err).Msg("summary cache invalidation failed")
	}
	return nil
}

// WeekdaySummary returns the weekday usage table.
func (s *UsageService) WeekdaySummary(ctx context.Context) ([]repository.WeekdaySummaryRow, error) {
	var rows []repository.WeekdaySummaryRow
	if s.cache.Get(ctx, cacheKeyWeekday, &rows) {
		return rows, nil
	}
	rows, err := s.repo.GetWeekdaySummaries(ctx)
	if err != nil {
		return nil, err
	}
	s.cache.Set(ctx, cacheKeyWeekday, rows)
	return rows, nil
}

// DailySummary returns daily summaries within the inclusive date range.
func (s *UsageService) DailySummary(ctx context.Context, from, to time.Time) ([]repository.DailySummaryRow, error) {
	return s.repo.GetDailySummaries(ctx, from, to)
}

// BagUsage returns the displacement-adjusted monthly reorder table.
func (s *UsageService) BagUsage(ctx context.Context) ([]repository.BagUsageRow, error) {
	var rows []repository.BagUsageRow
	if s.cache.Get(ctx, cacheKeyBagUsage, &rows) {
		return rows, nil
	}
	rows, err := s.repo.GetBagUsage(ctx)
	if err != nil {
		return nil, err
	}
	s.cache.Set(ctx, cacheKeyBagUsage, rows)
	return rows, nil
}

// RunReport returns the latest run report written by the pipeline:
// validation metrics, unknown tokens, jelly summary, month coverage.
func (s *UsageService) RunReport() (json.RawMessage, error) {
	path := filepath.Join(s.outputDir, "run_report.json")
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("no run report at %s: %w", path, err)
	}
	return json.RawMessage(data), nil
}
