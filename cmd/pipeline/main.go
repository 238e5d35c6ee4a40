package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sort"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/jmoiron/sqlx"
	"github.com/joho/godotenv"
	"github.com/urfave/cli/v2"

	"github.com/oolongworks/teausage/internal/batch"
	"github.com/oolongworks/teausage/internal/config"
	"github.com/oolongworks/teausage/internal/pipeline"
	"github.com/oolongworks/teausage/internal/repository"
	"github.com/oolongworks/teausage/internal/repository/postgres"
	"github.com/oolongworks/teausage/internal/service"
	"github.com/oolongworks/teausage/internal/storage"
	"github.com/oolongworks/teausage/internal/usage"
	"github.com/oolongworks/teausage/pkg/logger"
)

func main() {
	if err := godotenv.Load(".env"); err != nil {
		log.Printf("warning: could not load .env file: %v", err)
	}

	app := &cli.App{
		Name:  "pipeline",
		Usage: "Clean register exports and compute tea usage and reorder numbers",
		Commands: []*cli.Command{
			{
				Name:  "run",
				Usage: "Run the full pipeline over raw register exports",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "input-dir",
						Usage:   "Directory containing raw register export CSVs (defaults to APP_RAW_DIR)",
						EnvVars: []string{"APP_RAW_DIR"},
					},
					&cli.StringFlag{
						Name:  "from",
						Usage: "Only include orders on or after this date (YYYY-MM-DD)",
					},
					&cli.StringFlag{
						Name:  "to",
						Usage: "Only include orders on or before this date (YYYY-MM-DD)",
					},
					&cli.StringFlag{
						Name:  "ice-fallback",
						Usage: "How to bucket off-scale ice percentages: nearest, lower, or error",
						Value: string(usage.FallbackNearest),
					},
					&cli.IntFlag{
						Name:  "readers",
						Usage: "Number of concurrent export readers",
						Value: 4,
					},
					&cli.BoolFlag{
						Name:  "debug-audit",
						Usage: "Write the per-line canonicalization audit table",
					},
					&cli.BoolFlag{
						Name:    "persist",
						Usage:   "Save summaries to Postgres and record the run",
						EnvVars: []string{"PIPELINE_PERSIST"},
					},
				},
				Action: runPipeline,
			},
			{
				Name:   "yields",
				Usage:  "Print per-tea brew yield estimates for the house batch process",
				Action: printYields,
			},
			{
				Name:  "runs",
				Usage: "List recent pipeline runs recorded in Postgres",
				Flags: []cli.Flag{
					&cli.IntFlag{
						Name:  "limit",
						Usage: "Maximum number of runs to list",
						Value: 20,
					},
				},
				Action: listRuns,
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func runPipeline(c *cli.Context) error {
	cfg := config.Load()
	logger.SetLevel(cfg.Server.Mode)

	inputDir := c.String("input-dir")
	if inputDir == "" {
		inputDir = cfg.App.RawDir
	}
	files, err := collectInputs(inputDir)
	if err != nil {
		return err
	}
	if len(files) == 0 {
		return fmt.Errorf("no CSV exports found in %s", inputDir)
	}

	opts := pipeline.Options{
		IceFallback: usage.IceFallback(c.String("ice-fallback")),
		ReaderCount: c.Int("readers"),
		WriteDebug:  c.Bool("debug-audit"),
	}
	if opts.From, err = parseDateFlag(c.String("from")); err != nil {
		return err
	}
	if opts.To, err = parseDateFlag(c.String("to")); err != nil {
		return err
	}

	var tracker *pipeline.Tracker
	var usageService *service.UsageService
	if c.Bool("persist") {
		db, err := postgres.NewDB(&cfg.Database)
		if err != nil {
			return fmt.Errorf("failed to connect to database: %w", err)
		}
		defer db.Close()
		tracker = pipeline.NewTracker(db.DB)
		usageService = service.NewUsageService(repository.NewUsageRepository(db), nil, cfg.App.OutputDir)
	}

	orch, err := pipeline.NewOrchestrator(cfg, opts, logger.Log, tracker)
	if err != nil {
		return err
	}

	result, err := orch.Run(c.Context, files)
	if err != nil {
		return err
	}

	if usageService != nil {
		if err := usageService.PersistRun(c.Context, result); err != nil {
			return fmt.Errorf("failed to persist summaries: %w", err)
		}
	}

	if cfg.Storage.Enabled {
		if err := archiveRun(c.Context, cfg, files); err != nil {
			return err
		}
	}

	fmt.Printf("processed %d export(s): %d payment rows, %d drinks, %d usage rows\n",
		len(files), result.CleanStats.PaymentRows, len(result.Drinks), len(result.Usage))
	fmt.Printf("outputs written to %s\n", cfg.App.OutputDir)
	return nil
}

// archiveRun pushes the raw exports and the run's output tables to the
// configured bucket so the on-box copies can be rotated.
func archiveRun(ctx context.Context, cfg *config.Config, exports []string) error {
	client, err := storage.NewMinioClient(storage.MinioConfig{
		Endpoint:  cfg.Storage.Endpoint,
		AccessKey: cfg.Storage.AccessKey,
		SecretKey: cfg.Storage.SecretKey,
		Bucket:    cfg.Storage.Bucket,
		Region:    cfg.Storage.Region,
		UseSSL:    cfg.Storage.UseSSL,
	})
	if err != nil {
		return fmt.Errorf("init archive storage: %w", err)
	}

	if _, err := storage.NewArchiver(client, "exports").ArchiveFiles(ctx, exports); err != nil {
		return fmt.Errorf("archive raw exports: %w", err)
	}

	stamp := time.Now().UTC().Format("20060102T150405Z")
	keys, err := storage.NewArchiver(client, "runs/"+stamp).ArchiveDir(ctx, cfg.App.OutputDir)
	if err != nil {
		return fmt.Errorf("archive run outputs: %w", err)
	}
	logger.Log.Info().Int("objects", len(keys)+len(exports)).Str("bucket", cfg.Storage.Bucket).Msg("run archived")
	return nil
}

func printYields(c *cli.Context) error {
	cfg := config.Load()

	yields, err := batch.EstimateAllYields(batch.BrewParams{
		HotWaterMl: cfg.Planner.HotWaterMl,
		IceGrams:   cfg.Planner.IceGrams,
	})
	if err != nil {
		return err
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(yields)
}

func listRuns(c *cli.Context) error {
	cfg := config.Load()

	// Read-only command: a short-lived pgx connection instead of the
	// shared pool.
	dsn := fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=%s",
		cfg.Database.User, cfg.Database.Password, cfg.Database.Host,
		cfg.Database.Port, cfg.Database.DBName, cfg.Database.SSLMode)
	db, err := sqlx.Connect("pgx", dsn)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer db.Close()

	runs, err := pipeline.NewTracker(db).Recent(c.Context, c.Int("limit"))
	if err != nil {
		return err
	}

	for _, run := range runs {
		completed := "-"
		if run.CompletedAt != nil {
			completed = run.CompletedAt.Format(time.RFC3339)
		}
		fmt.Printf("%-6d %-10s files=%-3d lines=%-7d drinks=%-6d started=%s completed=%s\n",
			run.ID, run.Status, run.InputFiles, run.TotalLines, run.DrinkCount,
			run.StartedAt.Format(time.RFC3339), completed)
		if run.ErrorMessage != "" {
			fmt.Printf("       error: %s\n", run.ErrorMessage)
		}
	}
	return nil
}

func collectInputs(dir string) ([]string, error) {
	files, err := filepath.Glob(filepath.Join(dir, "*.csv"))
	if err != nil {
		return nil, err
	}
	sort.Strings(files)
	return files, nil
}

func parseDateFlag(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q (expected YYYY-MM-DD): %w", s, err)
	}
	return t, nil
}
