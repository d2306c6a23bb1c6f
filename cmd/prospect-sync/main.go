package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"sort"
	"time"

	"github.com/joho/godotenv"

	"github.com/cognicore/prospector/internal/logging"
	"github.com/cognicore/prospector/pkg/prospector/ingest"
	"github.com/cognicore/prospector/pkg/prospector/report"
	"github.com/cognicore/prospector/pkg/prospector/store"
	"github.com/cognicore/prospector/pkg/prospector/store/postgres"
)

func main() {
	var (
		input    = flag.String("input", "", "Prospects CSV written by prospector (required)")
		dsn      = flag.String("dsn", "", "PostgreSQL DSN (default: $"+postgres.EnvDSN+")")
		envFile  = flag.String("env-file", ".env", "Optional env file loaded before reading the environment")
		dryRun   = flag.Bool("dry-run", false, "Select prospects without writing to the database")
		logLevel = flag.String("log-level", "info", "Log level (debug, info, warn, error)")
	)
	flag.Parse()

	logger, err := logging.New(logging.Config{Level: *logLevel})
	if err != nil {
		fmt.Fprintf(os.Stderr, "init logger: %v\n", err)
		os.Exit(1)
	}

	if err := run(logger, *input, *dsn, *envFile, *dryRun); err != nil {
		logger.Error("sync failed", logging.Err(err))
		_ = logger.Sync()
		os.Exit(1)
	}
	_ = logger.Sync()
}

func run(logger logging.Logger, input, dsn, envFile string, dryRun bool) error {
	if input == "" {
		return fmt.Errorf("--input required")
	}
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("load %s: %w", envFile, err)
		}
	}

	raw, err := ingest.ReadCSVFile(input)
	if err != nil {
		return err
	}
	prospects, err := store.SelectForSync(raw)
	if err != nil {
		return err
	}
	logger.Info("prospects selected",
		logging.String("input", input),
		logging.Int("rows", len(raw.Records)),
		logging.Int("selected", len(prospects)))
	if dryRun {
		return nil
	}

	resolved, err := postgres.ResolveDSN(dsn, os.Getenv)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	st, err := postgres.Open(ctx, resolved)
	if err != nil {
		return err
	}
	defer st.Close()

	started := time.Now()
	runID := report.NewBuilder().NewID()
	n, err := st.UpsertProspects(ctx, runID, prospects)
	if err != nil {
		return err
	}
	recommended := 0
	for _, p := range prospects {
		if p.Recommended {
			recommended++
		}
	}
	if err := st.RecordRun(ctx, store.Run{
		ID:          runID,
		Input:       input,
		StartedAt:   started,
		FinishedAt:  time.Now(),
		RowsIn:      len(raw.Records),
		RowsOut:     n,
		Recommended: recommended,
	}); err != nil {
		return err
	}

	stats, err := st.Stats(ctx)
	if err != nil {
		return err
	}
	logger.Info("prospects synced", logging.String("run_id", runID), logging.Int("upserted", n))

	fmt.Printf("upserted: %d\n", n)
	fmt.Printf("total: %d\n", stats.Total)
	fmt.Printf("with email: %d\n", stats.WithEmail)
	sectors := make([]string, 0, len(stats.BySector))
	for s := range stats.BySector {
		sectors = append(sectors, s)
	}
	sort.Strings(sectors)
	for _, s := range sectors {
		name := s
		if name == "" {
			name = "(none)"
		}
		fmt.Printf("  %s: %d\n", name, stats.BySector[s])
	}
	return nil
}
