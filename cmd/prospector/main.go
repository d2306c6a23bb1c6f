package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"os/signal"

	"github.com/cognicore/prospector/internal/logging"
	"github.com/cognicore/prospector/pkg/prospector"
	"github.com/cognicore/prospector/pkg/prospector/config"
	"github.com/cognicore/prospector/pkg/prospector/ingest"
	"github.com/cognicore/prospector/pkg/prospector/store/sqlite"
)

func main() {
	var (
		configPath = flag.String("config", "", "Rule set configuration, YAML or JSON (required)")
		input      = flag.String("input", "", "Contacts CSV (required)")
		outDir     = flag.String("out", "out", "Output directory")
		sqlitePath = flag.String("sqlite", "", "Optional: SQLite database receiving the ranked prospects")
		decision   = flag.Bool("decision", false, "Print the keep/discard decision table as CSV instead of the report")
		jsonOut    = flag.Bool("json", false, "Print the report as JSON")
		logLevel   = flag.String("log-level", "", "Log level override (debug, info, warn, error)")
	)
	flag.Parse()

	cfg, cfgErr := config.Load(*configPath)

	logCfg := logging.Config{}
	if cfg != nil {
		logCfg = cfg.Logging
	}
	if *logLevel != "" {
		logCfg.Level = *logLevel
	}
	logger, err := logging.New(logCfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "init logger: %v\n", err)
		os.Exit(1)
	}

	if *configPath == "" {
		fatal(logger, "--config required", nil)
	}
	if *input == "" {
		fatal(logger, "--input required", nil)
	}
	if cfgErr != nil {
		fatal(logger, "load config", cfgErr)
	}

	if err := run(logger, cfg, *input, *outDir, *sqlitePath, *decision, *jsonOut); err != nil {
		fatal(logger, "run failed", err)
	}
	_ = logger.Sync()
}

func run(logger logging.Logger, cfg *config.Config, input, outDir, sqlitePath string, decision, jsonOut bool) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	components, err := cfg.Build(logger)
	if err != nil {
		return fmt.Errorf("build components: %w", err)
	}

	raw, err := ingest.ReadCSVFile(input)
	if err != nil {
		return err
	}

	opts := prospector.FromComponents(components)
	opts.Logger = logger
	if sqlitePath != "" {
		st, err := sqlite.OpenSQLite(ctx, sqlitePath)
		if err != nil {
			return err
		}
		opts.Store = st
	}

	p := prospector.New(opts)
	defer p.Close()

	res, err := p.Run(ctx, input, raw)
	if err != nil {
		return err
	}

	if _, err := p.WriteOutputs(outDir, res); err != nil {
		return err
	}

	switch {
	case decision:
		err = ingest.WriteCSV(os.Stdout, p.DecisionTable(res))
	case jsonOut:
		var out []byte
		out, err = json.MarshalIndent(res.Report, "", "  ")
		if err == nil {
			fmt.Println(string(out))
		}
	default:
		err = res.Report.WriteText(os.Stdout)
	}
	if err != nil {
		return fmt.Errorf("print report: %w", err)
	}
	return nil
}

func fatal(logger logging.Logger, msg string, err error) {
	if err != nil {
		logger.Error(msg, logging.Err(err))
	} else {
		logger.Error(msg)
	}
	_ = logger.Sync()
	os.Exit(1)
}
