package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/cognicore/prospector/internal/logging"
	"github.com/cognicore/prospector/pkg/prospector/export"
	"github.com/cognicore/prospector/pkg/prospector/ingest"
)

func main() {
	var (
		input    = flag.String("input", "", "LinkedIn connections export CSV (required)")
		output   = flag.String("output", "contacts_prepared.csv", "Prepared CSV path")
		logLevel = flag.String("log-level", "info", "Log level (debug, info, warn, error)")
	)
	flag.Parse()

	logger, err := logging.New(logging.Config{Level: *logLevel})
	if err != nil {
		fmt.Fprintf(os.Stderr, "init logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	if *input == "" {
		logger.Error("--input required")
		os.Exit(1)
	}

	raw, err := ingest.ReadCSVFile(*input)
	if err != nil {
		logger.Error("read export", logging.Err(err))
		os.Exit(1)
	}

	prepared, quality, err := ingest.PrepareLinkedIn(raw)
	if err != nil {
		logger.Error("prepare export", logging.Err(err))
		os.Exit(1)
	}

	if err := export.WriteFile(*output, prepared); err != nil {
		logger.Error("write prepared", logging.Err(err))
		os.Exit(1)
	}

	logger.Info("export prepared",
		logging.String("output", *output),
		logging.Int("rows_in", quality.RowsIn),
		logging.Int("rows_out", quality.RowsOut))
	fmt.Println(quality.String())
}
