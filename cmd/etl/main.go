// Command etl runs the graduation-statistics pipeline: it extracts a
// SIES spreadsheet, cleans and filters the records to one region,
// validates data quality, and writes the result as CSV.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"siescli/internal/config"
	"siescli/internal/infrastructure"
	"siescli/internal/operations"
)

func main() {
	os.Exit(run())
}

func run() int {
	var (
		sourceFile = flag.String("source", "", "source spreadsheet (default: newest .xlsx in the raw data directory)")
		outputFile = flag.String("output", "", "output CSV path (default: derived from the target region)")
		region     = flag.String("region", "", "target region (default: from configuration)")
		threshold  = flag.Float64("quality-threshold", -1, "minimum quality score to write output (default: from configuration)")
		configFile = flag.String("config", "", "configuration file (default: config.yaml if present)")

		extractOnly = flag.Bool("extract-only", false, "extract the spreadsheet to CSV and stop")
		validate    = flag.Bool("validate-only", false, "report data quality without writing output; -source may be a CSV")
		summary     = flag.Bool("regional-summary", false, "write the regional aggregate breakdown and stop")
	)
	flag.Parse()

	mode, err := resolveMode(*extractOnly, *validate, *summary)
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		return 2
	}

	cfg, err := config.Load(*configFile)
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error: failed to load configuration:", err)
		return 1
	}
	if *region != "" {
		cfg.Pipeline.TargetRegion = *region
	}
	if *threshold >= 0 {
		cfg.Pipeline.QualityThreshold = *threshold
	}
	if *sourceFile == "" {
		*sourceFile = cfg.Pipeline.SourceFile
	}

	paths, err := config.NewPaths(cfg.Paths)
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		return 1
	}
	if err := paths.EnsureDirectories(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		return 1
	}

	logger, err := infrastructure.InitializeLogger(cfg.Logging, paths)
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error: failed to initialize logger:", err)
		return 1
	}
	defer infrastructure.CloseLogFiles()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx = infrastructure.WithRunID(ctx, infrastructure.NewRunID())

	manager := operations.NewManager(cfg, paths, logger)
	result, err := manager.Run(ctx, operations.RunOptions{
		Mode:       mode,
		SourceFile: *sourceFile,
		OutputFile: *outputFile,
	})
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		return 1
	}

	fmt.Println(result.Message)
	if result.OutputPath != "" {
		fmt.Println("Output:", result.OutputPath)
	}
	return 0
}

func resolveMode(extractOnly, validate, summary bool) (operations.Mode, error) {
	set := 0
	mode := operations.ModeFull
	if extractOnly {
		set++
		mode = operations.ModeExtractOnly
	}
	if validate {
		set++
		mode = operations.ModeValidate
	}
	if summary {
		set++
		mode = operations.ModeSummary
	}
	if set > 1 {
		return "", fmt.Errorf("-extract-only, -validate-only and -regional-summary are mutually exclusive")
	}
	return mode, nil
}
