// Command nexus runs the data harmonization pipeline: it extracts the
// raw source files, unions and cleans them into the long-format nexus
// table, joins country classifications, and writes Parquet artifacts.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"

	"nexusetl/internal/config"
	"nexusetl/internal/country"
	"nexusetl/internal/exporter"
	"nexusetl/internal/extract"
	"nexusetl/internal/infrastructure"
	"nexusetl/internal/nexus"
	"nexusetl/internal/pipeline"
	"nexusetl/pkg/contracts"
)

// Snake_cased name of the ISO3 join key column in the classifier CSV
const classifierKeyColumn = "iso3"

func main() {
	rawDir := flag.String("raw", "", "directory holding the raw source files (defaults to data/raw)")
	outDir := flag.String("out", "", "output directory for Parquet files (defaults to data/processed)")
	rawTables := flag.Bool("raw-tables", false, "also write the per-source raw tables (pefa, taxwb)")
	logLevel := flag.String("log-level", "", "override log level (debug, info, warn, error)")
	showVersion := flag.Bool("version", false, "print version and exit")
	flag.Parse()

	if *showVersion {
		fmt.Println(contracts.GetVersionString())
		return
	}

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}
	if *rawDir != "" {
		cfg.Paths.RawDir = *rawDir
	}
	if *outDir != "" {
		cfg.Paths.ProcessedDir = *outDir
	}
	if *rawTables {
		cfg.Export.RawTables = true
	}
	if *logLevel != "" {
		cfg.Logging.Level = *logLevel
	}

	logger, err := infrastructure.InitializeLogger(cfg.Logging)
	if err != nil {
		slog.Error("failed to initialize logger", "error", err)
		os.Exit(1)
	}
	defer infrastructure.CloseLogFile()

	if err := run(cfg, logger); err != nil {
		logger.Error("pipeline failed", slog.String("error", err.Error()))
		os.Exit(1)
	}
}

func run(cfg *config.Config, logger *slog.Logger) error {
	ctx := context.Background()

	otelProviders, err := infrastructure.InitializeOTel(ctx, contracts.Version)
	if err != nil {
		return fmt.Errorf("failed to initialize tracing: %w", err)
	}
	defer otelProviders.Shutdown(ctx)

	paths := config.NewPaths(cfg.Paths)
	if err := paths.EnsureDirectories(); err != nil {
		return err
	}

	logger.Info("starting data processing pipeline",
		slog.String("version", contracts.Version),
		slog.String("raw_dir", paths.RawDir),
		slog.String("processed_dir", paths.ProcessedDir))

	coder := country.NewWorldBankCoder(cfg.Resolver.BaseURL, cfg.Resolver.Timeout, cfg.Resolver.RequestsPerSecond)
	resolver := country.NewResolver(coder, country.DefaultOverrides)

	classifier, err := nexus.LoadClassifiers(paths.ClassifiersFile, classifierKeyColumn)
	if err != nil {
		return err
	}

	manager := pipeline.NewManager(logger, otelProviders.Tracer,
		extract.NewISORA(paths, resolver, logger),
		extract.NewPEFA(paths),
		extract.NewTaxGap(paths),
		extract.NewWDI(paths),
		extract.NewWGI(paths),
		extract.NewGFI(paths, resolver),
		extract.NewUSAID(paths, resolver),
		extract.NewFSI(paths),
		extract.NewUNODC(paths, resolver),
	)

	writer := exporter.NewWriter(paths, cfg.Export.ParquetParallelism, logger)
	p := pipeline.New(manager, classifier, writer, logger, otelProviders.Tracer, cfg.Export.RawTables)

	return p.Execute(ctx)
}
