package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/sells-group/retail-eda/internal/export"
)

var (
	cleanOutput      string
	cleanOutputDir   string
	cleanFormat      string
	cleanConcurrency int
)

var cleanCmd = &cobra.Command{
	Use:   "clean <source>...",
	Short: "Normalize retail transaction tables",
	Long: `Loads each source, normalizes it and writes the cleaned table.

A single source without --output or --output-dir is written to stdout.
Several sources need --output-dir (or output.dir in config) and are
processed concurrently.

Examples:
  retail-eda clean Retail_Sales.csv > cleaned.csv
  retail-eda clean Retail_Sales.csv --output cleaned.xlsx
  retail-eda clean jan.csv feb.csv https://example.com/mar.zip --output-dir cleaned --format json`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		if cleanConcurrency > 0 {
			cfg.Batch.MaxConcurrentFiles = cleanConcurrency
		}
		format, err := resolveCleanFormat()
		if err != nil {
			return err
		}
		cfg.Output.Format = string(format)
		if err := cfg.Validate("clean"); err != nil {
			return err
		}

		outDir := cleanOutputDir
		if outDir == "" {
			outDir = cfg.Output.Dir
		}
		if cleanOutput != "" && len(args) > 1 {
			return eris.New("clean: --output takes a single source, use --output-dir")
		}
		if cleanOutput == "" && outDir == "" && len(args) > 1 {
			return eris.New("clean: several sources need --output-dir")
		}

		runID := uuid.NewString()
		log := zap.L().With(zap.String("run_id", runID))
		opts := loadOptions()

		// Single source to stdout.
		if cleanOutput == "" && outDir == "" {
			if format == export.FormatXLSX {
				return eris.New("clean: xlsx output needs --output or --output-dir")
			}
			tb, _, err := loadClean(ctx, log, args[0], opts)
			if err != nil {
				return err
			}
			return export.Write(cmd.OutOrStdout(), format, tb)
		}

		targets := []string{cleanOutput}
		if cleanOutput == "" {
			if err := os.MkdirAll(outDir, 0o755); err != nil {
				return eris.Wrap(err, "clean: create output dir")
			}
			targets = outputPaths(args, outDir, format)
		}

		g, gCtx := errgroup.WithContext(ctx)
		g.SetLimit(cfg.Batch.MaxConcurrentFiles)

		errs := make([]error, len(args))
		var succeeded atomic.Int64

		for i, source := range args {
			i, source := i, source
			g.Go(func() error {
				tb, _, err := loadClean(gCtx, log, source, opts)
				if err == nil {
					err = export.WriteFile(targets[i], format, tb)
				}
				if err != nil {
					errs[i] = err
					log.Error("clean: source failed", zap.String("source", source), zap.Error(err))
					return nil // keep going with the other sources
				}
				succeeded.Add(1)
				log.Info("clean: wrote table",
					zap.String("source", source),
					zap.String("output", targets[i]),
					zap.Int("rows", len(tb.Rows)),
				)
				return nil
			})
		}
		_ = g.Wait()

		log.Info("clean: run complete",
			zap.Int("total", len(args)),
			zap.Int64("succeeded", succeeded.Load()),
		)

		return combineErrors(args, errs)
	},
}

func init() {
	cleanCmd.Flags().StringVarP(&cleanOutput, "output", "o", "", "write the cleaned table to this file (single source)")
	cleanCmd.Flags().StringVar(&cleanOutputDir, "output-dir", "", "write one cleaned file per source into this directory")
	cleanCmd.Flags().StringVar(&cleanFormat, "format", "", "output format: csv, json or xlsx (default: from --output extension or output.format)")
	cleanCmd.Flags().IntVar(&cleanConcurrency, "concurrency", 0, "max sources to process concurrently (default: batch.max_concurrent_files)")
	rootCmd.AddCommand(cleanCmd)
}

// resolveCleanFormat picks the output format from --format, then the
// --output extension, then config.
func resolveCleanFormat() (export.Format, error) {
	switch {
	case cleanFormat != "":
		return export.ParseFormat(cleanFormat)
	case cleanOutput != "":
		return export.FormatFromPath(cleanOutput), nil
	}
	return export.ParseFormat(cfg.Output.Format)
}

// outputPaths names one output file per source inside dir. Sources sharing a
// stem get a numeric suffix.
func outputPaths(sources []string, dir string, format export.Format) []string {
	seen := make(map[string]int, len(sources))
	paths := make([]string, len(sources))
	for i, source := range sources {
		stem := sourceStem(source) + "_cleaned"
		seen[stem]++
		if n := seen[stem]; n > 1 {
			stem = fmt.Sprintf("%s_%d", stem, n)
		}
		paths[i] = filepath.Join(dir, stem+"."+string(format))
	}
	return paths
}

// combineErrors reports every failed source in one error.
func combineErrors(sources []string, errs []error) error {
	var msgs []string
	for i, err := range errs {
		if err != nil {
			msgs = append(msgs, fmt.Sprintf("%s: %v", sources[i], err))
		}
	}
	if len(msgs) == 0 {
		return nil
	}
	return eris.Errorf("clean: %d of %d sources failed:\n  %s", len(msgs), len(sources), strings.Join(msgs, "\n  "))
}
