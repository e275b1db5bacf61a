package main

import (
	"context"
	"net/url"
	"path"
	"path/filepath"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/sells-group/retail-eda/internal/fetcher"
	"github.com/sells-group/retail-eda/internal/model"
	"github.com/sells-group/retail-eda/internal/normalize"
)

// loadOptions builds loader settings from the input config section. Build it
// once per command run: the HTTP fetcher holds the per-host rate limiters, so
// every source of a run must share it.
func loadOptions() fetcher.LoadOptions {
	in := cfg.Input
	return fetcher.LoadOptions{
		Delimiter:  in.DelimiterRune(),
		Comment:    in.CommentRune(),
		LazyQuotes: in.LazyQuotes,
		TrimSpace:  in.TrimSpace,
		Encoding:   in.Encoding,
		Sheet:      fetcher.XLSXOptions{SheetName: in.Sheet, SheetIndex: in.SheetIndex},
		ZipMember:  in.ZipMember,
		TempDir:    in.TempDir,
		HTTP: fetcher.NewHTTPFetcher(fetcher.HTTPOptions{
			UserAgent:   in.UserAgent,
			Timeout:     in.HTTPTimeout(),
			MaxRetries:  in.HTTPMaxRetries,
			RatePerHost: rate.Limit(in.HTTPRatePerHost),
		}),
		FTP: fetcher.NewFTPFetcher(fetcher.FTPOptions{Timeout: in.FTPTimeout()}),
	}
}

// cleanOptions builds the normalization policy from the clean config section.
func cleanOptions() normalize.Options {
	c := cfg.Clean
	return normalize.Options{
		DateLayouts:     c.DateLayouts,
		NAValues:        c.NAValues,
		UnknownItem:     c.UnknownItem,
		DiscountDefault: c.DiscountDefault,
		UnknownLabel:    c.UnknownLabel,
	}
}

// loadRaw loads one source and logs its shape.
func loadRaw(ctx context.Context, log *zap.Logger, source string, opts fetcher.LoadOptions) (*model.RawTable, error) {
	raw, err := fetcher.Load(ctx, source, opts)
	if err != nil {
		return nil, eris.Wrapf(err, "load %s", source)
	}
	log.Info("source loaded",
		zap.String("source", source),
		zap.Int("columns", len(raw.Header)),
		zap.Int("rows", len(raw.Rows)),
	)
	return raw, nil
}

// loadClean loads one source and normalizes it.
func loadClean(ctx context.Context, log *zap.Logger, source string, opts fetcher.LoadOptions) (*model.Table, normalize.Report, error) {
	raw, err := loadRaw(ctx, log, source, opts)
	if err != nil {
		return nil, normalize.Report{}, err
	}
	tb, rep := normalize.Normalize(*raw, cleanOptions())
	logCleanReport(log, source, rep)
	return tb, rep, nil
}

// logCleanReport logs the anomalies absorbed during normalization.
func logCleanReport(log *zap.Logger, source string, rep normalize.Report) {
	log = log.With(zap.String("source", source))

	if len(rep.MissingColumns) > 0 {
		log.Warn("required columns missing, treated as empty",
			zap.Strings("columns", rep.MissingColumns),
		)
	}
	for col, n := range rep.CoercionFailures {
		if n > 0 {
			log.Warn("values could not be coerced",
				zap.String("column", col),
				zap.Int("count", n),
			)
		}
	}
	for col, imp := range rep.Imputations {
		if imp.Filled == 0 {
			continue
		}
		if imp.AllNull {
			log.Warn("column has no values, filled with zero",
				zap.String("column", col),
				zap.Int("filled", imp.Filled),
			)
			continue
		}
		log.Debug("median imputation",
			zap.String("column", col),
			zap.Float64("median", imp.Median),
			zap.Int("filled", imp.Filled),
		)
	}
	for col, n := range rep.DefaultFills {
		log.Debug("default fill", zap.String("column", col), zap.Int("filled", n))
	}
	if len(rep.DroppedRows) > 0 {
		log.Warn("rows dropped without a valid date",
			zap.Int("count", len(rep.DroppedRows)),
			zap.Ints("rows", rep.DroppedRows),
		)
	}

	log.Info("normalization complete",
		zap.Int("rows_in", rep.RowsIn),
		zap.Int("rows_out", rep.RowsOut),
	)
}

// sourceStem returns the file name of a local path or URL without its
// extension.
func sourceStem(source string) string {
	name := filepath.Base(source)
	if u, err := url.Parse(source); err == nil && u.Scheme != "" && u.Host != "" {
		name = path.Base(u.Path)
	}
	name = strings.TrimSuffix(name, filepath.Ext(name))
	if name == "" || name == "." || name == "/" {
		name = "source"
	}
	return name
}
