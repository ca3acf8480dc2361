// Command loader reads the bakery sales CSV, normalizes its date and time
// columns and loads every row into a freshly created "sales" table.
//
// main stays tiny: it loads configuration, builds the logger and metrics
// backend, and delegates to run(), whose side effects (reading the file,
// opening the database) are injected through Deps for hermetic tests.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"salesloader/internal/config"
	"salesloader/internal/db"
	"salesloader/internal/loader"
	"salesloader/internal/logger"
	"salesloader/internal/metrics"
	"salesloader/internal/metrics/datadog"
	"salesloader/internal/metrics/prompush"
	"salesloader/internal/skiplog"
)

// Deps holds injectable dependencies so run() is fully testable.
type Deps struct {
	LoadFile func(path string, comma rune) (*loader.RecordSet, error)
	OpenDB   func(ctx context.Context, dialect db.Dialect, dsn string) (db.DB, error)
}

// defaultDeps wires production implementations. Tests should inject fakes.
func defaultDeps() Deps {
	return Deps{
		LoadFile: loader.LoadFile,
		OpenDB:   db.Open,
	}
}

// run executes one load:
//
//  1. Validates cfg.
//  2. Reads the CSV and normalizes date/time; on failure the rejects report
//     is written (when configured) and nothing touches the database.
//  3. Opens one connection, creates the table and inserts every row in one
//     transaction. The connection is closed on every exit path.
func run(ctx context.Context, cfg *config.Config, deps Deps) error {
	log := logger.FromContext(ctx)

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	start := time.Now()
	rs, err := deps.LoadFile(cfg.CSVPath, cfg.CommaRune())
	metrics.RecordStep(cfg.Job, "load", err, time.Since(start))
	if err != nil {
		return err
	}
	metrics.RecordRow(cfg.Job, "loaded", int64(rs.Len()))
	log.Info().
		Str("csv", cfg.CSVPath).
		Int("records", rs.Len()).
		Bool("index_column", rs.HasIndex).
		Str("fingerprint", strconv.FormatUint(rs.Fingerprint, 16)).
		Msg("csv loaded")

	start = time.Now()
	normalized, err := loader.NormalizeDateTime(rs)
	metrics.RecordStep(cfg.Job, "normalize", err, time.Since(start))
	if err != nil {
		var fe *loader.FormatError
		if errors.As(err, &fe) {
			metrics.RecordRow(cfg.Job, "rejected", int64(len(fe.Rejects)))
			if cfg.Rejects != "" {
				ss, werr := writeRejects(cfg.Rejects, fe.Rejects)
				if werr != nil {
					log.Error().Err(werr).Str("path", cfg.Rejects).Msg("write rejects report")
				} else {
					ev := log.Info().Str("path", ss.Path()).Int("rejects", ss.Total())
					for _, rc := range ss.Reasons() {
						ev = ev.Int(rc.Reason, rc.Count)
					}
					ev.Msg("rejects report written")
				}
			}
		}
		return err
	}

	if cfg.ValidateOnly {
		log.Info().Int("records", normalized.Len()).Msg("validation passed; database untouched")
		return nil
	}

	dialect, err := cfg.Dialect()
	if err != nil {
		return err
	}
	dsn, err := cfg.BuildDSN()
	if err != nil {
		return fmt.Errorf("build dsn: %w", err)
	}

	conn, err := deps.OpenDB(ctx, dialect, dsn)
	if err != nil {
		return fmt.Errorf("connect %s: %w", dialect, err)
	}
	defer func() {
		if cerr := conn.Close(ctx); cerr != nil {
			log.Warn().Err(cerr).Msg("close connection")
		}
	}()

	table := cfg.QualifiedTable()
	n, err := loader.RunWith(ctx, conn, normalized, loader.Options{
		Table:     table,
		BatchSize: cfg.BatchSize,
		Job:       cfg.Job,
	})
	if err != nil {
		if db.IsTableExists(err) {
			log.Error().Str("table", table).Msg("destination table already exists; drop it or choose another -table")
		}
		return err
	}

	log.Info().Str("table", table).Int64("rows", n).Msg("load complete")
	return nil
}

// writeRejects dumps every rejected value to path and returns the closed
// report for its counts.
func writeRejects(path string, rejects []loader.Reject) (ss *skiplog.Stats, err error) {
	ss, err = skiplog.New(path)
	if err != nil {
		return nil, err
	}
	defer func() {
		if cerr := ss.Close(); err == nil && cerr != nil {
			ss, err = nil, cerr
		}
	}()
	for _, r := range rejects {
		if err := ss.Add("invalid_"+r.Field, r.Line, r.Field, r.Value); err != nil {
			return nil, err
		}
	}
	return ss, nil
}

// newMetricsBackend builds the backend selected by cfg. It returns nil for
// "none", which keeps the no-op default.
func newMetricsBackend(cfg *config.Config) (metrics.Backend, error) {
	switch cfg.MetricsBackend {
	case config.MetricsPushgateway:
		b, err := prompush.NewBackend(cfg.Job, cfg.PushgatewayURL)
		if err != nil {
			return nil, err
		}
		return b, nil
	case config.MetricsDatadog:
		b, err := datadog.NewBackend(datadog.Config{
			Addr:       cfg.StatsdAddr,
			GlobalTags: []string{"job:" + cfg.Job},
		})
		if err != nil {
			return nil, err
		}
		return b, nil
	case config.MetricsNone, "":
		return nil, nil
	}
	return nil, fmt.Errorf("unknown metrics backend %q", cfg.MetricsBackend)
}

// main loads config, builds real deps, and runs. Any error is fatal; it is
// logged once and the process exits non-zero.
func main() {
	cfg := config.Load()

	log := logger.New(logger.Options{Format: cfg.LogFormat, Level: cfg.LogLevel})
	ctx := logger.WithContext(context.Background(), log)

	backend, err := newMetricsBackend(cfg)
	if err != nil {
		log.Error().Err(err).Msg("metrics backend")
		os.Exit(1)
	}
	if backend != nil {
		metrics.SetBackend(backend)
	}

	err = run(ctx, cfg, defaultDeps())

	if ferr := metrics.Flush(); ferr != nil {
		log.Warn().Err(ferr).Msg("flush metrics")
	}
	if err != nil {
		log.Error().Err(err).Msg("load failed")
		os.Exit(1)
	}
}
