package loader

import (
	"context"
	"time"

	"salesloader/internal/db"
	"salesloader/internal/logger"
	"salesloader/internal/metrics"
)

// Options tunes Run. The zero value creates "sales" and inserts every record
// in one batch.
type Options struct {
	// Table is the destination table, optionally schema-qualified.
	Table string
	// BatchSize caps the rows sent per InsertBatch call. Values <= 0 send
	// the whole record set at once. Every batch shares one transaction.
	BatchSize int
	// Job labels emitted metrics.
	Job string
}

func (o Options) withDefaults() Options {
	if o.Table == "" {
		o.Table = DefaultTable
	}
	if o.Job == "" {
		o.Job = "salesloader"
	}
	return o
}

// Run creates the destination table on conn and inserts every record of rs
// in a single transaction. It returns the number of rows inserted.
func Run(ctx context.Context, conn db.DB, rs *RecordSet) (int64, error) {
	return RunWith(ctx, conn, rs, Options{})
}

// RunWith is Run with explicit options.
//
// Creating the table fails with ErrSchema (including when it already exists).
// Any insert or commit failure fails with ErrInsert after rolling back, so a
// failed run never leaves rows behind.
func RunWith(ctx context.Context, conn db.DB, rs *RecordSet, opts Options) (int64, error) {
	opts = opts.withDefaults()
	log := logger.FromContext(ctx)
	d := conn.Dialect()

	start := time.Now()
	err := conn.Exec(ctx, SchemaStatement(d, opts.Table))
	metrics.RecordStep(opts.Job, "create_table", err, time.Since(start))
	if err != nil {
		return 0, &Error{Kind: ErrSchema, Op: "create table", Path: opts.Table, Err: err}
	}
	log.Info().Str("table", opts.Table).Str("dialect", string(d)).Msg("table created")

	start = time.Now()
	n, err := insertAll(ctx, conn, InsertStatement(d, opts.Table), rs.Rows(), opts)
	metrics.RecordStep(opts.Job, "insert", err, time.Since(start))
	if err != nil {
		return 0, &Error{Kind: ErrInsert, Op: "insert", Path: opts.Table, Err: err}
	}
	metrics.RecordRow(opts.Job, "inserted", n)
	return n, nil
}

// insertAll runs every batch inside one transaction and commits once.
func insertAll(ctx context.Context, conn db.DB, stmt string, rows [][]any, opts Options) (total int64, err error) {
	log := logger.FromContext(ctx)

	tx, err := conn.BeginTx(ctx)
	if err != nil {
		return 0, err
	}
	committed := false
	defer func() {
		if committed {
			return
		}
		if rbErr := tx.Rollback(ctx); rbErr != nil {
			log.Warn().Err(rbErr).Msg("rollback failed")
		}
	}()

	size := opts.BatchSize
	if size <= 0 || size > len(rows) {
		size = len(rows)
	}

	var (
		batches     int64
		start       = time.Now()
		lastFlushTS = start
	)
	for lo := 0; lo < len(rows); lo += size {
		hi := min(lo+size, len(rows))

		n, err := tx.InsertBatch(ctx, stmt, rows[lo:hi])
		total += n
		if err != nil {
			log.Error().Err(err).Int64("batch", batches+1).Int64("total_inserted", total).Msg("batch insert failed")
			return 0, err
		}

		batches++
		now := time.Now()
		sinceLast := now.Sub(lastFlushTS)
		rps := float64(0)
		if sinceLast > 0 {
			rps = float64(n) / sinceLast.Seconds()
		}
		log.Debug().
			Int64("batch", batches).
			Float64("rps", rps).
			Int64("inserted", n).
			Int64("total_inserted", total).
			Dur("elapsed", now.Sub(start)).
			Dur("since_last", sinceLast).
			Msg("batch inserted")
		lastFlushTS = now
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, err
	}
	committed = true
	metrics.RecordBatches(opts.Job, batches)

	log.Info().
		Int64("rows", total).
		Int64("batches", batches).
		Dur("elapsed", time.Since(start)).
		Msg("insert committed")
	return total, nil
}
