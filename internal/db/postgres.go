package db

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// pgConnLike is the subset of *pgx.Conn the adapter uses. Tests inject a
// fake here so no socket is needed.
type pgConnLike interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	Begin(ctx context.Context) (pgx.Tx, error)
	Close(ctx context.Context) error
}

// pgDB is the Postgres implementation of DB on top of a single pgx.Conn.
type pgDB struct{ conn pgConnLike }

// NewPgDB validates dsn, connects with pgx.Connect and wraps the connection.
// Callers are responsible for closing it via Close().
func NewPgDB(ctx context.Context, dsn string) (DB, error) {
	cfg, err := pgx.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("postgres dsn: %w", err)
	}
	c, err := pgx.ConnectConfig(ctx, cfg)
	if err != nil {
		return nil, err
	}
	return &pgDB{conn: c}, nil
}

func (p *pgDB) Exec(ctx context.Context, q string, args ...any) error {
	_, err := p.conn.Exec(ctx, q, args...)
	return err
}

func (p *pgDB) BeginTx(ctx context.Context) (Tx, error) {
	tx, err := p.conn.Begin(ctx)
	if err != nil {
		return nil, err
	}
	return &pgTx{tx: tx}, nil
}

func (p *pgDB) Dialect() Dialect { return Postgres }

func (p *pgDB) Close(ctx context.Context) error { return p.conn.Close(ctx) }

// pgTx wraps pgx.Tx to implement Tx.
type pgTx struct {
	tx pgx.Tx
}

// InsertBatch queues one INSERT per row in a pgx.Batch and sends it in a
// single round trip. The first failing row aborts the batch.
func (t *pgTx) InsertBatch(ctx context.Context, stmt string, rows [][]any) (int64, error) {
	if len(rows) == 0 {
		return 0, nil
	}
	b := &pgx.Batch{}
	for _, r := range rows {
		b.Queue(stmt, r...)
	}

	br := t.tx.SendBatch(ctx, b)
	var inserted int64
	for i := range rows {
		tag, err := br.Exec()
		if err != nil {
			_ = br.Close()
			return inserted, fmt.Errorf("row %d: %w", i, err)
		}
		inserted += tag.RowsAffected()
	}
	if err := br.Close(); err != nil {
		return inserted, err
	}
	return inserted, nil
}

func (t *pgTx) Commit(ctx context.Context) error { return t.tx.Commit(ctx) }

func (t *pgTx) Rollback(ctx context.Context) error { return t.tx.Rollback(ctx) }

// AsPgConn extracts the underlying *pgx.Conn when available.
func AsPgConn(d DB) (*pgx.Conn, bool) {
	p, ok := d.(*pgDB)
	if !ok {
		return nil, false
	}
	if real, ok := p.conn.(*pgx.Conn); ok {
		return real, true
	}
	return nil, false
}

// newPgDBFromConn constructs a pgDB from a pgConnLike fake.
func newPgDBFromConn(c pgConnLike) *pgDB { return &pgDB{conn: c} }
