package db

import (
	"context"
	"database/sql"
	"fmt"
)

// The portable adapter serves every engine reachable through database/sql
// (MySQL, SQL Server, SQLite). Batched inserts fall back to a prepared INSERT
// executed once per row inside the transaction.
//
// sqlDBCore/sqlTxCore/stmtCore are the seams unit tests inject fakes into.

// stmtCore is the minimal subset of *sql.Stmt we use.
type stmtCore interface {
	ExecContext(ctx context.Context, args ...any) (sql.Result, error)
	Close() error
}

// sqlTxCore is the subset of a transaction that sqlTx uses.
type sqlTxCore interface {
	PrepareContext(ctx context.Context, query string) (stmtCore, error)
	Commit() error
	Rollback() error
}

// sqlDBCore is the subset of a connection that sqlDB uses.
type sqlDBCore interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	BeginTx(ctx context.Context, opts *sql.TxOptions) (sqlTxCore, error)
	Close() error
}

type realStmt struct{ s *sql.Stmt }

func (r realStmt) ExecContext(ctx context.Context, args ...any) (sql.Result, error) {
	return r.s.ExecContext(ctx, args...)
}
func (r realStmt) Close() error { return r.s.Close() }

type realSQLTx struct{ tx *sql.Tx }

func (r realSQLTx) PrepareContext(ctx context.Context, q string) (stmtCore, error) {
	st, err := r.tx.PrepareContext(ctx, q)
	if err != nil {
		return nil, err
	}
	return realStmt{st}, nil
}
func (r realSQLTx) Commit() error   { return r.tx.Commit() }
func (r realSQLTx) Rollback() error { return r.tx.Rollback() }

type realSQLDB struct{ db *sql.DB }

func (r realSQLDB) ExecContext(ctx context.Context, q string, args ...any) (sql.Result, error) {
	return r.db.ExecContext(ctx, q, args...)
}
func (r realSQLDB) BeginTx(ctx context.Context, opts *sql.TxOptions) (sqlTxCore, error) {
	tx, err := r.db.BeginTx(ctx, opts)
	if err != nil {
		return nil, err
	}
	return realSQLTx{tx: tx}, nil
}
func (r realSQLDB) Close() error { return r.db.Close() }

// sqlDB is the database/sql implementation of DB.
type sqlDB struct {
	db      sqlDBCore
	dialect Dialect
}

// NewSQLDB opens driverName/dsn, pins the pool to a single connection and
// pings to confirm connectivity. One connection also keeps SQLite ":memory:"
// databases stable across statements.
func NewSQLDB(ctx context.Context, driverName, dsn string, dialect Dialect) (DB, error) {
	d, err := sql.Open(driverName, dsn)
	if err != nil {
		return nil, err
	}
	d.SetMaxOpenConns(1)
	d.SetMaxIdleConns(1)
	if err := d.PingContext(ctx); err != nil {
		_ = d.Close()
		return nil, err
	}
	return &sqlDB{db: realSQLDB{db: d}, dialect: dialect}, nil
}

func (s *sqlDB) Exec(ctx context.Context, q string, args ...any) error {
	_, err := s.db.ExecContext(ctx, q, args...)
	return err
}

func (s *sqlDB) BeginTx(ctx context.Context) (Tx, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	return &sqlTx{tx: tx}, nil
}

func (s *sqlDB) Dialect() Dialect { return s.dialect }

func (s *sqlDB) Close(ctx context.Context) error { return s.db.Close() }

// sqlTx wraps sqlTxCore to implement Tx.
type sqlTx struct{ tx sqlTxCore }

// InsertBatch prepares stmt once and executes it for every row.
func (t *sqlTx) InsertBatch(ctx context.Context, stmt string, rows [][]any) (int64, error) {
	if len(rows) == 0 {
		return 0, nil
	}
	st, err := t.tx.PrepareContext(ctx, stmt)
	if err != nil {
		return 0, err
	}
	defer st.Close()

	var inserted int64
	for i, row := range rows {
		if _, err := st.ExecContext(ctx, row...); err != nil {
			return inserted, fmt.Errorf("row %d: %w", i, err)
		}
		inserted++
	}
	return inserted, nil
}

func (t *sqlTx) Commit(ctx context.Context) error { return t.tx.Commit() }

func (t *sqlTx) Rollback(ctx context.Context) error { return t.tx.Rollback() }

// AsSQLDB exposes the underlying *sql.DB for callers that need raw access.
func AsSQLDB(d DB) (*sql.DB, bool) {
	s, ok := d.(*sqlDB)
	if !ok {
		return nil, false
	}
	if core, ok := s.db.(realSQLDB); ok {
		return core.db, true
	}
	return nil, false
}

// newSQLDBForTest wraps a fake sqlDBCore as a DB.
func newSQLDBForTest(core sqlDBCore, dialect Dialect) *sqlDB {
	return &sqlDB{db: core, dialect: dialect}
}
