package db

import (
	"context"
	"fmt"
	"strings"

	"github.com/go-sql-driver/mysql"
	"github.com/microsoft/go-mssqldb/msdsn"

	// database/sql drivers: "sqlserver" and "sqlite".
	_ "github.com/microsoft/go-mssqldb"
	_ "modernc.org/sqlite"
)

// NewMySQL validates dsn with the driver's parser and opens a single MySQL
// connection.
func NewMySQL(ctx context.Context, dsn string) (DB, error) {
	if _, err := mysql.ParseDSN(dsn); err != nil {
		return nil, fmt.Errorf("mysql dsn: %w", err)
	}
	return NewSQLDB(ctx, "mysql", dsn, MySQL)
}

// NewMSSQL validates dsn early to fail fast on obvious mistakes and opens a
// single SQL Server connection.
func NewMSSQL(ctx context.Context, dsn string) (DB, error) {
	if _, err := msdsn.Parse(dsn); err != nil {
		return nil, fmt.Errorf("mssql dsn: %w", err)
	}
	return NewSQLDB(ctx, "sqlserver", dsn, MSSQL)
}

// NewSQLite opens a SQLite database. dsn is a file path or ":memory:".
func NewSQLite(ctx context.Context, dsn string) (DB, error) {
	if strings.TrimSpace(dsn) == "" {
		return nil, fmt.Errorf("sqlite: DSN must not be empty")
	}
	return NewSQLDB(ctx, "sqlite", dsn, SQLite)
}

// Open selects the adapter for dialect and connects.
func Open(ctx context.Context, dialect Dialect, dsn string) (DB, error) {
	switch dialect {
	case MySQL:
		return NewMySQL(ctx, dsn)
	case Postgres:
		return NewPgDB(ctx, dsn)
	case MSSQL:
		return NewMSSQL(ctx, dsn)
	case SQLite:
		return NewSQLite(ctx, dsn)
	}
	return nil, fmt.Errorf("unsupported dialect %q", dialect)
}
