// Package db provides the database adapters used by the sales loader. Each
// supported engine (MySQL, Postgres, SQL Server, SQLite) is exposed through
// the same small DB/Tx pair so the loader never imports a driver directly.
package db

import (
	"context"
	"fmt"
	"strings"
)

// DB is a single database connection capable of executing DDL and starting
// the transaction that carries the batched insert.
type DB interface {
	Exec(ctx context.Context, sql string, args ...any) error
	BeginTx(ctx context.Context) (Tx, error)
	Dialect() Dialect
	Close(ctx context.Context) error
}

// Tx is the transaction used for the batched insert.
type Tx interface {
	// InsertBatch executes stmt once per row as a single batched operation
	// and returns the number of rows the engine reported as inserted.
	InsertBatch(ctx context.Context, stmt string, rows [][]any) (int64, error)
	Commit(ctx context.Context) error
	Rollback(ctx context.Context) error
}

// Dialect identifies the SQL flavor spoken by a connection.
type Dialect string

const (
	MySQL    Dialect = "mysql"
	Postgres Dialect = "postgres"
	MSSQL    Dialect = "mssql"
	SQLite   Dialect = "sqlite"
)

// Dialects lists every supported dialect in a stable order.
var Dialects = []Dialect{MySQL, Postgres, MSSQL, SQLite}

// ParseDialect maps a driver name from configuration to a Dialect.
// "sqlserver" is accepted as an alias for mssql and "pgx" for postgres.
func ParseDialect(name string) (Dialect, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "mysql":
		return MySQL, nil
	case "postgres", "postgresql", "pgx":
		return Postgres, nil
	case "mssql", "sqlserver":
		return MSSQL, nil
	case "sqlite", "sqlite3":
		return SQLite, nil
	}
	return "", fmt.Errorf("unsupported db driver %q", name)
}

// Placeholder returns the i-th (1-based) bind parameter marker.
func (d Dialect) Placeholder(i int) string {
	switch d {
	case Postgres:
		return fmt.Sprintf("$%d", i)
	case MSSQL:
		return fmt.Sprintf("@p%d", i)
	default:
		return "?"
	}
}

// QuoteIdent quotes a possibly schema-qualified identifier ("schema.table")
// part by part using the dialect's quoting rules.
func (d Dialect) QuoteIdent(name string) string {
	parts := strings.Split(name, ".")
	for i, p := range parts {
		parts[i] = d.quotePart(p)
	}
	return strings.Join(parts, ".")
}

func (d Dialect) quotePart(p string) string {
	switch d {
	case MySQL:
		return "`" + strings.ReplaceAll(p, "`", "``") + "`"
	case MSSQL:
		return "[" + strings.ReplaceAll(p, "]", "]]") + "]"
	default:
		return `"` + strings.ReplaceAll(p, `"`, `""`) + `"`
	}
}
