package db

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/go-sql-driver/mysql"
	"github.com/jackc/pgx/v5/pgconn"
	mssql "github.com/microsoft/go-mssqldb"
)

func TestIsTableExists_DriverErrors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"mysql 1050", &mysql.MySQLError{Number: 1050, Message: "Table 'sales' already exists"}, true},
		{"mysql other", &mysql.MySQLError{Number: 1045, Message: "Access denied"}, false},
		{"postgres 42P07", &pgconn.PgError{Code: "42P07"}, true},
		{"postgres other", &pgconn.PgError{Code: "42601"}, false},
		{"mssql 2714", mssql.Error{Number: 2714}, true},
		{"mssql other", mssql.Error{Number: 208}, false},
		{"wrapped mysql", fmt.Errorf("create: %w", &mysql.MySQLError{Number: 1050}), true},
		{"sqlite message", errors.New("SQL logic error: table \"sales\" already exists (1)"), true},
		{"unrelated", errors.New("connection refused"), false},
	}
	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			if got := IsTableExists(tc.err); got != tc.want {
				t.Fatalf("IsTableExists(%v)=%v want %v", tc.err, got, tc.want)
			}
		})
	}
}

// TestSQLite_CreateTwiceIsTableExists runs against a real in-memory SQLite so
// the message match is exercised with the driver's own error text.
func TestSQLite_CreateTwiceIsTableExists(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	d, err := NewSQLite(ctx, ":memory:")
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	t.Cleanup(func() { _ = d.Close(ctx) })

	const ddl = `CREATE TABLE "sales" ("id" INT)`
	if err := d.Exec(ctx, ddl); err != nil {
		t.Fatalf("first create: %v", err)
	}
	err = d.Exec(ctx, ddl)
	if err == nil {
		t.Fatalf("second create should fail")
	}
	if !IsTableExists(err) {
		t.Fatalf("expected table-exists classification, got %v", err)
	}
}

func TestNewSQLite_EmptyDSN(t *testing.T) {
	t.Parallel()
	if _, err := NewSQLite(context.Background(), "  "); err == nil {
		t.Fatalf("expected error for empty dsn")
	}
}
