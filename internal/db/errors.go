package db

import (
	"errors"
	"strings"

	"github.com/go-sql-driver/mysql"
	"github.com/jackc/pgx/v5/pgconn"
	mssql "github.com/microsoft/go-mssqldb"
)

// Engine error codes for "table already exists".
const mysqlErrTableExists uint16 = 1050

const pgErrDuplicateTable = "42P07"

const mssqlErrObjectExists int32 = 2714

// IsTableExists reports whether err says the table being created already
// exists. SQLite has no stable code for this, so its message is matched.
func IsTableExists(err error) bool {
	if err == nil {
		return false
	}

	var myErr *mysql.MySQLError
	if errors.As(err, &myErr) {
		return myErr.Number == mysqlErrTableExists
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == pgErrDuplicateTable
	}
	var msErr mssql.Error
	if errors.As(err, &msErr) {
		return msErr.Number == mssqlErrObjectExists
	}
	var msErrPtr *mssql.Error
	if errors.As(err, &msErrPtr) {
		return msErrPtr.Number == mssqlErrObjectExists
	}

	return strings.Contains(strings.ToLower(err.Error()), "already exists")
}
