package loader

import (
	"fmt"
	"strings"

	"salesloader/internal/db"
	"salesloader/internal/domain"
)

// DefaultTable is the destination table name.
const DefaultTable = "sales"

// columnTypes pairs with domain.Columns.
var columnTypes = map[string]string{
	"id":            "INT",
	"date":          "DATE",
	"time":          "TIME",
	"ticket_number": "BIGINT",
	"article":       "VARCHAR(50)",
	"quantity":      "INT",
	"unit_price":    "VARCHAR(50)",
}

// SchemaStatement returns the fixed CREATE TABLE statement for table. Every
// column is nullable and there is no IF NOT EXISTS: creating an
// existing table must fail.
func SchemaStatement(d db.Dialect, table string) string {
	nullability := "NULL"
	if d == db.MySQL {
		nullability = "DEFAULT NULL"
	}

	var b strings.Builder
	fmt.Fprintf(&b, "CREATE TABLE %s (\n", d.QuoteIdent(table))
	for i, c := range domain.Columns {
		fmt.Fprintf(&b, "\t%s %s %s", d.QuoteIdent(c), columnTypes[c], nullability)
		if i < len(domain.Columns)-1 {
			b.WriteString(",")
		}
		b.WriteString("\n")
	}
	b.WriteString(")")
	return b.String()
}

// InsertStatement returns the fixed parameterized INSERT with one positional
// placeholder per column, in domain.Columns order.
func InsertStatement(d db.Dialect, table string) string {
	cols := make([]string, len(domain.Columns))
	marks := make([]string, len(domain.Columns))
	for i, c := range domain.Columns {
		cols[i] = d.QuoteIdent(c)
		marks[i] = d.Placeholder(i + 1)
	}
	return fmt.Sprintf(
		"INSERT INTO %s (%s) VALUES (%s)",
		d.QuoteIdent(table),
		strings.Join(cols, ", "),
		strings.Join(marks, ", "),
	)
}

// QualifiedTable joins an optional schema and a table name.
func QualifiedTable(schema, table string) string {
	if table == "" {
		table = DefaultTable
	}
	if schema == "" {
		return table
	}
	return schema + "." + table
}
