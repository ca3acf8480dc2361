//go:build integration

package loader

import (
	"context"
	"strings"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"salesloader/internal/db"
	"salesloader/internal/testinfra"
)

const integrationCSV = ",date,time,ticket_number,article,Quantity,unit_price\n" +
	"0,2021-01-02,08:38,150040.0,BAGUETTE,1,\"0,90 €\"\n" +
	"1,2021-01-02,8:38,150040,PAIN AU CHOCOLAT,3,\"1,20 €\"\n" +
	"2,2021-01-02,9:14,150041,PAIN AU CHOCOLAT,2,\"1,20 €\"\n"

func normalizedSet(t *testing.T) *RecordSet {
	t.Helper()
	rs, err := Parse(strings.NewReader(integrationCSV), "integration", ',')
	require.NoError(t, err)
	rs, err = NormalizeDateTime(rs)
	require.NoError(t, err)
	return rs
}

func TestIntegration_Postgres(t *testing.T) {
	ctx := context.Background()
	ctr, err := testinfra.StartPostgres(ctx)
	require.NoError(t, err)
	t.Cleanup(func() { _ = ctr.Terminate(ctx) })

	conn, err := db.Open(ctx, db.Postgres, ctr.DSN)
	require.NoError(t, err)
	defer conn.Close(ctx)

	n, err := RunWith(ctx, conn, normalizedSet(t), Options{BatchSize: 2})
	require.NoError(t, err)
	assert.Equal(t, int64(3), n)

	pg, ok := db.AsPgConn(conn)
	require.True(t, ok)
	rows, err := pg.Query(ctx, `SELECT "date"::text, "time"::text, ticket_number FROM sales ORDER BY id`)
	require.NoError(t, err)
	type rec struct {
		Date   string
		Time   string
		Ticket int64
	}
	got, err := pgx.CollectRows(rows, pgx.RowToStructByPos[rec])
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, rec{"2021-01-02", "08:38:00", 150040}, got[0])
	assert.Equal(t, rec{"2021-01-02", "09:14:00", 150041}, got[2])

	_, err = Run(ctx, conn, normalizedSet(t))
	require.ErrorIs(t, err, ErrSchema)
	assert.True(t, db.IsTableExists(err))
}

func TestIntegration_MySQL(t *testing.T) {
	ctx := context.Background()
	ctr, err := testinfra.StartMySQL(ctx)
	require.NoError(t, err)
	t.Cleanup(func() { _ = ctr.Terminate(ctx) })

	conn, err := db.Open(ctx, db.MySQL, ctr.DSN)
	require.NoError(t, err)
	defer conn.Close(ctx)

	n, err := Run(ctx, conn, normalizedSet(t))
	require.NoError(t, err)
	assert.Equal(t, int64(3), n)

	sqlDB, ok := db.AsSQLDB(conn)
	require.True(t, ok)
	var date, tm, price string
	require.NoError(t, sqlDB.QueryRowContext(ctx,
		"SELECT CAST(`date` AS CHAR), CAST(`time` AS CHAR), unit_price FROM sales WHERE id = 1").
		Scan(&date, &tm, &price))
	assert.Equal(t, "2021-01-02", date)
	assert.Equal(t, "08:38:00", tm)
	assert.Equal(t, "1,20 €", price)

	_, err = Run(ctx, conn, normalizedSet(t))
	require.ErrorIs(t, err, ErrSchema)
	assert.True(t, db.IsTableExists(err))
}
