// Package testinfra starts throwaway database servers for integration tests.
package testinfra

import (
	"context"
	"fmt"
	"time"

	"github.com/testcontainers/testcontainers-go"
	tcmysql "github.com/testcontainers/testcontainers-go/modules/mysql"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
)

const (
	PostgresImage = "postgres:16-alpine"
	MySQLImage    = "mysql:8.0.36"

	DBName     = "prj_frenchbaker"
	DBUser     = "baker"
	DBPassword = "baker"
)

// Container is a running database server and the DSN that reaches it.
type Container struct {
	testcontainers.Container
	DSN string
}

// StartPostgres runs a Postgres server and returns a pgx-compatible DSN.
func StartPostgres(ctx context.Context) (*Container, error) {
	ctr, err := postgres.Run(ctx,
		PostgresImage,
		postgres.WithUsername(DBUser),
		postgres.WithPassword(DBPassword),
		postgres.WithDatabase(DBName),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("start postgres: %w", err)
	}

	dsn, err := ctr.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		ctr.Terminate(ctx) //nolint:errcheck
		return nil, fmt.Errorf("get connection string: %w", err)
	}
	return &Container{Container: ctr, DSN: dsn}, nil
}

// StartMySQL runs a MySQL server and returns a go-sql-driver DSN.
func StartMySQL(ctx context.Context) (*Container, error) {
	ctr, err := tcmysql.Run(ctx,
		MySQLImage,
		tcmysql.WithUsername(DBUser),
		tcmysql.WithPassword(DBPassword),
		tcmysql.WithDatabase(DBName),
	)
	if err != nil {
		return nil, fmt.Errorf("start mysql: %w", err)
	}

	dsn, err := ctr.ConnectionString(ctx)
	if err != nil {
		ctr.Terminate(ctx) //nolint:errcheck
		return nil, fmt.Errorf("get connection string: %w", err)
	}
	return &Container{Container: ctr, DSN: dsn}, nil
}
