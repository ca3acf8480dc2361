package config

import (
	"flag"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/go-sql-driver/mysql"
	"github.com/joho/godotenv"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"salesloader/internal/db"
)

func noEnv(string) string { return "" }

func load(t *testing.T, env map[string]string, args ...string) *Config {
	t.Helper()
	fs := flag.NewFlagSet("test", flag.ContinueOnError)
	return LoadFromArgs(fs, func(k string) string { return env[k] }, args)
}

// TestLoadFromArgs_EnvDefaultsAndFlags validates the precedence model:
// environment seeds defaults, explicit flags override env.
func TestLoadFromArgs_EnvDefaultsAndFlags(t *testing.T) {
	env := map[string]string{
		"DB_DRIVER":     "postgres",
		"DB_DSN":        "postgres://u:p@h:5432/d",
		"BATCH_SIZE":    "500",
		"VALIDATE_ONLY": "yes",
		"CSV_COMMA":     ";",
	}
	cfg := load(t, env, "-batch_size=25", "-table=sales_2022")

	assert.Equal(t, "postgres", cfg.DBDriver)
	assert.Equal(t, "postgres://u:p@h:5432/d", cfg.DSN)
	assert.Equal(t, 25, cfg.BatchSize, "flag wins over env")
	assert.True(t, cfg.ValidateOnly)
	assert.Equal(t, ';', cfg.CommaRune())
	assert.Equal(t, "sales_2022", cfg.Table)
}

func TestLoadFrom_Defaults(t *testing.T) {
	fs := flag.NewFlagSet("test", flag.ContinueOnError)
	cfg := LoadFrom(fs, noEnv)

	assert.Equal(t, "Bakery sales.csv", cfg.CSVPath)
	assert.Equal(t, ",", cfg.Comma)
	assert.Equal(t, "mysql", cfg.DBDriver)
	assert.Equal(t, "root", cfg.DBUser)
	assert.Equal(t, "127.0.0.1", cfg.DBHost)
	assert.Equal(t, "prj_frenchbaker", cfg.DBName)
	assert.Equal(t, "sales", cfg.Table)
	assert.Zero(t, cfg.BatchSize)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, "console", cfg.LogFormat)
	assert.Equal(t, MetricsNone, cfg.MetricsBackend)
	assert.Equal(t, "salesloader", cfg.Job)
	assert.False(t, cfg.ValidateOnly)
	assert.NoError(t, cfg.Validate())
}

func TestLoadFromArgs_BadIntEnvFallsBack(t *testing.T) {
	cfg := load(t, map[string]string{"BATCH_SIZE": "lots"})
	assert.Zero(t, cfg.BatchSize)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		args    []string
		wantErr string
	}{
		{name: "ok sqlite", args: []string{"-db_driver=sqlite"}},
		{name: "ok sqlserver alias", args: []string{"-db_driver=sqlserver"}},
		{name: "unknown driver", args: []string{"-db_driver=oracle"}, wantErr: "unsupported db driver"},
		{name: "empty comma", args: []string{"-comma="}, wantErr: "exactly one character"},
		{name: "two char comma", args: []string{"-comma=;;"}, wantErr: "exactly one character"},
		{name: "quote comma", args: []string{`-comma="`}, wantErr: "invalid comma"},
		{name: "negative batch", args: []string{"-batch_size=-1"}, wantErr: "batch_size"},
		{name: "empty table", args: []string{"-table="}, wantErr: "table is required"},
		{name: "bad metrics", args: []string{"-metrics_backend=graphite"}, wantErr: "unknown metrics backend"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			err := load(t, nil, tc.args...).Validate()
			if tc.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tc.wantErr)
		})
	}
}

func TestBuildDSN_MySQL(t *testing.T) {
	cfg := load(t, map[string]string{"DB_PASSWORD": "s3cret"})
	dsn, err := cfg.BuildDSN()
	require.NoError(t, err)

	mc, err := mysql.ParseDSN(dsn)
	require.NoError(t, err)
	assert.Equal(t, "root", mc.User)
	assert.Equal(t, "s3cret", mc.Passwd)
	assert.Equal(t, "tcp", mc.Net)
	assert.Equal(t, "127.0.0.1:3306", mc.Addr)
	assert.Equal(t, "prj_frenchbaker", mc.DBName)
}

func TestBuildDSN_Postgres(t *testing.T) {
	cfg := load(t, nil, "-db_driver=postgres", "-db_user=baker", "-db_password=p@ss", "-db_port=6543")
	dsn, err := cfg.BuildDSN()
	require.NoError(t, err)

	u, err := url.Parse(dsn)
	require.NoError(t, err)
	assert.Equal(t, "postgres", u.Scheme)
	assert.Equal(t, "127.0.0.1:6543", u.Host)
	assert.Equal(t, "/prj_frenchbaker", u.Path)
	pw, _ := u.User.Password()
	assert.Equal(t, "p@ss", pw)
	assert.Equal(t, "disable", u.Query().Get("sslmode"))
}

func TestBuildDSN_MSSQL(t *testing.T) {
	cfg := load(t, nil, "-db_driver=mssql", "-db_user=sa", "-db_host=db")
	dsn, err := cfg.BuildDSN()
	require.NoError(t, err)

	u, err := url.Parse(dsn)
	require.NoError(t, err)
	assert.Equal(t, "sqlserver", u.Scheme)
	assert.Equal(t, "db:1433", u.Host)
	assert.Equal(t, "prj_frenchbaker", u.Query().Get("database"))
}

func TestBuildDSN_SQLiteAndExplicit(t *testing.T) {
	cfg := load(t, nil, "-db_driver=sqlite", "-db_name=:memory:")
	dsn, err := cfg.BuildDSN()
	require.NoError(t, err)
	assert.Equal(t, ":memory:", dsn)

	cfg = load(t, nil, "-db_driver=sqlite", "-db_name=")
	_, err = cfg.BuildDSN()
	assert.Error(t, err)

	cfg = load(t, nil, "-dsn=root@tcp(db:3306)/x")
	dsn, err = cfg.BuildDSN()
	require.NoError(t, err)
	assert.Equal(t, "root@tcp(db:3306)/x", dsn)

	cfg = load(t, nil, "-db_driver=oracle")
	_, err = cfg.BuildDSN()
	assert.Error(t, err)
}

func TestDialectAndQualifiedTable(t *testing.T) {
	cfg := load(t, nil, "-db_driver=pgx", "-db_schema=bakery")
	d, err := cfg.Dialect()
	require.NoError(t, err)
	assert.Equal(t, db.Postgres, d)
	assert.Equal(t, "bakery.sales", cfg.QualifiedTable())

	cfg = load(t, nil)
	assert.Equal(t, "sales", cfg.QualifiedTable())

	cfg = &Config{DBSchema: "bakery"}
	assert.Equal(t, "bakery.sales", cfg.QualifiedTable(), "empty table falls back to the loader default")
}

// TestDotEnvSeedsEnvironment checks the .env format Load relies on.
func TestDotEnvSeedsEnvironment(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(path, []byte("DB_DRIVER=sqlite\nDB_NAME=bakery.db\n# comment\n"), 0o644))

	env, err := godotenv.Read(path)
	require.NoError(t, err)

	cfg := load(t, env)
	assert.Equal(t, "sqlite", cfg.DBDriver)
	assert.Equal(t, "bakery.db", cfg.DBName)
	assert.False(t, strings.Contains(cfg.DBName, "#"))
}
