// Package config centralizes loader configuration. Every tunable is a
// command-line flag whose default is seeded from an environment variable,
// so `-help` lists all knobs and a .env file or the process environment can
// supply them without flags.
//
// Typical usage:
//
//	cfg := config.Load() // reads .env, os.Args and os.Environ
//
// For tests, prefer LoadFromArgs to keep them hermetic:
//
//	fs := flag.NewFlagSet("test", flag.ContinueOnError)
//	getenv := func(k string) string { return testEnv[k] }
//	cfg := config.LoadFromArgs(fs, getenv, []string{"-db_driver=sqlite"})
package config

import (
	"errors"
	"flag"
	"fmt"
	"net"
	"net/url"
	"os"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/go-sql-driver/mysql"
	"github.com/joho/godotenv"

	"salesloader/internal/db"
	"salesloader/internal/loader"
)

// Metrics backends accepted by -metrics_backend.
const (
	MetricsNone        = "none"
	MetricsPushgateway = "pushgateway"
	MetricsDatadog     = "datadog"
)

// Config holds all process configuration derived from flags and
// environment variables.
type Config struct {
	// Input.
	CSVPath      string // Path to the sales CSV.
	Comma        string // Field delimiter; exactly one character.
	Rejects      string // Optional rejects report path; empty disables it.
	ValidateOnly bool   // Load and normalize only, never touch the database.

	// DB describes the target database. DSN wins over the discrete parts.
	DBDriver   string
	DSN        string
	DBUser     string
	DBPassword string
	DBHost     string
	DBPort     string // Empty means the driver's default port.
	DBName     string
	DBSchema   string // Optional table qualifier.
	Table      string
	BatchSize  int // Rows per InsertBatch call; 0 sends everything at once.

	// Logging.
	LogLevel  string
	LogFormat string

	// Metrics.
	MetricsBackend string
	PushgatewayURL string
	StatsdAddr     string
	Job            string
}

// LoadFromArgs builds a Config by defining flags on fs, wiring each flag
// to an environment-variable fallback via getenv, and then parsing args.
//
// Precedence:
//  1. Environment values seed each flag's default.
//  2. Explicit CLI flags (in args) override the seeded defaults.
func LoadFromArgs(fs *flag.FlagSet, getenv func(string) string, args []string) *Config {
	cfg := &Config{}

	envOrDefaultFn := func(k, d string) string {
		if v := getenv(k); v != "" {
			return v
		}
		return d
	}
	intEnvOrDefaultFn := func(k string, d int) int {
		if v := getenv(k); v != "" {
			if i, err := strconv.Atoi(v); err == nil {
				return i
			}
		}
		return d
	}
	boolEnvOrDefaultFn := func(k string, d bool) bool {
		if v := strings.ToLower(getenv(k)); v != "" {
			switch v {
			case "1", "true", "yes", "on":
				return true
			case "0", "false", "no", "off":
				return false
			}
		}
		return d
	}

	// Input
	fs.StringVar(&cfg.CSVPath, "csv", envOrDefaultFn("SALES_CSV", "Bakery sales.csv"), "Path to the bakery sales CSV")
	fs.StringVar(&cfg.Comma, "comma", envOrDefaultFn("CSV_COMMA", ","), "CSV field delimiter (one character)")
	fs.StringVar(&cfg.Rejects, "rejects", getenv("REJECTS_CSV"), "Write rejected date/time values to this CSV")
	fs.BoolVar(&cfg.ValidateOnly, "validate", boolEnvOrDefaultFn("VALIDATE_ONLY", false), "Load and normalize the CSV without touching the database")

	// DB connectivity
	fs.StringVar(&cfg.DBDriver, "db_driver", envOrDefaultFn("DB_DRIVER", "mysql"), "Database driver: mysql, postgres, mssql or sqlite")
	fs.StringVar(&cfg.DSN, "dsn", getenv("DB_DSN"), "Full DSN; overrides the db_* parts")
	fs.StringVar(&cfg.DBUser, "db_user", envOrDefaultFn("DB_USER", "root"), "DB user")
	fs.StringVar(&cfg.DBPassword, "db_password", getenv("DB_PASSWORD"), "DB password")
	fs.StringVar(&cfg.DBHost, "db_host", envOrDefaultFn("DB_HOST", "127.0.0.1"), "DB host")
	fs.StringVar(&cfg.DBPort, "db_port", getenv("DB_PORT"), "DB port (driver default when empty)")
	fs.StringVar(&cfg.DBName, "db_name", envOrDefaultFn("DB_NAME", "prj_frenchbaker"), "DB name (file path for sqlite)")
	fs.StringVar(&cfg.DBSchema, "db_schema", getenv("DB_SCHEMA"), "Schema qualifying the destination table")
	fs.StringVar(&cfg.Table, "table", envOrDefaultFn("DB_TABLE", "sales"), "Destination table")
	fs.IntVar(&cfg.BatchSize, "batch_size", intEnvOrDefaultFn("BATCH_SIZE", 0), "Rows per insert batch; 0 sends all rows at once")

	// Logging
	fs.StringVar(&cfg.LogLevel, "log_level", envOrDefaultFn("LOG_LEVEL", "info"), "Log level: debug, info, warn, error")
	fs.StringVar(&cfg.LogFormat, "log_format", envOrDefaultFn("LOG_FORMAT", "console"), "Log format: console or json")

	// Metrics
	fs.StringVar(&cfg.MetricsBackend, "metrics_backend", envOrDefaultFn("METRICS_BACKEND", MetricsNone), "Metrics backend: none, pushgateway or datadog")
	fs.StringVar(&cfg.PushgatewayURL, "pushgateway_url", envOrDefaultFn("PUSHGATEWAY_URL", "http://localhost:9091"), "Prometheus Pushgateway base URL")
	fs.StringVar(&cfg.StatsdAddr, "statsd_addr", envOrDefaultFn("STATSD_ADDR", "127.0.0.1:8125"), "DogStatsD address")
	fs.StringVar(&cfg.Job, "job", envOrDefaultFn("JOB_NAME", "salesloader"), "Job name used for metrics")

	if args == nil {
		args = []string{}
	}
	_ = fs.Parse(args)
	return cfg
}

// LoadFrom is LoadFromArgs without extra args.
func LoadFrom(fs *flag.FlagSet, getenv func(string) string) *Config {
	return LoadFromArgs(fs, getenv, nil)
}

// Load is the production entry point. It loads a .env file from the working
// directory when present, then parses os.Args[1:] on flag.CommandLine with
// os.Getenv fallbacks.
func Load() *Config {
	_ = godotenv.Load()
	return LoadFromArgs(flag.CommandLine, os.Getenv, os.Args[1:])
}

// Validate reports configuration mistakes that would only surface later.
func (c *Config) Validate() error {
	var errs []error
	if _, err := db.ParseDialect(c.DBDriver); err != nil {
		errs = append(errs, err)
	}
	if utf8.RuneCountInString(c.Comma) != 1 {
		errs = append(errs, fmt.Errorf("comma must be exactly one character, got %q", c.Comma))
	} else if r := c.CommaRune(); r == '"' || r == '\r' || r == '\n' || r == utf8.RuneError {
		errs = append(errs, fmt.Errorf("invalid comma %q", c.Comma))
	}
	if c.BatchSize < 0 {
		errs = append(errs, fmt.Errorf("batch_size must be >= 0, got %d", c.BatchSize))
	}
	if strings.TrimSpace(c.CSVPath) == "" {
		errs = append(errs, errors.New("csv path is required"))
	}
	if strings.TrimSpace(c.Table) == "" {
		errs = append(errs, errors.New("table is required"))
	}
	switch c.MetricsBackend {
	case MetricsNone, "", MetricsPushgateway, MetricsDatadog:
	default:
		errs = append(errs, fmt.Errorf("unknown metrics backend %q", c.MetricsBackend))
	}
	return errors.Join(errs...)
}

// Dialect returns the parsed DBDriver.
func (c *Config) Dialect() (db.Dialect, error) {
	return db.ParseDialect(c.DBDriver)
}

// CommaRune returns the first rune of Comma, or ',' when empty.
func (c *Config) CommaRune() rune {
	if c.Comma == "" {
		return ','
	}
	r, _ := utf8.DecodeRuneInString(c.Comma)
	return r
}

// QualifiedTable returns Table prefixed with DBSchema when set.
func (c *Config) QualifiedTable() string {
	return loader.QualifiedTable(c.DBSchema, c.Table)
}

var defaultPorts = map[db.Dialect]string{
	db.MySQL:    "3306",
	db.Postgres: "5432",
	db.MSSQL:    "1433",
}

// BuildDSN returns DSN when set, otherwise a driver-specific DSN assembled
// from the discrete db_* settings.
func (c *Config) BuildDSN() (string, error) {
	if c.DSN != "" {
		return c.DSN, nil
	}
	d, err := c.Dialect()
	if err != nil {
		return "", err
	}

	port := c.DBPort
	if port == "" {
		port = defaultPorts[d]
	}
	addr := net.JoinHostPort(c.DBHost, port)

	switch d {
	case db.MySQL:
		mc := mysql.NewConfig()
		mc.User = c.DBUser
		mc.Passwd = c.DBPassword
		mc.Net = "tcp"
		mc.Addr = addr
		mc.DBName = c.DBName
		return mc.FormatDSN(), nil

	case db.Postgres:
		u := url.URL{
			Scheme:   "postgres",
			User:     url.UserPassword(c.DBUser, c.DBPassword),
			Host:     addr,
			Path:     "/" + c.DBName,
			RawQuery: "sslmode=disable",
		}
		return u.String(), nil

	case db.MSSQL:
		q := url.Values{}
		q.Set("database", c.DBName)
		u := url.URL{
			Scheme:   "sqlserver",
			User:     url.UserPassword(c.DBUser, c.DBPassword),
			Host:     addr,
			RawQuery: q.Encode(),
		}
		return u.String(), nil

	case db.SQLite:
		if c.DBName == "" {
			return "", errors.New("sqlite needs db_name (a file path or :memory:)")
		}
		return c.DBName, nil
	}
	return "", fmt.Errorf("unsupported dialect %q", d)
}
