package warehouse

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	_ "github.com/go-sql-driver/mysql"
	_ "github.com/jackc/pgx/v5/stdlib"
	_ "github.com/marcboeker/go-duckdb/v2"
	_ "github.com/mattn/go-sqlite3"
	"github.com/snowflakedb/gosnowflake"
)

const (
	DriverSnowflake = "snowflake"
	DriverPostgres  = "postgres"
	DriverMySQL     = "mysql"
	DriverSQLite    = "sqlite3"
	DriverDuckDB    = "duckdb"
)

const pingTimeout = 10 * time.Second

type Config struct {
	Driver string
	// DSN is used as-is when set. For snowflake it may be left empty and
	// built from the account fields below.
	DSN       string
	Account   string
	User      string
	Password  string
	Database  string
	Schema    string
	Warehouse string
	Role      string
	// ParquetDir exposes every *.parquet file in the directory as a view
	// (duckdb only).
	ParquetDir   string
	MaxOpenConns int
}

// Open connects to the configured warehouse and verifies the session with a
// ping. The returned handle is meant to be opened once per process.
func Open(ctx context.Context, cfg Config) (*Warehouse, error) {
	driverName, dsn, err := resolveDriver(cfg)
	if err != nil {
		return nil, err
	}

	db, err := sql.Open(driverName, dsn)
	if err != nil {
		return nil, fmt.Errorf("open %s warehouse: %w", cfg.Driver, err)
	}
	if cfg.MaxOpenConns > 0 {
		db.SetMaxOpenConns(cfg.MaxOpenConns)
		db.SetMaxIdleConns(cfg.MaxOpenConns)
	}

	pingCtx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping %s warehouse: %w", cfg.Driver, err)
	}

	if strings.TrimSpace(cfg.ParquetDir) != "" {
		if cfg.Driver != DriverDuckDB {
			_ = db.Close()
			return nil, fmt.Errorf("parquet dir is only supported by the duckdb driver")
		}
		if err := registerParquetViews(ctx, db, cfg.ParquetDir); err != nil {
			_ = db.Close()
			return nil, err
		}
	}
	return New(db), nil
}

func resolveDriver(cfg Config) (string, string, error) {
	dsn := strings.TrimSpace(cfg.DSN)
	switch strings.ToLower(strings.TrimSpace(cfg.Driver)) {
	case DriverSnowflake:
		if dsn != "" {
			return "snowflake", dsn, nil
		}
		built, err := snowflakeDSN(cfg)
		if err != nil {
			return "", "", err
		}
		return "snowflake", built, nil
	case DriverPostgres:
		if dsn == "" {
			return "", "", fmt.Errorf("postgres dsn is required")
		}
		return "pgx", dsn, nil
	case DriverMySQL:
		if dsn == "" {
			return "", "", fmt.Errorf("mysql dsn is required")
		}
		return "mysql", dsn, nil
	case DriverSQLite:
		if dsn == "" {
			return "", "", fmt.Errorf("sqlite dsn is required")
		}
		return "sqlite3", dsn, nil
	case DriverDuckDB:
		// An empty DSN opens an in-memory database.
		return "duckdb", dsn, nil
	case "":
		return "", "", fmt.Errorf("warehouse driver is required")
	default:
		return "", "", fmt.Errorf("unsupported warehouse driver: %s", cfg.Driver)
	}
}

func snowflakeDSN(cfg Config) (string, error) {
	if strings.TrimSpace(cfg.Account) == "" {
		return "", fmt.Errorf("snowflake account is required")
	}
	if strings.TrimSpace(cfg.User) == "" {
		return "", fmt.Errorf("snowflake user is required")
	}
	dsn, err := gosnowflake.DSN(&gosnowflake.Config{
		Account:   strings.TrimSpace(cfg.Account),
		User:      strings.TrimSpace(cfg.User),
		Password:  cfg.Password,
		Database:  strings.TrimSpace(cfg.Database),
		Schema:    strings.TrimSpace(cfg.Schema),
		Warehouse: strings.TrimSpace(cfg.Warehouse),
		Role:      strings.TrimSpace(cfg.Role),
	})
	if err != nil {
		return "", fmt.Errorf("build snowflake dsn: %w", err)
	}
	return dsn, nil
}
