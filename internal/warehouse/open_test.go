package warehouse

import (
	"strings"
	"testing"
)

func TestResolveDriverMapsNames(t *testing.T) {
	tests := []struct {
		cfg        Config
		wantDriver string
	}{
		{Config{Driver: "postgres", DSN: "postgres://x"}, "pgx"},
		{Config{Driver: "MySQL", DSN: "u:p@tcp(h:3306)/db"}, "mysql"},
		{Config{Driver: "sqlite3", DSN: "file::memory:"}, "sqlite3"},
		{Config{Driver: "duckdb"}, "duckdb"},
		{Config{Driver: "snowflake", DSN: "user:pw@acct/db"}, "snowflake"},
	}
	for _, tt := range tests {
		driverName, _, err := resolveDriver(tt.cfg)
		if err != nil {
			t.Fatalf("resolveDriver(%q) error = %v", tt.cfg.Driver, err)
		}
		if driverName != tt.wantDriver {
			t.Fatalf("resolveDriver(%q) = %q, want %q", tt.cfg.Driver, driverName, tt.wantDriver)
		}
	}
}

func TestResolveDriverErrors(t *testing.T) {
	tests := []Config{
		{},
		{Driver: "oracle"},
		{Driver: "postgres"},
		{Driver: "mysql"},
		{Driver: "sqlite3"},
		{Driver: "snowflake", User: "u"},
		{Driver: "snowflake", Account: "a"},
	}
	for _, cfg := range tests {
		if _, _, err := resolveDriver(cfg); err == nil {
			t.Fatalf("resolveDriver(%#v) expected error", cfg)
		}
	}
}

func TestSnowflakeDSNFromAccountFields(t *testing.T) {
	_, dsn, err := resolveDriver(Config{
		Driver:    "snowflake",
		Account:   "demo72",
		User:      "analyst",
		Password:  "secret",
		Database:  "SKICAR",
		Schema:    "SKICAR_SCHEMA",
		Warehouse: "COMPUTE_WH",
	})
	if err != nil {
		t.Fatalf("resolveDriver() error = %v", err)
	}
	for _, part := range []string{"analyst", "demo72", "SKICAR", "COMPUTE_WH"} {
		if !strings.Contains(dsn, part) {
			t.Fatalf("dsn %q does not contain %q", dsn, part)
		}
	}
}
