package warehouse

import (
	"context"
	"database/sql"
	"fmt"
	"path/filepath"
	"sort"
	"strings"
)

func registerParquetViews(ctx context.Context, db *sql.DB, dir string) error {
	paths, err := filepath.Glob(filepath.Join(dir, "*.parquet"))
	if err != nil {
		return fmt.Errorf("list parquet files in %q: %w", dir, err)
	}
	if len(paths) == 0 {
		return fmt.Errorf("no parquet files found in %q", dir)
	}
	sort.Strings(paths)

	for _, path := range paths {
		viewName := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
		viewSQL := fmt.Sprintf(`CREATE OR REPLACE VIEW %s AS SELECT * FROM read_parquet(%s)`, quoteIdent(viewName), quoteString(path))
		if _, err := db.ExecContext(ctx, viewSQL); err != nil {
			return fmt.Errorf("create view for %q: %w", path, err)
		}
	}
	return nil
}

func quoteIdent(value string) string {
	return `"` + strings.ReplaceAll(value, `"`, `""`) + `"`
}

func quoteString(value string) string {
	return `'` + strings.ReplaceAll(value, `'`, `''`) + `'`
}
