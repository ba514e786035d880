package warehouse

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/parquet-go/parquet-go"
)

type salesRow struct {
	Region string `parquet:"region"`
	Sales  int64  `parquet:"sales"`
}

func TestOpenDuckDBExposesParquetFilesAsViews(t *testing.T) {
	dir := t.TempDir()
	writeParquet(t, filepath.Join(dir, "sales.parquet"), []salesRow{
		{Region: "East", Sales: 100},
		{Region: "West", Sales: 200},
	})

	wh, err := Open(context.Background(), Config{Driver: DriverDuckDB, ParquetDir: dir, MaxOpenConns: 1})
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	defer func() { _ = wh.Close() }()

	table, err := wh.Query(context.Background(), "SELECT region, sales FROM sales ORDER BY region;")
	if err != nil {
		t.Fatalf("Query() error = %v", err)
	}
	if len(table.Columns) != 2 || table.Columns[0] != "region" {
		t.Fatalf("Columns = %#v", table.Columns)
	}
	if len(table.Rows) != 2 {
		t.Fatalf("rows = %d", len(table.Rows))
	}
	if table.Rows[1][0] != "West" || table.Rows[1][1] != int64(200) {
		t.Fatalf("row 1 = %#v", table.Rows[1])
	}
}

func TestOpenRejectsEmptyParquetDir(t *testing.T) {
	if _, err := Open(context.Background(), Config{Driver: DriverDuckDB, ParquetDir: t.TempDir()}); err == nil {
		t.Fatal("expected error for directory without parquet files")
	}
}

func writeParquet(t *testing.T, path string, rows []salesRow) {
	t.Helper()
	file, err := os.Create(path)
	if err != nil {
		t.Fatalf("create parquet file: %v", err)
	}
	defer func() { _ = file.Close() }()

	writer := parquet.NewGenericWriter[salesRow](file)
	if _, err := writer.Write(rows); err != nil {
		t.Fatalf("write parquet rows: %v", err)
	}
	if err := writer.Close(); err != nil {
		t.Fatalf("close parquet writer: %v", err)
	}
}
