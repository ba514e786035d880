package warehouse

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/analystbot/analystbot/internal/observability"
)

// Table is a query result: named columns and rows in the order the
// warehouse returned them.
type Table struct {
	Columns []string
	Rows    [][]any
}

// Column returns the values of column index in row order.
func (t Table) Column(index int) []any {
	if index < 0 || index >= len(t.Columns) {
		return nil
	}
	values := make([]any, 0, len(t.Rows))
	for _, row := range t.Rows {
		if index < len(row) {
			values = append(values, row[index])
		} else {
			values = append(values, nil)
		}
	}
	return values
}

// Querier runs one statement and materializes the full result.
type Querier interface {
	Query(ctx context.Context, statement string) (Table, error)
}

// Warehouse is the process-wide warehouse handle. All callers share one
// database/sql pool; statements run outside any transaction.
type Warehouse struct {
	db *sql.DB
}

func New(db *sql.DB) *Warehouse {
	return &Warehouse{db: db}
}

func (w *Warehouse) Query(ctx context.Context, statement string) (Table, error) {
	if w.db == nil {
		return Table{}, fmt.Errorf("warehouse is not connected")
	}
	sqlText := stripTrailingSemicolons(statement)
	if sqlText == "" {
		return Table{}, fmt.Errorf("sql is required")
	}

	start := time.Now()
	table, err := w.query(ctx, sqlText)
	observability.ObserveWarehouseQuery(time.Since(start), err)
	return table, err
}

func (w *Warehouse) query(ctx context.Context, sqlText string) (Table, error) {
	rows, err := w.db.QueryContext(ctx, sqlText)
	if err != nil {
		return Table{}, fmt.Errorf("execute query: %w", err)
	}
	defer func() { _ = rows.Close() }()

	columns, err := rows.Columns()
	if err != nil {
		return Table{}, fmt.Errorf("query columns: %w", err)
	}

	resultRows := make([][]any, 0)
	for rows.Next() {
		values := make([]any, len(columns))
		scanTargets := make([]any, len(columns))
		for i := range values {
			scanTargets[i] = &values[i]
		}
		if err := rows.Scan(scanTargets...); err != nil {
			return Table{}, fmt.Errorf("scan row: %w", err)
		}
		resultRows = append(resultRows, normalizeValues(values))
	}
	if err := rows.Err(); err != nil {
		return Table{}, fmt.Errorf("iterate rows: %w", err)
	}
	return Table{Columns: columns, Rows: resultRows}, nil
}

func (w *Warehouse) Ping(ctx context.Context) error {
	if w.db == nil {
		return fmt.Errorf("warehouse is not connected")
	}
	return w.db.PingContext(ctx)
}

func (w *Warehouse) Close() error {
	if w.db == nil {
		return nil
	}
	return w.db.Close()
}

func normalizeValues(values []any) []any {
	normalized := make([]any, len(values))
	for i, value := range values {
		switch typed := value.(type) {
		case []byte:
			normalized[i] = string(typed)
		default:
			normalized[i] = typed
		}
	}
	return normalized
}

func stripTrailingSemicolons(sqlText string) string {
	trimmed := strings.TrimSpace(sqlText)
	for strings.HasSuffix(trimmed, ";") {
		trimmed = strings.TrimSpace(strings.TrimSuffix(trimmed, ";"))
	}
	return trimmed
}
