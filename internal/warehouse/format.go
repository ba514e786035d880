package warehouse

import (
	"fmt"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"
)

const columnGap = "  "

// FormatText renders t as fixed-width text: a row index column followed by
// the result columns, headers and cells right-aligned.
func FormatText(t Table) string {
	if len(t.Rows) == 0 {
		return fmt.Sprintf("Empty result\nColumns: [%s]", strings.Join(t.Columns, ", "))
	}

	cells := make([][]string, len(t.Rows))
	for r, row := range t.Rows {
		cells[r] = make([]string, len(t.Columns))
		for c := range t.Columns {
			var value any
			if c < len(row) {
				value = row[c]
			}
			cells[r][c] = formatValue(value)
		}
	}

	indexWidth := utf8.RuneCountInString(strconv.Itoa(len(t.Rows) - 1))
	widths := make([]int, len(t.Columns))
	for c, name := range t.Columns {
		widths[c] = utf8.RuneCountInString(name)
		for r := range cells {
			if n := utf8.RuneCountInString(cells[r][c]); n > widths[c] {
				widths[c] = n
			}
		}
	}

	var b strings.Builder
	b.WriteString(strings.Repeat(" ", indexWidth))
	for c, name := range t.Columns {
		b.WriteString(columnGap)
		b.WriteString(padLeft(name, widths[c]))
	}
	for r := range cells {
		b.WriteString("\n")
		b.WriteString(padRight(strconv.Itoa(r), indexWidth))
		for c := range t.Columns {
			b.WriteString(columnGap)
			b.WriteString(padLeft(cells[r][c], widths[c]))
		}
	}
	return b.String()
}

func formatValue(value any) string {
	switch typed := value.(type) {
	case nil:
		return "None"
	case string:
		return typed
	case []byte:
		return string(typed)
	case float32:
		return strconv.FormatFloat(float64(typed), 'f', -1, 32)
	case float64:
		return strconv.FormatFloat(typed, 'f', -1, 64)
	case time.Time:
		if typed.Hour() == 0 && typed.Minute() == 0 && typed.Second() == 0 && typed.Nanosecond() == 0 {
			return typed.Format("2006-01-02")
		}
		return typed.Format("2006-01-02 15:04:05")
	default:
		return fmt.Sprint(typed)
	}
}

func padLeft(value string, width int) string {
	if n := utf8.RuneCountInString(value); n < width {
		return strings.Repeat(" ", width-n) + value
	}
	return value
}

func padRight(value string, width int) string {
	if n := utf8.RuneCountInString(value); n < width {
		return value + strings.Repeat(" ", width-n)
	}
	return value
}
