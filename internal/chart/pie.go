// Package chart draws pie charts of two-column query results and hands
// the image to an upload backend.
package chart

import (
	"encoding/json"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"

	gochart "github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"

	"github.com/analystbot/analystbot/internal/warehouse"
)

const (
	DefaultWidth  = 1000
	DefaultHeight = 600

	labelFontSize = 16
)

var (
	palette = []drawing.Color{
		drawing.ColorFromHex("1f77b4"),
		drawing.ColorFromHex("ff7f0e"),
	}
	background = drawing.ColorFromHex("333333")
)

// Slice is one plottable wedge.
type Slice struct {
	Label string
	Value float64
}

// Slices reads labels from the first column and values from the second.
// Rows whose value is not a positive number are skipped.
func Slices(table warehouse.Table) []Slice {
	if len(table.Columns) < 2 {
		return nil
	}
	labels := table.Column(0)
	values := table.Column(1)
	out := make([]Slice, 0, len(values))
	for i, raw := range values {
		value, ok := toFloat(raw)
		if !ok || value <= 0 {
			continue
		}
		out = append(out, Slice{Label: labelString(labels[i]), Value: value})
	}
	return out
}

// DrawPie renders slices as a PNG of the given size.
func DrawPie(w io.Writer, slices []Slice, width, height int) error {
	if len(slices) == 0 {
		return fmt.Errorf("no plottable values")
	}
	if width <= 0 {
		width = DefaultWidth
	}
	if height <= 0 {
		height = DefaultHeight
	}

	var total float64
	for _, slice := range slices {
		total += slice.Value
	}
	values := make([]gochart.Value, 0, len(slices))
	for i, slice := range slices {
		values = append(values, gochart.Value{
			Label: fmt.Sprintf("%s (%.1f%%)", slice.Label, slice.Value/total*100),
			Value: slice.Value,
			Style: gochart.Style{
				FillColor:   palette[i%len(palette)],
				StrokeColor: background,
				FontColor:   drawing.ColorWhite,
				FontSize:    labelFontSize,
			},
		})
	}

	pie := gochart.PieChart{
		Width:      width,
		Height:     height,
		Background: gochart.Style{FillColor: background},
		Canvas:     gochart.Style{FillColor: background},
		Values:     values,
	}
	if err := pie.Render(gochart.PNG, w); err != nil {
		return fmt.Errorf("render pie chart: %w", err)
	}
	return nil
}

func toFloat(value any) (float64, bool) {
	var out float64
	switch v := value.(type) {
	case int:
		out = float64(v)
	case int8:
		out = float64(v)
	case int16:
		out = float64(v)
	case int32:
		out = float64(v)
	case int64:
		out = float64(v)
	case uint:
		out = float64(v)
	case uint8:
		out = float64(v)
	case uint16:
		out = float64(v)
	case uint32:
		out = float64(v)
	case uint64:
		out = float64(v)
	case float32:
		out = float64(v)
	case float64:
		out = v
	case json.Number:
		parsed, err := v.Float64()
		if err != nil {
			return 0, false
		}
		out = parsed
	case string:
		parsed, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		if err != nil {
			return 0, false
		}
		out = parsed
	case []byte:
		return toFloat(string(v))
	default:
		return 0, false
	}
	if math.IsNaN(out) || math.IsInf(out, 0) {
		return 0, false
	}
	return out, true
}

func labelString(value any) string {
	switch v := value.(type) {
	case nil:
		return "None"
	case string:
		return v
	case []byte:
		return string(v)
	default:
		return fmt.Sprint(v)
	}
}
