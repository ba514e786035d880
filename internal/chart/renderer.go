package chart

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/analystbot/analystbot/internal/chat"
	"github.com/analystbot/analystbot/internal/observability"
	"github.com/analystbot/analystbot/internal/warehouse"
)

// FileName is the name charts are uploaded under.
const FileName = "pie_chart.png"

// Uploader publishes a rendered image file and returns where it can be
// viewed.
type Uploader interface {
	Upload(ctx context.Context, name, path string) (chat.Image, error)
}

type Renderer struct {
	uploader Uploader
	logger   *slog.Logger
	width    int
	height   int
}

func NewRenderer(uploader Uploader, logger *slog.Logger) *Renderer {
	if logger == nil {
		logger = observability.DiscardLogger()
	}
	return &Renderer{uploader: uploader, logger: logger, width: DefaultWidth, height: DefaultHeight}
}

// Render draws table as a pie chart and uploads it. It never fails the
// caller: any problem is logged and reported as no image.
func (r *Renderer) Render(ctx context.Context, table warehouse.Table) (chat.Image, bool) {
	traceID := observability.TraceIDFromContext(ctx)
	slices := Slices(table)
	if len(slices) == 0 {
		observability.IncrementChart(observability.ChartOutcomeSkipped)
		r.logger.Info("chart_skipped", slog.String("trace_id", traceID), slog.String("reason", "no plottable values"))
		return chat.Image{}, false
	}
	if r.uploader == nil {
		observability.IncrementChart(observability.ChartOutcomeSkipped)
		r.logger.Warn("chart_skipped", slog.String("trace_id", traceID), slog.String("reason", "no uploader configured"))
		return chat.Image{}, false
	}

	path, err := r.writeTemp(slices)
	if err != nil {
		observability.IncrementChart(observability.ChartOutcomeFailed)
		r.logger.Error("chart_render_failed", slog.String("trace_id", traceID), slog.Any("error", err))
		return chat.Image{}, false
	}
	defer func() {
		if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
			r.logger.Warn("chart_temp_cleanup_failed", slog.String("path", path), slog.Any("error", err))
		}
	}()

	image, err := r.uploader.Upload(ctx, FileName, path)
	if err != nil {
		observability.IncrementChart(observability.ChartOutcomeFailed)
		r.logger.Error("chart_upload_failed", slog.String("trace_id", traceID), slog.Any("error", err))
		return chat.Image{}, false
	}
	if image.URL == "" {
		observability.IncrementChart(observability.ChartOutcomeFailed)
		r.logger.Error("chart_upload_failed", slog.String("trace_id", traceID), slog.String("reason", "empty link"))
		return chat.Image{}, false
	}
	observability.IncrementChart(observability.ChartOutcomeUploaded)
	r.logger.Info("chart_uploaded", slog.String("trace_id", traceID), slog.Int("slices", len(slices)))
	return image, true
}

func (r *Renderer) writeTemp(slices []Slice) (string, error) {
	file, err := os.CreateTemp("", "analystbot-chart-*.png")
	if err != nil {
		return "", fmt.Errorf("create temp chart file: %w", err)
	}
	path := file.Name()
	if err := DrawPie(file, slices, r.width, r.height); err != nil {
		_ = file.Close()
		_ = os.Remove(path)
		return "", err
	}
	if err := file.Close(); err != nil {
		_ = os.Remove(path)
		return "", fmt.Errorf("close temp chart file: %w", err)
	}
	return path, nil
}
