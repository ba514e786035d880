// Package bot turns a question into chat messages: it asks the analyst
// service, runs generated SQL on the warehouse and renders every content
// item in the order the service returned it.
package bot

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/analystbot/analystbot/internal/analyst"
	"github.com/analystbot/analystbot/internal/chat"
	"github.com/analystbot/analystbot/internal/observability"
	"github.com/analystbot/analystbot/internal/warehouse"
)

const (
	suggestionsPrefix = "You may try these suggested questions: \n\n- "
	suggestionsSuffix = "\n\nNOTE: There's a 150 char limit on Slack messages so alter the questions accordingly."
)

// ChartRenderer turns a result table into an image link. It reports false
// when no chart could be produced.
type ChartRenderer interface {
	Render(ctx context.Context, table warehouse.Table) (chat.Image, bool)
}

type RendererConfig struct {
	Warehouse     warehouse.Querier
	Charts        ChartRenderer
	ChartsEnabled bool
	Logger        *slog.Logger
}

type Renderer struct {
	warehouse     warehouse.Querier
	charts        ChartRenderer
	chartsEnabled bool
	logger        *slog.Logger
}

func NewRenderer(cfg RendererConfig) (*Renderer, error) {
	if cfg.Warehouse == nil {
		return nil, fmt.Errorf("warehouse is required")
	}
	if cfg.ChartsEnabled && cfg.Charts == nil {
		return nil, fmt.Errorf("chart renderer is required when charts are enabled")
	}
	logger := cfg.Logger
	if logger == nil {
		logger = observability.DiscardLogger()
	}
	return &Renderer{
		warehouse:     cfg.Warehouse,
		charts:        cfg.Charts,
		chartsEnabled: cfg.ChartsEnabled,
		logger:        logger,
	}, nil
}

// Render posts items to sink in order. A warehouse or sink failure stops
// rendering; chart failures never do.
func (r *Renderer) Render(ctx context.Context, items []analyst.ContentItem, sink chat.Sink) error {
	for index, item := range items {
		var err error
		switch item := item.(type) {
		case analyst.SQLItem:
			err = r.renderSQL(ctx, item, sink)
		case analyst.TextItem:
			err = sink.Post(ctx, chat.Quote("Answer:", item.Text))
		case analyst.SuggestionsItem:
			err = sink.Post(ctx, chat.Code("Suggestions:", SuggestionsText(item.Suggestions)))
		case analyst.UnknownItem:
			r.logger.Debug("content_item_ignored",
				slog.String("trace_id", observability.TraceIDFromContext(ctx)),
				slog.String("type", item.Type),
			)
		default:
			r.logger.Warn("content_item_unhandled",
				slog.String("trace_id", observability.TraceIDFromContext(ctx)),
				slog.String("type", fmt.Sprintf("%T", item)),
			)
		}
		if err != nil {
			return fmt.Errorf("render content item %d: %w", index, err)
		}
	}
	return nil
}

func (r *Renderer) renderSQL(ctx context.Context, item analyst.SQLItem, sink chat.Sink) error {
	if err := sink.Post(ctx, chat.Code("Generated SQL", item.Statement)); err != nil {
		return err
	}
	table, err := r.warehouse.Query(ctx, item.Statement)
	if err != nil {
		return fmt.Errorf("run generated sql: %w", err)
	}
	if err := sink.Post(ctx, chat.Answer(warehouse.FormatText(table))); err != nil {
		return err
	}
	if !r.chartsEnabled || len(table.Columns) < 2 {
		return nil
	}
	image, ok := r.charts.Render(ctx, table)
	if !ok {
		return nil
	}
	return sink.Post(ctx, chat.ImageMessage(image))
}

// SuggestionsText formats follow-up questions as one bulleted block.
func SuggestionsText(suggestions []string) string {
	return suggestionsPrefix + strings.Join(suggestions, "\n- ") + suggestionsSuffix
}
