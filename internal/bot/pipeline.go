package bot

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/analystbot/analystbot/internal/analyst"
	"github.com/analystbot/analystbot/internal/chat"
	"github.com/analystbot/analystbot/internal/observability"
)

const waitingText = "Snowflake Cortex Analyst is generating a response. Please wait..."

type Pipeline struct {
	asker    analyst.Asker
	renderer *Renderer
	logger   *slog.Logger
}

func NewPipeline(asker analyst.Asker, renderer *Renderer, logger *slog.Logger) (*Pipeline, error) {
	if asker == nil {
		return nil, fmt.Errorf("analyst client is required")
	}
	if renderer == nil {
		return nil, fmt.Errorf("renderer is required")
	}
	if logger == nil {
		logger = observability.DiscardLogger()
	}
	return &Pipeline{asker: asker, renderer: renderer, logger: logger}, nil
}

// Answer echoes the question and a waiting notice, then asks the analyst
// service and renders its content. The echo and notice are posted before
// the service is called.
func (p *Pipeline) Answer(ctx context.Context, question string, sink chat.Sink) error {
	if observability.TraceIDFromContext(ctx) == "" {
		ctx = observability.ContextWithTraceID(ctx, observability.NewTraceID())
	}
	traceID := observability.TraceIDFromContext(ctx)
	question = strings.TrimSpace(question)

	if err := sink.Post(ctx, chat.Header("Question: "+question, "Question: "+question)); err != nil {
		return p.fail(ctx, fmt.Errorf("post question: %w", err))
	}
	if err := sink.Post(ctx, chat.Notice("Snowflake Cortex Analyst is generating a response", waitingText)); err != nil {
		return p.fail(ctx, fmt.Errorf("post notice: %w", err))
	}

	response, err := p.asker.Ask(ctx, question)
	if err != nil {
		return p.fail(ctx, fmt.Errorf("ask analyst: %w", err))
	}
	p.logger.Info("analyst_response",
		slog.String("trace_id", traceID),
		slog.String("request_id", response.RequestID),
		slog.Int("items", len(response.Content)),
	)
	for _, warning := range response.Warnings {
		p.logger.Warn("analyst_warning",
			slog.String("trace_id", traceID),
			slog.String("request_id", response.RequestID),
			slog.String("message", warning),
		)
	}

	if err := p.renderer.Render(ctx, response.Content, sink); err != nil {
		return p.fail(ctx, err)
	}
	return nil
}

func (p *Pipeline) fail(ctx context.Context, err error) error {
	observability.IncrementAnswersFailed()
	p.logger.Debug("answer_failed",
		slog.String("trace_id", observability.TraceIDFromContext(ctx)),
		slog.Any("error", err),
	)
	return err
}
