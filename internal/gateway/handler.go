package gateway

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"regexp"
	"strings"

	"github.com/analystbot/analystbot/internal/analyst"
	"github.com/analystbot/analystbot/internal/chat"
	"github.com/analystbot/analystbot/internal/observability"
)

const (
	SourceMessage      = "message"
	SourceAppMention   = "app_mention"
	SourceSlashCommand = "slash_command"
	SourceGreeting     = "greeting"
)

var mentionPattern = regexp.MustCompile(`<@[A-Z0-9]+(?:\|[^>]*)?>`)

// Answerer runs the question pipeline for one question.
type Answerer interface {
	Answer(ctx context.Context, question string, sink chat.Sink) error
}

// Incoming is a chat event reduced to what dispatch needs.
type Incoming struct {
	Source      string
	Channel     string
	ChannelType string
	User        string
	BotID       string
	SubType     string
	Text        string
}

type HandlerConfig struct {
	Answerer Answerer
	// Sinks returns the sink that posts into channel.
	Sinks     func(channel string) chat.Sink
	Greeting  string
	BotUserID string
	Logger    *slog.Logger
}

type Handler struct {
	answerer  Answerer
	sinks     func(channel string) chat.Sink
	greeting  *regexp.Regexp
	botUserID string
	logger    *slog.Logger
}

func NewHandler(cfg HandlerConfig) (*Handler, error) {
	if cfg.Answerer == nil {
		return nil, fmt.Errorf("answerer is required")
	}
	if cfg.Sinks == nil {
		return nil, fmt.Errorf("sink factory is required")
	}
	logger := cfg.Logger
	if logger == nil {
		logger = observability.DiscardLogger()
	}
	var greeting *regexp.Regexp
	if keyword := strings.TrimSpace(cfg.Greeting); keyword != "" {
		greeting = regexp.MustCompile(`(?i)\b` + regexp.QuoteMeta(keyword) + `\b`)
	}
	return &Handler{
		answerer:  cfg.Answerer,
		sinks:     cfg.Sinks,
		greeting:  greeting,
		botUserID: cfg.BotUserID,
		logger:    logger,
	}, nil
}

// Handle dispatches one event and runs it to completion.
func (h *Handler) Handle(ctx context.Context, in Incoming) {
	if in.Source != SourceSlashCommand && h.skip(in) {
		return
	}
	text := strings.TrimSpace(in.Text)
	if in.Source == SourceAppMention || h.mentionsBot(text) {
		text = strings.TrimSpace(mentionPattern.ReplaceAllString(text, ""))
	}

	traceID := observability.NewTraceID()
	ctx = observability.ContextWithTraceID(ctx, traceID)
	logger := h.logger.With(
		slog.String("trace_id", traceID),
		slog.String("source", in.Source),
		slog.String("channel", in.Channel),
		slog.String("user", in.User),
	)
	sink := h.sinks(in.Channel)

	if in.Source != SourceSlashCommand && h.greeting != nil && h.greeting.MatchString(text) {
		observability.IncrementQuestions(SourceGreeting)
		logger.Info("greeting_received")
		h.greet(ctx, logger, sink, in.User)
		return
	}
	if text == "" {
		logger.Debug("event_ignored", slog.String("reason", "empty text"))
		return
	}

	observability.IncrementQuestions(in.Source)
	logger.Info("question_received", slog.String("question", text))
	if err := h.answerer.Answer(ctx, text, sink); err != nil {
		logger.Error("answer_failed", slog.Any("error", err))
		if postErr := sink.Post(ctx, chat.Plain(failureText(err))); postErr != nil {
			logger.Error("failure_notice_failed", slog.Any("error", postErr))
		}
		return
	}
	logger.Info("answer_completed")
}

func (h *Handler) skip(in Incoming) bool {
	if in.BotID != "" || in.SubType != "" {
		return true
	}
	if h.botUserID != "" && in.User == h.botUserID {
		return true
	}
	// Mentions in channels also arrive as app_mention events.
	if in.Source == SourceMessage && in.ChannelType != "im" && h.mentionsBot(in.Text) {
		return true
	}
	return false
}

func (h *Handler) mentionsBot(text string) bool {
	return h.botUserID != "" && strings.Contains(text, "<@"+h.botUserID)
}

func (h *Handler) greet(ctx context.Context, logger *slog.Logger, sink chat.Sink, user string) {
	replies := []chat.Message{
		chat.Plain(fmt.Sprintf("Hey there <@%s>!", user)),
		chat.Header(":snowflake: Let's BUILD!", ":snowflake: Let's BUILD!"),
	}
	for _, reply := range replies {
		if err := sink.Post(ctx, reply); err != nil {
			logger.Error("greeting_failed", slog.Any("error", err))
			return
		}
	}
}

func failureText(err error) string {
	var requestErr *analyst.RequestError
	if errors.As(err, &requestErr) {
		return fmt.Sprintf(":warning: Cortex Analyst could not answer (status %d, request id %s).", requestErr.StatusCode, requestErr.RequestID)
	}
	return ":warning: Something went wrong while answering that question. Please try again."
}
