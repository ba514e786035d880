package gateway

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/slack-go/slack"
	"github.com/slack-go/slack/slackevents"
	"github.com/slack-go/slack/socketmode"

	"github.com/analystbot/analystbot/internal/observability"
)

type Config struct {
	BotToken string
	AppToken string
	// Command is the slash command answered by the bot, e.g. /askcortex.
	Command  string
	Greeting string
	Debug    bool
	// APIURL overrides the Slack Web API base URL.
	APIURL string
	Logger *slog.Logger
}

type acker interface {
	Ack(req socketmode.Request, payload ...interface{})
}

// Gateway drains Socket Mode events on a single goroutine and hands each
// one to the Handler before reading the next.
type Gateway struct {
	api     *slack.Client
	socket  *socketmode.Client
	command string
	logger  *slog.Logger
}

func New(cfg Config) (*Gateway, error) {
	if strings.TrimSpace(cfg.BotToken) == "" {
		return nil, fmt.Errorf("slack bot token is required")
	}
	if !strings.HasPrefix(cfg.AppToken, "xapp-") {
		return nil, fmt.Errorf("slack app token must start with xapp-")
	}
	logger := cfg.Logger
	if logger == nil {
		logger = observability.DiscardLogger()
	}
	options := []slack.Option{
		slack.OptionAppLevelToken(cfg.AppToken),
		slack.OptionDebug(cfg.Debug),
	}
	if cfg.APIURL != "" {
		options = append(options, slack.OptionAPIURL(cfg.APIURL))
	}
	api := slack.New(cfg.BotToken, options...)
	return &Gateway{
		api:     api,
		socket:  socketmode.New(api, socketmode.OptionDebug(cfg.Debug)),
		command: strings.TrimSpace(cfg.Command),
		logger:  logger,
	}, nil
}

// API exposes the Web API client for sinks and uploads.
func (g *Gateway) API() *slack.Client {
	return g.api
}

// BotUserID looks up the user id the bot token belongs to.
func (g *Gateway) BotUserID(ctx context.Context) (string, error) {
	auth, err := g.api.AuthTestContext(ctx)
	if err != nil {
		return "", fmt.Errorf("slack auth test: %w", err)
	}
	return auth.UserID, nil
}

// Run connects to Socket Mode and processes events until ctx is done or
// the connection fails.
func (g *Gateway) Run(ctx context.Context, handler *Handler) error {
	errCh := make(chan error, 1)
	go func() {
		errCh <- g.socket.RunContext(ctx)
	}()

	for {
		select {
		case <-ctx.Done():
			return nil
		case err := <-errCh:
			if ctx.Err() != nil {
				return nil
			}
			return fmt.Errorf("socket mode: %w", err)
		case evt, ok := <-g.socket.Events:
			if !ok {
				return nil
			}
			g.dispatch(ctx, g.socket, handler, evt)
		}
	}
}

func (g *Gateway) dispatch(ctx context.Context, ack acker, handler *Handler, evt socketmode.Event) {
	// Every envelope is acked before handling, ignored ones included.
	if evt.Request != nil {
		ack.Ack(*evt.Request)
	}
	switch evt.Type {
	case socketmode.EventTypeConnecting:
		g.logger.Info("slack_connecting")
	case socketmode.EventTypeConnected:
		g.logger.Info("slack_connected")
	case socketmode.EventTypeConnectionError:
		g.logger.Warn("slack_connection_error")
	case socketmode.EventTypeEventsAPI:
		payload, ok := evt.Data.(slackevents.EventsAPIEvent)
		if !ok {
			g.logger.Warn("slack_event_ignored", slog.String("type", string(evt.Type)))
			return
		}
		if payload.Type != slackevents.CallbackEvent {
			return
		}
		if in, ok := incomingFromEvent(payload.InnerEvent); ok {
			handler.Handle(ctx, in)
		}
	case socketmode.EventTypeSlashCommand:
		cmd, ok := evt.Data.(slack.SlashCommand)
		if !ok {
			g.logger.Warn("slack_event_ignored", slog.String("type", string(evt.Type)))
			return
		}
		if g.command != "" && cmd.Command != g.command {
			g.logger.Warn("slash_command_ignored", slog.String("command", cmd.Command))
			return
		}
		handler.Handle(ctx, Incoming{
			Source:  SourceSlashCommand,
			Channel: cmd.ChannelID,
			User:    cmd.UserID,
			Text:    cmd.Text,
		})
	default:
		g.logger.Debug("slack_event_ignored", slog.String("type", string(evt.Type)))
	}
}

func incomingFromEvent(inner slackevents.EventsAPIInnerEvent) (Incoming, bool) {
	switch ev := inner.Data.(type) {
	case *slackevents.MessageEvent:
		return Incoming{
			Source:      SourceMessage,
			Channel:     ev.Channel,
			ChannelType: ev.ChannelType,
			User:        ev.User,
			BotID:       ev.BotID,
			SubType:     ev.SubType,
			Text:        ev.Text,
		}, true
	case *slackevents.AppMentionEvent:
		return Incoming{
			Source:  SourceAppMention,
			Channel: ev.Channel,
			User:    ev.User,
			BotID:   ev.BotID,
			Text:    ev.Text,
		}, true
	default:
		return Incoming{}, false
	}
}
