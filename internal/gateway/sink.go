package gateway

import (
	"context"
	"fmt"

	"github.com/slack-go/slack"

	"github.com/analystbot/analystbot/internal/chat"
)

type messagePoster interface {
	PostMessageContext(ctx context.Context, channelID string, options ...slack.MsgOption) (string, string, error)
}

// ChannelSink posts messages to one channel.
type ChannelSink struct {
	api     messagePoster
	channel string
}

func NewChannelSink(api messagePoster, channel string) *ChannelSink {
	return &ChannelSink{api: api, channel: channel}
}

func (s *ChannelSink) Post(ctx context.Context, msg chat.Message) error {
	options := []slack.MsgOption{slack.MsgOptionText(msg.Fallback, false)}
	if blocks := Blocks(msg); len(blocks) > 0 {
		options = append(options, slack.MsgOptionBlocks(blocks...))
	}
	if _, _, err := s.api.PostMessageContext(ctx, s.channel, options...); err != nil {
		return fmt.Errorf("post %s message to %s: %w", msg.Kind, s.channel, err)
	}
	return nil
}
