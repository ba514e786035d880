// Package gateway connects the answer pipeline to a Slack workspace over
// Socket Mode and translates chat messages into Block Kit payloads.
package gateway

import (
	"unicode/utf8"

	"github.com/slack-go/slack"

	"github.com/analystbot/analystbot/internal/chat"
)

// maxHeaderRunes is Slack's limit for header block text.
const maxHeaderRunes = 150

// Blocks returns the Block Kit layout of msg. Plain messages have none and
// are sent as text only.
func Blocks(msg chat.Message) []slack.Block {
	switch msg.Kind {
	case chat.KindHeader:
		return []slack.Block{
			slack.NewHeaderBlock(slack.NewTextBlockObject(slack.PlainTextType, truncate(msg.Text, maxHeaderRunes), true, false)),
		}
	case chat.KindNotice:
		return []slack.Block{
			slack.NewDividerBlock(),
			slack.NewSectionBlock(slack.NewTextBlockObject(slack.PlainTextType, msg.Text, false, false), nil, nil),
			slack.NewDividerBlock(),
		}
	case chat.KindCode:
		return []slack.Block{
			slack.NewRichTextBlock("code", preformatted(msg.Text)),
		}
	case chat.KindAnswer:
		return []slack.Block{
			slack.NewRichTextBlock("answer",
				&slack.RichTextQuote{
					Type: slack.RTEQuote,
					Elements: []slack.RichTextSectionElement{
						slack.NewRichTextSectionTextElement("Answer:", &slack.RichTextSectionTextStyle{Bold: true}),
					},
				},
				preformatted(msg.Text),
			),
		}
	case chat.KindQuote:
		return []slack.Block{
			slack.NewRichTextBlock("quote", &slack.RichTextQuote{
				Type:     slack.RTEQuote,
				Elements: []slack.RichTextSectionElement{slack.NewRichTextSectionTextElement(msg.Text, nil)},
			}),
		}
	case chat.KindImage:
		title := slack.NewTextBlockObject(slack.PlainTextType, msg.Image.Title, false, false)
		if msg.Image.SlackFile {
			return []slack.Block{&slack.ImageBlock{
				Type:      slack.MBTImage,
				SlackFile: &slack.SlackFileObject{URL: msg.Image.URL},
				AltText:   msg.Image.Title,
				BlockID:   "image",
				Title:     title,
			}}
		}
		return []slack.Block{slack.NewImageBlock(msg.Image.URL, msg.Image.Title, "image", title)}
	default:
		return nil
	}
}

func preformatted(text string) *slack.RichTextPreformatted {
	return &slack.RichTextPreformatted{
		RichTextSection: slack.RichTextSection{
			Type:     slack.RTEPreformatted,
			Elements: []slack.RichTextSectionElement{slack.NewRichTextSectionTextElement(text, nil)},
		},
	}
}

func truncate(text string, limit int) string {
	if utf8.RuneCountInString(text) <= limit {
		return text
	}
	runes := []rune(text)
	return string(runes[:limit-1]) + "…"
}
