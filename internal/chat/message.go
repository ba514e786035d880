// Package chat holds the platform-neutral messages the answer pipeline
// emits. Gateways translate them into their own payloads.
package chat

import "context"

type Kind int

const (
	KindPlain Kind = iota
	// KindHeader is a large title line.
	KindHeader
	// KindNotice is a status line framed by dividers.
	KindNotice
	// KindCode is preformatted text.
	KindCode
	// KindAnswer is a bold "Answer:" quote followed by preformatted text.
	KindAnswer
	// KindQuote is quoted narrative text.
	KindQuote
	// KindImage references an uploaded image.
	KindImage
)

func (k Kind) String() string {
	switch k {
	case KindPlain:
		return "plain"
	case KindHeader:
		return "header"
	case KindNotice:
		return "notice"
	case KindCode:
		return "code"
	case KindAnswer:
		return "answer"
	case KindQuote:
		return "quote"
	case KindImage:
		return "image"
	default:
		return "unknown"
	}
}

// Image points at a rendered chart.
type Image struct {
	URL   string
	Title string
	// SlackFile marks URL as the permalink of a file uploaded to the
	// workspace rather than a public image URL.
	SlackFile bool
}

type Message struct {
	Kind Kind
	// Fallback is the notification text shown where blocks are not rendered.
	Fallback string
	Text     string
	Image    Image
}

// Sink receives the messages of one conversation in order.
type Sink interface {
	Post(ctx context.Context, msg Message) error
}

func Plain(text string) Message {
	return Message{Kind: KindPlain, Fallback: text, Text: text}
}

func Header(fallback, text string) Message {
	return Message{Kind: KindHeader, Fallback: fallback, Text: text}
}

func Notice(fallback, text string) Message {
	return Message{Kind: KindNotice, Fallback: fallback, Text: text}
}

func Code(fallback, text string) Message {
	return Message{Kind: KindCode, Fallback: fallback, Text: text}
}

func Answer(text string) Message {
	return Message{Kind: KindAnswer, Fallback: "Answer:", Text: text}
}

func Quote(fallback, text string) Message {
	return Message{Kind: KindQuote, Fallback: fallback, Text: text}
}

func ImageMessage(image Image) Message {
	title := image.Title
	if title == "" {
		title = "Chart"
	}
	image.Title = title
	return Message{Kind: KindImage, Fallback: title, Image: image}
}
