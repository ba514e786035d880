package chat

import (
	"context"
	"fmt"
	"io"
	"strings"
)

// WriterSink prints messages as plain text, one block per message.
type WriterSink struct {
	W io.Writer
}

func (s WriterSink) Post(_ context.Context, msg Message) error {
	var text string
	switch msg.Kind {
	case KindHeader:
		text = "# " + msg.Text
	case KindNotice:
		text = "-- " + msg.Text + " --"
	case KindCode:
		text = msg.Text
	case KindAnswer:
		text = "Answer:\n" + msg.Text
	case KindQuote:
		text = "> " + strings.ReplaceAll(msg.Text, "\n", "\n> ")
	case KindImage:
		text = fmt.Sprintf("[%s] %s", msg.Image.Title, msg.Image.URL)
	default:
		text = msg.Text
	}
	if _, err := fmt.Fprintf(s.W, "%s\n\n", text); err != nil {
		return fmt.Errorf("write message: %w", err)
	}
	return nil
}
