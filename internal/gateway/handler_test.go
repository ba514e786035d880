package gateway

import (
	"context"
	"strings"
	"testing"

	"github.com/analystbot/analystbot/internal/analyst"
	"github.com/analystbot/analystbot/internal/chat"
	"github.com/analystbot/analystbot/internal/observability"
)

func TestHandleGreetingRepliesWithoutAsking(t *testing.T) {
	answerer := &fakeAnswerer{}
	sinks := &fakeSinks{}
	handler := newTestHandler(t, answerer, sinks)

	handler.Handle(context.Background(), Incoming{Source: SourceMessage, Channel: "D1", ChannelType: "im", User: "U42", Text: "Hello bot"})

	if len(answerer.questions) != 0 {
		t.Fatalf("questions = %v, want none", answerer.questions)
	}
	messages := sinks.messages["D1"]
	if len(messages) != 2 {
		t.Fatalf("messages = %+v", messages)
	}
	if messages[0].Text != "Hey there <@U42>!" {
		t.Fatalf("greeting = %q", messages[0].Text)
	}
	if messages[1].Kind != chat.KindHeader || messages[1].Text != ":snowflake: Let's BUILD!" {
		t.Fatalf("header = %+v", messages[1])
	}
}

func TestHandleGreetingMatchesWholeWord(t *testing.T) {
	answerer := &fakeAnswerer{}
	handler := newTestHandler(t, answerer, &fakeSinks{})

	handler.Handle(context.Background(), Incoming{Source: SourceMessage, Channel: "D1", ChannelType: "im", User: "U42", Text: "othello sales by region"})

	if len(answerer.questions) != 1 {
		t.Fatalf("questions = %v, want the message forwarded", answerer.questions)
	}
}

func TestHandleSkipsBotAndSubtypeMessages(t *testing.T) {
	answerer := &fakeAnswerer{}
	handler := newTestHandler(t, answerer, &fakeSinks{})

	events := []Incoming{
		{Source: SourceMessage, Channel: "C1", User: "U2", BotID: "B9", Text: "from a bot"},
		{Source: SourceMessage, Channel: "C1", User: "UBOT", Text: "my own message"},
		{Source: SourceMessage, Channel: "C1", User: "U2", SubType: "message_changed", Text: "edited"},
		{Source: SourceMessage, Channel: "C1", ChannelType: "channel", User: "U2", Text: "<@UBOT> handled as mention"},
		{Source: SourceMessage, Channel: "C1", User: "U2", Text: "   "},
	}
	for _, ev := range events {
		handler.Handle(context.Background(), ev)
	}
	if len(answerer.questions) != 0 {
		t.Fatalf("questions = %v, want none", answerer.questions)
	}
}

func TestHandleAppMentionStripsToken(t *testing.T) {
	answerer := &fakeAnswerer{}
	sinks := &fakeSinks{}
	handler := newTestHandler(t, answerer, sinks)

	handler.Handle(context.Background(), Incoming{Source: SourceAppMention, Channel: "C1", User: "U2", Text: "<@UBOT> total sales by region?"})

	if len(answerer.questions) != 1 || answerer.questions[0] != "total sales by region?" {
		t.Fatalf("questions = %q", answerer.questions)
	}
	if answerer.traceIDs[0] == "" {
		t.Fatal("expected trace id in context")
	}
	if answerer.sinks[0] != sinks.byChannel["C1"] {
		t.Fatal("answer was not routed to the event channel")
	}
}

func TestHandleSlashCommandSkipsGreetingCheck(t *testing.T) {
	answerer := &fakeAnswerer{}
	handler := newTestHandler(t, answerer, &fakeSinks{})

	handler.Handle(context.Background(), Incoming{Source: SourceSlashCommand, Channel: "C1", User: "U2", Text: "hello, what were sales?"})

	if len(answerer.questions) != 1 || answerer.questions[0] != "hello, what were sales?" {
		t.Fatalf("questions = %q", answerer.questions)
	}
}

func TestHandlePostsNoticeWhenAnswerFails(t *testing.T) {
	answerer := &fakeAnswerer{err: &analyst.RequestError{StatusCode: 500, RequestID: "req-9", Body: "internal error"}}
	sinks := &fakeSinks{}
	handler := newTestHandler(t, answerer, sinks)

	handler.Handle(context.Background(), Incoming{Source: SourceMessage, Channel: "D1", ChannelType: "im", User: "U2", Text: "sales?"})

	messages := sinks.messages["D1"]
	if len(messages) != 1 {
		t.Fatalf("messages = %+v", messages)
	}
	if !strings.Contains(messages[0].Text, "status 500") || !strings.Contains(messages[0].Text, "req-9") {
		t.Fatalf("notice = %q", messages[0].Text)
	}
}

func TestNewHandlerValidation(t *testing.T) {
	if _, err := NewHandler(HandlerConfig{}); err == nil {
		t.Fatal("expected error without answerer")
	}
	if _, err := NewHandler(HandlerConfig{Answerer: &fakeAnswerer{}}); err == nil {
		t.Fatal("expected error without sink factory")
	}
}

func newTestHandler(t *testing.T, answerer Answerer, sinks *fakeSinks) *Handler {
	t.Helper()
	handler, err := NewHandler(HandlerConfig{
		Answerer:  answerer,
		Sinks:     sinks.sink,
		Greeting:  "hello",
		BotUserID: "UBOT",
	})
	if err != nil {
		t.Fatalf("NewHandler() error = %v", err)
	}
	return handler
}

type fakeAnswerer struct {
	err       error
	questions []string
	traceIDs  []string
	sinks     []chat.Sink
}

func (f *fakeAnswerer) Answer(ctx context.Context, question string, sink chat.Sink) error {
	f.questions = append(f.questions, question)
	f.traceIDs = append(f.traceIDs, observability.TraceIDFromContext(ctx))
	f.sinks = append(f.sinks, sink)
	return f.err
}

type fakeSinks struct {
	byChannel map[string]*channelRecorder
	messages  map[string][]chat.Message
}

func (f *fakeSinks) sink(channel string) chat.Sink {
	if f.byChannel == nil {
		f.byChannel = map[string]*channelRecorder{}
		f.messages = map[string][]chat.Message{}
	}
	if existing, ok := f.byChannel[channel]; ok {
		return existing
	}
	recorder := &channelRecorder{channel: channel, parent: f}
	f.byChannel[channel] = recorder
	return recorder
}

type channelRecorder struct {
	channel string
	parent  *fakeSinks
}

func (r *channelRecorder) Post(_ context.Context, msg chat.Message) error {
	r.parent.messages[r.channel] = append(r.parent.messages[r.channel], msg)
	return nil
}
