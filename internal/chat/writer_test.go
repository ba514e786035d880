package chat

import (
	"bytes"
	"context"
	"testing"
)

func TestWriterSinkRendersKinds(t *testing.T) {
	var buf bytes.Buffer
	sink := WriterSink{W: &buf}
	messages := []Message{
		Header("Question:", "Question: sales?"),
		Quote("Answer:", "line one\nline two"),
		Answer("  A\n0 1"),
		ImageMessage(Image{URL: "https://files/chart.png"}),
	}
	for _, msg := range messages {
		if err := sink.Post(context.Background(), msg); err != nil {
			t.Fatalf("Post() error = %v", err)
		}
	}
	want := "# Question: sales?\n\n" +
		"> line one\n> line two\n\n" +
		"Answer:\n  A\n0 1\n\n" +
		"[Chart] https://files/chart.png\n\n"
	if buf.String() != want {
		t.Fatalf("output =\n%q\nwant\n%q", buf.String(), want)
	}
}

func TestKindString(t *testing.T) {
	if KindAnswer.String() != "answer" || Kind(99).String() != "unknown" {
		t.Fatalf("unexpected kind names %q %q", KindAnswer, Kind(99))
	}
}
