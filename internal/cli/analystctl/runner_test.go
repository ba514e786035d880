package analystctl

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/analystbot/analystbot/internal/chat"
)

func TestRunReadyCommand(t *testing.T) {
	var gotMethod, gotPath string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotMethod = r.Method
		gotPath = r.URL.Path
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"status":"ready"}`))
	}))
	defer srv.Close()

	var stdout bytes.Buffer
	var stderr bytes.Buffer
	code := Run(context.Background(), []string{"-base-url", srv.URL, "ready"}, Options{
		Stdout:  &stdout,
		Stderr:  &stderr,
		Timeout: 2 * time.Second,
	})
	if code != 0 {
		t.Fatalf("exit code = %d, stderr=%s", code, stderr.String())
	}
	if gotMethod != http.MethodGet || gotPath != "/v1/ready" {
		t.Fatalf("request = %s %s", gotMethod, gotPath)
	}
	if !strings.Contains(stdout.String(), `"status": "ready"`) {
		t.Fatalf("stdout = %q", stdout.String())
	}
}

func TestRunHealthCommand(t *testing.T) {
	var gotPath string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	}))
	defer srv.Close()

	code := Run(context.Background(), []string{"-base-url", srv.URL + "/", "health"}, Options{})
	if code != 0 {
		t.Fatalf("exit code = %d", code)
	}
	if gotPath != "/v1/health" {
		t.Fatalf("path = %s", gotPath)
	}
}

func TestRunReturnsErrorOnHTTPFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
		_, _ = w.Write([]byte(`{"error_code":"NOT_READY"}`))
	}))
	defer srv.Close()

	var stderr bytes.Buffer
	code := Run(context.Background(), []string{"-base-url", srv.URL, "ready"}, Options{Stderr: &stderr})
	if code != 1 {
		t.Fatalf("exit code = %d, stderr=%s", code, stderr.String())
	}
	if !strings.Contains(stderr.String(), "http 503") {
		t.Fatalf("stderr = %q", stderr.String())
	}
}

func TestRunAskPrintsMessages(t *testing.T) {
	answerer := &fakeAnswerer{}
	released := false
	var stdout bytes.Buffer
	code := Run(context.Background(), []string{"ask", "total", "sales?"}, Options{
		Stdout: &stdout,
		NewAnswerer: func(context.Context) (Answerer, func(), error) {
			return answerer, func() { released = true }, nil
		},
	})
	if code != 0 {
		t.Fatalf("exit code = %d", code)
	}
	if answerer.question != "total sales?" {
		t.Fatalf("question = %q", answerer.question)
	}
	if !released {
		t.Fatal("expected resources to be released")
	}
	if !strings.Contains(stdout.String(), "# Question: total sales?") {
		t.Fatalf("stdout = %q", stdout.String())
	}
}

func TestRunAskReportsFailures(t *testing.T) {
	var stderr bytes.Buffer
	code := Run(context.Background(), []string{"ask"}, Options{Stderr: &stderr})
	if code != 2 {
		t.Fatalf("exit code without question = %d", code)
	}

	code = Run(context.Background(), []string{"ask", "q"}, Options{
		Stderr: &stderr,
		NewAnswerer: func(context.Context) (Answerer, func(), error) {
			return nil, nil, errors.New("warehouse unreachable")
		},
	})
	if code != 1 || !strings.Contains(stderr.String(), "warehouse unreachable") {
		t.Fatalf("exit code = %d, stderr=%s", code, stderr.String())
	}

	code = Run(context.Background(), []string{"ask", "q"}, Options{
		Stderr: &stderr,
		NewAnswerer: func(context.Context) (Answerer, func(), error) {
			return &fakeAnswerer{err: errors.New("status 500")}, nil, nil
		},
	})
	if code != 1 {
		t.Fatalf("exit code = %d", code)
	}
}

func TestRunUnknownCommand(t *testing.T) {
	var stderr bytes.Buffer
	code := Run(context.Background(), []string{"unknown"}, Options{Stderr: &stderr})
	if code != 2 {
		t.Fatalf("exit code = %d", code)
	}
	if stderr.Len() == 0 {
		t.Fatal("expected usage output")
	}
}

type fakeAnswerer struct {
	question string
	err      error
}

func (f *fakeAnswerer) Answer(ctx context.Context, question string, sink chat.Sink) error {
	f.question = question
	if f.err != nil {
		return f.err
	}
	return sink.Post(ctx, chat.Header("Question: "+question, "Question: "+question))
}
