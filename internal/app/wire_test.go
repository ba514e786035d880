package app

import (
	"context"
	"errors"
	"testing"

	"github.com/analystbot/analystbot/internal/analyst"
	"github.com/analystbot/analystbot/internal/chat"
	"github.com/analystbot/analystbot/internal/config"
	"github.com/analystbot/analystbot/internal/warehouse"
)

func TestNewPipelineRequiresUploaderWhenChartsEnabled(t *testing.T) {
	cfg := loadConfig(t, map[string]string{"ANALYSTBOT_CHARTS_ENABLED": "true"})

	if _, err := NewPipeline(cfg, fakeAsker{}, fakeQuerier{}, nil, nil); err == nil {
		t.Fatal("expected error without uploader")
	}
	if _, err := NewPipeline(cfg, fakeAsker{}, fakeQuerier{}, fakeUploader{}, nil); err != nil {
		t.Fatalf("NewPipeline() error = %v", err)
	}
}

func TestNewPipelineWithoutCharts(t *testing.T) {
	cfg := loadConfig(t, map[string]string{})

	pipeline, err := NewPipeline(cfg, fakeAsker{}, fakeQuerier{}, nil, nil)
	if err != nil {
		t.Fatalf("NewPipeline() error = %v", err)
	}
	var sink recordingSink
	if err := pipeline.Answer(context.Background(), "count rows", &sink); err != nil {
		t.Fatalf("Answer() error = %v", err)
	}
	if len(sink) != 4 {
		t.Fatalf("messages = %d, want header, notice, sql and answer", len(sink))
	}
}

func TestNewAnalystClientUsesConfig(t *testing.T) {
	cfg := loadConfig(t, map[string]string{
		"ANALYSTBOT_ANALYST_ENDPOINT":        "https://acct.snowflakecomputing.com/api/v2/cortex/analyst/message",
		"ANALYSTBOT_ANALYST_TOKEN":           "pat-1",
		"ANALYSTBOT_SEMANTIC_MODEL_DATABASE": "DB",
		"ANALYSTBOT_SEMANTIC_MODEL_SCHEMA":   "S",
		"ANALYSTBOT_SEMANTIC_MODEL_STAGE":    "ST",
		"ANALYSTBOT_SEMANTIC_MODEL_FILE":     "model.yaml",
	})
	if _, err := NewAnalystClient(cfg, nil); err != nil {
		t.Fatalf("NewAnalystClient() error = %v", err)
	}

	cfg.Analyst.Model.File = ""
	if _, err := NewAnalystClient(cfg, nil); err == nil {
		t.Fatal("expected semantic model validation error")
	}
}

func TestResolveSecretsUsesGetter(t *testing.T) {
	cfg := loadConfig(t, map[string]string{"ANALYSTBOT_SLACK_BOT_TOKEN": "ssm:/bot"})

	if err := ResolveSecrets(context.Background(), &cfg, mapGetter{"/bot": "xoxb-1"}); err != nil {
		t.Fatalf("ResolveSecrets() error = %v", err)
	}
	if cfg.Slack.BotToken != "xoxb-1" {
		t.Fatalf("bot token = %q", cfg.Slack.BotToken)
	}
}

func loadConfig(t *testing.T, values map[string]string) config.Config {
	t.Helper()
	values["ANALYSTBOT_PROFILE"] = "test"
	cfg, err := config.Load("analystbot", func(key string) (string, bool) {
		value, ok := values[key]
		return value, ok
	})
	if err != nil {
		t.Fatalf("config.Load() error = %v", err)
	}
	return cfg
}

type fakeAsker struct{}

func (fakeAsker) Ask(context.Context, string) (analyst.Response, error) {
	return analyst.Response{Content: []analyst.ContentItem{analyst.SQLItem{Statement: "SELECT 1 AS n"}}}, nil
}

type fakeQuerier struct{}

func (fakeQuerier) Query(context.Context, string) (warehouse.Table, error) {
	return warehouse.Table{Columns: []string{"n"}, Rows: [][]any{{int64(1)}}}, nil
}

type fakeUploader struct{}

func (fakeUploader) Upload(context.Context, string, string) (chat.Image, error) {
	return chat.Image{}, errors.New("not used")
}

type recordingSink []chat.Message

func (s *recordingSink) Post(_ context.Context, msg chat.Message) error {
	*s = append(*s, msg)
	return nil
}

type mapGetter map[string]string

func (m mapGetter) GetParameter(_ context.Context, name string) (string, error) {
	value, ok := m[name]
	if !ok {
		return "", errors.New("not found")
	}
	return value, nil
}
