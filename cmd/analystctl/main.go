package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/analystbot/analystbot/internal/app"
	"github.com/analystbot/analystbot/internal/chart"
	"github.com/analystbot/analystbot/internal/cli/analystctl"
	"github.com/analystbot/analystbot/internal/config"
	"github.com/analystbot/analystbot/internal/observability"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	timeout := parseDurationWithDefault(strings.TrimSpace(os.Getenv("ANALYSTBOT_CLI_TIMEOUT")), 10*time.Second)
	options := analystctl.Options{
		BaseURL:     envOr("ANALYSTBOT_API_URL", "http://localhost:8080"),
		Timeout:     timeout,
		NewAnswerer: newAnswerer,
		Stdout:      os.Stdout,
		Stderr:      os.Stderr,
	}

	code := analystctl.Run(ctx, os.Args[1:], options)
	stop()
	os.Exit(code)
}

// newAnswerer builds the same pipeline the bot runs. Charts are only
// rendered with the object store backend since uploads to Slack need the
// bot's workspace.
func newAnswerer(ctx context.Context) (analystctl.Answerer, func(), error) {
	cfg, err := app.LoadConfig(ctx, "analystctl")
	if err != nil {
		return nil, nil, err
	}
	logger := observability.NewLogger(cfg, os.Stderr)

	wh, err := app.OpenWarehouse(ctx, cfg)
	if err != nil {
		return nil, nil, err
	}
	release := func() { _ = wh.Close() }

	asker, err := app.NewAnalystClient(cfg, logger)
	if err != nil {
		release()
		return nil, nil, err
	}

	var uploader chart.Uploader
	if cfg.Charts.Enabled {
		if cfg.Charts.Backend == config.ChartBackendS3 {
			uploader, err = app.NewObjectStoreUploader(ctx, cfg)
			if err != nil {
				release()
				return nil, nil, err
			}
		} else {
			logger.Info("charts disabled for cli", slog.String("backend", cfg.Charts.Backend))
			cfg.Charts.Enabled = false
		}
	}

	pipeline, err := app.NewPipeline(cfg, asker, wh, uploader, logger)
	if err != nil {
		release()
		return nil, nil, err
	}
	return pipeline, release, nil
}

func envOr(key, fallback string) string {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		return value
	}
	return fallback
}

func parseDurationWithDefault(raw string, fallback time.Duration) time.Duration {
	if raw == "" {
		return fallback
	}
	parsed, err := time.ParseDuration(raw)
	if err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "invalid ANALYSTBOT_CLI_TIMEOUT %q; using %s\n", raw, fallback)
		return fallback
	}
	return parsed
}
