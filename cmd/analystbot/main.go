package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/analystbot/analystbot/internal/api"
	"github.com/analystbot/analystbot/internal/app"
	"github.com/analystbot/analystbot/internal/chart"
	"github.com/analystbot/analystbot/internal/chat"
	"github.com/analystbot/analystbot/internal/config"
	"github.com/analystbot/analystbot/internal/gateway"
	"github.com/analystbot/analystbot/internal/observability"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := app.LoadConfig(ctx, "analystbot")
	if err != nil {
		slog.Error("failed to load config", slog.Any("error", err))
		os.Exit(1)
	}
	logger := observability.NewLogger(cfg, os.Stdout)

	wh, err := app.OpenWarehouse(ctx, cfg)
	if err != nil {
		logger.Error("failed to connect to warehouse", slog.String("driver", cfg.Warehouse.Driver), slog.Any("error", err))
		os.Exit(1)
	}
	defer func() { _ = wh.Close() }()
	logger.Info("warehouse connected", slog.String("driver", cfg.Warehouse.Driver))

	asker, err := app.NewAnalystClient(cfg, logger)
	if err != nil {
		logger.Error("failed to initialize analyst client", slog.Any("error", err))
		os.Exit(1)
	}

	gw, err := gateway.New(gateway.Config{
		BotToken: cfg.Slack.BotToken,
		AppToken: cfg.Slack.AppToken,
		Command:  cfg.Slack.Command,
		Greeting: cfg.Slack.Greeting,
		Debug:    cfg.Slack.Debug,
		Logger:   logger,
	})
	if err != nil {
		logger.Error("failed to initialize slack gateway", slog.Any("error", err))
		os.Exit(1)
	}

	var uploader chart.Uploader
	if cfg.Charts.Enabled {
		switch cfg.Charts.Backend {
		case config.ChartBackendS3:
			uploader, err = app.NewObjectStoreUploader(ctx, cfg)
			if err != nil {
				logger.Error("failed to initialize chart storage", slog.Any("error", err))
				os.Exit(1)
			}
		default:
			uploader = gateway.NewFileUploader(gw.API(), cfg.Charts.SettleDelay, logger)
		}
	}

	pipeline, err := app.NewPipeline(cfg, asker, wh, uploader, logger)
	if err != nil {
		logger.Error("failed to build answer pipeline", slog.Any("error", err))
		os.Exit(1)
	}

	botUserID, err := gw.BotUserID(ctx)
	if err != nil {
		logger.Error("failed to identify bot user", slog.Any("error", err))
		os.Exit(1)
	}
	slackAPI := gw.API()
	handler, err := gateway.NewHandler(gateway.HandlerConfig{
		Answerer:  pipeline,
		Sinks:     func(channel string) chat.Sink { return gateway.NewChannelSink(slackAPI, channel) },
		Greeting:  cfg.Slack.Greeting,
		BotUserID: botUserID,
		Logger:    logger,
	})
	if err != nil {
		logger.Error("failed to build event handler", slog.Any("error", err))
		os.Exit(1)
	}

	server := &http.Server{
		Addr: cfg.HTTP.Address,
		Handler: api.NewHandler(cfg, api.Dependencies{
			Logger: logger,
			Readiness: api.CombineReadinessChecks(
				api.CheckWarehouse(wh),
				api.CheckObjectStoreConfig(cfg),
			),
			DependencyTimeout: 2 * time.Second,
		}),
		ReadTimeout:  cfg.HTTP.ReadTimeout,
		WriteTimeout: cfg.HTTP.WriteTimeout,
		IdleTimeout:  cfg.HTTP.IdleTimeout,
	}
	go func() {
		logger.Info("starting ops server", slog.String("addr", cfg.HTTP.Address))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("ops server failed", slog.Any("error", err))
			stop()
		}
	}()

	logger.Info("starting slack gateway", slog.String("command", cfg.Slack.Command), slog.Bool("charts", cfg.Charts.Enabled))
	exitCode := 0
	if err := gw.Run(ctx, handler); err != nil {
		logger.Error("slack gateway stopped", slog.Any("error", err))
		exitCode = 1
	}
	stop()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	logger.Info("shutting down ops server")
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown failed", slog.Any("error", err))
		_ = server.Close()
		exitCode = 1
	}
	if exitCode != 0 {
		_ = wh.Close()
		os.Exit(exitCode)
	}
}
