// Package app assembles the answer pipeline from configuration.
package app

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/analystbot/analystbot/internal/analyst"
	"github.com/analystbot/analystbot/internal/bot"
	"github.com/analystbot/analystbot/internal/chart"
	"github.com/analystbot/analystbot/internal/config"
	"github.com/analystbot/analystbot/internal/secrets"
	s3store "github.com/analystbot/analystbot/internal/storage/s3"
	"github.com/analystbot/analystbot/internal/warehouse"
)

// LoadConfig reads configuration from the environment and resolves any
// parameter store references.
func LoadConfig(ctx context.Context, serviceName string) (config.Config, error) {
	cfg, err := config.LoadFromEnv(serviceName)
	if err != nil {
		return config.Config{}, err
	}
	if err := ResolveSecrets(ctx, &cfg, nil); err != nil {
		return config.Config{}, err
	}
	return cfg, nil
}

// ResolveSecrets resolves ssm: references in cfg. A nil getter is replaced
// by an SSM client, created only when cfg holds references.
func ResolveSecrets(ctx context.Context, cfg *config.Config, getter secrets.Getter) error {
	if !secrets.HasReferences(*cfg) {
		return nil
	}
	if getter == nil {
		store, err := secrets.NewSSMParamStore(ctx, cfg.Secrets.AWSRegion)
		if err != nil {
			return err
		}
		getter = store
	}
	return secrets.Resolve(ctx, cfg, getter)
}

func OpenWarehouse(ctx context.Context, cfg config.Config) (*warehouse.Warehouse, error) {
	return warehouse.Open(ctx, warehouse.Config{
		Driver:       cfg.Warehouse.Driver,
		DSN:          cfg.Warehouse.DSN,
		Account:      cfg.Warehouse.Account,
		User:         cfg.Warehouse.User,
		Password:     cfg.Warehouse.Password,
		Database:     cfg.Warehouse.Database,
		Schema:       cfg.Warehouse.Schema,
		Warehouse:    cfg.Warehouse.Name,
		Role:         cfg.Warehouse.Role,
		ParquetDir:   cfg.Warehouse.ParquetDir,
		MaxOpenConns: cfg.Warehouse.MaxOpenConns,
	})
}

func NewAnalystClient(cfg config.Config, logger *slog.Logger) (*analyst.Client, error) {
	return analyst.NewClient(analyst.Config{
		Endpoint:  cfg.Analyst.Endpoint,
		Token:     cfg.Analyst.Token,
		TokenType: cfg.Analyst.TokenType,
		Timeout:   cfg.Analyst.Timeout,
		Model: analyst.SemanticModel{
			Database: cfg.Analyst.Model.Database,
			Schema:   cfg.Analyst.Model.Schema,
			Stage:    cfg.Analyst.Model.Stage,
			File:     cfg.Analyst.Model.File,
		},
		Logger: logger,
	})
}

// NewObjectStoreUploader connects to the configured bucket for chart
// hosting.
func NewObjectStoreUploader(ctx context.Context, cfg config.Config) (*chart.ObjectStoreUploader, error) {
	store, err := s3store.New(ctx, s3store.Config{
		Endpoint:         cfg.ObjectStore.Endpoint,
		Region:           cfg.ObjectStore.Region,
		Bucket:           cfg.ObjectStore.Bucket,
		AccessKeyID:      cfg.ObjectStore.AccessKeyID,
		SecretAccessKey:  cfg.ObjectStore.SecretAccessKey,
		UseSSL:           cfg.ObjectStore.UseSSL,
		Prefix:           cfg.ObjectStore.Prefix,
		AutoCreateBucket: cfg.ObjectStore.AutoCreateBucket,
	})
	if err != nil {
		return nil, fmt.Errorf("initialize object store: %w", err)
	}
	return chart.NewObjectStoreUploader(store, cfg.ObjectStore.PresignTTL), nil
}

// NewPipeline builds the pipeline over an already opened warehouse. The
// uploader is only consulted when charts are enabled.
func NewPipeline(cfg config.Config, asker analyst.Asker, querier warehouse.Querier, uploader chart.Uploader, logger *slog.Logger) (*bot.Pipeline, error) {
	rendererCfg := bot.RendererConfig{
		Warehouse:     querier,
		ChartsEnabled: cfg.Charts.Enabled,
		Logger:        logger,
	}
	if cfg.Charts.Enabled {
		if uploader == nil {
			return nil, fmt.Errorf("charts are enabled but no %s uploader is configured", cfg.Charts.Backend)
		}
		rendererCfg.Charts = chart.NewRenderer(uploader, logger)
	}
	renderer, err := bot.NewRenderer(rendererCfg)
	if err != nil {
		return nil, err
	}
	return bot.NewPipeline(asker, renderer, logger)
}
