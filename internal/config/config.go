package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"
)

type LookupFunc func(string) (string, bool)

type Profile string

const (
	ProfileDev  Profile = "dev"
	ProfileTest Profile = "test"
	ProfileProd Profile = "prod"
)

const (
	ChartBackendSlack = "slack"
	ChartBackendS3    = "s3"
)

type Config struct {
	Profile       Profile
	Service       ServiceConfig
	HTTP          HTTPConfig
	Slack         SlackConfig
	Analyst       AnalystConfig
	Warehouse     WarehouseConfig
	Charts        ChartsConfig
	ObjectStore   ObjectStoreConfig
	Secrets       SecretsConfig
	Observability ObservabilityConfig
}

type ServiceConfig struct {
	Name string
}

type HTTPConfig struct {
	Address      string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration
}

type SlackConfig struct {
	BotToken string
	AppToken string
	Command  string
	Greeting string
	Debug    bool
}

type AnalystConfig struct {
	Endpoint  string
	Token     string
	TokenType string
	Timeout   time.Duration
	Model     SemanticModelConfig
}

type SemanticModelConfig struct {
	Database string
	Schema   string
	Stage    string
	File     string
}

type WarehouseConfig struct {
	Driver       string
	DSN          string
	Account      string
	User         string
	Password     string
	Database     string
	Schema       string
	Name         string
	Role         string
	ParquetDir   string
	MaxOpenConns int
}

type ChartsConfig struct {
	Enabled     bool
	Backend     string
	SettleDelay time.Duration
}

type ObjectStoreConfig struct {
	Endpoint         string
	Region           string
	Bucket           string
	AccessKeyID      string
	SecretAccessKey  string
	UseSSL           bool
	Prefix           string
	AutoCreateBucket bool
	PresignTTL       time.Duration
}

type SecretsConfig struct {
	AWSRegion string
}

type ObservabilityConfig struct {
	LogLevel slog.Level
	LogJSON  bool
}

// LoadFromEnv reads the process environment, falling back to the YAML file
// named by ANALYSTBOT_CONFIG_FILE for keys the environment does not set.
func LoadFromEnv(serviceName string) (Config, error) {
	lookup := LookupFunc(os.LookupEnv)
	if path := strings.TrimSpace(os.Getenv("ANALYSTBOT_CONFIG_FILE")); path != "" {
		fileLookup, err := FileLookup(path)
		if err != nil {
			return Config{}, err
		}
		lookup = ChainLookup(lookup, fileLookup)
	}
	return Load(serviceName, lookup)
}

func Load(serviceName string, lookup LookupFunc) (Config, error) {
	if lookup == nil {
		return Config{}, fmt.Errorf("lookup function is required")
	}

	profile := ProfileDev
	if raw, ok := lookup("ANALYSTBOT_PROFILE"); ok {
		profile = Profile(strings.ToLower(strings.TrimSpace(raw)))
	}
	if !isValidProfile(profile) {
		return Config{}, fmt.Errorf("invalid ANALYSTBOT_PROFILE: %q", profile)
	}

	cfg := defaultsForProfile(profile)
	if serviceName != "" {
		cfg.Service.Name = serviceName
	}

	appliers := []func() error{
		func() error { return applyString(lookup, "ANALYSTBOT_SERVICE_NAME", &cfg.Service.Name) },
		func() error { return applyString(lookup, "ANALYSTBOT_HTTP_ADDR", &cfg.HTTP.Address) },
		func() error { return applyDuration(lookup, "ANALYSTBOT_HTTP_READ_TIMEOUT", &cfg.HTTP.ReadTimeout) },
		func() error { return applyDuration(lookup, "ANALYSTBOT_HTTP_WRITE_TIMEOUT", &cfg.HTTP.WriteTimeout) },
		func() error { return applyDuration(lookup, "ANALYSTBOT_HTTP_IDLE_TIMEOUT", &cfg.HTTP.IdleTimeout) },

		func() error { return applyString(lookup, "ANALYSTBOT_SLACK_BOT_TOKEN", &cfg.Slack.BotToken) },
		func() error { return applyString(lookup, "ANALYSTBOT_SLACK_APP_TOKEN", &cfg.Slack.AppToken) },
		func() error { return applyString(lookup, "ANALYSTBOT_SLACK_COMMAND", &cfg.Slack.Command) },
		func() error { return applyString(lookup, "ANALYSTBOT_SLACK_GREETING", &cfg.Slack.Greeting) },
		func() error { return applyBool(lookup, "ANALYSTBOT_SLACK_DEBUG", &cfg.Slack.Debug) },

		func() error { return applyString(lookup, "ANALYSTBOT_ANALYST_ENDPOINT", &cfg.Analyst.Endpoint) },
		func() error { return applyString(lookup, "ANALYSTBOT_ANALYST_TOKEN", &cfg.Analyst.Token) },
		func() error { return applyString(lookup, "ANALYSTBOT_ANALYST_TOKEN_TYPE", &cfg.Analyst.TokenType) },
		func() error { return applyDuration(lookup, "ANALYSTBOT_ANALYST_TIMEOUT", &cfg.Analyst.Timeout) },
		func() error { return applyString(lookup, "ANALYSTBOT_SEMANTIC_MODEL_DATABASE", &cfg.Analyst.Model.Database) },
		func() error { return applyString(lookup, "ANALYSTBOT_SEMANTIC_MODEL_SCHEMA", &cfg.Analyst.Model.Schema) },
		func() error { return applyString(lookup, "ANALYSTBOT_SEMANTIC_MODEL_STAGE", &cfg.Analyst.Model.Stage) },
		func() error { return applyString(lookup, "ANALYSTBOT_SEMANTIC_MODEL_FILE", &cfg.Analyst.Model.File) },

		func() error { return applyString(lookup, "ANALYSTBOT_WAREHOUSE_DRIVER", &cfg.Warehouse.Driver) },
		func() error { return applyString(lookup, "ANALYSTBOT_WAREHOUSE_DSN", &cfg.Warehouse.DSN) },
		func() error { return applyString(lookup, "ANALYSTBOT_WAREHOUSE_ACCOUNT", &cfg.Warehouse.Account) },
		func() error { return applyString(lookup, "ANALYSTBOT_WAREHOUSE_USER", &cfg.Warehouse.User) },
		func() error { return applyString(lookup, "ANALYSTBOT_WAREHOUSE_PASSWORD", &cfg.Warehouse.Password) },
		func() error { return applyString(lookup, "ANALYSTBOT_WAREHOUSE_DATABASE", &cfg.Warehouse.Database) },
		func() error { return applyString(lookup, "ANALYSTBOT_WAREHOUSE_SCHEMA", &cfg.Warehouse.Schema) },
		func() error { return applyString(lookup, "ANALYSTBOT_WAREHOUSE_NAME", &cfg.Warehouse.Name) },
		func() error { return applyString(lookup, "ANALYSTBOT_WAREHOUSE_ROLE", &cfg.Warehouse.Role) },
		func() error { return applyString(lookup, "ANALYSTBOT_WAREHOUSE_PARQUET_DIR", &cfg.Warehouse.ParquetDir) },
		func() error { return applyInt(lookup, "ANALYSTBOT_WAREHOUSE_MAX_OPEN_CONNS", &cfg.Warehouse.MaxOpenConns) },

		func() error { return applyBool(lookup, "ANALYSTBOT_CHARTS_ENABLED", &cfg.Charts.Enabled) },
		func() error { return applyString(lookup, "ANALYSTBOT_CHARTS_BACKEND", &cfg.Charts.Backend) },
		func() error { return applyDuration(lookup, "ANALYSTBOT_CHARTS_SETTLE_DELAY", &cfg.Charts.SettleDelay) },

		func() error { return applyString(lookup, "ANALYSTBOT_OBJECTSTORE_ENDPOINT", &cfg.ObjectStore.Endpoint) },
		func() error { return applyString(lookup, "ANALYSTBOT_OBJECTSTORE_REGION", &cfg.ObjectStore.Region) },
		func() error { return applyString(lookup, "ANALYSTBOT_OBJECTSTORE_BUCKET", &cfg.ObjectStore.Bucket) },
		func() error { return applyString(lookup, "ANALYSTBOT_OBJECTSTORE_ACCESS_KEY", &cfg.ObjectStore.AccessKeyID) },
		func() error { return applyString(lookup, "ANALYSTBOT_OBJECTSTORE_SECRET_KEY", &cfg.ObjectStore.SecretAccessKey) },
		func() error { return applyBool(lookup, "ANALYSTBOT_OBJECTSTORE_USE_SSL", &cfg.ObjectStore.UseSSL) },
		func() error { return applyString(lookup, "ANALYSTBOT_OBJECTSTORE_PREFIX", &cfg.ObjectStore.Prefix) },
		func() error {
			return applyBool(lookup, "ANALYSTBOT_OBJECTSTORE_AUTO_CREATE_BUCKET", &cfg.ObjectStore.AutoCreateBucket)
		},
		func() error { return applyDuration(lookup, "ANALYSTBOT_OBJECTSTORE_PRESIGN_TTL", &cfg.ObjectStore.PresignTTL) },

		func() error { return applyString(lookup, "ANALYSTBOT_SECRETS_AWS_REGION", &cfg.Secrets.AWSRegion) },

		func() error { return applyBool(lookup, "ANALYSTBOT_LOG_JSON", &cfg.Observability.LogJSON) },
		func() error { return applyLogLevel(lookup, "ANALYSTBOT_LOG_LEVEL", &cfg.Observability.LogLevel) },
	}
	for _, apply := range appliers {
		if err := apply(); err != nil {
			return Config{}, err
		}
	}

	cfg.Warehouse.Driver = strings.ToLower(cfg.Warehouse.Driver)
	cfg.Charts.Backend = strings.ToLower(cfg.Charts.Backend)

	if err := validate(cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func validate(cfg Config) error {
	if cfg.Service.Name == "" {
		return fmt.Errorf("service name is required")
	}
	if cfg.HTTP.Address == "" {
		return fmt.Errorf("http address is required")
	}
	if cfg.Analyst.TokenType == "" {
		return fmt.Errorf("analyst token type is required")
	}
	if cfg.Warehouse.Driver == "" {
		return fmt.Errorf("warehouse driver is required")
	}
	if cfg.Warehouse.MaxOpenConns < 0 {
		return fmt.Errorf("invalid ANALYSTBOT_WAREHOUSE_MAX_OPEN_CONNS: %d", cfg.Warehouse.MaxOpenConns)
	}
	switch cfg.Charts.Backend {
	case ChartBackendSlack, ChartBackendS3:
	default:
		return fmt.Errorf("invalid ANALYSTBOT_CHARTS_BACKEND: %q", cfg.Charts.Backend)
	}
	if cfg.Charts.SettleDelay < 0 {
		return fmt.Errorf("invalid ANALYSTBOT_CHARTS_SETTLE_DELAY: %s", cfg.Charts.SettleDelay)
	}
	return nil
}

func defaultsForProfile(profile Profile) Config {
	cfg := Config{
		Profile: profile,
		Service: ServiceConfig{Name: "analystbot"},
		HTTP: HTTPConfig{
			Address:      ":8080",
			ReadTimeout:  5 * time.Second,
			WriteTimeout: 10 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
		Slack: SlackConfig{
			Command:  "/askcortex",
			Greeting: "hello",
		},
		Analyst: AnalystConfig{
			TokenType: "PROGRAMMATIC_ACCESS_TOKEN",
		},
		Warehouse: WarehouseConfig{
			Driver:       "snowflake",
			MaxOpenConns: 1,
		},
		Charts: ChartsConfig{
			Enabled:     false,
			Backend:     ChartBackendSlack,
			SettleDelay: 2 * time.Second,
		},
		ObjectStore: ObjectStoreConfig{
			Endpoint:         "localhost:9000",
			Region:           "us-east-1",
			Bucket:           "analystbot-charts",
			AccessKeyID:      "minio",
			SecretAccessKey:  "miniostorage",
			UseSSL:           false,
			AutoCreateBucket: true,
			PresignTTL:       24 * time.Hour,
		},
		Observability: ObservabilityConfig{
			LogLevel: slog.LevelDebug,
			LogJSON:  true,
		},
	}

	switch profile {
	case ProfileDev:
		cfg.Warehouse.Driver = "duckdb"
	case ProfileTest:
		cfg.HTTP.Address = ":18080"
		cfg.Warehouse.Driver = "duckdb"
		cfg.Charts.SettleDelay = 0
		cfg.Observability.LogLevel = slog.LevelWarn
	case ProfileProd:
		cfg.Observability.LogLevel = slog.LevelInfo
		cfg.ObjectStore.UseSSL = true
		cfg.ObjectStore.AutoCreateBucket = false
	}

	return cfg
}

func isValidProfile(profile Profile) bool {
	switch profile {
	case ProfileDev, ProfileTest, ProfileProd:
		return true
	default:
		return false
	}
}

func applyString(lookup LookupFunc, key string, dst *string) error {
	raw, ok := lookup(key)
	if !ok {
		return nil
	}
	*dst = strings.TrimSpace(raw)
	return nil
}

func applyDuration(lookup LookupFunc, key string, dst *time.Duration) error {
	raw, ok := lookup(key)
	if !ok {
		return nil
	}
	value, err := time.ParseDuration(strings.TrimSpace(raw))
	if err != nil {
		return fmt.Errorf("invalid %s: %w", key, err)
	}
	*dst = value
	return nil
}

func applyBool(lookup LookupFunc, key string, dst *bool) error {
	raw, ok := lookup(key)
	if !ok {
		return nil
	}
	value, err := strconv.ParseBool(strings.TrimSpace(raw))
	if err != nil {
		return fmt.Errorf("invalid %s: %w", key, err)
	}
	*dst = value
	return nil
}

func applyInt(lookup LookupFunc, key string, dst *int) error {
	raw, ok := lookup(key)
	if !ok {
		return nil
	}
	value, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		return fmt.Errorf("invalid %s: %w", key, err)
	}
	*dst = value
	return nil
}

func applyLogLevel(lookup LookupFunc, key string, dst *slog.Level) error {
	raw, ok := lookup(key)
	if !ok {
		return nil
	}
	level := strings.ToLower(strings.TrimSpace(raw))
	switch level {
	case "debug":
		*dst = slog.LevelDebug
	case "info":
		*dst = slog.LevelInfo
	case "warn", "warning":
		*dst = slog.LevelWarn
	case "error":
		*dst = slog.LevelError
	default:
		return fmt.Errorf("invalid %s: %q", key, raw)
	}
	return nil
}
