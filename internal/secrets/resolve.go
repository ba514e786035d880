package secrets

import (
	"context"
	"fmt"
	"strings"

	"github.com/analystbot/analystbot/internal/config"
)

// Prefix marks a config value as the name of a parameter to fetch.
const Prefix = "ssm:"

type secretField struct {
	key   string
	value *string
}

func secretFields(cfg *config.Config) []secretField {
	return []secretField{
		{key: "ANALYSTBOT_SLACK_BOT_TOKEN", value: &cfg.Slack.BotToken},
		{key: "ANALYSTBOT_SLACK_APP_TOKEN", value: &cfg.Slack.AppToken},
		{key: "ANALYSTBOT_ANALYST_TOKEN", value: &cfg.Analyst.Token},
		{key: "ANALYSTBOT_WAREHOUSE_DSN", value: &cfg.Warehouse.DSN},
		{key: "ANALYSTBOT_WAREHOUSE_PASSWORD", value: &cfg.Warehouse.Password},
		{key: "ANALYSTBOT_OBJECTSTORE_ACCESS_KEY", value: &cfg.ObjectStore.AccessKeyID},
		{key: "ANALYSTBOT_OBJECTSTORE_SECRET_KEY", value: &cfg.ObjectStore.SecretAccessKey},
	}
}

// HasReferences reports whether any secret field of cfg names a parameter.
func HasReferences(cfg config.Config) bool {
	for _, field := range secretFields(&cfg) {
		if strings.HasPrefix(*field.value, Prefix) {
			return true
		}
	}
	return false
}

// Resolve replaces every ssm:-prefixed secret field of cfg with the
// parameter value. Each parameter is fetched once.
func Resolve(ctx context.Context, cfg *config.Config, getter Getter) error {
	fetched := map[string]string{}
	for _, field := range secretFields(cfg) {
		name, ok := strings.CutPrefix(*field.value, Prefix)
		if !ok {
			continue
		}
		if getter == nil {
			return fmt.Errorf("%s references parameter %q but no parameter store is configured", field.key, name)
		}
		value, cached := fetched[name]
		if !cached {
			var err error
			value, err = getter.GetParameter(ctx, name)
			if err != nil {
				return fmt.Errorf("resolve %s: %w", field.key, err)
			}
			fetched[name] = value
		}
		*field.value = value
	}
	return nil
}
