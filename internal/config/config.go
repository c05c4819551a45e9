package config

import (
	"time"

	"github.com/kelseyhightower/envconfig"
)

// Config holds application configuration loaded from environment variables.
type Config struct {
	BotToken string `envconfig:"TELEGRAM_BOT_TOKEN" required:"true"`
	DBPath   string `envconfig:"DB_PATH" default:"./data/takonaut.db"`
	LogLevel string `envconfig:"LOG_LEVEL" default:"info"` // debug|info|warn|error
	HTTPAddr string `envconfig:"HTTP_ADDR" default:":8080"`

	// DefaultTZ is both the fallback zone for users without a stored
	// preference and the organizational zone in which keyword recurrence
	// anchors (daily/weekly/monthly/yearly) are computed.
	DefaultTZ string `envconfig:"DEFAULT_TZ" default:"Asia/Jakarta"`

	// GlobalAdmins may use admin-gated commands in any group.
	GlobalAdmins []int64 `envconfig:"GLOBAL_ADMINS"`

	RatesAppID     string `envconfig:"OPEN_EXCHANGE_APP_ID"`
	RatesCachePath string `envconfig:"RATES_CACHE_PATH" default:"./data/usd_rates.json"`

	DeliveryInterval   time.Duration `envconfig:"DELIVERY_INTERVAL" default:"30s"`
	RecurrenceInterval time.Duration `envconfig:"RECURRENCE_INTERVAL" default:"1m"`
}

// Load reads environment variables into Config.
func Load() (Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}
