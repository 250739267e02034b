package config

import (
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"

	pkgconfig "github.com/SuarfelG/amber-business-health-monitor/pkg/config"
	"github.com/SuarfelG/amber-business-health-monitor/pkg/logger"
	"github.com/SuarfelG/amber-business-health-monitor/pkg/tracing"
)

// ServiceName is used for the config file name and the environment variable prefix.
const ServiceName = "amber"

type Config struct {
	Service  ServiceConfig  `mapstructure:"service"`
	Database DatabaseConfig `mapstructure:"database"`
	Server   ServerConfig   `mapstructure:"server"`
	Log      logger.Config  `mapstructure:"log"`
	JWT      JWTConfig      `mapstructure:"jwt"`
	Stripe   StripeConfig   `mapstructure:"stripe"`
	GHL      GHLConfig      `mapstructure:"ghl"`
	Sync     SyncConfig     `mapstructure:"sync"`
	Redis    RedisConfig    `mapstructure:"redis"`
	Tracing  tracing.Config `mapstructure:"tracing"`
}

type JWTConfig struct {
	Secret string `mapstructure:"secret" validate:"required"`
}

type RedisConfig struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
	Channel  string `mapstructure:"channel"`
}

// Enabled reports whether sync notifications should be published.
func (c RedisConfig) Enabled() bool {
	return c.Addr != ""
}

// secretKeys may be supplied only through the environment (AMBER_JWT_SECRET, ...).
var secretKeys = []string{
	"service.encryption_key",
	"jwt.secret",
	"stripe.webhook_secret",
	"ghl.webhook_secret",
	"database.password",
	"redis.password",
}

// LoadConfig reads the amber configuration, applies defaults and validates it.
func LoadConfig() (*Config, error) {
	loaded, err := pkgconfig.Load(ServiceName, secretKeys...)
	if err != nil {
		return nil, err
	}

	var cfg Config
	if err := loaded.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	cfg.applyDefaults()

	if err := validator.New().Struct(&cfg); err != nil {
		return nil, fmt.Errorf("invalid config (%s): %w", loaded.ConfigFileUsed(), err)
	}

	return &cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Service.Name == "" {
		c.Service.Name = ServiceName
	}
	if c.Server.HTTP.Port == 0 {
		c.Server.HTTP.Port = 8080
	}
	if c.Server.ShutdownTimeout == 0 {
		c.Server.ShutdownTimeout = 15 * time.Second
	}
	if c.Database.Port == 0 {
		c.Database.Port = 5432
	}
	if c.Database.SSLMode == "" {
		c.Database.SSLMode = "disable"
	}
	if c.Database.LogLevel == "" {
		c.Database.LogLevel = "warn"
	}
	if c.Database.SlowQueryThreshold == 0 {
		c.Database.SlowQueryThreshold = 200 * time.Millisecond
	}
	if c.Database.ConnectAttempts == 0 {
		c.Database.ConnectAttempts = 5
	}
	if c.GHL.BaseURL == "" {
		c.GHL.BaseURL = DefaultGHLBaseURL
	}
	if c.GHL.APIVersion == "" {
		c.GHL.APIVersion = DefaultGHLAPIVersion
	}
	if c.Redis.Channel == "" {
		c.Redis.Channel = "amber:sync"
	}
	if c.Tracing.SampleRatio == 0 {
		c.Tracing.SampleRatio = 1
	}
	c.Sync.applyDefaults()
}
