package config

import "time"

const (
	DefaultGHLBaseURL    = "https://services.leadconnectorhq.com"
	DefaultGHLAPIVersion = "2021-07-28"
)

type ServiceConfig struct {
	Name        string `mapstructure:"name"`
	Environment string `mapstructure:"environment"`
	Version     string `mapstructure:"version"`
	// EncryptionKey is the 64 hex character AES-256 key protecting stored API keys.
	EncryptionKey string `mapstructure:"encryption_key" validate:"required,len=64,hexadecimal"`
}

type StripeConfig struct {
	WebhookSecret string `mapstructure:"webhook_secret"`
	// APIURL overrides the Stripe API base URL. Empty uses the SDK default.
	APIURL string `mapstructure:"api_url" validate:"omitempty,url"`
}

type GHLConfig struct {
	BaseURL       string `mapstructure:"base_url" validate:"omitempty,url"`
	APIVersion    string `mapstructure:"api_version"`
	WebhookSecret string `mapstructure:"webhook_secret"`
}

// SyncConfig tunes the sync engines, the fetch client and the daily scheduler.
type SyncConfig struct {
	SchedulerEnabled bool `mapstructure:"scheduler_enabled"`
	ScheduleHour     uint `mapstructure:"schedule_hour" validate:"lte=23"`
	ScheduleMinute   uint `mapstructure:"schedule_minute" validate:"lte=59"`

	BackfillDays    int `mapstructure:"backfill_days"`
	IncrementalDays int `mapstructure:"incremental_days"`

	MaxRetries int           `mapstructure:"max_retries"`
	BaseDelay  time.Duration `mapstructure:"base_delay"`
	Timeout    time.Duration `mapstructure:"timeout"`

	// TaskTimeout bounds background aggregation runs.
	TaskTimeout time.Duration `mapstructure:"task_timeout"`
	// SyncTaskTimeout bounds manual and webhook-triggered syncs, including
	// backfills. A sync that exceeds it ends with its integration in ERROR.
	SyncTaskTimeout time.Duration `mapstructure:"sync_task_timeout"`
}

func (c *SyncConfig) applyDefaults() {
	if c.ScheduleHour == 0 && c.ScheduleMinute == 0 {
		c.ScheduleHour = 2
	}
	if c.BackfillDays == 0 {
		c.BackfillDays = 90
	}
	if c.IncrementalDays == 0 {
		c.IncrementalDays = 7
	}
	if c.MaxRetries == 0 {
		c.MaxRetries = 3
	}
	if c.BaseDelay == 0 {
		c.BaseDelay = time.Second
	}
	if c.Timeout == 0 {
		c.Timeout = 30 * time.Second
	}
	if c.TaskTimeout == 0 {
		c.TaskTimeout = 15 * time.Minute
	}
	if c.SyncTaskTimeout == 0 {
		c.SyncTaskTimeout = 2 * time.Hour
	}
}
