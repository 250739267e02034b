package config

import (
	"fmt"
	"time"
)

// DatabaseConfig holds the Postgres connection settings.
type DatabaseConfig struct {
	Host     string `mapstructure:"host" validate:"required"`
	Port     int    `mapstructure:"port"`
	Name     string `mapstructure:"name" validate:"required"`
	User     string `mapstructure:"user" validate:"required"`
	Password string `mapstructure:"password"`
	SSLMode  string `mapstructure:"ssl_mode"`

	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
	ConnMaxIdleTime time.Duration `mapstructure:"conn_max_idle_time"`

	// LogLevel is the gorm log level: silent, error, warn or info.
	LogLevel           string        `mapstructure:"log_level" validate:"omitempty,oneof=silent error warn info"`
	SlowQueryThreshold time.Duration `mapstructure:"slow_query_threshold"`
	// ConnectAttempts is how often the initial connection is tried before giving up.
	ConnectAttempts int `mapstructure:"connect_attempts"`
}

// DSN returns the Postgres connection string. Sessions run in UTC.
func (c *DatabaseConfig) DSN() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s TimeZone=UTC",
		c.Host, c.Port, c.User, c.Password, c.Name, c.SSLMode)
}
