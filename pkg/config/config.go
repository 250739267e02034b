// Package config loads service configuration from YAML files and environment variables.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

// Config gives read access to loaded configuration values.
type Config interface {
	GetString(key string) string
	GetInt(key string) int
	GetBool(key string) bool
	IsSet(key string) bool
	Unmarshal(out interface{}) error
	ConfigFileUsed() string
}

type viperConfig struct {
	v *viper.Viper
}

func (c *viperConfig) GetString(key string) string { return c.v.GetString(key) }
func (c *viperConfig) GetInt(key string) int       { return c.v.GetInt(key) }
func (c *viperConfig) GetBool(key string) bool     { return c.v.GetBool(key) }
func (c *viperConfig) IsSet(key string) bool       { return c.v.IsSet(key) }
func (c *viperConfig) ConfigFileUsed() string      { return c.v.ConfigFileUsed() }

// Unmarshal decodes the whole configuration tree into out using mapstructure tags.
func (c *viperConfig) Unmarshal(out interface{}) error {
	return c.v.Unmarshal(out)
}

const configDir = "configs"

// Load reads configs/<APP_ENV>/<serviceName>.yaml (or CONFIG_PATH) and falls back to
// configs/example. Environment variables prefixed with the upper-cased service name
// override file values, with "." in keys replaced by "_".
//
// Keys listed in envKeys are bound explicitly so that they can be supplied purely
// through the environment even when the file does not mention them.
func Load(serviceName string, envKeys ...string) (Config, error) {
	v := viper.New()

	env := os.Getenv("APP_ENV")
	if env == "" {
		env = "dev"
	}

	v.SetConfigType("yaml")
	v.SetEnvPrefix(strings.ToUpper(serviceName))
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	for _, key := range envKeys {
		if err := v.BindEnv(key); err != nil {
			return nil, fmt.Errorf("failed to bind env for %s: %w", key, err)
		}
	}

	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = filepath.Join(configDir, env)
	}

	v.SetConfigName(serviceName)
	v.AddConfigPath(configPath)

	if err := v.ReadInConfig(); err != nil {
		v.AddConfigPath(filepath.Join(configDir, "example"))
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to load config file: %w", err)
		}
	}

	return &viperConfig{v: v}, nil
}
