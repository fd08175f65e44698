// Package config loads the inference server configuration.
package config

import (
	"strings"

	"github.com/spf13/viper"
)

// Config holds the serving configuration.
type Config struct {
	Server ServerConfig `mapstructure:"server"`
}

// ServerConfig configures the HTTP inference host.
type ServerConfig struct {
	Host      string `mapstructure:"host"`
	Port      int    `mapstructure:"port"`
	ModelPath string `mapstructure:"model_path"`
}

// Load reads configuration from an optional file and the environment.
// Environment variables use the RF_ prefix with underscores
// (RF_SERVER_PORT); a bare PORT is honored for parity with the original
// deployment.
func Load(path string) (*Config, error) {
	v := viper.New()

	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 18080)
	v.SetDefault("server.model_path", "rf.model")

	v.SetEnvPrefix("RF")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.BindEnv("server.port", "RF_SERVER_PORT", "PORT"); err != nil {
		return nil, err
	}

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, err
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}
