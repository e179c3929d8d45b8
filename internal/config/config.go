// Package config provides Viper-based hierarchical configuration management
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"github.com/spf13/viper"
)

// EnvPrefix is prepended to every environment variable override.
const EnvPrefix = "STATEMENT"

// Config represents the complete application configuration
type Config struct {
	Log struct {
		Level  string `mapstructure:"level" yaml:"level"`
		Format string `mapstructure:"format" yaml:"format"`
	} `mapstructure:"log" yaml:"log"`

	Engine struct {
		AcceptanceThreshold float64 `mapstructure:"acceptance_threshold" yaml:"acceptance_threshold"`
		BalanceTolerance    string  `mapstructure:"balance_tolerance" yaml:"balance_tolerance"`
	} `mapstructure:"engine" yaml:"engine"`

	Batch struct {
		MaxDocuments int `mapstructure:"max_documents" yaml:"max_documents"`
		Workers      int `mapstructure:"workers" yaml:"workers"`
	} `mapstructure:"batch" yaml:"batch"`

	Server struct {
		Port        int    `mapstructure:"port" yaml:"port"`
		CORSOrigins string `mapstructure:"cors_origins" yaml:"cors_origins"`
		BodyLimitMB int    `mapstructure:"body_limit_mb" yaml:"body_limit_mb"`
	} `mapstructure:"server" yaml:"server"`

	Output struct {
		IncludeHeader bool `mapstructure:"include_header" yaml:"include_header"`
	} `mapstructure:"output" yaml:"output"`
}

// LoadEnvFile loads a .env file into the process environment. A missing
// file is not an error.
func LoadEnvFile(path string) error {
	if path == "" {
		path = ".env"
	}
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err := godotenv.Load(path); err != nil {
		return fmt.Errorf("failed to load env file %s: %w", path, err)
	}
	return nil
}

// Load builds the configuration from defaults, an optional config file and
// STATEMENT_* environment variables, in increasing precedence. When
// configFile is empty the standard locations are searched.
func Load(configFile string) (*Config, error) {
	v := viper.New()

	setDefaults(v)

	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath("$HOME/.statement-engine")
		v.AddConfigPath(".statement-engine")
		v.AddConfigPath(".")
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if configFile != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

// Default returns the configuration with only defaults applied.
func Default() *Config {
	v := viper.New()
	setDefaults(v)
	var cfg Config
	_ = v.Unmarshal(&cfg)
	return &cfg
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")

	v.SetDefault("engine.acceptance_threshold", 0.35)
	v.SetDefault("engine.balance_tolerance", "0.01")

	v.SetDefault("batch.max_documents", 10)
	v.SetDefault("batch.workers", 4)

	v.SetDefault("server.port", 8000)
	v.SetDefault("server.cors_origins", "*")
	v.SetDefault("server.body_limit_mb", 32)

	v.SetDefault("output.include_header", true)
}

// Validate checks the configuration values
func (c *Config) Validate() error {
	if _, err := logrus.ParseLevel(c.Log.Level); err != nil {
		return fmt.Errorf("invalid log level: %s", c.Log.Level)
	}

	if c.Log.Format != "text" && c.Log.Format != "json" {
		return fmt.Errorf("invalid log format: %s (must be 'text' or 'json')", c.Log.Format)
	}

	if c.Engine.AcceptanceThreshold < 0 || c.Engine.AcceptanceThreshold > 1 {
		return fmt.Errorf("engine.acceptance_threshold must be between 0.0 and 1.0, got: %f", c.Engine.AcceptanceThreshold)
	}

	tol, err := decimal.NewFromString(c.Engine.BalanceTolerance)
	if err != nil {
		return fmt.Errorf("engine.balance_tolerance must be a decimal, got: %q", c.Engine.BalanceTolerance)
	}
	if tol.IsNegative() {
		return fmt.Errorf("engine.balance_tolerance must not be negative, got: %s", tol)
	}

	if c.Batch.MaxDocuments < 1 {
		return fmt.Errorf("batch.max_documents must be positive, got: %d", c.Batch.MaxDocuments)
	}
	if c.Batch.Workers < 1 {
		return fmt.Errorf("batch.workers must be positive, got: %d", c.Batch.Workers)
	}

	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port must be between 1 and 65535, got: %d", c.Server.Port)
	}
	if c.Server.BodyLimitMB < 1 {
		return fmt.Errorf("server.body_limit_mb must be positive, got: %d", c.Server.BodyLimitMB)
	}

	return nil
}

// Tolerance returns the parsed balance tolerance.
func (c *Config) Tolerance() decimal.Decimal {
	tol, err := decimal.NewFromString(c.Engine.BalanceTolerance)
	if err != nil {
		return decimal.RequireFromString("0.01")
	}
	return tol
}
