// Package config loads settings from .env, an optional config.yaml and
// STUDYPLAN_* environment variables.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Supported database drivers. "memory" keeps everything in process.
const (
	DriverSQLite   = "sqlite3"
	DriverPostgres = "postgres"
	DriverMemory   = "memory"
)

// Config holds all configuration for studyplan.
type Config struct {
	Database  DatabaseConfig `mapstructure:"database"`
	API       APIConfig      `mapstructure:"api"`
	Reminders ReminderConfig `mapstructure:"reminders"`
	Log       LogConfig      `mapstructure:"log"`
}

// DatabaseConfig selects the storage backend.
type DatabaseConfig struct {
	Driver string `mapstructure:"driver"`
	DSN    string `mapstructure:"dsn"`
}

// APIConfig holds HTTP API server settings.
type APIConfig struct {
	ListenAddr string `mapstructure:"listen_addr"`
	JWTSecret  string `mapstructure:"jwt_secret"`
	JWTIssuer  string `mapstructure:"jwt_issuer"`
}

// ReminderConfig controls the hourly Telegram reminders.
type ReminderConfig struct {
	Enabled       bool   `mapstructure:"enabled"`
	StartHour     int    `mapstructure:"start_hour"`
	EndHour       int    `mapstructure:"end_hour"`
	Timezone      string `mapstructure:"timezone"`
	TelegramToken string `mapstructure:"telegram_token"`
	MaxPerMessage int    `mapstructure:"max_per_message"`
}

// Location resolves Timezone, defaulting to UTC.
func (r ReminderConfig) Location() (*time.Location, error) {
	if r.Timezone == "" {
		return time.UTC, nil
	}
	return time.LoadLocation(r.Timezone)
}

// LogConfig holds structured logging settings.
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"` // json or console
}

// String masks the secrets so the config can be logged.
func (c Config) String() string {
	return fmt.Sprintf("Config{Database:{Driver:%s} API:{ListenAddr:%s JWTSecret:%s} Reminders:{Enabled:%t Token:%s} Log:%+v}",
		c.Database.Driver, c.API.ListenAddr, mask(c.API.JWTSecret),
		c.Reminders.Enabled, mask(c.Reminders.TelegramToken), c.Log)
}

func mask(secret string) string {
	if secret == "" {
		return ""
	}
	return "***"
}

// Load reads configuration. configFile may name an explicit YAML file;
// otherwise config.yaml is looked up in the working directory.
func Load(configFile string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("loading .env: %w", err)
	}

	v := viper.New()

	v.SetDefault("database.driver", DriverSQLite)
	v.SetDefault("database.dsn", "data/studyplan.db")

	v.SetDefault("api.listen_addr", ":8080")
	v.SetDefault("api.jwt_secret", "")
	v.SetDefault("api.jwt_issuer", "")

	v.SetDefault("reminders.enabled", false)
	v.SetDefault("reminders.start_hour", 8)
	v.SetDefault("reminders.end_hour", 22)
	v.SetDefault("reminders.timezone", "UTC")
	v.SetDefault("reminders.telegram_token", "")
	v.SetDefault("reminders.max_per_message", 50)

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")

	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
	}

	v.SetEnvPrefix("STUDYPLAN")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// TELEGRAM_BOT_TOKEN is accepted as well
	_ = v.BindEnv("reminders.telegram_token", "STUDYPLAN_REMINDERS_TELEGRAM_TOKEN", "TELEGRAM_BOT_TOKEN")

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok || configFile != "" {
			return nil, fmt.Errorf("reading config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshalling config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return &cfg, nil
}

// Validate checks that required configuration fields are set and consistent.
func (c *Config) Validate() error {
	switch c.Database.Driver {
	case DriverSQLite, DriverPostgres:
		if c.Database.DSN == "" {
			return fmt.Errorf("database.dsn must not be empty")
		}
	case DriverMemory:
	default:
		return fmt.Errorf("database.driver must be one of %s, %s, %s", DriverSQLite, DriverPostgres, DriverMemory)
	}

	if c.Reminders.StartHour < 0 || c.Reminders.StartHour > 23 {
		return fmt.Errorf("reminders.start_hour must be between 0 and 23")
	}
	if c.Reminders.EndHour < 0 || c.Reminders.EndHour > 23 {
		return fmt.Errorf("reminders.end_hour must be between 0 and 23")
	}
	if c.Reminders.MaxPerMessage < 0 {
		return fmt.Errorf("reminders.max_per_message must be >= 0")
	}
	if _, err := c.Reminders.Location(); err != nil {
		return fmt.Errorf("reminders.timezone: %w", err)
	}
	if c.Reminders.Enabled && c.Reminders.TelegramToken == "" {
		return fmt.Errorf("reminders.telegram_token is required when reminders are enabled")
	}
	if c.Reminders.Enabled && c.API.JWTSecret == "" {
		return fmt.Errorf("api.jwt_secret is required when reminders are enabled")
	}

	switch c.Log.Format {
	case "json", "console":
	default:
		return fmt.Errorf("log.format must be json or console")
	}
	return nil
}
