package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Chdir(t.TempDir())

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, DriverSQLite, cfg.Database.Driver)
	assert.Equal(t, "data/studyplan.db", cfg.Database.DSN)
	assert.Equal(t, ":8080", cfg.API.ListenAddr)
	assert.False(t, cfg.Reminders.Enabled)
	assert.Equal(t, 8, cfg.Reminders.StartHour)
	assert.Equal(t, 22, cfg.Reminders.EndHour)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "json", cfg.Log.Format)
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("STUDYPLAN_DATABASE_DRIVER", "memory")
	t.Setenv("STUDYPLAN_API_JWT_SECRET", "s3cret")
	t.Setenv("STUDYPLAN_REMINDERS_START_HOUR", "6")
	t.Setenv("TELEGRAM_BOT_TOKEN", "123:abc")

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, DriverMemory, cfg.Database.Driver)
	assert.Equal(t, "s3cret", cfg.API.JWTSecret)
	assert.Equal(t, 6, cfg.Reminders.StartHour)
	assert.Equal(t, "123:abc", cfg.Reminders.TelegramToken)
	assert.NotContains(t, cfg.String(), "s3cret")
}

func TestLoad_DotEnvAndFile(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)

	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte("STUDYPLAN_LOG_LEVEL=debug\n"), 0o600))
	t.Cleanup(func() { os.Unsetenv("STUDYPLAN_LOG_LEVEL") })

	yaml := "database:\n  driver: postgres\n  dsn: postgres://localhost/studyplan\nreminders:\n  timezone: Asia/Tokyo\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(yaml), 0o600))

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, DriverPostgres, cfg.Database.Driver)
	assert.Equal(t, "postgres://localhost/studyplan", cfg.Database.DSN)
	assert.Equal(t, "Asia/Tokyo", cfg.Reminders.Timezone)
}

func TestLoad_ExplicitFileMissing(t *testing.T) {
	t.Chdir(t.TempDir())
	_, err := Load("nope.yaml")
	assert.ErrorContains(t, err, "reading config")
}

func TestValidate(t *testing.T) {
	valid := func() Config {
		return Config{
			Database:  DatabaseConfig{Driver: DriverSQLite, DSN: "x.db"},
			Reminders: ReminderConfig{StartHour: 8, EndHour: 22, Timezone: "UTC"},
			Log:       LogConfig{Level: "info", Format: "json"},
		}
	}
	require.NoError(t, func() error { c := valid(); return c.Validate() }())

	tests := []struct {
		name   string
		mutate func(*Config)
		want   string
	}{
		{"unknown driver", func(c *Config) { c.Database.Driver = "mysql" }, "database.driver"},
		{"missing dsn", func(c *Config) { c.Database.DSN = "" }, "database.dsn"},
		{"bad start hour", func(c *Config) { c.Reminders.StartHour = 24 }, "start_hour"},
		{"bad end hour", func(c *Config) { c.Reminders.EndHour = -1 }, "end_hour"},
		{"negative cap", func(c *Config) { c.Reminders.MaxPerMessage = -1 }, "max_per_message"},
		{"unknown zone", func(c *Config) { c.Reminders.Timezone = "Mars/Olympus" }, "timezone"},
		{"reminders without token", func(c *Config) { c.Reminders.Enabled = true }, "telegram_token"},
		{"reminders without jwt secret", func(c *Config) {
			c.Reminders.Enabled = true
			c.Reminders.TelegramToken = "123:abc"
		}, "api.jwt_secret"},
		{"bad log format", func(c *Config) { c.Log.Format = "xml" }, "log.format"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := valid()
			tt.mutate(&c)
			assert.ErrorContains(t, c.Validate(), tt.want)
		})
	}

	mem := valid()
	mem.Database = DatabaseConfig{Driver: DriverMemory}
	assert.NoError(t, mem.Validate())
}
