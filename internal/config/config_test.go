package config

import (
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "0123456789abcdef0123456789abcdef"

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("JWT_SECRET", testSecret)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, []string{"*"}, cfg.Server.AllowedOrigins)
	assert.Equal(t, HistoryRedis, cfg.History.Backend)
	assert.Equal(t, 25, cfg.Assessment.QuestionCount)
	assert.Equal(t, time.Second, cfg.Assessment.TickInterval)
	assert.Equal(t, time.Hour, cfg.Assessment.ResultTTL)
	assert.Equal(t, 5*time.Minute, cfg.Auth.CodeTTL)
	assert.Equal(t, slog.LevelInfo, cfg.LogLevel)
	assert.Empty(t, cfg.Database.MigrationsDir)
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("JWT_SECRET", testSecret)
	t.Setenv("SERVER_PORT", "9090")
	t.Setenv("ALLOWED_ORIGINS", "https://a.example, https://b.example,")
	t.Setenv("HISTORY_BACKEND", "SQLite")
	t.Setenv("HISTORY_SQLITE_PATH", "/tmp/h.db")
	t.Setenv("ASSESSMENT_TICK_INTERVAL", "250ms")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("REDIS_DB", "not-a-number")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.Server.AllowedOrigins)
	assert.Equal(t, HistorySQLite, cfg.History.Backend)
	assert.Equal(t, "/tmp/h.db", cfg.History.SQLitePath)
	assert.Equal(t, 250*time.Millisecond, cfg.Assessment.TickInterval)
	assert.Equal(t, slog.LevelDebug, cfg.LogLevel)
	assert.Equal(t, 0, cfg.Redis.DB, "unparsable values fall back to the default")
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		return &Config{
			Server:     ServerConfig{Port: 8080},
			Database:   DatabaseConfig{DSN: "postgres://x"},
			History:    HistoryConfig{Backend: HistoryRedis},
			Auth:       AuthConfig{JWTSecret: testSecret, TokenTTL: time.Hour, CodeTTL: time.Minute},
			Assessment: AssessmentConfig{QuestionCount: 25, TickInterval: time.Second},
		}
	}

	require.NoError(t, valid().Validate())

	tests := []struct {
		name   string
		mutate func(c *Config)
	}{
		{"port", func(c *Config) { c.Server.Port = 0 }},
		{"dsn", func(c *Config) { c.Database.DSN = "" }},
		{"backend", func(c *Config) { c.History.Backend = "memcached" }},
		{"sqlite path", func(c *Config) { c.History.Backend = HistorySQLite }},
		{"short secret", func(c *Config) { c.Auth.JWTSecret = "short" }},
		{"token ttl", func(c *Config) { c.Auth.TokenTTL = 0 }},
		{"question count", func(c *Config) { c.Assessment.QuestionCount = 0 }},
		{"tick interval", func(c *Config) { c.Assessment.TickInterval = 0 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := valid()
			tt.mutate(c)
			assert.Error(t, c.Validate())
		})
	}
}
