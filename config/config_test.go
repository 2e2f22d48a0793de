package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var allKeys = []string{
	"PORT", "DB_DRIVER", "MYSQL_USER", "MYSQL_PWD", "MYSQL_HOST", "MYSQL_DATABASE", "SQLITE_PATH",
	"JWT_SECRET", "TOKEN_TTL_MINUTES", "DEAL_TTL_MINUTES", "NATS_URL", "UPLOAD_DIR", "MAX_UPLOAD_MB",
	"NEGOTIATION_IDLE_MINUTES", "CORS_ORIGIN", "LOG_LEVEL", "ADMIN_EMAIL", "ADMIN_PASSWORD",
}

func clearEnv(t *testing.T) {
	for _, k := range allKeys {
		t.Setenv(k, "")
	}
}

func TestLoad_Defaults(t *testing.T) {
	clearEnv(t)

	cfg := Load()

	assert.Equal(t, 8080, cfg.Port)
	assert.Equal(t, "mysql", cfg.DBDriver)
	assert.Equal(t, "user:password@tcp(127.0.0.1:3306)/camgrocer?parseTime=true&loc=Local", cfg.DSN())
	assert.Equal(t, "", cfg.JWTSecret)
	assert.Equal(t, 24*time.Hour, cfg.TokenTTL)
	assert.Equal(t, time.Hour, cfg.DealTTL)
	assert.Equal(t, "", cfg.NatsURL)
	assert.Equal(t, "uploads", cfg.UploadDir)
	assert.Equal(t, int64(5<<20), cfg.MaxUploadBytes)
	assert.Equal(t, 30*time.Minute, cfg.NegotiationIdle)
	assert.Equal(t, "*", cfg.CORSOrigin)
	assert.Equal(t, "info", cfg.LogLevel)
}

func TestLoad_CustomValues(t *testing.T) {
	clearEnv(t)
	t.Setenv("PORT", "9090")
	t.Setenv("DB_DRIVER", "sqlite")
	t.Setenv("SQLITE_PATH", "/tmp/cg.db")
	t.Setenv("JWT_SECRET", "s3cret")
	t.Setenv("TOKEN_TTL_MINUTES", "60")
	t.Setenv("DEAL_TTL_MINUTES", "15")
	t.Setenv("NATS_URL", "nats://localhost:4222")
	t.Setenv("MAX_UPLOAD_MB", "2")
	t.Setenv("NEGOTIATION_IDLE_MINUTES", "5")
	t.Setenv("LOG_LEVEL", "debug")

	cfg := Load()

	assert.Equal(t, 9090, cfg.Port)
	assert.Equal(t, "/tmp/cg.db", cfg.DSN())
	assert.Equal(t, "s3cret", cfg.JWTSecret)
	assert.Equal(t, time.Hour, cfg.TokenTTL)
	assert.Equal(t, 15*time.Minute, cfg.DealTTL)
	assert.Equal(t, "nats://localhost:4222", cfg.NatsURL)
	assert.Equal(t, int64(2<<20), cfg.MaxUploadBytes)
	assert.Equal(t, 5*time.Minute, cfg.NegotiationIdle)
	assert.Equal(t, "debug", cfg.LogLevel)
	require.NoError(t, cfg.Validate())
}

func TestLoad_InvalidInt(t *testing.T) {
	clearEnv(t)
	t.Setenv("PORT", "notanumber")

	cfg := Load()
	assert.Equal(t, 8080, cfg.Port)
}

func TestValidate(t *testing.T) {
	clearEnv(t)
	base := Load()
	base.JWTSecret = "x"
	require.NoError(t, base.Validate())

	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"unknown driver", func(c *Config) { c.DBDriver = "postgres" }},
		{"missing secret", func(c *Config) { c.JWTSecret = "" }},
		{"bad port", func(c *Config) { c.Port = 70000 }},
		{"zero ttl", func(c *Config) { c.TokenTTL = 0 }},
		{"zero deal ttl", func(c *Config) { c.DealTTL = 0 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := base
			tt.mutate(&cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}
