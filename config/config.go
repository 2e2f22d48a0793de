package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

type Config struct {
	Port int

	DBDriver      string
	MySQLUser     string
	MySQLPassword string
	MySQLHost     string
	MySQLDatabase string
	SQLitePath    string

	JWTSecret string
	TokenTTL  time.Duration
	DealTTL   time.Duration

	NatsURL string

	UploadDir      string
	MaxUploadBytes int64

	NegotiationIdle time.Duration
	CORSOrigin      string
	LogLevel        string

	AdminEmail    string
	AdminPassword string
}

func Load() Config {
	return Config{
		Port:            envInt("PORT", 8080),
		DBDriver:        envStr("DB_DRIVER", "mysql"),
		MySQLUser:       envStr("MYSQL_USER", "user"),
		MySQLPassword:   envStr("MYSQL_PWD", "password"),
		MySQLHost:       envStr("MYSQL_HOST", "tcp(127.0.0.1:3306)"),
		MySQLDatabase:   envStr("MYSQL_DATABASE", "camgrocer"),
		SQLitePath:      envStr("SQLITE_PATH", "camgrocer.db"),
		JWTSecret:       envStr("JWT_SECRET", ""),
		TokenTTL:        time.Duration(envInt("TOKEN_TTL_MINUTES", 1440)) * time.Minute,
		DealTTL:         time.Duration(envInt("DEAL_TTL_MINUTES", 60)) * time.Minute,
		NatsURL:         envStr("NATS_URL", ""),
		UploadDir:       envStr("UPLOAD_DIR", "uploads"),
		MaxUploadBytes:  int64(envInt("MAX_UPLOAD_MB", 5)) << 20,
		NegotiationIdle: time.Duration(envInt("NEGOTIATION_IDLE_MINUTES", 30)) * time.Minute,
		CORSOrigin:      envStr("CORS_ORIGIN", "*"),
		LogLevel:        envStr("LOG_LEVEL", "info"),
		AdminEmail:      envStr("ADMIN_EMAIL", ""),
		AdminPassword:   envStr("ADMIN_PASSWORD", ""),
	}
}

// DSN returns the data source name for the configured driver.
func (c Config) DSN() string {
	if c.DBDriver == "sqlite" {
		return c.SQLitePath
	}
	// user:password@tcp(127.0.0.1:3306)/camgrocer
	return fmt.Sprintf("%s:%s@%s/%s?parseTime=true&loc=Local", c.MySQLUser, c.MySQLPassword, c.MySQLHost, c.MySQLDatabase)
}

// Validate checks the settings the HTTP server cannot run without.
func (c Config) Validate() error {
	switch c.DBDriver {
	case "mysql", "sqlite":
	default:
		return fmt.Errorf("DB_DRIVER must be mysql or sqlite, got %q", c.DBDriver)
	}
	if c.JWTSecret == "" {
		return fmt.Errorf("JWT_SECRET is required")
	}
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("PORT out of range: %d", c.Port)
	}
	if c.TokenTTL <= 0 {
		return fmt.Errorf("TOKEN_TTL_MINUTES must be positive")
	}
	if c.DealTTL <= 0 {
		return fmt.Errorf("DEAL_TTL_MINUTES must be positive")
	}
	return nil
}

func envStr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}
