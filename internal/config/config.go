package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
)

// Config holds everything the process needs from its environment. It is built
// once in main and passed by injection; request handlers never read env vars.
type Config struct {
	WebhookSecret string
	DatabaseURL   string
	LogLevel      string
	Port          string
	RedisAddr     string
	RedisPassword string
}

// Load reads an optional .env file, then the process environment. The two
// required settings (WEBHOOK_SECRET, DATABASE_URL) make Load fail rather than
// letting the server come up without them.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		WebhookSecret: os.Getenv("WEBHOOK_SECRET"),
		DatabaseURL:   os.Getenv("DATABASE_URL"),
		LogLevel:      getEnv("LOG_LEVEL", "info"),
		Port:          getEnv("PORT", "8080"),
		RedisAddr:     os.Getenv("REDIS_ADDR"),
		RedisPassword: os.Getenv("REDIS_PASSWORD"),
	}

	if cfg.WebhookSecret == "" {
		return nil, fmt.Errorf("WEBHOOK_SECRET is not set")
	}
	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is not set")
	}
	if _, err := cfg.DatabasePath(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// DatabasePath resolves DATABASE_URL to a local sqlite file path. Only a
// local-file store is supported; any other scheme is a configuration error.
func (c *Config) DatabasePath() (string, error) {
	switch {
	case strings.HasPrefix(c.DatabaseURL, "sqlite:///"):
		return strings.TrimPrefix(c.DatabaseURL, "sqlite:///"), nil
	case strings.HasPrefix(c.DatabaseURL, "sqlite://"):
		return strings.TrimPrefix(c.DatabaseURL, "sqlite://"), nil
	case strings.Contains(c.DatabaseURL, "://"):
		return "", fmt.Errorf("unsupported DATABASE_URL %q: only sqlite is supported", c.DatabaseURL)
	default:
		return c.DatabaseURL, nil
	}
}

func getEnv(key string, defaultVal string) string {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal
	}
	return val
}
