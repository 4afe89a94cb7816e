package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	// Server
	Port    string
	Env     string
	BaseURL string

	// Sessions
	SessionSecret string
	SessionTTL    time.Duration

	// Redis (optional, sessions stay in memory when empty)
	RedisURL string

	// Site content
	SiteFile string

	// Rate limiting on message submission
	RateLimitPerMinute int
	RateLimitBurst     int

	// Logging
	LogLevel string
}

func Load() *Config {
	// Load .env file if it exists
	godotenv.Load()

	cfg := &Config{
		Port:               getEnvOrDefault("PORT", "8080"),
		Env:                getEnvOrDefault("ENV", "development"),
		BaseURL:            getEnvOrDefault("BASE_URL", "http://localhost:8080"),
		SessionSecret:      mustGetEnv("SESSION_SECRET"),
		SessionTTL:         getEnvAsDurationOrDefault("SESSION_TTL", 30*time.Minute),
		RedisURL:           getEnvOrDefault("REDIS_URL", ""),
		SiteFile:           getEnvOrDefault("SITE_FILE", ""),
		RateLimitPerMinute: getEnvAsIntOrDefault("RATE_LIMIT_PER_MINUTE", 30),
		RateLimitBurst:     getEnvAsIntOrDefault("RATE_LIMIT_BURST", 10),
		LogLevel:           getEnvOrDefault("LOG_LEVEL", "info"),
	}

	return cfg
}

func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

func mustGetEnv(key string) string {
	val := os.Getenv(key)
	if val == "" {
		panic(fmt.Sprintf("required environment variable %s is not set", key))
	}
	return val
}

func getEnvOrDefault(key, defaultVal string) string {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal
	}
	return val
}

func getEnvAsIntOrDefault(key string, defaultVal int) int {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal
	}
	n, err := strconv.Atoi(val)
	if err != nil {
		return defaultVal
	}
	return n
}

func getEnvAsDurationOrDefault(key string, defaultVal time.Duration) time.Duration {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal
	}
	d, err := time.ParseDuration(val)
	if err != nil || d <= 0 {
		return defaultVal
	}
	return d
}
