package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds application configuration
type Config struct {
	LogLevel  string
	LogFormat string

	// Slotify API client
	APIBaseURL     string
	APIFallbackURL string
	APIToken       string
	HTTPTimeout    time.Duration
	InsecureTLS    bool

	// Booking workflow
	DismissDelay time.Duration

	// Local stub API
	StubPort      string
	StubStore     string
	StubRateLimit float64
	StubRateBurst int
	StubJWTSecret string
	StubCORS      []string
	StubSeedDays  int
	RedisAddr     string
	RedisPassword string
}

// Load reads configuration from environment variables
func Load() *Config {
	return &Config{
		LogLevel:  getEnv("LOG_LEVEL", "info"),
		LogFormat: strings.ToLower(strings.TrimSpace(getEnv("LOG_FORMAT", "text"))),

		APIBaseURL:     strings.TrimRight(getEnv("SLOTIFY_API_BASE_URL", "https://localhost:7208"), "/"),
		APIFallbackURL: strings.TrimRight(getEnv("SLOTIFY_API_FALLBACK_URL", "http://localhost:7208"), "/"),
		APIToken:       strings.TrimSpace(getEnv("SLOTIFY_TOKEN", "")),
		HTTPTimeout:    getEnvAsDuration("SLOTIFY_HTTP_TIMEOUT", 0),
		InsecureTLS:    getEnvAsBool("SLOTIFY_INSECURE_TLS", false),

		DismissDelay: getEnvAsDuration("SLOTIFY_DISMISS_DELAY", 2*time.Second),

		StubPort:      getEnv("STUB_PORT", "7208"),
		StubStore:     strings.ToLower(strings.TrimSpace(getEnv("STUB_STORE", "memory"))),
		StubRateLimit: getEnvAsFloat("STUB_RATE_LIMIT", 20),
		StubRateBurst: getEnvAsInt("STUB_RATE_BURST", 40),
		StubJWTSecret: getEnv("STUB_JWT_SECRET", "dev-secret"),
		StubCORS:      getEnvAsList("STUB_CORS_ORIGINS", "*"),
		StubSeedDays:  getEnvAsInt("STUB_SEED_DAYS", 3),
		RedisAddr:     getEnv("REDIS_ADDR", "localhost:6379"),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
	}
}

// getEnv retrieves an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvAsInt retrieves an environment variable as an integer or returns a default value
func getEnvAsInt(key string, defaultValue int) int {
	valueStr := getEnv(key, "")
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	valueStr := getEnv(key, "")
	if value, err := strconv.ParseFloat(valueStr, 64); err == nil {
		return value
	}
	return defaultValue
}

// getEnvAsBool retrieves an environment variable as a boolean or returns a default value
func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := getEnv(key, "")
	if value, err := strconv.ParseBool(valueStr); err == nil {
		return value
	}
	return defaultValue
}

// getEnvAsList splits a comma-separated variable, dropping blanks.
func getEnvAsList(key, defaultValue string) []string {
	var out []string
	for _, part := range strings.Split(getEnv(key, defaultValue), ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}
	if value, err := time.ParseDuration(valueStr); err == nil {
		return value
	}
	return defaultValue
}
