// Package config reads process settings from the environment.
package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds environment-driven settings shared by the server and ingest commands.
type Config struct {
	Port      string
	LogLevel  string
	JWTSecret string // empty disables auth on indicator routes

	// Calendar
	CalendarFile     string // YAML holiday calendar; empty means weekends only
	MaxCalendarSteps int

	// Price cache
	CacheRefreshHour int
	CacheTimezone    *time.Location

	// Ingest
	IngestSymbols    []string
	IngestOutputSize int
	IngestRatePerMin int
}

// Load reads environment variables (optionally via .env) into Config.
func Load() (*Config, error) {
	// .env が無くても起動できるようにエラーは無視する
	_ = godotenv.Load()

	loc, err := time.LoadLocation(getEnv("CACHE_TIMEZONE", "UTC"))
	if err != nil {
		return nil, err
	}

	return &Config{
		Port:             getEnv("PORT", "8080"),
		LogLevel:         getEnv("LOG_LEVEL", "info"),
		JWTSecret:        os.Getenv("JWT_SECRET"),
		CalendarFile:     os.Getenv("CALENDAR_HOLIDAYS_FILE"),
		MaxCalendarSteps: getEnvInt("INDICATOR_MAX_CALENDAR_STEPS", 366),
		CacheRefreshHour: getEnvInt("CACHE_REFRESH_HOUR", 8),
		CacheTimezone:    loc,
		IngestSymbols:    splitAndTrim(getEnv("INGEST_SYMBOLS", "")),
		IngestOutputSize: getEnvInt("INGEST_OUTPUT_SIZE", 400),
		IngestRatePerMin: getEnvInt("INGEST_RATE_PER_MIN", 8),
	}, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
	}
	return defaultValue
}

func splitAndTrim(s string) []string {
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
