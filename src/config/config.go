package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// GlobalConfig carries everything the service reads from the environment.
// HOST and PORT are required; the integrations (RabbitMQ events, the postgres
// call archive) are enabled only when their variables are set, so the service
// can run fully in-memory.
type GlobalConfig struct {
	LogLevel string
	Host     string
	Port     string

	RabbitURL          string
	CallEventsExchange string

	DatabaseHost     string
	DatabasePort     int
	DatabaseUser     string
	DatabasePassword string
	DatabaseName     string

	SweepInterval time.Duration
	PresenceTTL   time.Duration
	RingTTL       time.Duration
	SessionTTL    time.Duration

	HistoryLimit int
}

func NewConfig() (GlobalConfig, error) {
	host := os.Getenv("HOST")
	if host == "" {
		return GlobalConfig{}, fmt.Errorf("HOST environment variable is required")
	}

	port := os.Getenv("PORT")
	if port == "" {
		return GlobalConfig{}, fmt.Errorf("PORT environment variable is required")
	}

	cfg := GlobalConfig{
		LogLevel: getEnv("LOG_LEVEL", "info"),
		Host:     host,
		Port:     port,

		RabbitURL:          os.Getenv("RABBITMQ_URL"),
		CallEventsExchange: getEnv("CALL_EVENTS_EXCHANGE", "call.events"),

		DatabaseHost:     os.Getenv("DATABASE_HOST"),
		DatabaseUser:     getEnv("DATABASE_USER", "postgres"),
		DatabasePassword: os.Getenv("DATABASE_PASSWORD"),
		DatabaseName:     getEnv("DATABASE_NAME", "signaling"),

		SweepInterval: getEnvAsDuration("SWEEP_INTERVAL", 30*time.Second),
		PresenceTTL:   getEnvAsDuration("PRESENCE_TTL", 2*time.Minute),
		RingTTL:       getEnvAsDuration("RING_TTL", time.Minute),
		SessionTTL:    getEnvAsDuration("SESSION_TTL", time.Hour),

		HistoryLimit: getEnvAsInt("HISTORY_LIMIT", 50),
	}

	dbPort, err := getEnvAsPort("DATABASE_PORT", 5432)
	if err != nil {
		return GlobalConfig{}, err
	}
	cfg.DatabasePort = dbPort

	return cfg, nil
}

// EventsEnabled reports whether a RabbitMQ broker is configured.
func (c *GlobalConfig) EventsEnabled() bool {
	return c.RabbitURL != ""
}

// ArchiveEnabled reports whether the postgres call archive is configured.
func (c *GlobalConfig) ArchiveEnabled() bool {
	return c.DatabaseHost != ""
}

// Helper functions

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsPort(key string, defaultValue int) (int, error) {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue, nil
	}
	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return 0, fmt.Errorf("%s must be a valid integer: %w", key, err)
	}
	return value, nil
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := os.Getenv(key)
	if value, err := time.ParseDuration(valueStr); err == nil {
		return value
	}
	return defaultValue
}
