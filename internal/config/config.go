// Package config загружает конфигурацию сервиса из переменных окружения.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Виды message bus
const (
	BusInMemory = "inmemory"
	BusNATS     = "nats"
	BusKafka    = "kafka"
)

// Config конфигурация сервиса
type Config struct {
	HTTPAddr string

	Bus          string
	NATSURL      string
	KafkaBrokers []string
	Topic        string

	PostgresDSN string
	RedisAddr   string

	PublishWorkers int
	PublishQueue   int
	PublishTimeout time.Duration

	// Начальное наполнение справочников внешних bounded context
	SeedAccounts []string
	SeedItems    []string
}

// Load читает конфигурацию из окружения
func Load() (*Config, error) {
	cfg := &Config{
		HTTPAddr:       getEnv("FISHMARKET_HTTP_ADDR", ":8080"),
		Bus:            getEnv("FISHMARKET_BUS", BusInMemory),
		NATSURL:        getEnv("FISHMARKET_NATS_URL", "nats://localhost:4222"),
		KafkaBrokers:   splitList(getEnv("FISHMARKET_KAFKA_BROKERS", "localhost:9092")),
		Topic:          getEnv("FISHMARKET_TOPIC", "purchase-events"),
		PostgresDSN:    os.Getenv("FISHMARKET_POSTGRES_DSN"),
		RedisAddr:      os.Getenv("FISHMARKET_REDIS_ADDR"),
		PublishWorkers: getEnvInt("FISHMARKET_PUBLISH_WORKERS", 4),
		PublishQueue:   getEnvInt("FISHMARKET_PUBLISH_QUEUE", 256),
		PublishTimeout: getEnvDuration("FISHMARKET_PUBLISH_TIMEOUT", 5*time.Second),
		SeedAccounts:   splitList(os.Getenv("FISHMARKET_ACCOUNTS")),
		SeedItems:      splitList(os.Getenv("FISHMARKET_ITEMS")),
	}

	switch cfg.Bus {
	case BusInMemory, BusNATS, BusKafka:
	default:
		return nil, fmt.Errorf("unknown bus kind: %s", cfg.Bus)
	}

	if cfg.PublishWorkers <= 0 {
		return nil, fmt.Errorf("publish workers must be positive, got %d", cfg.PublishWorkers)
	}

	return cfg, nil
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return fallback
	}
	return n
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return fallback
	}
	return d
}

func splitList(value string) []string {
	if value == "" {
		return nil
	}
	parts := strings.Split(value, ",")
	result := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			result = append(result, trimmed)
		}
	}
	return result
}
