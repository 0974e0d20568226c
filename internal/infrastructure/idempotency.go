package infrastructure

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// InMemoryIdempotencyStore хранилище ключей идемпотентности в памяти
type InMemoryIdempotencyStore struct {
	mu   sync.RWMutex
	keys map[string]string
}

// NewInMemoryIdempotencyStore создает новое хранилище
func NewInMemoryIdempotencyStore() *InMemoryIdempotencyStore {
	return &InMemoryIdempotencyStore{keys: make(map[string]string)}
}

// Check возвращает результат ранее обработанного ключа
func (s *InMemoryIdempotencyStore) Check(ctx context.Context, key string) (string, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	result, ok := s.keys[key]
	return result, ok, nil
}

// Remember сохраняет результат обработки ключа
func (s *InMemoryIdempotencyStore) Remember(ctx context.Context, key, result string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.keys[key] = result
	return nil
}

// RedisIdempotencyStoreConfig конфигурация Redis хранилища ключей
type RedisIdempotencyStoreConfig struct {
	KeyPrefix string
	TTL       time.Duration
}

// DefaultRedisIdempotencyStoreConfig возвращает конфигурацию по умолчанию
func DefaultRedisIdempotencyStoreConfig() RedisIdempotencyStoreConfig {
	return RedisIdempotencyStoreConfig{
		KeyPrefix: "fishmarket:idempotency:",
		TTL:       24 * time.Hour,
	}
}

// RedisIdempotencyStore хранилище ключей идемпотентности в Redis.
// Ключи живут ограниченное время: повтор команды спустя TTL считается
// новой командой.
type RedisIdempotencyStore struct {
	client *redis.Client
	config RedisIdempotencyStoreConfig
}

// NewRedisIdempotencyStore создает новое хранилище поверх клиента Redis
func NewRedisIdempotencyStore(client *redis.Client, config RedisIdempotencyStoreConfig) (*RedisIdempotencyStore, error) {
	if client == nil {
		return nil, fmt.Errorf("redis client is required")
	}
	if config.KeyPrefix == "" {
		config.KeyPrefix = "fishmarket:idempotency:"
	}
	if config.TTL <= 0 {
		config.TTL = 24 * time.Hour
	}

	return &RedisIdempotencyStore{client: client, config: config}, nil
}

// Check возвращает результат ранее обработанного ключа
func (s *RedisIdempotencyStore) Check(ctx context.Context, key string) (string, bool, error) {
	result, err := s.client.Get(ctx, s.config.KeyPrefix+key).Result()
	if err == redis.Nil {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("failed to check idempotency key: %w", err)
	}
	return result, true, nil
}

// Remember сохраняет результат обработки ключа с TTL.
// SetNX не перетирает результат при гонке двух одинаковых команд.
func (s *RedisIdempotencyStore) Remember(ctx context.Context, key, result string) error {
	if err := s.client.SetNX(ctx, s.config.KeyPrefix+key, result, s.config.TTL).Err(); err != nil {
		return fmt.Errorf("failed to remember idempotency key: %w", err)
	}
	return nil
}
