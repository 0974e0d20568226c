package messagebus

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/akriventsev/fishmarket/internal/transport"
)

// KafkaConfig конфигурация для Kafka адаптера
type KafkaConfig struct {
	Brokers       []string
	GroupID       string
	BatchSize     int
	FlushInterval time.Duration
	RequiredAcks  int // 0, 1, -1 (all)
	StartOffset   int64
}

// Validate проверяет корректность конфигурации
func (c KafkaConfig) Validate() error {
	if len(c.Brokers) == 0 {
		return fmt.Errorf("brokers cannot be empty")
	}
	for i, broker := range c.Brokers {
		if !strings.Contains(broker, ":") {
			return fmt.Errorf("broker[%d] must be in format host:port", i)
		}
	}
	return nil
}

// DefaultKafkaConfig возвращает конфигурацию Kafka по умолчанию
func DefaultKafkaConfig() KafkaConfig {
	return KafkaConfig{
		Brokers:       []string{"localhost:9092"},
		GroupID:       "fishmarket",
		BatchSize:     100,
		FlushInterval: 10 * time.Millisecond,
		RequiredAcks:  -1,
		StartOffset:   kafka.LastOffset,
	}
}

// KafkaAdapter реализация MessageBus через Kafka.
// Subject отображается на topic, aggregate_id из headers используется
// как ключ сообщения для сохранения порядка внутри партиции.
type KafkaAdapter struct {
	config  KafkaConfig
	writer  *kafka.Writer
	readers map[string]*kafka.Reader
	cancels map[string]context.CancelFunc
	mu      sync.RWMutex
	running bool
}

// NewKafkaAdapter создает новый Kafka адаптер
func NewKafkaAdapter(config KafkaConfig) (*KafkaAdapter, error) {
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid kafka config: %w", err)
	}

	adapter := &KafkaAdapter{
		config:  config,
		readers: make(map[string]*kafka.Reader),
		cancels: make(map[string]context.CancelFunc),
	}

	adapter.writer = &kafka.Writer{
		Addr:         kafka.TCP(config.Brokers...),
		Balancer:     &kafka.Hash{},
		RequiredAcks: kafka.RequiredAcks(config.RequiredAcks),
		Async:        false,
		BatchSize:    config.BatchSize,
		BatchTimeout: config.FlushInterval,
	}

	return adapter, nil
}

// Start запускает адаптер
func (k *KafkaAdapter) Start(ctx context.Context) error {
	k.mu.Lock()
	defer k.mu.Unlock()
	k.running = true
	return nil
}

// Stop останавливает адаптер и закрывает writer и readers
func (k *KafkaAdapter) Stop(ctx context.Context) error {
	k.mu.Lock()
	defer k.mu.Unlock()

	if !k.running {
		return nil
	}

	for subject, cancel := range k.cancels {
		cancel()
		delete(k.cancels, subject)
	}
	for subject, reader := range k.readers {
		_ = reader.Close()
		delete(k.readers, subject)
	}

	k.running = false
	return k.writer.Close()
}

// IsRunning проверяет, запущен ли адаптер
func (k *KafkaAdapter) IsRunning() bool {
	k.mu.RLock()
	defer k.mu.RUnlock()
	return k.running
}

// Publish публикует сообщение в topic
func (k *KafkaAdapter) Publish(ctx context.Context, subject string, data []byte, headers map[string]string) error {
	k.mu.RLock()
	running := k.running
	k.mu.RUnlock()

	if !running {
		return fmt.Errorf("kafka adapter is not running")
	}

	msg := kafka.Message{
		Topic: subject,
		Value: data,
	}
	if key, ok := headers["aggregate_id"]; ok {
		msg.Key = []byte(key)
	}
	for name, value := range headers {
		msg.Headers = append(msg.Headers, kafka.Header{Key: name, Value: []byte(value)})
	}

	if err := k.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("failed to publish to %s: %w", subject, err)
	}
	return nil
}

// Subscribe подписывается на topic через consumer group
func (k *KafkaAdapter) Subscribe(ctx context.Context, subject string, handler transport.MessageHandler) error {
	k.mu.Lock()
	defer k.mu.Unlock()

	if !k.running {
		return fmt.Errorf("kafka adapter is not running")
	}
	if _, exists := k.readers[subject]; exists {
		return fmt.Errorf("already subscribed to %s", subject)
	}

	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:     k.config.Brokers,
		GroupID:     k.config.GroupID,
		Topic:       subject,
		StartOffset: k.config.StartOffset,
	})

	readCtx, cancel := context.WithCancel(ctx)
	k.readers[subject] = reader
	k.cancels[subject] = cancel

	go func() {
		for {
			msg, err := reader.ReadMessage(readCtx)
			if err != nil {
				return
			}

			headers := make(map[string]string, len(msg.Headers))
			for _, h := range msg.Headers {
				headers[h.Key] = string(h.Value)
			}

			_ = handler(readCtx, &transport.Message{
				Subject: subject,
				Data:    msg.Value,
				Headers: headers,
			})
		}
	}()

	return nil
}

// Unsubscribe отписывается от topic
func (k *KafkaAdapter) Unsubscribe(subject string) error {
	k.mu.Lock()
	defer k.mu.Unlock()

	if cancel, exists := k.cancels[subject]; exists {
		cancel()
		delete(k.cancels, subject)
	}
	reader, exists := k.readers[subject]
	if !exists {
		return nil
	}
	delete(k.readers, subject)
	return reader.Close()
}
