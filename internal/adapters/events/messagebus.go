// Package events предоставляет адаптеры для публикации доменных событий.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/akriventsev/fishmarket/internal/core"
	"github.com/akriventsev/fishmarket/internal/events"
	"github.com/akriventsev/fishmarket/internal/transport"
)

// MessageBusPublisherConfig конфигурация публикатора событий через MessageBus
type MessageBusPublisherConfig struct {
	Bus         transport.Publisher
	Topic       string
	Serializer  transport.MessageSerializer
	RetryPolicy events.RetryConfig
}

// DefaultMessageBusPublisherConfig возвращает конфигурацию по умолчанию
func DefaultMessageBusPublisherConfig() MessageBusPublisherConfig {
	return MessageBusPublisherConfig{
		Topic:       "purchase-events",
		RetryPolicy: events.DefaultRetryConfig(),
	}
}

// MessageBusPublisher публикует доменные события в topic message bus.
// Событие сериализуется в JSON envelope, метаданные события уходят
// в headers сообщения.
type MessageBusPublisher struct {
	config MessageBusPublisherConfig
	bus    transport.Publisher
}

// NewMessageBusPublisher создает новый публикатор событий
func NewMessageBusPublisher(config MessageBusPublisherConfig) (*MessageBusPublisher, error) {
	if config.Bus == nil {
		return nil, fmt.Errorf("message bus is required")
	}
	if config.Topic == "" {
		config.Topic = "purchase-events"
	}
	if config.RetryPolicy.MaxAttempts <= 0 {
		config.RetryPolicy = events.DefaultRetryConfig()
	}

	return &MessageBusPublisher{
		config: config,
		bus:    config.Bus,
	}, nil
}

// Publish публикует событие с retry. Ошибка транспорта после исчерпания
// попыток возвращается как PublishError.
func (p *MessageBusPublisher) Publish(ctx context.Context, event events.Event) error {
	data, err := p.serializeEvent(event)
	if err != nil {
		return core.NewPublishError("failed to serialize event", err)
	}

	headers := buildHeaders(event)

	if err := p.publishWithRetry(ctx, data, headers); err != nil {
		return core.NewPublishError(
			fmt.Sprintf("failed to publish event %s to %s", event.EventID(), p.config.Topic), err)
	}
	return nil
}

// serializeEvent сериализует событие в JSON envelope: базовые поля
// события объединяются с payload конкретного типа
func (p *MessageBusPublisher) serializeEvent(event events.Event) ([]byte, error) {
	if p.config.Serializer != nil {
		return p.config.Serializer.Serialize(event)
	}

	envelope := map[string]interface{}{
		"event_id":     event.EventID(),
		"event_type":   event.EventType(),
		"aggregate_id": event.AggregateID(),
		"occurred_at":  event.OccurredAt().Format(time.RFC3339Nano),
	}
	if metadata := event.Metadata(); len(metadata) > 0 {
		envelope["metadata"] = metadata
	}

	payload, err := json.Marshal(event)
	if err != nil {
		return nil, err
	}

	var fields map[string]interface{}
	if err := json.Unmarshal(payload, &fields); err != nil {
		return nil, err
	}
	for k, v := range fields {
		if _, exists := envelope[k]; !exists {
			envelope[k] = v
		}
	}

	return json.Marshal(envelope)
}

// buildHeaders формирует headers из метаданных события
func buildHeaders(event events.Event) map[string]string {
	headers := map[string]string{
		"event_id":     event.EventID(),
		"event_type":   event.EventType(),
		"aggregate_id": event.AggregateID(),
	}

	if metadata := event.Metadata(); metadata != nil {
		if correlationID := metadata.CorrelationID(); correlationID != "" {
			headers["correlation_id"] = correlationID
		}
		if causationID := metadata.CausationID(); causationID != "" {
			headers["causation_id"] = causationID
		}
	}

	return headers
}

// publishWithRetry публикует сообщение с экспоненциальным backoff
func (p *MessageBusPublisher) publishWithRetry(ctx context.Context, data []byte, headers map[string]string) error {
	retry := p.config.RetryPolicy
	delay := retry.InitialDelay

	var lastErr error
	for attempt := 0; attempt < retry.MaxAttempts; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(delay):
			}

			delay = time.Duration(float64(delay) * retry.BackoffMultiplier)
			if delay > retry.MaxDelay {
				delay = retry.MaxDelay
			}
		}

		lastErr = p.bus.Publish(ctx, p.config.Topic, data, headers)
		if lastErr == nil {
			return nil
		}
	}

	return fmt.Errorf("publish failed after %d attempts: %w", retry.MaxAttempts, lastErr)
}
