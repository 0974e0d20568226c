// Package eventsourcing предоставляет хранение и воспроизведение доменных событий.
package eventsourcing

import (
	"context"
	"errors"
	"time"

	"github.com/akriventsev/fishmarket/internal/events"
)

var (
	// ErrConcurrencyConflict возникает при конфликте версий при сохранении событий
	ErrConcurrencyConflict = errors.New("concurrency conflict: expected version does not match current version")
	// ErrStreamNotFound возникает когда поток событий агрегата не найден
	ErrStreamNotFound = errors.New("event stream not found")
)

// StoredEvent представляет сохраненное событие с метаданными
type StoredEvent struct {
	ID          string
	AggregateID string
	EventType   string
	EventData   events.Event
	Metadata    map[string]interface{}
	Version     int64
	OccurredAt  time.Time
	CreatedAt   time.Time
}

// EventDeserializer интерфейс для десериализации событий из хранилища
type EventDeserializer interface {
	// DeserializeEvent десериализует JSON данные в конкретный тип события
	DeserializeEvent(eventType string, data []byte) (events.Event, error)
}

// EventStore интерфейс для хранения событий
type EventStore interface {
	// AppendEvents добавляет события в поток агрегата с проверкой версии
	// для оптимистичной конкурентности
	AppendEvents(ctx context.Context, aggregateID string, expectedVersion int64, events []events.Event) error

	// GetEvents возвращает все события агрегата начиная с указанной версии
	GetEvents(ctx context.Context, aggregateID string, fromVersion int64) ([]StoredEvent, error)
}
