package eventsourcing

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/akriventsev/fishmarket/internal/events"
)

// InMemoryEventStore реализация EventStore в памяти для тестирования и разработки
type InMemoryEventStore struct {
	mu      sync.RWMutex
	streams map[string][]StoredEvent
}

// NewInMemoryEventStore создает новый InMemory Event Store
func NewInMemoryEventStore() *InMemoryEventStore {
	return &InMemoryEventStore{
		streams: make(map[string][]StoredEvent),
	}
}

// AppendEvents добавляет события в поток агрегата
func (s *InMemoryEventStore) AppendEvents(ctx context.Context, aggregateID string, expectedVersion int64, newEvents []events.Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	stream := s.streams[aggregateID]
	currentVersion := int64(0)
	if len(stream) > 0 {
		currentVersion = stream[len(stream)-1].Version
	}

	if expectedVersion != currentVersion {
		return fmt.Errorf("%w: expected %d, got %d", ErrConcurrencyConflict, expectedVersion, currentVersion)
	}

	for i, event := range newEvents {
		stream = append(stream, StoredEvent{
			ID:          event.EventID(),
			AggregateID: aggregateID,
			EventType:   event.EventType(),
			EventData:   event,
			Metadata:    event.Metadata(),
			Version:     expectedVersion + int64(i) + 1,
			OccurredAt:  event.OccurredAt(),
			CreatedAt:   time.Now(),
		})
	}

	s.streams[aggregateID] = stream
	return nil
}

// GetEvents возвращает события агрегата начиная с указанной версии
func (s *InMemoryEventStore) GetEvents(ctx context.Context, aggregateID string, fromVersion int64) ([]StoredEvent, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stream, exists := s.streams[aggregateID]
	if !exists {
		return nil, ErrStreamNotFound
	}

	var result []StoredEvent
	for _, event := range stream {
		if event.Version >= fromVersion {
			result = append(result, event)
		}
	}

	return result, nil
}

// Clear очищает все события (для тестов)
func (s *InMemoryEventStore) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.streams = make(map[string][]StoredEvent)
}
