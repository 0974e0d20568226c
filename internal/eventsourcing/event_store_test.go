package eventsourcing

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/akriventsev/fishmarket/internal/events"
)

// MockEvent для тестирования
type MockEvent struct {
	eventID     string
	eventType   string
	aggregateID string
	occurredAt  time.Time
	metadata    events.EventMetadata
}

func (e *MockEvent) EventID() string                { return e.eventID }
func (e *MockEvent) EventType() string              { return e.eventType }
func (e *MockEvent) OccurredAt() time.Time          { return e.occurredAt }
func (e *MockEvent) AggregateID() string            { return e.aggregateID }
func (e *MockEvent) Metadata() events.EventMetadata { return e.metadata }

func newMockEvent(eventID, aggregateID string) *MockEvent {
	return &MockEvent{
		eventID:     eventID,
		eventType:   "test.event",
		aggregateID: aggregateID,
		occurredAt:  time.Now(),
		metadata:    make(events.EventMetadata),
	}
}

func TestInMemoryEventStore_AppendEvents(t *testing.T) {
	store := NewInMemoryEventStore()
	ctx := context.Background()

	batch := []events.Event{
		newMockEvent("event-1", "purchase-1"),
		newMockEvent("event-2", "purchase-1"),
	}

	if err := store.AppendEvents(ctx, "purchase-1", 0, batch); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	stored, err := store.GetEvents(ctx, "purchase-1", 0)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	if len(stored) != 2 {
		t.Fatalf("Expected 2 events, got %d", len(stored))
	}
	if stored[0].Version != 1 || stored[1].Version != 2 {
		t.Errorf("Expected versions 1 and 2, got %d and %d", stored[0].Version, stored[1].Version)
	}
}

func TestInMemoryEventStore_ConcurrencyConflict(t *testing.T) {
	store := NewInMemoryEventStore()
	ctx := context.Background()

	if err := store.AppendEvents(ctx, "purchase-1", 0, []events.Event{newMockEvent("event-1", "purchase-1")}); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	// Повторный append с устаревшей версией должен конфликтовать
	err := store.AppendEvents(ctx, "purchase-1", 0, []events.Event{newMockEvent("event-2", "purchase-1")})
	if !errors.Is(err, ErrConcurrencyConflict) {
		t.Errorf("Expected ErrConcurrencyConflict, got %v", err)
	}
}

func TestInMemoryEventStore_StreamNotFound(t *testing.T) {
	store := NewInMemoryEventStore()

	_, err := store.GetEvents(context.Background(), "missing", 0)
	if !errors.Is(err, ErrStreamNotFound) {
		t.Errorf("Expected ErrStreamNotFound, got %v", err)
	}
}

func TestInMemoryEventStore_GetEventsFromVersion(t *testing.T) {
	store := NewInMemoryEventStore()
	ctx := context.Background()

	batch := []events.Event{
		newMockEvent("event-1", "purchase-1"),
		newMockEvent("event-2", "purchase-1"),
		newMockEvent("event-3", "purchase-1"),
	}
	if err := store.AppendEvents(ctx, "purchase-1", 0, batch); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	stored, err := store.GetEvents(ctx, "purchase-1", 2)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if len(stored) != 2 {
		t.Errorf("Expected 2 events from version 2, got %d", len(stored))
	}
}
