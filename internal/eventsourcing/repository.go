package eventsourcing

import (
	"context"
	"errors"
	"fmt"

	"github.com/akriventsev/fishmarket/internal/core"
	"github.com/akriventsev/fishmarket/internal/events"
)

// AggregateInterface интерфейс для Event Sourced агрегатов
type AggregateInterface interface {
	ID() string
	Version() int64
	GetUncommittedEvents() []events.Event
	MarkEventsAsCommitted()
	SetVersion(int64)
	Apply(events.Event) error
}

// AggregateFactory фабричная функция для создания агрегатов
type AggregateFactory[T AggregateInterface] func(id string) T

// Repository generic репозиторий для Event Sourced агрегатов
type Repository[T AggregateInterface] struct {
	eventStore EventStore
	factory    AggregateFactory[T]
}

// NewRepository создает новый Event Sourced репозиторий
func NewRepository[T AggregateInterface](eventStore EventStore, factory AggregateFactory[T]) *Repository[T] {
	return &Repository[T]{
		eventStore: eventStore,
		factory:    factory,
	}
}

// Save сохраняет агрегат, добавляя uncommitted события в EventStore
func (r *Repository[T]) Save(ctx context.Context, aggregate T) error {
	uncommitted := aggregate.GetUncommittedEvents()
	if len(uncommitted) == 0 {
		return nil
	}

	expectedVersion := aggregate.Version() - int64(len(uncommitted))
	if expectedVersion < 0 {
		expectedVersion = 0
	}

	if err := r.eventStore.AppendEvents(ctx, aggregate.ID(), expectedVersion, uncommitted); err != nil {
		if errors.Is(err, ErrConcurrencyConflict) {
			return core.Wrap(err, core.CodeConflict, fmt.Sprintf("aggregate %s was modified concurrently", aggregate.ID()))
		}
		return fmt.Errorf("failed to append events: %w", err)
	}

	aggregate.MarkEventsAsCommitted()
	return nil
}

// GetByID загружает агрегат по ID, восстанавливая состояние из событий
func (r *Repository[T]) GetByID(ctx context.Context, aggregateID string) (T, error) {
	var zero T

	stored, err := r.eventStore.GetEvents(ctx, aggregateID, 0)
	if err != nil {
		if errors.Is(err, ErrStreamNotFound) {
			return zero, core.NewNotFoundError("aggregate not found: %s", aggregateID)
		}
		return zero, fmt.Errorf("failed to get events: %w", err)
	}
	if len(stored) == 0 {
		return zero, core.NewNotFoundError("aggregate not found: %s", aggregateID)
	}

	aggregate := r.factory(aggregateID)
	for _, event := range stored {
		if event.EventData == nil {
			continue
		}
		if err := aggregate.Apply(event.EventData); err != nil {
			return zero, fmt.Errorf("failed to apply event %s: %w", event.ID, err)
		}
		aggregate.SetVersion(aggregate.Version() + 1)
	}

	return aggregate, nil
}

// Exists проверяет существование агрегата
func (r *Repository[T]) Exists(ctx context.Context, aggregateID string) (bool, error) {
	stored, err := r.eventStore.GetEvents(ctx, aggregateID, 0)
	if err != nil {
		if errors.Is(err, ErrStreamNotFound) {
			return false, nil
		}
		return false, err
	}
	return len(stored) > 0, nil
}
