package eventsourcing

import (
	"fmt"

	"github.com/akriventsev/fishmarket/internal/events"
)

// EventApplier интерфейс для агрегатов, которые могут применять события
type EventApplier interface {
	// Apply применяет конкретное событие к состоянию агрегата
	Apply(event events.Event) error
}

// EventSourcedAggregate базовый тип для агрегатов с Event Sourcing
type EventSourcedAggregate struct {
	id                string
	version           int64
	uncommittedEvents []events.Event
	applier           EventApplier
}

// NewEventSourcedAggregate создает новый Event Sourced агрегат
func NewEventSourcedAggregate(id string) *EventSourcedAggregate {
	return &EventSourcedAggregate{
		id:                id,
		uncommittedEvents: make([]events.Event, 0),
	}
}

// SetApplier устанавливает EventApplier для агрегата
func (a *EventSourcedAggregate) SetApplier(applier EventApplier) {
	a.applier = applier
}

// ID возвращает идентификатор агрегата
func (a *EventSourcedAggregate) ID() string {
	return a.id
}

// Version возвращает текущую версию агрегата
func (a *EventSourcedAggregate) Version() int64 {
	return a.version
}

// RaiseEvent добавляет новое событие в uncommitted и сразу применяет его
func (a *EventSourcedAggregate) RaiseEvent(event events.Event) error {
	if err := a.Apply(event); err != nil {
		return fmt.Errorf("failed to apply event %s: %w", event.EventType(), err)
	}
	a.uncommittedEvents = append(a.uncommittedEvents, event)
	a.version++
	return nil
}

// Apply применяет событие к состоянию агрегата
func (a *EventSourcedAggregate) Apply(event events.Event) error {
	if a.applier == nil {
		return fmt.Errorf("event applier not set for aggregate %s", a.id)
	}
	return a.applier.Apply(event)
}

// LoadFromHistory восстанавливает состояние агрегата из истории событий
func (a *EventSourcedAggregate) LoadFromHistory(history []events.Event) error {
	for i, event := range history {
		if err := a.Apply(event); err != nil {
			return fmt.Errorf("failed to apply event at index %d: %w", i, err)
		}
		a.version++
	}
	return nil
}

// GetUncommittedEvents возвращает несохраненные события
func (a *EventSourcedAggregate) GetUncommittedEvents() []events.Event {
	return a.uncommittedEvents
}

// MarkEventsAsCommitted очищает uncommitted события после сохранения
func (a *EventSourcedAggregate) MarkEventsAsCommitted() {
	a.uncommittedEvents = make([]events.Event, 0)
}

// SetVersion устанавливает версию агрегата (используется при загрузке)
func (a *EventSourcedAggregate) SetVersion(version int64) {
	a.version = version
}
