package eventsourcing

import (
	"context"
	"errors"
	"testing"

	"github.com/akriventsev/fishmarket/internal/core"
	"github.com/akriventsev/fishmarket/internal/events"
)

// counterAggregate простой агрегат для тестирования репозитория
type counterAggregate struct {
	*EventSourcedAggregate
	count int
}

func newCounterAggregate(id string) *counterAggregate {
	a := &counterAggregate{
		EventSourcedAggregate: NewEventSourcedAggregate(id),
	}
	a.SetApplier(a)
	return a
}

func (a *counterAggregate) Increment() error {
	return a.RaiseEvent(newMockEvent("event", a.ID()))
}

func (a *counterAggregate) Apply(event events.Event) error {
	a.count++
	return nil
}

func newCounterRepository() *Repository[*counterAggregate] {
	return NewRepository(NewInMemoryEventStore(), newCounterAggregate)
}

func TestRepository_SaveAndLoad(t *testing.T) {
	repo := newCounterRepository()
	ctx := context.Background()

	aggregate := newCounterAggregate("counter-1")
	_ = aggregate.Increment()
	_ = aggregate.Increment()

	if err := repo.Save(ctx, aggregate); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if len(aggregate.GetUncommittedEvents()) != 0 {
		t.Error("Expected uncommitted events to be cleared after save")
	}

	loaded, err := repo.GetByID(ctx, "counter-1")
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if loaded.count != 2 {
		t.Errorf("Expected count 2 after replay, got %d", loaded.count)
	}
	if loaded.Version() != 2 {
		t.Errorf("Expected version 2, got %d", loaded.Version())
	}
}

func TestRepository_GetByID_NotFound(t *testing.T) {
	repo := newCounterRepository()

	_, err := repo.GetByID(context.Background(), "missing")
	if core.CodeOf(err) != core.CodeNotFound {
		t.Errorf("Expected NOT_FOUND, got %v", err)
	}
}

func TestRepository_Save_ConcurrencyConflict(t *testing.T) {
	store := NewInMemoryEventStore()
	repo := NewRepository(store, newCounterAggregate)
	ctx := context.Background()

	first := newCounterAggregate("counter-1")
	_ = first.Increment()
	if err := repo.Save(ctx, first); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	// Второй экземпляр не знает о первом сохранении
	stale := newCounterAggregate("counter-1")
	_ = stale.Increment()

	err := repo.Save(ctx, stale)
	if core.CodeOf(err) != core.CodeConflict {
		t.Errorf("Expected CONFLICT, got %v", err)
	}
	if !errors.Is(err, ErrConcurrencyConflict) {
		t.Errorf("Expected wrapped ErrConcurrencyConflict, got %v", err)
	}
}

func TestRepository_Exists(t *testing.T) {
	repo := newCounterRepository()
	ctx := context.Background()

	exists, err := repo.Exists(ctx, "counter-1")
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if exists {
		t.Error("Expected aggregate to not exist")
	}

	aggregate := newCounterAggregate("counter-1")
	_ = aggregate.Increment()
	if err := repo.Save(ctx, aggregate); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	exists, err = repo.Exists(ctx, "counter-1")
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if !exists {
		t.Error("Expected aggregate to exist")
	}
}
