package domain

import (
	"encoding/json"
	"fmt"

	"github.com/akriventsev/fishmarket/internal/events"
)

// EventSerializer десериализует доменные события из jsonb хранилища.
// Envelope (event id, версия, occurred_at) хранится в колонках таблицы,
// авторитетен именно он; payload восстанавливает только данные события.
type EventSerializer struct{}

// NewEventSerializer создает новый сериализатор доменных событий
func NewEventSerializer() *EventSerializer {
	return &EventSerializer{}
}

// DeserializeEvent десериализует JSON данные в конкретный тип события
func (s *EventSerializer) DeserializeEvent(eventType string, data []byte) (events.Event, error) {
	switch eventType {
	case EventTypePurchaseCreated:
		var event PurchaseCreatedEvent
		if err := json.Unmarshal(data, &event); err != nil {
			return nil, fmt.Errorf("failed to unmarshal %s: %w", eventType, err)
		}
		event.BaseEvent = events.NewBaseEvent(eventType, event.PurchaseID)
		return &event, nil
	case EventTypeStorageFeePaid:
		var event StorageFeePaidEvent
		if err := json.Unmarshal(data, &event); err != nil {
			return nil, fmt.Errorf("failed to unmarshal %s: %w", eventType, err)
		}
		event.BaseEvent = events.NewBaseEvent(eventType, event.PurchaseID)
		return &event, nil
	case EventTypeFishSold:
		var event FishSoldEvent
		if err := json.Unmarshal(data, &event); err != nil {
			return nil, fmt.Errorf("failed to unmarshal %s: %w", eventType, err)
		}
		event.BaseEvent = events.NewBaseEvent(eventType, event.ItemID)
		return &event, nil
	default:
		return nil, fmt.Errorf("unknown event type: %s", eventType)
	}
}
