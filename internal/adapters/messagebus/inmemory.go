// Package messagebus предоставляет адаптеры для различных message brokers.
package messagebus

import (
	"context"
	"sync"

	"github.com/akriventsev/fishmarket/internal/transport"
)

// InMemoryAdapter реализация MessageBus в памяти для тестирования и разработки.
// Доставка синхронная, порядок публикаций в subject сохраняется.
type InMemoryAdapter struct {
	mu          sync.RWMutex
	subscribers map[string][]transport.MessageHandler
}

// NewInMemoryAdapter создает новый InMemory адаптер
func NewInMemoryAdapter() *InMemoryAdapter {
	return &InMemoryAdapter{
		subscribers: make(map[string][]transport.MessageHandler),
	}
}

// Publish публикует сообщение в subject
func (i *InMemoryAdapter) Publish(ctx context.Context, subject string, data []byte, headers map[string]string) error {
	i.mu.RLock()
	handlers := append([]transport.MessageHandler(nil), i.subscribers[subject]...)
	i.mu.RUnlock()

	msg := &transport.Message{
		Subject: subject,
		Data:    data,
		Headers: headers,
	}

	for _, handler := range handlers {
		if err := handler(ctx, msg); err != nil {
			return err
		}
	}
	return nil
}

// Subscribe подписывается на subject
func (i *InMemoryAdapter) Subscribe(ctx context.Context, subject string, handler transport.MessageHandler) error {
	i.mu.Lock()
	defer i.mu.Unlock()
	i.subscribers[subject] = append(i.subscribers[subject], handler)
	return nil
}

// Unsubscribe отписывается от subject
func (i *InMemoryAdapter) Unsubscribe(subject string) error {
	i.mu.Lock()
	defer i.mu.Unlock()
	delete(i.subscribers, subject)
	return nil
}
