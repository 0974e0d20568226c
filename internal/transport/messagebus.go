// Package transport предоставляет абстракции для работы с message bus.
package transport

import (
	"context"
	"encoding/json"
)

// Message представляет сообщение в очереди
type Message struct {
	Subject string
	Data    []byte
	Headers map[string]string
}

// MessageHandler обработчик сообщений
type MessageHandler func(ctx context.Context, msg *Message) error

// MessageSerializer интерфейс для сериализации сообщений
type MessageSerializer interface {
	// Serialize сериализует сообщение
	Serialize(msg interface{}) ([]byte, error)
	// Deserialize десериализует сообщение
	Deserialize(data []byte, msg interface{}) error
}

// Publisher публикатор сообщений
type Publisher interface {
	// Publish публикует сообщение в subject
	Publish(ctx context.Context, subject string, data []byte, headers map[string]string) error
}

// Subscriber подписчик на сообщения
type Subscriber interface {
	// Subscribe подписывается на subject и вызывает handler при получении сообщения
	Subscribe(ctx context.Context, subject string, handler MessageHandler) error
	// Unsubscribe отписывается от subject
	Unsubscribe(subject string) error
}

// MessageBus объединяет возможности публикации и подписки
type MessageBus interface {
	Publisher
	Subscriber
}

// JSONSerializer реализация MessageSerializer для JSON
type JSONSerializer struct{}

// Serialize сериализует сообщение в JSON
func (j *JSONSerializer) Serialize(msg interface{}) ([]byte, error) {
	return json.Marshal(msg)
}

// Deserialize десериализует JSON в сообщение
func (j *JSONSerializer) Deserialize(data []byte, msg interface{}) error {
	return json.Unmarshal(data, msg)
}
