// Package application содержит обработчики команд сервиса закупок.
//
// Обработчик превращает команду в переход состояния плюс последовательность
// доменных событий. Коллабораторы (справочник счетов, каталог товаров,
// публикатор событий) передаются явно через конструктор, без скрытого
// контейнера.
package application

import (
	"context"
)

// AccountDirectory справочник счетов из внешнего bounded context
type AccountDirectory interface {
	// Exists проверяет существование счета
	Exists(ctx context.Context, accountID string) (bool, error)
}

// ItemCatalog каталог товаров из внешнего bounded context
type ItemCatalog interface {
	// Exists проверяет существование товара
	Exists(ctx context.Context, itemID string) (bool, error)
}

// IdempotencyStore хранилище ключей идемпотентности.
// Повторная отправка команды с уже обработанным ключом не должна
// порождать дубликат события.
type IdempotencyStore interface {
	// Check возвращает результат ранее обработанного ключа
	Check(ctx context.Context, key string) (string, bool, error)
	// Remember сохраняет результат обработки ключа
	Remember(ctx context.Context, key, result string) error
}
