// Package infrastructure содержит реализации портов сервиса закупок.
package infrastructure

import (
	"context"
	"sync"
)

// StaticAccountDirectory справочник счетов в памяти.
// Агрегат счета живет в отдельном bounded context; здесь достаточно
// проверки существования по известному списку идентификаторов.
type StaticAccountDirectory struct {
	mu       sync.RWMutex
	accounts map[string]struct{}
}

// NewStaticAccountDirectory создает справочник с начальным набором счетов
func NewStaticAccountDirectory(accountIDs ...string) *StaticAccountDirectory {
	d := &StaticAccountDirectory{accounts: make(map[string]struct{}, len(accountIDs))}
	for _, id := range accountIDs {
		d.accounts[id] = struct{}{}
	}
	return d
}

// Add регистрирует счет
func (d *StaticAccountDirectory) Add(accountID string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.accounts[accountID] = struct{}{}
}

// Exists проверяет существование счета
func (d *StaticAccountDirectory) Exists(ctx context.Context, accountID string) (bool, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	_, ok := d.accounts[accountID]
	return ok, nil
}

// StaticItemCatalog каталог товаров в памяти
type StaticItemCatalog struct {
	mu    sync.RWMutex
	items map[string]struct{}
}

// NewStaticItemCatalog создает каталог с начальным набором товаров
func NewStaticItemCatalog(itemIDs ...string) *StaticItemCatalog {
	c := &StaticItemCatalog{items: make(map[string]struct{}, len(itemIDs))}
	for _, id := range itemIDs {
		c.items[id] = struct{}{}
	}
	return c
}

// Add регистрирует товар
func (c *StaticItemCatalog) Add(itemID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.items[itemID] = struct{}{}
}

// Exists проверяет существование товара
func (c *StaticItemCatalog) Exists(ctx context.Context, itemID string) (bool, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	_, ok := c.items[itemID]
	return ok, nil
}
