package domain

import (
	"time"

	"github.com/akriventsev/fishmarket/internal/events"
)

// Типы доменных событий
const (
	EventTypePurchaseCreated = "purchase.created"
	EventTypeStorageFeePaid  = "purchase.storage_fee_paid"
	EventTypeFishSold        = "item.fish_sold"
)

// PurchaseCreatedEvent факт создания закупки: полный снимок полей на момент создания
type PurchaseCreatedEvent struct {
	*events.BaseEvent
	PurchaseID           string           `json:"purchase_id"`
	PurchaseType         string           `json:"purchase_type"`
	PurchaseDate         time.Time        `json:"purchase_date"`
	WarehouseArrivalDate time.Time        `json:"warehouse_arrival_date"`
	StorageFeeDueDate    time.Time        `json:"storage_fee_due_date"`
	ShipName             string           `json:"ship_name"`
	ProductName          string           `json:"product_name"`
	Account              AccountReference `json:"account"`
	Details              []PurchaseDetail `json:"details"`
}

// NewPurchaseCreatedEvent создает событие создания закупки
func NewPurchaseCreatedEvent(
	purchaseID, purchaseType string,
	purchaseDate, warehouseArrivalDate, storageFeeDueDate time.Time,
	shipName, productName string,
	account AccountReference,
	details []PurchaseDetail,
) *PurchaseCreatedEvent {
	return &PurchaseCreatedEvent{
		BaseEvent:            events.NewBaseEvent(EventTypePurchaseCreated, purchaseID),
		PurchaseID:           purchaseID,
		PurchaseType:         purchaseType,
		PurchaseDate:         purchaseDate,
		WarehouseArrivalDate: warehouseArrivalDate,
		StorageFeeDueDate:    storageFeeDueDate,
		ShipName:             shipName,
		ProductName:          productName,
		Account:              account,
		Details:              append([]PurchaseDetail(nil), details...),
	}
}

// StorageFeePaidEvent факт оплаты сбора за хранение
type StorageFeePaidEvent struct {
	*events.BaseEvent
	PurchaseID string    `json:"purchase_id"`
	PaidAt     time.Time `json:"paid_at"`
}

// NewStorageFeePaidEvent создает событие оплаты сбора за хранение
func NewStorageFeePaidEvent(purchaseID string, paidAt time.Time) *StorageFeePaidEvent {
	return &StorageFeePaidEvent{
		BaseEvent:  events.NewBaseEvent(EventTypeStorageFeePaid, purchaseID),
		PurchaseID: purchaseID,
		PaidAt:     paidAt,
	}
}

// FishSoldEvent факт продажи остатка товара
type FishSoldEvent struct {
	*events.BaseEvent
	ItemID   string `json:"item_id"`
	Quantity int64  `json:"quantity"`
}

// NewFishSoldEvent создает событие продажи
func NewFishSoldEvent(itemID string, quantity int64) *FishSoldEvent {
	return &FishSoldEvent{
		BaseEvent: events.NewBaseEvent(EventTypeFishSold, itemID),
		ItemID:    itemID,
		Quantity:  quantity,
	}
}
