package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Command представляет команду: запрос на изменение состояния,
// валидируемый до порождения событий
type Command interface {
	CommandName() string
}

// PurchaseDetailInput строка закупки во входящей команде
type PurchaseDetailInput struct {
	ItemID    string          `json:"item_id"`
	Quantity  int64           `json:"quantity"`
	UnitPrice decimal.Decimal `json:"unit_price"`
}

// CreatePurchaseCommand запрос на создание закупки
type CreatePurchaseCommand struct {
	IdempotencyKey       string                `json:"idempotency_key,omitempty"`
	PurchaseType         string                `json:"purchase_type"`
	PurchaseDate         time.Time             `json:"purchase_date"`
	WarehouseArrivalDate time.Time             `json:"warehouse_arrival_date"`
	StorageFeeDueDate    time.Time             `json:"storage_fee_due_date"`
	ShipName             string                `json:"ship_name"`
	ProductName          string                `json:"product_name"`
	AccountID            string                `json:"account_id"`
	Details              []PurchaseDetailInput `json:"details"`
}

// CommandName возвращает имя команды
func (c CreatePurchaseCommand) CommandName() string {
	return "purchase.create"
}

// RecordSaleCommand запрос на регистрацию продажи остатка товара
type RecordSaleCommand struct {
	IdempotencyKey string `json:"idempotency_key,omitempty"`
	ItemID         string `json:"item_id"`
	Quantity       int64  `json:"quantity"`
}

// CommandName возвращает имя команды
func (c RecordSaleCommand) CommandName() string {
	return "item.record_sale"
}

// PayStorageFeeCommand запрос на отметку оплаты сбора за хранение
type PayStorageFeeCommand struct {
	PurchaseID string    `json:"purchase_id"`
	PaidAt     time.Time `json:"paid_at"`
}

// CommandName возвращает имя команды
func (c PayStorageFeeCommand) CommandName() string {
	return "purchase.pay_storage_fee"
}
