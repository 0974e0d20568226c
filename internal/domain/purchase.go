// Package domain содержит агрегат закупки и его команды и события.
package domain

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/akriventsev/fishmarket/internal/core"
	"github.com/akriventsev/fishmarket/internal/events"
	"github.com/akriventsev/fishmarket/internal/eventsourcing"
)

// AccountReference value object: ссылка на агрегат счета из внешнего
// bounded context. Сравнивается по значению, собственного жизненного
// цикла не имеет.
type AccountReference struct {
	AccountID string `json:"account_id"`
}

// NewAccountReference создает ссылку на счет
func NewAccountReference(accountID string) (AccountReference, error) {
	if accountID == "" {
		return AccountReference{}, core.NewValidationError("account id must not be empty")
	}
	return AccountReference{AccountID: accountID}, nil
}

// Equals сравнивает ссылки по значению
func (r AccountReference) Equals(other AccountReference) bool {
	return r.AccountID == other.AccountID
}

// PurchaseDetail строка закупки. Принадлежит ровно одной закупке и
// удаляется вместе с ней.
type PurchaseDetail struct {
	ID        string          `json:"id"`
	ItemID    string          `json:"item_id"`
	Quantity  int64           `json:"quantity"`
	UnitPrice decimal.Decimal `json:"unit_price"`
}

// Purchase Event Sourced агрегат закупки
type Purchase struct {
	*eventsourcing.EventSourcedAggregate
	purchaseType         string
	purchaseDate         time.Time
	warehouseArrivalDate time.Time
	storageFeeDueDate    time.Time
	storageFeePaid       bool
	shipName             string
	productName          string
	account              AccountReference
	details              []PurchaseDetail
	created              bool
}

// NewPurchase создает пустой агрегат закупки.
// Используется репозиторием для восстановления состояния из событий.
func NewPurchase(id string) *Purchase {
	p := &Purchase{
		EventSourcedAggregate: eventsourcing.NewEventSourcedAggregate(id),
	}
	p.SetApplier(p)
	return p
}

// Create переводит закупку из Draft в Created и порождает PurchaseCreated.
// Идентификатор назначается один раз; повторный вызов запрещен.
func (p *Purchase) Create(
	purchaseType string,
	purchaseDate, warehouseArrivalDate, storageFeeDueDate time.Time,
	shipName, productName string,
	account AccountReference,
	details []PurchaseDetail,
) error {
	if p.created {
		return core.NewConflictError("purchase %s already created", p.ID())
	}

	event := NewPurchaseCreatedEvent(p.ID(), purchaseType,
		purchaseDate, warehouseArrivalDate, storageFeeDueDate,
		shipName, productName, account, details)
	return p.RaiseEvent(event)
}

// PayStorageFee отмечает оплату сбора за хранение
func (p *Purchase) PayStorageFee(paidAt time.Time) error {
	if !p.created {
		return core.NewConflictError("purchase %s is not created yet", p.ID())
	}
	if p.storageFeePaid {
		return core.NewConflictError("storage fee for purchase %s already paid", p.ID())
	}

	event := NewStorageFeePaidEvent(p.ID(), paidAt)
	return p.RaiseEvent(event)
}

// Apply применяет события для восстановления состояния
func (p *Purchase) Apply(event events.Event) error {
	switch e := event.(type) {
	case *PurchaseCreatedEvent:
		p.purchaseType = e.PurchaseType
		p.purchaseDate = e.PurchaseDate
		p.warehouseArrivalDate = e.WarehouseArrivalDate
		p.storageFeeDueDate = e.StorageFeeDueDate
		p.shipName = e.ShipName
		p.productName = e.ProductName
		p.account = e.Account
		p.details = append([]PurchaseDetail(nil), e.Details...)
		p.storageFeePaid = false
		p.created = true
	case *StorageFeePaidEvent:
		p.storageFeePaid = true
	default:
		return fmt.Errorf("unknown event type %s for purchase %s", event.EventType(), p.ID())
	}
	return nil
}

// PurchaseType возвращает тип закупки
func (p *Purchase) PurchaseType() string {
	return p.purchaseType
}

// PurchaseDate возвращает дату закупки
func (p *Purchase) PurchaseDate() time.Time {
	return p.purchaseDate
}

// WarehouseArrivalDate возвращает дату прибытия на склад
func (p *Purchase) WarehouseArrivalDate() time.Time {
	return p.warehouseArrivalDate
}

// StorageFeeDueDate возвращает срок оплаты сбора за хранение
func (p *Purchase) StorageFeeDueDate() time.Time {
	return p.storageFeeDueDate
}

// StorageFeePaid возвращает признак оплаты сбора за хранение
func (p *Purchase) StorageFeePaid() bool {
	return p.storageFeePaid
}

// ShipName возвращает название судна
func (p *Purchase) ShipName() string {
	return p.shipName
}

// ProductName возвращает название продукта
func (p *Purchase) ProductName() string {
	return p.productName
}

// Account возвращает ссылку на счет
func (p *Purchase) Account() AccountReference {
	return p.account
}

// Details возвращает копию строк закупки
func (p *Purchase) Details() []PurchaseDetail {
	return append([]PurchaseDetail(nil), p.details...)
}

// IsCreated возвращает true после применения PurchaseCreated
func (p *Purchase) IsCreated() bool {
	return p.created
}
