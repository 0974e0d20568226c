package domain

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/akriventsev/fishmarket/internal/core"
)

func testPurchaseDates() (time.Time, time.Time, time.Time) {
	purchaseDate := time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC)
	arrivalDate := purchaseDate.AddDate(0, 0, 3)
	dueDate := arrivalDate.AddDate(0, 0, 14)
	return purchaseDate, arrivalDate, dueDate
}

func newCreatedPurchase(t *testing.T, id string) *Purchase {
	t.Helper()

	account, err := NewAccountReference("A-1")
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	purchaseDate, arrivalDate, dueDate := testPurchaseDates()
	purchase := NewPurchase(id)
	err = purchase.Create("auction", purchaseDate, arrivalDate, dueDate,
		"Neptune", "Tuna", account, []PurchaseDetail{
			{ID: "detail-1", ItemID: "ITM-7", Quantity: 10, UnitPrice: decimal.NewFromInt(250)},
		})
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	return purchase
}

func TestPurchase_Create(t *testing.T) {
	purchase := newCreatedPurchase(t, "purchase-1")

	if !purchase.IsCreated() {
		t.Error("Expected purchase to be created")
	}
	if purchase.Version() != 1 {
		t.Errorf("Expected version 1, got %d", purchase.Version())
	}

	uncommitted := purchase.GetUncommittedEvents()
	if len(uncommitted) != 1 {
		t.Fatalf("Expected exactly 1 event, got %d", len(uncommitted))
	}

	event, ok := uncommitted[0].(*PurchaseCreatedEvent)
	if !ok {
		t.Fatalf("Expected PurchaseCreatedEvent, got %T", uncommitted[0])
	}
	if event.EventType() != EventTypePurchaseCreated {
		t.Errorf("Expected event type %s, got %s", EventTypePurchaseCreated, event.EventType())
	}
	if event.AggregateID() != "purchase-1" {
		t.Errorf("Expected aggregate id purchase-1, got %s", event.AggregateID())
	}

	// Событие несет полный снимок полей закупки
	if event.ShipName != "Neptune" || event.ProductName != "Tuna" {
		t.Errorf("Expected snapshot Neptune/Tuna, got %s/%s", event.ShipName, event.ProductName)
	}
	if event.Account.AccountID != "A-1" {
		t.Errorf("Expected account A-1, got %s", event.Account.AccountID)
	}
	if len(event.Details) != 1 || event.Details[0].ItemID != "ITM-7" {
		t.Errorf("Expected detail ITM-7, got %+v", event.Details)
	}
}

func TestPurchase_Create_Twice(t *testing.T) {
	purchase := newCreatedPurchase(t, "purchase-1")

	account, _ := NewAccountReference("A-1")
	purchaseDate, arrivalDate, dueDate := testPurchaseDates()
	err := purchase.Create("auction", purchaseDate, arrivalDate, dueDate,
		"Neptune", "Tuna", account, nil)
	if core.CodeOf(err) != core.CodeConflict {
		t.Errorf("Expected CONFLICT on second create, got %v", err)
	}
}

func TestPurchase_PayStorageFee(t *testing.T) {
	purchase := newCreatedPurchase(t, "purchase-1")
	paidAt := time.Date(2025, 3, 20, 0, 0, 0, 0, time.UTC)

	if err := purchase.PayStorageFee(paidAt); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if !purchase.StorageFeePaid() {
		t.Error("Expected storage fee to be paid")
	}
	if purchase.Version() != 2 {
		t.Errorf("Expected version 2, got %d", purchase.Version())
	}

	// Повторная оплата запрещена
	err := purchase.PayStorageFee(paidAt)
	if core.CodeOf(err) != core.CodeConflict {
		t.Errorf("Expected CONFLICT on double payment, got %v", err)
	}
}

func TestPurchase_PayStorageFee_BeforeCreate(t *testing.T) {
	purchase := NewPurchase("purchase-1")

	err := purchase.PayStorageFee(time.Now())
	if core.CodeOf(err) != core.CodeConflict {
		t.Errorf("Expected CONFLICT, got %v", err)
	}
}

func TestPurchase_ReplayFromHistory(t *testing.T) {
	original := newCreatedPurchase(t, "purchase-1")
	_ = original.PayStorageFee(time.Date(2025, 3, 20, 0, 0, 0, 0, time.UTC))

	replayed := NewPurchase("purchase-1")
	if err := replayed.LoadFromHistory(original.GetUncommittedEvents()); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	if replayed.ShipName() != "Neptune" {
		t.Errorf("Expected ship name Neptune, got %s", replayed.ShipName())
	}
	if !replayed.StorageFeePaid() {
		t.Error("Expected storage fee paid after replay")
	}
	if replayed.Version() != original.Version() {
		t.Errorf("Expected version %d, got %d", original.Version(), replayed.Version())
	}
}

func TestAccountReference_Equality(t *testing.T) {
	a, _ := NewAccountReference("A-1")
	b, _ := NewAccountReference("A-1")
	c, _ := NewAccountReference("A-2")

	if !a.Equals(b) {
		t.Error("Expected references with same id to be equal")
	}
	if a.Equals(c) {
		t.Error("Expected references with different ids to differ")
	}

	if _, err := NewAccountReference(""); core.CodeOf(err) != core.CodeValidationFailed {
		t.Errorf("Expected VALIDATION_FAILED for empty id, got %v", err)
	}
}
