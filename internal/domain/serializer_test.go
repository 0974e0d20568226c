package domain

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

func TestEventSerializer_DeserializePurchaseCreated(t *testing.T) {
	original := newCreatedPurchase(t, "purchase-1").GetUncommittedEvents()[0]
	data, err := json.Marshal(original)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	restored, err := NewEventSerializer().DeserializeEvent(EventTypePurchaseCreated, data)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	event, ok := restored.(*PurchaseCreatedEvent)
	if !ok {
		t.Fatalf("Expected PurchaseCreatedEvent, got %T", restored)
	}
	if event.AggregateID() != "purchase-1" {
		t.Errorf("Expected aggregate id purchase-1, got %s", event.AggregateID())
	}
	if event.ShipName != "Neptune" || event.ProductName != "Tuna" {
		t.Errorf("Expected Neptune/Tuna, got %s/%s", event.ShipName, event.ProductName)
	}
	if len(event.Details) != 1 || !event.Details[0].UnitPrice.Equal(decimal.NewFromInt(250)) {
		t.Errorf("Expected restored detail price, got %+v", event.Details)
	}
}

func TestEventSerializer_DeserializeStorageFeePaid(t *testing.T) {
	paidAt := time.Date(2025, 3, 20, 12, 0, 0, 0, time.UTC)
	data, err := json.Marshal(NewStorageFeePaidEvent("purchase-1", paidAt))
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	restored, err := NewEventSerializer().DeserializeEvent(EventTypeStorageFeePaid, data)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	event, ok := restored.(*StorageFeePaidEvent)
	if !ok {
		t.Fatalf("Expected StorageFeePaidEvent, got %T", restored)
	}
	if !event.PaidAt.Equal(paidAt) {
		t.Errorf("Expected paid at %v, got %v", paidAt, event.PaidAt)
	}
}

func TestEventSerializer_DeserializeFishSold(t *testing.T) {
	data, err := json.Marshal(NewFishSoldEvent("ITM-1", 5))
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	restored, err := NewEventSerializer().DeserializeEvent(EventTypeFishSold, data)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	event, ok := restored.(*FishSoldEvent)
	if !ok {
		t.Fatalf("Expected FishSoldEvent, got %T", restored)
	}
	if event.ItemID != "ITM-1" || event.Quantity != 5 {
		t.Errorf("Expected ITM-1/5, got %s/%d", event.ItemID, event.Quantity)
	}
	if event.AggregateID() != "ITM-1" {
		t.Errorf("Expected aggregate id ITM-1, got %s", event.AggregateID())
	}
}

func TestEventSerializer_UnknownType(t *testing.T) {
	if _, err := NewEventSerializer().DeserializeEvent("unknown.event", []byte(`{}`)); err == nil {
		t.Error("Expected error for unknown event type")
	}
}
