package api

import (
	"time"

	"github.com/akriventsev/fishmarket/internal/domain"
)

// purchaseResponse представление закупки в HTTP ответах
type purchaseResponse struct {
	ID                   string                  `json:"id"`
	Version              int64                   `json:"version"`
	PurchaseType         string                  `json:"purchase_type"`
	PurchaseDate         time.Time               `json:"purchase_date"`
	WarehouseArrivalDate time.Time               `json:"warehouse_arrival_date"`
	StorageFeeDueDate    time.Time               `json:"storage_fee_due_date"`
	StorageFeePaid       bool                    `json:"storage_fee_paid"`
	ShipName             string                  `json:"ship_name"`
	ProductName          string                  `json:"product_name"`
	AccountID            string                  `json:"account_id"`
	Details              []domain.PurchaseDetail `json:"details"`
}

func purchaseToResponse(p *domain.Purchase) purchaseResponse {
	return purchaseResponse{
		ID:                   p.ID(),
		Version:              p.Version(),
		PurchaseType:         p.PurchaseType(),
		PurchaseDate:         p.PurchaseDate(),
		WarehouseArrivalDate: p.WarehouseArrivalDate(),
		StorageFeeDueDate:    p.StorageFeeDueDate(),
		StorageFeePaid:       p.StorageFeePaid(),
		ShipName:             p.ShipName(),
		ProductName:          p.ProductName(),
		AccountID:            p.Account().AccountID,
		Details:              p.Details(),
	}
}
