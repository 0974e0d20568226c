package api

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/akriventsev/fishmarket/internal/application"
	"github.com/akriventsev/fishmarket/internal/domain"
	"github.com/akriventsev/fishmarket/internal/events"
	"github.com/akriventsev/fishmarket/internal/eventsourcing"
	"github.com/akriventsev/fishmarket/internal/infrastructure"
)

func newTestServer() *Server {
	repo := eventsourcing.NewRepository(eventsourcing.NewInMemoryEventStore(), domain.NewPurchase)
	accounts := infrastructure.NewStaticAccountDirectory("A-1")
	items := infrastructure.NewStaticItemCatalog("ITM-1")
	publisher := events.NewCollectingPublisher()
	idempotency := infrastructure.NewInMemoryIdempotencyStore()

	return NewServer(
		application.NewCreatePurchaseHandler(repo, accounts, publisher, idempotency, nil, nil),
		application.NewPayStorageFeeHandler(repo, publisher, nil, nil),
		application.NewRecordSaleHandler(items, publisher, idempotency, nil, nil),
		repo,
		nil,
	)
}

func doRequest(t *testing.T, server *Server, method, path string, body interface{}, headers map[string]string) *httptest.ResponseRecorder {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	recorder := httptest.NewRecorder()
	server.Handler().ServeHTTP(recorder, req)
	return recorder
}

func decodeBody(t *testing.T, recorder *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &body))
	return body
}

func createPurchaseBody() map[string]interface{} {
	return map[string]interface{}{
		"purchase_type":          "auction",
		"purchase_date":          "2025-03-10T00:00:00Z",
		"warehouse_arrival_date": "2025-03-13T00:00:00Z",
		"storage_fee_due_date":   "2025-03-27T00:00:00Z",
		"ship_name":              "Neptune",
		"product_name":           "Tuna",
		"account_id":             "A-1",
		"details": []map[string]interface{}{
			{"item_id": "ITM-1", "quantity": 10, "unit_price": "250"},
		},
	}
}

func TestServer_Healthz(t *testing.T) {
	recorder := doRequest(t, newTestServer(), http.MethodGet, "/healthz", nil, nil)
	assert.Equal(t, http.StatusOK, recorder.Code)
}

func TestServer_CreatePurchase(t *testing.T) {
	server := newTestServer()

	recorder := doRequest(t, server, http.MethodPost, "/purchases", createPurchaseBody(), nil)
	require.Equal(t, http.StatusCreated, recorder.Code, recorder.Body.String())

	body := decodeBody(t, recorder)
	assert.NotEmpty(t, body["id"])
	assert.Equal(t, "Neptune", body["ship_name"])
	assert.Equal(t, "Tuna", body["product_name"])
	assert.Equal(t, "A-1", body["account_id"])
	assert.Equal(t, false, body["storage_fee_paid"])

	// Созданная закупка читается обратно
	recorder = doRequest(t, server, http.MethodGet, "/purchases/"+body["id"].(string), nil, nil)
	assert.Equal(t, http.StatusOK, recorder.Code)
}

func TestServer_CreatePurchase_ValidationError(t *testing.T) {
	body := createPurchaseBody()
	body["ship_name"] = ""

	recorder := doRequest(t, newTestServer(), http.MethodPost, "/purchases", body, nil)
	assert.Equal(t, http.StatusBadRequest, recorder.Code)
	assert.Equal(t, "VALIDATION_FAILED", decodeBody(t, recorder)["code"])
}

func TestServer_CreatePurchase_UnknownAccount(t *testing.T) {
	body := createPurchaseBody()
	body["account_id"] = "A-404"

	recorder := doRequest(t, newTestServer(), http.MethodPost, "/purchases", body, nil)
	assert.Equal(t, http.StatusNotFound, recorder.Code)
	assert.Equal(t, "NOT_FOUND", decodeBody(t, recorder)["code"])
}

func TestServer_CreatePurchase_IdempotencyKey(t *testing.T) {
	server := newTestServer()
	headers := map[string]string{"Idempotency-Key": "create-42"}

	first := doRequest(t, server, http.MethodPost, "/purchases", createPurchaseBody(), headers)
	require.Equal(t, http.StatusCreated, first.Code)

	// Повтор с тем же ключом возвращает существующую закупку
	second := doRequest(t, server, http.MethodPost, "/purchases", createPurchaseBody(), headers)
	require.Equal(t, http.StatusOK, second.Code)
	assert.Equal(t, decodeBody(t, first)["id"], decodeBody(t, second)["id"])
}

func TestServer_GetPurchase_NotFound(t *testing.T) {
	recorder := doRequest(t, newTestServer(), http.MethodGet, "/purchases/missing", nil, nil)
	assert.Equal(t, http.StatusNotFound, recorder.Code)
}

func TestServer_PayStorageFee(t *testing.T) {
	server := newTestServer()

	created := doRequest(t, server, http.MethodPost, "/purchases", createPurchaseBody(), nil)
	require.Equal(t, http.StatusCreated, created.Code)
	purchaseID := decodeBody(t, created)["id"].(string)

	path := fmt.Sprintf("/purchases/%s/storage-fee", purchaseID)
	recorder := doRequest(t, server, http.MethodPost, path, nil, nil)
	require.Equal(t, http.StatusOK, recorder.Code, recorder.Body.String())
	assert.Equal(t, true, decodeBody(t, recorder)["storage_fee_paid"])

	// Повторная оплата конфликтует
	recorder = doRequest(t, server, http.MethodPost, path, nil, nil)
	assert.Equal(t, http.StatusConflict, recorder.Code)
	assert.Equal(t, "CONFLICT", decodeBody(t, recorder)["code"])
}

func TestServer_RecordSale(t *testing.T) {
	recorder := doRequest(t, newTestServer(), http.MethodPost, "/items/ITM-1/sales",
		map[string]interface{}{"quantity": 5}, nil)
	require.Equal(t, http.StatusAccepted, recorder.Code, recorder.Body.String())

	body := decodeBody(t, recorder)
	assert.Equal(t, "recorded", body["status"])
	assert.Equal(t, float64(1), body["events"])
}

func TestServer_RecordSale_NegativeQuantity(t *testing.T) {
	recorder := doRequest(t, newTestServer(), http.MethodPost, "/items/ITM-7/sales",
		map[string]interface{}{"quantity": -3}, nil)
	assert.Equal(t, http.StatusBadRequest, recorder.Code)
	assert.Equal(t, "VALIDATION_FAILED", decodeBody(t, recorder)["code"])
}

func TestServer_RecordSale_UnknownItem(t *testing.T) {
	recorder := doRequest(t, newTestServer(), http.MethodPost, "/items/ITM-7/sales",
		map[string]interface{}{"quantity": 5}, nil)
	assert.Equal(t, http.StatusNotFound, recorder.Code)
	assert.Equal(t, "NOT_FOUND", decodeBody(t, recorder)["code"])
}

func TestServer_RecordSale_Duplicate(t *testing.T) {
	server := newTestServer()
	headers := map[string]string{"Idempotency-Key": "sale-42"}
	body := map[string]interface{}{"quantity": 5}

	first := doRequest(t, server, http.MethodPost, "/items/ITM-1/sales", body, headers)
	require.Equal(t, http.StatusAccepted, first.Code)
	assert.Equal(t, "recorded", decodeBody(t, first)["status"])

	second := doRequest(t, server, http.MethodPost, "/items/ITM-1/sales", body, headers)
	require.Equal(t, http.StatusAccepted, second.Code)
	assert.Equal(t, "duplicate", decodeBody(t, second)["status"])
}
