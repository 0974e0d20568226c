// Package api предоставляет HTTP границу сервиса закупок.
package api

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/akriventsev/fishmarket/internal/application"
	"github.com/akriventsev/fishmarket/internal/core"
	"github.com/akriventsev/fishmarket/internal/domain"
)

// Server HTTP сервер, транслирующий запросы в команды
type Server struct {
	createPurchase *application.CreatePurchaseHandler
	payStorageFee  *application.PayStorageFeeHandler
	recordSale     *application.RecordSaleHandler
	repo           *application.PurchaseRepository
	logger         *zap.Logger
	engine         *gin.Engine
}

// NewServer создает новый HTTP сервер
func NewServer(
	createPurchase *application.CreatePurchaseHandler,
	payStorageFee *application.PayStorageFeeHandler,
	recordSale *application.RecordSaleHandler,
	repo *application.PurchaseRepository,
	logger *zap.Logger,
) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}

	s := &Server{
		createPurchase: createPurchase,
		payStorageFee:  payStorageFee,
		recordSale:     recordSale,
		repo:           repo,
		logger:         logger,
	}

	gin.SetMode(gin.ReleaseMode)
	engine := gin.New()
	engine.Use(gin.Recovery())

	engine.GET("/healthz", s.handleHealth)
	engine.POST("/purchases", s.handleCreatePurchase)
	engine.GET("/purchases/:id", s.handleGetPurchase)
	engine.POST("/purchases/:id/storage-fee", s.handlePayStorageFee)
	engine.POST("/items/:id/sales", s.handleRecordSale)

	s.engine = engine
	return s
}

// Handler возвращает http.Handler для запуска сервера
func (s *Server) Handler() http.Handler {
	return s.engine
}

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (s *Server) handleCreatePurchase(c *gin.Context) {
	var cmd domain.CreatePurchaseCommand
	if err := c.ShouldBindJSON(&cmd); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body: " + err.Error()})
		return
	}
	if key := c.GetHeader("Idempotency-Key"); key != "" {
		cmd.IdempotencyKey = key
	}

	purchase, produced, err := s.createPurchase.Handle(c.Request.Context(), cmd)
	if err != nil {
		s.writeError(c, err)
		return
	}

	status := http.StatusCreated
	if len(produced) == 0 {
		// Повтор по idempotency key: закупка уже существует
		status = http.StatusOK
	}
	c.JSON(status, purchaseToResponse(purchase))
}

func (s *Server) handleGetPurchase(c *gin.Context) {
	purchase, err := s.repo.GetByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, purchaseToResponse(purchase))
}

func (s *Server) handlePayStorageFee(c *gin.Context) {
	var body struct {
		PaidAt time.Time `json:"paid_at"`
	}
	if err := c.ShouldBindJSON(&body); err != nil && err.Error() != "EOF" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body: " + err.Error()})
		return
	}

	cmd := domain.PayStorageFeeCommand{
		PurchaseID: c.Param("id"),
		PaidAt:     body.PaidAt,
	}

	purchase, _, err := s.payStorageFee.Handle(c.Request.Context(), cmd)
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, purchaseToResponse(purchase))
}

func (s *Server) handleRecordSale(c *gin.Context) {
	var body struct {
		Quantity       int64  `json:"quantity"`
		IdempotencyKey string `json:"idempotency_key"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body: " + err.Error()})
		return
	}

	cmd := domain.RecordSaleCommand{
		ItemID:         c.Param("id"),
		Quantity:       body.Quantity,
		IdempotencyKey: body.IdempotencyKey,
	}
	if key := c.GetHeader("Idempotency-Key"); key != "" {
		cmd.IdempotencyKey = key
	}

	produced, err := s.recordSale.Handle(c.Request.Context(), cmd)
	if err != nil {
		s.writeError(c, err)
		return
	}

	response := gin.H{"status": "recorded", "events": len(produced)}
	if len(produced) == 0 {
		response["status"] = "duplicate"
	}
	c.JSON(http.StatusAccepted, response)
}

// writeError транслирует доменные ошибки в HTTP статусы
func (s *Server) writeError(c *gin.Context, err error) {
	code := core.CodeOf(err)
	status := http.StatusInternalServerError

	switch code {
	case core.CodeValidationFailed:
		status = http.StatusBadRequest
	case core.CodeNotFound:
		status = http.StatusNotFound
	case core.CodeConflict:
		status = http.StatusConflict
	}

	if status == http.StatusInternalServerError {
		s.logger.Error("request failed", zap.String("path", c.FullPath()), zap.Error(err))
		c.JSON(status, gin.H{"error": "internal error"})
		return
	}

	c.JSON(status, gin.H{"error": err.Error(), "code": code})
}
