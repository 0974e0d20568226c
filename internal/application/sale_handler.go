package application

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/akriventsev/fishmarket/internal/core"
	"github.com/akriventsev/fishmarket/internal/domain"
	"github.com/akriventsev/fishmarket/internal/events"
	"github.com/akriventsev/fishmarket/internal/metrics"
)

// RecordSaleHandler обработчик команды регистрации продажи
type RecordSaleHandler struct {
	items       ItemCatalog
	publisher   events.Publisher
	idempotency IdempotencyStore
	metrics     *metrics.Metrics
	logger      *zap.Logger
}

// NewRecordSaleHandler создает новый обработчик
func NewRecordSaleHandler(
	items ItemCatalog,
	publisher events.Publisher,
	idempotency IdempotencyStore,
	m *metrics.Metrics,
	logger *zap.Logger,
) *RecordSaleHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RecordSaleHandler{
		items:       items,
		publisher:   publisher,
		idempotency: idempotency,
		metrics:     m,
		logger:      logger,
	}
}

// Handle валидирует команду и порождает ровно одно событие FishSold.
// Состояние товара не ведется в этом сервисе, поэтому обработчик только
// проверяет товар по каталогу и публикует событие.
func (h *RecordSaleHandler) Handle(ctx context.Context, cmd domain.RecordSaleCommand) (produced []events.Event, err error) {
	start := time.Now()
	defer func() {
		if h.metrics != nil {
			h.metrics.RecordCommand(ctx, cmd.CommandName(), time.Since(start), err)
		}
	}()

	if cmd.ItemID == "" {
		return nil, core.NewValidationError("item id must not be empty")
	}
	if cmd.Quantity <= 0 {
		return nil, core.NewValidationError("quantity must be positive, got %d", cmd.Quantity)
	}

	if cmd.IdempotencyKey != "" && h.idempotency != nil {
		_, seen, checkErr := h.idempotency.Check(ctx, cmd.IdempotencyKey)
		if checkErr != nil {
			return nil, checkErr
		}
		if seen {
			return nil, nil
		}
	}

	known, err := h.items.Exists(ctx, cmd.ItemID)
	if err != nil {
		return nil, err
	}
	if !known {
		return nil, core.NewNotFoundError("item not found: %s", cmd.ItemID)
	}

	event := domain.NewFishSoldEvent(cmd.ItemID, cmd.Quantity)
	produced = []events.Event{event}

	if cmd.IdempotencyKey != "" && h.idempotency != nil {
		if rememberErr := h.idempotency.Remember(ctx, cmd.IdempotencyKey, event.EventID()); rememberErr != nil {
			h.logger.Warn("failed to remember idempotency key",
				zap.String("key", cmd.IdempotencyKey), zap.Error(rememberErr))
		}
	}

	publishEvents(ctx, h.publisher, h.metrics, h.logger, produced)
	return produced, nil
}
