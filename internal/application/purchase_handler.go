package application

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/akriventsev/fishmarket/internal/core"
	"github.com/akriventsev/fishmarket/internal/domain"
	"github.com/akriventsev/fishmarket/internal/events"
	"github.com/akriventsev/fishmarket/internal/eventsourcing"
	"github.com/akriventsev/fishmarket/internal/metrics"
)

// PurchaseRepository репозиторий агрегата закупки
type PurchaseRepository = eventsourcing.Repository[*domain.Purchase]

// CreatePurchaseHandler обработчик команды создания закупки
type CreatePurchaseHandler struct {
	repo        *PurchaseRepository
	accounts    AccountDirectory
	publisher   events.Publisher
	idempotency IdempotencyStore
	metrics     *metrics.Metrics
	logger      *zap.Logger
}

// NewCreatePurchaseHandler создает новый обработчик
func NewCreatePurchaseHandler(
	repo *PurchaseRepository,
	accounts AccountDirectory,
	publisher events.Publisher,
	idempotency IdempotencyStore,
	m *metrics.Metrics,
	logger *zap.Logger,
) *CreatePurchaseHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CreatePurchaseHandler{
		repo:        repo,
		accounts:    accounts,
		publisher:   publisher,
		idempotency: idempotency,
		metrics:     m,
		logger:      logger,
	}
}

// Handle валидирует команду, назначает новый идентификатор агрегата,
// конструирует закупку и порождает ровно одно событие PurchaseCreated.
// Повторная команда с тем же idempotency key возвращает уже созданную
// закупку без новых событий.
func (h *CreatePurchaseHandler) Handle(ctx context.Context, cmd domain.CreatePurchaseCommand) (purchase *domain.Purchase, produced []events.Event, err error) {
	start := time.Now()
	defer func() {
		if h.metrics != nil {
			h.metrics.RecordCommand(ctx, cmd.CommandName(), time.Since(start), err)
		}
	}()

	if cmd.IdempotencyKey != "" && h.idempotency != nil {
		existingID, seen, checkErr := h.idempotency.Check(ctx, cmd.IdempotencyKey)
		if checkErr != nil {
			return nil, nil, checkErr
		}
		if seen {
			existing, loadErr := h.repo.GetByID(ctx, existingID)
			if loadErr != nil {
				return nil, nil, loadErr
			}
			return existing, nil, nil
		}
	}

	if err = h.validate(ctx, cmd); err != nil {
		return nil, nil, err
	}

	account, err := domain.NewAccountReference(cmd.AccountID)
	if err != nil {
		return nil, nil, err
	}

	details := make([]domain.PurchaseDetail, 0, len(cmd.Details))
	for _, d := range cmd.Details {
		details = append(details, domain.PurchaseDetail{
			ID:        uuid.New().String(),
			ItemID:    d.ItemID,
			Quantity:  d.Quantity,
			UnitPrice: d.UnitPrice,
		})
	}

	purchase = domain.NewPurchase(uuid.New().String())
	if err = purchase.Create(cmd.PurchaseType,
		cmd.PurchaseDate, cmd.WarehouseArrivalDate, cmd.StorageFeeDueDate,
		cmd.ShipName, cmd.ProductName, account, details); err != nil {
		return nil, nil, err
	}

	produced = append(produced, purchase.GetUncommittedEvents()...)

	if err = h.repo.Save(ctx, purchase); err != nil {
		return nil, nil, err
	}

	if cmd.IdempotencyKey != "" && h.idempotency != nil {
		if rememberErr := h.idempotency.Remember(ctx, cmd.IdempotencyKey, purchase.ID()); rememberErr != nil {
			h.logger.Warn("failed to remember idempotency key",
				zap.String("key", cmd.IdempotencyKey), zap.Error(rememberErr))
		}
	}

	publishEvents(ctx, h.publisher, h.metrics, h.logger, produced)
	return purchase, produced, nil
}

// validate проверяет обязательные поля команды
func (h *CreatePurchaseHandler) validate(ctx context.Context, cmd domain.CreatePurchaseCommand) error {
	if cmd.ShipName == "" {
		return core.NewValidationError("ship name must not be empty")
	}
	if cmd.ProductName == "" {
		return core.NewValidationError("product name must not be empty")
	}
	if cmd.AccountID == "" {
		return core.NewValidationError("account id must not be empty")
	}
	if !cmd.WarehouseArrivalDate.IsZero() && cmd.PurchaseDate.After(cmd.WarehouseArrivalDate) {
		return core.NewValidationError("purchase date must not be after warehouse arrival date")
	}
	for i, d := range cmd.Details {
		if d.ItemID == "" {
			return core.NewValidationError("detail %d: item id must not be empty", i)
		}
		if d.Quantity < 0 {
			return core.NewValidationError("detail %d: quantity must not be negative", i)
		}
		if d.UnitPrice.IsNegative() {
			return core.NewValidationError("detail %d: unit price must not be negative", i)
		}
	}

	known, err := h.accounts.Exists(ctx, cmd.AccountID)
	if err != nil {
		return err
	}
	if !known {
		return core.NewNotFoundError("account not found: %s", cmd.AccountID)
	}
	return nil
}

// PayStorageFeeHandler обработчик команды оплаты сбора за хранение
type PayStorageFeeHandler struct {
	repo      *PurchaseRepository
	publisher events.Publisher
	metrics   *metrics.Metrics
	logger    *zap.Logger
}

// NewPayStorageFeeHandler создает новый обработчик
func NewPayStorageFeeHandler(repo *PurchaseRepository, publisher events.Publisher, m *metrics.Metrics, logger *zap.Logger) *PayStorageFeeHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PayStorageFeeHandler{repo: repo, publisher: publisher, metrics: m, logger: logger}
}

// Handle загружает закупку, отмечает оплату и порождает StorageFeePaid
func (h *PayStorageFeeHandler) Handle(ctx context.Context, cmd domain.PayStorageFeeCommand) (purchase *domain.Purchase, produced []events.Event, err error) {
	start := time.Now()
	defer func() {
		if h.metrics != nil {
			h.metrics.RecordCommand(ctx, cmd.CommandName(), time.Since(start), err)
		}
	}()

	if cmd.PurchaseID == "" {
		return nil, nil, core.NewValidationError("purchase id must not be empty")
	}

	purchase, err = h.repo.GetByID(ctx, cmd.PurchaseID)
	if err != nil {
		return nil, nil, err
	}

	paidAt := cmd.PaidAt
	if paidAt.IsZero() {
		paidAt = time.Now()
	}

	if err = purchase.PayStorageFee(paidAt); err != nil {
		return nil, nil, err
	}

	produced = append(produced, purchase.GetUncommittedEvents()...)

	if err = h.repo.Save(ctx, purchase); err != nil {
		return nil, nil, err
	}

	publishEvents(ctx, h.publisher, h.metrics, h.logger, produced)
	return purchase, produced, nil
}

// publishEvents отдает события публикатору. Ошибка публикации не фатальна
// для команды: состояние уже сохранено, доставка остается за публикатором.
func publishEvents(ctx context.Context, publisher events.Publisher, m *metrics.Metrics, logger *zap.Logger, produced []events.Event) {
	if publisher == nil {
		return
	}
	for _, event := range produced {
		if err := publisher.Publish(ctx, event); err != nil {
			if m != nil {
				m.RecordPublishFailure(ctx, event.EventType())
			}
			logger.Error("failed to hand event to publisher",
				zap.String("event_id", event.EventID()),
				zap.String("event_type", event.EventType()),
				zap.Error(err))
			continue
		}
		if m != nil {
			m.RecordEvent(ctx, event.EventType())
		}
	}
}
