package eventsourcing

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/akriventsev/fishmarket/internal/events"
)

// PostgresEventStoreConfig конфигурация для PostgreSQL Event Store
type PostgresEventStoreConfig struct {
	TableName string
}

// DefaultPostgresEventStoreConfig возвращает конфигурацию по умолчанию
func DefaultPostgresEventStoreConfig() PostgresEventStoreConfig {
	return PostgresEventStoreConfig{
		TableName: "purchase_events",
	}
}

// PostgresEventStore реализация EventStore для PostgreSQL
type PostgresEventStore struct {
	config       PostgresEventStoreConfig
	pool         *pgxpool.Pool
	deserializer EventDeserializer
}

// NewPostgresEventStore создает новый PostgreSQL Event Store.
// Deserializer обязателен: без него события не восстановить из jsonb.
func NewPostgresEventStore(pool *pgxpool.Pool, config PostgresEventStoreConfig, deserializer EventDeserializer) (*PostgresEventStore, error) {
	if pool == nil {
		return nil, fmt.Errorf("pgx pool is required")
	}
	if deserializer == nil {
		return nil, fmt.Errorf("event deserializer is required")
	}
	if config.TableName == "" {
		config.TableName = "purchase_events"
	}

	return &PostgresEventStore{
		config:       config,
		pool:         pool,
		deserializer: deserializer,
	}, nil
}

// AppendEvents добавляет события в поток агрегата.
// Конкурентность обеспечивается проверкой текущей версии внутри транзакции
// плюс уникальным индексом (aggregate_id, version) как второй линией защиты.
func (s *PostgresEventStore) AppendEvents(ctx context.Context, aggregateID string, expectedVersion int64, newEvents []events.Event) error {
	if len(newEvents) == 0 {
		return nil
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	var currentVersion int64
	row := tx.QueryRow(ctx,
		fmt.Sprintf(`SELECT COALESCE(MAX(version), 0) FROM %s WHERE aggregate_id = $1`, s.config.TableName),
		aggregateID,
	)
	if err := row.Scan(&currentVersion); err != nil {
		return fmt.Errorf("failed to read current version: %w", err)
	}

	if expectedVersion != currentVersion {
		return fmt.Errorf("%w: expected %d, got %d", ErrConcurrencyConflict, expectedVersion, currentVersion)
	}

	for i, event := range newEvents {
		payload, err := json.Marshal(event)
		if err != nil {
			return fmt.Errorf("failed to serialize event %s: %w", event.EventID(), err)
		}
		metadata, err := json.Marshal(event.Metadata())
		if err != nil {
			return fmt.Errorf("failed to serialize metadata: %w", err)
		}

		_, err = tx.Exec(ctx,
			fmt.Sprintf(`INSERT INTO %s (id, aggregate_id, event_type, event_data, metadata, version, occurred_at)
				VALUES ($1, $2, $3, $4, $5, $6, $7)`, s.config.TableName),
			event.EventID(),
			aggregateID,
			event.EventType(),
			payload,
			metadata,
			expectedVersion+int64(i)+1,
			event.OccurredAt(),
		)
		if err != nil {
			var pgErr *pgconn.PgError
			if errors.As(err, &pgErr) && pgErr.Code == "23505" {
				return fmt.Errorf("%w: concurrent append to aggregate %s", ErrConcurrencyConflict, aggregateID)
			}
			return fmt.Errorf("failed to insert event: %w", err)
		}
	}

	return tx.Commit(ctx)
}

// GetEvents возвращает события агрегата начиная с указанной версии
func (s *PostgresEventStore) GetEvents(ctx context.Context, aggregateID string, fromVersion int64) ([]StoredEvent, error) {
	rows, err := s.pool.Query(ctx,
		fmt.Sprintf(`SELECT id, event_type, event_data, version, occurred_at, created_at
			FROM %s WHERE aggregate_id = $1 AND version >= $2 ORDER BY version`, s.config.TableName),
		aggregateID, fromVersion,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query events: %w", err)
	}
	defer rows.Close()

	var result []StoredEvent
	for rows.Next() {
		var (
			stored     StoredEvent
			payload    []byte
			occurredAt time.Time
			createdAt  time.Time
		)
		if err := rows.Scan(&stored.ID, &stored.EventType, &payload, &stored.Version, &occurredAt, &createdAt); err != nil {
			return nil, fmt.Errorf("failed to scan event row: %w", err)
		}

		event, err := s.deserializer.DeserializeEvent(stored.EventType, payload)
		if err != nil {
			return nil, fmt.Errorf("failed to deserialize event %s: %w", stored.ID, err)
		}

		stored.AggregateID = aggregateID
		stored.EventData = event
		stored.OccurredAt = occurredAt
		stored.CreatedAt = createdAt
		result = append(result, stored)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate event rows: %w", err)
	}

	if len(result) == 0 && fromVersion <= 1 {
		// Отличаем пустую выборку от отсутствующего потока
		var count int64
		row := s.pool.QueryRow(ctx,
			fmt.Sprintf(`SELECT COUNT(*) FROM %s WHERE aggregate_id = $1`, s.config.TableName),
			aggregateID,
		)
		if err := row.Scan(&count); err != nil {
			return nil, fmt.Errorf("failed to check stream existence: %w", err)
		}
		if count == 0 {
			return nil, ErrStreamNotFound
		}
	}

	return result, nil
}
