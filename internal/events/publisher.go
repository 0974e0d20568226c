// Package events предоставляет реализации Publisher.
package events

import (
	"context"
	"fmt"
	"hash/fnv"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/akriventsev/fishmarket/internal/core"
)

// RetryConfig конфигурация retry для публикатора
type RetryConfig struct {
	MaxAttempts       int
	InitialDelay      time.Duration
	MaxDelay          time.Duration
	BackoffMultiplier float64
}

// DefaultRetryConfig возвращает конфигурацию retry по умолчанию
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxAttempts:       3,
		InitialDelay:      time.Second,
		MaxDelay:          30 * time.Second,
		BackoffMultiplier: 2.0,
	}
}

// AsyncPublisherConfig конфигурация асинхронного публикатора
type AsyncPublisherConfig struct {
	Workers        int
	QueueSize      int
	PublishTimeout time.Duration
}

// DefaultAsyncPublisherConfig возвращает конфигурацию по умолчанию
func DefaultAsyncPublisherConfig() AsyncPublisherConfig {
	return AsyncPublisherConfig{
		Workers:        4,
		QueueSize:      256,
		PublishTimeout: 5 * time.Second,
	}
}

// AsyncPublisher асинхронный публикатор событий.
// Публикация не блокирует вызывающую сторону: событие ставится в очередь
// воркера, выбранного по хэшу aggregate ID. События одного агрегата всегда
// попадают к одному воркеру и публикуются в порядке постановки; порядок
// между агрегатами не гарантируется.
type AsyncPublisher struct {
	config   AsyncPublisherConfig
	sink     Publisher
	logger   *zap.Logger
	queues   []chan Event
	stopCh   chan struct{}
	wg       sync.WaitGroup
	stopOnce sync.Once
}

// NewAsyncPublisher создает новый асинхронный публикатор поверх sink
func NewAsyncPublisher(sink Publisher, config AsyncPublisherConfig, logger *zap.Logger) *AsyncPublisher {
	if config.Workers <= 0 {
		config.Workers = 1
	}
	if config.QueueSize <= 0 {
		config.QueueSize = 1
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	p := &AsyncPublisher{
		config: config,
		sink:   sink,
		logger: logger,
		queues: make([]chan Event, config.Workers),
		stopCh: make(chan struct{}),
	}

	for i := range p.queues {
		p.queues[i] = make(chan Event, config.QueueSize)
		p.wg.Add(1)
		go p.worker(p.queues[i])
	}

	return p
}

// Publish ставит событие в очередь воркера. Блокируется только при
// заполненной очереди и не дольше, чем живет контекст.
func (p *AsyncPublisher) Publish(ctx context.Context, event Event) error {
	queue := p.queues[p.workerIndex(event.AggregateID())]

	select {
	case queue <- event:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	case <-p.stopCh:
		return fmt.Errorf("publisher is stopped")
	}
}

// workerIndex выбирает воркер по aggregate ID для per-aggregate FIFO
func (p *AsyncPublisher) workerIndex(aggregateID string) int {
	h := fnv.New32a()
	_, _ = h.Write([]byte(aggregateID))
	return int(h.Sum32() % uint32(len(p.queues)))
}

func (p *AsyncPublisher) worker(queue chan Event) {
	defer p.wg.Done()
	for {
		select {
		case event := <-queue:
			p.deliver(event)
		case <-p.stopCh:
			// Дочитываем очередь перед остановкой
			for {
				select {
				case event := <-queue:
					p.deliver(event)
				default:
					return
				}
			}
		}
	}
}

// deliver отдает событие нижележащему публикатору с ограниченным таймаутом.
// Ошибка публикации не фатальна для команды, которая породила событие:
// команда уже завершилась успехом, доставка at-least-once остается за брокером.
func (p *AsyncPublisher) deliver(event Event) {
	ctx, cancel := context.WithTimeout(context.Background(), p.config.PublishTimeout)
	defer cancel()

	if err := p.sink.Publish(ctx, event); err != nil {
		p.logger.Error("event publish failed",
			zap.String("event_id", event.EventID()),
			zap.String("event_type", event.EventType()),
			zap.String("aggregate_id", event.AggregateID()),
			zap.Error(core.NewPublishError("async delivery failed", err)),
		)
	}
}

// Stop останавливает публикатор, дожидаясь доставки событий из очередей.
// Метод идемпотентен: повторные вызовы не приведут к panic.
func (p *AsyncPublisher) Stop(ctx context.Context) error {
	var err error
	p.stopOnce.Do(func() {
		close(p.stopCh)

		done := make(chan struct{})
		go func() {
			p.wg.Wait()
			close(done)
		}()

		select {
		case <-done:
		case <-ctx.Done():
			err = ctx.Err()
		}
	})
	return err
}

// CollectingPublisher публикатор, накапливающий события в памяти.
// Используется в тестах для проверки факта и порядка публикации.
type CollectingPublisher struct {
	mu     sync.Mutex
	events []Event
	err    error
}

// NewCollectingPublisher создает новый накапливающий публикатор
func NewCollectingPublisher() *CollectingPublisher {
	return &CollectingPublisher{}
}

// FailWith заставляет публикатор возвращать ошибку
func (p *CollectingPublisher) FailWith(err error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.err = err
}

// Publish сохраняет событие
func (p *CollectingPublisher) Publish(ctx context.Context, event Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return p.err
	}
	p.events = append(p.events, event)
	return nil
}

// Events возвращает копию накопленных событий
func (p *CollectingPublisher) Events() []Event {
	p.mu.Lock()
	defer p.mu.Unlock()
	result := make([]Event, len(p.events))
	copy(result, p.events)
	return result
}
