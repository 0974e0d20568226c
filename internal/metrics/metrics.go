// Package metrics предоставляет систему метрик на основе OpenTelemetry.
package metrics

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// Metrics сборщик метрик сервиса
type Metrics struct {
	meter           metric.Meter
	commandsTotal   metric.Int64Counter
	eventsTotal     metric.Int64Counter
	publishFailures metric.Int64Counter
	errorsTotal     metric.Int64Counter
	commandDuration metric.Float64Histogram
}

// NewMetrics создает новый сборщик метрик
func NewMetrics() (*Metrics, error) {
	meter := otel.Meter("fishmarket")

	commandsTotal, err := meter.Int64Counter(
		"commands_total",
		metric.WithDescription("Total number of commands processed"),
	)
	if err != nil {
		return nil, err
	}

	eventsTotal, err := meter.Int64Counter(
		"events_total",
		metric.WithDescription("Total number of events published"),
	)
	if err != nil {
		return nil, err
	}

	publishFailures, err := meter.Int64Counter(
		"publish_failures_total",
		metric.WithDescription("Total number of failed event publications"),
	)
	if err != nil {
		return nil, err
	}

	errorsTotal, err := meter.Int64Counter(
		"errors_total",
		metric.WithDescription("Total number of command errors"),
	)
	if err != nil {
		return nil, err
	}

	commandDuration, err := meter.Float64Histogram(
		"command_duration_seconds",
		metric.WithDescription("Command processing duration in seconds"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, err
	}

	return &Metrics{
		meter:           meter,
		commandsTotal:   commandsTotal,
		eventsTotal:     eventsTotal,
		publishFailures: publishFailures,
		errorsTotal:     errorsTotal,
		commandDuration: commandDuration,
	}, nil
}

// RecordCommand записывает факт обработки команды
func (m *Metrics) RecordCommand(ctx context.Context, commandName string, duration time.Duration, err error) {
	attrs := metric.WithAttributes(attribute.String("command", commandName))
	m.commandsTotal.Add(ctx, 1, attrs)
	m.commandDuration.Record(ctx, duration.Seconds(), attrs)
	if err != nil {
		m.errorsTotal.Add(ctx, 1, attrs)
	}
}

// RecordEvent записывает факт публикации события
func (m *Metrics) RecordEvent(ctx context.Context, eventType string) {
	m.eventsTotal.Add(ctx, 1, metric.WithAttributes(attribute.String("event_type", eventType)))
}

// RecordPublishFailure записывает неудачную публикацию
func (m *Metrics) RecordPublishFailure(ctx context.Context, eventType string) {
	m.publishFailures.Add(ctx, 1, metric.WithAttributes(attribute.String("event_type", eventType)))
}
