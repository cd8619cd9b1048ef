package event

import (
	"context"
	"log/slog"
)

// LogEventPublisher records events in the log instead of a broker. It is used
// when RabbitMQ is disabled.
type LogEventPublisher struct {
	logger *slog.Logger
}

var _ EventPublisher = (*LogEventPublisher)(nil)

func NewLogEventPublisher(logger *slog.Logger) *LogEventPublisher {
	if logger == nil {
		logger = slog.Default()
	}
	return &LogEventPublisher{logger: logger.With("component", "LogEventPublisher")}
}

func (p *LogEventPublisher) PublishCustomerCreated(ctx context.Context, event CustomerCreatedEvent) error {
	p.logger.InfoContext(ctx, "Event", "routingKey", routingKeyCustomerCreated, "customerId", event.Payload.CustomerID)
	return nil
}

func (p *LogEventPublisher) PublishMFAEvent(ctx context.Context, event MFAEvent) error {
	p.logger.InfoContext(ctx, "Event", "routingKey", string(event.Type), "customerId", event.CustomerID)
	return nil
}
