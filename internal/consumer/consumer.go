package consumer

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/nats-io/nats.go/jetstream"

	"github.com/Dragoner91/ordertrack/internal/domain"
	"github.com/Dragoner91/ordertrack/internal/logging"
	"github.com/Dragoner91/ordertrack/internal/metrics"
)

// Scheduler accepts created-order events for deferred processing. Must
// not block; the consumer calls it on the ack path.
type Scheduler interface {
	Schedule(ev domain.CreatedOrderEvent)
}

// Consumer reads CreatedOrderEvent messages from the durable orders
// consumer. Messages are acked immediately on receipt, before any work:
// a crash between ack and scheduling loses the event. At-most-once by
// contract, so the broker never redelivers into slow processing.
type Consumer struct {
	consumer  jetstream.Consumer
	scheduler Scheduler
}

func New(consumer jetstream.Consumer, scheduler Scheduler) *Consumer {
	return &Consumer{
		consumer:  consumer,
		scheduler: scheduler,
	}
}

// Start consumes until ctx is cancelled.
func (c *Consumer) Start(ctx context.Context) error {
	cc, err := c.consumer.Consume(func(msg jetstream.Msg) {
		c.handle(msg)
	})
	if err != nil {
		return err
	}

	slog.Info("order event consumer started",
		slog.String("code", "SYS_STARTUP"),
		slog.String("subject", "orders.created"),
	)

	<-ctx.Done()
	cc.Stop()
	slog.Info("order event consumer shutting down", slog.String("code", "SYS_SHUTDOWN"))
	return ctx.Err()
}

// message is the subset of jetstream.Msg the handler needs.
type message interface {
	Data() []byte
	Ack() error
}

func (c *Consumer) handle(msg message) {
	// Ack before processing. Unconditional: a malformed message is not
	// worth a redelivery either.
	if err := msg.Ack(); err != nil {
		slog.Warn("failed to ack message", slog.String("code", "BROKER_ERROR"), slog.Any("error", err))
	}

	var ev domain.CreatedOrderEvent
	if err := json.Unmarshal(msg.Data(), &ev); err != nil {
		slog.Error("dropping malformed order event",
			slog.String("code", "EVT_MALFORMED"),
			slog.Any("error", err),
		)
		return
	}

	metrics.EventsConsumedTotal.Inc()
	l := logging.FromContext(logging.WithOrderID(context.Background(), ev.OrderID))
	l.Info("order created event received",
		slog.String("code", "EVT_RECEIVED"),
		slog.String("initialStatus", ev.InitialStatus.String()),
	)

	// Hand off to the scheduler; returns immediately.
	c.scheduler.Schedule(ev)
}
