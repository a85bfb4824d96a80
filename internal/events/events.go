package events

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/flicky/go-marketplace/internal/model"
)

const (
	OrdersExchange     = "orders"
	OrderPlacedKey     = "order.placed"
	OrderPlacedQueue   = "orders.placed"
	DeadLetterExchange = "orders.dlx"
	DeadLetterQueue    = "orders.dlq"

	publishTimeout = 5 * time.Second
)

// Setup declares the orders exchange, the order.placed queue and its dead-letter pair.
func Setup(ch *amqp.Channel) error {
	if err := ch.ExchangeDeclare(OrdersExchange, "topic", true, false, false, false, nil); err != nil {
		return fmt.Errorf("declare orders exchange: %w", err)
	}
	if err := ch.ExchangeDeclare(DeadLetterExchange, "direct", true, false, false, false, nil); err != nil {
		return fmt.Errorf("declare DLX: %w", err)
	}
	if _, err := ch.QueueDeclare(DeadLetterQueue, true, false, false, false, nil); err != nil {
		return fmt.Errorf("declare DLQ: %w", err)
	}
	if err := ch.QueueBind(DeadLetterQueue, OrderPlacedKey, DeadLetterExchange, false, nil); err != nil {
		return fmt.Errorf("bind DLQ: %w", err)
	}
	if _, err := ch.QueueDeclare(OrderPlacedQueue, true, false, false, false, amqp.Table{
		"x-dead-letter-exchange":    DeadLetterExchange,
		"x-dead-letter-routing-key": OrderPlacedKey,
	}); err != nil {
		return fmt.Errorf("declare order queue: %w", err)
	}
	if err := ch.QueueBind(OrderPlacedQueue, OrderPlacedKey, OrdersExchange, false, nil); err != nil {
		return fmt.Errorf("bind order queue: %w", err)
	}
	return nil
}

// Publisher sends order events on a dedicated channel. amqp channels are not safe for
// concurrent publishing, so sends are serialized.
type Publisher struct {
	mu  sync.Mutex
	ch  *amqp.Channel
	log *slog.Logger
}

func NewPublisher(ch *amqp.Channel, log *slog.Logger) *Publisher {
	return &Publisher{ch: ch, log: log}
}

func (p *Publisher) PublishOrderPlaced(ctx context.Context, event model.OrderPlacedEvent) error {
	body, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal order event: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, publishTimeout)
	defer cancel()

	p.mu.Lock()
	defer p.mu.Unlock()
	err = p.ch.PublishWithContext(ctx, OrdersExchange, OrderPlacedKey, false, false, amqp.Publishing{
		ContentType:   "application/json",
		DeliveryMode:  amqp.Persistent,
		MessageId:     event.EventID,
		CorrelationId: event.RequestID,
		Timestamp:     event.Timestamp,
		Body:          body,
	})
	if err != nil {
		return fmt.Errorf("publish order event: %w", err)
	}
	p.log.Debug("order event published", "event_id", event.EventID, "order_id", event.OrderID)
	return nil
}
