package worker

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/redis/go-redis/v9"

	"github.com/flicky/go-marketplace/internal/events"
	"github.com/flicky/go-marketplace/internal/model"
)

const idempotencyTTL = 24 * time.Hour

// ProductCache drops cached catalog entries.
type ProductCache interface {
	InvalidateCache(ctx context.Context, ids ...int64)
}

// LiveFeed pushes a message to a seller's open connections.
type LiveFeed interface {
	Publish(sellerID int64, msg any) (int, error)
}

// LiveNotification is what a seller's live feed receives for a new order.
type LiveNotification struct {
	Type           string `json:"type"`
	NotificationID int64  `json:"notification_id"`
	OrderID        int64  `json:"order_id"`
	Message        string `json:"message"`
	Total          string `json:"total"`
	CreatedAt      string `json:"created_at"`
}

// OrderEventWorker consumes order.placed events after checkout commits.
type OrderEventWorker struct {
	channel     *amqp.Channel
	redisClient *redis.Client
	cache       ProductCache
	feed        LiveFeed
	log         *slog.Logger
	done        chan struct{}
}

func NewOrderEventWorker(ch *amqp.Channel, redisClient *redis.Client, cache ProductCache, feed LiveFeed, log *slog.Logger) *OrderEventWorker {
	return &OrderEventWorker{
		channel:     ch,
		redisClient: redisClient,
		cache:       cache,
		feed:        feed,
		log:         log,
		done:        make(chan struct{}),
	}
}

func (w *OrderEventWorker) Start(ctx context.Context) error {
	if err := w.channel.Qos(1, 0, false); err != nil {
		return fmt.Errorf("set QoS: %w", err)
	}
	msgs, err := w.channel.Consume(events.OrderPlacedQueue, "", false, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("start consuming: %w", err)
	}

	go func() {
		for {
			select {
			case msg, ok := <-msgs:
				if !ok {
					return
				}
				w.processMessage(ctx, msg)
			case <-w.done:
				return
			case <-ctx.Done():
				return
			}
		}
	}()

	w.log.Info("order event worker started", "queue", events.OrderPlacedQueue)
	return nil
}

func (w *OrderEventWorker) Stop() { close(w.done) }

func (w *OrderEventWorker) processMessage(ctx context.Context, msg amqp.Delivery) {
	var event model.OrderPlacedEvent
	if err := json.Unmarshal(msg.Body, &event); err != nil {
		w.log.Error("unmarshal order event", "error", err)
		_ = msg.Nack(false, false)
		return
	}

	log := w.log.With("event_id", event.EventID, "order_id", event.OrderID, "seller_id", event.SellerID)
	if event.RequestID != "" {
		log = log.With("request_id", event.RequestID)
	}

	idempotencyKey := "order_event:" + event.EventID
	exists, err := w.redisClient.Exists(ctx, idempotencyKey).Result()
	if err != nil {
		log.Error("check idempotency key", "error", err)
		_ = msg.Nack(false, true)
		return
	}
	if exists > 0 {
		log.Info("order event already handled, skipping")
		_ = msg.Ack(false)
		return
	}

	if err := w.handle(ctx, event); err != nil {
		log.Error("handle order event", "error", err)
		_ = msg.Nack(false, false) // dead-lettered
		return
	}

	if err := w.redisClient.Set(ctx, idempotencyKey, "1", idempotencyTTL).Err(); err != nil {
		log.Error("set idempotency key", "error", err)
	}

	_ = msg.Ack(false)
	log.Info("order event handled")
}

// handle refreshes the catalog cache for the sold products and notifies the seller live.
func (w *OrderEventWorker) handle(ctx context.Context, event model.OrderPlacedEvent) error {
	if event.OrderID <= 0 || event.SellerID <= 0 {
		return fmt.Errorf("malformed order event %q", event.EventID)
	}

	w.cache.InvalidateCache(ctx, event.ProductIDs...)

	delivered, err := w.feed.Publish(event.SellerID, LiveNotification{
		Type:           "order.placed",
		NotificationID: event.NotificationID,
		OrderID:        event.OrderID,
		Message:        event.Message,
		Total:          event.Total.StringFixed(2),
		CreatedAt:      event.Timestamp.UTC().Format(time.RFC3339),
	})
	if err != nil {
		return fmt.Errorf("push live notification: %w", err)
	}
	w.log.Debug("live notification pushed", "order_id", event.OrderID, "connections", delivered)
	return nil
}
