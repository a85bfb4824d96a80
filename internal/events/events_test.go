package events

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"os"
	"testing"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/flicky/go-marketplace/internal/model"
)

func requireBroker(t *testing.T) *amqp.Channel {
	t.Helper()
	url := os.Getenv("TEST_RABBITMQ_URL")
	if url == "" {
		t.Skip("TEST_RABBITMQ_URL not set")
	}
	conn, err := amqp.Dial(url)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })

	ch, err := conn.Channel()
	require.NoError(t, err)
	require.NoError(t, Setup(ch))
	_, err = ch.QueuePurge(OrderPlacedQueue, false)
	require.NoError(t, err)
	return ch
}

func TestPublisher_PublishOrderPlaced(t *testing.T) {
	ch := requireBroker(t)
	p := NewPublisher(ch, slog.New(slog.NewTextHandler(io.Discard, nil)))

	event := model.OrderPlacedEvent{
		EventID:   "evt-42",
		OrderID:   42,
		SellerID:  3,
		Total:     decimal.RequireFromString("19.99"),
		RequestID: "req-9",
		Timestamp: time.Now().UTC().Truncate(time.Second),
	}
	require.NoError(t, p.PublishOrderPlaced(context.Background(), event))

	var msg amqp.Delivery
	require.Eventually(t, func() bool {
		var ok bool
		var err error
		msg, ok, err = ch.Get(OrderPlacedQueue, true)
		return err == nil && ok
	}, 5*time.Second, 50*time.Millisecond)

	assert.Equal(t, "evt-42", msg.MessageId)
	assert.Equal(t, "req-9", msg.CorrelationId)
	assert.Equal(t, uint8(amqp.Persistent), msg.DeliveryMode)

	var got model.OrderPlacedEvent
	require.NoError(t, json.Unmarshal(msg.Body, &got))
	assert.Equal(t, event.OrderID, got.OrderID)
	assert.True(t, event.Total.Equal(got.Total))
}
