package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/flicky/go-marketplace/internal/model"
)

// placeTestOrder checks out one unit of a fresh product of seller for client.
func placeTestOrder(t *testing.T, env *testEnv, client *model.User, seller *model.Seller) *model.Order {
	t.Helper()
	ctx := context.Background()
	product := env.db.addProduct(seller.ID, "Item", "10.00", 5)
	p := clientOf(client, "sess-"+client.Username)

	_, err := env.cart.AddItem(ctx, p, seller.ID, product.ID, 1)
	require.NoError(t, err)
	order, err := env.checkout.Checkout(ctx, p, validPayment())
	require.NoError(t, err)
	return order
}

func TestNotificationService_MarkRead_CompletesOrder(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	alice := env.db.addClient("alice")
	bob := env.db.addSeller("bob", "Bob's Bikes")
	order := placeTestOrder(t, env, alice, bob)

	items, unread, err := env.notifications.List(ctx, sellerOf(bob))
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, 1, unread)
	assert.Equal(t, model.OrderStatusPending, items[0].OrderStatus)

	require.NoError(t, env.notifications.MarkRead(ctx, sellerOf(bob), items[0].ID))
	assert.Equal(t, model.OrderStatusCompleted, env.db.order(order.ID).Status)
	assert.True(t, env.db.notification(items[0].ID).IsRead)

	// Repeating is a no-op.
	require.NoError(t, env.notifications.MarkRead(ctx, sellerOf(bob), items[0].ID))
	assert.Equal(t, model.OrderStatusCompleted, env.db.order(order.ID).Status)

	items, unread, err = env.notifications.List(ctx, sellerOf(bob))
	require.NoError(t, err)
	assert.Zero(t, unread)
	assert.Equal(t, model.OrderStatusCompleted, items[0].OrderStatus)
}

func TestNotificationService_MarkRead_OtherSeller(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	alice := env.db.addClient("alice")
	bob := env.db.addSeller("bob", "")
	carol := env.db.addSeller("carol", "")
	order := placeTestOrder(t, env, alice, bob)
	note := env.db.notificationsFor(bob.ID)[0]

	err := env.notifications.MarkRead(ctx, sellerOf(carol), note.ID)
	assert.ErrorIs(t, err, ErrNotificationNotFound)
	assert.Equal(t, model.OrderStatusPending, env.db.order(order.ID).Status)
	assert.False(t, env.db.notification(note.ID).IsRead)

	err = env.notifications.MarkRead(ctx, sellerOf(bob), 9999)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestNotificationService_MarkRead_RollsBack(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	alice := env.db.addClient("alice")
	bob := env.db.addSeller("bob", "")
	order := placeTestOrder(t, env, alice, bob)
	note := env.db.notificationsFor(bob.ID)[0]

	boom := errors.New("update failed")
	env.db.failOn["MarkNotificationRead"] = boom

	err := env.notifications.MarkRead(ctx, sellerOf(bob), note.ID)
	require.ErrorIs(t, err, boom)
	assert.Equal(t, model.OrderStatusPending, env.db.order(order.ID).Status)
	assert.False(t, env.db.notification(note.ID).IsRead)
}

func TestNotificationService_MarkAllRead(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	alice := env.db.addClient("alice")
	dave := env.db.addClient("dave")
	bob := env.db.addSeller("bob", "")
	carol := env.db.addSeller("carol", "")

	first := placeTestOrder(t, env, alice, bob)
	second := placeTestOrder(t, env, dave, bob)
	other := placeTestOrder(t, env, alice, carol)

	n, err := env.notifications.MarkAllRead(ctx, sellerOf(bob))
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	assert.Equal(t, model.OrderStatusCompleted, env.db.order(first.ID).Status)
	assert.Equal(t, model.OrderStatusCompleted, env.db.order(second.ID).Status)
	assert.Equal(t, model.OrderStatusPending, env.db.order(other.ID).Status)

	n, err = env.notifications.MarkAllRead(ctx, sellerOf(bob))
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestNotificationService_RequiresSeller(t *testing.T) {
	env := newTestEnv(t)
	alice := env.db.addClient("alice")

	_, _, err := env.notifications.List(context.Background(), clientOf(alice, "s"))
	assert.ErrorIs(t, err, ErrForbidden)
	assert.ErrorIs(t, env.notifications.MarkRead(context.Background(), clientOf(alice, "s"), 1), ErrForbidden)
}
