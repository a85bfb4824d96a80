package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/flicky/go-marketplace/internal/model"
)

// CartRepository persists the per-session cart blob. A missing blob reads as an empty cart.
type CartRepository interface {
	Get(ctx context.Context, session string) (*model.Cart, error)
	Save(ctx context.Context, session string, cart *model.Cart) error
	Clear(ctx context.Context, session string) error
}

type redisCartRepo struct {
	client *redis.Client
	ttl    time.Duration
}

func NewCartRepository(client *redis.Client, ttl time.Duration) CartRepository {
	return &redisCartRepo{client: client, ttl: ttl}
}

func cartKey(session string) string {
	return "cart:" + session
}

func (r *redisCartRepo) Get(ctx context.Context, session string) (*model.Cart, error) {
	data, err := r.client.Get(ctx, cartKey(session)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return &model.Cart{Items: map[int64]int{}}, nil
		}
		return nil, fmt.Errorf("get cart: %w", err)
	}

	cart := &model.Cart{}
	if err := json.Unmarshal(data, cart); err != nil {
		return nil, fmt.Errorf("decode cart: %w", err)
	}
	if cart.Items == nil {
		cart.Items = map[int64]int{}
	}
	return cart, nil
}

// Save writes the cart, dropping non-positive quantities. An empty cart is removed instead.
func (r *redisCartRepo) Save(ctx context.Context, session string, cart *model.Cart) error {
	items := make(map[int64]int, len(cart.Items))
	for id, qty := range cart.Items {
		if qty > 0 {
			items[id] = qty
		}
	}
	if cart.SellerID == 0 || len(items) == 0 {
		return r.Clear(ctx, session)
	}

	data, err := json.Marshal(model.Cart{SellerID: cart.SellerID, Items: items})
	if err != nil {
		return fmt.Errorf("encode cart: %w", err)
	}
	if err := r.client.Set(ctx, cartKey(session), data, r.ttl).Err(); err != nil {
		return fmt.Errorf("save cart: %w", err)
	}
	return nil
}

func (r *redisCartRepo) Clear(ctx context.Context, session string) error {
	if err := r.client.Del(ctx, cartKey(session)).Err(); err != nil {
		return fmt.Errorf("clear cart: %w", err)
	}
	return nil
}
