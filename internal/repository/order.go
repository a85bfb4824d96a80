package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/flicky/go-marketplace/internal/model"
)

type OrderRepository interface {
	GetByID(ctx context.Context, id int64) (*model.Order, error)
	ListByClient(ctx context.Context, clientID int64) ([]model.Order, error)
	// ListAll returns every order with its items, newest first.
	ListAll(ctx context.Context) ([]model.Order, error)
	SellerStats(ctx context.Context, sellerID int64) (*model.SellerStats, error)
}

type pgOrderRepo struct{ pool *pgxpool.Pool }

func NewOrderRepository(pool *pgxpool.Pool) OrderRepository {
	return &pgOrderRepo{pool: pool}
}

const orderSelect = `SELECT o.id, o.client_id, c.username, o.seller_id,
	COALESCE(NULLIF(s.business_name, ''), su.username), o.status, o.created_at
	FROM orders o
	JOIN users c ON c.id = o.client_id
	JOIN sellers s ON s.id = o.seller_id
	JOIN users su ON su.id = s.user_id`

func scanOrder(row rowScanner) (*model.Order, error) {
	o := &model.Order{}
	err := row.Scan(&o.ID, &o.ClientID, &o.ClientUsername, &o.SellerID, &o.SellerName, &o.Status, &o.CreatedAt)
	if err != nil {
		return nil, err
	}
	return o, nil
}

func (r *pgOrderRepo) GetByID(ctx context.Context, id int64) (*model.Order, error) {
	order, err := scanOrder(r.pool.QueryRow(ctx, orderSelect+` WHERE o.id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get order: %w", err)
	}

	orders := []model.Order{*order}
	if err := r.attachItems(ctx, orders); err != nil {
		return nil, err
	}
	return &orders[0], nil
}

func (r *pgOrderRepo) ListByClient(ctx context.Context, clientID int64) ([]model.Order, error) {
	return r.list(ctx, orderSelect+` WHERE o.client_id = $1 ORDER BY o.created_at DESC, o.id DESC`, clientID)
}

func (r *pgOrderRepo) ListAll(ctx context.Context) ([]model.Order, error) {
	return r.list(ctx, orderSelect+` ORDER BY o.created_at DESC, o.id DESC`)
}

func (r *pgOrderRepo) list(ctx context.Context, query string, args ...any) ([]model.Order, error) {
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list orders: %w", err)
	}
	defer rows.Close()

	var orders []model.Order
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, fmt.Errorf("scan order: %w", err)
		}
		orders = append(orders, *o)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list orders: %w", err)
	}
	rows.Close()

	if err := r.attachItems(ctx, orders); err != nil {
		return nil, err
	}
	return orders, nil
}

// attachItems loads the line items of all orders with one query.
func (r *pgOrderRepo) attachItems(ctx context.Context, orders []model.Order) error {
	if len(orders) == 0 {
		return nil
	}
	ids := make([]int64, len(orders))
	index := make(map[int64]int, len(orders))
	for i, o := range orders {
		ids[i] = o.ID
		index[o.ID] = i
	}

	rows, err := r.pool.Query(ctx,
		`SELECT oi.id, oi.order_id, oi.product_id, p.name, oi.quantity, oi.price_at_order
		 FROM order_items oi JOIN products p ON p.id = oi.product_id
		 WHERE oi.order_id = ANY($1) ORDER BY oi.id`, ids,
	)
	if err != nil {
		return fmt.Errorf("get order items: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var item model.OrderItem
		if err := rows.Scan(&item.ID, &item.OrderID, &item.ProductID, &item.ProductName, &item.Quantity, &item.PriceAtOrder); err != nil {
			return fmt.Errorf("scan order item: %w", err)
		}
		i := index[item.OrderID]
		orders[i].Items = append(orders[i].Items, item)
	}
	return rows.Err()
}

func (r *pgOrderRepo) SellerStats(ctx context.Context, sellerID int64) (*model.SellerStats, error) {
	stats := &model.SellerStats{}
	err := r.pool.QueryRow(ctx,
		`SELECT
			(SELECT COUNT(*) FROM products WHERE seller_id = $1 AND is_active),
			(SELECT COUNT(*) FROM orders WHERE seller_id = $1),
			(SELECT COUNT(*) FROM orders WHERE seller_id = $1 AND status = 'pending'),
			(SELECT COUNT(*) FROM orders WHERE seller_id = $1 AND status = 'completed'),
			(SELECT COALESCE(SUM(oi.quantity * oi.price_at_order), 0)
			 FROM order_items oi JOIN orders o ON o.id = oi.order_id
			 WHERE o.seller_id = $1 AND o.status = 'completed')`,
		sellerID,
	).Scan(&stats.ProductsCount, &stats.OrdersCount, &stats.PendingCount, &stats.CompletedCount, &stats.TotalSales)
	if err != nil {
		return nil, fmt.Errorf("seller stats: %w", err)
	}
	return stats, nil
}
