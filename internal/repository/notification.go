package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/flicky/go-marketplace/internal/model"
)

type NotificationRepository interface {
	// ListBySeller returns the seller's notifications with their order status, newest first.
	ListBySeller(ctx context.Context, sellerID int64) ([]model.Notification, error)
	UnreadIDs(ctx context.Context, sellerID int64) ([]int64, error)
	CountUnread(ctx context.Context, sellerID int64) (int, error)
}

type pgNotificationRepo struct{ pool *pgxpool.Pool }

func NewNotificationRepository(pool *pgxpool.Pool) NotificationRepository {
	return &pgNotificationRepo{pool: pool}
}

func (r *pgNotificationRepo) ListBySeller(ctx context.Context, sellerID int64) ([]model.Notification, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT n.id, n.seller_id, n.order_id, n.message, n.is_read, n.created_at, o.status
		 FROM notifications n JOIN orders o ON o.id = n.order_id
		 WHERE n.seller_id = $1
		 ORDER BY n.created_at DESC, n.id DESC`, sellerID,
	)
	if err != nil {
		return nil, fmt.Errorf("list notifications: %w", err)
	}
	defer rows.Close()

	var out []model.Notification
	for rows.Next() {
		var n model.Notification
		if err := rows.Scan(&n.ID, &n.SellerID, &n.OrderID, &n.Message, &n.IsRead, &n.CreatedAt, &n.OrderStatus); err != nil {
			return nil, fmt.Errorf("scan notification: %w", err)
		}
		out = append(out, n)
	}
	return out, rows.Err()
}

func (r *pgNotificationRepo) UnreadIDs(ctx context.Context, sellerID int64) ([]int64, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id FROM notifications WHERE seller_id = $1 AND NOT is_read ORDER BY id`, sellerID,
	)
	if err != nil {
		return nil, fmt.Errorf("list unread notifications: %w", err)
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan notification id: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func (r *pgNotificationRepo) CountUnread(ctx context.Context, sellerID int64) (int, error) {
	var n int
	err := r.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM notifications WHERE seller_id = $1 AND NOT is_read`, sellerID,
	).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count unread notifications: %w", err)
	}
	return n, nil
}
