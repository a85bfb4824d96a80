package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/flicky/go-marketplace/internal/model"
)

var (
	ErrInsufficientStock = errors.New("insufficient stock")
	ErrProductReferenced = errors.New("product is referenced by orders")
	ErrDuplicate         = errors.New("duplicate record")
)

const (
	pgUniqueViolation     = "23505"
	pgForeignKeyViolation = "23503"
)

func pgErrCode(err error) string {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code
	}
	return ""
}

// Tx groups the statements that have to commit or roll back together:
// checkout (order, items, stock, notification) and fulfillment (order status, read flag).
type Tx interface {
	// LockProducts row-locks the active products of sellerID among ids, in id order.
	LockProducts(ctx context.Context, sellerID int64, ids []int64) (map[int64]model.Product, error)
	DecrementStock(ctx context.Context, productID int64, quantity int) error
	CreateOrder(ctx context.Context, order *model.Order) error
	CreateOrderItems(ctx context.Context, orderID int64, items []model.OrderItem) error
	CreateNotification(ctx context.Context, n *model.Notification) error
	// LockNotification returns the seller's notification with its order status, or nil.
	LockNotification(ctx context.Context, id, sellerID int64) (*model.Notification, error)
	// TransitionOrder moves an order from one status to another and reports whether it did.
	TransitionOrder(ctx context.Context, orderID int64, from, to model.OrderStatus) (bool, error)
	MarkNotificationRead(ctx context.Context, id int64) error
}

type Store interface {
	WithTx(ctx context.Context, fn func(tx Tx) error) error
}

type pgStore struct{ pool *pgxpool.Pool }

func NewStore(pool *pgxpool.Pool) Store {
	return &pgStore{pool: pool}
}

func (s *pgStore) WithTx(ctx context.Context, fn func(tx Tx) error) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	if err := fn(&pgTx{tx: tx}); err != nil {
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

type pgTx struct{ tx pgx.Tx }

func (t *pgTx) LockProducts(ctx context.Context, sellerID int64, ids []int64) (map[int64]model.Product, error) {
	rows, err := t.tx.Query(ctx,
		`SELECT `+productColumns+` FROM products
		 WHERE id = ANY($1) AND seller_id = $2 AND is_active
		 ORDER BY id FOR UPDATE`, ids, sellerID,
	)
	if err != nil {
		return nil, fmt.Errorf("lock products: %w", err)
	}
	defer rows.Close()

	out := make(map[int64]model.Product, len(ids))
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, fmt.Errorf("scan product: %w", err)
		}
		out[p.ID] = *p
	}
	return out, rows.Err()
}

func (t *pgTx) DecrementStock(ctx context.Context, productID int64, quantity int) error {
	ct, err := t.tx.Exec(ctx,
		`UPDATE products SET quantity = quantity - $2, updated_at = NOW() WHERE id = $1 AND quantity >= $2`,
		productID, quantity,
	)
	if err != nil {
		return fmt.Errorf("decrement stock: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return fmt.Errorf("product %d: %w", productID, ErrInsufficientStock)
	}
	return nil
}

func (t *pgTx) CreateOrder(ctx context.Context, order *model.Order) error {
	err := t.tx.QueryRow(ctx,
		`INSERT INTO orders (client_id, seller_id, status, created_at)
		 VALUES ($1, $2, $3, NOW()) RETURNING id, created_at`,
		order.ClientID, order.SellerID, order.Status,
	).Scan(&order.ID, &order.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert order: %w", err)
	}
	return nil
}

func (t *pgTx) CreateOrderItems(ctx context.Context, orderID int64, items []model.OrderItem) error {
	for i := range items {
		items[i].OrderID = orderID
		err := t.tx.QueryRow(ctx,
			`INSERT INTO order_items (order_id, product_id, quantity, price_at_order)
			 VALUES ($1, $2, $3, $4) RETURNING id`,
			orderID, items[i].ProductID, items[i].Quantity, items[i].PriceAtOrder,
		).Scan(&items[i].ID)
		if err != nil {
			return fmt.Errorf("insert order item: %w", err)
		}
	}
	return nil
}

func (t *pgTx) CreateNotification(ctx context.Context, n *model.Notification) error {
	err := t.tx.QueryRow(ctx,
		`INSERT INTO notifications (seller_id, order_id, message, is_read, created_at)
		 VALUES ($1, $2, $3, FALSE, NOW()) RETURNING id, created_at`,
		n.SellerID, n.OrderID, n.Message,
	).Scan(&n.ID, &n.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert notification: %w", err)
	}
	n.IsRead = false
	return nil
}

func (t *pgTx) LockNotification(ctx context.Context, id, sellerID int64) (*model.Notification, error) {
	n := &model.Notification{}
	err := t.tx.QueryRow(ctx,
		`SELECT n.id, n.seller_id, n.order_id, n.message, n.is_read, n.created_at, o.status
		 FROM notifications n JOIN orders o ON o.id = n.order_id
		 WHERE n.id = $1 AND n.seller_id = $2
		 FOR UPDATE OF n, o`, id, sellerID,
	).Scan(&n.ID, &n.SellerID, &n.OrderID, &n.Message, &n.IsRead, &n.CreatedAt, &n.OrderStatus)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("lock notification: %w", err)
	}
	return n, nil
}

func (t *pgTx) TransitionOrder(ctx context.Context, orderID int64, from, to model.OrderStatus) (bool, error) {
	ct, err := t.tx.Exec(ctx,
		`UPDATE orders SET status = $3 WHERE id = $1 AND status = $2`, orderID, from, to,
	)
	if err != nil {
		return false, fmt.Errorf("update order status: %w", err)
	}
	return ct.RowsAffected() == 1, nil
}

func (t *pgTx) MarkNotificationRead(ctx context.Context, id int64) error {
	if _, err := t.tx.Exec(ctx, `UPDATE notifications SET is_read = TRUE WHERE id = $1`, id); err != nil {
		return fmt.Errorf("mark notification read: %w", err)
	}
	return nil
}
