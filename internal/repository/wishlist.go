package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/flicky/go-marketplace/internal/model"
)

type WishlistRepository interface {
	// Add stores the pair and reports whether it was new.
	Add(ctx context.Context, clientID, productID int64) (bool, error)
	Remove(ctx context.Context, clientID, productID int64) error
	ListByClient(ctx context.Context, clientID int64) ([]model.WishlistItem, error)
}

type pgWishlistRepo struct{ pool *pgxpool.Pool }

func NewWishlistRepository(pool *pgxpool.Pool) WishlistRepository {
	return &pgWishlistRepo{pool: pool}
}

func (r *pgWishlistRepo) Add(ctx context.Context, clientID, productID int64) (bool, error) {
	ct, err := r.pool.Exec(ctx,
		`INSERT INTO wishlist_items (client_id, product_id, added_at) VALUES ($1, $2, NOW())
		 ON CONFLICT (client_id, product_id) DO NOTHING`,
		clientID, productID,
	)
	if err != nil {
		return false, fmt.Errorf("add wishlist item: %w", err)
	}
	return ct.RowsAffected() == 1, nil
}

func (r *pgWishlistRepo) Remove(ctx context.Context, clientID, productID int64) error {
	_, err := r.pool.Exec(ctx,
		`DELETE FROM wishlist_items WHERE client_id = $1 AND product_id = $2`, clientID, productID,
	)
	if err != nil {
		return fmt.Errorf("remove wishlist item: %w", err)
	}
	return nil
}

func (r *pgWishlistRepo) ListByClient(ctx context.Context, clientID int64) ([]model.WishlistItem, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT w.id, w.client_id, w.added_at,
			p.id, p.seller_id, p.publisher_name, p.name, p.description, p.image_url,
			p.quantity, p.price, p.category, p.is_active, p.created_at, p.updated_at
		 FROM wishlist_items w JOIN products p ON p.id = w.product_id
		 WHERE w.client_id = $1
		 ORDER BY w.added_at DESC, w.id DESC`, clientID,
	)
	if err != nil {
		return nil, fmt.Errorf("list wishlist: %w", err)
	}
	defer rows.Close()

	var out []model.WishlistItem
	for rows.Next() {
		var w model.WishlistItem
		p := &w.Product
		err := rows.Scan(&w.ID, &w.ClientID, &w.AddedAt,
			&p.ID, &p.SellerID, &p.PublisherName, &p.Name, &p.Description, &p.ImageURL,
			&p.Quantity, &p.Price, &p.Category, &p.IsActive, &p.CreatedAt, &p.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scan wishlist item: %w", err)
		}
		out = append(out, w)
	}
	return out, rows.Err()
}
