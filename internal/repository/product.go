package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/flicky/go-marketplace/internal/model"
)

const productColumns = `id, seller_id, publisher_name, name, description, image_url,
	quantity, price, category, is_active, created_at, updated_at`

type ProductRepository interface {
	Create(ctx context.Context, product *model.Product) error
	GetByID(ctx context.Context, id int64) (*model.Product, error)
	// Browse lists active, in-stock products matching the filter, newest first.
	Browse(ctx context.Context, f model.ProductFilter) ([]model.Product, int, error)
	ListBySeller(ctx context.Context, sellerID int64) ([]model.Product, error)
	// ListForCart returns the active products of sellerID among ids, keyed by id.
	ListForCart(ctx context.Context, sellerID int64, ids []int64) (map[int64]model.Product, error)
	Update(ctx context.Context, product *model.Product) error
	SoftDelete(ctx context.Context, id, sellerID int64) (bool, error)
	Delete(ctx context.Context, id int64) error
}

type pgProductRepo struct{ pool *pgxpool.Pool }

func NewProductRepository(pool *pgxpool.Pool) ProductRepository {
	return &pgProductRepo{pool: pool}
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanProduct(row rowScanner) (*model.Product, error) {
	p := &model.Product{}
	err := row.Scan(
		&p.ID, &p.SellerID, &p.PublisherName, &p.Name, &p.Description, &p.ImageURL,
		&p.Quantity, &p.Price, &p.Category, &p.IsActive, &p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return p, nil
}

func (r *pgProductRepo) Create(ctx context.Context, product *model.Product) error {
	query := `INSERT INTO products (seller_id, publisher_name, name, description, image_url,
			  quantity, price, category, is_active, created_at, updated_at)
			  VALUES ($1, $2, $3, $4, $5, $6, $7, $8, TRUE, NOW(), NOW())
			  RETURNING id, is_active, created_at, updated_at`
	err := r.pool.QueryRow(ctx, query,
		product.SellerID, product.PublisherName, product.Name, product.Description, product.ImageURL,
		product.Quantity, product.Price, product.Category,
	).Scan(&product.ID, &product.IsActive, &product.CreatedAt, &product.UpdatedAt)
	if err != nil {
		return fmt.Errorf("create product: %w", err)
	}
	return nil
}

func (r *pgProductRepo) GetByID(ctx context.Context, id int64) (*model.Product, error) {
	p, err := scanProduct(r.pool.QueryRow(ctx, `SELECT `+productColumns+` FROM products WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get product: %w", err)
	}
	return p, nil
}

const browseWhere = `WHERE is_active AND quantity > 0
	AND ($1::text = '' OR name ILIKE '%' || $1 || '%' OR description ILIKE '%' || $1 || '%')
	AND ($2::bigint = 0 OR seller_id = $2)
	AND ($3::numeric IS NULL OR price >= $3)
	AND ($4::numeric IS NULL OR price <= $4)
	AND ($5::text = '' OR category = $5)`

func (r *pgProductRepo) Browse(ctx context.Context, f model.ProductFilter) ([]model.Product, int, error) {
	args := []any{f.Search, f.SellerID, f.MinPrice, f.MaxPrice, string(f.Category)}

	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM products `+browseWhere, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count products: %w", err)
	}

	rows, err := r.pool.Query(ctx,
		`SELECT `+productColumns+` FROM products `+browseWhere+` ORDER BY created_at DESC LIMIT $6 OFFSET $7`,
		append(args, f.Limit, f.Offset)...,
	)
	if err != nil {
		return nil, 0, fmt.Errorf("browse products: %w", err)
	}
	products, err := collectProducts(rows)
	if err != nil {
		return nil, 0, err
	}
	return products, total, nil
}

func (r *pgProductRepo) ListBySeller(ctx context.Context, sellerID int64) ([]model.Product, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+productColumns+` FROM products WHERE seller_id = $1 AND is_active ORDER BY created_at DESC`,
		sellerID,
	)
	if err != nil {
		return nil, fmt.Errorf("list seller products: %w", err)
	}
	return collectProducts(rows)
}

func (r *pgProductRepo) ListForCart(ctx context.Context, sellerID int64, ids []int64) (map[int64]model.Product, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+productColumns+` FROM products WHERE id = ANY($1) AND seller_id = $2 AND is_active`,
		ids, sellerID,
	)
	if err != nil {
		return nil, fmt.Errorf("list cart products: %w", err)
	}
	products, err := collectProducts(rows)
	if err != nil {
		return nil, err
	}
	out := make(map[int64]model.Product, len(products))
	for _, p := range products {
		out[p.ID] = p
	}
	return out, nil
}

func collectProducts(rows pgx.Rows) ([]model.Product, error) {
	defer rows.Close()
	var products []model.Product
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, fmt.Errorf("scan product: %w", err)
		}
		products = append(products, *p)
	}
	return products, rows.Err()
}

func (r *pgProductRepo) Update(ctx context.Context, product *model.Product) error {
	query := `UPDATE products SET name=$2, description=$3, image_url=$4, quantity=$5, price=$6,
			  category=$7, updated_at=NOW()
			  WHERE id=$1 AND is_active RETURNING updated_at`
	err := r.pool.QueryRow(ctx, query,
		product.ID, product.Name, product.Description, product.ImageURL,
		product.Quantity, product.Price, product.Category,
	).Scan(&product.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil
		}
		return fmt.Errorf("update product: %w", err)
	}
	return nil
}

func (r *pgProductRepo) SoftDelete(ctx context.Context, id, sellerID int64) (bool, error) {
	ct, err := r.pool.Exec(ctx,
		`UPDATE products SET is_active = FALSE, updated_at = NOW() WHERE id = $1 AND seller_id = $2`,
		id, sellerID,
	)
	if err != nil {
		return false, fmt.Errorf("soft delete product: %w", err)
	}
	return ct.RowsAffected() > 0, nil
}

func (r *pgProductRepo) Delete(ctx context.Context, id int64) error {
	ct, err := r.pool.Exec(ctx, `DELETE FROM products WHERE id = $1`, id)
	if err != nil {
		if pgErrCode(err) == pgForeignKeyViolation {
			return ErrProductReferenced
		}
		return fmt.Errorf("delete product: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}
