package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/flicky/go-marketplace/internal/model"
)

type UserRepository interface {
	Create(ctx context.Context, user *model.User) error
	// CreateSeller inserts the user and its seller profile in one transaction.
	CreateSeller(ctx context.Context, user *model.User, seller *model.Seller) error
	GetByEmail(ctx context.Context, email string) (*model.User, error)
	GetSeller(ctx context.Context, id int64) (*model.Seller, error)
	CountClients(ctx context.Context) (int, error)
	CountSellers(ctx context.Context) (int, error)
	SellerProductCounts(ctx context.Context) ([]model.SellerProductCount, error)
}

type pgUserRepo struct{ pool *pgxpool.Pool }

func NewUserRepository(pool *pgxpool.Pool) UserRepository {
	return &pgUserRepo{pool: pool}
}

const insertUser = `INSERT INTO users (username, email, password_hash, is_superuser, created_at)
	VALUES ($1, $2, $3, $4, NOW()) RETURNING id, created_at`

func (r *pgUserRepo) Create(ctx context.Context, user *model.User) error {
	err := r.pool.QueryRow(ctx, insertUser,
		user.Username, user.Email, user.PasswordHash, user.IsSuperuser,
	).Scan(&user.ID, &user.CreatedAt)
	if err != nil {
		if pgErrCode(err) == pgUniqueViolation {
			return ErrDuplicate
		}
		return fmt.Errorf("create user: %w", err)
	}
	return nil
}

func (r *pgUserRepo) CreateSeller(ctx context.Context, user *model.User, seller *model.Seller) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	err = tx.QueryRow(ctx, insertUser,
		user.Username, user.Email, user.PasswordHash, false,
	).Scan(&user.ID, &user.CreatedAt)
	if err != nil {
		if pgErrCode(err) == pgUniqueViolation {
			return ErrDuplicate
		}
		return fmt.Errorf("create user: %w", err)
	}

	seller.UserID = user.ID
	seller.Username = user.Username
	err = tx.QueryRow(ctx,
		`INSERT INTO sellers (user_id, business_name, phone_number) VALUES ($1, $2, $3) RETURNING id`,
		seller.UserID, seller.BusinessName, seller.PhoneNumber,
	).Scan(&seller.ID)
	if err != nil {
		return fmt.Errorf("create seller: %w", err)
	}
	user.SellerID = &seller.ID
	return tx.Commit(ctx)
}

func (r *pgUserRepo) GetByEmail(ctx context.Context, email string) (*model.User, error) {
	query := `SELECT u.id, u.username, u.email, u.password_hash, u.is_superuser, s.id, u.created_at
			  FROM users u LEFT JOIN sellers s ON s.user_id = u.id
			  WHERE u.email = $1`
	user := &model.User{}
	err := r.pool.QueryRow(ctx, query, email).Scan(
		&user.ID, &user.Username, &user.Email, &user.PasswordHash, &user.IsSuperuser, &user.SellerID, &user.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get user by email: %w", err)
	}
	return user, nil
}

func (r *pgUserRepo) GetSeller(ctx context.Context, id int64) (*model.Seller, error) {
	s := &model.Seller{}
	err := r.pool.QueryRow(ctx,
		`SELECT s.id, s.user_id, u.username, s.business_name, s.phone_number
		 FROM sellers s JOIN users u ON u.id = s.user_id WHERE s.id = $1`, id,
	).Scan(&s.ID, &s.UserID, &s.Username, &s.BusinessName, &s.PhoneNumber)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get seller: %w", err)
	}
	return s, nil
}

func (r *pgUserRepo) CountClients(ctx context.Context) (int, error) {
	var n int
	err := r.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM users u
		 WHERE NOT u.is_superuser AND NOT EXISTS (SELECT 1 FROM sellers s WHERE s.user_id = u.id)`,
	).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count clients: %w", err)
	}
	return n, nil
}

func (r *pgUserRepo) CountSellers(ctx context.Context) (int, error) {
	var n int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM sellers`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count sellers: %w", err)
	}
	return n, nil
}

func (r *pgUserRepo) SellerProductCounts(ctx context.Context) ([]model.SellerProductCount, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT s.id, u.username, s.business_name, COUNT(p.id)
		 FROM sellers s
		 JOIN users u ON u.id = s.user_id
		 LEFT JOIN products p ON p.seller_id = s.id
		 GROUP BY s.id, u.username, s.business_name
		 ORDER BY COUNT(p.id) DESC, u.username`,
	)
	if err != nil {
		return nil, fmt.Errorf("seller product counts: %w", err)
	}
	defer rows.Close()

	var out []model.SellerProductCount
	for rows.Next() {
		var c model.SellerProductCount
		if err := rows.Scan(&c.SellerID, &c.Username, &c.BusinessName, &c.ProductCount); err != nil {
			return nil, fmt.Errorf("scan seller product count: %w", err)
		}
		out = append(out, c)
	}
	return out, rows.Err()
}
