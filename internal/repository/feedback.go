package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/flicky/go-marketplace/internal/model"
)

type FeedbackRepository interface {
	// Create inserts f and fills in ID, AuthorName and CreatedAt.
	Create(ctx context.Context, f *model.Feedback) error
	List(ctx context.Context) ([]model.Feedback, error)
	// DeleteByAuthor removes the entry only when it belongs to the given client or seller.
	DeleteByAuthor(ctx context.Context, id int64, author model.Principal) (bool, error)
	Delete(ctx context.Context, id int64) (bool, error)
	Count(ctx context.Context) (int, error)
}

type pgFeedbackRepo struct{ pool *pgxpool.Pool }

func NewFeedbackRepository(pool *pgxpool.Pool) FeedbackRepository {
	return &pgFeedbackRepo{pool: pool}
}

// feedbackAuthor resolves the display name: client username, else seller business name, else seller username.
const feedbackAuthor = `COALESCE(cu.username, NULLIF(s.business_name, ''), su.username, '')`

const feedbackJoins = `
	LEFT JOIN users cu ON cu.id = f.client_id
	LEFT JOIN sellers s ON s.id = f.seller_id
	LEFT JOIN users su ON su.id = s.user_id`

func nullableID(id int64) *int64 {
	if id == 0 {
		return nil
	}
	return &id
}

func (r *pgFeedbackRepo) Create(ctx context.Context, f *model.Feedback) error {
	err := r.pool.QueryRow(ctx,
		`WITH f AS (
			INSERT INTO feedback (client_id, seller_id, message, created_at)
			VALUES ($1, $2, $3, NOW())
			RETURNING id, client_id, seller_id, created_at
		 )
		 SELECT f.id, f.created_at, `+feedbackAuthor+` FROM f`+feedbackJoins,
		nullableID(f.ClientID), nullableID(f.SellerID), f.Message,
	).Scan(&f.ID, &f.CreatedAt, &f.AuthorName)
	if err != nil {
		return fmt.Errorf("insert feedback: %w", err)
	}
	return nil
}

func (r *pgFeedbackRepo) List(ctx context.Context) ([]model.Feedback, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT f.id, COALESCE(f.client_id, 0), COALESCE(f.seller_id, 0), `+feedbackAuthor+`, f.message, f.created_at
		 FROM feedback f`+feedbackJoins+`
		 ORDER BY f.created_at DESC, f.id DESC`,
	)
	if err != nil {
		return nil, fmt.Errorf("list feedback: %w", err)
	}
	defer rows.Close()

	var out []model.Feedback
	for rows.Next() {
		var f model.Feedback
		if err := rows.Scan(&f.ID, &f.ClientID, &f.SellerID, &f.AuthorName, &f.Message, &f.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan feedback: %w", err)
		}
		out = append(out, f)
	}
	return out, rows.Err()
}

func (r *pgFeedbackRepo) DeleteByAuthor(ctx context.Context, id int64, author model.Principal) (bool, error) {
	column := "client_id"
	switch {
	case author.IsSeller():
		column = "seller_id"
	case !author.IsClient():
		return false, nil
	}
	ct, err := r.pool.Exec(ctx, `DELETE FROM feedback WHERE id = $1 AND `+column+` = $2`, id, author.ID)
	if err != nil {
		return false, fmt.Errorf("delete own feedback: %w", err)
	}
	return ct.RowsAffected() == 1, nil
}

func (r *pgFeedbackRepo) Delete(ctx context.Context, id int64) (bool, error) {
	ct, err := r.pool.Exec(ctx, `DELETE FROM feedback WHERE id = $1`, id)
	if err != nil {
		return false, fmt.Errorf("delete feedback: %w", err)
	}
	return ct.RowsAffected() == 1, nil
}

func (r *pgFeedbackRepo) Count(ctx context.Context) (int, error) {
	var n int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM feedback`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count feedback: %w", err)
	}
	return n, nil
}
