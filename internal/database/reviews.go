package database

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
)

const reviewColumns = `id, customer_id, customer_name, branch_id, order_id,
	rating, comment, is_approved, created_at`

func scanReview(row pgx.Row) (Review, error) {
	var r Review
	err := row.Scan(&r.ID, &r.CustomerID, &r.CustomerName, &r.BranchID,
		&r.OrderID, &r.Rating, &r.Comment, &r.IsApproved, &r.CreatedAt)
	return r, err
}

type CreateReviewParams struct {
	CustomerID   pgtype.UUID
	CustomerName string
	BranchID     uuid.UUID
	OrderID      pgtype.UUID
	Rating       int32
	Comment      pgtype.Text
}

func (q *Queries) CreateReview(ctx context.Context, arg CreateReviewParams) (Review, error) {
	const sql = `
		INSERT INTO reviews (customer_id, customer_name, branch_id, order_id, rating, comment)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING ` + reviewColumns
	return scanReview(q.db.QueryRow(ctx, sql, arg.CustomerID, arg.CustomerName,
		arg.BranchID, arg.OrderID, arg.Rating, arg.Comment))
}

type ListReviewsParams struct {
	BranchID     pgtype.UUID
	ApprovedOnly bool
}

func (q *Queries) ListReviews(ctx context.Context, arg ListReviewsParams) ([]Review, error) {
	const sql = `
		SELECT ` + reviewColumns + `
		FROM reviews
		WHERE ($1::uuid IS NULL OR branch_id = $1)
		  AND (NOT $2 OR is_approved = true)
		ORDER BY created_at DESC`
	rows, err := q.db.Query(ctx, sql, arg.BranchID, arg.ApprovedOnly)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var reviews []Review
	for rows.Next() {
		r, err := scanReview(rows)
		if err != nil {
			return nil, err
		}
		reviews = append(reviews, r)
	}
	return reviews, rows.Err()
}

func (q *Queries) ApproveReview(ctx context.Context, id uuid.UUID) (Review, error) {
	const sql = `
		UPDATE reviews SET is_approved = true WHERE id = $1
		RETURNING ` + reviewColumns
	return scanReview(q.db.QueryRow(ctx, sql, id))
}
