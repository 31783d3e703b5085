package database

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
)

const offerColumns = `id, title, description, discount_type, discount_value,
	min_order_value, valid_from, valid_until, branch_ids, is_active, created_at`

func scanOffer(row pgx.Row) (Offer, error) {
	var o Offer
	err := row.Scan(&o.ID, &o.Title, &o.Description, &o.DiscountType,
		&o.DiscountValue, &o.MinOrderValue, &o.ValidFrom, &o.ValidUntil,
		&o.BranchIDs, &o.IsActive, &o.CreatedAt)
	return o, err
}

type CreateOfferParams struct {
	Title         string
	Description   string
	DiscountType  string
	DiscountValue pgtype.Numeric
	MinOrderValue pgtype.Numeric
	ValidFrom     time.Time
	ValidUntil    time.Time
	BranchIDs     []uuid.UUID
}

func (q *Queries) CreateOffer(ctx context.Context, arg CreateOfferParams) (Offer, error) {
	const sql = `
		INSERT INTO offers (title, description, discount_type, discount_value,
			min_order_value, valid_from, valid_until, branch_ids)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING ` + offerColumns
	return scanOffer(q.db.QueryRow(ctx, sql, arg.Title, arg.Description,
		arg.DiscountType, arg.DiscountValue, arg.MinOrderValue, arg.ValidFrom,
		arg.ValidUntil, arg.BranchIDs))
}

// ListActiveOffers returns offers currently inside their validity window,
// optionally narrowed to a branch. NULL branch_ids means all branches.
func (q *Queries) ListActiveOffers(ctx context.Context, branchID pgtype.UUID) ([]Offer, error) {
	const sql = `
		SELECT ` + offerColumns + `
		FROM offers
		WHERE is_active = true
		  AND valid_from <= now() AND valid_until >= now()
		  AND ($1::uuid IS NULL OR branch_ids IS NULL OR $1 = ANY(branch_ids))
		ORDER BY valid_until`
	rows, err := q.db.Query(ctx, sql, branchID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var offers []Offer
	for rows.Next() {
		o, err := scanOffer(rows)
		if err != nil {
			return nil, err
		}
		offers = append(offers, o)
	}
	return offers, rows.Err()
}
