package database

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
)

const couponColumns = `id, code, description, discount_type, discount_value,
	min_order_value, max_discount, valid_from, valid_until, usage_limit,
	per_user_limit, usage_count, branch_ids, is_active, created_at`

func scanCoupon(row pgx.Row) (Coupon, error) {
	var c Coupon
	err := row.Scan(&c.ID, &c.Code, &c.Description, &c.DiscountType,
		&c.DiscountValue, &c.MinOrderValue, &c.MaxDiscount, &c.ValidFrom,
		&c.ValidUntil, &c.UsageLimit, &c.PerUserLimit, &c.UsageCount,
		&c.BranchIDs, &c.IsActive, &c.CreatedAt)
	return c, err
}

type CreateCouponParams struct {
	Code          string
	Description   pgtype.Text
	DiscountType  string
	DiscountValue pgtype.Numeric
	MinOrderValue pgtype.Numeric
	MaxDiscount   pgtype.Numeric
	ValidFrom     time.Time
	ValidUntil    time.Time
	UsageLimit    pgtype.Int4
	PerUserLimit  pgtype.Int4
	BranchIDs     []uuid.UUID
}

func (q *Queries) CreateCoupon(ctx context.Context, arg CreateCouponParams) (Coupon, error) {
	const sql = `
		INSERT INTO coupons (code, description, discount_type, discount_value,
			min_order_value, max_discount, valid_from, valid_until, usage_limit,
			per_user_limit, branch_ids)
		VALUES (upper($1), $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		RETURNING ` + couponColumns
	return scanCoupon(q.db.QueryRow(ctx, sql, arg.Code, arg.Description,
		arg.DiscountType, arg.DiscountValue, arg.MinOrderValue, arg.MaxDiscount,
		arg.ValidFrom, arg.ValidUntil, arg.UsageLimit, arg.PerUserLimit,
		arg.BranchIDs))
}

// GetCouponByCode looks a coupon up case-insensitively; codes are stored
// upper-cased.
func (q *Queries) GetCouponByCode(ctx context.Context, code string) (Coupon, error) {
	const sql = `SELECT ` + couponColumns + ` FROM coupons WHERE code = upper($1)`
	return scanCoupon(q.db.QueryRow(ctx, sql, code))
}

func (q *Queries) ListCoupons(ctx context.Context) ([]Coupon, error) {
	const sql = `SELECT ` + couponColumns + ` FROM coupons ORDER BY created_at DESC`
	rows, err := q.db.Query(ctx, sql)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var coupons []Coupon
	for rows.Next() {
		c, err := scanCoupon(rows)
		if err != nil {
			return nil, err
		}
		coupons = append(coupons, c)
	}
	return coupons, rows.Err()
}

// IncrementCouponUsage bumps usage_count, refusing the increment once the
// global usage limit is reached. Returns pgx.ErrNoRows when the cap is hit,
// so two concurrent redemptions of the last slot cannot both succeed.
func (q *Queries) IncrementCouponUsage(ctx context.Context, id uuid.UUID) (Coupon, error) {
	const sql = `
		UPDATE coupons
		SET usage_count = usage_count + 1
		WHERE id = $1 AND (usage_limit IS NULL OR usage_count < usage_limit)
		RETURNING ` + couponColumns
	return scanCoupon(q.db.QueryRow(ctx, sql, id))
}
