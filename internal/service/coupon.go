package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/altaj-restaurant/api/internal/database"
	"github.com/altaj-restaurant/api/internal/enum"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
)

// CouponStore defines the DB methods needed by coupon evaluation and
// redemption.
type CouponStore interface {
	GetCouponByCode(ctx context.Context, code string) (database.Coupon, error)
	IncrementCouponUsage(ctx context.Context, id uuid.UUID) (database.Coupon, error)
}

// CouponResult is the outcome of evaluating a coupon against an order total.
type CouponResult struct {
	Valid              bool
	CalculatedDiscount decimal.Decimal
	FinalTotal         decimal.Decimal
}

// EvaluateCoupon is a pure function: it computes the discount a coupon grants
// on orderTotal without touching usage state. branchID may be uuid.Nil when
// the caller has no branch context; a branch-restricted coupon is then
// ineligible because eligibility cannot be established.
func EvaluateCoupon(c database.Coupon, orderTotal decimal.Decimal, branchID uuid.UUID, now time.Time) (CouponResult, error) {
	if !c.IsActive {
		return CouponResult{}, ErrCouponNotFound
	}
	if now.Before(c.ValidFrom) {
		return CouponResult{}, ErrCouponNotYetActive
	}
	if now.After(c.ValidUntil) {
		return CouponResult{}, ErrCouponExpired
	}
	if c.UsageLimit.Valid && c.UsageCount >= c.UsageLimit.Int32 {
		return CouponResult{}, ErrCouponLimitReached
	}
	if c.MinOrderValue.Valid {
		if orderTotal.LessThan(numericToDecimal(c.MinOrderValue)) {
			return CouponResult{}, ErrCouponBelowMinimum
		}
	}
	if c.BranchIDs != nil {
		if branchID == uuid.Nil || !containsUUID(c.BranchIDs, branchID) {
			return CouponResult{}, ErrCouponBranchIneligible
		}
	}

	value := numericToDecimal(c.DiscountValue)
	var discount decimal.Decimal
	switch c.DiscountType {
	case enum.DiscountTypePercentage:
		discount = orderTotal.Mul(value).Div(decimal.NewFromInt(100))
		if c.MaxDiscount.Valid {
			if max := numericToDecimal(c.MaxDiscount); discount.GreaterThan(max) {
				discount = max
			}
		}
	case enum.DiscountTypeFixed:
		discount = value
	default:
		return CouponResult{}, fmt.Errorf("unknown discount_type %q", c.DiscountType)
	}

	// A discount can never exceed the order value.
	if discount.GreaterThan(orderTotal) {
		discount = orderTotal
	}

	return CouponResult{
		Valid:              true,
		CalculatedDiscount: discount,
		FinalTotal:         orderTotal.Sub(discount),
	}, nil
}

// CouponService resolves coupon codes and handles redemption.
type CouponService struct {
	store CouponStore
}

func NewCouponService(store CouponStore) *CouponService {
	return &CouponService{store: store}
}

// Apply evaluates a coupon code without consuming a usage slot.
func (s *CouponService) Apply(ctx context.Context, code string, orderTotal decimal.Decimal, branchID uuid.UUID) (CouponResult, error) {
	coupon, err := s.store.GetCouponByCode(ctx, code)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return CouponResult{}, ErrCouponNotFound
		}
		return CouponResult{}, fmt.Errorf("get coupon: %w", err)
	}
	return EvaluateCoupon(coupon, orderTotal, branchID, time.Now())
}

// Redeem evaluates the coupon and consumes one usage slot. The increment is
// guarded by the usage limit in the store, so concurrent redemptions of the
// last slot cannot both succeed.
func (s *CouponService) Redeem(ctx context.Context, code string, orderTotal decimal.Decimal, branchID uuid.UUID) (CouponResult, error) {
	coupon, err := s.store.GetCouponByCode(ctx, code)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return CouponResult{}, ErrCouponNotFound
		}
		return CouponResult{}, fmt.Errorf("get coupon: %w", err)
	}

	result, err := EvaluateCoupon(coupon, orderTotal, branchID, time.Now())
	if err != nil {
		return CouponResult{}, err
	}

	if _, err := s.store.IncrementCouponUsage(ctx, coupon.ID); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return CouponResult{}, ErrCouponLimitReached
		}
		return CouponResult{}, fmt.Errorf("increment coupon usage: %w", err)
	}
	return result, nil
}

func containsUUID(set []uuid.UUID, id uuid.UUID) bool {
	for _, v := range set {
		if v == id {
			return true
		}
	}
	return false
}
