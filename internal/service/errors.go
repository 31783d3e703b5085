package service

import "errors"

// Validation errors (bad request input).
var (
	ErrEmptyItems            = errors.New("items are required")
	ErrInvalidOrderType      = errors.New("invalid order_type")
	ErrInvalidQuantity       = errors.New("quantity must be > 0")
	ErrInvalidUnitPrice      = errors.New("invalid unit_price")
	ErrInvalidPaymentMethod  = errors.New("invalid payment_method")
	ErrInvalidCustomerID     = errors.New("invalid customer_id")
	ErrInvalidTableID        = errors.New("invalid table_id")
	ErrCustomerNameRequired  = errors.New("customer_name is required")
	ErrCustomerPhoneRequired = errors.New("customer_phone is required")
	ErrTableRequiresDineIn   = errors.New("table_id is only allowed for dine_in orders")
	ErrInvalidOrderStatus    = errors.New("invalid status")
	ErrInvalidTableStatus    = errors.New("invalid table status")
	ErrInvalidPartnerStatus  = errors.New("invalid partner status")
	ErrOrderIDRequired       = errors.New("order_id is required when occupying a table")
)

// Missing or unresolvable references.
var (
	ErrBranchNotFound  = errors.New("branch not found")
	ErrOrderNotFound   = errors.New("order not found")
	ErrTableNotFound   = errors.New("table not found")
	ErrPartnerNotFound = errors.New("delivery partner not found")
)

// Rejected preconditions: the caller may retry once the world changes.
var (
	ErrTableUnavailable    = errors.New("table not available")
	ErrNoPartnersAvailable = errors.New("no delivery partners available")
)

// Invalid state machine operations.
var (
	ErrInvalidTransition     = errors.New("invalid status transition")
	ErrStatusConflict        = errors.New("status changed concurrently, please retry")
	ErrOrderNotReady         = errors.New("order is not ready for pickup")
	ErrNotDeliveryOrder      = errors.New("order is not a delivery order")
	ErrPartnerNotAvailable   = errors.New("delivery partner is not available")
	ErrPartnerHasActiveOrder = errors.New("delivery partner still has an active order")
)

// Coupon evaluation errors.
var (
	ErrCouponNotFound         = errors.New("coupon not found")
	ErrCouponNotYetActive     = errors.New("coupon is not active yet")
	ErrCouponExpired          = errors.New("coupon has expired")
	ErrCouponLimitReached     = errors.New("coupon usage limit reached")
	ErrCouponBelowMinimum     = errors.New("order total below coupon minimum")
	ErrCouponBranchIneligible = errors.New("coupon not valid for this branch")
)
