package handler

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"time"

	"github.com/altaj-restaurant/api/internal/database"
	"github.com/altaj-restaurant/api/internal/enum"
	"github.com/altaj-restaurant/api/internal/service"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/shopspring/decimal"
)

// CouponServicer defines the service methods needed by coupon handlers.
// Satisfied by *service.CouponService.
type CouponServicer interface {
	Apply(ctx context.Context, code string, orderTotal decimal.Decimal, branchID uuid.UUID) (service.CouponResult, error)
	Redeem(ctx context.Context, code string, orderTotal decimal.Decimal, branchID uuid.UUID) (service.CouponResult, error)
}

// CouponStore defines the database methods needed by coupon admin handlers.
type CouponStore interface {
	CreateCoupon(ctx context.Context, arg database.CreateCouponParams) (database.Coupon, error)
	ListCoupons(ctx context.Context) ([]database.Coupon, error)
}

// CouponHandler handles coupon endpoints.
type CouponHandler struct {
	svc   CouponServicer
	store CouponStore
}

func NewCouponHandler(svc CouponServicer, store CouponStore) *CouponHandler {
	return &CouponHandler{svc: svc, store: store}
}

// RegisterPublicRoutes registers the customer coupon endpoints.
func (h *CouponHandler) RegisterPublicRoutes(r chi.Router) {
	r.Post("/apply", h.Apply)
	r.Post("/redeem", h.Redeem)
}

// RegisterAdminRoutes registers the coupon management endpoints.
func (h *CouponHandler) RegisterAdminRoutes(r chi.Router) {
	r.Post("/", h.Create)
	r.Get("/", h.List)
}

type createCouponRequest struct {
	Code          string   `json:"code"`
	Description   string   `json:"description"`
	DiscountType  string   `json:"discount_type"`
	DiscountValue string   `json:"discount_value"`
	MinOrderValue string   `json:"min_order_value"`
	MaxDiscount   string   `json:"max_discount"`
	ValidFrom     string   `json:"valid_from"`
	ValidUntil    string   `json:"valid_until"`
	UsageLimit    *int32   `json:"usage_limit"`
	PerUserLimit  *int32   `json:"per_user_limit"`
	BranchIDs     []string `json:"branch_ids"`
}

type applyCouponRequest struct {
	Code       string `json:"code"`
	OrderTotal string `json:"order_total"`
	BranchID   string `json:"branch_id"`
}

type couponResultResponse struct {
	Valid              bool   `json:"valid"`
	CalculatedDiscount string `json:"calculated_discount"`
	FinalTotal         string `json:"final_total"`
}

type couponResponse struct {
	ID            uuid.UUID   `json:"id"`
	Code          string      `json:"code"`
	Description   *string     `json:"description"`
	DiscountType  string      `json:"discount_type"`
	DiscountValue string      `json:"discount_value"`
	MinOrderValue *string     `json:"min_order_value"`
	MaxDiscount   *string     `json:"max_discount"`
	ValidFrom     time.Time   `json:"valid_from"`
	ValidUntil    time.Time   `json:"valid_until"`
	UsageLimit    *int32      `json:"usage_limit"`
	PerUserLimit  *int32      `json:"per_user_limit"`
	UsageCount    int32       `json:"usage_count"`
	BranchIDs     []uuid.UUID `json:"branch_ids"`
	IsActive      bool        `json:"is_active"`
	CreatedAt     time.Time   `json:"created_at"`
}

func numericPtr(n pgtype.Numeric) *string {
	if !n.Valid {
		return nil
	}
	s := numericString(n)
	return &s
}

func int4Ptr(n pgtype.Int4) *int32 {
	if !n.Valid {
		return nil
	}
	return &n.Int32
}

func dbCouponToResponse(c database.Coupon) couponResponse {
	return couponResponse{
		ID:            c.ID,
		Code:          c.Code,
		Description:   textPtr(c.Description),
		DiscountType:  c.DiscountType,
		DiscountValue: numericString(c.DiscountValue),
		MinOrderValue: numericPtr(c.MinOrderValue),
		MaxDiscount:   numericPtr(c.MaxDiscount),
		ValidFrom:     c.ValidFrom,
		ValidUntil:    c.ValidUntil,
		UsageLimit:    int4Ptr(c.UsageLimit),
		PerUserLimit:  int4Ptr(c.PerUserLimit),
		UsageCount:    c.UsageCount,
		BranchIDs:     c.BranchIDs,
		IsActive:      c.IsActive,
		CreatedAt:     c.CreatedAt,
	}
}

// decodeApply parses the shared apply/redeem payload.
func decodeApply(w http.ResponseWriter, r *http.Request) (code string, total decimal.Decimal, branchID uuid.UUID, ok bool) {
	var req applyCouponRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return "", decimal.Zero, uuid.Nil, false
	}
	if req.Code == "" || req.OrderTotal == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "code and order_total are required"})
		return "", decimal.Zero, uuid.Nil, false
	}

	total, err := decimal.NewFromString(req.OrderTotal)
	if err != nil || total.IsNegative() {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid order_total"})
		return "", decimal.Zero, uuid.Nil, false
	}

	branchID = uuid.Nil
	if req.BranchID != "" {
		branchID, err = uuid.Parse(req.BranchID)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid branch_id"})
			return "", decimal.Zero, uuid.Nil, false
		}
	}
	return req.Code, total, branchID, true
}

// Apply handles POST /api/coupons/apply: evaluation only, no usage consumed.
func (h *CouponHandler) Apply(w http.ResponseWriter, r *http.Request) {
	code, total, branchID, ok := decodeApply(w, r)
	if !ok {
		return
	}

	result, err := h.svc.Apply(r.Context(), code, total, branchID)
	if err != nil {
		respondServiceError(w, "apply coupon", err)
		return
	}
	writeJSON(w, http.StatusOK, couponResultResponse{
		Valid:              result.Valid,
		CalculatedDiscount: result.CalculatedDiscount.StringFixed(2),
		FinalTotal:         result.FinalTotal.StringFixed(2),
	})
}

// Redeem handles POST /api/coupons/redeem: evaluates and consumes one usage slot.
func (h *CouponHandler) Redeem(w http.ResponseWriter, r *http.Request) {
	code, total, branchID, ok := decodeApply(w, r)
	if !ok {
		return
	}

	result, err := h.svc.Redeem(r.Context(), code, total, branchID)
	if err != nil {
		respondServiceError(w, "redeem coupon", err)
		return
	}
	writeJSON(w, http.StatusOK, couponResultResponse{
		Valid:              result.Valid,
		CalculatedDiscount: result.CalculatedDiscount.StringFixed(2),
		FinalTotal:         result.FinalTotal.StringFixed(2),
	})
}

// Create handles POST /api/coupons.
func (h *CouponHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createCouponRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}
	if req.Code == "" || req.DiscountType == "" || req.DiscountValue == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "code, discount_type and discount_value are required"})
		return
	}
	if req.DiscountType != enum.DiscountTypePercentage && req.DiscountType != enum.DiscountTypeFixed {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid discount_type"})
		return
	}

	validFrom, err := time.Parse(time.RFC3339, req.ValidFrom)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid valid_from, use RFC3339"})
		return
	}
	validUntil, err := time.Parse(time.RFC3339, req.ValidUntil)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid valid_until, use RFC3339"})
		return
	}
	if !validUntil.After(validFrom) {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "valid_until must be after valid_from"})
		return
	}

	branchIDs, err := parseBranchIDs(req.BranchIDs)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid branch_ids"})
		return
	}

	params := database.CreateCouponParams{
		Code:         req.Code,
		DiscountType: req.DiscountType,
		ValidFrom:    validFrom,
		ValidUntil:   validUntil,
		BranchIDs:    branchIDs,
	}
	if req.Description != "" {
		params.Description = pgtype.Text{String: req.Description, Valid: true}
	}
	if err := params.DiscountValue.Scan(req.DiscountValue); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid discount_value"})
		return
	}
	if req.MinOrderValue != "" {
		if err := params.MinOrderValue.Scan(req.MinOrderValue); err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid min_order_value"})
			return
		}
	}
	if req.MaxDiscount != "" {
		if err := params.MaxDiscount.Scan(req.MaxDiscount); err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid max_discount"})
			return
		}
	}
	if req.UsageLimit != nil {
		params.UsageLimit = pgtype.Int4{Int32: *req.UsageLimit, Valid: true}
	}
	if req.PerUserLimit != nil {
		params.PerUserLimit = pgtype.Int4{Int32: *req.PerUserLimit, Valid: true}
	}

	coupon, err := h.store.CreateCoupon(r.Context(), params)
	if err != nil {
		log.Printf("ERROR: create coupon: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}
	writeJSON(w, http.StatusCreated, dbCouponToResponse(coupon))
}

// List handles GET /api/coupons.
func (h *CouponHandler) List(w http.ResponseWriter, r *http.Request) {
	coupons, err := h.store.ListCoupons(r.Context())
	if err != nil {
		log.Printf("ERROR: list coupons: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	resp := make([]couponResponse, len(coupons))
	for i, c := range coupons {
		resp[i] = dbCouponToResponse(c)
	}
	writeJSON(w, http.StatusOK, resp)
}
