package handler

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"time"

	"github.com/altaj-restaurant/api/internal/database"
	"github.com/altaj-restaurant/api/internal/enum"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
)

// OfferStore defines the database methods needed by offer handlers.
type OfferStore interface {
	CreateOffer(ctx context.Context, arg database.CreateOfferParams) (database.Offer, error)
	ListActiveOffers(ctx context.Context, branchID pgtype.UUID) ([]database.Offer, error)
}

// OfferHandler handles promotional offer endpoints.
type OfferHandler struct {
	store OfferStore
}

func NewOfferHandler(store OfferStore) *OfferHandler {
	return &OfferHandler{store: store}
}

// RegisterPublicRoutes registers the customer-facing offer listing.
func (h *OfferHandler) RegisterPublicRoutes(r chi.Router) {
	r.Get("/", h.List)
}

// RegisterAdminRoutes registers the offer management endpoints.
func (h *OfferHandler) RegisterAdminRoutes(r chi.Router) {
	r.Post("/", h.Create)
}

type createOfferRequest struct {
	Title         string   `json:"title"`
	Description   string   `json:"description"`
	DiscountType  string   `json:"discount_type"`
	DiscountValue string   `json:"discount_value"`
	MinOrderValue string   `json:"min_order_value"`
	ValidFrom     string   `json:"valid_from"`
	ValidUntil    string   `json:"valid_until"`
	BranchIDs     []string `json:"branch_ids"`
}

type offerResponse struct {
	ID            uuid.UUID   `json:"id"`
	Title         string      `json:"title"`
	Description   string      `json:"description"`
	DiscountType  string      `json:"discount_type"`
	DiscountValue string      `json:"discount_value"`
	MinOrderValue *string     `json:"min_order_value"`
	ValidFrom     time.Time   `json:"valid_from"`
	ValidUntil    time.Time   `json:"valid_until"`
	BranchIDs     []uuid.UUID `json:"branch_ids"`
	IsActive      bool        `json:"is_active"`
	CreatedAt     time.Time   `json:"created_at"`
}

func dbOfferToResponse(o database.Offer) offerResponse {
	return offerResponse{
		ID:            o.ID,
		Title:         o.Title,
		Description:   o.Description,
		DiscountType:  o.DiscountType,
		DiscountValue: numericString(o.DiscountValue),
		MinOrderValue: numericPtr(o.MinOrderValue),
		ValidFrom:     o.ValidFrom,
		ValidUntil:    o.ValidUntil,
		BranchIDs:     o.BranchIDs,
		IsActive:      o.IsActive,
		CreatedAt:     o.CreatedAt,
	}
}

// List handles GET /api/offers: active offers currently in their validity
// window, optionally filtered to a branch.
func (h *OfferHandler) List(w http.ResponseWriter, r *http.Request) {
	branchID := pgtype.UUID{}
	if s := r.URL.Query().Get("branch_id"); s != "" {
		bid, err := uuid.Parse(s)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid branch_id"})
			return
		}
		branchID = pgtype.UUID{Bytes: bid, Valid: true}
	}

	offers, err := h.store.ListActiveOffers(r.Context(), branchID)
	if err != nil {
		log.Printf("ERROR: list offers: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	resp := make([]offerResponse, len(offers))
	for i, o := range offers {
		resp[i] = dbOfferToResponse(o)
	}
	writeJSON(w, http.StatusOK, resp)
}

// Create handles POST /api/offers.
func (h *OfferHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createOfferRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}
	if req.Title == "" || req.DiscountType == "" || req.DiscountValue == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "title, discount_type and discount_value are required"})
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

	params := database.CreateOfferParams{
		Title:        req.Title,
		Description:  req.Description,
		DiscountType: req.DiscountType,
		ValidFrom:    validFrom,
		ValidUntil:   validUntil,
		BranchIDs:    branchIDs,
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

	offer, err := h.store.CreateOffer(r.Context(), params)
	if err != nil {
		log.Printf("ERROR: create offer: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}
	writeJSON(w, http.StatusCreated, dbOfferToResponse(offer))
}
