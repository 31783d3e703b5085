package handler

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/altaj-restaurant/api/internal/database"
	"github.com/altaj-restaurant/api/internal/middleware"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
)

// PartnerServicer defines the service methods needed by partner handlers.
// Satisfied by *service.DeliveryService.
type PartnerServicer interface {
	SetPartnerStatus(ctx context.Context, partnerID uuid.UUID, target string) (*database.DeliveryPartner, error)
}

// PartnerStore defines the database methods needed by partner handlers.
type PartnerStore interface {
	ListPartners(ctx context.Context, arg database.ListPartnersParams) ([]database.DeliveryPartner, error)
	GetPartnerByUser(ctx context.Context, userID uuid.UUID) (database.DeliveryPartner, error)
	CountAvailablePartners(ctx context.Context, branchID uuid.UUID) (int64, error)
}

// PartnerHandler handles delivery partner endpoints.
type PartnerHandler struct {
	svc   PartnerServicer
	store PartnerStore
}

func NewPartnerHandler(svc PartnerServicer, store PartnerStore) *PartnerHandler {
	return &PartnerHandler{svc: svc, store: store}
}

// RegisterPublicRoutes registers the availability check used by the checkout
// page before it lets a customer pick delivery.
func (h *PartnerHandler) RegisterPublicRoutes(r chi.Router) {
	r.Get("/availability/{bid}", h.Availability)
}

// RegisterStaffRoutes registers the staff and partner endpoints.
func (h *PartnerHandler) RegisterStaffRoutes(r chi.Router) {
	r.Get("/", h.List)
	r.Get("/me", h.Me)
	r.Patch("/me/status", h.UpdateMyStatus)
}

type partnerStatusRequest struct {
	Status string `json:"status"`
}

type partnerResponse struct {
	ID             uuid.UUID `json:"id"`
	UserID         uuid.UUID `json:"user_id"`
	BranchID       uuid.UUID `json:"branch_id"`
	Name           string    `json:"name"`
	Phone          *string   `json:"phone"`
	VehicleType    *string   `json:"vehicle_type"`
	VehicleNumber  *string   `json:"vehicle_number"`
	Status         string    `json:"status"`
	CurrentOrderID *string   `json:"current_order_id"`
	CreatedAt      time.Time `json:"created_at"`
}

type availabilityResponse struct {
	BranchID          uuid.UUID `json:"branch_id"`
	AvailablePartners int64     `json:"available_partners"`
	DeliveryAvailable bool      `json:"delivery_available"`
}

func dbPartnerToResponse(p database.DeliveryPartner) partnerResponse {
	return partnerResponse{
		ID:             p.ID,
		UserID:         p.UserID,
		BranchID:       p.BranchID,
		Name:           p.Name,
		Phone:          textPtr(p.Phone),
		VehicleType:    textPtr(p.VehicleType),
		VehicleNumber:  textPtr(p.VehicleNumber),
		Status:         p.Status,
		CurrentOrderID: uuidPtr(p.CurrentOrderID),
		CreatedAt:      p.CreatedAt,
	}
}

// Availability handles GET /api/delivery-partners/availability/{bid}.
func (h *PartnerHandler) Availability(w http.ResponseWriter, r *http.Request) {
	branchID, err := uuid.Parse(chi.URLParam(r, "bid"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid branch ID"})
		return
	}

	count, err := h.store.CountAvailablePartners(r.Context(), branchID)
	if err != nil {
		log.Printf("ERROR: count available partners: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	writeJSON(w, http.StatusOK, availabilityResponse{
		BranchID:          branchID,
		AvailablePartners: count,
		DeliveryAvailable: count > 0,
	})
}

// List handles GET /api/delivery-partners with optional branch_id and status filters.
func (h *PartnerHandler) List(w http.ResponseWriter, r *http.Request) {
	params := database.ListPartnersParams{}
	if s := r.URL.Query().Get("branch_id"); s != "" {
		bid, err := uuid.Parse(s)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid branch_id"})
			return
		}
		params.BranchID = pgtype.UUID{Bytes: bid, Valid: true}
	}
	if s := r.URL.Query().Get("status"); s != "" {
		params.Status = pgtype.Text{String: s, Valid: true}
	}

	partners, err := h.store.ListPartners(r.Context(), params)
	if err != nil {
		log.Printf("ERROR: list partners: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	resp := make([]partnerResponse, len(partners))
	for i, p := range partners {
		resp[i] = dbPartnerToResponse(p)
	}
	writeJSON(w, http.StatusOK, resp)
}

// Me handles GET /api/delivery-partners/me for the logged-in partner.
func (h *PartnerHandler) Me(w http.ResponseWriter, r *http.Request) {
	claims := middleware.ClaimsFromContext(r.Context())
	if claims == nil {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "not authenticated"})
		return
	}

	partner, err := h.store.GetPartnerByUser(r.Context(), claims.UserID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "delivery partner profile not found"})
			return
		}
		log.Printf("ERROR: get partner by user: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}
	writeJSON(w, http.StatusOK, dbPartnerToResponse(partner))
}

// UpdateMyStatus handles PATCH /api/delivery-partners/me/status. Partners can
// only toggle themselves between available and offline.
func (h *PartnerHandler) UpdateMyStatus(w http.ResponseWriter, r *http.Request) {
	claims := middleware.ClaimsFromContext(r.Context())
	if claims == nil {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "not authenticated"})
		return
	}

	partner, err := h.store.GetPartnerByUser(r.Context(), claims.UserID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "delivery partner profile not found"})
			return
		}
		log.Printf("ERROR: get partner by user: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	var req partnerStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}
	if req.Status == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "status is required"})
		return
	}

	updated, err := h.svc.SetPartnerStatus(r.Context(), partner.ID, req.Status)
	if err != nil {
		respondServiceError(w, "update partner status", err)
		return
	}
	writeJSON(w, http.StatusOK, dbPartnerToResponse(*updated))
}
