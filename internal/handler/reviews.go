package handler

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/altaj-restaurant/api/internal/database"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
)

// ReviewStore defines the database methods needed by review handlers.
type ReviewStore interface {
	CreateReview(ctx context.Context, arg database.CreateReviewParams) (database.Review, error)
	ListReviews(ctx context.Context, arg database.ListReviewsParams) ([]database.Review, error)
	ApproveReview(ctx context.Context, id uuid.UUID) (database.Review, error)
	GetBranch(ctx context.Context, id uuid.UUID) (database.Branch, error)
}

// ReviewHandler handles customer review endpoints.
type ReviewHandler struct {
	store ReviewStore
}

func NewReviewHandler(store ReviewStore) *ReviewHandler {
	return &ReviewHandler{store: store}
}

// RegisterPublicRoutes registers the customer review endpoints. Listing only
// surfaces approved reviews.
func (h *ReviewHandler) RegisterPublicRoutes(r chi.Router) {
	r.Post("/", h.Create)
	r.Get("/", h.List)
}

// RegisterAdminRoutes registers the moderation endpoints.
func (h *ReviewHandler) RegisterAdminRoutes(r chi.Router) {
	r.Get("/pending", h.ListPending)
	r.Patch("/{id}/approve", h.Approve)
}

type createReviewRequest struct {
	CustomerID   string `json:"customer_id"`
	CustomerName string `json:"customer_name"`
	BranchID     string `json:"branch_id"`
	OrderID      string `json:"order_id"`
	Rating       int32  `json:"rating"`
	Comment      string `json:"comment"`
}

type reviewResponse struct {
	ID           uuid.UUID `json:"id"`
	CustomerID   *string   `json:"customer_id"`
	CustomerName string    `json:"customer_name"`
	BranchID     uuid.UUID `json:"branch_id"`
	OrderID      *string   `json:"order_id"`
	Rating       int32     `json:"rating"`
	Comment      *string   `json:"comment"`
	IsApproved   bool      `json:"is_approved"`
	CreatedAt    time.Time `json:"created_at"`
}

func dbReviewToResponse(r database.Review) reviewResponse {
	return reviewResponse{
		ID:           r.ID,
		CustomerID:   uuidPtr(r.CustomerID),
		CustomerName: r.CustomerName,
		BranchID:     r.BranchID,
		OrderID:      uuidPtr(r.OrderID),
		Rating:       r.Rating,
		Comment:      textPtr(r.Comment),
		IsApproved:   r.IsApproved,
		CreatedAt:    r.CreatedAt,
	}
}

// Create handles POST /api/reviews. New reviews start unapproved.
func (h *ReviewHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createReviewRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}
	if req.CustomerName == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "customer_name is required"})
		return
	}
	if req.Rating < 1 || req.Rating > 5 {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "rating must be between 1 and 5"})
		return
	}

	branchID, err := uuid.Parse(req.BranchID)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid branch_id"})
		return
	}
	if _, err := h.store.GetBranch(r.Context(), branchID); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "branch not found"})
			return
		}
		log.Printf("ERROR: get branch: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	params := database.CreateReviewParams{
		CustomerName: req.CustomerName,
		BranchID:     branchID,
		Rating:       req.Rating,
	}
	if req.CustomerID != "" {
		cid, err := uuid.Parse(req.CustomerID)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid customer_id"})
			return
		}
		params.CustomerID = pgtype.UUID{Bytes: cid, Valid: true}
	}
	if req.OrderID != "" {
		oid, err := uuid.Parse(req.OrderID)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid order_id"})
			return
		}
		params.OrderID = pgtype.UUID{Bytes: oid, Valid: true}
	}
	if req.Comment != "" {
		params.Comment = pgtype.Text{String: req.Comment, Valid: true}
	}

	review, err := h.store.CreateReview(r.Context(), params)
	if err != nil {
		log.Printf("ERROR: create review: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}
	writeJSON(w, http.StatusCreated, dbReviewToResponse(review))
}

// List handles GET /api/reviews: approved reviews, optionally per branch.
func (h *ReviewHandler) List(w http.ResponseWriter, r *http.Request) {
	h.list(w, r, true)
}

// ListPending handles GET /api/reviews/pending for moderators.
func (h *ReviewHandler) ListPending(w http.ResponseWriter, r *http.Request) {
	h.list(w, r, false)
}

func (h *ReviewHandler) list(w http.ResponseWriter, r *http.Request, approvedOnly bool) {
	params := database.ListReviewsParams{ApprovedOnly: approvedOnly}
	if s := r.URL.Query().Get("branch_id"); s != "" {
		bid, err := uuid.Parse(s)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid branch_id"})
			return
		}
		params.BranchID = pgtype.UUID{Bytes: bid, Valid: true}
	}

	reviews, err := h.store.ListReviews(r.Context(), params)
	if err != nil {
		log.Printf("ERROR: list reviews: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	resp := make([]reviewResponse, len(reviews))
	for i, rv := range reviews {
		resp[i] = dbReviewToResponse(rv)
	}
	writeJSON(w, http.StatusOK, resp)
}

// Approve handles PATCH /api/reviews/{id}/approve.
func (h *ReviewHandler) Approve(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid review ID"})
		return
	}

	review, err := h.store.ApproveReview(r.Context(), id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "review not found"})
			return
		}
		log.Printf("ERROR: approve review: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}
	writeJSON(w, http.StatusOK, dbReviewToResponse(review))
}
