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

// BranchStore defines the database methods needed by branch handlers.
type BranchStore interface {
	CreateBranch(ctx context.Context, arg database.CreateBranchParams) (database.Branch, error)
	GetBranch(ctx context.Context, id uuid.UUID) (database.Branch, error)
	ListBranches(ctx context.Context, isActive pgtype.Bool) ([]database.Branch, error)
	UpdateBranch(ctx context.Context, arg database.UpdateBranchParams) (database.Branch, error)
}

// BranchHandler handles branch endpoints.
type BranchHandler struct {
	store BranchStore
}

func NewBranchHandler(store BranchStore) *BranchHandler {
	return &BranchHandler{store: store}
}

// RegisterPublicRoutes registers the customer-facing branch endpoints.
func (h *BranchHandler) RegisterPublicRoutes(r chi.Router) {
	r.Get("/", h.List)
	r.Get("/{bid}", h.Get)
}

// RegisterAdminRoutes registers the admin branch endpoints.
func (h *BranchHandler) RegisterAdminRoutes(r chi.Router) {
	r.Post("/", h.Create)
	r.Put("/{bid}", h.Update)
}

type branchRequest struct {
	Name      string   `json:"name"`
	Address   string   `json:"address"`
	Phone     string   `json:"phone"`
	Email     string   `json:"email"`
	Latitude  *float64 `json:"latitude"`
	Longitude *float64 `json:"longitude"`
	IsActive  *bool    `json:"is_active"`
}

type branchResponse struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	Address   string    `json:"address"`
	Phone     string    `json:"phone"`
	Email     string    `json:"email"`
	Latitude  *float64  `json:"latitude"`
	Longitude *float64  `json:"longitude"`
	IsActive  bool      `json:"is_active"`
	CreatedAt time.Time `json:"created_at"`
}

func dbBranchToResponse(b database.Branch) branchResponse {
	resp := branchResponse{
		ID:        b.ID,
		Name:      b.Name,
		Address:   b.Address,
		Phone:     b.Phone,
		Email:     b.Email,
		IsActive:  b.IsActive,
		CreatedAt: b.CreatedAt,
	}
	if b.Latitude.Valid {
		resp.Latitude = &b.Latitude.Float64
	}
	if b.Longitude.Valid {
		resp.Longitude = &b.Longitude.Float64
	}
	return resp
}

// List handles GET /api/branches. Customers only see active branches;
// pass ?all=true (admin UI) to include inactive ones.
func (h *BranchHandler) List(w http.ResponseWriter, r *http.Request) {
	isActive := pgtype.Bool{Bool: true, Valid: true}
	if r.URL.Query().Get("all") == "true" {
		isActive = pgtype.Bool{}
	}

	branches, err := h.store.ListBranches(r.Context(), isActive)
	if err != nil {
		log.Printf("ERROR: list branches: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	resp := make([]branchResponse, len(branches))
	for i, b := range branches {
		resp[i] = dbBranchToResponse(b)
	}
	writeJSON(w, http.StatusOK, resp)
}

// Get handles GET /api/branches/{bid}.
func (h *BranchHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "bid"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid branch ID"})
		return
	}

	branch, err := h.store.GetBranch(r.Context(), id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "branch not found"})
			return
		}
		log.Printf("ERROR: get branch: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}
	writeJSON(w, http.StatusOK, dbBranchToResponse(branch))
}

// Create handles POST /api/branches.
func (h *BranchHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req branchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}
	if req.Name == "" || req.Address == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "name and address are required"})
		return
	}

	params := database.CreateBranchParams{
		Name:     req.Name,
		Address:  req.Address,
		Phone:    req.Phone,
		Email:    req.Email,
		IsActive: true,
	}
	if req.Latitude != nil {
		params.Latitude = pgtype.Float8{Float64: *req.Latitude, Valid: true}
	}
	if req.Longitude != nil {
		params.Longitude = pgtype.Float8{Float64: *req.Longitude, Valid: true}
	}
	if req.IsActive != nil {
		params.IsActive = *req.IsActive
	}

	branch, err := h.store.CreateBranch(r.Context(), params)
	if err != nil {
		log.Printf("ERROR: create branch: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}
	writeJSON(w, http.StatusCreated, dbBranchToResponse(branch))
}

// Update handles PUT /api/branches/{bid}.
func (h *BranchHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "bid"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid branch ID"})
		return
	}

	var req branchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}
	if req.Name == "" || req.Address == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "name and address are required"})
		return
	}

	params := database.UpdateBranchParams{
		ID:       id,
		Name:     req.Name,
		Address:  req.Address,
		Phone:    req.Phone,
		Email:    req.Email,
		IsActive: true,
	}
	if req.Latitude != nil {
		params.Latitude = pgtype.Float8{Float64: *req.Latitude, Valid: true}
	}
	if req.Longitude != nil {
		params.Longitude = pgtype.Float8{Float64: *req.Longitude, Valid: true}
	}
	if req.IsActive != nil {
		params.IsActive = *req.IsActive
	}

	branch, err := h.store.UpdateBranch(r.Context(), params)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "branch not found"})
			return
		}
		log.Printf("ERROR: update branch: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}
	writeJSON(w, http.StatusOK, dbBranchToResponse(branch))
}
