package handler

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/altaj-restaurant/api/internal/database"
	"github.com/altaj-restaurant/api/internal/service"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
)

// TableServicer defines the service methods needed by table handlers.
// Satisfied by *service.TableService.
type TableServicer interface {
	Create(ctx context.Context, req service.CreateTableRequest) (*database.Table, error)
	SetStatus(ctx context.Context, tableID uuid.UUID, target, orderID string) (*database.Table, error)
}

// TableStore defines the database methods needed by table read handlers.
type TableStore interface {
	GetTable(ctx context.Context, id uuid.UUID) (database.Table, error)
	ListTables(ctx context.Context, arg database.ListTablesParams) ([]database.Table, error)
}

// TableHandler handles restaurant table endpoints.
type TableHandler struct {
	svc   TableServicer
	store TableStore
}

func NewTableHandler(svc TableServicer, store TableStore) *TableHandler {
	return &TableHandler{svc: svc, store: store}
}

// RegisterPublicRoutes registers the table listing endpoint (customers pick a
// vacant table when booking dine-in).
func (h *TableHandler) RegisterPublicRoutes(r chi.Router) {
	r.Get("/", h.List)
}

// RegisterStaffRoutes registers the staff table endpoints. Mounted under
// /branches/{bid} behind Authenticate and RequireBranch.
func (h *TableHandler) RegisterStaffRoutes(r chi.Router) {
	r.Post("/", h.Create)
	r.Patch("/{id}/status", h.UpdateStatus)
}

type createTableRequest struct {
	TableNumber string `json:"table_number"`
	Capacity    int32  `json:"capacity"`
	Location    string `json:"location"`
}

type tableStatusRequest struct {
	Status  string `json:"status"`
	OrderID string `json:"order_id"`
}

type tableResponse struct {
	ID             uuid.UUID `json:"id"`
	BranchID       uuid.UUID `json:"branch_id"`
	TableNumber    string    `json:"table_number"`
	Capacity       int32     `json:"capacity"`
	Location       *string   `json:"location"`
	Status         string    `json:"status"`
	CurrentOrderID *string   `json:"current_order_id"`
	CreatedAt      time.Time `json:"created_at"`
}

func dbTableToResponse(t database.Table) tableResponse {
	return tableResponse{
		ID:             t.ID,
		BranchID:       t.BranchID,
		TableNumber:    t.TableNumber,
		Capacity:       t.Capacity,
		Location:       textPtr(t.Location),
		Status:         t.Status,
		CurrentOrderID: uuidPtr(t.CurrentOrderID),
		CreatedAt:      t.CreatedAt,
	}
}

// List handles GET /api/tables with optional branch_id and status filters.
func (h *TableHandler) List(w http.ResponseWriter, r *http.Request) {
	params := database.ListTablesParams{}
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

	tables, err := h.store.ListTables(r.Context(), params)
	if err != nil {
		log.Printf("ERROR: list tables: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	resp := make([]tableResponse, len(tables))
	for i, t := range tables {
		resp[i] = dbTableToResponse(t)
	}
	writeJSON(w, http.StatusOK, resp)
}

// Create handles POST /api/branches/{bid}/tables.
func (h *TableHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createTableRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	bid, ok := branchScope(w, r)
	if !ok {
		return
	}

	table, err := h.svc.Create(r.Context(), service.CreateTableRequest{
		BranchID:    bid,
		TableNumber: req.TableNumber,
		Capacity:    req.Capacity,
		Location:    req.Location,
	})
	if err != nil {
		respondServiceError(w, "create table", err)
		return
	}
	writeJSON(w, http.StatusCreated, dbTableToResponse(*table))
}

// UpdateStatus handles PATCH /api/branches/{bid}/tables/{id}/status.
func (h *TableHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	tableID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid table ID"})
		return
	}

	var req tableStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}
	if req.Status == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "status is required"})
		return
	}

	bid, ok := branchScope(w, r)
	if !ok {
		return
	}
	existing, err := h.store.GetTable(r.Context(), tableID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "table not found"})
			return
		}
		log.Printf("ERROR: get table: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}
	if existing.BranchID != bid {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "table not found"})
		return
	}

	table, err := h.svc.SetStatus(r.Context(), tableID, req.Status, req.OrderID)
	if err != nil {
		respondServiceError(w, "update table status", err)
		return
	}
	writeJSON(w, http.StatusOK, dbTableToResponse(*table))
}
