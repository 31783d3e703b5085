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
	"github.com/shopspring/decimal"
)

// MenuStore defines the database methods needed by menu handlers.
type MenuStore interface {
	CreateCategory(ctx context.Context, arg database.CreateCategoryParams) (database.MenuCategory, error)
	ListCategories(ctx context.Context) ([]database.MenuCategory, error)
	CreateMenuItem(ctx context.Context, arg database.CreateMenuItemParams) (database.MenuItem, error)
	GetMenuItem(ctx context.Context, id uuid.UUID) (database.MenuItem, error)
	ListMenuItems(ctx context.Context, arg database.ListMenuItemsParams) ([]database.MenuItem, error)
	UpdateMenuItem(ctx context.Context, arg database.UpdateMenuItemParams) (database.MenuItem, error)
	GetCategory(ctx context.Context, id uuid.UUID) (database.MenuCategory, error)
}

// MenuHandler handles menu category and item endpoints.
type MenuHandler struct {
	store MenuStore
}

func NewMenuHandler(store MenuStore) *MenuHandler {
	return &MenuHandler{store: store}
}

// RegisterPublicRoutes registers the customer-facing menu endpoints.
func (h *MenuHandler) RegisterPublicRoutes(r chi.Router) {
	r.Get("/categories", h.ListCategories)
	r.Get("/items", h.ListItems)
	r.Get("/items/{id}", h.GetItem)
}

// RegisterAdminRoutes registers the menu management endpoints.
func (h *MenuHandler) RegisterAdminRoutes(r chi.Router) {
	r.Post("/categories", h.CreateCategory)
	r.Post("/items", h.CreateItem)
	r.Put("/items/{id}", h.UpdateItem)
}

type categoryRequest struct {
	Name         string `json:"name"`
	Description  string `json:"description"`
	DisplayOrder int32  `json:"display_order"`
}

type categoryResponse struct {
	ID           uuid.UUID `json:"id"`
	Name         string    `json:"name"`
	Description  *string   `json:"description"`
	DisplayOrder int32     `json:"display_order"`
	IsActive     bool      `json:"is_active"`
	CreatedAt    time.Time `json:"created_at"`
}

type menuItemRequest struct {
	Name         string   `json:"name"`
	Description  string   `json:"description"`
	CategoryID   string   `json:"category_id"`
	BasePrice    string   `json:"base_price"`
	ImageURL     string   `json:"image_url"`
	IsVegetarian bool     `json:"is_vegetarian"`
	IsAvailable  *bool    `json:"is_available"`
	BranchIDs    []string `json:"branch_ids"`
}

type menuItemResponse struct {
	ID           uuid.UUID   `json:"id"`
	Name         string      `json:"name"`
	Description  *string     `json:"description"`
	CategoryID   uuid.UUID   `json:"category_id"`
	BasePrice    string      `json:"base_price"`
	ImageURL     *string     `json:"image_url"`
	IsVegetarian bool        `json:"is_vegetarian"`
	IsAvailable  bool        `json:"is_available"`
	BranchIDs    []uuid.UUID `json:"branch_ids"`
	CreatedAt    time.Time   `json:"created_at"`
}

func dbCategoryToResponse(c database.MenuCategory) categoryResponse {
	return categoryResponse{
		ID:           c.ID,
		Name:         c.Name,
		Description:  textPtr(c.Description),
		DisplayOrder: c.DisplayOrder,
		IsActive:     c.IsActive,
		CreatedAt:    c.CreatedAt,
	}
}

func dbMenuItemToResponse(m database.MenuItem) menuItemResponse {
	return menuItemResponse{
		ID:           m.ID,
		Name:         m.Name,
		Description:  textPtr(m.Description),
		CategoryID:   m.CategoryID,
		BasePrice:    numericString(m.BasePrice),
		ImageURL:     textPtr(m.ImageURL),
		IsVegetarian: m.IsVegetarian,
		IsAvailable:  m.IsAvailable,
		BranchIDs:    m.BranchIDs,
		CreatedAt:    m.CreatedAt,
	}
}

func parseBranchIDs(ids []string) ([]uuid.UUID, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	out := make([]uuid.UUID, len(ids))
	for i, s := range ids {
		id, err := uuid.Parse(s)
		if err != nil {
			return nil, err
		}
		out[i] = id
	}
	return out, nil
}

// ListCategories handles GET /api/menu/categories.
func (h *MenuHandler) ListCategories(w http.ResponseWriter, r *http.Request) {
	categories, err := h.store.ListCategories(r.Context())
	if err != nil {
		log.Printf("ERROR: list categories: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	resp := make([]categoryResponse, len(categories))
	for i, c := range categories {
		resp[i] = dbCategoryToResponse(c)
	}
	writeJSON(w, http.StatusOK, resp)
}

// CreateCategory handles POST /api/menu/categories.
func (h *MenuHandler) CreateCategory(w http.ResponseWriter, r *http.Request) {
	var req categoryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}
	if req.Name == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "name is required"})
		return
	}

	params := database.CreateCategoryParams{
		Name:         req.Name,
		DisplayOrder: req.DisplayOrder,
	}
	if req.Description != "" {
		params.Description = pgtype.Text{String: req.Description, Valid: true}
	}

	category, err := h.store.CreateCategory(r.Context(), params)
	if err != nil {
		log.Printf("ERROR: create category: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}
	writeJSON(w, http.StatusCreated, dbCategoryToResponse(category))
}

// ListItems handles GET /api/menu/items with optional category and branch filters.
func (h *MenuHandler) ListItems(w http.ResponseWriter, r *http.Request) {
	params := database.ListMenuItemsParams{}
	if s := r.URL.Query().Get("category_id"); s != "" {
		cid, err := uuid.Parse(s)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid category_id"})
			return
		}
		params.CategoryID = pgtype.UUID{Bytes: cid, Valid: true}
	}
	if s := r.URL.Query().Get("branch_id"); s != "" {
		bid, err := uuid.Parse(s)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid branch_id"})
			return
		}
		params.BranchID = pgtype.UUID{Bytes: bid, Valid: true}
	}

	items, err := h.store.ListMenuItems(r.Context(), params)
	if err != nil {
		log.Printf("ERROR: list menu items: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	resp := make([]menuItemResponse, len(items))
	for i, m := range items {
		resp[i] = dbMenuItemToResponse(m)
	}
	writeJSON(w, http.StatusOK, resp)
}

// GetItem handles GET /api/menu/items/{id}.
func (h *MenuHandler) GetItem(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid item ID"})
		return
	}

	item, err := h.store.GetMenuItem(r.Context(), id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "menu item not found"})
			return
		}
		log.Printf("ERROR: get menu item: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}
	writeJSON(w, http.StatusOK, dbMenuItemToResponse(item))
}

// CreateItem handles POST /api/menu/items.
func (h *MenuHandler) CreateItem(w http.ResponseWriter, r *http.Request) {
	params, ok := h.decodeItem(w, r)
	if !ok {
		return
	}

	item, err := h.store.CreateMenuItem(r.Context(), *params)
	if err != nil {
		log.Printf("ERROR: create menu item: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}
	writeJSON(w, http.StatusCreated, dbMenuItemToResponse(item))
}

// UpdateItem handles PUT /api/menu/items/{id}.
func (h *MenuHandler) UpdateItem(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid item ID"})
		return
	}

	params, ok := h.decodeItem(w, r)
	if !ok {
		return
	}

	item, err := h.store.UpdateMenuItem(r.Context(), database.UpdateMenuItemParams{
		ID:           id,
		Name:         params.Name,
		Description:  params.Description,
		CategoryID:   params.CategoryID,
		BasePrice:    params.BasePrice,
		ImageURL:     params.ImageURL,
		IsVegetarian: params.IsVegetarian,
		IsAvailable:  params.IsAvailable,
		BranchIDs:    params.BranchIDs,
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "menu item not found"})
			return
		}
		log.Printf("ERROR: update menu item: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}
	writeJSON(w, http.StatusOK, dbMenuItemToResponse(item))
}

// decodeItem validates the shared create/update payload. Writes the error
// response itself and returns ok=false on failure.
func (h *MenuHandler) decodeItem(w http.ResponseWriter, r *http.Request) (*database.CreateMenuItemParams, bool) {
	var req menuItemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return nil, false
	}
	if req.Name == "" || req.CategoryID == "" || req.BasePrice == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "name, category_id and base_price are required"})
		return nil, false
	}

	categoryID, err := uuid.Parse(req.CategoryID)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid category_id"})
		return nil, false
	}
	if _, err := h.store.GetCategory(r.Context(), categoryID); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "category not found"})
			return nil, false
		}
		log.Printf("ERROR: get category: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return nil, false
	}

	price, err := decimal.NewFromString(req.BasePrice)
	if err != nil || price.IsNegative() {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid base_price"})
		return nil, false
	}

	branchIDs, err := parseBranchIDs(req.BranchIDs)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid branch_ids"})
		return nil, false
	}

	var basePrice pgtype.Numeric
	if err := basePrice.Scan(price.StringFixed(2)); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid base_price"})
		return nil, false
	}

	params := database.CreateMenuItemParams{
		Name:         req.Name,
		CategoryID:   categoryID,
		BasePrice:    basePrice,
		IsVegetarian: req.IsVegetarian,
		IsAvailable:  true,
		BranchIDs:    branchIDs,
	}
	if req.Description != "" {
		params.Description = pgtype.Text{String: req.Description, Valid: true}
	}
	if req.ImageURL != "" {
		params.ImageURL = pgtype.Text{String: req.ImageURL, Valid: true}
	}
	if req.IsAvailable != nil {
		params.IsAvailable = *req.IsAvailable
	}
	return &params, true
}
