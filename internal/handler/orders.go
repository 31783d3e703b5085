package handler

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/altaj-restaurant/api/internal/database"
	"github.com/altaj-restaurant/api/internal/enum"
	"github.com/altaj-restaurant/api/internal/service"
	"github.com/altaj-restaurant/api/internal/ws"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/shopspring/decimal"
)

// OrderServicer defines the service methods needed by order handlers.
// Satisfied by *service.OrderService; narrow interface for testability.
type OrderServicer interface {
	PlaceOrder(ctx context.Context, req service.PlaceOrderRequest) (*database.Order, error)
	Transition(ctx context.Context, orderID uuid.UUID, target string) (*database.Order, error)
}

// DeliveryServicer defines the delivery assignment method needed by the
// assign endpoint. Satisfied by *service.DeliveryService.
type DeliveryServicer interface {
	Assign(ctx context.Context, orderID, partnerID uuid.UUID) (*database.Order, error)
}

// OrderStore defines the database methods needed by order read handlers.
// Satisfied by *database.Queries; narrow interface for testability.
type OrderStore interface {
	GetOrder(ctx context.Context, id uuid.UUID) (database.Order, error)
	ListOrders(ctx context.Context, arg database.ListOrdersParams) ([]database.Order, error)
	UpdateOrderPaymentStatus(ctx context.Context, arg database.UpdateOrderPaymentStatusParams) (database.Order, error)
}

// Broadcaster pushes order events to branch dashboards. Satisfied by *ws.Hub.
type Broadcaster interface {
	BroadcastToBranch(branchID uuid.UUID, event ws.Event)
}

// OrderHandler handles order endpoints.
type OrderHandler struct {
	svc      OrderServicer
	delivery DeliveryServicer
	store    OrderStore
	hub      Broadcaster
}

// NewOrderHandler creates a new OrderHandler.
func NewOrderHandler(svc OrderServicer, delivery DeliveryServicer, store OrderStore, hub Broadcaster) *OrderHandler {
	return &OrderHandler{svc: svc, delivery: delivery, store: store, hub: hub}
}

// RegisterPublicRoutes registers the customer-facing order endpoints.
func (h *OrderHandler) RegisterPublicRoutes(r chi.Router) {
	r.Post("/", h.Create)
	r.Get("/{id}", h.Get)
}

// RegisterStaffRoutes registers the staff order endpoints. Mounted under
// /branches/{bid} behind Authenticate and RequireBranch.
func (h *OrderHandler) RegisterStaffRoutes(r chi.Router) {
	r.Get("/", h.List)
	r.Patch("/{id}/status", h.UpdateStatus)
	r.Patch("/{id}/payment", h.UpdatePayment)
	r.Post("/{id}/assign-delivery", h.AssignDelivery)
}

// --- Request / Response types ---

type createOrderRequest struct {
	CustomerID          string                   `json:"customer_id"`
	CustomerName        string                   `json:"customer_name"`
	CustomerPhone       string                   `json:"customer_phone"`
	CustomerEmail       string                   `json:"customer_email"`
	BranchID            string                   `json:"branch_id"`
	OrderType           string                   `json:"order_type"`
	Items               []createOrderItemRequest `json:"items"`
	TableID             string                   `json:"table_id"`
	DeliveryAddress     string                   `json:"delivery_address"`
	PaymentMethod       string                   `json:"payment_method"`
	SpecialInstructions string                   `json:"special_instructions"`
}

type createOrderItemRequest struct {
	MenuItemID   string `json:"menu_item_id"`
	MenuItemName string `json:"menu_item_name"`
	Quantity     int32  `json:"quantity"`
	UnitPrice    string `json:"unit_price"`
}

type orderResponse struct {
	ID                  uuid.UUID                `json:"id"`
	OrderNumber         string                   `json:"order_number"`
	CustomerID          *string                  `json:"customer_id"`
	CustomerName        string                   `json:"customer_name"`
	CustomerPhone       string                   `json:"customer_phone"`
	CustomerEmail       *string                  `json:"customer_email"`
	BranchID            uuid.UUID                `json:"branch_id"`
	OrderType           string                   `json:"order_type"`
	Items               []database.OrderLineItem `json:"items"`
	Subtotal            string                   `json:"subtotal"`
	Tax                 string                   `json:"tax"`
	Total               string                   `json:"total"`
	Status              string                   `json:"status"`
	PaymentMethod       string                   `json:"payment_method"`
	PaymentStatus       string                   `json:"payment_status"`
	DeliveryAddress     *string                  `json:"delivery_address"`
	TableID             *string                  `json:"table_id"`
	DeliveryPartnerID   *string                  `json:"delivery_partner_id"`
	SpecialInstructions *string                  `json:"special_instructions"`
	CreatedAt           time.Time                `json:"created_at"`
	UpdatedAt           time.Time                `json:"updated_at"`
}

// orderListResponse wraps a list of orders with pagination metadata.
type orderListResponse struct {
	Orders []orderResponse `json:"orders"`
	Limit  int             `json:"limit"`
	Offset int             `json:"offset"`
}

type updateStatusRequest struct {
	Status string `json:"status"`
}

type assignDeliveryRequest struct {
	PartnerID string `json:"partner_id"`
}

type updatePaymentRequest struct {
	PaymentStatus string `json:"payment_status"`
}

// --- Conversion helpers ---

func numericString(n pgtype.Numeric) string {
	if !n.Valid {
		return "0.00"
	}
	d := decimal.NewFromBigInt(n.Int, n.Exp)
	return d.StringFixed(2)
}

func textPtr(t pgtype.Text) *string {
	if !t.Valid {
		return nil
	}
	return &t.String
}

func uuidPtr(u pgtype.UUID) *string {
	if !u.Valid {
		return nil
	}
	s := uuid.UUID(u.Bytes).String()
	return &s
}

func dbOrderToResponse(o database.Order) orderResponse {
	items := o.Items
	if items == nil {
		items = []database.OrderLineItem{}
	}
	return orderResponse{
		ID:                  o.ID,
		OrderNumber:         o.OrderNumber,
		CustomerID:          uuidPtr(o.CustomerID),
		CustomerName:        o.CustomerName,
		CustomerPhone:       o.CustomerPhone,
		CustomerEmail:       textPtr(o.CustomerEmail),
		BranchID:            o.BranchID,
		OrderType:           o.OrderType,
		Items:               items,
		Subtotal:            numericString(o.Subtotal),
		Tax:                 numericString(o.Tax),
		Total:               numericString(o.Total),
		Status:              o.Status,
		PaymentMethod:       o.PaymentMethod,
		PaymentStatus:       o.PaymentStatus,
		DeliveryAddress:     textPtr(o.DeliveryAddress),
		TableID:             uuidPtr(o.TableID),
		DeliveryPartnerID:   uuidPtr(o.DeliveryPartnerID),
		SpecialInstructions: textPtr(o.SpecialInstructions),
		CreatedAt:           o.CreatedAt,
		UpdatedAt:           o.UpdatedAt,
	}
}

// broadcastOrder pushes an order event to the order's branch room.
func (h *OrderHandler) broadcastOrder(eventType string, o *database.Order) {
	if h.hub == nil {
		return
	}
	payload, err := json.Marshal(dbOrderToResponse(*o))
	if err != nil {
		log.Printf("ERROR: marshal order event: %v", err)
		return
	}
	h.hub.BroadcastToBranch(o.BranchID, ws.Event{Type: eventType, Payload: payload})
}

// branchScope reads the {bid} parameter of branch-scoped staff routes.
// Writes the error response itself and returns ok=false on a malformed id.
func branchScope(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	bid, err := uuid.Parse(chi.URLParam(r, "bid"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid branch ID"})
		return uuid.Nil, false
	}
	return bid, true
}

// orderInBranch verifies the order belongs to the scoped branch. Responds
// 404 on mismatch so order ids of other branches are not confirmed to exist.
func (h *OrderHandler) orderInBranch(w http.ResponseWriter, r *http.Request, orderID, bid uuid.UUID) bool {
	order, err := h.store.GetOrder(r.Context(), orderID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "order not found"})
			return false
		}
		log.Printf("ERROR: get order: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return false
	}
	if order.BranchID != bid {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "order not found"})
		return false
	}
	return true
}

// --- Handlers ---

// Create handles POST /api/orders.
func (h *OrderHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createOrderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	branchID, err := uuid.Parse(req.BranchID)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid branch_id"})
		return
	}

	items := make([]service.PlaceOrderItem, len(req.Items))
	for i, item := range req.Items {
		items[i] = service.PlaceOrderItem{
			MenuItemID:   item.MenuItemID,
			MenuItemName: item.MenuItemName,
			Quantity:     item.Quantity,
			UnitPrice:    item.UnitPrice,
		}
	}

	order, err := h.svc.PlaceOrder(r.Context(), service.PlaceOrderRequest{
		CustomerID:          req.CustomerID,
		CustomerName:        req.CustomerName,
		CustomerPhone:       req.CustomerPhone,
		CustomerEmail:       req.CustomerEmail,
		BranchID:            branchID,
		OrderType:           req.OrderType,
		Items:               items,
		TableID:             req.TableID,
		DeliveryAddress:     req.DeliveryAddress,
		PaymentMethod:       req.PaymentMethod,
		SpecialInstructions: req.SpecialInstructions,
	})
	if err != nil {
		respondServiceError(w, "create order", err)
		return
	}

	h.broadcastOrder("order.created", order)
	writeJSON(w, http.StatusCreated, dbOrderToResponse(*order))
}

// Get handles GET /api/orders/{id}. Customers use it to track their order.
func (h *OrderHandler) Get(w http.ResponseWriter, r *http.Request) {
	orderID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid order ID"})
		return
	}

	order, err := h.store.GetOrder(r.Context(), orderID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "order not found"})
			return
		}
		log.Printf("ERROR: get order: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	writeJSON(w, http.StatusOK, dbOrderToResponse(order))
}

// List handles GET /api/branches/{bid}/orders.
func (h *OrderHandler) List(w http.ResponseWriter, r *http.Request) {
	bid, ok := branchScope(w, r)
	if !ok {
		return
	}

	limit := 20
	if s := r.URL.Query().Get("limit"); s != "" {
		if v, err := strconv.Atoi(s); err == nil && v > 0 {
			limit = v
		}
	}
	if limit > 100 {
		limit = 100
	}

	offset := 0
	if s := r.URL.Query().Get("offset"); s != "" {
		if v, err := strconv.Atoi(s); err == nil && v >= 0 {
			offset = v
		}
	}

	params := database.ListOrdersParams{
		BranchID: pgtype.UUID{Bytes: bid, Valid: true},
		Limit:    int32(limit),
		Offset:   int32(offset),
	}

	if s := r.URL.Query().Get("status"); s != "" {
		params.Status = pgtype.Text{String: s, Valid: true}
	}
	if s := r.URL.Query().Get("type"); s != "" {
		params.OrderType = pgtype.Text{String: s, Valid: true}
	}
	if s := r.URL.Query().Get("customer_id"); s != "" {
		cid, err := uuid.Parse(s)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid customer_id"})
			return
		}
		params.CustomerID = pgtype.UUID{Bytes: cid, Valid: true}
	}

	orders, err := h.store.ListOrders(r.Context(), params)
	if err != nil {
		log.Printf("ERROR: list orders: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	resp := make([]orderResponse, len(orders))
	for i, o := range orders {
		resp[i] = dbOrderToResponse(o)
	}

	writeJSON(w, http.StatusOK, orderListResponse{
		Orders: resp,
		Limit:  limit,
		Offset: offset,
	})
}

// UpdateStatus handles PATCH /api/branches/{bid}/orders/{id}/status.
func (h *OrderHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	orderID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid order ID"})
		return
	}

	var req updateStatusRequest
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
	if !h.orderInBranch(w, r, orderID, bid) {
		return
	}

	order, err := h.svc.Transition(r.Context(), orderID, req.Status)
	if err != nil {
		respondServiceError(w, "update order status", err)
		return
	}

	h.broadcastOrder("order.updated", order)
	writeJSON(w, http.StatusOK, dbOrderToResponse(*order))
}

// UpdatePayment handles PATCH /api/branches/{bid}/orders/{id}/payment.
// Staff mark COD orders collected or flag a failed online payment.
func (h *OrderHandler) UpdatePayment(w http.ResponseWriter, r *http.Request) {
	orderID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid order ID"})
		return
	}

	var req updatePaymentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}
	switch req.PaymentStatus {
	case enum.PaymentStatusPending, enum.PaymentStatusCOD, enum.PaymentStatusCompleted, enum.PaymentStatusFailed:
	default:
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid payment_status"})
		return
	}

	bid, ok := branchScope(w, r)
	if !ok {
		return
	}
	if !h.orderInBranch(w, r, orderID, bid) {
		return
	}

	order, err := h.store.UpdateOrderPaymentStatus(r.Context(), database.UpdateOrderPaymentStatusParams{
		ID:            orderID,
		PaymentStatus: req.PaymentStatus,
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "order not found"})
			return
		}
		log.Printf("ERROR: update order payment: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	h.broadcastOrder("order.updated", &order)
	writeJSON(w, http.StatusOK, dbOrderToResponse(order))
}

// AssignDelivery handles POST /api/branches/{bid}/orders/{id}/assign-delivery.
func (h *OrderHandler) AssignDelivery(w http.ResponseWriter, r *http.Request) {
	orderID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid order ID"})
		return
	}

	var req assignDeliveryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}
	partnerID, err := uuid.Parse(req.PartnerID)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid partner_id"})
		return
	}

	bid, ok := branchScope(w, r)
	if !ok {
		return
	}
	if !h.orderInBranch(w, r, orderID, bid) {
		return
	}

	order, err := h.delivery.Assign(r.Context(), orderID, partnerID)
	if err != nil {
		respondServiceError(w, "assign delivery", err)
		return
	}

	h.broadcastOrder("order.updated", order)
	writeJSON(w, http.StatusOK, dbOrderToResponse(*order))
}
