package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/altaj-restaurant/api/internal/database"
	"github.com/altaj-restaurant/api/internal/enum"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/shopspring/decimal"
)

// orderNumberPrefix + zero-padded sequence: the 7th order ever placed is
// ALT000007. Numbers are dense, never reused.
const orderNumberPrefix = "ALT"

// gstRate is the flat 5% GST applied to every order subtotal.
var gstRate = decimal.NewFromFloat(0.05)

// TxBeginner starts a new database transaction.
type TxBeginner interface {
	Begin(ctx context.Context) (pgx.Tx, error)
}

// OrderStore defines the DB methods needed to place orders and drive their
// status lifecycle. Satisfied by *database.Queries (and its WithTx variant).
type OrderStore interface {
	GetBranch(ctx context.Context, id uuid.UUID) (database.Branch, error)
	CountAvailablePartners(ctx context.Context, branchID uuid.UUID) (int64, error)
	GetTable(ctx context.Context, id uuid.UUID) (database.Table, error)
	NextOrderNumber(ctx context.Context) (int64, error)
	CreateOrder(ctx context.Context, arg database.CreateOrderParams) (database.Order, error)
	OccupyTable(ctx context.Context, arg database.OccupyTableParams) (database.Table, error)
	GetOrder(ctx context.Context, id uuid.UUID) (database.Order, error)
	UpdateOrderStatus(ctx context.Context, arg database.UpdateOrderStatusParams) (database.Order, error)
	ReleaseTable(ctx context.Context, arg database.ReleaseTableParams) (database.Table, error)
	ReleasePartner(ctx context.Context, arg database.ReleasePartnerParams) (database.DeliveryPartner, error)
}

// NewOrderStore creates an OrderStore from a DBTX (pool or tx).
type NewOrderStore func(db database.DBTX) OrderStore

// PlaceOrderRequest is the validated input for placing an order.
type PlaceOrderRequest struct {
	CustomerID          string // optional: empty means guest order
	CustomerName        string
	CustomerPhone       string
	CustomerEmail       string
	BranchID            uuid.UUID
	OrderType           string
	Items               []PlaceOrderItem
	TableID             string // dine_in only
	DeliveryAddress     string // delivery only
	PaymentMethod       string
	SpecialInstructions string
}

// PlaceOrderItem is a single line in the order. UnitPrice is a decimal
// string; the line total is always recomputed server-side.
type PlaceOrderItem struct {
	MenuItemID   string
	MenuItemName string
	Quantity     int32
	UnitPrice    string
}

// OrderService coordinates order placement and the order status state
// machine, including the table and delivery-partner side effects.
type OrderService struct {
	pool     TxBeginner
	newStore NewOrderStore
}

func NewOrderService(pool TxBeginner, newStore NewOrderStore) *OrderService {
	return &OrderService{pool: pool, newStore: newStore}
}

// PlaceOrder validates preconditions, computes totals, allocates an order
// number and creates the order. For dine-in orders with a table the table is
// occupied in the same transaction; a lost table race rolls everything back,
// so no order can exist against a table that stayed vacant and no table can
// be occupied by an order that was never created.
func (s *OrderService) PlaceOrder(ctx context.Context, req PlaceOrderRequest) (*database.Order, error) {
	if err := validateOrderType(req.OrderType); err != nil {
		return nil, err
	}
	if err := validatePaymentMethod(req.PaymentMethod); err != nil {
		return nil, err
	}
	if req.CustomerName == "" {
		return nil, ErrCustomerNameRequired
	}
	if req.CustomerPhone == "" {
		return nil, ErrCustomerPhoneRequired
	}
	if len(req.Items) == 0 {
		return nil, ErrEmptyItems
	}
	if req.TableID != "" && req.OrderType != enum.OrderTypeDineIn {
		return nil, ErrTableRequiresDineIn
	}

	customerID := pgtype.UUID{}
	if req.CustomerID != "" {
		cid, err := uuid.Parse(req.CustomerID)
		if err != nil {
			return nil, ErrInvalidCustomerID
		}
		customerID = pgtype.UUID{Bytes: cid, Valid: true}
	}

	var tableID uuid.UUID
	if req.TableID != "" {
		tid, err := uuid.Parse(req.TableID)
		if err != nil {
			return nil, ErrInvalidTableID
		}
		tableID = tid
	}

	// Recompute every line total from quantity x unit_price. Client-supplied
	// totals are never trusted.
	subtotal := decimal.Zero
	lines := make([]database.OrderLineItem, len(req.Items))
	for i, item := range req.Items {
		if item.Quantity <= 0 {
			return nil, fmt.Errorf("items[%d]: %w", i, ErrInvalidQuantity)
		}
		unitPrice, err := decimal.NewFromString(item.UnitPrice)
		if err != nil || unitPrice.IsNegative() {
			return nil, fmt.Errorf("items[%d]: %w", i, ErrInvalidUnitPrice)
		}
		menuItemID, err := uuid.Parse(item.MenuItemID)
		if err != nil {
			return nil, fmt.Errorf("items[%d]: invalid menu_item_id", i)
		}
		lineTotal := unitPrice.Mul(decimal.NewFromInt32(item.Quantity))
		subtotal = subtotal.Add(lineTotal)
		lines[i] = database.OrderLineItem{
			MenuItemID:   menuItemID,
			MenuItemName: item.MenuItemName,
			Quantity:     item.Quantity,
			UnitPrice:    unitPrice.StringFixed(2),
			TotalPrice:   lineTotal.StringFixed(2),
		}
	}

	tax := subtotal.Mul(gstRate)
	total := subtotal.Add(tax)

	paymentStatus := enum.PaymentStatusPending
	if req.PaymentMethod == enum.PaymentMethodCOD {
		paymentStatus = enum.PaymentStatusCOD
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	store := s.newStore(tx)

	// Preconditions, first failure wins: branch, delivery availability,
	// table vacancy.
	if _, err := store.GetBranch(ctx, req.BranchID); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrBranchNotFound
		}
		return nil, fmt.Errorf("get branch: %w", err)
	}

	if req.OrderType == enum.OrderTypeDelivery {
		n, err := store.CountAvailablePartners(ctx, req.BranchID)
		if err != nil {
			return nil, fmt.Errorf("count partners: %w", err)
		}
		if n == 0 {
			return nil, ErrNoPartnersAvailable
		}
	}

	if tableID != uuid.Nil {
		table, err := store.GetTable(ctx, tableID)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return nil, ErrTableNotFound
			}
			return nil, fmt.Errorf("get table: %w", err)
		}
		if table.Status != enum.TableStatusVacant {
			return nil, ErrTableUnavailable
		}
	}

	seq, err := store.NextOrderNumber(ctx)
	if err != nil {
		return nil, fmt.Errorf("next order number: %w", err)
	}
	orderNumber := fmt.Sprintf("%s%06d", orderNumberPrefix, seq)

	params := database.CreateOrderParams{
		OrderNumber:   orderNumber,
		CustomerID:    customerID,
		CustomerName:  req.CustomerName,
		CustomerPhone: req.CustomerPhone,
		BranchID:      req.BranchID,
		OrderType:     req.OrderType,
		Items:         lines,
		Subtotal:      decimalToNumeric(subtotal),
		Tax:           decimalToNumeric(tax),
		Total:         decimalToNumeric(total),
		Status:        enum.OrderStatusPending,
		PaymentMethod: req.PaymentMethod,
		PaymentStatus: paymentStatus,
	}
	if req.CustomerEmail != "" {
		params.CustomerEmail = pgtype.Text{String: req.CustomerEmail, Valid: true}
	}
	if req.DeliveryAddress != "" {
		params.DeliveryAddress = pgtype.Text{String: req.DeliveryAddress, Valid: true}
	}
	if req.SpecialInstructions != "" {
		params.SpecialInstructions = pgtype.Text{String: req.SpecialInstructions, Valid: true}
	}
	if tableID != uuid.Nil {
		params.TableID = pgtype.UUID{Bytes: tableID, Valid: true}
	}

	order, err := store.CreateOrder(ctx, params)
	if err != nil {
		return nil, fmt.Errorf("create order: %w", err)
	}

	if tableID != uuid.Nil {
		if _, err := store.OccupyTable(ctx, database.OccupyTableParams{
			ID:      tableID,
			OrderID: order.ID,
		}); err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				// Lost the vacancy race after the read above.
				return nil, ErrTableUnavailable
			}
			return nil, fmt.Errorf("occupy table: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit tx: %w", err)
	}
	return &order, nil
}

func validateOrderType(s string) error {
	switch s {
	case enum.OrderTypeDineIn, enum.OrderTypeTakeaway, enum.OrderTypeDelivery:
		return nil
	}
	return ErrInvalidOrderType
}

func validatePaymentMethod(s string) error {
	switch s {
	case enum.PaymentMethodCOD, enum.PaymentMethodOnline:
		return nil
	}
	return ErrInvalidPaymentMethod
}
