package database

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
)

const orderColumns = `id, order_number, customer_id, customer_name, customer_phone,
	customer_email, branch_id, order_type, items, subtotal, tax, total, status,
	payment_method, payment_status, delivery_address, table_id,
	delivery_partner_id, special_instructions, created_at, updated_at`

func scanOrder(row pgx.Row) (Order, error) {
	var o Order
	err := row.Scan(
		&o.ID, &o.OrderNumber, &o.CustomerID, &o.CustomerName, &o.CustomerPhone,
		&o.CustomerEmail, &o.BranchID, &o.OrderType, &o.Items, &o.Subtotal,
		&o.Tax, &o.Total, &o.Status, &o.PaymentMethod, &o.PaymentStatus,
		&o.DeliveryAddress, &o.TableID, &o.DeliveryPartnerID,
		&o.SpecialInstructions, &o.CreatedAt, &o.UpdatedAt,
	)
	return o, err
}

// NextOrderNumber atomically increments the order sequence and returns the
// new value. The single-row sequence document is the only source of order
// numbers, so concurrent creations can never collide.
func (q *Queries) NextOrderNumber(ctx context.Context) (int64, error) {
	const sql = `UPDATE order_sequence SET value = value + 1 WHERE id = 1 RETURNING value`
	var n int64
	err := q.db.QueryRow(ctx, sql).Scan(&n)
	return n, err
}

type CreateOrderParams struct {
	OrderNumber         string
	CustomerID          pgtype.UUID
	CustomerName        string
	CustomerPhone       string
	CustomerEmail       pgtype.Text
	BranchID            uuid.UUID
	OrderType           string
	Items               []OrderLineItem
	Subtotal            pgtype.Numeric
	Tax                 pgtype.Numeric
	Total               pgtype.Numeric
	Status              string
	PaymentMethod       string
	PaymentStatus       string
	DeliveryAddress     pgtype.Text
	TableID             pgtype.UUID
	SpecialInstructions pgtype.Text
}

func (q *Queries) CreateOrder(ctx context.Context, arg CreateOrderParams) (Order, error) {
	const sql = `
		INSERT INTO orders (
			order_number, customer_id, customer_name, customer_phone,
			customer_email, branch_id, order_type, items, subtotal, tax, total,
			status, payment_method, payment_status, delivery_address, table_id,
			special_instructions
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17)
		RETURNING ` + orderColumns
	return scanOrder(q.db.QueryRow(ctx, sql,
		arg.OrderNumber, arg.CustomerID, arg.CustomerName, arg.CustomerPhone,
		arg.CustomerEmail, arg.BranchID, arg.OrderType, arg.Items, arg.Subtotal,
		arg.Tax, arg.Total, arg.Status, arg.PaymentMethod, arg.PaymentStatus,
		arg.DeliveryAddress, arg.TableID, arg.SpecialInstructions,
	))
}

func (q *Queries) GetOrder(ctx context.Context, id uuid.UUID) (Order, error) {
	const sql = `SELECT ` + orderColumns + ` FROM orders WHERE id = $1`
	return scanOrder(q.db.QueryRow(ctx, sql, id))
}

type ListOrdersParams struct {
	BranchID   pgtype.UUID
	Status     pgtype.Text
	OrderType  pgtype.Text
	CustomerID pgtype.UUID
	Limit      int32
	Offset     int32
}

func (q *Queries) ListOrders(ctx context.Context, arg ListOrdersParams) ([]Order, error) {
	const sql = `
		SELECT ` + orderColumns + `
		FROM orders
		WHERE ($1::uuid IS NULL OR branch_id = $1)
		  AND ($2::text IS NULL OR status = $2)
		  AND ($3::text IS NULL OR order_type = $3)
		  AND ($4::uuid IS NULL OR customer_id = $4)
		ORDER BY created_at DESC
		LIMIT $5 OFFSET $6`
	rows, err := q.db.Query(ctx, sql, arg.BranchID, arg.Status, arg.OrderType,
		arg.CustomerID, arg.Limit, arg.Offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var orders []Order
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, err
		}
		orders = append(orders, o)
	}
	return orders, rows.Err()
}

type UpdateOrderStatusParams struct {
	ID         uuid.UUID
	Status     string
	FromStatus string
}

// UpdateOrderStatus performs a compare-and-set write: the update only applies
// if the order still holds FromStatus. Returns pgx.ErrNoRows when the order
// is missing or the status moved concurrently.
func (q *Queries) UpdateOrderStatus(ctx context.Context, arg UpdateOrderStatusParams) (Order, error) {
	const sql = `
		UPDATE orders
		SET status = $2, updated_at = now()
		WHERE id = $1 AND status = $3
		RETURNING ` + orderColumns
	return scanOrder(q.db.QueryRow(ctx, sql, arg.ID, arg.Status, arg.FromStatus))
}

type AssignOrderDeliveryParams struct {
	ID        uuid.UUID
	PartnerID uuid.UUID
}

// AssignOrderDelivery claims a ready delivery order for a partner. The status
// predicate makes two concurrent claims on the same order mutually exclusive.
func (q *Queries) AssignOrderDelivery(ctx context.Context, arg AssignOrderDeliveryParams) (Order, error) {
	const sql = `
		UPDATE orders
		SET status = 'picked_up', delivery_partner_id = $2, updated_at = now()
		WHERE id = $1 AND order_type = 'delivery' AND status = 'ready'
		RETURNING ` + orderColumns
	return scanOrder(q.db.QueryRow(ctx, sql, arg.ID, arg.PartnerID))
}

type UpdateOrderPaymentStatusParams struct {
	ID            uuid.UUID
	PaymentStatus string
}

func (q *Queries) UpdateOrderPaymentStatus(ctx context.Context, arg UpdateOrderPaymentStatusParams) (Order, error) {
	const sql = `
		UPDATE orders
		SET payment_status = $2, updated_at = now()
		WHERE id = $1
		RETURNING ` + orderColumns
	return scanOrder(q.db.QueryRow(ctx, sql, arg.ID, arg.PaymentStatus))
}
