package database

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
)

const partnerColumns = `id, user_id, branch_id, name, phone, vehicle_type,
	vehicle_number, status, current_order_id, created_at`

func scanPartner(row pgx.Row) (DeliveryPartner, error) {
	var p DeliveryPartner
	err := row.Scan(&p.ID, &p.UserID, &p.BranchID, &p.Name, &p.Phone,
		&p.VehicleType, &p.VehicleNumber, &p.Status, &p.CurrentOrderID,
		&p.CreatedAt)
	return p, err
}

type CreatePartnerParams struct {
	UserID        uuid.UUID
	BranchID      uuid.UUID
	Name          string
	Phone         pgtype.Text
	VehicleType   pgtype.Text
	VehicleNumber pgtype.Text
}

func (q *Queries) CreatePartner(ctx context.Context, arg CreatePartnerParams) (DeliveryPartner, error) {
	const sql = `
		INSERT INTO delivery_partners (user_id, branch_id, name, phone, vehicle_type, vehicle_number)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING ` + partnerColumns
	return scanPartner(q.db.QueryRow(ctx, sql, arg.UserID, arg.BranchID,
		arg.Name, arg.Phone, arg.VehicleType, arg.VehicleNumber))
}

func (q *Queries) GetPartner(ctx context.Context, id uuid.UUID) (DeliveryPartner, error) {
	const sql = `SELECT ` + partnerColumns + ` FROM delivery_partners WHERE id = $1`
	return scanPartner(q.db.QueryRow(ctx, sql, id))
}

func (q *Queries) GetPartnerByUser(ctx context.Context, userID uuid.UUID) (DeliveryPartner, error) {
	const sql = `SELECT ` + partnerColumns + ` FROM delivery_partners WHERE user_id = $1`
	return scanPartner(q.db.QueryRow(ctx, sql, userID))
}

type ListPartnersParams struct {
	BranchID pgtype.UUID
	Status   pgtype.Text
}

func (q *Queries) ListPartners(ctx context.Context, arg ListPartnersParams) ([]DeliveryPartner, error) {
	const sql = `
		SELECT ` + partnerColumns + `
		FROM delivery_partners
		WHERE ($1::uuid IS NULL OR branch_id = $1)
		  AND ($2::text IS NULL OR status = $2)
		ORDER BY name`
	rows, err := q.db.Query(ctx, sql, arg.BranchID, arg.Status)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var partners []DeliveryPartner
	for rows.Next() {
		p, err := scanPartner(rows)
		if err != nil {
			return nil, err
		}
		partners = append(partners, p)
	}
	return partners, rows.Err()
}

func (q *Queries) CountAvailablePartners(ctx context.Context, branchID uuid.UUID) (int64, error) {
	const sql = `SELECT count(*) FROM delivery_partners WHERE branch_id = $1 AND status = 'available'`
	var n int64
	err := q.db.QueryRow(ctx, sql, branchID).Scan(&n)
	return n, err
}

type ClaimPartnerParams struct {
	ID      uuid.UUID
	OrderID uuid.UUID
}

// ClaimPartner flips an available partner to busy on an order. The status
// predicate guarantees a partner can never carry two active orders.
func (q *Queries) ClaimPartner(ctx context.Context, arg ClaimPartnerParams) (DeliveryPartner, error) {
	const sql = `
		UPDATE delivery_partners
		SET status = 'busy', current_order_id = $2
		WHERE id = $1 AND status = 'available'
		RETURNING ` + partnerColumns
	return scanPartner(q.db.QueryRow(ctx, sql, arg.ID, arg.OrderID))
}

type ReleasePartnerParams struct {
	ID      uuid.UUID
	OrderID uuid.UUID
}

// ReleasePartner returns a partner to available after their order finishes,
// conditioned on the partner still carrying that order.
func (q *Queries) ReleasePartner(ctx context.Context, arg ReleasePartnerParams) (DeliveryPartner, error) {
	const sql = `
		UPDATE delivery_partners
		SET status = 'available', current_order_id = NULL
		WHERE id = $1 AND current_order_id = $2
		RETURNING ` + partnerColumns
	return scanPartner(q.db.QueryRow(ctx, sql, arg.ID, arg.OrderID))
}

type SetPartnerStatusParams struct {
	ID         uuid.UUID
	Status     string
	FromStatus string
}

// SetPartnerStatus is the self-service CAS transition. Entering available
// additionally requires no in-flight order reference.
func (q *Queries) SetPartnerStatus(ctx context.Context, arg SetPartnerStatusParams) (DeliveryPartner, error) {
	const sql = `
		UPDATE delivery_partners
		SET status = $2, current_order_id = CASE WHEN $2 = 'available' THEN NULL ELSE current_order_id END
		WHERE id = $1 AND status = $3
		  AND ($2 <> 'available' OR current_order_id IS NULL)
		RETURNING ` + partnerColumns
	return scanPartner(q.db.QueryRow(ctx, sql, arg.ID, arg.Status, arg.FromStatus))
}
