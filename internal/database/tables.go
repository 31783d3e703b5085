package database

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
)

const tableColumns = `id, branch_id, table_number, capacity, location, status,
	current_order_id, created_at`

func scanTable(row pgx.Row) (Table, error) {
	var t Table
	err := row.Scan(&t.ID, &t.BranchID, &t.TableNumber, &t.Capacity,
		&t.Location, &t.Status, &t.CurrentOrderID, &t.CreatedAt)
	return t, err
}

type CreateTableParams struct {
	BranchID    uuid.UUID
	TableNumber string
	Capacity    int32
	Location    pgtype.Text
}

func (q *Queries) CreateTable(ctx context.Context, arg CreateTableParams) (Table, error) {
	const sql = `
		INSERT INTO restaurant_tables (branch_id, table_number, capacity, location)
		VALUES ($1, $2, $3, $4)
		RETURNING ` + tableColumns
	return scanTable(q.db.QueryRow(ctx, sql, arg.BranchID, arg.TableNumber,
		arg.Capacity, arg.Location))
}

func (q *Queries) GetTable(ctx context.Context, id uuid.UUID) (Table, error) {
	const sql = `SELECT ` + tableColumns + ` FROM restaurant_tables WHERE id = $1`
	return scanTable(q.db.QueryRow(ctx, sql, id))
}

type ListTablesParams struct {
	BranchID pgtype.UUID
	Status   pgtype.Text
}

func (q *Queries) ListTables(ctx context.Context, arg ListTablesParams) ([]Table, error) {
	const sql = `
		SELECT ` + tableColumns + `
		FROM restaurant_tables
		WHERE ($1::uuid IS NULL OR branch_id = $1)
		  AND ($2::text IS NULL OR status = $2)
		ORDER BY table_number`
	rows, err := q.db.Query(ctx, sql, arg.BranchID, arg.Status)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var tables []Table
	for rows.Next() {
		t, err := scanTable(rows)
		if err != nil {
			return nil, err
		}
		tables = append(tables, t)
	}
	return tables, rows.Err()
}

type OccupyTableParams struct {
	ID      uuid.UUID
	OrderID uuid.UUID
}

// OccupyTable seats an order at a vacant table. The status predicate refuses
// a double booking: a concurrent occupation leaves exactly one winner.
func (q *Queries) OccupyTable(ctx context.Context, arg OccupyTableParams) (Table, error) {
	const sql = `
		UPDATE restaurant_tables
		SET status = 'occupied', current_order_id = $2
		WHERE id = $1 AND status = 'vacant'
		RETURNING ` + tableColumns
	return scanTable(q.db.QueryRow(ctx, sql, arg.ID, arg.OrderID))
}

type ReleaseTableParams struct {
	ID      uuid.UUID
	OrderID uuid.UUID
}

// ReleaseTable moves an occupied table to cleaning when its order finishes.
// Conditioned on current_order_id so a stale completion cannot bump a table
// that has already been re-seated.
func (q *Queries) ReleaseTable(ctx context.Context, arg ReleaseTableParams) (Table, error) {
	const sql = `
		UPDATE restaurant_tables
		SET status = 'cleaning', current_order_id = NULL
		WHERE id = $1 AND current_order_id = $2
		RETURNING ` + tableColumns
	return scanTable(q.db.QueryRow(ctx, sql, arg.ID, arg.OrderID))
}

type SetTableStatusParams struct {
	ID      uuid.UUID
	Status  string
	OrderID pgtype.UUID
}

// SetTableStatus is the administrative override used by the table endpoint.
// Entering vacant or cleaning always clears current_order_id; occupied stores
// the supplied order id.
func (q *Queries) SetTableStatus(ctx context.Context, arg SetTableStatusParams) (Table, error) {
	const sql = `
		UPDATE restaurant_tables
		SET status = $2,
		    current_order_id = CASE WHEN $2 = 'occupied' THEN $3 ELSE NULL END
		WHERE id = $1
		RETURNING ` + tableColumns
	return scanTable(q.db.QueryRow(ctx, sql, arg.ID, arg.Status, arg.OrderID))
}
