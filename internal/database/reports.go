package database

import (
	"context"

	"github.com/jackc/pgx/v5/pgtype"
)

type SalesReportParams struct {
	BranchID  pgtype.UUID
	StartDate pgtype.Timestamptz
	EndDate   pgtype.Timestamptz
}

type SalesReportRow struct {
	OrderType    string
	TotalOrders  int64
	TotalRevenue pgtype.Numeric
}

// SalesReport aggregates completed orders by order type.
func (q *Queries) SalesReport(ctx context.Context, arg SalesReportParams) ([]SalesReportRow, error) {
	const sql = `
		SELECT order_type, count(*), coalesce(sum(total), 0)
		FROM orders
		WHERE status = 'completed'
		  AND ($1::uuid IS NULL OR branch_id = $1)
		  AND ($2::timestamptz IS NULL OR created_at >= $2)
		  AND ($3::timestamptz IS NULL OR created_at <= $3)
		GROUP BY order_type
		ORDER BY order_type`
	rows, err := q.db.Query(ctx, sql, arg.BranchID, arg.StartDate, arg.EndDate)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []SalesReportRow
	for rows.Next() {
		var r SalesReportRow
		if err := rows.Scan(&r.OrderType, &r.TotalOrders, &r.TotalRevenue); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

type BranchPerformanceRow struct {
	BranchID     pgtype.UUID
	BranchName   string
	TotalOrders  int64
	TotalRevenue pgtype.Numeric
}

// BranchPerformance aggregates completed-order revenue per active branch.
func (q *Queries) BranchPerformance(ctx context.Context) ([]BranchPerformanceRow, error) {
	const sql = `
		SELECT b.id, b.name,
		       count(o.id) FILTER (WHERE o.status = 'completed'),
		       coalesce(sum(o.total) FILTER (WHERE o.status = 'completed'), 0)
		FROM branches b
		LEFT JOIN orders o ON o.branch_id = b.id
		WHERE b.is_active = true
		GROUP BY b.id, b.name
		ORDER BY b.name`
	rows, err := q.db.Query(ctx, sql)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []BranchPerformanceRow
	for rows.Next() {
		var r BranchPerformanceRow
		if err := rows.Scan(&r.BranchID, &r.BranchName, &r.TotalOrders, &r.TotalRevenue); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

type StatusCountRow struct {
	Status string
	Count  int64
}

// CountOrdersByStatus backs the dashboard widget, optionally per branch.
func (q *Queries) CountOrdersByStatus(ctx context.Context, branchID pgtype.UUID) ([]StatusCountRow, error) {
	const sql = `
		SELECT status, count(*)
		FROM orders
		WHERE ($1::uuid IS NULL OR branch_id = $1)
		GROUP BY status`
	rows, err := q.db.Query(ctx, sql, branchID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []StatusCountRow
	for rows.Next() {
		var r StatusCountRow
		if err := rows.Scan(&r.Status, &r.Count); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

type TodayRevenueRow struct {
	TotalOrders  int64
	TotalRevenue pgtype.Numeric
}

func (q *Queries) TodayRevenue(ctx context.Context, branchID pgtype.UUID) (TodayRevenueRow, error) {
	const sql = `
		SELECT count(*), coalesce(sum(total), 0)
		FROM orders
		WHERE status = 'completed'
		  AND created_at >= date_trunc('day', now())
		  AND ($1::uuid IS NULL OR branch_id = $1)`
	var r TodayRevenueRow
	err := q.db.QueryRow(ctx, sql, branchID).Scan(&r.TotalOrders, &r.TotalRevenue)
	return r, err
}
