package database

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
)

const branchColumns = `id, name, address, phone, email, latitude, longitude,
	is_active, created_at`

func scanBranch(row pgx.Row) (Branch, error) {
	var b Branch
	err := row.Scan(&b.ID, &b.Name, &b.Address, &b.Phone, &b.Email,
		&b.Latitude, &b.Longitude, &b.IsActive, &b.CreatedAt)
	return b, err
}

type CreateBranchParams struct {
	Name      string
	Address   string
	Phone     string
	Email     string
	Latitude  pgtype.Float8
	Longitude pgtype.Float8
	IsActive  bool
}

func (q *Queries) CreateBranch(ctx context.Context, arg CreateBranchParams) (Branch, error) {
	const sql = `
		INSERT INTO branches (name, address, phone, email, latitude, longitude, is_active)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING ` + branchColumns
	return scanBranch(q.db.QueryRow(ctx, sql, arg.Name, arg.Address, arg.Phone,
		arg.Email, arg.Latitude, arg.Longitude, arg.IsActive))
}

func (q *Queries) GetBranch(ctx context.Context, id uuid.UUID) (Branch, error) {
	const sql = `SELECT ` + branchColumns + ` FROM branches WHERE id = $1`
	return scanBranch(q.db.QueryRow(ctx, sql, id))
}

func (q *Queries) ListBranches(ctx context.Context, isActive pgtype.Bool) ([]Branch, error) {
	const sql = `
		SELECT ` + branchColumns + `
		FROM branches
		WHERE ($1::boolean IS NULL OR is_active = $1)
		ORDER BY name`
	rows, err := q.db.Query(ctx, sql, isActive)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var branches []Branch
	for rows.Next() {
		b, err := scanBranch(rows)
		if err != nil {
			return nil, err
		}
		branches = append(branches, b)
	}
	return branches, rows.Err()
}

type UpdateBranchParams struct {
	ID        uuid.UUID
	Name      string
	Address   string
	Phone     string
	Email     string
	Latitude  pgtype.Float8
	Longitude pgtype.Float8
	IsActive  bool
}

func (q *Queries) UpdateBranch(ctx context.Context, arg UpdateBranchParams) (Branch, error) {
	const sql = `
		UPDATE branches
		SET name = $2, address = $3, phone = $4, email = $5, latitude = $6,
		    longitude = $7, is_active = $8
		WHERE id = $1
		RETURNING ` + branchColumns
	return scanBranch(q.db.QueryRow(ctx, sql, arg.ID, arg.Name, arg.Address,
		arg.Phone, arg.Email, arg.Latitude, arg.Longitude, arg.IsActive))
}
