package database

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
)

const userColumns = `id, email, hashed_password, name, role, phone, branch_id,
	is_active, created_at`

func scanUser(row pgx.Row) (User, error) {
	var u User
	err := row.Scan(&u.ID, &u.Email, &u.HashedPassword, &u.Name, &u.Role,
		&u.Phone, &u.BranchID, &u.IsActive, &u.CreatedAt)
	return u, err
}

type CreateUserParams struct {
	Email          string
	HashedPassword string
	Name           string
	Role           string
	Phone          pgtype.Text
	BranchID       pgtype.UUID
}

func (q *Queries) CreateUser(ctx context.Context, arg CreateUserParams) (User, error) {
	const sql = `
		INSERT INTO users (email, hashed_password, name, role, phone, branch_id)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING ` + userColumns
	return scanUser(q.db.QueryRow(ctx, sql, arg.Email, arg.HashedPassword,
		arg.Name, arg.Role, arg.Phone, arg.BranchID))
}

func (q *Queries) GetUserByEmail(ctx context.Context, email string) (User, error) {
	const sql = `SELECT ` + userColumns + ` FROM users WHERE email = $1`
	return scanUser(q.db.QueryRow(ctx, sql, email))
}

func (q *Queries) GetUserByID(ctx context.Context, id uuid.UUID) (User, error) {
	const sql = `SELECT ` + userColumns + ` FROM users WHERE id = $1`
	return scanUser(q.db.QueryRow(ctx, sql, id))
}

func (q *Queries) ListUsers(ctx context.Context) ([]User, error) {
	const sql = `SELECT ` + userColumns + ` FROM users ORDER BY created_at`
	rows, err := q.db.Query(ctx, sql)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var users []User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, u)
	}
	return users, rows.Err()
}
