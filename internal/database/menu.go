package database

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
)

const categoryColumns = `id, name, description, display_order, is_active, created_at`

func scanCategory(row pgx.Row) (MenuCategory, error) {
	var c MenuCategory
	err := row.Scan(&c.ID, &c.Name, &c.Description, &c.DisplayOrder,
		&c.IsActive, &c.CreatedAt)
	return c, err
}

type CreateCategoryParams struct {
	Name         string
	Description  pgtype.Text
	DisplayOrder int32
}

func (q *Queries) CreateCategory(ctx context.Context, arg CreateCategoryParams) (MenuCategory, error) {
	const sql = `
		INSERT INTO menu_categories (name, description, display_order)
		VALUES ($1, $2, $3)
		RETURNING ` + categoryColumns
	return scanCategory(q.db.QueryRow(ctx, sql, arg.Name, arg.Description, arg.DisplayOrder))
}

func (q *Queries) GetCategory(ctx context.Context, id uuid.UUID) (MenuCategory, error) {
	const sql = `SELECT ` + categoryColumns + ` FROM menu_categories WHERE id = $1`
	return scanCategory(q.db.QueryRow(ctx, sql, id))
}

func (q *Queries) ListCategories(ctx context.Context) ([]MenuCategory, error) {
	const sql = `
		SELECT ` + categoryColumns + `
		FROM menu_categories
		WHERE is_active = true
		ORDER BY display_order`
	rows, err := q.db.Query(ctx, sql)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var cats []MenuCategory
	for rows.Next() {
		c, err := scanCategory(rows)
		if err != nil {
			return nil, err
		}
		cats = append(cats, c)
	}
	return cats, rows.Err()
}

const menuItemColumns = `id, name, description, category_id, base_price,
	image_url, is_vegetarian, is_available, branch_ids, created_at`

func scanMenuItem(row pgx.Row) (MenuItem, error) {
	var m MenuItem
	err := row.Scan(&m.ID, &m.Name, &m.Description, &m.CategoryID,
		&m.BasePrice, &m.ImageURL, &m.IsVegetarian, &m.IsAvailable,
		&m.BranchIDs, &m.CreatedAt)
	return m, err
}

type CreateMenuItemParams struct {
	Name         string
	Description  pgtype.Text
	CategoryID   uuid.UUID
	BasePrice    pgtype.Numeric
	ImageURL     pgtype.Text
	IsVegetarian bool
	IsAvailable  bool
	BranchIDs    []uuid.UUID
}

func (q *Queries) CreateMenuItem(ctx context.Context, arg CreateMenuItemParams) (MenuItem, error) {
	const sql = `
		INSERT INTO menu_items (name, description, category_id, base_price,
			image_url, is_vegetarian, is_available, branch_ids)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING ` + menuItemColumns
	return scanMenuItem(q.db.QueryRow(ctx, sql, arg.Name, arg.Description,
		arg.CategoryID, arg.BasePrice, arg.ImageURL, arg.IsVegetarian,
		arg.IsAvailable, arg.BranchIDs))
}

func (q *Queries) GetMenuItem(ctx context.Context, id uuid.UUID) (MenuItem, error) {
	const sql = `SELECT ` + menuItemColumns + ` FROM menu_items WHERE id = $1`
	return scanMenuItem(q.db.QueryRow(ctx, sql, id))
}

type ListMenuItemsParams struct {
	CategoryID pgtype.UUID
	BranchID   pgtype.UUID
}

// ListMenuItems returns available items. A NULL branch_ids column means the
// item is sold at every branch.
func (q *Queries) ListMenuItems(ctx context.Context, arg ListMenuItemsParams) ([]MenuItem, error) {
	const sql = `
		SELECT ` + menuItemColumns + `
		FROM menu_items
		WHERE is_available = true
		  AND ($1::uuid IS NULL OR category_id = $1)
		  AND ($2::uuid IS NULL OR branch_ids IS NULL OR $2 = ANY(branch_ids))
		ORDER BY name`
	rows, err := q.db.Query(ctx, sql, arg.CategoryID, arg.BranchID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []MenuItem
	for rows.Next() {
		m, err := scanMenuItem(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, m)
	}
	return items, rows.Err()
}

type UpdateMenuItemParams struct {
	ID           uuid.UUID
	Name         string
	Description  pgtype.Text
	CategoryID   uuid.UUID
	BasePrice    pgtype.Numeric
	ImageURL     pgtype.Text
	IsVegetarian bool
	IsAvailable  bool
	BranchIDs    []uuid.UUID
}

func (q *Queries) UpdateMenuItem(ctx context.Context, arg UpdateMenuItemParams) (MenuItem, error) {
	const sql = `
		UPDATE menu_items
		SET name = $2, description = $3, category_id = $4, base_price = $5,
		    image_url = $6, is_vegetarian = $7, is_available = $8, branch_ids = $9
		WHERE id = $1
		RETURNING ` + menuItemColumns
	return scanMenuItem(q.db.QueryRow(ctx, sql, arg.ID, arg.Name,
		arg.Description, arg.CategoryID, arg.BasePrice, arg.ImageURL,
		arg.IsVegetarian, arg.IsAvailable, arg.BranchIDs))
}
