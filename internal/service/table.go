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
)

// TableStore defines the DB methods needed by the table state machine.
type TableStore interface {
	GetBranch(ctx context.Context, id uuid.UUID) (database.Branch, error)
	CreateTable(ctx context.Context, arg database.CreateTableParams) (database.Table, error)
	SetTableStatus(ctx context.Context, arg database.SetTableStatusParams) (database.Table, error)
}

// TableService owns the table occupancy lifecycle outside the order flow:
// admin creation and the explicit status override (waiter marks a cleaned
// table vacant). The vacant → occupied → cleaning cycle driven by orders
// lives in OrderService.
type TableService struct {
	store TableStore
}

func NewTableService(store TableStore) *TableService {
	return &TableService{store: store}
}

type CreateTableRequest struct {
	BranchID    uuid.UUID
	TableNumber string
	Capacity    int32
	Location    string
}

func (s *TableService) Create(ctx context.Context, req CreateTableRequest) (*database.Table, error) {
	if req.TableNumber == "" {
		return nil, errors.New("table_number is required")
	}
	if req.Capacity <= 0 {
		return nil, errors.New("capacity must be > 0")
	}
	if _, err := s.store.GetBranch(ctx, req.BranchID); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrBranchNotFound
		}
		return nil, fmt.Errorf("get branch: %w", err)
	}

	params := database.CreateTableParams{
		BranchID:    req.BranchID,
		TableNumber: req.TableNumber,
		Capacity:    req.Capacity,
	}
	if req.Location != "" {
		params.Location = pgtype.Text{String: req.Location, Valid: true}
	}

	table, err := s.store.CreateTable(ctx, params)
	if err != nil {
		return nil, fmt.Errorf("create table: %w", err)
	}
	return &table, nil
}

// SetStatus applies an explicit table status change. occupied requires the
// order id being seated; vacant and cleaning always clear the order
// reference.
func (s *TableService) SetStatus(ctx context.Context, tableID uuid.UUID, target, orderID string) (*database.Table, error) {
	switch target {
	case enum.TableStatusVacant, enum.TableStatusOccupied, enum.TableStatusCleaning:
	default:
		return nil, ErrInvalidTableStatus
	}

	params := database.SetTableStatusParams{ID: tableID, Status: target}
	if target == enum.TableStatusOccupied {
		if orderID == "" {
			return nil, ErrOrderIDRequired
		}
		oid, err := uuid.Parse(orderID)
		if err != nil {
			return nil, ErrOrderIDRequired
		}
		params.OrderID = pgtype.UUID{Bytes: oid, Valid: true}
	}

	table, err := s.store.SetTableStatus(ctx, params)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrTableNotFound
		}
		return nil, fmt.Errorf("set table status: %w", err)
	}
	return &table, nil
}
