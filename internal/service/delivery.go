package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/altaj-restaurant/api/internal/database"
	"github.com/altaj-restaurant/api/internal/enum"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// DeliveryStore defines the DB methods needed by the delivery assignment
// coordinator and the partner state machine.
type DeliveryStore interface {
	GetOrder(ctx context.Context, id uuid.UUID) (database.Order, error)
	GetPartner(ctx context.Context, id uuid.UUID) (database.DeliveryPartner, error)
	ClaimPartner(ctx context.Context, arg database.ClaimPartnerParams) (database.DeliveryPartner, error)
	AssignOrderDelivery(ctx context.Context, arg database.AssignOrderDeliveryParams) (database.Order, error)
	SetPartnerStatus(ctx context.Context, arg database.SetPartnerStatusParams) (database.DeliveryPartner, error)
}

type NewDeliveryStore func(db database.DBTX) DeliveryStore

// DeliveryService matches ready delivery orders with available partners and
// runs the partner availability state machine. store is pool-bound for the
// single-row partner transitions; Assign builds a transactional store via
// newStore.
type DeliveryService struct {
	pool     TxBeginner
	store    DeliveryStore
	newStore NewDeliveryStore
}

func NewDeliveryService(pool TxBeginner, store DeliveryStore, newStore NewDeliveryStore) *DeliveryService {
	return &DeliveryService{pool: pool, store: store, newStore: newStore}
}

// Assign claims a ready delivery order for an available partner. Both rows
// flip in one transaction behind compare-and-set predicates, so two partners
// racing for the same order (or two orders for the same partner) produce
// exactly one winner and no partial assignment.
func (s *DeliveryService) Assign(ctx context.Context, orderID, partnerID uuid.UUID) (*database.Order, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	store := s.newStore(tx)

	order, err := store.GetOrder(ctx, orderID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrOrderNotFound
		}
		return nil, fmt.Errorf("get order: %w", err)
	}
	if order.OrderType != enum.OrderTypeDelivery {
		return nil, ErrNotDeliveryOrder
	}
	if order.Status != enum.OrderStatusReady {
		return nil, fmt.Errorf("%w: status is %s", ErrOrderNotReady, order.Status)
	}

	partner, err := store.GetPartner(ctx, partnerID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrPartnerNotFound
		}
		return nil, fmt.Errorf("get partner: %w", err)
	}
	if partner.Status != enum.PartnerStatusAvailable {
		return nil, fmt.Errorf("%w: status is %s", ErrPartnerNotAvailable, partner.Status)
	}

	if _, err := store.ClaimPartner(ctx, database.ClaimPartnerParams{
		ID:      partnerID,
		OrderID: orderID,
	}); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrPartnerNotAvailable
		}
		return nil, fmt.Errorf("claim partner: %w", err)
	}

	assigned, err := store.AssignOrderDelivery(ctx, database.AssignOrderDeliveryParams{
		ID:        orderID,
		PartnerID: partnerID,
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%w: claimed concurrently", ErrOrderNotReady)
		}
		return nil, fmt.Errorf("assign order: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit tx: %w", err)
	}
	return &assigned, nil
}

// SetPartnerStatus is the partner's self-service toggle:
//
//	available ↔ offline
//
// busy is owned by the assignment/delivery flow and is never
// self-serviceable. A partner cannot self-declare available while an order
// still references them; the delivered (or cancelled) transition releases
// them first.
func (s *DeliveryService) SetPartnerStatus(ctx context.Context, partnerID uuid.UUID, target string) (*database.DeliveryPartner, error) {
	switch target {
	case enum.PartnerStatusAvailable, enum.PartnerStatusOffline:
	case enum.PartnerStatusBusy:
		return nil, fmt.Errorf("%w: busy is set by delivery assignment", ErrInvalidPartnerStatus)
	default:
		return nil, ErrInvalidPartnerStatus
	}

	partner, err := s.store.GetPartner(ctx, partnerID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrPartnerNotFound
		}
		return nil, fmt.Errorf("get partner: %w", err)
	}

	if partner.Status == target {
		return &partner, nil
	}

	if target == enum.PartnerStatusAvailable && partner.CurrentOrderID.Valid {
		return nil, ErrPartnerHasActiveOrder
	}
	if target == enum.PartnerStatusOffline && partner.Status != enum.PartnerStatusAvailable {
		return nil, fmt.Errorf("%w: only an available partner can go offline", ErrInvalidPartnerStatus)
	}

	updated, err := s.store.SetPartnerStatus(ctx, database.SetPartnerStatusParams{
		ID:         partnerID,
		Status:     target,
		FromStatus: partner.Status,
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrStatusConflict
		}
		return nil, fmt.Errorf("set partner status: %w", err)
	}
	return &updated, nil
}
