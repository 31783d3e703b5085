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

// successors returns the legal next statuses for an order. The fulfillment
// path depends on the order type once the kitchen marks it ready:
//
//	dine_in:  pending → confirmed → preparing → ready → served → completed
//	takeaway: pending → confirmed → preparing → ready → completed
//	delivery: pending → confirmed → preparing → ready → picked_up → on_the_way → delivered
//
// Every non-terminal status may also move to cancelled. delivered, completed
// and cancelled are terminal.
func successors(orderType, status string) []string {
	switch status {
	case enum.OrderStatusPending:
		return []string{enum.OrderStatusConfirmed, enum.OrderStatusCancelled}
	case enum.OrderStatusConfirmed:
		return []string{enum.OrderStatusPreparing, enum.OrderStatusCancelled}
	case enum.OrderStatusPreparing:
		return []string{enum.OrderStatusReady, enum.OrderStatusCancelled}
	case enum.OrderStatusReady:
		switch orderType {
		case enum.OrderTypeDineIn:
			return []string{enum.OrderStatusServed, enum.OrderStatusCancelled}
		case enum.OrderTypeTakeaway:
			return []string{enum.OrderStatusCompleted, enum.OrderStatusCancelled}
		case enum.OrderTypeDelivery:
			return []string{enum.OrderStatusPickedUp, enum.OrderStatusCancelled}
		}
	case enum.OrderStatusServed:
		return []string{enum.OrderStatusCompleted, enum.OrderStatusCancelled}
	case enum.OrderStatusPickedUp:
		return []string{enum.OrderStatusOnTheWay, enum.OrderStatusCancelled}
	case enum.OrderStatusOnTheWay:
		return []string{enum.OrderStatusDelivered, enum.OrderStatusCancelled}
	}
	return nil
}

func isValidOrderStatus(s string) bool {
	switch s {
	case enum.OrderStatusPending, enum.OrderStatusConfirmed,
		enum.OrderStatusPreparing, enum.OrderStatusReady,
		enum.OrderStatusServed, enum.OrderStatusPickedUp,
		enum.OrderStatusOnTheWay, enum.OrderStatusDelivered,
		enum.OrderStatusCompleted, enum.OrderStatusCancelled:
		return true
	}
	return false
}

// Transition moves an order to target, applying the cross-entity side
// effects in the same transaction:
//
//   - completed with a table: the table goes to cleaning and drops the order
//     reference.
//   - delivered with a partner: the partner returns to available.
//   - cancelled: both of the above, whichever applies, so cancellation never
//     strands a table or a partner.
//
// Re-issuing a transition the order already holds is a no-op and never
// re-fires side effects. picked_up is owned by the delivery assignment flow
// and is rejected here.
func (s *OrderService) Transition(ctx context.Context, orderID uuid.UUID, target string) (*database.Order, error) {
	if !isValidOrderStatus(target) {
		return nil, ErrInvalidOrderStatus
	}
	if target == enum.OrderStatusPickedUp {
		return nil, fmt.Errorf("%w: picked_up is set by delivery assignment", ErrInvalidTransition)
	}

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

	if order.Status == target {
		return &order, nil
	}

	if !contains(successors(order.OrderType, order.Status), target) {
		return nil, fmt.Errorf("%w: cannot transition %s order from %s to %s",
			ErrInvalidTransition, order.OrderType, order.Status, target)
	}

	updated, err := store.UpdateOrderStatus(ctx, database.UpdateOrderStatusParams{
		ID:         orderID,
		Status:     target,
		FromStatus: order.Status,
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrStatusConflict
		}
		return nil, fmt.Errorf("update order status: %w", err)
	}

	releaseTable := target == enum.OrderStatusCancelled ||
		target == enum.OrderStatusCompleted
	releasePartner := target == enum.OrderStatusCancelled ||
		target == enum.OrderStatusDelivered

	if releaseTable && order.TableID.Valid {
		_, err := store.ReleaseTable(ctx, database.ReleaseTableParams{
			ID:      uuid.UUID(order.TableID.Bytes),
			OrderID: order.ID,
		})
		// ErrNoRows means the table no longer references this order, which is
		// already the end state we want.
		if err != nil && !errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("release table: %w", err)
		}
	}

	if releasePartner && order.DeliveryPartnerID.Valid {
		_, err := store.ReleasePartner(ctx, database.ReleasePartnerParams{
			ID:      uuid.UUID(order.DeliveryPartnerID.Bytes),
			OrderID: order.ID,
		})
		if err != nil && !errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("release partner: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit tx: %w", err)
	}
	return &updated, nil
}

func contains(set []string, s string) bool {
	for _, v := range set {
		if v == s {
			return true
		}
	}
	return false
}
