package service

import (
	"context"
	"errors"
	"testing"

	"github.com/altaj-restaurant/api/internal/database"
	"github.com/altaj-restaurant/api/internal/enum"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
)

// statusStore wires a single in-memory order through the mockOrderStore so a
// test can walk the state machine step by step.
func statusStore(order *database.Order) *mockOrderStore {
	return &mockOrderStore{
		getOrderFn: func(ctx context.Context, id uuid.UUID) (database.Order, error) {
			if id != order.ID {
				return database.Order{}, pgx.ErrNoRows
			}
			return *order, nil
		},
		updateOrderStatusFn: func(ctx context.Context, arg database.UpdateOrderStatusParams) (database.Order, error) {
			if arg.ID != order.ID || order.Status != arg.FromStatus {
				return database.Order{}, pgx.ErrNoRows
			}
			order.Status = arg.Status
			return *order, nil
		},
		releaseTableFn: func(ctx context.Context, arg database.ReleaseTableParams) (database.Table, error) {
			return database.Table{ID: arg.ID, Status: enum.TableStatusCleaning}, nil
		},
		releasePartnerFn: func(ctx context.Context, arg database.ReleasePartnerParams) (database.DeliveryPartner, error) {
			return database.DeliveryPartner{ID: arg.ID, Status: enum.PartnerStatusAvailable}, nil
		},
	}
}

func TestTransition_DineInFullLifecycle(t *testing.T) {
	order := &database.Order{
		ID:        uuid.New(),
		OrderType: enum.OrderTypeDineIn,
		Status:    enum.OrderStatusPending,
		TableID:   pgtype.UUID{Bytes: uuid.New(), Valid: true},
	}
	svc, _ := newTestService(statusStore(order))

	steps := []string{
		enum.OrderStatusConfirmed,
		enum.OrderStatusPreparing,
		enum.OrderStatusReady,
		enum.OrderStatusServed,
		enum.OrderStatusCompleted,
	}
	for _, target := range steps {
		updated, err := svc.Transition(context.Background(), order.ID, target)
		if err != nil {
			t.Fatalf("transition to %s: %v", target, err)
		}
		if updated.Status != target {
			t.Fatalf("status = %s, want %s", updated.Status, target)
		}
	}
}

func TestTransition_DeliveryCannotBeServed(t *testing.T) {
	order := &database.Order{
		ID:        uuid.New(),
		OrderType: enum.OrderTypeDelivery,
		Status:    enum.OrderStatusReady,
	}
	svc, _ := newTestService(statusStore(order))

	_, err := svc.Transition(context.Background(), order.ID, enum.OrderStatusServed)
	if !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("expected ErrInvalidTransition, got: %v", err)
	}
}

func TestTransition_CannotSkipSteps(t *testing.T) {
	order := &database.Order{
		ID:        uuid.New(),
		OrderType: enum.OrderTypeTakeaway,
		Status:    enum.OrderStatusPending,
	}
	svc, _ := newTestService(statusStore(order))

	_, err := svc.Transition(context.Background(), order.ID, enum.OrderStatusReady)
	if !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("expected ErrInvalidTransition, got: %v", err)
	}
}

func TestTransition_TerminalStatusRejectsMoves(t *testing.T) {
	for _, terminal := range []string{
		enum.OrderStatusDelivered,
		enum.OrderStatusCompleted,
		enum.OrderStatusCancelled,
	} {
		order := &database.Order{
			ID:        uuid.New(),
			OrderType: enum.OrderTypeDelivery,
			Status:    terminal,
		}
		svc, _ := newTestService(statusStore(order))

		_, err := svc.Transition(context.Background(), order.ID, enum.OrderStatusConfirmed)
		if !errors.Is(err, ErrInvalidTransition) {
			t.Fatalf("from %s: expected ErrInvalidTransition, got: %v", terminal, err)
		}
	}
}

func TestTransition_PickedUpRejectedDirectly(t *testing.T) {
	order := &database.Order{
		ID:        uuid.New(),
		OrderType: enum.OrderTypeDelivery,
		Status:    enum.OrderStatusReady,
	}
	svc, _ := newTestService(statusStore(order))

	_, err := svc.Transition(context.Background(), order.ID, enum.OrderStatusPickedUp)
	if !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("expected ErrInvalidTransition, got: %v", err)
	}
}

func TestTransition_UnknownStatus(t *testing.T) {
	order := &database.Order{
		ID:        uuid.New(),
		OrderType: enum.OrderTypeDineIn,
		Status:    enum.OrderStatusPending,
	}
	svc, _ := newTestService(statusStore(order))

	_, err := svc.Transition(context.Background(), order.ID, "archived")
	if !errors.Is(err, ErrInvalidOrderStatus) {
		t.Fatalf("expected ErrInvalidOrderStatus, got: %v", err)
	}
}

func TestTransition_OrderNotFound(t *testing.T) {
	order := &database.Order{
		ID:        uuid.New(),
		OrderType: enum.OrderTypeDineIn,
		Status:    enum.OrderStatusPending,
	}
	svc, _ := newTestService(statusStore(order))

	_, err := svc.Transition(context.Background(), uuid.New(), enum.OrderStatusConfirmed)
	if !errors.Is(err, ErrOrderNotFound) {
		t.Fatalf("expected ErrOrderNotFound, got: %v", err)
	}
}

// Re-issuing the status an order already holds is a no-op, not an error, and
// must not re-fire side effects.
func TestTransition_SameStatusNoOp(t *testing.T) {
	order := &database.Order{
		ID:        uuid.New(),
		OrderType: enum.OrderTypeDineIn,
		Status:    enum.OrderStatusCompleted,
		TableID:   pgtype.UUID{Bytes: uuid.New(), Valid: true},
	}
	store := statusStore(order)
	released := false
	store.releaseTableFn = func(ctx context.Context, arg database.ReleaseTableParams) (database.Table, error) {
		released = true
		return database.Table{}, nil
	}
	svc, _ := newTestService(store)

	updated, err := svc.Transition(context.Background(), order.ID, enum.OrderStatusCompleted)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if updated.Status != enum.OrderStatusCompleted {
		t.Errorf("status = %s, want completed", updated.Status)
	}
	if released {
		t.Error("no-op transition must not re-release the table")
	}
}

func TestTransition_ConcurrentStatusChange(t *testing.T) {
	order := &database.Order{
		ID:        uuid.New(),
		OrderType: enum.OrderTypeDineIn,
		Status:    enum.OrderStatusPending,
	}
	store := statusStore(order)
	store.updateOrderStatusFn = func(ctx context.Context, arg database.UpdateOrderStatusParams) (database.Order, error) {
		// Someone else moved the order between our read and write.
		return database.Order{}, pgx.ErrNoRows
	}
	svc, _ := newTestService(store)

	_, err := svc.Transition(context.Background(), order.ID, enum.OrderStatusConfirmed)
	if !errors.Is(err, ErrStatusConflict) {
		t.Fatalf("expected ErrStatusConflict, got: %v", err)
	}
}

func TestTransition_CompletedReleasesTable(t *testing.T) {
	tableID := uuid.New()
	order := &database.Order{
		ID:        uuid.New(),
		OrderType: enum.OrderTypeDineIn,
		Status:    enum.OrderStatusServed,
		TableID:   pgtype.UUID{Bytes: tableID, Valid: true},
	}
	store := statusStore(order)
	var released *database.ReleaseTableParams
	store.releaseTableFn = func(ctx context.Context, arg database.ReleaseTableParams) (database.Table, error) {
		released = &arg
		return database.Table{ID: arg.ID, Status: enum.TableStatusCleaning}, nil
	}
	svc, tx := newTestService(store)

	_, err := svc.Transition(context.Background(), order.ID, enum.OrderStatusCompleted)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if released == nil {
		t.Fatal("table was not released")
	}
	if released.ID != tableID {
		t.Errorf("released table %s, want %s", released.ID, tableID)
	}
	if released.OrderID != order.ID {
		t.Errorf("release conditioned on order %s, want %s", released.OrderID, order.ID)
	}
	if !tx.committed {
		t.Fatal("transaction was not committed")
	}
}

func TestTransition_DeliveredReleasesPartner(t *testing.T) {
	partnerID := uuid.New()
	order := &database.Order{
		ID:                uuid.New(),
		OrderType:         enum.OrderTypeDelivery,
		Status:            enum.OrderStatusOnTheWay,
		DeliveryPartnerID: pgtype.UUID{Bytes: partnerID, Valid: true},
	}
	store := statusStore(order)
	var released *database.ReleasePartnerParams
	store.releasePartnerFn = func(ctx context.Context, arg database.ReleasePartnerParams) (database.DeliveryPartner, error) {
		released = &arg
		return database.DeliveryPartner{ID: arg.ID, Status: enum.PartnerStatusAvailable}, nil
	}
	svc, _ := newTestService(store)

	_, err := svc.Transition(context.Background(), order.ID, enum.OrderStatusDelivered)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if released == nil {
		t.Fatal("partner was not released")
	}
	if released.ID != partnerID {
		t.Errorf("released partner %s, want %s", released.ID, partnerID)
	}
}

// Cancelling releases whichever resources the order holds.
func TestTransition_CancelReleasesTableAndPartner(t *testing.T) {
	order := &database.Order{
		ID:                uuid.New(),
		OrderType:         enum.OrderTypeDelivery,
		Status:            enum.OrderStatusOnTheWay,
		DeliveryPartnerID: pgtype.UUID{Bytes: uuid.New(), Valid: true},
	}
	store := statusStore(order)
	partnerReleased := false
	store.releasePartnerFn = func(ctx context.Context, arg database.ReleasePartnerParams) (database.DeliveryPartner, error) {
		partnerReleased = true
		return database.DeliveryPartner{}, nil
	}
	svc, _ := newTestService(store)

	_, err := svc.Transition(context.Background(), order.ID, enum.OrderStatusCancelled)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !partnerReleased {
		t.Error("cancel must release the assigned partner")
	}
}

// A release that finds no matching row means the resource already moved on;
// the transition still succeeds.
func TestTransition_ReleaseAlreadyDone(t *testing.T) {
	order := &database.Order{
		ID:        uuid.New(),
		OrderType: enum.OrderTypeDineIn,
		Status:    enum.OrderStatusServed,
		TableID:   pgtype.UUID{Bytes: uuid.New(), Valid: true},
	}
	store := statusStore(order)
	store.releaseTableFn = func(ctx context.Context, arg database.ReleaseTableParams) (database.Table, error) {
		return database.Table{}, pgx.ErrNoRows
	}
	svc, _ := newTestService(store)

	updated, err := svc.Transition(context.Background(), order.ID, enum.OrderStatusCompleted)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if updated.Status != enum.OrderStatusCompleted {
		t.Errorf("status = %s, want completed", updated.Status)
	}
}

func TestTransition_DeliveryFullLifecycle(t *testing.T) {
	order := &database.Order{
		ID:                uuid.New(),
		OrderType:         enum.OrderTypeDelivery,
		Status:            enum.OrderStatusPickedUp,
		DeliveryPartnerID: pgtype.UUID{Bytes: uuid.New(), Valid: true},
	}
	svc, _ := newTestService(statusStore(order))

	for _, target := range []string{enum.OrderStatusOnTheWay, enum.OrderStatusDelivered} {
		updated, err := svc.Transition(context.Background(), order.ID, target)
		if err != nil {
			t.Fatalf("transition to %s: %v", target, err)
		}
		if updated.Status != target {
			t.Fatalf("status = %s, want %s", updated.Status, target)
		}
	}
}
