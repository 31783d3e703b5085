package handler_test

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/altaj-restaurant/api/internal/database"
	"github.com/altaj-restaurant/api/internal/handler"
	"github.com/altaj-restaurant/api/internal/middleware"
	"github.com/altaj-restaurant/api/internal/service"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// --- Mock TableServicer ---

type mockTableService struct {
	createFn    func(ctx context.Context, req service.CreateTableRequest) (*database.Table, error)
	setStatusFn func(ctx context.Context, tableID uuid.UUID, target, orderID string) (*database.Table, error)
}

func (m *mockTableService) Create(ctx context.Context, req service.CreateTableRequest) (*database.Table, error) {
	if m.createFn != nil {
		return m.createFn(ctx, req)
	}
	return nil, service.ErrBranchNotFound
}

func (m *mockTableService) SetStatus(ctx context.Context, tableID uuid.UUID, target, orderID string) (*database.Table, error) {
	if m.setStatusFn != nil {
		return m.setStatusFn(ctx, tableID, target, orderID)
	}
	return nil, service.ErrTableNotFound
}

// --- Mock TableStore ---

type mockTableStore struct {
	getTableFn   func(ctx context.Context, id uuid.UUID) (database.Table, error)
	listTablesFn func(ctx context.Context, arg database.ListTablesParams) ([]database.Table, error)
}

func (m *mockTableStore) GetTable(ctx context.Context, id uuid.UUID) (database.Table, error) {
	if m.getTableFn != nil {
		return m.getTableFn(ctx, id)
	}
	return database.Table{}, pgx.ErrNoRows
}

func (m *mockTableStore) ListTables(ctx context.Context, arg database.ListTablesParams) ([]database.Table, error) {
	if m.listTablesFn != nil {
		return m.listTablesFn(ctx, arg)
	}
	return []database.Table{}, nil
}

func testTable(branchID uuid.UUID) database.Table {
	return database.Table{
		ID:          uuid.New(),
		BranchID:    branchID,
		TableNumber: "T1",
		Capacity:    4,
		Status:      "vacant",
		CreatedAt:   time.Now(),
	}
}

func setupTableRouter(svc *mockTableService, store *mockTableStore) *chi.Mux {
	h := handler.NewTableHandler(svc, store)
	r := chi.NewRouter()
	r.Route("/api/tables", func(r chi.Router) {
		h.RegisterPublicRoutes(r)
	})
	r.Route("/api/branches/{bid}/tables", func(r chi.Router) {
		r.Use(middleware.Authenticate(testJWTSecret))
		r.Use(middleware.RequireBranch)
		h.RegisterStaffRoutes(r)
	})
	return r
}

func staffTablesPath(branchID uuid.UUID, rest string) string {
	return "/api/branches/" + branchID.String() + "/tables" + rest
}

func TestTableCreate_BranchTakenFromPath(t *testing.T) {
	branchID := uuid.New()
	claims := staffClaims(branchID)

	svc := &mockTableService{
		createFn: func(ctx context.Context, req service.CreateTableRequest) (*database.Table, error) {
			if req.BranchID != branchID {
				t.Errorf("branch_id: got %v, want %v", req.BranchID, branchID)
			}
			tbl := testTable(branchID)
			tbl.TableNumber = req.TableNumber
			tbl.Capacity = req.Capacity
			return &tbl, nil
		},
	}
	router := setupTableRouter(svc, &mockTableStore{})

	rr := doAuthRequest(t, router, "POST", staffTablesPath(branchID, "/"), map[string]interface{}{
		"table_number": "T7",
		"capacity":     6,
	}, claims)

	if rr.Code != http.StatusCreated {
		t.Fatalf("status: got %d, want %d (body: %s)", rr.Code, http.StatusCreated, rr.Body.String())
	}
	resp := decodeBody(t, rr)
	if resp["table_number"] != "T7" {
		t.Errorf("table_number: got %v, want T7", resp["table_number"])
	}
}

func TestTableCreate_OtherBranchForbidden(t *testing.T) {
	claims := staffClaims(uuid.New())
	router := setupTableRouter(&mockTableService{}, &mockTableStore{})

	rr := doAuthRequest(t, router, "POST", staffTablesPath(uuid.New(), "/"), map[string]interface{}{
		"table_number": "T7",
		"capacity":     6,
	}, claims)

	if rr.Code != http.StatusForbidden {
		t.Fatalf("status: got %d, want %d", rr.Code, http.StatusForbidden)
	}
}

func TestTableUpdateStatus_HappyPath(t *testing.T) {
	branchID := uuid.New()
	claims := staffClaims(branchID)
	tbl := testTable(branchID)

	svc := &mockTableService{
		setStatusFn: func(ctx context.Context, tableID uuid.UUID, target, orderID string) (*database.Table, error) {
			if tableID != tbl.ID {
				t.Errorf("table id: got %v, want %v", tableID, tbl.ID)
			}
			updated := tbl
			updated.Status = target
			return &updated, nil
		},
	}
	store := &mockTableStore{
		getTableFn: func(ctx context.Context, id uuid.UUID) (database.Table, error) {
			return tbl, nil
		},
	}
	router := setupTableRouter(svc, store)

	rr := doAuthRequest(t, router, "PATCH", staffTablesPath(branchID, "/"+tbl.ID.String()+"/status"),
		map[string]string{"status": "cleaning"}, claims)

	if rr.Code != http.StatusOK {
		t.Fatalf("status: got %d, want %d (body: %s)", rr.Code, http.StatusOK, rr.Body.String())
	}
	resp := decodeBody(t, rr)
	if resp["status"] != "cleaning" {
		t.Errorf("status field: got %v, want cleaning", resp["status"])
	}
}

func TestTableUpdateStatus_OtherBranchTableHidden(t *testing.T) {
	branchID := uuid.New()
	claims := staffClaims(branchID)
	foreign := testTable(uuid.New())

	svc := &mockTableService{
		setStatusFn: func(ctx context.Context, tableID uuid.UUID, target, orderID string) (*database.Table, error) {
			t.Error("SetStatus called for a table outside the caller's branch")
			return nil, service.ErrTableNotFound
		},
	}
	store := &mockTableStore{
		getTableFn: func(ctx context.Context, id uuid.UUID) (database.Table, error) {
			return foreign, nil
		},
	}
	router := setupTableRouter(svc, store)

	rr := doAuthRequest(t, router, "PATCH", staffTablesPath(branchID, "/"+foreign.ID.String()+"/status"),
		map[string]string{"status": "cleaning"}, claims)

	if rr.Code != http.StatusNotFound {
		t.Fatalf("status: got %d, want %d", rr.Code, http.StatusNotFound)
	}
}

func TestTableList_FiltersByBranch(t *testing.T) {
	branchID := uuid.New()
	store := &mockTableStore{
		listTablesFn: func(ctx context.Context, arg database.ListTablesParams) ([]database.Table, error) {
			if !arg.BranchID.Valid || uuid.UUID(arg.BranchID.Bytes) != branchID {
				t.Errorf("branch filter: got %v, want %v", arg.BranchID, branchID)
			}
			return []database.Table{testTable(branchID)}, nil
		},
	}
	router := setupTableRouter(&mockTableService{}, store)

	rr := doRequest(t, router, "GET", "/api/tables?branch_id="+branchID.String(), nil)

	if rr.Code != http.StatusOK {
		t.Fatalf("status: got %d, want %d", rr.Code, http.StatusOK)
	}
}
