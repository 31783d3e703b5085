package handler_test

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/altaj-restaurant/api/internal/auth"
	"github.com/altaj-restaurant/api/internal/database"
	"github.com/altaj-restaurant/api/internal/enum"
	"github.com/altaj-restaurant/api/internal/handler"
	"github.com/altaj-restaurant/api/internal/middleware"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"
	"golang.org/x/crypto/bcrypt"
)

// --- Mock AuthStore ---

type mockAuthStore struct {
	createUserFn     func(ctx context.Context, arg database.CreateUserParams) (database.User, error)
	getUserByEmailFn func(ctx context.Context, email string) (database.User, error)
	getUserByIDFn    func(ctx context.Context, id uuid.UUID) (database.User, error)
	listUsersFn      func(ctx context.Context) ([]database.User, error)
	createPartnerFn  func(ctx context.Context, arg database.CreatePartnerParams) (database.DeliveryPartner, error)
}

func (m *mockAuthStore) CreateUser(ctx context.Context, arg database.CreateUserParams) (database.User, error) {
	if m.createUserFn != nil {
		return m.createUserFn(ctx, arg)
	}
	return database.User{}, pgx.ErrNoRows
}

func (m *mockAuthStore) GetUserByEmail(ctx context.Context, email string) (database.User, error) {
	if m.getUserByEmailFn != nil {
		return m.getUserByEmailFn(ctx, email)
	}
	return database.User{}, pgx.ErrNoRows
}

func (m *mockAuthStore) GetUserByID(ctx context.Context, id uuid.UUID) (database.User, error) {
	if m.getUserByIDFn != nil {
		return m.getUserByIDFn(ctx, id)
	}
	return database.User{}, pgx.ErrNoRows
}

func (m *mockAuthStore) ListUsers(ctx context.Context) ([]database.User, error) {
	if m.listUsersFn != nil {
		return m.listUsersFn(ctx)
	}
	return []database.User{}, nil
}

func (m *mockAuthStore) CreatePartner(ctx context.Context, arg database.CreatePartnerParams) (database.DeliveryPartner, error) {
	if m.createPartnerFn != nil {
		return m.createPartnerFn(ctx, arg)
	}
	return database.DeliveryPartner{}, pgx.ErrNoRows
}

// mockTx implements pgx.Tx with only the methods register needs. The unused
// methods panic so we catch accidental calls.
type mockTx struct {
	committed  bool
	rolledBack bool
}

func (m *mockTx) Begin(ctx context.Context) (pgx.Tx, error) { panic("not implemented") }
func (m *mockTx) Commit(ctx context.Context) error {
	m.committed = true
	return nil
}
func (m *mockTx) Rollback(ctx context.Context) error {
	m.rolledBack = true
	return nil
}
func (m *mockTx) CopyFrom(ctx context.Context, tableName pgx.Identifier, columnNames []string, rowSrc pgx.CopyFromSource) (int64, error) {
	panic("not implemented")
}
func (m *mockTx) SendBatch(ctx context.Context, b *pgx.Batch) pgx.BatchResults {
	panic("not implemented")
}
func (m *mockTx) LargeObjects() pgx.LargeObjects { panic("not implemented") }
func (m *mockTx) Prepare(ctx context.Context, name, sql string) (*pgconn.StatementDescription, error) {
	panic("not implemented")
}
func (m *mockTx) Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error) {
	panic("not implemented")
}
func (m *mockTx) Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error) {
	panic("not implemented")
}
func (m *mockTx) QueryRow(ctx context.Context, sql string, args ...any) pgx.Row {
	panic("not implemented")
}
func (m *mockTx) Conn() *pgx.Conn { panic("not implemented") }

// mockTxBeginner implements service.TxBeginner.
type mockTxBeginner struct {
	tx pgx.Tx
}

func (m *mockTxBeginner) Begin(ctx context.Context) (pgx.Tx, error) {
	return m.tx, nil
}

func setupAuthRouter(store *mockAuthStore) *chi.Mux {
	router, _ := setupAuthRouterTx(store)
	return router
}

func setupAuthRouterTx(store *mockAuthStore) (*chi.Mux, *mockTx) {
	tx := &mockTx{}
	h := handler.NewAuthHandler(&mockTxBeginner{tx: tx}, store, func(db database.DBTX) handler.AuthStore {
		return store
	}, testJWTSecret)
	r := chi.NewRouter()
	r.Route("/api", func(r chi.Router) {
		h.RegisterRoutes(r)
		r.Group(func(r chi.Router) {
			r.Use(middleware.Authenticate(testJWTSecret))
			r.Get("/auth/me", h.Me)
			r.With(middleware.RequireRole(enum.UserRoleAdmin)).Get("/auth/users", h.Users)
		})
	})
	return r, tx
}

func hashPassword(t *testing.T, password string) string {
	t.Helper()
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("hash password: %v", err)
	}
	return string(hashed)
}

// --- Register ---

func TestAuthRegister_Customer(t *testing.T) {
	store := &mockAuthStore{
		createUserFn: func(ctx context.Context, arg database.CreateUserParams) (database.User, error) {
			if arg.Role != "customer" {
				t.Errorf("role: got %v, want customer", arg.Role)
			}
			if arg.HashedPassword == "secretpass123" {
				t.Error("password stored in plain text")
			}
			return database.User{
				ID:       uuid.New(),
				Email:    arg.Email,
				Name:     arg.Name,
				Role:     arg.Role,
				IsActive: true,
			}, nil
		},
	}
	router := setupAuthRouter(store)

	rr := doRequest(t, router, "POST", "/api/auth/register", map[string]string{
		"email":    "ravi@example.com",
		"password": "secretpass123",
		"name":     "Ravi Kumar",
	})

	if rr.Code != http.StatusCreated {
		t.Fatalf("status: got %d, want %d; body: %s", rr.Code, http.StatusCreated, rr.Body.String())
	}
	resp := decodeBody(t, rr)
	if resp["access_token"] == "" || resp["access_token"] == nil {
		t.Error("access_token missing")
	}
	if resp["refresh_token"] == "" || resp["refresh_token"] == nil {
		t.Error("refresh_token missing")
	}
	user := resp["user"].(map[string]interface{})
	if user["role"] != "customer" {
		t.Errorf("user role: got %v, want customer", user["role"])
	}
}

func TestAuthRegister_DeliveryPartnerCreatesProfile(t *testing.T) {
	branchID := uuid.New()
	userID := uuid.New()
	partnerCreated := false

	store := &mockAuthStore{
		createUserFn: func(ctx context.Context, arg database.CreateUserParams) (database.User, error) {
			return database.User{
				ID:       userID,
				Email:    arg.Email,
				Name:     arg.Name,
				Role:     arg.Role,
				BranchID: arg.BranchID,
				IsActive: true,
			}, nil
		},
		createPartnerFn: func(ctx context.Context, arg database.CreatePartnerParams) (database.DeliveryPartner, error) {
			partnerCreated = true
			if arg.UserID != userID {
				t.Errorf("partner user_id: got %v, want %v", arg.UserID, userID)
			}
			if arg.BranchID != branchID {
				t.Errorf("partner branch_id: got %v, want %v", arg.BranchID, branchID)
			}
			if !arg.VehicleType.Valid || arg.VehicleType.String != "bike" {
				t.Errorf("vehicle_type: got %v, want bike", arg.VehicleType)
			}
			return database.DeliveryPartner{ID: uuid.New(), UserID: userID, BranchID: branchID}, nil
		},
	}
	router, tx := setupAuthRouterTx(store)

	rr := doRequest(t, router, "POST", "/api/auth/register", map[string]string{
		"email":          "rider@example.com",
		"password":       "secretpass123",
		"name":           "Imran Shaikh",
		"role":           "delivery_partner",
		"branch_id":      branchID.String(),
		"vehicle_type":   "bike",
		"vehicle_number": "MH-01-AB-1234",
	})

	if rr.Code != http.StatusCreated {
		t.Fatalf("status: got %d, want %d; body: %s", rr.Code, http.StatusCreated, rr.Body.String())
	}
	if !partnerCreated {
		t.Error("partner profile was not created")
	}
	if !tx.committed {
		t.Error("registration tx was not committed")
	}
}

func TestAuthRegister_PartnerProfileFailureRollsBack(t *testing.T) {
	branchID := uuid.New()

	store := &mockAuthStore{
		createUserFn: func(ctx context.Context, arg database.CreateUserParams) (database.User, error) {
			return database.User{ID: uuid.New(), Email: arg.Email, Name: arg.Name, Role: arg.Role, BranchID: arg.BranchID, IsActive: true}, nil
		},
		createPartnerFn: func(ctx context.Context, arg database.CreatePartnerParams) (database.DeliveryPartner, error) {
			return database.DeliveryPartner{}, errors.New("insert failed")
		},
	}
	router, tx := setupAuthRouterTx(store)

	rr := doRequest(t, router, "POST", "/api/auth/register", map[string]string{
		"email":        "rider@example.com",
		"password":     "secretpass123",
		"name":         "Imran Shaikh",
		"role":         "delivery_partner",
		"branch_id":    branchID.String(),
		"vehicle_type": "bike",
	})

	if rr.Code != http.StatusInternalServerError {
		t.Fatalf("status: got %d, want %d", rr.Code, http.StatusInternalServerError)
	}
	if tx.committed {
		t.Error("registration tx committed despite partner insert failure")
	}
	if !tx.rolledBack {
		t.Error("registration tx was not rolled back")
	}
}

func TestAuthRegister_DeliveryPartnerRequiresBranch(t *testing.T) {
	router := setupAuthRouter(&mockAuthStore{})

	rr := doRequest(t, router, "POST", "/api/auth/register", map[string]string{
		"email":    "rider@example.com",
		"password": "secretpass123",
		"name":     "Imran Shaikh",
		"role":     "delivery_partner",
	})

	if rr.Code != http.StatusBadRequest {
		t.Fatalf("status: got %d, want %d", rr.Code, http.StatusBadRequest)
	}
}

func TestAuthRegister_ShortPassword(t *testing.T) {
	router := setupAuthRouter(&mockAuthStore{})

	rr := doRequest(t, router, "POST", "/api/auth/register", map[string]string{
		"email":    "ravi@example.com",
		"password": "short",
		"name":     "Ravi Kumar",
	})

	if rr.Code != http.StatusBadRequest {
		t.Fatalf("status: got %d, want %d", rr.Code, http.StatusBadRequest)
	}
}

func TestAuthRegister_InvalidRole(t *testing.T) {
	router := setupAuthRouter(&mockAuthStore{})

	rr := doRequest(t, router, "POST", "/api/auth/register", map[string]string{
		"email":    "ravi@example.com",
		"password": "secretpass123",
		"name":     "Ravi Kumar",
		"role":     "superuser",
	})

	if rr.Code != http.StatusBadRequest {
		t.Fatalf("status: got %d, want %d", rr.Code, http.StatusBadRequest)
	}
}

func TestAuthRegister_DuplicateEmail(t *testing.T) {
	store := &mockAuthStore{
		createUserFn: func(ctx context.Context, arg database.CreateUserParams) (database.User, error) {
			return database.User{}, &pgconn.PgError{Code: "23505"}
		},
	}
	router := setupAuthRouter(store)

	rr := doRequest(t, router, "POST", "/api/auth/register", map[string]string{
		"email":    "ravi@example.com",
		"password": "secretpass123",
		"name":     "Ravi Kumar",
	})

	if rr.Code != http.StatusConflict {
		t.Fatalf("status: got %d, want %d", rr.Code, http.StatusConflict)
	}
}

// --- Login ---

func TestAuthLogin_HappyPath(t *testing.T) {
	branchID := uuid.New()
	hashed := hashPassword(t, "secretpass123")

	store := &mockAuthStore{
		getUserByEmailFn: func(ctx context.Context, email string) (database.User, error) {
			if email != "manager@altaj.in" {
				t.Errorf("email: got %v, want manager@altaj.in", email)
			}
			return database.User{
				ID:             uuid.New(),
				Email:          email,
				HashedPassword: hashed,
				Name:           "Fatima Khan",
				Role:           "branch_manager",
				BranchID:       pgtype.UUID{Bytes: branchID, Valid: true},
				IsActive:       true,
			}, nil
		},
	}
	router := setupAuthRouter(store)

	rr := doRequest(t, router, "POST", "/api/auth/login", map[string]string{
		"email":    "manager@altaj.in",
		"password": "secretpass123",
	})

	if rr.Code != http.StatusOK {
		t.Fatalf("status: got %d, want %d; body: %s", rr.Code, http.StatusOK, rr.Body.String())
	}
	resp := decodeBody(t, rr)

	// The issued token carries the user's branch and role.
	claims, err := auth.ValidateToken(testJWTSecret, resp["access_token"].(string))
	if err != nil {
		t.Fatalf("validate issued token: %v", err)
	}
	if claims.BranchID != branchID {
		t.Errorf("token branch: got %v, want %v", claims.BranchID, branchID)
	}
	if claims.Role != "branch_manager" {
		t.Errorf("token role: got %v, want branch_manager", claims.Role)
	}
}

func TestAuthLogin_WrongPassword(t *testing.T) {
	hashed := hashPassword(t, "correct-password")

	store := &mockAuthStore{
		getUserByEmailFn: func(ctx context.Context, email string) (database.User, error) {
			return database.User{
				ID:             uuid.New(),
				Email:          email,
				HashedPassword: hashed,
				IsActive:       true,
			}, nil
		},
	}
	router := setupAuthRouter(store)

	rr := doRequest(t, router, "POST", "/api/auth/login", map[string]string{
		"email":    "ravi@example.com",
		"password": "wrong-password",
	})

	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("status: got %d, want %d", rr.Code, http.StatusUnauthorized)
	}
}

func TestAuthLogin_UnknownEmail(t *testing.T) {
	router := setupAuthRouter(&mockAuthStore{})

	rr := doRequest(t, router, "POST", "/api/auth/login", map[string]string{
		"email":    "nobody@example.com",
		"password": "whatever123",
	})

	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("status: got %d, want %d", rr.Code, http.StatusUnauthorized)
	}
}

func TestAuthLogin_DisabledAccount(t *testing.T) {
	hashed := hashPassword(t, "secretpass123")

	store := &mockAuthStore{
		getUserByEmailFn: func(ctx context.Context, email string) (database.User, error) {
			return database.User{
				ID:             uuid.New(),
				Email:          email,
				HashedPassword: hashed,
				IsActive:       false,
			}, nil
		},
	}
	router := setupAuthRouter(store)

	rr := doRequest(t, router, "POST", "/api/auth/login", map[string]string{
		"email":    "ravi@example.com",
		"password": "secretpass123",
	})

	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("status: got %d, want %d", rr.Code, http.StatusUnauthorized)
	}
}

// --- Refresh ---

func TestAuthRefresh_HappyPath(t *testing.T) {
	userID := uuid.New()
	refreshToken, err := auth.GenerateRefreshToken(testJWTSecret, userID)
	if err != nil {
		t.Fatalf("generate refresh token: %v", err)
	}

	store := &mockAuthStore{
		getUserByIDFn: func(ctx context.Context, id uuid.UUID) (database.User, error) {
			if id != userID {
				t.Errorf("user id: got %v, want %v", id, userID)
			}
			return database.User{ID: userID, Email: "ravi@example.com", Role: "customer", IsActive: true}, nil
		},
	}
	router := setupAuthRouter(store)

	rr := doRequest(t, router, "POST", "/api/auth/refresh", map[string]string{
		"refresh_token": refreshToken,
	})

	if rr.Code != http.StatusOK {
		t.Fatalf("status: got %d, want %d; body: %s", rr.Code, http.StatusOK, rr.Body.String())
	}
	resp := decodeBody(t, rr)
	if resp["access_token"] == "" || resp["access_token"] == nil {
		t.Error("access_token missing")
	}
}

func TestAuthRefresh_GarbageToken(t *testing.T) {
	router := setupAuthRouter(&mockAuthStore{})

	rr := doRequest(t, router, "POST", "/api/auth/refresh", map[string]string{
		"refresh_token": "not.a.jwt",
	})

	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("status: got %d, want %d", rr.Code, http.StatusUnauthorized)
	}
}

func TestAuthRefresh_UserGone(t *testing.T) {
	refreshToken, err := auth.GenerateRefreshToken(testJWTSecret, uuid.New())
	if err != nil {
		t.Fatalf("generate refresh token: %v", err)
	}
	router := setupAuthRouter(&mockAuthStore{})

	rr := doRequest(t, router, "POST", "/api/auth/refresh", map[string]string{
		"refresh_token": refreshToken,
	})

	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("status: got %d, want %d", rr.Code, http.StatusUnauthorized)
	}
}

// --- Me ---

func TestAuthMe_HappyPath(t *testing.T) {
	branchID := uuid.New()
	userID := uuid.New()

	store := &mockAuthStore{
		getUserByIDFn: func(ctx context.Context, id uuid.UUID) (database.User, error) {
			return database.User{
				ID:       userID,
				Email:    "waiter@altaj.in",
				Name:     "Suresh Patil",
				Role:     "waiter",
				BranchID: pgtype.UUID{Bytes: branchID, Valid: true},
				IsActive: true,
			}, nil
		},
	}
	router := setupAuthRouter(store)
	claims := &auth.Claims{UserID: userID, BranchID: branchID, Role: "waiter"}

	rr := doAuthRequest(t, router, "GET", "/api/auth/me", nil, claims)

	if rr.Code != http.StatusOK {
		t.Fatalf("status: got %d, want %d; body: %s", rr.Code, http.StatusOK, rr.Body.String())
	}
	resp := decodeBody(t, rr)
	if resp["email"] != "waiter@altaj.in" {
		t.Errorf("email: got %v, want waiter@altaj.in", resp["email"])
	}
	if resp["branch_id"] != branchID.String() {
		t.Errorf("branch_id: got %v, want %v", resp["branch_id"], branchID)
	}
}

func TestAuthMe_NoToken(t *testing.T) {
	router := setupAuthRouter(&mockAuthStore{})

	rr := doRequest(t, router, "GET", "/api/auth/me", nil)

	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("status: got %d, want %d", rr.Code, http.StatusUnauthorized)
	}
}

func TestAuthUsers_AdminListsAll(t *testing.T) {
	store := &mockAuthStore{
		listUsersFn: func(ctx context.Context) ([]database.User, error) {
			return []database.User{
				{ID: uuid.New(), Email: "admin@altaj.in", Name: "Altaj Admin", Role: "admin", IsActive: true},
				{ID: uuid.New(), Email: "waiter@altaj.in", Name: "Suresh Patil", Role: "waiter", IsActive: true},
			}, nil
		},
	}
	router := setupAuthRouter(store)
	claims := adminClaims()

	rr := doAuthRequest(t, router, "GET", "/api/auth/users", nil, claims)

	if rr.Code != http.StatusOK {
		t.Fatalf("status: got %d, want %d; body: %s", rr.Code, http.StatusOK, rr.Body.String())
	}
	resp := decodeBody(t, rr)
	users, ok := resp["users"].([]interface{})
	if !ok || len(users) != 2 {
		t.Fatalf("users: got %v, want 2 entries", resp["users"])
	}
}

func TestAuthUsers_NonAdminForbidden(t *testing.T) {
	router := setupAuthRouter(&mockAuthStore{})
	claims := staffClaims(uuid.New())

	rr := doAuthRequest(t, router, "GET", "/api/auth/users", nil, claims)

	if rr.Code != http.StatusForbidden {
		t.Fatalf("status: got %d, want %d", rr.Code, http.StatusForbidden)
	}
}
