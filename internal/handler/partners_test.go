package handler_test

import (
	"context"
	"net/http"
	"testing"

	"github.com/altaj-restaurant/api/internal/auth"
	"github.com/altaj-restaurant/api/internal/database"
	"github.com/altaj-restaurant/api/internal/handler"
	"github.com/altaj-restaurant/api/internal/middleware"
	"github.com/altaj-restaurant/api/internal/service"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
)

// --- Mock PartnerServicer ---

type mockPartnerService struct {
	setStatusFn func(ctx context.Context, partnerID uuid.UUID, target string) (*database.DeliveryPartner, error)
}

func (m *mockPartnerService) SetPartnerStatus(ctx context.Context, partnerID uuid.UUID, target string) (*database.DeliveryPartner, error) {
	if m.setStatusFn != nil {
		return m.setStatusFn(ctx, partnerID, target)
	}
	return nil, service.ErrPartnerNotFound
}

// --- Mock PartnerStore ---

type mockPartnerStore struct {
	listPartnersFn           func(ctx context.Context, arg database.ListPartnersParams) ([]database.DeliveryPartner, error)
	getPartnerByUserFn       func(ctx context.Context, userID uuid.UUID) (database.DeliveryPartner, error)
	countAvailablePartnersFn func(ctx context.Context, branchID uuid.UUID) (int64, error)
}

func (m *mockPartnerStore) ListPartners(ctx context.Context, arg database.ListPartnersParams) ([]database.DeliveryPartner, error) {
	if m.listPartnersFn != nil {
		return m.listPartnersFn(ctx, arg)
	}
	return []database.DeliveryPartner{}, nil
}

func (m *mockPartnerStore) GetPartnerByUser(ctx context.Context, userID uuid.UUID) (database.DeliveryPartner, error) {
	if m.getPartnerByUserFn != nil {
		return m.getPartnerByUserFn(ctx, userID)
	}
	return database.DeliveryPartner{}, pgx.ErrNoRows
}

func (m *mockPartnerStore) CountAvailablePartners(ctx context.Context, branchID uuid.UUID) (int64, error) {
	if m.countAvailablePartnersFn != nil {
		return m.countAvailablePartnersFn(ctx, branchID)
	}
	return 0, nil
}

func setupPartnerRouter(svc *mockPartnerService, store *mockPartnerStore) *chi.Mux {
	h := handler.NewPartnerHandler(svc, store)
	r := chi.NewRouter()
	r.Route("/api/delivery-partners", func(r chi.Router) {
		h.RegisterPublicRoutes(r)
		r.Group(func(r chi.Router) {
			r.Use(middleware.Authenticate(testJWTSecret))
			h.RegisterStaffRoutes(r)
		})
	})
	return r
}

func testPartner(userID, branchID uuid.UUID) database.DeliveryPartner {
	return database.DeliveryPartner{
		ID:       uuid.New(),
		UserID:   userID,
		BranchID: branchID,
		Name:     "Imran Shaikh",
		Phone:    pgtype.Text{String: "+91-9876500002", Valid: true},
		Status:   "available",
	}
}

// --- Availability ---

func TestPartnerAvailability_PartnersOnline(t *testing.T) {
	branchID := uuid.New()
	store := &mockPartnerStore{
		countAvailablePartnersFn: func(ctx context.Context, bid uuid.UUID) (int64, error) {
			if bid != branchID {
				t.Errorf("branch id: got %v, want %v", bid, branchID)
			}
			return 3, nil
		},
	}
	router := setupPartnerRouter(&mockPartnerService{}, store)

	rr := doRequest(t, router, "GET", "/api/delivery-partners/availability/"+branchID.String(), nil)

	if rr.Code != http.StatusOK {
		t.Fatalf("status: got %d, want %d; body: %s", rr.Code, http.StatusOK, rr.Body.String())
	}
	resp := decodeBody(t, rr)
	if resp["available_partners"] != float64(3) {
		t.Errorf("available_partners: got %v, want 3", resp["available_partners"])
	}
	if resp["delivery_available"] != true {
		t.Errorf("delivery_available: got %v, want true", resp["delivery_available"])
	}
}

func TestPartnerAvailability_NoPartners(t *testing.T) {
	router := setupPartnerRouter(&mockPartnerService{}, &mockPartnerStore{})

	rr := doRequest(t, router, "GET", "/api/delivery-partners/availability/"+uuid.New().String(), nil)

	if rr.Code != http.StatusOK {
		t.Fatalf("status: got %d, want %d", rr.Code, http.StatusOK)
	}
	resp := decodeBody(t, rr)
	if resp["delivery_available"] != false {
		t.Errorf("delivery_available: got %v, want false", resp["delivery_available"])
	}
}

func TestPartnerAvailability_InvalidBranchID(t *testing.T) {
	router := setupPartnerRouter(&mockPartnerService{}, &mockPartnerStore{})

	rr := doRequest(t, router, "GET", "/api/delivery-partners/availability/nope", nil)

	if rr.Code != http.StatusBadRequest {
		t.Fatalf("status: got %d, want %d", rr.Code, http.StatusBadRequest)
	}
}

// --- List ---

func TestPartnerList_StatusFilter(t *testing.T) {
	branchID := uuid.New()
	claims := staffClaims(branchID)

	store := &mockPartnerStore{
		listPartnersFn: func(ctx context.Context, arg database.ListPartnersParams) ([]database.DeliveryPartner, error) {
			if !arg.Status.Valid || arg.Status.String != "available" {
				t.Errorf("status filter: got %v, want available", arg.Status)
			}
			return []database.DeliveryPartner{testPartner(uuid.New(), branchID)}, nil
		},
	}
	router := setupPartnerRouter(&mockPartnerService{}, store)

	rr := doAuthRequest(t, router, "GET", "/api/delivery-partners?status=available", nil, claims)

	if rr.Code != http.StatusOK {
		t.Fatalf("status: got %d, want %d; body: %s", rr.Code, http.StatusOK, rr.Body.String())
	}
}

func TestPartnerList_NoAuth(t *testing.T) {
	router := setupPartnerRouter(&mockPartnerService{}, &mockPartnerStore{})

	rr := doRequest(t, router, "GET", "/api/delivery-partners", nil)

	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("status: got %d, want %d", rr.Code, http.StatusUnauthorized)
	}
}

// --- Me ---

func TestPartnerMe_HappyPath(t *testing.T) {
	branchID := uuid.New()
	userID := uuid.New()
	partner := testPartner(userID, branchID)

	store := &mockPartnerStore{
		getPartnerByUserFn: func(ctx context.Context, uid uuid.UUID) (database.DeliveryPartner, error) {
			if uid != userID {
				t.Errorf("user id: got %v, want %v", uid, userID)
			}
			return partner, nil
		},
	}
	router := setupPartnerRouter(&mockPartnerService{}, store)
	claims := &auth.Claims{UserID: userID, BranchID: branchID, Role: "delivery_partner"}

	rr := doAuthRequest(t, router, "GET", "/api/delivery-partners/me", nil, claims)

	if rr.Code != http.StatusOK {
		t.Fatalf("status: got %d, want %d; body: %s", rr.Code, http.StatusOK, rr.Body.String())
	}
	resp := decodeBody(t, rr)
	if resp["name"] != "Imran Shaikh" {
		t.Errorf("name: got %v, want Imran Shaikh", resp["name"])
	}
	if resp["status"] != "available" {
		t.Errorf("status: got %v, want available", resp["status"])
	}
}

func TestPartnerMe_NoProfile(t *testing.T) {
	router := setupPartnerRouter(&mockPartnerService{}, &mockPartnerStore{})
	claims := &auth.Claims{UserID: uuid.New(), BranchID: uuid.New(), Role: "delivery_partner"}

	rr := doAuthRequest(t, router, "GET", "/api/delivery-partners/me", nil, claims)

	if rr.Code != http.StatusNotFound {
		t.Fatalf("status: got %d, want %d", rr.Code, http.StatusNotFound)
	}
}

// --- UpdateMyStatus ---

func TestPartnerUpdateMyStatus_GoOffline(t *testing.T) {
	branchID := uuid.New()
	userID := uuid.New()
	partner := testPartner(userID, branchID)

	svc := &mockPartnerService{
		setStatusFn: func(ctx context.Context, partnerID uuid.UUID, target string) (*database.DeliveryPartner, error) {
			if partnerID != partner.ID {
				t.Errorf("partner id: got %v, want %v", partnerID, partner.ID)
			}
			if target != "offline" {
				t.Errorf("target: got %v, want offline", target)
			}
			updated := partner
			updated.Status = "offline"
			return &updated, nil
		},
	}
	store := &mockPartnerStore{
		getPartnerByUserFn: func(ctx context.Context, uid uuid.UUID) (database.DeliveryPartner, error) {
			return partner, nil
		},
	}
	router := setupPartnerRouter(svc, store)
	claims := &auth.Claims{UserID: userID, BranchID: branchID, Role: "delivery_partner"}

	rr := doAuthRequest(t, router, "PATCH", "/api/delivery-partners/me/status",
		map[string]string{"status": "offline"}, claims)

	if rr.Code != http.StatusOK {
		t.Fatalf("status: got %d, want %d; body: %s", rr.Code, http.StatusOK, rr.Body.String())
	}
	resp := decodeBody(t, rr)
	if resp["status"] != "offline" {
		t.Errorf("status: got %v, want offline", resp["status"])
	}
}

func TestPartnerUpdateMyStatus_ActiveOrderBlocksAvailable(t *testing.T) {
	branchID := uuid.New()
	userID := uuid.New()
	partner := testPartner(userID, branchID)
	partner.Status = "busy"
	partner.CurrentOrderID = pgtype.UUID{Bytes: uuid.New(), Valid: true}

	svc := &mockPartnerService{
		setStatusFn: func(ctx context.Context, partnerID uuid.UUID, target string) (*database.DeliveryPartner, error) {
			return nil, service.ErrPartnerHasActiveOrder
		},
	}
	store := &mockPartnerStore{
		getPartnerByUserFn: func(ctx context.Context, uid uuid.UUID) (database.DeliveryPartner, error) {
			return partner, nil
		},
	}
	router := setupPartnerRouter(svc, store)
	claims := &auth.Claims{UserID: userID, BranchID: branchID, Role: "delivery_partner"}

	rr := doAuthRequest(t, router, "PATCH", "/api/delivery-partners/me/status",
		map[string]string{"status": "available"}, claims)

	if rr.Code != http.StatusConflict {
		t.Fatalf("status: got %d, want %d", rr.Code, http.StatusConflict)
	}
}

func TestPartnerUpdateMyStatus_MissingStatus(t *testing.T) {
	branchID := uuid.New()
	userID := uuid.New()
	store := &mockPartnerStore{
		getPartnerByUserFn: func(ctx context.Context, uid uuid.UUID) (database.DeliveryPartner, error) {
			return testPartner(userID, branchID), nil
		},
	}
	router := setupPartnerRouter(&mockPartnerService{}, store)
	claims := &auth.Claims{UserID: userID, BranchID: branchID, Role: "delivery_partner"}

	rr := doAuthRequest(t, router, "PATCH", "/api/delivery-partners/me/status",
		map[string]string{}, claims)

	if rr.Code != http.StatusBadRequest {
		t.Fatalf("status: got %d, want %d", rr.Code, http.StatusBadRequest)
	}
}
