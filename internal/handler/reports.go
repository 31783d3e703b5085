package handler

import (
	"context"
	"log"
	"net/http"
	"time"

	"github.com/altaj-restaurant/api/internal/database"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
)

// ReportStore defines the database methods needed by report handlers.
type ReportStore interface {
	SalesReport(ctx context.Context, arg database.SalesReportParams) ([]database.SalesReportRow, error)
	BranchPerformance(ctx context.Context) ([]database.BranchPerformanceRow, error)
	CountOrdersByStatus(ctx context.Context, branchID pgtype.UUID) ([]database.StatusCountRow, error)
	TodayRevenue(ctx context.Context, branchID pgtype.UUID) (database.TodayRevenueRow, error)
}

// ReportHandler handles reporting endpoints for the admin dashboard.
type ReportHandler struct {
	store ReportStore
}

func NewReportHandler(store ReportStore) *ReportHandler {
	return &ReportHandler{store: store}
}

// RegisterRoutes registers the report endpoints. Expected to be mounted
// behind admin/manager authorization.
func (h *ReportHandler) RegisterRoutes(r chi.Router) {
	r.Get("/sales", h.Sales)
	r.Get("/branch-performance", h.BranchPerformance)
	r.Get("/dashboard", h.Dashboard)
}

type salesRow struct {
	OrderType    string `json:"order_type"`
	TotalOrders  int64  `json:"total_orders"`
	TotalRevenue string `json:"total_revenue"`
}

type branchPerformanceRow struct {
	BranchID     *string `json:"branch_id"`
	BranchName   string  `json:"branch_name"`
	TotalOrders  int64   `json:"total_orders"`
	TotalRevenue string  `json:"total_revenue"`
}

type dashboardResponse struct {
	TodayOrders   int64            `json:"today_orders"`
	TodayRevenue  string           `json:"today_revenue"`
	OrdersByState map[string]int64 `json:"orders_by_status"`
}

// parseBranchFilter reads the optional branch_id query parameter. Writes the
// error response itself and returns ok=false on a malformed id.
func parseBranchFilter(w http.ResponseWriter, r *http.Request) (pgtype.UUID, bool) {
	s := r.URL.Query().Get("branch_id")
	if s == "" {
		return pgtype.UUID{}, true
	}
	bid, err := uuid.Parse(s)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid branch_id"})
		return pgtype.UUID{}, false
	}
	return pgtype.UUID{Bytes: bid, Valid: true}, true
}

// Sales handles GET /api/reports/sales with optional branch and date filters.
func (h *ReportHandler) Sales(w http.ResponseWriter, r *http.Request) {
	branchID, ok := parseBranchFilter(w, r)
	if !ok {
		return
	}

	params := database.SalesReportParams{BranchID: branchID}
	if s := r.URL.Query().Get("start_date"); s != "" {
		t, err := time.Parse("2006-01-02", s)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid start_date format, use YYYY-MM-DD"})
			return
		}
		params.StartDate = pgtype.Timestamptz{Time: t, Valid: true}
	}
	if s := r.URL.Query().Get("end_date"); s != "" {
		t, err := time.Parse("2006-01-02", s)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid end_date format, use YYYY-MM-DD"})
			return
		}
		// Inclusive end date.
		params.EndDate = pgtype.Timestamptz{Time: t.Add(24*time.Hour - time.Nanosecond), Valid: true}
	}

	rows, err := h.store.SalesReport(r.Context(), params)
	if err != nil {
		log.Printf("ERROR: sales report: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	resp := make([]salesRow, len(rows))
	for i, row := range rows {
		resp[i] = salesRow{
			OrderType:    row.OrderType,
			TotalOrders:  row.TotalOrders,
			TotalRevenue: numericString(row.TotalRevenue),
		}
	}
	writeJSON(w, http.StatusOK, resp)
}

// BranchPerformance handles GET /api/reports/branch-performance.
func (h *ReportHandler) BranchPerformance(w http.ResponseWriter, r *http.Request) {
	rows, err := h.store.BranchPerformance(r.Context())
	if err != nil {
		log.Printf("ERROR: branch performance: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	resp := make([]branchPerformanceRow, len(rows))
	for i, row := range rows {
		resp[i] = branchPerformanceRow{
			BranchID:     uuidPtr(row.BranchID),
			BranchName:   row.BranchName,
			TotalOrders:  row.TotalOrders,
			TotalRevenue: numericString(row.TotalRevenue),
		}
	}
	writeJSON(w, http.StatusOK, resp)
}

// Dashboard handles GET /api/reports/dashboard.
func (h *ReportHandler) Dashboard(w http.ResponseWriter, r *http.Request) {
	branchID, ok := parseBranchFilter(w, r)
	if !ok {
		return
	}

	today, err := h.store.TodayRevenue(r.Context(), branchID)
	if err != nil {
		log.Printf("ERROR: today revenue: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	counts, err := h.store.CountOrdersByStatus(r.Context(), branchID)
	if err != nil {
		log.Printf("ERROR: count orders by status: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	byStatus := make(map[string]int64, len(counts))
	for _, c := range counts {
		byStatus[c.Status] = c.Count
	}

	writeJSON(w, http.StatusOK, dashboardResponse{
		TodayOrders:   today.TotalOrders,
		TodayRevenue:  numericString(today.TotalRevenue),
		OrdersByState: byStatus,
	})
}
