package router

import (
	"log"
	"net/http"

	"github.com/altaj-restaurant/api/internal/config"
	"github.com/altaj-restaurant/api/internal/database"
	"github.com/altaj-restaurant/api/internal/enum"
	"github.com/altaj-restaurant/api/internal/handler"
	mw "github.com/altaj-restaurant/api/internal/middleware"
	"github.com/altaj-restaurant/api/internal/service"
	"github.com/altaj-restaurant/api/internal/ws"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/jackc/pgx/v5/pgxpool"
)

// New creates a Chi router with all application routes wired up.
// Applies authentication and role-based middleware as needed.
func New(cfg *config.Config, queries *database.Queries, pool *pgxpool.Pool, hub *ws.Hub) chi.Router {
	r := chi.NewRouter()

	// Standard middleware
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	// CORS configuration
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{
			"http://localhost:5173",      // web dev server
			"https://order.altaj.in",     // customer ordering site
			"https://admin.altaj.in",     // branch dashboard
			"https://stg-admin.altaj.in", // staging dashboard
		},
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: true,
		MaxAge:           300, // 5 minutes
	}))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":"ok","version":"1.0.0"}`))
	})

	// Services. Order and delivery flows own their transactions, so they
	// get the pool plus a store factory; the rest run single statements.
	orderService := service.NewOrderService(pool, func(db database.DBTX) service.OrderStore {
		return database.New(db)
	})
	deliveryService := service.NewDeliveryService(pool, queries, func(db database.DBTX) service.DeliveryStore {
		return database.New(db)
	})
	tableService := service.NewTableService(queries)
	couponService := service.NewCouponService(queries)

	// Handlers
	authHandler := handler.NewAuthHandler(pool, queries, func(db database.DBTX) handler.AuthStore {
		return database.New(db)
	}, cfg.JWTSecret)
	orderHandler := handler.NewOrderHandler(orderService, deliveryService, queries, hub)
	branchHandler := handler.NewBranchHandler(queries)
	menuHandler := handler.NewMenuHandler(queries)
	tableHandler := handler.NewTableHandler(tableService, queries)
	partnerHandler := handler.NewPartnerHandler(deliveryService, queries)
	couponHandler := handler.NewCouponHandler(couponService, queries)
	offerHandler := handler.NewOfferHandler(queries)
	reviewHandler := handler.NewReviewHandler(queries)
	reportHandler := handler.NewReportHandler(queries)

	r.Route("/api", func(r chi.Router) {
		// Auth routes (public)
		authHandler.RegisterRoutes(r)

		r.Route("/branches", func(r chi.Router) {
			branchHandler.RegisterPublicRoutes(r)
			r.Group(func(r chi.Router) {
				r.Use(mw.Authenticate(cfg.JWTSecret))
				r.Use(mw.RequireRole(enum.UserRoleAdmin))
				branchHandler.RegisterAdminRoutes(r)
			})

			// Branch-scoped staff subtrees. RequireBranch pins staff
			// to the branch in their token; admins pass through.
			r.Route("/{bid}/orders", func(r chi.Router) {
				r.Use(mw.Authenticate(cfg.JWTSecret))
				r.Use(mw.RequireBranch)
				r.Use(mw.RequireRole(
					enum.UserRoleAdmin,
					enum.UserRoleBranchManager,
					enum.UserRoleWaiter,
					enum.UserRoleKitchenStaff,
					enum.UserRoleDeliveryPartner,
				))
				orderHandler.RegisterStaffRoutes(r)
			})

			r.Route("/{bid}/tables", func(r chi.Router) {
				r.Use(mw.Authenticate(cfg.JWTSecret))
				r.Use(mw.RequireBranch)
				r.Use(mw.RequireRole(enum.UserRoleAdmin, enum.UserRoleBranchManager, enum.UserRoleWaiter))
				tableHandler.RegisterStaffRoutes(r)
			})
		})

		r.Route("/menu", func(r chi.Router) {
			menuHandler.RegisterPublicRoutes(r)
			r.Group(func(r chi.Router) {
				r.Use(mw.Authenticate(cfg.JWTSecret))
				r.Use(mw.RequireRole(enum.UserRoleAdmin, enum.UserRoleBranchManager))
				menuHandler.RegisterAdminRoutes(r)
			})
		})

		r.Route("/orders", func(r chi.Router) {
			orderHandler.RegisterPublicRoutes(r)
		})

		r.Route("/tables", func(r chi.Router) {
			tableHandler.RegisterPublicRoutes(r)
		})

		r.Route("/delivery-partners", func(r chi.Router) {
			partnerHandler.RegisterPublicRoutes(r)
			r.Group(func(r chi.Router) {
				r.Use(mw.Authenticate(cfg.JWTSecret))
				r.Use(mw.RequireRole(
					enum.UserRoleAdmin,
					enum.UserRoleBranchManager,
					enum.UserRoleDeliveryPartner,
				))
				partnerHandler.RegisterStaffRoutes(r)
			})
		})

		r.Route("/coupons", func(r chi.Router) {
			couponHandler.RegisterPublicRoutes(r)
			r.Group(func(r chi.Router) {
				r.Use(mw.Authenticate(cfg.JWTSecret))
				r.Use(mw.RequireRole(enum.UserRoleAdmin))
				couponHandler.RegisterAdminRoutes(r)
			})
		})

		r.Route("/offers", func(r chi.Router) {
			offerHandler.RegisterPublicRoutes(r)
			r.Group(func(r chi.Router) {
				r.Use(mw.Authenticate(cfg.JWTSecret))
				r.Use(mw.RequireRole(enum.UserRoleAdmin))
				offerHandler.RegisterAdminRoutes(r)
			})
		})

		r.Route("/reviews", func(r chi.Router) {
			reviewHandler.RegisterPublicRoutes(r)
			r.Group(func(r chi.Router) {
				r.Use(mw.Authenticate(cfg.JWTSecret))
				r.Use(mw.RequireRole(enum.UserRoleAdmin, enum.UserRoleBranchManager))
				reviewHandler.RegisterAdminRoutes(r)
			})
		})

		// Reports (management only)
		r.Group(func(r chi.Router) {
			r.Use(mw.Authenticate(cfg.JWTSecret))
			r.Use(mw.RequireRole(enum.UserRoleAdmin, enum.UserRoleBranchManager))
			r.Route("/reports", reportHandler.RegisterRoutes)
		})

		// Current user
		r.Group(func(r chi.Router) {
			r.Use(mw.Authenticate(cfg.JWTSecret))
			r.Get("/auth/me", authHandler.Me)
			r.With(mw.RequireRole(enum.UserRoleAdmin)).Get("/auth/users", authHandler.Users)
		})
	})

	// WebSocket route (handles auth internally via query param)
	r.Get("/ws/branches/{bid}/orders", func(w http.ResponseWriter, r *http.Request) {
		ws.ServeWS(hub, cfg.JWTSecret, w, r)
	})

	log.Println("Router initialized with all handlers")
	return r
}
