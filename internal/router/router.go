package router

import (
	"context"
	"net/http"

	"github.com/gastroflow/api/internal/config"
	"github.com/gastroflow/api/internal/database"
	"github.com/gastroflow/api/internal/enum"
	"github.com/gastroflow/api/internal/handler"
	mw "github.com/gastroflow/api/internal/middleware"
	"github.com/gastroflow/api/internal/service"
	"github.com/gastroflow/api/internal/ws"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/jackc/pgx/v5/pgxpool"
)

// New creates a Chi router with all application routes wired up.
func New(cfg *config.Config, queries *database.Queries, pool *pgxpool.Pool, hub *ws.Hub) chi.Router {
	r := chi.NewRouter()

	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"http://localhost:5173", "http://localhost:3000"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":"ok"}`)) //nolint:errcheck
	})

	// Auth routes (public)
	authHandler := handler.NewAuthHandler(queries, cfg.JWTSecret)
	authHandler.RegisterRoutes(r)

	// Services
	orderService := service.NewOrderService(pool, func(db database.DBTX) service.OrderStore {
		return database.New(db)
	})
	billService := service.NewBillService(queries, pool, func(db database.DBTX) service.BillStore {
		return database.New(db)
	})
	notificationService := service.NewNotificationService(queries)
	reportService := service.NewReportService(queries)

	// WebSocket routes (auth via query param, before the HTTP middleware)
	kitchen := handler.NewStationHandler(hub, orderService, cfg.JWTSecret, enum.GroupKitchenOrders,
		func(ctx context.Context) (any, error) {
			return orderService.StationSnapshot(ctx, queries, enum.LocationKitchen)
		})
	bar := handler.NewStationHandler(hub, orderService, cfg.JWTSecret, enum.GroupBarOrders,
		func(ctx context.Context) (any, error) {
			return orderService.StationSnapshot(ctx, queries, enum.LocationBar)
		})
	waiter := handler.NewWaiterHandler(hub, notificationService, cfg.JWTSecret,
		func(ctx context.Context) (any, error) {
			return notificationService.Snapshot(ctx)
		})
	handler.RegisterWSRoutes(r, kitchen, bar, waiter)

	// Protected routes
	r.Group(func(r chi.Router) {
		r.Use(mw.Authenticate(cfg.JWTSecret))

		handler.NewMenuHandler(queries).RegisterRoutes(r)
		handler.NewOrderHandler(orderService, queries, hub).RegisterRoutes(r)
		handler.NewBillHandler(billService, hub).RegisterRoutes(r)
		handler.NewWorkerHandler(queries).RegisterRoutes(r)
		handler.NewReportHandler(reportService).RegisterRoutes(r)
	})

	return r
}
