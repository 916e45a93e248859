package router

import (
	"log"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/resta-pos/api/internal/catalog"
	"github.com/resta-pos/api/internal/config"
	"github.com/resta-pos/api/internal/directory"
	"github.com/resta-pos/api/internal/events"
	"github.com/resta-pos/api/internal/handler"
	mw "github.com/resta-pos/api/internal/middleware"
	"github.com/resta-pos/api/internal/order"
	"github.com/resta-pos/api/internal/quote"
	"github.com/resta-pos/api/internal/store"
	"github.com/resta-pos/api/internal/ws"
)

// New creates a Chi router with all application routes wired up.
// The quote endpoint is public (it serves the online-ordering frontend);
// order mutations require an authenticated employee.
func New(cfg *config.Config, pool *pgxpool.Pool, hub *ws.Hub, pub events.Publisher) chi.Router {
	r := chi.NewRouter()

	// Standard middleware
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	// CORS configuration
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"http://localhost:5173", "https://order.resta-pos.example", "https://admin.resta-pos.example"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: true,
		MaxAge:           300, // 5 minutes
	}))

	queries := store.New(pool)

	// Public routes
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":"ok","version":"1.0.0"}`))
	})

	authHandler := handler.NewAuthHandler(queries, cfg.JWTSecret)
	authHandler.RegisterRoutes(r)

	quoteHandler := handler.NewQuoteHandler(quote.NewEngine(catalog.NewPGProvider(pool)))
	quoteHandler.RegisterRoutes(r)

	// WebSocket route (handles auth internally via query param)
	r.Get("/ws/orders", func(w http.ResponseWriter, r *http.Request) {
		ws.ServeWS(hub, cfg.JWTSecret, w, r)
	})

	// Protected routes (require authentication)
	r.Group(func(r chi.Router) {
		r.Use(mw.Authenticate(cfg.JWTSecret))

		statusService := order.NewStatusService(queries)
		assignmentService := order.NewAssignmentService(
			pool,
			func(tx pgx.Tx) order.Store { return store.New(tx) },
			func(tx pgx.Tx) directory.Directory { return store.New(tx) },
		)
		orderHandler := handler.NewOrderHandler(queries, statusService, assignmentService, hub, pub)
		r.Route("/orders", orderHandler.RegisterRoutes)
	})

	log.Println("Router initialized with all handlers")
	return r
}
