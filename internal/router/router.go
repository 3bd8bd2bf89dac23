package router

import (
	"net/http"

	"github.com/canteenconnect/api/internal/config"
	"github.com/canteenconnect/api/internal/enum"
	"github.com/canteenconnect/api/internal/handler"
	mw "github.com/canteenconnect/api/internal/middleware"
	"github.com/canteenconnect/api/internal/service"
	"github.com/canteenconnect/api/internal/ws"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"
)

// Deps are the long-lived components the routes are served by.
type Deps struct {
	Lifecycle *service.OrderLifecycle
	Menu      handler.MenuStore
	Hub       *ws.Hub
	Logger    *zap.SugaredLogger
}

// New creates a Chi router with all application routes wired up.
// Applies authentication and role-based middleware as needed.
func New(cfg *config.Config, d Deps) chi.Router {
	if d.Logger == nil {
		d.Logger = zap.NewNop().Sugar()
	}
	r := chi.NewRouter()

	// Standard middleware
	r.Use(middleware.RequestID)
	r.Use(mw.RequestLogger(d.Logger))
	r.Use(middleware.Recoverer)

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.CORSOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: true,
		MaxAge:           300, // 5 minutes
	}))

	// Public routes
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":"ok","version":"1.0.0"}`))
	})

	// WebSocket route (handles auth internally via query param)
	r.Get("/ws/orders", func(w http.ResponseWriter, r *http.Request) {
		ws.ServeWS(d.Hub, cfg.JWTSecret, w, r)
	})

	menuHandler := handler.NewMenuHandler(d.Menu, d.Logger)
	orderHandler := handler.NewOrderHandler(d.Lifecycle, d.Logger)
	pickupHandler := handler.NewPickupHandler(d.Lifecycle, d.Logger)
	analyticsHandler := handler.NewAnalyticsHandler(d.Lifecycle, cfg.Location(), d.Logger)

	// Protected routes (require authentication)
	r.Group(func(r chi.Router) {
		r.Use(mw.Authenticate(cfg.JWTSecret))

		r.Route("/menu", func(r chi.Router) {
			menuHandler.RegisterRoutes(r)
			r.Group(func(r chi.Router) {
				r.Use(mw.RequireRole(enum.UserRoleOperator))
				menuHandler.RegisterAdminRoutes(r)
			})
		})

		// Per-order access is checked inside the handlers.
		r.Route("/orders", orderHandler.RegisterRoutes)

		// Operator-only routes
		r.Group(func(r chi.Router) {
			r.Use(mw.RequireRole(enum.UserRoleOperator))
			r.Route("/pickup", pickupHandler.RegisterRoutes)
			r.Route("/analytics", analyticsHandler.RegisterRoutes)
		})
	})

	d.Logger.Debug("router initialized")
	return r
}
