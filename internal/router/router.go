package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"dscatalog/internal/config"
	"dscatalog/internal/handler"
	"dscatalog/internal/metrics"
	"dscatalog/internal/middleware"
)

// New builds the public API. Authorization is decided by the auth
// middleware's access policy for every request, so routes carry no
// per-route guards.
func New(
	cfg *config.Config,
	m *metrics.Metrics,
	rateLimitMiddleware *middleware.RateLimitMiddleware,
	authMiddleware *middleware.AuthMiddleware,
	tokenHandler *handler.TokenHandler,
	productHandler *handler.ProductHandler,
	categoryHandler *handler.CategoryHandler,
	userHandler *handler.UserHandler,
) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.Recovery)
	r.Use(middleware.Logging)
	r.Use(middleware.Metrics(m))
	r.Use(middleware.CORS(cfg.CORSOrigins))
	r.Use(middleware.SecurityHeaders)
	r.Use(rateLimitMiddleware.Handler)
	r.Use(authMiddleware.Authenticate)
	r.Use(middleware.Timeout(cfg.RequestTimeout))

	r.Post("/oauth/token", tokenHandler.Token)

	r.Route("/products", func(products chi.Router) {
		products.Get("/", productHandler.List)
		products.Post("/", productHandler.Create)
		products.Get("/{id}", productHandler.Get)
		products.Put("/{id}", productHandler.Update)
		products.Delete("/{id}", productHandler.Delete)
	})

	r.Route("/categories", func(categories chi.Router) {
		categories.Get("/", categoryHandler.List)
		categories.Post("/", categoryHandler.Create)
		categories.Get("/{id}", categoryHandler.Get)
		categories.Put("/{id}", categoryHandler.Update)
		categories.Delete("/{id}", categoryHandler.Delete)
	})

	r.Route("/users", func(users chi.Router) {
		users.Get("/", userHandler.List)
		users.Post("/", userHandler.Create)
		users.Get("/{id}", userHandler.Get)
		users.Put("/{id}", userHandler.Update)
		users.Delete("/{id}", userHandler.Delete)
	})

	return r
}
