package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/jkoestner/folioflex/internal/api/handlers"
	custommiddleware "github.com/jkoestner/folioflex/internal/api/middleware"
	"github.com/jkoestner/folioflex/internal/config"
	"github.com/jkoestner/folioflex/internal/service"
)

// NewRouter creates and configures the HTTP router. The apiKey resolver
// guards the mutating routes; read-only reports are open.
func NewRouter(
	systemService *service.SystemService,
	portfolioService *service.PortfolioService,
	cfg *config.Config,
	apiKey func() string,
) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(custommiddleware.Logger)
	r.Use(middleware.Recoverer)

	// CORS middleware
	corsMiddleware := custommiddleware.NewCORS(cfg.CORS.AllowedOrigins)
	r.Use(corsMiddleware.Handler)

	// API routes
	r.Route("/api", func(r chi.Router) {
		// System namespace
		r.Route("/system", func(r chi.Router) {
			systemHandler := handlers.NewSystemHandler(systemService)
			r.Get("/health", systemHandler.Health)
			r.Get("/version", systemHandler.Version)
		})

		portfolioHandler := handlers.NewPortfolioHandler(portfolioService)
		r.Route("/portfolios", func(r chi.Router) {
			r.Get("/", portfolioHandler.Portfolios)
			r.Route("/{name}", func(r chi.Router) {
				r.Get("/performance", portfolioHandler.Performance)
				r.Get("/transactions", portfolioHandler.Transactions)
				r.Get("/history", portfolioHandler.History)
				r.Get("/view", portfolioHandler.View)
				r.Get("/returns", portfolioHandler.Returns)
				r.Get("/checks", portfolioHandler.Checks)
			})
		})

		managerHandler := handlers.NewManagerHandler(portfolioService)
		r.Route("/manager", func(r chi.Router) {
			r.Get("/summary", managerHandler.Summary)
			r.Get("/view", managerHandler.View)
			r.With(custommiddleware.APIKey(apiKey)).Post("/refresh", managerHandler.Refresh)
		})
	})

	return r
}
