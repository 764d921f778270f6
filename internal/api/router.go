package api

import (
	"net/http"
	"net/url"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"

	"github.com/ndewijer/Yield-Bank-Backend/internal/api/handlers"
	custommiddleware "github.com/ndewijer/Yield-Bank-Backend/internal/api/middleware"
	"github.com/ndewijer/Yield-Bank-Backend/internal/config"
	"github.com/ndewijer/Yield-Bank-Backend/internal/market"
	"github.com/ndewijer/Yield-Bank-Backend/internal/service"
)

// Services groups what the HTTP layer delegates to.
type Services struct {
	System    *service.SystemService
	Holding   *service.HoldingService
	Reconcile *service.ReconcileService
	Catalog   *service.CatalogService
	Resolver  service.QuoteResolver
	Cadence   market.Cadence
}

// NewRouter creates and configures the HTTP router
func NewRouter(svc Services, cfg *config.Config, log zerolog.Logger) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(custommiddleware.Logger(log))
	r.Use(middleware.Recoverer)

	// CORS middleware
	corsMiddleware := custommiddleware.NewCORS(cfg.CORS.AllowedOrigins)
	r.Use(corsMiddleware.Handler)

	auth := custommiddleware.NewAuth(cfg.Auth.JWTSecret, cfg.Auth.DefaultOwner)

	// API routes
	r.Route("/api", func(r chi.Router) {
		// System namespace
		r.Route("/system", func(r chi.Router) {
			systemHandler := handlers.NewSystemHandler(svc.System)
			r.Get("/health", systemHandler.Health)
			r.Get("/version", systemHandler.Version)
		})

		r.Route("/market", func(r chi.Router) {
			marketHandler := handlers.NewMarketHandler(svc.Cadence, nil)
			r.Get("/status", marketHandler.Status)
		})

		r.Route("/quote", func(r chi.Router) {
			quoteHandler := handlers.NewQuoteHandler(svc.Resolver)
			r.Get("/{symbol}", quoteHandler.Quote)
		})

		r.Route("/catalog", func(r chi.Router) {
			catalogHandler := handlers.NewCatalogHandler(svc.Catalog)
			r.Get("/search", catalogHandler.Search)
		})

		r.Route("/holding", func(r chi.Router) {
			r.Use(auth.Handler)

			holdingHandler := handlers.NewHoldingHandler(svc.Holding, svc.Reconcile)
			streamHandler := handlers.NewStreamHandler(svc.Reconcile, svc.Cadence, originPatterns(cfg.CORS.AllowedOrigins), log.With().Str("component", "stream").Logger())

			r.Get("/", holdingHandler.Holdings)
			r.Post("/", holdingHandler.CreateHolding)
			r.Get("/stream", streamHandler.Stream)

			r.Route("/{uuid}", func(r chi.Router) {
				r.Use(custommiddleware.ValidateUUIDParam("uuid"))
				r.Get("/", holdingHandler.Holding)
				r.Put("/", holdingHandler.UpdateHolding)
				r.Delete("/", holdingHandler.DeleteHolding)
				r.Post("/hidden", holdingHandler.ToggleHidden)
			})
		})
	})

	return r
}

// originPatterns turns CORS origins such as "http://localhost:3000" into the
// host patterns websocket.Accept matches against.
func originPatterns(origins []string) []string {
	patterns := make([]string, 0, len(origins))
	for _, o := range origins {
		if o == "*" {
			patterns = append(patterns, "*")
			continue
		}
		u, err := url.Parse(o)
		if err != nil || u.Host == "" {
			continue
		}
		patterns = append(patterns, u.Host)
	}
	return patterns
}
