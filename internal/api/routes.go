package api

import (
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"dividend-tracker/config"
)

// NewRouter builds the HTTP route tree.
func NewRouter(h *Handler, cfg *config.Config) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RealIP)
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(time.Duration(cfg.HTTP.TimeoutSeconds) * time.Second))
	r.Use(CORSMiddleware(strings.Split(cfg.HTTP.CORSAllowedOrigins, ",")))
	r.Use(MetricsMiddleware)

	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api", func(r chi.Router) {
		r.Get("/health", h.HandleHealth)
		r.Get("/quote/{symbol}", h.HandleGetQuote)
		r.Delete("/quote/{symbol}/cache", h.HandleInvalidateQuote)
		r.Get("/rates", h.HandleGetRates)
		r.Post("/analyze", h.HandleAnalyzeAdHoc)

		r.Post("/users/register", h.HandleRegister)
		r.Post("/users/login", h.HandleLogin)

		r.Route("/users/{userID}", func(r chi.Router) {
			r.Get("/portfolio", h.HandleGetPortfolio)
			r.Post("/portfolio", h.HandleAddHolding)
			r.Delete("/portfolio/{symbol}", h.HandleRemoveHolding)
			r.Get("/portfolio/analysis", h.HandleAnalyzePortfolio)

			r.Post("/dividends", h.HandleRecordDividend)
			r.Get("/dividends", h.HandleGetDividendHistory)
		})
	})

	return r
}
