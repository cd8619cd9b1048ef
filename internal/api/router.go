package api

import (
	"enrollment-api/internal/api/handler"
	mw "enrollment-api/internal/api/middleware"
	"enrollment-api/internal/config"
	"enrollment-api/internal/domain/customer"
	"enrollment-api/internal/domain/mfa"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/traceid"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// SetupRouter wires every route. A nil limiter falls back to the in-process
// token bucket.
func SetupRouter(customerService customer.CustomerService, mfaService mfa.Service, limiter *mw.RateLimiterMiddleware, cfg *config.Config, logger *slog.Logger) *chi.Mux {
	router := chi.NewRouter()

	if limiter == nil {
		limiter = mw.NewRateLimiterMiddleware(cfg.Server.RateLimit, logger)
	}

	setupMiddleware(router, limiter, cfg.Server.TrustProxyHeaders, logger)
	setupMetricsEndpoint(router, cfg, logger)
	router.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"ok"}`))
	})
	setupAuthRoutes(router, cfg, logger)

	router.Route("/api", func(r chi.Router) {
		r.Use(mw.AuthMiddleware(cfg.Server.Auth, logger))
		setupCustomerRoutes(r, customerService, logger)
		setupMFARoutes(r, mfaService, logger)
	})

	return router
}

func setupMiddleware(router *chi.Mux, limiter *mw.RateLimiterMiddleware, trustProxyHeaders bool, logger *slog.Logger) {
	router.Use(middleware.RequestID)
	if trustProxyHeaders {
		router.Use(middleware.RealIP)
	}
	router.Use(traceid.Middleware)
	router.Use(mw.StructuredLogger(logger))
	router.Use(middleware.Recoverer)
	router.Use(middleware.Compress(5))
	router.Use(middleware.Timeout(60 * time.Second))
	router.Use(limiter.Middleware)
	router.Use(mw.MetricsMiddleware())
}

func setupMetricsEndpoint(router *chi.Mux, cfg *config.Config, logger *slog.Logger) {
	metricsPath := cfg.Metrics.Path
	if metricsPath == "" {
		metricsPath = "/metrics"
	}
	logger.Info("Setting up Prometheus metrics endpoint", "path", metricsPath)
	router.Handle(metricsPath, promhttp.Handler())
}

func setupAuthRoutes(router *chi.Mux, cfg *config.Config, logger *slog.Logger) {
	authHandler := handler.NewAuthHandler(cfg.Server.Auth, logger)
	router.Route("/auth", func(r chi.Router) {
		r.Post("/token", authHandler.GenerateBearerToken)
	})
}

func setupCustomerRoutes(r chi.Router, svc customer.CustomerService, logger *slog.Logger) {
	h := handler.NewCustomerHandler(svc, logger)

	r.Route("/customers", func(r chi.Router) {
		r.Post("/", h.CreateCustomer)
		r.Get("/locate", h.LocateCustomer)
		r.Get("/stats", h.EnrollmentStats)
		r.Get("/{customerID}", h.GetCustomer)
	})
}

func setupMFARoutes(r chi.Router, svc mfa.Service, logger *slog.Logger) {
	h := handler.NewMFAHandler(svc, logger)

	r.Route("/mfa", func(r chi.Router) {
		r.Post("/setup/{customerID}", h.Setup)
		r.Post("/verify", h.Verify)
		r.Post("/enable", h.Enable)
		r.Post("/disable", h.Disable)
		r.Get("/status/{customerID}", h.Status)
		r.Post("/qrcode", h.QRCode)
		r.Post("/backup-codes/redeem", h.RedeemBackupCode)
	})
}
