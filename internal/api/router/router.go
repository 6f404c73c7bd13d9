package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	httpmiddleware "github.com/wolfman30/slotify/internal/http/middleware"
	"github.com/wolfman30/slotify/internal/stubapi"
	"github.com/wolfman30/slotify/pkg/logging"
)

// Config holds router configuration
type Config struct {
	Logger             *logging.Logger
	Handler            *stubapi.Handler
	OwnerJWTSecret     string
	MetricsHandler     http.Handler
	CORSAllowedOrigins []string

	// Per-IP rate limit; zero disables it.
	RateLimit float64
	RateBurst int
}

// New creates a Chi router serving the Slotify API routes.
func New(cfg *Config) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	if len(cfg.CORSAllowedOrigins) > 0 {
		r.Use(httpmiddleware.CORS(cfg.CORSAllowedOrigins))
	}
	if cfg.Logger != nil {
		r.Use(httpmiddleware.RequestLogger(cfg.Logger))
	}
	if cfg.RateLimit > 0 {
		r.Use(httpmiddleware.RateLimit(httpmiddleware.NewRateLimiter(cfg.RateLimit, cfg.RateBurst)))
	}

	h := cfg.Handler
	r.Get("/health", h.Health)
	if cfg.MetricsHandler != nil {
		r.Handle("/metrics", cfg.MetricsHandler)
	}

	// Public endpoints
	r.Group(func(public chi.Router) {
		public.Get("/api/Business/annymous", h.ListBusinesses)
		public.Get("/api/Business/Annoymous/{id}", h.GetBusiness)
		public.Get("/api/TimeSlot/available/{serviceId}", h.ListAvailableSlots)
		public.Post("/api/Customer", h.CreateCustomer)
	})

	// Business-owner endpoints
	r.Group(func(owner chi.Router) {
		owner.Use(httpmiddleware.OwnerJWT(cfg.OwnerJWTSecret))
		owner.Get("/api/Business/owner/{userId}", h.ListOwnerBusinesses)
		owner.Get("/api/TimeSlot/service/{serviceId}", h.ListServiceSlots)
		owner.Post("/api/TimeSlot", h.CreateSlot)
		owner.Delete("/api/TimeSlot/{id}", h.DeleteSlot)
		owner.Get("/api/Customer/business/{businessId}", h.ListCustomers)
	})

	return r
}
