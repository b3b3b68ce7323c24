/*
server.go - HTTP router and middleware configuration

PURPOSE:
  Configures the chi router, middleware stack, and route definitions.
  This is the wiring layer that connects URLs to handlers.

MIDDLEWARE STACK:
  1. RequestID:  Unique ID per request for tracing
  2. RealIP:     Client IP from proxy headers
  3. Recoverer:  Panic recovery (500 instead of crash)
  4. zapLogger:  Structured request logging
  5. CORS:       Cross-origin requests for the frontend

SEE ALSO:
  - handlers.go: Handler implementations
  - cmd/server/main.go: Server startup
*/
package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"
)

// NewRouter creates a new router with all routes configured.
func NewRouter(h *Handler) *chi.Mux {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(zapLogger(h.Log))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"http://localhost:5173", "http://localhost:8080"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
	}))

	// API routes
	r.Route("/api", func(r chi.Router) {
		// Ledger events
		r.Post("/purchases", h.CreatePurchase)
		r.Post("/sales", h.CreateSale)
		r.Post("/payments", h.CreatePayment)
		r.Get("/events", h.ListEvents)
		r.Delete("/events/{id}", h.DeleteEvent)

		// Reports
		r.Get("/summary", h.GetDailySummary)
		r.Get("/inventory", h.GetInventory)

		// Vendors
		r.Route("/vendors", func(r chi.Router) {
			r.Get("/", h.ListVendors)
			r.Post("/", h.SaveVendor)
			r.Get("/{id}", h.GetVendor)
			r.Delete("/{id}", h.DeleteVendor)
			r.Get("/{id}/balance", h.GetVendorBalance)
			r.Get("/{id}/statement", h.GetVendorStatement)
		})

		// Hotels
		r.Route("/hotels", func(r chi.Router) {
			r.Get("/", h.ListHotels)
			r.Post("/", h.SaveHotel)
			r.Get("/{id}", h.GetHotel)
			r.Delete("/{id}", h.DeleteHotel)
			r.Get("/{id}/suggestions", h.GetHotelSuggestions)
			r.Get("/{id}/bills", h.ListHotelBills)
		})

		// Products (catalog)
		r.Route("/products", func(r chi.Router) {
			r.Get("/", h.ListProducts)
			r.Post("/", h.SaveProduct)
			r.Get("/{id}", h.GetProduct)
			r.Delete("/{id}", h.DeleteProduct)
		})

		// Hotel bills
		r.Post("/bills/{billNumber}/paid", h.SetBillPaid)
	})

	return r
}

// zapLogger logs one structured line per request.
func zapLogger(log *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

			next.ServeHTTP(ww, r)

			log.Info("http request",
				zap.String("request_id", middleware.GetReqID(r.Context())),
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status", ww.Status()),
				zap.Int("bytes", ww.BytesWritten()),
				zap.Duration("latency", time.Since(start)),
				zap.String("ip", r.RemoteAddr),
			)
		})
	}
}
