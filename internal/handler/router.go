package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	custommiddleware "github.com/mmeshcher/keyshop/internal/middleware"
)

// SetupRouter настраивает HTTP-маршруты и middleware магазина.
func (h *Handler) SetupRouter() *chi.Mux {
	r := chi.NewRouter()

	r.Use(custommiddleware.Logger(h.logger))
	if h.metrics != nil {
		r.Use(h.metrics.Middleware)
	}

	r.Get("/healthz", h.Healthz)
	if h.metrics != nil {
		// promhttp сам сжимает ответ по Accept-Encoding.
		r.Method(http.MethodGet, "/metrics", h.metrics.Handler())
	}

	r.Route("/api", func(r chi.Router) {
		r.Use(custommiddleware.GzipMiddleware)
		r.Use(h.authMiddleware.Middleware)

		r.Post("/session", h.StartSession)
		r.Get("/balance", h.GetBalance)
		r.Get("/products", h.GetProducts)
		r.Post("/purchase", h.Purchase)
		r.Get("/orders", h.GetOrders)
		r.Get("/orders/{id}", h.GetOrder)
		r.Get("/keys", h.GetKeys)
		r.Post("/tickets", h.OpenTicket)

		r.Route("/admin", func(r chi.Router) {
			r.Use(h.authMiddleware.RequireAdmin)

			r.Put("/products/{id}", h.UpsertProduct)
			r.Post("/products/{id}/keys", h.Restock)

			r.Post("/users/{id}/credits", h.AddCredits)
			r.Put("/users/{id}/credits", h.SetCredits)
			r.Put("/users/{id}/discount", h.SetDiscount)
			r.Get("/users/{id}/orders", h.GetUserOrders)

			r.Get("/tickets/{channelID}", h.GetTicket)
			r.Delete("/tickets/{channelID}", h.CloseTicket)
			r.Get("/ticket-category", h.GetTicketCategory)
			r.Put("/ticket-category", h.SetTicketCategory)
		})
	})

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, http.StatusText(http.StatusNotFound), http.StatusNotFound)
	})

	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, http.StatusText(http.StatusMethodNotAllowed), http.StatusMethodNotAllowed)
	})

	return r
}
