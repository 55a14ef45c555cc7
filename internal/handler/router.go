package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	custommiddleware "github.com/mmeshcher/miner-system/internal/middleware"
)

// SetupRouter настраивает HTTP-маршруты и middleware майнинг-приложения.
func (h *Handler) SetupRouter() *chi.Mux {
	r := chi.NewRouter()

	r.Use(custommiddleware.GzipMiddleware)
	r.Use(custommiddleware.Logger(h.logger))

	r.Route("/api/user", func(r chi.Router) {
		r.Get("/state", h.GetState)

		r.Post("/session/start", h.StartSession)
		r.Post("/session/stop", h.StopSession)

		r.Post("/gift/claim", h.ClaimGift)

		r.Get("/tasks", h.GetTasks)
		r.Post("/tasks/{id}", h.CompleteTask)

		r.Post("/balance/withdraw", h.Withdraw)
		r.Get("/withdrawals", h.GetWithdrawals)
	})

	r.Route("/api/admin", func(r chi.Router) {
		r.Post("/login", h.AdminLogin)

		r.Group(func(r chi.Router) {
			r.Use(h.adminAuth.Middleware)

			r.Get("/settings", h.GetSettings)
			r.Put("/settings", h.UpdateSettings)

			r.Get("/withdrawals", h.GetWithdrawals)
			r.Post("/withdrawals/{id}", h.ResolveWithdrawal)
		})
	})

	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, http.StatusText(http.StatusNotFound), http.StatusNotFound)
	})

	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, http.StatusText(http.StatusMethodNotAllowed), http.StatusMethodNotAllowed)
	})

	return r
}
