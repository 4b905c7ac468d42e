// Package handler exposes the daily menu and order operations over HTTP.
package handler

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/xenking/dailymenu/internal/domain/catalog"
	"github.com/xenking/dailymenu/internal/domain/food"
	"github.com/xenking/dailymenu/internal/domain/order"
)

// Rollover runs the catalog purge on demand.
type Rollover interface {
	RunOnce(ctx context.Context) (int64, error)
}

// Config holds non-dependency configuration for the Handler.
type Config struct {
	// ImageBaseURL is prepended to relative image paths in responses.
	// When empty, image paths are returned as stored.
	ImageBaseURL string
}

// Handler serves the /api routes.
type Handler struct {
	foods        food.Repository
	catalog      *catalog.Service
	orders       *order.Service
	rollover     Rollover
	imageBaseURL string
}

// New constructs a Handler with the required domain dependencies.
func New(
	cfg Config,
	foods food.Repository,
	cat *catalog.Service,
	orders *order.Service,
	rollover Rollover,
) *Handler {
	return &Handler{
		foods:        foods,
		catalog:      cat,
		orders:       orders,
		rollover:     rollover,
		imageBaseURL: cfg.ImageBaseURL,
	}
}

// Routes returns the API router. Mount it under /api.
func (h *Handler) Routes(sec *Security) http.Handler {
	r := chi.NewRouter()
	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusNotFound, "route not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	})

	r.Get("/foods", h.listFoods)
	r.Get("/foods/daily", h.listDailyFoods)

	r.Group(func(r chi.Router) {
		r.Use(sec.Customer)
		r.Post("/orders/place", h.placeOrder)
		r.Get("/orders/history", h.orderHistory)
		r.Get("/orders/{orderNumber}", h.getOrder)
	})

	r.Route("/admin", func(r chi.Router) {
		r.Use(sec.Admin)
		r.Post("/foods/daily", h.addDailyFood)
		r.Delete("/foods/daily/{id}", h.removeDailyFood)
		r.Get("/orders", h.listOrders)
		r.Post("/orders", h.placeManualOrder)
		r.Put("/orders/{id}/status", h.setOrderStatus)
		r.Delete("/orders/delete-by-date", h.deleteOrdersByDate)
		r.Get("/daily-income", h.dailyIncome)
		r.Get("/orders-by-location", h.ordersByLocation)
		r.Post("/rollover", h.runRollover)
	})

	return r
}
