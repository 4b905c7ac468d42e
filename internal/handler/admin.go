package handler

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-faster/sdk/zctx"
	"go.uber.org/zap"

	"github.com/xenking/dailymenu/internal/domain/catalog"
	"github.com/xenking/dailymenu/internal/domain/order"
)

// incomeWindow is the number of days reported by daily-income when no
// range is given.
const incomeWindow = 30

func parseDay(s string) (catalog.Day, error) {
	day, err := catalog.ParseDay(s)
	if err != nil {
		return "", badRequest("date must be YYYY-MM-DD, got %q", s)
	}
	return day, nil
}

func (h *Handler) addDailyFood(w http.ResponseWriter, r *http.Request) {
	var req addDailyFoodRequest
	if err := decode(w, r, &req); err != nil {
		fail(w, r, err)
		return
	}
	if strings.TrimSpace(req.FoodID) == "" {
		fail(w, r, badRequest("foodId is required"))
		return
	}
	if req.Quantity == nil {
		fail(w, r, badRequest("quantity is required"))
		return
	}
	add := catalog.AddRequest{FoodID: req.FoodID, Quantity: *req.Quantity}
	if req.Date != "" {
		day, err := parseDay(req.Date)
		if err != nil {
			fail(w, r, err)
			return
		}
		add.Day = day
	}

	item, err := h.catalog.Add(r.Context(), add)
	if err != nil {
		fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, h.toCatalogItem(*item))
}

func (h *Handler) removeDailyFood(w http.ResponseWriter, r *http.Request) {
	if err := h.catalog.Remove(r.Context(), chi.URLParam(r, "id")); err != nil {
		fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) listOrders(w http.ResponseWriter, r *http.Request) {
	f, err := orderFilter(r)
	if err != nil {
		fail(w, r, err)
		return
	}
	orders, err := h.orders.List(r.Context(), f)
	if err != nil {
		fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toOrders(orders))
}

func (h *Handler) placeManualOrder(w http.ResponseWriter, r *http.Request) {
	var req placeOrderRequest
	if err := decode(w, r, &req); err != nil {
		fail(w, r, err)
		return
	}
	res, err := h.orders.PlaceManual(r.Context(), req.toDomain(""))
	if err != nil {
		fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, toPlaceResponse(res))
}

func (h *Handler) setOrderStatus(w http.ResponseWriter, r *http.Request) {
	var req statusRequest
	if err := decode(w, r, &req); err != nil {
		fail(w, r, err)
		return
	}
	to, err := order.ParseStatus(req.Status)
	if err != nil {
		fail(w, r, err)
		return
	}
	o, err := h.orders.SetStatus(r.Context(), chi.URLParam(r, "id"), to, req.Force)
	if err != nil {
		fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toOrder(o))
}

func (h *Handler) deleteOrdersByDate(w http.ResponseWriter, r *http.Request) {
	date := r.URL.Query().Get("date")
	if date == "" && r.ContentLength != 0 {
		var req deleteByDateRequest
		if err := decode(w, r, &req); err != nil {
			fail(w, r, err)
			return
		}
		date = req.Date
	}
	if date == "" {
		fail(w, r, badRequest("date is required"))
		return
	}
	day, err := parseDay(date)
	if err != nil {
		fail(w, r, err)
		return
	}

	n, err := h.orders.DeleteByDate(r.Context(), day)
	if err != nil {
		fail(w, r, err)
		return
	}
	zctx.From(r.Context()).Info("Orders deleted",
		zap.String("day", day.String()),
		zap.Int64("count", n),
	)
	writeJSON(w, http.StatusOK, deleteByDateResponse{DeletedCount: n})
}

func (h *Handler) dailyIncome(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	to := h.catalog.Today()
	if s := q.Get("to"); s != "" {
		d, err := parseDay(s)
		if err != nil {
			fail(w, r, err)
			return
		}
		to = d
	}
	from := catalog.DayFromDate(to.Date().AddDate(0, 0, -(incomeWindow - 1)))
	if s := q.Get("from"); s != "" {
		d, err := parseDay(s)
		if err != nil {
			fail(w, r, err)
			return
		}
		from = d
	}

	rows, err := h.orders.DailyIncome(r.Context(), from, to)
	if err != nil {
		fail(w, r, err)
		return
	}
	out := make([]dailyIncomeResponse, len(rows))
	for i, row := range rows {
		out[i] = dailyIncomeResponse{
			Date:   row.Day.String(),
			Orders: row.Orders,
			Income: row.Income.InexactFloat64(),
		}
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *Handler) ordersByLocation(w http.ResponseWriter, r *http.Request) {
	day := h.catalog.Today()
	if s := r.URL.Query().Get("date"); s != "" {
		d, err := parseDay(s)
		if err != nil {
			fail(w, r, err)
			return
		}
		day = d
	}

	rows, err := h.orders.IncomeByLocation(r.Context(), day)
	if err != nil {
		fail(w, r, err)
		return
	}
	out := make([]locationSummaryResponse, len(rows))
	for i, row := range rows {
		out[i] = locationSummaryResponse{
			Location: row.Location,
			Orders:   row.Orders,
			Income:   row.Income.InexactFloat64(),
		}
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *Handler) runRollover(w http.ResponseWriter, r *http.Request) {
	n, err := h.rollover.RunOnce(r.Context())
	if err != nil {
		fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, rolloverResponse{Removed: n})
}
