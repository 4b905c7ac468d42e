package handler

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/xenking/dailymenu/internal/domain/auth"
	"github.com/xenking/dailymenu/internal/domain/order"
)

func customerOf(r *http.Request) (*auth.Customer, error) {
	c, ok := auth.CustomerFrom(r.Context())
	if !ok {
		return nil, auth.ErrUnauthorized
	}
	return c, nil
}

func (h *Handler) placeOrder(w http.ResponseWriter, r *http.Request) {
	c, err := customerOf(r)
	if err != nil {
		fail(w, r, err)
		return
	}
	var req placeOrderRequest
	if err := decode(w, r, &req); err != nil {
		fail(w, r, err)
		return
	}
	preq := req.toDomain(c.ID)
	if preq.CustomerName == "" {
		preq.CustomerName = c.Name
	}

	res, err := h.orders.Place(r.Context(), preq)
	if err != nil {
		fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, toPlaceResponse(res))
}

func (h *Handler) orderHistory(w http.ResponseWriter, r *http.Request) {
	c, err := customerOf(r)
	if err != nil {
		fail(w, r, err)
		return
	}
	orders, err := h.orders.History(r.Context(), c.ID)
	if err != nil {
		fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toOrders(orders))
}

func (h *Handler) getOrder(w http.ResponseWriter, r *http.Request) {
	c, err := customerOf(r)
	if err != nil {
		fail(w, r, err)
		return
	}
	n, err := strconv.ParseInt(chi.URLParam(r, "orderNumber"), 10, 64)
	if err != nil {
		fail(w, r, badRequest("order number must be an integer"))
		return
	}
	o, err := h.orders.Find(r.Context(), n, c.ID)
	if err != nil {
		fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toOrder(o))
}

// orderFilter reads the admin listing filters from the query string.
func orderFilter(r *http.Request) (order.Filter, error) {
	q := r.URL.Query()
	f := order.Filter{Location: q.Get("location")}
	if d := q.Get("date"); d != "" {
		day, err := parseDay(d)
		if err != nil {
			return order.Filter{}, err
		}
		f.Day = day
	}
	if p := q.Get("orderNumber"); p != "" {
		if _, err := strconv.ParseUint(p, 10, 64); err != nil {
			return order.Filter{}, badRequest("orderNumber must contain digits only")
		}
		f.OrderNumberPrefix = p
	}
	return f, nil
}
