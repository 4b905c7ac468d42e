package handler

import "net/http"

func (h *Handler) listFoods(w http.ResponseWriter, r *http.Request) {
	foods, err := h.foods.List(r.Context())
	if err != nil {
		fail(w, r, err)
		return
	}
	out := make([]foodResponse, len(foods))
	for i, f := range foods {
		out[i] = h.toFood(f)
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *Handler) listDailyFoods(w http.ResponseWriter, r *http.Request) {
	items, err := h.catalog.ListToday(r.Context())
	if err != nil {
		fail(w, r, err)
		return
	}
	out := make([]catalogItemResponse, len(items))
	for i, it := range items {
		out[i] = h.toCatalogItem(it)
	}
	writeJSON(w, http.StatusOK, out)
}
