package memory

import (
	"context"
	"slices"
	"sort"
	"strconv"
	"strings"
	"sync"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"

	"github.com/xenking/dailymenu/internal/domain/catalog"
	"github.com/xenking/dailymenu/internal/domain/order"
)

var _ order.Repository = (*OrderRepository)(nil)

// OrderRepository holds the order ledger.
type OrderRepository struct {
	mu       sync.RWMutex
	byID     map[string]*order.Order
	byNumber map[int64]string
}

// NewOrderRepository creates an empty OrderRepository.
func NewOrderRepository() *OrderRepository {
	return &OrderRepository{
		byID:     make(map[string]*order.Order),
		byNumber: make(map[int64]string),
	}
}

func clone(o *order.Order) *order.Order {
	cp := *o
	cp.Items = slices.Clone(o.Items)
	return &cp
}

func (r *OrderRepository) Create(_ context.Context, o *order.Order) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.byNumber[o.OrderNumber]; ok {
		return errors.Errorf("order number %d already exists", o.OrderNumber)
	}
	r.byID[o.ID] = clone(o)
	r.byNumber[o.OrderNumber] = o.ID
	return nil
}

func (r *OrderRepository) Get(_ context.Context, id string) (*order.Order, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	o, ok := r.byID[id]
	if !ok {
		return nil, order.ErrNotFound
	}
	return clone(o), nil
}

func (r *OrderRepository) GetByNumber(_ context.Context, number int64) (*order.Order, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	id, ok := r.byNumber[number]
	if !ok {
		return nil, order.ErrNotFound
	}
	return clone(r.byID[id]), nil
}

// collect returns matching orders, highest order number first.
func (r *OrderRepository) collect(keep func(*order.Order) bool) []order.Order {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]order.Order, 0)
	for _, o := range r.byID {
		if keep(o) {
			out = append(out, *clone(o))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].OrderNumber > out[j].OrderNumber })
	return out
}

func (r *OrderRepository) ListByCustomer(_ context.Context, customerID string) ([]order.Order, error) {
	return r.collect(func(o *order.Order) bool { return o.CustomerID == customerID }), nil
}

func (r *OrderRepository) List(_ context.Context, f order.Filter) ([]order.Order, error) {
	return r.collect(func(o *order.Order) bool {
		if f.Day != "" && o.Day != f.Day {
			return false
		}
		if f.Location != "" && !strings.EqualFold(o.Location, f.Location) {
			return false
		}
		if f.OrderNumberPrefix != "" && !strings.HasPrefix(strconv.FormatInt(o.OrderNumber, 10), f.OrderNumberPrefix) {
			return false
		}
		return true
	}), nil
}

func (r *OrderRepository) UpdateStatus(_ context.Context, id string, to order.Status, from []order.Status) (*order.Order, order.Status, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	o, ok := r.byID[id]
	if !ok {
		return nil, "", order.ErrNotFound
	}
	if len(from) > 0 && !slices.Contains(from, o.Status) {
		return nil, "", order.ErrStatusConflict
	}
	prev := o.Status
	o.Status = to
	return clone(o), prev, nil
}

func (r *OrderRepository) DeleteByDay(_ context.Context, day catalog.Day) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var n int64
	for id, o := range r.byID {
		if o.Day == day {
			delete(r.byNumber, o.OrderNumber)
			delete(r.byID, id)
			n++
		}
	}
	return n, nil
}

func (r *OrderRepository) DailyIncome(_ context.Context, from, to catalog.Day) ([]order.DailyIncome, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	byDay := make(map[catalog.Day]*order.DailyIncome)
	for _, o := range r.byID {
		if o.Status == order.StatusCancelled || o.Day.Before(from) || to.Before(o.Day) {
			continue
		}
		d, ok := byDay[o.Day]
		if !ok {
			d = &order.DailyIncome{Day: o.Day, Income: decimal.Zero}
			byDay[o.Day] = d
		}
		d.Orders++
		d.Income = d.Income.Add(o.Total)
	}

	out := make([]order.DailyIncome, 0, len(byDay))
	for _, d := range byDay {
		out = append(out, *d)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Day < out[j].Day })
	return out, nil
}

func (r *OrderRepository) IncomeByLocation(_ context.Context, day catalog.Day) ([]order.LocationSummary, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	byLoc := make(map[string]*order.LocationSummary)
	for _, o := range r.byID {
		if o.Status == order.StatusCancelled || o.Day != day {
			continue
		}
		s, ok := byLoc[o.Location]
		if !ok {
			s = &order.LocationSummary{Location: o.Location, Income: decimal.Zero}
			byLoc[o.Location] = s
		}
		s.Orders++
		s.Income = s.Income.Add(o.Total)
	}

	out := make([]order.LocationSummary, 0, len(byLoc))
	for _, s := range byLoc {
		out = append(out, *s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Location < out[j].Location })
	return out, nil
}
