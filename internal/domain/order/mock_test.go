package order

import (
	"context"
	"slices"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"

	"github.com/xenking/dailymenu/internal/domain/catalog"
)

// --- Mock implementations ---

type mockOrderRepo struct {
	mu          sync.Mutex
	byID        map[string]*Order
	createErr   error
	afterCreate func()
}

func newMockOrderRepo() *mockOrderRepo {
	return &mockOrderRepo{byID: make(map[string]*Order)}
}

func (m *mockOrderRepo) Create(_ context.Context, o *Order) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.createErr != nil {
		return m.createErr
	}
	cp := *o
	cp.Items = slices.Clone(o.Items)
	m.byID[o.ID] = &cp
	if m.afterCreate != nil {
		m.afterCreate()
	}
	return nil
}

func (m *mockOrderRepo) Get(_ context.Context, id string) (*Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	o, ok := m.byID[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *o
	return &cp, nil
}

func (m *mockOrderRepo) GetByNumber(_ context.Context, number int64) (*Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, o := range m.byID {
		if o.OrderNumber == number {
			cp := *o
			return &cp, nil
		}
	}
	return nil, ErrNotFound
}

func (m *mockOrderRepo) all(keep func(*Order) bool) []Order {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []Order
	for _, o := range m.byID {
		if keep(o) {
			out = append(out, *o)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].OrderNumber > out[j].OrderNumber })
	return out
}

func (m *mockOrderRepo) ListByCustomer(_ context.Context, customerID string) ([]Order, error) {
	return m.all(func(o *Order) bool { return o.CustomerID == customerID }), nil
}

func (m *mockOrderRepo) List(_ context.Context, f Filter) ([]Order, error) {
	return m.all(func(o *Order) bool {
		return (f.Day == "" || o.Day == f.Day) &&
			(f.Location == "" || o.Location == f.Location) &&
			(f.OrderNumberPrefix == "" || strings.HasPrefix(strconv.FormatInt(o.OrderNumber, 10), f.OrderNumberPrefix))
	}), nil
}

func (m *mockOrderRepo) UpdateStatus(_ context.Context, id string, to Status, from []Status) (*Order, Status, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	o, ok := m.byID[id]
	if !ok {
		return nil, "", ErrNotFound
	}
	if len(from) > 0 && !slices.Contains(from, o.Status) {
		return nil, "", ErrStatusConflict
	}
	prev := o.Status
	o.Status = to
	cp := *o
	return &cp, prev, nil
}

func (m *mockOrderRepo) DeleteByDay(_ context.Context, day catalog.Day) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var n int64
	for id, o := range m.byID {
		if o.Day == day {
			delete(m.byID, id)
			n++
		}
	}
	return n, nil
}

func (m *mockOrderRepo) DailyIncome(context.Context, catalog.Day, catalog.Day) ([]DailyIncome, error) {
	return nil, nil
}

func (m *mockOrderRepo) IncomeByLocation(context.Context, catalog.Day) ([]LocationSummary, error) {
	return nil, nil
}

func (m *mockOrderRepo) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.byID)
}

type mockCounter struct {
	mu    sync.Mutex
	seq   map[string]int64
	calls int
	err   error
}

func (m *mockCounter) Increment(_ context.Context, name string, base int64) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	if m.err != nil {
		return 0, m.err
	}
	if m.seq == nil {
		m.seq = make(map[string]int64)
	}
	if _, ok := m.seq[name]; !ok {
		m.seq[name] = base
	}
	m.seq[name]++
	return m.seq[name], nil
}

type mockCatalog struct {
	mu    sync.Mutex
	today catalog.Day
	items map[string]*catalog.Item
}

func newMockCatalog(today catalog.Day, items ...catalog.Item) *mockCatalog {
	m := &mockCatalog{today: today, items: make(map[string]*catalog.Item)}
	for i := range items {
		m.items[items[i].ID] = &items[i]
	}
	return m
}

func (m *mockCatalog) Today() catalog.Day { return m.today }

func (m *mockCatalog) Get(_ context.Context, id string) (*catalog.Item, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	it, ok := m.items[id]
	if !ok {
		return nil, catalog.ErrNotFound
	}
	cp := *it
	return &cp, nil
}

func (m *mockCatalog) DecrementStock(ctx context.Context, id string, amount int) error {
	if err := ctx.Err(); err != nil {
		return errors.Wrap(err, "query")
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	it, ok := m.items[id]
	if !ok {
		return catalog.ErrNotFound
	}
	if it.QuantityRemaining < amount {
		return &catalog.InsufficientStockError{ItemID: id, Requested: amount}
	}
	it.QuantityRemaining -= amount
	return nil
}

func (m *mockCatalog) RestoreStock(ctx context.Context, id string, amount int) error {
	if err := ctx.Err(); err != nil {
		return errors.Wrap(err, "query")
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	it, ok := m.items[id]
	if !ok {
		return catalog.ErrNotFound
	}
	it.QuantityRemaining += amount
	return nil
}

func (m *mockCatalog) remaining(id string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.items[id].QuantityRemaining
}

func (m *mockCatalog) setPrice(id string, price decimal.Decimal) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.items[id].Price = price
	m.items[id].Name += " (new)"
}

func (m *mockCatalog) remove(id string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.items, id)
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []Event
	err    error
}

func (p *recordingPublisher) Publish(ctx context.Context, e Event) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, e)
	return p.err
}

func (p *recordingPublisher) types() []EventType {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]EventType, len(p.events))
	for i, e := range p.events {
		out[i] = e.Type
	}
	return out
}

// --- Helpers ---

const testDay catalog.Day = "2025-06-15"

var errStoreDown = errors.New("store down")

func testItem(id, name, price string, qty int, day catalog.Day) catalog.Item {
	return catalog.Item{
		ID:                id,
		FoodID:            "food-" + id,
		Name:              name,
		Price:             decimal.RequireFromString(price),
		QuantityRemaining: qty,
		Day:               day,
		CreatedAt:         time.Date(2025, 6, 15, 8, 0, 0, 0, time.UTC),
	}
}
