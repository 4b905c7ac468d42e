package memory

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xenking/dailymenu/internal/domain/catalog"
	"github.com/xenking/dailymenu/internal/domain/food"
	"github.com/xenking/dailymenu/internal/domain/order"
	"github.com/xenking/dailymenu/internal/domain/sequence"
)

// --- Helpers ---

func newItem(id string, qty int, day catalog.Day, created time.Time) *catalog.Item {
	return &catalog.Item{
		ID:                id,
		Name:              "Item " + id,
		Price:             decimal.RequireFromString("100"),
		QuantityRemaining: qty,
		Day:               day,
		CreatedAt:         created,
	}
}

func newOrder(id string, number int64, day catalog.Day, location, total string, status order.Status) *order.Order {
	return &order.Order{
		ID:          id,
		OrderNumber: number,
		Items:       []order.LineItem{{CatalogItemID: "x", Name: "X", UnitPrice: decimal.RequireFromString(total), Quantity: 1}},
		Total:       decimal.RequireFromString(total),
		CustomerID:  "cust-1",
		Location:    location,
		Status:      status,
		Day:         day,
	}
}

// --- Tests ---

func TestSequenceStore_ConcurrentUnique(t *testing.T) {
	gen := sequence.NewGenerator(NewSequenceStore(), sequence.OrderNumber, sequence.DefaultBase)

	const n = 500
	var (
		wg   sync.WaitGroup
		mu   sync.Mutex
		seen = make(map[int64]struct{}, n)
	)
	for range n {
		wg.Add(1)
		go func() {
			defer wg.Done()
			v, err := gen.Next(context.Background())
			assert.NoError(t, err)
			mu.Lock()
			seen[v] = struct{}{}
			mu.Unlock()
		}()
	}
	wg.Wait()

	require.Len(t, seen, n)
	for v := int64(1001); v <= 1000+n; v++ {
		assert.Contains(t, seen, v)
	}
}

func TestSequenceStore_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewSequenceStore().Increment(ctx, "x", 0)
	require.ErrorIs(t, err, context.Canceled)
}

func TestCatalog_ConcurrentDecrementNeverNegative(t *testing.T) {
	ctx := context.Background()
	repo := NewCatalogRepository()
	require.NoError(t, repo.Create(ctx, newItem("rc", 50, "2025-06-15", time.Now())))

	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		succeeded int
	)
	for i := range 100 {
		amount := i%3 + 1
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := repo.DecrementStock(ctx, "rc", amount)
			if err == nil {
				mu.Lock()
				succeeded += amount
				mu.Unlock()
				return
			}
			assert.ErrorIs(t, err, catalog.ErrInsufficientStock)
		}()
	}
	wg.Wait()

	item, err := repo.Get(ctx, "rc")
	require.NoError(t, err)
	assert.GreaterOrEqual(t, item.QuantityRemaining, 0)
	assert.Equal(t, 50-succeeded, item.QuantityRemaining)
}

func TestCatalog_DecrementUnknown(t *testing.T) {
	_, err := NewCatalogRepository().DecrementStock(context.Background(), "nope", 1)
	require.ErrorIs(t, err, catalog.ErrNotFound)
}

func TestCatalog_ListByDayNewestFirst(t *testing.T) {
	ctx := context.Background()
	repo := NewCatalogRepository()
	base := time.Date(2025, 6, 15, 8, 0, 0, 0, time.UTC)

	require.NoError(t, repo.Create(ctx, newItem("a", 1, "2025-06-15", base)))
	require.NoError(t, repo.Create(ctx, newItem("b", 1, "2025-06-15", base.Add(time.Minute))))
	require.NoError(t, repo.Create(ctx, newItem("c", 1, "2025-06-14", base.Add(-time.Hour))))

	items, err := repo.ListByDay(ctx, "2025-06-15")
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, "b", items[0].ID)
	assert.Equal(t, "a", items[1].ID)
}

// Scenario C, run through the catalog service.
func TestCatalog_RolloverKeepsToday(t *testing.T) {
	ctx := context.Background()
	foods := NewFoodRepository()
	items := NewCatalogRepository()
	svc := catalog.NewService(items, foods, time.UTC)

	today := svc.Today()
	yesterday := catalog.DayOf(today.Date().AddDate(0, 0, -1), time.UTC)

	require.NoError(t, items.Create(ctx, newItem("old", 3, yesterday, time.Now().Add(-24*time.Hour))))
	require.NoError(t, items.Create(ctx, newItem("new", 3, today, time.Now())))

	list, err := svc.ListToday(ctx)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "new", list[0].ID)

	n, err := svc.PurgeBefore(ctx, today)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	n, err = svc.PurgeBefore(ctx, today)
	require.NoError(t, err)
	assert.Zero(t, n)

	_, err = items.Get(ctx, "old")
	require.ErrorIs(t, err, catalog.ErrNotFound)

	after, err := svc.ListToday(ctx)
	require.NoError(t, err)
	assert.Equal(t, list, after)
}

func TestFood_ListSorted(t *testing.T) {
	ctx := context.Background()
	repo := NewFoodRepository()
	require.NoError(t, repo.Upsert(ctx, food.Food{ID: "2", Name: "Kottu", Category: "Mains"}))
	require.NoError(t, repo.Upsert(ctx, food.Food{ID: "1", Name: "Faluda", Category: "Drinks"}))
	require.NoError(t, repo.Upsert(ctx, food.Food{ID: "3", Name: "Biryani", Category: "Mains"}))

	list, err := repo.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 3)
	assert.Equal(t, []string{"1", "3", "2"}, []string{list[0].ID, list[1].ID, list[2].ID})

	_, err = repo.GetByID(ctx, "9")
	require.ErrorIs(t, err, food.ErrNotFound)
}

func TestOrders_ListFilters(t *testing.T) {
	ctx := context.Background()
	repo := NewOrderRepository()
	require.NoError(t, repo.Create(ctx, newOrder("a", 1001, "2025-06-14", "Main Hall", "100", order.StatusPending)))
	require.NoError(t, repo.Create(ctx, newOrder("b", 1002, "2025-06-15", "Main Hall", "200", order.StatusPending)))
	require.NoError(t, repo.Create(ctx, newOrder("c", 1013, "2025-06-15", "Library", "300", order.StatusPending)))

	all, err := repo.List(ctx, order.Filter{})
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, int64(1013), all[0].OrderNumber)

	got, err := repo.List(ctx, order.Filter{Day: "2025-06-15", Location: "main hall"})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "b", got[0].ID)

	got, err = repo.List(ctx, order.Filter{OrderNumberPrefix: "101"})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "c", got[0].ID)

	require.Error(t, repo.Create(ctx, newOrder("d", 1001, "2025-06-15", "X", "1", order.StatusPending)))
}

func TestOrders_UpdateStatusPreconditions(t *testing.T) {
	ctx := context.Background()
	repo := NewOrderRepository()
	require.NoError(t, repo.Create(ctx, newOrder("a", 1001, "2025-06-15", "Hall", "100", order.StatusPending)))

	o, prev, err := repo.UpdateStatus(ctx, "a", order.StatusConfirm, nil)
	require.NoError(t, err)
	assert.Equal(t, order.StatusPending, prev)
	assert.Equal(t, order.StatusConfirm, o.Status)

	_, _, err = repo.UpdateStatus(ctx, "a", order.StatusPending, []order.Status{order.StatusPending})
	require.ErrorIs(t, err, order.ErrStatusConflict)

	_, _, err = repo.UpdateStatus(ctx, "missing", order.StatusPending, nil)
	require.ErrorIs(t, err, order.ErrNotFound)
}

func TestOrders_StoredCopyIsIsolated(t *testing.T) {
	ctx := context.Background()
	repo := NewOrderRepository()
	o := newOrder("a", 1001, "2025-06-15", "Hall", "100", order.StatusPending)
	require.NoError(t, repo.Create(ctx, o))

	o.Items[0].Name = "changed"
	got, err := repo.Get(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, "X", got.Items[0].Name)
}

func TestOrders_Reports(t *testing.T) {
	ctx := context.Background()
	repo := NewOrderRepository()
	require.NoError(t, repo.Create(ctx, newOrder("a", 1001, "2025-06-14", "Hall", "100", order.StatusDelivered)))
	require.NoError(t, repo.Create(ctx, newOrder("b", 1002, "2025-06-15", "Hall", "200", order.StatusPending)))
	require.NoError(t, repo.Create(ctx, newOrder("c", 1003, "2025-06-15", "Library", "300.50", order.StatusConfirm)))
	require.NoError(t, repo.Create(ctx, newOrder("d", 1004, "2025-06-15", "Hall", "999", order.StatusCancelled)))
	require.NoError(t, repo.Create(ctx, newOrder("e", 1005, "2025-06-16", "Hall", "50", order.StatusPending)))

	daily, err := repo.DailyIncome(ctx, "2025-06-14", "2025-06-15")
	require.NoError(t, err)
	require.Len(t, daily, 2)
	assert.Equal(t, catalog.Day("2025-06-14"), daily[0].Day)
	assert.Equal(t, 1, daily[0].Orders)
	assert.Equal(t, 2, daily[1].Orders)
	assert.True(t, decimal.RequireFromString("500.50").Equal(daily[1].Income))

	byLoc, err := repo.IncomeByLocation(ctx, "2025-06-15")
	require.NoError(t, err)
	require.Len(t, byLoc, 2)
	assert.Equal(t, "Hall", byLoc[0].Location)
	assert.True(t, decimal.RequireFromString("200").Equal(byLoc[0].Income))
	assert.Equal(t, "Library", byLoc[1].Location)

	n, err := repo.DeleteByDay(ctx, "2025-06-15")
	require.NoError(t, err)
	assert.Equal(t, int64(3), n)
	_, err = repo.GetByNumber(ctx, 1002)
	require.ErrorIs(t, err, order.ErrNotFound)
}
