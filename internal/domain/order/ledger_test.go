package order

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xenking/dailymenu/internal/domain/sequence"
)

func testDraft(customerID string) Draft {
	return Draft{
		Items: []LineItem{{
			CatalogItemID: "rc",
			Name:          "Rice & Curry",
			UnitPrice:     decimal.RequireFromString("350.00"),
			Quantity:      2,
		}},
		Total:        decimal.RequireFromString("700.00"),
		CustomerID:   customerID,
		CustomerName: "Nimal",
		Phone:        "0771234567",
		Location:     "Main Hall",
		Day:          testDay,
	}
}

func TestLedger_Create(t *testing.T) {
	ctx := context.Background()
	repo := newMockOrderRepo()
	counter := &mockCounter{}
	l := NewLedger(repo, sequence.NewGenerator(counter, sequence.OrderNumber, sequence.DefaultBase))

	o, err := l.Create(ctx, testDraft("cust-1"))
	require.NoError(t, err)
	assert.Equal(t, int64(1001), o.OrderNumber)
	assert.Equal(t, StatusPending, o.Status)
	assert.NotEmpty(t, o.ID)

	got, err := l.FindByOrderNumber(ctx, 1001, "")
	require.NoError(t, err)
	assert.Equal(t, o.ID, got.ID)
}

func TestLedger_CreateEmptyAllocatesNothing(t *testing.T) {
	repo := newMockOrderRepo()
	counter := &mockCounter{}
	l := NewLedger(repo, sequence.NewGenerator(counter, sequence.OrderNumber, sequence.DefaultBase))

	_, err := l.Create(context.Background(), Draft{})
	require.ErrorIs(t, err, ErrValidation)
	assert.Zero(t, counter.calls)
	assert.Zero(t, repo.count())
}

func TestLedger_CreateAllocationFailure(t *testing.T) {
	repo := newMockOrderRepo()
	counter := &mockCounter{err: errStoreDown}
	l := NewLedger(repo, sequence.NewGenerator(counter, sequence.OrderNumber, sequence.DefaultBase))

	_, err := l.Create(context.Background(), testDraft("cust-1"))
	require.ErrorIs(t, err, sequence.ErrAllocation)
	assert.Zero(t, repo.count())
}

func TestLedger_CreatePersistFailure(t *testing.T) {
	repo := newMockOrderRepo()
	repo.createErr = errStoreDown
	l := NewLedger(repo, sequence.NewGenerator(&mockCounter{}, sequence.OrderNumber, sequence.DefaultBase))

	_, err := l.Create(context.Background(), testDraft("cust-1"))
	require.ErrorIs(t, err, errStoreDown)
	assert.Contains(t, err.Error(), "persist order 1001")
}

func TestLedger_FindByOrderNumberScopesCustomer(t *testing.T) {
	ctx := context.Background()
	l := NewLedger(newMockOrderRepo(), sequence.NewGenerator(&mockCounter{}, sequence.OrderNumber, sequence.DefaultBase))

	o, err := l.Create(ctx, testDraft("cust-1"))
	require.NoError(t, err)

	_, err = l.FindByOrderNumber(ctx, o.OrderNumber, "cust-1")
	require.NoError(t, err)

	_, err = l.FindByOrderNumber(ctx, o.OrderNumber, "cust-2")
	require.ErrorIs(t, err, ErrNotFound)

	_, err = l.FindByOrderNumber(ctx, 9999, "")
	require.ErrorIs(t, err, ErrNotFound)
}

func TestLedger_FindByCustomerNewestFirst(t *testing.T) {
	ctx := context.Background()
	l := NewLedger(newMockOrderRepo(), sequence.NewGenerator(&mockCounter{}, sequence.OrderNumber, sequence.DefaultBase))

	for range 3 {
		_, err := l.Create(ctx, testDraft("cust-1"))
		require.NoError(t, err)
	}
	_, err := l.Create(ctx, testDraft("cust-2"))
	require.NoError(t, err)

	orders, err := l.FindByCustomer(ctx, "cust-1")
	require.NoError(t, err)
	require.Len(t, orders, 3)
	assert.Equal(t, int64(1003), orders[0].OrderNumber)
	assert.Equal(t, int64(1001), orders[2].OrderNumber)
}

func TestLedger_DailyIncomeRejectsInvertedRange(t *testing.T) {
	l := NewLedger(newMockOrderRepo(), nil)
	_, err := l.DailyIncome(context.Background(), "2025-06-15", "2025-06-14")
	require.ErrorIs(t, err, ErrValidation)
}
