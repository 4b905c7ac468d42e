package order

import (
	"context"
	"fmt"
	"time"

	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/zctx"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/xenking/dailymenu/internal/domain/catalog"
)

// StockPolicy selects how placement reflects a purchase against inventory.
type StockPolicy string

const (
	// StockBestEffort persists the order first and then decrements each line
	// independently. Failed decrements become warnings and are never rolled
	// back.
	StockBestEffort StockPolicy = "best_effort"
	// StockReserve decrements every line before the order number is
	// allocated. Any failure releases the lines already reserved and rejects
	// the whole order, so an oversold cart is refused instead of accepted
	// with a warning.
	StockReserve StockPolicy = "reserve"
)

// MaxLineQuantity is the largest quantity accepted for one cart line.
const MaxLineQuantity = 1000

// DefaultTotalTolerance is the largest accepted difference between a
// submitted total and the computed one.
var DefaultTotalTolerance = decimal.New(1, -2)

// Config tunes the placement service.
type Config struct {
	StockPolicy    StockPolicy
	StrictStatus   bool
	TotalTolerance decimal.Decimal
}

// Catalog is the part of the daily catalog placement depends on.
type Catalog interface {
	Today() catalog.Day
	Get(ctx context.Context, id string) (*catalog.Item, error)
	DecrementStock(ctx context.Context, id string, amount int) error
	RestoreStock(ctx context.Context, id string, amount int) error
}

// CartItem is one requested line: a catalog item id and a quantity.
type CartItem struct {
	ItemID   string
	Quantity int
}

// PlaceRequest holds the input for placing an order.
type PlaceRequest struct {
	CustomerID   string
	CustomerName string
	Phone        string
	Location     string
	Items        []CartItem
	// Total is the total the client computed. It is checked against the
	// server total when set.
	Total *decimal.Decimal
}

// StockWarning reports a line whose best-effort decrement failed after the
// order was committed.
type StockWarning struct {
	ItemID    string
	Name      string
	Requested int
	Err       error
}

func (w StockWarning) String() string {
	return w.Name + ": " + w.Err.Error()
}

// PlaceResult holds the output of a successfully placed order.
type PlaceResult struct {
	Order    *Order
	Warnings []StockWarning
}

// Service is the single entry point that turns a cart into a durable order
// and drives status changes afterwards.
type Service struct {
	catalog   Catalog
	ledger    *Ledger
	publisher Publisher
	metrics   *Metrics
	workflow  Workflow
	policy    StockPolicy
	tolerance decimal.Decimal
	now       func() time.Time
}

// NewService creates an order Service. A nil publisher drops events and nil
// metrics record nothing.
func NewService(
	cat Catalog,
	ledger *Ledger,
	publisher Publisher,
	metrics *Metrics,
	cfg Config,
) *Service {
	if publisher == nil {
		publisher = NopPublisher{}
	}
	if cfg.StockPolicy == "" {
		cfg.StockPolicy = StockBestEffort
	}
	return &Service{
		catalog:   cat,
		ledger:    ledger,
		publisher: publisher,
		metrics:   metrics,
		workflow:  Workflow{Strict: cfg.StrictStatus},
		policy:    cfg.StockPolicy,
		tolerance: cfg.TotalTolerance,
		now:       time.Now,
	}
}

// Place places an order on behalf of an authenticated customer.
func (s *Service) Place(ctx context.Context, req PlaceRequest) (*PlaceResult, error) {
	if req.CustomerID == "" {
		return nil, &ValidationError{Field: "customerId", Reason: "is required"}
	}
	return s.place(ctx, req)
}

// PlaceManual places an order entered by an administrator. The order has no
// customer reference.
func (s *Service) PlaceManual(ctx context.Context, req PlaceRequest) (*PlaceResult, error) {
	req.CustomerID = ""
	return s.place(ctx, req)
}

func (s *Service) place(ctx context.Context, req PlaceRequest) (*PlaceResult, error) {
	if err := validatePlaceRequest(req); err != nil {
		return nil, err
	}

	day := s.catalog.Today()
	lines, err := s.resolveLines(ctx, day, req.Items)
	if err != nil {
		return nil, err
	}

	total := decimal.Zero
	for _, l := range lines {
		total = total.Add(l.Subtotal())
	}
	total = total.Round(2)
	if req.Total != nil && req.Total.Sub(total).Abs().GreaterThan(s.tolerance) {
		return nil, &TotalMismatchError{Submitted: *req.Total, Computed: total}
	}

	if s.policy == StockReserve {
		if err := s.reserve(ctx, lines); err != nil {
			return nil, err
		}
	}

	o, err := s.ledger.Create(ctx, Draft{
		Items:        lines,
		Total:        total,
		CustomerID:   req.CustomerID,
		CustomerName: req.CustomerName,
		Phone:        req.Phone,
		Location:     req.Location,
		Day:          day,
		CreatedAt:    s.now(),
	})
	if err != nil {
		if s.policy == StockReserve {
			s.release(ctx, lines)
		}
		return nil, err
	}
	s.metrics.orderPlaced(ctx, o.Manual())

	// The order is committed: a client hang-up must not skip the stock
	// update or the event.
	ctx = context.WithoutCancel(ctx)
	res := &PlaceResult{Order: o}
	if s.policy == StockBestEffort {
		res.Warnings = s.decrementAfterCommit(ctx, o)
	}

	s.publish(ctx, Event{
		Type:        EventPlaced,
		OrderID:     o.ID,
		OrderNumber: o.OrderNumber,
		Status:      o.Status,
		Total:       o.Total,
		Location:    o.Location,
		Manual:      o.Manual(),
		OccurredAt:  o.CreatedAt,
	})
	return res, nil
}

func validatePlaceRequest(req PlaceRequest) error {
	if len(req.Items) == 0 {
		return ErrNoItems
	}
	switch {
	case req.CustomerName == "":
		return &ValidationError{Field: "customerName", Reason: "is required"}
	case req.Phone == "":
		return &ValidationError{Field: "phone", Reason: "is required"}
	case req.Location == "":
		return &ValidationError{Field: "location", Reason: "is required"}
	}
	for _, it := range req.Items {
		if it.ItemID == "" {
			return &ValidationError{Field: "items", Reason: "item id is required"}
		}
		if it.Quantity < 1 {
			return &ValidationError{Field: "items", Reason: "quantity must be at least 1 for item " + it.ItemID}
		}
		if it.Quantity > MaxLineQuantity {
			return &ValidationError{
				Field:  "items",
				Reason: fmt.Sprintf("quantity must be at most %d for item %s", MaxLineQuantity, it.ItemID),
			}
		}
	}
	return nil
}

// resolveLines snapshots each cart line from the live catalog.
func (s *Service) resolveLines(ctx context.Context, day catalog.Day, cart []CartItem) ([]LineItem, error) {
	lines := make([]LineItem, 0, len(cart))
	for _, it := range cart {
		item, err := s.catalog.Get(ctx, it.ItemID)
		switch {
		case errors.Is(err, catalog.ErrNotFound):
			return nil, &UnknownItemError{ItemID: it.ItemID, Reason: "not on the menu"}
		case err != nil:
			return nil, errors.Wrapf(err, "get catalog item %s", it.ItemID)
		}
		if item.Day != day {
			return nil, &UnknownItemError{ItemID: it.ItemID, Reason: "not on today's menu"}
		}
		lines = append(lines, LineItem{
			CatalogItemID: item.ID,
			Name:          item.Name,
			UnitPrice:     item.Price,
			Quantity:      it.Quantity,
		})
	}
	return lines, nil
}

// reserve takes stock for every line or for none of them.
func (s *Service) reserve(ctx context.Context, lines []LineItem) error {
	for i, l := range lines {
		err := s.catalog.DecrementStock(ctx, l.CatalogItemID, l.Quantity)
		if err == nil {
			continue
		}
		s.metrics.stockFailure(ctx, StockReserve)
		s.release(ctx, lines[:i])
		if errors.Is(err, catalog.ErrNotFound) {
			return &UnknownItemError{ItemID: l.CatalogItemID, Reason: "removed from the menu"}
		}
		return errors.Wrapf(err, "reserve %s", l.Name)
	}
	return nil
}

// release gives back reserved stock. It runs even when ctx is already
// cancelled.
func (s *Service) release(ctx context.Context, lines []LineItem) {
	ctx = context.WithoutCancel(ctx)
	for _, l := range lines {
		if err := s.catalog.RestoreStock(ctx, l.CatalogItemID, l.Quantity); err != nil {
			zctx.From(ctx).Error("Release reserved stock",
				zap.String("item_id", l.CatalogItemID),
				zap.Int("quantity", l.Quantity),
				zap.Error(err),
			)
		}
	}
}

// decrementAfterCommit applies each line independently. Failures are logged
// and returned; the committed order is left untouched.
func (s *Service) decrementAfterCommit(ctx context.Context, o *Order) []StockWarning {
	var warnings []StockWarning
	for _, l := range o.Items {
		err := s.catalog.DecrementStock(ctx, l.CatalogItemID, l.Quantity)
		if err == nil {
			continue
		}
		s.metrics.stockFailure(ctx, StockBestEffort)
		zctx.From(ctx).Warn("Stock decrement failed",
			zap.Int64("order_number", o.OrderNumber),
			zap.String("item_id", l.CatalogItemID),
			zap.Int("quantity", l.Quantity),
			zap.Error(err),
		)
		warnings = append(warnings, StockWarning{
			ItemID:    l.CatalogItemID,
			Name:      l.Name,
			Requested: l.Quantity,
			Err:       err,
		})
	}
	return warnings
}

// SetStatus moves an order to a new status. force skips the lifecycle check
// when the workflow is strict.
func (s *Service) SetStatus(ctx context.Context, id string, to Status, force bool) (*Order, error) {
	o, prev, err := s.ledger.SetStatus(ctx, id, to, s.workflow.Preconditions(to, force))
	if errors.Is(err, ErrStatusConflict) {
		cur, getErr := s.ledger.Get(ctx, id)
		if getErr != nil {
			return nil, getErr
		}
		return nil, &TransitionError{From: cur.Status, To: to}
	}
	if err != nil {
		return nil, err
	}
	if prev == to {
		return o, nil
	}

	s.metrics.statusChanged(ctx, to)
	s.publish(ctx, Event{
		Type:           EventStatusChanged,
		OrderID:        o.ID,
		OrderNumber:    o.OrderNumber,
		Status:         o.Status,
		PreviousStatus: prev,
		Total:          o.Total,
		Location:       o.Location,
		Manual:         o.Manual(),
		OccurredAt:     s.now(),
	})
	return o, nil
}

func (s *Service) publish(ctx context.Context, e Event) {
	ctx = context.WithoutCancel(ctx)
	if err := s.publisher.Publish(ctx, e); err != nil {
		zctx.From(ctx).Warn("Publish order event",
			zap.String("type", string(e.Type)),
			zap.Int64("order_number", e.OrderNumber),
			zap.Error(err),
		)
	}
}

// History returns the customer's orders, newest first.
func (s *Service) History(ctx context.Context, customerID string) ([]Order, error) {
	return s.ledger.FindByCustomer(ctx, customerID)
}

// Find returns an order by number, scoped to customerID when set.
func (s *Service) Find(ctx context.Context, number int64, customerID string) (*Order, error) {
	return s.ledger.FindByOrderNumber(ctx, number, customerID)
}

// List returns orders matching f.
func (s *Service) List(ctx context.Context, f Filter) ([]Order, error) {
	return s.ledger.ListAll(ctx, f)
}

// DeleteByDate bulk-deletes the orders of day.
func (s *Service) DeleteByDate(ctx context.Context, day catalog.Day) (int64, error) {
	return s.ledger.DeleteByDate(ctx, day)
}

// DailyIncome reports income per day in [from, to].
func (s *Service) DailyIncome(ctx context.Context, from, to catalog.Day) ([]DailyIncome, error) {
	return s.ledger.DailyIncome(ctx, from, to)
}

// IncomeByLocation reports income per location for day.
func (s *Service) IncomeByLocation(ctx context.Context, day catalog.Day) ([]LocationSummary, error) {
	return s.ledger.IncomeByLocation(ctx, day)
}
