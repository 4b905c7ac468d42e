package handler

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/xenking/dailymenu/internal/domain/catalog"
	"github.com/xenking/dailymenu/internal/domain/food"
	"github.com/xenking/dailymenu/internal/domain/order"
)

type foodResponse struct {
	ID          string  `json:"id"`
	Name        string  `json:"name"`
	Price       float64 `json:"price"`
	Description string  `json:"description"`
	Image       string  `json:"image"`
	Category    string  `json:"category"`
}

type catalogItemResponse struct {
	ID                string    `json:"id"`
	FoodID            string    `json:"foodId"`
	Name              string    `json:"name"`
	Price             float64   `json:"price"`
	Description       string    `json:"description"`
	Image             string    `json:"image"`
	QuantityRemaining int       `json:"quantityRemaining"`
	Date              string    `json:"date"`
	CreatedAt         time.Time `json:"createdAt"`
}

type lineItemResponse struct {
	FoodID    string  `json:"foodId"`
	Name      string  `json:"name"`
	UnitPrice float64 `json:"unitPrice"`
	Quantity  int     `json:"qty"`
	Subtotal  float64 `json:"subtotal"`
}

type orderResponse struct {
	ID           string             `json:"id"`
	OrderNumber  int64              `json:"orderNumber"`
	Items        []lineItemResponse `json:"items"`
	Total        float64            `json:"total"`
	CustomerID   string             `json:"customerId,omitempty"`
	CustomerName string             `json:"customerName"`
	Phone        string             `json:"phone"`
	Location     string             `json:"location"`
	Status       string             `json:"status"`
	Date         string             `json:"date"`
	CreatedAt    time.Time          `json:"createdAt"`
}

type cartItemRequest struct {
	FoodID   string `json:"foodId"`
	Quantity int    `json:"qty"`
}

type placeOrderRequest struct {
	Items        []cartItemRequest `json:"items"`
	CustomerName string            `json:"customerName"`
	Phone        string            `json:"phone"`
	Location     string            `json:"location"`
	Total        *decimal.Decimal  `json:"total"`
}

type placeOrderResponse struct {
	OrderNumber int64         `json:"orderNumber"`
	Order       orderResponse `json:"order"`
	Warnings    []string      `json:"warnings,omitempty"`
}

type statusRequest struct {
	Status string `json:"status"`
	Force  bool   `json:"force"`
}

type addDailyFoodRequest struct {
	FoodID   string `json:"foodId"`
	Quantity *int   `json:"quantity"`
	Date     string `json:"date"`
}

type deleteByDateRequest struct {
	Date string `json:"date"`
}

type deleteByDateResponse struct {
	DeletedCount int64 `json:"deletedCount"`
}

type dailyIncomeResponse struct {
	Date   string  `json:"date"`
	Orders int     `json:"orders"`
	Income float64 `json:"income"`
}

type locationSummaryResponse struct {
	Location string  `json:"location"`
	Orders   int     `json:"orders"`
	Income   float64 `json:"income"`
}

type rolloverResponse struct {
	Removed int64 `json:"removed"`
}

func (h *Handler) imageURL(path string) string {
	if h.imageBaseURL == "" || path == "" || strings.HasPrefix(path, "http://") || strings.HasPrefix(path, "https://") {
		return path
	}
	return strings.TrimRight(h.imageBaseURL, "/") + "/" + strings.TrimLeft(path, "/")
}

func (h *Handler) toFood(f food.Food) foodResponse {
	return foodResponse{
		ID:          f.ID,
		Name:        f.Name,
		Price:       f.Price.InexactFloat64(),
		Description: f.Description,
		Image:       h.imageURL(f.Image),
		Category:    f.Category,
	}
}

func (h *Handler) toCatalogItem(it catalog.Item) catalogItemResponse {
	return catalogItemResponse{
		ID:                it.ID,
		FoodID:            it.FoodID,
		Name:              it.Name,
		Price:             it.Price.InexactFloat64(),
		Description:       it.Description,
		Image:             h.imageURL(it.Image),
		QuantityRemaining: it.QuantityRemaining,
		Date:              it.Day.String(),
		CreatedAt:         it.CreatedAt,
	}
}

func toOrder(o *order.Order) orderResponse {
	items := make([]lineItemResponse, len(o.Items))
	for i, l := range o.Items {
		items[i] = lineItemResponse{
			FoodID:    l.CatalogItemID,
			Name:      l.Name,
			UnitPrice: l.UnitPrice.InexactFloat64(),
			Quantity:  l.Quantity,
			Subtotal:  l.Subtotal().InexactFloat64(),
		}
	}
	return orderResponse{
		ID:           o.ID,
		OrderNumber:  o.OrderNumber,
		Items:        items,
		Total:        o.Total.InexactFloat64(),
		CustomerID:   o.CustomerID,
		CustomerName: o.CustomerName,
		Phone:        o.Phone,
		Location:     o.Location,
		Status:       string(o.Status),
		Date:         o.Day.String(),
		CreatedAt:    o.CreatedAt,
	}
}

func toOrders(orders []order.Order) []orderResponse {
	out := make([]orderResponse, len(orders))
	for i := range orders {
		out[i] = toOrder(&orders[i])
	}
	return out
}

func toPlaceResponse(res *order.PlaceResult) placeOrderResponse {
	resp := placeOrderResponse{
		OrderNumber: res.Order.OrderNumber,
		Order:       toOrder(res.Order),
	}
	for _, w := range res.Warnings {
		resp.Warnings = append(resp.Warnings, w.String())
	}
	return resp
}

func (req placeOrderRequest) toDomain(customerID string) order.PlaceRequest {
	items := make([]order.CartItem, len(req.Items))
	for i, it := range req.Items {
		items[i] = order.CartItem{ItemID: it.FoodID, Quantity: it.Quantity}
	}
	return order.PlaceRequest{
		CustomerID:   customerID,
		CustomerName: strings.TrimSpace(req.CustomerName),
		Phone:        strings.TrimSpace(req.Phone),
		Location:     strings.TrimSpace(req.Location),
		Items:        items,
		Total:        req.Total,
	}
}
