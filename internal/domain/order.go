package domain

import (
	"time"

	"github.com/google/uuid"
)

// Status names known to the reference data. Comparison is case-insensitive
// everywhere, these constants carry the canonical spelling.
const (
	StatusCreated    = "Created"
	StatusPending    = "Pending"
	StatusInProgress = "InProgress"
	StatusCompleted  = "Completed"
	StatusFailed     = "Failed"
)

// OrderSummary is one order as it appears in list views: aggregated item
// count and totals, no item rows.
type OrderSummary struct {
	ID         uuid.UUID `json:"id"`
	ResellerID uuid.UUID `json:"resellerId"`
	CustomerID uuid.UUID `json:"customerId"`
	StatusID   uuid.UUID `json:"statusId"`
	StatusName string    `json:"statusName"`
	ItemCount  int       `json:"itemCount"`
	TotalCost  float64   `json:"totalCost"`
	TotalPrice float64   `json:"totalPrice"`
	CreatedAt  time.Time `json:"createdDate"`
}

// OrderDetail is the fully hydrated order: every item with product and
// service names and per-item totals. Totals are always computed from the
// items, never stored.
type OrderDetail struct {
	ID         uuid.UUID   `json:"id"`
	ResellerID uuid.UUID   `json:"resellerId"`
	CustomerID uuid.UUID   `json:"customerId"`
	StatusID   uuid.UUID   `json:"statusId"`
	StatusName string      `json:"statusName"`
	TotalCost  float64     `json:"totalCost"`
	TotalPrice float64     `json:"totalPrice"`
	CreatedAt  time.Time   `json:"createdDate"`
	Items      []OrderItem `json:"items"`
}

type OrderItem struct {
	ID          uuid.UUID `json:"id"`
	OrderID     uuid.UUID `json:"orderId"`
	ServiceID   uuid.UUID `json:"serviceId"`
	ServiceName string    `json:"serviceName"`
	ProductID   uuid.UUID `json:"productId"`
	ProductName string    `json:"productName"`
	UnitCost    float64   `json:"unitCost"`
	UnitPrice   float64   `json:"unitPrice"`
	Quantity    int       `json:"quantity"`
	TotalCost   float64   `json:"totalCost"`
	TotalPrice  float64   `json:"totalPrice"`
}

// Product is read-only reference data.
type Product struct {
	ID        uuid.UUID
	ServiceID uuid.UUID
	Name      string
	UnitCost  float64
	UnitPrice float64
}

type CreateOrderItem struct {
	ProductID uuid.UUID `json:"productId"`
	Quantity  int       `json:"quantity"`
}

type CreateOrderRequest struct {
	ResellerID uuid.UUID         `json:"resellerId"`
	CustomerID uuid.UUID         `json:"customerId"`
	Items      []CreateOrderItem `json:"items"`
}

// MonthlyProfit is price minus cost summed over the Completed orders of one
// calendar month (UTC).
type MonthlyProfit struct {
	Year        int     `json:"year"`
	Month       int     `json:"month"`
	MonthName   string  `json:"monthName"`
	TotalProfit float64 `json:"totalProfit"`
	OrderCount  int     `json:"orderCount"`
}
