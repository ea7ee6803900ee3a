package domain

import (
	"context"

	"github.com/google/uuid"
)

// OrderStore is the persistence boundary. The pgx implementation lives in
// internal/database; tests substitute a mock.
type OrderStore interface {
	ListOrders(ctx context.Context) ([]OrderSummary, error)
	GetByID(ctx context.Context, id uuid.UUID) (*OrderDetail, error)
	ListByStatus(ctx context.Context, statusName string) ([]OrderSummary, error)
	UpdateStatus(ctx context.Context, orderID uuid.UUID, statusName string) (bool, error)
	Create(ctx context.Context, req CreateOrderRequest) (*OrderDetail, error)
	RecentOrderIDs(ctx context.Context, limit int) ([]uuid.UUID, error)
}

type Cache interface {
	Get(id uuid.UUID) (*OrderDetail, bool)
	Set(order *OrderDetail)
	Remove(id uuid.UUID)
}
