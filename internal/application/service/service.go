package service

import (
	"context"
	"errors"
	"time"

	"github.com/tbelov/order-desk/internal/domain"
	"github.com/tbelov/order-desk/internal/observability"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

//go:generate mockgen -source internal/application/service/service.go -destination=internal/application/service/service_mock_test.go -package=service

type Cache interface {
	Get(id uuid.UUID) (*domain.OrderDetail, bool)
	Set(order *domain.OrderDetail)
	Remove(id uuid.UUID)
}

type Storage interface {
	ListOrders(ctx context.Context) ([]domain.OrderSummary, error)
	GetByID(ctx context.Context, id uuid.UUID) (*domain.OrderDetail, error)
	ListByStatus(ctx context.Context, statusName string) ([]domain.OrderSummary, error)
	UpdateStatus(ctx context.Context, orderID uuid.UUID, statusName string) (bool, error)
	Create(ctx context.Context, req domain.CreateOrderRequest) (*domain.OrderDetail, error)
}

// Service is the order workflow: validation and business rules layered on
// top of the store, plus the read-through detail cache.
type Service struct {
	cache   Cache
	storage Storage
	logger  *zap.Logger
	metrics observability.Metrics
}

func NewService(cache Cache, storage Storage, logger *zap.Logger, metrics observability.Metrics) *Service {
	return &Service{
		cache:   cache,
		storage: storage,
		logger:  logger,
		metrics: metrics,
	}
}

func (s *Service) ListOrders(ctx context.Context) ([]domain.OrderSummary, error) {
	orders, err := s.storage.ListOrders(ctx)
	if err != nil {
		s.logger.Error("listing orders failed", zap.Error(err))
		return nil, err
	}
	return orders, nil
}

// ListByStatus matches the status name case-insensitively. An unknown name
// yields an empty list, not an error.
func (s *Service) ListByStatus(ctx context.Context, statusName string) ([]domain.OrderSummary, error) {
	orders, err := s.storage.ListByStatus(ctx, statusName)
	if err != nil {
		s.logger.Error("listing orders by status failed",
			zap.String("status", statusName),
			zap.Error(err),
		)
		return nil, err
	}
	return orders, nil
}

func (s *Service) GetByID(ctx context.Context, id uuid.UUID) (*domain.OrderDetail, error) {
	d, _, err := s.GetByIDWithStats(ctx, id)
	return d, err
}

func (s *Service) GetByIDWithStats(ctx context.Context, id uuid.UUID) (*domain.OrderDetail, LookupStats, error) {
	var st LookupStats

	tCacheStart := time.Now()
	if order, ok := s.cache.Get(id); ok {
		st.Source = SourceCache
		st.CacheMs = convertToMs(tCacheStart)
		s.metrics.IncCacheHit()
		s.metrics.ObserveLookup(string(st.Source), st.CacheMs, 0)
		return order, st, nil
	}

	s.metrics.IncCacheMiss()
	st.CacheMs = convertToMs(tCacheStart)

	tDbStart := time.Now()
	order, err := s.storage.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			s.logger.Info("order not found", zap.String("order_id", id.String()))
		} else {
			s.logger.Error("order lookup failed",
				zap.String("order_id", id.String()),
				zap.Error(err),
			)
		}
		return nil, st, err
	}

	st.Source = SourceDB
	st.DBMs = convertToMs(tDbStart)

	s.cache.Set(order)
	s.metrics.ObserveLookup(string(st.Source), st.CacheMs, st.DBMs)
	return order, st, nil
}

// UpdateStatus returns false without touching anything when either the order
// or the status name does not resolve. The cached detail is dropped on
// success so the next read sees the new status.
func (s *Service) UpdateStatus(ctx context.Context, orderID uuid.UUID, statusName string) (bool, error) {
	ok, err := s.storage.UpdateStatus(ctx, orderID, statusName)
	if err != nil {
		s.logger.Error("status update failed",
			zap.String("order_id", orderID.String()),
			zap.String("status", statusName),
			zap.Error(err),
		)
		return false, err
	}
	if !ok {
		return false, nil
	}

	s.cache.Remove(orderID)
	s.logger.Info("order status updated",
		zap.String("order_id", orderID.String()),
		zap.String("status", statusName),
	)
	return true, nil
}

func (s *Service) Create(ctx context.Context, req domain.CreateOrderRequest) (*domain.OrderDetail, error) {
	d, _, err := s.CreateWithStats(ctx, req)
	return d, err
}

func (s *Service) CreateWithStats(ctx context.Context, req domain.CreateOrderRequest) (*domain.OrderDetail, CreateStats, error) {
	var st CreateStats

	if err := validateCreate(req); err != nil {
		return nil, st, err
	}

	t0 := time.Now()
	d, err := s.storage.Create(ctx, req)
	if err != nil {
		s.logger.Error("order creation failed",
			zap.String("reseller_id", req.ResellerID.String()),
			zap.Error(err),
		)
		return nil, st, err
	}
	st.DBWriteMs = convertToMs(t0)

	s.cache.Set(d)
	s.metrics.ObserveCreate(st.DBWriteMs)
	s.logger.Info("order created",
		zap.String("order_id", d.ID.String()),
		zap.Int("items", len(d.Items)),
		zap.Float64("db_write_ms", st.DBWriteMs),
	)
	return d, st, nil
}

func validateCreate(req domain.CreateOrderRequest) error {
	if len(req.Items) == 0 {
		return &domain.ValidationError{Field: "items", Reason: "order requires at least one item"}
	}
	for _, it := range req.Items {
		if it.Quantity <= 0 {
			return &domain.ValidationError{Field: "quantity", Reason: "must be a positive integer"}
		}
	}
	if dups := duplicateProducts(req.Items); len(dups) > 0 {
		return &domain.DuplicateProductsError{ProductIDs: dups}
	}
	return nil
}

// duplicateProducts returns each product id that appears more than once,
// in first-seen order, listed once.
func duplicateProducts(items []domain.CreateOrderItem) []uuid.UUID {
	seen := make(map[uuid.UUID]int, len(items))
	var dups []uuid.UUID
	for _, it := range items {
		seen[it.ProductID]++
		if seen[it.ProductID] == 2 {
			dups = append(dups, it.ProductID)
		}
	}
	return dups
}
