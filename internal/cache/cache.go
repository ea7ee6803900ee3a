package cache

import (
	"context"

	"github.com/tbelov/order-desk/internal/domain"

	"github.com/google/uuid"
	lru "github.com/hashicorp/golang-lru/v2"
)

//go:generate mockgen -source internal/cache/cache.go -destination=internal/cache/cache_mock_test.go -package=cache

type repo interface {
	GetByID(ctx context.Context, id uuid.UUID) (*domain.OrderDetail, error)
	RecentOrderIDs(ctx context.Context, limit int) ([]uuid.UUID, error)
}

// Cache keeps hydrated order details. Reads fall through to the store on a
// miss, so eviction is never a correctness problem.
type Cache struct {
	size int
	lru  *lru.Cache[uuid.UUID, domain.OrderDetail]
}

var _ domain.Cache = (*Cache)(nil)

func New(size int) (*Cache, error) {
	c, err := lru.New[uuid.UUID, domain.OrderDetail](size)
	if err != nil {
		return nil, err
	}
	return &Cache{
		size: size,
		lru:  c,
	}, nil
}

// Warm preloads the most recently created orders. Errors are ignored: a cold
// cache is a valid starting state.
func (c *Cache) Warm(ctx context.Context, repo repo) {
	if ids, err := repo.RecentOrderIDs(ctx, c.size); err == nil {
		for _, id := range ids {
			if d, err := repo.GetByID(ctx, id); err == nil {
				c.Set(d)
			}
		}
	}
}

func (c *Cache) Get(id uuid.UUID) (*domain.OrderDetail, bool) {
	d, ok := c.lru.Get(id)
	return &d, ok
}

func (c *Cache) Set(order *domain.OrderDetail) {
	c.lru.Add(order.ID, *order)
}

// Remove drops a cached detail, used after a status update so the next read
// rehydrates from the store.
func (c *Cache) Remove(id uuid.UUID) {
	c.lru.Remove(id)
}
