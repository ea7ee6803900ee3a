package service

import (
	"context"
	"sort"
	"time"

	"github.com/tbelov/order-desk/internal/domain"

	"go.uber.org/zap"
)

// MonthlyProfit sums price minus cost over Completed orders, bucketed by the
// UTC calendar month of creation. Months without completed orders produce no
// record; the result is sorted ascending by (year, month).
func (s *Service) MonthlyProfit(ctx context.Context) ([]domain.MonthlyProfit, error) {
	completed, err := s.storage.ListByStatus(ctx, domain.StatusCompleted)
	if err != nil {
		s.logger.Error("listing completed orders failed", zap.Error(err))
		return nil, err
	}

	type bucket struct {
		year, month int
	}
	groups := make(map[bucket]*domain.MonthlyProfit)
	for _, o := range completed {
		created := o.CreatedAt.UTC()
		key := bucket{year: created.Year(), month: int(created.Month())}
		g, ok := groups[key]
		if !ok {
			g = &domain.MonthlyProfit{
				Year:      key.year,
				Month:     key.month,
				MonthName: time.Month(key.month).String(),
			}
			groups[key] = g
		}
		g.TotalProfit += o.TotalPrice - o.TotalCost
		g.OrderCount++
	}

	out := make([]domain.MonthlyProfit, 0, len(groups))
	for _, g := range groups {
		out = append(out, *g)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Year != out[j].Year {
			return out[i].Year < out[j].Year
		}
		return out[i].Month < out[j].Month
	})
	return out, nil
}
