package service

import (
	"github.com/jwoo/shopflow-backend/internal/app/model"
	"github.com/jwoo/shopflow-backend/internal/app/repository"
	"github.com/jwoo/shopflow-backend/pkg/logger"
)

// UserStats summarizes a user's order history
type UserStats struct {
	TotalOrders      int     `json:"total_orders"`
	TotalSpent       float64 `json:"total_spent"`
	AverageOrder     float64 `json:"average_order_value"`
	FavoriteCategory string  `json:"favorite_category"`
}

type AnalyticsService interface {
	GetUserStats(userID uint) (*UserStats, error)
}

type analyticsService struct {
	orderRepo repository.OrderRepository
}

func NewAnalyticsService(orderRepo repository.OrderRepository) AnalyticsService {
	return &analyticsService{orderRepo: orderRepo}
}

func (s *analyticsService) GetUserStats(userID uint) (*UserStats, error) {
	logger.Debug("Computing user stats", map[string]interface{}{
		"user_id": userID,
	})

	orders, err := s.orderRepo.FindByUserID(userID)
	if err != nil {
		logger.Error("Failed to fetch orders for user stats", err, map[string]interface{}{
			"user_id": userID,
		})
		return nil, err
	}

	stats := ComputeUserStats(orders)

	logger.Debug("User stats computed", map[string]interface{}{
		"user_id":      userID,
		"total_orders": stats.TotalOrders,
		"total_spent":  stats.TotalSpent,
	})
	return stats, nil
}

// ComputeUserStats aggregates order history into user statistics. The
// favorite category is the one with the highest cumulative item quantity;
// ties keep the category encountered first.
func ComputeUserStats(orders []model.Order) *UserStats {
	stats := &UserStats{}

	quantities := make(map[string]int)
	var categoryOrder []string

	for _, order := range orders {
		stats.TotalOrders++
		stats.TotalSpent += order.Total

		for _, item := range order.Items {
			if item.Category == "" {
				continue
			}
			if _, seen := quantities[item.Category]; !seen {
				categoryOrder = append(categoryOrder, item.Category)
			}
			quantities[item.Category] += item.Quantity
		}
	}

	if stats.TotalOrders > 0 {
		stats.AverageOrder = stats.TotalSpent / float64(stats.TotalOrders)
	}

	best := 0
	for _, category := range categoryOrder {
		if quantities[category] > best {
			best = quantities[category]
			stats.FavoriteCategory = category
		}
	}

	return stats
}
