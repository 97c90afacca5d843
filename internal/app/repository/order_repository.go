package repository

import (
	"errors"

	"github.com/jwoo/shopflow-backend/internal/app/model"
	"github.com/jwoo/shopflow-backend/pkg/logger"
	"gorm.io/gorm"
)

// OrderStats is the admin-facing aggregate over all orders
type OrderStats struct {
	TotalOrders  int64                       `json:"total_orders"`
	TotalRevenue float64                     `json:"total_revenue"`
	ByStatus     map[model.OrderStatus]int64 `json:"by_status"`
}

type OrderRepository interface {
	CreateFromCart(order *model.Order, cart *model.Cart) error
	FindByID(id uint) (*model.Order, error)
	FindByUserID(userID uint) ([]model.Order, error)
	FindByIdempotencyKey(userID uint, key string) (*model.Order, error)
	FindAll() ([]model.Order, error)
	FindFulfillmentQueue() ([]model.Order, error)
	UpdateStatus(id uint, status model.OrderStatus) error
	GetGlobalStats() (*OrderStats, error)
}

type orderRepository struct {
	db *gorm.DB
}

func NewOrderRepository(db *gorm.DB) OrderRepository {
	return &orderRepository{db: db}
}

func (r *orderRepository) preloadOrder() *gorm.DB {
	return r.db.Preload("Items")
}

// CreateFromCart writes the order snapshot and empties the cart in one
// transaction, so a crash between the two writes can never leave an order
// whose source cart still holds items. The cart side reuses the optimistic
// version check from cart saves.
func (r *orderRepository) CreateFromCart(order *model.Order, cart *model.Cart) error {
	logger.Debug("Creating order from cart in database", map[string]interface{}{
		"user_id":    order.UserID,
		"cart_id":    cart.ID,
		"total":      order.Total,
		"item_count": len(order.Items),
	})

	err := r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(order).Error; err != nil {
			return err
		}

		result := tx.Model(&model.Cart{}).
			Where("id = ? AND version = ?", cart.ID, cart.Version).
			Updates(map[string]interface{}{
				"total":   0,
				"version": gorm.Expr("version + 1"),
			})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return ErrCartVersionConflict
		}

		if err := tx.Where("cart_id = ?", cart.ID).Delete(&model.CartItem{}).Error; err != nil {
			return err
		}

		return nil
	})
	if err != nil {
		if errors.Is(err, ErrCartVersionConflict) {
			logger.Warn("Checkout lost cart version check", map[string]interface{}{
				"cart_id": cart.ID,
				"user_id": order.UserID,
			})
		} else {
			logger.Error("Failed to create order from cart in database", err, map[string]interface{}{
				"user_id": order.UserID,
				"cart_id": cart.ID,
			})
		}
		return err
	}

	cart.Version++
	cart.Total = 0
	cart.Items = nil

	logger.Debug("Order created from cart in database", map[string]interface{}{
		"order_id": order.ID,
		"user_id":  order.UserID,
		"total":    order.Total,
	})
	return nil
}

func (r *orderRepository) FindByID(id uint) (*model.Order, error) {
	logger.Debug("Finding order by ID in database", map[string]interface{}{
		"order_id": id,
	})

	var order model.Order
	if err := r.preloadOrder().First(&order, id).Error; err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			logger.Error("Failed to find order by ID in database", err, map[string]interface{}{
				"order_id": id,
			})
		}
		return nil, err
	}

	return &order, nil
}

func (r *orderRepository) FindByUserID(userID uint) ([]model.Order, error) {
	logger.Debug("Finding orders by user ID in database", map[string]interface{}{
		"user_id": userID,
	})

	var orders []model.Order
	if err := r.preloadOrder().Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&orders).Error; err != nil {
		logger.Error("Failed to find orders by user ID in database", err, map[string]interface{}{
			"user_id": userID,
		})
		return nil, err
	}

	logger.Debug("Orders found by user ID in database", map[string]interface{}{
		"user_id": userID,
		"count":   len(orders),
	})
	return orders, nil
}

// FindByIdempotencyKey looks up a replayed checkout. The key is only
// meaningful within the requesting user's own orders.
func (r *orderRepository) FindByIdempotencyKey(userID uint, key string) (*model.Order, error) {
	logger.Debug("Finding order by idempotency key in database", map[string]interface{}{
		"user_id": userID,
	})

	var order model.Order
	if err := r.preloadOrder().Where("user_id = ? AND idempotency_key = ?", userID, key).
		First(&order).Error; err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			logger.Error("Failed to find order by idempotency key in database", err, map[string]interface{}{
				"user_id": userID,
			})
		}
		return nil, err
	}

	return &order, nil
}

func (r *orderRepository) FindAll() ([]model.Order, error) {
	logger.Debug("Finding all orders in database", nil)

	var orders []model.Order
	if err := r.preloadOrder().
		Order("created_at DESC").
		Find(&orders).Error; err != nil {
		logger.Error("Failed to find all orders in database", err, nil)
		return nil, err
	}

	logger.Debug("All orders found in database", map[string]interface{}{
		"count": len(orders),
	})
	return orders, nil
}

// FindFulfillmentQueue returns open orders oldest first, so the longest
// waiting customers are worked first.
func (r *orderRepository) FindFulfillmentQueue() ([]model.Order, error) {
	logger.Debug("Finding fulfillment queue in database", nil)

	var orders []model.Order
	if err := r.preloadOrder().
		Where("status IN ?", []model.OrderStatus{model.OrderStatusPending, model.OrderStatusProcessing}).
		Order("created_at ASC").
		Find(&orders).Error; err != nil {
		logger.Error("Failed to find fulfillment queue in database", err, nil)
		return nil, err
	}

	logger.Debug("Fulfillment queue found in database", map[string]interface{}{
		"count": len(orders),
	})
	return orders, nil
}

func (r *orderRepository) UpdateStatus(id uint, status model.OrderStatus) error {
	logger.Debug("Updating order status in database", map[string]interface{}{
		"order_id": id,
		"status":   status,
	})

	if err := r.db.Model(&model.Order{}).Where("id = ?", id).
		Update("status", status).Error; err != nil {
		logger.Error("Failed to update order status in database", err, map[string]interface{}{
			"order_id": id,
			"status":   status,
		})
		return err
	}

	logger.Debug("Order status updated in database", map[string]interface{}{
		"order_id": id,
		"status":   status,
	})
	return nil
}

func (r *orderRepository) GetGlobalStats() (*OrderStats, error) {
	logger.Debug("Getting global order statistics in database", nil)

	stats := &OrderStats{
		ByStatus: make(map[model.OrderStatus]int64),
	}

	if err := r.db.Model(&model.Order{}).Count(&stats.TotalOrders).Error; err != nil {
		logger.Error("Failed to count total orders", err, nil)
		return nil, err
	}

	var revenueResult struct {
		TotalRevenue float64
	}
	if err := r.db.Model(&model.Order{}).
		Select("COALESCE(SUM(total), 0) as total_revenue").
		Where("status <> ?", model.OrderStatusCancelled).
		Scan(&revenueResult).Error; err != nil {
		logger.Error("Failed to calculate total revenue", err, nil)
		return nil, err
	}
	stats.TotalRevenue = revenueResult.TotalRevenue

	statusCounts := []struct {
		Status model.OrderStatus
		Count  int64
	}{}
	if err := r.db.Model(&model.Order{}).
		Select("status, COUNT(*) as count").
		Group("status").
		Scan(&statusCounts).Error; err != nil {
		logger.Error("Failed to count orders by status", err, nil)
		return nil, err
	}

	for _, sc := range statusCounts {
		stats.ByStatus[sc.Status] = sc.Count
	}

	logger.Debug("Global order statistics retrieved", map[string]interface{}{
		"total_orders":  stats.TotalOrders,
		"total_revenue": stats.TotalRevenue,
	})
	return stats, nil
}
