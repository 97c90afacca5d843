package service

import (
	"errors"

	"github.com/jwoo/shopflow-backend/internal/app/model"
	"github.com/jwoo/shopflow-backend/internal/app/repository"
	"github.com/jwoo/shopflow-backend/pkg/logger"
	"gorm.io/gorm"
)

var (
	ErrOrderNotFound           = errors.New("order not found")
	ErrEmptyCart               = errors.New("cart is empty")
	ErrInvalidOrderStatus      = errors.New("unknown order status")
	ErrInvalidStatusTransition = errors.New("illegal order status transition")
)

// OrderEventPublisher receives order lifecycle events. A nil publisher
// is allowed; events are then dropped.
type OrderEventPublisher interface {
	PublishOrderPlaced(order *model.Order)
}

type OrderService interface {
	Checkout(userID uint, shippingAddress, idempotencyKey string) (*model.Order, error)
	GetUserOrders(userID uint) ([]model.Order, error)
	GetOrderByID(userID, orderID uint) (*model.Order, error)
	ListAllOrders() ([]model.Order, error)
	GetFulfillmentQueue() ([]model.Order, error)
	GetGlobalStats() (*repository.OrderStats, error)
	UpdateOrderStatus(orderID uint, status string) (*model.Order, error)
}

type orderService struct {
	orderRepo repository.OrderRepository
	cartRepo  repository.CartRepository
	userRepo  repository.UserRepository
	publisher OrderEventPublisher
}

func NewOrderService(
	orderRepo repository.OrderRepository,
	cartRepo repository.CartRepository,
	userRepo repository.UserRepository,
	publisher OrderEventPublisher,
) OrderService {
	return &orderService{
		orderRepo: orderRepo,
		cartRepo:  cartRepo,
		userRepo:  userRepo,
		publisher: publisher,
	}
}

// Checkout converts the user's cart into an order. The order snapshot and
// the cart reset happen in one transaction. A repeated idempotency key
// returns the order created by the first attempt and leaves the cart alone.
// Replay only matches the requesting user's own orders; the same key from
// a different user is a fresh checkout.
func (s *orderService) Checkout(userID uint, shippingAddress, idempotencyKey string) (*model.Order, error) {
	logger.Info("Checkout started", map[string]interface{}{
		"user_id": userID,
	})

	if idempotencyKey != "" {
		existing, err := s.orderRepo.FindByIdempotencyKey(userID, idempotencyKey)
		if err == nil {
			logger.Info("Checkout replayed via idempotency key", map[string]interface{}{
				"user_id":  userID,
				"order_id": existing.ID,
			})
			return existing, nil
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			logger.Error("Failed to look up idempotency key", err, map[string]interface{}{
				"user_id": userID,
			})
			return nil, err
		}
	}

	cart, err := s.cartRepo.FindByUserID(userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			logger.Warn("Checkout rejected: no cart for user", map[string]interface{}{
				"user_id": userID,
			})
			return nil, ErrEmptyCart
		}
		logger.Error("Failed to fetch cart for checkout", err, map[string]interface{}{
			"user_id": userID,
		})
		return nil, err
	}

	if len(cart.Items) == 0 {
		logger.Warn("Checkout rejected: cart is empty", map[string]interface{}{
			"user_id": userID,
			"cart_id": cart.ID,
		})
		return nil, ErrEmptyCart
	}

	user, err := s.userRepo.FindByID(userID)
	if err != nil {
		logger.Error("Failed to fetch user for checkout", err, map[string]interface{}{
			"user_id": userID,
		})
		return nil, err
	}

	// Address resolution: explicit parameter wins, then the profile
	// address, otherwise the order ships address-less (mock checkout).
	if shippingAddress == "" {
		shippingAddress = user.Address
	}

	order := &model.Order{
		UserID:          user.ID,
		UserName:        user.Name,
		UserEmail:       user.Email,
		Total:           cart.Total,
		Status:          model.OrderStatusPending,
		ShippingAddress: shippingAddress,
	}
	if idempotencyKey != "" {
		order.IdempotencyKey = &idempotencyKey
	}
	for _, item := range cart.Items {
		order.Items = append(order.Items, model.OrderItem{
			ProductID: item.ProductID,
			Name:      item.Name,
			Price:     item.Price,
			Category:  item.Category,
			ImageURL:  item.ImageURL,
			Quantity:  item.Quantity,
		})
	}

	if err := s.orderRepo.CreateFromCart(order, cart); err != nil {
		if errors.Is(err, repository.ErrCartVersionConflict) {
			return nil, ErrCartConflict
		}
		logger.Error("Failed to create order from cart", err, map[string]interface{}{
			"user_id": userID,
			"cart_id": cart.ID,
		})
		return nil, err
	}

	if s.publisher != nil {
		s.publisher.PublishOrderPlaced(order)
	}

	logger.Info("Checkout completed", map[string]interface{}{
		"user_id":  userID,
		"order_id": order.ID,
		"total":    order.Total,
	})
	return order, nil
}

func (s *orderService) GetUserOrders(userID uint) ([]model.Order, error) {
	logger.Debug("Fetching user orders", map[string]interface{}{
		"user_id": userID,
	})

	orders, err := s.orderRepo.FindByUserID(userID)
	if err != nil {
		logger.Error("Failed to fetch user orders", err, map[string]interface{}{
			"user_id": userID,
		})
		return nil, err
	}

	return orders, nil
}

// GetOrderByID returns the order only to its owner. Someone else's order
// is indistinguishable from a missing one.
func (s *orderService) GetOrderByID(userID, orderID uint) (*model.Order, error) {
	logger.Debug("Fetching order by ID", map[string]interface{}{
		"user_id":  userID,
		"order_id": orderID,
	})

	order, err := s.orderRepo.FindByID(orderID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrOrderNotFound
		}
		logger.Error("Failed to fetch order", err, map[string]interface{}{
			"order_id": orderID,
		})
		return nil, err
	}

	if order.UserID != userID {
		logger.Warn("Order access denied: ownership mismatch", map[string]interface{}{
			"user_id":  userID,
			"order_id": orderID,
			"owner_id": order.UserID,
		})
		return nil, ErrOrderNotFound
	}

	return order, nil
}

func (s *orderService) ListAllOrders() ([]model.Order, error) {
	return s.orderRepo.FindAll()
}

func (s *orderService) GetFulfillmentQueue() ([]model.Order, error) {
	return s.orderRepo.FindFulfillmentQueue()
}

func (s *orderService) GetGlobalStats() (*repository.OrderStats, error) {
	return s.orderRepo.GetGlobalStats()
}

// UpdateOrderStatus advances the order through the status lifecycle.
// Unknown statuses and illegal transitions are rejected before any write.
func (s *orderService) UpdateOrderStatus(orderID uint, status string) (*model.Order, error) {
	logger.Info("Updating order status", map[string]interface{}{
		"order_id": orderID,
		"status":   status,
	})

	next := model.OrderStatus(status)
	if !next.Valid() {
		logger.Warn("Order status update rejected: unknown status", map[string]interface{}{
			"order_id": orderID,
			"status":   status,
		})
		return nil, ErrInvalidOrderStatus
	}

	order, err := s.orderRepo.FindByID(orderID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrOrderNotFound
		}
		logger.Error("Failed to fetch order for status update", err, map[string]interface{}{
			"order_id": orderID,
		})
		return nil, err
	}

	if !order.Status.CanTransitionTo(next) {
		logger.Warn("Order status update rejected: illegal transition", map[string]interface{}{
			"order_id": orderID,
			"from":     order.Status,
			"to":       next,
		})
		return nil, ErrInvalidStatusTransition
	}

	if err := s.orderRepo.UpdateStatus(orderID, next); err != nil {
		return nil, err
	}

	order.Status = next

	logger.Info("Order status updated", map[string]interface{}{
		"order_id": orderID,
		"status":   next,
	})
	return order, nil
}
