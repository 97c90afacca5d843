package model

import (
	"time"

	"gorm.io/gorm"
)

type OrderStatus string

const (
	OrderStatusPending    OrderStatus = "pending"
	OrderStatusProcessing OrderStatus = "processing"
	OrderStatusCompleted  OrderStatus = "completed"
	OrderStatusCancelled  OrderStatus = "cancelled"
)

// legalTransitions encodes the order lifecycle. Completed and cancelled
// are terminal.
var legalTransitions = map[OrderStatus][]OrderStatus{
	OrderStatusPending:    {OrderStatusProcessing, OrderStatusCancelled},
	OrderStatusProcessing: {OrderStatusCompleted, OrderStatusCancelled},
	OrderStatusCompleted:  {},
	OrderStatusCancelled:  {},
}

// Valid reports whether s is a known order status
func (s OrderStatus) Valid() bool {
	_, ok := legalTransitions[s]
	return ok
}

// CanTransitionTo reports whether moving from s to next is allowed
func (s OrderStatus) CanTransitionTo(next OrderStatus) bool {
	for _, allowed := range legalTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// Order is an immutable snapshot of a cart at checkout time. Items and
// Total never change after creation; only Status advances through the
// lifecycle above. IdempotencyKey deduplicates retried checkouts; it is
// unique per user, not globally, so one user's key never collides with
// another's.
type Order struct {
	ID              uint           `gorm:"primarykey" json:"id"`
	UserID          uint           `gorm:"not null;index;uniqueIndex:idx_orders_user_idempotency" json:"user_id"`
	UserName        string         `gorm:"not null" json:"user_name"`
	UserEmail       string         `gorm:"not null" json:"user_email"`
	Total           float64        `gorm:"not null" json:"total"`
	Status          OrderStatus    `gorm:"type:varchar(20);default:'pending';index" json:"status"`
	ShippingAddress string         `gorm:"type:text" json:"shipping_address"`
	IdempotencyKey  *string        `gorm:"uniqueIndex:idx_orders_user_idempotency" json:"-"`
	CreatedAt       time.Time      `json:"created_at"`
	UpdatedAt       time.Time      `json:"updated_at"`
	DeletedAt       gorm.DeletedAt `gorm:"index" json:"-"`

	Items []OrderItem `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE" json:"items"`
}

func (Order) TableName() string {
	return "orders"
}

// OrderItem is a frozen cart line copied at checkout
type OrderItem struct {
	ID        uint      `gorm:"primarykey" json:"id"`
	OrderID   uint      `gorm:"not null;index" json:"-"`
	ProductID uint      `gorm:"not null;index" json:"product_id"`
	Name      string    `gorm:"not null" json:"name"`
	Price     float64   `gorm:"not null" json:"price"`
	Category  string    `gorm:"type:varchar(100)" json:"category"`
	ImageURL  string    `json:"image_url"`
	Quantity  int       `gorm:"not null" json:"quantity"`
	CreatedAt time.Time `json:"created_at"`
}

func (OrderItem) TableName() string {
	return "order_items"
}
