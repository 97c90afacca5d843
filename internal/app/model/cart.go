package model

import (
	"time"

	"gorm.io/gorm"
)

// Cart is a user's single shopping cart, created lazily on first access.
// Version is an optimistic-concurrency token bumped on every save; a writer
// holding a stale version loses instead of overwriting a concurrent edit.
type Cart struct {
	ID        uint           `gorm:"primarykey" json:"id"`
	UserID    uint           `gorm:"uniqueIndex;not null" json:"user_id"`
	Total     float64        `gorm:"not null;default:0" json:"total"`
	Version   uint           `gorm:"not null;default:0" json:"-"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`

	Items []CartItem `gorm:"foreignKey:CartID;constraint:OnDelete:CASCADE" json:"items"`
}

func (Cart) TableName() string {
	return "carts"
}

// RecomputeTotal recalculates Total from the line items. Must be called
// after every item mutation so Total always equals the sum of price*quantity.
func (c *Cart) RecomputeTotal() {
	total := 0.0
	for _, item := range c.Items {
		total += item.Price * float64(item.Quantity)
	}
	c.Total = total
}

// FindItem returns the index of the item for productID, or -1
func (c *Cart) FindItem(productID uint) int {
	for i := range c.Items {
		if c.Items[i].ProductID == productID {
			return i
		}
	}
	return -1
}

// CartItem is a line in a cart. Name, Price, Category and ImageURL are
// snapshots taken when the product was added; later catalog edits do not
// change lines already in a cart.
type CartItem struct {
	ID        uint      `gorm:"primarykey" json:"id"`
	CartID    uint      `gorm:"not null;index:idx_cart_items_cart_product,unique" json:"-"`
	ProductID uint      `gorm:"not null;index:idx_cart_items_cart_product,unique" json:"product_id"`
	Name      string    `gorm:"not null" json:"name"`
	Price     float64   `gorm:"not null" json:"price"`
	Category  string    `gorm:"type:varchar(100)" json:"category"`
	ImageURL  string    `json:"image_url"`
	Quantity  int       `gorm:"not null;default:1" json:"quantity"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (CartItem) TableName() string {
	return "cart_items"
}
