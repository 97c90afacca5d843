package repository

import (
	"errors"
	"time"

	"github.com/jwoo/shopflow-backend/internal/app/model"
	"github.com/jwoo/shopflow-backend/pkg/logger"
	"gorm.io/gorm"
)

// ErrCartVersionConflict is returned when a cart save loses the optimistic
// version check to a concurrent writer.
var ErrCartVersionConflict = errors.New("cart was modified concurrently")

type CartRepository interface {
	Create(cart *model.Cart) error
	FindByUserID(userID uint) (*model.Cart, error)
	Save(cart *model.Cart) error
	ClearStale(cutoff time.Time) (int64, error)
}

type cartRepository struct {
	db *gorm.DB
}

func NewCartRepository(db *gorm.DB) CartRepository {
	return &cartRepository{db: db}
}

func (r *cartRepository) Create(cart *model.Cart) error {
	logger.Debug("Creating cart in database", map[string]interface{}{
		"user_id": cart.UserID,
	})

	if err := r.db.Create(cart).Error; err != nil {
		logger.Error("Failed to create cart in database", err, map[string]interface{}{
			"user_id": cart.UserID,
		})
		return err
	}

	logger.Debug("Cart created in database", map[string]interface{}{
		"cart_id": cart.ID,
		"user_id": cart.UserID,
	})
	return nil
}

func (r *cartRepository) FindByUserID(userID uint) (*model.Cart, error) {
	logger.Debug("Finding cart by user ID in database", map[string]interface{}{
		"user_id": userID,
	})

	var cart model.Cart
	err := r.db.Where("user_id = ?", userID).
		Preload("Items").
		First(&cart).Error
	if err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			logger.Error("Failed to find cart by user ID in database", err, map[string]interface{}{
				"user_id": userID,
			})
		}
		return nil, err
	}

	logger.Debug("Cart found by user ID in database", map[string]interface{}{
		"cart_id":    cart.ID,
		"user_id":    userID,
		"item_count": len(cart.Items),
	})
	return &cart, nil
}

// Save replaces the cart's items and total as one unit. The carts row is
// updated with a version check-and-increment: if another writer saved the
// cart since this one was loaded, zero rows match and the save fails with
// ErrCartVersionConflict instead of clobbering the concurrent edit.
func (r *cartRepository) Save(cart *model.Cart) error {
	logger.Debug("Saving cart in database", map[string]interface{}{
		"cart_id":    cart.ID,
		"user_id":    cart.UserID,
		"item_count": len(cart.Items),
		"total":      cart.Total,
		"version":    cart.Version,
	})

	err := r.db.Transaction(func(tx *gorm.DB) error {
		result := tx.Model(&model.Cart{}).
			Where("id = ? AND version = ?", cart.ID, cart.Version).
			Updates(map[string]interface{}{
				"total":   cart.Total,
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

		for i := range cart.Items {
			cart.Items[i].ID = 0
			cart.Items[i].CartID = cart.ID
		}
		if len(cart.Items) > 0 {
			if err := tx.Create(&cart.Items).Error; err != nil {
				return err
			}
		}

		return nil
	})
	if err != nil {
		if errors.Is(err, ErrCartVersionConflict) {
			logger.Warn("Cart save lost version check", map[string]interface{}{
				"cart_id": cart.ID,
				"user_id": cart.UserID,
				"version": cart.Version,
			})
		} else {
			logger.Error("Failed to save cart in database", err, map[string]interface{}{
				"cart_id": cart.ID,
				"user_id": cart.UserID,
			})
		}
		return err
	}

	cart.Version++

	logger.Debug("Cart saved in database", map[string]interface{}{
		"cart_id": cart.ID,
		"user_id": cart.UserID,
		"total":   cart.Total,
	})
	return nil
}

// ClearStale empties carts that have not been touched since cutoff and
// returns the number of carts cleared.
func (r *cartRepository) ClearStale(cutoff time.Time) (int64, error) {
	logger.Debug("Clearing stale carts", map[string]interface{}{
		"cutoff": cutoff,
	})

	var cleared int64
	err := r.db.Transaction(func(tx *gorm.DB) error {
		var staleIDs []uint
		if err := tx.Model(&model.Cart{}).
			Where("updated_at < ? AND total > 0", cutoff).
			Pluck("id", &staleIDs).Error; err != nil {
			return err
		}

		if len(staleIDs) == 0 {
			return nil
		}

		if err := tx.Where("cart_id IN ?", staleIDs).Delete(&model.CartItem{}).Error; err != nil {
			return err
		}

		result := tx.Model(&model.Cart{}).
			Where("id IN ?", staleIDs).
			Updates(map[string]interface{}{
				"total":   0,
				"version": gorm.Expr("version + 1"),
			})
		if result.Error != nil {
			return result.Error
		}

		cleared = result.RowsAffected
		return nil
	})
	if err != nil {
		logger.Error("Failed to clear stale carts", err, map[string]interface{}{
			"cutoff": cutoff,
		})
		return 0, err
	}

	logger.Debug("Stale carts cleared", map[string]interface{}{
		"count": cleared,
	})
	return cleared, nil
}
