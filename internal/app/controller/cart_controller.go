package controller

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/jwoo/shopflow-backend/internal/app/service"
	apperrors "github.com/jwoo/shopflow-backend/internal/errors"
	"github.com/jwoo/shopflow-backend/internal/middleware"
)

type CartController struct {
	cartService  service.CartService
	orderService service.OrderService
}

func NewCartController(cartService service.CartService, orderService service.OrderService) *CartController {
	return &CartController{
		cartService:  cartService,
		orderService: orderService,
	}
}

// GetCart returns the user's cart, creating an empty one on first access
// GET /api/cart
func (ctrl *CartController) GetCart(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	userID, exists := middleware.GetUserID(c)
	if !exists {
		log.Warn("Unauthorized access to cart")
		apperrors.Unauthorized(c, "Authentication required")
		return
	}

	cart, err := ctrl.cartService.GetOrCreateCart(userID)
	if err != nil {
		log.Error("Failed to fetch cart", err, map[string]interface{}{
			"user_id": userID,
		})
		apperrors.ParseAndRespond(c, http.StatusInternalServerError, err, "get cart")
		return
	}

	log.Info("Cart fetched successfully", map[string]interface{}{
		"user_id": userID,
		"count":   len(cart.Items),
		"total":   cart.Total,
	})

	c.JSON(http.StatusOK, gin.H{
		"cart":  cart,
		"count": len(cart.Items),
		"total": cart.Total,
	})
}

// AddItem adds a product to the cart, accumulating quantity on repeats
// POST /api/cart/add?product_id=&quantity=
func (ctrl *CartController) AddItem(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	userID, exists := middleware.GetUserID(c)
	if !exists {
		log.Warn("Unauthorized attempt to add to cart")
		apperrors.Unauthorized(c, "Authentication required")
		return
	}

	productID, err := strconv.ParseUint(c.Query("product_id"), 10, 32)
	if err != nil {
		log.Warn("Invalid product ID in add request", map[string]interface{}{
			"user_id":    userID,
			"product_id": c.Query("product_id"),
		})
		apperrors.BadRequest(c, apperrors.ValidationInvalidID, "Invalid product ID")
		return
	}

	quantity := 1
	if qtyStr := c.Query("quantity"); qtyStr != "" {
		quantity, err = strconv.Atoi(qtyStr)
		if err != nil {
			apperrors.BadRequest(c, apperrors.ValidationInvalidInput, "Invalid quantity")
			return
		}
	}

	log.Debug("Adding item to cart", map[string]interface{}{
		"user_id":    userID,
		"product_id": productID,
		"quantity":   quantity,
	})

	cart, err := ctrl.cartService.AddItem(userID, uint(productID), quantity)
	if err != nil {
		ctrl.respondCartError(c, err, userID, uint(productID))
		return
	}

	log.Info("Item added to cart successfully", map[string]interface{}{
		"user_id":    userID,
		"product_id": productID,
		"quantity":   quantity,
		"total":      cart.Total,
	})

	c.JSON(http.StatusOK, gin.H{
		"message": "Item added to cart",
		"cart":    cart,
		"total":   cart.Total,
	})
}

// UpdateItem sets the quantity of a cart line; zero removes it
// PUT /api/cart/update?product_id=&quantity=
func (ctrl *CartController) UpdateItem(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	userID, exists := middleware.GetUserID(c)
	if !exists {
		log.Warn("Unauthorized attempt to update cart")
		apperrors.Unauthorized(c, "Authentication required")
		return
	}

	productID, err := strconv.ParseUint(c.Query("product_id"), 10, 32)
	if err != nil {
		apperrors.BadRequest(c, apperrors.ValidationInvalidID, "Invalid product ID")
		return
	}

	quantity, err := strconv.Atoi(c.Query("quantity"))
	if err != nil {
		apperrors.BadRequest(c, apperrors.ValidationInvalidInput, "Invalid quantity")
		return
	}

	log.Debug("Updating cart item", map[string]interface{}{
		"user_id":    userID,
		"product_id": productID,
		"quantity":   quantity,
	})

	cart, err := ctrl.cartService.UpdateItem(userID, uint(productID), quantity)
	if err != nil {
		ctrl.respondCartError(c, err, userID, uint(productID))
		return
	}

	log.Info("Cart item updated successfully", map[string]interface{}{
		"user_id":    userID,
		"product_id": productID,
		"quantity":   quantity,
		"total":      cart.Total,
	})

	c.JSON(http.StatusOK, gin.H{
		"message": "Cart updated",
		"cart":    cart,
		"total":   cart.Total,
	})
}

// RemoveItem removes a product from the cart; absent products are a no-op
// DELETE /api/cart/remove/:product_id
func (ctrl *CartController) RemoveItem(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	userID, exists := middleware.GetUserID(c)
	if !exists {
		log.Warn("Unauthorized attempt to remove cart item")
		apperrors.Unauthorized(c, "Authentication required")
		return
	}

	productID, err := strconv.ParseUint(c.Param("product_id"), 10, 32)
	if err != nil {
		apperrors.BadRequest(c, apperrors.ValidationInvalidID, "Invalid product ID")
		return
	}

	log.Debug("Removing cart item", map[string]interface{}{
		"user_id":    userID,
		"product_id": productID,
	})

	cart, err := ctrl.cartService.RemoveItem(userID, uint(productID))
	if err != nil {
		ctrl.respondCartError(c, err, userID, uint(productID))
		return
	}

	log.Info("Cart item removed successfully", map[string]interface{}{
		"user_id":    userID,
		"product_id": productID,
		"total":      cart.Total,
	})

	c.JSON(http.StatusOK, gin.H{
		"message": "Item removed from cart",
		"cart":    cart,
		"total":   cart.Total,
	})
}

// Checkout converts the cart into an order
// POST /api/cart/checkout?shipping_address= (optional Idempotency-Key header)
func (ctrl *CartController) Checkout(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	userID, exists := middleware.GetUserID(c)
	if !exists {
		log.Warn("Unauthorized checkout attempt")
		apperrors.Unauthorized(c, "Authentication required")
		return
	}

	shippingAddress := c.Query("shipping_address")
	idempotencyKey := c.GetHeader("Idempotency-Key")

	log.Debug("Processing checkout", map[string]interface{}{
		"user_id":         userID,
		"idempotency_key": idempotencyKey,
	})

	order, err := ctrl.orderService.Checkout(userID, shippingAddress, idempotencyKey)
	if err != nil {
		if errors.Is(err, service.ErrEmptyCart) {
			log.Warn("Checkout rejected: empty cart", map[string]interface{}{
				"user_id": userID,
			})
			apperrors.BadRequest(c, apperrors.CartEmpty, "Cart is empty")
			return
		}
		if errors.Is(err, service.ErrCartConflict) {
			log.Warn("Checkout rejected: cart modified concurrently", map[string]interface{}{
				"user_id": userID,
			})
			apperrors.Conflict(c, apperrors.CartVersionConflict, "Cart was modified by another request. Please retry")
			return
		}
		log.Error("Checkout failed", err, map[string]interface{}{
			"user_id": userID,
		})
		apperrors.ParseAndRespond(c, http.StatusInternalServerError, err, "checkout")
		return
	}

	log.Info("Checkout completed", map[string]interface{}{
		"user_id":  userID,
		"order_id": order.ID,
		"total":    order.Total,
	})

	c.JSON(http.StatusCreated, gin.H{
		"order_id":   order.ID,
		"total":      order.Total,
		"message":    "Order placed successfully",
		"order_date": order.CreatedAt,
	})
}

func (ctrl *CartController) respondCartError(c *gin.Context, err error, userID, productID uint) {
	log := middleware.GetLoggerFromContext(c)

	switch {
	case errors.Is(err, service.ErrProductNotFound):
		log.Warn("Product not found for cart operation", map[string]interface{}{
			"user_id":    userID,
			"product_id": productID,
		})
		apperrors.NotFound(c, apperrors.ProductNotFound, "Product not found")
	case errors.Is(err, service.ErrCartNotFound):
		log.Warn("Cart not found", map[string]interface{}{
			"user_id": userID,
		})
		apperrors.NotFound(c, apperrors.CartNotFound, "Cart not found")
	case errors.Is(err, service.ErrCartItemNotFound):
		log.Warn("Cart item not found", map[string]interface{}{
			"user_id":    userID,
			"product_id": productID,
		})
		apperrors.NotFound(c, apperrors.CartItemNotFound, "Item is not in the cart")
	case errors.Is(err, service.ErrInvalidQuantity):
		apperrors.BadRequest(c, apperrors.ValidationInvalidInput, "Quantity must be at least 1")
	case errors.Is(err, service.ErrCartConflict):
		log.Warn("Cart version conflict", map[string]interface{}{
			"user_id": userID,
		})
		apperrors.Conflict(c, apperrors.CartVersionConflict, "Cart was modified by another request. Please retry")
	default:
		log.Error("Cart operation failed", err, map[string]interface{}{
			"user_id":    userID,
			"product_id": productID,
		})
		apperrors.ParseAndRespond(c, http.StatusInternalServerError, err, "cart operation")
	}
}
