package controller

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jwoo/shopflow-backend/internal/app/service"
	apperrors "github.com/jwoo/shopflow-backend/internal/errors"
	"github.com/jwoo/shopflow-backend/internal/middleware"
	ws "github.com/jwoo/shopflow-backend/internal/websocket"
	"github.com/xuri/excelize/v2"
)

type AdminController struct {
	orderService service.OrderService
	hub          *ws.Hub
}

func NewAdminController(orderService service.OrderService, hub *ws.Hub) *AdminController {
	return &AdminController{
		orderService: orderService,
		hub:          hub,
	}
}

// ListOrders returns every order in the system
// GET /api/admin/orders
func (ctrl *AdminController) ListOrders(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	orders, err := ctrl.orderService.ListAllOrders()
	if err != nil {
		log.Error("Failed to list all orders", err)
		apperrors.ParseAndRespond(c, http.StatusInternalServerError, err, "list all orders")
		return
	}

	log.Info("All orders listed", map[string]interface{}{
		"count": len(orders),
	})

	c.JSON(http.StatusOK, gin.H{
		"orders": orders,
		"count":  len(orders),
	})
}

// GetStats returns order counts and revenue across the whole store
// GET /api/admin/orders/stats
func (ctrl *AdminController) GetStats(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	stats, err := ctrl.orderService.GetGlobalStats()
	if err != nil {
		log.Error("Failed to compute global stats", err)
		apperrors.ParseAndRespond(c, http.StatusInternalServerError, err, "order stats")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"stats": stats,
	})
}

// UpdateOrderStatus advances an order through the fulfillment lifecycle
// PUT /api/admin/orders/:id/status?status=
func (ctrl *AdminController) UpdateOrderStatus(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	orderID, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		apperrors.BadRequest(c, apperrors.ValidationInvalidID, "Invalid order ID")
		return
	}

	status := c.Query("status")
	if status == "" {
		apperrors.BadRequest(c, apperrors.ValidationRequired, "status query parameter is required")
		return
	}

	log.Debug("Updating order status", map[string]interface{}{
		"order_id": orderID,
		"status":   status,
	})

	order, err := ctrl.orderService.UpdateOrderStatus(uint(orderID), status)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrInvalidOrderStatus):
			log.Warn("Unknown order status", map[string]interface{}{
				"order_id": orderID,
				"status":   status,
			})
			apperrors.BadRequest(c, apperrors.OrderInvalidStatus, "Unknown order status")
		case errors.Is(err, service.ErrInvalidStatusTransition):
			log.Warn("Illegal order status transition", map[string]interface{}{
				"order_id": orderID,
				"status":   status,
			})
			apperrors.BadRequest(c, apperrors.OrderInvalidTransition, "Order cannot move to the requested status")
		case errors.Is(err, service.ErrOrderNotFound):
			log.Warn("Order not found for status update", map[string]interface{}{
				"order_id": orderID,
			})
			apperrors.NotFound(c, apperrors.OrderNotFound, "Order not found")
		default:
			log.Error("Failed to update order status", err, map[string]interface{}{
				"order_id": orderID,
			})
			apperrors.ParseAndRespond(c, http.StatusInternalServerError, err, "update order status")
		}
		return
	}

	log.Info("Order status updated", map[string]interface{}{
		"order_id": order.ID,
		"status":   order.Status,
	})

	c.JSON(http.StatusOK, gin.H{
		"message": "Order status updated",
		"order":   order,
	})
}

// GetFulfillmentQueue returns open orders in FIFO order
// GET /api/admin/fulfillment/queue
func (ctrl *AdminController) GetFulfillmentQueue(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	orders, err := ctrl.orderService.GetFulfillmentQueue()
	if err != nil {
		log.Error("Failed to fetch fulfillment queue", err)
		apperrors.ParseAndRespond(c, http.StatusInternalServerError, err, "fulfillment queue")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"orders": orders,
		"count":  len(orders),
	})
}

// ExportOrders streams all orders as an XLSX workbook
// GET /api/admin/orders/export
func (ctrl *AdminController) ExportOrders(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	orders, err := ctrl.orderService.ListAllOrders()
	if err != nil {
		log.Error("Failed to load orders for export", err)
		apperrors.ParseAndRespond(c, http.StatusInternalServerError, err, "export orders")
		return
	}

	f := excelize.NewFile()
	defer f.Close()

	sheet := f.GetSheetName(0)
	headers := []string{"Order ID", "User", "Email", "Status", "Total", "Items", "Shipping Address", "Created At"}
	for i, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		f.SetCellValue(sheet, cell, h)
	}

	for row, order := range orders {
		itemCount := 0
		for _, item := range order.Items {
			itemCount += item.Quantity
		}

		values := []interface{}{
			order.ID,
			order.UserName,
			order.UserEmail,
			string(order.Status),
			order.Total,
			itemCount,
			order.ShippingAddress,
			order.CreatedAt.Format(time.RFC3339),
		}
		for col, v := range values {
			cell, _ := excelize.CoordinatesToCellName(col+1, row+2)
			f.SetCellValue(sheet, cell, v)
		}
	}

	filename := fmt.Sprintf("orders-%s.xlsx", time.Now().Format("2006-01-02"))
	c.Header("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, filename))

	if err := f.Write(c.Writer); err != nil {
		log.Error("Failed to stream XLSX export", err)
		return
	}

	log.Info("Orders exported", map[string]interface{}{
		"count":    len(orders),
		"filename": filename,
	})
}

// LiveOrders upgrades to a websocket that streams newly placed orders
// GET /api/admin/orders/live
func (ctrl *AdminController) LiveOrders(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	userID, exists := middleware.GetUserID(c)
	if !exists {
		log.Warn("Unauthorized websocket connection attempt")
		apperrors.Unauthorized(c, "Authentication required")
		return
	}

	ctrl.hub.HandleConnection(c, userID)
}
