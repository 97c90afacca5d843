package controller

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/jwoo/shopflow-backend/internal/app/model"
	"github.com/jwoo/shopflow-backend/internal/app/repository"
	"github.com/jwoo/shopflow-backend/internal/app/service"
	"github.com/jwoo/shopflow-backend/internal/db"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func setupAdminControllerTest(t *testing.T) (*AdminController, *gin.Engine, *gorm.DB) {
	testDB, err := db.SetupTestDB()
	require.NoError(t, err)
	t.Cleanup(func() {
		db.CleanupTestDB(testDB)
	})

	cartRepo := repository.NewCartRepository(testDB)
	orderRepo := repository.NewOrderRepository(testDB)
	userRepo := repository.NewUserRepository(testDB)
	orderService := service.NewOrderService(orderRepo, cartRepo, userRepo, nil)
	adminController := NewAdminController(orderService, nil)

	gin.SetMode(gin.TestMode)
	router := gin.New()

	return adminController, router, testDB
}

func seedOrder(t *testing.T, testDB *gorm.DB, status model.OrderStatus, total float64) *model.Order {
	t.Helper()
	order := &model.Order{
		UserID:    1,
		UserName:  "Shopper",
		UserEmail: "shopper@example.com",
		Total:     total,
		Status:    status,
		Items: []model.OrderItem{
			{ProductID: 1, Name: "Widget", Price: total, Category: "Home", Quantity: 1},
		},
	}
	require.NoError(t, testDB.Create(order).Error)
	return order
}

func TestAdminController_ListOrders(t *testing.T) {
	controller, router, testDB := setupAdminControllerTest(t)
	router.GET("/admin/orders", controller.ListOrders)

	seedOrder(t, testDB, model.OrderStatusPending, 10.00)
	seedOrder(t, testDB, model.OrderStatusCompleted, 20.00)

	req := httptest.NewRequest(http.MethodGet, "/admin/orders", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)

	var response map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	assert.Equal(t, float64(2), response["count"])
}

func TestAdminController_GetStats(t *testing.T) {
	controller, router, testDB := setupAdminControllerTest(t)
	router.GET("/admin/orders/stats", controller.GetStats)

	seedOrder(t, testDB, model.OrderStatusPending, 10.00)
	seedOrder(t, testDB, model.OrderStatusCompleted, 20.00)
	seedOrder(t, testDB, model.OrderStatusCancelled, 99.00)

	req := httptest.NewRequest(http.MethodGet, "/admin/orders/stats", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)

	var response struct {
		Stats repository.OrderStats `json:"stats"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	assert.Equal(t, int64(3), response.Stats.TotalOrders)
	// Cancelled orders do not count toward revenue
	assert.InDelta(t, 30.00, response.Stats.TotalRevenue, 0.001)
}

func TestAdminController_UpdateOrderStatus(t *testing.T) {
	controller, router, testDB := setupAdminControllerTest(t)
	router.PUT("/admin/orders/:id/status", controller.UpdateOrderStatus)

	order := seedOrder(t, testDB, model.OrderStatusPending, 10.00)

	tests := []struct {
		name       string
		orderID    string
		status     string
		wantStatus int
		wantError  string
	}{
		{
			name:       "Legal transition",
			orderID:    uintStr(order.ID),
			status:     "processing",
			wantStatus: http.StatusOK,
		},
		{
			name:       "Unknown status",
			orderID:    uintStr(order.ID),
			status:     "shipped",
			wantStatus: http.StatusBadRequest,
			wantError:  "ORDER_INVALID_STATUS",
		},
		{
			name:       "Illegal transition",
			orderID:    uintStr(order.ID),
			status:     "pending",
			wantStatus: http.StatusBadRequest,
			wantError:  "ORDER_INVALID_TRANSITION",
		},
		{
			name:       "Missing status",
			orderID:    uintStr(order.ID),
			status:     "",
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "Order not found",
			orderID:    "9999",
			status:     "processing",
			wantStatus: http.StatusNotFound,
			wantError:  "ORDER_NOT_FOUND",
		},
		{
			name:       "Invalid order ID",
			orderID:    "abc",
			status:     "processing",
			wantStatus: http.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			url := "/admin/orders/" + tt.orderID + "/status"
			if tt.status != "" {
				url += "?status=" + tt.status
			}
			req := httptest.NewRequest(http.MethodPut, url, nil)
			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)

			assert.Equal(t, tt.wantStatus, w.Code)

			if tt.wantError != "" {
				var response map[string]interface{}
				require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
				assert.Equal(t, tt.wantError, response["error"])
			}
		})
	}
}

func TestAdminController_GetFulfillmentQueue(t *testing.T) {
	controller, router, testDB := setupAdminControllerTest(t)
	router.GET("/admin/fulfillment/queue", controller.GetFulfillmentQueue)

	first := seedOrder(t, testDB, model.OrderStatusPending, 10.00)
	seedOrder(t, testDB, model.OrderStatusCompleted, 20.00)
	second := seedOrder(t, testDB, model.OrderStatusProcessing, 30.00)

	req := httptest.NewRequest(http.MethodGet, "/admin/fulfillment/queue", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)

	var response struct {
		Orders []model.Order `json:"orders"`
		Count  int           `json:"count"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	require.Equal(t, 2, response.Count)
	// Oldest open order first
	assert.Equal(t, first.ID, response.Orders[0].ID)
	assert.Equal(t, second.ID, response.Orders[1].ID)
}

func TestAdminController_ExportOrders(t *testing.T) {
	controller, router, testDB := setupAdminControllerTest(t)
	router.GET("/admin/orders/export", controller.ExportOrders)

	seedOrder(t, testDB, model.OrderStatusPending, 10.00)

	req := httptest.NewRequest(http.MethodGet, "/admin/orders/export", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", w.Header().Get("Content-Type"))
	assert.Contains(t, w.Header().Get("Content-Disposition"), "attachment")
	assert.NotZero(t, w.Body.Len())
}
