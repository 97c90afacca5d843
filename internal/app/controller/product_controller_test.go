package controller

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jwoo/shopflow-backend/internal/app/model"
	"github.com/jwoo/shopflow-backend/internal/app/repository"
	"github.com/jwoo/shopflow-backend/internal/app/service"
	"github.com/jwoo/shopflow-backend/internal/db"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func setupProductControllerTest(t *testing.T) (*ProductController, *gin.Engine, *gorm.DB) {
	testDB, err := db.SetupTestDB()
	require.NoError(t, err)
	t.Cleanup(func() {
		db.CleanupTestDB(testDB)
	})

	productRepo := repository.NewProductRepository(testDB)
	productService := service.NewProductService(productRepo, 5*time.Minute)
	productController := NewProductController(productService)

	products := []model.Product{
		{Name: "Wireless Headphones", Price: 99.99, Category: "Electronics", Rating: 4.5},
		{Name: "Smartphone", Price: 699.99, Category: "Electronics", Rating: 4.8},
		{Name: "Coffee Mug", Price: 19.99, Category: "Home", Rating: 4.0},
	}
	for i := range products {
		require.NoError(t, testDB.Create(&products[i]).Error)
	}

	gin.SetMode(gin.TestMode)
	router := gin.New()

	return productController, router, testDB
}

func TestProductController_ListProducts(t *testing.T) {
	controller, router, _ := setupProductControllerTest(t)
	router.GET("/products", controller.ListProducts)

	tests := []struct {
		name      string
		query     string
		wantCount int
	}{
		{name: "No filters", query: "", wantCount: 3},
		{name: "Search", query: "?search=wireless", wantCount: 1},
		{name: "Category", query: "?category=Electronics", wantCount: 2},
		{name: "Price range", query: "?min_price=50&max_price=200", wantCount: 1},
		{name: "Limit", query: "?limit=2", wantCount: 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/products"+tt.query, nil)
			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)

			assert.Equal(t, http.StatusOK, w.Code)

			var response map[string]interface{}
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
			assert.Equal(t, float64(tt.wantCount), response["count"])
		})
	}
}

func TestProductController_ListProducts_Sorted(t *testing.T) {
	controller, router, _ := setupProductControllerTest(t)
	router.GET("/products", controller.ListProducts)

	req := httptest.NewRequest(http.MethodGet, "/products?sort_by=price&sort_order=asc", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)

	var response struct {
		Products []model.Product `json:"products"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	require.Len(t, response.Products, 3)
	assert.Equal(t, "Coffee Mug", response.Products[0].Name)
	assert.Equal(t, "Smartphone", response.Products[2].Name)
}

func TestProductController_ListProducts_InvalidRange(t *testing.T) {
	controller, router, _ := setupProductControllerTest(t)
	router.GET("/products", controller.ListProducts)

	tests := []struct {
		name  string
		query string
	}{
		{name: "Non-numeric min_price", query: "?min_price=abc"},
		{name: "Non-numeric max_price", query: "?max_price=abc"},
		{name: "Inverted range", query: "?min_price=100&max_price=10"},
		{name: "Negative limit", query: "?limit=-5"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/products"+tt.query, nil)
			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)

			assert.Equal(t, http.StatusBadRequest, w.Code)
		})
	}
}

func TestProductController_GetProductByID_NotFound(t *testing.T) {
	controller, router, _ := setupProductControllerTest(t)
	router.GET("/products/:id", controller.GetProductByID)

	req := httptest.NewRequest(http.MethodGet, "/products/9999", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestProductController_ListCategories(t *testing.T) {
	controller, router, _ := setupProductControllerTest(t)
	router.GET("/products/categories", controller.ListCategories)

	req := httptest.NewRequest(http.MethodGet, "/products/categories", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)

	var response struct {
		Categories []string `json:"categories"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	assert.Equal(t, []string{"Electronics", "Home"}, response.Categories)
}

func TestProductController_SuggestNames(t *testing.T) {
	controller, router, _ := setupProductControllerTest(t)
	router.GET("/products/search/suggestions", controller.SuggestNames)

	req := httptest.NewRequest(http.MethodGet, "/products/search/suggestions?q=wi", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)

	var response struct {
		Suggestions []string `json:"suggestions"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	assert.Equal(t, []string{"Wireless Headphones"}, response.Suggestions)
}

func TestProductController_SuggestNames_TooShort(t *testing.T) {
	controller, router, _ := setupProductControllerTest(t)
	router.GET("/products/search/suggestions", controller.SuggestNames)

	req := httptest.NewRequest(http.MethodGet, "/products/search/suggestions?q=w", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)

	var response map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	assert.Equal(t, "VALIDATION_QUERY_TOO_SHORT", response["error"])
}

func TestProductController_CreateProduct(t *testing.T) {
	controller, router, _ := setupProductControllerTest(t)
	router.POST("/products", controller.CreateProduct)

	jsonBody, _ := json.Marshal(CreateProductRequest{
		Name:     "Desk Lamp",
		Price:    34.50,
		Category: "Home",
		Stock:    25,
	})
	req := httptest.NewRequest(http.MethodPost, "/products", bytes.NewBuffer(jsonBody))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusCreated, w.Code)

	var response struct {
		Product model.Product `json:"product"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	assert.NotZero(t, response.Product.ID)
	assert.Equal(t, "Desk Lamp", response.Product.Name)
}

func TestProductController_CreateProduct_InvalidInput(t *testing.T) {
	controller, router, _ := setupProductControllerTest(t)
	router.POST("/products", controller.CreateProduct)

	tests := []struct {
		name string
		body map[string]interface{}
	}{
		{name: "Missing name", body: map[string]interface{}{"price": 10.0}},
		{name: "Missing price", body: map[string]interface{}{"name": "X"}},
		{name: "Zero price", body: map[string]interface{}{"name": "X", "price": 0}},
		{name: "Negative stock", body: map[string]interface{}{"name": "X", "price": 10.0, "stock": -1}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			jsonBody, _ := json.Marshal(tt.body)
			req := httptest.NewRequest(http.MethodPost, "/products", bytes.NewBuffer(jsonBody))
			req.Header.Set("Content-Type", "application/json")
			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)

			assert.Equal(t, http.StatusBadRequest, w.Code)
		})
	}
}

func TestProductController_UpdateProduct(t *testing.T) {
	controller, router, testDB := setupProductControllerTest(t)
	router.PUT("/products/:id", controller.UpdateProduct)

	var product model.Product
	require.NoError(t, testDB.Where("name = ?", "Coffee Mug").First(&product).Error)

	jsonBody, _ := json.Marshal(CreateProductRequest{
		Name:     "Travel Mug",
		Price:    24.99,
		Category: "Kitchen",
		Stock:    10,
	})
	req := httptest.NewRequest(http.MethodPut, "/products/"+uintStr(product.ID), bytes.NewBuffer(jsonBody))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)

	var response struct {
		Product model.Product `json:"product"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	assert.Equal(t, "Travel Mug", response.Product.Name)
	assert.InDelta(t, 24.99, response.Product.Price, 0.001)

	// The rating survives a catalog update
	var updated model.Product
	require.NoError(t, testDB.First(&updated, product.ID).Error)
	assert.Equal(t, "Kitchen", updated.Category)
	assert.InDelta(t, 4.0, updated.Rating, 0.001)
}

func TestProductController_UpdateProduct_NotFound(t *testing.T) {
	controller, router, _ := setupProductControllerTest(t)
	router.PUT("/products/:id", controller.UpdateProduct)

	jsonBody, _ := json.Marshal(CreateProductRequest{Name: "Ghost", Price: 1.00})
	req := httptest.NewRequest(http.MethodPut, "/products/9999", bytes.NewBuffer(jsonBody))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNotFound, w.Code)

	var response map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	assert.Equal(t, "PRODUCT_NOT_FOUND", response["error"])
}

func TestProductController_DeleteProduct(t *testing.T) {
	controller, router, testDB := setupProductControllerTest(t)
	router.DELETE("/products/:id", controller.DeleteProduct)

	var product model.Product
	require.NoError(t, testDB.Where("name = ?", "Coffee Mug").First(&product).Error)

	req := httptest.NewRequest(http.MethodDelete, "/products/"+uintStr(product.ID), nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)

	// The product is gone from the catalog
	err := testDB.First(&model.Product{}, product.ID).Error
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)

	// A second delete misses
	req = httptest.NewRequest(http.MethodDelete, "/products/"+uintStr(product.ID), nil)
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNotFound, w.Code)
}
