package service

import (
	"testing"

	"github.com/jwoo/shopflow-backend/internal/app/model"
	"github.com/jwoo/shopflow-backend/internal/app/repository"
	"github.com/jwoo/shopflow-backend/internal/db"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestComputeUserStats(t *testing.T) {
	tests := []struct {
		name   string
		orders []model.Order
		want   UserStats
	}{
		{
			name:   "No orders",
			orders: nil,
			want:   UserStats{},
		},
		{
			name: "Single order",
			orders: []model.Order{
				{
					Total: 35.00,
					Items: []model.OrderItem{
						{Category: "Electronics", Quantity: 2},
						{Category: "Home", Quantity: 3},
					},
				},
			},
			want: UserStats{
				TotalOrders:      1,
				TotalSpent:       35.00,
				AverageOrder:     35.00,
				FavoriteCategory: "Home",
			},
		},
		{
			name: "Favorite is cumulative quantity across orders",
			orders: []model.Order{
				{
					Total: 50.00,
					Items: []model.OrderItem{{Category: "Home", Quantity: 3}},
				},
				{
					Total: 30.00,
					Items: []model.OrderItem{{Category: "Electronics", Quantity: 2}},
				},
				{
					Total: 20.00,
					Items: []model.OrderItem{{Category: "Electronics", Quantity: 2}},
				},
			},
			want: UserStats{
				TotalOrders:      3,
				TotalSpent:       100.00,
				AverageOrder:     100.00 / 3,
				FavoriteCategory: "Electronics",
			},
		},
		{
			name: "Quantity tie keeps the first-encountered category",
			orders: []model.Order{
				{
					Total: 10.00,
					Items: []model.OrderItem{
						{Category: "Books", Quantity: 2},
						{Category: "Toys", Quantity: 2},
					},
				},
			},
			want: UserStats{
				TotalOrders:      1,
				TotalSpent:       10.00,
				AverageOrder:     10.00,
				FavoriteCategory: "Books",
			},
		},
		{
			name: "Uncategorized items are skipped",
			orders: []model.Order{
				{
					Total: 10.00,
					Items: []model.OrderItem{
						{Category: "", Quantity: 10},
						{Category: "Home", Quantity: 1},
					},
				},
			},
			want: UserStats{
				TotalOrders:      1,
				TotalSpent:       10.00,
				AverageOrder:     10.00,
				FavoriteCategory: "Home",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ComputeUserStats(tt.orders)
			assert.Equal(t, tt.want.TotalOrders, got.TotalOrders)
			assert.InDelta(t, tt.want.TotalSpent, got.TotalSpent, 0.001)
			assert.InDelta(t, tt.want.AverageOrder, got.AverageOrder, 0.001)
			assert.Equal(t, tt.want.FavoriteCategory, got.FavoriteCategory)
		})
	}
}

func TestAnalyticsService_GetUserStats(t *testing.T) {
	testDB, err := db.SetupTestDB()
	require.NoError(t, err)
	t.Cleanup(func() { db.CleanupTestDB(testDB) })

	cartRepo := repository.NewCartRepository(testDB)
	productRepo := repository.NewProductRepository(testDB)
	orderRepo := repository.NewOrderRepository(testDB)
	userRepo := repository.NewUserRepository(testDB)

	cartSvc := NewCartService(cartRepo, productRepo)
	orderSvc := NewOrderService(orderRepo, cartRepo, userRepo, nil)
	analyticsSvc := NewAnalyticsService(orderRepo)

	user := &model.User{Email: "shopper@example.com", PasswordHash: "hash", Name: "Shopper"}
	testDB.Create(user)

	product := &model.Product{Name: "Coffee Mug", Price: 19.99, Category: "Home"}
	testDB.Create(product)

	// No orders yet: everything is zero
	stats, err := analyticsSvc.GetUserStats(user.ID)
	require.NoError(t, err)
	assert.Zero(t, stats.TotalOrders)
	assert.Zero(t, stats.AverageOrder)
	assert.Empty(t, stats.FavoriteCategory)

	_, err = cartSvc.AddItem(user.ID, product.ID, 2)
	require.NoError(t, err)
	_, err = orderSvc.Checkout(user.ID, "", "")
	require.NoError(t, err)

	stats, err = analyticsSvc.GetUserStats(user.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, stats.TotalOrders)
	assert.InDelta(t, 39.98, stats.TotalSpent, 0.001)
	assert.Equal(t, "Home", stats.FavoriteCategory)
}
