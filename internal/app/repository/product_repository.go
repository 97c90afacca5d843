package repository

import (
	"fmt"
	"strings"

	"github.com/jwoo/shopflow-backend/internal/app/model"
	"github.com/jwoo/shopflow-backend/pkg/logger"
	"gorm.io/gorm"
)

type ProductSort string

const (
	ProductSortName      ProductSort = "name"
	ProductSortPrice     ProductSort = "price"
	ProductSortRating    ProductSort = "rating"
	ProductSortCreatedAt ProductSort = "created_at"
)

// DefaultProductLimit caps catalog result sets. Requests above the cap
// are clamped, not rejected.
const DefaultProductLimit = 100

type ProductFilter struct {
	Search        string
	Category      string
	MinPrice      *float64
	MaxPrice      *float64
	SortBy        ProductSort
	SortAscending bool
	Limit         int
}

type ProductRepository interface {
	Create(product *model.Product) error
	FindByID(id uint) (*model.Product, error)
	FindWithFilter(filter ProductFilter) ([]model.Product, error)
	ListCategories() ([]string, error)
	SuggestNames(prefix string, limit int) ([]string, error)
	Update(product *model.Product) error
	Delete(id uint) error
}

type productRepository struct {
	db *gorm.DB
}

func NewProductRepository(db *gorm.DB) ProductRepository {
	return &productRepository{db: db}
}

func (r *productRepository) Create(product *model.Product) error {
	logger.Debug("Creating product in database", map[string]interface{}{
		"name":     product.Name,
		"category": product.Category,
		"price":    product.Price,
	})

	if err := r.db.Create(product).Error; err != nil {
		logger.Error("Failed to create product in database", err, map[string]interface{}{
			"name":     product.Name,
			"category": product.Category,
		})
		return err
	}

	logger.Debug("Product created in database", map[string]interface{}{
		"product_id": product.ID,
		"name":       product.Name,
	})
	return nil
}

func (r *productRepository) FindByID(id uint) (*model.Product, error) {
	logger.Debug("Finding product by ID in database", map[string]interface{}{
		"product_id": id,
	})

	var product model.Product
	if err := r.db.First(&product, id).Error; err != nil {
		logger.Error("Failed to find product by ID in database", err, map[string]interface{}{
			"product_id": id,
		})
		return nil, err
	}

	return &product, nil
}

func (r *productRepository) FindWithFilter(filter ProductFilter) ([]model.Product, error) {
	logger.Debug("Finding products with filter", map[string]interface{}{
		"search":    filter.Search,
		"category":  filter.Category,
		"min_price": filter.MinPrice,
		"max_price": filter.MaxPrice,
		"sort_by":   filter.SortBy,
		"ascending": filter.SortAscending,
		"limit":     filter.Limit,
	})

	query := r.db.Model(&model.Product{})

	if filter.Search != "" {
		// LOWER() keeps the match case-insensitive on both postgres and sqlite
		like := fmt.Sprintf("%%%s%%", strings.ToLower(filter.Search))
		query = query.Where("LOWER(products.name) LIKE ? OR LOWER(products.description) LIKE ?", like, like)
	}

	if filter.Category != "" {
		query = query.Where("products.category = ?", filter.Category)
	}

	if filter.MinPrice != nil {
		query = query.Where("products.price >= ?", *filter.MinPrice)
	}

	if filter.MaxPrice != nil {
		query = query.Where("products.price <= ?", *filter.MaxPrice)
	}

	direction := "DESC"
	if filter.SortAscending {
		direction = "ASC"
	}

	// Sort column is whitelisted through the switch; raw input never
	// reaches the ORDER BY clause.
	switch filter.SortBy {
	case ProductSortName:
		query = query.Order("products.name " + direction)
	case ProductSortPrice:
		query = query.Order("products.price " + direction)
	case ProductSortRating:
		query = query.Order("products.rating " + direction)
	case ProductSortCreatedAt:
		query = query.Order("products.created_at " + direction)
	default:
		query = query.Order("products.created_at DESC")
	}

	limit := filter.Limit
	if limit <= 0 || limit > DefaultProductLimit {
		limit = DefaultProductLimit
	}
	query = query.Limit(limit)

	var products []model.Product
	if err := query.Find(&products).Error; err != nil {
		logger.Error("Failed to find products with filter", err, map[string]interface{}{
			"search":   filter.Search,
			"category": filter.Category,
		})
		return nil, err
	}

	logger.Debug("Products found with filter", map[string]interface{}{
		"count": len(products),
	})
	return products, nil
}

func (r *productRepository) ListCategories() ([]string, error) {
	logger.Debug("Listing distinct product categories", nil)

	var categories []string
	if err := r.db.Model(&model.Product{}).
		Where("category IS NOT NULL AND category <> ''").
		Distinct().
		Order("category ASC").
		Pluck("category", &categories).Error; err != nil {
		logger.Error("Failed to fetch distinct categories", err, nil)
		return nil, err
	}

	return categories, nil
}

func (r *productRepository) SuggestNames(prefix string, limit int) ([]string, error) {
	logger.Debug("Suggesting product names by prefix", map[string]interface{}{
		"prefix": prefix,
		"limit":  limit,
	})

	like := fmt.Sprintf("%s%%", strings.ToLower(prefix))

	var names []string
	if err := r.db.Model(&model.Product{}).
		Where("LOWER(products.name) LIKE ?", like).
		Order("products.name ASC").
		Limit(limit).
		Pluck("name", &names).Error; err != nil {
		logger.Error("Failed to suggest product names", err, map[string]interface{}{
			"prefix": prefix,
		})
		return nil, err
	}

	return names, nil
}

func (r *productRepository) Update(product *model.Product) error {
	logger.Debug("Updating product in database", map[string]interface{}{
		"product_id": product.ID,
		"name":       product.Name,
	})

	if err := r.db.Save(product).Error; err != nil {
		logger.Error("Failed to update product in database", err, map[string]interface{}{
			"product_id": product.ID,
		})
		return err
	}

	return nil
}

func (r *productRepository) Delete(id uint) error {
	logger.Debug("Deleting product from database", map[string]interface{}{
		"product_id": id,
	})

	if err := r.db.Delete(&model.Product{}, id).Error; err != nil {
		logger.Error("Failed to delete product from database", err, map[string]interface{}{
			"product_id": id,
		})
		return err
	}

	return nil
}
