package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jwoo/shopflow-backend/internal/app/model"
	"github.com/jwoo/shopflow-backend/internal/app/repository"
	"github.com/jwoo/shopflow-backend/pkg/logger"
	"github.com/jwoo/shopflow-backend/pkg/redis"
	"gorm.io/gorm"
)

var ErrQueryTooShort = errors.New("search query must be at least 2 characters")

// SuggestionLimit caps the autocomplete result set
const SuggestionLimit = 8

const (
	categoriesCacheKey     = "catalog:categories"
	suggestionsCachePrefix = "catalog:suggest:"
)

type ProductService interface {
	ListProducts(filter repository.ProductFilter) ([]model.Product, error)
	GetProductByID(id uint) (*model.Product, error)
	CreateProduct(product *model.Product) error
	UpdateProduct(product *model.Product) (*model.Product, error)
	DeleteProduct(id uint) error
	ListCategories(ctx context.Context) ([]string, error)
	SuggestNames(ctx context.Context, query string) ([]string, error)
}

type productService struct {
	productRepo repository.ProductRepository
	cacheTTL    time.Duration
}

func NewProductService(productRepo repository.ProductRepository, cacheTTL time.Duration) ProductService {
	return &productService{
		productRepo: productRepo,
		cacheTTL:    cacheTTL,
	}
}

func (s *productService) ListProducts(filter repository.ProductFilter) ([]model.Product, error) {
	logger.Debug("Listing products", map[string]interface{}{
		"search":   filter.Search,
		"category": filter.Category,
		"sort_by":  filter.SortBy,
	})

	products, err := s.productRepo.FindWithFilter(filter)
	if err != nil {
		logger.Error("Failed to list products", err, nil)
		return nil, err
	}

	return products, nil
}

func (s *productService) GetProductByID(id uint) (*model.Product, error) {
	product, err := s.productRepo.FindByID(id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrProductNotFound
		}
		return nil, err
	}
	return product, nil
}

func (s *productService) CreateProduct(product *model.Product) error {
	logger.Info("Creating product", map[string]interface{}{
		"name":     product.Name,
		"category": product.Category,
		"price":    product.Price,
	})

	if err := s.productRepo.Create(product); err != nil {
		return err
	}

	// Stale category cache would hide a brand new category
	if err := redis.InvalidateCached(context.Background(), categoriesCacheKey); err != nil {
		logger.Warn("Failed to invalidate category cache", map[string]interface{}{
			"error": err.Error(),
		})
	}

	return nil
}

// UpdateProduct overwrites the catalog fields of an existing product.
// Rating counters and timestamps survive the update.
func (s *productService) UpdateProduct(product *model.Product) (*model.Product, error) {
	existing, err := s.productRepo.FindByID(product.ID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrProductNotFound
		}
		return nil, err
	}

	existing.Name = product.Name
	existing.Description = product.Description
	existing.Price = product.Price
	existing.Category = product.Category
	existing.Stock = product.Stock
	existing.ImageURL = product.ImageURL

	if err := s.productRepo.Update(existing); err != nil {
		return nil, err
	}

	logger.Info("Product updated", map[string]interface{}{
		"product_id": existing.ID,
		"name":       existing.Name,
	})

	// The update may have moved the product to another category
	if err := redis.InvalidateCached(context.Background(), categoriesCacheKey); err != nil {
		logger.Warn("Failed to invalidate category cache", map[string]interface{}{
			"error": err.Error(),
		})
	}

	return existing, nil
}

func (s *productService) DeleteProduct(id uint) error {
	if _, err := s.productRepo.FindByID(id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrProductNotFound
		}
		return err
	}

	if err := s.productRepo.Delete(id); err != nil {
		return err
	}

	logger.Info("Product deleted", map[string]interface{}{
		"product_id": id,
	})

	if err := redis.InvalidateCached(context.Background(), categoriesCacheKey); err != nil {
		logger.Warn("Failed to invalidate category cache", map[string]interface{}{
			"error": err.Error(),
		})
	}

	return nil
}

// ListCategories returns the distinct category labels, read through the
// redis cache when one is configured.
func (s *productService) ListCategories(ctx context.Context) ([]string, error) {
	if cached, hit, _ := redis.GetCached(ctx, categoriesCacheKey); hit {
		var categories []string
		if err := json.Unmarshal([]byte(cached), &categories); err == nil {
			logger.Debug("Category list served from cache", map[string]interface{}{
				"count": len(categories),
			})
			return categories, nil
		}
	}

	categories, err := s.productRepo.ListCategories()
	if err != nil {
		return nil, err
	}

	if payload, err := json.Marshal(categories); err == nil {
		_ = redis.SetCached(ctx, categoriesCacheKey, string(payload), s.cacheTTL)
	}

	return categories, nil
}

// SuggestNames returns up to SuggestionLimit product names that start with
// the query, case-insensitively. Queries shorter than 2 characters are
// rejected so a single keystroke never scans the catalog.
func (s *productService) SuggestNames(ctx context.Context, query string) ([]string, error) {
	query = strings.TrimSpace(query)
	if len(query) < 2 {
		return nil, ErrQueryTooShort
	}

	cacheKey := fmt.Sprintf("%s%s", suggestionsCachePrefix, strings.ToLower(query))
	if cached, hit, _ := redis.GetCached(ctx, cacheKey); hit {
		var names []string
		if err := json.Unmarshal([]byte(cached), &names); err == nil {
			return names, nil
		}
	}

	names, err := s.productRepo.SuggestNames(query, SuggestionLimit)
	if err != nil {
		logger.Error("Failed to fetch name suggestions", err, map[string]interface{}{
			"query": query,
		})
		return nil, err
	}

	if payload, err := json.Marshal(names); err == nil {
		_ = redis.SetCached(ctx, cacheKey, string(payload), s.cacheTTL)
	}

	return names, nil
}
