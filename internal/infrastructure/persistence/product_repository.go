package persistence

import (
	"context"
	"errors"

	"github.com/erp/backoffice/internal/domain/catalog"
	"github.com/erp/backoffice/internal/domain/shared"
	"github.com/erp/backoffice/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GormProductRepository implements ProductRepository using GORM
type GormProductRepository struct {
	db *gorm.DB
}

// NewGormProductRepository creates a new GormProductRepository
func NewGormProductRepository(db *gorm.DB) *GormProductRepository {
	return &GormProductRepository{db: db}
}

// FindByID finds a product by its ID
func (r *GormProductRepository) FindByID(ctx context.Context, id uuid.UUID) (*catalog.Product, error) {
	var model models.ProductModel
	if err := conn(ctx, r.db).First(&model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.NewNotFoundError("Product")
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindActiveByID finds a product that has not been soft-deleted
func (r *GormProductRepository) FindActiveByID(ctx context.Context, id uuid.UUID) (*catalog.Product, error) {
	var model models.ProductModel
	if err := conn(ctx, r.db).Where("id = ? AND is_active = ?", id, true).First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.NewNotFoundError("Product")
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindAll finds all products matching the filter
func (r *GormProductRepository) FindAll(ctx context.Context, filter shared.Filter) ([]catalog.Product, error) {
	var productModels []models.ProductModel
	query := applyPaging(r.filtered(ctx, filter), filter, ProductSortFields)
	if err := query.Find(&productModels).Error; err != nil {
		return nil, err
	}

	products := make([]catalog.Product, len(productModels))
	for i, model := range productModels {
		products[i] = *model.ToDomain()
	}
	return products, nil
}

// Count counts products matching the filter
func (r *GormProductRepository) Count(ctx context.Context, filter shared.Filter) (int64, error) {
	var count int64
	if err := r.filtered(ctx, filter).Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// ExistsBySKU checks if another product already uses the SKU
func (r *GormProductRepository) ExistsBySKU(ctx context.Context, sku string, excludeID uuid.UUID) (bool, error) {
	if sku == "" {
		return false, nil
	}
	var count int64
	query := conn(ctx, r.db).Model(&models.ProductModel{}).Where("sku = ?", sku)
	if excludeID != uuid.Nil {
		query = query.Where("id <> ?", excludeID)
	}
	if err := query.Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// Save creates or updates a product
func (r *GormProductRepository) Save(ctx context.Context, product *catalog.Product) error {
	return conn(ctx, r.db).Save(models.ProductModelFromDomain(product)).Error
}

func (r *GormProductRepository) filtered(ctx context.Context, filter shared.Filter) *gorm.DB {
	query := applyActive(conn(ctx, r.db).Model(&models.ProductModel{}), filter)
	query = applySearch(query, filter.Search, "name", "sku")
	if inStock, ok := filter.Filters["in_stock"].(bool); ok && inStock {
		query = query.Where("quantity > 0")
	}
	return query
}
