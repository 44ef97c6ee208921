package catalog

import (
	"context"

	"github.com/erp/backoffice/internal/domain/catalog"
	"github.com/erp/backoffice/internal/domain/shared"
	"github.com/erp/backoffice/internal/infrastructure/logger"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ProductService handles product-related business operations
type ProductService struct {
	productRepo catalog.ProductRepository
}

// NewProductService creates a new ProductService
func NewProductService(productRepo catalog.ProductRepository) *ProductService {
	return &ProductService{productRepo: productRepo}
}

// Create creates a new product
func (s *ProductService) Create(ctx context.Context, req CreateProductRequest) (*ProductResponse, error) {
	product, err := catalog.NewProduct(req.Name, req.SKU, req.Price, req.Quantity)
	if err != nil {
		return nil, err
	}
	if err := s.ensureUniqueSKU(ctx, product.SKU, uuid.Nil); err != nil {
		return nil, err
	}
	product.Description = req.Description
	product.SetCreatedBy(req.CreatedBy)

	if err := s.productRepo.Save(ctx, product); err != nil {
		return nil, err
	}
	logger.L(ctx).Info("product created",
		zap.String("product_id", product.ID.String()),
		zap.String("sku", product.SKU))

	response := ToProductResponse(product)
	return &response, nil
}

// GetByID retrieves a product by ID
func (s *ProductService) GetByID(ctx context.Context, productID uuid.UUID) (*ProductResponse, error) {
	product, err := s.productRepo.FindByID(ctx, productID)
	if err != nil {
		return nil, err
	}
	response := ToProductResponse(product)
	return &response, nil
}

// List retrieves products with search and pagination
func (s *ProductService) List(ctx context.Context, filter ProductListFilter) ([]ProductResponse, int64, error) {
	domainFilter := shared.Filter{
		Page:            filter.Page,
		PageSize:        filter.PageSize,
		OrderBy:         filter.OrderBy,
		OrderDir:        filter.OrderDir,
		Search:          filter.Search,
		IncludeInactive: filter.IncludeInactive,
	}.Normalize()
	if filter.InStock {
		domainFilter.Filters["in_stock"] = true
	}

	products, err := s.productRepo.FindAll(ctx, domainFilter)
	if err != nil {
		return nil, 0, err
	}
	total, err := s.productRepo.Count(ctx, domainFilter)
	if err != nil {
		return nil, 0, err
	}
	return ToProductResponses(products), total, nil
}

// Update updates a product. Existing order and sale lines keep the name and
// price they were created with.
func (s *ProductService) Update(ctx context.Context, productID uuid.UUID, req UpdateProductRequest) (*ProductResponse, error) {
	product, err := s.productRepo.FindActiveByID(ctx, productID)
	if err != nil {
		return nil, err
	}

	name, sku, description, price := product.Name, product.SKU, product.Description, product.Price
	if req.Name != nil {
		name = *req.Name
	}
	if req.SKU != nil {
		sku = *req.SKU
	}
	if req.Description != nil {
		description = *req.Description
	}
	if req.Price != nil {
		price = *req.Price
	}
	if err := product.Update(name, sku, description, price); err != nil {
		return nil, err
	}
	if err := s.ensureUniqueSKU(ctx, product.SKU, product.ID); err != nil {
		return nil, err
	}

	if err := s.productRepo.Save(ctx, product); err != nil {
		return nil, err
	}
	response := ToProductResponse(product)
	return &response, nil
}

// AdjustStock changes stock on hand by req.Delta
func (s *ProductService) AdjustStock(ctx context.Context, productID uuid.UUID, req AdjustStockRequest) (*ProductResponse, error) {
	if req.Delta == 0 {
		return nil, shared.NewValidationError("INVALID_QUANTITY", "Stock adjustment cannot be zero").WithField("delta", "must not be 0")
	}
	product, err := s.productRepo.FindActiveByID(ctx, productID)
	if err != nil {
		return nil, err
	}
	before := product.Quantity
	if err := product.AdjustStock(req.Delta); err != nil {
		return nil, err
	}
	if err := s.productRepo.Save(ctx, product); err != nil {
		return nil, err
	}
	logger.L(ctx).Info("product stock adjusted",
		zap.String("product_id", product.ID.String()),
		zap.Int("before", before),
		zap.Int("after", product.Quantity),
		zap.String("reason", req.Reason))

	response := ToProductResponse(product)
	return &response, nil
}

// Delete soft-deletes a product
func (s *ProductService) Delete(ctx context.Context, productID uuid.UUID) error {
	product, err := s.productRepo.FindByID(ctx, productID)
	if err != nil {
		return err
	}
	if err := product.Deactivate(); err != nil {
		return err
	}
	return s.productRepo.Save(ctx, product)
}

// Restore reverses a soft delete
func (s *ProductService) Restore(ctx context.Context, productID uuid.UUID) (*ProductResponse, error) {
	product, err := s.productRepo.FindByID(ctx, productID)
	if err != nil {
		return nil, err
	}
	if err := product.Restore(); err != nil {
		return nil, err
	}
	if err := s.ensureUniqueSKU(ctx, product.SKU, product.ID); err != nil {
		return nil, err
	}
	if err := s.productRepo.Save(ctx, product); err != nil {
		return nil, err
	}
	response := ToProductResponse(product)
	return &response, nil
}

func (s *ProductService) ensureUniqueSKU(ctx context.Context, sku string, excludeID uuid.UUID) error {
	if sku == "" {
		return nil
	}
	exists, err := s.productRepo.ExistsBySKU(ctx, sku, excludeID)
	if err != nil {
		return err
	}
	if exists {
		return shared.NewConflictError("ALREADY_EXISTS", "Product with this SKU already exists").WithField("sku", "already in use")
	}
	return nil
}
