package catalog

import (
	"time"

	"github.com/erp/backoffice/internal/domain/catalog"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// CreateProductRequest represents a request to create a new product
type CreateProductRequest struct {
	Name        string          `json:"name" binding:"required,min=1,max=200"`
	SKU         string          `json:"sku" binding:"max=50"`
	Description string          `json:"description"`
	Price       decimal.Decimal `json:"price"`
	Quantity    int             `json:"quantity" binding:"min=0"`
	CreatedBy   *uuid.UUID      `json:"-"`
}

// UpdateProductRequest represents a request to update a product
type UpdateProductRequest struct {
	Name        *string          `json:"name" binding:"omitempty,min=1,max=200"`
	SKU         *string          `json:"sku" binding:"omitempty,max=50"`
	Description *string          `json:"description"`
	Price       *decimal.Decimal `json:"price"`
}

// AdjustStockRequest changes stock on hand by a signed delta
type AdjustStockRequest struct {
	Delta  int    `json:"delta" binding:"required"`
	Reason string `json:"reason" binding:"max=200"`
}

// ProductListFilter represents filter options for product list
type ProductListFilter struct {
	Search          string `form:"search"`
	InStock         bool   `form:"in_stock"`
	IncludeInactive bool   `form:"include_inactive"`
	Page            int    `form:"page" binding:"omitempty,min=1"`
	PageSize        int    `form:"page_size" binding:"omitempty,min=1,max=100"`
	OrderBy         string `form:"order_by"`
	OrderDir        string `form:"order_dir" binding:"omitempty,oneof=asc desc"`
}

// ProductResponse represents a product in API responses
type ProductResponse struct {
	ID          uuid.UUID       `json:"id"`
	Name        string          `json:"name"`
	SKU         string          `json:"sku,omitempty"`
	Description string          `json:"description,omitempty"`
	Price       decimal.Decimal `json:"price"`
	Quantity    int             `json:"quantity"`
	InStock     bool            `json:"in_stock"`
	IsActive    bool            `json:"is_active"`
	Version     int             `json:"version"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
}

// ToProductResponse converts a domain Product to ProductResponse
func ToProductResponse(p *catalog.Product) ProductResponse {
	return ProductResponse{
		ID:          p.ID,
		Name:        p.Name,
		SKU:         p.SKU,
		Description: p.Description,
		Price:       p.Price,
		Quantity:    p.Quantity,
		InStock:     p.Quantity > 0,
		IsActive:    p.IsActive,
		Version:     p.Version,
		CreatedAt:   p.CreatedAt,
		UpdatedAt:   p.UpdatedAt,
	}
}

// ToProductResponses converts a slice of domain Products
func ToProductResponses(products []catalog.Product) []ProductResponse {
	responses := make([]ProductResponse, len(products))
	for i := range products {
		responses[i] = ToProductResponse(&products[i])
	}
	return responses
}
