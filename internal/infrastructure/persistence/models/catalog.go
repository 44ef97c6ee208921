package models

import (
	"github.com/erp/backoffice/internal/domain/catalog"
	"github.com/shopspring/decimal"
)

// ProductModel is the persistence model for the Product aggregate root.
type ProductModel struct {
	AggregateModel
	Name        string          `gorm:"type:varchar(200);not null;index"`
	SKU         *string         `gorm:"column:sku;type:varchar(100);uniqueIndex"`
	Description string          `gorm:"type:text"`
	Price       decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	Quantity    int             `gorm:"not null;default:0"`
}

// TableName returns the table name for GORM
func (ProductModel) TableName() string {
	return "products"
}

// ToDomain converts the persistence model to a domain Product entity.
func (m *ProductModel) ToDomain() *catalog.Product {
	p := &catalog.Product{
		BaseAggregateRoot: m.ToDomainAggregateRoot(),
		Name:              m.Name,
		Description:       m.Description,
		Price:             m.Price,
		Quantity:          m.Quantity,
	}
	if m.SKU != nil {
		p.SKU = *m.SKU
	}
	return p
}

// FromDomain populates the persistence model from a domain Product entity.
// An empty SKU is stored as NULL so the unique index only covers real SKUs.
func (m *ProductModel) FromDomain(p *catalog.Product) {
	m.FromDomainAggregateRoot(p.BaseAggregateRoot)
	m.Name = p.Name
	m.SKU = nil
	if p.SKU != "" {
		sku := p.SKU
		m.SKU = &sku
	}
	m.Description = p.Description
	m.Price = p.Price
	m.Quantity = p.Quantity
}

// ProductModelFromDomain creates a new persistence model from domain entity.
func ProductModelFromDomain(p *catalog.Product) *ProductModel {
	m := &ProductModel{}
	m.FromDomain(p)
	return m
}
