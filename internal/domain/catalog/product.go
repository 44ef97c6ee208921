package catalog

import (
	"fmt"
	"strings"

	"github.com/erp/backoffice/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// Product is a catalog item sold through orders and sales
type Product struct {
	shared.BaseAggregateRoot
	Name        string
	SKU         string
	Description string
	Price       decimal.Decimal
	Quantity    int // stock on hand
}

// NewProduct creates a new active product
func NewProduct(name, sku string, price decimal.Decimal, quantity int) (*Product, error) {
	p := &Product{BaseAggregateRoot: shared.NewBaseAggregateRoot()}
	if err := p.apply(name, sku, price); err != nil {
		return nil, err
	}
	if quantity < 0 {
		return nil, shared.NewDomainError("INVALID_QUANTITY", "Stock quantity cannot be negative").WithField("quantity", "must be 0 or more")
	}
	p.Quantity = quantity
	return p, nil
}

// Update updates the product's descriptive fields and price
func (p *Product) Update(name, sku, description string, price decimal.Decimal) error {
	if err := p.apply(name, sku, price); err != nil {
		return err
	}
	p.Description = description
	p.Touch()
	p.IncrementVersion()
	return nil
}

// AdjustStock changes stock on hand by delta
func (p *Product) AdjustStock(delta int) error {
	if p.Quantity+delta < 0 {
		return shared.NewConflictError("INSUFFICIENT_STOCK",
			fmt.Sprintf("Cannot remove %d units of %s: only %d in stock", -delta, p.Name, p.Quantity))
	}
	p.Quantity += delta
	p.Touch()
	p.IncrementVersion()
	return nil
}

// HasStock reports whether qty units can be sold
func (p *Product) HasStock(qty int) bool {
	return qty > 0 && p.Quantity >= qty
}

// EnsureStock returns an error when qty units are not available
func (p *Product) EnsureStock(qty int) error {
	if !p.HasStock(qty) {
		return shared.NewDomainError("INSUFFICIENT_STOCK",
			fmt.Sprintf("Insufficient stock for %s: requested %d, available %d", p.Name, qty, p.Quantity))
	}
	return nil
}

func (p *Product) apply(name, sku string, price decimal.Decimal) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return shared.NewDomainError("INVALID_NAME", "Product name cannot be empty").WithField("name", "required")
	}
	if len(name) > 200 {
		return shared.NewDomainError("INVALID_NAME", "Product name cannot exceed 200 characters").WithField("name", "too long")
	}
	if len(sku) > 50 {
		return shared.NewDomainError("INVALID_SKU", "SKU cannot exceed 50 characters").WithField("sku", "too long")
	}
	if price.IsNegative() {
		return shared.NewDomainError("INVALID_PRICE", "Price cannot be negative").WithField("price", "must be 0 or more")
	}
	p.Name = name
	p.SKU = strings.ToUpper(strings.TrimSpace(sku))
	p.Price = price.Round(2)
	return nil
}
