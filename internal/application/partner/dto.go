package partner

import (
	"time"

	"github.com/erp/backoffice/internal/domain/partner"
	"github.com/google/uuid"
)

// CreateCustomerRequest represents a request to create a new customer
type CreateCustomerRequest struct {
	Name      string     `json:"name" binding:"required,min=1,max=200"`
	Phone     string     `json:"phone" binding:"required,min=1,max=30"`
	Email     string     `json:"email" binding:"omitempty,email,max=200"`
	Address   string     `json:"address" binding:"max=500"`
	Notes     string     `json:"notes"`
	CreatedBy *uuid.UUID `json:"-"` // Set from JWT context, not from request body
}

// UpdateCustomerRequest represents a request to update a customer.
// Nil fields are left unchanged.
type UpdateCustomerRequest struct {
	Name    *string `json:"name" binding:"omitempty,min=1,max=200"`
	Phone   *string `json:"phone" binding:"omitempty,min=1,max=30"`
	Email   *string `json:"email" binding:"omitempty,email,max=200"`
	Address *string `json:"address" binding:"omitempty,max=500"`
	Notes   *string `json:"notes"`
}

// CustomerListFilter represents filter options for customer list
type CustomerListFilter struct {
	Search          string `form:"search"`
	IncludeInactive bool   `form:"include_inactive"`
	Page            int    `form:"page" binding:"omitempty,min=1"`
	PageSize        int    `form:"page_size" binding:"omitempty,min=1,max=100"`
	OrderBy         string `form:"order_by"`
	OrderDir        string `form:"order_dir" binding:"omitempty,oneof=asc desc"`
}

// CustomerResponse represents a customer in API responses
type CustomerResponse struct {
	ID        uuid.UUID  `json:"id"`
	Name      string     `json:"name"`
	Phone     string     `json:"phone"`
	Email     string     `json:"email,omitempty"`
	Address   string     `json:"address,omitempty"`
	Notes     string     `json:"notes,omitempty"`
	IsActive  bool       `json:"is_active"`
	Version   int        `json:"version"`
	CreatedBy *uuid.UUID `json:"created_by,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
}

// ToCustomerResponse converts a domain Customer to CustomerResponse
func ToCustomerResponse(c *partner.Customer) CustomerResponse {
	return CustomerResponse{
		ID:        c.ID,
		Name:      c.Name,
		Phone:     c.Phone,
		Email:     c.Email,
		Address:   c.Address,
		Notes:     c.Notes,
		IsActive:  c.IsActive,
		Version:   c.Version,
		CreatedBy: c.CreatedBy,
		CreatedAt: c.CreatedAt,
		UpdatedAt: c.UpdatedAt,
	}
}

// ToCustomerResponses converts a slice of domain Customers
func ToCustomerResponses(customers []partner.Customer) []CustomerResponse {
	responses := make([]CustomerResponse, len(customers))
	for i := range customers {
		responses[i] = ToCustomerResponse(&customers[i])
	}
	return responses
}
