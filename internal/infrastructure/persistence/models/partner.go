package models

import (
	"github.com/erp/backoffice/internal/domain/partner"
)

// CustomerModel is the persistence model for the Customer aggregate root.
type CustomerModel struct {
	AggregateModel
	Name    string `gorm:"type:varchar(200);not null;index"`
	Phone   string `gorm:"type:varchar(30);not null;index"`
	Email   string `gorm:"type:varchar(200)"`
	Address string `gorm:"type:text"`
	Notes   string `gorm:"type:text"`
}

// TableName returns the table name for GORM
func (CustomerModel) TableName() string {
	return "customers"
}

// ToDomain converts the persistence model to a domain Customer entity.
func (m *CustomerModel) ToDomain() *partner.Customer {
	return &partner.Customer{
		BaseAggregateRoot: m.ToDomainAggregateRoot(),
		Name:              m.Name,
		Phone:             m.Phone,
		Email:             m.Email,
		Address:           m.Address,
		Notes:             m.Notes,
	}
}

// FromDomain populates the persistence model from a domain Customer entity.
func (m *CustomerModel) FromDomain(c *partner.Customer) {
	m.FromDomainAggregateRoot(c.BaseAggregateRoot)
	m.Name = c.Name
	m.Phone = c.Phone
	m.Email = c.Email
	m.Address = c.Address
	m.Notes = c.Notes
}

// CustomerModelFromDomain creates a new persistence model from domain entity.
func CustomerModelFromDomain(c *partner.Customer) *CustomerModel {
	m := &CustomerModel{}
	m.FromDomain(c)
	return m
}
