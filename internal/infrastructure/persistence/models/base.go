package models

import (
	"time"

	"github.com/erp/backoffice/internal/domain/shared"
	"github.com/google/uuid"
)

// BaseModel provides common persistence fields for all models.
// It maps to the domain's BaseEntity.
type BaseModel struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey"`
	CreatedAt time.Time `gorm:"not null"`
	UpdatedAt time.Time `gorm:"not null"`
}

// ToDomain converts BaseModel to domain BaseEntity
func (m *BaseModel) ToDomain() shared.BaseEntity {
	return shared.BaseEntity{
		ID:        m.ID,
		CreatedAt: m.CreatedAt,
		UpdatedAt: m.UpdatedAt,
	}
}

// FromDomainBaseEntity populates BaseModel from domain BaseEntity
func (m *BaseModel) FromDomainBaseEntity(e shared.BaseEntity) {
	m.ID = e.ID
	m.CreatedAt = e.CreatedAt
	m.UpdatedAt = e.UpdatedAt
}

// AggregateModel provides common persistence fields for aggregate roots:
// the optimistic lock version, the soft delete flag and the creator.
type AggregateModel struct {
	BaseModel
	Version   int        `gorm:"not null;default:1"`
	IsActive  bool       `gorm:"not null;default:true;index"`
	CreatedBy *uuid.UUID `gorm:"type:uuid"`
}

// FromDomainAggregateRoot populates AggregateModel from domain BaseAggregateRoot
func (m *AggregateModel) FromDomainAggregateRoot(a shared.BaseAggregateRoot) {
	m.FromDomainBaseEntity(a.BaseEntity)
	m.Version = a.Version
	m.IsActive = a.IsActive
	m.CreatedBy = a.CreatedBy
}

// ToDomainAggregateRoot converts AggregateModel to domain BaseAggregateRoot
func (m *AggregateModel) ToDomainAggregateRoot() shared.BaseAggregateRoot {
	return shared.BaseAggregateRoot{
		BaseEntity: m.BaseModel.ToDomain(),
		Version:    m.Version,
		IsActive:   m.IsActive,
		CreatedBy:  m.CreatedBy,
	}
}

// All returns every persistence model in dependency order, for AutoMigrate.
func All() []any {
	return []any{
		&CustomerModel{},
		&ProductModel{},
		&OrderModel{},
		&OrderItemModel{},
		&SaleModel{},
		&SaleItemModel{},
		&InvoiceSequenceModel{},
		&PayableModel{},
		&PayablePaymentModel{},
	}
}
