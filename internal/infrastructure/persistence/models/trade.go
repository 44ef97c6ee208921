package models

import (
	"encoding/json"
	"time"

	"github.com/erp/backoffice/internal/domain/trade"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
)

// OrderModel is the persistence model for the Order aggregate root.
type OrderModel struct {
	AggregateModel
	CustomerID           uuid.UUID         `gorm:"type:uuid;not null;index"`
	CustomerName         string            `gorm:"type:varchar(200);not null"`
	CustomerPhone        string            `gorm:"type:varchar(30)"`
	CustomerEmail        string            `gorm:"type:varchar(200)"`
	Description          string            `gorm:"type:text"`
	AdvancePayment       decimal.Decimal   `gorm:"type:decimal(12,2);not null;default:0"`
	TotalAmount          decimal.Decimal   `gorm:"type:decimal(12,2);not null;default:0"`
	RemainingAmount      decimal.Decimal   `gorm:"type:decimal(12,2);not null;default:0"`
	IsFullyPaid          bool              `gorm:"not null;default:false"`
	PaymentStatus        string            `gorm:"type:varchar(20);not null;default:'UNPAID'"`
	DateOrdered          time.Time         `gorm:"type:date;not null;index"`
	ExpectedDeliveryDate *time.Time        `gorm:"type:date"`
	Status               string            `gorm:"type:varchar(20);not null;default:'PENDING';index"`
	ConvertedSaleID      *uuid.UUID        `gorm:"type:uuid"`
	Items                []*OrderItemModel `gorm:"foreignKey:OrderID;references:ID"`
}

// TableName returns the table name for GORM
func (OrderModel) TableName() string {
	return "orders"
}

// ToDomain converts the persistence model to a domain Order aggregate.
func (m *OrderModel) ToDomain() *trade.Order {
	order := &trade.Order{
		BaseAggregateRoot:    m.ToDomainAggregateRoot(),
		CustomerID:           m.CustomerID,
		CustomerName:         m.CustomerName,
		CustomerPhone:        m.CustomerPhone,
		CustomerEmail:        m.CustomerEmail,
		Description:          m.Description,
		AdvancePayment:       m.AdvancePayment,
		TotalAmount:          m.TotalAmount,
		RemainingAmount:      m.RemainingAmount,
		IsFullyPaid:          m.IsFullyPaid,
		PaymentStatus:        trade.PaymentStatus(m.PaymentStatus),
		DateOrdered:          m.DateOrdered,
		ExpectedDeliveryDate: m.ExpectedDeliveryDate,
		Status:               trade.OrderStatus(m.Status),
		ConvertedSaleID:      m.ConvertedSaleID,
		Items:                make([]trade.OrderItem, len(m.Items)),
	}
	for i, item := range m.Items {
		order.Items[i] = *item.ToDomain()
	}
	return order
}

// FromDomain populates the persistence model from a domain Order aggregate.
// Items are converted separately by the repository.
func (m *OrderModel) FromDomain(o *trade.Order) {
	m.FromDomainAggregateRoot(o.BaseAggregateRoot)
	m.CustomerID = o.CustomerID
	m.CustomerName = o.CustomerName
	m.CustomerPhone = o.CustomerPhone
	m.CustomerEmail = o.CustomerEmail
	m.Description = o.Description
	m.AdvancePayment = o.AdvancePayment
	m.TotalAmount = o.TotalAmount
	m.RemainingAmount = o.RemainingAmount
	m.IsFullyPaid = o.IsFullyPaid
	m.PaymentStatus = string(o.PaymentStatus)
	m.DateOrdered = o.DateOrdered
	m.ExpectedDeliveryDate = o.ExpectedDeliveryDate
	m.Status = string(o.Status)
	m.ConvertedSaleID = o.ConvertedSaleID
}

// OrderModelFromDomain creates a new persistence model from domain entity.
func OrderModelFromDomain(o *trade.Order) *OrderModel {
	m := &OrderModel{}
	m.FromDomain(o)
	return m
}

// OrderItemModel is the persistence model for an order line item.
type OrderItemModel struct {
	BaseModel
	OrderID            uuid.UUID       `gorm:"type:uuid;not null;index"`
	ProductID          uuid.UUID       `gorm:"type:uuid;not null;index"`
	ProductName        string          `gorm:"type:varchar(200);not null"`
	UnitPrice          decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	Quantity           int             `gorm:"not null"`
	CustomizationNotes string          `gorm:"type:text"`
	LineTotal          decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	IsActive           bool            `gorm:"not null;default:true"`
}

// TableName returns the table name for GORM
func (OrderItemModel) TableName() string {
	return "order_items"
}

// ToDomain converts the persistence model to a domain OrderItem.
func (m *OrderItemModel) ToDomain() *trade.OrderItem {
	return &trade.OrderItem{
		ID:                 m.ID,
		OrderID:            m.OrderID,
		ProductID:          m.ProductID,
		ProductName:        m.ProductName,
		UnitPrice:          m.UnitPrice,
		Quantity:           m.Quantity,
		CustomizationNotes: m.CustomizationNotes,
		LineTotal:          m.LineTotal,
		IsActive:           m.IsActive,
		CreatedAt:          m.CreatedAt,
		UpdatedAt:          m.UpdatedAt,
	}
}

// OrderItemModelFromDomain creates a new persistence model from a domain OrderItem.
func OrderItemModelFromDomain(item *trade.OrderItem) *OrderItemModel {
	return &OrderItemModel{
		BaseModel: BaseModel{
			ID:        item.ID,
			CreatedAt: item.CreatedAt,
			UpdatedAt: item.UpdatedAt,
		},
		OrderID:            item.OrderID,
		ProductID:          item.ProductID,
		ProductName:        item.ProductName,
		UnitPrice:          item.UnitPrice,
		Quantity:           item.Quantity,
		CustomizationNotes: item.CustomizationNotes,
		LineTotal:          item.LineTotal,
		IsActive:           item.IsActive,
	}
}

// SaleModel is the persistence model for the Sale aggregate root.
type SaleModel struct {
	AggregateModel
	InvoiceNumber       string           `gorm:"type:varchar(30);not null;uniqueIndex"`
	OrderID             *uuid.UUID       `gorm:"type:uuid;uniqueIndex"`
	CustomerID          uuid.UUID        `gorm:"type:uuid;not null;index"`
	CustomerName        string           `gorm:"type:varchar(200);not null"`
	CustomerPhone       string           `gorm:"type:varchar(30)"`
	CustomerEmail       string           `gorm:"type:varchar(200)"`
	Subtotal            decimal.Decimal  `gorm:"type:decimal(12,2);not null;default:0"`
	OverallDiscount     decimal.Decimal  `gorm:"type:decimal(12,2);not null;default:0"`
	GSTPercentage       decimal.Decimal  `gorm:"column:gst_percentage;type:decimal(5,2);not null;default:17"`
	TaxAmount           decimal.Decimal  `gorm:"type:decimal(12,2);not null;default:0"`
	GrandTotal          decimal.Decimal  `gorm:"type:decimal(12,2);not null;default:0"`
	AmountPaid          decimal.Decimal  `gorm:"type:decimal(12,2);not null;default:0"`
	RemainingAmount     decimal.Decimal  `gorm:"type:decimal(12,2);not null;default:0"`
	IsFullyPaid         bool             `gorm:"not null;default:false"`
	PaymentMethod       string           `gorm:"type:varchar(20)"`
	SplitPaymentDetails datatypes.JSON   `gorm:"type:jsonb"`
	Status              string           `gorm:"type:varchar(20);not null;default:'DRAFT';index"`
	Notes               string           `gorm:"type:text"`
	SaleDate            time.Time        `gorm:"type:date;not null;index"`
	Items               []*SaleItemModel `gorm:"foreignKey:SaleID;references:ID"`
}

// TableName returns the table name for GORM
func (SaleModel) TableName() string {
	return "sales"
}

// ToDomain converts the persistence model to a domain Sale aggregate.
func (m *SaleModel) ToDomain() (*trade.Sale, error) {
	sale := &trade.Sale{
		BaseAggregateRoot: m.ToDomainAggregateRoot(),
		InvoiceNumber:     m.InvoiceNumber,
		OrderID:           m.OrderID,
		CustomerID:        m.CustomerID,
		CustomerName:      m.CustomerName,
		CustomerPhone:     m.CustomerPhone,
		CustomerEmail:     m.CustomerEmail,
		Subtotal:          m.Subtotal,
		OverallDiscount:   m.OverallDiscount,
		GSTPercentage:     m.GSTPercentage,
		TaxAmount:         m.TaxAmount,
		GrandTotal:        m.GrandTotal,
		AmountPaid:        m.AmountPaid,
		RemainingAmount:   m.RemainingAmount,
		IsFullyPaid:       m.IsFullyPaid,
		PaymentMethod:     trade.PaymentMethod(m.PaymentMethod),
		Status:            trade.SaleStatus(m.Status),
		Notes:             m.Notes,
		SaleDate:          m.SaleDate,
		Items:             make([]trade.SaleItem, len(m.Items)),
	}
	if len(m.SplitPaymentDetails) > 0 {
		if err := json.Unmarshal(m.SplitPaymentDetails, &sale.SplitPaymentDetails); err != nil {
			return nil, err
		}
	}
	for i, item := range m.Items {
		sale.Items[i] = *item.ToDomain()
	}
	return sale, nil
}

// FromDomain populates the persistence model from a domain Sale aggregate.
// Items are converted separately by the repository.
func (m *SaleModel) FromDomain(s *trade.Sale) error {
	m.FromDomainAggregateRoot(s.BaseAggregateRoot)
	m.InvoiceNumber = s.InvoiceNumber
	m.OrderID = s.OrderID
	m.CustomerID = s.CustomerID
	m.CustomerName = s.CustomerName
	m.CustomerPhone = s.CustomerPhone
	m.CustomerEmail = s.CustomerEmail
	m.Subtotal = s.Subtotal
	m.OverallDiscount = s.OverallDiscount
	m.GSTPercentage = s.GSTPercentage
	m.TaxAmount = s.TaxAmount
	m.GrandTotal = s.GrandTotal
	m.AmountPaid = s.AmountPaid
	m.RemainingAmount = s.RemainingAmount
	m.IsFullyPaid = s.IsFullyPaid
	m.PaymentMethod = string(s.PaymentMethod)
	m.Status = string(s.Status)
	m.Notes = s.Notes
	m.SaleDate = s.SaleDate

	m.SplitPaymentDetails = nil
	if len(s.SplitPaymentDetails) > 0 {
		raw, err := json.Marshal(s.SplitPaymentDetails)
		if err != nil {
			return err
		}
		m.SplitPaymentDetails = datatypes.JSON(raw)
	}
	return nil
}

// SaleItemModel is the persistence model for a sale line item.
type SaleItemModel struct {
	BaseModel
	SaleID       uuid.UUID       `gorm:"type:uuid;not null;index"`
	ProductID    uuid.UUID       `gorm:"type:uuid;not null;index"`
	OrderItemID  *uuid.UUID      `gorm:"type:uuid"`
	ProductName  string          `gorm:"type:varchar(200);not null"`
	UnitPrice    decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	Quantity     int             `gorm:"not null"`
	ItemDiscount decimal.Decimal `gorm:"type:decimal(12,2);not null;default:0"`
	LineTotal    decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	Notes        string          `gorm:"type:text"`
	IsActive     bool            `gorm:"not null;default:true"`
}

// TableName returns the table name for GORM
func (SaleItemModel) TableName() string {
	return "sale_items"
}

// ToDomain converts the persistence model to a domain SaleItem.
func (m *SaleItemModel) ToDomain() *trade.SaleItem {
	return &trade.SaleItem{
		ID:           m.ID,
		SaleID:       m.SaleID,
		ProductID:    m.ProductID,
		OrderItemID:  m.OrderItemID,
		ProductName:  m.ProductName,
		UnitPrice:    m.UnitPrice,
		Quantity:     m.Quantity,
		ItemDiscount: m.ItemDiscount,
		LineTotal:    m.LineTotal,
		Notes:        m.Notes,
		IsActive:     m.IsActive,
		CreatedAt:    m.CreatedAt,
		UpdatedAt:    m.UpdatedAt,
	}
}

// SaleItemModelFromDomain creates a new persistence model from a domain SaleItem.
func SaleItemModelFromDomain(item *trade.SaleItem) *SaleItemModel {
	return &SaleItemModel{
		BaseModel: BaseModel{
			ID:        item.ID,
			CreatedAt: item.CreatedAt,
			UpdatedAt: item.UpdatedAt,
		},
		SaleID:       item.SaleID,
		ProductID:    item.ProductID,
		OrderItemID:  item.OrderItemID,
		ProductName:  item.ProductName,
		UnitPrice:    item.UnitPrice,
		Quantity:     item.Quantity,
		ItemDiscount: item.ItemDiscount,
		LineTotal:    item.LineTotal,
		Notes:        item.Notes,
		IsActive:     item.IsActive,
	}
}

// InvoiceSequenceModel holds the last invoice number issued per year.
type InvoiceSequenceModel struct {
	Year      int   `gorm:"primaryKey;autoIncrement:false"`
	LastValue int64 `gorm:"not null;default:0"`
}

// TableName returns the table name for GORM
func (InvoiceSequenceModel) TableName() string {
	return "invoice_sequences"
}
