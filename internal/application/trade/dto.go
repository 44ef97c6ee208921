package trade

import (
	"time"

	"github.com/erp/backoffice/internal/domain/trade"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// =============================================================================
// Order DTOs
// =============================================================================

// OrderItemInput describes one product line of an order. A nil UnitPrice
// takes the product's current price.
type OrderItemInput struct {
	ProductID          uuid.UUID        `json:"product_id" binding:"required"`
	Quantity           int              `json:"quantity" binding:"required,min=1"`
	UnitPrice          *decimal.Decimal `json:"unit_price"`
	CustomizationNotes string           `json:"customization_notes"`
}

// CreateOrderRequest represents a request to create a new order
type CreateOrderRequest struct {
	CustomerID           uuid.UUID        `json:"customer_id" binding:"required"`
	Description          string           `json:"description"`
	DateOrdered          *time.Time       `json:"date_ordered"`
	ExpectedDeliveryDate *time.Time       `json:"expected_delivery_date"`
	AdvancePayment       decimal.Decimal  `json:"advance_payment"`
	Items                []OrderItemInput `json:"items" binding:"omitempty,dive"`
	CreatedBy            *uuid.UUID       `json:"-"`
}

// UpdateOrderRequest changes the descriptive fields and schedule of an order
type UpdateOrderRequest struct {
	Description           *string    `json:"description"`
	DateOrdered           *time.Time `json:"date_ordered"`
	ExpectedDeliveryDate  *time.Time `json:"expected_delivery_date"`
	ClearExpectedDelivery bool       `json:"clear_expected_delivery"`
}

// UpdateOrderItemRequest changes an order line; nil fields are kept
type UpdateOrderItemRequest struct {
	Quantity           *int             `json:"quantity" binding:"omitempty,min=1"`
	UnitPrice          *decimal.Decimal `json:"unit_price"`
	CustomizationNotes *string          `json:"customization_notes"`
}

// OrderPaymentRequest records an advance payment
type OrderPaymentRequest struct {
	Amount decimal.Decimal `json:"amount"`
}

// OrderStatusRequest moves an order to a new status
type OrderStatusRequest struct {
	Status string `json:"status" binding:"required,oneof=PENDING CONFIRMED IN_PRODUCTION READY DELIVERED CANCELLED"`
	Notes  string `json:"notes" binding:"max=500"`
}

// BulkOrderStatusRequest moves several orders to the same status
type BulkOrderStatusRequest struct {
	OrderIDs []uuid.UUID `json:"order_ids" binding:"required,min=1,max=100"`
	Status   string      `json:"status" binding:"required,oneof=PENDING CONFIRMED IN_PRODUCTION READY DELIVERED CANCELLED"`
	Notes    string      `json:"notes" binding:"max=500"`
}

// BulkStatusResult is the outcome for one order of a bulk update
type BulkStatusResult struct {
	OrderID uuid.UUID `json:"order_id"`
	Success bool      `json:"success"`
	Status  string    `json:"status,omitempty"`
	Code    string    `json:"code,omitempty"`
	Error   string    `json:"error,omitempty"`
}

// BulkStatusResponse summarises a bulk status update
type BulkStatusResponse struct {
	Updated int                `json:"updated"`
	Failed  int                `json:"failed"`
	Results []BulkStatusResult `json:"results"`
}

// OrderListFilter represents filter options for order list
type OrderListFilter struct {
	Search          string     `form:"search"`
	Status          string     `form:"status" binding:"omitempty,oneof=PENDING CONFIRMED IN_PRODUCTION READY DELIVERED CANCELLED"`
	PaymentStatus   string     `form:"payment_status" binding:"omitempty,oneof=UNPAID PARTIAL PAID"`
	CustomerID      *uuid.UUID `form:"customer_id"`
	Converted       *bool      `form:"converted"`
	DateFrom        *time.Time `form:"date_from" time_format:"2006-01-02"`
	DateTo          *time.Time `form:"date_to" time_format:"2006-01-02"`
	IncludeInactive bool       `form:"include_inactive"`
	Page            int        `form:"page" binding:"omitempty,min=1"`
	PageSize        int        `form:"page_size" binding:"omitempty,min=1,max=100"`
	OrderBy         string     `form:"order_by"`
	OrderDir        string     `form:"order_dir" binding:"omitempty,oneof=asc desc"`
}

// OrderItemResponse represents an order line in API responses
type OrderItemResponse struct {
	ID                 uuid.UUID       `json:"id"`
	ProductID          uuid.UUID       `json:"product_id"`
	ProductName        string          `json:"product_name"`
	UnitPrice          decimal.Decimal `json:"unit_price"`
	Quantity           int             `json:"quantity"`
	CustomizationNotes string          `json:"customization_notes,omitempty"`
	LineTotal          decimal.Decimal `json:"line_total"`
	IsActive           bool            `json:"is_active"`
}

// OrderResponse represents an order in API responses
type OrderResponse struct {
	ID                   uuid.UUID           `json:"id"`
	CustomerID           uuid.UUID           `json:"customer_id"`
	CustomerName         string              `json:"customer_name"`
	CustomerPhone        string              `json:"customer_phone"`
	CustomerEmail        string              `json:"customer_email,omitempty"`
	Description          string              `json:"description"`
	AdvancePayment       decimal.Decimal     `json:"advance_payment"`
	TotalAmount          decimal.Decimal     `json:"total_amount"`
	RemainingAmount      decimal.Decimal     `json:"remaining_amount"`
	IsFullyPaid          bool                `json:"is_fully_paid"`
	PaymentStatus        string              `json:"payment_status"`
	DateOrdered          time.Time           `json:"date_ordered"`
	ExpectedDeliveryDate *time.Time          `json:"expected_delivery_date,omitempty"`
	Status               string              `json:"status"`
	ConvertedSaleID      *uuid.UUID          `json:"converted_sale_id,omitempty"`
	IsConverted          bool                `json:"is_converted"`
	ItemCount            int                 `json:"item_count"`
	Items                []OrderItemResponse `json:"items,omitempty"`
	IsActive             bool                `json:"is_active"`
	Version              int                 `json:"version"`
	CreatedBy            *uuid.UUID          `json:"created_by,omitempty"`
	CreatedAt            time.Time           `json:"created_at"`
	UpdatedAt            time.Time           `json:"updated_at"`
}

// ToOrderResponse converts a domain Order to OrderResponse, items included
func ToOrderResponse(o *trade.Order) OrderResponse {
	resp := ToOrderListResponse(o)
	resp.Items = make([]OrderItemResponse, 0, len(o.Items))
	for _, item := range o.Items {
		if !item.IsActive {
			continue
		}
		resp.Items = append(resp.Items, OrderItemResponse{
			ID:                 item.ID,
			ProductID:          item.ProductID,
			ProductName:        item.ProductName,
			UnitPrice:          item.UnitPrice,
			Quantity:           item.Quantity,
			CustomizationNotes: item.CustomizationNotes,
			LineTotal:          item.LineTotal,
			IsActive:           item.IsActive,
		})
	}
	return resp
}

// ToOrderListResponse converts a domain Order without its items
func ToOrderListResponse(o *trade.Order) OrderResponse {
	return OrderResponse{
		ID:                   o.ID,
		CustomerID:           o.CustomerID,
		CustomerName:         o.CustomerName,
		CustomerPhone:        o.CustomerPhone,
		CustomerEmail:        o.CustomerEmail,
		Description:          o.Description,
		AdvancePayment:       o.AdvancePayment,
		TotalAmount:          o.TotalAmount,
		RemainingAmount:      o.RemainingAmount,
		IsFullyPaid:          o.IsFullyPaid,
		PaymentStatus:        string(o.PaymentStatus),
		DateOrdered:          o.DateOrdered,
		ExpectedDeliveryDate: o.ExpectedDeliveryDate,
		Status:               string(o.Status),
		ConvertedSaleID:      o.ConvertedSaleID,
		IsConverted:          o.IsConverted(),
		ItemCount:            o.ItemCount(),
		IsActive:             o.IsActive,
		Version:              o.Version,
		CreatedBy:            o.CreatedBy,
		CreatedAt:            o.CreatedAt,
		UpdatedAt:            o.UpdatedAt,
	}
}

// ToOrderListResponses converts a slice of domain Orders
func ToOrderListResponses(orders []trade.Order) []OrderResponse {
	responses := make([]OrderResponse, len(orders))
	for i := range orders {
		responses[i] = ToOrderListResponse(&orders[i])
	}
	return responses
}

// =============================================================================
// Sale DTOs
// =============================================================================

// SplitPaymentInput is one leg of a SPLIT payment
type SplitPaymentInput struct {
	Method    string          `json:"method" binding:"required"`
	Amount    decimal.Decimal `json:"amount"`
	Reference string          `json:"reference" binding:"max=100"`
}

// SaleItemInput describes one product line of a direct sale
type SaleItemInput struct {
	ProductID    uuid.UUID        `json:"product_id" binding:"required"`
	Quantity     int              `json:"quantity" binding:"required,min=1"`
	UnitPrice    *decimal.Decimal `json:"unit_price"`
	ItemDiscount decimal.Decimal  `json:"item_discount"`
	Notes        string           `json:"notes"`
}

// CreateSaleRequest creates a sale directly, without an order
type CreateSaleRequest struct {
	CustomerID          uuid.UUID           `json:"customer_id" binding:"required"`
	SaleDate            *time.Time          `json:"sale_date"`
	Items               []SaleItemInput     `json:"items" binding:"required,min=1,dive"`
	OverallDiscount     decimal.Decimal     `json:"overall_discount"`
	GSTPercentage       *decimal.Decimal    `json:"gst_percentage"`
	PaymentMethod       string              `json:"payment_method"`
	AmountPaid          decimal.Decimal     `json:"amount_paid"`
	SplitPaymentDetails []SplitPaymentInput `json:"split_payment_details" binding:"omitempty,dive"`
	Notes               string              `json:"notes"`
	CreatedBy           *uuid.UUID          `json:"-"`
}

// PartialItemInput selects an order item for a partial conversion
type PartialItemInput struct {
	OrderItemID uuid.UUID `json:"order_item_id" binding:"required"`
	Quantity    int       `json:"quantity" binding:"required,min=1"`
}

// CreateSaleFromOrderRequest converts an order into a sale
type CreateSaleFromOrderRequest struct {
	OrderID             uuid.UUID           `json:"order_id" binding:"required"`
	SaleDate            *time.Time          `json:"sale_date"`
	PaymentMethod       string              `json:"payment_method"`
	AmountPaid          decimal.Decimal     `json:"amount_paid"`
	SplitPaymentDetails []SplitPaymentInput `json:"split_payment_details" binding:"omitempty,dive"`
	OverallDiscount     decimal.Decimal     `json:"overall_discount"`
	GSTPercentage       *decimal.Decimal    `json:"gst_percentage"`
	PartialItems        []PartialItemInput  `json:"partial_items" binding:"omitempty,dive"`
	Notes               string              `json:"notes"`
	CreatedBy           *uuid.UUID          `json:"-"`
}

// SalePaymentRequest records a payment on a sale
type SalePaymentRequest struct {
	Amount              decimal.Decimal     `json:"amount"`
	PaymentMethod       string              `json:"payment_method" binding:"required"`
	SplitPaymentDetails []SplitPaymentInput `json:"split_payment_details" binding:"omitempty,dive"`
}

// SaleStatusRequest moves a sale to a new status
type SaleStatusRequest struct {
	Status string `json:"status" binding:"required,oneof=DRAFT CONFIRMED INVOICED PAID DELIVERED RETURNED CANCELLED"`
}

// UpdateSaleItemRequest changes a sale line; nil fields are kept
type UpdateSaleItemRequest struct {
	Quantity     *int             `json:"quantity" binding:"omitempty,min=1"`
	UnitPrice    *decimal.Decimal `json:"unit_price"`
	ItemDiscount *decimal.Decimal `json:"item_discount"`
	Notes        *string          `json:"notes"`
}

// SaleListFilter represents filter options for sale list
type SaleListFilter struct {
	Search          string     `form:"search"`
	Status          string     `form:"status" binding:"omitempty,oneof=DRAFT CONFIRMED INVOICED PAID DELIVERED RETURNED CANCELLED"`
	PaymentMethod   string     `form:"payment_method"`
	CustomerID      *uuid.UUID `form:"customer_id"`
	OrderID         *uuid.UUID `form:"order_id"`
	FullyPaid       *bool      `form:"fully_paid"`
	DateFrom        *time.Time `form:"date_from" time_format:"2006-01-02"`
	DateTo          *time.Time `form:"date_to" time_format:"2006-01-02"`
	IncludeInactive bool       `form:"include_inactive"`
	Page            int        `form:"page" binding:"omitempty,min=1"`
	PageSize        int        `form:"page_size" binding:"omitempty,min=1,max=100"`
	OrderBy         string     `form:"order_by"`
	OrderDir        string     `form:"order_dir" binding:"omitempty,oneof=asc desc"`
}

// SaleItemResponse represents a sale line in API responses
type SaleItemResponse struct {
	ID           uuid.UUID       `json:"id"`
	ProductID    uuid.UUID       `json:"product_id"`
	OrderItemID  *uuid.UUID      `json:"order_item_id,omitempty"`
	ProductName  string          `json:"product_name"`
	UnitPrice    decimal.Decimal `json:"unit_price"`
	Quantity     int             `json:"quantity"`
	ItemDiscount decimal.Decimal `json:"item_discount"`
	LineTotal    decimal.Decimal `json:"line_total"`
	Notes        string          `json:"notes,omitempty"`
}

// SplitPaymentResponse is one recorded leg of a SPLIT payment
type SplitPaymentResponse struct {
	Method    string          `json:"method"`
	Amount    decimal.Decimal `json:"amount"`
	Reference string          `json:"reference,omitempty"`
}

// SaleResponse represents a sale in API responses
type SaleResponse struct {
	ID                  uuid.UUID              `json:"id"`
	InvoiceNumber       string                 `json:"invoice_number"`
	OrderID             *uuid.UUID             `json:"order_id,omitempty"`
	CustomerID          uuid.UUID              `json:"customer_id"`
	CustomerName        string                 `json:"customer_name"`
	CustomerPhone       string                 `json:"customer_phone"`
	CustomerEmail       string                 `json:"customer_email,omitempty"`
	Subtotal            decimal.Decimal        `json:"subtotal"`
	OverallDiscount     decimal.Decimal        `json:"overall_discount"`
	GSTPercentage       decimal.Decimal        `json:"gst_percentage"`
	TaxAmount           decimal.Decimal        `json:"tax_amount"`
	GrandTotal          decimal.Decimal        `json:"grand_total"`
	AmountPaid          decimal.Decimal        `json:"amount_paid"`
	RemainingAmount     decimal.Decimal        `json:"remaining_amount"`
	IsFullyPaid         bool                   `json:"is_fully_paid"`
	PaymentMethod       string                 `json:"payment_method"`
	SplitPaymentDetails []SplitPaymentResponse `json:"split_payment_details,omitempty"`
	Status              string                 `json:"status"`
	Notes               string                 `json:"notes,omitempty"`
	SaleDate            time.Time              `json:"sale_date"`
	ItemCount           int                    `json:"item_count"`
	Items               []SaleItemResponse     `json:"items,omitempty"`
	IsActive            bool                   `json:"is_active"`
	Version             int                    `json:"version"`
	CreatedBy           *uuid.UUID             `json:"created_by,omitempty"`
	CreatedAt           time.Time              `json:"created_at"`
	UpdatedAt           time.Time              `json:"updated_at"`
}

// ToSaleResponse converts a domain Sale to SaleResponse, items included
func ToSaleResponse(s *trade.Sale) SaleResponse {
	resp := ToSaleListResponse(s)
	resp.Items = make([]SaleItemResponse, 0, len(s.Items))
	for _, item := range s.Items {
		if !item.IsActive {
			continue
		}
		resp.Items = append(resp.Items, SaleItemResponse{
			ID:           item.ID,
			ProductID:    item.ProductID,
			OrderItemID:  item.OrderItemID,
			ProductName:  item.ProductName,
			UnitPrice:    item.UnitPrice,
			Quantity:     item.Quantity,
			ItemDiscount: item.ItemDiscount,
			LineTotal:    item.LineTotal,
			Notes:        item.Notes,
		})
	}
	return resp
}

// ToSaleListResponse converts a domain Sale without its items
func ToSaleListResponse(s *trade.Sale) SaleResponse {
	resp := SaleResponse{
		ID:              s.ID,
		InvoiceNumber:   s.InvoiceNumber,
		OrderID:         s.OrderID,
		CustomerID:      s.CustomerID,
		CustomerName:    s.CustomerName,
		CustomerPhone:   s.CustomerPhone,
		CustomerEmail:   s.CustomerEmail,
		Subtotal:        s.Subtotal,
		OverallDiscount: s.OverallDiscount,
		GSTPercentage:   s.GSTPercentage,
		TaxAmount:       s.TaxAmount,
		GrandTotal:      s.GrandTotal,
		AmountPaid:      s.AmountPaid,
		RemainingAmount: s.RemainingAmount,
		IsFullyPaid:     s.IsFullyPaid,
		PaymentMethod:   string(s.PaymentMethod),
		Status:          string(s.Status),
		Notes:           s.Notes,
		SaleDate:        s.SaleDate,
		ItemCount:       s.ItemCount(),
		IsActive:        s.IsActive,
		Version:         s.Version,
		CreatedBy:       s.CreatedBy,
		CreatedAt:       s.CreatedAt,
		UpdatedAt:       s.UpdatedAt,
	}
	for _, leg := range s.SplitPaymentDetails {
		resp.SplitPaymentDetails = append(resp.SplitPaymentDetails, SplitPaymentResponse{
			Method:    string(leg.Method),
			Amount:    leg.Amount,
			Reference: leg.Reference,
		})
	}
	return resp
}

// ToSaleListResponses converts a slice of domain Sales
func ToSaleListResponses(sales []trade.Sale) []SaleResponse {
	responses := make([]SaleResponse, len(sales))
	for i := range sales {
		responses[i] = ToSaleListResponse(&sales[i])
	}
	return responses
}

func toSplitPayments(in []SplitPaymentInput) []trade.SplitPayment {
	if len(in) == 0 {
		return nil
	}
	out := make([]trade.SplitPayment, len(in))
	for i, leg := range in {
		out[i] = trade.SplitPayment{
			Method:    trade.PaymentMethod(leg.Method),
			Amount:    leg.Amount,
			Reference: leg.Reference,
		}
	}
	return out
}

// =============================================================================
// Export DTOs
// =============================================================================

// ExportRequest selects the sale date range [From, To] of a register
type ExportRequest struct {
	From time.Time `form:"from" json:"from" time_format:"2006-01-02" binding:"required"`
	To   time.Time `form:"to" json:"to" time_format:"2006-01-02" binding:"required"`
}

// ExportArchiveResponse points at a stored register
type ExportArchiveResponse struct {
	Key         string    `json:"key"`
	DownloadURL string    `json:"download_url"`
	ExpiresAt   time.Time `json:"expires_at"`
	SaleCount   int       `json:"sale_count"`
}
