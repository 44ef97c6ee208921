package persistence

import (
	"strings"

	"github.com/erp/backoffice/internal/domain/shared"
	"gorm.io/gorm"
)

// ValidateSortOrder validates and normalizes the sort order to ASC or DESC.
// Returns "DESC" as the default if the input is invalid or empty.
func ValidateSortOrder(orderDir string) string {
	normalized := strings.ToUpper(strings.TrimSpace(orderDir))
	if normalized == "ASC" {
		return "ASC"
	}
	return "DESC"
}

// ValidateSortField validates the sort field against a whitelist of allowed fields.
// Returns the defaultField if the input is invalid, empty, or not in the whitelist.
func ValidateSortField(sortField string, allowedFields map[string]bool, defaultField string) string {
	trimmed := strings.TrimSpace(sortField)
	if trimmed == "" {
		return defaultField
	}
	if allowedFields[trimmed] {
		return trimmed
	}
	return defaultField
}

// CustomerSortFields contains allowed sort fields for customers
var CustomerSortFields = map[string]bool{
	"created_at": true,
	"updated_at": true,
	"name":       true,
	"phone":      true,
	"email":      true,
}

// ProductSortFields contains allowed sort fields for products
var ProductSortFields = map[string]bool{
	"created_at": true,
	"updated_at": true,
	"name":       true,
	"sku":        true,
	"price":      true,
	"quantity":   true,
}

// OrderSortFields contains allowed sort fields for orders
var OrderSortFields = map[string]bool{
	"created_at":             true,
	"updated_at":             true,
	"date_ordered":           true,
	"expected_delivery_date": true,
	"customer_name":          true,
	"total_amount":           true,
	"remaining_amount":       true,
	"status":                 true,
}

// SaleSortFields contains allowed sort fields for sales
var SaleSortFields = map[string]bool{
	"created_at":       true,
	"updated_at":       true,
	"sale_date":        true,
	"invoice_number":   true,
	"customer_name":    true,
	"grand_total":      true,
	"remaining_amount": true,
	"status":           true,
}

// PayableSortFields contains allowed sort fields for payables
var PayableSortFields = map[string]bool{
	"created_at":        true,
	"updated_at":        true,
	"date_borrowed":     true,
	"due_date":          true,
	"creditor_name":     true,
	"amount_borrowed":   true,
	"balance_remaining": true,
	"status":            true,
}

// applyPaging adds whitelisted ordering and limit/offset to query.
func applyPaging(query *gorm.DB, filter shared.Filter, allowed map[string]bool) *gorm.DB {
	filter = filter.Normalize()
	field := ValidateSortField(filter.OrderBy, allowed, "created_at")
	return query.
		Order(field + " " + ValidateSortOrder(filter.OrderDir)).
		Offset(filter.Offset()).
		Limit(filter.PageSize)
}

// applyActive hides soft-deleted rows unless the filter asks for them.
func applyActive(query *gorm.DB, filter shared.Filter) *gorm.DB {
	if filter.IncludeInactive {
		return query
	}
	return query.Where("is_active = ?", true)
}

// applySearch matches a case-insensitive substring against columns.
func applySearch(query *gorm.DB, search string, columns ...string) *gorm.DB {
	search = strings.TrimSpace(search)
	if search == "" || len(columns) == 0 {
		return query
	}
	pattern := "%" + strings.ToLower(search) + "%"
	clauses := make([]string, len(columns))
	args := make([]any, len(columns))
	for i, col := range columns {
		clauses[i] = "LOWER(" + col + ") LIKE ?"
		args[i] = pattern
	}
	return query.Where("("+strings.Join(clauses, " OR ")+")", args...)
}
