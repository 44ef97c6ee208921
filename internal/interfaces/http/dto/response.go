package dto

import "github.com/erp/backoffice/internal/domain/shared"

// Response is the envelope of every JSON response
type Response struct {
	Success    bool          `json:"success"`
	Message    string        `json:"message,omitempty"`
	Data       interface{}   `json:"data,omitempty"`
	Errors     []ErrorDetail `json:"errors,omitempty"`
	Pagination *Pagination   `json:"pagination,omitempty"`
}

// ErrorDetail describes one problem with a request. Field is set for
// field-level validation failures.
type ErrorDetail struct {
	Code    string `json:"code"`
	Field   string `json:"field,omitempty"`
	Message string `json:"message"`
}

// Pagination describes the page returned by a list endpoint
type Pagination struct {
	CurrentPage int   `json:"current_page"`
	PageSize    int   `json:"page_size"`
	TotalCount  int64 `json:"total_count"`
	TotalPages  int   `json:"total_pages"`
	HasNext     bool  `json:"has_next"`
	HasPrevious bool  `json:"has_previous"`
}

// NewPagination builds pagination metadata, normalising page and pageSize
// the same way the repositories do.
func NewPagination(total int64, page, pageSize int) *Pagination {
	page, pageSize = NormalizePage(page, pageSize)
	totalPages := int(total) / pageSize
	if int(total)%pageSize > 0 {
		totalPages++
	}
	return &Pagination{
		CurrentPage: page,
		PageSize:    pageSize,
		TotalCount:  total,
		TotalPages:  totalPages,
		HasNext:     page < totalPages,
		HasPrevious: page > 1,
	}
}

// NormalizePage applies the default page size and the page size cap
func NormalizePage(page, pageSize int) (int, int) {
	f := shared.Filter{Page: page, PageSize: pageSize}.Normalize()
	return f.Page, f.PageSize
}

// NewSuccessResponse creates a success response
func NewSuccessResponse(data interface{}) Response {
	return Response{
		Success: true,
		Data:    data,
	}
}

// NewMessageResponse creates a success response that only carries a message
func NewMessageResponse(message string) Response {
	return Response{
		Success: true,
		Message: message,
	}
}

// NewPaginatedResponse creates a success response for a list page
func NewPaginatedResponse(data interface{}, total int64, page, pageSize int) Response {
	return Response{
		Success:    true,
		Data:       data,
		Pagination: NewPagination(total, page, pageSize),
	}
}

// NewErrorResponse creates an error response with a single error entry
func NewErrorResponse(code, message string) Response {
	return Response{
		Success: false,
		Message: message,
		Errors:  []ErrorDetail{{Code: code, Message: message}},
	}
}

// NewValidationErrorResponse creates a 400 body listing field errors
func NewValidationErrorResponse(message string, details []ErrorDetail) Response {
	return Response{
		Success: false,
		Message: message,
		Errors:  details,
	}
}
