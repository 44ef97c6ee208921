package dto

import (
	"net/http"

	"github.com/erp/backoffice/internal/domain/shared"
)

// Transport-level error codes. Domain errors carry their own codes.
const (
	ErrCodeInternal     = "INTERNAL_ERROR"
	ErrCodeBadRequest   = "BAD_REQUEST"
	ErrCodeValidation   = "VALIDATION_ERROR"
	ErrCodeInvalidID    = "INVALID_ID"
	ErrCodeUnauthorized = "UNAUTHORIZED"
	ErrCodeTokenExpired = "TOKEN_EXPIRED"
	ErrCodeRateLimited  = "RATE_LIMITED"
	ErrCodeBodyTooLarge = "BODY_TOO_LARGE"
	ErrCodeNotFound     = "NOT_FOUND"
	ErrCodeDuplicate    = "DUPLICATE_REQUEST"
)

// kindStatus maps each domain error kind to its HTTP status. Conflicts with
// current state are reported as 400 like other rejected requests.
var kindStatus = map[shared.ErrorKind]int{
	shared.KindValidation:  http.StatusBadRequest,
	shared.KindConflict:    http.StatusBadRequest,
	shared.KindNotFound:    http.StatusNotFound,
	shared.KindUnavailable: http.StatusServiceUnavailable,
	shared.KindInternal:    http.StatusInternalServerError,
}

// StatusForKind returns the HTTP status code for a domain error kind
func StatusForKind(kind shared.ErrorKind) int {
	if status, ok := kindStatus[kind]; ok {
		return status
	}
	return http.StatusInternalServerError
}
