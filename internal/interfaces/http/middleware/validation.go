package middleware

import (
	"encoding/json"
	"errors"
	"reflect"
	"strings"

	"github.com/erp/backoffice/internal/interfaces/http/dto"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

// SetupValidator makes validation errors report json (or form) field names
func SetupValidator() {
	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		v.RegisterTagNameFunc(func(fld reflect.StructField) string {
			name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
			if name == "-" {
				return ""
			}
			if name == "" {
				name = strings.SplitN(fld.Tag.Get("form"), ",", 2)[0]
			}
			return name
		})
	}
}

// ValidationDetails converts a binding error into field-level error entries.
// Malformed bodies produce a single entry without a field.
func ValidationDetails(err error) []dto.ErrorDetail {
	var validationErrors validator.ValidationErrors
	if errors.As(err, &validationErrors) {
		details := make([]dto.ErrorDetail, 0, len(validationErrors))
		for _, e := range validationErrors {
			details = append(details, dto.ErrorDetail{
				Code:    dto.ErrCodeValidation,
				Field:   fieldPath(e),
				Message: validationMessage(e),
			})
		}
		return details
	}

	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &typeErr) {
		return []dto.ErrorDetail{{
			Code:    dto.ErrCodeValidation,
			Field:   typeErr.Field,
			Message: "Must be a " + typeErr.Type.String(),
		}}
	}

	return []dto.ErrorDetail{{Code: dto.ErrCodeBadRequest, Message: "Malformed request: " + err.Error()}}
}

// fieldPath drops the top-level struct name from the namespace, so nested
// lines read items[1].quantity
func fieldPath(e validator.FieldError) string {
	ns := e.Namespace()
	if i := strings.IndexByte(ns, '.'); i >= 0 {
		return ns[i+1:]
	}
	return e.Field()
}

func validationMessage(e validator.FieldError) string {
	switch e.Tag() {
	case "required":
		return "This field is required"
	case "email":
		return "Invalid email format"
	case "min":
		if e.Kind() == reflect.String {
			return "Must be at least " + e.Param() + " characters"
		}
		if e.Kind() == reflect.Slice {
			return "Must contain at least " + e.Param() + " entries"
		}
		return "Must be at least " + e.Param()
	case "max":
		if e.Kind() == reflect.String {
			return "Must be at most " + e.Param() + " characters"
		}
		if e.Kind() == reflect.Slice {
			return "Must contain at most " + e.Param() + " entries"
		}
		return "Must be at most " + e.Param()
	case "uuid":
		return "Invalid UUID format"
	case "oneof":
		return "Must be one of: " + e.Param()
	default:
		return "Invalid value"
	}
}
