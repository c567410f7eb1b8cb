package errors

import (
	"encoding/json"
	stderrors "errors"
	"fmt"
	"net/http"
)

const (
	CodeNotFound          = "NOT_FOUND"
	CodeValidation        = "VALIDATION_ERROR"
	CodeUnauthorized      = "UNAUTHORIZED"
	CodeForbidden         = "FORBIDDEN"
	CodeConflict          = "CONFLICT"
	CodeInternal          = "INTERNAL_ERROR"
	CodeBadRequest        = "BAD_REQUEST"
	CodeTimeout           = "TIMEOUT"
	CodeUnavailable       = "SERVICE_UNAVAILABLE"
	CodeInvalidInput      = "INVALID_INPUT"
	CodeInvalidTransition = "INVALID_TRANSITION"
	CodeNotBookable       = "EVENT_NOT_BOOKABLE"
	CodeCapacityExceeded  = "CAPACITY_EXCEEDED"
	CodeStoreUnavailable  = "STORE_UNAVAILABLE"
)

type AppError struct {
	Code       string         `json:"code"`
	Message    string         `json:"message"`
	HTTPStatus int            `json:"-"`
	Details    map[string]any `json:"details,omitempty"`
	Err        error          `json:"-"`
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s (caused by: %v)", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Err
}

func (e *AppError) StatusCode() int {
	return e.HTTPStatus
}

// Retryable reports whether a caller may retry the failed operation.
// Only infrastructure failures qualify; business-rule rejections repeat
// the same outcome.
func (e *AppError) Retryable() bool {
	return e.Code == CodeStoreUnavailable
}

func (e *AppError) ToJSON() []byte {
	response := ErrorResponse{
		Code:    e.Code,
		Message: e.Message,
		Details: e.Details,
	}
	data, _ := json.Marshal(response)
	return data
}

type ErrorResponse struct {
	Code    string         `json:"code"`
	Message string         `json:"message"`
	Details map[string]any `json:"details,omitempty"`
}

func New(code, message string, httpStatus int) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		HTTPStatus: httpStatus,
	}
}

func Wrap(err error, code, message string, httpStatus int) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		HTTPStatus: httpStatus,
		Err:        err,
	}
}

func (e *AppError) WithDetails(details map[string]any) *AppError {
	e.Details = details
	return e
}

func NotFound(resource string) *AppError {
	return &AppError{
		Code:       CodeNotFound,
		Message:    fmt.Sprintf("%s not found", resource),
		HTTPStatus: http.StatusNotFound,
	}
}

func NotFoundWithID(resource, id string) *AppError {
	return &AppError{
		Code:       CodeNotFound,
		Message:    fmt.Sprintf("%s not found", resource),
		HTTPStatus: http.StatusNotFound,
		Details: map[string]any{
			"resource": resource,
			"id":       id,
		},
	}
}

func Validation(message string, details map[string]any) *AppError {
	return &AppError{
		Code:       CodeValidation,
		Message:    message,
		HTTPStatus: http.StatusUnprocessableEntity,
		Details:    details,
	}
}

func InvalidInput(message string) *AppError {
	return &AppError{
		Code:       CodeInvalidInput,
		Message:    message,
		HTTPStatus: http.StatusBadRequest,
	}
}

func Unauthorized(message string) *AppError {
	return &AppError{
		Code:       CodeUnauthorized,
		Message:    message,
		HTTPStatus: http.StatusUnauthorized,
	}
}

func Forbidden(message string) *AppError {
	return &AppError{
		Code:       CodeForbidden,
		Message:    message,
		HTTPStatus: http.StatusForbidden,
	}
}

func Conflict(message string) *AppError {
	return &AppError{
		Code:       CodeConflict,
		Message:    message,
		HTTPStatus: http.StatusConflict,
	}
}

func InvalidTransition(resource, from, to string) *AppError {
	return &AppError{
		Code:       CodeInvalidTransition,
		Message:    fmt.Sprintf("%s cannot move from %s to %s", resource, from, to),
		HTTPStatus: http.StatusConflict,
		Details: map[string]any{
			"from": from,
			"to":   to,
		},
	}
}

func NotBookable(eventID, status string) *AppError {
	return &AppError{
		Code:       CodeNotBookable,
		Message:    fmt.Sprintf("event is %s and does not accept bookings", status),
		HTTPStatus: http.StatusConflict,
		Details: map[string]any{
			"event_id": eventID,
			"status":   status,
		},
	}
}

// CapacityExceeded reports the remaining availability so callers can offer a
// smaller party size.
func CapacityExceeded(requested, available int) *AppError {
	return &AppError{
		Code:       CodeCapacityExceeded,
		Message:    fmt.Sprintf("requested %d seat(s) but only %d available", requested, available),
		HTTPStatus: http.StatusConflict,
		Details: map[string]any{
			"requested": requested,
			"available": available,
		},
	}
}

func StoreUnavailable(message string, err error) *AppError {
	return &AppError{
		Code:       CodeStoreUnavailable,
		Message:    message,
		HTTPStatus: http.StatusServiceUnavailable,
		Err:        err,
	}
}

func Internal(message string, err error) *AppError {
	return &AppError{
		Code:       CodeInternal,
		Message:    message,
		HTTPStatus: http.StatusInternalServerError,
		Err:        err,
	}
}

func Timeout(message string) *AppError {
	return &AppError{
		Code:       CodeTimeout,
		Message:    message,
		HTTPStatus: http.StatusGatewayTimeout,
	}
}

func Unavailable(service string) *AppError {
	return &AppError{
		Code:       CodeUnavailable,
		Message:    fmt.Sprintf("%s is temporarily unavailable", service),
		HTTPStatus: http.StatusServiceUnavailable,
	}
}

func IsAppError(err error) bool {
	var appErr *AppError
	return stderrors.As(err, &appErr)
}

func AsAppError(err error) *AppError {
	var appErr *AppError
	if stderrors.As(err, &appErr) {
		return appErr
	}
	return Internal("An unexpected error occurred", err)
}

// HasCode reports whether err is an AppError carrying code.
func HasCode(err error, code string) bool {
	var appErr *AppError
	if stderrors.As(err, &appErr) {
		return appErr.Code == code
	}
	return false
}
