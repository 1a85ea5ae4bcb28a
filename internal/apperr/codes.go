// Package apperr provides the coded errors returned by the check-in and
// payment services.
package apperr

import "net/http"

// Code is a machine-readable error code.
type Code string

const (
	CodeUnknown Code = "UNKNOWN"

	// Scan errors
	CodeInvalidToken    Code = "INVALID_TOKEN"
	CodeTenantMismatch  Code = "TENANT_MISMATCH"
	CodePaymentRequired Code = "PAYMENT_REQUIRED"
	CodeCheckInDenied   Code = "CHECKIN_DENIED"

	// Ledger errors
	CodeNotEnrolled Code = "NOT_ENROLLED"

	// Generic
	CodeNotFound        Code = "NOT_FOUND"
	CodeInvalidArgument Code = "INVALID_ARGUMENT"
	CodeStorage         Code = "STORAGE"
)

// HTTPStatus maps domain codes to HTTP status codes.
func (c Code) HTTPStatus() int {
	switch c {
	case CodeInvalidToken, CodeInvalidArgument:
		return http.StatusBadRequest
	case CodeTenantMismatch, CodeCheckInDenied:
		return http.StatusForbidden
	case CodePaymentRequired:
		return http.StatusPaymentRequired
	case CodeNotEnrolled:
		return http.StatusUnprocessableEntity
	case CodeNotFound:
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}
