// Package errors provides structured error handling with i18n support.
package errors

import "net/http"

// Code is a machine-readable error code.
type Code string

const (
	// CodeUnknown represents an unknown error.
	CodeUnknown Code = "UNKNOWN"

	// Validation errors
	CodeCartEmpty     Code = "VALIDATION_CART_EMPTY"
	CodeTextEmpty     Code = "VALIDATION_TEXT_EMPTY"
	CodeActionInvalid Code = "ACTION_INVALID"

	// Lookup errors
	CodeOrderNotFound    Code = "ORDER_NOT_FOUND"
	CodeCategoryNotFound Code = "CATEGORY_NOT_FOUND"
	CodeMenuItemNotFound Code = "MENU_ITEM_NOT_FOUND"

	// Order lifecycle errors
	CodeIllegalTransition Code = "ILLEGAL_TRANSITION"
	CodeOrderIDCollision  Code = "ORDER_ID_COLLISION"

	// Access errors
	CodeAccessDenied Code = "ACCESS_DENIED"
	CodeRateLimited  Code = "RATE_LIMITED"

	// Storage errors
	CodePersistenceFailure Code = "PERSISTENCE_FAILURE"
)

// HTTPStatus maps domain codes to gateway HTTP status codes.
func (c Code) HTTPStatus() int {
	switch c {
	case CodeCartEmpty,
		CodeTextEmpty,
		CodeActionInvalid:
		return http.StatusBadRequest

	case CodeOrderNotFound,
		CodeCategoryNotFound,
		CodeMenuItemNotFound:
		return http.StatusNotFound

	case CodeIllegalTransition,
		CodeOrderIDCollision:
		return http.StatusConflict

	case CodeAccessDenied:
		return http.StatusForbidden

	case CodeRateLimited:
		return http.StatusTooManyRequests

	case CodePersistenceFailure:
		return http.StatusServiceUnavailable

	default:
		return http.StatusInternalServerError
	}
}
