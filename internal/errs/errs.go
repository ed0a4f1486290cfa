// Package errs carries the error envelope returned to storefront clients.
package errs

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/gofiber/fiber/v2"
)

// Error codes
const (
	InvalidArgument    = "INVALID_ARGUMENT"
	ValidationFailed   = "VALIDATION_FAILED"
	Unauthenticated    = "UNAUTHENTICATED"
	NotFound           = "NOT_FOUND"
	Conflict           = "CONFLICT"
	NotHydrated        = "NOT_HYDRATED"
	Upstream           = "UPSTREAM_ERROR"
	ServiceUnavailable = "SERVICE_UNAVAILABLE"
	Internal           = "INTERNAL_ERROR"

	CartDifferentShop = "CART_DIFFERENT_SHOP"
	CartEmpty         = "CART_EMPTY"
	CouponInvalid     = "COUPON_INVALID"
)

// GenericMessage is shown when neither the storefront nor the backend has a
// better explanation.
const GenericMessage = "Something went wrong, please try again"

// Error represents a structured error
type Error struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details any    `json:"details,omitempty"`
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// HTTPStatus returns the HTTP status code for the error
func (e *Error) HTTPStatus() int {
	switch e.Code {
	case InvalidArgument, ValidationFailed:
		return http.StatusBadRequest
	case Unauthenticated:
		return http.StatusUnauthorized
	case NotFound:
		return http.StatusNotFound
	case Conflict, CartDifferentShop:
		return http.StatusConflict
	case CouponInvalid, CartEmpty:
		return http.StatusUnprocessableEntity
	case Upstream:
		return http.StatusBadGateway
	case NotHydrated, ServiceUnavailable:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// New builds an Error, substituting the generic message for an empty one.
func New(code, message string) *Error {
	if message == "" {
		message = GenericMessage
	}
	return &Error{Code: code, Message: message}
}

// Respond writes err as the JSON error envelope. Errors that are not *Error
// are reported as internal errors with the generic message.
func Respond(c *fiber.Ctx, err error) error {
	var e *Error
	if !errors.As(err, &e) {
		e = New(Internal, "")
	}
	return c.Status(e.HTTPStatus()).JSON(fiber.Map{"code": e.Code, "message": e.Message, "details": e.Details})
}
