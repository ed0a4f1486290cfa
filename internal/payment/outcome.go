// Package payment works out what happened to a payment after the customer
// comes back from an external gateway, and serves the gateway redirects.
package payment

import (
	"strings"

	"github.com/wichananm65/storefront-gateway/internal/backend"
)

// Outcome is the normalized state of a payment result.
type Outcome string

const (
	Loading   Outcome = "loading"
	Success   Outcome = "success"
	Failed    Outcome = "failed"
	Pending   Outcome = "pending"
	Cancelled Outcome = "cancelled"
)

// Terminal reports whether o ends the resolution.
func (o Outcome) Terminal() bool {
	switch o {
	case Success, Failed, Pending, Cancelled:
		return true
	}
	return false
}

// GenericMessage is used when no signal says what happened.
const GenericMessage = "An error occurred while processing your payment"

// FromStatusParam maps the status query parameter a gateway sends back.
func FromStatusParam(s string) (Outcome, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "success", "paid":
		return Success, true
	case "failed", "error":
		return Failed, true
	case "cancelled", "canceled":
		return Cancelled, true
	case "pending":
		return Pending, true
	}
	return "", false
}

// FromOrder derives the outcome from an order fetched from the backend.
// The transaction status wins over the order status.
func FromOrder(o backend.Order) Outcome {
	if o.Transaction != nil {
		switch strings.ToLower(o.Transaction.Status) {
		case "paid":
			return Success
		case "canceled", "rejected":
			return Failed
		}
	}
	if strings.ToLower(o.Status) == "canceled" {
		return Cancelled
	}
	return Pending
}

// FromProcessStatus maps the status field of the process-result endpoint.
func FromProcessStatus(s string) (Outcome, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "success":
		return Success, true
	case "failed":
		return Failed, true
	case "pending":
		return Pending, true
	case "cancelled":
		return Cancelled, true
	}
	return "", false
}
