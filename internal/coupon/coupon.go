// Package coupon validates customer-entered coupon codes and computes the
// discount they grant.
package coupon

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/wichananm65/storefront-gateway/internal/backend"
	"github.com/wichananm65/storefront-gateway/internal/metrics"
	"github.com/wichananm65/storefront-gateway/internal/money"
)

type Kind string

const (
	Fixed   Kind = "fix"
	Percent Kind = "percent"
)

var ErrInvalidCoupon = errors.New("coupon: invalid")

// InvalidError rejects a code with a message meant for the customer.
type InvalidError struct {
	Code    string
	Message string
}

func (e *InvalidError) Error() string { return "coupon " + e.Code + ": " + e.Message }

func (e *InvalidError) Is(target error) bool { return target == ErrInvalidCoupon }

// Coupon is an accepted coupon as stored on the cart.
type Coupon struct {
	Code      string          `json:"code"`
	Kind      Kind            `json:"kind"`
	Value     decimal.Decimal `json:"value"`
	ExpiresAt *time.Time      `json:"expiresAt,omitempty"`
}

// Discount returns the reduction granted on subtotal, never negative and
// never more than subtotal.
func (c Coupon) Discount(subtotal decimal.Decimal) decimal.Decimal {
	if subtotal.LessThanOrEqual(money.Zero) {
		return money.Zero
	}
	var d decimal.Decimal
	switch c.Kind {
	case Percent:
		d = money.Percent(subtotal, c.Value)
	case Fixed:
		d = c.Value
	default:
		return money.Zero
	}
	return money.Clamp(d, money.Zero, subtotal)
}

func (c Coupon) Expired(now time.Time) bool {
	return c.ExpiresAt != nil && !now.Before(*c.ExpiresAt)
}

// Checker is the backend call a Validator relies on.
type Checker interface {
	CheckCoupon(ctx context.Context, sc backend.Scope, code string, shopID int64) (backend.CouponCheck, error)
}

// Validator turns a code into a Coupon through the backend.
type Validator struct {
	checker Checker
	now     func() time.Time
}

func NewValidator(checker Checker) *Validator {
	return &Validator{checker: checker, now: time.Now}
}

// Validate checks code for shopID. Rejections are *InvalidError; backend
// outages are returned as they are so callers can tell them apart.
func (v *Validator) Validate(ctx context.Context, sc backend.Scope, code string, shopID int64) (Coupon, error) {
	code = strings.TrimSpace(code)
	if code == "" {
		metrics.CouponApplicationsTotal.WithLabelValues("invalid").Inc()
		return Coupon{}, &InvalidError{Message: "Please enter a coupon code"}
	}

	res, err := v.checker.CheckCoupon(ctx, sc, code, shopID)
	if err != nil {
		var apiErr *backend.APIError
		if errors.As(err, &apiErr) && apiErr.StatusCode < 500 {
			metrics.CouponApplicationsTotal.WithLabelValues("invalid").Inc()
			msg := apiErr.Message
			if msg == "" {
				msg = "Invalid coupon code"
			}
			return Coupon{}, &InvalidError{Code: code, Message: msg}
		}
		metrics.CouponApplicationsTotal.WithLabelValues("error").Inc()
		return Coupon{}, err
	}

	c, err := fromCheck(code, res)
	if err == nil && c.Expired(v.now()) {
		err = &InvalidError{Code: code, Message: "Coupon has expired"}
	}
	if err != nil {
		metrics.CouponApplicationsTotal.WithLabelValues("invalid").Inc()
		return Coupon{}, err
	}
	metrics.CouponApplicationsTotal.WithLabelValues("accepted").Inc()
	return c, nil
}

func fromCheck(code string, res backend.CouponCheck) (Coupon, error) {
	c := Coupon{Code: code, Kind: Kind(strings.ToLower(res.Type)), Value: money.FromFloat(res.Price)}
	if c.Kind != Fixed && c.Kind != Percent {
		return Coupon{}, &InvalidError{Code: code, Message: "Invalid coupon code"}
	}
	if !c.Value.IsPositive() || (c.Kind == Percent && c.Value.GreaterThan(money.Hundred)) {
		return Coupon{}, &InvalidError{Code: code, Message: "Invalid coupon code"}
	}
	if res.ExpiredAt != "" {
		t, ok := parseTime(res.ExpiredAt)
		if ok {
			c.ExpiresAt = &t
		}
	}
	return c, nil
}

var timeLayouts = []string{time.RFC3339, "2006-01-02 15:04:05", "2006-01-02"}

func parseTime(s string) (time.Time, bool) {
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			if layout == "2006-01-02" {
				t = t.Add(24 * time.Hour)
			}
			return t, true
		}
	}
	return time.Time{}, false
}
