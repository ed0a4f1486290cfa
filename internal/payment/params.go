package payment

import (
	"encoding/json"
	"net/url"
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"
)

// Params are the payment parameters a gateway or the result page sends.
type Params struct {
	OrderID         string
	Status          string
	SessionID       string
	PaymentIntentID string
	Error           string
}

var (
	orderIDKeys = []string{"o_id", "order_id", "orderId"}
	errorKeys   = []string{"error", "message"}
)

// ParseParams reads the parameters from the query string, then a form
// body, then a JSON body. The first non-empty value wins.
func ParseParams(c *fiber.Ctx) Params {
	var body map[string]any
	if strings.HasPrefix(c.Get(fiber.HeaderContentType), fiber.MIMEApplicationJSON) && len(c.Body()) > 0 {
		_ = json.Unmarshal(c.Body(), &body)
	}
	isPost := c.Method() == fiber.MethodPost

	lookup := func(keys ...string) string {
		for _, k := range keys {
			if v := strings.TrimSpace(c.Query(k)); v != "" {
				return v
			}
		}
		if isPost && body == nil {
			for _, k := range keys {
				if v := strings.TrimSpace(c.FormValue(k)); v != "" {
					return v
				}
			}
		}
		for _, k := range keys {
			if v := stringify(body[k]); v != "" {
				return v
			}
		}
		return ""
	}

	return Params{
		OrderID:         lookup(orderIDKeys...),
		Status:          lookup("status"),
		SessionID:       lookup("session_id"),
		PaymentIntentID: lookup("payment_intent_id"),
		Error:           lookup(errorKeys...),
	}
}

// Query renders p in the normalized form the result page reads, leaving
// out empty values.
func (p Params) Query() url.Values {
	q := url.Values{}
	set := func(k, v string) {
		if v != "" {
			q.Set(k, v)
		}
	}
	set("order_id", p.OrderID)
	set("status", p.Status)
	set("session_id", p.SessionID)
	set("payment_intent_id", p.PaymentIntentID)
	return q
}

func stringify(v any) string {
	switch t := v.(type) {
	case string:
		return strings.TrimSpace(t)
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(t)
	}
	return ""
}
