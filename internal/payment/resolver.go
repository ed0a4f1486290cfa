package payment

import (
	"context"
	"log"

	"github.com/wichananm65/storefront-gateway/internal/backend"
	"github.com/wichananm65/storefront-gateway/internal/cart"
	"github.com/wichananm65/storefront-gateway/internal/metrics"
	"golang.org/x/sync/singleflight"
)

// Rule names the signal that decided a result.
type Rule string

const (
	RuleStatusParam Rule = "status-param"
	RuleOrderStatus Rule = "order-status"
	RuleProcess     Rule = "process-endpoint"
	RuleFallback    Rule = "fallback"
)

type Result struct {
	Status  Outcome `json:"status"`
	OrderID string  `json:"orderId,omitempty"`
	Message string  `json:"message,omitempty"`
	Rule    Rule    `json:"rule"`
}

// RedirectTo is the page a successful result navigates to, or "".
func (r Result) RedirectTo() string {
	if r.Status != Success || r.OrderID == "" {
		return ""
	}
	return "/orders/" + r.OrderID
}

// Signals is everything a resolution may look at. The fetchers are only
// called when the rules before them did not decide.
type Signals struct {
	Status          string
	OrderID         string
	SessionID       string
	PaymentIntentID string

	FetchOrder func(orderID string) (backend.Order, error)
	Process    func(req backend.PaymentResultRequest) (backend.PaymentResult, error)
}

type rule struct {
	name   Rule
	decide func(Signals) (Result, bool)
}

// rules is evaluated top to bottom; the first rule that decides wins.
var rules = []rule{
	{RuleStatusParam, func(s Signals) (Result, bool) {
		o, ok := FromStatusParam(s.Status)
		return Result{Status: o, OrderID: s.OrderID}, ok
	}},
	{RuleOrderStatus, func(s Signals) (Result, bool) {
		if s.OrderID == "" || s.FetchOrder == nil {
			return Result{}, false
		}
		o, err := s.FetchOrder(s.OrderID)
		if err != nil {
			return Result{}, false
		}
		return Result{Status: FromOrder(o), OrderID: s.OrderID}, true
	}},
	{RuleProcess, func(s Signals) (Result, bool) {
		if s.Process == nil || (s.SessionID == "" && s.PaymentIntentID == "" && s.OrderID == "") {
			return Result{}, false
		}
		res, err := s.Process(backend.PaymentResultRequest{
			OrderID:         s.OrderID,
			SessionID:       s.SessionID,
			PaymentIntentID: s.PaymentIntentID,
		})
		if err != nil {
			return Result{}, false
		}
		o, ok := FromProcessStatus(res.Status)
		if !ok {
			return Result{}, false
		}
		id := res.OrderID
		if id == "" {
			id = s.OrderID
		}
		return Result{Status: o, OrderID: id, Message: res.Message}, true
	}},
	{RuleFallback, func(s Signals) (Result, bool) {
		return Result{Status: Failed, OrderID: s.OrderID, Message: GenericMessage}, true
	}},
}

// Decide runs the rules against s and always returns a terminal result.
func Decide(s Signals) Result {
	for _, r := range rules {
		if res, ok := r.decide(s); ok {
			res.Rule = r.name
			return res
		}
	}
	return Result{Status: Failed, Message: GenericMessage, Rule: RuleFallback}
}

type Backend interface {
	OrderDetails(ctx context.Context, sc backend.Scope, id string) (backend.Order, error)
	ProcessPaymentResult(ctx context.Context, sc backend.Scope, req backend.PaymentResultRequest) (backend.PaymentResult, error)
}

type CartClearer interface {
	Clear(ctx context.Context, deviceID string) (cart.View, error)
}

// Resolver gathers the signals of a returning customer and decides.
type Resolver struct {
	backend Backend
	markers *Markers
	carts   CartClearer
	group   singleflight.Group
}

func NewResolver(be Backend, markers *Markers, carts CartClearer) *Resolver {
	return &Resolver{backend: be, markers: markers, carts: carts}
}

// Resolve consumes the device's pending marker, decides the outcome and
// clears the device cart on success. Backend failures only move the
// decision on to the next rule.
func (r *Resolver) Resolve(ctx context.Context, deviceID string, sc backend.Scope, p Params) Result {
	s := Signals{
		Status:          p.Status,
		OrderID:         p.OrderID,
		SessionID:       p.SessionID,
		PaymentIntentID: p.PaymentIntentID,
	}
	if deviceID != "" && r.markers != nil {
		id, ok, err := r.markers.Take(ctx, deviceID)
		switch {
		case err != nil:
			log.Printf("payment: reading pending marker of device %s: %v", deviceID, err)
		case ok && s.OrderID == "":
			s.OrderID = id
		}
	}

	s.FetchOrder = func(id string) (backend.Order, error) {
		// the fetch is shared, so one caller going away must not fail the rest
		v, err, _ := r.group.Do(sc.Token+"|"+id, func() (interface{}, error) {
			return r.backend.OrderDetails(context.WithoutCancel(ctx), sc, id)
		})
		if err != nil {
			log.Printf("payment: fetching order %s: %v", id, err)
			return backend.Order{}, err
		}
		return v.(backend.Order), nil
	}
	s.Process = func(req backend.PaymentResultRequest) (backend.PaymentResult, error) {
		res, err := r.backend.ProcessPaymentResult(ctx, sc, req)
		if err != nil {
			log.Printf("payment: processing result: %v", err)
		}
		return res, err
	}

	res := Decide(s)
	metrics.PaymentResolutionsTotal.WithLabelValues(string(res.Status), string(res.Rule)).Inc()

	if res.Status == Success && deviceID != "" && r.carts != nil {
		if _, err := r.carts.Clear(ctx, deviceID); err != nil {
			log.Printf("payment: clearing cart of device %s: %v", deviceID, err)
		}
	}
	return res
}
