package checkout

import (
	"context"
	"errors"
	"log"
	"strconv"
	"strings"

	"github.com/wichananm65/storefront-gateway/internal/backend"
	"github.com/wichananm65/storefront-gateway/internal/cart"
	"github.com/wichananm65/storefront-gateway/internal/state"
)

var (
	ErrUnauthenticated = errors.New("sign in to place an order")
	ErrAddressRequired = errors.New("a delivery address is required")
	ErrPaymentMethod   = errors.New("payment method is required")
	ErrDeliveryType    = errors.New("unknown delivery type")
)

const (
	DeliveryTypeDelivery = "delivery"
	DeliveryTypePickup   = "pickup"
)

type Backend interface {
	CreateOrder(ctx context.Context, sc backend.Scope, req backend.CreateOrderRequest) (backend.CreatedOrder, error)
}

type Stores interface {
	Cart(ctx context.Context, deviceID string) (*state.Store[cart.Cart], error)
}

// Markers records the order a device is being sent to a gateway for.
type Markers interface {
	Put(ctx context.Context, deviceID, orderID string) error
}

type Request struct {
	AddressID     int64  `json:"addressId"`
	DeliveryType  string `json:"deliveryType"`
	PaymentMethod string `json:"paymentMethod"`
	Note          string `json:"note"`
}

type Result struct {
	Order      backend.CreatedOrder `json:"order"`
	PaymentURL string               `json:"paymentUrl,omitempty"`
	Totals     cart.DisplayTotals   `json:"totals"`
}

type Service struct {
	stores  Stores
	backend Backend
	markers Markers
}

func NewService(stores Stores, be Backend, markers Markers) *Service {
	return &Service{stores: stores, backend: be, markers: markers}
}

// PlaceOrder creates an order from the device cart. An order that needs no
// gateway empties the cart right away; a gateway order leaves it until the
// payment result is known and records the pending marker before the URL is
// handed out.
func (s *Service) PlaceOrder(ctx context.Context, deviceID string, sc backend.Scope, req Request) (Result, error) {
	if sc.Token == "" {
		return Result{}, ErrUnauthenticated
	}
	req.DeliveryType = strings.ToLower(strings.TrimSpace(req.DeliveryType))
	if req.DeliveryType == "" {
		req.DeliveryType = DeliveryTypeDelivery
	}
	switch req.DeliveryType {
	case DeliveryTypeDelivery:
		if req.AddressID <= 0 {
			return Result{}, ErrAddressRequired
		}
	case DeliveryTypePickup:
	default:
		return Result{}, ErrDeliveryType
	}
	req.PaymentMethod = strings.ToLower(strings.TrimSpace(req.PaymentMethod))
	if req.PaymentMethod == "" {
		return Result{}, ErrPaymentMethod
	}

	store, err := s.stores.Cart(ctx, deviceID)
	if err != nil {
		return Result{}, err
	}
	c, err := store.State()
	if err != nil {
		return Result{}, err
	}
	if c.IsEmpty() {
		return Result{}, cart.ErrEmpty
	}

	totals := cart.Compute(c).Display()
	order := backend.CreateOrderRequest{
		ShopID:        c.ShopID,
		AddressID:     req.AddressID,
		DeliveryType:  req.DeliveryType,
		PaymentMethod: req.PaymentMethod,
		Note:          strings.TrimSpace(req.Note),
		Details:       cart.ToBackendDetails(c),
		Subtotal:      totals.Subtotal,
		Discount:      totals.Discount,
		DeliveryFee:   totals.DeliveryFee,
		Tax:           totals.Tax,
		Total:         totals.Total,
	}
	if req.DeliveryType == DeliveryTypePickup {
		order.AddressID = 0
	}
	if c.Coupon != nil {
		order.CouponCode = c.Coupon.Code
	}

	created, err := s.backend.CreateOrder(ctx, sc, order)
	if err != nil {
		return Result{}, err
	}
	res := Result{Order: created, PaymentURL: created.PaymentURL, Totals: totals}

	if created.PaymentURL != "" {
		if err := s.markers.Put(ctx, deviceID, strconv.FormatInt(created.ID, 10)); err != nil {
			log.Printf("checkout: pending marker for order %d: %v", created.ID, err)
		}
		return res, nil
	}
	if _, err := store.Dispatch(ctx, cart.Clear()); err != nil {
		log.Printf("checkout: clearing cart after order %d: %v", created.ID, err)
	}
	return res, nil
}
